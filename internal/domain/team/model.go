package team

import "github.com/riskibarqy/fotmob-etl/internal/domain/standing"

// Record is a club as stored in the teams table.
type Record struct {
	TeamID    int64  `db:"team_id"`
	TeamName  string `db:"team_name"`
	ShortName string `db:"short_name"`
}

// FromStandings projects standings onto teams, keeping the first row seen for
// each team id. Standings are expected in season iteration order.
func FromStandings(items []standing.Record) []Record {
	seen := make(map[int64]struct{}, len(items))
	out := make([]Record, 0, len(items))
	for _, item := range items {
		if _, ok := seen[item.TeamID]; ok {
			continue
		}
		seen[item.TeamID] = struct{}{}
		out = append(out, Record{
			TeamID:    item.TeamID,
			TeamName:  item.TeamName,
			ShortName: item.ShortName,
		})
	}
	return out
}
