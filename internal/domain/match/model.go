package match

// ScoreUnavailable is stored when the upstream status carries no score.
const ScoreUnavailable = "N/A"

// Record is one fixture of a season flattened for the matches table.
type Record struct {
	Season     string `db:"season"`
	Round      string `db:"round"`
	HomeTeamID int64  `db:"home_team_id"`
	AwayTeamID int64  `db:"away_team_id"`
	Score      string `db:"score"`
	Time       string `db:"time"`
}
