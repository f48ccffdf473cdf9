package usecase

import (
	crerr "github.com/cockroachdb/errors"

	"github.com/riskibarqy/fotmob-etl/internal/domain/match"
	"github.com/riskibarqy/fotmob-etl/internal/domain/standing"
	"github.com/riskibarqy/fotmob-etl/internal/platform/rawjson"
)

// ProcessMatches flattens one season's allMatches entries. Output order follows
// input order and every record carries season.
func ProcessMatches(matches []map[string]any, season string) ([]match.Record, error) {
	out := make([]match.Record, 0, len(matches))
	for i, item := range matches {
		record, err := mapMatch(item, season)
		if err != nil {
			return nil, crerr.Wrapf(err, "process match index=%d season=%s", i, season)
		}
		out = append(out, record)
	}
	return out, nil
}

// ProcessStandings flattens one season's table rows. The upstream names the
// goals field "scoresStr"; it is stored as scoreStr.
func ProcessStandings(standings []map[string]any, season string) ([]standing.Record, error) {
	out := make([]standing.Record, 0, len(standings))
	for i, item := range standings {
		record, err := mapStanding(item, season)
		if err != nil {
			return nil, crerr.Wrapf(err, "process standing index=%d season=%s", i, season)
		}
		out = append(out, record)
	}
	return out, nil
}

func mapMatch(item map[string]any, season string) (match.Record, error) {
	round, err := rawjson.Text(item, "round")
	if err != nil {
		return match.Record{}, err
	}
	homeID, err := rawjson.Int64(item, "home", "id")
	if err != nil {
		return match.Record{}, err
	}
	awayID, err := rawjson.Int64(item, "away", "id")
	if err != nil {
		return match.Record{}, err
	}
	score, err := rawjson.TextOr(item, match.ScoreUnavailable, "status", "scoreStr")
	if err != nil {
		return match.Record{}, err
	}
	kickoff, err := rawjson.Text(item, "status", "utcTime")
	if err != nil {
		return match.Record{}, err
	}

	return match.Record{
		Season:     season,
		Round:      round,
		HomeTeamID: homeID,
		AwayTeamID: awayID,
		Score:      score,
		Time:       kickoff,
	}, nil
}

func mapStanding(item map[string]any, season string) (standing.Record, error) {
	var (
		record = standing.Record{Season: season}
		err    error
	)

	if record.Rank, err = rawjson.Int(item, "idx"); err != nil {
		return standing.Record{}, err
	}
	if record.TeamID, err = rawjson.Int64(item, "id"); err != nil {
		return standing.Record{}, err
	}
	if record.TeamName, err = rawjson.Text(item, "name"); err != nil {
		return standing.Record{}, err
	}
	if record.ShortName, err = rawjson.Text(item, "shortName"); err != nil {
		return standing.Record{}, err
	}
	if record.Played, err = rawjson.Int(item, "played"); err != nil {
		return standing.Record{}, err
	}
	if record.Wins, err = rawjson.Int(item, "wins"); err != nil {
		return standing.Record{}, err
	}
	if record.Draws, err = rawjson.Int(item, "draws"); err != nil {
		return standing.Record{}, err
	}
	if record.Losses, err = rawjson.Int(item, "losses"); err != nil {
		return standing.Record{}, err
	}
	if record.Pts, err = rawjson.Int(item, "pts"); err != nil {
		return standing.Record{}, err
	}
	if record.ScoreStr, err = rawjson.Text(item, "scoresStr"); err != nil {
		return standing.Record{}, err
	}
	if record.GoalConDiff, err = rawjson.Int(item, "goalConDiff"); err != nil {
		return standing.Record{}, err
	}

	return record, nil
}
