package usecase

import (
	"errors"
	"testing"

	"github.com/riskibarqy/fotmob-etl/internal/domain/match"
)

func rawMatch(round string, homeID, awayID any, score *string) map[string]any {
	status := map[string]any{
		"utcTime":  "2023-08-19T16:30:00.000Z",
		"finished": true,
	}
	if score != nil {
		status["scoreStr"] = *score
	}
	return map[string]any{
		"round":  round,
		"home":   map[string]any{"id": homeID, "name": "Home"},
		"away":   map[string]any{"id": awayID, "name": "Away"},
		"status": status,
	}
}

func rawStanding(idx int, id int64, name string) map[string]any {
	return map[string]any{
		"idx":         float64(idx),
		"id":          float64(id),
		"name":        name,
		"shortName":   name[:3],
		"played":      float64(38),
		"wins":        float64(29),
		"draws":       float64(7),
		"losses":      float64(2),
		"pts":         float64(94),
		"scoresStr":   "89-22",
		"goalConDiff": float64(67),
	}
}

func strPtr(v string) *string { return &v }

func TestProcessMatches_PreservesCountOrderAndSeason(t *testing.T) {
	t.Parallel()

	const season = "2023/2024"
	matches := []map[string]any{
		rawMatch("1", "8636", "9885", strPtr("2 - 0")),
		rawMatch("1", float64(8564), float64(8543), nil),
		rawMatch("2", "9885", "8636", strPtr("1 - 1")),
	}

	got, err := ProcessMatches(matches, season)
	if err != nil {
		t.Fatalf("process matches: %v", err)
	}
	if len(got) != len(matches) {
		t.Fatalf("expected %d records, got=%d", len(matches), len(got))
	}
	for i, record := range got {
		if record.Season != season {
			t.Fatalf("record %d has season=%q", i, record.Season)
		}
	}
	if got[0].HomeTeamID != 8636 || got[0].AwayTeamID != 9885 || got[0].Score != "2 - 0" {
		t.Fatalf("unexpected first record: %+v", got[0])
	}
	if got[2].Round != "2" || got[2].HomeTeamID != 9885 {
		t.Fatalf("order not preserved: %+v", got[2])
	}
	if got[0].Time != "2023-08-19T16:30:00.000Z" {
		t.Fatalf("unexpected time: %q", got[0].Time)
	}
}

func TestProcessMatches_ScoreDefault(t *testing.T) {
	t.Parallel()

	got, err := ProcessMatches([]map[string]any{
		rawMatch("38", "1", "2", nil),
		rawMatch("38", "3", "4", strPtr("N/A-ish")),
	}, "2013/2014")
	if err != nil {
		t.Fatalf("process matches: %v", err)
	}
	if got[0].Score != match.ScoreUnavailable {
		t.Fatalf("expected missing score to map to %q, got=%q", match.ScoreUnavailable, got[0].Score)
	}
	if got[1].Score != "N/A-ish" {
		t.Fatalf("present score must be unchanged, got=%q", got[1].Score)
	}
}

func TestProcessMatches_MissingKeyFails(t *testing.T) {
	t.Parallel()

	broken := rawMatch("1", "1", "2", nil)
	delete(broken["status"].(map[string]any), "utcTime")

	_, err := ProcessMatches([]map[string]any{rawMatch("1", "1", "2", nil), broken}, "2020/2021")
	if err == nil {
		t.Fatalf("expected error for missing utcTime")
	}
	if !errors.Is(err, ErrMissingField) {
		t.Fatalf("expected ErrMissingField, got %v", err)
	}

	noHome := rawMatch("1", "1", "2", nil)
	delete(noHome, "home")
	if _, err := ProcessMatches([]map[string]any{noHome}, "2020/2021"); !errors.Is(err, ErrMissingField) {
		t.Fatalf("expected ErrMissingField for missing home, got %v", err)
	}
}

func TestProcessStandings_MapsScoresStrToScoreStr(t *testing.T) {
	t.Parallel()

	got, err := ProcessStandings([]map[string]any{
		rawStanding(1, 8636, "Inter"),
		rawStanding(2, 8564, "Milan"),
	}, "2023/2024")
	if err != nil {
		t.Fatalf("process standings: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("expected 2 rows, got=%d", len(got))
	}

	row := got[0]
	if row.ScoreStr != "89-22" {
		t.Fatalf("expected scoreStr=89-22, got=%q", row.ScoreStr)
	}
	if row.Rank != 1 || row.TeamID != 8636 || row.TeamName != "Inter" || row.ShortName != "Int" {
		t.Fatalf("unexpected identity fields: %+v", row)
	}
	if row.Played != 38 || row.Wins != 29 || row.Draws != 7 || row.Losses != 2 || row.Pts != 94 || row.GoalConDiff != 67 {
		t.Fatalf("unexpected stats: %+v", row)
	}
	if row.Season != "2023/2024" {
		t.Fatalf("unexpected season: %q", row.Season)
	}
}

func TestProcessStandings_RequiresUpstreamFieldName(t *testing.T) {
	t.Parallel()

	item := rawStanding(1, 8636, "Inter")
	item["scoreStr"] = item["scoresStr"]
	delete(item, "scoresStr")

	_, err := ProcessStandings([]map[string]any{item}, "2023/2024")
	if !errors.Is(err, ErrMissingField) {
		t.Fatalf("expected ErrMissingField when scoresStr is absent, got %v", err)
	}
}

func TestProcessStandings_WrongTypeFails(t *testing.T) {
	t.Parallel()

	item := rawStanding(1, 8636, "Inter")
	item["pts"] = "ninety"

	_, err := ProcessStandings([]map[string]any{item}, "2023/2024")
	if !errors.Is(err, ErrFieldType) {
		t.Fatalf("expected ErrFieldType, got %v", err)
	}
}

func TestProcessStandings_NullStatIsMalformed(t *testing.T) {
	t.Parallel()

	for _, field := range []string{"played", "pts", "goalConDiff", "id"} {
		item := rawStanding(1, 8636, "Inter")
		item[field] = nil

		_, err := ProcessStandings([]map[string]any{item}, "2023/2024")
		if !errors.Is(err, ErrFieldType) {
			t.Fatalf("expected ErrFieldType for null %s, got %v", field, err)
		}
	}
}

func TestProcessMatches_NullScoreBecomesUnavailable(t *testing.T) {
	t.Parallel()

	item := rawMatch("12", "8636", "9885", nil)
	item["status"].(map[string]any)["scoreStr"] = nil

	got, err := ProcessMatches([]map[string]any{item}, "2023/2024")
	if err != nil {
		t.Fatalf("process matches: %v", err)
	}
	if got[0].Score != match.ScoreUnavailable {
		t.Fatalf("expected null score to map to %q, got=%q", match.ScoreUnavailable, got[0].Score)
	}
}
