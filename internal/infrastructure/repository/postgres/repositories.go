package postgres

import (
	"context"
	"fmt"

	"github.com/riskibarqy/fotmob-etl/internal/domain/match"
	"github.com/riskibarqy/fotmob-etl/internal/domain/standing"
	"github.com/riskibarqy/fotmob-etl/internal/domain/team"
	qb "github.com/riskibarqy/fotmob-etl/internal/platform/querybuilder"
)

const (
	MatchesTable   = "matches"
	TeamsTable     = "teams"
	StandingsTable = "standings"
)

// standingColumns is the subset of standing fields persisted; names live in teams.
var standingColumns = []string{
	"season",
	"team_id",
	"rank",
	"played",
	"wins",
	"draws",
	"losses",
	"pts",
	"scoreStr",
	"goalConDiff",
}

type MatchRepository struct {
	loader *BulkLoader
}

func NewMatchRepository(loader *BulkLoader) *MatchRepository {
	return &MatchRepository{loader: loader}
}

func (r *MatchRepository) InsertMany(ctx context.Context, items []match.Record) (int64, error) {
	return insertModels(ctx, r.loader, MatchesTable, items, nil)
}

type TeamRepository struct {
	loader *BulkLoader
}

func NewTeamRepository(loader *BulkLoader) *TeamRepository {
	return &TeamRepository{loader: loader}
}

func (r *TeamRepository) InsertMany(ctx context.Context, items []team.Record) (int64, error) {
	return insertModels(ctx, r.loader, TeamsTable, items, nil)
}

type StandingRepository struct {
	loader *BulkLoader
}

func NewStandingRepository(loader *BulkLoader) *StandingRepository {
	return &StandingRepository{loader: loader}
}

func (r *StandingRepository) InsertMany(ctx context.Context, items []standing.Record) (int64, error) {
	return insertModels(ctx, r.loader, StandingsTable, items, standingColumns)
}

func insertModels[T any](ctx context.Context, loader *BulkLoader, table string, items []T, columns []string) (int64, error) {
	rows, modelColumns, err := qb.RowsFromModels(items)
	if err != nil {
		return 0, fmt.Errorf("map %s rows: %w", table, err)
	}
	if len(columns) == 0 {
		columns = modelColumns
	}
	return loader.Load(ctx, table, rows, columns)
}
