package postgres

import (
	"context"
	"errors"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"

	"github.com/riskibarqy/fotmob-etl/internal/domain/match"
	"github.com/riskibarqy/fotmob-etl/internal/domain/standing"
	"github.com/riskibarqy/fotmob-etl/internal/domain/team"
	"github.com/riskibarqy/fotmob-etl/internal/platform/logging"
	qb "github.com/riskibarqy/fotmob-etl/internal/platform/querybuilder"
)

type BulkLoaderTestSuite struct {
	suite.Suite
	db     *sqlx.DB
	mock   sqlmock.Sqlmock
	opened int
	loader *BulkLoader
}

func (s *BulkLoaderTestSuite) SetupTest() {
	mockDB, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherEqual))
	require.NoError(s.T(), err)

	s.db = sqlx.NewDb(mockDB, "postgres")
	s.mock = mock
	s.opened = 0
	s.loader = NewBulkLoader(ConnectorFunc(func(context.Context) (*sqlx.DB, error) {
		s.opened++
		return s.db, nil
	}), logging.NewNop())
}

func (s *BulkLoaderTestSuite) TearDownTest() {
	assert.NoError(s.T(), s.mock.ExpectationsWereMet())
}

func (s *BulkLoaderTestSuite) TestLoad_InsertsEveryRowInOneTransaction() {
	const query = "INSERT INTO teams (team_id, team_name) VALUES ($1, $2)"

	s.mock.ExpectBegin()
	prep := s.mock.ExpectPrepare(query)
	prep.ExpectExec().WithArgs(int64(8636), "Inter").WillReturnResult(sqlmock.NewResult(0, 1))
	prep.ExpectExec().WithArgs(int64(8564), "Milan").WillReturnResult(sqlmock.NewResult(0, 1))
	s.mock.ExpectCommit()
	s.mock.ExpectClose()

	n, err := s.loader.Load(context.Background(), "teams", []qb.Row{
		{"team_id": int64(8636), "team_name": "Inter"},
		{"team_name": "Milan", "team_id": int64(8564)},
	}, []string{"team_id", "team_name"})

	require.NoError(s.T(), err)
	assert.Equal(s.T(), int64(2), n)
	assert.Equal(s.T(), 1, s.opened)
}

func (s *BulkLoaderTestSuite) TestLoad_NoRowsCommitsWithoutPreparing() {
	s.mock.ExpectBegin()
	s.mock.ExpectCommit()
	s.mock.ExpectClose()

	n, err := s.loader.Load(context.Background(), "matches", nil, []string{"season"})

	require.NoError(s.T(), err)
	assert.Zero(s.T(), n)
}

func (s *BulkLoaderTestSuite) TestLoad_RowFailureRollsBack() {
	const query = "INSERT INTO teams (team_id) VALUES ($1)"

	s.mock.ExpectBegin()
	prep := s.mock.ExpectPrepare(query)
	prep.ExpectExec().WithArgs(int64(1)).WillReturnResult(sqlmock.NewResult(0, 1))
	prep.ExpectExec().WithArgs(int64(1)).WillReturnError(&pq.Error{
		Code:       "23505",
		Constraint: "teams_pkey",
		Detail:     "Key (team_id)=(1) already exists.",
	})
	s.mock.ExpectRollback()
	s.mock.ExpectClose()

	n, err := s.loader.Load(context.Background(), "teams", []qb.Row{
		{"team_id": int64(1)},
		{"team_id": int64(1)},
	}, []string{"team_id"})

	require.Error(s.T(), err)
	assert.Zero(s.T(), n)
	assert.Contains(s.T(), err.Error(), "insert teams row=1")
	assert.Contains(s.T(), err.Error(), "constraint=teams_pkey")

	var pqErr *pq.Error
	assert.True(s.T(), errors.As(err, &pqErr))
	assert.True(s.T(), isUniqueViolation(err))
}

func (s *BulkLoaderTestSuite) TestLoad_BeginFailureClosesConnection() {
	s.mock.ExpectBegin().WillReturnError(errors.New("connection refused"))
	s.mock.ExpectClose()

	_, err := s.loader.Load(context.Background(), "teams", []qb.Row{{"team_id": int64(1)}}, []string{"team_id"})

	require.Error(s.T(), err)
	assert.Contains(s.T(), err.Error(), "begin tx insert teams")
}

func (s *BulkLoaderTestSuite) TestLoad_BuildFailureDoesNotConnect() {
	_, err := s.loader.Load(context.Background(), "teams", []qb.Row{{"team_id": int64(1)}}, []string{"team_id", "team_name"})

	require.Error(s.T(), err)
	assert.Zero(s.T(), s.opened)
}

func (s *BulkLoaderTestSuite) TestStandingRepository_UsesColumnSubset() {
	const query = "INSERT INTO standings (season, team_id, rank, played, wins, draws, losses, pts, scoreStr, goalConDiff) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)"

	s.mock.ExpectBegin()
	prep := s.mock.ExpectPrepare(query)
	prep.ExpectExec().
		WithArgs("2023/2024", int64(8636), 1, 38, 29, 7, 2, 94, "89-22", 67).
		WillReturnResult(sqlmock.NewResult(0, 1))
	s.mock.ExpectCommit()
	s.mock.ExpectClose()

	repo := NewStandingRepository(s.loader)
	n, err := repo.InsertMany(context.Background(), []standing.Record{{
		Season:      "2023/2024",
		Rank:        1,
		TeamID:      8636,
		TeamName:    "Inter",
		ShortName:   "INT",
		Played:      38,
		Wins:        29,
		Draws:       7,
		Losses:      2,
		Pts:         94,
		ScoreStr:    "89-22",
		GoalConDiff: 67,
	}})

	require.NoError(s.T(), err)
	assert.Equal(s.T(), int64(1), n)
}

func (s *BulkLoaderTestSuite) TestMatchRepository_UsesRecordColumns() {
	const query = "INSERT INTO matches (season, round, home_team_id, away_team_id, score, time) VALUES ($1, $2, $3, $4, $5, $6)"

	s.mock.ExpectBegin()
	prep := s.mock.ExpectPrepare(query)
	prep.ExpectExec().
		WithArgs("2023/2024", "1", int64(8636), int64(9885), match.ScoreUnavailable, "2023-08-19T18:45:00.000Z").
		WillReturnResult(sqlmock.NewResult(0, 1))
	s.mock.ExpectCommit()
	s.mock.ExpectClose()

	repo := NewMatchRepository(s.loader)
	n, err := repo.InsertMany(context.Background(), []match.Record{{
		Season:     "2023/2024",
		Round:      "1",
		HomeTeamID: 8636,
		AwayTeamID: 9885,
		Score:      match.ScoreUnavailable,
		Time:       "2023-08-19T18:45:00.000Z",
	}})

	require.NoError(s.T(), err)
	assert.Equal(s.T(), int64(1), n)
}

func (s *BulkLoaderTestSuite) TestTeamRepository_EmptyBatch() {
	s.mock.ExpectBegin()
	s.mock.ExpectCommit()
	s.mock.ExpectClose()

	n, err := NewTeamRepository(s.loader).InsertMany(context.Background(), []team.Record{})

	require.NoError(s.T(), err)
	assert.Zero(s.T(), n)
}

func TestBulkLoaderTestSuite(t *testing.T) {
	suite.Run(t, new(BulkLoaderTestSuite))
}

func TestDescribeError_LeavesOtherErrorsAlone(t *testing.T) {
	t.Parallel()

	plain := errors.New("driver: bad connection")
	if got := describeError(plain); got != plain {
		t.Fatalf("expected the same error back, got %v", got)
	}
	if isUniqueViolation(plain) {
		t.Fatalf("plain errors are not unique violations")
	}
}
