package usecase

import (
	"context"
	"strings"
	"time"

	crerr "github.com/cockroachdb/errors"
	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"

	"github.com/riskibarqy/fotmob-etl/internal/domain/match"
	"github.com/riskibarqy/fotmob-etl/internal/domain/standing"
	"github.com/riskibarqy/fotmob-etl/internal/domain/team"
	"github.com/riskibarqy/fotmob-etl/internal/platform/logging"
	"github.com/riskibarqy/fotmob-etl/internal/platform/resilience"
)

// LeagueFetcher returns one season's raw collections as the provider sent them.
type LeagueFetcher interface {
	FetchSeason(ctx context.Context, season string) (RawSeason, error)
}

// RawSeason holds matches.allMatches and table[0].data.table.all.
type RawSeason struct {
	Matches   []map[string]any
	Standings []map[string]any
}

type ETLConfig struct {
	Seasons []string
	Retry   resilience.RetryPolicy
}

// Batch is everything one run fetched, in season order.
type Batch struct {
	Matches   []match.Record
	Standings []standing.Record
}

// Teams is the deduplicated team projection of the batch standings.
func (b Batch) Teams() []team.Record {
	return team.FromStandings(b.Standings)
}

type LoadResult struct {
	RunID     string `json:"run_id"`
	Matches   int64  `json:"matches"`
	Teams     int64  `json:"teams"`
	Standings int64  `json:"standings"`
}

type ETLService struct {
	cfg          ETLConfig
	fetcher      LeagueFetcher
	matchRepo    match.Repository
	teamRepo     team.Repository
	standingRepo standing.Repository
	logger       *logging.Logger
	newRunID     func() string
}

func NewETLService(
	cfg ETLConfig,
	fetcher LeagueFetcher,
	matchRepo match.Repository,
	teamRepo team.Repository,
	standingRepo standing.Repository,
	logger *logging.Logger,
) *ETLService {
	if logger == nil {
		logger = logging.Default()
	}
	cfg.Seasons = append([]string(nil), cfg.Seasons...)
	cfg.Retry = resilience.NormalizeRetryPolicy(cfg.Retry)

	return &ETLService{
		cfg:          cfg,
		fetcher:      fetcher,
		matchRepo:    matchRepo,
		teamRepo:     teamRepo,
		standingRepo: standingRepo,
		logger:       logger,
		newRunID:     uuid.NewString,
	}
}

// Run fetches and transforms every configured season, then loads matches,
// teams and standings in that order. A failed load step leaves earlier steps
// committed.
func (s *ETLService) Run(ctx context.Context) (_ LoadResult, err error) {
	runID := s.newRunID()
	ctx, span := startETLSpan(ctx, "Run", attribute.String("etl.run_id", runID))
	defer func() { span.finish(err) }()

	logger := s.logger.With("run_id", runID)

	batch, err := s.fetchAndProcess(ctx, logger)
	if err != nil {
		logger.ErrorContext(ctx, "fetch and process failed", "error", err)
		return LoadResult{RunID: runID}, err
	}

	result, err := s.load(ctx, logger, batch)
	result.RunID = runID
	if err != nil {
		logger.ErrorContext(ctx, "load failed", "error", err)
		return result, err
	}

	logger.InfoContext(ctx, "etl run finished",
		"matches", result.Matches,
		"teams", result.Teams,
		"standings", result.Standings,
	)
	return result, nil
}

// FetchAndProcess fetches and transforms every configured season in order,
// retrying the whole unit under the configured policy.
func (s *ETLService) FetchAndProcess(ctx context.Context) (Batch, error) {
	return s.fetchAndProcess(ctx, s.logger.With("run_id", s.newRunID()))
}

// Preview runs fetch and transform only.
func (s *ETLService) Preview(ctx context.Context) (_ Batch, err error) {
	runID := s.newRunID()
	ctx, span := startETLSpan(ctx, "Preview", attribute.String("etl.run_id", runID), attribute.Bool("etl.dry_run", true))
	defer func() { span.finish(err) }()

	return s.fetchAndProcess(ctx, s.logger.With("run_id", runID, "dry_run", true))
}

// Load writes an already processed batch.
func (s *ETLService) Load(ctx context.Context, batch Batch) (_ LoadResult, err error) {
	runID := s.newRunID()
	ctx, span := startETLSpan(ctx, "Load", attribute.String("etl.run_id", runID))
	defer func() { span.finish(err) }()

	result, err := s.load(ctx, s.logger.With("run_id", runID), batch)
	result.RunID = runID
	return result, err
}

func (s *ETLService) fetchAndProcess(ctx context.Context, logger *logging.Logger) (_ Batch, err error) {
	ctx, span := startETLSpan(ctx, "FetchAndProcess",
		attribute.Int("etl.seasons", len(s.cfg.Seasons)),
		attribute.Int("etl.max_attempts", s.cfg.Retry.Attempts),
	)
	defer func() { span.finish(err) }()

	if s.fetcher == nil {
		return Batch{}, crerr.Wrap(ErrDependencyUnavailable, "league fetcher is not configured")
	}
	if len(s.cfg.Seasons) == 0 {
		return Batch{}, crerr.Wrap(ErrInvalidInput, "at least one season is required")
	}

	var batch Batch
	err = resilience.Retry(ctx, s.cfg.Retry, func(ctx context.Context) error {
		out, err := s.fetchAndProcessOnce(ctx, logger)
		if err != nil {
			return err
		}
		batch = out
		return nil
	}, func(attempt int, err error, delay time.Duration) {
		logger.WarnContext(ctx, "fetch and process failed, retrying",
			"attempt", attempt,
			"max_attempts", s.cfg.Retry.Attempts,
			"retry_in", delay,
			"error", err,
		)
	})
	if err != nil {
		return Batch{}, err
	}

	span.SetAttributes(
		attribute.Int("etl.matches", len(batch.Matches)),
		attribute.Int("etl.standings", len(batch.Standings)),
	)
	return batch, nil
}

func (s *ETLService) fetchAndProcessOnce(ctx context.Context, logger *logging.Logger) (Batch, error) {
	var batch Batch
	for _, season := range s.cfg.Seasons {
		season = strings.TrimSpace(season)

		raw, err := s.fetcher.FetchSeason(ctx, season)
		if err != nil {
			return Batch{}, crerr.Wrapf(err, "fetch season=%s", season)
		}

		matches, err := ProcessMatches(raw.Matches, season)
		if err != nil {
			return Batch{}, err
		}
		standings, err := ProcessStandings(raw.Standings, season)
		if err != nil {
			return Batch{}, err
		}

		batch.Matches = append(batch.Matches, matches...)
		batch.Standings = append(batch.Standings, standings...)
		logger.InfoContext(ctx, "season processed",
			"season", season,
			"matches", len(matches),
			"standings", len(standings),
		)
	}
	return batch, nil
}

func (s *ETLService) load(ctx context.Context, logger *logging.Logger, batch Batch) (LoadResult, error) {
	var result LoadResult
	if s.matchRepo == nil || s.teamRepo == nil || s.standingRepo == nil {
		return result, crerr.Wrap(ErrDependencyUnavailable, "etl loaders are not configured")
	}

	n, err := s.matchRepo.InsertMany(ctx, batch.Matches)
	if err != nil {
		return result, crerr.Wrap(err, "insert matches data")
	}
	result.Matches = n
	logger.InfoContext(ctx, "matches data inserted", "rows", n)

	teams := batch.Teams()
	n, err = s.teamRepo.InsertMany(ctx, teams)
	if err != nil {
		return result, crerr.Wrap(err, "insert teams data")
	}
	result.Teams = n
	logger.InfoContext(ctx, "teams data inserted", "rows", n, "standings_rows", len(batch.Standings))

	n, err = s.standingRepo.InsertMany(ctx, batch.Standings)
	if err != nil {
		return result, crerr.Wrap(err, "insert standings data")
	}
	result.Standings = n
	logger.InfoContext(ctx, "standings data inserted", "rows", n)

	return result, nil
}
