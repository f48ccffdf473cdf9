package app

import (
	"context"
	"fmt"
	"net/http"

	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"
	"github.com/uptrace/opentelemetry-go-extra/otelsql"
	"github.com/uptrace/opentelemetry-go-extra/otelsqlx"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"

	"github.com/riskibarqy/fotmob-etl/external/fotmob"
	"github.com/riskibarqy/fotmob-etl/internal/config"
	"github.com/riskibarqy/fotmob-etl/internal/infrastructure/repository/postgres"
	"github.com/riskibarqy/fotmob-etl/internal/platform/logging"
	"github.com/riskibarqy/fotmob-etl/internal/usecase"
)

// Dependencies overrides the outbound edges of the pipeline. Zero values use
// the real FotMob API and Postgres.
type Dependencies struct {
	HTTPClient *http.Client
	Connector  postgres.Connector
}

func NewETLService(cfg config.Config, logger *logging.Logger) *usecase.ETLService {
	return NewETLServiceWith(cfg, logger, Dependencies{})
}

func NewETLServiceWith(cfg config.Config, logger *logging.Logger, deps Dependencies) *usecase.ETLService {
	if logger == nil {
		logger = logging.Default()
	}
	pipeline := cfg.Pipeline()

	httpClient := deps.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{
			Timeout:   cfg.FotMobTimeout,
			Transport: otelhttp.NewTransport(http.DefaultTransport),
		}
	}
	fetcher := fotmob.NewClient(fotmob.ClientConfig{
		HTTPClient: httpClient,
		BaseURL:    cfg.FotMobBaseURL,
		LeagueID:   cfg.FotMobLeagueID,
		Timeout:    cfg.FotMobTimeout,
		Logger:     logger,
	})

	connector := deps.Connector
	if connector == nil {
		connector = newPostgresConnector(normalizeDBURL(pipeline.DBConnectionTarget, cfg.DBDisablePreparedBinary))
	}
	loader := postgres.NewBulkLoader(connector, logger)

	return usecase.NewETLService(
		usecase.ETLConfig{
			Seasons: pipeline.Seasons,
			Retry:   cfg.RetryPolicy(),
		},
		fetcher,
		postgres.NewMatchRepository(loader),
		postgres.NewTeamRepository(loader),
		postgres.NewStandingRepository(loader),
		logger,
	)
}

func newPostgresConnector(dsn string) postgres.Connector {
	return postgres.ConnectorFunc(func(ctx context.Context) (*sqlx.DB, error) {
		db, err := otelsqlx.Open("postgres", dsn,
			otelsql.WithDBName(dbNameFromURL(dsn)),
			otelsql.WithDBSystem("postgresql"),
			otelsql.WithQueryFormatter(formatDBQueryForTrace),
		)
		if err != nil {
			return nil, fmt.Errorf("open postgres: %w", err)
		}
		db.SetMaxOpenConns(1)

		if err := db.PingContext(ctx); err != nil {
			_ = db.Close()
			return nil, fmt.Errorf("ping postgres: %w", err)
		}
		return db, nil
	})
}
