package postgres

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/riskibarqy/fotmob-etl/internal/platform/logging"
	qb "github.com/riskibarqy/fotmob-etl/internal/platform/querybuilder"
)

// Connector opens a database handle. BulkLoader closes every handle it opens.
type Connector interface {
	Open(ctx context.Context) (*sqlx.DB, error)
}

type ConnectorFunc func(ctx context.Context) (*sqlx.DB, error)

func (f ConnectorFunc) Open(ctx context.Context) (*sqlx.DB, error) {
	return f(ctx)
}

// BulkLoader writes one table per call: a fresh connection, one transaction,
// one prepared statement executed per row.
type BulkLoader struct {
	connector Connector
	logger    *logging.Logger
}

func NewBulkLoader(connector Connector, logger *logging.Logger) *BulkLoader {
	if logger == nil {
		logger = logging.Default()
	}
	return &BulkLoader{connector: connector, logger: logger.Named("postgres")}
}

// Load inserts rows into table using columns, in that order, and returns the
// number of rows written. Nothing is committed unless every row succeeds.
func (l *BulkLoader) Load(ctx context.Context, table string, rows []qb.Row, columns []string) (int64, error) {
	query, values, err := qb.BuildBatchInsert(table, rows, columns)
	if err != nil {
		return 0, fmt.Errorf("build insert %s query: %w", table, err)
	}

	db, err := l.connector.Open(ctx)
	if err != nil {
		return 0, fmt.Errorf("open connection for %s: %w", table, err)
	}
	defer func() {
		if err := db.Close(); err != nil {
			l.logger.WarnContext(ctx, "close connection failed", "table", table, "error", err)
		}
	}()

	tx, err := db.BeginTxx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("begin tx insert %s: %w", table, err)
	}
	defer func() {
		_ = tx.Rollback()
	}()

	if len(values) > 0 {
		stmt, err := tx.PreparexContext(ctx, query)
		if err != nil {
			return 0, fmt.Errorf("prepare insert %s: %w", table, describeError(err))
		}
		defer func() {
			_ = stmt.Close()
		}()

		for i, args := range values {
			if _, err := stmt.ExecContext(ctx, args...); err != nil {
				if isUniqueViolation(err) {
					l.logger.WarnContext(ctx, "row already present, inserts are not idempotent", "table", table, "row", i)
				}
				return 0, fmt.Errorf("insert %s row=%d: %w", table, i, describeError(err))
			}
		}
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("commit insert %s tx: %w", table, err)
	}

	l.logger.DebugContext(ctx, "rows inserted", "table", table, "rows", len(values))
	return int64(len(values)), nil
}
