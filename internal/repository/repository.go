// Package repository handles all interactions with the database.
//
// It contains raw SQL queries and methods to fetch, persist,
// or update data, abstracting SQL logic away from the service layer.
// Every statement uses positional placeholders; request input is only ever
// passed as a bound argument.
package repository

import (
	"context"
	"time"

	"github.com/deppfellow/employees-api/internal/metrics"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/rs/zerolog"
)

// DBTX is the query surface the repositories need. *pgxpool.Pool and
// pgxmock pools both satisfy it.
type DBTX interface {
	Exec(ctx context.Context, sql string, arguments ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// queryObserver times queries into DBQueryDuration and warns about those
// slower than slowThreshold through the request logger in ctx.
type queryObserver struct {
	metrics       *metrics.Metrics
	slowThreshold time.Duration
}

func (o queryObserver) observe(ctx context.Context, queryType string, start time.Time) {
	duration := time.Since(start)

	if o.metrics != nil {
		o.metrics.DBQueryDuration.WithLabelValues(queryType).Observe(duration.Seconds())
	}

	if o.slowThreshold > 0 && duration > o.slowThreshold {
		zerolog.Ctx(ctx).Warn().
			Str("query_type", queryType).
			Dur("duration", duration).
			Dur("threshold", o.slowThreshold).
			Msg("slow query")
	}
}
