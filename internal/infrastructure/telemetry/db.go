package telemetry

import (
	"context"
	"errors"
	"time"

	"github.com/uptrace/opentelemetry-go-extra/otelgorm"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// DBConfig controls database instrumentation
type DBConfig struct {
	Tracing         bool
	LogQueryVars    bool          // include bound values in span statements, development only
	SlowQueryThresh time.Duration // Default: 200ms
}

type dbStartKey struct{}

// dbInstrumentation adds otelgorm spans plus a query-duration histogram and
// slow-query span events
type dbInstrumentation struct {
	config   DBConfig
	duration *Histogram
	logger   *zap.Logger
}

// InstrumentDB registers tracing and query metrics on db. meter may be nil
// to skip metrics.
func InstrumentDB(db *gorm.DB, cfg DBConfig, meter metric.Meter, logger *zap.Logger) error {
	if logger == nil {
		logger = zap.NewNop()
	}
	if cfg.SlowQueryThresh <= 0 {
		cfg.SlowQueryThresh = 200 * time.Millisecond
	}
	inst := &dbInstrumentation{config: cfg, logger: logger}

	if cfg.Tracing {
		opts := []otelgorm.Option{otelgorm.WithDBName("postgresql")}
		if !cfg.LogQueryVars {
			opts = append(opts, otelgorm.WithoutQueryVariables())
		}
		if err := db.Use(otelgorm.NewPlugin(opts...)); err != nil {
			return err
		}
	}
	if meter != nil {
		h, err := NewHistogram(meter, "p2p.db.query.duration", "Database query duration", "s", DBDurationBuckets)
		if err != nil {
			return err
		}
		inst.duration = h
	}
	if !cfg.Tracing && inst.duration == nil {
		return nil
	}
	return inst.register(db)
}

func (i *dbInstrumentation) register(db *gorm.DB) error {
	cb := db.Callback()
	steps := []struct {
		op     string
		before func(name string, fn func(*gorm.DB)) error
		after  func(name string, fn func(*gorm.DB)) error
	}{
		{"create", cb.Create().Before("gorm:create").Register, cb.Create().After("gorm:create").Register},
		{"query", cb.Query().Before("gorm:query").Register, cb.Query().After("gorm:query").Register},
		{"update", cb.Update().Before("gorm:update").Register, cb.Update().After("gorm:update").Register},
		{"delete", cb.Delete().Before("gorm:delete").Register, cb.Delete().After("gorm:delete").Register},
		{"row", cb.Row().Before("gorm:row").Register, cb.Row().After("gorm:row").Register},
		{"raw", cb.Raw().Before("gorm:raw").Register, cb.Raw().After("gorm:raw").Register},
	}
	for _, s := range steps {
		if err := s.before("p2p_telemetry:before_"+s.op, markStart); err != nil {
			return err
		}
		op := s.op
		if err := s.after("p2p_telemetry:after_"+s.op, func(tx *gorm.DB) { i.after(tx, op) }); err != nil {
			return err
		}
	}
	i.logger.Info("Database instrumentation enabled",
		zap.Bool("tracing", i.config.Tracing),
		zap.Bool("metrics", i.duration != nil),
		zap.Duration("slow_query_threshold", i.config.SlowQueryThresh))
	return nil
}

func markStart(db *gorm.DB) {
	if db.Statement.Context != nil {
		db.Statement.Context = context.WithValue(db.Statement.Context, dbStartKey{}, time.Now())
	}
}

func (i *dbInstrumentation) after(db *gorm.DB, op string) {
	ctx := db.Statement.Context
	if ctx == nil {
		return
	}
	start, ok := ctx.Value(dbStartKey{}).(time.Time)
	if !ok {
		return
	}
	elapsed := time.Since(start)

	if i.duration != nil {
		i.duration.RecordDuration(ctx, elapsed,
			AttrDBOperation.String(op),
			AttrDBTable.String(db.Statement.Table))
	}

	span := trace.SpanFromContext(ctx)
	if !span.IsRecording() {
		return
	}
	if db.Statement.Table != "" {
		span.SetAttributes(attribute.String("db.sql.table", db.Statement.Table))
	}
	span.SetAttributes(attribute.Int64("db.rows_affected", db.Statement.RowsAffected))
	if db.Error != nil && !errors.Is(db.Error, gorm.ErrRecordNotFound) {
		span.SetStatus(codes.Error, db.Error.Error())
		span.RecordError(db.Error)
	}
	if elapsed > i.config.SlowQueryThresh {
		span.SetAttributes(attribute.Bool("db.slow_query", true))
		span.AddEvent("slow_query", trace.WithAttributes(
			attribute.Int64("duration_ms", elapsed.Milliseconds()),
			attribute.Int64("threshold_ms", i.config.SlowQueryThresh.Milliseconds())))
	}
}
