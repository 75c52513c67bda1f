package storage

import (
	"context"
	"errors"

	"resume-ranker/internal/tracing"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	semconv "go.opentelemetry.io/otel/semconv/v1.21.0"
	"go.opentelemetry.io/otel/trace"
	"gorm.io/gorm"
)

type gormSpanKey struct{}

// gormTracing 为历史库的写入和查询创建 client span
type gormTracing struct {
	tracer trace.Tracer
	dbName string
}

func newGormTracing(dbName string) *gormTracing {
	return &gormTracing{tracer: mysqlTracer, dbName: dbName}
}

func (p *gormTracing) Name() string { return "resume-ranker:otel" }

func (p *gormTracing) Initialize(db *gorm.DB) error {
	cb := db.Callback()
	return errors.Join(
		cb.Create().Before("gorm:create").Register("otel:before_create", p.start("INSERT")),
		cb.Create().After("gorm:create").Register("otel:after_create", p.end),
		cb.Query().Before("gorm:query").Register("otel:before_query", p.start("SELECT")),
		cb.Query().After("gorm:query").Register("otel:after_query", p.end),
	)
}

func (p *gormTracing) start(operation string) func(*gorm.DB) {
	return func(db *gorm.DB) {
		ctx := db.Statement.Context
		if ctx == nil {
			ctx = context.Background()
		}
		table := db.Statement.Table
		if table == "" {
			table = "unknown"
		}
		ctx, span := p.tracer.Start(ctx, operation+" "+table,
			trace.WithSpanKind(trace.SpanKindClient),
			trace.WithAttributes(
				semconv.DBSystemMySQL,
				attribute.String("db.name", p.dbName),
				attribute.String("db.operation", operation),
				attribute.String("db.sql.table", table),
			))
		db.Statement.Context = context.WithValue(ctx, gormSpanKey{}, span)
	}
}

// end 在 SQL 执行后补充语句和影响行数；记录不存在不算错误
func (p *gormTracing) end(db *gorm.DB) {
	span, ok := db.Statement.Context.Value(gormSpanKey{}).(trace.Span)
	if !ok {
		return
	}
	defer span.End()

	span.SetAttributes(
		attribute.String("db.statement", tracing.SafeSQL(db.Statement.SQL.String())),
		attribute.Int64("db.rows_affected", db.Statement.RowsAffected),
	)
	switch {
	case db.Error == nil:
		span.SetStatus(codes.Ok, "")
	case errors.Is(db.Error, gorm.ErrRecordNotFound):
		span.SetAttributes(attribute.Bool("db.record_not_found", true))
	default:
		tracing.RecordError(span, db.Error, tracing.ErrorTypeDB)
	}
}
