package storage

import (
	"context"
	"errors"
	"fmt"
	"time"

	"resume-ranker/internal/logger"
	"resume-ranker/internal/tracing"
	"resume-ranker/internal/types"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
)

// CSVSource 提供结果文件的当前内容
type CSVSource interface {
	Bytes(ctx context.Context) ([]byte, error)
	FileName() string
}

// Archiver 把 CSV 快照上传到对象存储
type Archiver interface {
	ArchiveResults(ctx context.Context, batchID string, csvData []byte) (string, error)
}

// EventPublisher 发布 JSON 事件
type EventPublisher interface {
	PublishJSON(ctx context.Context, exchangeName, routingKey string, data interface{}, persistent bool) error
}

// BatchRecorder 在批次写入 CSV 之后依次归档快照、保存历史、发布事件
// 每一步都可以缺省，任何一步失败都不会阻止后续步骤
type BatchRecorder struct {
	source     CSVSource
	archive    Archiver
	history    ScoreHistory
	publisher  EventPublisher
	exchange   string
	routingKey string
	now        func() time.Time
}

// RecorderOption 配置 BatchRecorder
type RecorderOption func(*BatchRecorder)

// WithArchive 启用 CSV 快照归档
func WithArchive(a Archiver) RecorderOption {
	return func(r *BatchRecorder) { r.archive = a }
}

// WithHistory 启用评分历史保存
func WithHistory(h ScoreHistory) RecorderOption {
	return func(r *BatchRecorder) { r.history = h }
}

// WithPublisher 启用批次事件发布
func WithPublisher(p EventPublisher, exchange, routingKey string) RecorderOption {
	return func(r *BatchRecorder) {
		r.publisher = p
		r.exchange = exchange
		r.routingKey = routingKey
	}
}

// NewBatchRecorder 创建批次记录器
func NewBatchRecorder(source CSVSource, opts ...RecorderOption) *BatchRecorder {
	r := &BatchRecorder{source: source, now: time.Now}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// NewBatchRecorderFromStorage 按存储管理器中已初始化的组件创建记录器
// 没有任何可用组件时返回 nil
func NewBatchRecorderFromStorage(s *Storage, source CSVSource, exchange, routingKey string) *BatchRecorder {
	if s == nil {
		return nil
	}
	var opts []RecorderOption
	if s.MinIO != nil {
		opts = append(opts, WithArchive(s.MinIO))
	}
	if s.MySQL != nil {
		opts = append(opts, WithHistory(s.MySQL))
	}
	if s.RabbitMQ != nil {
		opts = append(opts, WithPublisher(s.RabbitMQ, exchange, routingKey))
	}
	if len(opts) == 0 {
		return nil
	}
	return NewBatchRecorder(source, opts...)
}

// OnBatchScored 记录一个已写入结果文件的批次
func (r *BatchRecorder) OnBatchScored(ctx context.Context, set types.ResultSet, strategy string) error {
	ctx, span := tracing.Tracer().Start(ctx, "BatchRecorder.OnBatchScored")
	defer span.End()
	span.SetAttributes(
		attribute.String("batch.id", set.BatchID),
		attribute.String("batch.strategy", strategy),
		attribute.Int("batch.count", len(set.Results)),
	)

	var (
		errs       []error
		archiveKey string
		csvFile    string
	)
	if r.source != nil {
		csvFile = r.source.FileName()
	}

	if r.archive != nil && r.source != nil {
		data, err := r.source.Bytes(ctx)
		if err == nil {
			archiveKey, err = r.archive.ArchiveResults(ctx, set.BatchID, data)
		}
		if err != nil {
			tracing.RecordError(span, err, tracing.ErrorTypeObjectStore)
			logger.Ctx(ctx).Warn().Err(err).Str("batch_id", set.BatchID).Msg("归档结果快照失败")
			errs = append(errs, fmt.Errorf("归档: %w", err))
			archiveKey = ""
		}
	}

	if r.history != nil {
		batch := NewScoreBatch(set, strategy, csvFile, archiveKey)
		if err := r.history.SaveScoreBatch(ctx, batch); err != nil {
			tracing.RecordError(span, err, tracing.ErrorTypeDB)
			logger.Ctx(ctx).Warn().Err(err).Str("batch_id", set.BatchID).Msg("保存评分历史失败")
			errs = append(errs, fmt.Errorf("历史: %w", err))
		}
	}

	if r.publisher != nil {
		event := NewBatchScoredEvent(set, strategy, csvFile, archiveKey, r.now())
		if err := r.publisher.PublishJSON(ctx, r.exchange, r.routingKey, event, true); err != nil {
			tracing.RecordRabbitMQPublishError(span, err, r.exchange, r.routingKey)
			logger.Ctx(ctx).Warn().Err(err).Str("batch_id", set.BatchID).Msg("发布批次事件失败")
			errs = append(errs, fmt.Errorf("发布: %w", err))
		}
	}

	if len(errs) > 0 {
		return errors.Join(errs...)
	}
	span.SetStatus(codes.Ok, "")
	return nil
}
