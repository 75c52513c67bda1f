package processor // 评分批次的编排：提取文本、评分、写入结果

import (
	"context"
	"errors"
	"fmt"
	"time"

	"resume-ranker/internal/constants"
	"resume-ranker/internal/logger"
	"resume-ranker/internal/metrics"
	"resume-ranker/internal/parser"
	"resume-ranker/internal/tracing"
	"resume-ranker/internal/types"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/sync/errgroup"
)

// DefaultConcurrency 默认批次内并发数
const DefaultConcurrency = 4

// Components 聚合所有功能组件依赖，便于集中管理和测试替换
type Components struct {
	Extractor TextExtractor     // 文档文本提取
	Criteria  CriteriaExtractor // 职位描述条件提取
	Writer    ResultWriter      // 结果文件
	Observers []BatchObserver   // 写入后的附加处理
}

// Settings 纯配置项，不包含任何业务逻辑组件
type Settings struct {
	Concurrency int
}

// Ranker 负责一个 HTTP 批次的完整流程
// 输出顺序始终与上传顺序一致，与内部并发无关
type Ranker struct {
	extractor   TextExtractor
	criteria    CriteriaExtractor
	writer      ResultWriter
	observers   []BatchObserver
	concurrency int
}

// NewRanker 使用明确分离的组件和设置创建 Ranker
func NewRanker(comp *Components, set *Settings, opts ...SettingOpt) (*Ranker, error) {
	if comp == nil {
		return nil, errors.New("必须提供组件")
	}
	if set == nil {
		set = &Settings{Concurrency: DefaultConcurrency}
	}
	for _, opt := range opts {
		opt(set)
	}
	if set.Concurrency < 1 {
		set.Concurrency = 1
	}

	if comp.Extractor == nil {
		return nil, errors.New("必须提供文本提取器组件")
	}
	if comp.Writer == nil {
		return nil, errors.New("必须提供结果存储组件")
	}
	if comp.Criteria == nil {
		logger.Warn().Msg("Ranker 未配置条件提取器，/extract-criteria 不可用")
	}

	return &Ranker{
		extractor:   comp.Extractor,
		criteria:    comp.Criteria,
		writer:      comp.Writer,
		observers:   comp.Observers,
		concurrency: set.Concurrency,
	}, nil
}

// CreateRanker 便捷工厂函数，通过选项构造 Ranker
func CreateRanker(compOpts []ComponentOpt, setOpts []SettingOpt) (*Ranker, error) {
	components := &Components{}
	for _, opt := range compOpts {
		opt(components)
	}
	return NewRanker(components, &Settings{Concurrency: DefaultConcurrency}, setOpts...)
}

// ResultFileName 结果文件名
func (r *Ranker) ResultFileName() string {
	return r.writer.FileName()
}

// ExtractCriteria 提取职位描述文档的文本并返回招聘条件
func (r *Ranker) ExtractCriteria(ctx context.Context, file types.UploadedFile) ([]string, error) {
	if r.criteria == nil {
		return nil, types.ErrCompletionUnavailable
	}

	ctx, span := tracing.Tracer().Start(ctx, "ranker.ExtractCriteria", trace.WithAttributes(
		attribute.String("file.name", tracing.SafeFileName(file.FileName)),
		attribute.String("file.mime_type", file.MIMEType),
	))
	defer span.End()

	text, err := r.extractor.Extract(ctx, file)
	if err != nil {
		tracing.RecordError(span, err, tracing.ErrorTypeExtraction)
		return nil, err
	}

	criteria, err := r.criteria.Extract(ctx, text)
	if err != nil {
		tracing.RecordError(span, err, tracing.ErrorTypeInternal)
		return nil, fmt.Errorf("提取招聘条件失败: %w", err)
	}
	span.SetAttributes(attribute.Int("criteria.count", len(criteria)))
	return criteria, nil
}

// RankBatch 对一批简历评分并写入结果文件
// 任何一份文档提取失败都会中止整个批次，且不写入任何行
func (r *Ranker) RankBatch(ctx context.Context, req BatchRequest) (types.ResultSet, error) {
	if len(req.Files) == 0 {
		return types.ResultSet{}, types.NewValidationError(constants.MsgNoFilesUploaded)
	}
	if req.Strategy == nil {
		return types.ResultSet{}, errors.New("未指定评分策略")
	}

	strategy := req.Strategy.Name()
	batchID := uuid.NewString()
	log := logger.Ctx(ctx).With().Str("batch_id", batchID).Str("strategy", strategy).Logger()
	ctx = log.WithContext(ctx)

	ctx, span := tracing.Tracer().Start(ctx, "ranker.RankBatch", trace.WithAttributes(
		attribute.String("batch.id", batchID),
		attribute.String("batch.strategy", strategy),
		attribute.Int("batch.files", len(req.Files)),
	))
	defer span.End()

	metrics.BatchesInFlight.Inc()
	defer metrics.BatchesInFlight.Dec()
	start := time.Now()

	log.Info().Int("files", len(req.Files)).Int("concurrency", r.concurrency).Msg("开始批次评分")

	scored := make([]types.CandidateResult, len(req.Files))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(r.concurrency)

	for i, file := range req.Files {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			text, err := r.extractor.Extract(gctx, file)
			if err != nil {
				return err
			}

			result := types.CandidateResult{
				FileName: file.FileName,
				Scores:   req.Strategy.Score(gctx, text, req.Criteria),
			}
			if req.Label == types.LabelCandidateName {
				result.CandidateName = parser.ExtractCandidateName(text)
			}
			scored[i] = result

			log.Debug().Str("file", file.FileName).Int("total", result.Scores.Total).Msg("简历评分完成")
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		reason := "internal"
		if errors.Is(err, types.ErrExtraction) {
			reason = "extraction"
			tracing.RecordError(span, err, tracing.ErrorTypeExtraction)
		} else {
			tracing.RecordError(span, err, tracing.ErrorTypeInternal)
		}
		metrics.BatchesFailed.WithLabelValues(strategy, reason).Inc()
		log.Warn().Err(err).Msg("批次评分中止")
		return types.ResultSet{}, err
	}

	set := types.ResultSet{
		BatchID:  batchID,
		Label:    req.Label,
		Results:  scored,
		Criteria: types.UsableCriteria(req.Criteria.All()),
	}

	if err := r.writer.Write(ctx, set, req.Policy); err != nil {
		metrics.BatchesFailed.WithLabelValues(strategy, "storage").Inc()
		tracing.RecordError(span, err, tracing.ErrorTypeResultStore)
		log.Error().Err(err).Msg("写入评分结果失败")
		return types.ResultSet{}, err
	}

	for _, observer := range r.observers {
		if err := observer.OnBatchScored(ctx, set, strategy); err != nil {
			log.Warn().Err(err).Str("observer", fmt.Sprintf("%T", observer)).Msg("批次附加处理失败")
		}
	}

	elapsed := time.Since(start)
	metrics.ResumesScored.WithLabelValues(strategy).Add(float64(len(scored)))
	metrics.BatchDuration.WithLabelValues(strategy).Observe(elapsed.Seconds())
	span.SetStatus(codes.Ok, "")
	log.Info().Int("resumes", len(scored)).Dur("elapsed", elapsed).Msg("批次评分完成")
	return set, nil
}
