package completion

import (
	"context"
	"errors"
	"strings"
	"time"

	"resume-ranker/internal/logger"
	"resume-ranker/internal/metrics"
	"resume-ranker/internal/tracing"
	"resume-ranker/internal/types"

	"github.com/cloudwego/eino/components/model"
	"github.com/cloudwego/eino/schema"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

// DefaultCallTimeout 单次补全调用的默认超时
const DefaultCallTimeout = 60 * time.Second

// Service 对补全模型的一次性文本调用：发送 prompt，返回文本
// 每次调用都有独立的超时，失败统一包装为 types.CompletionError
type Service struct {
	model       model.BaseChatModel
	modelName   string
	operation   string
	system      string
	timeout     time.Duration
	temperature *float32
	maxTokens   *int
}

// Option 配置 Service
type Option func(*Service)

// WithTimeout 设置单次调用超时
func WithTimeout(d time.Duration) Option {
	return func(s *Service) {
		if d > 0 {
			s.timeout = d
		}
	}
}

// WithTemperature 设置采样温度
func WithTemperature(t float32) Option {
	return func(s *Service) {
		s.temperature = &t
	}
}

// WithMaxTokens 设置最大输出 token 数，0 表示使用模型默认值
func WithMaxTokens(n int) Option {
	return func(s *Service) {
		if n > 0 {
			s.maxTokens = &n
		}
	}
}

// WithModelName 记录实际使用的模型名，用于日志和追踪
func WithModelName(name string) Option {
	return func(s *Service) {
		s.modelName = name
	}
}

// NewService 创建补全服务
func NewService(m model.BaseChatModel, opts ...Option) *Service {
	s := &Service{
		model:     m,
		operation: "complete",
		timeout:   DefaultCallTimeout,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// ForOperation 返回一个用于指定操作的副本，操作名用于指标、日志和错误信息
func (s *Service) ForOperation(operation string) *Service {
	cp := *s
	cp.operation = operation
	return &cp
}

// WithSystemPrompt 返回一个附带系统提示的副本
func (s *Service) WithSystemPrompt(system string) *Service {
	cp := *s
	cp.system = system
	return &cp
}

// Complete 发送 prompt 并返回模型文本输出
func (s *Service) Complete(ctx context.Context, prompt string) (string, error) {
	if s == nil || s.model == nil {
		return "", types.ErrCompletionUnavailable
	}

	ctx, span := tracing.Tracer().Start(ctx, "completion."+s.operation, trace.WithAttributes(
		attribute.String("llm.model", s.modelName),
		attribute.String("llm.prompt", tracing.SafePrompt(prompt)),
		attribute.Int("llm.prompt_length", len(prompt)),
	))
	defer span.End()

	callCtx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	messages := make([]*schema.Message, 0, 2)
	if strings.TrimSpace(s.system) != "" {
		messages = append(messages, schema.SystemMessage(s.system))
	}
	messages = append(messages, schema.UserMessage(prompt))

	var opts []model.Option
	if s.temperature != nil {
		opts = append(opts, model.WithTemperature(*s.temperature))
	}
	if s.maxTokens != nil {
		opts = append(opts, model.WithMaxTokens(*s.maxTokens))
	}

	start := time.Now()
	resp, err := s.model.Generate(callCtx, messages, opts...)
	metrics.CompletionDuration.WithLabelValues(s.operation).Observe(time.Since(start).Seconds())

	if err == nil && resp == nil {
		err = errors.New("补全服务返回了空消息")
	}
	if err != nil {
		metrics.CompletionCalls.WithLabelValues(s.operation, "error").Inc()
		errorType := tracing.ErrorTypeCompletion
		if errors.Is(callCtx.Err(), context.DeadlineExceeded) {
			errorType = tracing.ErrorTypeTimeout
		}
		tracing.RecordError(span, err, errorType)
		logger.Ctx(ctx).Warn().Err(err).Str("operation", s.operation).Dur("elapsed", time.Since(start)).Msg("补全服务调用失败")
		return "", types.NewCompletionError(s.operation, err)
	}

	metrics.CompletionCalls.WithLabelValues(s.operation, "ok").Inc()
	span.SetAttributes(attribute.Int("llm.response_length", len(resp.Content)))
	return resp.Content, nil
}
