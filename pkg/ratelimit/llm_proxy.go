package ratelimit

import (
	"context"

	"github.com/cloudwego/eino/components/model"
	"github.com/cloudwego/eino/schema"
)

// DefaultQPM 未配置任何限额时使用的QPM
const DefaultQPM = 30

// RateLimitedChatModel 对补全模型的调用进行限流的代理
// 只负责等待令牌，失败不重试：评分失败由调用方降级为零分
type RateLimitedChatModel struct {
	original    model.BaseChatModel
	rateLimiter *TokenBucket
}

// NewRateLimitedChatModel 创建一个新的限流模型代理
func NewRateLimitedChatModel(original model.BaseChatModel, qpm int) *RateLimitedChatModel {
	return &RateLimitedChatModel{
		original:    original,
		rateLimiter: NewTokenBucket(qpm, qpm/2), // 容量设为QPM的一半，允许一定的突发流量
	}
}

// Generate 等待令牌后调用一次底层模型
func (rl *RateLimitedChatModel) Generate(ctx context.Context, messages []*schema.Message, options ...model.Option) (*schema.Message, error) {
	if err := rl.rateLimiter.Wait(ctx); err != nil {
		return nil, err
	}
	return rl.original.Generate(ctx, messages, options...)
}

// Stream 等待令牌后调用一次底层模型的流式接口
func (rl *RateLimitedChatModel) Stream(ctx context.Context, messages []*schema.Message, options ...model.Option) (*schema.StreamReader[*schema.Message], error) {
	if err := rl.rateLimiter.Wait(ctx); err != nil {
		return nil, err
	}
	return rl.original.Stream(ctx, messages, options...)
}

// ResolveQPM 确定模型的QPM：模型有已知限额时取其90%，否则用自定义值，最后回退到 DefaultQPM
func ResolveQPM(modelName string, limits map[string]int, customQPM int) int {
	qpm := customQPM
	if modelName != "" {
		if modelQPM, ok := limits[modelName]; ok && modelQPM > 0 {
			qpm = int(float64(modelQPM) * 0.9)
		}
	}
	if qpm <= 0 {
		qpm = DefaultQPM
	}
	return qpm
}

// NewChatModelWithRateLimit 直接从配置和原始模型创建带限流的模型
func NewChatModelWithRateLimit(original model.BaseChatModel, modelName string, limits map[string]int, customQPM int) model.BaseChatModel {
	return NewRateLimitedChatModel(original, ResolveQPM(modelName, limits, customQPM))
}
