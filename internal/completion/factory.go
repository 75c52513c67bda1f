package completion

import (
	"context"
	"fmt"

	"resume-ranker/internal/config"
	"resume-ranker/internal/logger"
	"resume-ranker/pkg/agent"
	"resume-ranker/pkg/ratelimit"

	"github.com/cloudwego/eino/components/model"
)

// NewFromConfig 根据配置创建补全服务
// provider 为 none 时返回 (nil, nil)，调用方据此判断补全服务不可用
func NewFromConfig(ctx context.Context, cfg config.LLMConfig) (*Service, error) {
	var (
		chatModel model.BaseChatModel
		modelName string
	)

	switch cfg.Provider {
	case config.ProviderNone, "":
		logger.Warn().Msg("未配置补全服务，模型评分和LLM条件提取不可用")
		return nil, nil
	case config.ProviderGemini:
		gm, err := agent.NewGeminiChatModel(ctx, cfg.APIKey, cfg.Model)
		if err != nil {
			return nil, fmt.Errorf("初始化Gemini模型失败: %w", err)
		}
		chatModel, modelName = gm, gm.ModelName()
	case config.ProviderOpenAI:
		om, err := agent.NewOpenAICompatChatModel(cfg.APIKey, cfg.Model, cfg.APIURL)
		if err != nil {
			return nil, fmt.Errorf("初始化OpenAI兼容模型失败: %w", err)
		}
		chatModel, modelName = om, om.ModelName()
	default:
		return nil, fmt.Errorf("不支持的补全服务: %s", cfg.Provider)
	}

	qpm := ratelimit.ResolveQPM(modelName, cfg.ModelQPMLimits, cfg.QPM)
	logger.Info().Str("provider", cfg.Provider).Str("model", modelName).Int("qpm", qpm).Msg("补全服务初始化成功")

	return NewService(
		ratelimit.NewRateLimitedChatModel(chatModel, qpm),
		WithModelName(modelName),
		WithTimeout(config.GetDuration(cfg.CallTimeout, DefaultCallTimeout)),
		WithTemperature(cfg.Temperature),
		WithMaxTokens(cfg.MaxTokens),
	), nil
}
