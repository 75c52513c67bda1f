package agent

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"resume-ranker/internal/logger"

	"github.com/cloudwego/eino/components/model"
	"github.com/cloudwego/eino/schema"
	"google.golang.org/genai"
)

const defaultGeminiModelName = "gemini-1.5-pro"

// contentGenerator 是 genai.Models 中本包用到的子集，便于测试替换
type contentGenerator interface {
	GenerateContent(ctx context.Context, model string, contents []*genai.Content, config *genai.GenerateContentConfig) (*genai.GenerateContentResponse, error)
}

// GeminiChatModel 通过 Google GenAI SDK 调用 Gemini，实现 model.BaseChatModel
type GeminiChatModel struct {
	models    contentGenerator
	modelName string
}

// NewGeminiChatModel 创建 Gemini 模型客户端，apiKey 必须由调用方从环境变量中读取
func NewGeminiChatModel(ctx context.Context, apiKey, modelName string) (*GeminiChatModel, error) {
	apiKey = strings.TrimSpace(apiKey)
	if apiKey == "" {
		return nil, errors.New("gemini API 密钥不能为空")
	}

	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  apiKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("创建 genai 客户端失败: %w", err)
	}

	if modelName = strings.TrimSpace(modelName); modelName == "" {
		modelName = defaultGeminiModelName
	}
	logger.Info().Str("model", modelName).Msg("使用 Gemini 补全服务")

	return &GeminiChatModel{models: client.Models, modelName: modelName}, nil
}

// Generate 实现 model.BaseChatModel 接口
// system 消息转换为 SystemInstruction，assistant 消息映射为 model 角色
func (g *GeminiChatModel) Generate(ctx context.Context, messages []*schema.Message, opts ...model.Option) (*schema.Message, error) {
	if g == nil || g.models == nil {
		return nil, errors.New("gemini 模型未初始化")
	}

	options := model.GetCommonOptions(&model.Options{}, opts...)
	modelName := g.modelName
	if options.Model != nil && *options.Model != "" {
		modelName = *options.Model
	}

	config := &genai.GenerateContentConfig{}
	if options.Temperature != nil {
		config.Temperature = genai.Ptr(*options.Temperature)
	}
	if options.MaxTokens != nil && *options.MaxTokens > 0 {
		config.MaxOutputTokens = int32(*options.MaxTokens)
	}

	var (
		systemParts []string
		contents    []*genai.Content
	)
	for _, msg := range messages {
		if msg == nil || strings.TrimSpace(msg.Content) == "" {
			continue
		}
		switch msg.Role {
		case schema.System:
			systemParts = append(systemParts, msg.Content)
		case schema.Assistant:
			contents = append(contents, genai.NewContentFromText(msg.Content, genai.RoleModel))
		default:
			contents = append(contents, genai.NewContentFromText(msg.Content, genai.RoleUser))
		}
	}
	if len(contents) == 0 {
		return nil, errors.New("prompt 不能为空")
	}
	if len(systemParts) > 0 {
		config.SystemInstruction = genai.NewContentFromText(strings.Join(systemParts, "\n\n"), genai.RoleUser)
	}

	resp, err := g.models.GenerateContent(ctx, modelName, contents, config)
	if err != nil {
		return nil, fmt.Errorf("gemini 生成内容失败: %w", err)
	}

	output := joinCandidateText(resp)
	if output == "" {
		return nil, errors.New("gemini 返回了空响应")
	}
	return schema.AssistantMessage(output, nil), nil
}

// Stream 未实现，评分只需要完整响应
func (g *GeminiChatModel) Stream(ctx context.Context, messages []*schema.Message, opts ...model.Option) (*schema.StreamReader[*schema.Message], error) {
	return nil, errors.New("GeminiChatModel 不支持 Stream")
}

// ModelName 返回实际使用的模型名
func (g *GeminiChatModel) ModelName() string {
	return g.modelName
}

func joinCandidateText(resp *genai.GenerateContentResponse) string {
	if resp == nil {
		return ""
	}
	var builder strings.Builder
	for _, candidate := range resp.Candidates {
		if candidate == nil || candidate.Content == nil {
			continue
		}
		for _, part := range candidate.Content.Parts {
			if part == nil {
				continue
			}
			text := strings.TrimSpace(part.Text)
			if text == "" {
				continue
			}
			if builder.Len() > 0 {
				builder.WriteString("\n")
			}
			builder.WriteString(text)
		}
	}
	return strings.TrimSpace(builder.String())
}

var _ model.BaseChatModel = (*GeminiChatModel)(nil)
