package agent

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"resume-ranker/internal/logger"

	"github.com/cloudwego/eino/components/model"
	"github.com/cloudwego/eino/schema"
)

const defaultOpenAIModelName = "gpt-4o-mini"

// OpenAICompatChatModel 通过 OpenAI 兼容的 /chat/completions 接口调用补全服务
// 适用于 OpenAI、DashScope 兼容模式、Ollama 等
type OpenAICompatChatModel struct {
	apiKey     string
	modelName  string
	apiURL     string
	httpClient *http.Client
}

// NewOpenAICompatChatModel 创建一个新的 OpenAICompatChatModel 实例
func NewOpenAICompatChatModel(apiKey, modelName, apiURL string) (*OpenAICompatChatModel, error) {
	if strings.TrimSpace(apiKey) == "" {
		return nil, errors.New("API 密钥不能为空")
	}
	if strings.TrimSpace(apiURL) == "" {
		return nil, errors.New("API 地址不能为空")
	}

	mn := strings.TrimSpace(modelName)
	if mn == "" {
		mn = defaultOpenAIModelName
	}

	logger.Info().Str("api_url", apiURL).Str("model", mn).Msg("使用 OpenAI 兼容补全服务")

	return &OpenAICompatChatModel{
		apiKey:     apiKey,
		modelName:  mn,
		apiURL:     apiURL,
		httpClient: &http.Client{Timeout: 2 * time.Minute},
	}, nil
}

type openAIMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type openAIChatCompletionRequest struct {
	Model       string          `json:"model"`
	Messages    []openAIMessage `json:"messages"`
	Temperature *float32        `json:"temperature,omitempty"`
	MaxTokens   *int            `json:"max_tokens,omitempty"`
}

type openAIChatChoice struct {
	Index   int `json:"index"`
	Message struct {
		Role    string  `json:"role"`
		Content *string `json:"content"`
	} `json:"message"`
	FinishReason string `json:"finish_reason"`
}

type openAICompletionResponse struct {
	ID      string             `json:"id"`
	Model   string             `json:"model"`
	Choices []openAIChatChoice `json:"choices"`
}

// Generate 实现 model.BaseChatModel 接口
func (oc *OpenAICompatChatModel) Generate(ctx context.Context, messages []*schema.Message, opts ...model.Option) (*schema.Message, error) {
	options := model.GetCommonOptions(&model.Options{}, opts...)

	reqPayload := openAIChatCompletionRequest{
		Model:       oc.modelName,
		Temperature: options.Temperature,
		MaxTokens:   options.MaxTokens,
	}
	if options.Model != nil && *options.Model != "" {
		reqPayload.Model = *options.Model
	}
	for _, msg := range messages {
		if msg == nil {
			continue
		}
		reqPayload.Messages = append(reqPayload.Messages, openAIMessage{Role: string(msg.Role), Content: msg.Content})
	}

	jsonData, err := json.Marshal(reqPayload)
	if err != nil {
		return nil, fmt.Errorf("序列化请求体失败: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, oc.apiURL, bytes.NewReader(jsonData))
	if err != nil {
		return nil, fmt.Errorf("创建 HTTP 请求失败: %w", err)
	}
	httpReq.Header.Set("Authorization", "Bearer "+oc.apiKey)
	httpReq.Header.Set("Content-Type", "application/json")

	logger.Debug().Str("api_url", oc.apiURL).Str("model", reqPayload.Model).Int("messages", len(reqPayload.Messages)).Msg("发送补全请求")

	httpResp, err := oc.httpClient.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("发送 HTTP 请求失败: %w", err)
	}
	defer httpResp.Body.Close()

	bodyBytes, err := io.ReadAll(httpResp.Body)
	if err != nil {
		return nil, fmt.Errorf("读取响应体失败: %w", err)
	}

	if httpResp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("API 请求失败，状态 %s: %s", httpResp.Status, truncateBody(bodyBytes))
	}

	var completion openAICompletionResponse
	if err := json.Unmarshal(bodyBytes, &completion); err != nil {
		return nil, fmt.Errorf("反序列化 API 响应失败: %w", err)
	}
	if len(completion.Choices) == 0 {
		return nil, fmt.Errorf("从 API 收到空选项: %s", truncateBody(bodyBytes))
	}

	content := ""
	if c := completion.Choices[0].Message.Content; c != nil {
		content = *c
	}
	return schema.AssistantMessage(content, nil), nil
}

// Stream 未实现
func (oc *OpenAICompatChatModel) Stream(ctx context.Context, messages []*schema.Message, opts ...model.Option) (*schema.StreamReader[*schema.Message], error) {
	return nil, errors.New("OpenAICompatChatModel 不支持 Stream")
}

// ModelName 返回实际使用的模型名
func (oc *OpenAICompatChatModel) ModelName() string {
	return oc.modelName
}

func truncateBody(body []byte) string {
	const maxLen = 512
	if len(body) > maxLen {
		return string(body[:maxLen]) + "..."
	}
	return string(body)
}

var _ model.BaseChatModel = (*OpenAICompatChatModel)(nil)
