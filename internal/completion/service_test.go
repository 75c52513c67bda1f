package completion

import (
	"bytes"
	"context"
	"errors"
	"testing"
	"time"

	"resume-ranker/internal/config"
	"resume-ranker/internal/logger"
	"resume-ranker/internal/types"
	"resume-ranker/pkg/agent"

	"github.com/cloudwego/eino/components/model"
	"github.com/cloudwego/eino/schema"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestService_CompleteReturnsContent(t *testing.T) {
	mock := agent.NewMockChatClient(`{"skills": 3}`, nil)
	svc := NewService(mock, WithTemperature(0.2)).WithSystemPrompt("be strict").ForOperation("score")

	out, err := svc.Complete(context.Background(), "score this resume")
	require.NoError(t, err)
	assert.Equal(t, `{"skills": 3}`, out)

	msgs := mock.GetReceivedMessages()
	require.Len(t, msgs, 2)
	assert.Equal(t, schema.System, msgs[0].Role)
	assert.Equal(t, "score this resume", msgs[1].Content)
}

func TestService_WrapsErrors(t *testing.T) {
	svc := NewService(agent.NewMockChatClient("", errors.New("boom"))).ForOperation("criteria")
	_, err := svc.Complete(context.Background(), "x")
	require.Error(t, err)
	assert.ErrorIs(t, err, types.ErrCompletion)

	var compErr *types.CompletionError
	require.ErrorAs(t, err, &compErr)
	assert.Equal(t, "criteria", compErr.Operation)
}

type slowModel struct{}

func (slowModel) Generate(ctx context.Context, _ []*schema.Message, _ ...model.Option) (*schema.Message, error) {
	<-ctx.Done()
	return nil, ctx.Err()
}

func (slowModel) Stream(ctx context.Context, _ []*schema.Message, _ ...model.Option) (*schema.StreamReader[*schema.Message], error) {
	return nil, errors.New("unsupported")
}

func TestService_PerCallTimeout(t *testing.T) {
	svc := NewService(slowModel{}, WithTimeout(20*time.Millisecond))

	start := time.Now()
	_, err := svc.Complete(context.Background(), "x")
	assert.ErrorIs(t, err, types.ErrCompletion)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
	assert.Less(t, time.Since(start), 2*time.Second)
}

func TestService_NilIsUnavailable(t *testing.T) {
	var svc *Service
	_, err := svc.Complete(context.Background(), "x")
	assert.ErrorIs(t, err, types.ErrCompletionUnavailable)
}

func TestNewFromConfig(t *testing.T) {
	svc, err := NewFromConfig(context.Background(), config.LLMConfig{Provider: config.ProviderNone})
	require.NoError(t, err)
	assert.Nil(t, svc)

	_, err = NewFromConfig(context.Background(), config.LLMConfig{Provider: config.ProviderOpenAI, APIURL: "http://localhost"})
	assert.Error(t, err, "缺少密钥时应失败")

	svc, err = NewFromConfig(context.Background(), config.LLMConfig{
		Provider: config.ProviderOpenAI, APIKey: "sk", APIURL: "http://localhost:1/v1/chat/completions", CallTimeout: "5s",
	})
	require.NoError(t, err)
	assert.Equal(t, 5*time.Second, svc.timeout)
	assert.Equal(t, "gpt-4o-mini", svc.modelName)

	_, err = NewFromConfig(context.Background(), config.LLMConfig{Provider: "claude"})
	assert.Error(t, err)
}

// TestNewFromConfig_LogsThroughAppLogger 初始化日志写入应用日志实例
func TestNewFromConfig_LogsThroughAppLogger(t *testing.T) {
	var buf bytes.Buffer
	saved := logger.Logger
	logger.Logger = zerolog.New(&buf)
	t.Cleanup(func() { logger.Logger = saved })

	_, err := NewFromConfig(context.Background(), config.LLMConfig{Provider: config.ProviderNone})
	require.NoError(t, err)
	assert.Contains(t, buf.String(), "未配置补全服务")

	buf.Reset()
	_, err = NewFromConfig(context.Background(), config.LLMConfig{
		Provider: config.ProviderOpenAI, APIKey: "sk", APIURL: "http://localhost:1/v1/chat/completions",
	})
	require.NoError(t, err)
	assert.Contains(t, buf.String(), `"model":"gpt-4o-mini"`)
	assert.Contains(t, buf.String(), "补全服务初始化成功")
}
