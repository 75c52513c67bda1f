package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// clearLLMEnv 清空可能影响测试的环境变量
func clearLLMEnv(t *testing.T) {
	for _, key := range []string{
		"LLM_PROVIDER", "LLM_MODEL", "LLM_API_URL", "LLM_API_KEY",
		"GEMINI_API_KEY", "GOOGLE_API_KEY", "SERVER_ADDRESS", "SERVER_API_KEYS",
		"RESULTS_CSV_PATH", "MINIO_ACCESS_KEY", "MINIO_SECRET_KEY",
	} {
		t.Setenv(key, "")
	}
}

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	configPath := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(configPath, []byte(content), 0644), "无法写入临时配置文件")
	return configPath
}

// TestLoadConfig_FileOverridesDefaults 文件中的值覆盖默认值，未出现的字段保持默认
func TestLoadConfig_FileOverridesDefaults(t *testing.T) {
	clearLLMEnv(t)
	configPath := writeConfig(t, `
server:
  address: ":9090"
scoring:
  rank_strategy: keyword
  concurrency: 8
results:
  csv_path: "/tmp/scores.csv"
llm:
  model_qpm_limits:
    gemini-1.5-pro: 100
`)

	config, err := LoadConfig(configPath)
	require.NoError(t, err)
	require.NotNil(t, config)

	assert.Equal(t, ":9090", config.Server.Address)
	assert.Equal(t, 8, config.Scoring.Concurrency)
	assert.Equal(t, "/tmp/scores.csv", config.Results.CSVPath)
	assert.Equal(t, ProviderNone, config.LLM.Provider)
	assert.Equal(t, "keyword", config.Scoring.CriteriaExtractor)
	assert.Equal(t, 100, config.LLM.ModelQPMLimits["gemini-1.5-pro"])
	assert.False(t, config.CompletionEnabled())
}

// TestLoadConfig_APIKeyFromEnvOnly API 密钥只能来自环境变量
func TestLoadConfig_APIKeyFromEnvOnly(t *testing.T) {
	clearLLMEnv(t)
	configPath := writeConfig(t, `
llm:
  provider: gemini
  api_key: "should-be-ignored"
`)

	_, err := LoadConfig(configPath)
	require.Error(t, err, "没有环境变量中的密钥时应当失败")
	assert.Contains(t, err.Error(), "LLM_API_KEY")

	t.Setenv("GEMINI_API_KEY", "env-key")
	config, err := LoadConfig(configPath)
	require.NoError(t, err)
	assert.Equal(t, "env-key", config.LLM.APIKey)
	assert.Equal(t, "gemini-1.5-pro", config.LLM.Model)
	assert.True(t, config.CompletionEnabled())
}

// TestLoadConfig_EnvOverrides 环境变量覆盖文件配置
func TestLoadConfig_EnvOverrides(t *testing.T) {
	clearLLMEnv(t)
	t.Setenv("LLM_PROVIDER", "openai")
	t.Setenv("LLM_API_KEY", "sk-test")
	t.Setenv("LLM_API_URL", "http://localhost:11434/v1/chat/completions")
	t.Setenv("SERVER_API_KEYS", " a , b ,,")
	t.Setenv("RESULTS_CSV_PATH", "/data/out.csv")

	config, err := LoadConfig(writeConfig(t, "server:\n  address: \":8081\"\n"))
	require.NoError(t, err)

	assert.Equal(t, ProviderOpenAI, config.LLM.Provider)
	assert.Equal(t, "sk-test", config.LLM.APIKey)
	assert.Equal(t, "gpt-4o-mini", config.LLM.Model)
	assert.Equal(t, []string{"a", "b"}, config.Server.APIKeys)
	assert.Equal(t, "/data/out.csv", config.Results.CSVPath)
}

// TestValidate_CrossFieldRules 字段之间的依赖关系
func TestValidate_CrossFieldRules(t *testing.T) {
	clearLLMEnv(t)

	cases := []struct {
		name    string
		content string
	}{
		{"模型策略需要补全服务", "scoring:\n  rank_strategy: model\n"},
		{"LLM条件提取需要补全服务", "scoring:\n  criteria_extractor: llm\n"},
		{"未知策略", "scoring:\n  rank_strategy: magic\n"},
		{"tika需要地址", "extractor:\n  type: tika\n"},
		{"并发数越界", "scoring:\n  concurrency: 1000\n"},
		{"超时格式错误", "llm:\n  call_timeout: soon\n"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := LoadConfig(writeConfig(t, tc.content))
			assert.Error(t, err)
		})
	}
}

// TestLoadConfigWithInvalidYAML 语法错误的 YAML 返回解析错误
func TestLoadConfigWithInvalidYAML(t *testing.T) {
	clearLLMEnv(t)
	_, err := LoadConfig(writeConfig(t, "server:\n  address: [unclosed\n"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "解析配置文件失败")
}

func TestCreateSampleConfig(t *testing.T) {
	clearLLMEnv(t)
	path := filepath.Join(t.TempDir(), "sample.yaml")
	require.NoError(t, CreateSampleConfig(path))
	assert.Error(t, CreateSampleConfig(path), "已存在的文件不应被覆盖")

	config, err := LoadConfig(path)
	require.NoError(t, err)
	assert.Equal(t, "keyword", config.Scoring.RankStrategy)
	assert.Empty(t, config.LLM.APIKey)
}

func TestGetDuration(t *testing.T) {
	assert.Equal(t, 5*time.Second, GetDuration("", 5*time.Second))
	assert.Equal(t, 5*time.Second, GetDuration("bogus", 5*time.Second))
	assert.Equal(t, 90*time.Second, GetDuration("90s", time.Second))
}
