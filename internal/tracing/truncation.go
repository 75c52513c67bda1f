package tracing

// span 属性长度上限，按字符计
const (
	MaxSQLLength      = 500
	MaxRedisLength    = 100
	MaxPromptLength   = 300
	MaxFileNameLength = 120
)

// TruncateString 超长时保留首尾，中间用 ... 连接
func TruncateString(s string, maxLength int) string {
	runes := []rune(s)
	if len(runes) <= maxLength {
		return s
	}
	if maxLength <= 3 {
		return string(runes[:maxLength])
	}

	half := (maxLength - 3) / 2
	if half < 1 {
		half = 1
	}
	return string(runes[:half]) + "..." + string(runes[len(runes)-half:])
}

// SafeSQL 截断 SQL 语句
func SafeSQL(sql string) string { return TruncateString(sql, MaxSQLLength) }

// SafeRedisKey 截断 Redis 键
func SafeRedisKey(key string) string { return TruncateString(key, MaxRedisLength) }

// SafePrompt 截断补全请求的 prompt，其中包含简历原文
func SafePrompt(prompt string) string { return TruncateString(prompt, MaxPromptLength) }

// SafeFileName 截断上传文件名
func SafeFileName(name string) string { return TruncateString(name, MaxFileNameLength) }
