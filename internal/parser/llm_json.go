package parser

import (
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"regexp"
	"strconv"
	"strings"
)

// ErrNoJSONObject 模型输出中找不到 JSON 对象
var ErrNoJSONObject = errors.New("模型输出中没有JSON对象")

var leadingNumberRe = regexp.MustCompile(`^[+-]?\d+(?:\.\d+)?(?:[eE][+-]?\d+)?`)

// CleanModelOutput 去掉 BOM、首尾空白和 markdown 代码块标记
func CleanModelOutput(raw string) string {
	s := strings.TrimSpace(strings.TrimPrefix(raw, "\ufeff"))
	if strings.HasPrefix(s, "```") {
		s = strings.TrimPrefix(s, "```")
		if nl := strings.IndexByte(s, '\n'); nl >= 0 {
			// 去掉语言标记，例如 ```json
			s = s[nl+1:]
		}
		s = strings.TrimSuffix(strings.TrimSpace(s), "```")
	}
	return strings.TrimSpace(s)
}

// DecodeJSONObject 从模型输出中解析第一个 JSON 对象
// 直接解析失败时，先修复字符串内部未转义的引号再试一次
func DecodeJSONObject(raw string) (map[string]any, error) {
	jsonStr := extractJSONObject(CleanModelOutput(raw))
	if jsonStr == "" {
		return nil, ErrNoJSONObject
	}

	var out map[string]any
	err := json.Unmarshal([]byte(jsonStr), &out)
	if err == nil {
		return out, nil
	}

	if retryErr := json.Unmarshal([]byte(sanitizeJSON(jsonStr)), &out); retryErr == nil {
		return out, nil
	}
	return nil, fmt.Errorf("解析模型JSON失败: %w", err)
}

// extractJSONObject 返回第一个括号配平的 {...}，忽略字符串内的括号
func extractJSONObject(text string) string {
	start := strings.Index(text, "{")
	if start == -1 {
		return ""
	}
	level := 0
	inStr := false
	escaped := false
	for i := start; i < len(text); i++ {
		c := text[i]
		if inStr {
			switch {
			case escaped:
				escaped = false
			case c == '\\':
				escaped = true
			case c == '"':
				inStr = false
			}
			continue
		}
		switch c {
		case '"':
			inStr = true
		case '{':
			level++
		case '}':
			level--
			if level == 0 {
				return text[start : i+1]
			}
		}
	}
	return ""
}

// sanitizeJSON 把字符串内部未转义的 " 改成 \"
// 判断依据：真正的字符串结束引号后面（跳过空白）一定是 : , ] } 之一
func sanitizeJSON(src string) string {
	var b strings.Builder
	inStr := false
	escaped := false

	for i := 0; i < len(src); i++ {
		c := src[i]

		switch {
		case c == '"' && !escaped:
			if !inStr {
				inStr = true
				b.WriteByte(c)
			} else {
				j := i + 1
				for j < len(src) && (src[j] == ' ' || src[j] == '\t' || src[j] == '\n' || src[j] == '\r') {
					j++
				}
				if j >= len(src) || src[j] == ':' || src[j] == ',' || src[j] == ']' || src[j] == '}' {
					inStr = false
					b.WriteByte(c)
				} else {
					b.WriteString("\\\"")
				}
			}
			escaped = false
		case c == '\\' && !escaped:
			escaped = true
			b.WriteByte(c)
		default:
			b.WriteByte(c)
			escaped = false
		}
	}

	return b.String()
}

// CoerceInt 把模型给出的分数转换为整数
// 支持 JSON 数字（四舍五入）以及 "4"、"4.0"、"4/5"、"4 out of 5" 这类字符串
func CoerceInt(v any) (int, bool) {
	switch n := v.(type) {
	case float64:
		if math.IsNaN(n) || math.IsInf(n, 0) {
			return 0, false
		}
		return roundToInt(n), true
	case json.Number:
		f, err := n.Float64()
		if err != nil {
			return 0, false
		}
		return CoerceInt(f)
	case int:
		return n, true
	case string:
		m := leadingNumberRe.FindString(strings.TrimSpace(n))
		if m == "" {
			return 0, false
		}
		f, err := strconv.ParseFloat(m, 64)
		if err != nil {
			return 0, false
		}
		return roundToInt(f), true
	default:
		return 0, false
	}
}

// roundToInt 四舍五入并截断到 int 范围
func roundToInt(f float64) int {
	r := math.Round(f)
	switch {
	case r >= float64(math.MaxInt):
		return math.MaxInt
	case r <= float64(math.MinInt):
		return math.MinInt
	default:
		return int(r)
	}
}

// CoerceString 把字符串或数字转换为字符串，其他类型返回空串
func CoerceString(v any) string {
	switch s := v.(type) {
	case string:
		return strings.TrimSpace(s)
	case float64:
		return strconv.FormatFloat(s, 'f', -1, 64)
	case json.Number:
		return s.String()
	default:
		return ""
	}
}

// CoerceStringList 把 JSON 数组或逗号分隔的字符串转换为去空白的字符串列表
func CoerceStringList(v any) []string {
	out := []string{}
	switch list := v.(type) {
	case []any:
		for _, item := range list {
			if s := CoerceString(item); s != "" {
				out = append(out, s)
			}
		}
	case string:
		for _, part := range strings.Split(list, ",") {
			if s := strings.TrimSpace(part); s != "" {
				out = append(out, s)
			}
		}
	}
	return out
}

// splitLines 把文本按行拆分，去掉空行以及常见的列表前缀
func splitLines(text string) []string {
	var out []string
	for _, line := range strings.Split(text, "\n") {
		line = strings.TrimSpace(line)
		line = strings.TrimLeft(line, "-*• ")
		line = strings.TrimSpace(line)
		if line == "" || line == "```" || strings.HasPrefix(line, "```") {
			continue
		}
		out = append(out, line)
	}
	return out
}
