package jsonx

import "strings"

// StripCodeFences 大模型经常把 JSON 包在 markdown 代码块里，先剥掉
func StripCodeFences(s string) string {
	s = strings.TrimSpace(s)
	s = strings.TrimPrefix(s, "```json")
	s = strings.TrimPrefix(s, "```")
	s = strings.TrimSuffix(s, "```")
	return strings.TrimSpace(s)
}
