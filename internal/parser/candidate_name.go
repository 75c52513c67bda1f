package parser

import (
	"regexp"
	"strings"
)

// UnknownCandidate 简历中找不到姓名时的占位值
const UnknownCandidate = "Unknown Candidate"

// 整体不区分大小写；姓名由字母单词组成，不能跨行
var candidateNameRe = regexp.MustCompile(`(?i)name[:\s]*([a-z]+(?:[ \t]+[a-z]+)*)`)

// ExtractCandidateName 从简历文本中提取候选人姓名
func ExtractCandidateName(text string) string {
	m := candidateNameRe.FindStringSubmatch(text)
	if len(m) < 2 {
		return UnknownCandidate
	}
	name := strings.Join(strings.Fields(m[1]), " ")
	if name == "" {
		return UnknownCandidate
	}
	return name
}
