package types

import "strings"

// MaxCategoryScore 单个类别分数上限
const MaxCategoryScore = 5

// 标准类别名称，顺序即CSV列顺序
const (
	CategorySkills         = "skills"
	CategoryExperience     = "experience"
	CategoryCertifications = "certifications"
	CategoryQualifications = "qualifications"
)

// CategoryScores 单份简历在四个类别上的得分及总分
// 只能通过 NewCategoryScores 构造，保证每项在 [0,5] 且 Total 为四项之和
type CategoryScores struct {
	Skills         int `json:"skills"`
	Experience     int `json:"experience"`
	Certifications int `json:"certifications"`
	Qualifications int `json:"qualifications"`
	Total          int `json:"total"`
}

// NewCategoryScores 截断每个类别到 [0,5] 并计算总分
func NewCategoryScores(skills, experience, certifications, qualifications int) CategoryScores {
	s := CategoryScores{
		Skills:         ClampScore(skills),
		Experience:     ClampScore(experience),
		Certifications: ClampScore(certifications),
		Qualifications: ClampScore(qualifications),
	}
	s.Total = s.Skills + s.Experience + s.Certifications + s.Qualifications
	return s
}

// ZeroScores 全零得分，模型评分降级时使用
func ZeroScores() CategoryScores {
	return NewCategoryScores(0, 0, 0, 0)
}

// ClampScore 将分数限制在 [0, MaxCategoryScore]
func ClampScore(v int) int {
	if v < 0 {
		return 0
	}
	if v > MaxCategoryScore {
		return MaxCategoryScore
	}
	return v
}

// CategorizedCriteria 按类别划分的关键词列表（/rank-resumes 的输入）
type CategorizedCriteria struct {
	Skills         []string `json:"skills"`
	Experience     []string `json:"experience"`
	Certifications []string `json:"certifications"`
	Qualifications []string `json:"qualifications"`
}

// IsEmpty 四个类别全部为空
func (c CategorizedCriteria) IsEmpty() bool {
	return len(c.Skills) == 0 && len(c.Experience) == 0 &&
		len(c.Certifications) == 0 && len(c.Qualifications) == 0
}

// Flatten 按类别顺序拼接为一个列表
func (c CategorizedCriteria) Flatten() []string {
	out := make([]string, 0, len(c.Skills)+len(c.Experience)+len(c.Certifications)+len(c.Qualifications))
	out = append(out, c.Skills...)
	out = append(out, c.Experience...)
	out = append(out, c.Certifications...)
	out = append(out, c.Qualifications...)
	return out
}

// JobCriteria 评分策略的统一输入
type JobCriteria struct {
	Categorized    CategorizedCriteria
	Flat           []string
	JobDescription string
}

// All 返回扁平化的条件列表；Flat 为空时使用分类列表
func (j JobCriteria) All() []string {
	if len(j.Flat) > 0 {
		return j.Flat
	}
	return j.Categorized.Flatten()
}

// 条件提取的哨兵值，不是真正的招聘条件
const (
	NoCriteriaFound          = "No specific criteria found."
	CriteriaExtractionFailed = "Failed to extract criteria"
)

// IsSentinelCriterion 判断是否为哨兵值
func IsSentinelCriterion(c string) bool {
	c = strings.TrimSpace(c)
	return c == NoCriteriaFound || c == CriteriaExtractionFailed
}

// UsableCriteria 去掉哨兵值和空白项，保持原有顺序
func UsableCriteria(list []string) []string {
	out := make([]string, 0, len(list))
	for _, c := range list {
		c = strings.TrimSpace(c)
		if c == "" || IsSentinelCriterion(c) {
			continue
		}
		out = append(out, c)
	}
	return out
}
