package scoring

import (
	"fmt"
	"strings"

	"resume-ranker/internal/types"
)

const scoreJSONFormat = `{
    "skills_score": <score>,
    "experience_score": <score>,
    "certifications_score": <score>,
    "qualifications_score": <score>
}`

const scoreRubric = `Score the resume for each category on a scale of 0 to 5, where:
- 5 = Perfect match
- 4 = Strong match
- 3 = Moderate match
- 2 = Partial match
- 1 = Weak match
- 0 = No match`

// buildScorePrompt 生成评分 prompt；jobDescription 非空时附带职位描述和评分标准
func buildScorePrompt(criteria []string, jobDescription string, details types.ResumeDetails) string {
	var b strings.Builder
	b.WriteString("You are an experienced HR professional scoring resumes against job requirements.\n\n")

	if jd := strings.TrimSpace(jobDescription); jd != "" {
		fmt.Fprintf(&b, "Job Description:\n%s\n\n", jd)
	}

	fmt.Fprintf(&b, "Job Criteria:\n%s\n\n", strings.Join(criteria, ", "))

	b.WriteString("Resume Details:\n")
	fmt.Fprintf(&b, "Skills: %s\n", strings.Join(details.Skills, ", "))
	fmt.Fprintf(&b, "Experience: %s years\n", details.Experience)
	fmt.Fprintf(&b, "Certifications: %s\n", strings.Join(details.Certifications, ", "))
	fmt.Fprintf(&b, "Qualifications: %s\n\n", strings.Join(details.Qualifications, ", "))

	if strings.TrimSpace(jobDescription) != "" {
		b.WriteString(scoreRubric)
	} else {
		b.WriteString("Score the resume on a scale of 0-5 for each category.")
	}
	b.WriteString("\nReturn ONLY a JSON object with integer scores in this format, without markdown or commentary:\n")
	b.WriteString(scoreJSONFormat)
	return b.String()
}
