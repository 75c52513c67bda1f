package types

import (
	"strconv"
	"time"
)

// ResumeDetails 由模型从简历中抽取的结构化信息
type ResumeDetails struct {
	Skills         []string `json:"skills"`
	Experience     string   `json:"experience"` // 总工作年限，模型返回的原始文本
	Certifications []string `json:"certifications"`
	Qualifications []string `json:"qualifications"`
}

// EmptyResumeDetails 抽取失败时的降级结果
func EmptyResumeDetails() ResumeDetails {
	return ResumeDetails{
		Skills:         []string{},
		Experience:     "0",
		Certifications: []string{},
		Qualifications: []string{},
	}
}

// UploadedFile 一次请求中上传的单个文档
type UploadedFile struct {
	FileName string
	MIMEType string
	Data     []byte
}

// LabelColumn 结果表最后一列的列名
type LabelColumn string

const (
	LabelCandidateName LabelColumn = "Candidate Name"
	LabelFileName      LabelColumn = "File Name"
)

// ScoreColumns 结果表的分数列，顺序固定
var ScoreColumns = []string{
	"Skills Score",
	"Experience Score",
	"Certifications Score",
	"Qualifications Score",
	"Total Score",
}

// CandidateResult 单份简历的评分结果
type CandidateResult struct {
	FileName      string         `json:"file_name"`
	CandidateName string         `json:"candidate_name,omitempty"`
	Scores        CategoryScores `json:"scores"`
}

// ResultSet 一个批次的有序结果，顺序与上传顺序一致
type ResultSet struct {
	BatchID  string
	Label    LabelColumn
	Results  []CandidateResult
	Criteria []string // 本批次使用的招聘条件，只用于历史记录
}

// Header 返回表头
func (rs ResultSet) Header() []string {
	header := make([]string, 0, len(ScoreColumns)+1)
	header = append(header, ScoreColumns...)
	return append(header, string(rs.Label))
}

// Rows 返回表格行，每行与 Header 对齐
func (rs ResultSet) Rows() [][]string {
	rows := make([][]string, 0, len(rs.Results))
	for _, r := range rs.Results {
		rows = append(rows, []string{
			strconv.Itoa(r.Scores.Skills),
			strconv.Itoa(r.Scores.Experience),
			strconv.Itoa(r.Scores.Certifications),
			strconv.Itoa(r.Scores.Qualifications),
			strconv.Itoa(r.Scores.Total),
			rs.labelValue(r),
		})
	}
	return rows
}

func (rs ResultSet) labelValue(r CandidateResult) string {
	if rs.Label == LabelCandidateName {
		return r.CandidateName
	}
	return r.FileName
}

// ScoreRow HTTP 响应中 scores 数组的单项，键名与结果表列名一致
type ScoreRow struct {
	SkillsScore         int    `json:"Skills Score"`
	ExperienceScore     int    `json:"Experience Score"`
	CertificationsScore int    `json:"Certifications Score"`
	QualificationsScore int    `json:"Qualifications Score"`
	TotalScore          int    `json:"Total Score"`
	CandidateName       string `json:"Candidate Name,omitempty"`
	FileName            string `json:"File Name,omitempty"`
}

// ScoreRows 将结果集转换为响应格式
func (rs ResultSet) ScoreRows() []ScoreRow {
	out := make([]ScoreRow, 0, len(rs.Results))
	for _, r := range rs.Results {
		row := ScoreRow{
			SkillsScore:         r.Scores.Skills,
			ExperienceScore:     r.Scores.Experience,
			CertificationsScore: r.Scores.Certifications,
			QualificationsScore: r.Scores.Qualifications,
			TotalScore:          r.Scores.Total,
		}
		if rs.Label == LabelCandidateName {
			row.CandidateName = r.CandidateName
		} else {
			row.FileName = r.FileName
		}
		out = append(out, row)
	}
	return out
}

// BatchScoredEvent 批次评分完成后发布到消息队列的事件
type BatchScoredEvent struct {
	BatchID    string            `json:"batch_id"`
	Strategy   string            `json:"strategy"`
	Label      string            `json:"label"`
	Count      int               `json:"count"`
	Results    []CandidateResult `json:"results"`
	CSVFile    string            `json:"csv_file"`
	ArchiveKey string            `json:"archive_key,omitempty"`
	ScoredAt   time.Time         `json:"scored_at"`
}
