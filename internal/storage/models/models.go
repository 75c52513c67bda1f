package models

import (
	"time"

	"gorm.io/datatypes"
)

// ScoreBatch 一次评分请求（批次）
type ScoreBatch struct {
	BatchID      string         `gorm:"type:char(36);primaryKey"`
	Strategy     string         `gorm:"type:varchar(20);not null;index:idx_score_batches_strategy"`
	LabelColumn  string         `gorm:"type:varchar(50);not null"`
	ResumeCount  int            `gorm:"not null"`
	CriteriaJSON datatypes.JSON `gorm:"type:json"`
	CSVFile      string         `gorm:"type:varchar(255)"`
	ArchiveKey   string         `gorm:"type:varchar(512)"`
	CreatedAt    time.Time      `gorm:"type:datetime(6);default:CURRENT_TIMESTAMP(6)"`
	Records      []ScoreRecord  `gorm:"foreignKey:BatchID;references:BatchID"`
}

func (ScoreBatch) TableName() string {
	return "score_batches"
}

// ScoreRecord 批次中单份简历的评分，Position 为上传顺序
type ScoreRecord struct {
	ID                  uint64    `gorm:"primaryKey;autoIncrement"`
	BatchID             string    `gorm:"type:char(36);not null;uniqueIndex:idx_score_records_batch_position"`
	Position            int       `gorm:"not null;uniqueIndex:idx_score_records_batch_position"`
	FileName            string    `gorm:"type:varchar(255);not null"`
	CandidateName       string    `gorm:"type:varchar(255);index:idx_score_records_candidate"`
	SkillsScore         int       `gorm:"type:tinyint;not null"`
	ExperienceScore     int       `gorm:"type:tinyint;not null"`
	CertificationsScore int       `gorm:"type:tinyint;not null"`
	QualificationsScore int       `gorm:"type:tinyint;not null"`
	TotalScore          int       `gorm:"type:tinyint;not null;index:idx_score_records_total"`
	CreatedAt           time.Time `gorm:"type:datetime(6);default:CURRENT_TIMESTAMP(6)"`
}

func (ScoreRecord) TableName() string {
	return "score_records"
}
