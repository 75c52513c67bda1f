package storage

import (
	"time"

	"resume-ranker/internal/types"
)

// NewBatchScoredEvent 根据已写入的结果集构造批次完成事件
func NewBatchScoredEvent(set types.ResultSet, strategy, csvFile, archiveKey string, scoredAt time.Time) types.BatchScoredEvent {
	return types.BatchScoredEvent{
		BatchID:    set.BatchID,
		Strategy:   strategy,
		Label:      string(set.Label),
		Count:      len(set.Results),
		Results:    set.Results,
		CSVFile:    csvFile,
		ArchiveKey: archiveKey,
		ScoredAt:   scoredAt.UTC(),
	}
}
