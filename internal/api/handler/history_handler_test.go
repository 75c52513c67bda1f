package handler_test

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"testing"
	"time"

	"resume-ranker/internal/api/handler"
	"resume-ranker/internal/api/router"
	"resume-ranker/internal/storage"
	"resume-ranker/internal/storage/models"
	"resume-ranker/pkg/utils"

	"github.com/cloudwego/hertz/pkg/app/server"
	"github.com/cloudwego/hertz/pkg/common/ut"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type memHistory struct {
	batches map[string]models.ScoreBatch
}

func (m *memHistory) GetScoreBatch(_ context.Context, batchID string) (models.ScoreBatch, error) {
	b, ok := m.batches[batchID]
	if !ok {
		return models.ScoreBatch{}, fmt.Errorf("%w: %s", storage.ErrBatchNotFound, batchID)
	}
	return b, nil
}

type memArchive struct {
	objects    map[string][]byte
	presignErr error
	lastExpiry time.Duration
}

func (m *memArchive) GetPresignedURL(_ context.Context, objectName string, expiry time.Duration) (string, error) {
	m.lastExpiry = expiry
	if m.presignErr != nil {
		return "", m.presignErr
	}
	return "https://minio.local/resume-results/" + objectName + "?X-Amz-Signature=sig", nil
}

func (m *memArchive) DownloadFile(_ context.Context, objectName string) ([]byte, error) {
	data, ok := m.objects[objectName]
	if !ok {
		return nil, errors.New("object not found")
	}
	return data, nil
}

const archivedKey = "scores/2026/10/18/batch-1.csv"

func sampleHistory() *memHistory {
	return &memHistory{batches: map[string]models.ScoreBatch{
		"batch-1": {
			BatchID:      "batch-1",
			Strategy:     "keyword",
			LabelColumn:  "Candidate Name",
			ResumeCount:  2,
			CriteriaJSON: utils.ConvertArrayToJSON([]string{"Go", "Kubernetes"}),
			CSVFile:      "resume_scores.csv",
			ArchiveKey:   archivedKey,
			Records: []models.ScoreRecord{
				{BatchID: "batch-1", Position: 0, FileName: "jane.docx", CandidateName: "Jane Doe", SkillsScore: 2, TotalScore: 2},
				{BatchID: "batch-1", Position: 1, FileName: "john.pdf", CandidateName: "John Roe", ExperienceScore: 1, TotalScore: 1},
			},
		},
		"batch-2": {BatchID: "batch-2", Strategy: "model", LabelColumn: "File Name"},
	}}
}

func newHistoryServer(t *testing.T, archive handler.ArchiveReader) *server.Hertz {
	t.Helper()
	h := server.New()
	router.RegisterRoutes(h, handler.NewScoreHandler(nil, nil, nil, nil), router.Options{
		History: handler.NewHistoryHandler(sampleHistory(), archive, time.Minute),
	})
	return h
}

func TestGetBatch(t *testing.T) {
	archive := &memArchive{}
	h := newHistoryServer(t, archive)

	w := ut.PerformRequest(h.Engine, "GET", "/batches/batch-1", nil)
	require.Equal(t, 200, w.Code, w.Body.String())

	var resp handler.BatchResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, "batch-1", resp.BatchID)
	assert.Equal(t, "keyword", resp.Strategy)
	assert.Equal(t, []string{"Go", "Kubernetes"}, resp.Criteria)
	assert.Equal(t, "https://minio.local/resume-results/"+archivedKey+"?X-Amz-Signature=sig", resp.ArchiveURL)
	assert.Equal(t, time.Minute, archive.lastExpiry)

	require.Len(t, resp.Scores, 2)
	assert.Equal(t, "Jane Doe", resp.Scores[0].CandidateName)
	assert.Empty(t, resp.Scores[0].FileName, "按候选人姓名标注的批次不返回文件名")
	assert.Equal(t, 2, resp.Scores[0].TotalScore)
	assert.Equal(t, "John Roe", resp.Scores[1].CandidateName)
}

func TestGetBatch_PresignFailureStillAnswers(t *testing.T) {
	h := newHistoryServer(t, &memArchive{presignErr: errors.New("minio down")})

	w := ut.PerformRequest(h.Engine, "GET", "/batches/batch-1", nil)
	require.Equal(t, 200, w.Code)

	var resp handler.BatchResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Empty(t, resp.ArchiveURL)
	assert.Len(t, resp.Scores, 2)
}

func TestGetBatch_NotFound(t *testing.T) {
	h := newHistoryServer(t, nil)

	w := ut.PerformRequest(h.Engine, "GET", "/batches/missing", nil)
	assert.Equal(t, 404, w.Code)
	assert.Contains(t, decodeDetail(t, w), "missing")
}

func TestDownloadArchive(t *testing.T) {
	snapshot := []byte("Skills Score,Experience Score,Certifications Score,Qualifications Score,Total Score,Candidate Name\n2,0,0,0,2,Jane Doe\n")
	h := newHistoryServer(t, &memArchive{objects: map[string][]byte{archivedKey: snapshot}})

	w := ut.PerformRequest(h.Engine, "GET", "/batches/batch-1/csv", nil)
	require.Equal(t, 200, w.Code)
	assert.Equal(t, snapshot, w.Body.Bytes())
	assert.Equal(t, "text/csv", string(w.Header().ContentType()))
	assert.Contains(t, string(w.Header().Peek("Content-Disposition")), `filename="batch-1.csv"`)

	w = ut.PerformRequest(h.Engine, "GET", "/batches/batch-2/csv", nil)
	assert.Equal(t, 404, w.Code, "没有归档快照的批次")
}

func TestHistoryRoutes_NotRegisteredWithoutHistory(t *testing.T) {
	srv := newTestServer(t, nil, router.Options{})

	w := ut.PerformRequest(srv.h.Engine, "GET", "/batches/batch-1", nil)
	assert.Equal(t, 404, w.Code)
}
