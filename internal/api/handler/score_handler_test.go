package handler_test

import (
	"archive/zip"
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"mime/multipart"
	"net/textproto"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"resume-ranker/internal/api/handler"
	"resume-ranker/internal/api/router"
	"resume-ranker/internal/constants"
	"resume-ranker/internal/parser"
	"resume-ranker/internal/processor"
	"resume-ranker/internal/results"
	"resume-ranker/internal/scoring"
	"resume-ranker/internal/types"

	"github.com/cloudwego/hertz/pkg/app/server"
	"github.com/cloudwego/hertz/pkg/common/ut"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type part struct {
	field, fileName, contentType string
	data                         []byte
}

// multipartBody 构造多部分表单，每个文件部分带有自己的 Content-Type
func multipartBody(t *testing.T, values map[string][]string, parts ...part) (*bytes.Buffer, string) {
	t.Helper()
	body := &bytes.Buffer{}
	w := multipart.NewWriter(body)
	for key, vs := range values {
		for _, v := range vs {
			require.NoError(t, w.WriteField(key, v))
		}
	}
	for _, p := range parts {
		h := make(textproto.MIMEHeader)
		h.Set("Content-Disposition", fmt.Sprintf(`form-data; name="%s"; filename="%s"`, p.field, p.fileName))
		h.Set("Content-Type", p.contentType)
		pw, err := w.CreatePart(h)
		require.NoError(t, err)
		_, err = pw.Write(p.data)
		require.NoError(t, err)
	}
	require.NoError(t, w.Close())
	return body, w.FormDataContentType()
}

func buildDocx(t *testing.T, paragraphs ...string) []byte {
	t.Helper()
	var body strings.Builder
	for _, p := range paragraphs {
		fmt.Fprintf(&body, `<w:p><w:r><w:t xml:space="preserve">%s</w:t></w:r></w:p>`, p)
	}
	doc := `<?xml version="1.0" encoding="UTF-8" standalone="yes"?>` +
		`<w:document xmlns:w="http://schemas.openxmlformats.org/wordprocessingml/2006/main"><w:body>` +
		body.String() + `</w:body></w:document>`

	var buf bytes.Buffer
	zw := zip.NewWriter(&buf)
	w, err := zw.Create("word/document.xml")
	require.NoError(t, err)
	_, err = w.Write([]byte(doc))
	require.NoError(t, err)
	require.NoError(t, zw.Close())
	return buf.Bytes()
}

type noPDF struct{}

func (noPDF) ExtractText(context.Context, []byte, string, string) (string, error) {
	return "", errors.New("pdf not available in tests")
}

// fixedModel 固定分数的模型策略
type fixedModel struct{ scores types.CategoryScores }

func (fixedModel) Name() string { return constants.StrategyModel }
func (f fixedModel) Score(context.Context, string, types.JobCriteria) types.CategoryScores {
	return f.scores
}

type testServer struct {
	h       *server.Hertz
	csvPath string
}

func newTestServer(t *testing.T, model scoring.Strategy, opts router.Options) *testServer {
	t.Helper()
	csvPath := filepath.Join(t.TempDir(), constants.DefaultCSVFileName)
	store := results.NewCSVStore(csvPath)

	ranker, err := processor.NewRanker(&processor.Components{
		Extractor: parser.NewBuiltinDocumentExtractor(noPDF{}),
		Criteria:  parser.NewKeywordCriteriaExtractor(),
		Writer:    store,
	}, &processor.Settings{Concurrency: 2})
	require.NoError(t, err)

	h := server.New()
	router.RegisterRoutes(h, handler.NewScoreHandler(ranker, store, scoring.NewKeywordScoring(), model), opts)
	return &testServer{h: h, csvPath: csvPath}
}

func (s *testServer) post(path string, body *bytes.Buffer, contentType string, headers ...ut.Header) *ut.ResponseRecorder {
	headers = append(headers, ut.Header{Key: "Content-Type", Value: contentType})
	return ut.PerformRequest(s.h.Engine, "POST", path, &ut.Body{Body: body, Len: body.Len()}, headers...)
}

func decodeDetail(t *testing.T, w *ut.ResponseRecorder) string {
	t.Helper()
	var resp map[string]string
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	return resp["detail"]
}

func TestRankResumes_EndToEndDocx(t *testing.T) {
	srv := newTestServer(t, nil, router.Options{})

	docx := buildDocx(t, "Name: Jane Doe", "Python, 5 years experience")
	body, ct := multipartBody(t, map[string][]string{"skills": {"python"}},
		part{field: "files", fileName: "jane.docx", contentType: constants.MIMETypeDOCX, data: docx})

	w := srv.post("/rank-resumes", body, ct)
	require.Equal(t, 200, w.Code, w.Body.String())

	var resp handler.ScoreResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, constants.MsgRankCompleted, resp.Message)
	assert.Equal(t, constants.DefaultCSVFileName, resp.CSVFileName)
	assert.Equal(t, constants.DownloadURL, resp.DownloadURL)
	assert.Equal(t, constants.ViewResultsURL, resp.ViewResults)
	assert.Len(t, resp.BatchID, 36)
	require.Len(t, resp.Scores, 1)
	assert.Equal(t, 1, resp.Scores[0].SkillsScore)
	assert.Equal(t, 1, resp.Scores[0].TotalScore)
	assert.Equal(t, "Jane Doe", resp.Scores[0].CandidateName)

	data, err := os.ReadFile(srv.csvPath)
	require.NoError(t, err)
	assert.Contains(t, string(data), "Jane Doe")

	dl := ut.PerformRequest(srv.h.Engine, "GET", constants.DownloadURL, nil)
	require.Equal(t, 200, dl.Code)
	assert.Equal(t, "text/csv", string(dl.Header().ContentType()))
	assert.Contains(t, string(dl.Header().Peek("Content-Disposition")), `filename="resume_scores.csv"`)
	assert.Equal(t, data, dl.Body.Bytes())

	page := ut.PerformRequest(srv.h.Engine, "GET", constants.ViewResultsURL, nil)
	require.Equal(t, 200, page.Code)
	assert.Contains(t, page.Body.String(), "table table-dark table-bordered table-hover")
	assert.Contains(t, page.Body.String(), constants.DownloadURL)

	xlsx := ut.PerformRequest(srv.h.Engine, "GET", constants.DownloadXLSXURL, nil)
	require.Equal(t, 200, xlsx.Code)
	assert.True(t, bytes.HasPrefix(xlsx.Body.Bytes(), []byte("PK")))
}

func TestRankResumes_CriteriaFromQuery(t *testing.T) {
	srv := newTestServer(t, nil, router.Options{})

	docx := buildDocx(t, "Go and Kubernetes")
	body, ct := multipartBody(t, nil,
		part{field: "files", fileName: "a.docx", contentType: constants.MIMETypeDOCX, data: docx})

	w := srv.post("/rank-resumes?skills=go&skills=kubernetes", body, ct)
	require.Equal(t, 200, w.Code, w.Body.String())

	var resp handler.ScoreResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	require.Len(t, resp.Scores, 1)
	assert.Equal(t, 2, resp.Scores[0].SkillsScore)
	assert.Equal(t, "Unknown Candidate", resp.Scores[0].CandidateName)
}

func TestRankResumes_Validation(t *testing.T) {
	srv := newTestServer(t, nil, router.Options{})
	docx := buildDocx(t, "Go")

	body, ct := multipartBody(t, nil,
		part{field: "files", fileName: "a.docx", contentType: constants.MIMETypeDOCX, data: docx})
	w := srv.post("/rank-resumes", body, ct)
	assert.Equal(t, 400, w.Code)
	assert.Equal(t, constants.MsgNoCategoryProvided, decodeDetail(t, w))

	body, ct = multipartBody(t, map[string][]string{"skills": {"go"}})
	w = srv.post("/rank-resumes", body, ct)
	assert.Equal(t, 400, w.Code)
	assert.Equal(t, constants.MsgNoFilesUploaded, decodeDetail(t, w))

	body, ct = multipartBody(t, map[string][]string{"skills": {"go"}},
		part{field: "files", fileName: "ok.docx", contentType: constants.MIMETypeDOCX, data: docx},
		part{field: "files", fileName: "notes.txt", contentType: "text/plain", data: []byte("go")})
	w = srv.post("/rank-resumes", body, ct)
	assert.Equal(t, 400, w.Code)
	assert.Equal(t, "Unsupported file type: notes.txt", decodeDetail(t, w))

	_, err := os.Stat(srv.csvPath)
	assert.True(t, os.IsNotExist(err), "失败的批次不应写入结果文件")
}

func TestExtractCriteria(t *testing.T) {
	srv := newTestServer(t, nil, router.Options{})

	jd := buildDocx(t, "Requirements:", "- 5+ years of Go", "- Kubernetes experience")
	body, ct := multipartBody(t, nil,
		part{field: "file", fileName: "jd.docx", contentType: constants.MIMETypeDOCX + "; charset=binary", data: jd})
	w := srv.post("/extract-criteria", body, ct)
	require.Equal(t, 200, w.Code, w.Body.String())

	var resp struct {
		Criteria []string `json:"criteria"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.NotEmpty(t, resp.Criteria)
}

func TestExtractCriteria_PlainTextRejected(t *testing.T) {
	srv := newTestServer(t, nil, router.Options{})

	body, ct := multipartBody(t, nil,
		part{field: "file", fileName: "jd.txt", contentType: "text/plain", data: []byte("Go developer")})
	w := srv.post("/extract-criteria", body, ct)
	assert.Equal(t, 400, w.Code)
	assert.Equal(t, constants.MsgOnlyPDFAndDOCX, decodeDetail(t, w))

	_, err := os.Stat(srv.csvPath)
	assert.True(t, os.IsNotExist(err))

	body, ct = multipartBody(t, nil,
		part{field: "file", fileName: "empty.docx", contentType: constants.MIMETypeDOCX, data: buildDocx(t, "   ")})
	w = srv.post("/extract-criteria", body, ct)
	assert.Equal(t, 400, w.Code)
	assert.Equal(t, constants.MsgNoTextExtracted, decodeDetail(t, w))
}

func TestScoreResumes(t *testing.T) {
	t.Run("补全服务未配置", func(t *testing.T) {
		srv := newTestServer(t, nil, router.Options{})
		body, ct := multipartBody(t, map[string][]string{"criteria": {"Go"}})
		w := srv.post("/score-resumes", body, ct)
		assert.Equal(t, 503, w.Code)
	})

	t.Run("没有可用条件", func(t *testing.T) {
		srv := newTestServer(t, fixedModel{}, router.Options{})
		body, ct := multipartBody(t, map[string][]string{"criteria": {types.NoCriteriaFound, " "}},
			part{field: "files", fileName: "a.docx", contentType: constants.MIMETypeDOCX, data: buildDocx(t, "Go")})
		w := srv.post("/score-resumes", body, ct)
		assert.Equal(t, 400, w.Code)
		assert.Equal(t, constants.MsgNoCriteriaProvided, decodeDetail(t, w))
	})

	t.Run("追加写入并按文件名标记", func(t *testing.T) {
		srv := newTestServer(t, fixedModel{scores: types.NewCategoryScores(4, 3, 2, 1)}, router.Options{})
		for i := 0; i < 2; i++ {
			body, ct := multipartBody(t, map[string][]string{"criteria": {"Go"}, "job_description": {"Backend role"}},
				part{field: "files", fileName: fmt.Sprintf("cv%d.docx", i), contentType: constants.MIMETypeDOCX, data: buildDocx(t, "Go")})
			w := srv.post("/score-resumes", body, ct)
			require.Equal(t, 200, w.Code, w.Body.String())

			var resp handler.ScoreResponse
			require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
			assert.Equal(t, constants.MsgScoreCompleted, resp.Message)
			require.Len(t, resp.Scores, 1)
			assert.Equal(t, fmt.Sprintf("cv%d.docx", i), resp.Scores[0].FileName)
			assert.Equal(t, 10, resp.Scores[0].TotalScore)
		}

		data, err := os.ReadFile(srv.csvPath)
		require.NoError(t, err)
		lines := strings.Split(strings.TrimSpace(string(data)), "\n")
		assert.Len(t, lines, 3, "表头只写一次")
	})
}

func TestViewResults_MissingFile(t *testing.T) {
	srv := newTestServer(t, nil, router.Options{})
	w := ut.PerformRequest(srv.h.Engine, "GET", constants.ViewResultsURL, nil)
	assert.Equal(t, 500, w.Code)
	assert.NotEmpty(t, decodeDetail(t, w))
}

func TestHealthAndAuth(t *testing.T) {
	srv := newTestServer(t, nil, router.Options{APIKeys: []string{"secret"}})

	w := ut.PerformRequest(srv.h.Engine, "GET", "/health", nil)
	assert.Equal(t, 200, w.Code)
	assert.JSONEq(t, `{"status":"ok"}`, w.Body.String())

	body, ct := multipartBody(t, map[string][]string{"skills": {"go"}})
	w = srv.post("/rank-resumes", body, ct)
	assert.Equal(t, 401, w.Code)

	body, ct = multipartBody(t, map[string][]string{"skills": {"go"}})
	w = srv.post("/rank-resumes", body, ct, ut.Header{Key: "X-API-Key", Value: "secret"})
	assert.Equal(t, 400, w.Code, "通过鉴权后进入参数校验")
}

func TestMetricsEndpoint(t *testing.T) {
	srv := newTestServer(t, nil, router.Options{EnableMetrics: true})

	w := ut.PerformRequest(srv.h.Engine, "GET", "/metrics", nil)
	assert.Equal(t, 200, w.Code)
	assert.Contains(t, w.Body.String(), "go_goroutines")
}
