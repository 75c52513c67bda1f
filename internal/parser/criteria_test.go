package parser

import (
	"context"
	"errors"
	"sync"
	"testing"

	"resume-ranker/internal/types"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubCompleter struct {
	mu      sync.Mutex
	out     string
	err     error
	prompts []string
}

func (s *stubCompleter) Complete(ctx context.Context, prompt string) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.prompts = append(s.prompts, prompt)
	return s.out, s.err
}

func TestKeywordCriteriaExtractor(t *testing.T) {
	jd := "Senior Backend Engineer\n  5+ years of Experience with Go  \nAWS Certification preferred\nGreat team\nStrong SKILLS in SQL\nBachelor's qualification"

	got, err := NewKeywordCriteriaExtractor().Extract(context.Background(), jd)
	require.NoError(t, err)
	assert.Equal(t, []string{
		"5+ years of Experience with Go",
		"AWS Certification preferred",
		"Strong SKILLS in SQL",
		"Bachelor's qualification",
	}, got)
}

func TestKeywordCriteriaExtractor_NoMatchSentinel(t *testing.T) {
	got, err := NewKeywordCriteriaExtractor().Extract(context.Background(), "We are hiring.\nJoin us!")
	require.NoError(t, err)
	assert.Equal(t, []string{"No specific criteria found."}, got)

	got, err = NewKeywordCriteriaExtractor().Extract(context.Background(), "")
	require.NoError(t, err)
	assert.Equal(t, []string{types.NoCriteriaFound}, got)
}

func TestLLMCriteriaExtractor(t *testing.T) {
	stub := &stubCompleter{out: "```json\n{\"criteria\": [\"5+ years of Go\", \" \", \"Kubernetes\"]}\n```"}
	got, err := NewLLMCriteriaExtractor(stub).Extract(context.Background(), "JD TEXT")
	require.NoError(t, err)
	assert.Equal(t, []string{"5+ years of Go", "Kubernetes"}, got)
	require.Len(t, stub.prompts, 1)
	assert.Contains(t, stub.prompts[0], "JD TEXT")
	assert.Contains(t, stub.prompts[0], `"criteria"`)
}

func TestLLMCriteriaExtractor_FallsBackToLines(t *testing.T) {
	stub := &stubCompleter{out: "- 5+ years of Go\n- Kubernetes\n\n"}
	got, err := NewLLMCriteriaExtractor(stub).Extract(context.Background(), "jd")
	require.NoError(t, err)
	assert.Equal(t, []string{"5+ years of Go", "Kubernetes"}, got)
}

func TestLLMCriteriaExtractor_FailureSentinel(t *testing.T) {
	got, err := NewLLMCriteriaExtractor(&stubCompleter{err: errors.New("timeout")}).Extract(context.Background(), "jd")
	require.NoError(t, err)
	assert.Equal(t, []string{"Failed to extract criteria"}, got)

	got, err = NewLLMCriteriaExtractor(&stubCompleter{out: `{"criteria": []}`}).Extract(context.Background(), "jd")
	require.NoError(t, err)
	assert.Equal(t, []string{types.CriteriaExtractionFailed}, got)
}

type memoryCache struct {
	data   map[string][]string
	getErr error
	sets   int
}

func (m *memoryCache) GetCriteria(ctx context.Context, key string) ([]string, bool, error) {
	if m.getErr != nil {
		return nil, false, m.getErr
	}
	v, ok := m.data[key]
	return v, ok, nil
}

func (m *memoryCache) SetCriteria(ctx context.Context, key string, criteria []string) error {
	m.sets++
	m.data[key] = criteria
	return nil
}

func TestCachingCriteriaExtractor(t *testing.T) {
	stub := &stubCompleter{out: `{"criteria": ["Go"]}`}
	cache := &memoryCache{data: map[string][]string{}}
	extractor := NewCachingCriteriaExtractor(NewLLMCriteriaExtractor(stub), cache)

	for i := 0; i < 3; i++ {
		got, err := extractor.Extract(context.Background(), "  same jd  ")
		require.NoError(t, err)
		assert.Equal(t, []string{"Go"}, got)
	}
	assert.Len(t, stub.prompts, 1, "命中缓存后不应再调用模型")
	assert.Equal(t, 1, cache.sets)
}

func TestCachingCriteriaExtractor_SkipsSentinelsAndCacheErrors(t *testing.T) {
	cache := &memoryCache{data: map[string][]string{}}
	extractor := NewCachingCriteriaExtractor(NewKeywordCriteriaExtractor(), cache)

	got, err := extractor.Extract(context.Background(), "nothing relevant")
	require.NoError(t, err)
	assert.Equal(t, []string{types.NoCriteriaFound}, got)
	assert.Equal(t, 0, cache.sets, "哨兵值不应写入缓存")

	cache.getErr = errors.New("redis down")
	got, err = extractor.Extract(context.Background(), "Go experience")
	require.NoError(t, err)
	assert.Equal(t, []string{"Go experience"}, got)
}

func TestLLMResumeDetailsExtractor(t *testing.T) {
	stub := &stubCompleter{out: `{"skills": ["Go", "SQL"], "experience": 6, "certifications": "CKA, AWS SAA", "qualifications": ["BSc"]}`}
	details := NewLLMResumeDetailsExtractor(stub).ExtractDetails(context.Background(), "resume")

	assert.Equal(t, []string{"Go", "SQL"}, details.Skills)
	assert.Equal(t, "6", details.Experience)
	assert.Equal(t, []string{"CKA", "AWS SAA"}, details.Certifications)
	assert.Equal(t, []string{"BSc"}, details.Qualifications)
}

func TestLLMResumeDetailsExtractor_Degrades(t *testing.T) {
	for _, stub := range []*stubCompleter{
		{err: errors.New("boom")},
		{out: "not json"},
		{out: ""},
	} {
		details := NewLLMResumeDetailsExtractor(stub).ExtractDetails(context.Background(), "resume")
		assert.Equal(t, types.EmptyResumeDetails(), details)
	}

	partial := NewLLMResumeDetailsExtractor(&stubCompleter{out: `{"skills": ["Go"]}`}).ExtractDetails(context.Background(), "resume")
	assert.Equal(t, []string{"Go"}, partial.Skills)
	assert.Equal(t, "0", partial.Experience)
	assert.Equal(t, []string{}, partial.Certifications)
}

func TestExtractCandidateName(t *testing.T) {
	cases := map[string]string{
		"Name: Jane Doe\nPython, 5 years experience":       "Jane Doe",
		"NAME:   John Ronald Tolkien\nWriter":              "John Ronald Tolkien",
		"Full name\nAda Lovelace":                          "Ada Lovelace",
		"name: lowercase person":                           "lowercase person",
		"NAME: JANE DOE\nPython, 5 years experience":       "JANE DOE",
		"JANE DOE\nName: JANE DOE\nCompany name Acme Corp": "JANE DOE",
		"Name:\t\n":                                        UnknownCandidate,
		"Python developer":                                 UnknownCandidate,
	}
	for text, want := range cases {
		assert.Equal(t, want, ExtractCandidateName(text), text)
	}
}
