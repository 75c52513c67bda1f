package types

import (
	"errors"
	"fmt"
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewCategoryScores_ClampsAndSums(t *testing.T) {
	s := NewCategoryScores(7, -2, 3, 5)
	assert.Equal(t, 5, s.Skills)
	assert.Equal(t, 0, s.Experience)
	assert.Equal(t, 3, s.Certifications)
	assert.Equal(t, 5, s.Qualifications)
	assert.Equal(t, 13, s.Total)

	z := ZeroScores()
	assert.Equal(t, CategoryScores{}, z)
}

func TestUsableCriteria_DropsSentinelsAndBlanks(t *testing.T) {
	in := []string{" Go ", NoCriteriaFound, "", CriteriaExtractionFailed, "5+ years of experience"}
	assert.Equal(t, []string{"Go", "5+ years of experience"}, UsableCriteria(in))
	assert.Empty(t, UsableCriteria([]string{NoCriteriaFound}))
}

func TestJobCriteria_All(t *testing.T) {
	jc := JobCriteria{Categorized: CategorizedCriteria{Skills: []string{"go"}, Qualifications: []string{"bsc"}}}
	assert.Equal(t, []string{"go", "bsc"}, jc.All())

	jc.Flat = []string{"flat"}
	assert.Equal(t, []string{"flat"}, jc.All())
	assert.False(t, jc.Categorized.IsEmpty())
	assert.True(t, CategorizedCriteria{}.IsEmpty())
}

func TestResultSet_RowsFollowLabel(t *testing.T) {
	rs := ResultSet{
		Label: LabelCandidateName,
		Results: []CandidateResult{
			{FileName: "a.pdf", CandidateName: "Jane Doe", Scores: NewCategoryScores(1, 2, 0, 0)},
		},
	}
	assert.Equal(t, append(append([]string{}, ScoreColumns...), "Candidate Name"), rs.Header())
	assert.Equal(t, [][]string{{"1", "2", "0", "0", "3", "Jane Doe"}}, rs.Rows())

	rows := rs.ScoreRows()
	require.Len(t, rows, 1)
	assert.Equal(t, "Jane Doe", rows[0].CandidateName)
	assert.Empty(t, rows[0].FileName)

	rs.Label = LabelFileName
	assert.Equal(t, "a.pdf", rs.Rows()[0][5])
	assert.Equal(t, "a.pdf", rs.ScoreRows()[0].FileName)
}

func TestErrorTaxonomy(t *testing.T) {
	extErr := NewUnsupportedTypeError("cv.txt", "text/plain", "Only PDF and DOCX files are supported.")
	assert.True(t, errors.Is(extErr, ErrExtraction))
	assert.Equal(t, "Only PDF and DOCX files are supported.", ClientMessage(fmt.Errorf("wrap: %w", extErr)))

	storeErr := NewStorageError("read", "x.csv", os.ErrNotExist)
	assert.True(t, errors.Is(storeErr, ErrStorage))
	assert.True(t, errors.Is(storeErr, os.ErrNotExist))

	compErr := NewCompletionError("score", errors.New("boom"))
	assert.True(t, errors.Is(compErr, ErrCompletion))

	valErr := NewValidationError("No job criteria provided.")
	assert.True(t, errors.Is(valErr, ErrValidation))
	assert.Equal(t, "No job criteria provided.", ClientMessage(valErr))
}
