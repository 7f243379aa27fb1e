package utils

import (
	"testing"

	"github.com/gin-gonic/gin/binding"
	"github.com/stretchr/testify/assert"
)

func TestSlugify(t *testing.T) {
	tests := map[string]string{
		"Transcript of Records":       "transcript-of-records",
		"  Birth Certificate (PSA) ":  "birth-certificate-psa",
		"Employment---Certificate!!!": "employment-certificate",
		"NBI Clearance 2024":          "nbi-clearance-2024",
		"***":                         "",
	}
	for in, want := range tests {
		assert.Equal(t, want, Slugify(in), in)
	}
}

func TestParsePagination(t *testing.T) {
	assert.Equal(t, Pagination{Page: 1, PerPage: DefaultPerPage}, ParsePagination("", ""))
	assert.Equal(t, Pagination{Page: 3, PerPage: 20}, ParsePagination("3", "20"))
	assert.Equal(t, Pagination{Page: 1, PerPage: MaxPerPage}, ParsePagination("-1", "1000"))
	assert.Equal(t, 40, ParsePagination("3", "20").Offset())
}

func TestPasswordHash(t *testing.T) {
	hash, err := HashPassword("s3cret-pass")
	assert.NoError(t, err)
	assert.True(t, CheckPasswordHash("s3cret-pass", hash))
	assert.False(t, CheckPasswordHash("wrong", hash))
}

func TestFieldErrorsUsesJSONNames(t *testing.T) {
	InitValidator()

	type scoreReq struct {
		CriteriaID uint `json:"criteria_id" binding:"required"`
		Score      int  `json:"score" binding:"min=0"`
	}
	type req struct {
		Title  string     `json:"title" binding:"required"`
		Scores []scoreReq `json:"scores" binding:"dive"`
	}

	err := binding.Validator.ValidateStruct(&req{Scores: []scoreReq{{CriteriaID: 1, Score: -1}}})
	fields := FieldErrors(err)
	assert.Equal(t, "this field is required", fields["title"])
	assert.Contains(t, fields, "scores.0.score")
}

func TestFieldErrorsIgnoresOtherErrors(t *testing.T) {
	assert.Nil(t, FieldErrors(assert.AnError))
}
