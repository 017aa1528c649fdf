package llm

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lexi/pkg/models"
)

func TestParseAnalysis_FencedWithProse(t *testing.T) {
	raw := "Here is the analysis you asked for:\n```json\n" +
		`{"summary":"S","riskLevel":"medium","risks":["a"],"plainEnglishTranslation":"p","hiddenClauses":[]}` +
		"\n```\nLet me know if you need more."

	result, err := ParseAnalysis(raw)
	require.NoError(t, err)

	assert.Equal(t, models.AnalysisResult{
		Summary:                 "S",
		RiskLevel:               models.RiskMedium,
		Risks:                   []string{"a"},
		PlainEnglishTranslation: "p",
		HiddenClauses:           []string{},
	}, result)
}

func TestParseAnalysis_NoObject(t *testing.T) {
	_, err := ParseAnalysis("I cannot read this image, sorry.")
	require.Error(t, err)

	var pe *ParseError
	require.True(t, errors.As(err, &pe))
	assert.Equal(t, FailureNoJSON, pe.Reason)
}

func TestParseAnalysis_TruncatedObjectIsCompleted(t *testing.T) {
	result, err := ParseAnalysis("```json\n{\"summary\":\"S\",\"riskLevel\":\"high\",\"risks\":[\"a\",\"b\"")
	require.NoError(t, err)
	assert.Equal(t, "S", result.Summary)
	assert.Equal(t, models.RiskHigh, result.RiskLevel)
	assert.Equal(t, []string{"a", "b"}, result.Risks)
	assert.Equal(t, []string{}, result.HiddenClauses)
}

func TestParseAnalysis_Empty(t *testing.T) {
	_, err := ParseAnalysis("   \n")
	var pe *ParseError
	require.True(t, errors.As(err, &pe))
	assert.Equal(t, FailureEmpty, pe.Reason)
}

func TestParseAnalysis_NullArraysBecomeEmpty(t *testing.T) {
	result, err := ParseAnalysis(`{"summary":"S","riskLevel":"LOW","risks":null,"plainEnglishTranslation":"p"}`)
	require.NoError(t, err)

	assert.NotNil(t, result.Risks)
	assert.Empty(t, result.Risks)
	assert.NotNil(t, result.HiddenClauses)
	assert.Empty(t, result.HiddenClauses)
}

func TestParseAnalysis_InvalidFields(t *testing.T) {
	tests := []struct {
		name  string
		raw   string
		field string
	}{
		{"unknown risk level", `{"summary":"S","riskLevel":"SEVERE","risks":[]}`, "riskLevel"},
		{"missing risk level", `{"summary":"S","risks":[]}`, "riskLevel"},
		{"blank summary", `{"summary":"  ","riskLevel":"LOW"}`, "summary"},
		{"missing summary", `{"riskLevel":"LOW"}`, "summary"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result, err := ParseAnalysis(tt.raw)
			require.Error(t, err)
			assert.Equal(t, models.AnalysisResult{}, result)

			var pe *ParseError
			require.True(t, errors.As(err, &pe))
			assert.Equal(t, FailureInvalidField, pe.Reason)
			assert.Equal(t, tt.field, pe.Field)
		})
	}
}

func TestParseAnalysis_RepairsTrailingComma(t *testing.T) {
	result, err := ParseAnalysis(`{"summary":"S","riskLevel":"HIGH","risks":["late fee",],}`)
	require.NoError(t, err)
	assert.Equal(t, models.RiskHigh, result.RiskLevel)
	assert.Equal(t, []string{"late fee"}, result.Risks)
}

func TestParseAnalysis_WrongTypeIsMalformed(t *testing.T) {
	_, err := ParseAnalysis(`{"summary":"S","riskLevel":"LOW","risks":"just one"}`)
	var pe *ParseError
	require.True(t, errors.As(err, &pe))
	assert.Equal(t, FailureMalformed, pe.Reason)
	assert.True(t, IsParseError(err))
}

func TestExtractJSONObject(t *testing.T) {
	obj, ok := ExtractJSONObject("noise {\"a\": {\"b\": 1}} trailing")
	require.True(t, ok)
	assert.Equal(t, `{"a": {"b": 1}}`, obj)

	_, ok = ExtractJSONObject("} backwards {")
	assert.False(t, ok)
}

func TestStripLineBreakTags(t *testing.T) {
	in := "Line one<br>Line two<BR/>Line three<br />end"
	assert.Equal(t, "Line oneLine twoLine threeend", StripLineBreakTags(in))
}
