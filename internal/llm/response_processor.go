package llm

import (
	"encoding/json"
	"errors"
	"fmt"
	"regexp"
	"strings"

	"github.com/rs/zerolog/log"

	"github.com/lexi/pkg/models"
)

// ParseFailure tags why a model response could not become a typed result
type ParseFailure string

const (
	FailureEmpty        ParseFailure = "empty_response"
	FailureNoJSON       ParseFailure = "no_json_object"
	FailureMalformed    ParseFailure = "malformed_json"
	FailureInvalidField ParseFailure = "invalid_field"
)

// ParseError is returned whenever a JSON-shaped response is rejected.
// No partially-filled result ever accompanies it.
type ParseError struct {
	Reason  ParseFailure
	Field   string
	Excerpt string
	Err     error
}

func (e *ParseError) Error() string {
	msg := string(e.Reason)
	if e.Field != "" {
		msg += " (" + e.Field + ")"
	}
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *ParseError) Unwrap() error { return e.Err }

// IsParseError reports whether err carries a *ParseError
func IsParseError(err error) bool {
	var pe *ParseError
	return errors.As(err, &pe)
}

var (
	codeFence = regexp.MustCompile("```(?:json|JSON)?\\n?")
	lineBreak = regexp.MustCompile(`(?i)<br\s*/?>`)
)

// StripCodeFences removes Markdown code fence markers, keeping their content
func StripCodeFences(text string) string {
	return codeFence.ReplaceAllString(text, "")
}

// ExtractJSONObject strips fencing and returns the substring between the first
// '{' and the last '}'. ok is false when no such pair exists.
func ExtractJSONObject(text string) (obj string, ok bool) {
	clean := StripCodeFences(text)
	first := strings.Index(clean, "{")
	last := strings.LastIndex(clean, "}")
	if first == -1 || last == -1 || last < first {
		return "", false
	}
	return strings.TrimSpace(clean[first : last+1]), true
}

// truncatedObject returns everything from the first '{' when the response was
// cut off before its closing brace, so the repair pass can complete it
func truncatedObject(text string) (string, bool) {
	clean := StripCodeFences(text)
	first := strings.Index(clean, "{")
	if first == -1 || strings.Contains(clean[first:], "}") {
		return "", false
	}
	return strings.TrimSpace(clean[first:]), true
}

type analysisWire struct {
	Summary                 *string  `json:"summary"`
	RiskLevel               *string  `json:"riskLevel"`
	Risks                   []string `json:"risks"`
	PlainEnglishTranslation *string  `json:"plainEnglishTranslation"`
	HiddenClauses           []string `json:"hiddenClauses"`
}

// ParseAnalysis turns a raw analysis response into a validated AnalysisResult
func ParseAnalysis(raw string) (models.AnalysisResult, error) {
	if strings.TrimSpace(raw) == "" {
		return models.AnalysisResult{}, &ParseError{Reason: FailureEmpty}
	}

	obj, ok := ExtractJSONObject(raw)
	if !ok {
		obj, ok = truncatedObject(raw)
	}
	if !ok {
		log.Debug().Str("excerpt", truncateForLog(raw, 200)).Msg("No JSON object found in analysis response")
		return models.AnalysisResult{}, &ParseError{Reason: FailureNoJSON, Excerpt: truncateForLog(raw, 200)}
	}

	var wire analysisWire
	if err := json.Unmarshal([]byte(obj), &wire); err != nil {
		repaired, stats, repairErr := RepairJSON(obj)
		if repairErr != nil {
			return models.AnalysisResult{}, &ParseError{Reason: FailureMalformed, Excerpt: truncateForLog(obj, 200), Err: err}
		}
		log.Debug().
			Strs("strategies", stats.RepairStrategies).
			Int("original_bytes", stats.OriginalBytes).
			Int("repaired_bytes", stats.RepairedBytes).
			Msg("Analysis JSON repaired")

		wire = analysisWire{}
		if err := json.Unmarshal([]byte(repaired), &wire); err != nil {
			return models.AnalysisResult{}, &ParseError{Reason: FailureMalformed, Excerpt: truncateForLog(obj, 200), Err: err}
		}
	}

	return validateAnalysis(wire)
}

func validateAnalysis(w analysisWire) (models.AnalysisResult, error) {
	if w.Summary == nil || strings.TrimSpace(*w.Summary) == "" {
		return models.AnalysisResult{}, &ParseError{Reason: FailureInvalidField, Field: "summary", Err: errors.New("missing or empty")}
	}
	if w.RiskLevel == nil {
		return models.AnalysisResult{}, &ParseError{Reason: FailureInvalidField, Field: "riskLevel", Err: errors.New("missing")}
	}
	level, ok := models.ParseRiskLevel(*w.RiskLevel)
	if !ok {
		return models.AnalysisResult{}, &ParseError{Reason: FailureInvalidField, Field: "riskLevel", Err: fmt.Errorf("unknown level %q", *w.RiskLevel)}
	}

	result := models.AnalysisResult{
		Summary:       strings.TrimSpace(*w.Summary),
		RiskLevel:     level,
		Risks:         compact(w.Risks),
		HiddenClauses: compact(w.HiddenClauses),
	}
	if w.PlainEnglishTranslation != nil {
		result.PlainEnglishTranslation = strings.TrimSpace(*w.PlainEnglishTranslation)
	}
	return result, nil
}

// compact trims entries and drops blanks, always returning a non-nil slice
func compact(items []string) []string {
	out := make([]string, 0, len(items))
	for _, item := range items {
		if s := strings.TrimSpace(item); s != "" {
			out = append(out, s)
		}
	}
	return out
}

// StripLineBreakTags removes stray <br> markers from drafted Markdown
func StripLineBreakTags(text string) string {
	return lineBreak.ReplaceAllString(text, "")
}

// truncateForLog truncates text for logging purposes
func truncateForLog(text string, maxLen int) string {
	if len(text) <= maxLen {
		return text
	}
	return text[:maxLen] + "..."
}
