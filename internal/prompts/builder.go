package prompts

import (
	"fmt"
	"sort"
	"strings"

	"github.com/lexi/pkg/models"
)

// PromptBuilder provides methods for building the prompts sent to the model
type PromptBuilder struct{}

// NewPromptBuilder creates a new prompt builder instance
func NewPromptBuilder() *PromptBuilder {
	return &PromptBuilder{}
}

// BuildDraftPrompt renders the drafting prompt for one document type.
// Field lines follow the template's declared order; any extra keys follow,
// sorted by name, so identical input always yields an identical prompt.
func (pb *PromptBuilder) BuildDraftPrompt(tmpl models.DocumentTemplate, values models.FormValues, details string) (string, error) {
	return Render(DraftTemplate, Vars{
		"document_type": {string(tmpl.Name)},
		"fields":        FieldLines(tmpl.RequiredFields, values),
		"details":       {strings.TrimSpace(details)},
	})
}

// BuildAnalysisPrompt returns the instruction sent with an uploaded document
func (pb *PromptBuilder) BuildAnalysisPrompt() string {
	return AnalysisPrompt
}

// BuildTranscriptionPrompt returns the instruction sent with recorded audio
func (pb *PromptBuilder) BuildTranscriptionPrompt() string {
	return TranscriptionPrompt
}

// BuildChatSystemInstruction embeds an analysis result into the chat instruction
func (pb *PromptBuilder) BuildChatSystemInstruction(result models.AnalysisResult) (string, error) {
	return Render(ChatSystemTemplate, Vars{
		"summary":        {result.Summary},
		"risk_level":     {string(result.RiskLevel)},
		"risks":          result.Risks,
		"hidden_clauses": result.HiddenClauses,
		"translation":    {result.PlainEnglishTranslation},
	})
}

// FieldLines formats form values as "- Name: value" lines
func FieldLines(order []string, values models.FormValues) []string {
	lines := make([]string, 0, len(values))
	seen := make(map[string]bool, len(order))
	for _, name := range order {
		seen[name] = true
		if v, ok := values[name]; ok {
			lines = append(lines, fmt.Sprintf("- %s: %s", name, strings.TrimSpace(v)))
		}
	}

	var extra []string
	for name := range values {
		if !seen[name] {
			extra = append(extra, name)
		}
	}
	sort.Strings(extra)
	for _, name := range extra {
		lines = append(lines, fmt.Sprintf("- %s: %s", name, strings.TrimSpace(values[name])))
	}
	return lines
}
