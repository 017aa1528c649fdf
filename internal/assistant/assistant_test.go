package assistant

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tmc/langchaingo/llms"

	"github.com/lexi/internal/apperr"
	"github.com/lexi/internal/catalog"
	"github.com/lexi/internal/llm"
	"github.com/lexi/internal/media"
	"github.com/lexi/internal/prompts"
	"github.com/lexi/pkg/models"
)

// fakeGenerator records every call and replies from a script
type fakeGenerator struct {
	reply    string
	err      error
	calls    int
	messages []llms.MessageContent
	options  llms.CallOptions
}

func (f *fakeGenerator) Generate(ctx context.Context, messages []llms.MessageContent, options ...llms.CallOption) (string, error) {
	f.calls++
	f.messages = messages
	f.options = llms.CallOptions{}
	for _, opt := range options {
		opt(&f.options)
	}
	return f.reply, f.err
}

var fixedNow = time.Date(2026, 5, 1, 12, 0, 0, 0, time.UTC)

func newAssistant(gen Generator) *Assistant {
	return New(gen, Options{ThinkingBudget: DefaultThinkingBudget, Now: func() time.Time { return fixedNow }})
}

func nda(t *testing.T) models.DocumentTemplate {
	tmpl, ok := catalog.Lookup("5")
	require.True(t, ok)
	return tmpl
}

func TestDraft_NDAEndToEnd(t *testing.T) {
	gen := &fakeGenerator{reply: "# NON-DISCLOSURE AGREEMENT\n\nTHIS AGREEMENT<br/> is made...\n"}
	a := newAssistant(gen)

	doc, err := a.Draft(context.Background(), nda(t), models.FormValues{
		"Disclosing Party": "Acme",
		"Receiving Party":  "Bob",
	}, "5 year term")
	require.NoError(t, err)

	assert.Equal(t, "NON-DISCLOSURE AGREEMENT", doc.Title)
	assert.Equal(t, models.CategoryNDA, doc.Category)
	assert.Equal(t, fixedNow, doc.Date)
	assert.NotContains(t, doc.Content, "<br")

	require.Equal(t, 1, gen.calls)
	assert.Equal(t, DefaultModels().Draft, gen.options.Model)
	assert.InDelta(t, 0.1, gen.options.Temperature, 1e-9)

	prompt := gen.messages[0].Parts[0].(llms.TextContent).Text
	assert.Contains(t, prompt, "- Disclosing Party: Acme")
	assert.Contains(t, prompt, "5 year term")
}

func TestDraft_MissingFieldsNeverCallsModel(t *testing.T) {
	gen := &fakeGenerator{reply: "unused"}
	a := newAssistant(gen)

	_, err := a.Draft(context.Background(), nda(t), models.FormValues{
		"Disclosing Party": "Acme",
		"Receiving Party":  "   ",
	}, "details")
	require.Error(t, err)
	assert.True(t, errors.Is(err, apperr.ErrMissingFields))
	assert.Equal(t, apperr.KindValidation, apperr.KindOf(err))
	assert.Contains(t, apperr.UserMessage(err), "Receiving Party")
	assert.Zero(t, gen.calls)

	_, err = a.Draft(context.Background(), nda(t), models.FormValues{
		"Disclosing Party": "Acme",
		"Receiving Party":  "Bob",
	}, "")
	assert.True(t, errors.Is(err, apperr.ErrMissingFields))
	assert.Zero(t, gen.calls)
}

func TestDraft_ServiceAndEmptyOutput(t *testing.T) {
	a := newAssistant(&fakeGenerator{err: errors.New("dial tcp: connection refused")})
	values := models.FormValues{"Disclosing Party": "Acme", "Receiving Party": "Bob"}

	_, err := a.Draft(context.Background(), nda(t), values, "d")
	assert.Equal(t, apperr.KindService, apperr.KindOf(err))
	assert.Equal(t, "Failed to generate document due to network error.", apperr.UserMessage(err))

	a = newAssistant(&fakeGenerator{reply: " <br> \n"})
	_, err = a.Draft(context.Background(), nda(t), values, "d")
	assert.Equal(t, apperr.KindResponse, apperr.KindOf(err))
	assert.True(t, errors.Is(err, apperr.ErrEmptyOutput))
}

func TestDraft_TitleFallsBackToCategory(t *testing.T) {
	a := newAssistant(&fakeGenerator{reply: "THIS AGREEMENT is made..."})
	doc, err := a.Draft(context.Background(), nda(t), models.FormValues{"Disclosing Party": "A", "Receiving Party": "B"}, "d")
	require.NoError(t, err)
	assert.Equal(t, string(models.CategoryNDA), doc.Title)
}

func pdfFile(size int) models.UploadedFile {
	data := make([]byte, size)
	copy(data, "%PDF-1.7")
	return models.UploadedFile{Name: "lease.pdf", MIMEType: "application/pdf", Data: data}
}

func TestAnalyze(t *testing.T) {
	gen := &fakeGenerator{reply: "```json\n{\"summary\":\"S\",\"riskLevel\":\"medium\",\"risks\":[\"a\"],\"plainEnglishTranslation\":\"p\",\"hiddenClauses\":[]}\n```"}
	a := newAssistant(gen)

	result, err := a.Analyze(context.Background(), pdfFile(1024))
	require.NoError(t, err)
	assert.Equal(t, models.RiskMedium, result.RiskLevel)
	assert.Equal(t, []string{"a"}, result.Risks)
	assert.Equal(t, []string{}, result.HiddenClauses)

	require.Len(t, gen.messages, 1)
	parts := gen.messages[0].Parts
	require.Len(t, parts, 2)
	binary, ok := parts[0].(llms.BinaryContent)
	require.True(t, ok)
	assert.Equal(t, "application/pdf", binary.MIMEType)
	assert.Equal(t, prompts.AnalysisPrompt, parts[1].(llms.TextContent).Text)

	thinking := llms.GetThinkingConfig(&gen.options)
	require.NotNil(t, thinking)
	assert.Equal(t, DefaultThinkingBudget, thinking.BudgetTokens)
	assert.False(t, gen.options.JSONMode)
}

func TestAnalyze_OversizedNeverCallsModel(t *testing.T) {
	gen := &fakeGenerator{}
	a := newAssistant(gen)

	_, err := a.Analyze(context.Background(), pdfFile(int(media.DefaultMaxBytes)+1))
	require.Error(t, err)
	assert.True(t, errors.Is(err, apperr.ErrFileTooLarge))
	assert.Zero(t, gen.calls)
}

func TestAnalyze_Errors(t *testing.T) {
	tests := []struct {
		name    string
		gen     *fakeGenerator
		kind    apperr.Kind
		message string
	}{
		{"busy upstream", &fakeGenerator{err: errors.New("googleapi: Error 500: internal")}, apperr.KindService,
			"Analysis failed. The document might be too complex or the server is busy. Please try again."},
		{"other upstream", &fakeGenerator{err: errors.New("unsupported image")}, apperr.KindService,
			"Could not analyze document. Please ensure the image is clear."},
		{"no json", &fakeGenerator{reply: "I can't read this."}, apperr.KindResponse,
			"Could not analyze document. Please ensure the image is clear."},
		{"bad level", &fakeGenerator{reply: `{"summary":"S","riskLevel":"EXTREME"}`}, apperr.KindResponse,
			"Could not analyze document. Please ensure the image is clear."},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result, err := newAssistant(tt.gen).Analyze(context.Background(), pdfFile(64))
			require.Error(t, err)
			assert.Equal(t, models.AnalysisResult{}, result)
			assert.Equal(t, tt.kind, apperr.KindOf(err))
			assert.Equal(t, tt.message, apperr.UserMessage(err))
		})
	}

	_, err := newAssistant(&fakeGenerator{reply: "nope"}).Analyze(context.Background(), pdfFile(64))
	assert.True(t, llm.IsParseError(err))
}

func TestTranscribe(t *testing.T) {
	gen := &fakeGenerator{reply: "  Acme Corporation \n"}
	a := newAssistant(gen)

	text, err := a.Transcribe(context.Background(), models.AudioClip{Data: []byte("opus")})
	require.NoError(t, err)
	assert.Equal(t, "Acme Corporation", text)
	assert.Equal(t, DefaultModels().Transcription, gen.options.Model)
	assert.Equal(t, "audio/webm", gen.messages[0].Parts[0].(llms.BinaryContent).MIMEType)

	_, err = newAssistant(&fakeGenerator{reply: ""}).Transcribe(context.Background(), models.AudioClip{Data: []byte("x")})
	assert.Equal(t, apperr.KindResponse, apperr.KindOf(err))

	_, err = newAssistant(&fakeGenerator{err: errors.New("boom")}).Transcribe(context.Background(), models.AudioClip{Data: []byte("x")})
	assert.Equal(t, "Failed to transcribe. Network error or file too large.", apperr.UserMessage(err))
}

func TestTranscribe_OversizedNeverCallsModel(t *testing.T) {
	gen := &fakeGenerator{reply: "unused"}
	a := newAssistant(gen)

	clip := models.AudioClip{MIMEType: "audio/webm", Data: make([]byte, media.DefaultMaxBytes+1)}
	_, err := a.Transcribe(context.Background(), clip)
	require.Error(t, err)
	assert.True(t, errors.Is(err, apperr.ErrFileTooLarge))
	assert.Equal(t, apperr.KindValidation, apperr.KindOf(err))
	assert.Contains(t, apperr.UserMessage(err), "too long")
	assert.Zero(t, gen.calls)
}

func TestReply(t *testing.T) {
	gen := &fakeGenerator{reply: "**Yes**, it renews."}
	a := newAssistant(gen)

	analysis := models.AnalysisResult{Summary: "S", RiskLevel: models.RiskHigh, Risks: []string{"r1", "r2"}, PlainEnglishTranslation: "p"}
	history := []models.ChatMessage{
		{Role: models.RoleAssistant, Text: prompts.ChatGreeting},
		{Role: models.RoleUser, Text: "Is there a renewal?"},
		{Role: models.RoleAssistant, Text: "Yes."},
	}

	reply, err := a.Reply(context.Background(), analysis, history, "Does it renew automatically?")
	require.NoError(t, err)
	assert.Equal(t, "**Yes**, it renews.", reply)

	require.Len(t, gen.messages, 4)
	assert.Equal(t, llms.ChatMessageTypeSystem, gen.messages[0].Role)
	assert.Contains(t, gen.messages[0].Parts[0].(llms.TextContent).Text, "IDENTIFIED RISKS: r1; r2")
	assert.Equal(t, llms.ChatMessageTypeHuman, gen.messages[1].Role)
	assert.Equal(t, llms.ChatMessageTypeAI, gen.messages[2].Role)
	assert.Equal(t, llms.ChatMessageTypeHuman, gen.messages[3].Role)
	assert.Equal(t, "Does it renew automatically?", gen.messages[3].Parts[0].(llms.TextContent).Text)
}

func TestReply_Errors(t *testing.T) {
	_, err := newAssistant(&fakeGenerator{}).Reply(context.Background(), models.AnalysisResult{}, nil, "  ")
	assert.Equal(t, apperr.KindValidation, apperr.KindOf(err))

	_, err = newAssistant(&fakeGenerator{err: errors.New("boom")}).Reply(context.Background(), models.AnalysisResult{Summary: "S"}, nil, "hi")
	assert.Equal(t, "Failed to get response from Legal Assistant.", apperr.UserMessage(err))
}

func TestMissingFields(t *testing.T) {
	tmpl := models.DocumentTemplate{RequiredFields: []string{"A", "B"}}
	assert.Equal(t, []string{"B", "Details"}, MissingFields(tmpl, models.FormValues{"A": "x"}, " "))
	assert.Empty(t, MissingFields(tmpl, models.FormValues{"A": "x", "B": "y"}, "d"))
}
