// Package assistant runs the four model-backed flows: drafting, document
// analysis, audio transcription and follow-up chat.
package assistant

import (
	"context"
	"strings"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/tmc/langchaingo/llms"

	"github.com/lexi/internal/aiconnectors"
	"github.com/lexi/internal/apperr"
	"github.com/lexi/internal/llm"
	"github.com/lexi/internal/media"
	"github.com/lexi/internal/prompts"
	"github.com/lexi/internal/render"
	"github.com/lexi/pkg/models"
)

// Generator is the model call the assistant depends on; *aiconnectors.Connector satisfies it
type Generator interface {
	Generate(ctx context.Context, messages []llms.MessageContent, options ...llms.CallOption) (string, error)
}

var _ Generator = (*aiconnectors.Connector)(nil)

// Models names the model used by each flow
type Models struct {
	Draft         string
	Analysis      string
	Chat          string
	Transcription string
}

// DefaultModels mirrors the models each flow was tuned for
func DefaultModels() Models {
	return Models{
		Draft:         aiconnectors.DefaultProModel,
		Analysis:      aiconnectors.DefaultProModel,
		Chat:          aiconnectors.DefaultProModel,
		Transcription: aiconnectors.DefaultFlashModel,
	}
}

// Generation defaults
const (
	DefaultDraftTemperature = 0.1
	DefaultThinkingBudget   = 32768
)

// Options tunes the assistant
type Options struct {
	Models           Models
	DraftTemperature float64
	ThinkingBudget   int
	Limits           media.Limits
	// Now is used to date drafted documents
	Now func() time.Time
}

// Assistant builds prompts, calls the model and normalizes what comes back
type Assistant struct {
	gen     Generator
	prompts *prompts.PromptBuilder
	opts    Options
}

// New creates an Assistant
func New(gen Generator, opts Options) *Assistant {
	if opts.Models == (Models{}) {
		opts.Models = DefaultModels()
	}
	if opts.Limits.MaxBytes <= 0 {
		opts.Limits = media.NewLimits(0)
	}
	if opts.DraftTemperature <= 0 {
		opts.DraftTemperature = DefaultDraftTemperature
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	return &Assistant{gen: gen, prompts: prompts.NewPromptBuilder(), opts: opts}
}

// Limits returns the upload ceiling the assistant enforces
func (a *Assistant) Limits() media.Limits {
	return a.opts.Limits
}

// Draft generates a legal document of the template's type
func (a *Assistant) Draft(ctx context.Context, tmpl models.DocumentTemplate, values models.FormValues, details string) (models.GeneratedDocument, error) {
	const op = "draft"

	if missing := MissingFields(tmpl, values, details); len(missing) > 0 {
		return models.GeneratedDocument{}, apperr.Validation(op,
			"Please fill in all required fields: "+strings.Join(missing, ", ")+".", apperr.ErrMissingFields)
	}

	prompt, err := a.prompts.BuildDraftPrompt(tmpl, values, details)
	if err != nil {
		return models.GeneratedDocument{}, apperr.Validation(op, "Could not prepare the request.", err)
	}

	log.Info().
		Str("template_id", tmpl.ID).
		Str("category", string(tmpl.Name)).
		Str("model", a.opts.Models.Draft).
		Msg("Drafting document")

	text, err := a.gen.Generate(ctx,
		[]llms.MessageContent{llms.TextParts(llms.ChatMessageTypeHuman, prompt)},
		llms.WithModel(a.opts.Models.Draft),
		llms.WithTemperature(a.opts.DraftTemperature),
	)
	if err != nil {
		log.Error().Err(err).Str("template_id", tmpl.ID).Msg("Generation error")
		return models.GeneratedDocument{}, apperr.Service(op, "Failed to generate document due to network error.", err)
	}

	content := strings.TrimSpace(llm.StripLineBreakTags(text))
	if content == "" {
		return models.GeneratedDocument{}, apperr.Response(op, "The assistant returned an empty document. Please try again.", apperr.ErrEmptyOutput)
	}

	return models.GeneratedDocument{
		Title:    render.Title(content, string(tmpl.Name)),
		Category: tmpl.Name,
		Content:  content,
		Date:     a.opts.Now(),
	}, nil
}

// MissingFields lists the required fields (and the details field) that are
// blank after trimming. An empty result means the form can be submitted.
func MissingFields(tmpl models.DocumentTemplate, values models.FormValues, details string) []string {
	var missing []string
	for _, field := range tmpl.RequiredFields {
		if strings.TrimSpace(values[field]) == "" {
			missing = append(missing, field)
		}
	}
	if strings.TrimSpace(details) == "" {
		missing = append(missing, "Details")
	}
	return missing
}

// Analyze sends an uploaded document for risk analysis
func (a *Assistant) Analyze(ctx context.Context, file models.UploadedFile) (models.AnalysisResult, error) {
	const op = "analyze"

	if err := a.opts.Limits.CheckDocument(file); err != nil {
		return models.AnalysisResult{}, err
	}

	log.Info().
		Str("file", file.Name).
		Str("mime_type", file.MIMEType).
		Int64("bytes", file.Size()).
		Str("model", a.opts.Models.Analysis).
		Msg("Analyzing document")

	callOptions := []llms.CallOption{llms.WithModel(a.opts.Models.Analysis)}
	if a.opts.ThinkingBudget > 0 {
		callOptions = append(callOptions, llms.WithThinkingBudget(a.opts.ThinkingBudget))
	}

	text, err := a.gen.Generate(ctx, []llms.MessageContent{{
		Role: llms.ChatMessageTypeHuman,
		Parts: []llms.ContentPart{
			llms.BinaryPart(file.MIMEType, file.Data),
			llms.TextPart(a.prompts.BuildAnalysisPrompt()),
		},
	}}, callOptions...)
	if err != nil {
		log.Error().Err(err).Str("file", file.Name).Msg("Analysis error")
		if busy(err) {
			return models.AnalysisResult{}, apperr.Service(op, "Analysis failed. The document might be too complex or the server is busy. Please try again.", err)
		}
		return models.AnalysisResult{}, apperr.Service(op, "Could not analyze document. Please ensure the image is clear.", err)
	}

	result, err := llm.ParseAnalysis(text)
	if err != nil {
		log.Warn().Err(err).Str("file", file.Name).Msg("Analysis response rejected")
		return models.AnalysisResult{}, apperr.Response(op, "Could not analyze document. Please ensure the image is clear.", err)
	}

	log.Info().
		Str("file", file.Name).
		Str("risk_level", string(result.RiskLevel)).
		Int("risks", len(result.Risks)).
		Int("hidden_clauses", len(result.HiddenClauses)).
		Msg("Analysis complete")
	return result, nil
}

// busy reports whether an upstream failure looks like overload or a bad
// request rather than an unreadable document
func busy(err error) bool {
	if apperr.IsTransient(err) {
		return true
	}
	msg := strings.ToLower(err.Error())
	return strings.Contains(msg, "400") || strings.Contains(msg, "xhr")
}

// Transcribe turns recorded audio into text
func (a *Assistant) Transcribe(ctx context.Context, clip models.AudioClip) (string, error) {
	const op = "transcribe"

	if err := a.opts.Limits.CheckAudio(clip); err != nil {
		return "", err
	}
	mimeType := clip.MIMEType
	if mimeType == "" {
		mimeType = media.DefaultAudioMIME
	}

	text, err := a.gen.Generate(ctx, []llms.MessageContent{{
		Role: llms.ChatMessageTypeHuman,
		Parts: []llms.ContentPart{
			llms.BinaryPart(mimeType, clip.Data),
			llms.TextPart(a.prompts.BuildTranscriptionPrompt()),
		},
	}}, llms.WithModel(a.opts.Models.Transcription))
	if err != nil {
		log.Error().Err(err).Str("mime_type", mimeType).Msg("Transcription error")
		return "", apperr.Service(op, "Failed to transcribe. Network error or file too large.", err)
	}

	text = strings.TrimSpace(text)
	if text == "" {
		return "", apperr.Response(op, "No speech was recognized in the recording.", apperr.ErrEmptyOutput)
	}
	return text, nil
}

// Reply answers a chat message about an analyzed document. history holds the
// turns before message, oldest first.
func (a *Assistant) Reply(ctx context.Context, analysis models.AnalysisResult, history []models.ChatMessage, message string) (string, error) {
	const op = "chat"

	message = strings.TrimSpace(message)
	if message == "" {
		return "", apperr.Validation(op, "Please type a question.", apperr.ErrEmptyInput)
	}

	system, err := a.prompts.BuildChatSystemInstruction(analysis)
	if err != nil {
		return "", apperr.Validation(op, "Could not prepare the request.", err)
	}

	messages := make([]llms.MessageContent, 0, len(history)+2)
	messages = append(messages, llms.TextParts(llms.ChatMessageTypeSystem, system))
	messages = append(messages, ChatHistory(history)...)
	messages = append(messages, llms.TextParts(llms.ChatMessageTypeHuman, message))

	text, err := a.gen.Generate(ctx, messages, llms.WithModel(a.opts.Models.Chat))
	if err != nil {
		log.Error().Err(err).Int("history", len(history)).Msg("Chat error")
		return "", apperr.Service(op, "Failed to get response from Legal Assistant.", err)
	}

	text = strings.TrimSpace(text)
	if text == "" {
		return "", apperr.Response(op, "I couldn't process that request.", apperr.ErrEmptyOutput)
	}
	return text, nil
}

// ChatHistory converts transcript entries into model messages. Assistant turns
// before the first user turn (the greeting) are not sent.
func ChatHistory(history []models.ChatMessage) []llms.MessageContent {
	var out []llms.MessageContent
	for _, m := range history {
		switch m.Role {
		case models.RoleUser:
			out = append(out, llms.TextParts(llms.ChatMessageTypeHuman, m.Text))
		case models.RoleAssistant:
			if len(out) == 0 {
				continue
			}
			out = append(out, llms.TextParts(llms.ChatMessageTypeAI, m.Text))
		}
	}
	return out
}
