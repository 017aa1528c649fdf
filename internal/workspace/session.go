package workspace

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"sync"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/lexi/internal/assistant"
	"github.com/lexi/internal/catalog"
	"github.com/lexi/pkg/models"
)

// Session is one client's workspace. Its mutex is held only while flow state
// changes; model calls run unlocked, bracketed by Begin/Complete transitions,
// so a second submission on the same flow fails with ErrRequestInFlight
// instead of queueing.
type Session struct {
	ID        string
	ClientKey string
	CreatedAt time.Time

	mu        sync.Mutex
	touched   time.Time
	router    *Router
	generator *GeneratorForm
	analyzer  *Analyzer
	recorder  Recorder
	assistant *assistant.Assistant
}

// SessionView is the serializable state of a whole session
type SessionView struct {
	ID        string         `json:"id"`
	View      View           `json:"view"`
	Theme     models.Theme   `json:"theme"`
	Selected  string         `json:"selectedTemplateId,omitempty"`
	Generator *GeneratorView `json:"generator,omitempty"`
	Analyzer  AnalyzerView   `json:"analyzer"`
	Chat      *ChatView      `json:"chat,omitempty"`
	Recorder  RecorderState  `json:"recorder"`
}

func (s *Session) touch() { s.touched = time.Now() }

// LastActive returns when the session was last used
func (s *Session) LastActive() time.Time {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.touched
}

// Snapshot returns the current state of every flow
func (s *Session) Snapshot() SessionView {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.snapshot()
}

func (s *Session) snapshot() SessionView {
	v := SessionView{
		ID:       s.ID,
		View:     s.router.View(),
		Theme:    s.router.Theme(),
		Analyzer: s.analyzer.View(),
		Recorder: s.recorder.State(),
	}
	if t, ok := s.router.Selected(); ok {
		v.Selected = t.ID
	}
	if s.generator != nil {
		g := s.generator.View()
		v.Generator = &g
	}
	if c, err := s.analyzer.Chat(); err == nil {
		cv := c.View()
		v.Chat = &cv
	}
	return v
}

// Navigate switches view. templateRef (id or category name) selects a
// template for the generator; choosing a different template starts a new form.
func (s *Session) Navigate(view View, templateRef string) (SessionView, error) {
	var tmpl *models.DocumentTemplate
	if templateRef != "" {
		t, ok := catalog.Resolve(templateRef)
		if !ok {
			return SessionView{}, fmt.Errorf("%w: unknown template %q", ErrNoTemplate, templateRef)
		}
		tmpl = &t
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.touch()

	// a draft being submitted keeps its template until the call completes
	if view == ViewGenerator && tmpl != nil && s.generator != nil &&
		s.generator.State() == FormSubmitting && s.generator.Template().ID != tmpl.ID {
		return SessionView{}, ErrRequestInFlight
	}

	if err := s.router.Navigate(view, tmpl); err != nil {
		return SessionView{}, err
	}
	if view == ViewGenerator {
		selected, _ := s.router.Selected()
		if s.generator == nil || s.generator.Template().ID != selected.ID {
			s.generator = NewGeneratorForm(selected)
		}
	}
	return s.snapshot(), nil
}

// ToggleTheme flips and persists the theme
func (s *Session) ToggleTheme(ctx context.Context) (models.Theme, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.touch()
	return s.router.ToggleTheme(ctx)
}

func (s *Session) withGenerator(fn func(g *GeneratorForm) error) (GeneratorView, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.touch()
	if s.generator == nil {
		return GeneratorView{}, ErrNoTemplate
	}
	if err := fn(s.generator); err != nil {
		return GeneratorView{}, err
	}
	return s.generator.View(), nil
}

// Generator returns the form state
func (s *Session) Generator() (GeneratorView, error) {
	return s.withGenerator(func(*GeneratorForm) error { return nil })
}

// SetField updates a generator field
func (s *Session) SetField(name, value string) (GeneratorView, error) {
	return s.withGenerator(func(g *GeneratorForm) error { return g.SetField(name, value) })
}

// SetDetails updates the generator's free-text instructions
func (s *Session) SetDetails(details string) (GeneratorView, error) {
	return s.withGenerator(func(g *GeneratorForm) error { return g.SetDetails(details) })
}

// EditDraft returns from the drafted document to the form
func (s *Session) EditDraft() (GeneratorView, error) {
	return s.withGenerator(func(g *GeneratorForm) error { return g.Edit() })
}

// SubmitDraft drafts the document for the current form
func (s *Session) SubmitDraft(ctx context.Context) (models.GeneratedDocument, error) {
	s.mu.Lock()
	s.touch()
	form := s.generator
	if form == nil {
		s.mu.Unlock()
		return models.GeneratedDocument{}, ErrNoTemplate
	}
	req, err := form.BeginSubmit()
	s.mu.Unlock()
	if err != nil {
		return models.GeneratedDocument{}, err
	}

	doc, err := s.assistant.Draft(ctx, req.Template, req.Values, req.Details)

	s.mu.Lock()
	defer s.mu.Unlock()
	form.Complete(doc, err)
	if err != nil {
		return models.GeneratedDocument{}, err
	}
	return doc, nil
}

// Document returns the drafted document, if any
func (s *Session) Document() (models.GeneratedDocument, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.generator == nil {
		return models.GeneratedDocument{}, false
	}
	return s.generator.Document()
}

// Dictate records from device, transcribes the clip and appends the text to
// field. The device is released before the transcription call.
func (s *Session) Dictate(ctx context.Context, field string, device Device) (string, error) {
	s.mu.Lock()
	s.touch()
	if s.generator == nil {
		s.mu.Unlock()
		return "", ErrNoTemplate
	}
	if err := s.generator.editable(); err != nil {
		s.mu.Unlock()
		return "", err
	}
	if !slices.Contains(s.generator.Template().RequiredFields, field) {
		s.mu.Unlock()
		return "", fmt.Errorf("%w: %q", ErrUnknownField, field)
	}
	if err := s.recorder.Start(ctx, device, field); err != nil {
		s.mu.Unlock()
		return "", err
	}
	clip, field, err := s.recorder.Stop()
	form := s.generator
	s.mu.Unlock()
	if err != nil {
		return "", err
	}

	text, err := s.assistant.Transcribe(ctx, clip)
	if err != nil {
		return "", err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if err := form.AppendToField(field, text); err != nil {
		return "", err
	}
	return text, nil
}

// SelectFile validates and selects a document for analysis
func (s *Session) SelectFile(file models.UploadedFile) (AnalyzerView, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.touch()
	if err := s.analyzer.Select(file, s.assistant.Limits()); err != nil {
		return AnalyzerView{}, err
	}
	return s.analyzer.View(), nil
}

// RemoveFile clears the analyzer
func (s *Session) RemoveFile() (AnalyzerView, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.touch()
	if err := s.analyzer.Remove(); err != nil {
		return AnalyzerView{}, err
	}
	return s.analyzer.View(), nil
}

// Analyzer returns the analyzer state
func (s *Session) Analyzer() AnalyzerView {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.analyzer.View()
}

// Analyze runs the analysis for the selected file
func (s *Session) Analyze(ctx context.Context) (models.AnalysisResult, error) {
	s.mu.Lock()
	s.touch()
	analyzer := s.analyzer
	file, err := analyzer.BeginAnalyze()
	s.mu.Unlock()
	if err != nil {
		return models.AnalysisResult{}, err
	}

	result, err := s.assistant.Analyze(ctx, file)

	s.mu.Lock()
	defer s.mu.Unlock()
	analyzer.Complete(result, err)
	if err != nil {
		return models.AnalysisResult{}, err
	}
	return result, nil
}

// Report returns the current analysis, if any
func (s *Session) Report() (models.AnalysisResult, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.analyzer.Report()
}

// Chat returns the transcript about the current report
func (s *Session) Chat() (ChatView, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	c, err := s.analyzer.Chat()
	if err != nil {
		return ChatView{}, err
	}
	return c.View(), nil
}

// SendChat appends the user's message and the assistant's reply. A failed
// call still appends the apology reply; the error is returned alongside it.
func (s *Session) SendChat(ctx context.Context, text string) (models.ChatMessage, error) {
	s.mu.Lock()
	s.touch()
	conv, err := s.analyzer.Chat()
	if err != nil {
		s.mu.Unlock()
		return models.ChatMessage{}, err
	}
	history, err := conv.BeginTurn(text)
	s.mu.Unlock()
	if err != nil {
		return models.ChatMessage{}, err
	}

	reply, err := s.assistant.Reply(ctx, conv.Analysis(), history, text)

	s.mu.Lock()
	defer s.mu.Unlock()
	msg := conv.CompleteTurn(reply, err)
	if err != nil && !errors.Is(err, context.Canceled) {
		log.Warn().Err(err).Str("session_id", s.ID).Msg("Chat reply failed")
	}
	return msg, err
}
