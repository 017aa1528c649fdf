package workspace

import (
	"fmt"
	"slices"
	"strings"

	"github.com/lexi/internal/apperr"
	"github.com/lexi/internal/assistant"
	"github.com/lexi/internal/render"
	"github.com/lexi/pkg/models"
)

// FormState is the generator form's position in Incomplete → Valid → Submitting → Result
type FormState string

const (
	FormIncomplete FormState = "incomplete"
	FormValid      FormState = "valid"
	FormSubmitting FormState = "submitting"
	FormResult     FormState = "result"
)

// DraftRequest is the frozen form content handed to the drafting call
type DraftRequest struct {
	Template models.DocumentTemplate
	Values   models.FormValues
	Details  string
}

// GeneratorForm collects the fields for one template and holds the draft
type GeneratorForm struct {
	template models.DocumentTemplate
	values   models.FormValues
	details  string
	state    FormState
	result   *models.GeneratedDocument
	request  Request
}

// NewGeneratorForm starts an empty form for tmpl
func NewGeneratorForm(tmpl models.DocumentTemplate) *GeneratorForm {
	g := &GeneratorForm{template: tmpl, values: models.FormValues{}}
	g.recompute()
	return g
}

func (g *GeneratorForm) recompute() {
	if len(assistant.MissingFields(g.template, g.values, g.details)) == 0 {
		g.state = FormValid
	} else {
		g.state = FormIncomplete
	}
}

func (g *GeneratorForm) editable() error {
	switch g.state {
	case FormSubmitting:
		return fmt.Errorf("%w: a draft is being generated", ErrInvalidTransition)
	case FormResult:
		return fmt.Errorf("%w: choose edit before changing the form", ErrInvalidTransition)
	}
	return nil
}

// SetField updates one required field
func (g *GeneratorForm) SetField(name, value string) error {
	if err := g.editable(); err != nil {
		return err
	}
	if !slices.Contains(g.template.RequiredFields, name) {
		return fmt.Errorf("%w: %q", ErrUnknownField, name)
	}
	g.values[name] = value
	g.recompute()
	return nil
}

// AppendToField adds dictated text to a field, separated by a space
func (g *GeneratorForm) AppendToField(name, text string) error {
	if !slices.Contains(g.template.RequiredFields, name) {
		return fmt.Errorf("%w: %q", ErrUnknownField, name)
	}
	current := strings.TrimSpace(g.values[name])
	if current != "" {
		text = current + " " + text
	}
	return g.SetField(name, text)
}

// SetDetails updates the free-text instructions
func (g *GeneratorForm) SetDetails(details string) error {
	if err := g.editable(); err != nil {
		return err
	}
	g.details = details
	g.recompute()
	return nil
}

// BeginSubmit freezes the form and moves to Submitting. Only a Valid form can
// be submitted.
func (g *GeneratorForm) BeginSubmit() (DraftRequest, error) {
	if g.state == FormSubmitting {
		return DraftRequest{}, ErrRequestInFlight
	}
	if g.state != FormValid {
		missing := assistant.MissingFields(g.template, g.values, g.details)
		return DraftRequest{}, fmt.Errorf("%w: missing %s", ErrInvalidTransition, strings.Join(missing, ", "))
	}
	if err := g.request.Begin(); err != nil {
		return DraftRequest{}, err
	}
	g.state = FormSubmitting
	return DraftRequest{Template: g.template, Values: g.values.Clone(), Details: g.details}, nil
}

// Complete ends a submission. Failure returns the form to Valid with values
// intact; success moves to Result.
func (g *GeneratorForm) Complete(doc models.GeneratedDocument, err error) {
	if g.state != FormSubmitting {
		return
	}
	g.request.Finish(err)
	if err != nil {
		g.recompute()
		return
	}
	g.result = &doc
	g.state = FormResult
}

// Edit leaves Result and returns to the form with every value retained
func (g *GeneratorForm) Edit() error {
	if g.state != FormResult {
		return fmt.Errorf("%w: nothing to edit", ErrInvalidTransition)
	}
	g.result = nil
	g.request.Reset()
	g.recompute()
	return nil
}

// Document returns the drafted document while in Result
func (g *GeneratorForm) Document() (models.GeneratedDocument, bool) {
	if g.state != FormResult || g.result == nil {
		return models.GeneratedDocument{}, false
	}
	return *g.result, true
}

func (g *GeneratorForm) State() FormState                 { return g.state }
func (g *GeneratorForm) Template() models.DocumentTemplate { return g.template }

// GeneratorView is the serializable state of the form
type GeneratorView struct {
	Template      models.DocumentTemplate   `json:"template"`
	Values        models.FormValues         `json:"values"`
	Details       string                    `json:"details"`
	State         FormState                 `json:"state"`
	MissingFields []string                  `json:"missingFields"`
	Request       RequestState              `json:"request"`
	Error         string                    `json:"error,omitempty"`
	Document      *models.GeneratedDocument `json:"document,omitempty"`
	HTML          string                    `json:"html,omitempty"`
	CanExport     bool                      `json:"canExport"`
}

// View snapshots the form
func (g *GeneratorForm) View() GeneratorView {
	v := GeneratorView{
		Template:      g.template,
		Values:        g.values.Clone(),
		Details:       g.details,
		State:         g.state,
		MissingFields: assistant.MissingFields(g.template, g.values, g.details),
		Request:       g.request.State(),
	}
	if v.MissingFields == nil {
		v.MissingFields = []string{}
	}
	if err := g.request.Err(); err != nil {
		v.Error = apperr.UserMessage(err)
	}
	if doc, ok := g.Document(); ok {
		v.Document = &doc
		v.HTML = render.ToHTML(doc.Content)
		v.CanExport = true
	}
	return v
}
