package workspace

import (
	"context"
	"fmt"

	"github.com/rs/zerolog/log"

	"github.com/lexi/internal/preferences"
	"github.com/lexi/pkg/models"
)

// View names a screen
type View string

const (
	ViewDashboard View = "dashboard"
	ViewGenerator View = "generator"
	ViewAnalyzer  View = "analyzer"
	ViewAbout     View = "about"
)

// ParseView validates a view name
func ParseView(s string) (View, error) {
	switch v := View(s); v {
	case ViewDashboard, ViewGenerator, ViewAnalyzer, ViewAbout:
		return v, nil
	}
	return "", fmt.Errorf("%w: unknown view %q", ErrInvalidTransition, s)
}

// Router holds the current view, the selected template and the theme. The
// theme is loaded once at creation and saved on every change.
type Router struct {
	view      View
	selected  *models.DocumentTemplate
	theme     models.Theme
	store     preferences.Store
	clientKey string
}

// NewRouter loads the theme for clientKey and starts on the dashboard
func NewRouter(ctx context.Context, store preferences.Store, clientKey string) (*Router, error) {
	theme, err := store.LoadTheme(ctx, clientKey)
	if err != nil {
		return nil, fmt.Errorf("load theme: %w", err)
	}
	return &Router{view: ViewDashboard, theme: theme, store: store, clientKey: clientKey}, nil
}

// Navigate switches view. The generator needs a template, either passed here
// or selected earlier.
func (r *Router) Navigate(view View, tmpl *models.DocumentTemplate) error {
	if view == ViewGenerator {
		if tmpl == nil && r.selected == nil {
			return ErrNoTemplate
		}
		if tmpl != nil {
			t := *tmpl
			r.selected = &t
		}
	}
	log.Debug().Str("from", string(r.view)).Str("to", string(view)).Msg("Navigate")
	r.view = view
	return nil
}

// ToggleTheme flips the theme and persists it. The in-memory theme is only
// changed once the save succeeds.
func (r *Router) ToggleTheme(ctx context.Context) (models.Theme, error) {
	next := r.theme.Toggle()
	if err := r.store.SaveTheme(ctx, r.clientKey, next); err != nil {
		return r.theme, fmt.Errorf("save theme: %w", err)
	}
	r.theme = next
	return next, nil
}

func (r *Router) View() View         { return r.view }
func (r *Router) Theme() models.Theme { return r.theme }

// Selected returns the template chosen for the generator
func (r *Router) Selected() (models.DocumentTemplate, bool) {
	if r.selected == nil {
		return models.DocumentTemplate{}, false
	}
	return *r.selected, true
}
