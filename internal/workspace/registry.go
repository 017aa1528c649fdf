package workspace

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/lexi/internal/assistant"
	"github.com/lexi/internal/preferences"
)

// Registry owns every live session
type Registry struct {
	mu        sync.RWMutex
	sessions  map[string]*Session
	assistant *assistant.Assistant
	prefs     preferences.Store
}

// NewRegistry creates an empty registry
func NewRegistry(asst *assistant.Assistant, prefs preferences.Store) *Registry {
	return &Registry{
		sessions:  map[string]*Session{},
		assistant: asst,
		prefs:     prefs,
	}
}

// Create opens a session for clientKey, loading its saved theme
func (r *Registry) Create(ctx context.Context, clientKey string) (*Session, error) {
	router, err := NewRouter(ctx, r.prefs, clientKey)
	if err != nil {
		return nil, err
	}
	now := time.Now()
	s := &Session{
		ID:        uuid.NewString(),
		ClientKey: clientKey,
		CreatedAt: now,
		touched:   now,
		router:    router,
		analyzer:  NewAnalyzer(),
		assistant: r.assistant,
	}

	r.mu.Lock()
	r.sessions[s.ID] = s
	r.mu.Unlock()

	log.Info().Str("session_id", s.ID).Str("client_key", clientKey).Msg("Session created")
	return s, nil
}

// Get looks up a session
func (r *Registry) Get(id string) (*Session, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	s, ok := r.sessions[id]
	return s, ok
}

// Delete drops a session; it reports whether one existed
func (r *Registry) Delete(id string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.sessions[id]; !ok {
		return false
	}
	delete(r.sessions, id)
	return true
}

// Len returns the number of live sessions
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.sessions)
}

// Prune drops sessions idle for longer than maxIdle and returns how many
func (r *Registry) Prune(maxIdle time.Duration) int {
	cutoff := time.Now().Add(-maxIdle)

	r.mu.Lock()
	defer r.mu.Unlock()
	removed := 0
	for id, s := range r.sessions {
		if s.LastActive().Before(cutoff) {
			delete(r.sessions, id)
			removed++
		}
	}
	if removed > 0 {
		log.Info().Int("removed", removed).Int("remaining", len(r.sessions)).Msg("Pruned idle sessions")
	}
	return removed
}
