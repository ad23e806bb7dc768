// Package state holds the per-session ingredient selection: the set of
// ingredients a user reported as available in their fridge.
package state

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/korjavin/whatthefridge/pkg/models"
)

// ErrNoSelection is returned when a session has never submitted a selection
// or its selection expired
var ErrNoSelection = errors.New("no selection for session")

// Store keeps one selection per session. Set always replaces the previous
// selection, it never merges.
type Store interface {
	Get(ctx context.Context, sessionID string) (models.Selection, error)
	Set(ctx context.Context, sessionID string, ingredients []models.Ingredient) (models.Selection, error)
	Clear(ctx context.Context, sessionID string) error
	Close() error
}

// Manager is the in-memory selection store
type Manager struct {
	selections map[string]models.Selection
	ttl        time.Duration
	now        func() time.Time
	mu         sync.Mutex
	stop       chan struct{}
	closeOnce  sync.Once
}

var _ Store = (*Manager)(nil)

// New creates a new in-memory selection store. Selections untouched for
// longer than ttl are dropped.
func New(ttl time.Duration) *Manager {
	return &Manager{
		selections: make(map[string]models.Selection),
		ttl:        ttl,
		now:        time.Now,
		stop:       make(chan struct{}),
	}
}

// Set replaces the selection of a session
func (m *Manager) Set(_ context.Context, sessionID string, ingredients []models.Ingredient) (models.Selection, error) {
	sel := models.Selection{
		SessionID:   sessionID,
		Ingredients: cloneIngredients(ingredients),
		UpdatedAt:   m.now(),
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	m.selections[sessionID] = sel
	return copySelection(sel), nil
}

// Get returns a copy of the selection of a session
func (m *Manager) Get(_ context.Context, sessionID string) (models.Selection, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	sel, ok := m.selections[sessionID]
	if !ok {
		return models.Selection{}, ErrNoSelection
	}
	if m.expired(sel) {
		delete(m.selections, sessionID)
		return models.Selection{}, ErrNoSelection
	}
	return copySelection(sel), nil
}

// Clear removes the selection of a session
func (m *Manager) Clear(_ context.Context, sessionID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.selections, sessionID)
	return nil
}

// Sweep drops expired selections and returns how many were removed
func (m *Manager) Sweep() int {
	m.mu.Lock()
	defer m.mu.Unlock()

	removed := 0
	for id, sel := range m.selections {
		if m.expired(sel) {
			delete(m.selections, id)
			removed++
		}
	}
	return removed
}

// StartSweeper runs Sweep periodically until Close is called
func (m *Manager) StartSweeper(interval time.Duration) {
	go func() {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()

		for {
			select {
			case <-m.stop:
				return
			case <-ticker.C:
				m.Sweep()
			}
		}
	}()
}

// Close stops the sweeper
func (m *Manager) Close() error {
	m.closeOnce.Do(func() { close(m.stop) })
	return nil
}

func (m *Manager) expired(sel models.Selection) bool {
	return m.ttl > 0 && m.now().Sub(sel.UpdatedAt) > m.ttl
}

func cloneIngredients(in []models.Ingredient) []models.Ingredient {
	out := make([]models.Ingredient, len(in))
	copy(out, in)
	return out
}

func copySelection(sel models.Selection) models.Selection {
	sel.Ingredients = cloneIngredients(sel.Ingredients)
	return sel
}
