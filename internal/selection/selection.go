// Package selection owns the set of categories the user is tracking and the
// cached category mirror, and keeps the remote preference store in sync.
package selection

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/JooyoungOfficielEpitech/NewsPulse/internal/api"
)

// ErrAddInFlight is returned while a previous add has not resolved or its
// post-success busy window has not elapsed.
var ErrAddInFlight = errors.New("category add already in flight")

// addBusyWindow holds the add guard closed after a successful create so a
// double-click cannot slip a duplicate through.
const addBusyWindow = 3 * time.Second

// Backend is the slice of the API the store needs. *api.Client satisfies it.
type Backend interface {
	CreateCategory(ctx context.Context, name string) (api.Category, error)
	DeleteCategory(ctx context.Context, id int64) error
	SavePreferences(ctx context.Context, selection, alertKeywords []string) error
}

// Store mediates toggle/add/delete on the selection. Local state always
// mutates first; persistence to the remote preference store is
// fire-and-forget with logged failure, never a rollback.
type Store struct {
	backend Backend
	log     *slog.Logger

	mu         sync.Mutex
	categories []api.Category // cached mirror, server-owned
	selected   []string       // ordered by toggle order, no duplicates
	keywords   []string       // alert keywords, passed through on save
	adding     bool
	busyUntil  time.Time

	busyWindow time.Duration
	now        func() time.Time
}

func New(backend Backend, log *slog.Logger) *Store {
	if log == nil {
		log = slog.Default()
	}
	return &Store{
		backend:    backend,
		log:        log,
		busyWindow: addBusyWindow,
		now:        time.Now,
	}
}

// SetCategories replaces the cached mirror, pruning selected names that no
// longer have a backing category.
func (s *Store) SetCategories(categories []api.Category) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.categories = append([]api.Category(nil), categories...)
	s.pruneLocked()
}

// Restore seeds the selection from saved preferences. Names without a backing
// category are dropped.
func (s *Store) Restore(prefs api.Preferences) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.selected = s.selected[:0]
	for _, name := range prefs.SelectedCategories {
		if s.knownLocked(name) && !s.selectedLocked(name) {
			s.selected = append(s.selected, name)
		}
	}
	s.keywords = append([]string(nil), prefs.AlertKeywords...)
}

// Categories returns a copy of the cached mirror.
func (s *Store) Categories() []api.Category {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]api.Category(nil), s.categories...)
}

// Selected returns a copy of the ordered selection.
func (s *Store) Selected() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]string(nil), s.selected...)
}

func (s *Store) IsSelected(name string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.selectedLocked(name)
}

// AddBusy reports whether the add guard is currently closed.
func (s *Store) AddBusy() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.adding || s.now().Before(s.busyUntil)
}

// Toggle flips membership for name and returns the new selection snapshot.
// Local state updates synchronously; the preference save happens in the
// background and a failure is logged, not rolled back.
func (s *Store) Toggle(name string) []string {
	s.mu.Lock()
	changed := true
	switch {
	case s.selectedLocked(name):
		kept := s.selected[:0]
		for _, n := range s.selected {
			if n != name {
				kept = append(kept, n)
			}
		}
		s.selected = kept
	case s.knownLocked(name):
		s.selected = append(s.selected, name)
	default:
		// No backing category; the selection never holds dangling names
		changed = false
	}
	snapshot := append([]string(nil), s.selected...)
	keywords := append([]string(nil), s.keywords...)
	s.mu.Unlock()

	if changed {
		s.persist(snapshot, keywords)
	}
	return snapshot
}

// Add creates a new category on the server and appends it to the mirror.
// While one add is in flight — and for a short window after it succeeds —
// further attempts are rejected with ErrAddInFlight.
func (s *Store) Add(ctx context.Context, name string) (api.Category, error) {
	s.mu.Lock()
	if s.adding || s.now().Before(s.busyUntil) {
		s.mu.Unlock()
		return api.Category{}, ErrAddInFlight
	}
	s.adding = true
	s.mu.Unlock()

	cat, err := s.backend.CreateCategory(ctx, name)

	s.mu.Lock()
	s.adding = false
	if err != nil {
		s.mu.Unlock()
		// Mirror untouched on failure
		return api.Category{}, err
	}
	s.busyUntil = s.now().Add(s.busyWindow)
	s.categories = append(s.categories, cat)
	s.mu.Unlock()
	return cat, nil
}

// Remove deletes a category by id. A NotFound from the server counts as
// success. On success the mirror entry and any selection of its name are
// pruned together, and the pruned selection is persisted.
func (s *Store) Remove(ctx context.Context, id int64) error {
	if err := s.backend.DeleteCategory(ctx, id); err != nil && !api.IsNotFound(err) {
		return err
	}

	s.mu.Lock()
	var removed string
	kept := s.categories[:0]
	for _, c := range s.categories {
		if c.ID == id {
			removed = c.Name
			continue
		}
		kept = append(kept, c)
	}
	s.categories = kept

	changed := false
	if removed != "" && s.selectedLocked(removed) {
		sel := s.selected[:0]
		for _, n := range s.selected {
			if n != removed {
				sel = append(sel, n)
			}
		}
		s.selected = sel
		changed = true
	}
	snapshot := append([]string(nil), s.selected...)
	keywords := append([]string(nil), s.keywords...)
	s.mu.Unlock()

	if changed {
		s.persist(snapshot, keywords)
	}
	return nil
}

// persist saves the full selection to the remote preference store in the
// background. The caller's local state is already committed.
func (s *Store) persist(snapshot, keywords []string) {
	go func() {
		if err := s.backend.SavePreferences(context.Background(), snapshot, keywords); err != nil {
			s.log.Warn("saving preferences failed", "error", err)
		}
	}()
}

func (s *Store) selectedLocked(name string) bool {
	for _, n := range s.selected {
		if n == name {
			return true
		}
	}
	return false
}

func (s *Store) knownLocked(name string) bool {
	for _, c := range s.categories {
		if c.Name == name {
			return true
		}
	}
	return false
}

// pruneLocked drops selected names with no backing category.
func (s *Store) pruneLocked() {
	kept := s.selected[:0]
	for _, n := range s.selected {
		if s.knownLocked(n) {
			kept = append(kept, n)
		}
	}
	s.selected = kept
}
