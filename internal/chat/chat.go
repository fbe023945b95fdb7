// Package chat owns the assistant conversation: an ordered transcript that
// survives reloads, with one optimistic "thinking" placeholder per in-flight
// query and synthetic turns announcing selection changes.
package chat

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/JooyoungOfficielEpitech/NewsPulse/internal/session"
)

// Kind tags a transcript turn.
type Kind string

const (
	KindNormal         Kind = "normal"
	KindCategoryUpdate Kind = "category_update"
	KindPlaceholder    Kind = "placeholder"
	KindError          Kind = "error"
)

// Turn is one entry in the transcript.
type Turn struct {
	ID        string    `json:"id"`
	Text      string    `json:"text"`
	IsUser    bool      `json:"is_user"`
	Timestamp time.Time `json:"timestamp"`
	Kind      Kind      `json:"kind"`
}

// ErrQueryInFlight is returned when a submission arrives while a previous
// assistant query has not resolved.
var ErrQueryInFlight = errors.New("assistant query already in flight")

// PlaceholderText is shown while the assistant is thinking.
const PlaceholderText = "생각 중..."

// fallbackErrorText is the error turn's text when a query fails.
const fallbackErrorText = "답변을 가져오지 못했습니다. 잠시 후 다시 시도해주세요."

// Querier is the slice of the API the store needs. *api.Client satisfies it.
type Querier interface {
	QueryAssistant(ctx context.Context, question string, contextCategories []string) (string, error)
}

// Store owns the transcript. Every mutation writes the full transcript
// through to the session store immediately; placeholders are filtered before
// each persist, so a crash loses at most the unresolved turn.
type Store struct {
	querier Querier
	db      *session.Store
	log     *slog.Logger

	mu       sync.Mutex
	turns    []Turn
	querying bool
	now      func() time.Time
}

func New(querier Querier, db *session.Store, log *slog.Logger) *Store {
	if log == nil {
		log = slog.Default()
	}
	return &Store{
		querier: querier,
		db:      db,
		log:     log,
		now:     time.Now,
	}
}

// RestoreOrReset loads the persisted transcript, unless the
// fresh-session flag is absent — then any previous transcript is wiped once
// and the flag is set, so each login starts clean and every reload after
// that preserves history.
func (s *Store) RestoreOrReset() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	_, seen, err := s.db.Get(session.KeySessionSeen)
	if err != nil {
		return err
	}
	if !seen {
		if err := s.db.Delete(session.KeyTranscript); err != nil {
			return err
		}
		s.turns = nil
		return s.db.Set(session.KeySessionSeen, "1")
	}

	raw, ok, err := s.db.Get(session.KeyTranscript)
	if err != nil || !ok {
		return err
	}
	var turns []Turn
	if err := json.Unmarshal([]byte(raw), &turns); err != nil {
		// Corrupt transcript: start over rather than fail the session
		s.log.Warn("discarding corrupt transcript", "error", err)
		s.turns = nil
		return s.db.Delete(session.KeyTranscript)
	}
	// Placeholders are never persisted, but filter defensively
	s.turns = filterPlaceholders(turns)
	return nil
}

// Turns returns a copy of the transcript.
func (s *Store) Turns() []Turn {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]Turn(nil), s.turns...)
}

// Querying reports whether an assistant query is awaiting resolution.
func (s *Store) Querying() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.querying
}

// Ask submits a question: the user turn and a thinking placeholder are
// appended immediately, then the placeholder is replaced by the answer or an
// error turn once the query resolves. At most one query is in flight; a
// second submission is rejected with ErrQueryInFlight. The in-flight flag is
// cleared no matter how the query ends.
func (s *Store) Ask(ctx context.Context, question string, contextCategories []string) error {
	question = strings.TrimSpace(question)
	if question == "" {
		return errors.New("question is empty")
	}

	s.mu.Lock()
	if s.querying {
		s.mu.Unlock()
		return ErrQueryInFlight
	}
	s.querying = true
	s.turns = filterPlaceholders(s.turns)
	s.turns = append(s.turns,
		Turn{ID: uuid.NewString(), Text: question, IsUser: true, Timestamp: s.now(), Kind: KindNormal},
		Turn{ID: uuid.NewString(), Text: PlaceholderText, Timestamp: s.now(), Kind: KindPlaceholder},
	)
	s.persistLocked()
	s.mu.Unlock()

	// Guaranteed cleanup: a failed or panicking query must never wedge the
	// input closed.
	defer func() {
		s.mu.Lock()
		s.querying = false
		s.mu.Unlock()
	}()

	answer, err := s.querier.QueryAssistant(ctx, question, contextCategories)

	s.mu.Lock()
	defer s.mu.Unlock()

	s.turns = filterPlaceholders(s.turns)
	if err != nil {
		s.log.Warn("assistant query failed", "error", err)
		s.turns = append(s.turns, Turn{
			ID: uuid.NewString(), Text: fallbackErrorText, Timestamp: s.now(), Kind: KindError,
		})
		s.persistLocked()
		return err
	}
	s.turns = append(s.turns, Turn{
		ID: uuid.NewString(), Text: answer, Timestamp: s.now(), Kind: KindNormal,
	})
	s.persistLocked()
	return nil
}

// NotifySelectionChanged appends a synthetic turn describing the new
// selection. Consecutive selection changes collapse: when the last turn is
// itself a category update it is replaced instead of appended.
func (s *Store) NotifySelectionChanged(names []string) {
	text := "관심 카테고리가 없습니다"
	if len(names) > 0 {
		text = "관심 카테고리: " + strings.Join(names, ", ")
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	turn := Turn{ID: uuid.NewString(), Text: text, Timestamp: s.now(), Kind: KindCategoryUpdate}
	if n := len(s.turns); n > 0 && s.turns[n-1].Kind == KindCategoryUpdate {
		s.turns[n-1] = turn
	} else {
		s.turns = append(s.turns, turn)
	}
	s.persistLocked()
}

// Reset wipes the transcript, its durable copy and the fresh-session flag, so
// the next activation is treated as a fresh login.
func (s *Store) Reset() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.turns = nil
	if err := s.db.Delete(session.KeyTranscript); err != nil {
		return err
	}
	return s.db.Delete(session.KeySessionSeen)
}

// persistLocked writes the full transcript through to durable storage,
// placeholders excluded. Failures are logged; the in-memory transcript is the
// source of truth for the running session.
func (s *Store) persistLocked() {
	durable := filterPlaceholders(s.turns)
	data, err := json.Marshal(durable)
	if err != nil {
		s.log.Warn("encoding transcript failed", "error", err)
		return
	}
	if err := s.db.Set(session.KeyTranscript, string(data)); err != nil {
		s.log.Warn("persisting transcript failed", "error", err)
	}
}

func filterPlaceholders(turns []Turn) []Turn {
	kept := make([]Turn, 0, len(turns))
	for _, t := range turns {
		if t.Kind != KindPlaceholder {
			kept = append(kept, t)
		}
	}
	return kept
}
