package session

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/JooyoungOfficielEpitech/NewsPulse/internal/api"
)

func testStore(t *testing.T) *Store {
	t.Helper()
	dir := t.TempDir()
	s, err := Open(filepath.Join(dir, "session.db"))
	if err != nil {
		t.Fatalf("opening test store: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

func TestGetMissingKey(t *testing.T) {
	s := testStore(t)
	_, ok, err := s.Get("nope")
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if ok {
		t.Error("expected ok=false for missing key")
	}
}

func TestSetGetDelete(t *testing.T) {
	s := testStore(t)

	if err := s.Set(KeySessionSeen, "1"); err != nil {
		t.Fatalf("Set: %v", err)
	}
	value, ok, err := s.Get(KeySessionSeen)
	if err != nil || !ok || value != "1" {
		t.Fatalf("Get = (%q, %v, %v), want (1, true, nil)", value, ok, err)
	}

	// Overwrite
	if err := s.Set(KeySessionSeen, "2"); err != nil {
		t.Fatalf("Set overwrite: %v", err)
	}
	value, _, _ = s.Get(KeySessionSeen)
	if value != "2" {
		t.Errorf("expected overwritten value, got %q", value)
	}

	if err := s.Delete(KeySessionSeen); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	if _, ok, _ := s.Get(KeySessionSeen); ok {
		t.Error("expected key gone after delete")
	}
}

func TestToken(t *testing.T) {
	s := testStore(t)
	if got := s.Token(); got != "" {
		t.Errorf("expected empty token before login, got %q", got)
	}
	if err := s.SetToken("abc123"); err != nil {
		t.Fatalf("SetToken: %v", err)
	}
	if got := s.Token(); got != "abc123" {
		t.Errorf("expected stored token, got %q", got)
	}
	if err := s.ClearToken(); err != nil {
		t.Fatalf("ClearToken: %v", err)
	}
	if got := s.Token(); got != "" {
		t.Errorf("expected empty token after logout, got %q", got)
	}
}

func TestReplaceNewsIsWholesale(t *testing.T) {
	s := testStore(t)
	now := time.Now().UTC().Truncate(time.Second)
	earlier := now.Add(-time.Hour)

	first := []api.NewsItem{
		{ID: 1, Title: "Old A", URL: "https://a.com", Category: "정치", PublishedAt: &earlier},
		{ID: 2, Title: "Old B", URL: "https://b.com", Category: "경제", PublishedAt: &now},
	}
	if err := s.ReplaceNews(first); err != nil {
		t.Fatalf("ReplaceNews: %v", err)
	}

	second := []api.NewsItem{
		{ID: 3, Title: "New C", URL: "https://c.com", Category: "정치", PublishedAt: &now},
	}
	if err := s.ReplaceNews(second); err != nil {
		t.Fatalf("ReplaceNews: %v", err)
	}

	items, err := s.News()
	if err != nil {
		t.Fatalf("News: %v", err)
	}
	if len(items) != 1 {
		t.Fatalf("expected old snapshot replaced, got %d items", len(items))
	}
	if items[0].Title != "New C" {
		t.Errorf("unexpected item %+v", items[0])
	}
	if items[0].PublishedAt == nil || !items[0].PublishedAt.Equal(now) {
		t.Errorf("expected published_at round-trip, got %v", items[0].PublishedAt)
	}
}

func TestNewsOrderedNewestFirst(t *testing.T) {
	s := testStore(t)
	now := time.Now().UTC().Truncate(time.Second)
	older := now.Add(-2 * time.Hour)

	items := []api.NewsItem{
		{ID: 1, Title: "Older", PublishedAt: &older},
		{ID: 2, Title: "Newer", PublishedAt: &now},
	}
	if err := s.ReplaceNews(items); err != nil {
		t.Fatalf("ReplaceNews: %v", err)
	}

	got, err := s.News()
	if err != nil {
		t.Fatalf("News: %v", err)
	}
	if len(got) != 2 || got[0].Title != "Newer" {
		t.Errorf("expected newest first, got %+v", got)
	}
}
