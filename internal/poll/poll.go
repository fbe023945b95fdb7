// Package poll drives refresh cycles for the selected categories. Cycles are
// generation-tagged: starting a new cycle invalidates any slower in-flight
// one, so only the most recently started cycle ever commits.
package poll

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/JooyoungOfficielEpitech/NewsPulse/internal/api"
	"github.com/JooyoungOfficielEpitech/NewsPulse/internal/trend"
)

// Fetcher is the slice of the API a cycle needs. *api.Client satisfies it.
type Fetcher interface {
	ListNews(ctx context.Context, category string, limit int) ([]api.NewsItem, error)
	FetchTrendBuckets(ctx context.Context, categories []string, intervalMinutes int) (map[string][]api.Bucket, error)
}

// Snapshot is the committed outcome of one cycle: the news feed replaced
// wholesale plus the chart-ready trend series for the selection the cycle
// started with.
type Snapshot struct {
	Generation      uint64
	Selection       []string
	IntervalMinutes int
	News            []api.NewsItem
	Trends          []trend.Series
	FetchedAt       time.Time
}

// Scheduler runs periodic and on-demand cycles. There is no forced request
// cancellation: a superseded cycle's requests run to completion and its
// results are dropped by the generation check.
type Scheduler struct {
	fetcher   Fetcher
	agg       *trend.Aggregator
	selection func() []string
	commit    func(Snapshot)
	log       *slog.Logger

	mu       sync.Mutex
	gen      uint64
	interval int // trend bucket width in minutes
	timer    *time.Timer
	stopped  bool

	// commitMu serializes commits so the generation check and the commit
	// itself are atomic with respect to other finishing cycles.
	commitMu sync.Mutex

	newsLimit int
	cadence   time.Duration
}

// New creates a Scheduler. selection supplies the current selection snapshot
// when a cycle starts; commit receives each committed snapshot (and may be
// called from a background goroutine).
func New(fetcher Fetcher, agg *trend.Aggregator, selection func() []string, commit func(Snapshot), log *slog.Logger) *Scheduler {
	if log == nil {
		log = slog.Default()
	}
	return &Scheduler{
		fetcher:   fetcher,
		agg:       agg,
		selection: selection,
		commit:    commit,
		log:       log,
		interval:  60,
		newsLimit: 5,
		cadence:   5 * time.Minute,
	}
}

// SetNewsLimit sets the per-category article limit for future cycles.
func (s *Scheduler) SetNewsLimit(limit int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if limit > 0 {
		s.newsLimit = limit
	}
}

// SetCadence overrides the wall-clock refresh period.
func (s *Scheduler) SetCadence(d time.Duration) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if d > 0 {
		s.cadence = d
	}
}

// Interval returns the current trend bucket width in minutes.
func (s *Scheduler) Interval() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.interval
}

// SetInterval changes the trend bucket width and starts a new cycle.
func (s *Scheduler) SetInterval(minutes int) {
	s.mu.Lock()
	if minutes > 0 {
		s.interval = minutes
	}
	s.mu.Unlock()
	s.Refresh()
}

// Refresh starts a new cycle for the current selection, invalidating any
// cycle still in flight, and re-arms the timer so the cadence is measured
// from this change. With an empty selection the scheduler goes idle: no
// network activity, and an empty snapshot is committed so stale series never
// outlive their categories.
func (s *Scheduler) Refresh() {
	s.mu.Lock()
	if s.stopped {
		s.mu.Unlock()
		return
	}
	s.gen++
	gen := s.gen
	interval := s.interval
	limit := s.newsLimit
	sel := append([]string(nil), s.selection()...)

	if s.timer != nil {
		s.timer.Stop()
		s.timer = nil
	}
	if len(sel) == 0 {
		s.mu.Unlock()
		s.commitMu.Lock()
		s.mu.Lock()
		current := gen == s.gen && !s.stopped
		s.mu.Unlock()
		if current {
			s.commit(Snapshot{Generation: gen, IntervalMinutes: interval, FetchedAt: time.Now()})
		}
		s.commitMu.Unlock()
		return
	}
	s.timer = time.AfterFunc(s.cadence, s.Refresh)
	s.mu.Unlock()

	go s.runCycle(gen, sel, interval, limit)
}

// Stop halts timers; in-flight cycles finish but can no longer commit.
func (s *Scheduler) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.stopped = true
	s.gen++ // invalidate anything in flight
	if s.timer != nil {
		s.timer.Stop()
		s.timer = nil
	}
}

// runCycle fans out one news fetch per category plus one trend fetch, joins
// them, and commits only if this cycle is still the newest one.
func (s *Scheduler) runCycle(gen uint64, sel []string, interval, limit int) {
	start := time.Now()
	newsByCategory := make([][]api.NewsItem, len(sel))
	var buckets map[string][]api.Bucket

	g, ctx := errgroup.WithContext(context.Background())
	for i, category := range sel {
		i, category := i, category
		g.Go(func() error {
			items, err := s.fetcher.ListNews(ctx, category, limit)
			if err != nil {
				return err
			}
			newsByCategory[i] = items
			return nil
		})
	}
	g.Go(func() error {
		var err error
		buckets, err = s.fetcher.FetchTrendBuckets(ctx, sel, interval)
		return err
	})

	if err := g.Wait(); err != nil {
		// Prior committed state stays untouched; the timer keeps running
		s.log.Warn("refresh cycle failed", "generation", gen, "error", err)
		if api.IsUnauthorized(err) {
			s.log.Warn("stored token rejected; re-login required")
		}
		return
	}

	var news []api.NewsItem
	for _, items := range newsByCategory {
		news = append(news, items...)
	}
	series := s.agg.Build(sel, buckets)

	s.commitMu.Lock()
	defer s.commitMu.Unlock()

	s.mu.Lock()
	current := gen == s.gen && !s.stopped
	s.mu.Unlock()
	if !current {
		// A newer cycle started while this one was in flight; drop silently
		return
	}

	s.commit(Snapshot{
		Generation:      gen,
		Selection:       sel,
		IntervalMinutes: interval,
		News:            news,
		Trends:          series,
		FetchedAt:       start,
	})
}
