package trend

import (
	"log/slog"
	"math"
	"sort"
	"strconv"
	"time"

	"github.com/JooyoungOfficielEpitech/NewsPulse/internal/api"
)

// Point is one normalized trend observation.
type Point struct {
	Timestamp int64 // epoch millis
	Count     int
}

// Series is the chart-ready trend line for one selected category.
type Series struct {
	Category string
	Color    string // hex, stable for a given selection position
	Points   []Point
}

// palette echoes the dashboard's hue-stepped series colors; a category keeps
// its color as long as its position in the selection is unchanged.
var palette = []string{
	"#F04242", // red
	"#F0C842", // yellow
	"#42F06E", // green
	"#42D6F0", // cyan
	"#5A56E0", // blue
	"#F042D6", // magenta
}

// ColorFor returns the palette color for a selection position.
func ColorFor(index int) string {
	if index < 0 {
		index = 0
	}
	return palette[index%len(palette)]
}

// Aggregator turns raw per-category bucket lists into sorted, deduplicated
// multi-series chart data.
type Aggregator struct {
	log *slog.Logger
	now func() time.Time
}

func NewAggregator(log *slog.Logger) *Aggregator {
	if log == nil {
		log = slog.Default()
	}
	return &Aggregator{log: log, now: time.Now}
}

// Build produces one Series per selected category that has a usable bucket
// list, in selection order. Categories with absent or malformed bucket lists
// are skipped and logged, never fatal. Duplicate timestamps within a category
// resolve last-write-wins; points come out sorted ascending. Feeding the same
// input twice yields identical output.
func (a *Aggregator) Build(selection []string, raw map[string][]api.Bucket) []Series {
	series := make([]Series, 0, len(selection))
	for i, category := range selection {
		buckets, ok := raw[category]
		if !ok || buckets == nil {
			a.log.Warn("no trend data for category", "category", category)
			continue
		}

		byTime := make(map[int64]int, len(buckets))
		for _, b := range buckets {
			ts, ok := a.normalizeTime(b.Time)
			if !ok {
				a.log.Debug("skipping bucket with unusable time", "category", category, "time", b.Time)
				continue
			}
			byTime[ts] = normalizeCount(b.Count)
		}

		points := make([]Point, 0, len(byTime))
		for ts, count := range byTime {
			points = append(points, Point{Timestamp: ts, Count: count})
		}
		sort.Slice(points, func(x, y int) bool { return points[x].Timestamp < points[y].Timestamp })

		series = append(series, Series{
			Category: category,
			Color:    ColorFor(i),
			Points:   points,
		})
	}
	return series
}

// Domain returns the merged min/max timestamp across all series. ok is false
// when no series carries any point — "no data", as opposed to "loading".
func Domain(series []Series) (min, max int64, ok bool) {
	for _, s := range series {
		for _, p := range s.Points {
			if !ok {
				min, max, ok = p.Timestamp, p.Timestamp, true
				continue
			}
			if p.Timestamp < min {
				min = p.Timestamp
			}
			if p.Timestamp > max {
				max = p.Timestamp
			}
		}
	}
	return min, max, ok
}

// normalizeTime coerces the server's assorted time encodings to epoch millis:
// JSON numbers pass through as-is, strings are tried as RFC 3339, a plain
// datetime, and finally the bare "HH:MM" clock form anchored to today.
func (a *Aggregator) normalizeTime(v any) (int64, bool) {
	switch t := v.(type) {
	case float64:
		if math.IsNaN(t) || math.IsInf(t, 0) {
			return 0, false
		}
		return int64(t), true
	case string:
		if ts, err := time.Parse(time.RFC3339, t); err == nil {
			return ts.UnixMilli(), true
		}
		if ts, err := time.Parse("2006-01-02 15:04:05", t); err == nil {
			return ts.UnixMilli(), true
		}
		if clock, err := time.Parse("15:04", t); err == nil {
			now := a.now()
			anchored := time.Date(now.Year(), now.Month(), now.Day(),
				clock.Hour(), clock.Minute(), 0, 0, time.UTC)
			return anchored.UnixMilli(), true
		}
		if n, err := strconv.ParseInt(t, 10, 64); err == nil {
			return n, true
		}
		return 0, false
	default:
		return 0, false
	}
}

// normalizeCount coerces a raw count to a non-negative int; anything
// malformed or missing counts as 0.
func normalizeCount(v any) int {
	var n int
	switch c := v.(type) {
	case float64:
		n = int(c)
	case string:
		parsed, err := strconv.Atoi(c)
		if err != nil {
			return 0
		}
		n = parsed
	default:
		return 0
	}
	if n < 0 {
		return 0
	}
	return n
}
