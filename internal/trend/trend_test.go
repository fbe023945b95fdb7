package trend

import (
	"reflect"
	"testing"
	"time"

	"github.com/JooyoungOfficielEpitech/NewsPulse/internal/api"
)

func testAggregator() *Aggregator {
	a := NewAggregator(nil)
	// Pin "today" so HH:MM anchoring is deterministic
	a.now = func() time.Time {
		return time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)
	}
	return a
}

func TestBuildSingleCategory(t *testing.T) {
	a := testAggregator()
	raw := map[string][]api.Bucket{
		"정치": {
			{Time: float64(1000), Count: float64(3)},
			{Time: float64(2000), Count: float64(5)},
		},
	}

	series := a.Build([]string{"정치"}, raw)
	if len(series) != 1 {
		t.Fatalf("expected 1 series, got %d", len(series))
	}
	want := []Point{{Timestamp: 1000, Count: 3}, {Timestamp: 2000, Count: 5}}
	if !reflect.DeepEqual(series[0].Points, want) {
		t.Errorf("unexpected points: %+v", series[0].Points)
	}
	if series[0].Category != "정치" {
		t.Errorf("unexpected category %q", series[0].Category)
	}
}

func TestBuildIsIdempotent(t *testing.T) {
	a := testAggregator()
	raw := map[string][]api.Bucket{
		"경제": {
			{Time: float64(3000), Count: float64(1)},
			{Time: float64(1000), Count: float64(7)},
			{Time: float64(2000), Count: float64(4)},
		},
	}
	sel := []string{"경제"}

	first := a.Build(sel, raw)
	second := a.Build(sel, raw)
	if !reflect.DeepEqual(first, second) {
		t.Errorf("same input produced different output:\n%+v\n%+v", first, second)
	}
	if first[0].Points[0].Timestamp != 1000 || first[0].Points[2].Timestamp != 3000 {
		t.Errorf("points not sorted ascending: %+v", first[0].Points)
	}
}

func TestBuildDuplicateTimestampLastWriteWins(t *testing.T) {
	a := testAggregator()
	raw := map[string][]api.Bucket{
		"정치": {
			{Time: float64(1000), Count: float64(3)},
			{Time: float64(1000), Count: float64(9)},
		},
	}

	series := a.Build([]string{"정치"}, raw)
	if len(series[0].Points) != 1 {
		t.Fatalf("expected duplicate timestamps merged, got %+v", series[0].Points)
	}
	if series[0].Points[0].Count != 9 {
		t.Errorf("expected last write to win, got count %d", series[0].Points[0].Count)
	}
}

func TestBuildSkipsAbsentCategory(t *testing.T) {
	a := testAggregator()
	raw := map[string][]api.Bucket{
		"정치": {{Time: float64(1000), Count: float64(1)}},
	}

	series := a.Build([]string{"정치", "경제"}, raw)
	if len(series) != 1 {
		t.Fatalf("expected absent category dropped, got %d series", len(series))
	}
	if series[0].Category != "정치" {
		t.Errorf("unexpected category %q", series[0].Category)
	}
}

func TestBuildColorFollowsSelectionPosition(t *testing.T) {
	a := testAggregator()
	raw := map[string][]api.Bucket{
		"경제": {{Time: float64(1000), Count: float64(1)}},
	}

	// 경제 sits at selection index 1 even though 정치 has no data
	series := a.Build([]string{"정치", "경제"}, raw)
	if series[0].Color != ColorFor(1) {
		t.Errorf("expected selection-position color %s, got %s", ColorFor(1), series[0].Color)
	}
}

func TestColorForWrapsPalette(t *testing.T) {
	if ColorFor(0) != ColorFor(len(palette)) {
		t.Error("expected palette to wrap by index modulo size")
	}
}

func TestNormalizeTimeStrings(t *testing.T) {
	a := testAggregator()

	tests := []struct {
		in   any
		want int64
		ok   bool
	}{
		{"2025-03-01T00:00:00Z", time.Date(2025, 3, 1, 0, 0, 0, 0, time.UTC).UnixMilli(), true},
		{"2025-03-01 06:30:00", time.Date(2025, 3, 1, 6, 30, 0, 0, time.UTC).UnixMilli(), true},
		{"04:00", time.Date(2025, 3, 1, 4, 0, 0, 0, time.UTC).UnixMilli(), true},
		{"1700000000000", int64(1700000000000), true},
		{"garbage", 0, false},
		{nil, 0, false},
		{true, 0, false},
	}
	for _, tt := range tests {
		got, ok := a.normalizeTime(tt.in)
		if ok != tt.ok || got != tt.want {
			t.Errorf("normalizeTime(%v) = (%d, %v), want (%d, %v)", tt.in, got, ok, tt.want, tt.ok)
		}
	}
}

func TestNormalizeCount(t *testing.T) {
	tests := []struct {
		in   any
		want int
	}{
		{float64(5), 5},
		{float64(-3), 0},
		{"7", 7},
		{"junk", 0},
		{nil, 0},
	}
	for _, tt := range tests {
		if got := normalizeCount(tt.in); got != tt.want {
			t.Errorf("normalizeCount(%v) = %d, want %d", tt.in, got, tt.want)
		}
	}
}

func TestDomain(t *testing.T) {
	series := []Series{
		{Category: "정치", Points: []Point{{Timestamp: 2000, Count: 1}, {Timestamp: 5000, Count: 2}}},
		{Category: "경제", Points: []Point{{Timestamp: 1000, Count: 3}}},
	}
	min, max, ok := Domain(series)
	if !ok || min != 1000 || max != 5000 {
		t.Errorf("Domain = (%d, %d, %v), want (1000, 5000, true)", min, max, ok)
	}
}

func TestDomainNoData(t *testing.T) {
	if _, _, ok := Domain([]Series{{Category: "정치"}}); ok {
		t.Error("expected ok=false for series without points")
	}
	if _, _, ok := Domain(nil); ok {
		t.Error("expected ok=false for no series")
	}
}
