package api

import "time"

// Category is a named topic bucket, owned by the server. The client keeps a
// cached mirror only.
type Category struct {
	ID   int64  `json:"id"`
	Name string `json:"name"`
}

// NewsItem is read-only feed data, replaced wholesale on every cycle.
type NewsItem struct {
	ID          int64      `json:"id"`
	Title       string     `json:"title"`
	Description string     `json:"description"`
	URL         string     `json:"url"`
	Source      string     `json:"source"`
	Category    string     `json:"category"`
	PublishedAt *time.Time `json:"published_at"`
}

// Bucket is one raw (time, count) trend observation. The server is sloppy
// about types: time arrives as an epoch number, an ISO timestamp or a bare
// clock string, and count is occasionally missing or non-numeric, so both
// fields stay untyped until the aggregator normalizes them.
type Bucket struct {
	Time  any `json:"time"`
	Count any `json:"count"`
}

// Preferences is the remote preference record for the authenticated user.
type Preferences struct {
	SelectedCategories []string `json:"selected_categories"`
	AlertKeywords      []string `json:"alert_keywords"`
}

// User is the authenticated identity, derived server-side from the token.
type User struct {
	Username string `json:"username"`
}
