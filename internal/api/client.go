package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
)

// Client issues authenticated JSON requests against the NewsPulse server.
// Every operation returns either its result or a classified *Error; nothing
// fails silently. Cancellation is cooperative through the caller's context —
// the client itself imposes no request timeout.
type Client struct {
	baseURL string
	token   func() string
	hc      *http.Client
}

// New creates a Client. token is consulted on every request so a re-login
// mid-session takes effect without rebuilding the client; it may return ""
// when no credential is stored.
func New(baseURL string, token func() string) *Client {
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		token:   token,
		hc:      &http.Client{},
	}
}

// ListNews fetches up to limit news items for one category.
func (c *Client) ListNews(ctx context.Context, category string, limit int) ([]NewsItem, error) {
	q := url.Values{}
	if category != "" {
		q.Set("category", category)
	}
	q.Set("limit", strconv.Itoa(limit))

	body, err := c.do(ctx, "news.list", http.MethodGet, "/news", q, nil)
	if err != nil {
		return nil, err
	}
	var items []NewsItem
	if err := json.Unmarshal(body, &items); err != nil {
		return nil, &Error{Kind: ServerError, Op: "news.list", Message: "malformed response", Err: err}
	}
	return items, nil
}

// FetchTrendBuckets fetches raw trend buckets for the given categories at the
// given bucket width. The result maps category name to its bucket list;
// categories the server knows nothing about may be absent.
func (c *Client) FetchTrendBuckets(ctx context.Context, categories []string, intervalMinutes int) (map[string][]Bucket, error) {
	q := url.Values{}
	for _, cat := range categories {
		q.Add("categories", cat)
	}
	q.Set("interval_minutes", strconv.Itoa(intervalMinutes))

	body, err := c.do(ctx, "trends.fetch", http.MethodGet, "/trends/trend-data", q, nil)
	if err != nil {
		return nil, err
	}

	// Current servers wrap the mapping in {"data": ...}; older ones return
	// the mapping bare. Only a lone "data" key holding an object is taken
	// as the wrapper, so a bare mapping that happens to include a category
	// named "data" (whose value is a bucket list, not an object) still
	// decodes as itself.
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(body, &raw); err != nil {
		return nil, &Error{Kind: ServerError, Op: "trends.fetch", Message: "malformed response", Err: err}
	}
	if inner, ok := raw["data"]; ok && len(raw) == 1 {
		var unwrapped map[string]json.RawMessage
		if err := json.Unmarshal(inner, &unwrapped); err == nil {
			raw = unwrapped
		}
	}

	// A category whose value is not a bucket list stays absent from the
	// result; the aggregator logs and drops it, never fatal.
	out := make(map[string][]Bucket, len(raw))
	for category, data := range raw {
		var buckets []Bucket
		if err := json.Unmarshal(data, &buckets); err != nil {
			continue
		}
		out[category] = buckets
	}
	return out, nil
}

// RefreshCategories asks the server to recompute trend data for the given
// categories. Safe to retry.
func (c *Client) RefreshCategories(ctx context.Context, categories []string) error {
	_, err := c.do(ctx, "trends.refresh", http.MethodPost, "/trends/update/", nil, categories)
	return err
}

// ListCategories returns the user's category mirror.
func (c *Client) ListCategories(ctx context.Context) ([]Category, error) {
	body, err := c.do(ctx, "category.list", http.MethodGet, "/category/", nil, nil)
	if err != nil {
		return nil, err
	}
	var cats []Category
	if err := json.Unmarshal(body, &cats); err != nil {
		return nil, &Error{Kind: ServerError, Op: "category.list", Message: "malformed response", Err: err}
	}
	return cats, nil
}

// CreateCategory registers a new category. Not safe to retry blindly — a
// duplicate submission creates a duplicate link; the selection store guards
// against that, not this client.
func (c *Client) CreateCategory(ctx context.Context, name string) (Category, error) {
	body, err := c.do(ctx, "category.create", http.MethodPost, "/category/", nil, map[string]string{"name": name})
	if err != nil {
		return Category{}, err
	}
	var cat Category
	if err := json.Unmarshal(body, &cat); err != nil {
		return Category{}, &Error{Kind: ServerError, Op: "category.create", Message: "malformed response", Err: err}
	}
	return cat, nil
}

// DeleteCategory removes a category by id. A NotFound error means it was
// already gone; callers treat that as success.
func (c *Client) DeleteCategory(ctx context.Context, id int64) error {
	_, err := c.do(ctx, "category.delete", http.MethodDelete, fmt.Sprintf("/category/%d", id), nil, nil)
	return err
}

// SavePreferences persists the selection and alert keywords for the
// authenticated user. Whose preferences is always derived from the token.
func (c *Client) SavePreferences(ctx context.Context, selection, alertKeywords []string) error {
	prefs := Preferences{SelectedCategories: selection, AlertKeywords: alertKeywords}
	if prefs.SelectedCategories == nil {
		prefs.SelectedCategories = []string{}
	}
	if prefs.AlertKeywords == nil {
		prefs.AlertKeywords = []string{}
	}
	_, err := c.do(ctx, "prefs.save", http.MethodPost, "/user/preferences", nil, prefs)
	return err
}

// LoadPreferences fetches the stored selection and alert keywords.
func (c *Client) LoadPreferences(ctx context.Context) (Preferences, error) {
	body, err := c.do(ctx, "prefs.load", http.MethodGet, "/user/preferences", nil, nil)
	if err != nil {
		return Preferences{}, err
	}
	var prefs Preferences
	if err := json.Unmarshal(body, &prefs); err != nil {
		return Preferences{}, &Error{Kind: ServerError, Op: "prefs.load", Message: "malformed response", Err: err}
	}
	return prefs, nil
}

// CurrentUser returns the identity behind the stored token.
func (c *Client) CurrentUser(ctx context.Context) (User, error) {
	body, err := c.do(ctx, "user.me", http.MethodGet, "/user/me", nil, nil)
	if err != nil {
		return User{}, err
	}
	var u User
	if err := json.Unmarshal(body, &u); err != nil {
		return User{}, &Error{Kind: ServerError, Op: "user.me", Message: "malformed response", Err: err}
	}
	return u, nil
}

// QueryAssistant asks the news assistant a question grounded in the given
// categories. Not safe to retry blindly — each query is billed.
func (c *Client) QueryAssistant(ctx context.Context, question string, contextCategories []string) (string, error) {
	if strings.TrimSpace(question) == "" {
		return "", &Error{Kind: ValidationError, Op: "chat.query", Message: "question is empty"}
	}
	q := url.Values{}
	q.Set("question", question)
	for _, cat := range contextCategories {
		q.Add("categories", cat)
	}

	body, err := c.do(ctx, "chat.query", http.MethodPost, "/chat/query", q, nil)
	if err != nil {
		return "", err
	}
	var reply struct {
		Response string `json:"response"`
	}
	if err := json.Unmarshal(body, &reply); err != nil || reply.Response == "" {
		return "", &Error{Kind: ServerError, Op: "chat.query", Message: "malformed response", Err: err}
	}
	return reply.Response, nil
}

// Login exchanges credentials for a bearer token. The only operation that
// does not carry the Authorization header.
func (c *Client) Login(ctx context.Context, username, password string) (string, error) {
	form := url.Values{}
	form.Set("username", username)
	form.Set("password", password)

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/auth/login", strings.NewReader(form.Encode()))
	if err != nil {
		return "", &Error{Kind: NetworkError, Op: "auth.login", Err: err}
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := c.hc.Do(req)
	if err != nil {
		return "", &Error{Kind: NetworkError, Op: "auth.login", Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", &Error{Kind: classify(resp.StatusCode), Op: "auth.login", Message: readDetail(resp.Body)}
	}

	var out struct {
		AccessToken string `json:"access_token"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil || out.AccessToken == "" {
		return "", &Error{Kind: ServerError, Op: "auth.login", Message: "malformed response", Err: err}
	}
	return out.AccessToken, nil
}

func (c *Client) do(ctx context.Context, op, method, path string, query url.Values, payload any) ([]byte, error) {
	token := c.token()
	if token == "" {
		return nil, &Error{Kind: Unauthorized, Op: op, Message: "no stored token"}
	}

	u := c.baseURL + path
	if len(query) > 0 {
		u += "?" + query.Encode()
	}

	var body io.Reader
	if payload != nil {
		data, err := json.Marshal(payload)
		if err != nil {
			return nil, &Error{Kind: ValidationError, Op: op, Message: "encoding request", Err: err}
		}
		body = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, u, body)
	if err != nil {
		return nil, &Error{Kind: NetworkError, Op: op, Err: err}
	}
	req.Header.Set("Authorization", "Bearer "+token)
	req.Header.Set("Accept", "application/json")
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.hc.Do(req)
	if err != nil {
		return nil, &Error{Kind: NetworkError, Op: op, Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, &Error{Kind: classify(resp.StatusCode), Op: op, Message: readDetail(resp.Body)}
	}

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, &Error{Kind: NetworkError, Op: op, Err: err}
	}
	return data, nil
}

// readDetail pulls the FastAPI-style {"detail": ...} message out of an error
// body, falling back to the raw text.
func readDetail(r io.Reader) string {
	data, _ := io.ReadAll(io.LimitReader(r, 1024))
	var payload struct {
		Detail string `json:"detail"`
	}
	if err := json.Unmarshal(data, &payload); err == nil && payload.Detail != "" {
		return payload.Detail
	}
	return strings.TrimSpace(string(data))
}
