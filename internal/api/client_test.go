package api

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
)

func decodeBody(r *http.Request, v any) error {
	return json.NewDecoder(r.Body).Decode(v)
}

func testClient(t *testing.T, handler http.HandlerFunc) *Client {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	return New(srv.URL, func() string { return "test-token" })
}

func TestListNews(t *testing.T) {
	c := testClient(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/news" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		if got := r.Header.Get("Authorization"); got != "Bearer test-token" {
			t.Errorf("missing bearer token, got %q", got)
		}
		if got := r.URL.Query().Get("category"); got != "정치" {
			t.Errorf("expected category 정치, got %q", got)
		}
		if got := r.URL.Query().Get("limit"); got != "5" {
			t.Errorf("expected limit 5, got %q", got)
		}
		w.Write([]byte(`[{"id":1,"title":"A","url":"https://a.com","category":"정치"}]`))
	})

	items, err := c.ListNews(context.Background(), "정치", 5)
	if err != nil {
		t.Fatalf("ListNews: %v", err)
	}
	if len(items) != 1 || items[0].Title != "A" {
		t.Errorf("unexpected items: %+v", items)
	}
}

func TestFetchTrendBucketsWrapped(t *testing.T) {
	c := testClient(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/trends/trend-data" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		if got := r.URL.Query()["categories"]; len(got) != 2 {
			t.Errorf("expected 2 categories params, got %v", got)
		}
		if got := r.URL.Query().Get("interval_minutes"); got != "60" {
			t.Errorf("expected interval 60, got %q", got)
		}
		w.Write([]byte(`{"data":{"정치":[{"time":1000,"count":3}]}}`))
	})

	buckets, err := c.FetchTrendBuckets(context.Background(), []string{"정치", "경제"}, 60)
	if err != nil {
		t.Fatalf("FetchTrendBuckets: %v", err)
	}
	if len(buckets["정치"]) != 1 {
		t.Errorf("expected one bucket for 정치, got %+v", buckets)
	}
}

func TestFetchTrendBucketsDropsNonSequenceCategory(t *testing.T) {
	c := testClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"data":{"정치":[{"time":1000,"count":3}],"경제":"broken"}}`))
	})

	buckets, err := c.FetchTrendBuckets(context.Background(), []string{"정치", "경제"}, 60)
	if err != nil {
		t.Fatalf("FetchTrendBuckets: %v", err)
	}
	if _, ok := buckets["경제"]; ok {
		t.Error("expected non-sequence category to be absent, not fatal")
	}
	if len(buckets["정치"]) != 1 {
		t.Errorf("expected the well-formed category to survive, got %+v", buckets)
	}
}

func TestFetchTrendBucketsBareMapping(t *testing.T) {
	c := testClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"경제":[{"time":"00:00","count":50}]}`))
	})

	buckets, err := c.FetchTrendBuckets(context.Background(), []string{"경제"}, 15)
	if err != nil {
		t.Fatalf("FetchTrendBuckets: %v", err)
	}
	if len(buckets["경제"]) != 1 {
		t.Errorf("expected one bucket for 경제, got %+v", buckets)
	}
}

func TestFetchTrendBucketsCategoryNamedData(t *testing.T) {
	c := testClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"data":[{"time":1000,"count":2}],"정치":[{"time":1000,"count":3}]}`))
	})

	buckets, err := c.FetchTrendBuckets(context.Background(), []string{"data", "정치"}, 60)
	if err != nil {
		t.Fatalf("FetchTrendBuckets: %v", err)
	}
	if len(buckets["data"]) != 1 {
		t.Errorf("expected the category named data to survive, got %+v", buckets)
	}
	if len(buckets["정치"]) != 1 {
		t.Errorf("expected 정치 to survive alongside it, got %+v", buckets)
	}
}

func TestMissingTokenIsUnauthorized(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Error("request should not leave the client without a token")
	}))
	defer srv.Close()

	c := New(srv.URL, func() string { return "" })
	_, err := c.ListCategories(context.Background())
	if !IsUnauthorized(err) {
		t.Errorf("expected Unauthorized, got %v", err)
	}
}

func TestErrorClassification(t *testing.T) {
	tests := []struct {
		status int
		want   Kind
	}{
		{http.StatusUnauthorized, Unauthorized},
		{http.StatusNotFound, NotFound},
		{http.StatusBadRequest, ValidationError},
		{http.StatusUnprocessableEntity, ValidationError},
		{http.StatusInternalServerError, ServerError},
		{http.StatusBadGateway, ServerError},
	}
	for _, tt := range tests {
		c := testClient(t, func(w http.ResponseWriter, r *http.Request) {
			http.Error(w, `{"detail":"nope"}`, tt.status)
		})
		_, err := c.ListNews(context.Background(), "", 5)
		if !IsKind(err, tt.want) {
			t.Errorf("status %d: expected kind %v, got %v", tt.status, tt.want, err)
		}
	}
}

func TestNetworkErrorKind(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	srv.Close() // connection refused from here on

	c := New(srv.URL, func() string { return "tok" })
	_, err := c.ListNews(context.Background(), "", 5)
	if !IsKind(err, NetworkError) {
		t.Errorf("expected NetworkError, got %v", err)
	}
}

func TestErrorDetailMessage(t *testing.T) {
	c := testClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		w.Write([]byte(`{"detail":"Category already added by the user"}`))
	})

	_, err := c.CreateCategory(context.Background(), "IT")
	ae, ok := err.(*Error)
	if !ok {
		t.Fatalf("expected *Error, got %T", err)
	}
	if ae.Message != "Category already added by the user" {
		t.Errorf("expected server detail in message, got %q", ae.Message)
	}
}

func TestCreateCategory(t *testing.T) {
	c := testClient(t, func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost || r.URL.Path != "/category/" {
			t.Errorf("unexpected %s %s", r.Method, r.URL.Path)
		}
		w.Write([]byte(`{"id":7,"name":"IT"}`))
	})

	cat, err := c.CreateCategory(context.Background(), "IT")
	if err != nil {
		t.Fatalf("CreateCategory: %v", err)
	}
	if cat.ID != 7 || cat.Name != "IT" {
		t.Errorf("unexpected category %+v", cat)
	}
}

func TestDeleteCategoryPath(t *testing.T) {
	c := testClient(t, func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodDelete || r.URL.Path != "/category/7" {
			t.Errorf("unexpected %s %s", r.Method, r.URL.Path)
		}
		w.Write([]byte(`{"message":"Category removed successfully"}`))
	})

	if err := c.DeleteCategory(context.Background(), 7); err != nil {
		t.Fatalf("DeleteCategory: %v", err)
	}
}

func TestQueryAssistant(t *testing.T) {
	c := testClient(t, func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost || r.URL.Path != "/chat/query" {
			t.Errorf("unexpected %s %s", r.Method, r.URL.Path)
		}
		if got := r.URL.Query().Get("question"); got != "무슨 일이야?" {
			t.Errorf("unexpected question %q", got)
		}
		if r.URL.Query().Get("user_id") != "" {
			t.Error("user_id must never be sent; identity comes from the token")
		}
		w.Write([]byte(`{"response":"별일 없음"}`))
	})

	answer, err := c.QueryAssistant(context.Background(), "무슨 일이야?", []string{"정치"})
	if err != nil {
		t.Fatalf("QueryAssistant: %v", err)
	}
	if answer != "별일 없음" {
		t.Errorf("unexpected answer %q", answer)
	}
}

func TestQueryAssistantRejectsEmptyQuestion(t *testing.T) {
	c := New("http://unused", func() string { return "tok" })
	_, err := c.QueryAssistant(context.Background(), "   ", nil)
	if !IsKind(err, ValidationError) {
		t.Errorf("expected ValidationError, got %v", err)
	}
}

func TestQueryAssistantRejectsMalformedResponse(t *testing.T) {
	c := testClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"unexpected":true}`))
	})
	_, err := c.QueryAssistant(context.Background(), "q", nil)
	if !IsKind(err, ServerError) {
		t.Errorf("expected ServerError for missing response field, got %v", err)
	}
}

func TestSavePreferencesBody(t *testing.T) {
	c := testClient(t, func(w http.ResponseWriter, r *http.Request) {
		var prefs Preferences
		if err := decodeBody(r, &prefs); err != nil {
			t.Fatalf("decoding body: %v", err)
		}
		if len(prefs.SelectedCategories) != 2 || prefs.SelectedCategories[0] != "정치" {
			t.Errorf("unexpected selection %v", prefs.SelectedCategories)
		}
		if prefs.AlertKeywords == nil {
			t.Error("alert_keywords must serialize as [], not null")
		}
		w.Write([]byte(`{"message":"Preferences saved successfully"}`))
	})

	if err := c.SavePreferences(context.Background(), []string{"정치", "경제"}, nil); err != nil {
		t.Fatalf("SavePreferences: %v", err)
	}
}

func TestLogin(t *testing.T) {
	c := testClient(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/auth/login" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		if got := r.Header.Get("Content-Type"); got != "application/x-www-form-urlencoded" {
			t.Errorf("expected form content type, got %q", got)
		}
		if r.Header.Get("Authorization") != "" {
			t.Error("login must not carry an Authorization header")
		}
		r.ParseForm()
		if r.PostForm.Get("username") != "jooyoung" {
			t.Errorf("unexpected username %q", r.PostForm.Get("username"))
		}
		w.Write([]byte(`{"access_token":"abc123","token_type":"bearer"}`))
	})

	token, err := c.Login(context.Background(), "jooyoung", "pw")
	if err != nil {
		t.Fatalf("Login: %v", err)
	}
	if token != "abc123" {
		t.Errorf("unexpected token %q", token)
	}
}
