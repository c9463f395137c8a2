package spotify

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"sync/atomic"
	"testing"
)

func newTestClient(t *testing.T, handler http.HandlerFunc) *Client {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	client, err := NewClient(Config{
		BaseURL:       server.URL,
		BackoffFactor: 0.001,
	})
	if err != nil {
		t.Fatalf("failed to create client: %v", err)
	}
	return client
}

func TestClient_Get(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet {
			t.Errorf("expected GET request, got %s", r.Method)
		}
		if r.URL.Path != "/tracks/abc" {
			t.Errorf("expected path /tracks/abc, got %s", r.URL.Path)
		}
		if market := r.URL.Query().Get("market"); market != "US" {
			t.Errorf("expected market US, got %q", market)
		}
		if _, ok := r.URL.Query()["empty"]; ok {
			t.Error("empty params should be dropped")
		}
		_, _ = w.Write([]byte(`{"id":"abc","name":"Song"}`))
	})

	var got struct {
		ID   string `json:"id"`
		Name string `json:"name"`
	}
	params := url.Values{"market": {"US"}, "empty": {""}}
	if err := client.Get(context.Background(), "tracks/abc", params, &got); err != nil {
		t.Fatalf("Get: %v", err)
	}
	if got.ID != "abc" || got.Name != "Song" {
		t.Errorf("unexpected result: %+v", got)
	}
}

func TestClient_GetNoContent(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	})

	result := map[string]interface{}{"untouched": true}
	if err := client.Get(context.Background(), "me/player", nil, &result); err != nil {
		t.Fatalf("Get: %v", err)
	}
	if result["untouched"] != true {
		t.Error("result should not be modified on empty body")
	}
}

func TestClient_ErrorResponse(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
		_, _ = w.Write([]byte(`{"error":{"status":404,"message":"Player command failed: No active device found","reason":"NO_ACTIVE_DEVICE"}}`))
	})

	err := client.Put(context.Background(), "me/player/play", nil, nil, nil)
	if err == nil {
		t.Fatal("expected error, got nil")
	}

	var apiErr *Error
	if !errors.As(err, &apiErr) {
		t.Fatalf("expected *Error, got %T", err)
	}
	if apiErr.Status != http.StatusNotFound {
		t.Errorf("expected status 404, got %d", apiErr.Status)
	}
	if apiErr.Reason != "NO_ACTIVE_DEVICE" {
		t.Errorf("expected reason NO_ACTIVE_DEVICE, got %q", apiErr.Reason)
	}
	if !IsNoActiveDevice(err) {
		t.Error("IsNoActiveDevice should be true")
	}
	if errors.Is(err, ErrMaxRetries) {
		t.Error("a plain 404 is not a retry exhaustion")
	}
}

func TestClient_ErrorWithoutBody(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusForbidden)
	})

	err := client.Get(context.Background(), "me", nil, nil)
	var apiErr *Error
	if !errors.As(err, &apiErr) {
		t.Fatalf("expected *Error, got %v", err)
	}
	if apiErr.Message != "error" {
		t.Errorf("expected fallback message, got %q", apiErr.Message)
	}
}

func TestClient_RetriesThenSucceeds(t *testing.T) {
	var calls int32
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if atomic.AddInt32(&calls, 1) < 3 {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		_, _ = w.Write([]byte(`{"ok":true}`))
	})

	var got struct {
		OK bool `json:"ok"`
	}
	if err := client.Get(context.Background(), "me", nil, &got); err != nil {
		t.Fatalf("Get: %v", err)
	}
	if !got.OK {
		t.Error("expected ok response")
	}
	if n := atomic.LoadInt32(&calls); n != 3 {
		t.Errorf("expected 3 calls, got %d", n)
	}
}

func TestClient_MaxRetries(t *testing.T) {
	var calls int32
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		w.WriteHeader(http.StatusTooManyRequests)
	})

	err := client.Get(context.Background(), "me", nil, nil)
	if !errors.Is(err, ErrMaxRetries) {
		t.Fatalf("expected ErrMaxRetries, got %v", err)
	}

	var apiErr *Error
	if !errors.As(err, &apiErr) || apiErr.Status != StatusMaxRetries {
		t.Errorf("expected status %d, got %v", StatusMaxRetries, err)
	}
	if n := atomic.LoadInt32(&calls); n != DefaultRetries+1 {
		t.Errorf("expected %d calls, got %d", DefaultRetries+1, n)
	}
}

func TestClient_ContextCancellation(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	})

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	if err := client.Get(ctx, "me", nil, nil); err == nil {
		t.Fatal("expected error for cancelled context")
	}
}

func TestClient_PostSendsJSON(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if ct := r.Header.Get("Content-Type"); ct != "application/json" {
			t.Errorf("expected json content type, got %q", ct)
		}
		var body map[string]interface{}
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
			t.Fatalf("decode body: %v", err)
		}
		if body["name"] != "Mix" {
			t.Errorf("expected name Mix, got %v", body["name"])
		}
		w.WriteHeader(http.StatusCreated)
		_, _ = w.Write([]byte(`{"id":"pl1"}`))
	})

	var got struct {
		ID string `json:"id"`
	}
	err := client.Post(context.Background(), "users/me/playlists", nil, map[string]string{"name": "Mix"}, &got)
	if err != nil {
		t.Fatalf("Post: %v", err)
	}
	if got.ID != "pl1" {
		t.Errorf("expected id pl1, got %q", got.ID)
	}
}

func TestPaging_Loaded(t *testing.T) {
	tests := []struct {
		name       string
		body       string
		wantLoaded bool
		wantNext   bool
	}{
		{"stub", `{"href":"https://x/tracks","total":12}`, false, false},
		{"last page", `{"href":"h","items":[],"next":null,"total":0}`, true, false},
		{"middle page", `{"href":"h","items":[{}],"next":"https://x?offset=1","total":2}`, true, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var p Paging
			if err := json.Unmarshal([]byte(tt.body), &p); err != nil {
				t.Fatalf("unmarshal: %v", err)
			}
			if p.Loaded() != tt.wantLoaded {
				t.Errorf("Loaded() = %v, want %v", p.Loaded(), tt.wantLoaded)
			}
			if p.HasNext() != tt.wantNext {
				t.Errorf("HasNext() = %v, want %v", p.HasNext(), tt.wantNext)
			}
		})
	}
}

func TestClient_Next(t *testing.T) {
	var server *httptest.Server
	server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Query().Get("offset") != "1" {
			t.Errorf("unexpected next url %s", r.URL)
		}
		_, _ = fmt.Fprintf(w, `{"href":"%s","items":[{"n":2}],"next":null,"offset":1,"total":2}`, server.URL)
	}))
	defer server.Close()

	client, err := NewClient(Config{BaseURL: server.URL})
	if err != nil {
		t.Fatalf("NewClient: %v", err)
	}

	first := Page(server.URL, server.URL+"/page?offset=1", 2, json.RawMessage(`{"n":1}`))
	second, err := client.Next(context.Background(), first)
	if err != nil {
		t.Fatalf("Next: %v", err)
	}
	if second == nil || len(second.Items) != 1 || second.Offset != 1 {
		t.Fatalf("unexpected second page: %+v", second)
	}

	third, err := client.Next(context.Background(), second)
	if err != nil || third != nil {
		t.Errorf("expected nil page after the last one, got %+v, %v", third, err)
	}
}

func TestParseID(t *testing.T) {
	tests := []struct {
		in       string
		wantKind string
		wantID   string
	}{
		{"spotify:track:6rqhFgbbKwnb9MLmUQDhG6", "track", "6rqhFgbbKwnb9MLmUQDhG6"},
		{"https://open.spotify.com/playlist/37i9dQZF1DXcBWIGoYBM5M?si=abc", "playlist", "37i9dQZF1DXcBWIGoYBM5M"},
		{"spotify:user:plamere:playlist:abc", "playlist", "abc"},
		{"3jOstUTkEu2JkjvRdBA5Gu", "", "3jOstUTkEu2JkjvRdBA5Gu"},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			kind, id := ParseID(tt.in)
			if kind != tt.wantKind || id != tt.wantID {
				t.Errorf("ParseID(%q) = (%q, %q), want (%q, %q)", tt.in, kind, id, tt.wantKind, tt.wantID)
			}
		})
	}

	client, _ := NewClient(Config{})
	if got := client.URI(KindArtist, "3jOstUTkEu2JkjvRdBA5Gu"); got != "spotify:artist:3jOstUTkEu2JkjvRdBA5Gu" {
		t.Errorf("URI() = %q", got)
	}
}

func TestClient_SearchMarkets(t *testing.T) {
	var markets []string
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()
		markets = append(markets, q.Get("market"))
		limit := q.Get("limit")
		items := make([]string, 0)
		for i := 0; i < 2; i++ {
			items = append(items, `{}`)
		}
		if limit == "1" {
			items = items[:1]
		}
		_, _ = fmt.Fprintf(w, `{"tracks":{"href":"h","items":[%s],"next":null,"total":50}}`, strings.Join(items, ","))
	})

	results, err := client.SearchMarkets(context.Background(), "daft punk", SearchOptions{Limit: 2}, []string{"US", "CA", "MX", "GB"}, 3)
	if err != nil {
		t.Fatalf("SearchMarkets: %v", err)
	}
	if len(markets) != 2 {
		t.Fatalf("expected search to stop after 2 markets, searched %v", markets)
	}
	if _, ok := results["CA"]; !ok {
		t.Error("expected CA results")
	}
	if got := len(results["CA"]["tracks"].Items); got != 1 {
		t.Errorf("expected CA limit to shrink to 1, got %d items", got)
	}
}

func TestClient_SearchEmptyQuery(t *testing.T) {
	client, _ := NewClient(Config{})
	if _, err := client.Search(context.Background(), "", SearchOptions{}); err == nil {
		t.Error("expected error for empty query")
	}
}
