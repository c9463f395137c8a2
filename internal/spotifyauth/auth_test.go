package spotifyauth

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/oauth2"
)

func newTestAuthenticator(t *testing.T) *Authenticator {
	t.Helper()
	a, err := New(Config{
		ClientID:     "client-id",
		ClientSecret: "client-secret",
		TokenFile:    filepath.Join(t.TempDir(), "token.json"),
	}, zerolog.Nop())
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	return a
}

func TestNew_RequiresCredentials(t *testing.T) {
	if _, err := New(Config{ClientID: "only-id"}, zerolog.Nop()); err == nil {
		t.Fatal("expected error without client secret")
	}
}

func TestTokenStorage_RoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "token.json")
	storage, err := NewTokenStorage(path)
	if err != nil {
		t.Fatalf("NewTokenStorage: %v", err)
	}

	got, err := storage.Load()
	if err != nil || got != nil {
		t.Fatalf("expected nil token before save, got %v, %v", got, err)
	}

	want := &oauth2.Token{
		AccessToken:  "access",
		RefreshToken: "refresh",
		TokenType:    "Bearer",
		Expiry:       time.Date(2030, 1, 1, 0, 0, 0, 0, time.UTC),
	}
	if err := storage.Save(want); err != nil {
		t.Fatalf("Save: %v", err)
	}

	info, err := os.Stat(path)
	if err != nil {
		t.Fatalf("stat: %v", err)
	}
	if perm := info.Mode().Perm(); perm != 0600 {
		t.Errorf("expected 0600 permissions, got %o", perm)
	}

	got, err = storage.Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if got.AccessToken != want.AccessToken || got.RefreshToken != want.RefreshToken || !got.Expiry.Equal(want.Expiry) {
		t.Errorf("expected %+v, got %+v", want, got)
	}

	if err := storage.Delete(); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	if err := storage.Delete(); err != nil {
		t.Errorf("deleting a missing token should succeed, got %v", err)
	}
}

func TestHTTPClient_RequiresLogin(t *testing.T) {
	a := newTestAuthenticator(t)
	if _, err := a.HTTPClient(context.Background()); !errors.Is(err, ErrNoToken) {
		t.Fatalf("expected ErrNoToken, got %v", err)
	}
}

func TestHTTPClient_UsesStoredToken(t *testing.T) {
	a := newTestAuthenticator(t)
	if err := a.Storage().Save(&oauth2.Token{
		AccessToken: "stored-access",
		TokenType:   "Bearer",
		Expiry:      time.Now().Add(time.Hour),
	}); err != nil {
		t.Fatalf("Save: %v", err)
	}

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if got := r.Header.Get("Authorization"); got != "Bearer stored-access" {
			t.Errorf("expected bearer token, got %q", got)
		}
	}))
	defer server.Close()

	client, err := a.HTTPClient(context.Background())
	if err != nil {
		t.Fatalf("HTTPClient: %v", err)
	}
	resp, err := client.Get(server.URL)
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	_ = resp.Body.Close()
}

func TestCallbackRouter_RejectsBadCallbacks(t *testing.T) {
	tests := []struct {
		name  string
		query string
	}{
		{name: "state mismatch", query: "?code=abc&state=wrong"},
		{name: "user denied", query: "?error=access_denied&state=expected"},
		{name: "missing code", query: "?state=expected"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			a := newTestAuthenticator(t)
			results := make(chan callbackResult, 1)
			router := a.callbackRouter("/callback", "expected", results)

			rec := httptest.NewRecorder()
			router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/callback"+tt.query, nil))

			if rec.Code != http.StatusBadRequest {
				t.Errorf("expected 400, got %d", rec.Code)
			}
			select {
			case res := <-results:
				if res.err == nil || res.token != nil {
					t.Errorf("expected an error result, got %+v", res)
				}
			default:
				t.Fatal("expected a callback result")
			}
		})
	}
}

func TestCallbackRouter_UnknownPath(t *testing.T) {
	a := newTestAuthenticator(t)
	results := make(chan callbackResult, 1)
	router := a.callbackRouter("/callback", "expected", results)

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/elsewhere", nil))

	if rec.Code != http.StatusNotFound {
		t.Errorf("expected 404, got %d", rec.Code)
	}
	if len(results) != 0 {
		t.Error("unexpected callback result")
	}
}
