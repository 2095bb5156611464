package synth

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
)

func newTestEngine(t *testing.T, handler http.HandlerFunc) *HTTPEngine {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	return NewHTTPEngine(HTTPConfig{
		Endpoint: srv.URL,
		APIKey:   "test-key",
	})
}

func TestHTTPEngineSynthesize(t *testing.T) {
	var gotReq synthesizeRequest
	engine := newTestEngine(t, func(w http.ResponseWriter, r *http.Request) {
		if auth := r.Header.Get("Authorization"); auth != "Bearer test-key" {
			t.Errorf("Authorization = %q, want bearer credential", auth)
		}
		if err := json.NewDecoder(r.Body).Decode(&gotReq); err != nil {
			t.Errorf("bad request body: %v", err)
		}
		_ = json.NewEncoder(w).Encode(synthesizeResponse{Audio: "UklGRg=="})
	})

	audio, err := engine.Synthesize(context.Background(), "read me", "amber")
	if err != nil {
		t.Fatalf("Synthesize failed: %v", err)
	}
	if audio != "UklGRg==" {
		t.Errorf("audio = %q, want encoded payload", audio)
	}
	if gotReq.Text != "read me" || gotReq.Voice != "amber" {
		t.Errorf("request = %+v, want text/voice passed through", gotReq)
	}
}

func TestHTTPEngineStatusMapping(t *testing.T) {
	tests := []struct {
		name   string
		status int
		want   error
	}{
		{"unauthorized", http.StatusUnauthorized, ErrAuth},
		{"forbidden", http.StatusForbidden, ErrAuth},
		{"rate limited", http.StatusTooManyRequests, ErrQuota},
		{"server error", http.StatusInternalServerError, ErrNetwork},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			engine := newTestEngine(t, func(w http.ResponseWriter, _ *http.Request) {
				w.WriteHeader(tt.status)
			})
			if _, err := engine.Synthesize(context.Background(), "x", "amber"); !errors.Is(err, tt.want) {
				t.Errorf("error = %v, want %v", err, tt.want)
			}
		})
	}
}

func TestHTTPEngineEmptyAudio(t *testing.T) {
	engine := newTestEngine(t, func(w http.ResponseWriter, _ *http.Request) {
		_ = json.NewEncoder(w).Encode(synthesizeResponse{})
	})
	if _, err := engine.Synthesize(context.Background(), "x", "amber"); !errors.Is(err, ErrEmptyAudio) {
		t.Errorf("error = %v, want ErrEmptyAudio", err)
	}
}

func TestHTTPEngineMissingKey(t *testing.T) {
	called := false
	srv := httptest.NewServer(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {
		called = true
	}))
	defer srv.Close()

	engine := NewHTTPEngine(HTTPConfig{Endpoint: srv.URL})
	if _, err := engine.Synthesize(context.Background(), "x", "amber"); !errors.Is(err, ErrAuth) {
		t.Errorf("error = %v, want ErrAuth", err)
	}
	if called {
		t.Error("request was sent without a credential")
	}
	if engine.Available() {
		t.Error("engine without key reports available")
	}
}

func TestHTTPEngineTransportError(t *testing.T) {
	engine := NewHTTPEngine(HTTPConfig{
		Endpoint: "http://127.0.0.1:1", // nothing listens here
		APIKey:   "test-key",
	})
	if _, err := engine.Synthesize(context.Background(), "x", "amber"); !errors.Is(err, ErrNetwork) {
		t.Errorf("error = %v, want ErrNetwork", err)
	}
}
