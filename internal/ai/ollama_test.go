package ai

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
)

func newOllamaTestServer(t *testing.T, response string, status int) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/api/tags":
			w.WriteHeader(http.StatusOK)
		case "/api/generate":
			var req generateRequest
			if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
				t.Errorf("bad request body: %v", err)
			}
			if req.Stream {
				t.Error("client requested streaming")
			}
			if req.Model == "" {
				t.Error("client sent empty model")
			}
			w.WriteHeader(status)
			json.NewEncoder(w).Encode(generateResponse{Response: response, Done: true})
		default:
			http.NotFound(w, r)
		}
	}))
}

func TestOllamaGenerate(t *testing.T) {
	srv := newOllamaTestServer(t, "  Box this lap for softs.  ", http.StatusOK)
	defer srv.Close()

	c := NewOllamaClient(OllamaOptions{URL: srv.URL})
	got, err := c.Generate(context.Background(), "should I pit?")
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}
	if got != "Box this lap for softs." {
		t.Errorf("Generate = %q, want trimmed response", got)
	}
}

func TestOllamaGenerateServerError(t *testing.T) {
	srv := newOllamaTestServer(t, "", http.StatusInternalServerError)
	defer srv.Close()

	c := NewOllamaClient(OllamaOptions{URL: srv.URL})
	if _, err := c.Generate(context.Background(), "q"); err == nil {
		t.Error("Generate on 500 should error")
	}
}

func TestOllamaGenerateAPIError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(generateResponse{Error: "model not found"})
	}))
	defer srv.Close()

	c := NewOllamaClient(OllamaOptions{URL: srv.URL})
	if _, err := c.Generate(context.Background(), "q"); err == nil {
		t.Error("Generate on API error should error")
	}
}

func TestOllamaIsAvailable(t *testing.T) {
	srv := newOllamaTestServer(t, "ok", http.StatusOK)
	c := NewOllamaClient(OllamaOptions{URL: srv.URL})
	if !c.IsAvailable(context.Background()) {
		t.Error("IsAvailable = false against live server")
	}

	srv.Close()
	if c.IsAvailable(context.Background()) {
		t.Error("IsAvailable = true against closed server")
	}
}

func TestOllamaDefaults(t *testing.T) {
	c := NewOllamaClient(OllamaOptions{})
	if c.baseURL != DefaultOllamaURL {
		t.Errorf("baseURL = %q, want %q", c.baseURL, DefaultOllamaURL)
	}
	if c.Model() != DefaultOllamaModel {
		t.Errorf("Model() = %q, want %q", c.Model(), DefaultOllamaModel)
	}
}
