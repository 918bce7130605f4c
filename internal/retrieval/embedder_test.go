package retrieval

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestEmbedder_Embed(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			t.Errorf("expected POST, got %s", r.Method)
		}
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"data":[{"embedding":[0.1,0.2,0.3]}]}`))
	}))
	defer server.Close()

	vec, err := NewEmbedder(server.URL, "").Embed(context.Background(), "hello")
	if err != nil {
		t.Fatalf("embed: %v", err)
	}
	if len(vec) != 3 || vec[0] != 0.1 {
		t.Errorf("unexpected vector %v", vec)
	}
}

func TestEmbedder_SendsConfiguredModel(t *testing.T) {
	var got map[string]any
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if err := json.NewDecoder(r.Body).Decode(&got); err != nil {
			t.Errorf("decode request: %v", err)
		}
		w.Write([]byte(`{"data":[{"embedding":[0.5]}]}`))
	}))
	defer server.Close()

	if _, err := NewEmbedder(server.URL, "nomic-embed-text").Embed(context.Background(), "hello"); err != nil {
		t.Fatalf("embed: %v", err)
	}
	if got["model"] != "nomic-embed-text" {
		t.Errorf("expected configured model in request, got %v", got["model"])
	}
	if got["input"] != "hello" {
		t.Errorf("expected query text in request, got %v", got["input"])
	}
}

func TestEmbedder_OmitsModelWhenUnset(t *testing.T) {
	var got map[string]any
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewDecoder(r.Body).Decode(&got)
		w.Write([]byte(`{"data":[{"embedding":[0.5]}]}`))
	}))
	defer server.Close()

	if _, err := NewEmbedder(server.URL, "").Embed(context.Background(), "hello"); err != nil {
		t.Fatalf("embed: %v", err)
	}
	if _, present := got["model"]; present {
		t.Errorf("unset model must not be sent, got %v", got["model"])
	}
}

func TestEmbedder_ErrorPaths(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "model not loaded", http.StatusServiceUnavailable)
	}))
	defer server.Close()

	if _, err := NewEmbedder(server.URL, "").Embed(context.Background(), "hello"); err == nil {
		t.Errorf("expected an error on 503")
	}

	empty := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"data":[]}`))
	}))
	defer empty.Close()

	if _, err := NewEmbedder(empty.URL, "").Embed(context.Background(), "hello"); err == nil {
		t.Errorf("expected an error on empty data")
	}
}
