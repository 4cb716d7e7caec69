package nsfw

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
)

func TestClient_Classify(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/classify" {
			t.Errorf("Expected /classify, got %s", r.URL.Path)
		}
		if err := r.ParseMultipartForm(1 << 20); err != nil {
			t.Errorf("Expected multipart form: %v", err)
		}
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"predictions":[
			{"className":"Porn","probability":0.82},
			{"className":"Sexy","probability":0.11},
			{"className":"Neutral","probability":0.05}
		]}`))
	}))
	defer srv.Close()

	client := NewClient(Config{BaseURL: srv.URL, Timeout: 5 * time.Second})
	scores, err := client.Classify(context.Background(), []byte("fake-png"))
	if err != nil {
		t.Fatalf("Classify failed: %v", err)
	}

	if scores["porn"] != 0.82 {
		t.Errorf("Expected porn score 0.82, got %f", scores["porn"])
	}
	if scores["sexy"] != 0.11 {
		t.Errorf("Expected sexy score 0.11, got %f", scores["sexy"])
	}
	if _, ok := scores["hentai"]; ok {
		t.Error("Expected no hentai key when classifier omits it")
	}
}

func TestClient_ClassifyServerError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "model not loaded", http.StatusInternalServerError)
	}))
	defer srv.Close()

	client := NewClient(Config{BaseURL: srv.URL, Timeout: 5 * time.Second})
	if _, err := client.Classify(context.Background(), []byte("fake")); err == nil {
		t.Fatal("Expected error on 500 response")
	}
}

func TestClient_Ping(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/health" {
			w.WriteHeader(http.StatusOK)
			return
		}
		w.WriteHeader(http.StatusNotFound)
	}))
	defer srv.Close()

	client := NewClient(Config{BaseURL: srv.URL, Timeout: 5 * time.Second})
	if err := client.Ping(context.Background()); err != nil {
		t.Fatalf("Ping failed: %v", err)
	}
}
