package whisper

import (
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"
)

func writeTestAudio(t *testing.T) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "audio.wav")
	if err := os.WriteFile(path, []byte("RIFF-fake-wav"), 0o644); err != nil {
		t.Fatalf("failed to write test audio: %v", err)
	}
	return path
}

func TestClient_Transcribe(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/inference" {
			t.Errorf("Expected /inference, got %s", r.URL.Path)
		}
		if err := r.ParseMultipartForm(1 << 20); err != nil {
			t.Errorf("Expected multipart form: %v", err)
		}
		if got := r.FormValue("response_format"); got != "verbose_json" {
			t.Errorf("Expected verbose_json format, got %q", got)
		}
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"segments":[
			{"start":0.0,"end":2.4,"text":"hello there"},
			{"start":2.4,"end":2.4,"text":"zero span"},
			{"start":2.4,"end":5.1,"text":"general kenobi"}
		]}`))
	}))
	defer srv.Close()

	client := NewClient(Config{BaseURL: srv.URL, Timeout: 5 * time.Second, Language: "auto"})
	segments, err := client.Transcribe(context.Background(), writeTestAudio(t))
	if err != nil {
		t.Fatalf("Transcribe failed: %v", err)
	}

	if len(segments) != 2 {
		t.Fatalf("Expected 2 valid segments, got %d", len(segments))
	}
	if segments[0].Text != "hello there" || segments[1].Text != "general kenobi" {
		t.Errorf("Unexpected segment texts: %+v", segments)
	}
	if segments[1].Start != 2.4 || segments[1].End != 5.1 {
		t.Errorf("Unexpected segment timing: %+v", segments[1])
	}
}

func TestClient_TranscribeServerError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "model busy", http.StatusServiceUnavailable)
	}))
	defer srv.Close()

	client := NewClient(Config{BaseURL: srv.URL, Timeout: 5 * time.Second})
	if _, err := client.Transcribe(context.Background(), writeTestAudio(t)); err == nil {
		t.Fatal("Expected error on 503 response")
	}
}

func TestClient_TranscribeMissingFile(t *testing.T) {
	client := NewClient(DefaultConfig())
	if _, err := client.Transcribe(context.Background(), "/nonexistent/audio.wav"); err == nil {
		t.Fatal("Expected error for missing audio file")
	}
}
