package aiprovider

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"
)

func TestChatSendsAuthAndParsesReply(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/v1/chat/completions" {
			w.WriteHeader(http.StatusNotFound)
			return
		}
		if r.Header.Get("Authorization") != "Bearer test-key" {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		var req struct {
			Messages []Message `json:"messages"`
		}
		_ = json.NewDecoder(r.Body).Decode(&req)
		if len(req.Messages) != 2 {
			w.WriteHeader(http.StatusBadRequest)
			return
		}
		_, _ = w.Write([]byte(`{"choices":[{"message":{"role":"assistant","content":"hi there"}}]}`))
	}))
	t.Cleanup(server.Close)

	client := NewClient(Config{BaseURL: server.URL, APIKey: "test-key", Timeout: time.Second})
	reply, err := client.Chat(context.Background(), []Message{
		{Role: "system", Content: "be nice"},
		{Role: "user", Content: "hello"},
	})
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if reply != "hi there" {
		t.Fatalf("unexpected reply %q", reply)
	}
}

func TestGenerateImageDecodesBase64(t *testing.T) {
	payload := base64.StdEncoding.EncodeToString([]byte("pixels"))
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"data":[{"b64_json":"` + payload + `"}]}`))
	}))
	t.Cleanup(server.Close)

	img, err := NewClient(Config{BaseURL: server.URL}).GenerateImage(context.Background(), "a cat", "512x512")
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if string(img) != "pixels" {
		t.Fatalf("unexpected image bytes %q", img)
	}
}

func TestSpeakReturnsAudio(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "audio/ogg")
		_, _ = w.Write([]byte("ogg-bytes"))
	}))
	t.Cleanup(server.Close)

	audio, contentType, err := NewClient(Config{BaseURL: server.URL}).Speak(context.Background(), "hello", "alloy")
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if string(audio) != "ogg-bytes" || contentType != "audio/ogg" {
		t.Fatalf("unexpected audio %q %q", audio, contentType)
	}
}

func TestHTTPErrorIncludesBody(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
		_, _ = w.Write([]byte("rate limited"))
	}))
	t.Cleanup(server.Close)

	_, err := NewClient(Config{BaseURL: server.URL}).GenerateVideo(context.Background(), "waves", 5)
	if err == nil {
		t.Fatal("expected error")
	}
	if !strings.Contains(err.Error(), "status=429") || !strings.Contains(err.Error(), "rate limited") {
		t.Fatalf("unexpected error %v", err)
	}
}

func TestEmptyChoicesIsEmptyResult(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"choices":[]}`))
	}))
	t.Cleanup(server.Close)

	_, err := NewClient(Config{BaseURL: server.URL}).Chat(context.Background(), nil)
	if !errors.Is(err, ErrEmptyResult) {
		t.Fatalf("expected ErrEmptyResult, got %v", err)
	}
}

func TestTimeoutIsClassified(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		time.Sleep(200 * time.Millisecond)
	}))
	t.Cleanup(server.Close)

	_, err := NewClient(Config{BaseURL: server.URL, Timeout: 50 * time.Millisecond}).Chat(context.Background(), nil)
	if err == nil || !strings.Contains(err.Error(), "timeout") {
		t.Fatalf("expected timeout error, got %v", err)
	}
}

func TestMissingBaseURL(t *testing.T) {
	_, err := NewClient(Config{}).Chat(context.Background(), nil)
	if !errors.Is(err, ErrNotConfigured) {
		t.Fatalf("expected ErrNotConfigured, got %v", err)
	}
}
