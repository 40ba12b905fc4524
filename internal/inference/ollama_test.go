package inference

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
)

func TestOllama_Complete(t *testing.T) {
	var got ollamaChatRequest
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/chat" || r.Method != http.MethodPost {
			t.Errorf("unexpected %s %s", r.Method, r.URL.Path)
		}
		_ = json.NewDecoder(r.Body).Decode(&got)
		_ = json.NewEncoder(w).Encode(map[string]interface{}{
			"message": map[string]string{"role": "assistant", "content": "Try ETH Zurich."},
			"done":    true,
		})
	}))
	defer srv.Close()

	o := NewOllama(srv.URL+"/", "test-model", time.Second)
	res, err := o.Complete(context.Background(), Request{
		Messages:               []Turn{{Role: RoleUser, Content: "hi"}},
		PersonalizationContext: "ctx",
	})
	if err != nil {
		t.Fatalf("complete: %v", err)
	}
	if res.Content != "Try ETH Zurich." {
		t.Fatalf("content %q", res.Content)
	}
	if got.Model != "test-model" || got.Stream || len(got.Messages) != 2 || got.Messages[0].Role != "system" || got.Messages[0].Content != "ctx" {
		t.Fatalf("request %+v", got)
	}
}

func TestOllama_Defaults(t *testing.T) {
	o := NewOllama("", "", 0)
	if o.BaseURL != "http://localhost:11434" || o.Model != "llama3.2" || o.HTTP.Timeout != 60*time.Second {
		t.Fatalf("defaults %+v", o)
	}
}

func TestOllama_StatusError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
		_, _ = w.Write([]byte(`{"error":"model not found"}`))
	}))
	defer srv.Close()

	_, err := NewOllama(srv.URL, "m", time.Second).Complete(context.Background(), Request{})
	var ie *Error
	if !errors.As(err, &ie) || ie.Status != http.StatusNotFound || ie.Message != "model not found" {
		t.Fatalf("got %v", err)
	}
}

func TestOllama_EmptyReply(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"message":{"role":"assistant","content":"  "},"done":true}`))
	}))
	defer srv.Close()

	if _, err := NewOllama(srv.URL, "m", time.Second).Complete(context.Background(), Request{}); !errors.Is(err, ErrEmptyReply) {
		t.Fatalf("got %v", err)
	}
}

func TestOllama_Cancelled(t *testing.T) {
	release := make(chan struct{})
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		<-release
	}))
	defer srv.Close()
	defer close(release)

	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		time.Sleep(20 * time.Millisecond)
		cancel()
	}()
	_, err := NewOllama(srv.URL, "m", 5*time.Second).Complete(ctx, Request{})
	if !IsCancellation(err) {
		t.Fatalf("want cancellation, got %v", err)
	}
}
