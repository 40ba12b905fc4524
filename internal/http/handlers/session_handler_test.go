package handlers

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/JeevaSuryaWorks/emergentiq-advisor/internal/domain"
	"github.com/JeevaSuryaWorks/emergentiq-advisor/internal/inference"
	"github.com/JeevaSuryaWorks/emergentiq-advisor/internal/services"
)

func TestSessions_CreateSendAndList(t *testing.T) {
	e := newTestEnv(t, echoLLM)
	id := e.openSession(t)
	if _, err := uuid.Parse(id); err != nil {
		t.Fatalf("session id %q: %v", id, err)
	}

	w := e.do(t, http.MethodPost, "/sessions/"+id+"/messages", SendMessageRequest{Content: "Best engineering colleges in Germany?\r\n\r\n\r\n"})
	if w.Code != http.StatusOK {
		t.Fatalf("send: %d %s", w.Code, w.Body.String())
	}
	resp := decode[SendMessageResponse](t, w)
	if resp.Superseded || resp.Message == nil {
		t.Fatalf("response %+v", resp)
	}
	if resp.Message.Role != domain.RoleAssistant || resp.Message.Content != "Reply to: Best engineering colleges in Germany?" {
		t.Fatalf("reply %+v", resp.Message)
	}
	if resp.Title == "" {
		t.Fatal("first message should title the session")
	}

	w = e.do(t, http.MethodGet, "/sessions/"+id+"/messages", nil)
	snap := decode[services.Snapshot](t, w)
	if len(snap.Messages) != 2 || snap.Messages[0].Role != domain.RoleUser || snap.Loading {
		t.Fatalf("history %+v", snap)
	}

	w = e.do(t, http.MethodGet, "/sessions", nil)
	list := decode[ListSessionsResponse](t, w)
	if list.Pagination.Total != 1 || len(list.Sessions) != 1 || list.Sessions[0].Title != resp.Title {
		t.Fatalf("list %+v", list)
	}

	w = e.do(t, http.MethodGet, "/sessions/"+id, nil)
	detail := decode[SessionDetail](t, w)
	if !detail.Live || detail.ID != id {
		t.Fatalf("detail %+v", detail)
	}
}

func TestOpenSession_Resume(t *testing.T) {
	e := newTestEnv(t, echoLLM)
	id := e.openSession(t)
	_ = e.do(t, http.MethodPost, "/sessions/"+id+"/messages", SendMessageRequest{Content: "hello"})

	// Evict the controller so resuming reloads the stored history.
	e.mgr.Close(id)
	w := e.do(t, http.MethodPost, "/sessions", OpenSessionRequest{SessionID: id})
	if w.Code != http.StatusOK {
		t.Fatalf("resume: %d %s", w.Code, w.Body.String())
	}
	if snap := decode[services.Snapshot](t, w); snap.SessionID != id || len(snap.Messages) != 2 {
		t.Fatalf("resumed %+v", snap)
	}

	w = e.do(t, http.MethodPost, "/sessions", OpenSessionRequest{SessionID: id}, "X-User-ID", "intruder")
	expectError(t, w, http.StatusNotFound, ErrCodeNotFound)

	w = e.do(t, http.MethodPost, "/sessions", OpenSessionRequest{SessionID: "nope"})
	expectError(t, w, http.StatusBadRequest, ErrCodeBadRequest)

	w = e.do(t, http.MethodPost, "/sessions", "{bad")
	expectError(t, w, http.StatusBadRequest, ErrCodeBadRequest)
}

func TestSendMessage_Validation(t *testing.T) {
	e := newTestEnv(t, echoLLM)
	id := e.openSession(t)

	cases := []struct {
		name   string
		path   string
		body   any
		status int
		code   string
	}{
		{"missing content", "/sessions/" + id + "/messages", `{}`, http.StatusBadRequest, ErrCodeBadRequest},
		{"whitespace only", "/sessions/" + id + "/messages", SendMessageRequest{Content: " \n\n "}, http.StatusBadRequest, ErrCodeBadRequest},
		{"too long", "/sessions/" + id + "/messages", SendMessageRequest{Content: strings.Repeat("é", 201)}, http.StatusBadRequest, ErrCodeTooLong},
		{"bad id", "/sessions/not-a-uuid/messages", SendMessageRequest{Content: "hi"}, http.StatusBadRequest, ErrCodeBadRequest},
		{"unknown session", "/sessions/" + uuid.NewString() + "/messages", SendMessageRequest{Content: "hi"}, http.StatusNotFound, ErrCodeNotFound},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			w := e.do(t, http.MethodPost, tc.path, tc.body)
			er := expectError(t, w, tc.status, tc.code)
			if tc.code == ErrCodeTooLong && !strings.Contains(er.Message, "max 200") {
				t.Fatalf("message %q", er.Message)
			}
		})
	}

	w := e.do(t, http.MethodGet, "/sessions/"+id+"/messages", nil)
	if snap := decode[services.Snapshot](t, w); len(snap.Messages) != 0 {
		t.Fatalf("rejected messages must not be recorded: %+v", snap.Messages)
	}
}

func TestSendMessage_InferenceFailure(t *testing.T) {
	failing := inference.ClientFunc(func(context.Context, inference.Request) (*inference.Response, error) {
		return nil, &inference.Error{Provider: "test", Status: 500, Message: "model overloaded", Err: errors.New("boom")}
	})
	e := newTestEnv(t, failing)
	id := e.openSession(t)

	w := e.do(t, http.MethodPost, "/sessions/"+id+"/messages", SendMessageRequest{Content: "hello"})
	er := expectError(t, w, http.StatusBadGateway, ErrCodeInferenceFailed)
	if !strings.Contains(er.Message, "model overloaded") {
		t.Fatalf("message %q", er.Message)
	}

	w = e.do(t, http.MethodGet, "/sessions/"+id+"/messages", nil)
	snap := decode[services.Snapshot](t, w)
	if len(snap.Messages) != 1 || snap.Messages[0].Role != domain.RoleUser {
		t.Fatalf("user message must stay: %+v", snap.Messages)
	}
	if snap.LastError == "" || snap.Loading {
		t.Fatalf("snapshot %+v", snap)
	}

	// The session still got a title from the user message.
	w = e.do(t, http.MethodGet, "/sessions/"+id, nil)
	if d := decode[SessionDetail](t, w); d.Title == "New chat" || d.LastError == "" {
		t.Fatalf("detail %+v", d)
	}
}

func TestSendMessage_Unavailable(t *testing.T) {
	open := inference.ClientFunc(func(context.Context, inference.Request) (*inference.Response, error) {
		return nil, inference.ErrUnavailable
	})
	e := newTestEnv(t, open)
	id := e.openSession(t)
	w := e.do(t, http.MethodPost, "/sessions/"+id+"/messages", SendMessageRequest{Content: "hello"})
	expectError(t, w, http.StatusServiceUnavailable, ErrCodeAdvisorUnavailable)
}

func TestSendMessage_CancelSupersedes(t *testing.T) {
	started := make(chan struct{}, 1)
	blocking := inference.ClientFunc(func(ctx context.Context, _ inference.Request) (*inference.Response, error) {
		started <- struct{}{}
		<-ctx.Done()
		return nil, ctx.Err()
	})
	e := newTestEnv(t, blocking)
	id := e.openSession(t)

	done := make(chan *httptest.ResponseRecorder, 1)
	go func() {
		done <- e.do(t, http.MethodPost, "/sessions/"+id+"/messages", SendMessageRequest{Content: "slow question"})
	}()

	select {
	case <-started:
	case <-time.After(5 * time.Second):
		t.Fatal("request never reached the backend")
	}
	w := e.do(t, http.MethodGet, "/sessions/"+id, nil)
	if d := decode[SessionDetail](t, w); !d.Loading {
		t.Fatalf("expected loading while in flight: %+v", d)
	}

	if w := e.do(t, http.MethodPost, "/sessions/"+id+"/cancel", nil); w.Code != http.StatusNoContent {
		t.Fatalf("cancel: %d", w.Code)
	}

	select {
	case rec := <-done:
		if rec.Code != http.StatusOK {
			t.Fatalf("send: %d %s", rec.Code, rec.Body.String())
		}
		resp := decode[SendMessageResponse](t, rec)
		if !resp.Superseded || resp.Message != nil {
			t.Fatalf("want superseded, got %+v", resp)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("send did not return after cancel")
	}

	w = e.do(t, http.MethodGet, "/sessions/"+id+"/messages", nil)
	snap := decode[services.Snapshot](t, w)
	if snap.Loading || snap.LastError != "" || len(snap.Messages) != 1 {
		t.Fatalf("after cancel %+v", snap)
	}
}

func TestCancelRequest_NotLive(t *testing.T) {
	e := newTestEnv(t, echoLLM)
	id := e.openSession(t)
	e.mgr.Close(id)

	if w := e.do(t, http.MethodPost, "/sessions/"+id+"/cancel", nil); w.Code != http.StatusNoContent {
		t.Fatalf("cancel idle: %d", w.Code)
	}
	w := e.do(t, http.MethodPost, "/sessions/"+id+"/cancel", nil, "X-User-ID", "intruder")
	expectError(t, w, http.StatusNotFound, ErrCodeNotFound)
}

func TestClearMessages(t *testing.T) {
	e := newTestEnv(t, echoLLM)
	id := e.openSession(t)
	_ = e.do(t, http.MethodPost, "/sessions/"+id+"/messages", SendMessageRequest{Content: "hello"})

	if w := e.do(t, http.MethodDelete, "/sessions/"+id+"/messages", nil); w.Code != http.StatusNoContent {
		t.Fatalf("clear: %d %s", w.Code, w.Body.String())
	}
	w := e.do(t, http.MethodGet, "/sessions/"+id+"/messages", nil)
	if snap := decode[services.Snapshot](t, w); len(snap.Messages) != 0 || snap.SessionID != id {
		t.Fatalf("after clear %+v", snap)
	}
}

func TestSessions_RenameAndDelete(t *testing.T) {
	e := newTestEnv(t, echoLLM)
	id := e.openSession(t)

	if w := e.do(t, http.MethodPut, "/sessions/"+id+"/title", RenameSessionRequest{Title: "Engineering in Germany"}); w.Code != http.StatusNoContent {
		t.Fatalf("rename: %d %s", w.Code, w.Body.String())
	}
	w := e.do(t, http.MethodGet, "/sessions/"+id, nil)
	if d := decode[SessionDetail](t, w); d.Title != "Engineering in Germany" {
		t.Fatalf("title %q", d.Title)
	}

	w = e.do(t, http.MethodPut, "/sessions/"+id+"/title", RenameSessionRequest{Title: strings.Repeat("x", 256)})
	expectError(t, w, http.StatusBadRequest, ErrCodeBadRequest)

	w = e.do(t, http.MethodPut, "/sessions/"+id+"/title", RenameSessionRequest{Title: "Mine"}, "X-User-ID", "intruder")
	expectError(t, w, http.StatusNotFound, ErrCodeNotFound)

	if w := e.do(t, http.MethodDelete, "/sessions/"+id, nil); w.Code != http.StatusNoContent {
		t.Fatalf("delete: %d", w.Code)
	}
	if _, err := e.mgr.Get(id, "u1"); err == nil {
		t.Fatal("delete should close the live controller")
	}
	expectError(t, e.do(t, http.MethodGet, "/sessions/"+id, nil), http.StatusNotFound, ErrCodeNotFound)
	expectError(t, e.do(t, http.MethodDelete, "/sessions/"+id, nil), http.StatusNotFound, ErrCodeNotFound)
}

func TestListSessions_ETagAndPagination(t *testing.T) {
	e := newTestEnv(t, echoLLM)
	for i := 0; i < 3; i++ {
		_ = e.openSession(t)
	}

	w := e.do(t, http.MethodGet, "/sessions?page=1&page_size=2", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("list: %d", w.Code)
	}
	etag := w.Header().Get("ETag")
	if !strings.HasPrefix(etag, `W/"sessions:u1:3:`) {
		t.Fatalf("etag %q", etag)
	}
	list := decode[ListSessionsResponse](t, w)
	if len(list.Sessions) != 2 || list.Pagination.TotalPages != 2 || !list.Pagination.HasNext {
		t.Fatalf("page %+v", list.Pagination)
	}

	w = e.do(t, http.MethodGet, "/sessions?page=1&page_size=2", nil, "If-None-Match", etag)
	if w.Code != http.StatusNotModified || w.Body.Len() != 0 {
		t.Fatalf("want 304, got %d", w.Code)
	}

	w = e.do(t, http.MethodGet, "/sessions?page=2&page_size=2", nil, "If-None-Match", etag)
	if w.Code != http.StatusOK {
		t.Fatalf("another page must not match: %d", w.Code)
	}
	if n := len(decode[ListSessionsResponse](t, w).Sessions); n != 1 {
		t.Fatalf("page 2 size %d", n)
	}

	_ = e.openSession(t)
	w = e.do(t, http.MethodGet, "/sessions?page=1&page_size=2", nil, "If-None-Match", etag)
	if w.Code != http.StatusOK || w.Header().Get("ETag") == etag {
		t.Fatalf("etag must change after a new session: %d", w.Code)
	}

	w = e.do(t, http.MethodGet, "/sessions", nil, "X-User-ID", "someone-else")
	if list := decode[ListSessionsResponse](t, w); list.Pagination.Total != 0 || list.Sessions == nil {
		t.Fatalf("other user %+v", list)
	}
}

func TestListSessions_WithoutStats(t *testing.T) {
	e := newTestEnv(t, echoLLM, func(d *Deps) { d.StatsDB = nil })
	_ = e.openSession(t)
	w := e.do(t, http.MethodGet, "/sessions", nil)
	if w.Code != http.StatusOK || w.Header().Get("ETag") != "" {
		t.Fatalf("status=%d etag=%q", w.Code, w.Header().Get("ETag"))
	}
}

func TestSanitizeContent(t *testing.T) {
	cases := map[string]string{
		"  hi  ":             "hi",
		"a\r\nb":             "a\nb",
		"a\rb":               "a\nb",
		"a\n\n\n\n\nb":       "a\n\nb",
		"para1\n\npara2\n\n": "para1\n\npara2",
	}
	for in, want := range cases {
		if got := sanitizeContent(in); got != want {
			t.Errorf("sanitizeContent(%q)=%q want %q", in, got, want)
		}
	}
}
