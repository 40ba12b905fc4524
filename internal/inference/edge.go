package inference

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/JeevaSuryaWorks/emergentiq-advisor/internal/auth"
)

// EdgeFunction invokes a Supabase edge function at
// {ProjectURL}/functions/v1/{Name}. The request and response bodies are the
// JSON forms of Request and Response. The caller's bearer token from the
// request context is forwarded so the function runs with the user's
// row-level permissions; the project key is used when there is none.
type EdgeFunction struct {
	ProjectURL string
	APIKey     string
	Name       string
	HTTP       *http.Client
}

// NewEdgeFunction returns an edge-function client.
func NewEdgeFunction(projectURL, apiKey, name string, timeout time.Duration) *EdgeFunction {
	if name == "" {
		name = "chat"
	}
	if timeout <= 0 {
		timeout = 60 * time.Second
	}
	return &EdgeFunction{
		ProjectURL: strings.TrimRight(projectURL, "/"),
		APIKey:     apiKey,
		Name:       name,
		HTTP:       &http.Client{Timeout: timeout},
	}
}

type edgeResponse struct {
	Content string `json:"content"`
	Error   string `json:"error,omitempty"`
}

// Complete posts req to the function.
func (e *EdgeFunction) Complete(ctx context.Context, req Request) (*Response, error) {
	body, err := json.Marshal(req)
	if err != nil {
		return nil, fmt.Errorf("marshaling request: %w", err)
	}
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, e.ProjectURL+"/functions/v1/"+e.Name, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}
	token := e.APIKey
	if id, ok := auth.FromContext(ctx); ok && id.Token != "" {
		token = id.Token
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Authorization", "Bearer "+token)
	httpReq.Header.Set("apikey", e.APIKey)

	resp, err := e.HTTP.Do(httpReq)
	if err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		return nil, &Error{Provider: "edge", Message: "the advisor service is unreachable", Err: err}
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return nil, fmt.Errorf("reading response: %w", err)
	}
	var out edgeResponse
	decodeErr := json.Unmarshal(raw, &out)

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		msg := out.Error
		if msg == "" {
			msg = http.StatusText(resp.StatusCode)
		}
		return nil, &Error{Provider: "edge", Status: resp.StatusCode, Message: msg}
	}
	if decodeErr != nil {
		return nil, fmt.Errorf("decoding response: %w", decodeErr)
	}
	if out.Error != "" {
		return nil, &Error{Provider: "edge", Status: resp.StatusCode, Message: out.Error}
	}
	if strings.TrimSpace(out.Content) == "" {
		return nil, ErrEmptyReply
	}
	return &Response{Content: out.Content}, nil
}
