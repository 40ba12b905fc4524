package inference

import (
	"context"
	"errors"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestInstrumented_Outcomes(t *testing.T) {
	errs := []error{nil, errors.New("x"), context.Canceled, &Error{Provider: "breaker", Err: ErrUnavailable}}
	labels := []string{"ok", "error", "cancelled", "unavailable"}

	for i, e := range errs {
		e := e
		base := testutil.ToFloat64(requests.WithLabelValues("fake", labels[i]))
		c := Instrumented{Provider: "fake", Next: ClientFunc(func(context.Context, Request) (*Response, error) {
			if e != nil {
				return nil, e
			}
			return &Response{Content: "ok"}, nil
		})}
		_, _ = c.Complete(context.Background(), Request{})
		if got := testutil.ToFloat64(requests.WithLabelValues("fake", labels[i])); got != base+1 {
			t.Fatalf("%s: got %v, want %v", labels[i], got, base+1)
		}
	}
}

func TestGeminiContents_Roles(t *testing.T) {
	out := geminiContents([]Turn{{Role: RoleUser, Content: "a"}, {Role: RoleAssistant, Content: "b"}})
	if len(out) != 2 || out[0].Role != "user" || out[1].Role != "model" {
		t.Fatalf("roles %+v", out)
	}
	if out[1].Parts[0].Text != "b" {
		t.Fatalf("text %q", out[1].Parts[0].Text)
	}
}
