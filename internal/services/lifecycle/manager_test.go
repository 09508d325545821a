package lifecycle

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"
)

func TestShutdownRunsHooksInReverseOrder(t *testing.T) {
	m := New(time.Second, nil)

	var ran []string
	for _, name := range []string{"postgres", "redis", "http_server"} {
		name := name
		m.Register(name, func(context.Context) error {
			ran = append(ran, name)
			return nil
		})
	}

	if err := m.Shutdown(context.Background()); err != nil {
		t.Fatalf("shutdown: %v", err)
	}
	if got := strings.Join(ran, ","); got != "http_server,redis,postgres" {
		t.Errorf("hook order = %s, want reverse registration order", got)
	}
}

func TestShutdownContinuesPastFailures(t *testing.T) {
	m := New(time.Second, nil)

	hookErr := errors.New("close refused")
	var lastRan bool
	m.Register("first", func(context.Context) error { lastRan = true; return nil })
	m.Register("broken", func(context.Context) error { return hookErr })

	err := m.Shutdown(context.Background())
	if !errors.Is(err, hookErr) {
		t.Errorf("got %v, want the hook error surfaced", err)
	}
	if !strings.Contains(err.Error(), "broken") {
		t.Errorf("error %q does not name the failing hook", err)
	}
	if !lastRan {
		t.Error("remaining hooks must still run after a failure")
	}
}

func TestRegisterIgnoresNilHook(t *testing.T) {
	m := New(time.Second, nil)
	m.Register("noop", nil)
	if err := m.Shutdown(context.Background()); err != nil {
		t.Fatalf("shutdown: %v", err)
	}
}
