package handlers

import (
	"context"
	"errors"
	"testing"

	"github.com/dohr-michael/skillbox/internal/skill"
)

func noopHandler(_ context.Context, _ *skill.Context, _ map[string]any) (any, error) {
	return "ok", nil
}

func TestTableResolve(t *testing.T) {
	table := NewTable()
	table.RegisterFunc("echo", "handler.py", "execute", noopHandler)

	fn, err := table.Resolve("echo", "handler.py", "execute")
	if err != nil {
		t.Fatalf("resolve: %v", err)
	}
	out, err := fn(context.Background(), nil, nil)
	if err != nil || out != "ok" {
		t.Errorf("unexpected handler result: %v, %v", out, err)
	}

	// Extension is stripped when composing locators, so both spellings hit
	// the same module.
	if _, err := table.Resolve("echo", "handler", "execute"); err != nil {
		t.Errorf("extensionless lookup failed: %v", err)
	}
}

func TestTableResolveUnknownModule(t *testing.T) {
	table := NewTable()

	_, err := table.Resolve("ghost", "handler", "execute")
	var re *skill.ResolutionError
	if !errors.As(err, &re) {
		t.Fatalf("expected ResolutionError, got %v", err)
	}
	if re.Locator != "ghost/handler" {
		t.Errorf("unexpected locator: %q", re.Locator)
	}
}

func TestTableResolveUnknownFunction(t *testing.T) {
	table := NewTable()
	table.RegisterFunc("echo", "handler", "execute", noopHandler)

	_, err := table.Resolve("echo", "handler", "missing")
	var fnf *skill.FunctionNotFoundError
	if !errors.As(err, &fnf) {
		t.Fatalf("expected FunctionNotFoundError, got %v", err)
	}
	if fnf.Function != "missing" {
		t.Errorf("unexpected function: %q", fnf.Function)
	}
}

func TestTableRegisterModule(t *testing.T) {
	table := NewTable()
	table.Register("multi", "handler", Module{
		"execute": noopHandler,
		"other":   noopHandler,
	})

	if _, err := table.Resolve("multi", "handler", "other"); err != nil {
		t.Errorf("resolve other: %v", err)
	}

	locators := table.Locators()
	if len(locators) != 1 || locators[0] != "multi/handler" {
		t.Errorf("unexpected locators: %v", locators)
	}
}

func TestSetupRegistersBuiltins(t *testing.T) {
	table := Setup(VideoConfig{})

	for _, tc := range []struct{ skill, handler, function string }{
		{"code-analysis", "analyzer.py", "analyze"},
		{"web-search", "handler.py", "execute"},
	} {
		if _, err := table.Resolve(tc.skill, tc.handler, tc.function); err != nil {
			t.Errorf("builtin %s/%s#%s not registered: %v", tc.skill, tc.handler, tc.function, err)
		}
	}
}
