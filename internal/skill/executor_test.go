package skill

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"
)

// fakeResolver satisfies Resolver with an in-memory function table keyed by
// locator and function name.
type fakeResolver struct {
	fns map[string]HandlerFunc
}

func (f *fakeResolver) Resolve(skillName, handler, function string) (HandlerFunc, error) {
	locator := HandlerLocator(skillName, handler)
	fn, ok := f.fns[locator+"#"+function]
	if !ok {
		return nil, &ResolutionError{Name: skillName, Locator: locator}
	}
	return fn, nil
}

func newTestExecutor(t *testing.T, resolver Resolver, skills map[string]string) *Executor {
	t.Helper()
	root := t.TempDir()
	for name, yaml := range skills {
		writeSkill(t, root, name, yaml)
	}
	return NewExecutor(NewRegistry(root), resolver, nil)
}

func TestExecutePromptSkill(t *testing.T) {
	e := newTestExecutor(t, nil, map[string]string{
		"greeter": `name: greeter
version: 1.0.0
description: Greets people
type: pure-prompt
prompt_template: "Hello {{name}}, you are {age} years old"
`,
	})

	result := e.Execute(context.Background(), "greeter", map[string]any{"name": "Ada", "age": 30}, nil)
	if !result.Success {
		t.Fatalf("expected success, got error %q", result.Error)
	}

	out, ok := result.Output.(PromptOutput)
	if !ok {
		t.Fatalf("expected PromptOutput, got %T", result.Output)
	}
	if out.Kind != "prompt" {
		t.Errorf("expected kind prompt, got %q", out.Kind)
	}
	if out.Content != "Hello Ada, you are 30 years old" {
		t.Errorf("unexpected content: %q", out.Content)
	}
	if out.SkillName != "greeter" {
		t.Errorf("unexpected skill name: %q", out.SkillName)
	}
	if result.ExecutionTime < 0 {
		t.Errorf("negative execution time: %f", result.ExecutionTime)
	}
}

func TestSubstitute(t *testing.T) {
	cases := []struct {
		template string
		input    map[string]any
		want     string
	}{
		{"Hello {{name}}", map[string]any{"name": "Ada"}, "Hello Ada"},
		{"Hello {name}", map[string]any{"name": "Ada"}, "Hello Ada"},
		{"{{a}} and {a}", map[string]any{"a": "x"}, "x and x"},
		{"No placeholders", map[string]any{"a": "x"}, "No placeholders"},
		{"Missing {{other}}", map[string]any{"a": "x"}, "Missing {{other}}"},
		{"Count: {{n}}", map[string]any{"n": 42}, "Count: 42"},
		{"Flag: {{b}}", map[string]any{"b": true}, "Flag: true"},
	}
	for _, tc := range cases {
		got := Substitute(tc.template, tc.input)
		if got != tc.want {
			t.Errorf("Substitute(%q) = %q, want %q", tc.template, got, tc.want)
		}
	}
}

func TestExecuteScriptSkill(t *testing.T) {
	resolver := &fakeResolver{fns: map[string]HandlerFunc{
		"echo/handler#execute": func(ctx context.Context, ec *Context, input map[string]any) (any, error) {
			return map[string]any{"echo": input["msg"]}, nil
		},
	}}
	e := newTestExecutor(t, resolver, map[string]string{
		"echo": `name: echo
version: 1.0.0
description: Echoes input
type: pure-script
execution:
  handler: handler.py
`,
	})

	result := e.Execute(context.Background(), "echo", map[string]any{"msg": "hi"}, nil)
	if !result.Success {
		t.Fatalf("expected success, got %q", result.Error)
	}
	out := result.Output.(map[string]any)
	if out["echo"] != "hi" {
		t.Errorf("unexpected output: %v", out)
	}
}

func TestExecuteHandlerError(t *testing.T) {
	resolver := &fakeResolver{fns: map[string]HandlerFunc{
		"failing/handler#execute": func(ctx context.Context, ec *Context, input map[string]any) (any, error) {
			return nil, errors.New("boom")
		},
	}}
	e := newTestExecutor(t, resolver, map[string]string{
		"failing": `name: failing
version: 1.0.0
description: Always fails
type: pure-script
execution:
  handler: handler
`,
	})

	result := e.Execute(context.Background(), "failing", nil, nil)
	if result.Success {
		t.Fatal("expected failure")
	}
	if result.Error != "boom" {
		t.Errorf("expected error boom, got %q", result.Error)
	}
	if result.Output != nil {
		t.Errorf("expected nil output on failure, got %v", result.Output)
	}
	if result.ExecutionTime < 0 {
		t.Errorf("negative execution time: %f", result.ExecutionTime)
	}
}

func TestExecuteHandlerPanic(t *testing.T) {
	resolver := &fakeResolver{fns: map[string]HandlerFunc{
		"panicky/handler#execute": func(ctx context.Context, ec *Context, input map[string]any) (any, error) {
			panic("kaboom")
		},
	}}
	e := newTestExecutor(t, resolver, map[string]string{
		"panicky": `name: panicky
version: 1.0.0
description: Panics
type: pure-script
execution:
  handler: handler
`,
	})

	result := e.Execute(context.Background(), "panicky", nil, nil)
	if result.Success {
		t.Fatal("expected failure")
	}
	if !strings.Contains(result.Error, "handler panic") {
		t.Errorf("expected panic message, got %q", result.Error)
	}
}

func TestExecuteTimeout(t *testing.T) {
	resolver := &fakeResolver{fns: map[string]HandlerFunc{
		"slow/handler#execute": func(ctx context.Context, ec *Context, input map[string]any) (any, error) {
			select {
			case <-time.After(5 * time.Second):
				return "done", nil
			case <-ctx.Done():
				return nil, ctx.Err()
			}
		},
	}}
	e := newTestExecutor(t, resolver, map[string]string{
		"slow": `name: slow
version: 1.0.0
description: Sleeps past its deadline
type: pure-script
execution:
  handler: handler
  timeout: 50
`,
	})

	start := time.Now()
	result := e.Execute(context.Background(), "slow", nil, nil)
	if result.Success {
		t.Fatal("expected timeout failure")
	}
	if !strings.Contains(result.Error, "timed out") {
		t.Errorf("expected timeout message, got %q", result.Error)
	}
	if elapsed := time.Since(start); elapsed > 2*time.Second {
		t.Errorf("execute did not return promptly: %s", elapsed)
	}
}

func TestExecuteUnknownSkill(t *testing.T) {
	e := newTestExecutor(t, nil, map[string]string{
		"greeter": greeterYAML,
	})

	result := e.Execute(context.Background(), "nonexistent", nil, nil)
	if result.Success {
		t.Fatal("expected failure")
	}
	if !strings.Contains(result.Error, "not found") {
		t.Errorf("expected not found message, got %q", result.Error)
	}
	if !strings.Contains(result.Error, "greeter") {
		t.Errorf("expected known skills in message, got %q", result.Error)
	}
}

func TestExecuteHybridSkill(t *testing.T) {
	var gotTemplate string
	resolver := &fakeResolver{fns: map[string]HandlerFunc{
		"smart/handler#execute": func(ctx context.Context, ec *Context, input map[string]any) (any, error) {
			gotTemplate = ec.PromptTemplate
			return Substitute(ec.PromptTemplate, input), nil
		},
	}}
	e := newTestExecutor(t, resolver, map[string]string{
		"smart": `name: smart
version: 1.0.0
description: Script with a template
type: hybrid
prompt_template: "Summarize: {{topic}}"
execution:
  handler: handler
`,
	})

	result := e.Execute(context.Background(), "smart", map[string]any{"topic": "go"}, nil)
	if !result.Success {
		t.Fatalf("expected success, got %q", result.Error)
	}
	if gotTemplate != "Summarize: {{topic}}" {
		t.Errorf("handler did not receive the template, got %q", gotTemplate)
	}
	if result.Output != "Summarize: go" {
		t.Errorf("unexpected output: %v", result.Output)
	}
}

func TestExecuteNoResolver(t *testing.T) {
	e := newTestExecutor(t, nil, map[string]string{
		"echo": `name: echo
version: 1.0.0
description: Echoes input
type: pure-script
execution:
  handler: handler
`,
	})

	result := e.Execute(context.Background(), "echo", nil, nil)
	if result.Success {
		t.Fatal("expected failure without a resolver")
	}
	if !strings.Contains(result.Error, "echo/handler") {
		t.Errorf("expected locator in message, got %q", result.Error)
	}
}

func TestExecuteBatchPreservesOrder(t *testing.T) {
	resolver := &fakeResolver{fns: map[string]HandlerFunc{
		"slow-ok/handler#execute": func(ctx context.Context, ec *Context, input map[string]any) (any, error) {
			time.Sleep(100 * time.Millisecond)
			return "slow", nil
		},
		"fast-ok/handler#execute": func(ctx context.Context, ec *Context, input map[string]any) (any, error) {
			return "fast", nil
		},
	}}
	e := newTestExecutor(t, resolver, map[string]string{
		"slow-ok": `name: slow-ok
version: 1.0.0
description: Slow but fine
type: pure-script
execution:
  handler: handler
`,
		"fast-ok": `name: fast-ok
version: 1.0.0
description: Fast
type: pure-script
execution:
  handler: handler
`,
	})

	results := e.ExecuteBatch(context.Background(), []Request{
		{Name: "slow-ok"},
		{Name: "fast-ok"},
		{Name: "nonexistent"},
	})

	if len(results) != 3 {
		t.Fatalf("expected 3 results, got %d", len(results))
	}
	if results[0].Output != "slow" {
		t.Errorf("result 0 should be the slow skill, got %v", results[0].Output)
	}
	if results[1].Output != "fast" {
		t.Errorf("result 1 should be the fast skill, got %v", results[1].Output)
	}
	if results[2].Success {
		t.Error("result 2 should have failed")
	}
	if !strings.Contains(results[2].Error, "not found") {
		t.Errorf("unexpected error for unknown skill: %q", results[2].Error)
	}
}

func TestListSkillsBeforeScan(t *testing.T) {
	e := newTestExecutor(t, nil, map[string]string{"greeter": greeterYAML})

	if got := e.ListSkills(nil); len(got) != 0 {
		t.Errorf("expected empty list before scan, got %v", got)
	}

	if err := e.EnsureLoaded(context.Background()); err != nil {
		t.Fatal(err)
	}
	got := e.ListSkills(nil)
	if len(got) != 1 || got[0].Name != "greeter" {
		t.Errorf("expected greeter after scan, got %v", got)
	}
	if got[0].Tags == nil {
		t.Error("summary tags must never be nil")
	}
}

func TestSkillInfo(t *testing.T) {
	e := newTestExecutor(t, nil, map[string]string{
		"typed": `name: typed
version: 2.0.0
description: Has schemas
type: pure-prompt
prompt_template: "Do {{thing}}"
input_schema:
  type: object
  properties:
    thing:
      type: string
  required: [thing]
`,
	})

	info, err := e.SkillInfo(context.Background(), "typed")
	if err != nil {
		t.Fatal(err)
	}
	if info.Name != "typed" || info.Version != "2.0.0" {
		t.Errorf("unexpected summary: %+v", info.Summary)
	}
	if !info.HasPrompt {
		t.Error("expected HasPrompt")
	}
	if info.HasExecution {
		t.Error("did not expect HasExecution")
	}
	if len(info.InputSchema.Required) != 1 || info.InputSchema.Required[0] != "thing" {
		t.Errorf("unexpected input schema: %+v", info.InputSchema)
	}

	if _, err := e.SkillInfo(context.Background(), "missing"); err == nil {
		t.Error("expected error for unknown skill")
	}
}

func TestHandlerLocator(t *testing.T) {
	cases := []struct {
		skill, handler, want string
	}{
		{"web-search", "handler.py", "web-search/handler"},
		{"web-search", "handler", "web-search/handler"},
		{"code-analysis", "analyzer.py", "code-analysis/analyzer"},
		{"x", "nested/mod.py", "x/nested/mod"},
	}
	for _, tc := range cases {
		if got := HandlerLocator(tc.skill, tc.handler); got != tc.want {
			t.Errorf("HandlerLocator(%q, %q) = %q, want %q", tc.skill, tc.handler, got, tc.want)
		}
	}
}

func TestExecuteUnknownVariantedDefinition(t *testing.T) {
	// Inject a corrupted definition directly into the cache to exercise the
	// dispatch default arm.
	root := t.TempDir()
	writeSkill(t, root, "weird", greeterYAML)
	r := NewRegistry(root)
	if _, err := r.Scan(context.Background()); err != nil {
		t.Fatal(err)
	}
	r.mu.Lock()
	r.metadata["weird"] = Metadata{Name: "weird", Version: "1", Description: "d", Variant: Variant("mystery")}
	r.definitions["weird"] = &Definition{Metadata: r.metadata["weird"]}
	r.mu.Unlock()

	e := NewExecutor(r, nil, nil)
	result := e.Execute(context.Background(), "weird", nil, nil)
	if result.Success {
		t.Fatal("expected failure")
	}
	if !strings.Contains(result.Error, "mystery") {
		t.Errorf("expected variant name in error, got %q", result.Error)
	}
}
