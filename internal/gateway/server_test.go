package gateway

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/dohr-michael/skillbox/internal/events"
	"github.com/dohr-michael/skillbox/internal/skill"
)

func newTestServer(t *testing.T) (*Server, *httptest.Server) {
	t.Helper()

	root := t.TempDir()
	dir := filepath.Join(root, "greeter")
	if err := os.MkdirAll(dir, 0755); err != nil {
		t.Fatal(err)
	}
	descriptor := `name: greeter
version: 1.0.0
description: Greets people
type: pure-prompt
tags: [demo]
prompt_template: "Hello {{name}}!"
`
	if err := os.WriteFile(filepath.Join(dir, skill.DescriptorFile), []byte(descriptor), 0644); err != nil {
		t.Fatal(err)
	}

	bus := events.NewBus(64)
	t.Cleanup(bus.Close)

	executor := skill.NewExecutor(skill.NewRegistry(root), nil, bus)
	srv := NewServer(executor, bus, nil, "127.0.0.1", 0)
	ts := httptest.NewServer(srv.httpServer.Handler)
	t.Cleanup(ts.Close)
	t.Cleanup(srv.hub.Close)

	return srv, ts
}

func getJSON(t *testing.T, url string, v any) *http.Response {
	t.Helper()
	resp, err := http.Get(url)
	if err != nil {
		t.Fatal(err)
	}
	defer resp.Body.Close()
	if v != nil {
		if err := json.NewDecoder(resp.Body).Decode(v); err != nil {
			t.Fatalf("decode %s: %v", url, err)
		}
	}
	return resp
}

func postJSON(t *testing.T, url string, body any, v any) *http.Response {
	t.Helper()
	data, err := json.Marshal(body)
	if err != nil {
		t.Fatal(err)
	}
	resp, err := http.Post(url, "application/json", bytes.NewReader(data))
	if err != nil {
		t.Fatal(err)
	}
	defer resp.Body.Close()
	if v != nil {
		if err := json.NewDecoder(resp.Body).Decode(v); err != nil {
			t.Fatalf("decode %s: %v", url, err)
		}
	}
	return resp
}

func TestHealthEndpoint(t *testing.T) {
	_, ts := newTestServer(t)

	var out map[string]string
	resp := getJSON(t, ts.URL+"/api/health", &out)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("unexpected status %d", resp.StatusCode)
	}
	if out["status"] != "ok" {
		t.Errorf("unexpected body: %v", out)
	}
}

func TestListSkillsEndpoint(t *testing.T) {
	_, ts := newTestServer(t)

	var out []skill.Summary
	getJSON(t, ts.URL+"/api/skills", &out)
	if len(out) != 1 || out[0].Name != "greeter" {
		t.Fatalf("unexpected skills: %v", out)
	}

	var tagged []skill.Summary
	getJSON(t, ts.URL+"/api/skills?tag=absent", &tagged)
	if len(tagged) != 0 {
		t.Errorf("expected no skills for absent tag, got %v", tagged)
	}
}

func TestSkillInfoEndpoint(t *testing.T) {
	_, ts := newTestServer(t)

	var info skill.Info
	resp := getJSON(t, ts.URL+"/api/skills/greeter", &info)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("unexpected status %d", resp.StatusCode)
	}
	if info.Name != "greeter" || !info.HasPrompt {
		t.Errorf("unexpected info: %+v", info)
	}

	resp = getJSON(t, ts.URL+"/api/skills/nope", nil)
	if resp.StatusCode != http.StatusNotFound {
		t.Errorf("expected 404 for unknown skill, got %d", resp.StatusCode)
	}
}

func TestExecuteEndpoint(t *testing.T) {
	_, ts := newTestServer(t)

	var result skill.Result
	resp := postJSON(t, ts.URL+"/api/execute", map[string]any{
		"skill": "greeter",
		"input": map[string]any{"name": "Ada"},
	}, &result)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("unexpected status %d", resp.StatusCode)
	}
	if !result.Success {
		t.Fatalf("execution failed: %s", result.Error)
	}

	out, ok := result.Output.(map[string]any)
	if !ok {
		t.Fatalf("unexpected output shape: %T", result.Output)
	}
	if out["content"] != "Hello Ada!" {
		t.Errorf("unexpected content: %v", out["content"])
	}
}

func TestExecuteEndpointValidation(t *testing.T) {
	_, ts := newTestServer(t)

	resp := postJSON(t, ts.URL+"/api/execute", map[string]any{"input": map[string]any{}}, nil)
	if resp.StatusCode != http.StatusBadRequest {
		t.Errorf("expected 400 for missing skill, got %d", resp.StatusCode)
	}
}

func TestExecuteBatchEndpoint(t *testing.T) {
	_, ts := newTestServer(t)

	var results []skill.Result
	resp := postJSON(t, ts.URL+"/api/execute/batch", map[string]any{
		"executions": []map[string]any{
			{"skill_name": "greeter", "input_data": map[string]any{"name": "A"}},
			{"skill_name": "missing"},
		},
	}, &results)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("unexpected status %d", resp.StatusCode)
	}
	if len(results) != 2 {
		t.Fatalf("expected 2 results, got %d", len(results))
	}
	if !results[0].Success {
		t.Errorf("first execution failed: %s", results[0].Error)
	}
	if results[1].Success {
		t.Error("expected second execution to fail")
	}
}

func TestClearCacheEndpoint(t *testing.T) {
	srv, ts := newTestServer(t)

	postJSON(t, ts.URL+"/api/execute", map[string]any{"skill": "greeter"}, nil)
	if srv.executor.Registry().Definition("greeter") == nil {
		t.Fatal("expected cached definition after execute")
	}

	resp := postJSON(t, ts.URL+"/api/cache/clear", map[string]any{}, nil)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("unexpected status %d", resp.StatusCode)
	}
	if srv.executor.Registry().Definition("greeter") != nil {
		t.Error("expected definition cache to be empty")
	}
}

func TestExecutionsEndpointWithoutStore(t *testing.T) {
	_, ts := newTestServer(t)

	var out []json.RawMessage
	resp := getJSON(t, ts.URL+"/api/executions", &out)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("unexpected status %d", resp.StatusCode)
	}
	if len(out) != 0 {
		t.Errorf("expected empty history, got %d records", len(out))
	}
}
