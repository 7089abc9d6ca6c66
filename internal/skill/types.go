package skill

import (
	"context"
	"fmt"
	"time"
)

// Variant distinguishes how a skill is executed.
type Variant string

const (
	// VariantPrompt skills render a prompt template and return it.
	VariantPrompt Variant = "pure-prompt"
	// VariantScript skills invoke a registered handler function.
	VariantScript Variant = "pure-script"
	// VariantHybrid skills invoke a handler that may use the prompt template internally.
	VariantHybrid Variant = "hybrid"
)

// ParseVariant validates a descriptor type string.
func ParseVariant(s string) (Variant, error) {
	switch Variant(s) {
	case VariantPrompt, VariantScript, VariantHybrid:
		return Variant(s), nil
	}
	return "", fmt.Errorf("unknown skill type %q", s)
}

// Metadata is the lightweight catalog entry loaded for every skill at scan time.
type Metadata struct {
	Name        string   `json:"name"`
	Version     string   `json:"version"`
	Description string   `json:"description"`
	Tags        []string `json:"tags,omitempty"`
	Variant     Variant  `json:"type"`
}

// HasTag reports whether the metadata carries any of the given tags.
// An empty filter matches everything.
func (m Metadata) HasTag(tags []string) bool {
	if len(tags) == 0 {
		return true
	}
	for _, want := range tags {
		for _, have := range m.Tags {
			if have == want {
				return true
			}
		}
	}
	return false
}

// Schema is a minimal JSON-Schema-like shape. It is advisory only; the
// runtime checks presence of fields, never values.
type Schema struct {
	Type       string         `json:"type" yaml:"type"`
	Properties map[string]any `json:"properties,omitempty" yaml:"properties"`
	Required   []string       `json:"required,omitempty" yaml:"required"`
}

// ExecutionConfig describes how a script or hybrid skill is invoked.
type ExecutionConfig struct {
	Handler  string `json:"handler" yaml:"handler"`
	Function string `json:"function" yaml:"function"`
	Timeout  int    `json:"timeout" yaml:"timeout"` // milliseconds
}

// TimeoutDuration returns the configured timeout as a time.Duration.
func (c ExecutionConfig) TimeoutDuration() time.Duration {
	return time.Duration(c.Timeout) * time.Millisecond
}

// Definition is the full skill record, loaded lazily on first use and
// immutable once cached.
type Definition struct {
	Metadata

	InputSchema    Schema           `json:"input_schema"`
	OutputSchema   Schema           `json:"output_schema"`
	PromptTemplate string           `json:"prompt_template,omitempty"`
	Execution      *ExecutionConfig `json:"execution,omitempty"`
}

// Result is the uniform execution outcome envelope. Output is set iff
// Success, Error iff not; ExecutionTime is always populated.
type Result struct {
	Success       bool    `json:"success"`
	Output        any     `json:"output,omitempty"`
	Error         string  `json:"error,omitempty"`
	ExecutionTime float64 `json:"execution_time"` // seconds
}

// PromptOutput is the output of a pure-prompt skill execution.
type PromptOutput struct {
	Kind      string `json:"type"`
	Content   string `json:"content"`
	SkillName string `json:"skill_name"`
}

// Context carries per-execution correlation data. The runtime passes it
// through to handlers without interpreting it, except for PromptTemplate,
// which the executor fills in for hybrid skills.
type Context struct {
	SkillName      string         `json:"skill_name"`
	Input          map[string]any `json:"input_data"`
	TraceID        string         `json:"trace_id,omitempty"`
	Metadata       map[string]any `json:"metadata,omitempty"`
	PromptTemplate string         `json:"-"`
}

// Request names one skill invocation in a batch.
type Request struct {
	Name  string         `json:"skill_name"`
	Input map[string]any `json:"input_data"`
}

// Summary is the display-friendly projection returned by catalog listings.
type Summary struct {
	Name        string   `json:"name"`
	Version     string   `json:"version"`
	Description string   `json:"description"`
	Tags        []string `json:"tags"`
	Variant     Variant  `json:"type"`
}

// Info is the full-definition projection returned by SkillInfo.
type Info struct {
	Summary

	InputSchema  Schema `json:"input_schema"`
	OutputSchema Schema `json:"output_schema"`
	HasPrompt    bool   `json:"has_prompt"`
	HasExecution bool   `json:"has_execution"`
}

// HandlerFunc is a registered skill handler. Handlers receive the execution
// context and raw input and return an arbitrary structured value. They must
// respect ctx cancellation but are otherwise unconstrained; the executor
// never assumes they are pure or idempotent.
type HandlerFunc func(ctx context.Context, ec *Context, input map[string]any) (any, error)

// Resolver locates handler functions for script and hybrid skills.
// Implementations compose the skill name, handler locator and function name
// into a lookup against a static capability table.
type Resolver interface {
	Resolve(skillName, handler, function string) (HandlerFunc, error)
}
