package skill

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/singleflight"

	"github.com/dohr-michael/skillbox/internal/events"
)

// Executor is the single public entry point for invoking skills. It is
// uniform across all three variants: every call returns a Result, failures
// included, and the elapsed time is recorded regardless of outcome.
type Executor struct {
	registry *Registry
	resolver Resolver
	bus      *events.Bus

	loadFlight singleflight.Group
}

// NewExecutor creates an executor over the given registry. The resolver
// provides the capability table for script and hybrid skills; bus may be nil.
func NewExecutor(registry *Registry, resolver Resolver, bus *events.Bus) *Executor {
	return &Executor{
		registry: registry,
		resolver: resolver,
		bus:      bus,
	}
}

// Registry exposes the underlying registry for introspection.
func (e *Executor) Registry() *Registry { return e.registry }

// EnsureLoaded triggers a registry scan the first time it is needed.
// Concurrent callers collapse into a single scan; once a scan has succeeded
// subsequent calls are no-ops.
func (e *Executor) EnsureLoaded(ctx context.Context) error {
	if e.registry.IsLoaded() {
		return nil
	}

	_, err, _ := e.loadFlight.Do("scan", func() (any, error) {
		if e.registry.IsLoaded() {
			return nil, nil
		}
		start := time.Now()
		if _, err := e.registry.Scan(ctx); err != nil {
			return nil, err
		}
		e.publish(ctx, events.SourceRegistry, events.ScanCompletedPayload{
			Root:     e.registry.Root(),
			Skills:   e.registry.SkillNames(),
			Duration: time.Since(start),
		})
		return nil, nil
	})
	return err
}

// Execute invokes a skill by name. It never returns an error: lookup
// failures, invariant violations, handler errors, panics and timeouts all
// come back as a Result with Success=false and a human-readable message.
func (e *Executor) Execute(ctx context.Context, name string, input map[string]any, ectx *Context) Result {
	if err := e.EnsureLoaded(ctx); err != nil {
		return Result{Success: false, Error: err.Error()}
	}

	def, err := e.registry.LoadFull(ctx, name)
	if err != nil {
		return Result{Success: false, Error: err.Error()}
	}

	if input == nil {
		input = map[string]any{}
	}
	if ectx == nil {
		ectx = &Context{}
	}
	ectx.SkillName = def.Name
	ectx.Input = input
	if ectx.TraceID == "" {
		ectx.TraceID = events.TraceIDFromContext(ctx)
	}
	if ectx.TraceID == "" {
		ectx.TraceID = uuid.New().String()
	}

	e.publishTrace(ectx.TraceID, events.SourceExecutor, events.SkillStartedPayload{
		SkillName: def.Name,
		Variant:   string(def.Variant),
		Input:     input,
	})

	start := time.Now()
	output, err := e.dispatch(ctx, def, input, ectx)
	elapsed := time.Since(start).Seconds()

	result := Result{
		Success:       err == nil,
		Output:        output,
		ExecutionTime: elapsed,
	}
	if err != nil {
		result.Output = nil
		result.Error = err.Error()
		slog.Debug("skill execution failed", "skill", def.Name, "error", err)
	}

	e.publishTrace(ectx.TraceID, events.SourceExecutor, events.SkillCompletedPayload{
		SkillName:     def.Name,
		Variant:       string(def.Variant),
		Success:       result.Success,
		Output:        result.Output,
		Error:         result.Error,
		ExecutionTime: elapsed,
	})

	return result
}

// dispatch branches on the skill variant. The switch is exhaustive over the
// closed Variant set; the default arm catches definitions that escaped
// descriptor validation.
func (e *Executor) dispatch(ctx context.Context, def *Definition, input map[string]any, ectx *Context) (any, error) {
	switch def.Variant {
	case VariantPrompt:
		return e.runPrompt(def, input)
	case VariantScript:
		return e.runScript(ctx, def, input, ectx)
	case VariantHybrid:
		// Same dispatch as script; the handler gets the template through
		// the execution context instead of the executor substituting it.
		ectx.PromptTemplate = def.PromptTemplate
		return e.runScript(ctx, def, input, ectx)
	default:
		return nil, &UnknownVariantError{Name: def.Name, Variant: def.Variant}
	}
}

// runPrompt renders the template by literal placeholder substitution.
// Both {{key}} and {key} forms are replaced; replaced text is not re-scanned,
// so values containing placeholders are never expanded recursively.
func (e *Executor) runPrompt(def *Definition, input map[string]any) (any, error) {
	if strings.TrimSpace(def.PromptTemplate) == "" {
		// LoadFull validates this; failing closed here keeps a stale cache
		// entry from reaching dispatch.
		return nil, &ConfigError{Name: def.Name, Reason: "pure-prompt skill missing prompt_template"}
	}

	content := Substitute(def.PromptTemplate, input)
	return PromptOutput{
		Kind:      "prompt",
		Content:   content,
		SkillName: def.Name,
	}, nil
}

// Substitute performs literal placeholder substitution of every input key
// into template, in the map's iteration order.
func Substitute(template string, input map[string]any) string {
	for key, value := range input {
		s := fmt.Sprintf("%v", value)
		template = strings.ReplaceAll(template, "{{"+key+"}}", s)
		template = strings.ReplaceAll(template, "{"+key+"}", s)
	}
	return template
}

type handlerOutcome struct {
	output any
	err    error
}

// runScript resolves the handler through the capability table and invokes it
// under the configured deadline. A handler panic is contained and reported as
// the result error; a deadline expiry cancels the handler context and yields
// a timeout error rather than hanging.
func (e *Executor) runScript(ctx context.Context, def *Definition, input map[string]any, ectx *Context) (any, error) {
	if def.Execution == nil {
		return nil, &ConfigError{Name: def.Name, Reason: fmt.Sprintf("%s skill missing execution config", def.Variant)}
	}
	if e.resolver == nil {
		return nil, &ResolutionError{Name: def.Name, Locator: HandlerLocator(def.Name, def.Execution.Handler)}
	}

	fn, err := e.resolver.Resolve(def.Name, def.Execution.Handler, def.Execution.Function)
	if err != nil {
		return nil, err
	}

	hctx, cancel := context.WithTimeout(ctx, def.Execution.TimeoutDuration())
	defer cancel()

	ch := make(chan handlerOutcome, 1)
	go func() {
		defer func() {
			if r := recover(); r != nil {
				ch <- handlerOutcome{err: fmt.Errorf("handler panic: %v", r)}
			}
		}()
		output, err := fn(hctx, ectx, input)
		ch <- handlerOutcome{output: output, err: err}
	}()

	select {
	case outcome := <-ch:
		return outcome.output, outcome.err
	case <-hctx.Done():
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		return nil, fmt.Errorf("skill %q: %w after %s", def.Name, ErrTimeout, def.Execution.TimeoutDuration())
	}
}

// HandlerLocator composes the fixed namespace convention used to look up a
// handler module: the skill name joined with the handler locator, stripped of
// any file extension.
func HandlerLocator(skillName, handler string) string {
	handler = strings.TrimSuffix(handler, filepath.Ext(handler))
	return skillName + "/" + handler
}

// ExecuteBatch runs every request concurrently and returns results in
// submission order, regardless of completion order. A failing entry does not
// affect its siblings.
func (e *Executor) ExecuteBatch(ctx context.Context, reqs []Request) []Result {
	if err := e.EnsureLoaded(ctx); err != nil {
		results := make([]Result, len(reqs))
		for i := range results {
			results[i] = Result{Success: false, Error: err.Error()}
		}
		return results
	}

	names := make([]string, len(reqs))
	for i, req := range reqs {
		names[i] = req.Name
	}
	e.publish(ctx, events.SourceExecutor, events.BatchStartedPayload{Count: len(reqs), Skills: names})

	start := time.Now()
	results := make([]Result, len(reqs))

	var wg sync.WaitGroup
	for i, req := range reqs {
		wg.Add(1)
		go func(i int, req Request) {
			defer wg.Done()
			results[i] = e.Execute(ctx, req.Name, req.Input, nil)
		}(i, req)
	}
	wg.Wait()

	failed := 0
	for _, r := range results {
		if !r.Success {
			failed++
		}
	}
	e.publish(ctx, events.SourceExecutor, events.BatchCompletedPayload{
		Count:    len(reqs),
		Failed:   failed,
		Duration: time.Since(start),
	})

	return results
}

// ClearCache drops every cached definition so subsequent executions re-read
// descriptors from disk. The metadata catalog is untouched.
func (e *Executor) ClearCache(ctx context.Context) {
	dropped := e.registry.ClearCache()
	e.publish(ctx, events.SourceRegistry, events.CacheClearedPayload{Dropped: dropped})
}

// ListSkills returns a catalog projection without triggering a scan. Before
// the first EnsureLoaded it returns an empty slice.
func (e *Executor) ListSkills(tags []string) []Summary {
	if !e.registry.IsLoaded() {
		return []Summary{}
	}

	metas := e.registry.List(tags)
	result := make([]Summary, len(metas))
	for i, m := range metas {
		result[i] = newSummary(m)
	}
	return result
}

// SkillInfo loads the full definition for name and projects it.
func (e *Executor) SkillInfo(ctx context.Context, name string) (Info, error) {
	if err := e.EnsureLoaded(ctx); err != nil {
		return Info{}, err
	}

	def, err := e.registry.LoadFull(ctx, name)
	if err != nil {
		return Info{}, err
	}

	return Info{
		Summary:      newSummary(def.Metadata),
		InputSchema:  def.InputSchema,
		OutputSchema: def.OutputSchema,
		HasPrompt:    def.PromptTemplate != "",
		HasExecution: def.Execution != nil,
	}, nil
}

func newSummary(m Metadata) Summary {
	tags := m.Tags
	if tags == nil {
		tags = []string{}
	}
	return Summary{
		Name:        m.Name,
		Version:     m.Version,
		Description: m.Description,
		Tags:        tags,
		Variant:     m.Variant,
	}
}

func (e *Executor) publish(ctx context.Context, source events.EventSource, payload events.EventPayload) {
	if e.bus == nil {
		return
	}
	e.bus.Publish(events.NewTypedEventWithTrace(source, payload, events.TraceIDFromContext(ctx)))
}

func (e *Executor) publishTrace(traceID string, source events.EventSource, payload events.EventPayload) {
	if e.bus == nil {
		return
	}
	e.bus.Publish(events.NewTypedEventWithTrace(source, payload, traceID))
}
