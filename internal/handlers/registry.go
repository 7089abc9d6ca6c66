// Package handlers holds the static capability table that maps skill handler
// locators to Go functions, plus the built-in handlers shipped with skillbox.
// Registration replaces the dynamic module import of script-backed skills:
// a handler is addressable iff it was registered at startup.
package handlers

import (
	"sort"
	"sync"

	"github.com/dohr-michael/skillbox/internal/skill"
)

// Module is a set of named functions exported by one handler.
type Module map[string]skill.HandlerFunc

// Table is the capability table. It implements skill.Resolver.
type Table struct {
	mu      sync.RWMutex
	modules map[string]Module
}

// NewTable creates an empty capability table.
func NewTable() *Table {
	return &Table{
		modules: make(map[string]Module),
	}
}

// Register installs a handler module for the given skill name and handler
// locator. Registering the same locator again replaces the previous module.
func (t *Table) Register(skillName, handler string, m Module) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.modules[skill.HandlerLocator(skillName, handler)] = m
}

// RegisterFunc installs a single function under the given locator.
func (t *Table) RegisterFunc(skillName, handler, function string, fn skill.HandlerFunc) {
	t.mu.Lock()
	defer t.mu.Unlock()

	locator := skill.HandlerLocator(skillName, handler)
	m, ok := t.modules[locator]
	if !ok {
		m = make(Module)
		t.modules[locator] = m
	}
	m[function] = fn
}

// Resolve looks up the function for a skill's execution config. A missing
// module and a missing function are distinct failures so callers can tell a
// bad locator from a bad function name.
func (t *Table) Resolve(skillName, handler, function string) (skill.HandlerFunc, error) {
	t.mu.RLock()
	defer t.mu.RUnlock()

	locator := skill.HandlerLocator(skillName, handler)
	m, ok := t.modules[locator]
	if !ok {
		return nil, &skill.ResolutionError{Name: skillName, Locator: locator}
	}

	fn, ok := m[function]
	if !ok {
		return nil, &skill.FunctionNotFoundError{Name: skillName, Locator: locator, Function: function}
	}
	return fn, nil
}

// Locators returns all registered locators, sorted.
func (t *Table) Locators() []string {
	t.mu.RLock()
	defer t.mu.RUnlock()

	result := make([]string, 0, len(t.modules))
	for locator := range t.modules {
		result = append(result, locator)
	}
	sort.Strings(result)
	return result
}

var _ skill.Resolver = (*Table)(nil)
