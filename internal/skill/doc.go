// Package skill provides the skillbox capability runtime: a registry that
// discovers skill descriptors on disk with two-level lazy loading, and an
// executor that dispatches pure-prompt, pure-script and hybrid skills behind
// a uniform result envelope.
package skill
