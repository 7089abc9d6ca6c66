package handlers

import (
	"context"
	"fmt"
	"regexp"
	"strings"

	"github.com/dohr-michael/skillbox/internal/skill"
)

// Heuristic static analysis over submitted source text. No parsing beyond
// regular expressions; findings are advisory.

var (
	pyPrintRe = regexp.MustCompile(`\bprint\s*\(`)
	pyDefRe   = regexp.MustCompile(`def\s+(\w+)\s*\([^)]*\)\s*:`)
	pyTodoRe  = regexp.MustCompile(`#\s*TODO[:\s]*(.+)`)

	jsConsoleRe = regexp.MustCompile(`console\.log\s*\(`)
	jsVarRe     = regexp.MustCompile(`\bvar\s+`)
)

// Issue is a single analysis finding.
type Issue struct {
	Severity   string `json:"severity"`
	Category   string `json:"category"`
	Message    string `json:"message"`
	Line       int    `json:"line"`
	Suggestion string `json:"suggestion,omitempty"`
}

// Suggestion is a non-blocking maintenance note.
type Suggestion struct {
	Category string `json:"category"`
	Message  string `json:"message"`
	Line     int    `json:"line"`
}

// AnalysisReport is the structured output of the code-analysis skill.
type AnalysisReport struct {
	Score       int            `json:"score"`
	Issues      []Issue        `json:"issues"`
	Suggestions []Suggestion   `json:"suggestions"`
	Metrics     map[string]any `json:"metrics"`
	Language    string         `json:"language"`
}

const longFunctionLines = 50

// AnalyzeCode is the handler function of the code-analysis skill.
func AnalyzeCode(_ context.Context, _ *skill.Context, input map[string]any) (any, error) {
	code, _ := input["code"].(string)
	language, _ := input["language"].(string)
	if language == "" {
		language = "python"
	}

	report := AnalysisReport{
		Issues:      []Issue{},
		Suggestions: []Suggestion{},
		Metrics:     map[string]any{},
		Language:    language,
	}

	switch language {
	case "python":
		analyzePython(code, &report)
	case "javascript", "typescript":
		analyzeJavaScript(code, &report)
	}

	score := 100 - len(report.Issues)*5
	if score < 0 {
		score = 0
	}
	report.Score = score

	return report, nil
}

func analyzePython(code string, report *AnalysisReport) {
	report.Metrics["lines_of_code"] = countCodeLines(code, "#")

	for _, match := range pyPrintRe.FindAllStringIndex(code, -1) {
		report.Issues = append(report.Issues, Issue{
			Severity:   "warning",
			Category:   "best-practices",
			Message:    "Print statement found in code",
			Line:       lineAt(code, match[0]),
			Suggestion: "Consider using logging instead of print",
		})
	}

	functions := pyDefRe.FindAllStringSubmatchIndex(code, -1)
	for i, match := range functions {
		name := code[match[2]:match[3]]
		end := len(code)
		if i+1 < len(functions) {
			end = functions[i+1][0]
		}
		bodyLines := 0
		for _, line := range strings.Split(code[match[0]:end], "\n") {
			if strings.TrimSpace(line) != "" {
				bodyLines++
			}
		}
		if bodyLines > longFunctionLines {
			report.Issues = append(report.Issues, Issue{
				Severity:   "info",
				Category:   "complexity",
				Message:    fmt.Sprintf("Function %q is long (%d lines)", name, bodyLines),
				Line:       lineAt(code, match[0]),
				Suggestion: "Consider breaking this function into smaller functions",
			})
		}
	}

	for _, match := range pyTodoRe.FindAllStringSubmatchIndex(code, -1) {
		report.Suggestions = append(report.Suggestions, Suggestion{
			Category: "maintenance",
			Message:  fmt.Sprintf("TODO comment found: %s", strings.TrimSpace(code[match[2]:match[3]])),
			Line:     lineAt(code, match[0]),
		})
	}

	complexity := "low"
	if len(functions) >= 5 {
		complexity = "medium"
	}
	report.Metrics["complexity"] = map[string]any{
		"num_functions":        len(functions),
		"estimated_complexity": complexity,
	}
}

func analyzeJavaScript(code string, report *AnalysisReport) {
	report.Metrics["lines_of_code"] = countCodeLines(code, "//")

	for _, match := range jsConsoleRe.FindAllStringIndex(code, -1) {
		report.Issues = append(report.Issues, Issue{
			Severity:   "warning",
			Category:   "best-practices",
			Message:    "console.log statement found in code",
			Line:       lineAt(code, match[0]),
			Suggestion: "Remove or replace with proper logging",
		})
	}

	for _, match := range jsVarRe.FindAllStringIndex(code, -1) {
		report.Issues = append(report.Issues, Issue{
			Severity:   "warning",
			Category:   "modern-js",
			Message:    "Usage of 'var' keyword",
			Line:       lineAt(code, match[0]),
			Suggestion: "Use 'let' or 'const' instead of 'var'",
		})
	}

	report.Metrics["complexity"] = map[string]any{
		"estimated_complexity": "low",
	}
}

func countCodeLines(code, commentPrefix string) int {
	count := 0
	for _, line := range strings.Split(code, "\n") {
		trimmed := strings.TrimSpace(line)
		if trimmed != "" && !strings.HasPrefix(trimmed, commentPrefix) {
			count++
		}
	}
	return count
}

// lineAt returns the 1-based line number of a byte offset.
func lineAt(code string, offset int) int {
	return strings.Count(code[:offset], "\n") + 1
}
