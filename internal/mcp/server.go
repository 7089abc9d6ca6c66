// Package mcp exposes skillbox skills as MCP tools.
package mcp

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	mcpsdk "github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/dohr-michael/skillbox/internal/skill"
)

// NewServer creates an MCP server exposing every discovered skill as a tool.
// If filter is non-empty, only the skill with that name (or carrying that
// tag) is exposed. The registry must have been scanned before calling.
func NewServer(ctx context.Context, executor *skill.Executor, filter string) (*mcpsdk.Server, error) {
	if err := executor.EnsureLoaded(ctx); err != nil {
		return nil, err
	}

	server := mcpsdk.NewServer(&mcpsdk.Implementation{
		Name:    "skillbox",
		Version: "0.1.0",
	}, nil)

	for _, summary := range executor.ListSkills(nil) {
		if filter != "" && !matchesFilter(summary, filter) {
			continue
		}

		info, err := executor.SkillInfo(ctx, summary.Name)
		if err != nil {
			slog.Warn("skipping skill for mcp", "skill", summary.Name, "error", err)
			continue
		}

		// Capture for the closure
		name := summary.Name

		server.AddTool(skillToTool(info), func(ctx context.Context, req *mcpsdk.CallToolRequest) (*mcpsdk.CallToolResult, error) {
			var input map[string]any
			if len(req.Params.Arguments) > 0 {
				if err := json.Unmarshal(req.Params.Arguments, &input); err != nil {
					return &mcpsdk.CallToolResult{
						IsError: true,
						Content: []mcpsdk.Content{&mcpsdk.TextContent{Text: fmt.Sprintf("invalid arguments: %v", err)}},
					}, nil
				}
			}

			result := executor.Execute(ctx, name, input, nil)
			if !result.Success {
				return &mcpsdk.CallToolResult{
					IsError: true,
					Content: []mcpsdk.Content{&mcpsdk.TextContent{Text: result.Error}},
				}, nil
			}

			text, err := json.Marshal(result.Output)
			if err != nil {
				return &mcpsdk.CallToolResult{
					IsError: true,
					Content: []mcpsdk.Content{&mcpsdk.TextContent{Text: fmt.Sprintf("marshal output: %v", err)}},
				}, nil
			}
			return &mcpsdk.CallToolResult{
				Content: []mcpsdk.Content{&mcpsdk.TextContent{Text: string(text)}},
			}, nil
		})

		slog.Debug("mcp tool registered", "skill", name)
	}

	return server, nil
}

// matchesFilter checks if a skill matches the filter by name or tag.
func matchesFilter(s skill.Summary, filter string) bool {
	if s.Name == filter {
		return true
	}
	for _, tag := range s.Tags {
		if tag == filter {
			return true
		}
	}
	return false
}
