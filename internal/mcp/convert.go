package mcp

import (
	mcpsdk "github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/dohr-michael/skillbox/internal/skill"
)

// skillToTool converts a skill's advisory input schema to an mcp.Tool with
// JSON Schema. Skills without declared properties get an open object schema.
func skillToTool(info skill.Info) *mcpsdk.Tool {
	inputSchema := map[string]any{
		"type": "object",
	}
	if info.InputSchema.Type != "" {
		inputSchema["type"] = info.InputSchema.Type
	}
	if len(info.InputSchema.Properties) > 0 {
		inputSchema["properties"] = info.InputSchema.Properties
	}
	if len(info.InputSchema.Required) > 0 {
		inputSchema["required"] = info.InputSchema.Required
	}

	return &mcpsdk.Tool{
		Name:        info.Name,
		Description: info.Description,
		InputSchema: inputSchema,
	}
}
