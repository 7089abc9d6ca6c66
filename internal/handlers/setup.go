package handlers

import (
	"log/slog"
)

// Setup builds the capability table with all built-in handlers registered.
// Skills discovered on disk resolve against this table by locator; a skill
// whose locator has no entry fails at execute time with a resolution error.
func Setup(video VideoConfig) *Table {
	table := NewTable()

	table.RegisterFunc("code-analysis", "analyzer", "analyze", AnalyzeCode)
	table.RegisterFunc("web-search", "handler", "execute", WebSearch)

	renderer := NewVideoRenderer(video)
	table.RegisterFunc("video-render", "handler", "execute", renderer.Render)
	if !renderer.Available() {
		slog.Debug("video rendering CLI not found, video-render will fail at execute time",
			"command", video.RenderCommand)
	}

	return table
}
