package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"time"

	"mvdan.cc/sh/v3/shell"

	"github.com/dohr-michael/skillbox/internal/skill"
)

// VideoConfig points the video-render handler at its external tools. Both
// commands are full command lines; they are split with shell field rules, so
// quoting works the way it does in a POSIX shell.
type VideoConfig struct {
	RenderCommand string `json:"render_command"` // e.g. "npx remotion render"
	ProbeCommand  string `json:"probe_command"`  // e.g. "ffprobe"
	OutputDir     string `json:"output_dir"`
}

// VideoRenderer shells out to a rendering CLI and a media probe tool.
type VideoRenderer struct {
	cfg VideoConfig
}

// NewVideoRenderer creates the renderer. OutputDir is created on first render.
func NewVideoRenderer(cfg VideoConfig) *VideoRenderer {
	return &VideoRenderer{cfg: cfg}
}

// Available reports whether the rendering CLI can be found on PATH.
func (v *VideoRenderer) Available() bool {
	fields, err := shell.Fields(v.cfg.RenderCommand, nil)
	if err != nil || len(fields) == 0 {
		return false
	}
	_, err = exec.LookPath(fields[0])
	return err == nil
}

// RenderOutput is the structured result consumed by downstream skills.
type RenderOutput struct {
	VideoPath  string  `json:"video_path"`
	Duration   float64 `json:"duration"`
	FPS        int     `json:"fps"`
	Resolution string  `json:"resolution"`
	Format     string  `json:"format"`
	FileSize   int64   `json:"file_size"`
}

// Render is the handler function of the video-render skill. It accepts either
// a natural language description, from which a minimal composition is
// generated, or composition_code for direct rendering.
func (v *VideoRenderer) Render(ctx context.Context, _ *skill.Context, input map[string]any) (any, error) {
	description, _ := input["description"].(string)
	compositionCode, _ := input["composition_code"].(string)
	compositionID, _ := input["composition_id"].(string)
	if compositionID == "" {
		compositionID = "MyComposition"
	}

	duration := intInput(input, "duration", 10)
	fps := intInput(input, "fps", 30)
	resolution, _ := input["resolution"].(string)
	if resolution == "" {
		resolution = "1920x1080"
	}
	format, _ := input["output_format"].(string)
	if format == "" {
		format = "mp4"
	}

	if compositionCode == "" {
		if description == "" {
			return nil, fmt.Errorf("description is required to generate a video")
		}
		if duration <= 0 || duration > 300 {
			return nil, fmt.Errorf("duration must be between 1 and 300 seconds")
		}
		compositionCode = generateComposition(description, duration, fps, resolution)
	}

	projectDir, err := os.MkdirTemp("", "skillbox-render-")
	if err != nil {
		return nil, fmt.Errorf("create render workspace: %w", err)
	}
	defer os.RemoveAll(projectDir)

	entry := filepath.Join(projectDir, "composition.tsx")
	if err := os.WriteFile(entry, []byte(compositionCode), 0644); err != nil {
		return nil, fmt.Errorf("write composition: %w", err)
	}

	if err := os.MkdirAll(v.cfg.OutputDir, 0755); err != nil {
		return nil, fmt.Errorf("create output dir: %w", err)
	}
	outPath := filepath.Join(v.cfg.OutputDir, fmt.Sprintf("video-%d.%s", time.Now().UnixNano(), format))

	if err := v.render(ctx, entry, compositionID, outPath); err != nil {
		return nil, err
	}

	probed, err := v.probe(ctx, outPath)
	if err != nil {
		// The render succeeded; report it with whatever we know.
		slog.Warn("media probe failed", "path", outPath, "error", err)
		probed = map[string]any{}
	}

	out := RenderOutput{
		VideoPath:  outPath,
		Duration:   float64(duration),
		FPS:        fps,
		Resolution: resolution,
		Format:     format,
	}
	if info, err := os.Stat(outPath); err == nil {
		out.FileSize = info.Size()
	}
	if d, ok := probedDuration(probed); ok {
		out.Duration = d
	}
	return out, nil
}

func (v *VideoRenderer) render(ctx context.Context, entry, compositionID, outPath string) error {
	fields, err := shell.Fields(v.cfg.RenderCommand, nil)
	if err != nil {
		return fmt.Errorf("parse render command: %w", err)
	}
	if len(fields) == 0 {
		return fmt.Errorf("render command not configured")
	}

	args := append(fields[1:], entry, compositionID, outPath)
	slog.Info("rendering video", "command", fields[0], "output", outPath)

	cmd := exec.CommandContext(ctx, fields[0], args...)
	var stderr bytes.Buffer
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		return fmt.Errorf("render failed: %w: %s", err, strings.TrimSpace(stderr.String()))
	}
	return nil
}

// probe runs the media probe tool and decodes its JSON report.
func (v *VideoRenderer) probe(ctx context.Context, path string) (map[string]any, error) {
	fields, err := shell.Fields(v.cfg.ProbeCommand, nil)
	if err != nil || len(fields) == 0 {
		return nil, fmt.Errorf("probe command not configured")
	}

	args := append(fields[1:], "-v", "error", "-print_format", "json", "-show_format", "-show_streams", path)
	cmd := exec.CommandContext(ctx, fields[0], args...)

	out, err := cmd.Output()
	if err != nil {
		return nil, fmt.Errorf("probe failed: %w", err)
	}

	var result map[string]any
	if err := json.Unmarshal(out, &result); err != nil {
		return nil, fmt.Errorf("decode probe output: %w", err)
	}
	return result, nil
}

func probedDuration(probed map[string]any) (float64, bool) {
	format, ok := probed["format"].(map[string]any)
	if !ok {
		return 0, false
	}
	raw, ok := format["duration"].(string)
	if !ok {
		return 0, false
	}
	var d float64
	if _, err := fmt.Sscanf(raw, "%f", &d); err != nil {
		return 0, false
	}
	return d, true
}

// generateComposition emits a minimal text-card composition for
// description-based requests.
func generateComposition(description string, duration, fps int, resolution string) string {
	width, height := 1920, 1080
	fmt.Sscanf(resolution, "%dx%d", &width, &height)

	return fmt.Sprintf(`import {Composition, AbsoluteFill} from 'remotion';

const Card = () => (
  <AbsoluteFill style={{backgroundColor: '#111', justifyContent: 'center', alignItems: 'center'}}>
    <h1 style={{color: '#fff', fontSize: 72, maxWidth: '80%%', textAlign: 'center'}}>%s</h1>
  </AbsoluteFill>
);

export const MyComposition = () => (
  <Composition
    id="MyComposition"
    component={Card}
    durationInFrames={%d}
    fps={%d}
    width={%d}
    height={%d}
  />
);
`, strings.ReplaceAll(description, "\n", " "), duration*fps, fps, width, height)
}
