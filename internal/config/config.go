package config

import "time"

// Config is the root configuration for skillbox.
type Config struct {
	Skills   SkillsConfig    `json:"skills"`
	Gateway  GatewayConfig   `json:"gateway"`
	Events   EventsConfig    `json:"events"`
	Storage  StorageConfig   `json:"storage"`
	Video    VideoConfig     `json:"video"`
	Schedule []ScheduleEntry `json:"schedule,omitempty"`
}

// SkillsConfig configures skill discovery.
type SkillsConfig struct {
	Dir string `json:"dir"` // skills root (default: $SKILLBOX_PATH/skills)
}

// GatewayConfig holds the gateway server settings.
type GatewayConfig struct {
	Host string `json:"host"`
	Port int    `json:"port"`
}

// EventsConfig holds event bus settings.
type EventsConfig struct {
	BufferSize int `json:"buffer_size"`
}

// StorageConfig holds the execution history store settings.
type StorageConfig struct {
	Path string `json:"path"` // sqlite database (default: $SKILLBOX_PATH/executions.db)
}

// VideoConfig points the video-render skill at its external tools.
type VideoConfig struct {
	RenderCommand string `json:"render_command"`
	ProbeCommand  string `json:"probe_command"`
	OutputDir     string `json:"output_dir"`
}

// ScheduleEntry configures one cron-triggered skill execution.
type ScheduleEntry struct {
	Name     string         `json:"name"`
	Skill    string         `json:"skill"`
	Cron     string         `json:"cron"`
	Input    map[string]any `json:"input,omitempty"`
	Cooldown Duration       `json:"cooldown,omitempty"`
	Disabled bool           `json:"disabled,omitempty"`
}

// Duration wraps time.Duration for JSON unmarshaling.
type Duration time.Duration

func (d Duration) Duration() time.Duration {
	return time.Duration(d)
}

func (d *Duration) UnmarshalJSON(b []byte) error {
	// Remove quotes
	s := string(b)
	if len(s) >= 2 && s[0] == '"' && s[len(s)-1] == '"' {
		s = s[1 : len(s)-1]
	}
	dur, err := time.ParseDuration(s)
	if err != nil {
		return err
	}
	*d = Duration(dur)
	return nil
}

func (d Duration) MarshalJSON() ([]byte, error) {
	return []byte(`"` + time.Duration(d).String() + `"`), nil
}
