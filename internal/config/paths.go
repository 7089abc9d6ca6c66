package config

import (
	"os"
	"path/filepath"
)

// SkillboxPath returns the root directory for skillbox data.
// It uses $SKILLBOX_PATH if set, otherwise defaults to ~/.skillbox.
func SkillboxPath() string {
	if v := os.Getenv("SKILLBOX_PATH"); v != "" {
		return v
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return filepath.Join(".", ".skillbox")
	}
	return filepath.Join(home, ".skillbox")
}

// ConfigPath returns the path to the skillbox config file.
func ConfigPath() string {
	return filepath.Join(SkillboxPath(), "config.jsonc")
}

// DotenvPath returns the path to the skillbox .env file.
func DotenvPath() string {
	return filepath.Join(SkillboxPath(), ".env")
}
