package config

import (
	"os"
	"strings"
)

const EnvModeKey = "GO_ENV_MODE"

type EnvMode string

const (
	DevMode  EnvMode = "development"
	ProMode  EnvMode = "production"
	TestMode EnvMode = "test"
)

func ParseEnv(env string) EnvMode {
	switch strings.ToLower(strings.TrimSpace(env)) {
	case "production", "prod", "pro":
		return ProMode
	case "test", "testing":
		return TestMode
	default:
		return DevMode
	}
}

// Mode reads GO_ENV_MODE on every call so tests can switch modes with t.Setenv.
func Mode() EnvMode {
	return ParseEnv(os.Getenv(EnvModeKey))
}

// modeAliases lists the file-name suffixes accepted for each mode.
func modeAliases(mode EnvMode) []string {
	switch mode {
	case ProMode:
		return []string{"pro", "prod", "production"}
	case TestMode:
		return []string{"test"}
	default:
		return []string{"dev", "development"}
	}
}

func fileExists(path string) bool {
	info, err := os.Stat(path)
	return err == nil && !info.IsDir()
}
