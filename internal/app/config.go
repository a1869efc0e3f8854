package app

import (
	"errors"
	"fmt"

	"github.com/vk/buildshim/internal/semver"
	"github.com/vk/buildshim/internal/walker"
)

// ReportStdout as ReportPath writes the report to the app's output.
const ReportStdout = "-"

// Config holds all the necessary configuration for an App instance to run.
type Config struct {
	GraphPath string // hcl file or directory

	// ExtensionName is the configuration handle the walker looks up.
	ExtensionName string
	// PluginVersion and OrgPrefix override the toolchain block.
	PluginVersion string
	OrgPrefix     string

	DryRun      bool
	ReportPath  string
	MetricsPath string

	LogFormat string
	LogLevel  string
}

func NewConfig(cfg Config) (*Config, error) {
	if cfg.GraphPath == "" {
		return nil, errors.New("GraphPath is a required configuration field and cannot be empty")
	}
	if cfg.ExtensionName == "" {
		cfg.ExtensionName = walker.DefaultExtension
	}
	if cfg.PluginVersion != "" {
		if _, err := semver.ParseVersion(cfg.PluginVersion); err != nil {
			return nil, fmt.Errorf("invalid plugin version %q: %w", cfg.PluginVersion, err)
		}
	}
	if cfg.LogLevel == "" {
		cfg.LogLevel = "info"
	}
	if cfg.LogFormat == "" {
		cfg.LogFormat = "text"
	}
	return &cfg, nil
}
