// Package config loads the gangway CLI configuration file.
package config

import (
	"time"
)

// ConfigFileName is the default configuration file name.
const ConfigFileName = "gangway.yaml"

// Config is the root of gangway.yaml.
type Config struct {
	// ComposeCommand overrides the compose command line, e.g.
	// "docker-compose" on hosts without the compose plugin.
	ComposeCommand string `mapstructure:"compose_command"`

	Logging LoggingConfig `mapstructure:"logging"`

	// Stages are run in file order, each to completion before the next.
	Stages []StageConfig `mapstructure:"stages"`
}

// LoggingConfig configures optional rotating file output.
type LoggingConfig struct {
	Dir        string `mapstructure:"dir"`
	MaxSizeMB  int    `mapstructure:"max_size_mb"`
	MaxAgeDays int    `mapstructure:"max_age_days"`
	MaxBackups int    `mapstructure:"max_backups"`
}

// StageConfig describes one compose file plus its options.
type StageConfig struct {
	// File is the compose file path, relative to the config file.
	File string `mapstructure:"file"`

	// Project overrides the compose project name for this stage.
	Project string `mapstructure:"project"`

	ForceRecreate bool `mapstructure:"force_recreate"`
	ForceDown     bool `mapstructure:"force_down"`

	// Environment is passed to the stage's compose invocations.
	Environment map[string]string `mapstructure:"environment"`

	// WaitFor entries gate the next stage until the named ports open.
	WaitFor []WaitConfig `mapstructure:"wait_for"`
}

// WaitConfig describes one port-open readiness check.
type WaitConfig struct {
	Service  string        `mapstructure:"service"`
	Port     int           `mapstructure:"port"`
	Timeout  time.Duration `mapstructure:"timeout"`
	Interval time.Duration `mapstructure:"interval"`
}
