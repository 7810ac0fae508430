package config

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/viper"
)

// Loader reads and validates a gangway configuration file.
type Loader struct {
	path  string
	viper *viper.Viper
}

// NewLoader creates a loader for the given config file path. An empty
// path means ConfigFileName in the current directory.
func NewLoader(path string) *Loader {
	if path == "" {
		path = ConfigFileName
	}
	return &Loader{
		path:  path,
		viper: viper.New(),
	}
}

// Path returns the config file path.
func (l *Loader) Path() string { return l.path }

// Load reads, parses, and validates the configuration. Stage file paths
// are resolved relative to the config file's directory.
func (l *Loader) Load() (*Config, error) {
	if _, err := os.Stat(l.path); os.IsNotExist(err) {
		return nil, &NotFoundError{Path: l.path}
	}

	l.viper.SetConfigFile(l.path)
	l.viper.SetConfigType("yaml")

	if err := l.viper.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	var cfg Config
	if err := l.viper.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	baseDir := filepath.Dir(l.path)
	for i := range cfg.Stages {
		st := &cfg.Stages[i]
		if st.File != "" && !filepath.IsAbs(st.File) {
			st.File = filepath.Join(baseDir, st.File)
		}
	}

	if err := validate(&cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func validate(cfg *Config) error {
	if len(cfg.Stages) == 0 {
		return &ValidationError{Field: "stages", Message: "at least one stage is required"}
	}
	for i, st := range cfg.Stages {
		field := fmt.Sprintf("stages[%d]", i)
		if st.File == "" {
			return &ValidationError{Field: field + ".file", Message: "is required"}
		}
		if _, err := os.Stat(st.File); err != nil {
			return &ValidationError{Field: field + ".file", Message: fmt.Sprintf("not readable: %v", err)}
		}
		for j, w := range st.WaitFor {
			wfield := fmt.Sprintf("%s.wait_for[%d]", field, j)
			if w.Service == "" {
				return &ValidationError{Field: wfield + ".service", Message: "is required"}
			}
			if w.Port <= 0 || w.Port > 65535 {
				return &ValidationError{Field: wfield + ".port", Message: "must be between 1 and 65535"}
			}
			if w.Timeout < 0 || w.Interval < 0 {
				return &ValidationError{Field: wfield, Message: "timeout and interval must not be negative"}
			}
		}
	}
	return nil
}

// NotFoundError is returned when the config file does not exist.
type NotFoundError struct {
	Path string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("configuration file not found: %s", e.Path)
}

// IsNotFound reports whether err is a NotFoundError.
func IsNotFound(err error) bool {
	_, ok := err.(*NotFoundError)
	return ok
}

// ValidationError reports an invalid configuration field.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid configuration: %s %s", e.Field, e.Message)
}
