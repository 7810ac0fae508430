// Package logger provides the global zerolog logger for gangway.
package logger

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/rs/zerolog"
	"gopkg.in/natefinch/lumberjack.v2"
)

var (
	// Log is the global logger instance.
	Log zerolog.Logger

	// fileWriter is the rotating file output, when enabled.
	fileWriter *lumberjack.Logger
)

// FileConfig holds configuration for rotating file output.
type FileConfig struct {
	MaxSizeMB  int
	MaxAgeDays int
	MaxBackups int
}

func (c *FileConfig) maxSizeMB() int {
	if c == nil || c.MaxSizeMB <= 0 {
		return 20
	}
	return c.MaxSizeMB
}

func (c *FileConfig) maxAgeDays() int {
	if c == nil || c.MaxAgeDays <= 0 {
		return 7
	}
	return c.MaxAgeDays
}

func (c *FileConfig) maxBackups() int {
	if c == nil || c.MaxBackups <= 0 {
		return 3
	}
	return c.MaxBackups
}

// Init initializes the global logger with console output on stderr.
func Init(debug bool) {
	Log = zerolog.New(consoleWriter()).
		Level(level(debug)).
		With().
		Timestamp().
		Logger()
}

// InitWithFile initializes the global logger with console output plus a
// rotating JSON log file under logsDir. An empty logsDir behaves like Init.
func InitWithFile(debug bool, logsDir string, cfg *FileConfig) error {
	if logsDir == "" {
		Init(debug)
		return nil
	}

	if err := os.MkdirAll(logsDir, 0o755); err != nil {
		return fmt.Errorf("failed to create logs directory: %w", err)
	}

	fileWriter = &lumberjack.Logger{
		Filename:   filepath.Join(logsDir, "gangway.log"),
		MaxSize:    cfg.maxSizeMB(),
		MaxAge:     cfg.maxAgeDays(),
		MaxBackups: cfg.maxBackups(),
		LocalTime:  true,
	}

	multi := io.MultiWriter(consoleWriter(), fileWriter)
	Log = zerolog.New(multi).
		Level(level(debug)).
		With().
		Timestamp().
		Logger()

	return nil
}

// CloseFileWriter closes the file writer if one was opened.
func CloseFileWriter() error {
	if fileWriter != nil {
		err := fileWriter.Close()
		fileWriter = nil
		return err
	}
	return nil
}

func consoleWriter() io.Writer {
	return zerolog.ConsoleWriter{
		Out:        os.Stderr,
		TimeFormat: time.RFC3339,
	}
}

func level(debug bool) zerolog.Level {
	if debug {
		return zerolog.DebugLevel
	}
	return zerolog.InfoLevel
}

// Debug starts a debug-level log event.
func Debug() *zerolog.Event {
	return Log.Debug()
}

// Info starts an info-level log event.
func Info() *zerolog.Event {
	return Log.Info()
}

// Warn starts a warn-level log event.
func Warn() *zerolog.Event {
	return Log.Warn()
}

// Error starts an error-level log event.
func Error() *zerolog.Event {
	return Log.Error()
}

// Fatal starts a fatal-level log event; the event's Msg call exits.
func Fatal() *zerolog.Event {
	return Log.Fatal()
}

func init() {
	// Usable default until Init is called explicitly.
	Init(false)
}
