package logger

import (
	"io"
	"os"
	"sort"

	charmlog "github.com/charmbracelet/log"
)

// Config selects level, format and destination of a CharmLogger.
type Config struct {
	Level  string
	JSON   bool
	Output io.Writer
}

// CharmLogger implements ports.Logger on top of charmbracelet/log.
type CharmLogger struct {
	l *charmlog.Logger
}

// New builds a logger from cfg. Unknown levels fall back to warn.
func New(cfg Config) *CharmLogger {
	out := cfg.Output
	if out == nil {
		out = os.Stderr
	}
	level, err := charmlog.ParseLevel(cfg.Level)
	if err != nil || cfg.Level == "" {
		level = charmlog.WarnLevel
	}
	l := charmlog.NewWithOptions(out, charmlog.Options{
		Level:           level,
		ReportTimestamp: true,
		TimeFormat:      "15:04:05",
		Prefix:          "orbit",
	})
	if cfg.JSON {
		l.SetFormatter(charmlog.JSONFormatter)
	}
	return &CharmLogger{l: l}
}

// NewStd creates a text logger on out for use before configuration is
// loaded; verbose enables debug output.
func NewStd(out io.Writer, verbose bool) *CharmLogger {
	level := "warn"
	if verbose {
		level = "debug"
	}
	return New(Config{Level: level, Output: out})
}

// NewNop discards everything.
func NewNop() *CharmLogger {
	return New(Config{Level: "error", Output: io.Discard})
}

func (c *CharmLogger) Debug(msg string, fields map[string]interface{}) {
	c.l.Debug(msg, keyvals(fields)...)
}

func (c *CharmLogger) Info(msg string, fields map[string]interface{}) {
	c.l.Info(msg, keyvals(fields)...)
}

func (c *CharmLogger) Warn(msg string, fields map[string]interface{}) {
	c.l.Warn(msg, keyvals(fields)...)
}

func (c *CharmLogger) Error(msg string, err error, fields map[string]interface{}) {
	kv := keyvals(fields)
	if err != nil {
		kv = append(kv, "err", err)
	}
	c.l.Error(msg, kv...)
}

// keyvals flattens fields in key order so output is stable.
func keyvals(fields map[string]interface{}) []interface{} {
	if len(fields) == 0 {
		return nil
	}
	keys := make([]string, 0, len(fields))
	for k := range fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	out := make([]interface{}, 0, len(keys)*2)
	for _, k := range keys {
		out = append(out, k, fields[k])
	}
	return out
}
