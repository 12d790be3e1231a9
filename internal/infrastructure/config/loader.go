package config

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"

	"github.com/doeshing/orbit-go/assets"
	"github.com/doeshing/orbit-go/internal/domain"
	"github.com/doeshing/orbit-go/internal/pkg/filesystem"
	"github.com/doeshing/orbit-go/internal/ports"
)

// EnvConfigPath overrides the config location.
const EnvConfigPath = "ORBIT_CONFIG"

// FileLoader loads YAML configuration from ~/.orbit/config.yaml (overridable via ORBIT_CONFIG).
type FileLoader struct {
	overridePath string
}

// NewFileLoader builds a new loader.
func NewFileLoader(path string) *FileLoader {
	return &FileLoader{overridePath: path}
}

// Path returns the file Load reads.
func (l *FileLoader) Path() string {
	return l.resolvePath()
}

// Load implements ports.ConfigProvider. A missing file is created from the
// embedded defaults.
func (l *FileLoader) Load(context.Context) (domain.Config, error) {
	path := l.resolvePath()

	data, err := os.ReadFile(path)
	if err != nil {
		if !errors.Is(err, fs.ErrNotExist) {
			return domain.Config{}, err
		}
		if err := writeDefault(path); err != nil {
			return domain.Config{}, err
		}
		data = assets.DefaultConfigYAML
	}

	cfg, err := Defaults()
	if err != nil {
		return domain.Config{}, err
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return domain.Config{}, fmt.Errorf("parse %s: %w", path, err)
	}
	return hydrateDefaults(cfg), nil
}

// Defaults returns the embedded default configuration with paths expanded.
func Defaults() (domain.Config, error) {
	var cfg domain.Config
	if err := yaml.Unmarshal(assets.DefaultConfigYAML, &cfg); err != nil {
		return domain.Config{}, fmt.Errorf("embedded config: %w", err)
	}
	return hydrateDefaults(cfg), nil
}

// Reset overwrites the config file with the embedded defaults.
func (l *FileLoader) Reset() (domain.Config, error) {
	if err := writeDefault(l.resolvePath()); err != nil {
		return domain.Config{}, err
	}
	return Defaults()
}

// Save writes cfg to the config file.
func (l *FileLoader) Save(cfg domain.Config) error {
	path := l.resolvePath()
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(path), domain.DirectoryPermissions); err != nil {
		return err
	}
	return os.WriteFile(path, data, domain.SecureFilePermissions)
}

// Backup copies the current config file next to itself with a .bak suffix
// and returns the backup path.
func (l *FileLoader) Backup() (string, error) {
	path := l.resolvePath()
	data, err := os.ReadFile(path)
	if err != nil {
		return "", err
	}
	dest := path + ".bak"
	if err := os.WriteFile(dest, data, domain.SecureFilePermissions); err != nil {
		return "", err
	}
	return dest, nil
}

func (l *FileLoader) resolvePath() string {
	if l.overridePath != "" {
		return expandPath(l.overridePath)
	}
	if custom := os.Getenv(EnvConfigPath); custom != "" {
		return expandPath(custom)
	}
	return filepath.Join(filesystem.UserHomeDir(), ".orbit", "config.yaml")
}

func writeDefault(path string) error {
	if err := os.MkdirAll(filepath.Dir(path), domain.DirectoryPermissions); err != nil {
		return err
	}
	return os.WriteFile(path, assets.DefaultConfigYAML, domain.SecureFilePermissions)
}

// hydrateDefaults fills values an older or partial file leaves empty and
// expands ~ in paths.
func hydrateDefaults(cfg domain.Config) domain.Config {
	if cfg.ConfigFormatVersion == "" {
		cfg.ConfigFormatVersion = "1"
	}
	if cfg.Execution.Interpreter == "" {
		cfg.Execution.Interpreter = domain.DefaultInterpreter
	}
	if cfg.Execution.ScriptFlag == "" {
		cfg.Execution.ScriptFlag = domain.DefaultScriptFlag
	}
	if cfg.Execution.Timeout == "" {
		cfg.Execution.Timeout = domain.DefaultExecutionTimeout.String()
	}
	if cfg.Execution.MaxRetries == 0 {
		cfg.Execution.MaxRetries = domain.DefaultMaxRetries
	}
	if cfg.Logging.Level == "" {
		cfg.Logging.Level = "warn"
	}
	cfg.Safety.RulesFile = expandPath(cfg.Safety.RulesFile)
	cfg.History.Path = expandPath(cfg.History.Path)
	for i, dir := range cfg.Catalog.ExtraDirs {
		cfg.Catalog.ExtraDirs[i] = expandPath(dir)
	}
	return cfg
}

func expandPath(path string) string {
	if path == "" || filepath.IsAbs(path) {
		return path
	}
	if expanded := filesystem.ExpandHome(path); expanded != path {
		return expanded
	}
	return filepath.Clean(path)
}

var _ ports.ConfigProvider = (*FileLoader)(nil)
