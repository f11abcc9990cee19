// Package config manages application configuration following XDG base
// directory conventions. The configuration collaborator supplies the
// storage location, backup toggle and retention counts to the rest of the
// core.
package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/tacwriter/tac/internal/fileutil"
)

const appDirName = "tac"

// Settings are the persisted configuration values. Paths left empty are
// resolved against the XDG data directory at load time.
type Settings struct {
	// StorageDir holds the SQLite store and the trash area.
	StorageDir string `json:"storage_dir"`
	// LegacyProjectsDir is scanned for per-document JSON files to migrate.
	LegacyProjectsDir string `json:"legacy_projects_dir"`
	// BackupDir holds timestamped store backups.
	BackupDir string `json:"backup_dir"`

	// BackupEnabled controls the automatic pre-write backup.
	BackupEnabled bool `json:"backup_enabled"`
	// AutoBackupRetain is how many automatic backups are kept.
	AutoBackupRetain int `json:"auto_backup_retain"`
	// ManualBackupRetain is how many user-triggered backups are kept.
	ManualBackupRetain int `json:"manual_backup_retain"`

	// ExportDir is the default destination for exports.
	ExportDir string `json:"export_dir"`
	// DefaultExportFormat is used when the caller does not pick one.
	DefaultExportFormat string `json:"default_export_format"`

	// LogLevel is one of debug, info, warn, error.
	LogLevel string `json:"log_level"`
}

// Config resolves directories and loads/saves settings.
type Config struct {
	Settings

	configDir string
	dataDir   string
}

// Default returns the built-in settings, before any file overrides.
func Default() Settings {
	return Settings{
		BackupEnabled:       true,
		AutoBackupRetain:    3,
		ManualBackupRetain:  10,
		DefaultExportFormat: "odt",
		LogLevel:            "info",
	}
}

// Load resolves XDG directories, reads the config file if present and
// fills in defaults for anything unset. Missing directories are created.
func Load() (*Config, error) {
	configDir, err := xdgDir("XDG_CONFIG_HOME", ".config")
	if err != nil {
		return nil, err
	}
	dataDir, err := xdgDir("XDG_DATA_HOME", filepath.Join(".local", "share"))
	if err != nil {
		return nil, err
	}

	c := &Config{
		Settings:  Default(),
		configDir: configDir,
		dataDir:   dataDir,
	}

	if data, err := os.ReadFile(c.File()); err == nil {
		if err := json.Unmarshal(data, &c.Settings); err != nil {
			return nil, fmt.Errorf("failed to parse config file %s: %w", c.File(), err)
		}
	} else if !os.IsNotExist(err) {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	c.applyDefaults()

	for _, dir := range []string{c.StorageDir, c.BackupDir, c.ExportDir} {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, fmt.Errorf("failed to create directory %s: %w", dir, err)
		}
	}
	return c, nil
}

// LoadAt is Load with explicit config and data directories; used by tests
// and by callers that manage their own locations.
func LoadAt(configDir, dataDir string) (*Config, error) {
	c := &Config{
		Settings:  Default(),
		configDir: configDir,
		dataDir:   dataDir,
	}
	if data, err := os.ReadFile(c.File()); err == nil {
		if err := json.Unmarshal(data, &c.Settings); err != nil {
			return nil, fmt.Errorf("failed to parse config file %s: %w", c.File(), err)
		}
	} else if !os.IsNotExist(err) {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}
	c.applyDefaults()
	for _, dir := range []string{c.StorageDir, c.BackupDir, c.ExportDir} {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, fmt.Errorf("failed to create directory %s: %w", dir, err)
		}
	}
	return c, nil
}

func (c *Config) applyDefaults() {
	if c.StorageDir == "" {
		c.StorageDir = filepath.Join(c.dataDir, appDirName)
	}
	if c.LegacyProjectsDir == "" {
		c.LegacyProjectsDir = filepath.Join(c.dataDir, appDirName, "projects")
	}
	if c.BackupDir == "" {
		c.BackupDir = filepath.Join(c.dataDir, appDirName, "backups")
	}
	if c.ExportDir == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			home = c.dataDir
		}
		c.ExportDir = filepath.Join(home, "Documents")
	}
	if c.AutoBackupRetain <= 0 {
		c.AutoBackupRetain = 3
	}
	if c.ManualBackupRetain <= 0 {
		c.ManualBackupRetain = 10
	}
	if c.DefaultExportFormat == "" {
		c.DefaultExportFormat = "odt"
	}
	if c.LogLevel == "" {
		c.LogLevel = "info"
	}
}

// File returns the path of the configuration file.
func (c *Config) File() string {
	return filepath.Join(c.configDir, appDirName, "config.json")
}

// StorePath returns the path of the SQLite store file.
func (c *Config) StorePath() string {
	return filepath.Join(c.StorageDir, "documents.db")
}

// TrashDir returns the recoverable trash area for deleted documents.
func (c *Config) TrashDir() string {
	return filepath.Join(c.StorageDir, ".trash")
}

// Save writes the settings to the config file atomically.
func (c *Config) Save() error {
	data, err := json.MarshalIndent(c.Settings, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode config: %w", err)
	}
	return fileutil.WriteAtomic(c.File(), data, 0644)
}

func xdgDir(env, fallback string) (string, error) {
	if dir := os.Getenv(env); dir != "" {
		return dir, nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("cannot resolve home directory: %w", err)
	}
	return filepath.Join(home, fallback), nil
}
