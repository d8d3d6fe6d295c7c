// Package config loads and validates ridat settings.
package config

import (
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"slices"
	"strconv"
	"strings"

	"github.com/spf13/afero"
)

// Export formats understood by the export command.
var ExportFormats = []string{"text", "wav", "aiff"}

// LogLevels lists the accepted log level names.
var LogLevels = []string{"debug", "info", "warn", "error"}

// MaxScanWorkers bounds Config.ScanWorkers.
const MaxScanWorkers = 256

// FileLoggingConfig represents file-based logging configuration
type FileLoggingConfig struct {
	Enabled    bool   `json:"enabled"`      // Whether file logging is enabled
	Filename   string `json:"filename"`     // Log file path (empty = XDG cache path)
	MaxSizeMB  int    `json:"max_size_mb"`  // Max file size in MB before rotation
	MaxBackups int    `json:"max_backups"`  // Max number of backup files to keep
	MaxAgeDays int    `json:"max_age_days"` // Max age in days before deletion
	Compress   bool   `json:"compress"`     // Whether to compress rotated files
}

// CatalogConfig controls the decode history database.
type CatalogConfig struct {
	Enabled      bool   `json:"enabled"`
	DatabasePath string `json:"database_path"` // empty = XDG cache path
}

// Config represents ridat configuration
type Config struct {
	LogLevel     string             `json:"log_level"`     // debug, info, warn, error
	ExportFormat string             `json:"export_format"` // default exporter for the export command
	Delimiter    string             `json:"delimiter"`     // column separator for text exports
	ScanWorkers  int                `json:"scan_workers"`  // concurrent decodes during scan
	Catalog      *CatalogConfig     `json:"catalog,omitempty"`
	FileLogging  *FileLoggingConfig `json:"file_logging,omitempty"`
}

// XDGInterface defines the interface for XDG directory operations
type XDGInterface interface {
	GetConfigPaths(filename string) []string
	GetCachePath(purpose string) string
	CreateCacheDir(purpose string) error
}

// ConfigManager handles loading, saving, and validating configuration
type ConfigManager struct {
	xdg XDGInterface
	fs  afero.Fs
}

// NewConfigManager creates a configuration manager on the OS filesystem
func NewConfigManager() *ConfigManager {
	slog.Debug("creating new config manager")
	return &ConfigManager{
		xdg: NewXDGDirs(),
		fs:  afero.NewOsFs(),
	}
}

// NewConfigManagerWithFilesystem creates a configuration manager reading from fs
func NewConfigManagerWithFilesystem(fs afero.Fs) *ConfigManager {
	slog.Debug("creating new config manager")
	return &ConfigManager{
		xdg: NewXDGDirsWithFilesystem(fs),
		fs:  fs,
	}
}

// GetDefaultConfig returns the default configuration
func (cm *ConfigManager) GetDefaultConfig() *Config {
	defaultConfig := &Config{
		LogLevel:     "warn",
		ExportFormat: "text",
		Delimiter:    "\t",
		ScanWorkers:  4,
		Catalog: &CatalogConfig{
			Enabled:      true,
			DatabasePath: "",
		},
		FileLogging: &FileLoggingConfig{
			Enabled:    false,
			Filename:   "",
			MaxSizeMB:  10,
			MaxBackups: 5,
			MaxAgeDays: 30,
			Compress:   true,
		},
	}

	slog.Debug("generated default config",
		"log_level", defaultConfig.LogLevel,
		"export_format", defaultConfig.ExportFormat,
		"scan_workers", defaultConfig.ScanWorkers,
		"catalog_enabled", defaultConfig.Catalog.Enabled,
		"file_logging_enabled", defaultConfig.FileLogging.Enabled)

	return defaultConfig
}

// LoadFromFile loads configuration from a specific file. Fields missing from
// the file keep their default values.
func (cm *ConfigManager) LoadFromFile(filePath string) (*Config, error) {
	slog.Debug("loading config from file", "file_path", filePath)

	data, err := afero.ReadFile(cm.fs, filePath)
	if err != nil {
		slog.Error("failed to read config file", "file_path", filePath, "error", err)
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	config := cm.GetDefaultConfig()
	if err := json.Unmarshal(data, config); err != nil {
		slog.Error("failed to parse config JSON", "file_path", filePath, "error", err)
		return nil, fmt.Errorf("failed to parse config JSON: %w", err)
	}

	if err := cm.ValidateConfig(config); err != nil {
		slog.Error("config validation failed", "file_path", filePath, "error", err)
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	slog.Debug("config loaded successfully",
		"file_path", filePath,
		"log_level", config.LogLevel,
		"export_format", config.ExportFormat,
		"scan_workers", config.ScanWorkers)

	return config, nil
}

// SaveToFile saves configuration to a specific file
func (cm *ConfigManager) SaveToFile(config *Config, filePath string) error {
	slog.Debug("saving config to file", "file_path", filePath)

	if err := cm.ValidateConfig(config); err != nil {
		slog.Error("cannot save invalid config", "error", err)
		return fmt.Errorf("cannot save invalid config: %w", err)
	}

	dir := filepath.Dir(filePath)
	if err := cm.fs.MkdirAll(dir, 0755); err != nil {
		slog.Error("failed to create config directory", "directory", dir, "error", err)
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	data, err := json.MarshalIndent(config, "", "  ")
	if err != nil {
		slog.Error("failed to marshal config", "error", err)
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	if err := afero.WriteFile(cm.fs, filePath, data, 0644); err != nil {
		slog.Error("failed to write config file", "file_path", filePath, "error", err)
		return fmt.Errorf("failed to write config file: %w", err)
	}

	slog.Info("config saved successfully", "file_path", filePath)
	return nil
}

// LoadConfig loads configuration using XDG path discovery
func (cm *ConfigManager) LoadConfig() (*Config, error) {
	slog.Debug("loading config using XDG path discovery")

	configPaths := cm.xdg.GetConfigPaths("config.json")

	for i, configPath := range configPaths {
		slog.Debug("checking config path", "path_index", i, "path", configPath)

		if _, err := cm.fs.Stat(configPath); err == nil {
			slog.Debug("found config file", "path", configPath)
			return cm.LoadFromFile(configPath)
		}
	}

	slog.Debug("no config file found, using defaults")
	return cm.GetDefaultConfig(), nil
}

// ValidateConfig validates configuration values
func (cm *ConfigManager) ValidateConfig(config *Config) error {
	var errors []string

	if config.LogLevel != "" && !slices.Contains(LogLevels, config.LogLevel) {
		errors = append(errors, fmt.Sprintf("invalid log level '%s', must be one of: %s",
			config.LogLevel, strings.Join(LogLevels, ", ")))
	}

	if !slices.Contains(ExportFormats, config.ExportFormat) {
		errors = append(errors, fmt.Sprintf("invalid export format '%s', must be one of: %s",
			config.ExportFormat, strings.Join(ExportFormats, ", ")))
	}

	if config.Delimiter == "" {
		errors = append(errors, "delimiter cannot be empty")
	}

	if config.ScanWorkers < 1 || config.ScanWorkers > MaxScanWorkers {
		errors = append(errors, fmt.Sprintf("scan_workers must be between 1 and %d, got %d", MaxScanWorkers, config.ScanWorkers))
	}

	if config.FileLogging != nil {
		fileLogging := config.FileLogging

		if fileLogging.MaxSizeMB < 0 {
			errors = append(errors, fmt.Sprintf("file logging max_size_mb must be >= 0, got %d", fileLogging.MaxSizeMB))
		}

		if fileLogging.MaxBackups < 0 {
			errors = append(errors, fmt.Sprintf("file logging max_backups must be >= 0, got %d", fileLogging.MaxBackups))
		}

		if fileLogging.MaxAgeDays < 0 {
			errors = append(errors, fmt.Sprintf("file logging max_age_days must be >= 0, got %d", fileLogging.MaxAgeDays))
		}
	}

	if len(errors) > 0 {
		errMsg := strings.Join(errors, "; ")
		slog.Error("config validation failed", "errors", errMsg)
		return fmt.Errorf("config validation failed: %s", errMsg)
	}

	slog.Debug("config validation passed")
	return nil
}

// ApplyEnvironmentOverrides applies environment variable overrides to config
func (cm *ConfigManager) ApplyEnvironmentOverrides(config *Config) *Config {
	slog.Debug("applying environment variable overrides")

	result := *config
	if config.Catalog != nil {
		catalog := *config.Catalog
		result.Catalog = &catalog
	}

	// RIDAT_LOG_LEVEL
	if logLevel := os.Getenv("RIDAT_LOG_LEVEL"); logLevel != "" {
		result.LogLevel = strings.ToLower(logLevel)
		slog.Debug("applied log level override from environment", "value", logLevel)
	}

	// RIDAT_EXPORT_FORMAT
	if format := os.Getenv("RIDAT_EXPORT_FORMAT"); format != "" {
		format = strings.ToLower(format)
		if slices.Contains(ExportFormats, format) {
			result.ExportFormat = format
			slog.Debug("applied export format override from environment", "value", format)
		} else {
			slog.Warn("invalid RIDAT_EXPORT_FORMAT environment variable", "value", format)
		}
	}

	// RIDAT_DELIMITER, with "\t" accepted as an escaped tab
	if delimiter := os.Getenv("RIDAT_DELIMITER"); delimiter != "" {
		result.Delimiter = strings.ReplaceAll(delimiter, `\t`, "\t")
		slog.Debug("applied delimiter override from environment", "value", result.Delimiter)
	}

	// RIDAT_SCAN_WORKERS
	if workersStr := os.Getenv("RIDAT_SCAN_WORKERS"); workersStr != "" {
		if workers, err := strconv.Atoi(workersStr); err == nil && workers > 0 {
			result.ScanWorkers = workers
			slog.Debug("applied scan workers override from environment", "value", workers)
		} else {
			slog.Warn("invalid RIDAT_SCAN_WORKERS environment variable", "value", workersStr, "error", err)
		}
	}

	// RIDAT_CATALOG
	if catalogStr := os.Getenv("RIDAT_CATALOG"); catalogStr != "" {
		if enabled, err := strconv.ParseBool(catalogStr); err == nil {
			if result.Catalog == nil {
				result.Catalog = &CatalogConfig{}
			}
			result.Catalog.Enabled = enabled
			slog.Debug("applied catalog override from environment", "value", enabled)
		} else {
			slog.Warn("invalid RIDAT_CATALOG environment variable", "value", catalogStr, "error", err)
		}
	}

	slog.Debug("environment overrides applied")
	return &result
}

// ParseLogLevel converts a level name to a slog.Level.
func ParseLogLevel(logLevel string) (slog.Level, error) {
	switch strings.ToLower(logLevel) {
	case "debug":
		return slog.LevelDebug, nil
	case "info":
		return slog.LevelInfo, nil
	case "warn":
		return slog.LevelWarn, nil
	case "error":
		return slog.LevelError, nil
	default:
		return slog.LevelInfo, fmt.Errorf("invalid log level '%s', must be one of: %s", logLevel, strings.Join(LogLevels, ", "))
	}
}

// ApplyLogLevel installs a text handler on writer at logLevel as the default
// slog logger. An empty level keeps the current logger.
func ApplyLogLevel(logLevel string, writer io.Writer) error {
	if logLevel == "" {
		slog.Debug("no log level specified, keeping current slog configuration")
		return nil
	}

	level, err := ParseLogLevel(logLevel)
	if err != nil {
		slog.Error("invalid log level for slog configuration", "log_level", logLevel, "error", err)
		return err
	}

	handler := slog.NewTextHandler(writer, &slog.HandlerOptions{
		Level: level,
	})
	slog.SetDefault(slog.New(handler))

	slog.Debug("slog configured successfully", "log_level", logLevel, "slog_level", level)
	return nil
}

// DefaultConfigPath is where a new config file is written: config.json in the
// user's XDG config directory.
func (cm *ConfigManager) DefaultConfigPath() string {
	return cm.xdg.GetConfigPaths("config.json")[0]
}

// ResolveLogFilePath resolves the log file path using XDG cache directory when filename is empty
func (cm *ConfigManager) ResolveLogFilePath(filename string) string {
	if filename != "" {
		return filename
	}
	return filepath.Join(cm.xdg.GetCachePath("logs"), "ridat.log")
}

// ResolveCatalogPath resolves the catalog database path using the XDG cache
// directory when databasePath is empty.
func (cm *ConfigManager) ResolveCatalogPath(databasePath string) (string, error) {
	if databasePath != "" {
		return databasePath, nil
	}
	if err := cm.xdg.CreateCacheDir(""); err != nil {
		return "", fmt.Errorf("failed to create cache directory: %w", err)
	}
	return filepath.Join(cm.xdg.GetCachePath(""), "catalog.db"), nil
}
