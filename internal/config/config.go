package config

import (
	_ "embed"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/pelletier/go-toml/v2"
)

//go:embed sample_config.toml
var sampleConfig string

// Paths contains directory configuration.
type Paths struct {
	StateDir string `toml:"state_dir"`
	LogDir   string `toml:"log_dir"`
}

// Sync contains configuration for payload replication between peers.
type Sync struct {
	// ChunkSize is the maximum number of characters sent in one network update.
	ChunkSize   int    `toml:"chunk_size"`
	RelayBind   string `toml:"relay_bind"`
	RelayURL    string `toml:"relay_url"`
	DisplayName string `toml:"display_name"`
}

// Parser contains configuration for the incremental subtitle parser.
type Parser struct {
	FrameBudgetMS int  `toml:"frame_budget_ms"`
	LinesPerFrame int  `toml:"lines_per_frame"`
	FilterTags    bool `toml:"filter_tags"`
}

// Playback contains configuration for the frame loop and cue tracking.
type Playback struct {
	// UpdateRate is the number of frames skipped between subtitle updates.
	UpdateRate      int  `toml:"update_rate"`
	FrameRate       int  `toml:"frame_rate"`
	ClearOnNewVideo bool `toml:"clear_on_new_video"`
}

// Status contains configuration for user-visible status messages.
type Status struct {
	TemporarySeconds float64 `toml:"temporary_seconds"`
}

// Settings contains configuration for presentation settings persistence.
type Settings struct {
	Persist    bool     `toml:"persist"`
	PersistKey string   `toml:"persist_key"`
	DebounceMS int      `toml:"debounce_ms"`
	Presets    []string `toml:"presets"`
}

// Fetch contains configuration for downloading remote subtitles.
type Fetch struct {
	TimeoutSeconds int    `toml:"timeout_seconds"`
	MaxBytes       int64  `toml:"max_bytes"`
	UserAgent      string `toml:"user_agent"`
}

// Logging contains configuration for log output.
type Logging struct {
	Format string `toml:"format"`
	Level  string `toml:"level"`
}

// Config encapsulates all configuration values for subsync.
//
// Configuration sections by subsystem:
//   - Paths: state and log directories
//   - Sync: chunk size, relay address and the local display name
//   - Parser: per-frame parse budget and inline tag filtering
//   - Playback: frame rate, subtitle update cadence, new video behaviour
//   - Status: lifetime of temporary status messages
//   - Settings: presentation settings persistence and presets
//   - Fetch: remote subtitle download limits
//   - Logging: log format and level
type Config struct {
	Paths    Paths    `toml:"paths"`
	Sync     Sync     `toml:"sync"`
	Parser   Parser   `toml:"parser"`
	Playback Playback `toml:"playback"`
	Status   Status   `toml:"status"`
	Settings Settings `toml:"settings"`
	Fetch    Fetch    `toml:"fetch"`
	Logging  Logging  `toml:"logging"`
}

// DefaultConfigPath returns the absolute path to the default configuration file location.
func DefaultConfigPath() (string, error) {
	return expandPath(defaultConfigPath)
}

// Load locates, parses, and validates a configuration file. The returned config has all
// path fields expanded and normalized.
func Load(path string) (*Config, string, bool, error) {
	cfg := Default()

	resolvedPath, exists, err := resolveConfigPath(path)
	if err != nil {
		return nil, "", false, err
	}

	if exists {
		file, err := os.Open(resolvedPath)
		if err != nil {
			return nil, "", false, fmt.Errorf("open config: %w", err)
		}
		defer file.Close()

		decoder := toml.NewDecoder(file)
		if err := decoder.Decode(&cfg); err != nil {
			return nil, "", false, fmt.Errorf("parse config: %w", err)
		}
	}

	if err := cfg.normalize(); err != nil {
		return nil, "", false, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, "", false, err
	}

	return &cfg, resolvedPath, exists, nil
}

func resolveConfigPath(path string) (string, bool, error) {
	if path != "" {
		expanded, err := expandPath(path)
		if err != nil {
			return "", false, err
		}
		_, err = os.Stat(expanded)
		if err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				return expanded, false, nil
			}
			return "", false, fmt.Errorf("stat config: %w", err)
		}
		return expanded, true, nil
	}

	defaultPath, err := expandPath(defaultConfigPath)
	if err != nil {
		return "", false, err
	}

	projectPath, err := filepath.Abs("subsync.toml")
	if err != nil {
		return "", false, err
	}

	if info, err := os.Stat(defaultPath); err == nil && !info.IsDir() {
		return defaultPath, true, nil
	}
	if info, err := os.Stat(projectPath); err == nil && !info.IsDir() {
		return projectPath, true, nil
	}

	return defaultPath, false, nil
}

// EnsureDirectories creates the state and log directories.
func (c *Config) EnsureDirectories() error {
	for _, dir := range []string{c.Paths.StateDir, c.Paths.LogDir} {
		if strings.TrimSpace(dir) == "" {
			continue
		}
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create directory %q: %w", dir, err)
		}
	}
	return nil
}

// FrameBudget returns the parser work budget for a single frame.
func (c *Config) FrameBudget() time.Duration {
	return time.Duration(c.Parser.FrameBudgetMS) * time.Millisecond
}

// TemporaryStatus returns how long temporary status messages stay visible.
func (c *Config) TemporaryStatus() time.Duration {
	return time.Duration(c.Status.TemporarySeconds * float64(time.Second))
}

// SettingsDebounce returns the quiet period before settings are persisted.
func (c *Config) SettingsDebounce() time.Duration {
	return time.Duration(c.Settings.DebounceMS) * time.Millisecond
}

// FetchTimeout returns the remote subtitle download timeout.
func (c *Config) FetchTimeout() time.Duration {
	return time.Duration(c.Fetch.TimeoutSeconds) * time.Second
}

func expandPath(pathValue string) (string, error) {
	if pathValue == "" {
		return pathValue, nil
	}
	if strings.HasPrefix(pathValue, "~") {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("resolve home directory: %w", err)
		}
		if pathValue == "~" {
			pathValue = home
		} else if len(pathValue) > 1 && (pathValue[1] == '/' || pathValue[1] == '\\') {
			pathValue = filepath.Join(home, pathValue[2:])
		}
	}
	cleaned := filepath.Clean(pathValue)
	absolute, err := filepath.Abs(cleaned)
	if err != nil {
		return "", fmt.Errorf("resolve absolute path for %q: %w", cleaned, err)
	}
	return absolute, nil
}

// ExpandPath exposes the repository path expansion rules for other packages.
func ExpandPath(pathValue string) (string, error) {
	return expandPath(pathValue)
}

// CreateSample writes a sample configuration file to the specified location.
func CreateSample(path string) error {
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create config directory: %w", err)
		}
	}

	if err := os.WriteFile(path, []byte(sampleConfig), 0o644); err != nil {
		return fmt.Errorf("write sample config: %w", err)
	}
	return nil
}
