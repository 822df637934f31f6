package testsupport

import (
	"path/filepath"
	"testing"

	"subsync/internal/config"
)

// ConfigOption allows callers to customize the generated test configuration.
type ConfigOption func(*configBuilder)

type configBuilder struct {
	t       testing.TB
	baseDir string
	cfg     *config.Config
}

// NewConfig produces a config seeded with unique temp directories per test.
// It defaults common fields and applies any provided options.
func NewConfig(t testing.TB, opts ...ConfigOption) *config.Config {
	t.Helper()

	base := t.TempDir()
	cfgVal := config.Default()
	cfgVal.Paths.StateDir = filepath.Join(base, "state")
	cfgVal.Paths.LogDir = filepath.Join(base, "logs")
	cfgVal.Sync.RelayBind = "127.0.0.1:0"
	cfgVal.Sync.DisplayName = "tester"
	cfgVal.Settings.DebounceMS = 10

	builder := &configBuilder{
		t:       t,
		baseDir: base,
		cfg:     &cfgVal,
	}

	for _, opt := range opts {
		opt(builder)
	}

	return builder.cfg
}

// WithChunkSize overrides the replication chunk size.
func WithChunkSize(size int) ConfigOption {
	return func(b *configBuilder) {
		b.cfg.Sync.ChunkSize = size
	}
}

// WithUpdateRate overrides the number of frames skipped between updates.
func WithUpdateRate(frames int) ConfigOption {
	return func(b *configBuilder) {
		b.cfg.Playback.UpdateRate = frames
	}
}

// WithPresets replaces the configured settings presets.
func WithPresets(presets ...string) ConfigOption {
	return func(b *configBuilder) {
		b.cfg.Settings.Presets = presets
	}
}

// WithDisplayName sets the local display name.
func WithDisplayName(name string) ConfigOption {
	return func(b *configBuilder) {
		b.cfg.Sync.DisplayName = name
	}
}

// BaseDir returns the root temp directory backing the generated config.
func BaseDir(cfg *config.Config) string {
	return filepath.Dir(cfg.Paths.StateDir)
}
