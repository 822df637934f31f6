package config

const (
	defaultConfigPath       = "~/.config/subsync/config.toml"
	defaultStateDir         = "~/.local/share/subsync"
	defaultLogDir           = "~/.local/share/subsync/logs"
	defaultChunkSize        = 10000
	defaultRelayBind        = "127.0.0.1:7610"
	defaultFrameBudgetMS    = 10
	defaultUpdateRate       = 10
	defaultFrameRate        = 60
	defaultTemporarySeconds = 3
	defaultPersistKey       = "subsync.settings"
	defaultDebounceMS       = 1500
	defaultFetchTimeout     = 15
	defaultFetchMaxBytes    = 10_000_000
	defaultFetchUserAgent   = "subsync/dev"
	defaultLogFormat        = "console"
	defaultLogLevel         = "info"

	minChunkSize  = 5000
	maxChunkSize  = 50000
	maxUpdateRate = 60
)

// Default returns a Config populated with repository defaults.
func Default() Config {
	return Config{
		Paths: Paths{
			StateDir: defaultStateDir,
			LogDir:   defaultLogDir,
		},
		Sync: Sync{
			ChunkSize: defaultChunkSize,
			RelayBind: defaultRelayBind,
		},
		Parser: Parser{
			FrameBudgetMS: defaultFrameBudgetMS,
			FilterTags:    true,
		},
		Playback: Playback{
			UpdateRate: defaultUpdateRate,
			FrameRate:  defaultFrameRate,
		},
		Status: Status{
			TemporarySeconds: defaultTemporarySeconds,
		},
		Settings: Settings{
			Persist:    true,
			PersistKey: defaultPersistKey,
			DebounceMS: defaultDebounceMS,
		},
		Fetch: Fetch{
			TimeoutSeconds: defaultFetchTimeout,
			MaxBytes:       defaultFetchMaxBytes,
			UserAgent:      defaultFetchUserAgent,
		},
		Logging: Logging{
			Format: defaultLogFormat,
			Level:  defaultLogLevel,
		},
	}
}
