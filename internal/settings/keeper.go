package settings

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/bep/debounce"

	"subsync/internal/faults"
	"subsync/internal/logging"
)

// Persister stores the export string between sessions.
type Persister interface {
	Get(ctx context.Context, key string) (string, bool, error)
	Set(ctx context.Context, key, value string) error
}

// KeeperOptions configure a Keeper.
type KeeperOptions struct {
	// Persister may be nil, in which case nothing is saved.
	Persister Persister
	Key       string
	Debounce  time.Duration
	Presets   []string
	Logger    *slog.Logger
}

// Keeper owns the live presentation settings. Changes notify listeners
// immediately and are written to the persister once they settle.
type Keeper struct {
	persister Persister
	key       string
	presets   []string
	logger    *slog.Logger
	debounced func(func())

	mu        sync.Mutex
	current   Presentation
	listeners []func(Presentation)
	loaded    bool
}

const saveTimeout = 5 * time.Second

// NewKeeper creates a keeper holding the defaults.
func NewKeeper(opts KeeperOptions) *Keeper {
	delay := opts.Debounce
	if delay <= 0 {
		delay = 1500 * time.Millisecond
	}
	key := strings.TrimSpace(opts.Key)
	if key == "" {
		key = "subsync.settings"
	}
	return &Keeper{
		persister: opts.Persister,
		key:       key,
		presets:   append([]string(nil), opts.Presets...),
		logger:    logging.NewComponentLogger(opts.Logger, "settings"),
		debounced: debounce.New(delay),
		current:   Default(),
	}
}

// Load reads the persisted settings once. Later calls are no-ops.
func (k *Keeper) Load(ctx context.Context) error {
	k.mu.Lock()
	if k.loaded || k.persister == nil {
		k.loaded = true
		k.mu.Unlock()
		return nil
	}
	k.loaded = true
	k.mu.Unlock()

	value, ok, err := k.persister.Get(ctx, k.key)
	if err != nil {
		return faults.Wrap(faults.ErrConfiguration, "settings", "load", "read persisted settings", err)
	}
	if !ok {
		k.logger.Debug("no persisted settings", logging.String("key", k.key))
		return nil
	}
	k.apply(ImportReset(value), false)
	k.logger.Info("settings restored", logging.String("key", k.key), logging.String("settings", value))
	return nil
}

// Current returns the live settings.
func (k *Keeper) Current() Presentation {
	k.mu.Lock()
	defer k.mu.Unlock()
	return k.current
}

// Export returns the export string of the live settings.
func (k *Keeper) Export() string {
	return Export(k.Current())
}

// OnChange registers a listener called with every new value.
func (k *Keeper) OnChange(fn func(Presentation)) {
	if fn == nil {
		return
	}
	k.mu.Lock()
	k.listeners = append(k.listeners, fn)
	k.mu.Unlock()
}

// Update replaces the live settings.
func (k *Keeper) Update(p Presentation) {
	k.apply(p, true)
}

// Import applies an export string on top of the live settings.
func (k *Keeper) Import(s string) Presentation {
	p := Import(s, k.Current())
	k.apply(p, true)
	return p
}

// ImportReset applies an export string on top of the defaults.
func (k *Keeper) ImportReset(s string) Presentation {
	p := ImportReset(s)
	k.apply(p, true)
	return p
}

// Reset restores the defaults.
func (k *Keeper) Reset() {
	k.apply(Default(), true)
}

// Presets returns the configured preset strings.
func (k *Keeper) Presets() []string {
	return append([]string(nil), k.presets...)
}

// ApplyPreset imports preset index (zero based) on top of the live settings.
func (k *Keeper) ApplyPreset(index int) (Presentation, error) {
	if index < 0 || index >= len(k.presets) {
		return k.Current(), faults.Wrap(faults.ErrConfiguration, "settings", "preset",
			fmt.Sprintf("preset %d not defined (%d configured)", index+1, len(k.presets)), nil)
	}
	return k.Import(k.presets[index]), nil
}

// Flush writes the live settings immediately.
func (k *Keeper) Flush(ctx context.Context) error {
	if k.persister == nil {
		return nil
	}
	value := k.Export()
	if err := k.persister.Set(ctx, k.key, value); err != nil {
		return faults.Wrap(faults.ErrConfiguration, "settings", "save", "write persisted settings", err)
	}
	return nil
}

func (k *Keeper) apply(p Presentation, persist bool) {
	k.mu.Lock()
	k.current = p
	listeners := append([]func(Presentation)(nil), k.listeners...)
	k.mu.Unlock()

	for _, fn := range listeners {
		fn(p)
	}
	if persist && k.persister != nil {
		k.debounced(k.save)
	}
}

func (k *Keeper) save() {
	ctx, cancel := context.WithTimeout(context.Background(), saveTimeout)
	defer cancel()
	if err := k.Flush(ctx); err != nil {
		logging.WarnWithContext(k.logger, "settings not saved", "settings_save_failed",
			logging.Error(err),
			logging.Hint("check that the state directory is writable"),
			logging.Impact("settings revert to the previous value next session"),
		)
		return
	}
	k.logger.Debug("settings saved", logging.String("key", k.key))
}
