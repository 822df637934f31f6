package main

import (
	"errors"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"

	"github.com/gofrs/flock"
	"github.com/spf13/cobra"

	"subsync/internal/logging"
	"subsync/internal/relay"
)

func newRelayCommand(ctx *commandContext) *cobra.Command {
	var bind string
	var audit bool

	cmd := &cobra.Command{
		Use:   "relay",
		Short: "Run the relay that replicates subtitle state between peers",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			logger, err := ctx.ensureLogger()
			if err != nil {
				return err
			}

			lockPath := filepath.Join(cfg.Paths.StateDir, "relay.lock")
			lock := flock.New(lockPath)
			ok, err := lock.TryLock()
			if err != nil {
				return fmt.Errorf("acquire relay lock: %w", err)
			}
			if !ok {
				return errors.New("another relay is already running (lock held at " + lockPath + ")")
			}
			defer func() {
				if err := lock.Unlock(); err != nil {
					logger.Warn("failed to release relay lock", logging.Error(err))
				}
			}()

			if audit {
				auditPath := filepath.Join(cfg.Paths.LogDir, "relay.jsonl")
				file, err := os.OpenFile(auditPath, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
				if err != nil {
					return fmt.Errorf("open relay audit log: %w", err)
				}
				defer file.Close()
				logger = logging.TeeLogger(logger, logging.JSONHandler(file, "info"))
			}

			address := strings.TrimSpace(bind)
			if address == "" {
				address = cfg.Sync.RelayBind
			}

			runCtx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			server := relay.NewServer(relay.ServerOptions{Logger: logger})
			httpServer := relay.NewHTTPServer(address, server, logger)
			if err := httpServer.Start(runCtx); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Relay listening on ws://%s/ws\n", httpServer.Addr())

			<-runCtx.Done()
			httpServer.Stop()
			logger.Info("relay stopped", logging.String("lock", lockPath))
			return nil
		},
	}

	cmd.Flags().StringVar(&bind, "bind", "", "Listen address (defaults to sync.relay_bind)")
	cmd.Flags().BoolVar(&audit, "audit", true, "Also write JSON logs to relay.jsonl in the log directory")
	return cmd
}
