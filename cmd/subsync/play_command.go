package main

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/benbjohnson/clock"
	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"subsync/internal/config"
	"subsync/internal/host"
	"subsync/internal/host/loopback"
	"subsync/internal/logging"
	"subsync/internal/manager"
	"subsync/internal/overlay"
	"subsync/internal/relay"
	"subsync/internal/scheduler"
)

type playOptions struct {
	relayURL  string
	room      string
	name      string
	local     bool
	offset    float64
	videoURL  string
	exitAtEnd bool
	noColor   bool
}

func newPlayCommand(ctx *commandContext) *cobra.Command {
	var opts playOptions

	cmd := &cobra.Command{
		Use:   "play [file|url]",
		Short: "Render subtitles against a simulated video and accept commands on stdin",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			logger, err := ctx.ensureLogger()
			if err != nil {
				return err
			}
			source := ""
			if len(args) == 1 {
				source = args[0]
			}
			return runPlay(cmd, ctx, cfg, logger, opts, source)
		},
	}

	cmd.Flags().StringVar(&opts.relayURL, "relay", "", "Relay websocket URL (defaults to sync.relay_url; empty plays alone)")
	cmd.Flags().StringVar(&opts.room, "room", "default", "Relay room to join")
	cmd.Flags().StringVar(&opts.name, "name", "", "Display name (defaults to sync.display_name)")
	cmd.Flags().BoolVar(&opts.local, "local", false, "Start in local mode")
	cmd.Flags().Float64Var(&opts.offset, "offset", 0, "Start the simulated video at this position in seconds")
	cmd.Flags().StringVar(&opts.videoURL, "video", "local://video", "URL reported by the simulated video")
	cmd.Flags().BoolVar(&opts.exitAtEnd, "exit-at-end", false, "Exit one second after the last cue ends")
	cmd.Flags().BoolVar(&opts.noColor, "no-color", false, "Disable colours in the overlay")
	return cmd
}

func runPlay(cmd *cobra.Command, ctx *commandContext, cfg *config.Config, logger *slog.Logger, opts playOptions, source string) error {
	runCtx, cancel := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	keeper, st, err := ctx.openKeeper(runCtx)
	if err != nil {
		return err
	}
	if st != nil {
		defer st.Close()
	}

	name := strings.TrimSpace(opts.name)
	if name == "" {
		name = cfg.Sync.DisplayName
	}
	relayURL := strings.TrimSpace(opts.relayURL)
	if relayURL == "" {
		relayURL = cfg.Sync.RelayURL
	}

	peer := host.PeerID(uuid.NewString())
	logCtx := logging.WithPeer(logging.WithRoom(runCtx, opts.room), string(peer))
	logger = logging.WithContext(logCtx, logger)

	clk := clock.New()
	loop := scheduler.New(clk)
	network, closeNetwork, err := dialNetwork(runCtx, relayURL, opts.room, name, peer, loop, logger)
	if err != nil {
		return err
	}
	defer closeNetwork()

	termOpts := []overlay.Option{overlay.WithSettings(keeper.Current())}
	if opts.noColor {
		termOpts = append(termOpts, overlay.WithColor(false))
	}
	term := overlay.NewTerminal(cmd.OutOrStdout(), termOpts...)
	keeper.OnChange(term.ApplySettings)

	video := newWallVideo(clk, opts.videoURL, opts.offset)
	mgr := manager.New(manager.Options{
		Network:         network,
		Loop:            loop,
		Video:           video,
		Overlay:         term,
		Fetcher:         newFetcher(cfg),
		Logger:          logger,
		ChunkSize:       cfg.Sync.ChunkSize,
		UpdateRate:      cfg.Playback.UpdateRate,
		FrameBudget:     cfg.FrameBudget(),
		LinesPerFrame:   cfg.Parser.LinesPerFrame,
		FilterTags:      cfg.Parser.FilterTags,
		ClearOnNewVideo: cfg.Playback.ClearOnNewVideo,
		TemporaryStatus: cfg.TemporaryStatus(),
	})
	mgr.Register(&consoleControl{out: cmd.ErrOrStderr()})
	mgr.SetLocalMode(opts.local)
	mgr.OnVideoPlay()
	mgr.Start()
	defer mgr.Stop()

	con := &console{
		ctx:    runCtx,
		mgr:    mgr,
		video:  video,
		keeper: keeper,
		out:    cmd.ErrOrStderr(),
		quit:   cancel,
		read: func(ctx context.Context, source string) (string, error) {
			return readSource(ctx, cfg, source, strings.NewReader(""))
		},
	}
	if source != "" {
		text, err := readSource(runCtx, cfg, source, cmd.InOrStdin())
		if err != nil {
			return err
		}
		loop.Post(func() {
			if err := mgr.SubmitText(text); err != nil {
				fmt.Fprintf(cmd.ErrOrStderr(), "error: %v\n", err)
			}
		})
	}
	if source != "-" {
		go readCommands(runCtx, cmd, loop, con)
	}
	if opts.exitAtEnd {
		watchEnd(loop, mgr, video, cancel)
	}

	logger.Info("playback started", logging.Bool("relay", relayURL != ""), logging.String("video", opts.videoURL))
	err = loop.Run(runCtx, cfg.Playback.FrameRate)
	if flushErr := keeper.Flush(context.Background()); flushErr != nil {
		logger.Warn("settings flush failed", logging.Error(flushErr))
	}
	return playbackResult(err)
}

// playbackResult treats a cancelled loop as a clean shutdown.
func playbackResult(err error) error {
	if errors.Is(err, context.Canceled) {
		return nil
	}
	return err
}

// dialNetwork joins a relay room, or a private in-process room when no relay
// is configured.
func dialNetwork(ctx context.Context, relayURL, room, name string, peer host.PeerID, loop *scheduler.Loop, logger *slog.Logger) (host.Network, func(), error) {
	if relayURL == "" {
		solo := loopback.NewRoom(loop.Clock(), logger).Join(peer, name, loop)
		return solo, solo.Leave, nil
	}

	dialCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()
	client, err := relay.Dial(dialCtx, relay.ClientOptions{
		URL:    relayURL,
		Room:   room,
		Name:   name,
		PeerID: peer,
		Loop:   loop,
		Logger: logger,
	})
	if err != nil {
		return nil, nil, fmt.Errorf("join relay room %q: %w", room, err)
	}
	return client, func() { client.Close() }, nil
}

func readCommands(ctx context.Context, cmd *cobra.Command, loop *scheduler.Loop, con *console) {
	scanner := bufio.NewScanner(cmd.InOrStdin())
	for scanner.Scan() {
		if ctx.Err() != nil {
			return
		}
		line := scanner.Text()
		loop.Post(func() {
			if err := con.execute(line); err != nil {
				fmt.Fprintf(con.out, "error: %v\n", err)
			}
		})
	}
}

func watchEnd(loop *scheduler.Loop, mgr *manager.Manager, video *wallVideo, stop func()) {
	var check func()
	check = func() {
		if set := mgr.Cues(); len(set) > 0 && !mgr.Parsing() {
			if _, end := set.Span(); video.CurrentTime() > end+1 {
				stop()
				return
			}
		}
		loop.AfterDuration(time.Second, check)
	}
	loop.AfterDuration(time.Second, check)
}
