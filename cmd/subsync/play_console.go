package main

import (
	"context"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/atotto/clipboard"

	"subsync/internal/manager"
	"subsync/internal/settings"
)

const consoleHelp = `commands:
  load <file|url>     load subtitles
  clear               clear subtitles
  sync                send the subtitles to every peer again
  lock | unlock       restrict changes to the owner
  local | shared      switch between private and shared subtitles
  on | off            show or hide subtitles
  placeholder on|off  show sample text to adjust the look
  pause | resume      control the simulated video
  seek <seconds>      jump to a position
  video <url>         start a new video
  settings [export]   print the settings export string
  settings <string>   apply a settings export string
  preset <n>          apply a configured preset
  copy | paste        exchange settings through the clipboard
  status              print the current state
  quit                leave the session`

// consoleControl prints what the manager reports to a control surface.
type consoleControl struct {
	out io.Writer
}

func (c *consoleControl) SetStatusText(text string) {
	fmt.Fprintf(c.out, "[status] %s\n", text)
}

func (c *consoleControl) ClearInput() {}

func (c *consoleControl) CloseInputMenu() {}

func (c *consoleControl) OwnerChanged(label string) {
	fmt.Fprintf(c.out, "[owner] %s\n", label)
}

func (c *consoleControl) LockChanged(locked bool) {
	state := "unlocked"
	if locked {
		state = "locked"
	}
	fmt.Fprintf(c.out, "[lock] %s\n", state)
}

// console executes typed commands against a play session. Every method runs
// on the loop goroutine.
type console struct {
	ctx    context.Context
	mgr    *manager.Manager
	video  *wallVideo
	keeper *settings.Keeper
	out    io.Writer
	quit   func()
	read   func(ctx context.Context, source string) (string, error)
}

func (c *console) execute(line string) error {
	fields := strings.Fields(line)
	if len(fields) == 0 {
		return nil
	}
	arg := strings.TrimSpace(strings.TrimPrefix(strings.TrimSpace(line), fields[0]))

	switch strings.ToLower(fields[0]) {
	case "help", "?":
		fmt.Fprintln(c.out, consoleHelp)
	case "load":
		if arg == "" {
			return fmt.Errorf("load needs a file or URL")
		}
		if isURL(arg) {
			return c.mgr.SubmitURL(c.ctx, arg)
		}
		text, err := c.read(c.ctx, arg)
		if err != nil {
			return err
		}
		return c.mgr.SubmitText(text)
	case "clear":
		return c.mgr.Clear()
	case "sync":
		return c.mgr.RequestResync()
	case "lock":
		return c.mgr.SetLocked(true)
	case "unlock":
		return c.mgr.SetLocked(false)
	case "local":
		c.mgr.SetLocalMode(true)
	case "shared":
		c.mgr.SetLocalMode(false)
	case "on":
		c.mgr.SetEnabled(true)
	case "off":
		c.mgr.SetEnabled(false)
	case "placeholder":
		c.mgr.SetPlaceholder(arg != "off")
	case "pause":
		c.video.Pause()
	case "resume":
		c.video.Resume()
	case "seek":
		seconds, err := strconv.ParseFloat(arg, 64)
		if err != nil {
			return fmt.Errorf("seek needs seconds: %w", err)
		}
		c.video.Seek(seconds)
	case "video":
		c.video.Play(arg)
		c.mgr.OnVideoPlay()
	case "settings":
		if arg == "" || arg == "export" {
			fmt.Fprintln(c.out, c.keeper.Export())
			return nil
		}
		c.keeper.Import(arg)
		fmt.Fprintln(c.out, c.keeper.Export())
	case "preset":
		index, err := strconv.Atoi(arg)
		if err != nil {
			return fmt.Errorf("preset needs a number: %w", err)
		}
		if _, err := c.keeper.ApplyPreset(index - 1); err != nil {
			return err
		}
		fmt.Fprintln(c.out, c.keeper.Export())
	case "copy":
		return clipboard.WriteAll(c.keeper.Export())
	case "paste":
		value, err := clipboard.ReadAll()
		if err != nil {
			return err
		}
		c.keeper.Import(value)
		fmt.Fprintln(c.out, c.keeper.Export())
	case "status":
		fmt.Fprintf(c.out, "status=%q cues=%d time=%s local=%t locked=%t enabled=%t complete=%t\n",
			c.mgr.Status(), c.mgr.CueCount(), formatSeconds(c.video.CurrentTime()),
			c.mgr.IsLocal(), c.mgr.IsLocked(), c.mgr.IsEnabled(), c.mgr.DataComplete())
	case "quit", "exit":
		c.quit()
	default:
		return fmt.Errorf("unknown command %q (type help)", fields[0])
	}
	return nil
}
