package main

import (
	"time"

	"github.com/benbjohnson/clock"
)

// wallVideo is a stand-in player whose position follows the loop clock.
type wallVideo struct {
	clock   clock.Clock
	url     string
	base    float64
	anchor  time.Time
	playing bool
}

func newWallVideo(clk clock.Clock, url string, offset float64) *wallVideo {
	return &wallVideo{clock: clk, url: url, base: offset, anchor: clk.Now(), playing: true}
}

func (v *wallVideo) IsPlaying() bool { return v.playing }

func (v *wallVideo) CurrentURL() string { return v.url }

func (v *wallVideo) CurrentTime() float64 {
	if !v.playing {
		return v.base
	}
	return v.base + v.clock.Since(v.anchor).Seconds()
}

func (v *wallVideo) Pause() {
	if !v.playing {
		return
	}
	v.base = v.CurrentTime()
	v.playing = false
}

func (v *wallVideo) Resume() {
	if v.playing {
		return
	}
	v.anchor = v.clock.Now()
	v.playing = true
}

func (v *wallVideo) Seek(seconds float64) {
	v.base = max(0, seconds)
	v.anchor = v.clock.Now()
}

// Play switches to url and starts from the beginning.
func (v *wallVideo) Play(url string) {
	v.url = url
	v.base = 0
	v.anchor = v.clock.Now()
	v.playing = true
}
