// Package settings models how subtitles look and how that look is exchanged.
//
// Presentation settings travel as a compact export string of slash separated
// key:value pairs, for example
//
//	fs:56/fc:0.952;0.952;0.478/os:0.2/oc:0;0;0/bo:0.5/bc:0;0;0/vm:50/hm:0/pa:0
//
// Colours carry three components rounded to three decimals; sizes and the
// background opacity are rounded to two. Decimal commas are accepted on
// import so strings copied between locales keep working.
package settings

import (
	"fmt"
	"math"
)

// Alignment places subtitles on screen.
type Alignment int

const (
	AlignBottom Alignment = 0
	AlignTop    Alignment = 1
)

func (a Alignment) String() string {
	if a == AlignTop {
		return "top"
	}
	return "bottom"
}

// Color is an RGB colour with components in [0,1].
type Color struct {
	R float64 `json:"r" yaml:"r"`
	G float64 `json:"g" yaml:"g"`
	B float64 `json:"b" yaml:"b"`
}

// Hex renders the colour as #RRGGBB.
func (c Color) Hex() string {
	return fmt.Sprintf("#%02X%02X%02X", toByte(c.R), toByte(c.G), toByte(c.B))
}

func (c Color) clamped() Color {
	return Color{R: clamp01(c.R), G: clamp01(c.G), B: clamp01(c.B)}
}

// Presentation is the full set of overlay settings.
type Presentation struct {
	FontSize          int       `json:"font_size" yaml:"font_size"`
	FontColor         Color     `json:"font_color" yaml:"font_color"`
	OutlineSize       float64   `json:"outline_size" yaml:"outline_size"`
	OutlineColor      Color     `json:"outline_color" yaml:"outline_color"`
	BackgroundColor   Color     `json:"background_color" yaml:"background_color"`
	BackgroundOpacity float64   `json:"background_opacity" yaml:"background_opacity"`
	VerticalMargin    int       `json:"vertical_margin" yaml:"vertical_margin"`
	HorizontalMargin  int       `json:"horizontal_margin" yaml:"horizontal_margin"`
	Alignment         Alignment `json:"alignment" yaml:"alignment"`
}

// Default returns the stock look: large pale yellow text on a half
// transparent black box near the bottom of the screen.
func Default() Presentation {
	return Presentation{
		FontSize:          56,
		FontColor:         Color{R: 0.952, G: 0.952, B: 0.478},
		OutlineSize:       0.2,
		OutlineColor:      Color{},
		BackgroundColor:   Color{},
		BackgroundOpacity: 0.5,
		VerticalMargin:    50,
		HorizontalMargin:  0,
		Alignment:         AlignBottom,
	}
}

func clamp01(v float64) float64 {
	return math.Max(0, math.Min(1, v))
}

func toByte(v float64) int {
	return int(clamp01(v) * 255)
}

func round(v float64, decimals int) float64 {
	n := math.Pow(10, float64(decimals))
	return math.Round(v*n) / n
}
