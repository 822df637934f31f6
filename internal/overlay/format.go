package overlay

import (
	"fmt"
	"math"
	"regexp"
	"strconv"
	"strings"

	"subsync/internal/settings"
)

const (
	ansiReset     = "\x1b[0m"
	ansiBold      = "\x1b[1m"
	ansiBoldOff   = "\x1b[22m"
	ansiItalic    = "\x1b[3m"
	ansiItalicOff = "\x1b[23m"
	ansiUnder     = "\x1b[4m"
	ansiUnderOff  = "\x1b[24m"
)

var styleTagPattern = regexp.MustCompile(`(?i)<(/?)(b|i|u|color)(?:=([^>]*))?>`)

var namedColors = map[string]settings.Color{
	"white":   {R: 1, G: 1, B: 1},
	"black":   {},
	"red":     {R: 1},
	"green":   {G: 1},
	"blue":    {B: 1},
	"yellow":  {R: 1, G: 1},
	"cyan":    {G: 1, B: 1},
	"magenta": {R: 1, B: 1},
	"grey":    {R: 0.5, G: 0.5, B: 0.5},
	"gray":    {R: 0.5, G: 0.5, B: 0.5},
}

// Format lays text out for a terminal using p. Margins are converted from
// overlay pixels to lines and columns relative to the font size; a vertical
// margin always yields at least one spacer line. With colour disabled every
// style tag is stripped.
func Format(text string, p settings.Presentation, color bool) string {
	if text == "" {
		return ""
	}

	lines := strings.Split(text, "\n")
	indent := strings.Repeat(" ", marginColumns(p))
	base := ""
	if color {
		base = foreground(p.FontColor)
		if p.BackgroundOpacity > 0 {
			base += background(p.BackgroundColor, p.BackgroundOpacity)
		}
	}

	var b strings.Builder
	spacer := marginLines(p)
	if p.Alignment == settings.AlignTop {
		b.WriteString(strings.Repeat("\n", spacer))
	}
	for i, line := range lines {
		if i > 0 {
			b.WriteByte('\n')
		}
		b.WriteString(indent)
		if !color {
			b.WriteString(StripTags(line))
			continue
		}
		b.WriteString(base)
		b.WriteString(styleLine(line, base))
		b.WriteString(ansiReset)
	}
	if p.Alignment != settings.AlignTop {
		b.WriteString(strings.Repeat("\n", spacer))
	}
	return b.String()
}

// StripTags removes the style tags the renderer understands.
func StripTags(text string) string {
	return styleTagPattern.ReplaceAllString(text, "")
}

func styleLine(line, base string) string {
	return styleTagPattern.ReplaceAllStringFunc(line, func(tag string) string {
		match := styleTagPattern.FindStringSubmatch(tag)
		closing := match[1] == "/"
		switch strings.ToLower(match[2]) {
		case "b":
			return pick(closing, ansiBoldOff, ansiBold)
		case "i":
			return pick(closing, ansiItalicOff, ansiItalic)
		case "u":
			return pick(closing, ansiUnderOff, ansiUnder)
		default:
			if closing {
				return base
			}
			if c, ok := parseColor(match[3]); ok {
				return foreground(c)
			}
			return ""
		}
	})
}

func pick(closing bool, off, on string) string {
	if closing {
		return off
	}
	return on
}

func parseColor(value string) (settings.Color, bool) {
	value = strings.Trim(strings.TrimSpace(value), `"'`)
	if c, ok := namedColors[strings.ToLower(value)]; ok {
		return c, true
	}
	value = strings.TrimPrefix(value, "#")
	if len(value) == 8 {
		value = value[:6]
	}
	if len(value) != 6 {
		return settings.Color{}, false
	}
	n, err := strconv.ParseUint(value, 16, 32)
	if err != nil {
		return settings.Color{}, false
	}
	return settings.Color{
		R: float64(n>>16&0xff) / 255,
		G: float64(n>>8&0xff) / 255,
		B: float64(n&0xff) / 255,
	}, true
}

func foreground(c settings.Color) string {
	r, g, b := channels(c)
	return fmt.Sprintf("\x1b[38;2;%d;%d;%dm", r, g, b)
}

// background blends the colour toward black by the opacity, which is as close
// as a terminal gets to a translucent box.
func background(c settings.Color, opacity float64) string {
	opacity = math.Max(0, math.Min(1, opacity))
	blended := settings.Color{R: c.R * opacity, G: c.G * opacity, B: c.B * opacity}
	r, g, b := channels(blended)
	return fmt.Sprintf("\x1b[48;2;%d;%d;%dm", r, g, b)
}

func channels(c settings.Color) (int, int, int) {
	conv := func(v float64) int {
		return int(math.Round(math.Max(0, math.Min(1, v)) * 255))
	}
	return conv(c.R), conv(c.G), conv(c.B)
}

func marginLines(p settings.Presentation) int {
	if p.VerticalMargin <= 0 {
		return 0
	}
	return max(1, int(math.Round(float64(p.VerticalMargin)/fontSize(p))))
}

func marginColumns(p settings.Presentation) int {
	if p.HorizontalMargin <= 0 {
		return 0
	}
	return int(math.Round(float64(p.HorizontalMargin) / fontSize(p) * 2))
}

func fontSize(p settings.Presentation) float64 {
	if p.FontSize <= 0 {
		return float64(settings.Default().FontSize)
	}
	return float64(p.FontSize)
}
