package settings

import (
	"strconv"
	"strings"
)

// Export keys.
const (
	KeyFontSize          = "fs"
	KeyFontColor         = "fc"
	KeyOutlineSize       = "os"
	KeyOutlineColor      = "oc"
	KeyBackgroundOpacity = "bo"
	KeyBackgroundColor   = "bc"
	KeyVerticalMargin    = "vm"
	KeyHorizontalMargin  = "hm"
	KeyAlignment         = "pa"
)

// Export encodes p as an export string.
func Export(p Presentation) string {
	pairs := []string{
		KeyFontSize + ":" + strconv.Itoa(p.FontSize),
		KeyFontColor + ":" + formatColor(p.FontColor),
		KeyOutlineSize + ":" + formatFloat(p.OutlineSize, 2),
		KeyOutlineColor + ":" + formatColor(p.OutlineColor),
		KeyBackgroundOpacity + ":" + formatFloat(p.BackgroundOpacity, 2),
		KeyBackgroundColor + ":" + formatColor(p.BackgroundColor),
		KeyVerticalMargin + ":" + strconv.Itoa(p.VerticalMargin),
		KeyHorizontalMargin + ":" + strconv.Itoa(p.HorizontalMargin),
		KeyAlignment + ":" + strconv.Itoa(int(p.Alignment)),
	}
	return strings.Join(pairs, "/")
}

// Import applies the recognised pairs of s on top of base. Unknown keys and
// values that do not parse are skipped, so a partial string only changes
// what it names.
func Import(s string, base Presentation) Presentation {
	p := base
	for _, entry := range strings.Split(strings.TrimSpace(s), "/") {
		key, value, ok := strings.Cut(strings.TrimSpace(entry), ":")
		if !ok {
			continue
		}
		value = strings.TrimSpace(value)
		switch strings.TrimSpace(key) {
		case KeyFontSize:
			if v, ok := parseFloat(value); ok && v > 0 {
				p.FontSize = int(v)
			}
		case KeyOutlineSize:
			if v, ok := parseFloat(value); ok && v > 0 {
				p.OutlineSize = v
			}
		case KeyBackgroundOpacity:
			if v, ok := parseFloat(value); ok {
				p.BackgroundOpacity = clamp01(v)
			}
		case KeyFontColor:
			if c, ok := parseColor(value); ok {
				p.FontColor = c
			}
		case KeyOutlineColor:
			if c, ok := parseColor(value); ok {
				p.OutlineColor = c
			}
		case KeyBackgroundColor:
			if c, ok := parseColor(value); ok {
				p.BackgroundColor = c
			}
		case KeyVerticalMargin:
			if v, ok := parseInt(value); ok && v >= 0 {
				p.VerticalMargin = v
			}
		case KeyHorizontalMargin:
			if v, ok := parseInt(value); ok && v >= 0 {
				p.HorizontalMargin = v
			}
		case KeyAlignment:
			if v, ok := parseInt(value); ok && (v == int(AlignBottom) || v == int(AlignTop)) {
				p.Alignment = Alignment(v)
			}
		}
	}
	return p
}

// ImportReset applies s on top of the defaults.
func ImportReset(s string) Presentation {
	return Import(s, Default())
}

func formatFloat(v float64, decimals int) string {
	r := round(v, decimals)
	if r == 0 {
		r = 0 // drop negative zero
	}
	return strconv.FormatFloat(r, 'f', -1, 64)
}

func formatColor(c Color) string {
	return formatFloat(c.R, 3) + ";" + formatFloat(c.G, 3) + ";" + formatFloat(c.B, 3)
}

func parseFloat(s string) (float64, bool) {
	v, err := strconv.ParseFloat(strings.ReplaceAll(s, ",", "."), 64)
	if err != nil {
		return 0, false
	}
	return v, true
}

func parseInt(s string) (int, bool) {
	v, err := strconv.Atoi(s)
	if err != nil {
		return 0, false
	}
	return v, true
}

func parseColor(s string) (Color, bool) {
	parts := strings.Split(s, ";")
	if len(parts) != 3 {
		return Color{}, false
	}
	var out [3]float64
	for i, part := range parts {
		v, ok := parseFloat(strings.TrimSpace(part))
		if !ok {
			return Color{}, false
		}
		out[i] = v
	}
	return Color{R: out[0], G: out[1], B: out[2]}.clamped(), true
}
