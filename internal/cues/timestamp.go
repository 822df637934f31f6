package cues

import (
	"strconv"
	"strings"
)

// ParseTimestamp converts "HH:MM:SS,mmm" into seconds. A dot may replace the
// comma, and the hour field may be omitted as in WebVTT. Malformed fields
// read as zero so a damaged timestamp never aborts a parse.
func ParseTimestamp(value string) float64 {
	value = strings.TrimSpace(value)
	if value == "" {
		return 0
	}
	parts := strings.Split(value, ":")
	var hours, minutes int
	var secondsField string
	switch len(parts) {
	case 3:
		hours = atoiOrZero(parts[0])
		minutes = atoiOrZero(parts[1])
		secondsField = parts[2]
	case 2:
		minutes = atoiOrZero(parts[0])
		secondsField = parts[1]
	default:
		return 0
	}

	secondsField = strings.ReplaceAll(secondsField, ".", ",")
	whole, frac, _ := strings.Cut(secondsField, ",")
	seconds := atoiOrZero(whole)
	millis := atoiOrZero(frac)

	return float64(hours*3600+minutes*60+seconds) + float64(millis)/1000
}

func atoiOrZero(value string) int {
	n, err := strconv.Atoi(strings.TrimSpace(value))
	if err != nil {
		return 0
	}
	return n
}
