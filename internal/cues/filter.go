package cues

import (
	"regexp"
	"strings"
)

var (
	overrideBlockPattern = regexp.MustCompile(`\{\\[^}]*\}`)
	fontColorPattern     = regexp.MustCompile(`(?is)<font\b[^>]*?\bcolor\s*=\s*["']?([^"'\s>]+)["']?[^>]*>(.*?)</font\s*>`)
	tagPattern           = regexp.MustCompile(`</?([A-Za-z][A-Za-z0-9]*)\b[^<>]*>`)
)

var keptTags = map[string]struct{}{
	"b":     {},
	"i":     {},
	"u":     {},
	"color": {},
}

// FilterText removes styling the overlay cannot render. Override blocks such
// as {\an8} are dropped, <font color="X">…</font> becomes <color=X>…</color>,
// every other tag except b, i and u is stripped, and the literal escapes \N
// and \n become line breaks.
func FilterText(text string) string {
	if text == "" {
		return text
	}
	text = overrideBlockPattern.ReplaceAllString(text, "")
	text = fontColorPattern.ReplaceAllString(text, "<color=$1>$2</color>")
	text = tagPattern.ReplaceAllStringFunc(text, func(tag string) string {
		match := tagPattern.FindStringSubmatch(tag)
		if _, ok := keptTags[strings.ToLower(match[1])]; ok {
			return tag
		}
		return ""
	})
	text = strings.NewReplacer(`\N`, "\n", `\n`, "\n", `\h`, " ").Replace(text)
	return text
}
