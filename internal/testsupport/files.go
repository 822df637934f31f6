package testsupport

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

// WriteFile writes content to path, creating parent directories.
func WriteFile(t testing.TB, path, content string) {
	t.Helper()

	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatalf("mkdir for %s: %v", path, err)
	}
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write %s: %v", path, err)
	}
}

// SRT builds a subtitle document with count numbered cues. Cue i starts at
// i*step seconds and lasts length seconds; its text is "Line <i+1>".
func SRT(count int, step, length float64) string {
	var b strings.Builder
	for i := 0; i < count; i++ {
		start := float64(i) * step
		fmt.Fprintf(&b, "%d\n%s --> %s\nLine %d\n\n", i+1, Timestamp(start), Timestamp(start+length), i+1)
	}
	return b.String()
}

// Timestamp formats seconds as HH:MM:SS,mmm.
func Timestamp(seconds float64) string {
	total := int64(seconds*1000 + 0.5)
	ms := total % 1000
	s := (total / 1000) % 60
	m := (total / 60000) % 60
	h := total / 3600000
	return fmt.Sprintf("%02d:%02d:%02d,%03d", h, m, s, ms)
}
