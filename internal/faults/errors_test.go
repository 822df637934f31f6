package faults_test

import (
	"errors"
	"fmt"
	"strings"
	"testing"

	"subsync/internal/faults"
)

func TestWrapIncludesContext(t *testing.T) {
	base := errors.New("connection reset")
	err := faults.Wrap(faults.ErrFetch, "fetch", "download", "request failed", base)
	if !errors.Is(err, faults.ErrFetch) {
		t.Fatalf("expected marker to be retained, got %v", err)
	}
	if !errors.Is(err, base) {
		t.Fatalf("expected wrapped error to contain base error, got %v", err)
	}
	for _, fragment := range []string{"fetch", "download", "request failed", "connection reset"} {
		if !strings.Contains(err.Error(), fragment) {
			t.Fatalf("expected %q in error string %q", fragment, err.Error())
		}
	}
}

func TestWrapWithoutCauseOrDetail(t *testing.T) {
	err := faults.Wrap(nil, " ", "", "", nil)
	if !errors.Is(err, faults.ErrConfiguration) {
		t.Fatalf("expected default marker, got %v", err)
	}
	if !strings.Contains(err.Error(), "subtitle failure") {
		t.Fatalf("expected placeholder detail, got %q", err.Error())
	}
}

func TestEventTypeMapping(t *testing.T) {
	tests := []struct {
		err  error
		want string
	}{
		{nil, ""},
		{faults.Wrap(faults.ErrParse, "cues", "parse", "no cues", nil), "parse_failed"},
		{faults.Wrap(faults.ErrPermission, "manager", "clear", "locked", nil), "permission_denied"},
		{fmt.Errorf("apply: %w", faults.ErrSyncGap), "sync_gap"},
		{faults.ErrEmptyInput, "empty_input"},
		{faults.ErrBusy, "sync_busy"},
		{errors.New("other"), "unexpected_error"},
	}
	for _, tc := range tests {
		if got := faults.EventType(tc.err); got != tc.want {
			t.Fatalf("EventType(%v) = %q, want %q", tc.err, got, tc.want)
		}
	}
}
