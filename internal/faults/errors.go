// Package faults defines the error markers shared by subsync components.
//
// Every failure the subtitle manager can hit is tagged with one of the
// sentinel markers below and classified with errors.Is. None of them are
// fatal: the manager converts them into status text and keeps running.
package faults

import (
	"errors"
	"fmt"
	"strings"
)

var (
	ErrParse         = errors.New("parse error")
	ErrPermission    = errors.New("permission denied")
	ErrSyncGap       = errors.New("sync gap")
	ErrFetch         = errors.New("fetch error")
	ErrEmptyInput    = errors.New("empty input")
	ErrBusy          = errors.New("synchronization in progress")
	ErrConfiguration = errors.New("configuration error")
)

// Wrap builds an error message that includes component context while tagging
// it with the provided marker for later classification. The marker should be
// one of the exported sentinel errors above; nil defaults to ErrConfiguration.
func Wrap(marker error, component, operation, message string, err error) error {
	detail := buildDetail(component, operation, message)
	if marker == nil {
		marker = ErrConfiguration
	}
	if err != nil {
		return fmt.Errorf("%w: %s: %w", marker, detail, err)
	}
	return fmt.Errorf("%w: %s", marker, detail)
}

// EventType maps an error onto the event_type value used in structured logs.
func EventType(err error) string {
	switch {
	case err == nil:
		return ""
	case errors.Is(err, ErrParse):
		return "parse_failed"
	case errors.Is(err, ErrPermission):
		return "permission_denied"
	case errors.Is(err, ErrSyncGap):
		return "sync_gap"
	case errors.Is(err, ErrFetch):
		return "fetch_failed"
	case errors.Is(err, ErrEmptyInput):
		return "empty_input"
	case errors.Is(err, ErrBusy):
		return "sync_busy"
	case errors.Is(err, ErrConfiguration):
		return "configuration_invalid"
	default:
		return "unexpected_error"
	}
}

func buildDetail(component, operation, message string) string {
	parts := make([]string, 0, 3)
	if component = strings.TrimSpace(component); component != "" {
		parts = append(parts, component)
	}
	if operation = strings.TrimSpace(operation); operation != "" {
		parts = append(parts, operation)
	}
	if message = strings.TrimSpace(message); message != "" {
		parts = append(parts, message)
	}
	if len(parts) == 0 {
		return "subtitle failure"
	}
	return strings.Join(parts, ": ")
}
