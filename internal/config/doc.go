// Package config loads, normalizes, and validates subsync configuration data.
//
// It supplies repository defaults, expands user paths (including tilde
// shortcuts), reads TOML files, and honours environment fallbacks such as
// SUBSYNC_DISPLAY_NAME. The Config type centralizes every knob the frame loop,
// the replication protocol, and the CLI need so they are resolved in one pass.
//
// Always obtain settings through this package so downstream code receives
// sanitized paths, canonical log formats, and clear validation errors.
package config
