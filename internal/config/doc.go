// Package config loads, normalizes, and validates isbndate configuration data.
//
// It supplies repository defaults, expands user paths (including tilde
// shortcuts), reads TOML files, and honours environment overrides such as
// ISBNDATE_CACHE_FILE. The Config type centralizes every knob the resolver
// and CLI need: where the cache lives, which sources are queried in which
// order, and how aggressively they are retried and paced.
//
// Always obtain settings through this package so downstream code receives
// sanitized paths, canonical log formats, and clear validation errors.
package config
