// Package services defines shared utilities consumed by the resolver, the
// provider clients and the CLI.
//
// Key responsibilities:
//   - Context helpers that stamp run IDs, identifiers, provider names and
//     chunk indexes for logging.
//   - Structured error markers plus the Wrap helper so callers can tell a
//     soft per-identifier failure from one that must abort the run.
//
// Use these helpers when wiring new components so error handling and
// observability stay uniform across the tool.
package services
