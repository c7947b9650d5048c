// Package main hosts the isbndate CLI entrypoint and command graph.
//
// The Cobra-based command tree reads identifier spreadsheets, drives the
// resolver, and manages the local date cache and run history. It centralizes
// configuration resolution and structured logging setup so subcommands can
// focus on user experience instead of wiring.
//
// Keep this package lean: add new functionality by extending the internal
// packages first, then surface it through dedicated commands or flags here.
package main
