// Package preflight provides readiness checks for the filesystem paths and
// bibliographic sources that isbndate depends on.
//
// The CLI "isbndate doctor" command runs RunAll and prints one line per
// check. Sources that are disabled in configuration are skipped.
package preflight
