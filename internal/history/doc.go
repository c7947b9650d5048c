// Package history records batch runs and their chunk checkpoints in SQLite.
//
// Each run gets a UUID when it begins, the same identifier stamped into every
// log record of the run. Checkpoints are appended after each chunk so an
// interrupted run still shows how far it got. The database uses the pure-Go
// modernc.org/sqlite driver and a single embedded schema guarded by a version
// row.
package history
