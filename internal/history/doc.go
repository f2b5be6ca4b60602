// Package history persists canonical state snapshots to SQLite.
//
// Every accepted device state change can be recorded as one row, keyed by
// device UDN with the snapshot stored as JSON. The Recorder sits between
// adapter update callbacks and the repository: callbacks enqueue without
// blocking, a single writer goroutine performs the inserts.
package history
