// Package database provides the SQLite-backed store underlying device
// state persistence.
//
// The schema is a single device_state table holding one opaque (to this
// package) versioned state record per device. Devices serialise and
// validate their own records; this package only guarantees durable
// round-tripping of the bytes.
//
// SQLite is opened in WAL mode with a busy timeout, matching how the
// daemon is deployed on small always-on boxes with no external database.
package database
