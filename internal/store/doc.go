// Package store owns the tracker state and keeps it in sync with a persistence gateway.
//
// A [Store] is constructed explicitly with [New] and shared by the CLI, the
// HTTP server and the TUI. Every operation runs in one critical section and
// returns a snapshot of the resulting [models.State], so readers never see a
// partially applied mutation.
//
// Blank ids, names, tags and topics are ignored. Operations that change
// nothing (adding a book that is already present, removing a missing tag)
// do not schedule a save.
//
// Effective mutations hand the whole document to a [Syncer], which saves on a
// single background goroutine. Pending snapshots coalesce: when several
// mutations happen during one save, only the newest snapshot is written next.
// Save failures are logged and the in-memory state stays authoritative.
package store
