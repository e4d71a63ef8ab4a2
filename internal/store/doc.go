// Package store provides a SQLite-backed repository for canonical records and
// the blobs they reference.
//
// Records are stored as the exact bytes ir.Encode produces for their canonical
// form, next to the identifier computed from those bytes. Nothing is
// re-serialized on the way in or out, so an identifier embedded in a later
// record's reply link always matches what is on disk. Every read re-hashes
// the stored bytes and fails with ErrCorrupt on a mismatch.
//
// # Database Configuration
//
//   - WAL mode: Concurrent reads during writes
//   - synchronous=NORMAL: Balance durability/performance
//   - busy_timeout=5000: Wait for locks up to 5 seconds
//
// Listings order by rkey with COLLATE BINARY. Record keys are TIDs, so that
// is creation order.
package store
