// Package store persists sync output to the local data directory.
//
// This package is internal to livesync and owns every file write the sync
// loop performs. All writes replace the whole file through a temporary file
// and a rename, so concurrent readers observe either the previous or the new
// version, never a partial one.
//
// The main components are:
//
//   - [Archive]: Bounded JSON array of batches, oldest entries evicted first
//   - [Batch]: One cycle's contribution to an archive
//   - [WriteFileAtomic], [WriteJSON]: Whole-file replacement helpers
//
// Users of the livesync library should not need to interact with this
// package directly. Storage is managed internally by livesync.
package store
