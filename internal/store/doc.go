// Package store holds the current content snapshot and serves single-page
// lookups from it.
//
// Readers load the snapshot through an atomic pointer and never block.
// Writers (a full replace after sync, or a lazily fetched page) are
// serialized by one mutex and publish a new snapshot value; a published
// snapshot is never modified.
package store
