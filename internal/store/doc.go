// Package store owns the authoritative collection of to-do items and the id
// counter that names them.
//
// Two backends implement Store:
//
//   - memory: a map keyed by item URL plus an insertion-ordered index
//   - sqlite: an in-memory SQLite database, nothing is written to disk
//
// Every operation on either backend runs under a single store-wide mutex, so
// lookup-then-mutate sequences such as Update and RemoveByURL never interleave
// with another request. Ids are handed out from a counter that only grows;
// Clear empties the collection but leaves the counter alone so an item URL is
// never issued twice.
package store
