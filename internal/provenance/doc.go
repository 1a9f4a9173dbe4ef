// Package provenance persists the who-asked-what-from-whom graph behind
// the blackboard dispatcher.
//
// # Model
//
// A Session is one end-to-end interaction, keyed by trace id. Each
// capability invocation within it becomes a Step with a monotone status
// (working → complete | failed) and an attached MessageEvent carrying the
// payload snapshot. Steps form a singly linked chain per session: one
// FIRST_STEP head, NEXT pointers between consecutive steps, no cycles.
// Handlers additionally record architecture facts — PROVIDES,
// COMMUNICATES_WITH, REQUIRES, PART_OF edges between named UI and backend
// component nodes.
//
// # Implementations
//
//   - MemoryStore: adjacency maps under one mutex, for tests and
//     single-process use.
//   - SQLiteStore: modernc.org/sqlite with WAL. The schema enforces the
//     chain invariants (a partial unique index allows one head per
//     session, prev pointers are unique), so a concurrent append is
//     equivalent to an atomic compare-and-append.
//
// All write operations are merge/upserts: repeating a call with identical
// keys never duplicates nodes or edges. Both implementations satisfy the
// same contract test suite.
package provenance
