// Package kvstore provides the string key-value persistence the dashboard
// keeps its user topic list in.
//
// Two implementations are provided:
//   - SQLiteStore: durable, backed by the kv_store table
//   - MemoryStore: process-local, for tests and ephemeral deployments
//
// Values are opaque strings; callers own the encoding. A Set replaces the
// whole value atomically.
package kvstore
