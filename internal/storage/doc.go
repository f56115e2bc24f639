package storage

// Package storage provides the persistence layer holding registry snapshots.
//
// The contract is a minimal key/value store:
//   - Get(key) -> serialized state, or absent
//   - Put(key, state)
//
// Backends: a dependency-free file driver (atomic snapshot files) and a
// SQLite driver (single kv table, WAL).
