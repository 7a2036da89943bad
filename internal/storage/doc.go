// Package storage persists the event catalog and the source registry.
//
// Two backends implement Store. The JSON backend keeps events.json and
// sources.json in a data directory (default ~/.local/share/event-harvest)
// and replaces each file atomically. The SQLite backend keeps the same
// records as JSON documents in two tables.
package storage
