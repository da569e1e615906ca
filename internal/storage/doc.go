// Package storage provides JSON-based persistence for the canonical event store
// and the location registry.
//
// Both documents are single JSON files: {"events": [...]} and
// {"locations": [...]}. Files are validated against their schema on load and
// replaced atomically on save, so an interrupted run never leaves a truncated
// store behind. Paths starting with ~/ are expanded to the home directory.
package storage
