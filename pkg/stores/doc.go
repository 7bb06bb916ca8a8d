// Package stores keeps a history of persisted configuration files in SQLite.
// Each save records the full config text with its checksum so earlier states
// can be listed, restored and pruned. The schema is managed with embedded
// golang-migrate migrations.
package stores
