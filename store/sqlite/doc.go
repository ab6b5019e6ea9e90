// Package sqlite provides a SQLite-backed plan store.
package sqlite
