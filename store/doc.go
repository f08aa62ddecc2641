// Package store persists alignment results to SQLite so extracted
// sections can be queried across runs without re-aligning documents.
package store
