// Package index provides the immutable, queryable content index built
// once per document from the normalized element stream.
//
// The index owns the element sequence in reading order plus derived
// access structures: a per-page spatial R-tree, a font-size ordered
// view, an identity map, cross-reference counts, and font-size
// statistics. Independent structures are constructed concurrently, then
// the index is frozen; every query is read-only and side-effect-free,
// so a frozen index may be shared across any number of workers.
package index
