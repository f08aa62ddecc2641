// Package chunk turns the elements claimed by a resolved region into
// typed payloads: text is tokenized and split into fixed-size,
// optionally overlapping windows, while tables and images pass through
// as references. Chunk boundaries never cross element order, so a
// chunk's tokens always read contiguously.
package chunk
