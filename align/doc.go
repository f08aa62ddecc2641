// Package align walks a template tree over an indexed document and
// produces the extraction result: a tree of sections whose boundaries
// were resolved by fuzzy matching, with their claimed content cut into
// chunks and their metadata labels and statistics attached.
//
// Alignment is depth-first and strictly forward. A cursor tracks how
// far into the document sibling resolution has advanced; a section's
// start is never searched for before the cursor, so sections can only
// be found in declared order, and a child is confined to the interior
// of its parent. Two documents with the same elements and the same
// template always produce identical results.
package align
