// Package ingest loads documents into the element model. The PDF
// loader groups positioned text fragments into line elements with
// their typography preserved, ready for indexing.
package ingest
