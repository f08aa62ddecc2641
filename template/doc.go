// Package template defines the declarative template tree that drives
// collation, and the textual DSL it is parsed from.
//
// The tree is an arena: nodes live in one slice and refer to each other
// by integer index, which keeps concurrent reads trivially safe and the
// structure directly serializable. A tree is validated when built and
// never mutated during matching.
//
// The DSL mirrors the structure of the documents it describes:
//
//	TextChunk(chunkSize=1000, chunkOverlap=150)
//	Section(match="Risk Factors", threshold=0.8, as="risk") {
//	    Section(match="Market Risk", optional=true) {
//	        TextChunk(chunkSize=500)
//	    }
//	}
package template
