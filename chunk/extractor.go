package chunk

import (
	"fmt"
	"strings"

	"github.com/google/uuid"

	"github.com/tsawler/collate/index"
	"github.com/tsawler/collate/model"
)

// Chunk is one token window cut from a region's text.
type Chunk struct {
	// Index is the chunk's position within its region, starting at 0.
	Index int

	// Offset is the token offset of the chunk's first token within the
	// region's full token stream.
	Offset int

	// Tokens are the chunk's tokens in document order.
	Tokens []string

	// Text is the tokens rejoined with single spaces.
	Text string

	// Elements identifies the content elements that contributed tokens
	// to this chunk, in reading order.
	Elements []uuid.UUID
}

// Ref points at a non-text element claimed by a region, such as a table
// or an image.
type Ref struct {
	ID   uuid.UUID
	Page int
	BBox model.BBox
}

// ModelHook receives a region's elements and may return an arbitrary
// payload to attach to the extracted section, for example an embedding
// or a table model. A non-nil error aborts alignment.
type ModelHook func(elements []model.ContentElement, region model.Region) (any, error)

// Extractor cuts chunks and references out of index regions.
type Extractor struct {
	idx *index.Index
	tok Tokenizer
}

// NewExtractor creates an extractor over idx. tok may be nil, in which
// case the UAX #29 word tokenizer is used.
func NewExtractor(idx *index.Index, tok Tokenizer) *Extractor {
	if tok == nil {
		tok = WordTokenizer{}
	}
	return &Extractor{idx: idx, tok: tok}
}

// TextChunks tokenizes the text elements in [start, end) and splits the
// token stream into windows of size tokens, each starting overlap
// tokens before the previous window ends. The final chunk may be
// shorter. size must be positive and overlap must be smaller than size.
func (x *Extractor) TextChunks(start, end, size, overlap int) ([]Chunk, error) {
	tokens, owners := x.tokenizeRange(start, end)
	chunks, err := cutChunks(tokens, size, overlap)
	if err != nil {
		return nil, err
	}
	for i := range chunks {
		chunks[i].Elements = ownersOf(owners, chunks[i].Offset, len(chunks[i].Tokens))
	}
	return chunks, nil
}

// Tokens returns the full token stream of the text elements in
// [start, end).
func (x *Extractor) Tokens(start, end int) []string {
	tokens, _ := x.tokenizeRange(start, end)
	return tokens
}

// Tables returns references to the table elements in [start, end), in
// reading order.
func (x *Extractor) Tables(start, end int) []Ref {
	return x.refs(start, end, model.ElementTypeTable)
}

// Images returns references to the image elements in [start, end), in
// reading order.
func (x *Extractor) Images(start, end int) []Ref {
	return x.refs(start, end, model.ElementTypeImage)
}

func (x *Extractor) refs(start, end int, kind model.ElementType) []Ref {
	var out []Ref
	for ord := start; ord < end && ord < x.idx.Len(); ord++ {
		e := x.idx.At(ord)
		if e.Type != kind {
			continue
		}
		out = append(out, Ref{ID: e.ID, Page: e.Page, BBox: e.BBox})
	}
	return out
}

// tokenizeRange tokenizes the text elements in [start, end) and records
// which element produced each token.
func (x *Extractor) tokenizeRange(start, end int) (tokens []string, owners []uuid.UUID) {
	for ord := start; ord < end && ord < x.idx.Len(); ord++ {
		e := x.idx.At(ord)
		if !e.IsText() {
			continue
		}
		for _, tok := range x.tok.Tokenize(e.Text) {
			tokens = append(tokens, tok)
			owners = append(owners, e.ID)
		}
	}
	return tokens, owners
}

// ownersOf deduplicates the owner IDs of tokens [offset, offset+n),
// preserving first-seen order.
func ownersOf(owners []uuid.UUID, offset, n int) []uuid.UUID {
	var out []uuid.UUID
	var last uuid.UUID
	for i := offset; i < offset+n && i < len(owners); i++ {
		if len(out) > 0 && owners[i] == last {
			continue
		}
		out = append(out, owners[i])
		last = owners[i]
	}
	return out
}

// cutChunks slices tokens into windows at stride size-overlap. Chunk i
// starts at token i*(size-overlap); windows are cut as long as their
// start lies inside the stream, so the final chunk may be short but is
// never empty.
func cutChunks(tokens []string, size, overlap int) ([]Chunk, error) {
	if size <= 0 {
		return nil, fmt.Errorf("chunk size %d must be positive", size)
	}
	if overlap < 0 || overlap >= size {
		return nil, fmt.Errorf("chunk overlap %d must be in [0, %d)", overlap, size)
	}
	if len(tokens) == 0 {
		return nil, nil
	}

	stride := size - overlap
	var chunks []Chunk
	for start := 0; start < len(tokens); start += stride {
		stop := start + size
		if stop > len(tokens) {
			stop = len(tokens)
		}
		window := tokens[start:stop]
		chunks = append(chunks, Chunk{
			Index:  len(chunks),
			Offset: start,
			Tokens: window,
			Text:   strings.Join(window, " "),
		})
	}
	return chunks, nil
}
