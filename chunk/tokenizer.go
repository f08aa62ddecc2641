package chunk

import (
	"unicode"

	"github.com/clipperhouse/uax29/v2/words"
)

// Tokenizer splits text into the tokens that chunk sizes and overlaps
// are counted in.
type Tokenizer interface {
	Tokenize(text string) []string
}

// WordTokenizer segments text into words along Unicode UAX #29 word
// boundaries, discarding whitespace and punctuation-only segments. It
// is the default tokenizer.
type WordTokenizer struct{}

// Tokenize implements Tokenizer.
func (WordTokenizer) Tokenize(text string) []string {
	var tokens []string
	iter := words.FromString(text)
	for iter.Next() {
		tok := iter.Value()
		if isWord(tok) {
			tokens = append(tokens, tok)
		}
	}
	return tokens
}

// isWord reports whether a segment carries at least one letter or
// digit. UAX #29 emits whitespace and punctuation as segments too;
// those never count toward chunk sizes.
func isWord(s string) bool {
	for _, r := range s {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			return true
		}
	}
	return false
}
