package template

import (
	"fmt"
	"strings"

	"github.com/alecthomas/participle/v2"
	"github.com/alecthomas/participle/v2/lexer"
)

// templateAST is the participle grammar root: a sequence of elements.
type templateAST struct {
	Elements []*elementAST `parser:"@@*"`
}

type elementAST struct {
	Kind  string        `parser:"@Ident"`
	Attrs []*attrAST    `parser:"'(' ( @@ ( ',' @@ )* )? ')'"`
	Body  []*elementAST `parser:"( '{' @@* '}' )?"`
}

type attrAST struct {
	Key   string    `parser:"@Ident '='"`
	Value *valueAST `parser:"@@"`
}

type valueAST struct {
	Str   *string    `parser:"  @String"`
	Num   *float64   `parser:"| @Number"`
	Bool  *string    `parser:"| @('true' | 'false')"`
	List  []*itemAST `parser:"| '[' ( @@ ( ',' @@ )* )? ']'"`
	Ident *string    `parser:"| @Ident"`
}

type itemAST struct {
	Str *string `parser:"@String"`
}

var templateLexer = lexer.MustSimple([]lexer.SimpleRule{
	{Name: "Comment", Pattern: `//[^\n]*`},
	{Name: "String", Pattern: `"(\\"|[^"])*"`},
	{Name: "Number", Pattern: `[0-9]+(\.[0-9]+)?`},
	{Name: "Ident", Pattern: `[A-Za-z_][A-Za-z0-9_]*`},
	{Name: "Punct", Pattern: `[(){}=,\[\]]`},
	{Name: "Whitespace", Pattern: `\s+`},
})

var templateParser = participle.MustBuild[templateAST](
	participle.Lexer(templateLexer),
	participle.Elide("Whitespace", "Comment"),
	participle.Unquote("String"),
)

// Parse parses the template DSL into a validated tree. Syntax errors
// and configuration errors (unknown kinds or attributes, chunkOverlap
// not smaller than chunkSize, thresholds outside [0,1]) are reported
// as *TemplateError before any matching can start.
func Parse(src string) (*Tree, error) {
	ast, err := templateParser.ParseString("", src)
	if err != nil {
		return nil, &TemplateError{Reason: fmt.Sprintf("syntax: %v", err)}
	}

	b := NewBuilder()
	for _, el := range ast.Elements {
		if err := buildElement(b, -1, el); err != nil {
			return nil, err
		}
	}
	return b.Build()
}

func buildElement(b *Builder, parent int, el *elementAST) error {
	var n Node
	switch el.Kind {
	case "Section":
		n.Kind = KindSection
	case "TextChunk":
		n.Kind = KindTextChunk
		n.ChunkSize = 0
	case "Table":
		n.Kind = KindTable
	case "Image":
		n.Kind = KindImage
	default:
		return &TemplateError{Reason: fmt.Sprintf("unknown element kind %q", el.Kind)}
	}

	match := &Pattern{Threshold: DefaultThreshold}
	endMatch := &Pattern{Threshold: DefaultThreshold}
	algorithm := AlgoLevenshtein

	for _, attr := range el.Attrs {
		if err := applyAttr(&n, match, endMatch, &algorithm, attr); err != nil {
			return &TemplateError{Reason: fmt.Sprintf("%s: %v", el.Kind, err)}
		}
	}

	if n.Kind == KindSection {
		match.Algorithm = algorithm
		endMatch.Algorithm = algorithm
		n.Match = match
		if endMatch.Text != "" {
			if endMatch.Threshold == DefaultThreshold && match.Threshold != DefaultThreshold {
				// An end pattern inherits the section threshold unless
				// it declared its own.
				endMatch.Threshold = match.Threshold
			}
			n.EndMatch = endMatch
		}
	}

	idx := b.Add(parent, n)
	for _, child := range el.Body {
		if err := buildElement(b, idx, child); err != nil {
			return err
		}
	}
	return nil
}

func applyAttr(n *Node, match, endMatch *Pattern, algorithm *Algorithm, attr *attrAST) error {
	v := attr.Value
	switch attr.Key {
	case "match":
		s, err := v.stringValue()
		if err != nil {
			return fmt.Errorf("match: %w", err)
		}
		match.Text = s
	case "end_match":
		s, err := v.stringValue()
		if err != nil {
			return fmt.Errorf("end_match: %w", err)
		}
		endMatch.Text = s
	case "threshold":
		if v.Num == nil {
			return fmt.Errorf("threshold must be a number")
		}
		match.Threshold = *v.Num
	case "end_threshold":
		if v.Num == nil {
			return fmt.Errorf("end_threshold must be a number")
		}
		endMatch.Threshold = *v.Num
	case "algorithm":
		s, err := v.stringValue()
		if err != nil {
			return fmt.Errorf("algorithm: %w", err)
		}
		a, err := parseAlgorithm(s)
		if err != nil {
			return err
		}
		*algorithm = a
	case "as":
		s, err := v.stringValue()
		if err != nil {
			return fmt.Errorf("as: %w", err)
		}
		n.Label = s
	case "optional":
		if v.Bool == nil {
			return fmt.Errorf("optional must be true or false")
		}
		n.Optional = *v.Bool == "true"
	case "chunkSize":
		if v.Num == nil {
			return fmt.Errorf("chunkSize must be a number")
		}
		n.ChunkSize = int(*v.Num)
	case "chunkOverlap":
		if v.Num == nil {
			return fmt.Errorf("chunkOverlap must be a number")
		}
		n.ChunkOverlap = int(*v.Num)
	case "model":
		s, err := v.stringValue()
		if err != nil {
			return fmt.Errorf("model: %w", err)
		}
		n.ModelRef = s
	case "labels":
		if v.List == nil {
			return fmt.Errorf("labels must be a list of strings")
		}
		for _, item := range v.List {
			if item.Str != nil {
				n.ExtraLabels = append(n.ExtraLabels, *item.Str)
			}
		}
	default:
		return fmt.Errorf("unknown attribute %q", attr.Key)
	}
	return nil
}

func (v *valueAST) stringValue() (string, error) {
	switch {
	case v.Str != nil:
		return *v.Str, nil
	case v.Ident != nil:
		return *v.Ident, nil
	default:
		return "", fmt.Errorf("expected a string")
	}
}

func parseAlgorithm(s string) (Algorithm, error) {
	switch strings.ToLower(s) {
	case "exact":
		return AlgoExact, nil
	case "levenshtein", "fuzzy":
		return AlgoLevenshtein, nil
	case "phonetic":
		return AlgoPhonetic, nil
	case "semantic":
		return AlgoSemantic, nil
	default:
		return 0, fmt.Errorf("unknown algorithm %q", s)
	}
}
