package template

import (
	"fmt"
	"strings"
)

// NodeKind identifies a template node variant.
type NodeKind int

const (
	KindUnknown NodeKind = iota
	KindSection
	KindTextChunk
	KindTable
	KindImage
)

func (k NodeKind) String() string {
	switch k {
	case KindSection:
		return "Section"
	case KindTextChunk:
		return "TextChunk"
	case KindTable:
		return "Table"
	case KindImage:
		return "Image"
	default:
		return "Unknown"
	}
}

// Algorithm selects the text-similarity algorithm for a pattern.
type Algorithm int

const (
	// AlgoLevenshtein scores 1 − distance/max(len) normalized edit similarity.
	AlgoLevenshtein Algorithm = iota
	// AlgoExact requires normalized string equality.
	AlgoExact
	// AlgoPhonetic compares token-wise phonetic codes.
	AlgoPhonetic
	// AlgoSemantic delegates to a pluggable similarity function.
	AlgoSemantic
)

func (a Algorithm) String() string {
	switch a {
	case AlgoExact:
		return "exact"
	case AlgoLevenshtein:
		return "levenshtein"
	case AlgoPhonetic:
		return "phonetic"
	case AlgoSemantic:
		return "semantic"
	default:
		return "unknown"
	}
}

// DefaultThreshold applies when a Section does not declare one.
const DefaultThreshold = 0.6

// Pattern is a fuzzy boundary rule: target text, the minimum text
// similarity a candidate must reach, and the algorithm that computes it.
type Pattern struct {
	Text      string
	Threshold float64
	Algorithm Algorithm
}

// Key returns a stable identity for the pattern, used as a cache key.
func (p *Pattern) Key() string {
	return fmt.Sprintf("%s|%s|%.4f", p.Text, p.Algorithm, p.Threshold)
}

// Node is one template tree node. Section nodes carry boundary
// patterns and child lists; leaf nodes carry extraction parameters.
// Nodes are addressed by index into Tree.Nodes.
type Node struct {
	Kind NodeKind

	// Label names the section in output metadata (DSL attr "as").
	Label string

	// Match is the start boundary pattern (sections only).
	Match *Pattern

	// EndMatch optionally bounds the section explicitly.
	EndMatch *Pattern

	// Optional sections that fail to resolve yield an empty child
	// instead of failing the enclosing subtree.
	Optional bool

	// ChunkSize and ChunkOverlap configure TextChunk leaves, in tokens.
	ChunkSize    int
	ChunkOverlap int

	// ModelRef names the pluggable model for Table/Image leaves.
	ModelRef string

	// ExtraLabels are appended to the accumulated label list.
	ExtraLabels []string

	// Parent is the parent node index, -1 for roots.
	Parent int

	// Children are child node indices in declared document order.
	Children []int
}

// Tree is the immutable template arena.
type Tree struct {
	Nodes []Node
	Roots []int
}

// Root returns the root node indices.
func (t *Tree) Root() []int {
	return t.Roots
}

// Node returns the node at index i.
func (t *Tree) Node(i int) *Node {
	return &t.Nodes[i]
}

// Path returns the chain of section labels from the root to node i,
// for error reporting.
func (t *Tree) Path(i int) []string {
	var rev []string
	for i >= 0 {
		n := &t.Nodes[i]
		label := n.Label
		if label == "" {
			label = n.Kind.String()
		}
		rev = append(rev, label)
		i = n.Parent
	}
	path := make([]string, len(rev))
	for j := range rev {
		path[j] = rev[len(rev)-1-j]
	}
	return path
}

// TemplateError reports a malformed or inconsistent node configuration.
// It is detected at load time and aborts before any matching starts.
type TemplateError struct {
	Path   []string
	Reason string
}

func (e *TemplateError) Error() string {
	if len(e.Path) == 0 {
		return fmt.Sprintf("template: %s", e.Reason)
	}
	return fmt.Sprintf("template: %s: %s", strings.Join(e.Path, "/"), e.Reason)
}

// Validate checks the whole tree for configuration errors. It returns a
// *TemplateError describing the first violation found, walking nodes in
// declared order.
func (t *Tree) Validate() error {
	for _, root := range t.Roots {
		if err := t.validateNode(root); err != nil {
			return err
		}
	}
	return nil
}

func (t *Tree) validateNode(i int) error {
	n := &t.Nodes[i]
	fail := func(reason string) error {
		return &TemplateError{Path: t.Path(i), Reason: reason}
	}

	switch n.Kind {
	case KindSection:
		if n.Match == nil || n.Match.Text == "" {
			return fail("section requires a match pattern")
		}
		if n.Match.Threshold < 0 || n.Match.Threshold > 1 {
			return fail(fmt.Sprintf("threshold %v outside [0,1]", n.Match.Threshold))
		}
		if n.EndMatch != nil && n.EndMatch.Text == "" {
			return fail("end_match pattern must not be empty")
		}
	case KindTextChunk:
		if n.ChunkSize <= 0 {
			return fail("chunkSize must be positive")
		}
		if n.ChunkOverlap < 0 {
			return fail("chunkOverlap must not be negative")
		}
		if n.ChunkOverlap >= n.ChunkSize {
			return fail(fmt.Sprintf("chunkOverlap %d must be smaller than chunkSize %d", n.ChunkOverlap, n.ChunkSize))
		}
		if len(n.Children) > 0 {
			return fail("TextChunk must not have children")
		}
	case KindTable, KindImage:
		if len(n.Children) > 0 {
			return fail(fmt.Sprintf("%s must not have children", n.Kind))
		}
	default:
		return fail("unknown node kind")
	}

	for _, c := range n.Children {
		if err := t.validateNode(c); err != nil {
			return err
		}
	}
	return nil
}
