package template

// Builder assembles a template tree programmatically. The DSL parser
// uses it too; tests build small trees with it directly.
type Builder struct {
	tree Tree
}

// NewBuilder returns an empty tree builder.
func NewBuilder() *Builder {
	return &Builder{}
}

// Add appends a node under parent (-1 for a root) and returns its
// index. Parent/child links are maintained; declared order is append
// order.
func (b *Builder) Add(parent int, n Node) int {
	n.Parent = parent
	idx := len(b.tree.Nodes)
	b.tree.Nodes = append(b.tree.Nodes, n)
	if parent < 0 {
		b.tree.Roots = append(b.tree.Roots, idx)
	} else {
		b.tree.Nodes[parent].Children = append(b.tree.Nodes[parent].Children, idx)
	}
	return idx
}

// Section is a convenience for Add with a section node.
func (b *Builder) Section(parent int, label, match string, threshold float64) int {
	if threshold == 0 {
		threshold = DefaultThreshold
	}
	return b.Add(parent, Node{
		Kind:  KindSection,
		Label: label,
		Match: &Pattern{Text: match, Threshold: threshold},
	})
}

// TextChunk is a convenience for Add with a text-chunk leaf.
func (b *Builder) TextChunk(parent, size, overlap int) int {
	return b.Add(parent, Node{
		Kind:         KindTextChunk,
		ChunkSize:    size,
		ChunkOverlap: overlap,
	})
}

// Build validates and returns the finished tree. The builder must not
// be reused afterwards.
func (b *Builder) Build() (*Tree, error) {
	t := &Tree{Nodes: b.tree.Nodes, Roots: b.tree.Roots}
	if err := t.Validate(); err != nil {
		return nil, err
	}
	return t, nil
}
