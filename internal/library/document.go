package library

import "fmt"

// DocNode is the serializable form of a node and its subtree.
type DocNode struct {
	Kind     Kind              `yaml:"kind" json:"kind"`
	ID       string            `yaml:"id" json:"id"`
	Attrs    map[string]string `yaml:"attrs,omitempty" json:"attrs,omitempty"`
	Children []*DocNode        `yaml:"children,omitempty" json:"children,omitempty"`
}

// Document is the whole tree below the root element.
type Document struct {
	Nodes []*DocNode `yaml:"tvscraper" json:"tvscraper"`
}

// Count returns the number of nodes in the document.
func (d *Document) Count() int {
	if d == nil {
		return 0
	}
	var count func([]*DocNode) int
	count = func(nodes []*DocNode) int {
		total := len(nodes)
		for _, n := range nodes {
			total += count(n.Children)
		}
		return total
	}
	return count(d.Nodes)
}

// Snapshot returns a deep copy of the current tree.
func (s *Store) Snapshot() *Document {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return &Document{Nodes: toDoc(s.root.children)}
}

func toDoc(nodes []*node) []*DocNode {
	if len(nodes) == 0 {
		return nil
	}
	out := make([]*DocNode, 0, len(nodes))
	for _, n := range nodes {
		out = append(out, &DocNode{
			Kind:     n.kind,
			ID:       n.id,
			Attrs:    n.attrs.Clone(),
			Children: toDoc(n.children),
		})
	}
	return out
}

// Restore replaces the whole tree with doc. The document is validated first;
// on error the store is left unchanged. A nil document empties the store.
func (s *Store) Restore(doc *Document) error {
	root := &node{kind: KindRoot, attrs: Attrs{}}
	index := make(map[string]*node)
	if doc != nil {
		if err := fromDoc(root, doc.Nodes, index); err != nil {
			return err
		}
	}

	s.mu.Lock()
	s.root = root
	s.index = index
	s.mu.Unlock()

	s.log.Info("document restored", "nodes", len(index))
	return nil
}

func fromDoc(parent *node, nodes []*DocNode, index map[string]*node) error {
	for _, d := range nodes {
		if d == nil {
			continue
		}
		if !allowedChildren[parent.kind][d.Kind] {
			return fmt.Errorf("%w: %s cannot contain %s", ErrInvalidDocument, parent.kind, d.Kind)
		}
		if d.ID == "" {
			return fmt.Errorf("%w: %s without id", ErrInvalidDocument, d.Kind)
		}
		if _, dup := index[d.ID]; dup {
			return fmt.Errorf("%w: duplicate id %s", ErrInvalidDocument, d.ID)
		}

		n := &node{kind: d.Kind, id: d.ID, attrs: Attrs{}, parent: parent}
		for k, v := range d.Attrs {
			if k == "id" {
				continue
			}
			n.attrs[k] = v
		}
		parent.children = append(parent.children, n)
		index[n.id] = n

		if err := fromDoc(n, d.Children, index); err != nil {
			return err
		}
	}
	return nil
}
