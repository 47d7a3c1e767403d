package library

// Op is a condition operator in a path step.
type Op int

const (
	OpEq Op = iota
	OpHas
	OpAtMost
)

// Cond is a predicate on one attribute of a node. The id key matches the node
// ID.
type Cond struct {
	Key   string
	Op    Op
	Value string
}

// Eq matches nodes whose attribute equals value.
func Eq(key, value string) Cond { return Cond{Key: key, Op: OpEq, Value: value} }

// Has matches nodes that carry the attribute, whatever its value.
func Has(key string) Cond { return Cond{Key: key, Op: OpHas} }

// AtMost matches nodes whose attribute is numerically <= n. Absent or
// non-numeric values never match.
func AtMost(key string, n int64) Cond {
	return Cond{Key: key, Op: OpAtMost, Value: formatInt(n)}
}

func (c Cond) match(n *node) bool {
	var v string
	var ok bool
	if c.Key == "id" {
		v, ok = n.id, true
	} else {
		v, ok = n.attrs[c.Key]
	}
	if !ok {
		return false
	}
	switch c.Op {
	case OpEq:
		return v == c.Value
	case OpHas:
		return true
	case OpAtMost:
		have, ok := parseNumber(v)
		if !ok {
			return false
		}
		limit, _ := parseNumber(c.Value)
		return have <= limit
	}
	return false
}

// Step selects the children of the current node set with the given kind that
// satisfy every condition.
type Step struct {
	Kind  Kind
	Conds []Cond
}

// S builds a Step.
func S(kind Kind, conds ...Cond) Step { return Step{Kind: kind, Conds: conds} }

func (s Step) idFilter() (string, bool) {
	for _, c := range s.Conds {
		if c.Key == "id" && c.Op == OpEq {
			return c.Value, true
		}
	}
	return "", false
}

func (s Step) match(n *node) bool {
	if n.kind != s.Kind {
		return false
	}
	for _, c := range s.Conds {
		if !c.match(n) {
			return false
		}
	}
	return true
}

// Path is evaluated step by step starting at the document root.
type Path []Step

// P builds a Path.
func P(steps ...Step) Path { return Path(steps) }

// findAll returns every node matching the path, in document order.
func (s *Store) findAll(p Path) []*node {
	current := []*node{s.root}
	for _, step := range p {
		if len(current) == 0 {
			return nil
		}
		current = s.evalStep(current, step)
	}
	if len(p) == 0 {
		return nil
	}
	return current
}

func (s *Store) evalStep(current []*node, step Step) []*node {
	if id, ok := step.idFilter(); ok {
		// IDs are unique, so the index gives at most one candidate; keep it only
		// if its parent is in the current set.
		n, found := s.index[id]
		if !found || !step.match(n) {
			return nil
		}
		for _, c := range current {
			if n.parent == c {
				return []*node{n}
			}
		}
		return nil
	}

	var next []*node
	for _, c := range current {
		for _, child := range c.children {
			if step.match(child) {
				next = append(next, child)
			}
		}
	}
	return next
}

// findOne returns the node matching the path only when exactly one node
// matches.
func (s *Store) findOne(p Path) (*node, bool) {
	nodes := s.findAll(p)
	if len(nodes) != 1 {
		s.log.Debug("path did not resolve to a single node", "path", p.String(), "matches", len(nodes))
		return nil, false
	}
	return nodes[0], true
}

// String renders the path in the legacy XPath-like form, for diagnostics.
func (p Path) String() string {
	out := "/" + string(KindRoot)
	for _, step := range p {
		out += "/" + string(step.Kind)
		if len(step.Conds) == 0 {
			continue
		}
		out += "["
		for i, c := range step.Conds {
			if i > 0 {
				out += " and "
			}
			switch c.Op {
			case OpEq:
				out += "@" + c.Key + "='" + c.Value + "'"
			case OpHas:
				out += "@" + c.Key
			case OpAtMost:
				out += "@" + c.Key + " <= " + c.Value
			}
		}
		out += "]"
	}
	return out
}
