package library

import (
	"io"
	"log/slog"
	"sort"
	"strconv"
	"sync"
	"time"

	"github.com/google/uuid"
)

// Observer is notified after every store mutation.
type Observer interface {
	ObserveMutation(kind Kind, op string, err error)
}

// Option configures a Store.
type Option func(*Store)

// WithLogger sets the diagnostics sink. A nil logger discards everything.
func WithLogger(l *slog.Logger) Option {
	return func(s *Store) {
		if l != nil {
			s.log = l
		}
	}
}

// WithClock sets the time source used for air-date bucketing.
func WithClock(now func() time.Time) Option {
	return func(s *Store) { s.now = now }
}

// WithIDGenerator replaces the default UUID generator.
func WithIDGenerator(gen func() string) Option {
	return func(s *Store) { s.newID = gen }
}

// WithObserver registers a mutation observer.
func WithObserver(o Observer) Option {
	return func(s *Store) { s.observer = o }
}

// Store is the in-memory document tree. All methods are safe for concurrent
// use; each one runs under a single lock acquisition, so multi-step mutations
// (add then set, cascading removes) are never observed half done.
type Store struct {
	mu    sync.RWMutex
	root  *node
	index map[string]*node

	log      *slog.Logger
	now      func() time.Time
	newID    func() string
	observer Observer
}

// NewStore creates an empty store holding only the root element.
func NewStore(opts ...Option) *Store {
	s := &Store{
		root:  &node{kind: KindRoot, attrs: Attrs{}},
		index: make(map[string]*node),
		log:   slog.New(slog.NewTextHandler(io.Discard, nil)),
		now:   time.Now,
		newID: uuid.NewString,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *Store) observe(kind Kind, op string, err error) {
	if s.observer != nil {
		s.observer.ObserveMutation(kind, op, err)
	}
}

// Stats returns the number of nodes per kind.
func (s *Store) Stats() map[Kind]int {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make(map[Kind]int, len(Kinds))
	for _, k := range Kinds {
		out[k] = 0
	}
	for _, n := range s.index {
		out[n.kind]++
	}
	return out
}

// allocateID returns an ID that is not in use.
func (s *Store) allocateID() string {
	for {
		id := s.newID()
		if _, taken := s.index[id]; !taken && id != "" {
			return id
		}
		s.log.Warn("generated ID already in use, retrying", "id", id)
	}
}

// addNode appends a new element of the given kind to the single node matched
// by parent.
func (s *Store) addNode(kind Kind, parent Path) (*node, error) {
	var p *node
	if len(parent) == 0 {
		p = s.root
	} else {
		var ok bool
		p, ok = s.findOne(parent)
		if !ok {
			s.log.Debug("none or multiple parent entries found", "path", parent.String())
			return nil, notFound(parent[len(parent)-1].Kind, parentID(parent))
		}
	}

	n := &node{kind: kind, id: s.allocateID(), attrs: Attrs{}, parent: p}
	p.children = append(p.children, n)
	s.index[n.id] = n
	return n, nil
}

func parentID(p Path) string {
	if len(p) == 0 {
		return ""
	}
	if id, ok := p[len(p)-1].idFilter(); ok {
		return id
	}
	return p.String()
}

// setAttrs applies attrs to n. Keys are validated before anything is written,
// so a rejected call leaves the node untouched.
func (s *Store) setAttrs(n *node, attrs Attrs) error {
	keys := make([]string, 0, len(attrs))
	for k := range attrs {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	allowed := whitelist[n.kind]
	for _, k := range keys {
		if !allowed[k] {
			s.log.Error("unknown parameter", "kind", n.kind, "key", k)
			return &AttributeError{Kind: n.kind, Key: k}
		}
	}
	for _, k := range keys {
		if v := attrs[k]; v == RemoveValue {
			delete(n.attrs, k)
		} else {
			n.attrs[k] = v
		}
	}
	return nil
}

// create adds a node and populates it, removing it again when the attributes
// are rejected.
func (s *Store) create(kind Kind, parent Path, attrs Attrs) (string, error) {
	n, err := s.addNode(kind, parent)
	if err != nil {
		s.log.Error("can't create element", "kind", kind, "parent", parent.String(), "error", err)
		return "", err
	}
	if err := s.setAttrs(n, attrs); err != nil {
		s.detach(n)
		return "", err
	}
	s.log.Debug("element created", "kind", kind, "id", n.id)
	return n.id, nil
}

// set updates the single node matched by path.
func (s *Store) set(kind Kind, id string, path Path, attrs Attrs) error {
	n, ok := s.findOne(path)
	if !ok {
		s.log.Error("could not find unique element", "kind", kind, "id", id)
		return notFound(kind, id)
	}
	return s.setAttrs(n, attrs)
}

// get returns the attributes of the single node matched by path.
func (s *Store) get(kind Kind, id string, path Path) (*node, error) {
	n, ok := s.findOne(path)
	if !ok {
		return nil, notFound(kind, id)
	}
	return n, nil
}

// removeOne detaches the single node matched by path together with its
// subtree.
func (s *Store) removeOne(kind Kind, id string, path Path) error {
	n, ok := s.findOne(path)
	if !ok {
		s.log.Error("can't remove element", "kind", kind, "id", id)
		return notFound(kind, id)
	}
	s.detach(n)
	return nil
}

func (s *Store) detach(n *node) {
	if n.parent != nil {
		n.parent.removeChild(n)
		n.parent = nil
	}
	s.unindex(n)
}

func (s *Store) unindex(n *node) {
	delete(s.index, n.id)
	for _, c := range n.children {
		s.unindex(c)
	}
}

// collect maps fn over the nodes matched by path.
func collect(nodes []*node, fn func(*node) Attrs) []Attrs {
	out := make([]Attrs, 0, len(nodes))
	for _, n := range nodes {
		out = append(out, fn(n))
	}
	return out
}

func ids(nodes []*node) []string {
	out := make([]string, 0, len(nodes))
	for _, n := range nodes {
		out = append(out, n.id)
	}
	return out
}

func formatInt(n int64) string {
	return strconv.FormatInt(n, 10)
}
