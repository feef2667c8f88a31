// Package tree keeps the hierarchical view of discovered tests: one File node
// per header, Heading nodes for TEST GROUP markers and Case leaves.
//
// Nodes live in an arena keyed by NodeID. Every rescan of a file allocates a
// fresh generation of nodes and discards the previous subtree, so an ID held
// from an earlier scan simply stops resolving.
package tree

import (
	"fmt"
	"path/filepath"
	"sync"
	"sync/atomic"

	"ctp/internal/discovery"
	"ctp/internal/domain"

	"github.com/sirupsen/logrus"
)

// Kind is the closed set of node variants
type Kind int

const (
	KindFile Kind = iota
	KindHeading
	KindCase
)

func (k Kind) String() string {
	switch k {
	case KindFile:
		return "file"
	case KindHeading:
		return "heading"
	case KindCase:
		return "case"
	default:
		return fmt.Sprintf("kind(%d)", int(k))
	}
}

// NodeID identifies a node in the arena. Zero is never assigned.
type NodeID int

// Node is a snapshot of one tree node
type Node struct {
	ID         NodeID
	Kind       Kind
	Label      string
	Path       string // absolute path of the owning header
	Range      domain.Range
	Generation uint64
	Parent     NodeID
	Children   []NodeID

	// File nodes only
	Resolved bool
	Err      error
}

// IsLeaf reports whether the node is a test case.
func (n Node) IsLeaf() bool {
	return n.Kind == KindCase
}

// CaseRef detaches a case node for a run request.
func (n Node) CaseRef() domain.CaseRef {
	return domain.CaseRef{
		ID:         int(n.ID),
		Label:      n.Label,
		FilePath:   n.Path,
		Range:      n.Range,
		Generation: n.Generation,
	}
}

// generationCounter is bumped once per file scan, across every tree in the process.
var generationCounter atomic.Uint64

func nextGeneration() uint64 {
	return generationCounter.Add(1)
}

// Tree owns all nodes of all discovered headers
type Tree struct {
	mu       sync.RWMutex
	nodes    map[NodeID]*Node
	files    []NodeID
	byPath   map[string]NodeID
	verdicts map[NodeID]domain.Verdict
	nextID   NodeID

	parser *discovery.Parser
	log    logrus.FieldLogger

	// commitHook observes each subtree commit during a rebuild
	commitHook func(parent NodeID, children []NodeID)
}

// New creates an empty Tree
func New(parser *discovery.Parser, log logrus.FieldLogger) *Tree {
	return &Tree{
		nodes:    make(map[NodeID]*Node),
		byPath:   make(map[string]NodeID),
		verdicts: make(map[NodeID]domain.Verdict),
		parser:   parser,
		log:      log.WithField("component", "tree"),
	}
}

// AddFile returns the File node for path, creating an unresolved one if needed.
func (t *Tree) AddFile(path string) NodeID {
	if abs, err := filepath.Abs(path); err == nil {
		path = abs
	}

	t.mu.Lock()
	defer t.mu.Unlock()

	if id, ok := t.byPath[path]; ok {
		return id
	}
	n := t.newNodeLocked(KindFile, filepath.Base(path), path, domain.Range{}, 0, 0)
	t.files = append(t.files, n.ID)
	t.byPath[path] = n.ID
	return n.ID
}

// FileByPath looks up the File node for a header path.
func (t *Tree) FileByPath(path string) (NodeID, bool) {
	if abs, err := filepath.Abs(path); err == nil {
		path = abs
	}
	t.mu.RLock()
	defer t.mu.RUnlock()
	id, ok := t.byPath[path]
	return id, ok
}

// RemoveFile drops a header and its whole subtree.
func (t *Tree) RemoveFile(path string) bool {
	if abs, err := filepath.Abs(path); err == nil {
		path = abs
	}

	t.mu.Lock()
	defer t.mu.Unlock()

	id, ok := t.byPath[path]
	if !ok {
		return false
	}
	delete(t.byPath, path)
	for i, f := range t.files {
		if f == id {
			t.files = append(t.files[:i], t.files[i+1:]...)
			break
		}
	}
	t.discardLocked(id)
	return true
}

// Files returns the File nodes in the order they were added.
func (t *Tree) Files() []NodeID {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return append([]NodeID(nil), t.files...)
}

// Node returns a snapshot of a node. Stale IDs are not found.
func (t *Tree) Node(id NodeID) (Node, bool) {
	t.mu.RLock()
	defer t.mu.RUnlock()
	n, ok := t.nodes[id]
	if !ok {
		return Node{}, false
	}
	cp := *n
	cp.Children = append([]NodeID(nil), n.Children...)
	return cp, true
}

// Len returns the number of live nodes.
func (t *Tree) Len() int {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return len(t.nodes)
}

// Walk visits id and its descendants depth-first in source order.
// Returning false from fn skips the node's children.
func (t *Tree) Walk(id NodeID, fn func(n Node, depth int) bool) {
	t.walk(id, 0, fn)
}

func (t *Tree) walk(id NodeID, depth int, fn func(n Node, depth int) bool) {
	n, ok := t.Node(id)
	if !ok {
		return
	}
	if !fn(n, depth) {
		return
	}
	switch n.Kind {
	case KindFile, KindHeading:
		for _, child := range n.Children {
			t.walk(child, depth+1, fn)
		}
	case KindCase:
	}
}

// Cases returns every case under id in source order.
func (t *Tree) Cases(id NodeID) []domain.CaseRef {
	var out []domain.CaseRef
	t.Walk(id, func(n Node, _ int) bool {
		if n.IsLeaf() {
			out = append(out, n.CaseRef())
		}
		return true
	})
	return out
}

// SetVerdict records the last verdict of a case. It is ignored when the
// reference belongs to a generation that has since been discarded.
func (t *Tree) SetVerdict(ref domain.CaseRef, v domain.Verdict) bool {
	t.mu.Lock()
	defer t.mu.Unlock()

	n, ok := t.nodes[NodeID(ref.ID)]
	if !ok || n.Kind != KindCase || n.Generation != ref.Generation {
		return false
	}
	t.verdicts[n.ID] = v
	return true
}

// Verdict returns the last recorded verdict of a case.
func (t *Tree) Verdict(id NodeID) (domain.Verdict, bool) {
	t.mu.RLock()
	defer t.mu.RUnlock()
	v, ok := t.verdicts[id]
	return v, ok
}

func (t *Tree) newNodeLocked(kind Kind, label, path string, r domain.Range, gen uint64, parent NodeID) *Node {
	t.nextID++
	n := &Node{
		ID:         t.nextID,
		Kind:       kind,
		Label:      label,
		Path:       path,
		Range:      r,
		Generation: gen,
		Parent:     parent,
	}
	t.nodes[n.ID] = n
	return n
}

// discardLocked removes a node, its descendants and their side-table entries.
func (t *Tree) discardLocked(id NodeID) {
	n, ok := t.nodes[id]
	if !ok {
		return
	}
	for _, child := range n.Children {
		t.discardLocked(child)
	}
	delete(t.nodes, id)
	delete(t.verdicts, id)
}

// replaceChildrenLocked commits a subtree: the pending list becomes the
// node's children and anything it used to own is discarded.
func (t *Tree) replaceChildrenLocked(id NodeID, children []NodeID) {
	n, ok := t.nodes[id]
	if !ok {
		return
	}
	keep := make(map[NodeID]bool, len(children))
	for _, c := range children {
		keep[c] = true
	}
	for _, old := range n.Children {
		if !keep[old] {
			t.discardLocked(old)
		}
	}
	n.Children = children
	if t.commitHook != nil {
		t.commitHook(id, append([]NodeID(nil), children...))
	}
}
