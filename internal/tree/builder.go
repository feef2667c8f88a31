package tree

import (
	"fmt"

	"ctp/internal/discovery"
)

// UpdateFromDisk rescans a header from the filesystem. A read failure is
// recorded on the File node and its previous children are left alone.
func (t *Tree) UpdateFromDisk(id NodeID) error {
	n, ok := t.Node(id)
	if !ok || n.Kind != KindFile {
		return fmt.Errorf("node %d is not a file", id)
	}

	events, err := t.parser.ScanFile(n.Path)
	if err != nil {
		t.mu.Lock()
		if f, ok := t.nodes[id]; ok {
			f.Err = err
		}
		t.mu.Unlock()
		t.log.WithError(err).WithField("file", n.Path).Warn("Failed to scan test header")
		return err
	}

	return t.apply(id, events)
}

// RebuildFile replaces the subtree of a File node with the result of scanning text.
func (t *Tree) RebuildFile(id NodeID, text string) error {
	return t.apply(id, t.parser.Scan(text))
}

type frame struct {
	id      NodeID
	pending []NodeID
}

func (t *Tree) apply(id NodeID, events []discovery.Event) error {
	t.mu.Lock()
	defer t.mu.Unlock()

	file, ok := t.nodes[id]
	if !ok || file.Kind != KindFile {
		return fmt.Errorf("node %d is not a file", id)
	}

	gen := nextGeneration()
	file.Generation = gen
	file.Resolved = true
	file.Err = nil

	ancestors := []*frame{{id: file.ID}}

	// ascend pops open ancestors until the stack height is at most depth,
	// committing each popped subtree.
	ascend := func(depth int) {
		for len(ancestors) > depth {
			finished := ancestors[len(ancestors)-1]
			ancestors = ancestors[:len(ancestors)-1]
			t.replaceChildrenLocked(finished.id, finished.pending)
		}
	}

	var cases, headings int
	for _, ev := range events {
		switch ev.Kind {
		case discovery.TestDetected:
			parent := ancestors[len(ancestors)-1]
			c := t.newNodeLocked(KindCase, ev.Name, file.Path, ev.Range, gen, parent.id)
			parent.pending = append(parent.pending, c.ID)
			cases++

		case discovery.HeadingDetected:
			ascend(ev.Depth)
			parent := ancestors[len(ancestors)-1]
			h := t.newNodeLocked(KindHeading, ev.Name, file.Path, ev.Range, gen, parent.id)
			parent.pending = append(parent.pending, h.ID)
			ancestors = append(ancestors, &frame{id: h.ID})
			headings++
		}
	}

	ascend(0)

	t.log.WithField("file", file.Path).
		WithField("generation", gen).
		WithField("cases", cases).
		WithField("headings", headings).
		Debug("Rebuilt test tree")
	return nil
}
