package tree

import (
	"ctp/internal/discovery"
	"ctp/internal/domain"
)

// SelectOptions narrows which cases go into a run
type SelectOptions struct {
	Include    []NodeID // empty selects every file
	Exclude    []NodeID
	NameFilter string // wildcard on case labels
	FileFilter string // wildcard on header base names
}

// RunRequest is the ordered, de-duplicated set of cases to execute
type RunRequest struct {
	Cases   []domain.CaseRef
	Exclude map[NodeID]bool
}

// Select builds a RunRequest. Unresolved files are scanned from disk first;
// files that fail to scan are skipped.
func (t *Tree) Select(opts SelectOptions) *RunRequest {
	filter := discovery.NewFilter()
	req := &RunRequest{Exclude: make(map[NodeID]bool, len(opts.Exclude))}
	for _, id := range opts.Exclude {
		req.Exclude[id] = true
	}

	roots := opts.Include
	if len(roots) == 0 {
		roots = t.Files()
	}

	seen := make(map[NodeID]bool)
	var visit func(id NodeID)
	visit = func(id NodeID) {
		if req.Exclude[id] {
			return
		}
		n, ok := t.Node(id)
		if !ok {
			return
		}

		switch n.Kind {
		case KindCase:
			if seen[id] || !filter.Match(n.Label, opts.NameFilter) {
				return
			}
			seen[id] = true
			req.Cases = append(req.Cases, n.CaseRef())
		case KindFile:
			if !filter.Match(n.Label, opts.FileFilter) {
				return
			}
			if !n.Resolved {
				if err := t.UpdateFromDisk(id); err != nil {
					return
				}
				if n, ok = t.Node(id); !ok {
					return
				}
			}
			for _, child := range n.Children {
				visit(child)
			}
		case KindHeading:
			for _, child := range n.Children {
				visit(child)
			}
		}
	}

	for _, id := range roots {
		visit(id)
	}
	return req
}
