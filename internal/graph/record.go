package graph

import "fmt"

// NodeRecord is the serialized form of a node.
type NodeRecord struct {
	ID          string         `json:"id" yaml:"id" toml:"id"`
	Type        NodeType       `json:"type" yaml:"type" toml:"type"`
	Position    Position       `json:"position" yaml:"position" toml:"position"`
	Data        map[string]any `json:"data" yaml:"data" toml:"data"`
	Connections []string       `json:"connections" yaml:"connections" toml:"connections"`
}

// Record converts a node to its serialized form.
func (n Node) Record() NodeRecord {
	conns := append([]string{}, n.Connections...)
	return NodeRecord{
		ID:          n.ID,
		Type:        n.Type,
		Position:    n.Position,
		Data:        Fields(n.Data),
		Connections: conns,
	}
}

// Records returns the serialized form of every node.
func (s *Store) Records() []NodeRecord {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]NodeRecord, len(s.nodes))
	for i, n := range s.nodes {
		out[i] = n.Record()
	}
	return out
}

// FromRecords rebuilds a store from serialized nodes. Problems are repaired
// where possible and reported as issues: unknown types and duplicate ids are
// dropped, a missing start node is seeded, edges to missing nodes or into the
// start node are stripped. Orphans are kept and reported.
func FromRecords(records []NodeRecord, opts ...Option) (*Store, []Issue) {
	s := &Store{opts: buildOptions(opts)}
	var issues []Issue

	seen := map[string]bool{}
	for _, r := range records {
		spec, ok := Lookup(r.Type)
		if !ok {
			issues = append(issues, Issue{
				Kind:    IssueUnknownType,
				NodeID:  r.ID,
				Message: fmt.Sprintf("node %q has unknown type %q and was dropped", r.ID, r.Type),
			})
			continue
		}
		id := r.ID
		if id == "" {
			id = s.newID(r.Type)
		}
		if seen[id] {
			issues = append(issues, Issue{
				Kind:    IssueDuplicateID,
				NodeID:  id,
				Message: fmt.Sprintf("node id %q is used more than once; later copy dropped", id),
			})
			continue
		}
		if r.Type == TypeStart && s.startID != "" {
			issues = append(issues, Issue{
				Kind:    IssueMultipleStart,
				NodeID:  id,
				Message: fmt.Sprintf("extra start node %q dropped", id),
			})
			continue
		}

		data, err := spec.Decode(r.Data)
		if err != nil {
			issues = append(issues, Issue{
				Kind:    IssueInvalidData,
				NodeID:  id,
				Message: fmt.Sprintf("node %q: %v; defaults used", id, err),
			})
			data = spec.Default()
		}

		pos := r.Position
		if !pos.Finite() {
			issues = append(issues, Issue{
				Kind:    IssueBadPosition,
				NodeID:  id,
				Message: fmt.Sprintf("node %q has a non-finite position; moved to the origin", id),
			})
			pos = Position{}
		}

		seen[id] = true
		node := Node{
			ID:          id,
			Type:        r.Type,
			Position:    pos,
			Data:        data,
			Connections: append([]string{}, r.Connections...),
		}
		if r.Type == TypeStart {
			s.startID = id
			s.nodes = append([]Node{node}, s.nodes...)
			continue
		}
		s.nodes = append(s.nodes, node)
	}

	if s.startID == "" {
		issues = append(issues, Issue{Kind: IssueMissingStart, Message: "flow had no start node; one was added"})
		s.seedStart()
		if seen[StartID] {
			s.nodes[0].ID = s.newID(TypeStart)
			s.startID = s.nodes[0].ID
		}
		seen[s.startID] = true
	}

	for i := range s.nodes {
		n := &s.nodes[i]
		kept := make([]string, 0, len(n.Connections))
		for _, target := range n.Connections {
			switch {
			case !seen[target]:
				issues = append(issues, Issue{
					Kind:    IssueDanglingEdge,
					NodeID:  n.ID,
					Target:  target,
					Message: fmt.Sprintf("%s connected to missing node %q; edge removed", n.ID, target),
				})
			case target == s.startID:
				issues = append(issues, Issue{
					Kind:    IssueEdgeIntoStart,
					NodeID:  n.ID,
					Target:  target,
					Message: fmt.Sprintf("%s connected into the start node; edge removed", n.ID),
				})
			case contains(kept, target):
			default:
				kept = append(kept, target)
			}
		}
		n.Connections = kept
	}

	for _, issue := range validateNodes(s.nodes) {
		if issue.Kind == IssueOrphan {
			issues = append(issues, issue)
		}
	}
	return s, issues
}

func contains(ids []string, id string) bool {
	for _, c := range ids {
		if c == id {
			return true
		}
	}
	return false
}
