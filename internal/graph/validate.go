package graph

import "fmt"

// IssueKind classifies a recoverable problem found in a flow.
type IssueKind string

const (
	IssueDuplicateID   IssueKind = "duplicate_id"
	IssueDanglingEdge  IssueKind = "dangling_edge"
	IssueMissingStart  IssueKind = "missing_start"
	IssueMultipleStart IssueKind = "multiple_start"
	IssueEdgeIntoStart IssueKind = "edge_into_start"
	IssueOrphan        IssueKind = "orphan"
	IssueUnknownType   IssueKind = "unknown_type"
	IssueInvalidData   IssueKind = "invalid_data"
	IssueBadPosition   IssueKind = "bad_position"
)

// Issue is a warning about the shape of a flow. None of them stop the editor.
type Issue struct {
	Kind    IssueKind `json:"kind" yaml:"kind"`
	NodeID  string    `json:"nodeId,omitempty" yaml:"nodeId,omitempty"`
	Target  string    `json:"target,omitempty" yaml:"target,omitempty"`
	Message string    `json:"message" yaml:"message"`
}

func (i Issue) String() string {
	return fmt.Sprintf("%s: %s", i.Kind, i.Message)
}

// Validate inspects the current graph. A store built through its own
// operations only ever reports orphans (left behind by DuplicateNode).
func (s *Store) Validate() []Issue {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return validateNodes(s.nodes)
}

func validateNodes(nodes []Node) []Issue {
	var issues []Issue

	seen := make(map[string]bool, len(nodes))
	var starts []string
	for _, n := range nodes {
		if seen[n.ID] {
			issues = append(issues, Issue{
				Kind:    IssueDuplicateID,
				NodeID:  n.ID,
				Message: fmt.Sprintf("node id %q is used more than once", n.ID),
			})
		}
		seen[n.ID] = true
		if n.Type == TypeStart {
			starts = append(starts, n.ID)
		}
	}

	switch {
	case len(starts) == 0:
		issues = append(issues, Issue{Kind: IssueMissingStart, Message: "flow has no start node"})
	case len(starts) > 1:
		for _, id := range starts[1:] {
			issues = append(issues, Issue{
				Kind:    IssueMultipleStart,
				NodeID:  id,
				Message: fmt.Sprintf("extra start node %q", id),
			})
		}
	}

	incoming := make(map[string]int, len(nodes))
	for _, n := range nodes {
		for _, target := range n.Connections {
			if !seen[target] {
				issues = append(issues, Issue{
					Kind:    IssueDanglingEdge,
					NodeID:  n.ID,
					Target:  target,
					Message: fmt.Sprintf("%s connects to missing node %q", n.ID, target),
				})
				continue
			}
			if len(starts) > 0 && target == starts[0] {
				issues = append(issues, Issue{
					Kind:    IssueEdgeIntoStart,
					NodeID:  n.ID,
					Target:  target,
					Message: fmt.Sprintf("%s connects into the start node", n.ID),
				})
			}
			incoming[target]++
		}
	}

	for _, n := range nodes {
		if n.Type == TypeStart {
			continue
		}
		if incoming[n.ID] == 0 {
			issues = append(issues, Issue{
				Kind:    IssueOrphan,
				NodeID:  n.ID,
				Message: fmt.Sprintf("%s is not reachable from any node", n.ID),
			})
		}
	}
	return issues
}

// MergeIssues joins issue lists, keeping the first issue of each kind for a
// node and target. Import repairs and a later Validate of the repaired graph
// both report orphans, so callers combining them use this.
func MergeIssues(lists ...[]Issue) []Issue {
	type key struct {
		kind   IssueKind
		node   string
		target string
	}
	var merged []Issue
	seen := map[key]bool{}
	for _, list := range lists {
		for _, i := range list {
			k := key{i.Kind, i.NodeID, i.Target}
			if seen[k] {
				continue
			}
			seen[k] = true
			merged = append(merged, i)
		}
	}
	return merged
}
