package graph

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func issueKinds(issues []Issue) []IssueKind {
	out := make([]IssueKind, 0, len(issues))
	for _, i := range issues {
		out = append(out, i.Kind)
	}
	return out
}

func TestRecords_RoundTrip(t *testing.T) {
	s := newTestStore()
	sub, _ := s.AddNode(TypeSubagent, StartID)
	require.NoError(t, s.UpdateNodeData(sub.ID, map[string]any{"selectedAgent": "sales"}))
	s.AddNode(TypePhoneTransfer, sub.ID)

	rebuilt, issues := FromRecords(s.Records())
	assert.Empty(t, issues)
	assert.Equal(t, s.Nodes(), rebuilt.Nodes())
	assert.Equal(t, StartID, rebuilt.StartID())
}

func TestFromRecords_RepairsDocument(t *testing.T) {
	records := []NodeRecord{
		{ID: "a", Type: TypeSubagent, Connections: []string{"ghost", "b", "b"}},
		{ID: "entry", Type: TypeStart, Connections: []string{"a"}},
		{ID: "b", Type: TypeEnd, Connections: []string{"entry"}},
		{ID: "b", Type: TypeTool},
		{ID: "w", Type: "webhook"},
		{ID: "second", Type: TypeStart},
		{ID: "c", Type: TypeTransfer, Data: map[string]any{"delay": "later"}},
	}

	s, issues := FromRecords(records)

	assert.ElementsMatch(t, []IssueKind{
		IssueDuplicateID,
		IssueUnknownType,
		IssueMultipleStart,
		IssueInvalidData,
		IssueDanglingEdge,
		IssueEdgeIntoStart,
		IssueOrphan,
	}, issueKinds(issues))

	assert.Equal(t, "entry", s.StartID())
	nodes := s.Nodes()
	require.Len(t, nodes, 4)
	assert.Equal(t, "entry", nodes[0].ID, "start node is kept first")

	a, _ := s.Node("a")
	assert.Equal(t, []string{"b"}, a.Connections)
	b, _ := s.Node("b")
	assert.Equal(t, TypeEnd, b.Type)
	assert.Empty(t, b.Connections)
	c, _ := s.Node("c")
	assert.Equal(t, TransferData{
		Label:           "Transfer",
		TransferMessage: "Please hold while I transfer your call.",
	}, c.Data)

	assert.False(t, s.DeleteNode("entry"))
}

func TestFromRecords_SeedsMissingStart(t *testing.T) {
	s, issues := FromRecords([]NodeRecord{{ID: "start", Type: TypeEnd}})

	require.Len(t, issues, 2)
	assert.Equal(t, IssueMissingStart, issues[0].Kind)
	assert.Equal(t, IssueOrphan, issues[1].Kind)
	assert.Equal(t, 2, s.Len())
	assert.NotEqual(t, "start", s.StartID())

	start, ok := s.Node(s.StartID())
	require.True(t, ok)
	assert.Equal(t, TypeStart, start.Type)
}

func TestFromRecords_GeneratesMissingIDs(t *testing.T) {
	s, _ := FromRecords([]NodeRecord{
		{ID: "start", Type: TypeStart},
		{Type: TypeEnd},
	}, WithIDGenerator(NewSequenceGenerator(10)))

	nodes := s.Nodes()
	require.Len(t, nodes, 2)
	assert.Equal(t, "end_11", nodes[1].ID)
}

func TestValidate_ReportsDuplicatedNodeAsOrphan(t *testing.T) {
	s := newTestStore()
	tool, _ := s.AddNode(TypeTool, StartID)
	dup, _ := s.DuplicateNode(tool.ID)

	issues := s.Validate()
	require.Len(t, issues, 1)
	assert.Equal(t, IssueOrphan, issues[0].Kind)
	assert.Equal(t, dup.ID, issues[0].NodeID)
	assert.Contains(t, issues[0].String(), "orphan")
}

func TestMergeIssues_DropsRepeats(t *testing.T) {
	s, imported := FromRecords([]NodeRecord{
		{ID: StartID, Type: TypeStart},
		{ID: "end_1", Type: TypeEnd, Connections: []string{"ghost"}},
	})
	require.Equal(t, []IssueKind{IssueDanglingEdge, IssueOrphan}, issueKinds(imported))

	merged := MergeIssues(imported, s.Validate())
	assert.Equal(t, []IssueKind{IssueDanglingEdge, IssueOrphan}, issueKinds(merged))
	assert.Nil(t, MergeIssues(nil, s.Validate()[:0]))
}
