package editor

import (
	"testing"

	"callflow/internal/graph"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func keys(fields []Field) []string {
	out := make([]string, 0, len(fields))
	for _, f := range fields {
		out = append(out, f.Key)
	}
	return out
}

func TestFormFor_PerType(t *testing.T) {
	tests := []struct {
		typ  graph.NodeType
		want []string
	}{
		{graph.TypeStart, []string{"label"}},
		{graph.TypeSubagent, []string{"label", "selectedAgent", "condition"}},
		{graph.TypeCondition, []string{"label", "expression"}},
		{graph.TypeTool, []string{"label", "name", "description"}},
		{graph.TypeTransfer, []string{"label", "selectedAgent", "delay", "transferMessage"}},
		{graph.TypePhoneTransfer, []string{"label", "countryCode", "phoneNumber", "transferType"}},
		{graph.TypeEnd, []string{"label", "message"}},
	}
	for _, tt := range tests {
		t.Run(string(tt.typ), func(t *testing.T) {
			p, ok := graph.DefaultPayload(tt.typ)
			require.True(t, ok)
			assert.Equal(t, tt.want, keys(FormFor(graph.Node{Type: tt.typ, Data: p})))
		})
	}
	assert.Nil(t, FormFor(graph.Node{}))
}

func TestFormFor_CurrentValues(t *testing.T) {
	n := graph.Node{Type: graph.TypeTransfer, Data: graph.TransferData{Label: "Billing", Delay: 3}}

	form := FormFor(n)
	assert.Equal(t, "Billing", form[0].Value)
	assert.Equal(t, "3", form[2].Value)
	assert.Equal(t, FieldNumber, form[2].Kind)
	assert.Equal(t, "number", form[2].Kind.String())
}

func TestSetField(t *testing.T) {
	e := newTestEditor(t)
	tr, _ := e.Store().AddNode(graph.TypeTransfer, graph.StartID)
	ph, _ := e.Store().AddNode(graph.TypePhoneTransfer, graph.StartID)

	require.NoError(t, e.SetField(tr.ID, "delay", "7"))
	require.NoError(t, e.SetField(tr.ID, "selectedAgent", "billing"))
	got, _ := e.Store().Node(tr.ID)
	assert.Equal(t, graph.TransferData{
		Label:           "Transfer",
		SelectedAgent:   "billing",
		Delay:           7,
		TransferMessage: "Please hold while I transfer your call.",
	}, got.Data)

	require.NoError(t, e.SetField(ph.ID, "transferType", graph.TransferCold))
	got, _ = e.Store().Node(ph.ID)
	assert.Equal(t, graph.TransferCold, got.Data.(graph.PhoneTransferData).TransferType)
	assert.True(t, e.Dirty())
}

func TestSetField_Errors(t *testing.T) {
	e := newTestEditor(t)
	tr, _ := e.Store().AddNode(graph.TypeTransfer, graph.StartID)
	ph, _ := e.Store().AddNode(graph.TypePhoneTransfer, graph.StartID)
	before := e.Store().Nodes()

	assert.ErrorIs(t, e.SetField(tr.ID, "delay", "soon"), ErrInvalidValue)
	assert.ErrorIs(t, e.SetField(ph.ID, "transferType", "hot"), ErrInvalidValue)
	assert.ErrorIs(t, e.SetField(tr.ID, "phoneNumber", "1"), ErrUnknownField)
	assert.ErrorIs(t, e.SetField("missing", "label", "x"), graph.ErrNodeNotFound)

	assert.Equal(t, before, e.Store().Nodes())
	assert.False(t, e.Dirty())
}

func TestRawJSON_RoundTrip(t *testing.T) {
	e := newTestEditor(t)
	tool, _ := e.Store().AddNode(graph.TypeTool, graph.StartID)

	raw, err := e.RawJSON(tool.ID)
	require.NoError(t, err)
	assert.JSONEq(t, `{"label":"Tool","name":"","description":"","parameters":{}}`, raw)

	require.NoError(t, e.ApplyRawJSON(tool.ID, `{"label":"CRM","name":"crm_lookup","parameters":{"id":{"type":"string"}}}`))
	got, _ := e.Store().Node(tool.ID)
	assert.Equal(t, graph.ToolData{
		Label:      "CRM",
		Name:       "crm_lookup",
		Parameters: map[string]any{"id": map[string]any{"type": "string"}},
	}, got.Data)
}

func TestApplyRawJSON_NeverPartiallyApplies(t *testing.T) {
	e := newTestEditor(t)
	tool, _ := e.Store().AddNode(graph.TypeTool, graph.StartID)
	require.NoError(t, e.SetField(tool.ID, "name", "keep_me"))
	before, _ := e.Store().Node(tool.ID)

	tests := []struct {
		name string
		raw  string
	}{
		{"syntax error", `{"name": "half`},
		{"not an object", `null`},
		{"array", `[1, 2]`},
		{"unknown key", `{"name": "x", "bogus": true}`},
		{"wrong type", `{"name": 42}`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Error(t, e.ApplyRawJSON(tool.ID, tt.raw))
			after, _ := e.Store().Node(tool.ID)
			assert.Equal(t, before, after)
		})
	}
}

func TestRawJSON_OnlyForTools(t *testing.T) {
	e := newTestEditor(t)

	_, err := e.RawJSON(graph.StartID)
	assert.ErrorIs(t, err, ErrNoRawJSON)
	assert.ErrorIs(t, e.ApplyRawJSON(graph.StartID, `{}`), ErrNoRawJSON)
	_, err = e.RawJSON("missing")
	assert.ErrorIs(t, err, graph.ErrNodeNotFound)
}
