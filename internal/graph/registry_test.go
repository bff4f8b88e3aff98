package graph

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBuiltinTypes(t *testing.T) {
	tests := []struct {
		typ      NodeType
		terminal bool
		inMenu   bool
	}{
		{TypeStart, false, false},
		{TypeSubagent, false, true},
		{TypeCondition, false, true},
		{TypeTool, false, true},
		{TypeTransfer, true, true},
		{TypePhoneTransfer, true, true},
		{TypeEnd, true, true},
	}

	for _, tt := range tests {
		t.Run(string(tt.typ), func(t *testing.T) {
			spec, ok := Lookup(tt.typ)
			require.True(t, ok)
			assert.Equal(t, tt.terminal, spec.Terminal)
			assert.Equal(t, tt.terminal, IsTerminal(tt.typ))
			assert.Equal(t, tt.inMenu, spec.InMenu)
			assert.NotEmpty(t, spec.Label)
			assert.NotEmpty(t, spec.Icon)

			p, ok := DefaultPayload(tt.typ)
			require.True(t, ok)
			assert.Equal(t, tt.typ, p.Kind(), "default payload must match its type")
		})
	}
}

func TestMenuTypes_ExcludesStartAndKeepsOrder(t *testing.T) {
	var got []NodeType
	for _, spec := range MenuTypes() {
		got = append(got, spec.Type)
	}
	assert.Equal(t, []NodeType{
		TypeSubagent, TypeCondition, TypeTool, TypeTransfer, TypePhoneTransfer, TypeEnd,
	}, got)
}

type voicemailData struct {
	Label    string `json:"label"`
	Greeting string `json:"greeting"`
}

func (voicemailData) Kind() NodeType  { return "voicemail" }
func (d voicemailData) Title() string { return d.Label }

func TestRegister_NewTypeNeedsOnlyARegistryEntry(t *testing.T) {
	Register(TypeSpec{
		Type:     "voicemail",
		Label:    "Voicemail",
		Icon:     "✉",
		Terminal: true,
		InMenu:   true,
		Default:  func() Payload { return voicemailData{Label: "Voicemail"} },
		Decode:   DecodeAs[voicemailData],
	})
	t.Cleanup(func() {
		mu.Lock()
		delete(registry, "voicemail")
		order = order[:len(order)-1]
		mu.Unlock()
	})

	s := newTestStore()
	n, ok := s.AddNode("voicemail", StartID)
	require.True(t, ok)
	require.NoError(t, s.UpdateNodeData(n.ID, map[string]any{"greeting": "Leave a message"}))

	got, _ := s.Node(n.ID)
	assert.Equal(t, voicemailData{Label: "Voicemail", Greeting: "Leave a message"}, got.Data)
	assert.True(t, IsTerminal(got.Type))
}

func TestFields_UsesWireNames(t *testing.T) {
	fields := Fields(PhoneTransferData{Label: "Ops", PhoneNumber: "5550100", CountryCode: "+44", TransferType: TransferCold})
	assert.Equal(t, map[string]any{
		"label":        "Ops",
		"phoneNumber":  "5550100",
		"countryCode":  "+44",
		"transferType": "cold",
	}, fields)
	assert.Empty(t, Fields(nil))
}

func TestDecodePayload(t *testing.T) {
	p, err := DecodePayload(TypeCondition, map[string]any{"expression": "intent == 'refund'"})
	require.NoError(t, err)
	assert.Equal(t, ConditionData{Expression: "intent == 'refund'"}, p)

	_, err = DecodePayload("nope", nil)
	assert.ErrorIs(t, err, ErrUnknownType)

	_, err = DecodePayload(TypeEnd, map[string]any{"unexpected": 1})
	assert.Error(t, err)
}

func TestMergeFields_DoesNotMutateInputs(t *testing.T) {
	base := map[string]any{"a": 1, "b": 2}
	partial := map[string]any{"b": 3, "c": 4}

	merged := MergeFields(base, partial)

	assert.Equal(t, map[string]any{"a": 1, "b": 3, "c": 4}, merged)
	assert.Equal(t, map[string]any{"a": 1, "b": 2}, base)
}
