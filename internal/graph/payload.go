package graph

import (
	"bytes"
	"encoding/json"
	"fmt"
)

// Payload is the type-specific data carried by a node. Each node type has
// exactly one payload struct; callers switch on the concrete type.
type Payload interface {
	Kind() NodeType
	Title() string
}

// StartData is the payload of the seeded start node.
type StartData struct {
	Label string `json:"label"`
}

// SubagentData hands the conversation to another agent persona.
type SubagentData struct {
	Label         string `json:"label"`
	SelectedAgent string `json:"selectedAgent"`
	Condition     string `json:"condition"`
}

// ConditionData branches the flow on an expression.
type ConditionData struct {
	Label      string `json:"label"`
	Expression string `json:"expression"`
}

// ToolData invokes an external tool during the call.
type ToolData struct {
	Label       string         `json:"label"`
	Name        string         `json:"name"`
	Description string         `json:"description"`
	Parameters  map[string]any `json:"parameters"`
}

// TransferData transfers the call to another agent. Delay is in seconds.
type TransferData struct {
	Label           string `json:"label"`
	SelectedAgent   string `json:"selectedAgent"`
	Delay           int    `json:"delay"`
	TransferMessage string `json:"transferMessage"`
}

// Transfer modes for PhoneTransferData.
const (
	TransferWarm = "warm"
	TransferCold = "cold"
)

// PhoneTransferData forwards the call to an external phone number.
type PhoneTransferData struct {
	Label        string `json:"label"`
	PhoneNumber  string `json:"phoneNumber"`
	CountryCode  string `json:"countryCode"`
	TransferType string `json:"transferType"`
}

// EndData terminates the call.
type EndData struct {
	Label   string `json:"label"`
	Message string `json:"message"`
}

func (StartData) Kind() NodeType         { return TypeStart }
func (SubagentData) Kind() NodeType      { return TypeSubagent }
func (ConditionData) Kind() NodeType     { return TypeCondition }
func (ToolData) Kind() NodeType          { return TypeTool }
func (TransferData) Kind() NodeType      { return TypeTransfer }
func (PhoneTransferData) Kind() NodeType { return TypePhoneTransfer }
func (EndData) Kind() NodeType           { return TypeEnd }

func (d StartData) Title() string         { return d.Label }
func (d SubagentData) Title() string      { return d.Label }
func (d ConditionData) Title() string     { return d.Label }
func (d ToolData) Title() string          { return d.Label }
func (d TransferData) Title() string      { return d.Label }
func (d PhoneTransferData) Title() string { return d.Label }
func (d EndData) Title() string           { return d.Label }

// Fields flattens a payload into its field map, keyed by the JSON field names.
func Fields(p Payload) map[string]any {
	out := map[string]any{}
	if p == nil {
		return out
	}
	raw, err := json.Marshal(p)
	if err != nil {
		return out
	}
	_ = json.Unmarshal(raw, &out)
	return out
}

// DecodeAs builds a payload of concrete type T from a field map. Unknown keys
// and values of the wrong type are rejected so that nothing is half-applied.
// Keys must match the field names exactly; encoding/json alone would accept
// "Label" for "label".
func DecodeAs[T Payload](fields map[string]any) (Payload, error) {
	var v T
	if len(fields) == 0 {
		return v, nil
	}
	known := Fields(v)
	for k := range fields {
		if _, ok := known[k]; !ok {
			return nil, fmt.Errorf("%w: %q on %s", ErrUnknownField, k, v.Kind())
		}
	}
	raw, err := json.Marshal(fields)
	if err != nil {
		return nil, fmt.Errorf("encode fields: %w", err)
	}
	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.DisallowUnknownFields()
	if err := dec.Decode(&v); err != nil {
		return nil, fmt.Errorf("decode %s payload: %w", v.Kind(), err)
	}
	return v, nil
}

// DecodePayload decodes fields into the payload type registered for t.
func DecodePayload(t NodeType, fields map[string]any) (Payload, error) {
	spec, ok := Lookup(t)
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownType, t)
	}
	return spec.Decode(fields)
}

// ClonePayload returns a deep copy of p.
func ClonePayload(p Payload) Payload {
	if p == nil {
		return nil
	}
	c, err := DecodePayload(p.Kind(), Fields(p))
	if err != nil {
		return p
	}
	return c
}

// MergeFields returns a copy of base with every key of partial overwritten.
func MergeFields(base, partial map[string]any) map[string]any {
	out := make(map[string]any, len(base)+len(partial))
	for k, v := range base {
		out[k] = v
	}
	for k, v := range partial {
		out[k] = v
	}
	return out
}
