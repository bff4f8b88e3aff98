package editor

import (
	"encoding/json"
	"errors"
	"fmt"
	"slices"
	"strconv"

	"callflow/internal/graph"
)

var (
	ErrUnknownField = graph.ErrUnknownField
	ErrInvalidValue = errors.New("invalid value")
	ErrNoRawJSON    = errors.New("raw JSON editing is only available for tool nodes")
	errNotAnObject  = errors.New("invalid JSON: expected an object")
)

// FieldKind decides how a raw input string is converted.
type FieldKind int

const (
	FieldText FieldKind = iota
	FieldNumber
	FieldChoice
	FieldMultiline
)

func (k FieldKind) String() string {
	switch k {
	case FieldNumber:
		return "number"
	case FieldChoice:
		return "choice"
	case FieldMultiline:
		return "multiline"
	default:
		return "text"
	}
}

// Field is one input of the configuration panel.
type Field struct {
	Key         string
	Label       string
	Kind        FieldKind
	Value       string
	Placeholder string
	Choices     []string
}

func text(key, label, value, placeholder string) Field {
	return Field{Key: key, Label: label, Kind: FieldText, Value: value, Placeholder: placeholder}
}

// FormFor returns the ordered configuration fields for n's payload.
func FormFor(n graph.Node) []Field {
	switch d := n.Data.(type) {
	case graph.StartData:
		return []Field{text("label", "Label", d.Label, "Start")}
	case graph.SubagentData:
		return []Field{
			text("label", "Label", d.Label, "Subagent"),
			text("selectedAgent", "Agent", d.SelectedAgent, "sales-assistant"),
			{Key: "condition", Label: "Condition", Kind: FieldMultiline, Value: d.Condition, Placeholder: "when to hand over"},
		}
	case graph.ConditionData:
		return []Field{
			text("label", "Label", d.Label, "Condition"),
			{Key: "expression", Label: "Expression", Kind: FieldMultiline, Value: d.Expression, Placeholder: "intent == 'refund'"},
		}
	case graph.ToolData:
		return []Field{
			text("label", "Label", d.Label, "Tool"),
			text("name", "Tool name", d.Name, "lookup_order"),
			{Key: "description", Label: "Description", Kind: FieldMultiline, Value: d.Description},
		}
	case graph.TransferData:
		return []Field{
			text("label", "Label", d.Label, "Transfer"),
			text("selectedAgent", "Agent", d.SelectedAgent, "billing"),
			{Key: "delay", Label: "Delay (s)", Kind: FieldNumber, Value: strconv.Itoa(d.Delay)},
			{Key: "transferMessage", Label: "Message", Kind: FieldMultiline, Value: d.TransferMessage},
		}
	case graph.PhoneTransferData:
		return []Field{
			text("label", "Label", d.Label, "Phone Transfer"),
			text("countryCode", "Country code", d.CountryCode, "+1"),
			text("phoneNumber", "Phone number", d.PhoneNumber, "5550100"),
			{
				Key: "transferType", Label: "Transfer type", Kind: FieldChoice, Value: d.TransferType,
				Choices: []string{graph.TransferWarm, graph.TransferCold},
			},
		}
	case graph.EndData:
		return []Field{
			text("label", "Label", d.Label, "End Call"),
			{Key: "message", Label: "Message", Kind: FieldMultiline, Value: d.Message},
		}
	}
	return nil
}

// fieldValue converts raw according to f's kind.
func fieldValue(f Field, raw string) (any, error) {
	switch f.Kind {
	case FieldNumber:
		if raw == "" {
			return 0, nil
		}
		v, err := strconv.Atoi(raw)
		if err != nil {
			return nil, fmt.Errorf("%w: %s must be a whole number", ErrInvalidValue, f.Label)
		}
		return v, nil
	case FieldChoice:
		if !slices.Contains(f.Choices, raw) {
			return nil, fmt.Errorf("%w: %s must be one of %v", ErrInvalidValue, f.Label, f.Choices)
		}
	}
	return raw, nil
}

// SetField writes one form field of nodeID through the store.
func (e *Editor) SetField(nodeID, key, raw string) error {
	n, ok := e.store.Node(nodeID)
	if !ok {
		return fmt.Errorf("%w: %s", graph.ErrNodeNotFound, nodeID)
	}
	form := FormFor(n)
	i := slices.IndexFunc(form, func(f Field) bool { return f.Key == key })
	if i < 0 {
		return fmt.Errorf("%w: %s on %s", ErrUnknownField, key, n.Type)
	}
	v, err := fieldValue(form[i], raw)
	if err != nil {
		return err
	}
	if err := e.store.UpdateNodeData(nodeID, map[string]any{key: v}); err != nil {
		return err
	}
	e.dirty = true
	return nil
}

// SupportsRawJSON reports whether n can be edited as raw JSON.
func SupportsRawJSON(n graph.Node) bool {
	return n.Type == graph.TypeTool
}

// RawJSON returns the indented JSON form of nodeID's data.
func (e *Editor) RawJSON(nodeID string) (string, error) {
	n, ok := e.store.Node(nodeID)
	if !ok {
		return "", fmt.Errorf("%w: %s", graph.ErrNodeNotFound, nodeID)
	}
	if !SupportsRawJSON(n) {
		return "", ErrNoRawJSON
	}
	b, err := json.MarshalIndent(graph.Fields(n.Data), "", "  ")
	if err != nil {
		return "", fmt.Errorf("encode %s: %w", nodeID, err)
	}
	return string(b), nil
}

// ApplyRawJSON replaces a tool node's data with the parsed text. Nothing is
// written unless the text parses and decodes into a tool payload.
func (e *Editor) ApplyRawJSON(nodeID, raw string) error {
	n, ok := e.store.Node(nodeID)
	if !ok {
		return fmt.Errorf("%w: %s", graph.ErrNodeNotFound, nodeID)
	}
	if !SupportsRawJSON(n) {
		return ErrNoRawJSON
	}
	var fields map[string]any
	if err := json.Unmarshal([]byte(raw), &fields); err != nil {
		return fmt.Errorf("invalid JSON: %w", err)
	}
	if fields == nil {
		return errNotAnObject
	}
	if err := e.store.ReplaceNodeData(nodeID, fields); err != nil {
		return err
	}
	e.dirty = true
	return nil
}
