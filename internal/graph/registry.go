package graph

import "sync"

// TypeSpec describes a node type for the insertion menu, the canvas and the store.
type TypeSpec struct {
	Type        NodeType
	Label       string
	Icon        string
	Description string
	// Color is a design-system key, resolved by the renderer.
	Color string
	// Terminal types never show the "add next" affordance.
	Terminal bool
	// InMenu controls whether the insertion menu offers this type.
	InMenu  bool
	Default func() Payload
	Decode  func(map[string]any) (Payload, error)
}

var (
	mu       sync.RWMutex
	registry = map[NodeType]TypeSpec{}
	order    []NodeType
)

// Register adds or replaces a node type.
func Register(spec TypeSpec) {
	mu.Lock()
	defer mu.Unlock()
	if _, exists := registry[spec.Type]; !exists {
		order = append(order, spec.Type)
	}
	registry[spec.Type] = spec
}

// Lookup returns the registered TypeSpec for t.
func Lookup(t NodeType) (TypeSpec, bool) {
	mu.RLock()
	defer mu.RUnlock()
	spec, ok := registry[t]
	return spec, ok
}

// Types returns every registered type in registration order.
func Types() []TypeSpec {
	mu.RLock()
	defer mu.RUnlock()
	out := make([]TypeSpec, 0, len(order))
	for _, t := range order {
		out = append(out, registry[t])
	}
	return out
}

// MenuTypes returns the types offered by the insertion menu.
func MenuTypes() []TypeSpec {
	var out []TypeSpec
	for _, spec := range Types() {
		if spec.InMenu {
			out = append(out, spec)
		}
	}
	return out
}

// IsTerminal reports whether t ends a branch of the flow.
func IsTerminal(t NodeType) bool {
	spec, ok := Lookup(t)
	return ok && spec.Terminal
}

// DefaultPayload returns a fresh default payload for t.
func DefaultPayload(t NodeType) (Payload, bool) {
	spec, ok := Lookup(t)
	if !ok || spec.Default == nil {
		return nil, false
	}
	return spec.Default(), true
}

func init() {
	Register(TypeSpec{
		Type:        TypeStart,
		Label:       "Start",
		Icon:        "▶",
		Description: "Entry point of the call",
		Color:       "success",
		Default:     func() Payload { return StartData{Label: "Start"} },
		Decode:      DecodeAs[StartData],
	})
	Register(TypeSpec{
		Type:        TypeSubagent,
		Label:       "Subagent",
		Icon:        "◉",
		Description: "Hand the conversation to another agent",
		Color:       "primary",
		InMenu:      true,
		Default:     func() Payload { return SubagentData{Label: "Subagent"} },
		Decode:      DecodeAs[SubagentData],
	})
	Register(TypeSpec{
		Type:        TypeCondition,
		Label:       "Condition",
		Icon:        "◇",
		Description: "Branch on a condition",
		Color:       "warning",
		InMenu:      true,
		Default:     func() Payload { return ConditionData{Label: "Condition"} },
		Decode:      DecodeAs[ConditionData],
	})
	Register(TypeSpec{
		Type:        TypeTool,
		Label:       "Tool",
		Icon:        "⚙",
		Description: "Call an external tool",
		Color:       "info",
		InMenu:      true,
		Default: func() Payload {
			return ToolData{Label: "Tool", Parameters: map[string]any{}}
		},
		Decode: DecodeAs[ToolData],
	})
	Register(TypeSpec{
		Type:        TypeTransfer,
		Label:       "Transfer to Agent",
		Icon:        "⇄",
		Description: "Transfer the call to another agent",
		Color:       "secondary",
		Terminal:    true,
		InMenu:      true,
		Default: func() Payload {
			return TransferData{
				Label:           "Transfer",
				TransferMessage: "Please hold while I transfer your call.",
			}
		},
		Decode: DecodeAs[TransferData],
	})
	Register(TypeSpec{
		Type:        TypePhoneTransfer,
		Label:       "Phone Transfer",
		Icon:        "☎",
		Description: "Forward the call to a phone number",
		Color:       "secondary",
		Terminal:    true,
		InMenu:      true,
		Default: func() Payload {
			return PhoneTransferData{
				Label:        "Phone Transfer",
				CountryCode:  "+1",
				TransferType: TransferWarm,
			}
		},
		Decode: DecodeAs[PhoneTransferData],
	})
	Register(TypeSpec{
		Type:        TypeEnd,
		Label:       "End Call",
		Icon:        "■",
		Description: "Hang up",
		Color:       "error",
		Terminal:    true,
		InMenu:      true,
		Default:     func() Payload { return EndData{Label: "End Call", Message: "Call ended"} },
		Decode:      DecodeAs[EndData],
	})
}
