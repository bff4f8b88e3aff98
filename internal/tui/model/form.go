package model

import (
	"callflow/internal/editor"
)

// Fields returns the configuration fields of the selected node.
func (m *Model) Fields() []editor.Field {
	n, ok := m.Editor.SelectedNode()
	if !ok {
		return nil
	}
	return editor.FormFor(n)
}

// CurrentField is the field that has keyboard focus.
func (m *Model) CurrentField() (editor.Field, bool) {
	fields := m.Fields()
	if m.FormFocus < 0 || m.FormFocus >= len(fields) {
		return editor.Field{}, false
	}
	return fields[m.FormFocus], true
}

// OpenForm enters form mode on the selected node's first field.
func (m *Model) OpenForm() bool {
	if len(m.Fields()) == 0 {
		return false
	}
	m.SwitchMode(ModeForm)
	m.FocusField(0)
	return true
}

// FocusField moves focus to field i, wrapping at both ends, and loads its
// value into the input.
func (m *Model) FocusField(i int) {
	fields := m.Fields()
	if len(fields) == 0 {
		return
	}
	m.FormFocus = ((i % len(fields)) + len(fields)) % len(fields)
	f := fields[m.FormFocus]
	m.FieldInput.SetValue(f.Value)
	m.FieldInput.Placeholder = f.Placeholder
	m.FieldInput.CursorEnd()
	m.FieldInput.Focus()
	m.FieldError = ""
}

// CommitField writes the input value to the focused field. On failure the
// error is kept for inline display and the node is unchanged.
func (m *Model) CommitField() error {
	f, ok := m.CurrentField()
	if !ok {
		return nil
	}
	if f.Value == m.FieldInput.Value() {
		m.FieldError = ""
		return nil
	}
	if err := m.Editor.SetField(m.Editor.Selected(), f.Key, m.FieldInput.Value()); err != nil {
		m.FieldError = err.Error()
		return err
	}
	m.FieldError = ""
	return nil
}

// CycleChoice steps a choice field through its allowed values.
func (m *Model) CycleChoice(step int) bool {
	f, ok := m.CurrentField()
	if !ok || f.Kind != editor.FieldChoice || len(f.Choices) == 0 {
		return false
	}
	cur := 0
	for i, c := range f.Choices {
		if c == m.FieldInput.Value() {
			cur = i
			break
		}
	}
	next := ((cur+step)%len(f.Choices) + len(f.Choices)) % len(f.Choices)
	m.FieldInput.SetValue(f.Choices[next])
	m.FieldInput.CursorEnd()
	return true
}

// CloseForm leaves form mode without writing the pending input.
func (m *Model) CloseForm() {
	m.FieldInput.Blur()
	m.FieldError = ""
	m.CurrentAppMode = ModeCanvas
}

// OpenRawJSON loads the selected tool node's data into the JSON editor.
func (m *Model) OpenRawJSON() error {
	raw, err := m.Editor.RawJSON(m.Editor.Selected())
	if err != nil {
		return err
	}
	m.JSONInput.SetValue(raw)
	m.JSONInput.Focus()
	m.JSONError = ""
	m.SwitchMode(ModeRawJSON)
	return nil
}

// ApplyRawJSON replaces the tool data with the editor text. The editor stays
// open with the error shown when the text is rejected.
func (m *Model) ApplyRawJSON() error {
	if err := m.Editor.ApplyRawJSON(m.Editor.Selected(), m.JSONInput.Value()); err != nil {
		m.JSONError = err.Error()
		return err
	}
	m.CloseRawJSON()
	return nil
}

// CloseRawJSON leaves the JSON editor.
func (m *Model) CloseRawJSON() {
	m.JSONInput.Blur()
	m.JSONError = ""
	m.CurrentAppMode = ModeCanvas
}
