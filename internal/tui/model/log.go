package model

import (
	"strings"
)

// AppendLogLine adds one line to the activity log, dropping the oldest lines
// beyond MaxActivityLogLines, and keeps the log viewport scrolled to the end.
func (m *Model) AppendLogLine(line string) {
	m.ActivityLog = append(m.ActivityLog, line)
	if len(m.ActivityLog) > MaxActivityLogLines {
		m.ActivityLog = m.ActivityLog[len(m.ActivityLog)-MaxActivityLogLines:]
	}
	m.LogViewport.SetContent(strings.Join(m.ActivityLog, "\n"))
	m.LogViewport.GotoBottom()
}
