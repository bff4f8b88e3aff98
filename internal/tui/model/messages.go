package model

import (
	"callflow/pkg/logging"
)

// ClearStatusBarMsg clears the status bar message.
type ClearStatusBarMsg struct{}

// LogEntryMsg carries one log entry from the logging channel.
type LogEntryMsg struct {
	Entry logging.LogEntry
}

// WatcherStartedMsg is sent once the file watcher is running.
type WatcherStartedMsg struct{}

// FileChangedMsg reports that the open flow changed on disk.
type FileChangedMsg struct{}

// ErrorMsg reports a failed background operation.
type ErrorMsg struct {
	Op  string
	Err error
}
