package monitor

import (
	"github.com/danmuck/ndefsync/internal/ndef"
	"github.com/danmuck/ndefsync/internal/terminal"
)

// Subscriber is an open view that can receive tag content and supply
// content to write.
type Subscriber interface {
	SetNdefContent(records []ndef.Record)
	NdefRecords() []ndef.Record
}

// Host receives user-visible notifications. Implementations hand them off
// to the editing goroutine and return without waiting.
type Host interface {
	SetStatus(message string)
	TagStatusChanged(status terminal.Status)
	// TerminalChanged reports the new active terminal name, "" for none.
	TerminalChanged(name string)
	// OpenView opens a new view over records read on first contact.
	OpenView(name string, records []ndef.Record)
}

// Status line texts.
const (
	StatusTagConnected    = "Tag connected."
	StatusTagDisconnected = "Tag disconnected."
	StatusReadTag         = "Read tag successful."
	StatusAutoRead        = "Auto-read successful."
	StatusAutoReadFailed  = "Auto-read not possible."
	StatusAutoWrite       = "Auto-write successful."
	StatusAutoWriteFailed = "Auto-write not possible."
)

func unsupportedTagStatus(tagType string) string {
	return "Unsupported tag of type " + tagType + " detected"
}
