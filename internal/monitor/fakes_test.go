package monitor

import (
	"errors"
	"sync"

	"github.com/danmuck/ndefsync/internal/ndef"
	"github.com/danmuck/ndefsync/internal/terminal"
)

type fakeEnum struct {
	mu    sync.Mutex
	t     terminal.Terminal
	err   error
	calls int
}

func (e *fakeEnum) set(t terminal.Terminal, err error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.t, e.err = t, err
}

func (e *fakeEnum) Available() (terminal.Terminal, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.calls++
	return e.t, e.err
}

func (e *fakeEnum) callCount() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.calls
}

type fakeTerminal struct {
	name string

	mu          sync.Mutex
	handler     terminal.Handler
	connects    int
	disconnects int
	connectErr  error
}

func (t *fakeTerminal) Name() string { return t.name }

func (t *fakeTerminal) Connect(h terminal.Handler) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.connectErr != nil {
		return t.connectErr
	}
	t.connects++
	t.handler = h
	return nil
}

func (t *fakeTerminal) Disconnect() error {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.disconnects++
	return nil
}

func (t *fakeTerminal) h() terminal.Handler {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.handler
}

func (t *fakeTerminal) counts() (int, int) {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.connects, t.disconnects
}

type fakeOps struct {
	formatted bool
	message   []byte
	readErr   error
	writeErr  error
	maxSize   int

	written       []byte
	formattedWith []byte
	reads         int
	log           *[]string
}

func (o *fakeOps) IsFormatted() bool { return o.formatted }
func (o *fakeOps) HasMessage() bool  { return o.formatted && len(o.message) > 0 }
func (o *fakeOps) MaxSize() int      { return o.maxSize }

func (o *fakeOps) ReadMessage() ([]byte, error) {
	o.reads++
	if o.readErr != nil {
		return nil, o.readErr
	}
	return o.message, nil
}

func (o *fakeOps) WriteMessage(msg []byte) error {
	if o.writeErr != nil {
		return o.writeErr
	}
	o.written = msg
	o.appendLog("tag:write")
	return nil
}

func (o *fakeOps) Format(msg []byte) error {
	if o.writeErr != nil {
		return o.writeErr
	}
	o.formattedWith = msg
	o.appendLog("tag:format")
	return nil
}

func (o *fakeOps) appendLog(s string) {
	if o.log != nil {
		*o.log = append(*o.log, s)
	}
}

type openedView struct {
	name    string
	records []ndef.Record
}

type fakeHost struct {
	mu          sync.Mutex
	statuses    []string
	tagStatuses []terminal.Status
	terminals   []string
	views       []openedView
}

func (h *fakeHost) SetStatus(msg string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.statuses = append(h.statuses, msg)
}

func (h *fakeHost) TagStatusChanged(s terminal.Status) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.tagStatuses = append(h.tagStatuses, s)
}

func (h *fakeHost) TerminalChanged(name string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.terminals = append(h.terminals, name)
}

func (h *fakeHost) OpenView(name string, records []ndef.Record) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.views = append(h.views, openedView{name: name, records: records})
}

func (h *fakeHost) lastStatus() string {
	h.mu.Lock()
	defer h.mu.Unlock()
	if len(h.statuses) == 0 {
		return ""
	}
	return h.statuses[len(h.statuses)-1]
}

func (h *fakeHost) terminalNames() []string {
	h.mu.Lock()
	defer h.mu.Unlock()
	return append([]string(nil), h.terminals...)
}

type fakeSub struct {
	name    string
	records []ndef.Record
	got     [][]ndef.Record
	pulls   int
	log     *[]string
}

func (s *fakeSub) SetNdefContent(records []ndef.Record) {
	s.got = append(s.got, records)
	if s.log != nil {
		*s.log = append(*s.log, s.name+":set")
	}
}

func (s *fakeSub) NdefRecords() []ndef.Record {
	s.pulls++
	if s.log != nil {
		*s.log = append(*s.log, s.name+":get")
	}
	return s.records
}

type failingCodec struct{ ndef.Codec }

var errEncode = errors.New("fake: encode failed")

func (failingCodec) Encode([]ndef.Record) ([]byte, error) { return nil, errEncode }
