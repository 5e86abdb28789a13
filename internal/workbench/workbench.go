// Package workbench is the host around open documents.
//
// Ownership boundary:
// - the open document registry and view naming on first contact
//
// - the status line and tag/terminal status as shown to users
//
// - auto-read/auto-write registration of documents with the monitor
//
// - fan-out of change events to subscribers (the HTTP event stream)
//
// Workbench implements monitor.Host. Every Host call is handed to the
// Dispatcher, so the monitor never waits on the workbench.
package workbench

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/danmuck/ndefsync/internal/document"
	"github.com/danmuck/ndefsync/internal/logs"
	"github.com/danmuck/ndefsync/internal/model"
	"github.com/danmuck/ndefsync/internal/monitor"
	"github.com/danmuck/ndefsync/internal/ndef"
	"github.com/danmuck/ndefsync/internal/terminal"
)

var (
	ErrUnknownDocument = errors.New("workbench: unknown document")
	ErrNotAttached     = errors.New("workbench: no monitor attached")
)

// Event types published to subscribers.
const (
	EventStatus          = "status"
	EventTagStatus       = "tag_status"
	EventTerminal        = "terminal"
	EventDocumentOpened  = "document_opened"
	EventDocumentChanged = "document_changed"
	EventDocumentClosed  = "document_closed"
	EventSubscribers     = "subscribers"
	EventSnapshot        = "snapshot"
)

type Event struct {
	Seq       uint64         `json:"seq" yaml:"seq"`
	Type      string         `json:"type" yaml:"type"`
	At        time.Time      `json:"at" yaml:"at"`
	Status    string         `json:"status,omitempty" yaml:"status,omitempty"`
	TagStatus string         `json:"tag_status,omitempty" yaml:"tag_status,omitempty"`
	Terminal  string         `json:"terminal,omitempty" yaml:"terminal,omitempty"`
	Document  *document.Info `json:"document,omitempty" yaml:"document,omitempty"`
}

// Registrar is the monitor side of subscriber registration.
type Registrar interface {
	SetReadSubscriber(s monitor.Subscriber)
	SetWriteSubscriber(s monitor.Subscriber)
	ReleaseSubscriber(s monitor.Subscriber)
}

type Config struct {
	// AutoOpen opens a document for tags read with no subscriber.
	AutoOpen    bool
	EventBuffer int
}

func DefaultConfig() Config {
	return Config{AutoOpen: true, EventBuffer: 64}
}

func (c Config) WithDefaults() Config {
	if c.EventBuffer <= 0 {
		c.EventBuffer = DefaultConfig().EventBuffer
	}
	return c
}

// Snapshot is the host state shown on the status line and /status.
type Snapshot struct {
	Status        string        `json:"status" yaml:"status"`
	Terminal      string        `json:"terminal" yaml:"terminal"`
	TagStatus     string        `json:"tag_status" yaml:"tag_status"`
	ReadDocument  string        `json:"read_document,omitempty" yaml:"read_document,omitempty"`
	WriteDocument string        `json:"write_document,omitempty" yaml:"write_document,omitempty"`
	Documents     int           `json:"documents" yaml:"documents"`
	MimeTypes     []string      `json:"mime_types,omitempty" yaml:"mime_types,omitempty"`
	Monitor       *MonitorState `json:"monitor,omitempty" yaml:"monitor,omitempty"`
}

// StateReporter is a Registrar that can describe its own state.
type StateReporter interface {
	State() monitor.State
}

type MonitorState struct {
	Terminal        string `json:"terminal" yaml:"terminal"`
	Status          string `json:"status" yaml:"status"`
	TagPresent      bool   `json:"tag_present" yaml:"tag_present"`
	ReadSubscribed  bool   `json:"read_subscribed" yaml:"read_subscribed"`
	WriteSubscribed bool   `json:"write_subscribed" yaml:"write_subscribed"`
	ReaderSeen      bool   `json:"reader_seen" yaml:"reader_seen"`
	PollInterval    string `json:"poll_interval" yaml:"poll_interval"`
	Stopped         bool   `json:"stopped" yaml:"stopped"`
}

type Workbench struct {
	cfg        Config
	dispatcher *Dispatcher
	projector  model.Projector
	seq        atomic.Uint64

	// regMu orders registrar calls with Close. Taken before mu, never
	// while the registrar holds its own lock.
	regMu sync.Mutex

	mu        sync.RWMutex
	registrar Registrar
	docs      map[string]*document.Document
	order     []string
	status    string
	tagStatus terminal.Status
	terminal  string
	readDoc   string
	writeDoc  string
	mimeTypes []string
	subs      map[int]chan Event
	nextSub   int
}

var _ monitor.Host = (*Workbench)(nil)

func New(cfg Config, dispatcher *Dispatcher) *Workbench {
	w := &Workbench{
		cfg:        cfg.WithDefaults(),
		dispatcher: dispatcher,
		docs:       make(map[string]*document.Document),
		subs:       make(map[int]chan Event),
		tagStatus:  terminal.StatusDisconnected,
	}
	w.projector = model.Projector{MimeTypes: w}
	return w
}

// Attach sets the monitor used for subscriber registration.
func (w *Workbench) Attach(r Registrar) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.registrar = r
}

func (w *Workbench) Dispatcher() *Dispatcher { return w.dispatcher }

// monitor.Host

func (w *Workbench) SetStatus(message string) {
	w.dispatcher.Submit(func() {
		w.mu.Lock()
		w.status = message
		w.mu.Unlock()
		logs.Infof("workbench.status %q", message)
		w.publish(Event{Type: EventStatus, Status: message})
	})
}

func (w *Workbench) TagStatusChanged(status terminal.Status) {
	w.dispatcher.Submit(func() {
		w.mu.Lock()
		w.tagStatus = status
		w.mu.Unlock()
		w.publish(Event{Type: EventTagStatus, TagStatus: status.String()})
	})
}

func (w *Workbench) TerminalChanged(name string) {
	w.dispatcher.Submit(func() {
		w.mu.Lock()
		w.terminal = name
		w.mu.Unlock()
		w.publish(Event{Type: EventTerminal, Terminal: name})
	})
}

func (w *Workbench) OpenView(name string, records []ndef.Record) {
	w.dispatcher.Submit(func() {
		if !w.cfg.AutoOpen {
			logs.Infof("workbench.OpenView skipped name=%q records=%d auto_open=false", name, len(records))
			return
		}
		w.Open(name, records)
	})
}

// ObserveMimeType records content types seen while projecting.
func (w *Workbench) ObserveMimeType(contentType string) {
	w.mu.Lock()
	defer w.mu.Unlock()
	for _, ct := range w.mimeTypes {
		if ct == contentType {
			return
		}
	}
	w.mimeTypes = append(w.mimeTypes, contentType)
}

// Open registers a new document over records.
func (w *Workbench) Open(name string, records []ndef.Record) *document.Document {
	doc := document.New(name, records, w.projector)
	doc.OnChange(w.documentChanged)
	w.mu.Lock()
	w.docs[doc.ID()] = doc
	w.order = append(w.order, doc.ID())
	w.mu.Unlock()
	info := doc.Info()
	logs.Infof("workbench.Open id=%s name=%q records=%d", info.ID, info.Name, info.Records)
	w.publish(Event{Type: EventDocumentOpened, Document: &info})
	return doc
}

// Close drops a document and any registration it holds.
func (w *Workbench) Close(id string) error {
	w.regMu.Lock()
	defer w.regMu.Unlock()
	w.mu.Lock()
	doc, ok := w.docs[id]
	if !ok {
		w.mu.Unlock()
		return fmt.Errorf("%w: %s", ErrUnknownDocument, id)
	}
	delete(w.docs, id)
	for i, v := range w.order {
		if v == id {
			w.order = append(w.order[:i], w.order[i+1:]...)
			break
		}
	}
	if w.readDoc == id {
		w.readDoc = ""
	}
	if w.writeDoc == id {
		w.writeDoc = ""
	}
	r := w.registrar
	w.mu.Unlock()
	if r != nil {
		r.ReleaseSubscriber(doc)
	}
	info := doc.Info()
	w.publish(Event{Type: EventDocumentClosed, Document: &info})
	return nil
}

func (w *Workbench) Document(id string) (*document.Document, error) {
	w.mu.RLock()
	defer w.mu.RUnlock()
	doc, ok := w.docs[id]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownDocument, id)
	}
	return doc, nil
}

// Documents lists open documents in open order.
func (w *Workbench) Documents() []document.Info {
	w.mu.RLock()
	docs := make([]*document.Document, 0, len(w.order))
	for _, id := range w.order {
		docs = append(docs, w.docs[id])
	}
	w.mu.RUnlock()
	out := make([]document.Info, 0, len(docs))
	for _, d := range docs {
		out = append(out, d.Info())
	}
	return out
}

// SetAutoRead makes document id the read subscriber; "" clears it.
func (w *Workbench) SetAutoRead(id string) error {
	return w.register(id, true)
}

// SetAutoWrite makes document id the write subscriber; "" clears it.
func (w *Workbench) SetAutoWrite(id string) error {
	return w.register(id, false)
}

func (w *Workbench) register(id string, read bool) error {
	w.regMu.Lock()
	defer w.regMu.Unlock()
	w.mu.Lock()
	r := w.registrar
	if r == nil {
		w.mu.Unlock()
		return ErrNotAttached
	}
	var sub monitor.Subscriber
	if id != "" {
		doc, ok := w.docs[id]
		if !ok {
			w.mu.Unlock()
			return fmt.Errorf("%w: %s", ErrUnknownDocument, id)
		}
		sub = doc
	}
	if read {
		w.readDoc = id
	} else {
		w.writeDoc = id
	}
	w.mu.Unlock()

	if read {
		r.SetReadSubscriber(sub)
	} else {
		r.SetWriteSubscriber(sub)
	}
	logs.Infof("workbench.register read=%v document=%q", read, id)
	w.publish(Event{Type: EventSubscribers})
	return nil
}

// Undo runs on the editing goroutine.
func (w *Workbench) Undo(ctx context.Context, id string) error {
	return w.onDocument(ctx, id, (*document.Document).Undo)
}

func (w *Workbench) Redo(ctx context.Context, id string) error {
	return w.onDocument(ctx, id, (*document.Document).Redo)
}

func (w *Workbench) RemoveRecord(ctx context.Context, id string, index int) error {
	return w.onDocument(ctx, id, func(d *document.Document) error { return d.RemoveRecord(index) })
}

func (w *Workbench) MoveRecord(ctx context.Context, id string, index, delta int) error {
	return w.onDocument(ctx, id, func(d *document.Document) error { return d.MoveRecord(index, delta) })
}

func (w *Workbench) onDocument(ctx context.Context, id string, fn func(*document.Document) error) error {
	doc, err := w.Document(id)
	if err != nil {
		return err
	}
	return w.dispatcher.Call(ctx, func() error { return fn(doc) })
}

func (w *Workbench) Snapshot() Snapshot {
	w.mu.RLock()
	snap := Snapshot{
		Status:        w.status,
		Terminal:      w.terminal,
		TagStatus:     w.tagStatus.String(),
		ReadDocument:  w.readDoc,
		WriteDocument: w.writeDoc,
		Documents:     len(w.docs),
		MimeTypes:     append([]string(nil), w.mimeTypes...),
	}
	r := w.registrar
	w.mu.RUnlock()

	// State takes the monitor lock; mu must not be held here.
	if sr, ok := r.(StateReporter); ok {
		st := sr.State()
		snap.Monitor = &MonitorState{
			Terminal:        st.Terminal,
			Status:          st.Status.String(),
			TagPresent:      st.TagPresent,
			ReadSubscribed:  st.ReadSubscribed,
			WriteSubscribed: st.WriteSubscribed,
			ReaderSeen:      st.ReaderSeen,
			PollInterval:    st.PollInterval.String(),
			Stopped:         st.Stopped,
		}
	}
	return snap
}

// SnapshotEvent is the current host state as an event, sent first on
// every event stream. It carries no sequence number.
func (w *Workbench) SnapshotEvent() Event {
	snap := w.Snapshot()
	return Event{
		Type:      EventSnapshot,
		At:        time.Now().UTC(),
		Status:    snap.Status,
		TagStatus: snap.TagStatus,
		Terminal:  snap.Terminal,
	}
}

// Subscribe returns a buffered event channel. Events are dropped for a
// subscriber whose buffer is full. cancel closes the channel.
func (w *Workbench) Subscribe() (<-chan Event, func()) {
	ch := make(chan Event, w.cfg.EventBuffer)
	w.mu.Lock()
	id := w.nextSub
	w.nextSub++
	w.subs[id] = ch
	w.mu.Unlock()

	var once sync.Once
	cancel := func() {
		once.Do(func() {
			w.mu.Lock()
			delete(w.subs, id)
			w.mu.Unlock()
			close(ch)
		})
	}
	return ch, cancel
}

func (w *Workbench) documentChanged(d *document.Document) {
	info := d.Info()
	w.publish(Event{Type: EventDocumentChanged, Document: &info})
}

func (w *Workbench) publish(ev Event) {
	ev.Seq = w.seq.Add(1)
	ev.At = time.Now().UTC()
	w.mu.RLock()
	defer w.mu.RUnlock()
	for id, ch := range w.subs {
		select {
		case ch <- ev:
		default:
			logs.Debugf("workbench.publish dropped subscriber=%d type=%s seq=%d", id, ev.Type, ev.Seq)
		}
	}
}
