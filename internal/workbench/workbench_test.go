package workbench

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/danmuck/ndefsync/internal/document"
	"github.com/danmuck/ndefsync/internal/edit"
	"github.com/danmuck/ndefsync/internal/monitor"
	"github.com/danmuck/ndefsync/internal/ndef"
	"github.com/danmuck/ndefsync/internal/ndef/wire"
	"github.com/danmuck/ndefsync/internal/terminal"
	"github.com/danmuck/ndefsync/internal/terminal/virtual"
	"github.com/danmuck/ndefsync/internal/testutil/testlog"
	"github.com/google/go-cmp/cmp"
)

type fakeRegistrar struct {
	mu          sync.Mutex
	read, write monitor.Subscriber
	released    []monitor.Subscriber
}

func (r *fakeRegistrar) SetReadSubscriber(s monitor.Subscriber)  { r.mu.Lock(); r.read = s; r.mu.Unlock() }
func (r *fakeRegistrar) SetWriteSubscriber(s monitor.Subscriber) { r.mu.Lock(); r.write = s; r.mu.Unlock() }

func (r *fakeRegistrar) ReleaseSubscriber(s monitor.Subscriber) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.released = append(r.released, s)
	if r.read == s {
		r.read = nil
	}
	if r.write == s {
		r.write = nil
	}
}

func newWorkbench(t *testing.T, cfg Config) *Workbench {
	t.Helper()
	d, _ := startDispatcher(t)
	return New(cfg, d)
}

func waitEvent(t *testing.T, events <-chan Event, typ string) Event {
	t.Helper()
	timeout := time.After(3 * time.Second)
	for {
		select {
		case ev := <-events:
			if ev.Type == typ {
				return ev
			}
		case <-timeout:
			t.Fatalf("timed out waiting for %s event", typ)
			return Event{}
		}
	}
}

func drain(t *testing.T, w *Workbench) {
	t.Helper()
	if err := w.Dispatcher().Call(context.Background(), func() error { return nil }); err != nil {
		t.Fatalf("dispatcher call: %v", err)
	}
}

func TestHostCallsUpdateSnapshot(t *testing.T) {
	testlog.Start(t)

	w := newWorkbench(t, DefaultConfig())
	events, cancel := w.Subscribe()
	defer cancel()

	w.TerminalChanged("desk")
	w.TagStatusChanged(terminal.StatusConnected)
	w.SetStatus(monitor.StatusTagConnected)
	drain(t, w)

	got := w.Snapshot()
	want := Snapshot{Status: monitor.StatusTagConnected, Terminal: "desk", TagStatus: "connected"}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Fatalf("unexpected snapshot:\n%s", diff)
	}

	var seqs []uint64
	for _, typ := range []string{EventTerminal, EventTagStatus, EventStatus} {
		ev := waitEvent(t, events, typ)
		seqs = append(seqs, ev.Seq)
	}
	if !(seqs[0] < seqs[1] && seqs[1] < seqs[2]) {
		t.Fatalf("expected increasing sequence numbers, got %v", seqs)
	}
}

func TestOpenViewRegistersDocument(t *testing.T) {
	testlog.Start(t)

	w := newWorkbench(t, DefaultConfig())
	events, cancel := w.Subscribe()
	defer cancel()

	records := []ndef.Record{&ndef.URI{URI: "https://example.com"}, &ndef.BinaryMime{ContentType: "text/plain", Content: []byte("hi")}}
	w.OpenView("desk-1", records)
	ev := waitEvent(t, events, EventDocumentOpened)
	if ev.Document == nil || ev.Document.Name != "desk-1" || ev.Document.Records != 2 {
		t.Fatalf("unexpected opened event: %+v", ev)
	}

	docs := w.Documents()
	if len(docs) != 1 || docs[0].ID != ev.Document.ID {
		t.Fatalf("unexpected documents: %+v", docs)
	}
	doc, err := w.Document(docs[0].ID)
	if err != nil {
		t.Fatalf("document: %v", err)
	}
	if diff := cmp.Diff(records, doc.NdefRecords()); diff != "" {
		t.Fatalf("unexpected records:\n%s", diff)
	}
	if diff := cmp.Diff([]string{"text/plain"}, w.Snapshot().MimeTypes); diff != "" {
		t.Fatalf("unexpected mime types:\n%s", diff)
	}
}

func TestOpenViewDisabled(t *testing.T) {
	testlog.Start(t)

	w := newWorkbench(t, Config{AutoOpen: false})
	w.OpenView("desk-1", nil)
	drain(t, w)
	if docs := w.Documents(); len(docs) != 0 {
		t.Fatalf("expected no documents, got %+v", docs)
	}
}

func TestAutoReadAndWriteRegistration(t *testing.T) {
	testlog.Start(t)

	w := newWorkbench(t, DefaultConfig())
	if err := w.SetAutoRead("x"); !errors.Is(err, ErrNotAttached) {
		t.Fatalf("expected ErrNotAttached, got %v", err)
	}
	reg := &fakeRegistrar{}
	w.Attach(reg)

	a := w.Open("a", nil)
	b := w.Open("b", nil)
	if err := w.SetAutoRead(a.ID()); err != nil {
		t.Fatalf("auto read: %v", err)
	}
	if err := w.SetAutoWrite(b.ID()); err != nil {
		t.Fatalf("auto write: %v", err)
	}
	if err := w.SetAutoWrite("missing"); !errors.Is(err, ErrUnknownDocument) {
		t.Fatalf("expected ErrUnknownDocument, got %v", err)
	}
	if reg.read != monitor.Subscriber(a) || reg.write != monitor.Subscriber(b) {
		t.Fatalf("unexpected registration read=%v write=%v", reg.read, reg.write)
	}
	snap := w.Snapshot()
	if snap.ReadDocument != a.ID() || snap.WriteDocument != b.ID() || snap.Documents != 2 {
		t.Fatalf("unexpected snapshot: %+v", snap)
	}

	if err := w.SetAutoRead(""); err != nil {
		t.Fatalf("clear auto read: %v", err)
	}
	if reg.read != nil || w.Snapshot().ReadDocument != "" {
		t.Fatalf("expected read registration cleared")
	}

	if err := w.Close(b.ID()); err != nil {
		t.Fatalf("close: %v", err)
	}
	if reg.write != nil || w.Snapshot().WriteDocument != "" {
		t.Fatalf("closing a document must release its registration")
	}
	if err := w.Close(b.ID()); !errors.Is(err, ErrUnknownDocument) {
		t.Fatalf("expected ErrUnknownDocument on second close, got %v", err)
	}
	if docs := w.Documents(); len(docs) != 1 || docs[0].ID != a.ID() {
		t.Fatalf("unexpected documents after close: %+v", docs)
	}
}

// gatedRegistrar parks SetReadSubscriber until release is closed.
type gatedRegistrar struct {
	fakeRegistrar
	entered chan struct{}
	release chan struct{}
}

func (r *gatedRegistrar) SetReadSubscriber(s monitor.Subscriber) {
	r.entered <- struct{}{}
	<-r.release
	r.fakeRegistrar.SetReadSubscriber(s)
}

func TestCloseWaitsForInFlightRegistration(t *testing.T) {
	testlog.Start(t)

	w := newWorkbench(t, DefaultConfig())
	reg := &gatedRegistrar{entered: make(chan struct{}), release: make(chan struct{})}
	w.Attach(reg)
	doc := w.Open("desk-1", nil)

	registered := make(chan error, 1)
	go func() { registered <- w.SetAutoRead(doc.ID()) }()
	<-reg.entered

	closed := make(chan error, 1)
	go func() { closed <- w.Close(doc.ID()) }()
	select {
	case err := <-closed:
		t.Fatalf("close finished during registration: %v", err)
	case <-time.After(50 * time.Millisecond):
	}

	close(reg.release)
	if err := <-registered; err != nil {
		t.Fatalf("set auto read: %v", err)
	}
	if err := <-closed; err != nil {
		t.Fatalf("close: %v", err)
	}

	reg.mu.Lock()
	read := reg.read
	reg.mu.Unlock()
	if read != nil {
		t.Fatalf("closed document still registered as read subscriber")
	}
	if snap := w.Snapshot(); snap.ReadDocument != "" {
		t.Fatalf("snapshot still reports read document %q", snap.ReadDocument)
	}
}

func TestConcurrentRegistrationsAgreeWithSnapshot(t *testing.T) {
	testlog.Start(t)

	w := newWorkbench(t, DefaultConfig())
	reg := &fakeRegistrar{}
	w.Attach(reg)
	docs := []*document.Document{w.Open("a", nil), w.Open("b", nil), w.Open("c", nil)}

	var wg sync.WaitGroup
	for i := 0; i < 30; i++ {
		wg.Add(1)
		go func(doc *document.Document) {
			defer wg.Done()
			_ = w.SetAutoRead(doc.ID())
		}(docs[i%len(docs)])
	}
	wg.Wait()

	reg.mu.Lock()
	read := reg.read
	reg.mu.Unlock()
	snap := w.Snapshot()
	got, ok := read.(*document.Document)
	if !ok || got.ID() != snap.ReadDocument {
		t.Fatalf("registrar and snapshot disagree: registrar=%v snapshot=%q", read, snap.ReadDocument)
	}
}

func TestSnapshotIncludesMonitorState(t *testing.T) {
	testlog.Start(t)

	w := newWorkbench(t, DefaultConfig())
	if snap := w.Snapshot(); snap.Monitor != nil {
		t.Fatalf("unattached workbench should report no monitor: %+v", snap.Monitor)
	}

	cfg := monitor.DefaultConfig()
	mon := monitor.New(cfg, virtual.NewDirectory(t.TempDir()), wire.Codec{}, w)
	w.Attach(mon)
	doc := w.Open("desk-1", nil)
	if err := w.SetAutoWrite(doc.ID()); err != nil {
		t.Fatalf("set auto write: %v", err)
	}

	want := &MonitorState{
		Status:          terminal.StatusDisconnected.String(),
		WriteSubscribed: true,
		PollInterval:    cfg.IdleInterval.String(),
	}
	if diff := cmp.Diff(want, w.Snapshot().Monitor); diff != "" {
		t.Fatalf("unexpected monitor state (-want +got):\n%s", diff)
	}
}

func TestEditingRunsOnDispatcher(t *testing.T) {
	testlog.Start(t)

	w := newWorkbench(t, DefaultConfig())
	events, cancel := w.Subscribe()
	defer cancel()
	ctx := context.Background()

	doc := w.Open("doc", []ndef.Record{&ndef.URI{URI: "a"}, &ndef.URI{URI: "b"}})
	if err := w.MoveRecord(ctx, doc.ID(), 0, 1); err != nil {
		t.Fatalf("move: %v", err)
	}
	if ev := waitEvent(t, events, EventDocumentChanged); ev.Document.Revision != 1 {
		t.Fatalf("unexpected change event: %+v", ev.Document)
	}
	if err := w.RemoveRecord(ctx, doc.ID(), 0); err != nil {
		t.Fatalf("remove: %v", err)
	}
	if diff := cmp.Diff([]ndef.Record{&ndef.URI{URI: "a"}}, doc.NdefRecords()); diff != "" {
		t.Fatalf("unexpected records:\n%s", diff)
	}
	if err := w.Undo(ctx, doc.ID()); err != nil {
		t.Fatalf("undo: %v", err)
	}
	if err := w.Redo(ctx, doc.ID()); err != nil {
		t.Fatalf("redo: %v", err)
	}
	if err := w.Redo(ctx, doc.ID()); !errors.Is(err, edit.ErrNothingToRedo) {
		t.Fatalf("expected ErrNothingToRedo, got %v", err)
	}
	if err := w.Undo(ctx, "missing"); !errors.Is(err, ErrUnknownDocument) {
		t.Fatalf("expected ErrUnknownDocument, got %v", err)
	}
}

func TestSubscribeCancelClosesChannel(t *testing.T) {
	testlog.Start(t)

	w := newWorkbench(t, Config{AutoOpen: true, EventBuffer: 1})
	events, cancel := w.Subscribe()
	// a full buffer drops instead of blocking
	w.Open("a", nil)
	w.Open("b", nil)
	cancel()
	cancel()
	n := 0
	for range events {
		n++
	}
	if n != 1 {
		t.Fatalf("expected one buffered event, got %d", n)
	}
}

func writeTag(t *testing.T, dir string, records []ndef.Record) {
	t.Helper()
	msg, err := wire.Codec{}.Encode(records)
	if err != nil {
		t.Fatalf("encode: %v", err)
	}
	img, err := virtual.BuildImage(128, msg)
	if err != nil {
		t.Fatalf("build image: %v", err)
	}
	placeTag(t, dir, img)
}

// placeTag renames the image into place so the reader never sees a partial file.
func placeTag(t *testing.T, dir string, img []byte) {
	t.Helper()
	tmp := filepath.Join(dir, "tag.tmp")
	if err := os.WriteFile(tmp, img, 0o644); err != nil {
		t.Fatalf("write tag: %v", err)
	}
	if err := os.Rename(tmp, filepath.Join(dir, virtual.TagImageFile)); err != nil {
		t.Fatalf("place tag: %v", err)
	}
}

func TestVirtualReaderEndToEnd(t *testing.T) {
	testlog.Start(t)

	root := t.TempDir()
	dir := filepath.Join(root, "desk")
	if err := os.MkdirAll(dir, 0o755); err != nil {
		t.Fatalf("mkdir: %v", err)
	}
	desc := "name = \"desk\"\nmax_size = 128\nscan_interval = \"5ms\"\n"
	if err := os.WriteFile(filepath.Join(dir, virtual.DescriptorFile), []byte(desc), 0o644); err != nil {
		t.Fatalf("write descriptor: %v", err)
	}

	w := newWorkbench(t, DefaultConfig())
	events, cancel := w.Subscribe()
	defer cancel()

	m := monitor.New(monitor.Config{PollInterval: 10 * time.Millisecond, IdleInterval: 10 * time.Millisecond},
		virtual.NewDirectory(root), wire.Codec{}, w)
	w.Attach(m)
	ctx, stop := context.WithCancel(context.Background())
	defer stop()
	if err := m.Start(ctx); err != nil {
		t.Fatalf("start: %v", err)
	}
	defer m.Shutdown(context.Background())

	if ev := waitEvent(t, events, EventTerminal); ev.Terminal != "desk" {
		t.Fatalf("unexpected terminal event: %+v", ev)
	}

	// first contact opens a view
	onTag := []ndef.Record{&ndef.Text{Text: "hello", Locale: "en", Encoding: ndef.EncodingUTF8}}
	writeTag(t, dir, onTag)
	opened := waitEvent(t, events, EventDocumentOpened)
	if opened.Document.Name != "desk-1" {
		t.Fatalf("unexpected view name: %q", opened.Document.Name)
	}
	doc, err := w.Document(opened.Document.ID)
	if err != nil {
		t.Fatalf("document: %v", err)
	}
	if diff := cmp.Diff(onTag, doc.NdefRecords()); diff != "" {
		t.Fatalf("unexpected view content:\n%s", diff)
	}

	// with the view as write subscriber a blank tag gets formatted
	if err := w.SetAutoWrite(doc.ID()); err != nil {
		t.Fatalf("auto write: %v", err)
	}
	image := filepath.Join(dir, virtual.TagImageFile)
	if err := os.Remove(image); err != nil {
		t.Fatalf("remove tag: %v", err)
	}
	waitEvent(t, events, EventTagStatus)
	placeTag(t, dir, make([]byte, 16))
	for {
		ev := waitEvent(t, events, EventStatus)
		if ev.Status == monitor.StatusAutoWrite {
			break
		}
	}
	data, err := os.ReadFile(image)
	if err != nil {
		t.Fatalf("read tag: %v", err)
	}
	msg, formatted, err := virtual.ParseImage(data)
	if err != nil || !formatted {
		t.Fatalf("expected formatted tag, err=%v", err)
	}
	got, err := wire.Codec{}.Decode(msg)
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if diff := cmp.Diff(onTag, got); diff != "" {
		t.Fatalf("unexpected written content:\n%s", diff)
	}
}
