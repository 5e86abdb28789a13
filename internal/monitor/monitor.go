package monitor

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/danmuck/ndefsync/internal/logs"
	"github.com/danmuck/ndefsync/internal/ndef"
	"github.com/danmuck/ndefsync/internal/observability"
	"github.com/danmuck/ndefsync/internal/terminal"
)

var ErrAlreadyRunning = errors.New("monitor: poll loop already running")

// Monitor owns the active terminal. Construct one per process and pass it
// to whatever needs it.
type Monitor struct {
	cfg     Config
	enum    terminal.Enumerator
	host    Host
	arbiter *Arbiter

	mu     sync.Mutex
	active terminal.Terminal
	// gen identifies the adapter handler currently allowed to report.
	gen     uint64
	ops     terminal.TagOperations
	status  terminal.Status
	read    Subscriber
	write   Subscriber
	stopped bool
	quit    chan struct{}
	done    chan struct{}
}

func New(cfg Config, enum terminal.Enumerator, codec ndef.Codec, host Host) *Monitor {
	return &Monitor{
		cfg:     cfg.WithDefaults(),
		enum:    enum,
		host:    host,
		arbiter: NewArbiter(codec, host),
		status:  terminal.StatusDisconnected,
		quit:    make(chan struct{}),
	}
}

// State is a point-in-time view of the monitor.
type State struct {
	Terminal        string
	Status          terminal.Status
	TagPresent      bool
	ReadSubscribed  bool
	WriteSubscribed bool
	ReaderSeen      bool
	PollInterval    time.Duration
	Stopped         bool
}

func (m *Monitor) State() State {
	m.mu.Lock()
	defer m.mu.Unlock()
	st := State{
		Status:          m.status,
		TagPresent:      m.ops != nil,
		ReadSubscribed:  m.read != nil,
		WriteSubscribed: m.write != nil,
		ReaderSeen:      m.cfg.Seen.Seen(),
		PollInterval:    m.PollInterval(),
		Stopped:         m.stopped,
	}
	if m.active != nil {
		st.Terminal = m.active.Name()
	}
	return st
}

// PollInterval is the wait between detection cycles.
func (m *Monitor) PollInterval() time.Duration {
	if m.cfg.Seen.Seen() {
		return m.cfg.PollInterval
	}
	return m.cfg.IdleInterval
}

// SetReadSubscriber registers s for auto-read; nil clears it.
func (m *Monitor) SetReadSubscriber(s Subscriber) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.read = s
}

// SetWriteSubscriber registers s for auto-write; nil clears it.
func (m *Monitor) SetWriteSubscriber(s Subscriber) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.write = s
}

// Subscribers returns the current registrations.
func (m *Monitor) Subscribers() (read, write Subscriber) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.read, m.write
}

// ReleaseSubscriber clears every registration held by s.
func (m *Monitor) ReleaseSubscriber(s Subscriber) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.read == s {
		m.read = nil
	}
	if m.write == s {
		m.write = nil
	}
}

// Detect switches the active terminal to whatever the enumerator reports
// and returns whether it changed.
func (m *Monitor) Detect() (bool, error) {
	t, err := m.enum.Available()
	if err != nil {
		return false, err
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	if m.stopped || t == m.active {
		return false, nil
	}

	m.stopActiveLocked()
	if t != nil {
		m.cfg.Seen.MarkSeen()
		m.startLocked(t)
	}
	name := ""
	if m.active != nil {
		name = m.active.Name()
	}
	observability.RecordTerminalChange()
	logs.Infof("monitor.Monitor.Detect terminal=%q", name)
	m.host.TerminalChanged(name)
	return true, nil
}

func (m *Monitor) startLocked(t terminal.Terminal) {
	m.gen++
	h := &adapterHandler{m: m, gen: m.gen}
	if err := t.Connect(h); err != nil {
		logs.Warnf("monitor.Monitor.start terminal=%q err=%v", t.Name(), err)
		m.gen++
		return
	}
	m.active = t
}

func (m *Monitor) stopActiveLocked() {
	if m.active == nil {
		return
	}
	m.gen++
	if err := m.active.Disconnect(); err != nil {
		logs.Warnf("monitor.Monitor.stop terminal=%q err=%v", m.active.Name(), err)
	}
	m.active = nil
	m.setStatusLocked(terminal.StatusDisconnected)
}

func (m *Monitor) setStatusLocked(s terminal.Status) {
	if s == m.status {
		return
	}
	m.status = s
	if s == terminal.StatusDisconnected {
		m.ops = nil
	}
	observability.RecordTagStatus(s.String())
	logs.Debugf("monitor.Monitor.status status=%s", s)
	m.host.TagStatusChanged(s)
	switch s {
	case terminal.StatusConnected:
		m.host.SetStatus(StatusTagConnected)
	case terminal.StatusDisconnected:
		m.host.SetStatus(StatusTagDisconnected)
	}
}

// Run polls until ctx is done or Shutdown is called. Enumeration errors
// are logged and retried on the next cycle. The active adapter is always
// released on return.
func (m *Monitor) Run(ctx context.Context) error {
	defer m.release()
	for {
		select {
		case <-ctx.Done():
			return nil
		case <-m.quit:
			return nil
		default:
		}

		_, err := m.Detect()
		observability.RecordPoll(err != nil)
		if err != nil {
			logs.Debugf("monitor.Monitor.Run enumerate failed err=%v", err)
		}

		timer := time.NewTimer(m.PollInterval())
		select {
		case <-ctx.Done():
			timer.Stop()
			return nil
		case <-m.quit:
			timer.Stop()
			return nil
		case <-timer.C:
		}
	}
}

// Start runs the poll loop on its own goroutine.
func (m *Monitor) Start(ctx context.Context) error {
	m.mu.Lock()
	if m.done != nil {
		m.mu.Unlock()
		return ErrAlreadyRunning
	}
	done := make(chan struct{})
	m.done = done
	m.mu.Unlock()

	go func() {
		defer close(done)
		if err := m.Run(ctx); err != nil {
			logs.Errf("monitor.Monitor.Start run err=%v", err)
		}
	}()
	return nil
}

// Shutdown stops the loop, releases the active adapter and waits for a
// loop started with Start to exit or for ctx to end.
func (m *Monitor) Shutdown(ctx context.Context) error {
	m.mu.Lock()
	if !m.stopped {
		m.stopped = true
		close(m.quit)
	}
	hadTerminal := m.active != nil
	m.stopActiveLocked()
	if hadTerminal {
		m.host.TerminalChanged("")
	}
	done := m.done
	m.mu.Unlock()
	logs.Infof("monitor.Monitor.Shutdown")

	if done == nil {
		return nil
	}
	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (m *Monitor) release() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.stopActiveLocked()
}

func (m *Monitor) onTagAvailable(gen uint64, ops terminal.TagOperations) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if gen != m.gen {
		return
	}
	m.ops = ops
	name := ""
	if m.active != nil {
		name = m.active.Name()
	}
	m.arbiter.OnTagAvailable(name, ops, m.read, m.write)
}

func (m *Monitor) onStatus(gen uint64, s terminal.Status) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if gen != m.gen {
		return
	}
	m.setStatusLocked(s)
}

func (m *Monitor) onUnsupported(gen uint64, tagType string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if gen != m.gen {
		return
	}
	m.host.SetStatus(unsupportedTagStatus(tagType))
}

// adapterHandler binds adapter callbacks to one Connect call.
type adapterHandler struct {
	m   *Monitor
	gen uint64
}

func (h *adapterHandler) TagAvailable(ops terminal.TagOperations) { h.m.onTagAvailable(h.gen, ops) }
func (h *adapterHandler) StatusChanged(s terminal.Status)        { h.m.onStatus(h.gen, s) }
func (h *adapterHandler) UnsupportedTag(tagType string)          { h.m.onUnsupported(h.gen, tagType) }
