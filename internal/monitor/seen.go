package monitor

import "sync/atomic"

// SeenStore remembers whether any reader has ever been observed.
type SeenStore interface {
	Seen() bool
	MarkSeen()
}

// MemorySeen is a process-lifetime SeenStore.
type MemorySeen struct {
	seen atomic.Bool
}

func NewMemorySeen(initial bool) *MemorySeen {
	s := &MemorySeen{}
	s.seen.Store(initial)
	return s
}

func (s *MemorySeen) Seen() bool { return s.seen.Load() }
func (s *MemorySeen) MarkSeen()  { s.seen.Store(true) }
