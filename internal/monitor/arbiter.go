package monitor

import (
	"fmt"
	"strconv"

	"github.com/danmuck/ndefsync/internal/logs"
	"github.com/danmuck/ndefsync/internal/ndef"
	"github.com/danmuck/ndefsync/internal/observability"
	"github.com/danmuck/ndefsync/internal/terminal"
)

// Plan is the arbitration outcome for one tag-available event. Steps run
// in field order: Read, then Write, with OpenView taking the read result
// when no subscriber exists.
type Plan struct {
	Read     bool
	Write    bool
	OpenView bool
}

// Decide applies the arbitration policy. A subscriber registered for both
// read and write is only read.
func Decide(read, write Subscriber) Plan {
	switch {
	case read != nil && write != nil && read == write:
		return Plan{Read: true}
	case read != nil && write != nil:
		return Plan{Read: true, Write: true}
	case write != nil:
		return Plan{Write: true}
	case read != nil:
		return Plan{Read: true}
	default:
		return Plan{Read: true, OpenView: true}
	}
}

// Arbiter performs the tag reads and writes chosen by Decide.
type Arbiter struct {
	codec ndef.Codec
	host  Host
	views int
}

func NewArbiter(codec ndef.Codec, host Host) *Arbiter {
	return &Arbiter{codec: codec, host: host}
}

// OnTagAvailable runs one arbitration. Failures end up as status text and
// are never returned.
func (a *Arbiter) OnTagAvailable(terminalName string, ops terminal.TagOperations, read, write Subscriber) Plan {
	plan := Decide(read, write)
	logs.Debugf("monitor.Arbiter.OnTagAvailable terminal=%q read=%v write=%v open_view=%v",
		terminalName, plan.Read, plan.Write, plan.OpenView)

	if plan.Read {
		records, err := a.Read(ops)
		switch {
		case err != nil:
			logs.Warnf("monitor.Arbiter.read terminal=%q err=%v", terminalName, err)
			observability.RecordArbiterOperation("read", false)
			a.host.SetStatus(StatusAutoReadFailed)
		case plan.OpenView:
			observability.RecordArbiterOperation("read", true)
			// views are numbered from 1 for the life of the arbiter
			a.views++
			name := terminalName + "-" + strconv.Itoa(a.views)
			a.host.OpenView(name, records)
			observability.RecordArbiterOperation("open_view", true)
			a.host.SetStatus(StatusReadTag)
		default:
			observability.RecordArbiterOperation("read", true)
			read.SetNdefContent(records)
			a.host.SetStatus(StatusAutoRead)
		}
	}

	if plan.Write {
		if err := a.Write(ops, write.NdefRecords()); err != nil {
			logs.Warnf("monitor.Arbiter.write terminal=%q err=%v", terminalName, err)
			observability.RecordArbiterOperation("write", false)
			a.host.SetStatus(StatusAutoWriteFailed)
		} else {
			observability.RecordArbiterOperation("write", true)
			a.host.SetStatus(StatusAutoWrite)
		}
	}
	return plan
}

// Read decodes the tag content. An unformatted or empty tag reads as zero
// records.
func (a *Arbiter) Read(ops terminal.TagOperations) ([]ndef.Record, error) {
	if !ops.IsFormatted() || !ops.HasMessage() {
		return []ndef.Record{}, nil
	}
	msg, err := ops.ReadMessage()
	if err != nil {
		return nil, err
	}
	records, err := a.codec.Decode(msg)
	if err != nil {
		return nil, err
	}
	return records, nil
}

// Write encodes records and stores them, formatting a blank tag first.
func (a *Arbiter) Write(ops terminal.TagOperations, records []ndef.Record) error {
	msg, err := a.codec.Encode(records)
	if err != nil {
		return fmt.Errorf("monitor: encode: %w", err)
	}
	if limit := ops.MaxSize(); limit > 0 && len(msg) > limit {
		return fmt.Errorf("%w: %d bytes, tag holds %d", terminal.ErrCapacity, len(msg), limit)
	}
	if ops.IsFormatted() {
		return ops.WriteMessage(msg)
	}
	return ops.Format(msg)
}
