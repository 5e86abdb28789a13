// Package document is an open, editable NDEF message.
//
// A Document pairs a model container with its undo stack and satisfies
// the monitor's read/write Subscriber contract. All access goes through
// its mutex, so hardware callbacks and editing calls can interleave.
package document

import (
	"errors"
	"fmt"
	"sync"

	"github.com/danmuck/ndefsync/internal/edit"
	"github.com/danmuck/ndefsync/internal/model"
	"github.com/danmuck/ndefsync/internal/ndef"
	"github.com/oklog/ulid/v2"
)

var ErrNotRecord = errors.New("document: node is not a record")

type Document struct {
	id        string
	name      string
	projector model.Projector

	mu       sync.Mutex
	root     *model.Container
	stack    *edit.Stack
	dirty    bool
	revision uint64
	onChange func(*Document)
}

// Info is a summary for listings.
type Info struct {
	ID       string `json:"id" yaml:"id"`
	Name     string `json:"name" yaml:"name"`
	Records  int    `json:"records" yaml:"records"`
	Dirty    bool   `json:"dirty" yaml:"dirty"`
	CanUndo  bool   `json:"can_undo" yaml:"can_undo"`
	CanRedo  bool   `json:"can_redo" yaml:"can_redo"`
	Revision uint64 `json:"revision" yaml:"revision"`
}

func New(name string, records []ndef.Record, projector model.Projector) *Document {
	return &Document{
		id:        ulid.Make().String(),
		name:      name,
		projector: projector,
		root:      projector.Represent(records),
		stack:     edit.NewStack(),
	}
}

func (d *Document) ID() string   { return d.id }
func (d *Document) Name() string { return d.name }

// OnChange registers a callback run after every content change, outside
// the document lock.
func (d *Document) OnChange(fn func(*Document)) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.onChange = fn
}

// SetNdefContent replaces the content with records as one undoable edit.
func (d *Document) SetNdefContent(records []ndef.Record) {
	next := d.projector.Represent(records).Children()
	d.apply(func() error {
		d.stack.Execute(edit.ReplaceAll(d.root, next))
		return nil
	})
}

// NdefRecords returns the current record sequence.
func (d *Document) NdefRecords() []ndef.Record {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.root.Records()
}

func (d *Document) Undo() error {
	return d.apply(d.stack.Undo)
}

func (d *Document) Redo() error {
	return d.apply(d.stack.Redo)
}

// Execute runs a prepared command against this document's tree.
func (d *Document) Execute(build func(root *model.Container) (edit.Command, error)) error {
	return d.apply(func() error {
		cmd, err := build(d.root)
		if err != nil {
			return err
		}
		d.stack.Execute(cmd)
		return nil
	})
}

func (d *Document) InsertRecord(index int, rec ndef.Record) error {
	node := d.projector.Project(rec)
	return d.Execute(func(root *model.Container) (edit.Command, error) {
		return edit.Insert(root, index, node)
	})
}

func (d *Document) RemoveRecord(index int) error {
	return d.Execute(func(root *model.Container) (edit.Command, error) {
		return edit.Remove(root, index)
	})
}

func (d *Document) MoveRecord(index, delta int) error {
	return d.Execute(func(root *model.Container) (edit.Command, error) {
		return edit.Move(root, index, delta)
	})
}

func (d *Document) Export() model.ExportNode {
	d.mu.Lock()
	defer d.mu.Unlock()
	return model.Export(d.root)
}

// MarkSaved clears the dirty flag.
func (d *Document) MarkSaved() {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.dirty = false
}

func (d *Document) Info() Info {
	d.mu.Lock()
	defer d.mu.Unlock()
	return Info{
		ID:       d.id,
		Name:     d.name,
		Records:  len(d.root.Children()),
		Dirty:    d.dirty,
		CanUndo:  d.stack.CanUndo(),
		CanRedo:  d.stack.CanRedo(),
		Revision: d.revision,
	}
}

func (d *Document) String() string {
	return fmt.Sprintf("%s(%s)", d.name, d.id)
}

func (d *Document) apply(fn func() error) error {
	d.mu.Lock()
	if err := fn(); err != nil {
		d.mu.Unlock()
		return err
	}
	d.dirty = true
	d.revision++
	cb := d.onChange
	d.mu.Unlock()
	if cb != nil {
		cb(d)
	}
	return nil
}
