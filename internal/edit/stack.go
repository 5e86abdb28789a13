// Package edit holds undoable structural edits over a model tree.
//
// Ownership boundary:
// - the Replace command (whole child-sequence snapshots)
//
// - the undo/redo Stack
//
// - insert/remove/move/replace-all helpers built on Replace
//
// Like the tree itself, a Stack is used from one editing goroutine.
package edit

import (
	"errors"

	"github.com/danmuck/ndefsync/internal/model"
)

var (
	ErrNothingToUndo = errors.New("edit: nothing to undo")
	ErrNothingToRedo = errors.New("edit: nothing to redo")
)

// Command is one undoable edit.
type Command interface {
	Execute()
	Revoke()
}

// ReplaceCommand swaps a parent's whole child sequence.
type ReplaceCommand struct {
	root     model.ParentNode
	previous []model.Node
	next     []model.Node
}

// Replace snapshots both sequences; later changes to the caller's slices
// do not affect the command.
func Replace(root model.ParentNode, previous, next []model.Node) *ReplaceCommand {
	return &ReplaceCommand{
		root:     root,
		previous: append([]model.Node(nil), previous...),
		next:     append([]model.Node(nil), next...),
	}
}

func (c *ReplaceCommand) Execute() { c.root.SetChildren(c.next) }
func (c *ReplaceCommand) Revoke()  { c.root.SetChildren(c.previous) }

// Stack runs commands and keeps undo and redo history.
type Stack struct {
	undo []Command
	redo []Command
}

func NewStack() *Stack { return &Stack{} }

// Execute runs cmd and clears the redo history.
func (s *Stack) Execute(cmd Command) {
	cmd.Execute()
	s.undo = append(s.undo, cmd)
	s.redo = nil
}

func (s *Stack) Undo() error {
	if len(s.undo) == 0 {
		return ErrNothingToUndo
	}
	cmd := s.undo[len(s.undo)-1]
	s.undo = s.undo[:len(s.undo)-1]
	cmd.Revoke()
	s.redo = append(s.redo, cmd)
	return nil
}

func (s *Stack) Redo() error {
	if len(s.redo) == 0 {
		return ErrNothingToRedo
	}
	cmd := s.redo[len(s.redo)-1]
	s.redo = s.redo[:len(s.redo)-1]
	cmd.Execute()
	s.undo = append(s.undo, cmd)
	return nil
}

func (s *Stack) CanUndo() bool { return len(s.undo) > 0 }
func (s *Stack) CanRedo() bool { return len(s.redo) > 0 }

// Depth reports the undo and redo history sizes.
func (s *Stack) Depth() (undo, redo int) { return len(s.undo), len(s.redo) }

// Clear drops all history without touching the tree.
func (s *Stack) Clear() {
	s.undo = nil
	s.redo = nil
}
