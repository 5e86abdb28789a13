package edit

import (
	"errors"
	"fmt"

	"github.com/danmuck/ndefsync/internal/model"
)

var ErrIndexOutOfRange = errors.New("edit: index out of range")

// Insert builds a command placing n at index among root's children.
func Insert(root model.ParentNode, index int, n model.Node) (*ReplaceCommand, error) {
	prev := root.Children()
	if index < 0 || index > len(prev) {
		return nil, fmt.Errorf("%w: insert at %d of %d", ErrIndexOutOfRange, index, len(prev))
	}
	next := make([]model.Node, 0, len(prev)+1)
	next = append(next, prev[:index]...)
	next = append(next, n)
	next = append(next, prev[index:]...)
	return Replace(root, prev, next), nil
}

func Remove(root model.ParentNode, index int) (*ReplaceCommand, error) {
	prev := root.Children()
	if index < 0 || index >= len(prev) {
		return nil, fmt.Errorf("%w: remove %d of %d", ErrIndexOutOfRange, index, len(prev))
	}
	next := make([]model.Node, 0, len(prev)-1)
	next = append(next, prev[:index]...)
	next = append(next, prev[index+1:]...)
	return Replace(root, prev, next), nil
}

// Move shifts the child at index by delta positions.
func Move(root model.ParentNode, index, delta int) (*ReplaceCommand, error) {
	prev := root.Children()
	to := index + delta
	if index < 0 || index >= len(prev) || to < 0 || to >= len(prev) {
		return nil, fmt.Errorf("%w: move %d by %d of %d", ErrIndexOutOfRange, index, delta, len(prev))
	}
	next := make([]model.Node, 0, len(prev))
	next = append(next, prev[:index]...)
	next = append(next, prev[index+1:]...)
	moved := prev[index]
	next = append(next[:to], append([]model.Node{moved}, next[to:]...)...)
	return Replace(root, prev, next), nil
}

func ReplaceAll(root model.ParentNode, next []model.Node) *ReplaceCommand {
	return Replace(root, root.Children(), next)
}
