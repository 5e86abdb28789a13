// Package model is the editable tree over decoded NDEF records.
//
// Ownership boundary:
// - node variants and parent/child links
//
// - positional parent index, recomputed on every query
//
// - projection of records into tree fragments (see Projector)
//
// - plain export of a tree for display and serialization
//
// Trees are confined to one editing goroutine and carry no locks.
package model

import (
	"errors"
	"fmt"

	"github.com/danmuck/ndefsync/internal/ndef"
)

// ErrInvariant marks a programming error in tree construction. It is only
// ever raised through panic.
var ErrInvariant = errors.New("model: invariant violation")

func violate(format string, args ...any) {
	panic(fmt.Errorf("%w: %s", ErrInvariant, fmt.Sprintf(format, args...)))
}

type NodeType int

const (
	NodeContainer NodeType = iota
	NodeRecord
	NodeProperty
	NodeParentProperty
	NodeRecordList
	NodePropertyList
	NodePropertyListItem
)

func (t NodeType) String() string {
	switch t {
	case NodeContainer:
		return "container"
	case NodeRecord:
		return "record"
	case NodeProperty:
		return "property"
	case NodeParentProperty:
		return "parent-property"
	case NodeRecordList:
		return "record-list"
	case NodePropertyList:
		return "property-list"
	case NodePropertyListItem:
		return "property-list-item"
	default:
		return fmt.Sprintf("NodeType(%d)", int(t))
	}
}

// Node is any tree node. Parent is nil for the root and for detached nodes.
type Node interface {
	Type() NodeType
	Parent() ParentNode
	setParent(ParentNode)
}

// ParentNode is a node that owns an ordered child sequence.
type ParentNode interface {
	Node
	Children() []Node
	SetChildren(children []Node)
	Add(child Node)
}

// ParentIndex is n's position among its siblings, or -1 when n has no
// parent or is not one of its parent's children.
func ParentIndex(n Node) int {
	p := n.Parent()
	if p == nil {
		return -1
	}
	for i, c := range p.Children() {
		if c == n {
			return i
		}
	}
	return -1
}

// RecordOf returns the record owning n: n itself when it is a RecordNode,
// otherwise the nearest RecordNode ancestor. Nil for the container.
func RecordOf(n Node) *RecordNode {
	for cur := n; cur != nil; {
		if r, ok := cur.(*RecordNode); ok {
			return r
		}
		p := cur.Parent()
		if p == nil {
			return nil
		}
		cur = p
	}
	return nil
}

type base struct {
	parent ParentNode
}

func (b *base) Parent() ParentNode     { return b.parent }
func (b *base) setParent(p ParentNode) { b.parent = p }

// children holds an owned sequence. The owner passes itself so re-parenting
// points at the outer node, not the embedded struct.
type children struct {
	nodes []Node
}

func (c *children) Children() []Node {
	return c.nodes
}

func (c *children) replace(owner ParentNode, next []Node) {
	for _, old := range c.nodes {
		if old.Parent() == owner {
			old.setParent(nil)
		}
	}
	c.nodes = append([]Node(nil), next...)
	for _, n := range c.nodes {
		n.setParent(owner)
	}
}

func (c *children) add(owner ParentNode, n Node) {
	if n == nil {
		violate("nil child added to %s", owner.Type())
	}
	n.setParent(owner)
	c.nodes = append(c.nodes, n)
}

// Container is the tree root holding top-level record nodes.
type Container struct {
	base
	children
}

func NewContainer() *Container { return &Container{} }

func (*Container) Type() NodeType             { return NodeContainer }
func (c *Container) SetChildren(next []Node) { c.replace(c, next) }
func (c *Container) Add(n Node)              { c.add(c, n) }

// Records returns the records of the top-level record nodes in order.
func (c *Container) Records() []ndef.Record {
	out := make([]ndef.Record, 0, len(c.nodes))
	for _, n := range c.nodes {
		if r, ok := n.(*RecordNode); ok {
			out = append(out, r.record)
		}
	}
	return out
}

// RecordNode wraps one record. Its children are fixed by the Projector.
type RecordNode struct {
	base
	children
	record ndef.Record
}

func (*RecordNode) Type() NodeType             { return NodeRecord }
func (r *RecordNode) SetChildren(next []Node) { r.replace(r, next) }
func (r *RecordNode) Add(n Node)              { r.add(r, n) }
func (r *RecordNode) Record() ndef.Record     { return r.record }
func (r *RecordNode) Kind() ndef.Kind         { return r.record.Kind() }

// Property is a labeled display value.
type Property struct {
	base
	Label string
	Value string
}

func (*Property) Type() NodeType { return NodeProperty }

// ParentProperty is a labeled slot holding at most one child.
type ParentProperty struct {
	base
	children
	Label string
}

func (*ParentProperty) Type() NodeType { return NodeParentProperty }

func (p *ParentProperty) SetChildren(next []Node) {
	if len(next) > 1 {
		violate("parent property %q given %d children", p.Label, len(next))
	}
	p.replace(p, next)
}

func (p *ParentProperty) Add(n Node) {
	if len(p.nodes) > 0 {
		violate("parent property %q already holds a child", p.Label)
	}
	p.add(p, n)
}

// Child returns the slot content, or nil when the slot is unset.
func (p *ParentProperty) Child() Node {
	if len(p.nodes) == 0 {
		return nil
	}
	return p.nodes[0]
}

// RecordList is a labeled group of zero or more record nodes.
type RecordList struct {
	base
	children
	Label string
}

func (*RecordList) Type() NodeType             { return NodeRecordList }
func (l *RecordList) SetChildren(next []Node) { l.replace(l, next) }
func (l *RecordList) Add(n Node)              { l.add(l, n) }

// PropertyList is a labeled repetition whose items are labeled from
// ItemFormat and their position.
type PropertyList struct {
	base
	children
	Label      string
	ItemFormat string
}

func (*PropertyList) Type() NodeType             { return NodePropertyList }
func (l *PropertyList) SetChildren(next []Node) { l.replace(l, next) }
func (l *PropertyList) Add(n Node)              { l.add(l, n) }

type PropertyListItem struct {
	base
	Value string
}

func (*PropertyListItem) Type() NodeType { return NodePropertyListItem }

// Label formats the owning list's template with the 1-based position.
func (i *PropertyListItem) Label() string {
	l, ok := i.parent.(*PropertyList)
	if !ok {
		return ""
	}
	return fmt.Sprintf(l.ItemFormat, ParentIndex(i)+1)
}
