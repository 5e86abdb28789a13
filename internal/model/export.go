package model

import (
	"fmt"
	"io"
	"strings"
)

// ExportNode is a plain copy of a tree for JSON and YAML output.
type ExportNode struct {
	Type     string       `json:"type" yaml:"type"`
	Label    string       `json:"label,omitempty" yaml:"label,omitempty"`
	Value    string       `json:"value,omitempty" yaml:"value,omitempty"`
	Kind     string       `json:"kind,omitempty" yaml:"kind,omitempty"`
	Detail   string       `json:"detail,omitempty" yaml:"detail,omitempty"`
	Children []ExportNode `json:"children,omitempty" yaml:"children,omitempty"`
}

func Export(n Node) ExportNode {
	out := ExportNode{Type: n.Type().String(), Detail: Describe(n)}
	switch node := n.(type) {
	case *RecordNode:
		out.Kind = node.Kind().String()
	case *Property:
		out.Label = node.Label
		out.Value = node.Value
	case *ParentProperty:
		out.Label = node.Label
	case *RecordList:
		out.Label = node.Label
	case *PropertyList:
		out.Label = node.Label
	case *PropertyListItem:
		out.Label = node.Label()
		out.Value = node.Value
	}
	if p, ok := n.(ParentNode); ok {
		for _, c := range p.Children() {
			out.Children = append(out.Children, Export(c))
		}
	}
	return out
}

// Fprint writes an indented text rendering of the tree.
func Fprint(w io.Writer, n Node) error {
	return fprint(w, Export(n), 0)
}

func fprint(w io.Writer, n ExportNode, depth int) error {
	var line string
	switch {
	case n.Kind != "":
		line = n.Kind
	case n.Type == NodeContainer.String():
		line = "Message"
	case n.Value != "":
		line = fmt.Sprintf("%s: %s", n.Label, n.Value)
	default:
		line = n.Label + ":"
	}
	if n.Detail != "" {
		line += " (" + n.Detail + ")"
	}
	if _, err := fmt.Fprintf(w, "%s%s\n", strings.Repeat("  ", depth), line); err != nil {
		return err
	}
	for _, c := range n.Children {
		if err := fprint(w, c, depth+1); err != nil {
			return err
		}
	}
	return nil
}
