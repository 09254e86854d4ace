// Package axtree turns raw platform accessibility trees into the canonical
// XML the agents consume, maintaining the mapping between the opaque IDs
// shown to the model and the raw IDs the driver understands. It also hosts
// the structural diff used by the changes analyzer.
package axtree

import (
	"fmt"
	"sort"
	"strings"
)

// Attr is a single named attribute on a tree node. Order is preserved from
// the source document so renderings are deterministic.
type Attr struct {
	Key   string
	Value string
}

// Node is one element of the parsed accessibility tree.
type Node struct {
	// Role is the element name in the canonical XML rendering.
	Role string
	// Attrs are the semantic attributes in source order.
	Attrs []Attr
	// RawID is the driver-native identifier (string or integer).
	RawID any
	// OpaqueID is assigned in document order starting at 1.
	OpaqueID int

	Children []*Node
}

// attr returns the value of the named attribute, or "".
func (n *Node) attr(key string) string {
	for _, a := range n.Attrs {
		if a.Key == key {
			return a.Value
		}
	}
	return ""
}

// setAttr replaces or appends an attribute.
func (n *Node) setAttr(key, value string) {
	for i, a := range n.Attrs {
		if a.Key == key {
			n.Attrs[i].Value = value
			return
		}
	}
	n.Attrs = append(n.Attrs, Attr{Key: key, Value: value})
}

// clone deep-copies the subtree rooted at n.
func (n *Node) clone() *Node {
	c := &Node{
		Role:  n.Role,
		Attrs: append([]Attr(nil), n.Attrs...),
		RawID: n.RawID,
	}
	for _, child := range n.Children {
		c.Children = append(c.Children, child.clone())
	}
	return c
}

// Attributes that mark a node as carrying information worth showing to the
// model. Values of "" and "false" do not count.
var semanticAttrs = map[string]bool{
	"name":         true,
	"value":        true,
	"label":        true,
	"text":         true,
	"title":        true,
	"placeholder":  true,
	"content-desc": true,
	"checked":      true,
	"selected":     true,
	"focused":      true,
	"disabled":     true,
	"expanded":     true,
	"clickable":    true,
	"url":          true,
	"href":         true,
}

// Roles that exist purely for layout and never reach the model on their own.
var decorativeRoles = map[string]bool{
	"none":             true,
	"generic":          true,
	"GenericContainer": true,
	"InlineTextBox":    true,
	"LineBreak":        true,
	"Ignored":          true,
}

func (n *Node) semantic() bool {
	if !decorativeRoles[n.Role] {
		return true
	}
	for _, a := range n.Attrs {
		if semanticAttrs[a.Key] && a.Value != "" && a.Value != "false" {
			return true
		}
	}
	return false
}

// prune drops nodes that carry no semantic information. Decorative leaves
// disappear; decorative containers are replaced by their pruned children.
func prune(n *Node) []*Node {
	var children []*Node
	for _, c := range n.Children {
		children = append(children, prune(c)...)
	}
	n.Children = children

	if n.semantic() {
		return []*Node{n}
	}
	return children
}

// sortAttrs orders attributes canonically: known identity attributes first,
// then the remainder in source order. Called once after parsing so repeated
// renderings are byte-identical.
var attrRank = map[string]int{"name": 0, "label": 1, "text": 2, "value": 3}

func sortAttrs(n *Node) {
	sort.SliceStable(n.Attrs, func(i, j int) bool {
		ri, iok := attrRank[n.Attrs[i].Key]
		rj, jok := attrRank[n.Attrs[j].Key]
		switch {
		case iok && jok:
			return ri < rj
		case iok:
			return true
		default:
			return false
		}
	})
	for _, c := range n.Children {
		sortAttrs(c)
	}
}

func escapeXML(s string) string {
	r := strings.NewReplacer(
		"&", "&amp;",
		"<", "&lt;",
		">", "&gt;",
		`"`, "&quot;",
	)
	return r.Replace(s)
}

// render writes the node as indented XML. When withIDs is false the id
// attribute is omitted so renumbering does not break structural equality.
func (n *Node) render(b *strings.Builder, depth int, withIDs bool) {
	indent := strings.Repeat("  ", depth)
	b.WriteString(indent)
	b.WriteString("<")
	b.WriteString(n.Role)
	for _, a := range n.Attrs {
		if a.Value == "" || a.Value == "false" {
			continue
		}
		fmt.Fprintf(b, " %s=%q", a.Key, escapeXML(a.Value))
	}
	if withIDs {
		fmt.Fprintf(b, " id=%q", fmt.Sprint(n.OpaqueID))
	}
	if len(n.Children) == 0 {
		b.WriteString(" />\n")
		return
	}
	b.WriteString(">\n")
	for _, c := range n.Children {
		c.render(b, depth+1, withIDs)
	}
	b.WriteString(indent)
	b.WriteString("</")
	b.WriteString(n.Role)
	b.WriteString(">\n")
}
