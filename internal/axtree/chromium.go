package axtree

import (
	"fmt"

	"github.com/tidwall/gjson"
)

// parseChromium reads a CDP-style accessibility snapshot: an object with a
// "nodes" array (or a bare array of nodes), each node carrying nodeId,
// role.value, name.value, value.value, ignored, properties and childIds.
func parseChromium(raw string) ([]*Node, error) {
	if !gjson.Valid(raw) {
		return nil, fmt.Errorf("malformed chromium accessibility tree: invalid JSON")
	}
	doc := gjson.Parse(raw)

	nodes := doc.Get("nodes")
	if !nodes.Exists() && doc.IsArray() {
		nodes = doc
	}
	if !nodes.IsArray() {
		return nil, fmt.Errorf("malformed chromium accessibility tree: missing nodes array")
	}

	type cdpNode struct {
		node     *Node
		ignored  bool
		childIDs []string
	}

	byID := make(map[string]*cdpNode)
	var order []string

	nodes.ForEach(func(_, item gjson.Result) bool {
		id := item.Get("nodeId").String()
		if id == "" {
			id = item.Get("backendDOMNodeId").String()
		}
		if id == "" {
			return true
		}

		n := &Node{Role: "node"}
		if role := item.Get("role.value").String(); role != "" {
			n.Role = role
		}
		if name := item.Get("name.value").String(); name != "" {
			n.setAttr("name", name)
		}
		if value := item.Get("value.value").String(); value != "" {
			n.setAttr("value", value)
		}
		item.Get("properties").ForEach(func(_, prop gjson.Result) bool {
			key := prop.Get("name").String()
			val := prop.Get("value.value")
			if key != "" && val.Exists() {
				n.setAttr(key, val.String())
			}
			return true
		})

		// Raw ID prefers the AX node id; backendDOMNodeId is the
		// fallback for snapshots that do not number AX nodes.
		if nodeID := item.Get("nodeId"); nodeID.Type == gjson.Number {
			n.RawID = int(nodeID.Int())
		} else if nodeID.String() != "" {
			n.RawID = id
		} else {
			n.RawID = int(item.Get("backendDOMNodeId").Int())
		}

		entry := &cdpNode{node: n, ignored: item.Get("ignored").Bool()}
		item.Get("childIds").ForEach(func(_, child gjson.Result) bool {
			entry.childIDs = append(entry.childIDs, child.String())
			return true
		})

		byID[id] = entry
		order = append(order, id)
		return true
	})

	if len(order) == 0 {
		return nil, fmt.Errorf("malformed chromium accessibility tree: no nodes")
	}

	// Link children and find roots (nodes never referenced as a child).
	referenced := make(map[string]bool)
	for _, id := range order {
		entry := byID[id]
		for _, childID := range entry.childIDs {
			child, ok := byID[childID]
			if !ok {
				continue
			}
			referenced[childID] = true
			entry.node.Children = append(entry.node.Children, child.node)
		}
	}

	var roots []*Node
	for _, id := range order {
		if !referenced[id] {
			roots = append(roots, byID[id].node)
		}
	}

	// Ignored nodes dissolve into their children before pruning proper.
	var lift func(n *Node) []*Node
	lift = func(n *Node) []*Node {
		var children []*Node
		for _, c := range n.Children {
			children = append(children, lift(c)...)
		}
		n.Children = children
		if entry, ok := byID[rawKey(n.RawID)]; ok && entry.ignored {
			return children
		}
		return []*Node{n}
	}
	var lifted []*Node
	for _, r := range roots {
		lifted = append(lifted, lift(r)...)
	}
	return lifted, nil
}
