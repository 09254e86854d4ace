package axtree

import (
	"fmt"
	"strings"

	"github.com/sudoCommit/alumnium/pkg/types"
)

// Tree is a processed accessibility tree scoped to a single request. It is
// never cached across requests: opaque IDs are only stable within the
// request that produced them.
type Tree struct {
	roots []*Node

	opaqueToRaw map[int]any
	rawToOpaque map[string]int
}

// New parses raw platform tree text and assigns opaque IDs.
func New(platform types.Platform, raw string) (*Tree, error) {
	var (
		roots []*Node
		err   error
	)
	switch platform {
	case types.PlatformChromium:
		roots, err = parseChromium(raw)
	case types.PlatformXCUITest, types.PlatformUIAutomator2:
		roots, err = parseXML(platform, raw)
	default:
		err = fmt.Errorf("unknown platform: %q", platform)
	}
	if err != nil {
		return nil, err
	}

	var pruned []*Node
	for _, r := range roots {
		pruned = append(pruned, prune(r)...)
	}
	if len(pruned) == 0 {
		return nil, fmt.Errorf("accessibility tree has no semantic nodes")
	}
	for _, r := range pruned {
		sortAttrs(r)
	}

	t := &Tree{
		roots:       pruned,
		opaqueToRaw: make(map[int]any),
		rawToOpaque: make(map[string]int),
	}
	next := 1
	for _, r := range pruned {
		next = t.assign(r, next)
	}
	return t, nil
}

// assign walks in document order handing out dense opaque IDs from next.
func (t *Tree) assign(n *Node, next int) int {
	n.OpaqueID = next
	t.opaqueToRaw[next] = n.RawID
	t.rawToOpaque[rawKey(n.RawID)] = next
	next++
	for _, c := range n.Children {
		next = t.assign(c, next)
	}
	return next
}

func rawKey(raw any) string {
	return fmt.Sprint(raw)
}

// Render returns the canonical XML with id attributes. Rendering is
// deterministic: the same tree renders to byte-identical XML every time.
func (t *Tree) Render() string {
	return t.renderAll(true)
}

// RenderWithoutIDs returns the canonical XML with id attributes omitted,
// used by the diff engine so renumbering does not show up as a change.
func (t *Tree) RenderWithoutIDs() string {
	return t.renderAll(false)
}

func (t *Tree) renderAll(withIDs bool) string {
	var b strings.Builder
	for _, r := range t.roots {
		r.render(&b, 0, withIDs)
	}
	return b.String()
}

// RawID resolves an opaque ID to the driver-native identifier. An unknown
// opaque ID is a programming error on the caller's side.
func (t *Tree) RawID(opaqueID int) (any, error) {
	raw, ok := t.opaqueToRaw[opaqueID]
	if !ok {
		return nil, fmt.Errorf("unknown element id: %d", opaqueID)
	}
	return raw, nil
}

// find returns the node with the given opaque ID.
func (t *Tree) find(opaqueID int) *Node {
	var walk func(n *Node) *Node
	walk = func(n *Node) *Node {
		if n.OpaqueID == opaqueID {
			return n
		}
		for _, c := range n.Children {
			if found := walk(c); found != nil {
				return found
			}
		}
		return nil
	}
	for _, r := range t.roots {
		if found := walk(r); found != nil {
			return found
		}
	}
	return nil
}

// ScopeToArea returns a new tree rooted at the subtree containing the given
// node. The new tree gets its own dense opaque IDs.
func (t *Tree) ScopeToArea(opaqueID int) (*Tree, error) {
	n := t.find(opaqueID)
	if n == nil {
		return nil, fmt.Errorf("unknown element id: %d", opaqueID)
	}
	root := n.clone()

	scoped := &Tree{
		roots:       []*Node{root},
		opaqueToRaw: make(map[int]any),
		rawToOpaque: make(map[string]int),
	}
	scoped.assign(root, 1)
	return scoped, nil
}

// MapToolCallsToRawID rewrites id-typed argument fields from opaque IDs to
// raw driver IDs. A field is id-typed when its key is "id" or ends in "_id"
// and its value is an integer that resolves in the opaque map; everything
// else is left untouched.
func (t *Tree) MapToolCallsToRawID(actions []types.ToolCall) []types.ToolCall {
	mapped := make([]types.ToolCall, 0, len(actions))
	for _, action := range actions {
		out := types.ToolCall{Tool: action.Tool}
		if action.Args != nil {
			out.Args = make(map[string]any, len(action.Args))
			for key, value := range action.Args {
				if idTypedKey(key) {
					if opaque, ok := asOpaqueID(value); ok {
						if raw, found := t.opaqueToRaw[opaque]; found {
							out.Args[key] = raw
							continue
						}
					}
				}
				out.Args[key] = value
			}
		}
		mapped = append(mapped, out)
	}
	return mapped
}

func idTypedKey(key string) bool {
	return key == "id" || strings.HasSuffix(key, "_id")
}

// asOpaqueID reports whether value is an integral number usable as an
// opaque ID. JSON decoding hands numbers over as float64.
func asOpaqueID(value any) (int, bool) {
	switch v := value.(type) {
	case int:
		return v, true
	case int64:
		return int(v), true
	case float64:
		if v == float64(int(v)) {
			return int(v), true
		}
	}
	return 0, false
}
