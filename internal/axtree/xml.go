package axtree

import (
	"encoding/xml"
	"fmt"
	"strconv"
	"strings"

	"github.com/sudoCommit/alumnium/pkg/types"
)

// xmlNode mirrors an arbitrary XML element, keeping attribute and child
// order from the document.
type xmlNode struct {
	XMLName  xml.Name
	Attrs    []xml.Attr `xml:",any,attr"`
	Children []xmlNode  `xml:",any"`
}

// Attributes tried, in order, as a driver-native identifier. uiautomator2
// exposes resource-id; xcuitest trees exported with unique identifiers use
// uid. When none is present (or not unique) the raw ID is the node's
// document-order path.
var rawIDAttrs = map[types.Platform][]string{
	types.PlatformXCUITest:     {"uid", "id"},
	types.PlatformUIAutomator2: {"uid", "id", "resource-id"},
}

// Geometry and bookkeeping attributes dropped from the model rendering.
var droppedXMLAttrs = map[string]bool{
	"x":        true,
	"y":        true,
	"width":    true,
	"height":   true,
	"index":    true,
	"instance": true,
	"package":  true,
	"class":    true, // promoted to the element role
}

// parseXML reads xcuitest / uiautomator2 accessibility XML.
func parseXML(platform types.Platform, raw string) ([]*Node, error) {
	var root xmlNode
	if err := xml.Unmarshal([]byte(strings.TrimSpace(raw)), &root); err != nil {
		return nil, fmt.Errorf("malformed %s accessibility tree: %w", platform, err)
	}

	used := make(map[string]bool)
	node := convertXMLNode(platform, &root, "0", used)
	return []*Node{node}, nil
}

func convertXMLNode(platform types.Platform, x *xmlNode, path string, used map[string]bool) *Node {
	n := &Node{Role: xmlRole(platform, x)}

	for _, a := range x.Attrs {
		if droppedXMLAttrs[a.Name.Local] {
			continue
		}
		n.Attrs = append(n.Attrs, Attr{Key: a.Name.Local, Value: a.Value})
	}

	n.RawID = xmlRawID(platform, x, path, used)

	for i := range x.Children {
		child := convertXMLNode(platform, &x.Children[i], path+"."+strconv.Itoa(i), used)
		n.Children = append(n.Children, child)
	}
	return n
}

// xmlRole picks the element name for the canonical rendering. uiautomator2
// wraps everything in <node class="android.widget.Button">; the class leaf
// name reads better than "node".
func xmlRole(platform types.Platform, x *xmlNode) string {
	role := x.XMLName.Local
	if platform == types.PlatformUIAutomator2 && role == "node" {
		for _, a := range x.Attrs {
			if a.Name.Local == "class" && a.Value != "" {
				if dot := strings.LastIndex(a.Value, "."); dot >= 0 {
					return a.Value[dot+1:]
				}
				return a.Value
			}
		}
	}
	if role == "" {
		role = "node"
	}
	return role
}

// xmlRawID returns the first unique explicit identifier attribute, falling
// back to the document-order path.
func xmlRawID(platform types.Platform, x *xmlNode, path string, used map[string]bool) any {
	for _, key := range rawIDAttrs[platform] {
		for _, a := range x.Attrs {
			if a.Name.Local == key && a.Value != "" && !used[a.Value] {
				used[a.Value] = true
				return a.Value
			}
		}
	}
	used[path] = true
	return path
}
