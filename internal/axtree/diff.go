package axtree

import (
	"strings"

	"github.com/sergi/go-diff/diffmatchpatch"
)

// Diff computes a line-oriented structural diff between two canonical XML
// renderings (IDs stripped). Unchanged lines appear as context, removals
// with a "- " prefix and additions with a "+ ", in document order. The
// output feeds the changes analyzer, not a human pager.
func Diff(beforeXML, afterXML string) string {
	if beforeXML == afterXML {
		return ""
	}

	dmp := diffmatchpatch.New()
	a, b, lineArray := dmp.DiffLinesToChars(beforeXML, afterXML)
	diffs := dmp.DiffMain(a, b, false)
	diffs = dmp.DiffCharsToLines(diffs, lineArray)

	var out strings.Builder
	for _, d := range diffs {
		prefix := "  "
		switch d.Type {
		case diffmatchpatch.DiffDelete:
			prefix = "- "
		case diffmatchpatch.DiffInsert:
			prefix = "+ "
		}
		for _, line := range strings.Split(strings.TrimRight(d.Text, "\n"), "\n") {
			if strings.TrimSpace(line) == "" {
				continue
			}
			out.WriteString(prefix)
			out.WriteString(strings.TrimLeft(line, " "))
			out.WriteString("\n")
		}
	}
	return out.String()
}
