// Package diffmerge computes line-level diffs between two script texts
// and merges AI suggestions into a new script revision.
//
// The diff is positional, not an LCS diff: lines at the same index are
// compared directly, so a moved block shows up as a remove/add pair at
// every shifted index. Downstream consumers render this exact shape, so
// the behavior is kept as-is rather than replaced with a smarter
// algorithm.
package diffmerge

import "strings"

// DiffKind classifies a diff line
type DiffKind string

const (
	DiffContext DiffKind = "context"
	DiffAdd     DiffKind = "add"
	DiffRemove  DiffKind = "remove"
)

// DiffLine is one entry of a positional diff
type DiffLine struct {
	Kind  DiffKind `json:"kind"`
	Index int      `json:"index"` // 0-based line index the comparison happened at
	Text  string   `json:"text"`
}

// Diff compares two scripts line by line at matching indexes. Equal
// lines emit context; unequal lines emit a remove of the original
// followed by an add of the modified line; lines present only in the
// longer side emit add or remove accordingly.
func Diff(original, modified string) []DiffLine {
	a := splitLines(original)
	b := splitLines(modified)

	n := len(a)
	if len(b) > n {
		n = len(b)
	}

	var out []DiffLine
	for i := 0; i < n; i++ {
		switch {
		case i < len(a) && i < len(b):
			if a[i] == b[i] {
				out = append(out, DiffLine{Kind: DiffContext, Index: i, Text: a[i]})
			} else {
				out = append(out, DiffLine{Kind: DiffRemove, Index: i, Text: a[i]})
				out = append(out, DiffLine{Kind: DiffAdd, Index: i, Text: b[i]})
			}
		case i < len(a):
			out = append(out, DiffLine{Kind: DiffRemove, Index: i, Text: a[i]})
		default:
			out = append(out, DiffLine{Kind: DiffAdd, Index: i, Text: b[i]})
		}
	}
	return out
}

// splitLines splits a script into lines, treating the empty string as
// zero lines rather than one empty line
func splitLines(s string) []string {
	if s == "" {
		return nil
	}
	return strings.Split(s, "\n")
}
