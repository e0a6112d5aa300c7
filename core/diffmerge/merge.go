package diffmerge

import "strings"

// replaceLengthRatio: a suggestion longer than this fraction of the
// current script is treated as a full rewrite.
const replaceLengthRatio = 0.8

// separator placed above appended suggestion code
const appendSeparator = "# --- applied suggestion ---"

// Merge decides between replacing the current script and appending the
// suggestion beneath a separator comment. A suggestion that opens with
// an import-style statement, or whose length exceeds 80% of the current
// script, replaces the script wholesale; anything else is appended.
// The heuristic is approximate: a short rewrite of an existing function
// gets appended instead of spliced in place.
func Merge(currentScript, suggestionCode string) string {
	trimmed := strings.TrimSpace(suggestionCode)
	if trimmed == "" {
		return currentScript
	}

	if startsWithImport(trimmed) || float64(len(suggestionCode)) > replaceLengthRatio*float64(len(currentScript)) {
		return suggestionCode
	}

	base := strings.TrimRight(currentScript, "\n")
	return base + "\n\n" + appendSeparator + "\n" + trimmed + "\n"
}

// startsWithImport reports whether the first non-empty line is an
// import-style statement
func startsWithImport(code string) bool {
	for _, line := range strings.Split(code, "\n") {
		line = strings.TrimSpace(line)
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		return strings.HasPrefix(line, "import ") || strings.HasPrefix(line, "from ")
	}
	return false
}
