package query

import (
	"regexp"
	"strings"
)

// kindPatterns are anchored, case-insensitive leading-keyword matchers. Each
// kind requires a distinct keyword so ordering does not affect the result,
// except that Select also matches a single WITH-binding prefix so CTE
// statements classify by their real statement keyword.
var kindPatterns = []struct {
	kind    StatementKind
	pattern *regexp.Regexp
}{
	{KindSelect, regexp.MustCompile(`(?is)^(WITH\s+.+?\s+)?SELECT\s`)},
	{KindShow, regexp.MustCompile(`(?i)^SHOW\s`)},
	{KindDescribe, regexp.MustCompile(`(?i)^DESC(RIBE)?\s`)},
	{KindUpdate, regexp.MustCompile(`(?i)^UPDATE\s`)},
	{KindDelete, regexp.MustCompile(`(?i)^DELETE\s`)},
	{KindInsert, regexp.MustCompile(`(?i)^INSERT\s`)},
	{KindCreate, regexp.MustCompile(`(?i)^CREATE\s`)},
	{KindDrop, regexp.MustCompile(`(?i)^DROP\s`)},
	{KindAlter, regexp.MustCompile(`(?i)^ALTER\s`)},
	{KindMerge, regexp.MustCompile(`(?i)^MERGE\s`)},
}

// Classify returns the statement kind of sql. Single-line comments are
// stripped before matching so a commented-out keyword never produces a false
// classification. Whitespace-only text classifies as KindUnknown.
func Classify(sql string) StatementKind {
	text := strings.TrimSpace(stripLineComments(sql))
	for _, p := range kindPatterns {
		if p.pattern.MatchString(text) {
			return p.kind
		}
	}
	return KindUnknown
}

// stripLineComments removes everything from "--" to end-of-line on every line.
// This runs before classification so a real keyword after a comment line is
// still found.
func stripLineComments(sql string) string {
	lines := strings.Split(sql, "\n")
	for i, line := range lines {
		if idx := strings.Index(line, "--"); idx >= 0 {
			lines[i] = line[:idx]
		}
	}
	return strings.Join(lines, "\n")
}
