package query

import (
	"fmt"
	"regexp"
	"strings"
)

var limitPattern = regexp.MustCompile(`(?i)\bLIMIT\s+\d+`)

// EnsureLimit appends "LIMIT n" to sql unless a numeric LIMIT clause is
// already present. The read path uses this before forwarding accepted
// statements so unbounded scans cannot flood the caller.
func EnsureLimit(sql string, n int) string {
	if limitPattern.MatchString(sql) {
		return sql
	}
	trimmed := strings.TrimSuffix(strings.TrimSpace(sql), ";")
	return fmt.Sprintf("%s LIMIT %d", trimmed, n)
}

// HasLimit reports whether sql already carries a numeric LIMIT clause.
func HasLimit(sql string) bool {
	return limitPattern.MatchString(sql)
}
