package query

import (
	"fmt"
	"regexp"
	"strings"
)

// AccessPolicy decides whether write statements are permitted. The zero value
// is read-only. A policy is fixed at Gate construction; a different policy
// requires a new Gate.
type AccessPolicy struct {
	AllowWrites bool
}

// Outcome is the result of validating one SQL text. Outcomes are produced
// fresh on every call and never persisted.
type Outcome struct {
	Accepted bool
	Kind     StatementKind
	Reason   string
}

// Gate accepts or rejects SQL statements under an access policy. Gates hold
// no mutable state and are safe for concurrent use.
type Gate struct {
	policy AccessPolicy
}

// NewGate creates a gate enforcing the given policy.
func NewGate(policy AccessPolicy) *Gate {
	return &Gate{policy: policy}
}

// Policy returns the gate's access policy.
func (g *Gate) Policy() AccessPolicy {
	return g.policy
}

var (
	withPrefixPattern = regexp.MustCompile(`(?i)^WITH\s`)
	cteOpenPattern    = regexp.MustCompile(`(?i)WITH\s+\w+\s+AS\s*\(`)
	cteWritePattern   = regexp.MustCompile(`(?i)\b(UPDATE|DELETE|INSERT|CREATE|DROP|ALTER|MERGE)\s`)
)

// Validate classifies sql and decides whether it is permitted under the
// gate's policy. Rejections carry a caller-facing reason; the Gate never
// retries (classification is deterministic).
//
// A statement matching no pattern classifies as KindUnknown and is accepted:
// the gate polices known write risk, not SQL well-formedness, and the backend
// engine rejects invalid SQL with a better message.
func (g *Gate) Validate(sql string) Outcome {
	if sql == "" {
		return Outcome{Kind: KindUnknown, Reason: "Query must be a non-empty string"}
	}

	kind := Classify(sql)

	if !g.policy.AllowWrites && IsWriteOperation(kind) {
		return Outcome{
			Kind: kind,
			Reason: fmt.Sprintf("%s operations are not allowed. "+
				"Set enable_updates=true to allow write operations.", kind),
		}
	}

	// The CTE scan guards read-only mode specifically: with writes enabled a
	// smuggled write is no worse than a direct one, so the scan is skipped.
	if kind == KindSelect && !g.policy.AllowWrites {
		text := strings.TrimSpace(stripLineComments(sql))
		if withPrefixPattern.MatchString(text) && cteBodyContainsWrite(text) {
			return Outcome{
				Kind:   kind,
				Reason: "WITH clauses containing write operations are not allowed in read-only mode",
			}
		}
	}

	return Outcome{Accepted: true, Kind: kind}
}

// cteBodyContainsWrite extracts the body of the first "WITH <name> AS (...)"
// binding by scanning with a parenthesis depth counter, then reports whether
// a write keyword appears anywhere inside it. Only the first binding is
// inspected. An unterminated body yields no match: malformed SQL is left to
// the backend rather than guessed at here.
func cteBodyContainsWrite(sql string) bool {
	loc := cteOpenPattern.FindStringIndex(sql)
	if loc == nil {
		return false
	}

	depth := 0
	for i := loc[1]; i < len(sql); i++ {
		switch sql[i] {
		case '(':
			depth++
		case ')':
			if depth == 0 {
				return cteWritePattern.MatchString(sql[loc[1]:i])
			}
			depth--
		}
	}
	return false
}
