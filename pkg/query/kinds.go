// Package query provides SQL statement classification, the read/write access
// gate, and the executor abstractions shared by the query toolkits.
package query

// StatementKind is the classified category of a SQL statement's leading
// keyword. The string form is the upper-case keyword and is rendered verbatim
// in rejection reasons.
type StatementKind string

// The closed set of statement kinds. KindUnknown is the fallback when no
// recognized leading keyword matches.
const (
	KindSelect   StatementKind = "SELECT"
	KindShow     StatementKind = "SHOW"
	KindDescribe StatementKind = "DESCRIBE"
	KindUpdate   StatementKind = "UPDATE"
	KindDelete   StatementKind = "DELETE"
	KindInsert   StatementKind = "INSERT"
	KindCreate   StatementKind = "CREATE"
	KindDrop     StatementKind = "DROP"
	KindAlter    StatementKind = "ALTER"
	KindMerge    StatementKind = "MERGE"
	KindUnknown  StatementKind = "UNKNOWN"
)

// readOnlyKinds and writeKinds form a disjoint partition of the classified
// kinds. KindUnknown belongs to neither set.
var readOnlyKinds = map[StatementKind]bool{
	KindSelect:   true,
	KindShow:     true,
	KindDescribe: true,
}

var writeKinds = map[StatementKind]bool{
	KindUpdate: true,
	KindDelete: true,
	KindInsert: true,
	KindCreate: true,
	KindDrop:   true,
	KindAlter:  true,
	KindMerge:  true,
}

// IsReadOnly reports whether kind is a read-only statement kind.
func IsReadOnly(kind StatementKind) bool {
	return readOnlyKinds[kind]
}

// IsWriteOperation reports whether kind modifies data or schema.
func IsWriteOperation(kind StatementKind) bool {
	return writeKinds[kind]
}
