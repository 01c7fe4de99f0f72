package parser

// StatementKind classifies a top-level statement by its root node.
type StatementKind string

// StatementKind values. The set is closed: anything the parser does not
// recognize maps to KindOther.
const (
	KindSelect StatementKind = "SELECT"
	KindInsert StatementKind = "INSERT"
	KindUpdate StatementKind = "UPDATE"
	KindDelete StatementKind = "DELETE"
	KindCreate StatementKind = "CREATE"
	KindDrop   StatementKind = "DROP"
	KindAlter  StatementKind = "ALTER"
	KindOther  StatementKind = "OTHER"
)

// Classify returns the statement kind for a parsed statement. It inspects
// only the root node; the result is a pure function of the AST.
//
// A WITH ... SELECT statement parses to a *SelectStmt root and therefore
// classifies as SELECT. EXPLAIN and other dialect statements parse to
// *OtherStmt with KindOther.
func Classify(stmt Statement) StatementKind {
	switch s := stmt.(type) {
	case *SelectStmt:
		return KindSelect
	case *OtherStmt:
		return s.Kind
	default:
		return KindOther
	}
}
