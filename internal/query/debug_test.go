package query

import "fmt"

// exprString gives a structural dump of an Expr tree for equality
// checks in tests (e.g. optimizer idempotence).
func exprString(e Expr) string {
	switch v := e.(type) {
	case Empty:
		return "Empty"
	case Word:
		return fmt.Sprintf("Word(%s)", v.Text)
	case Phrase:
		return fmt.Sprintf("Phrase(%s)", v.Text)
	case Regex:
		return fmt.Sprintf("Regex(%s)", v.Pattern)
	case FilterTerm:
		return fmt.Sprintf("Filter(%s)", v.Filter.String())
	case Not:
		return fmt.Sprintf("Not(%s)", exprString(v.Inner))
	case And:
		return fmt.Sprintf("And%v", exprList(v.Operands))
	case Or:
		return fmt.Sprintf("Or%v", exprList(v.Operands))
	default:
		return "?"
	}
}

func exprList(ops []Expr) []string {
	out := make([]string, len(ops))
	for i, op := range ops {
		out[i] = exprString(op)
	}
	return out
}
