package query

// Optimize applies the deterministic, pure rewrites of spec §4.7:
// flatten nested And/Or of the same kind, drop Empty operands from
// And, collapse an Or with any Empty operand to Empty, and reorder And
// so every Filter term follows every non-filter term (stable within
// each partition).
func Optimize(q *Query) *Query {
	return &Query{Expr: optimizeExpr(q.Expr)}
}

func optimizeExpr(e Expr) Expr {
	switch v := e.(type) {
	case Not:
		return Not{Inner: optimizeExpr(v.Inner)}
	case And:
		return optimizeAnd(v)
	case Or:
		return optimizeOr(v)
	default:
		return e
	}
}

func optimizeAnd(a And) Expr {
	var flat []Expr
	for _, op := range a.Operands {
		opt := optimizeExpr(op)
		if nested, ok := opt.(And); ok {
			flat = append(flat, nested.Operands...)
			continue
		}
		flat = append(flat, opt)
	}

	var kept []Expr
	for _, op := range flat {
		if _, isEmpty := op.(Empty); isEmpty {
			continue
		}
		kept = append(kept, op)
	}
	if len(kept) == 0 {
		return Empty{}
	}

	var nonFilters, filters []Expr
	for _, op := range kept {
		if ft, isFilter := op.(FilterTerm); isFilter {
			filters = append(filters, ft)
			continue
		}
		nonFilters = append(nonFilters, op)
	}
	ordered := append(nonFilters, filters...)

	if len(ordered) == 1 {
		return ordered[0]
	}
	return And{Operands: ordered}
}

func optimizeOr(o Or) Expr {
	var flat []Expr
	for _, op := range o.Operands {
		opt := optimizeExpr(op)
		if nested, ok := opt.(Or); ok {
			flat = append(flat, nested.Operands...)
			continue
		}
		flat = append(flat, opt)
	}
	for _, op := range flat {
		if _, isEmpty := op.(Empty); isEmpty {
			return Empty{}
		}
	}
	if len(flat) == 1 {
		return flat[0]
	}
	return Or{Operands: flat}
}
