package query

import "testing"

func TestParseSimpleWord(t *testing.T) {
	q, err := Parse("hello")
	if err != nil {
		t.Fatal(err)
	}
	if w, ok := q.Expr.(Word); !ok || w.Text != "hello" {
		t.Fatalf("got %#v", q.Expr)
	}
}

func TestParseWhitespaceOnlyIsEmpty(t *testing.T) {
	q, err := Parse("   ")
	if err != nil {
		t.Fatal(err)
	}
	if _, ok := q.Expr.(Empty); !ok {
		t.Fatalf("got %#v", q.Expr)
	}
}

func TestParseAndOrPrecedence(t *testing.T) {
	// foo bar | baz qux -> And[Word(foo), Or[Word(bar), Word(baz)], Word(qux)]
	q, err := Parse("foo bar | baz qux")
	if err != nil {
		t.Fatal(err)
	}
	and, ok := q.Expr.(And)
	if !ok || len(and.Operands) != 3 {
		t.Fatalf("got %#v", q.Expr)
	}
	if w, ok := and.Operands[0].(Word); !ok || w.Text != "foo" {
		t.Fatalf("operand 0: got %#v", and.Operands[0])
	}
	or, ok := and.Operands[1].(Or)
	if !ok || len(or.Operands) != 2 {
		t.Fatalf("operand 1: got %#v", and.Operands[1])
	}
	if w, ok := or.Operands[0].(Word); !ok || w.Text != "bar" {
		t.Fatalf("or operand 0: got %#v", or.Operands[0])
	}
	if w, ok := or.Operands[1].(Word); !ok || w.Text != "baz" {
		t.Fatalf("or operand 1: got %#v", or.Operands[1])
	}
	if w, ok := and.Operands[2].(Word); !ok || w.Text != "qux" {
		t.Fatalf("operand 2: got %#v", and.Operands[2])
	}
}

func TestParseFilter(t *testing.T) {
	q, err := Parse("ext:txt")
	if err != nil {
		t.Fatal(err)
	}
	ft, ok := q.Expr.(FilterTerm)
	if !ok || ft.Filter.Kind != KindExt || ft.Filter.Argument == nil || ft.Filter.Argument.Raw != "txt" {
		t.Fatalf("got %#v", q.Expr)
	}
}

func TestParseFilterReorderScenario(t *testing.T) {
	q, err := Parse("ext:txt size:>1mb report")
	if err != nil {
		t.Fatal(err)
	}
	opt := Optimize(q)
	and, ok := opt.Expr.(And)
	if !ok || len(and.Operands) != 3 {
		t.Fatalf("got %#v", opt.Expr)
	}
	if w, ok := and.Operands[0].(Word); !ok || w.Text != "report" {
		t.Fatalf("operand 0: got %#v", and.Operands[0])
	}
	f1, ok := and.Operands[1].(FilterTerm)
	if !ok || f1.Filter.Kind != KindExt {
		t.Fatalf("operand 1: got %#v", and.Operands[1])
	}
	f2, ok := and.Operands[2].(FilterTerm)
	if !ok || f2.Filter.Kind != KindSize {
		t.Fatalf("operand 2: got %#v", and.Operands[2])
	}
}

func TestParsePhrase(t *testing.T) {
	q, err := Parse(`"hello world"`)
	if err != nil {
		t.Fatal(err)
	}
	if p, ok := q.Expr.(Phrase); !ok || p.Text != "hello world" {
		t.Fatalf("got %#v", q.Expr)
	}
}

func TestParseUnterminatedPhrase(t *testing.T) {
	if _, err := Parse(`"hello`); err == nil {
		t.Fatal("expected an error")
	}
}

func TestParseNot(t *testing.T) {
	q, err := Parse("!foo")
	if err != nil {
		t.Fatal(err)
	}
	n, ok := q.Expr.(Not)
	if !ok {
		t.Fatalf("got %#v", q.Expr)
	}
	if w, ok := n.Inner.(Word); !ok || w.Text != "foo" {
		t.Fatalf("got %#v", n.Inner)
	}
}

func TestParseDoubleNotCollapses(t *testing.T) {
	q, err := Parse("NOT NOT foo")
	if err != nil {
		t.Fatal(err)
	}
	if w, ok := q.Expr.(Word); !ok || w.Text != "foo" {
		t.Fatalf("got %#v", q.Expr)
	}
}

func TestParseGroup(t *testing.T) {
	q, err := Parse("(foo | bar) baz")
	if err != nil {
		t.Fatal(err)
	}
	and, ok := q.Expr.(And)
	if !ok || len(and.Operands) != 2 {
		t.Fatalf("got %#v", q.Expr)
	}
	if _, ok := and.Operands[0].(Or); !ok {
		t.Fatalf("operand 0: got %#v", and.Operands[0])
	}
}

func TestParseUnmatchedGroupFails(t *testing.T) {
	if _, err := Parse("(foo bar"); err == nil {
		t.Fatal("expected an error")
	}
}

func TestParseRegex(t *testing.T) {
	q, err := Parse("regex:^foo.*bar$")
	if err != nil {
		t.Fatal(err)
	}
	re, ok := q.Expr.(Regex)
	if !ok || re.Pattern != "^foo.*bar$" {
		t.Fatalf("got %#v", q.Expr)
	}
}

func TestParseLeadingAndKeywordKeepsEmptyOperand(t *testing.T) {
	q, err := Parse("AND foo")
	if err != nil {
		t.Fatal(err)
	}
	and, ok := q.Expr.(And)
	if !ok || len(and.Operands) != 2 {
		t.Fatalf("got %#v", q.Expr)
	}
	if _, ok := and.Operands[0].(Empty); !ok {
		t.Fatalf("operand 0: got %#v", and.Operands[0])
	}
	if w, ok := and.Operands[1].(Word); !ok || w.Text != "foo" {
		t.Fatalf("operand 1: got %#v", and.Operands[1])
	}
}

func TestParseTrailingAndKeywordKeepsEmptyOperand(t *testing.T) {
	q, err := Parse("foo AND")
	if err != nil {
		t.Fatal(err)
	}
	and, ok := q.Expr.(And)
	if !ok || len(and.Operands) != 2 {
		t.Fatalf("got %#v", q.Expr)
	}
	if w, ok := and.Operands[0].(Word); !ok || w.Text != "foo" {
		t.Fatalf("operand 0: got %#v", and.Operands[0])
	}
	if _, ok := and.Operands[1].(Empty); !ok {
		t.Fatalf("operand 1: got %#v", and.Operands[1])
	}
}

func TestParseExplicitAndKeywordJoinsOperands(t *testing.T) {
	q, err := Parse("foo AND bar")
	if err != nil {
		t.Fatal(err)
	}
	and, ok := q.Expr.(And)
	if !ok || len(and.Operands) != 2 {
		t.Fatalf("got %#v", q.Expr)
	}
	if w, ok := and.Operands[0].(Word); !ok || w.Text != "foo" {
		t.Fatalf("operand 0: got %#v", and.Operands[0])
	}
	if w, ok := and.Operands[1].(Word); !ok || w.Text != "bar" {
		t.Fatalf("operand 1: got %#v", and.Operands[1])
	}
}

func TestParseUnknownFilterBecomesCustom(t *testing.T) {
	q, err := Parse("bogusfilter:value")
	if err != nil {
		t.Fatal(err)
	}
	ft, ok := q.Expr.(FilterTerm)
	if !ok || ft.Filter.Kind != KindCustom || ft.Filter.CustomName != "bogusfilter" {
		t.Fatalf("got %#v", q.Expr)
	}
}
