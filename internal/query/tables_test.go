package query

import "testing"

func TestSizeKeywordBands(t *testing.T) {
	r, ok := SizeKeyword("tiny")
	if !ok || *r.Min != 0 || *r.Max != 10*1024 {
		t.Fatalf("got %+v", r)
	}
	r, ok = SizeKeyword("gigantic")
	if !ok || r.Max != nil {
		t.Fatalf("got %+v", r)
	}
	if _, ok := SizeKeyword("nonsense"); ok {
		t.Fatal("expected unknown keyword to fail")
	}
}

func TestSizeUnitMultiplier(t *testing.T) {
	cases := map[string]uint64{"": 1, "b": 1, "k": 1024, "mb": 1024 * 1024, "gib": 1024 * 1024 * 1024}
	for unit, want := range cases {
		got, ok := SizeUnitMultiplier(unit)
		if !ok || got != want {
			t.Fatalf("unit %q: got %d, %v, want %d", unit, got, ok, want)
		}
	}
	if _, ok := SizeUnitMultiplier("furlongs"); ok {
		t.Fatal("expected unknown unit to fail")
	}
}

func TestLookupTypeGroup(t *testing.T) {
	target, ok := LookupTypeGroup("folder")
	if !ok || !target.IsNodeKind || !target.IsDir {
		t.Fatalf("got %+v", target)
	}
	target, ok = LookupTypeGroup("image")
	if !ok || target.IsNodeKind || len(target.Extensions) == 0 {
		t.Fatalf("got %+v", target)
	}
	if _, ok := LookupTypeGroup("nonsense"); ok {
		t.Fatal("expected unknown category to fail")
	}
}

func TestExtensionOf(t *testing.T) {
	ext, ok := ExtensionOf("report.TXT")
	if !ok || ext != "txt" {
		t.Fatalf("got %q, %v", ext, ok)
	}
	if _, ok := ExtensionOf("noext"); ok {
		t.Fatal("expected no extension")
	}
	if _, ok := ExtensionOf("trailing."); ok {
		t.Fatal("expected no extension for trailing dot")
	}
}

func TestLookupDateKeyword(t *testing.T) {
	spec, ok := LookupDateKeyword("PastWeek")
	if !ok || spec.Kind != DateKeywordTrailing || spec.TrailingDays != 7 {
		t.Fatalf("got %+v", spec)
	}
	if _, ok := LookupDateKeyword("nonsense"); ok {
		t.Fatal("expected unknown keyword to fail")
	}
}
