package component

import "testing"

type fakeLeaf struct{ size int }

func (f fakeLeaf) Children() []Component               { return nil }
func (f fakeLeaf) GeneratedSize(*GenerationContext) int { return f.size }

func TestBoundsRecordsParsedRange(t *testing.T) {
	var b Bounds
	if b.Parsed() {
		t.Fatal("zero-value Bounds should report unparsed")
	}
	b.SetParsedBounds(10, 25)
	if !b.Parsed() || b.ParsedOffset() != 10 || b.ParsedLength() != 15 {
		t.Fatalf("got offset=%d length=%d parsed=%v", b.ParsedOffset(), b.ParsedLength(), b.Parsed())
	}
}

func TestChildrenSizeSumsChildren(t *testing.T) {
	children := []Component{fakeLeaf{size: 5}, fakeLeaf{size: 12}, fakeLeaf{size: 3}}
	got := ChildrenSize(DefaultGenerationContext(), children)
	if got != 20 {
		t.Fatalf("got %d, want 20", got)
	}
}

func TestDefaultContextsMatchRfc2822Defaults(t *testing.T) {
	gctx := DefaultGenerationContext()
	if gctx.MaxLineLength != 78 {
		t.Fatalf("MaxLineLength = %d, want 78", gctx.MaxLineLength)
	}
	if gctx.ParamValueMode != Rfc2231Only {
		t.Fatalf("ParamValueMode = %v, want Rfc2231Only", gctx.ParamValueMode)
	}
	pctx := DefaultParsingContext()
	if pctx.HeaderRecovery != SkipLine {
		t.Fatalf("HeaderRecovery = %v, want SkipLine", pctx.HeaderRecovery)
	}
}
