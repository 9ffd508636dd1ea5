package charset

import "testing"

func TestCharsetEqualsCaseInsensitive(t *testing.T) {
	if !New("UTF-8").Equals(New("utf-8")) {
		t.Fatal("charset equality should be case-insensitive")
	}
}

func TestNormalizeAliases(t *testing.T) {
	cases := map[string]string{
		"windows-1252":    "cp1252",
		"x-windows-949":   "cp949",
		"IBM437":          "cp437",
		"KS_C_5601-1987":  "cp949",
		"x-euc-tw":        "euc-tw",
		"ISO-8859-8-I":    "iso-8859-8",
	}
	for in, want := range cases {
		if got := Normalize(in); got != want {
			t.Errorf("Normalize(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestRecommendedEncoding(t *testing.T) {
	if _, ok := ASCII.RecommendedEncoding(); ok {
		t.Fatal("ascii should not recommend a transfer encoding")
	}
	if enc, ok := UTF8.RecommendedEncoding(); !ok || enc != "quoted-printable" {
		t.Fatalf("utf-8 should recommend quoted-printable, got %q, %v", enc, ok)
	}
	if enc, ok := New("iso-2022-jp").RecommendedEncoding(); !ok || enc != "base64" {
		t.Fatalf("other charsets should recommend base64, got %q, %v", enc, ok)
	}
}
