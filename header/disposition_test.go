package header

import "testing"

func TestDispositionParse(t *testing.T) {
	d := &Disposition{}
	buf := []byte("manual-action/MDN-sent-manually; displayed")
	d.ParseValue(nil, buf, 0, len(buf))
	if d.ActionMode != "manual-action" || d.SendingMode != "mdn-sent-manually" {
		t.Fatalf("got %+v", d)
	}
	if d.Type != "displayed" {
		t.Fatalf("type = %q", d.Type)
	}
}

func TestDispositionWithModifier(t *testing.T) {
	d := &Disposition{}
	buf := []byte("automatic-action/MDN-sent-automatically; processed/error")
	d.ParseValue(nil, buf, 0, len(buf))
	if d.Type != "processed" || len(d.Modifiers) != 1 || d.Modifiers[0] != "error" {
		t.Fatalf("got %+v", d)
	}
}
