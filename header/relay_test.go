package header

import (
	"testing"

	"github.com/kisli/vmime-sub006/component"
)

func TestRelayParseBasic(t *testing.T) {
	r := &Relay{}
	raw := "from mail.example.com (localhost [127.0.0.1])\r\n\tby smtp.example.com with ESMTP id abc123;\r\n\tFri, 21 Nov 1997 09:55:06 -0600"
	buf := []byte(raw)
	r.ParseValue(component.DefaultParsingContext(), buf, 0, len(buf))

	if len(r.Tokens["from"]) != 1 {
		t.Fatalf("from tokens = %v", r.Tokens["from"])
	}
	if len(r.Tokens["by"]) != 1 || r.Tokens["by"][0] != "smtp.example.com" {
		t.Fatalf("by tokens = %v", r.Tokens["by"])
	}
	if !r.hasDate || r.Date.When.Year() != 1997 {
		t.Fatalf("date = %+v hasDate=%v", r.Date.When, r.hasDate)
	}
}

func TestRelayCommentPassedThroughVerbatim(t *testing.T) {
	r := &Relay{}
	raw := "from a (comment; with semicolon) by b; Fri, 21 Nov 1997 09:55:06 -0600"
	buf := []byte(raw)
	r.ParseValue(component.DefaultParsingContext(), buf, 0, len(buf))
	if len(r.Tokens["from"]) != 1 {
		t.Fatalf("from tokens = %v", r.Tokens["from"])
	}
}
