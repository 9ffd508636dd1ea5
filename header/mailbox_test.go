package header

import (
	"testing"

	"github.com/kisli/vmime-sub006/component"
)

func parseAddressList(t *testing.T, raw string) *AddressList {
	t.Helper()
	a := &AddressList{}
	buf := []byte(raw)
	a.ParseValue(component.DefaultParsingContext(), buf, 0, len(buf))
	return a
}

func TestAddressListSingleMailbox(t *testing.T) {
	a := parseAddressList(t, "alice@example.com")
	if len(a.Mailboxes) != 1 || a.Mailboxes[0].Email() != "alice@example.com" {
		t.Fatalf("got %+v", a.Mailboxes)
	}
}

func TestAddressListDisplayName(t *testing.T) {
	a := parseAddressList(t, `"Alice Smith" <alice@example.com>`)
	if got := a.Mailboxes[0].DisplayName(); got != "Alice Smith" {
		t.Fatalf("got %q", got)
	}
}

func TestAddressListMultiple(t *testing.T) {
	a := parseAddressList(t, "alice@example.com, Bob <bob@example.com>")
	if len(a.Mailboxes) != 2 {
		t.Fatalf("got %d mailboxes", len(a.Mailboxes))
	}
	if a.Mailboxes[1].Email() != "bob@example.com" || a.Mailboxes[1].DisplayName() != "Bob" {
		t.Fatalf("got %+v", a.Mailboxes[1])
	}
}

func TestAddressListGroup(t *testing.T) {
	a := parseAddressList(t, "Undisclosed: alice@example.com, bob@example.com;")
	if len(a.Groups) != 1 {
		t.Fatalf("got %d groups", len(a.Groups))
	}
	if a.Groups[0].DisplayName() != "Undisclosed" {
		t.Fatalf("got %q", a.Groups[0].DisplayName())
	}
	if len(a.Groups[0].Mailboxes) != 2 {
		t.Fatalf("got %d mailboxes in group", len(a.Groups[0].Mailboxes))
	}
}

func TestAddressListEncodedDisplayName(t *testing.T) {
	a := parseAddressList(t, "=?UTF-8?B?SGVsbG8=?= <hello@example.com>")
	if got := a.Mailboxes[0].DisplayName(); got != "Hello" {
		t.Fatalf("got %q", got)
	}
}
