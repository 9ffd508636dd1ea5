package imap

import (
	"bufio"
	"net"
	"testing"
	"time"

	"github.com/kisli/vmime-sub006/config"
	"github.com/kisli/vmime-sub006/response"
)

func TestParseResponseLineTagged(t *testing.T) {
	r := parseResponseLine("A0001 OK LOGIN completed")
	if r.Tag != "A0001" || r.Status != "OK" {
		t.Fatalf("got %+v", r)
	}
}

func TestParseResponseLineUntaggedCapability(t *testing.T) {
	r := parseResponseLine("* OK [CAPABILITY IMAP4rev1 STARTTLS] ready")
	caps, ok := r.CodeHasCapability()
	if !ok {
		t.Fatal("expected capability code")
	}
	if len(caps) != 2 || caps[0] != "IMAP4rev1" || caps[1] != "STARTTLS" {
		t.Fatalf("caps = %v", caps)
	}
}

func TestParseMailboxEventExists(t *testing.T) {
	ev, ok := parseMailboxEvent("12 EXISTS")
	if !ok || ev.Num != 12 || ev.Verb != "EXISTS" {
		t.Fatalf("got %+v, %v", ev, ok)
	}
}

func TestParseListLine(t *testing.T) {
	e, ok := parseListLine(` (\HasNoChildren) "/" "INBOX"`)
	if !ok {
		t.Fatal("expected a parsed LIST entry")
	}
	if e.Sep != "/" || e.Name != "INBOX" || len(e.Flags) != 1 {
		t.Fatalf("got %+v", e)
	}
}

func TestGreetingCarriesCapabilityAvoidsExtraRoundtrip(t *testing.T) {
	// scenario 6: Connect hands the greeting's CAPABILITY code to
	// setCapabilities; once that has run, Capability() must answer from the
	// cache without issuing a command (this Connection has no socket).
	c := &Connection{}
	c.setCapabilities([]string{"IMAP4rev1", "STARTTLS"})
	caps, err := c.Capability()
	if err != nil {
		t.Fatal(err)
	}
	found := map[string]bool{}
	for _, cp := range caps {
		found[cp] = true
	}
	if !found["STARTTLS"] {
		t.Fatalf("missing STARTTLS in %v", caps)
	}
}

// newPipeConnection wires a Connection's socket to one end of a net.Pipe,
// returning the other end for a test to script server lines on, mirroring
// the socket-level test style of the teacher's tests/client.go helper.
func newPipeConnection() (*Connection, net.Conn) {
	client, server := net.Pipe()
	c := &Connection{
		svc:    &config.Service{AuthUsername: "alice", AuthPassword: "s3cret"},
		state:  Closed,
		Events: NewEventBus(),
		conn:   client,
		r:      response.NewReader(client, 5*time.Second),
	}
	return c, server
}

func serverWriteLine(t *testing.T, conn net.Conn, line string) {
	t.Helper()
	if _, err := conn.Write([]byte(line + "\r\n")); err != nil {
		t.Fatal(err)
	}
}

func TestSelectParsesExistsAndUIDValidity(t *testing.T) {
	c, server := newPipeConnection()
	c.state = Authenticated
	serverIn := bufio.NewReader(server)
	done := make(chan struct{})
	go func() {
		defer close(done)
		if _, err := serverIn.ReadString('\n'); err != nil { // consume "A0001 SELECT ..."
			t.Error(err)
			return
		}
		serverWriteLine(t, server, "* 172 EXISTS")
		serverWriteLine(t, server, "* 1 RECENT")
		serverWriteLine(t, server, "* OK [UIDVALIDITY 3857529045] UIDs valid")
		serverWriteLine(t, server, "A0001 OK [READ-WRITE] SELECT completed")
	}()
	res, err := c.Select("INBOX", false)
	<-done
	if err != nil {
		t.Fatal(err)
	}
	if res.Exists != 172 || res.Recent != 1 || res.UIDValidity != 3857529045 {
		t.Fatalf("got %+v", res)
	}
}

func TestRouteUntaggedPublishesMessageCountEvent(t *testing.T) {
	c, server := newPipeConnection()
	c.state = Authenticated
	counts := make(chan int, 1)
	_ = c.Events.Subscribe(EventMessageCount, func(n int, verb string) {
		if verb == "EXISTS" {
			counts <- n
		}
	})
	serverIn := bufio.NewReader(server)
	done := make(chan struct{})
	go func() {
		defer close(done)
		if _, err := serverIn.ReadString('\n'); err != nil { // consume "A0001 NOOP"
			t.Error(err)
			return
		}
		serverWriteLine(t, server, "* 5 EXISTS")
		serverWriteLine(t, server, "A0001 OK NOOP completed")
	}()
	_, _, err := c.sendCommand("NOOP")
	<-done
	if err != nil {
		t.Fatal(err)
	}
	select {
	case n := <-counts:
		if n != 5 {
			t.Fatalf("got %d", n)
		}
	case <-time.After(time.Second):
		t.Fatal("expected EventMessageCount to fire")
	}
}
