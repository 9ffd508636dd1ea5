package pop3

import (
	"bufio"
	"net"
	"testing"
	"time"

	"github.com/kisli/vmime-sub006/config"
	"github.com/kisli/vmime-sub006/response"
)

func TestExtractTimestamp(t *testing.T) {
	ts := extractTimestamp("+OK POP3 server ready <1896.697170952@dbc.mtview.ca.us>")
	if ts != "<1896.697170952@dbc.mtview.ca.us>" {
		t.Fatalf("got %q", ts)
	}
}

func newPipeConnection() (*Connection, net.Conn) {
	client, server := net.Pipe()
	c := &Connection{
		svc:   &config.Service{AuthUsername: "mrose", AuthPassword: "tanstaaf"},
		state: Authorization,
		conn:  client,
		r:     response.NewReader(client, 5*time.Second),
	}
	return c, server
}

func serverWriteLine(t *testing.T, conn net.Conn, line string) {
	t.Helper()
	if _, err := conn.Write([]byte(line + "\r\n")); err != nil {
		t.Fatal(err)
	}
}

func TestApopUsesGreetingTimestamp(t *testing.T) {
	c, server := newPipeConnection()
	c.timestamp = "<1896.697170952@dbc.mtview.ca.us>"

	serverIn := bufio.NewReader(server)
	done := make(chan struct{})
	go func() {
		defer close(done)
		line, err := serverIn.ReadString('\n')
		if err != nil {
			t.Error(err)
			return
		}
		// RFC 1939's worked example: APOP mrose c4c9334bac560ecc979e58001b3e22fb
		want := "APOP mrose c4c9334bac560ecc979e58001b3e22fb\r\n"
		if line != want {
			t.Errorf("got %q want %q", line, want)
		}
		serverWriteLine(t, server, "+OK mrose's maildrop has 2 messages")
	}()

	err := c.Apop("mrose", "tanstaaf")
	<-done
	if err != nil {
		t.Fatal(err)
	}
	if c.state != Transaction {
		t.Fatalf("state = %v", c.state)
	}
}

func TestMultilineUndoesDotStuffing(t *testing.T) {
	c, server := newPipeConnection()
	c.state = Transaction

	serverIn := bufio.NewReader(server)
	done := make(chan struct{})
	go func() {
		defer close(done)
		if _, err := serverIn.ReadString('\n'); err != nil {
			t.Error(err)
			return
		}
		serverWriteLine(t, server, "+OK 120 octets")
		serverWriteLine(t, server, "Subject: test")
		serverWriteLine(t, server, "")
		serverWriteLine(t, server, "..double leading dot")
		serverWriteLine(t, server, ".")
	}()

	body, err := c.Retr(1)
	<-done
	if err != nil {
		t.Fatal(err)
	}
	want := "Subject: test\r\n\r\n.double leading dot\r\n"
	if string(body) != want {
		t.Fatalf("got %q want %q", body, want)
	}
}

func TestStatParsesCountAndSize(t *testing.T) {
	c, server := newPipeConnection()
	c.state = Transaction

	serverIn := bufio.NewReader(server)
	done := make(chan struct{})
	go func() {
		defer close(done)
		if _, err := serverIn.ReadString('\n'); err != nil {
			t.Error(err)
			return
		}
		serverWriteLine(t, server, "+OK 2 320")
	}()

	count, size, err := c.Stat()
	<-done
	if err != nil {
		t.Fatal(err)
	}
	if count != 2 || size != 320 {
		t.Fatalf("got count=%d size=%d", count, size)
	}
}
