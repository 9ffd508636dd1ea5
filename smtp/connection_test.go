package smtp

import (
	"bufio"
	"io"
	"net"
	"strconv"
	"strings"
	"testing"
	"time"

	"github.com/kisli/vmime-sub006/config"
	"github.com/kisli/vmime-sub006/response"
)

func TestParseExtensionsNormalizesAuthEquals(t *testing.T) {
	ext := ParseExtensions([]string{"mail.example.com", "SIZE 52428800", "AUTH=PLAIN", "AUTH=LOGIN", "CHUNKING"})
	if !ext.Has("AUTH") || !ext.Has("CHUNKING") || !ext.Has("SIZE") {
		t.Fatalf("got %+v", ext)
	}
	mechs := ext.AuthMechanisms()
	if len(mechs) != 2 || mechs[0] != "PLAIN" || mechs[1] != "LOGIN" {
		t.Fatalf("mechs = %v", mechs)
	}
}

func TestBdatChunksSplitsAt262144(t *testing.T) {
	body := make([]byte, 400000)
	chunks := bdatChunks(body)
	if len(chunks) != 2 {
		t.Fatalf("expected 2 chunks, got %d", len(chunks))
	}
	if len(chunks[0]) != 262144 || len(chunks[1]) != 137856 {
		t.Fatalf("chunk sizes = %d, %d", len(chunks[0]), len(chunks[1]))
	}
}

func TestDotStuffEscapesLeadingDot(t *testing.T) {
	out := dotStuff([]byte("Hello\r\n.World\r\n..double\r\n"))
	want := "Hello\r\n..World\r\n...double\r\n.\r\n"
	if string(out) != want {
		t.Fatalf("got %q want %q", out, want)
	}
}

func newPipeConnection() (*Connection, net.Conn) {
	client, server := net.Pipe()
	c := &Connection{
		svc:   &config.Service{AuthUsername: "alice", AuthPassword: "s3cret"},
		state: NotConnected,
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

// TestChunkingHappyPathUsesBdatNotData exercises scenario 5: a 400,000 byte
// body is split into a 262144 byte chunk and a 137856 byte LAST chunk, both
// getting a 250 response in order, with DATA never issued.
func TestChunkingHappyPathUsesBdatNotData(t *testing.T) {
	c, server := newPipeConnection()
	c.state = Ready
	c.ext = Extensions{"CHUNKING": nil}
	c.svc.OptionsChunking = true

	serverIn := bufio.NewReader(server)
	sawData := false
	var chunkSizes []int
	done := make(chan struct{})
	go func() {
		defer close(done)
		readLine := func() (string, bool) {
			line, err := serverIn.ReadString('\n')
			if err != nil {
				t.Error(err)
				return "", false
			}
			return strings.TrimRight(line, "\r\n"), true
		}

		// MAIL FROM, then RCPT TO.
		for i := 0; i < 2; i++ {
			if _, ok := readLine(); !ok {
				return
			}
			serverWriteLine(t, server, "250 2.0.0 OK")
		}

		// Two BDAT chunks.
		for i := 0; i < 2; i++ {
			line, ok := readLine()
			if !ok {
				return
			}
			fields := strings.Fields(line)
			if fields[0] == "DATA" {
				sawData = true
			}
			n, _ := strconv.Atoi(fields[1])
			chunkSizes = append(chunkSizes, n)
			buf := make([]byte, n)
			if n > 0 {
				if _, err := io.ReadFull(serverIn, buf); err != nil {
					t.Error(err)
					return
				}
			}
			serverWriteLine(t, server, "250 2.0.0 OK")
		}
	}()

	env := &Envelope{From: "a@example.com", To: []string{"b@example.com"}, Body: make([]byte, 400000)}
	err := c.Send(env)
	<-done
	if err != nil {
		t.Fatal(err)
	}
	if sawData {
		t.Fatal("DATA should not be issued when chunking")
	}
	if len(chunkSizes) != 2 || chunkSizes[0] != 262144 || chunkSizes[1] != 137856 {
		t.Fatalf("chunk sizes = %v", chunkSizes)
	}
}

// TestChunkingPipelinedBatchesResponses exercises scenario 5's PIPELINING
// variant: both BDAT commands and their chunk bytes are written back to
// back, with the two 250 responses only read after the last chunk is sent.
func TestChunkingPipelinedBatchesResponses(t *testing.T) {
	c, server := newPipeConnection()
	c.state = Ready
	c.ext = Extensions{"CHUNKING": nil, "PIPELINING": nil}
	c.svc.OptionsChunking = true
	c.svc.OptionsPipelining = true

	serverIn := bufio.NewReader(server)
	var chunkSizes []int
	done := make(chan struct{})
	go func() {
		defer close(done)
		readLine := func() (string, bool) {
			line, err := serverIn.ReadString('\n')
			if err != nil {
				t.Error(err)
				return "", false
			}
			return strings.TrimRight(line, "\r\n"), true
		}

		// MAIL FROM, then RCPT TO, each still gets its own response: only
		// the BDAT phase pipelines.
		for i := 0; i < 2; i++ {
			if _, ok := readLine(); !ok {
				return
			}
			serverWriteLine(t, server, "250 2.0.0 OK")
		}

		// Read both BDAT command+chunk pairs off the wire before writing
		// any response, proving the client didn't wait for one in between.
		for i := 0; i < 2; i++ {
			line, ok := readLine()
			if !ok {
				return
			}
			fields := strings.Fields(line)
			n, _ := strconv.Atoi(fields[1])
			chunkSizes = append(chunkSizes, n)
			buf := make([]byte, n)
			if n > 0 {
				if _, err := io.ReadFull(serverIn, buf); err != nil {
					t.Error(err)
					return
				}
			}
		}

		serverWriteLine(t, server, "250 2.0.0 OK")
		serverWriteLine(t, server, "250 2.0.0 OK")
	}()

	env := &Envelope{From: "a@example.com", To: []string{"b@example.com"}, Body: make([]byte, 400000)}
	if err := c.Send(env); err != nil {
		t.Fatal(err)
	}
	<-done
	if len(chunkSizes) != 2 || chunkSizes[0] != 262144 || chunkSizes[1] != 137856 {
		t.Fatalf("chunk sizes = %v", chunkSizes)
	}
}
