// Package smtp implements the SMTP client connection core: EHLO/HELO
// negotiation, STARTTLS, AUTH, and message submission via either classic
// DATA or CHUNKING/BDAT.
package smtp

import (
	"crypto/tls"
	"encoding/base64"
	"fmt"
	"net"
	"strconv"
	"strings"

	"github.com/kisli/vmime-sub006/config"
	"github.com/kisli/vmime-sub006/errs"
	"github.com/kisli/vmime-sub006/log"
	"github.com/kisli/vmime-sub006/response"
	"github.com/kisli/vmime-sub006/sasl"
	"github.com/kisli/vmime-sub006/tlsutil"
)

// State mirrors the connection's progress through the submission state
// machine (section "State machines summary": NotConnected -> Connecting ->
// Greeted -> Starttls? -> Greeted -> Authenticated -> Ready -> Sending ->
// Quit -> Closed).
type State int

const (
	NotConnected State = iota
	Greeted
	Authenticated
	Ready
	Sending
	Closed
)

// Response is one complete (possibly multi-line) SMTP reply: "code('-'|'
// ')text" lines collected until a line uses the space separator.
type Response struct {
	Code  int
	Lines []string
}

func (r Response) Text() string { return strings.Join(r.Lines, " ") }

func (r Response) Positive() bool { return r.Code >= 200 && r.Code < 400 }

// Connection drives one SMTP client submission session. Not safe for
// concurrent use (single cooperative task per connection).
type Connection struct {
	svc *config.Service
	log log.Logger

	conn net.Conn
	r    *response.Reader

	state State
	ext   Extensions
}

func New(svc *config.Service, logger log.Logger) *Connection {
	return &Connection{svc: svc, log: logger, state: NotConnected}
}

// Connect dials, reads the greeting, negotiates EHLO (falling back to HELO
// on a permanent error), upgrades to TLS if required, and authenticates.
func (c *Connection) Connect(heloName string) error {
	if c.state != NotConnected && c.state != Closed {
		return &errs.AlreadyConnected{}
	}
	conn, err := net.Dial("tcp", c.svc.Addr())
	if err != nil {
		return err
	}
	if c.svc.ConnectionTLS {
		tlsConn := tls.Client(conn, tlsutil.Config(c.svc.ServerAddress, "", nil, nil))
		if err := tlsConn.Handshake(); err != nil {
			_ = conn.Close()
			return &errs.TlsError{Detail: err.Error()}
		}
		conn = tlsConn
	}
	c.conn = conn
	c.r = response.NewReader(conn, c.svc.EffectiveTimeout())

	greeting, err := c.readResponse()
	if err != nil {
		return err
	}
	if greeting.Code != 220 {
		_ = conn.Close()
		return &errs.ConnectionGreetingError{Banner: greeting.Text()}
	}

	if err := c.ehloOrHelo(heloName); err != nil {
		return err
	}
	c.state = Greeted

	if !c.svc.ConnectionTLS && c.svc.ConnectionTLSRequired {
		if !c.ext.Has("STARTTLS") {
			return &errs.OperationNotSupported{Operation: "STARTTLS"}
		}
		if err := c.StartTLS(heloName); err != nil {
			return err
		}
	}

	if c.svc.OptionsNeedAuth {
		if err := c.authenticate(); err != nil {
			return err
		}
	}
	c.state = Ready
	return nil
}

func (c *Connection) ehloOrHelo(heloName string) error {
	resp, err := c.command("EHLO " + heloName)
	if err != nil {
		return err
	}
	if resp.Code >= 500 {
		resp, err = c.command("HELO " + heloName)
		if err != nil {
			return err
		}
		if resp.Code != 250 {
			return &errs.CommandError{Command: "HELO", Response: resp.Text()}
		}
		c.ext = Extensions{}
		return nil
	}
	if resp.Code != 250 {
		return &errs.CommandError{Command: "EHLO", Response: resp.Text()}
	}
	c.ext = ParseExtensions(resp.Lines[1:])
	return nil
}

// StartTLS issues STARTTLS, upgrades the socket, and re-issues EHLO since
// the pre-TLS extension list cannot be trusted (plaintext tampering).
func (c *Connection) StartTLS(heloName string) error {
	resp, err := c.command("STARTTLS")
	if err != nil {
		return err
	}
	if resp.Code != 220 {
		return &errs.CommandError{Command: "STARTTLS", Response: resp.Text()}
	}
	tlsConn := tls.Client(c.conn, tlsutil.Config(c.svc.ServerAddress, "", nil, nil))
	if err := tlsConn.Handshake(); err != nil {
		c.state = Closed
		return &errs.TlsError{Detail: err.Error()}
	}
	c.conn = tlsConn
	c.r.Reset(tlsConn)
	return c.ehloOrHelo(heloName)
}

func (c *Connection) authenticate() error {
	if c.svc.OptionsSasl {
		if mech, ok := sasl.SuggestMechanism(c.ext.AuthMechanisms()); ok {
			if err := c.AuthenticateSASL(mech); err == nil {
				c.state = Authenticated
				return nil
			} else if !c.svc.OptionsSaslFallback {
				return err
			}
		}
	}
	if err := c.AuthenticateSASL("PLAIN"); err != nil {
		return err
	}
	c.state = Authenticated
	return nil
}

// AuthenticateSASL runs "AUTH <mech> [initial-response]" and the 334
// challenge loop to a 235 success (RFC 4954).
func (c *Connection) AuthenticateSASL(mechName string) error {
	mech, err := sasl.New(mechName, sasl.Authenticator{Username: c.svc.AuthUsername, Password: c.svc.AuthPassword})
	if err != nil {
		return err
	}
	cmd := "AUTH " + mechName
	if mech.HasInitialResponse() {
		resp, _, err := mech.Step(nil)
		if err != nil {
			return &errs.SaslError{Detail: err.Error()}
		}
		cmd += " " + base64.StdEncoding.EncodeToString(resp)
	}
	resp, err := c.command(cmd)
	if err != nil {
		return err
	}
	for resp.Code == 334 {
		challenge, _ := base64.StdEncoding.DecodeString(resp.Text())
		out, done, err := mech.Step(challenge)
		if err != nil {
			_ = c.r.WriteLine("*")
			return &errs.SaslError{Detail: err.Error()}
		}
		line := ""
		if !done {
			line = base64.StdEncoding.EncodeToString(out)
		}
		resp, err = c.command(line)
		if err != nil {
			return err
		}
	}
	if resp.Code != 235 {
		return &errs.AuthenticationError{Detail: resp.Text()}
	}
	return nil
}

// Send submits one envelope. It uses BDAT chunking when the server
// advertised CHUNKING, else classic DATA with dot-stuffing.
func (c *Connection) Send(env *Envelope) error {
	if c.state != Ready && c.state != Authenticated {
		return &errs.IllegalState{Operation: "Send", State: "not ready"}
	}
	c.state = Sending
	defer func() { c.state = Ready }()

	resp, err := c.command("MAIL FROM:<" + env.From + ">")
	if err != nil {
		return err
	}
	if resp.Code != 250 {
		return &errs.CommandError{Command: "MAIL", Response: resp.Text()}
	}
	for _, rcpt := range env.To {
		resp, err := c.command("RCPT TO:<" + rcpt + ">")
		if err != nil {
			return err
		}
		if resp.Code != 250 && resp.Code != 251 {
			return &errs.CommandError{Command: "RCPT", Response: resp.Text()}
		}
	}

	if c.svc.OptionsChunking && c.ext.Has("CHUNKING") {
		if c.svc.OptionsPipelining && c.ext.Has("PIPELINING") {
			return c.sendBdatPipelined(env.Body)
		}
		return c.sendBdat(env.Body)
	}
	return c.sendData(env.Body)
}

func (c *Connection) sendData(body []byte) error {
	resp, err := c.command("DATA")
	if err != nil {
		return err
	}
	if resp.Code != 354 {
		return &errs.CommandError{Command: "DATA", Response: resp.Text()}
	}
	if _, err := c.r.Write(dotStuff(body)); err != nil {
		return err
	}
	if err := c.r.Flush(); err != nil {
		return err
	}
	resp, err = c.readResponse()
	if err != nil {
		return err
	}
	if resp.Code != 250 {
		return &errs.CommandError{Command: "DATA", Response: resp.Text()}
	}
	return nil
}

// sendBdat writes each chunk as "BDAT n" (or "BDAT n LAST" for the last
// one) followed by the raw chunk bytes, reading one 250 response per chunk
// before sending the next.
func (c *Connection) sendBdat(body []byte) error {
	chunks := bdatChunks(body)
	for i, chunk := range chunks {
		if err := c.writeBdatChunk(chunk, i == len(chunks)-1); err != nil {
			return err
		}
		resp, err := c.readResponse()
		if err != nil {
			return err
		}
		if resp.Code != 250 {
			return &errs.CommandError{Command: "BDAT", Response: resp.Text()}
		}
	}
	return nil
}

// sendBdatPipelined writes every BDAT command and its chunk bytes back to
// back without waiting for a response in between, then reads the batch of
// responses once the last chunk is on the wire (RFC 2920 PIPELINING: the
// client doesn't have to wait for a reply before sending the next command).
func (c *Connection) sendBdatPipelined(body []byte) error {
	chunks := bdatChunks(body)
	for i, chunk := range chunks {
		if err := c.writeBdatChunk(chunk, i == len(chunks)-1); err != nil {
			return err
		}
	}
	for range chunks {
		resp, err := c.readResponse()
		if err != nil {
			return err
		}
		if resp.Code != 250 {
			return &errs.CommandError{Command: "BDAT", Response: resp.Text()}
		}
	}
	return nil
}

func (c *Connection) writeBdatChunk(chunk []byte, last bool) error {
	cmd := fmt.Sprintf("BDAT %d", len(chunk))
	if last {
		cmd += " LAST"
	}
	if err := c.r.WriteLine(cmd); err != nil {
		return err
	}
	if len(chunk) == 0 {
		return nil
	}
	if _, err := c.r.Write(chunk); err != nil {
		return err
	}
	return c.r.Flush()
}

// Reset issues RSET, abandoning any in-progress transaction.
func (c *Connection) Reset() error {
	resp, err := c.command("RSET")
	if err != nil {
		return err
	}
	if resp.Code != 250 {
		return &errs.CommandError{Command: "RSET", Response: resp.Text()}
	}
	return nil
}

// Quit sends QUIT and closes the connection.
func (c *Connection) Quit() error {
	resp, err := c.command("QUIT")
	c.state = Closed
	_ = c.conn.Close()
	if err != nil {
		return err
	}
	if resp.Code != 221 {
		return &errs.CommandError{Command: "QUIT", Response: resp.Text()}
	}
	return nil
}

func (c *Connection) command(line string) (Response, error) {
	if line != "" {
		if err := c.r.WriteLine(line); err != nil {
			c.state = Closed
			return Response{}, err
		}
	}
	return c.readResponse()
}

// readResponse collects a (possibly multi-line) reply: lines of the form
// "code-text" continue, a line "code text" (or bare "code") ends it.
func (c *Connection) readResponse() (Response, error) {
	var resp Response
	for {
		line, err := c.r.ReadLine()
		if err != nil {
			c.state = Closed
			return Response{}, err
		}
		if len(line) < 3 {
			return Response{}, &errs.ParseError{Component: "smtp.Response", Reason: "short reply line"}
		}
		code, err := strconv.Atoi(line[:3])
		if err != nil {
			return Response{}, &errs.ParseError{Component: "smtp.Response", Reason: "non-numeric reply code"}
		}
		resp.Code = code
		text := ""
		if len(line) > 3 {
			text = strings.TrimSpace(line[4:])
		}
		resp.Lines = append(resp.Lines, text)
		if len(line) == 3 || line[3] == ' ' {
			return resp, nil
		}
	}
}
