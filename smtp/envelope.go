package smtp

// Envelope is the MAIL FROM / RCPT TO pair plus the message body handed to
// Send (section 4.M). Body is raw message bytes; DATA framing (dot-stuffing)
// or BDAT chunking is chosen by Send based on negotiated extensions.
type Envelope struct {
	From string
	To   []string
	Body []byte
}
