package sasl

// Plain implements RFC 4616: a single initial response
// "authzid\0authcid\0passwd", no further challenges.
type Plain struct {
	auth Authenticator
	done bool
}

func NewPlain(auth Authenticator) *Plain { return &Plain{auth: auth} }

func (p *Plain) Name() string { return "PLAIN" }

func (p *Plain) HasInitialResponse() bool { return true }

func (p *Plain) Step(challenge []byte) ([]byte, bool, error) {
	if p.done {
		return nil, true, nil
	}
	p.done = true
	buf := make([]byte, 0, len(p.auth.AuthorizationID)+len(p.auth.Username)+len(p.auth.Password)+2)
	buf = append(buf, p.auth.AuthorizationID...)
	buf = append(buf, 0)
	buf = append(buf, p.auth.Username...)
	buf = append(buf, 0)
	buf = append(buf, p.auth.Password...)
	return buf, true, nil
}
