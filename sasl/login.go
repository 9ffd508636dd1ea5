package sasl

// Login implements the non-standard but near-universal "LOGIN" mechanism:
// two challenges, conventionally "Username:" then "Password:", answered
// with the username and password regardless of the challenge text.
type Login struct {
	auth Authenticator
	step int
}

func NewLogin(auth Authenticator) *Login { return &Login{auth: auth} }

func (l *Login) Name() string { return "LOGIN" }

func (l *Login) HasInitialResponse() bool { return false }

func (l *Login) Step(challenge []byte) ([]byte, bool, error) {
	switch l.step {
	case 0:
		l.step++
		return []byte(l.auth.Username), false, nil
	case 1:
		l.step++
		return []byte(l.auth.Password), false, nil
	default:
		return nil, true, nil
	}
}
