package sasl

import (
	"crypto/hmac"
	"crypto/md5"
	"encoding/hex"
)

// CramMD5 implements RFC 2195: the server sends an opaque challenge
// (conventionally "<timestamp.pid@hostname>"), the client replies
// "username hex(hmac-md5(password, challenge))".
type CramMD5 struct {
	auth Authenticator
	done bool
}

func NewCramMD5(auth Authenticator) *CramMD5 { return &CramMD5{auth: auth} }

func (c *CramMD5) Name() string { return "CRAM-MD5" }

func (c *CramMD5) HasInitialResponse() bool { return false }

func (c *CramMD5) Step(challenge []byte) ([]byte, bool, error) {
	if c.done {
		return nil, true, nil
	}
	c.done = true
	mac := hmac.New(md5.New, []byte(c.auth.Password))
	mac.Write(challenge)
	digest := hex.EncodeToString(mac.Sum(nil))
	return []byte(c.auth.Username + " " + digest), false, nil
}
