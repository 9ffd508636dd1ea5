// Package sasl implements the client-side SASL mechanisms needed by the
// SMTP/IMAP/POP3 connection cores (section 6 "SASL library" collaborator):
// mechanism negotiation and challenge/response evaluation. The mechanisms
// themselves are grouped one-per-file, mirroring how the protocol cores
// dispatch on a mechanism name string.
package sasl

import "github.com/kisli/vmime-sub006/errs"

// Mechanism drives one SASL exchange. Step is called once per server
// challenge (the empty challenge on the first call when HasInitialResponse
// is true); it returns the client's response bytes, or done=true once no
// further challenge is expected.
type Mechanism interface {
	Name() string
	HasInitialResponse() bool
	Step(challenge []byte) (response []byte, done bool, err error)
}

// Authenticator supplies the credentials a Mechanism needs; it is the
// minimal analogue of vmime's `authenticator` collaborator.
type Authenticator struct {
	Username string
	Password string
	// AuthorizationID, if set, is the identity being assumed (SASL "authzid"),
	// distinct from Username (the "authcid" identity used to authenticate).
	AuthorizationID string
}

// Constructor builds a fresh Mechanism for one connection attempt.
type Constructor func(auth Authenticator) Mechanism

var registry = map[string]Constructor{
	"PLAIN":    func(a Authenticator) Mechanism { return NewPlain(a) },
	"LOGIN":    func(a Authenticator) Mechanism { return NewLogin(a) },
	"CRAM-MD5": func(a Authenticator) Mechanism { return NewCramMD5(a) },
	"SCRAM-SHA-1":   func(a Authenticator) Mechanism { return NewScram(a, "SCRAM-SHA-1") },
	"SCRAM-SHA-256": func(a Authenticator) Mechanism { return NewScram(a, "SCRAM-SHA-256") },
}

// New constructs the named mechanism, or NoSuchMechanism if unknown.
func New(name string, auth Authenticator) (Mechanism, error) {
	ctor, ok := registry[name]
	if !ok {
		return nil, &errs.NoSuchMechanism{Name: name}
	}
	return ctor(auth), nil
}

// SuggestMechanism picks the strongest mechanism from offered that this
// package implements, preferring SCRAM over CRAM-MD5 over LOGIN over PLAIN
// (weakest last, since PLAIN needs TLS to be safe and callers are expected
// to gate it on connection.tls).
func SuggestMechanism(offered []string) (string, bool) {
	preference := []string{"SCRAM-SHA-256", "SCRAM-SHA-1", "CRAM-MD5", "LOGIN", "PLAIN"}
	set := make(map[string]bool, len(offered))
	for _, m := range offered {
		set[m] = true
	}
	for _, p := range preference {
		if set[p] {
			return p, true
		}
	}
	return "", false
}
