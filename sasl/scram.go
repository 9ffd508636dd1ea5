package sasl

import (
	"crypto/hmac"
	"crypto/rand"
	"crypto/sha1"
	"crypto/sha256"
	"encoding/base64"
	"fmt"
	"hash"
	"strconv"
	"strings"

	"github.com/kisli/vmime-sub006/errs"
	"golang.org/x/crypto/pbkdf2"
)

// Scram implements the client half of RFC 5802 SCRAM-SHA-1 / SCRAM-SHA-256,
// a four-message exchange whose client-first-message is sent as the
// initial response: client-first-message, server-first-message (salt,
// iteration count, combined nonce), client-final-message (proof),
// server-final-message (verifier).
type Scram struct {
	auth    Authenticator
	newHash func() hash.Hash
	step    int

	clientNonce   string
	clientFirstMB string // "n=...,r=..." (the part after gs2-header)
	serverFirst   string
}

func NewScram(auth Authenticator, name string) *Scram {
	h := sha1.New
	if name == "SCRAM-SHA-256" {
		h = sha256.New
	}
	return &Scram{auth: auth, newHash: h}
}

func (s *Scram) Name() string {
	if s.newHash().Size() == sha256.Size {
		return "SCRAM-SHA-256"
	}
	return "SCRAM-SHA-1"
}

func (s *Scram) HasInitialResponse() bool { return true }

func (s *Scram) Step(challenge []byte) ([]byte, bool, error) {
	switch s.step {
	case 0:
		s.step++
		s.clientNonce = randomNonce()
		s.clientFirstMB = "n=" + saslName(s.auth.Username) + ",r=" + s.clientNonce
		return []byte("n,," + s.clientFirstMB), false, nil

	case 1:
		s.step++
		s.serverFirst = string(challenge)
		fields, err := parseScramFields(s.serverFirst)
		if err != nil {
			return nil, true, &errs.SaslError{Detail: err.Error()}
		}
		serverNonce := fields["r"]
		if !strings.HasPrefix(serverNonce, s.clientNonce) {
			return nil, true, &errs.SaslError{Detail: "server nonce does not extend client nonce"}
		}
		salt, err := base64.StdEncoding.DecodeString(fields["s"])
		if err != nil {
			return nil, true, &errs.SaslError{Detail: "bad salt encoding"}
		}
		iterCount, err := strconv.Atoi(fields["i"])
		if err != nil || iterCount <= 0 {
			return nil, true, &errs.SaslError{Detail: "bad iteration count"}
		}

		clientFinalMB := "c=" + base64.StdEncoding.EncodeToString([]byte("n,,")) + ",r=" + serverNonce
		authMessage := s.clientFirstMB + "," + s.serverFirst + "," + clientFinalMB

		saltedPassword := pbkdf2.Key([]byte(s.auth.Password), salt, iterCount, s.newHash().Size(), s.newHash)
		clientKey := hmacSum(s.newHash, saltedPassword, []byte("Client Key"))
		storedKey := hashSum(s.newHash, clientKey)
		clientSignature := hmacSum(s.newHash, storedKey, []byte(authMessage))
		clientProof := xorBytes(clientKey, clientSignature)

		resp := clientFinalMB + ",p=" + base64.StdEncoding.EncodeToString(clientProof)
		return []byte(resp), false, nil

	case 2:
		s.step++
		fields, err := parseScramFields(string(challenge))
		if err != nil {
			return nil, true, &errs.SaslError{Detail: err.Error()}
		}
		if _, ok := fields["v"]; !ok {
			return nil, true, &errs.SaslError{Detail: "server-final-message missing verifier"}
		}
		return nil, true, nil

	default:
		return nil, true, nil
	}
}

func saslName(s string) string {
	s = strings.ReplaceAll(s, "=", "=3D")
	s = strings.ReplaceAll(s, ",", "=2C")
	return s
}

func parseScramFields(s string) (map[string]string, error) {
	out := make(map[string]string)
	for _, part := range strings.Split(s, ",") {
		kv := strings.SplitN(part, "=", 2)
		if len(kv) != 2 {
			return nil, fmt.Errorf("malformed scram attribute: %q", part)
		}
		out[kv[0]] = kv[1]
	}
	return out, nil
}

func hmacSum(newHash func() hash.Hash, key, data []byte) []byte {
	mac := hmac.New(newHash, key)
	mac.Write(data)
	return mac.Sum(nil)
}

func hashSum(newHash func() hash.Hash, data []byte) []byte {
	h := newHash()
	h.Write(data)
	return h.Sum(nil)
}

func xorBytes(a, b []byte) []byte {
	out := make([]byte, len(a))
	for i := range a {
		out[i] = a[i] ^ b[i]
	}
	return out
}

func randomNonce() string {
	buf := make([]byte, 18)
	_, _ = rand.Read(buf)
	return base64.RawStdEncoding.EncodeToString(buf)
}
