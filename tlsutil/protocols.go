// Package tlsutil holds the named-protocol and named-cipher registries used
// to turn a service's {connection.tls, connection.tls.required} style
// configuration into a *tls.Config, shared by the SMTP STARTTLS, IMAP
// STARTTLS and POP3 STLS upgrade paths.
package tlsutil

import (
	"crypto/tls"
	"crypto/x509"
)

// TLSProtocols maps a config-file protocol name to its crypto/tls constant.
var TLSProtocols = map[string]uint16{
	"tls1.0": tls.VersionTLS10,
	"tls1.1": tls.VersionTLS11,
	"tls1.2": tls.VersionTLS12,
	"tls1.3": tls.VersionTLS13,
}

// TLSCiphers maps a config-file cipher-suite name to its crypto/tls constant.
var TLSCiphers = map[string]uint16{
	"TLS_FALLBACK_SCSV":                      tls.TLS_FALLBACK_SCSV,
	"TLS_RSA_WITH_RC4_128_SHA":                tls.TLS_RSA_WITH_RC4_128_SHA,
	"TLS_RSA_WITH_3DES_EDE_CBC_SHA":           tls.TLS_RSA_WITH_3DES_EDE_CBC_SHA,
	"TLS_RSA_WITH_AES_128_CBC_SHA":            tls.TLS_RSA_WITH_AES_128_CBC_SHA,
	"TLS_RSA_WITH_AES_256_CBC_SHA":            tls.TLS_RSA_WITH_AES_256_CBC_SHA,
	"TLS_ECDHE_RSA_WITH_RC4_128_SHA":          tls.TLS_ECDHE_RSA_WITH_RC4_128_SHA,
	"TLS_ECDHE_RSA_WITH_3DES_EDE_CBC_SHA":     tls.TLS_ECDHE_RSA_WITH_3DES_EDE_CBC_SHA,
	"TLS_ECDHE_RSA_WITH_AES_128_CBC_SHA":      tls.TLS_ECDHE_RSA_WITH_AES_128_CBC_SHA,
	"TLS_ECDHE_RSA_WITH_AES_256_CBC_SHA":      tls.TLS_ECDHE_RSA_WITH_AES_256_CBC_SHA,
	"TLS_ECDHE_RSA_WITH_AES_128_GCM_SHA256":   tls.TLS_ECDHE_RSA_WITH_AES_128_GCM_SHA256,
	"TLS_ECDHE_RSA_WITH_AES_256_GCM_SHA384":   tls.TLS_ECDHE_RSA_WITH_AES_256_GCM_SHA384,
	"TLS_AES_128_GCM_SHA256":                  tls.TLS_AES_128_GCM_SHA256,
	"TLS_AES_256_GCM_SHA384":                  tls.TLS_AES_256_GCM_SHA384,
	"TLS_CHACHA20_POLY1305_SHA256":            tls.TLS_CHACHA20_POLY1305_SHA256,
}

// CertificateVerifier is the thin interface the TLS library's certificate
// chain verification is exposed through (section 6 "TLS library" collaborator).
// The zero value performs the standard library's usual verification; tests
// and callers that need to pin a certificate or accept self-signed chains
// supply their own.
type CertificateVerifier interface {
	VerifyPeerCertificate(rawCerts [][]byte, verifiedChains [][]*x509.Certificate) error
}

// Config builds a *tls.Config for protocol client connections.
// minProtocol/cipherSuites may be empty, in which case crypto/tls defaults apply.
func Config(serverName string, minProtocol string, cipherSuites []string, verifier CertificateVerifier) *tls.Config {
	cfg := &tls.Config{ServerName: serverName}
	if v, ok := TLSProtocols[minProtocol]; ok {
		cfg.MinVersion = v
	}
	if len(cipherSuites) > 0 {
		cfg.CipherSuites = make([]uint16, 0, len(cipherSuites))
		for _, name := range cipherSuites {
			if v, ok := TLSCiphers[name]; ok {
				cfg.CipherSuites = append(cfg.CipherSuites, v)
			}
		}
	}
	if verifier != nil {
		cfg.InsecureSkipVerify = true
		cfg.VerifyPeerCertificate = verifier.VerifyPeerCertificate
	}
	return cfg
}
