// Package errs defines the typed error kinds every layer of the message
// model and protocol clients raises (section 7). Each kind is its own
// struct implementing error, so callers can use errors.As to recover the
// kind-specific detail instead of parsing a message string.
package errs

import "fmt"

// ParseError reports malformed input at a specific byte offset, and
// whether the parser recovered (applied a default/skip policy) or gave up.
type ParseError struct {
	Component string
	Offset    int
	Recovered bool
	Reason    string
}

func (e *ParseError) Error() string {
	state := "unrecovered"
	if e.Recovered {
		state = "recovered"
	}
	return fmt.Sprintf("parse error in %s at offset %d (%s): %s", e.Component, e.Offset, state, e.Reason)
}

// BadFieldValueType reports a value object assigned to a field whose
// grammar expects a different concrete type.
type BadFieldValueType struct {
	Field    string
	Expected string
	Got      string
}

func (e *BadFieldValueType) Error() string {
	return fmt.Sprintf("field %q expects a %s value, got %s", e.Field, e.Expected, e.Got)
}

// NoSuchField is raised by a strict lookup (as opposed to Header.Get,
// which creates on absence).
type NoSuchField struct{ Name string }

func (e *NoSuchField) Error() string { return fmt.Sprintf("no such field: %s", e.Name) }

// NoSuchParameter is raised by a strict parameter lookup.
type NoSuchParameter struct{ Name string }

func (e *NoSuchParameter) Error() string { return fmt.Sprintf("no such parameter: %s", e.Name) }

// NoSuchMessageID is raised when a message lookup by Message-ID fails
// (e.g. resolving an In-Reply-To reference against a mailbox index).
type NoSuchMessageID struct{ ID string }

func (e *NoSuchMessageID) Error() string { return fmt.Sprintf("no such message id: %s", e.ID) }

// IllegalState reports an operation invoked while the connection or
// folder is in the wrong state (closed folder, disconnected store).
type IllegalState struct {
	Operation string
	State     string
}

func (e *IllegalState) Error() string {
	return fmt.Sprintf("cannot %s: illegal state %s", e.Operation, e.State)
}

// AlreadyConnected is raised by Connect on a service that's already
// connected.
type AlreadyConnected struct{}

func (e *AlreadyConnected) Error() string { return "already connected" }

// NotConnected is raised by any operation that requires a live connection.
type NotConnected struct{}

func (e *NotConnected) Error() string { return "not connected" }

// ConnectionGreetingError reports a bad or absent server banner.
type ConnectionGreetingError struct{ Banner string }

func (e *ConnectionGreetingError) Error() string {
	return fmt.Sprintf("bad connection greeting: %q", e.Banner)
}

// CommandError reports a command the server rejected, carrying the raw
// response for diagnostics.
type CommandError struct {
	Command  string
	Response string
}

func (e *CommandError) Error() string {
	return fmt.Sprintf("command %q failed: %s", e.Command, e.Response)
}

// AuthenticationError is raised once every credential/mechanism has been
// tried and rejected.
type AuthenticationError struct{ Detail string }

func (e *AuthenticationError) Error() string { return "authentication failed: " + e.Detail }

// NoSuchMechanism reports a requested SASL mechanism the server (or the
// local SASL library) doesn't support.
type NoSuchMechanism struct{ Name string }

func (e *NoSuchMechanism) Error() string { return fmt.Sprintf("no such sasl mechanism: %s", e.Name) }

// SaslError reports a SASL exchange failure other than mechanism
// selection (malformed challenge, evaluate() failure).
type SaslError struct{ Detail string }

func (e *SaslError) Error() string { return "sasl error: " + e.Detail }

// TlsError reports a handshake failure or certificate rejection.
type TlsError struct{ Detail string }

func (e *TlsError) Error() string { return "tls error: " + e.Detail }

// OperationTimedOut is raised when the timeout handler decides to abort a
// pending read or write.
type OperationTimedOut struct{ Operation string }

func (e *OperationTimedOut) Error() string { return fmt.Sprintf("operation timed out: %s", e.Operation) }

func (e *OperationTimedOut) Timeout() bool { return true }

// OperationNotSupported reports a protocol or implementation limitation
// (e.g. a command the server never advertised).
type OperationNotSupported struct{ Operation string }

func (e *OperationNotSupported) Error() string {
	return fmt.Sprintf("operation not supported: %s", e.Operation)
}

// NoServiceAvailable is raised when a requested protocol service has no
// registered implementation.
type NoServiceAvailable struct{ Protocol string }

func (e *NoServiceAvailable) Error() string {
	return fmt.Sprintf("no service available for protocol: %s", e.Protocol)
}

// PartialFetchNotSupported reports a caller requesting a byte range the
// server/protocol can't satisfy.
type PartialFetchNotSupported struct{}

func (e *PartialFetchNotSupported) Error() string { return "partial fetch not supported" }

// EncodingNotSupported reports an unknown content-transfer-encoding name.
type EncodingNotSupported struct{ Name string }

func (e *EncodingNotSupported) Error() string {
	return fmt.Sprintf("encoding not supported: %s", e.Name)
}

// DecodingFailed reports a content-transfer-encoding decode failure.
type DecodingFailed struct {
	Encoding string
	Detail   string
}

func (e *DecodingFailed) Error() string {
	return fmt.Sprintf("decoding failed (%s): %s", e.Encoding, e.Detail)
}

// OpenFileError reports a failure loading a file attachment from the
// platform's filesystem collaborator.
type OpenFileError struct {
	Path string
	Err  error
}

func (e *OpenFileError) Error() string { return fmt.Sprintf("open file %q: %v", e.Path, e.Err) }
func (e *OpenFileError) Unwrap() error { return e.Err }

// CertificateVerificationError is propagated from an injected
// CertificateVerifier that rejected the peer's chain.
type CertificateVerificationError struct{ Detail string }

func (e *CertificateVerificationError) Error() string {
	return "certificate verification failed: " + e.Detail
}
