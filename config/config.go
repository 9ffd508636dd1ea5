// Package config implements the Service properties surface named in
// section 6: the connection parameters an SMTP/POP3/IMAP client is given
// before calling Connect, loaded the way the teacher repo's config.go
// loads its ServerConfig - a JSON file unmarshaled straight into the
// struct, with a couple of cross-field sanity checks afterward.
package config

import (
	"encoding/json"
	"fmt"
	"os"
	"time"
)

// Service holds one SMTP/POP3/IMAP connection's properties (section 6
// "Service (SMTP/POP3/IMAP) properties").
type Service struct {
	ServerAddress string `json:"server.address"`
	ServerPort    int    `json:"server.port"`

	AuthUsername string `json:"auth.username"`
	AuthPassword string `json:"auth.password"`

	ConnectionTLS         bool `json:"connection.tls"`
	ConnectionTLSRequired bool `json:"connection.tls.required"`

	OptionsSasl            bool `json:"options.sasl"`
	OptionsSaslFallback    bool `json:"options.sasl.fallback"`
	OptionsPipelining      bool `json:"options.pipelining"`
	OptionsChunking        bool `json:"options.chunking"`
	OptionsNeedAuth        bool `json:"options.need-authentication"`

	// Timeout bounds every socket read/write; zero or negative means
	// DefaultTimeout (see EffectiveTimeout).
	Timeout time.Duration `json:"timeout_seconds"`
}

// Load reads and validates a Service configuration from a JSON file,
// mirroring the teacher's ReadConfig: read the whole file, unmarshal,
// then sanity-check the fields JSON can't express as constraints.
func Load(path string) (*Service, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("could not read service config: %w", err)
	}
	var raw struct {
		Service
		TimeoutSeconds int `json:"timeout_seconds"`
	}
	if err := json.Unmarshal(b, &raw); err != nil {
		return nil, fmt.Errorf("could not parse service config: %w", err)
	}
	svc := raw.Service
	svc.Timeout = time.Duration(raw.TimeoutSeconds) * time.Second

	if svc.ServerAddress == "" {
		return nil, fmt.Errorf("server.address is required")
	}
	if svc.ServerPort <= 0 || svc.ServerPort > 65535 {
		return nil, fmt.Errorf("server.port %d out of range", svc.ServerPort)
	}
	if svc.ConnectionTLSRequired {
		svc.ConnectionTLS = true
	}
	if svc.OptionsNeedAuth && svc.AuthUsername == "" {
		return nil, fmt.Errorf("options.need-authentication is set but auth.username is empty")
	}
	return &svc, nil
}

// Addr returns "host:port" for net.Dial.
func (s *Service) Addr() string {
	return fmt.Sprintf("%s:%d", s.ServerAddress, s.ServerPort)
}

// DefaultTimeout is used when a Service doesn't set timeout_seconds.
const DefaultTimeout = 2 * time.Minute

// EffectiveTimeout returns s.Timeout, or DefaultTimeout if unset.
func (s *Service) EffectiveTimeout() time.Duration {
	if s.Timeout <= 0 {
		return DefaultTimeout
	}
	return s.Timeout
}
