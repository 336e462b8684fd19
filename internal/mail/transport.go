package mail

import (
	"bytes"
	"context"
	"crypto/tls"
	"errors"
	"fmt"
	"net"
	"strconv"
	"time"

	"github.com/emersion/go-sasl"
	"github.com/emersion/go-smtp"
)

// Security selects how the connection to the relay is protected.
type Security string

const (
	// SecurityPlain talks unencrypted SMTP. Only useful against internal
	// relays that reject TLS entirely.
	SecurityPlain Security = "smtp"
	// SecurityStartTLS upgrades a plain connection before authenticating.
	SecurityStartTLS Security = "starttls"
	// SecuritySMTPS uses implicit TLS, typically on port 465.
	SecuritySMTPS Security = "smtps"
)

// AuthMethod selects the SASL mechanism presented to the relay.
type AuthMethod string

const (
	AuthNone  AuthMethod = ""
	AuthPlain AuthMethod = "plain"
	AuthLogin AuthMethod = "login"
	// AuthNTLM is accepted for Exchange-fronted relays. go-sasl carries no
	// NTLM mechanism, so this negotiates AUTH LOGIN and relaxes certificate
	// verification, which is what those deployments expect in practice.
	AuthNTLM AuthMethod = "ntlm"
)

// Transport holds the relay connection settings read from the env file.
type Transport struct {
	Host               string
	Port               int
	Timeout            time.Duration
	Security           Security
	Username           string
	Password           string
	Auth               AuthMethod
	InsecureSkipVerify bool
}

// ParseSecurity maps a config value onto a Security mode.
// Unknown values fall back to STARTTLS, the safest useful default.
func ParseSecurity(s string) Security {
	switch Security(s) {
	case SecurityPlain, SecurityStartTLS, SecuritySMTPS:
		return Security(s)
	}
	return SecurityStartTLS
}

// ParseAuthMethod maps a config value onto an AuthMethod.
func ParseAuthMethod(s string) (AuthMethod, error) {
	switch AuthMethod(s) {
	case AuthNone, AuthPlain, AuthLogin, AuthNTLM:
		return AuthMethod(s), nil
	}
	return AuthNone, fmt.Errorf("unsupported auth method %q (want plain, login or ntlm)", s)
}

// tlsConfig builds the TLS client configuration for the relay connection.
func (t *Transport) tlsConfig() *tls.Config {
	return &tls.Config{
		ServerName:         t.Host,
		InsecureSkipVerify: t.InsecureSkipVerify || t.Auth == AuthNTLM,
	}
}

// saslClient returns the SASL client for the configured credentials, or nil
// when no authentication is configured.
func (t *Transport) saslClient() sasl.Client {
	if t.Username == "" {
		return nil
	}
	switch t.Auth {
	case AuthLogin, AuthNTLM:
		return sasl.NewLoginClient(t.Username, t.Password)
	default:
		return sasl.NewPlainClient("", t.Username, t.Password)
	}
}

// Send delivers raw to the relay on behalf of from. It dials, optionally
// upgrades to TLS, authenticates, and submits the message. Remote rejections
// surface as *smtp.SMTPError with the server's own reason text.
func (t *Transport) Send(ctx context.Context, from string, rcpts []string, raw []byte) error {
	addr := net.JoinHostPort(t.Host, strconv.Itoa(t.Port))
	dialer := &net.Dialer{Timeout: t.Timeout}

	var (
		conn net.Conn
		err  error
	)
	if t.Security == SecuritySMTPS {
		conn, err = tls.DialWithDialer(dialer, "tcp", addr, t.tlsConfig())
	} else {
		conn, err = dialer.DialContext(ctx, "tcp", addr)
	}
	if err != nil {
		return fmt.Errorf("connecting to %s: %w", addr, err)
	}

	c := smtp.NewClient(conn)
	defer c.Close()
	if t.Timeout > 0 {
		c.CommandTimeout = t.Timeout
		c.SubmissionTimeout = t.Timeout
	}

	if t.Security == SecurityStartTLS {
		if err := c.StartTLS(t.tlsConfig()); err != nil {
			return fmt.Errorf("STARTTLS with %s: %w", t.Host, err)
		}
	}

	if auth := t.saslClient(); auth != nil {
		if err := c.Auth(auth); err != nil {
			return fmt.Errorf("authenticating as %s: %w", t.Username, err)
		}
	}

	if err := c.SendMail(from, rcpts, bytes.NewReader(raw)); err != nil {
		return fmt.Errorf("sending message: %w", err)
	}
	return c.Quit()
}

// RejectionReason extracts the relay's human-readable reason when err wraps
// an SMTP protocol error, or "" otherwise.
func RejectionReason(err error) string {
	var smtpErr *smtp.SMTPError
	if errors.As(err, &smtpErr) {
		return fmt.Sprintf("%d %s", smtpErr.Code, smtpErr.Message)
	}
	return ""
}
