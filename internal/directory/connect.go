// Package directory implements the LDAP/Active Directory bind tester: it
// builds the connection from the env-file configuration, walks an ordered
// list of bind strategies, and on total failure runs connectivity
// diagnostics. The wire protocol is delegated to go-ldap.
package directory

import (
	"crypto/tls"
	"crypto/x509"
	"fmt"
	"net"
	"os"
	"strings"
	"time"

	"github.com/go-ldap/ldap/v3"

	"tc2diag/internal/common/runlog"
)

const (
	// DefaultPort is the plain LDAP port used when none is configured.
	DefaultPort = 389
	// LDAPSPort triggers implicit TLS.
	LDAPSPort = 636

	// networkTimeout bounds dial and per-request I/O on the directory
	// connection.
	networkTimeout = 10 * time.Second
)

// Config holds the directory server settings read from the env file.
type Config struct {
	Host   string
	Port   int // 0 means DefaultPort
	Domain string
	BaseDN string

	// Service account used only to resolve the caller's userPrincipalName.
	BindUser     string
	BindPassword string

	CACertFile    string
	AllowInsecure bool
}

// EffectivePort returns the configured port, or DefaultPort when unset.
func (c *Config) EffectivePort() int {
	if c.Port > 0 {
		return c.Port
	}
	return DefaultPort
}

// UseLDAPS reports whether the connection uses implicit TLS, which is keyed
// off the well-known LDAPS port.
func (c *Config) UseLDAPS() bool {
	return c.EffectivePort() == LDAPSPort
}

// URL renders the ldap:// or ldaps:// URL for this configuration.
func (c *Config) URL() string {
	scheme := "ldap"
	if c.UseLDAPS() {
		scheme = "ldaps"
	}
	return fmt.Sprintf("%s://%s:%d", scheme, c.Host, c.EffectivePort())
}

// SearchBase returns the configured base DN, deriving one from the domain
// (corp.local -> dc=corp,dc=local) when none is configured.
func (c *Config) SearchBase() string {
	if c.BaseDN != "" {
		return c.BaseDN
	}
	if c.Domain == "" {
		return ""
	}
	parts := strings.Split(c.Domain, ".")
	for i, p := range parts {
		parts[i] = "dc=" + p
	}
	return strings.Join(parts, ",")
}

// Conn is the slice of *ldap.Conn the bind tester needs. It exists so tests
// can substitute a fake directory.
type Conn interface {
	Bind(username, password string) error
	Search(req *ldap.SearchRequest) (*ldap.SearchResult, error)
	Close() error
}

// tlsConfig builds the TLS client configuration for the directory
// connection. Verification is relaxed only when the operator explicitly
// allowed it and no CA certificate is configured.
func (c *Config) tlsConfig() (*tls.Config, error) {
	cfg := &tls.Config{ServerName: c.Host}
	if c.CACertFile != "" {
		pool, err := loadCAPool(c.CACertFile)
		if err != nil {
			return nil, err
		}
		cfg.RootCAs = pool
	} else if c.AllowInsecure {
		cfg.InsecureSkipVerify = true
	}
	return cfg, nil
}

func loadCAPool(path string) (*x509.CertPool, error) {
	pem, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading CA certificate %s: %w", path, err)
	}
	pool := x509.NewCertPool()
	if !pool.AppendCertsFromPEM(pem) {
		return nil, fmt.Errorf("CA certificate %s contains no usable PEM certificates", path)
	}
	return pool, nil
}

// Dial connects to the directory server. For LDAPS the TLS handshake happens
// during dial; for plain LDAP with a configured CA certificate the
// connection is upgraded via STARTTLS before any bind. A TLS failure here
// aborts the whole bind sequence.
func Dial(cfg *Config, log *runlog.Log) (Conn, error) {
	tlsCfg, err := cfg.tlsConfig()
	if err != nil {
		return nil, err
	}

	log.Infof("Connecting to %s", cfg.URL())
	conn, err := ldap.DialURL(cfg.URL(),
		ldap.DialWithDialer(&net.Dialer{Timeout: networkTimeout}),
		ldap.DialWithTLSConfig(tlsCfg),
	)
	if err != nil {
		return nil, fmt.Errorf("connecting to %s: %w", cfg.URL(), err)
	}
	conn.SetTimeout(networkTimeout)
	log.Infof("Connection established, network timeout %s", networkTimeout)

	// go-ldap speaks LDAPv3 and does not chase referrals, matching the
	// protocol options the tester requires.
	if !cfg.UseLDAPS() && cfg.CACertFile != "" {
		log.Infof("Starting TLS upgrade (STARTTLS) with CA file %s", cfg.CACertFile)
		if err := conn.StartTLS(tlsCfg); err != nil {
			conn.Close()
			return nil, fmt.Errorf("STARTTLS with %s: %w", cfg.Host, err)
		}
		log.Successf("STARTTLS completed")
	}

	return conn, nil
}
