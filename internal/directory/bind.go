package directory

import (
	"errors"
	"fmt"
	"strings"

	"github.com/go-ldap/ldap/v3"

	"tc2diag/internal/common/runlog"
	"tc2diag/internal/common/security"
)

// Credentials carries the caller-supplied identity through the bind
// sequence. RawPassword is the submitted value before any trimming the
// front end applied; it is passed explicitly rather than re-read from
// request state.
type Credentials struct {
	Username    string
	Password    string
	RawPassword string
}

// Authenticator walks the ordered bind strategies against one directory
// connection. dial is swappable for tests.
type Authenticator struct {
	Config *Config
	Dial   func(cfg *Config, log *runlog.Log) (Conn, error)
}

// NewAuthenticator returns an Authenticator using the real dialer.
func NewAuthenticator(cfg *Config) *Authenticator {
	return &Authenticator{Config: cfg, Dial: Dial}
}

// strategy is one bind attempt. run returns success plus any diagnostic text
// the server supplied on failure.
type strategy struct {
	name string
	run  func(conn Conn) (bool, string)
}

// Authenticate derives the candidate principal and tries each bind strategy
// in order, stopping at the first success. The returned error is non-nil
// only for failures that abort the sequence before any bind, such as a TLS
// negotiation failure. On total authentication failure all collected
// diagnostics are logged as a single line.
func (a *Authenticator) Authenticate(creds Credentials, log *runlog.Log) (bool, error) {
	hadDomain := strings.Contains(creds.Username, "@")
	principal := creds.Username
	if !hadDomain && a.Config.Domain != "" {
		principal = creds.Username + "@" + a.Config.Domain
	}
	log.Infof("Candidate principal: %s", security.MaskUsername(principal))

	conn, err := a.Dial(a.Config, log)
	if err != nil {
		return false, err
	}
	defer func() {
		conn.Close()
		log.Infof("Directory connection closed")
	}()

	strategies := a.strategies(principal, hadDomain, creds)

	var diagnostics []string
	for _, s := range strategies {
		log.Infof("Trying bind strategy: %s", s.name)
		ok, diag := s.run(conn)
		if ok {
			log.Successf("Authentication succeeded")
			return true, nil
		}
		if diag != "" {
			diagnostics = append(diagnostics, fmt.Sprintf("%s: %s", s.name, diag))
		}
	}

	if len(diagnostics) > 0 {
		log.Errorf("All bind strategies failed: %s", strings.Join(diagnostics, "; "))
	} else {
		log.Errorf("All bind strategies failed")
	}
	return false, nil
}

// strategies builds the ordered attempt list for one run.
func (a *Authenticator) strategies(principal string, hadDomain bool, creds Credentials) []strategy {
	list := []strategy{
		{"configured password", bindAttempt(principal, creds.Password)},
	}

	if creds.RawPassword != "" && creds.RawPassword != creds.Password {
		list = append(list, strategy{"raw submitted password", bindAttempt(principal, creds.RawPassword)})
	}

	// Trailing-character retry: compensates for a known paste artifact where
	// clients append a newline to the password field. Applied only when the
	// username did not carry its own domain.
	if !hadDomain && len(creds.Password) > 1 {
		trimmed := creds.Password[:len(creds.Password)-1]
		list = append(list, strategy{"password minus trailing character", bindAttempt(principal, trimmed)})
	}

	if a.Config.BindUser != "" && a.Config.BindPassword != "" {
		list = append(list, strategy{"resolved userPrincipalName", a.resolvedPrincipalAttempt(hadDomain, creds)})
	}

	return list
}

// bindAttempt returns a strategy body performing one simple bind.
func bindAttempt(principal, password string) func(conn Conn) (bool, string) {
	return func(conn Conn) (bool, string) {
		if password == "" {
			return false, "empty password"
		}
		if err := conn.Bind(principal, password); err != nil {
			return false, bindDiagnostic(err)
		}
		return true, ""
	}
}

// resolvedPrincipalAttempt binds as the service account, looks up the
// caller's userPrincipalName by sAMAccountName (or by mail when the caller
// already typed a full address), and retries authentication with the
// resolved principal.
func (a *Authenticator) resolvedPrincipalAttempt(hadDomain bool, creds Credentials) func(conn Conn) (bool, string) {
	return func(conn Conn) (bool, string) {
		if err := conn.Bind(a.Config.BindUser, a.Config.BindPassword); err != nil {
			return false, fmt.Sprintf("service account bind failed: %s", bindDiagnostic(err))
		}

		attr := "sAMAccountName"
		if hadDomain {
			attr = "mail"
		}
		filter := fmt.Sprintf("(%s=%s)", attr, ldap.EscapeFilter(creds.Username))

		req := ldap.NewSearchRequest(
			a.Config.SearchBase(),
			ldap.ScopeWholeSubtree, ldap.NeverDerefAliases, 1, 0, false,
			filter,
			[]string{"userPrincipalName"},
			nil,
		)
		res, err := conn.Search(req)
		if err != nil {
			return false, fmt.Sprintf("principal lookup failed: %s", bindDiagnostic(err))
		}
		if len(res.Entries) == 0 {
			return false, fmt.Sprintf("no directory entry matched %s", filter)
		}

		upn := res.Entries[0].GetAttributeValue("userPrincipalName")
		if upn == "" {
			return false, "matched entry has no userPrincipalName"
		}
		if err := conn.Bind(upn, creds.Password); err != nil {
			return false, bindDiagnostic(err)
		}
		return true, ""
	}
}

// bindDiagnostic extracts the server-supplied diagnostic text from a go-ldap
// error. Invalid credentials are reported as such rather than by raw result
// code.
func bindDiagnostic(err error) string {
	if err == nil {
		return ""
	}
	if ldap.IsErrorWithCode(err, ldap.LDAPResultInvalidCredentials) {
		return "invalid credentials"
	}
	var ldapErr *ldap.Error
	if errors.As(err, &ldapErr) {
		return fmt.Sprintf("%s (result code %d)", ldap.LDAPResultCodeMap[ldapErr.ResultCode], ldapErr.ResultCode)
	}
	return err.Error()
}
