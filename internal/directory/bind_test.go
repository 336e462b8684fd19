package directory

import (
	"errors"
	"strings"
	"testing"

	"github.com/go-ldap/ldap/v3"

	"tc2diag/internal/common/runlog"
)

type bindCall struct {
	principal string
	password  string
}

// fakeConn is an in-memory directory accepting one principal/password pair.
type fakeConn struct {
	accept   map[string]string
	binds    []bindCall
	searches []string
	entries  []*ldap.Entry
}

func (f *fakeConn) Bind(principal, password string) error {
	f.binds = append(f.binds, bindCall{principal, password})
	if want, ok := f.accept[principal]; ok && want == password {
		return nil
	}
	return ldap.NewError(ldap.LDAPResultInvalidCredentials, errors.New("80090308: LdapErr: DSID-0C090447"))
}

func (f *fakeConn) Search(req *ldap.SearchRequest) (*ldap.SearchResult, error) {
	f.searches = append(f.searches, req.Filter)
	return &ldap.SearchResult{Entries: f.entries}, nil
}

func (f *fakeConn) Close() error { return nil }

func newAuthenticator(cfg *Config, conn *fakeConn) *Authenticator {
	return &Authenticator{
		Config: cfg,
		Dial: func(*Config, *runlog.Log) (Conn, error) {
			return conn, nil
		},
	}
}

func TestAuthenticate_AppendsDomainToBareUsername(t *testing.T) {
	conn := &fakeConn{accept: map[string]string{"jdoe@corp.local": "secret"}}
	auth := newAuthenticator(&Config{Host: "dc01", Domain: "corp.local"}, conn)

	ok, err := auth.Authenticate(Credentials{Username: "jdoe", Password: "secret"}, runlog.New(nil))
	if err != nil {
		t.Fatalf("Authenticate() error: %v", err)
	}
	if !ok {
		t.Fatal("Authenticate() = false, want true")
	}
	if len(conn.binds) != 1 {
		t.Fatalf("bind count = %d, want 1", len(conn.binds))
	}
	if conn.binds[0].principal != "jdoe@corp.local" {
		t.Errorf("first principal = %q, want jdoe@corp.local", conn.binds[0].principal)
	}
}

func TestAuthenticate_KeepsUsernameWithDomain(t *testing.T) {
	conn := &fakeConn{accept: map[string]string{"jdoe@other.com": "secret"}}
	auth := newAuthenticator(&Config{Host: "dc01", Domain: "corp.local"}, conn)

	ok, err := auth.Authenticate(Credentials{Username: "jdoe@other.com", Password: "secret"}, runlog.New(nil))
	if err != nil || !ok {
		t.Fatalf("Authenticate() = %v, %v; want true, nil", ok, err)
	}
	if conn.binds[0].principal != "jdoe@other.com" {
		t.Errorf("principal = %q, domain must not be appended", conn.binds[0].principal)
	}
}

func TestAuthenticate_TrailingCharacterRetryStopsSequence(t *testing.T) {
	// The stored password only matches after the trailing paste artifact is
	// dropped; the raw submitted value differs from the processed one.
	conn := &fakeConn{accept: map[string]string{"jdoe@corp.local": "secret"}}
	auth := newAuthenticator(&Config{
		Host:         "dc01",
		Domain:       "corp.local",
		BindUser:     "svc@corp.local",
		BindPassword: "svcpw",
	}, conn)

	creds := Credentials{Username: "jdoe", Password: "secret\n", RawPassword: "secret\r\n"}
	ok, err := auth.Authenticate(creds, runlog.New(nil))
	if err != nil {
		t.Fatalf("Authenticate() error: %v", err)
	}
	if !ok {
		t.Fatal("Authenticate() = false, want true")
	}
	if len(conn.binds) != 3 {
		t.Fatalf("bind count = %d, want 3 (configured, raw, trimmed)", len(conn.binds))
	}
	if got := conn.binds[2].password; got != "secret" {
		t.Errorf("third attempt password = %q, want trailing character removed", got)
	}
	if len(conn.searches) != 0 {
		t.Errorf("principal lookup ran after success: %v", conn.searches)
	}
}

func TestAuthenticate_NoTrailingRetryForDomainUsername(t *testing.T) {
	conn := &fakeConn{accept: map[string]string{}}
	auth := newAuthenticator(&Config{Host: "dc01", Domain: "corp.local"}, conn)

	ok, err := auth.Authenticate(Credentials{Username: "jdoe@other.com", Password: "secret"}, runlog.New(nil))
	if err != nil {
		t.Fatalf("Authenticate() error: %v", err)
	}
	if ok {
		t.Fatal("Authenticate() = true, want false")
	}
	for _, b := range conn.binds {
		if b.password == "secre" {
			t.Error("trailing-character retry ran for a username that already contained @")
		}
	}
}

func TestAuthenticate_ResolvedPrincipalFallback(t *testing.T) {
	conn := &fakeConn{
		accept: map[string]string{
			"svc@corp.local":        "svcpw",
			"john.doe@corp.example": "secret",
		},
		entries: []*ldap.Entry{
			ldap.NewEntry("cn=John Doe,ou=Users,dc=corp,dc=local", map[string][]string{
				"userPrincipalName": {"john.doe@corp.example"},
			}),
		},
	}
	auth := newAuthenticator(&Config{
		Host:         "dc01",
		Domain:       "corp.local",
		BaseDN:       "dc=corp,dc=local",
		BindUser:     "svc@corp.local",
		BindPassword: "svcpw",
	}, conn)

	ok, err := auth.Authenticate(Credentials{Username: "jdoe", Password: "secret"}, runlog.New(nil))
	if err != nil {
		t.Fatalf("Authenticate() error: %v", err)
	}
	if !ok {
		t.Fatal("Authenticate() = false, want true via resolved principal")
	}
	if len(conn.searches) != 1 || !strings.Contains(conn.searches[0], "sAMAccountName=jdoe") {
		t.Errorf("searches = %v, want one sAMAccountName lookup", conn.searches)
	}
	last := conn.binds[len(conn.binds)-1]
	if last.principal != "john.doe@corp.example" {
		t.Errorf("final bind principal = %q, want resolved UPN", last.principal)
	}
}

func TestAuthenticate_LookupByMailForDomainUsername(t *testing.T) {
	conn := &fakeConn{
		accept: map[string]string{"svc@corp.local": "svcpw"},
	}
	auth := newAuthenticator(&Config{
		Host:         "dc01",
		BaseDN:       "dc=corp,dc=local",
		BindUser:     "svc@corp.local",
		BindPassword: "svcpw",
	}, conn)

	ok, _ := auth.Authenticate(Credentials{Username: "jdoe@other.com", Password: "wrong"}, runlog.New(nil))
	if ok {
		t.Fatal("Authenticate() = true, want false")
	}
	if len(conn.searches) != 1 || !strings.Contains(conn.searches[0], "mail=jdoe@other.com") {
		t.Errorf("searches = %v, want one mail= lookup", conn.searches)
	}
}

func TestAuthenticate_TotalFailureCollectsDiagnostics(t *testing.T) {
	conn := &fakeConn{accept: map[string]string{}}
	auth := newAuthenticator(&Config{Host: "dc01", Domain: "corp.local"}, conn)
	log := runlog.New(nil)

	ok, err := auth.Authenticate(Credentials{Username: "jdoe", Password: "wrong"}, log)
	if err != nil {
		t.Fatalf("Authenticate() error: %v", err)
	}
	if ok {
		t.Fatal("Authenticate() = true, want false")
	}

	var failureLine string
	for _, e := range log.Entries() {
		if e.Level == runlog.Error && strings.Contains(e.Message, "All bind strategies failed") {
			failureLine = e.Message
		}
	}
	if failureLine == "" {
		t.Fatal("no collected failure line logged")
	}
	if !strings.Contains(failureLine, "invalid credentials") {
		t.Errorf("failure line lacks server diagnostic: %q", failureLine)
	}
	if !strings.Contains(failureLine, "configured password") {
		t.Errorf("failure line lacks strategy name: %q", failureLine)
	}
}

func TestAuthenticate_DialFailureAbortsSequence(t *testing.T) {
	auth := &Authenticator{
		Config: &Config{Host: "dc01"},
		Dial: func(*Config, *runlog.Log) (Conn, error) {
			return nil, errors.New("tls: failed to verify certificate")
		},
	}
	ok, err := auth.Authenticate(Credentials{Username: "jdoe", Password: "pw"}, runlog.New(nil))
	if ok {
		t.Error("Authenticate() = true after dial failure")
	}
	if err == nil {
		t.Error("Authenticate() error = nil, want dial error to abort the sequence")
	}
}
