package main

import (
	"fmt"
	"log/slog"

	"tc2diag/internal/common/logger"
	"tc2diag/internal/common/runlog"
	"tc2diag/internal/common/security"
	"tc2diag/internal/directory"
)

// auditColumns is the schema of the ldaptool audit file.
var auditColumns = []string{"Status", "Server", "Port", "Username", "Error"}

// missingInputError marks aborts before any network call: no host configured
// or no credentials supplied.
type missingInputError struct{ what string }

func (e *missingInputError) Error() string { return e.what + " missing" }

// bindRun executes one complete bind test: config summary, credential check,
// the bind-strategy sequence, and connectivity diagnostics on total failure.
// It returns (true, nil) on successful authentication, (false, nil) when the
// server rejected every strategy, and a *missingInputError when required
// input is absent.
func bindRun(cfg *Config, auth *directory.Authenticator, creds directory.Credentials, log *runlog.Log, opLog *slog.Logger, audit *logger.CSVAudit) (bool, error) {
	log.Infof("LDAP bind test started")

	dir := &cfg.Directory
	if cfg.PortErr != nil {
		log.Warningf("%v", cfg.PortErr)
	}
	if dir.Host == "" {
		err := &missingInputError{what: fmt.Sprintf("directory host (%sHOST)", envPrefix)}
		log.Errorf("%v", err)
		writeAudit(audit, dir, creds.Username, "FAILURE", err)
		return false, err
	}
	if creds.Username == "" || creds.Password == "" {
		err := &missingInputError{what: "username or password"}
		log.Errorf("%v", err)
		writeAudit(audit, dir, creds.Username, "FAILURE", err)
		return false, err
	}

	log.Infof("Server: %s", dir.URL())
	log.Infof("Search base: %s", dir.SearchBase())
	log.Infof("TLS mode: %s", directory.ClassifyTLSMode(dir.EffectivePort()))
	if dir.CACertFile != "" {
		log.Infof("CA certificate: %s", dir.CACertFile)
	}
	if dir.AllowInsecure {
		log.Warningf("Certificate verification relaxed (ALLOW_INSECURE set)")
	}
	log.Infof("Testing credentials for %s", security.MaskUsername(creds.Username))

	ok, err := auth.Authenticate(creds, log)
	if err != nil {
		// Connection or TLS setup failed before any bind. The diagnostics
		// below usually explain why.
		log.Errorf("Connection failed: %v", err)
		opLog.Debug("bind sequence aborted", "error", err)
	}
	if !ok {
		directory.RunDiagnostics(dir, log)
		writeAudit(audit, dir, creds.Username, "FAILURE", err)
		return false, nil
	}

	writeAudit(audit, dir, creds.Username, "SUCCESS", nil)
	return true, nil
}

func writeAudit(audit *logger.CSVAudit, dir *directory.Config, username, status string, err error) {
	if audit == nil {
		return
	}
	errText := ""
	if err != nil {
		errText = err.Error()
	}
	audit.WriteRow([]string{
		status, dir.Host, fmt.Sprintf("%d", dir.EffectivePort()),
		security.MaskUsername(username), errText,
	})
}
