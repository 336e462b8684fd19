package main

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"tc2diag/internal/common/logger"
	"tc2diag/internal/common/runlog"
	"tc2diag/internal/common/security"
	"tc2diag/internal/mail"
)

// auditColumns is the schema of the smtptool audit file.
var auditColumns = []string{"Status", "Relay", "Port", "Security", "From", "To", "Subject", "Error"}

// sendRun executes one complete test send: build, validate, deliver, audit.
// Validation failures are returned as *runError with exitValidation, send
// failures with exitSendFailed.
func sendRun(ctx context.Context, cfg *Config, recipient string, log *runlog.Log, opLog *slog.Logger, audit *logger.CSVAudit) error {
	log.Infof("SMTP test started")
	log.Infof("Relay: %s:%d (%s)", cfg.Transport.Host, cfg.Transport.Port, cfg.Transport.Security)
	if cfg.Transport.Username != "" {
		log.Infof("Authenticating as %s", security.MaskUsername(cfg.Transport.Username))
	}

	msg, err := buildMessage(cfg, recipient, cfg.OverrideFrom, cfg.OverrideName, cfg.AttachmentPath, time.Now(), log)
	if err != nil {
		log.Errorf("Validation failed: %v", err)
		writeAudit(audit, cfg, "", recipient, "", "FAILURE", err)
		return &runError{code: exitValidation, err: err}
	}
	log.Infof("Sender resolved to %s", msg.FromAddress)
	log.Infof("Subject: %s", msg.Subject)

	raw, err := msg.Build(time.Now())
	if err != nil {
		log.Errorf("Building message failed: %v", err)
		writeAudit(audit, cfg, msg.FromAddress, recipient, msg.Subject, "FAILURE", err)
		return &runError{code: exitValidation, err: err}
	}

	opLog.Debug("submitting message", "relay", cfg.Transport.Host, "rcpt", recipient, "bytes", len(raw))
	if err := cfg.Transport.Send(ctx, msg.FromAddress, []string{recipient}, raw); err != nil {
		if reason := mail.RejectionReason(err); reason != "" {
			log.Errorf("Relay rejected the message: %s", reason)
		}
		log.Errorf("Send failed: %v", err)
		writeAudit(audit, cfg, msg.FromAddress, recipient, msg.Subject, "FAILURE", err)
		return &runError{code: exitSendFailed, err: err}
	}

	log.Successf("Message accepted by relay for %s", recipient)
	writeAudit(audit, cfg, msg.FromAddress, recipient, msg.Subject, "SUCCESS", nil)
	return nil
}

func writeAudit(audit *logger.CSVAudit, cfg *Config, from, recipient, subject, status string, err error) {
	if audit == nil {
		return
	}
	errText := ""
	if err != nil {
		errText = err.Error()
	}
	audit.WriteRow([]string{
		status, cfg.Transport.Host, fmt.Sprintf("%d", cfg.Transport.Port),
		string(cfg.Transport.Security), from, recipient, subject, errText,
	})
}
