package main

import (
	"fmt"
	"slices"
	"time"

	"tc2diag/internal/common/runlog"
	"tc2diag/internal/common/validation"
	"tc2diag/internal/mail"
)

// defaultBody is the fixed body used when the env file configures none.
const defaultBody = "This is an automated test message confirming the SMTP relay accepts mail from this host."

// resolveSender applies the sender precedence rules:
//  1. with an allow-list configured and both override fields supplied, the
//     override wins only when its address is on the list; a mismatch keeps
//     the default and logs a warning
//  2. without an applicable allow-list, override fields replace the default
//     field by field
//  3. the force-account-sender flag makes the authentication username win
//     over everything
//
// The returned address may still be empty; buildMessage applies the
// team-address/username fallback afterwards.
func resolveSender(cfg *Config, overrideAddr, overrideName string, log *runlog.Log) (addr, name string) {
	addr, name = cfg.FromAddress, cfg.FromName

	if len(cfg.AllowedSenders) > 0 && overrideAddr != "" && overrideName != "" {
		if slices.Contains(cfg.AllowedSenders, overrideAddr) {
			addr, name = overrideAddr, overrideName
		} else {
			log.Warningf("Sender %s is not in the configured allow-list, keeping default sender", overrideAddr)
		}
	} else {
		if overrideAddr != "" {
			addr = overrideAddr
		}
		if overrideName != "" {
			name = overrideName
		}
	}

	if cfg.ForceAccountSender && cfg.Transport.Username != "" {
		addr = cfg.Transport.Username
	}
	return addr, name
}

// buildMessage assembles and validates the test message for one run.
// Validation failures carry no partial message; the first failed check wins.
func buildMessage(cfg *Config, recipient, overrideAddr, overrideName, attachment string, now time.Time, log *runlog.Log) (*mail.Message, error) {
	if err := validation.ValidateEmail(recipient); err != nil {
		return nil, fmt.Errorf("recipient: %w", err)
	}
	if cfg.Transport.Host == "" {
		return nil, fmt.Errorf("relay host missing (%sHOST)", envPrefix)
	}

	from, fromName := resolveSender(cfg, overrideAddr, overrideName, log)
	if from == "" {
		from = cfg.TeamAddress
		if from == "" {
			from = cfg.Transport.Username
		}
	}
	if from == "" {
		return nil, fmt.Errorf("no sender available: configure %sFROM_ADDRESS, %sTEAM_ADDRESS or %sUSERNAME", envPrefix, envPrefix, envPrefix)
	}
	if cfg.ReplyTo != "" {
		if err := validation.ValidateEmail(cfg.ReplyTo); err != nil {
			return nil, fmt.Errorf("reply-to: %w", err)
		}
	}
	if overrideAddr != "" {
		if err := validation.ValidateEmail(overrideAddr); err != nil {
			return nil, fmt.Errorf("override sender: %w", err)
		}
	}
	if err := validation.ValidateFilePath(attachment, "attachment"); err != nil {
		return nil, err
	}

	subject := cfg.Subject
	if subject == "" {
		subject = "SMTP health check " + now.Format("2006-01-02 15:04:05")
	}
	body := cfg.Body
	if body == "" {
		body = defaultBody
	}

	return &mail.Message{
		To:             recipient,
		FromAddress:    from,
		FromName:       fromName,
		ReplyTo:        cfg.ReplyTo,
		Subject:        subject,
		Body:           body,
		HTML:           cfg.HTML,
		TagHeader:      cfg.TagHeader,
		TagValue:       cfg.TagValue,
		AttachmentPath: attachment,
	}, nil
}
