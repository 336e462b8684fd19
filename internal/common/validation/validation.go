// Package validation provides the input checks both diagnostic tools run
// before touching the network. Failures here abort a run without any
// connection attempt.
package validation

import (
	"fmt"
	"net"
	"os"
	"strings"
)

// ValidateEmail performs basic email format validation: exactly one @ with a
// non-empty local part and domain. The relay performs the authoritative
// check; this only catches obviously broken input before a connection is
// opened.
func ValidateEmail(email string) error {
	email = strings.TrimSpace(email)
	if email == "" {
		return fmt.Errorf("email address cannot be empty")
	}
	local, domain, ok := strings.Cut(email, "@")
	if !ok {
		return fmt.Errorf("invalid email address %q (missing @)", email)
	}
	if local == "" || domain == "" || strings.Contains(domain, "@") {
		return fmt.Errorf("invalid email address %q", email)
	}
	return nil
}

// IsValidEmail is the boolean form of ValidateEmail.
func IsValidEmail(email string) bool {
	return ValidateEmail(email) == nil
}

// ValidateHostname accepts DNS names and literal IPv4/IPv6 addresses.
func ValidateHostname(hostname string) error {
	hostname = strings.TrimSpace(hostname)
	if hostname == "" {
		return fmt.Errorf("hostname cannot be empty")
	}
	if net.ParseIP(hostname) != nil {
		return nil
	}
	if len(hostname) > 253 {
		return fmt.Errorf("hostname too long (max 253 characters)")
	}
	for _, ch := range hostname {
		if !((ch >= 'a' && ch <= 'z') || (ch >= 'A' && ch <= 'Z') ||
			(ch >= '0' && ch <= '9') || ch == '.' || ch == '-') {
			return fmt.Errorf("hostname contains invalid character %q", ch)
		}
	}
	if strings.HasPrefix(hostname, "-") || strings.HasSuffix(hostname, "-") ||
		strings.HasPrefix(hostname, ".") || strings.HasSuffix(hostname, ".") {
		return fmt.Errorf("hostname cannot start or end with hyphen or dot")
	}
	return nil
}

// ValidatePort checks the valid TCP port range.
func ValidatePort(port int) error {
	if port < 1 || port > 65535 {
		return fmt.Errorf("port must be between 1 and 65535 (got %d)", port)
	}
	return nil
}

// ValidateFilePath verifies that path names an existing regular file.
// Empty paths are allowed; the corresponding features are optional.
func ValidateFilePath(path, fieldName string) error {
	if path == "" {
		return nil
	}
	info, err := os.Stat(path)
	if err != nil {
		if os.IsNotExist(err) {
			return fmt.Errorf("%s: file not found: %s", fieldName, path)
		}
		if os.IsPermission(err) {
			return fmt.Errorf("%s: permission denied: %s", fieldName, path)
		}
		return fmt.Errorf("%s: cannot access file: %w", fieldName, err)
	}
	if !info.Mode().IsRegular() {
		return fmt.Errorf("%s: not a regular file: %s", fieldName, path)
	}
	return nil
}
