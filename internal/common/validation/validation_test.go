package validation

import (
	"os"
	"path/filepath"
	"testing"
)

func TestIsValidEmail(t *testing.T) {
	tests := []struct {
		email string
		want  bool
	}{
		{"user@example.com", true},
		{"ops+tag@relay.corp.local", true},
		{"not-an-email", false},
		{"", false},
		{"@example.com", false},
		{"user@", false},
		{"a@b@c", false},
		{"  user@example.com  ", true},
	}
	for _, tt := range tests {
		t.Run(tt.email, func(t *testing.T) {
			if got := IsValidEmail(tt.email); got != tt.want {
				t.Errorf("IsValidEmail(%q) = %v, want %v", tt.email, got, tt.want)
			}
		})
	}
}

func TestValidateHostname(t *testing.T) {
	tests := []struct {
		name     string
		hostname string
		wantErr  bool
	}{
		{"dns name", "dc01.corp.local", false},
		{"ipv4", "192.0.2.10", false},
		{"ipv6", "2001:db8::1", false},
		{"empty", "", true},
		{"leading hyphen", "-bad.example.com", true},
		{"trailing dot", "bad.example.com.", true},
		{"invalid char", "bad_host", true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateHostname(tt.hostname)
			if (err != nil) != tt.wantErr {
				t.Errorf("ValidateHostname(%q) error = %v, wantErr %v", tt.hostname, err, tt.wantErr)
			}
		})
	}
}

func TestValidatePort(t *testing.T) {
	for _, port := range []int{1, 389, 636, 65535} {
		if err := ValidatePort(port); err != nil {
			t.Errorf("ValidatePort(%d) error = %v, want nil", port, err)
		}
	}
	for _, port := range []int{0, -1, 65536} {
		if err := ValidatePort(port); err == nil {
			t.Errorf("ValidatePort(%d) = nil, want error", port)
		}
	}
}

func TestValidateFilePath(t *testing.T) {
	dir := t.TempDir()
	file := filepath.Join(dir, "attachment.txt")
	if err := os.WriteFile(file, []byte("payload"), 0644); err != nil {
		t.Fatalf("writing temp file: %v", err)
	}

	if err := ValidateFilePath("", "attachment"); err != nil {
		t.Errorf("empty path should be allowed, got %v", err)
	}
	if err := ValidateFilePath(file, "attachment"); err != nil {
		t.Errorf("existing file rejected: %v", err)
	}
	if err := ValidateFilePath(filepath.Join(dir, "missing.txt"), "attachment"); err == nil {
		t.Error("missing file accepted, want error")
	}
	if err := ValidateFilePath(dir, "attachment"); err == nil {
		t.Error("directory accepted, want error")
	}
}
