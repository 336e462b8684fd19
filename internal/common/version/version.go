// Package version exposes the toolkit version shared by smtptool and
// ldaptool. The VERSION file is embedded at compile time.
package version

import (
	_ "embed"
	"strings"
)

//go:embed VERSION
var raw string

// Version is the current version of the toolkit, trimmed of whitespace.
var Version = strings.TrimSpace(raw)

// Get returns the current version string.
func Get() string {
	return Version
}
