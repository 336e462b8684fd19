// Package envfile loads flat KEY=VALUE configuration files of the kind the
// TC2 installer writes next to each deployment (.env style, # comments,
// optional double quoting). It deliberately does not implement shell escape
// or variable expansion semantics: values are taken literally.
package envfile

import (
	"bufio"
	"os"
	"strconv"
	"strings"
)

// Map is an immutable-by-convention view of a parsed env file.
// Lookups of absent keys yield the empty string.
type Map map[string]string

// Load reads the file at path and returns the parsed mapping.
// A missing file is not an error: it yields an empty Map, so callers can
// treat "no config file" the same as "empty config file".
//
// Parsing rules:
//   - blank lines and lines starting with # are skipped
//   - each remaining line is split on the first '='
//   - key and value are trimmed of surrounding whitespace
//   - exactly one layer of surrounding double quotes is stripped from the value
//   - the last occurrence of a duplicate key wins
//   - lines without '=' are silently skipped
func Load(path string) (Map, error) {
	f, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return Map{}, nil
		}
		return nil, err
	}
	defer f.Close()

	m := Map{}
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		key, value, ok := strings.Cut(line, "=")
		if !ok {
			continue
		}
		key = strings.TrimSpace(key)
		value = strings.TrimSpace(value)
		if key == "" {
			continue
		}
		if len(value) >= 2 && strings.HasPrefix(value, `"`) && strings.HasSuffix(value, `"`) {
			value = value[1 : len(value)-1]
		}
		m[key] = value
	}
	if err := scanner.Err(); err != nil {
		return nil, err
	}
	return m, nil
}

// Get returns the trimmed value for key, or "" when absent.
func (m Map) Get(key string) string {
	return strings.TrimSpace(m[key])
}

// GetDefault returns the value for key, or def when the value is empty.
func (m Map) GetDefault(key, def string) string {
	if v := m.Get(key); v != "" {
		return v
	}
	return def
}

// GetBool interprets common truthy spellings ("1", "true", "yes", "on").
// Anything else, including an absent key, is false.
func (m Map) GetBool(key string) bool {
	switch strings.ToLower(m.Get(key)) {
	case "1", "true", "yes", "on":
		return true
	}
	return false
}

// GetInt returns the integer value for key, or def when the value is empty
// or not a valid integer.
func (m Map) GetInt(key string, def int) int {
	v := m.Get(key)
	if v == "" {
		return def
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return def
	}
	return n
}
