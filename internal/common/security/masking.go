// Package security holds helpers for keeping credentials out of logs.
// Every username, principal or password the tools log goes through one of
// these masks first.
package security

// MaskUsername masks a username or principal for safe logging. It keeps the
// first and last two characters so an operator can still tell which account
// was used; anything four characters or shorter is fully masked.
func MaskUsername(username string) string {
	if len(username) <= 4 {
		return "****"
	}
	return username[:2] + "****" + username[len(username)-2:]
}

// MaskPassword masks a password for safe logging. Empty stays empty so log
// lines still show when no password was supplied at all.
func MaskPassword(password string) string {
	if len(password) == 0 {
		return ""
	}
	if len(password) <= 4 {
		return "****"
	}
	return password[:2] + "****" + password[len(password)-2:]
}
