// Package identity signs users up and in, issues JWT sessions and revokes them.
package identity

import "strings"

// EmailDomain is appended to bare handles to form the login email.
const EmailDomain = "twitterclone.com"

// LoginEmail maps a handle to the email it logs in with. A value that already
// contains "@" is used as is.
func LoginEmail(handle string) string {
	h := strings.ToLower(strings.TrimSpace(handle))
	if h == "" || strings.Contains(h, "@") {
		return h
	}
	return h + "@" + EmailDomain
}

// usernameOf returns the public handle for a sign-up value.
func usernameOf(handle string) string {
	h := strings.ToLower(strings.TrimSpace(handle))
	if i := strings.IndexByte(h, '@'); i >= 0 {
		return h[:i]
	}
	return h
}
