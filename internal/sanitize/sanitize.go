// Package sanitize cleans user-supplied profile data before it is stored or
// rendered. Display names arrive from registration forms and from federated
// identity providers; both are treated as untrusted.
package sanitize

import (
	"html"
	"net/url"
	"strings"
	"sync"
	"unicode/utf8"

	"github.com/microcosm-cc/bluemonday"
)

// policy strips every HTML element. Initialized once via sync.Once.
var (
	policy     *bluemonday.Policy
	policyOnce sync.Once
)

func getPolicy() *bluemonday.Policy {
	policyOnce.Do(func() {
		policy = bluemonday.StrictPolicy()
	})
	return policy
}

// PlainText removes all markup from input, collapses whitespace and
// truncates the result to maxRunes characters (0 means no limit).
//
// bluemonday escapes the text it keeps; the result is unescaped again so
// templates, which escape on output, don't double-encode ampersands.
func PlainText(input string, maxRunes int) string {
	if input == "" {
		return ""
	}
	out := html.UnescapeString(getPolicy().Sanitize(input))
	out = strings.Join(strings.Fields(out), " ")

	if maxRunes > 0 && utf8.RuneCountInString(out) > maxRunes {
		out = string([]rune(out)[:maxRunes])
	}
	return out
}

// ImageURL returns raw if it is an absolute http(s) URL with a host, and ""
// otherwise. Used for avatar and photo links coming from outside.
func ImageURL(raw string) string {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return ""
	}
	u, err := url.Parse(raw)
	if err != nil || u.Host == "" {
		return ""
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return ""
	}
	return u.String()
}

// Email normalizes an email address for lookups and unique keys.
func Email(raw string) string {
	return strings.ToLower(strings.TrimSpace(raw))
}
