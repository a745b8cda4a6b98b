package config

import (
	"fmt"
	"net/url"
	"strings"
)

const keyVisibleChars = 4

// RedactURL masks the password of a connection URL with "***" so it can be
// printed. Unparseable input and URLs without a password come back unchanged.
func RedactURL(raw string) string {
	u, err := url.Parse(raw)
	if err != nil || u.User == nil {
		return raw
	}

	if _, hasPassword := u.User.Password(); !hasPassword {
		return raw
	}

	// Splice on the raw string so the rest of the URL keeps its original escaping.
	rest, ok := strings.CutPrefix(raw, u.Scheme+"://")
	if !ok {
		return raw
	}

	at := strings.Index(rest, "@")
	colon := strings.Index(rest, ":")

	if at < 0 || colon < 0 || colon > at {
		return raw
	}

	return u.Scheme + "://" + rest[:colon+1] + "***" + rest[at:]
}

// RedactKey keeps the last few characters of an API key for identification.
func RedactKey(key string) string {
	if len(key) <= keyVisibleChars*2 {
		return strings.Repeat("*", len(key))
	}

	return "***" + key[len(key)-keyVisibleChars:]
}

func checkHTTPURL(raw string) error {
	u, err := url.Parse(raw)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidURL, err)
	}

	if (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return fmt.Errorf("%w: %q must be an absolute http(s) URL", ErrInvalidURL, raw)
	}

	return nil
}
