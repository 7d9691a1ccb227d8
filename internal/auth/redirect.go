package auth

import (
	"net/url"
	"strings"
)

// SafeNext returns next if it is a same-origin absolute path, otherwise fallback.
// Rejects scheme-relative ("//host") and backslash variants browsers treat as hosts.
func SafeNext(next, fallback string) string {
	next = strings.TrimSpace(next)
	if next == "" || !strings.HasPrefix(next, "/") {
		return fallback
	}
	if strings.HasPrefix(next, "//") || strings.HasPrefix(next, "/\\") || strings.ContainsAny(next, "\r\n") {
		return fallback
	}
	u, err := url.Parse(next)
	if err != nil || u.Scheme != "" || u.Host != "" {
		return fallback
	}
	return next
}

// WithNext appends next as the query parameter of path.
func WithNext(path, next string) string {
	return path + "?next=" + url.QueryEscape(next)
}
