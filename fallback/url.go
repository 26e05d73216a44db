package fallback

import (
	"net"
	"net/url"
	"strconv"
	"strings"
)

// DefaultPort is the conventional port of the fallback server when the base
// URL is derived from the page location.
const DefaultPort = 1420

// ResolveBaseURL picks the fallback base URL.
//
// An explicit non-empty value wins, with any trailing slash trimmed. Otherwise,
// when the page location is known, the result is scheme://hostname:1420.
// The boolean is false when neither source yields a URL, which disables the
// fallback path.
func ResolveBaseURL(explicit string, page *url.URL) (string, bool) {
	if v := strings.TrimRight(strings.TrimSpace(explicit), "/"); v != "" {
		return v, true
	}
	if page == nil || page.Scheme == "" || page.Hostname() == "" {
		return "", false
	}
	host := net.JoinHostPort(page.Hostname(), strconv.Itoa(DefaultPort))
	return page.Scheme + "://" + host, true
}
