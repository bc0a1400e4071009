package lexical

import (
	"net"
	"net/netip"
	"net/url"
	"strings"

	"golang.org/x/net/idna"

	"github.com/Bahjat/phishguard/backend/internal/platform/errs"
)

const (
	msgEmptyURL    = "URL cannot be empty."
	msgInvalidURL  = "Invalid URL format. Please ensure you entered a valid URL (e.g., https://example.com)."
	msgUnsupported = "Only http and https URLs are supported."
	msgMissingHost = "Invalid URL format. The URL has no host."
)

var hostProfile = idna.New(idna.MapForLookup(), idna.Transitional(false))

// Normalize validates raw and returns its canonical absolute form: lower-case
// scheme and host, IDN host in ASCII, no default port, no fragment. Any
// failure is an errs.InvalidInput AppError.
func Normalize(raw string) (string, error) {
	s := strings.TrimSpace(raw)
	if s == "" {
		return "", errs.InvalidURL(msgEmptyURL, nil)
	}

	u, err := url.Parse(s)
	if err != nil {
		return "", errs.InvalidURL(msgInvalidURL, err)
	}
	u.Scheme = strings.ToLower(u.Scheme)
	if u.Scheme != "http" && u.Scheme != "https" {
		return "", errs.InvalidURL(msgUnsupported, nil)
	}
	if u.Opaque != "" || u.Hostname() == "" {
		return "", errs.InvalidURL(msgMissingHost, nil)
	}

	host := canonicalHost(u.Hostname())
	port := u.Port()
	if (u.Scheme == "http" && port == "80") || (u.Scheme == "https" && port == "443") {
		port = ""
	}
	if port != "" {
		u.Host = net.JoinHostPort(host, port)
	} else if strings.Contains(host, ":") {
		u.Host = "[" + host + "]"
	} else {
		u.Host = host
	}

	u.Fragment = ""
	u.RawFragment = ""
	return u.String(), nil
}

// canonicalHost lower-cases host and converts IDN labels to punycode. Hosts
// the IDNA lookup profile rejects (underscores, leading hyphens) are kept as
// typed: they are still fetchable and are exactly the hosts worth scoring.
func canonicalHost(host string) string {
	host = strings.TrimSuffix(strings.ToLower(host), ".")
	if _, err := netip.ParseAddr(host); err == nil {
		return host
	}
	if ascii, err := hostProfile.ToASCII(host); err == nil && ascii != "" {
		return ascii
	}
	return host
}
