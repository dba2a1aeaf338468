package audit

import (
	"errors"
	"net"
	"net/url"
	"regexp"
	"strings"
)

var schemePrefix = regexp.MustCompile(`^[a-zA-Z][a-zA-Z0-9+.-]*://`)

// Normalizer validates and canonicalizes audit targets. It performs no I/O.
type Normalizer struct {
	blocked      *domainPatternBlocklist
	allowPrivate bool
}

// NewNormalizer builds a Normalizer that, in addition to the built-in
// local/private host check, rejects hosts matching blockedDomains
// (exact hosts or "*.suffix" wildcards). allowPrivate disables the built-in
// check and exists for tests against loopback servers.
func NewNormalizer(blockedDomains []string, allowPrivate bool) *Normalizer {
	return &Normalizer{blocked: newDomainPatternBlocklist(blockedDomains), allowPrivate: allowPrivate}
}

// NormalizeURL canonicalizes raw with the default Normalizer.
func NormalizeURL(raw string) (string, error) {
	return (&Normalizer{}).Normalize(raw)
}

// Normalize returns the canonical absolute form of raw. Missing schemes default
// to https; fragments and default ports are stripped and the host is lowercased.
func (n *Normalizer) Normalize(raw string) (string, error) {
	work := strings.TrimSpace(raw)
	if work == "" {
		return "", invalidURL("Empty URL", nil)
	}
	if !schemePrefix.MatchString(work) {
		work = "https://" + work
	}

	u, err := url.Parse(work)
	if err != nil {
		return "", invalidURL("Invalid URL", err)
	}
	u.Scheme = strings.ToLower(u.Scheme)
	if u.Scheme != "http" && u.Scheme != "https" {
		return "", invalidURL("Only http/https allowed", nil)
	}
	host := strings.ToLower(u.Hostname())
	if host == "" {
		return "", invalidURL("Invalid URL", errors.New("missing host"))
	}
	if (!n.allowPrivate && isPrivateHost(host)) || n.blocked.IsBlocked(host) {
		return "", BlockedHostError(host)
	}

	port := u.Port()
	if (u.Scheme == "http" && port == "80") || (u.Scheme == "https" && port == "443") {
		port = ""
	}
	switch {
	case port != "":
		u.Host = net.JoinHostPort(host, port)
	case strings.Contains(host, ":"):
		u.Host = "[" + host + "]"
	default:
		u.Host = host
	}
	u.Fragment = ""
	u.RawFragment = ""
	if u.Path == "" {
		u.Path = "/"
	}
	return u.String(), nil
}

// IsSecure reports whether a canonical URL uses the https scheme.
func IsSecure(canonical string) bool {
	return strings.HasPrefix(strings.ToLower(canonical), "https:")
}
