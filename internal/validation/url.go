// Package validation checks the URLs tgscope talks to or opens.
package validation

import (
	"errors"
	"fmt"
	"net"
	"net/netip"
	"net/url"
	"strings"
)

// ErrInvalidURL matches every rejection by a URLPolicy.
var ErrInvalidURL = errors.New("invalid URL")

const defaultMaxLength = 2048

// URLPolicy decides which URLs are acceptable for one purpose.
type URLPolicy struct {
	// Name appears in error messages, e.g. "feed URL".
	Name string
	// AllowLocalhost permits localhost and loopback hosts.
	AllowLocalhost bool
	// AllowPrivateIPs permits private and link-local addresses.
	AllowPrivateIPs bool
	// DefaultScheme is prepended when the input has no scheme. Empty means a
	// scheme is required.
	DefaultScheme string
	// AllowedHosts restricts the host to these names and their subdomains.
	AllowedHosts []string
	MaxLength    int
}

// BackendPolicy accepts the search backend's base URL. Backends commonly run
// on the same machine, so loopback and private addresses are fine.
func BackendPolicy() URLPolicy {
	return URLPolicy{
		Name:            "backend URL",
		AllowLocalhost:  true,
		AllowPrivateIPs: true,
		MaxLength:       defaultMaxLength,
	}
}

// FeedPolicy accepts channel feed URLs for import.
func FeedPolicy() URLPolicy {
	return URLPolicy{
		Name:          "feed URL",
		DefaultScheme: "https",
		MaxLength:     defaultMaxLength,
	}
}

// PostPolicy accepts links to Telegram posts handed to the system opener.
func PostPolicy() URLPolicy {
	return URLPolicy{
		Name:         "post URL",
		AllowedHosts: []string{"t.me", "telegram.me"},
		MaxLength:    defaultMaxLength,
	}
}

// Normalize validates raw against the policy and returns its canonical form
// without a trailing slash on the root path.
func (p URLPolicy) Normalize(raw string) (string, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return "", p.errorf("cannot be empty")
	}
	maxLen := p.MaxLength
	if maxLen <= 0 {
		maxLen = defaultMaxLength
	}
	if len(raw) > maxLen {
		return "", p.errorf("too long (max %d characters)", maxLen)
	}
	if strings.ContainsAny(raw, "<>\"'` ") {
		return "", p.errorf("contains invalid characters")
	}

	if !strings.Contains(raw, "://") {
		if p.DefaultScheme == "" {
			return "", p.errorf("must start with http:// or https://")
		}
		raw = p.DefaultScheme + "://" + raw
	}

	u, err := url.Parse(raw)
	if err != nil {
		return "", p.errorf("malformed: %v", err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return "", p.errorf("must use http or https")
	}
	if u.User != nil {
		return "", p.errorf("must not carry credentials")
	}
	host := u.Hostname()
	if host == "" {
		return "", p.errorf("must have a host")
	}
	if err := p.checkHost(strings.ToLower(host)); err != nil {
		return "", err
	}
	if strings.Contains(u.Path, "..") {
		return "", p.errorf("path must not contain '..'")
	}

	if u.Path == "/" {
		u.Path = ""
	}
	return u.String(), nil
}

func (p URLPolicy) checkHost(host string) error {
	if len(p.AllowedHosts) > 0 {
		for _, allowed := range p.AllowedHosts {
			if host == allowed || strings.HasSuffix(host, "."+allowed) {
				return nil
			}
		}
		return p.errorf("host %q is not allowed", host)
	}

	if isLocalhost(host) {
		if !p.AllowLocalhost {
			return p.errorf("localhost is not permitted")
		}
		return nil
	}

	addr, err := netip.ParseAddr(host)
	if err != nil {
		return nil
	}
	if addr.IsUnspecified() || addr.IsMulticast() || addr == netip.AddrFrom4([4]byte{255, 255, 255, 255}) {
		return p.errorf("address %s is not routable", host)
	}
	if addr.IsLoopback() && !p.AllowLocalhost {
		return p.errorf("loopback addresses are not permitted")
	}
	if (addr.IsPrivate() || addr.IsLinkLocalUnicast()) && !p.AllowPrivateIPs {
		return p.errorf("private addresses are not permitted")
	}
	return nil
}

func (p URLPolicy) errorf(format string, args ...any) error {
	name := p.Name
	if name == "" {
		name = "URL"
	}
	return fmt.Errorf("%w: %s %s", ErrInvalidURL, name, fmt.Sprintf(format, args...))
}

func isLocalhost(host string) bool {
	if host == "localhost" || strings.HasSuffix(host, ".localhost") {
		return true
	}
	ip := net.ParseIP(host)
	return ip != nil && ip.IsLoopback()
}

// BackendURL normalizes the search backend base URL.
func BackendURL(raw string) (string, error) {
	return BackendPolicy().Normalize(raw)
}

// FeedURL normalizes a feed URL for import.
func FeedURL(raw string) (string, error) {
	return FeedPolicy().Normalize(raw)
}

// PostURL checks a post link before it is opened.
func PostURL(raw string) (string, error) {
	return PostPolicy().Normalize(raw)
}
