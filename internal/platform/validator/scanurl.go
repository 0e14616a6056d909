// internal/platform/validator/scanurl.go
package validator

import (
	"errors"
	"net"
	"net/netip"
	"net/url"
	"strings"

	"golang.org/x/net/idna"
)

// User-facing validation errors for scan targets.
var (
	ErrInvalidURL        = errors.New("Invalid URL format")
	ErrUnsupportedScheme = errors.New("Only HTTP and HTTPS URLs are allowed")
	ErrInternalHost      = errors.New("Internal URLs are not allowed")
	ErrPrivateAddress    = errors.New("Private IP addresses are not allowed")
	ErrCredentialsInURL  = errors.New("URLs with credentials are not allowed")
)

// blockedHostnames are metadata and loopback names that must never be fetched.
var blockedHostnames = map[string]struct{}{
	"localhost":                {},
	"localhost.localdomain":    {},
	"metadata.google.internal": {},
	"169.254.169.254":          {},
	"metadata.azure.internal":  {},
}

var zeroNet = netip.MustParsePrefix("0.0.0.0/8")

var idnaProfile = idna.New(idna.MapForLookup(), idna.Transitional(false))

// IsScanValidationError reports whether err comes from ValidateScanURL.
func IsScanValidationError(err error) bool {
	return errors.Is(err, ErrInvalidURL) ||
		errors.Is(err, ErrUnsupportedScheme) ||
		errors.Is(err, ErrInternalHost) ||
		errors.Is(err, ErrPrivateAddress) ||
		errors.Is(err, ErrCredentialsInURL)
}

// ValidateScanURL parses a user-supplied URL and rejects anything that would
// make the scanner reach internal infrastructure. A missing scheme defaults
// to https. International hostnames are converted to their ASCII form.
func ValidateScanURL(raw string) (*url.URL, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil, ErrInvalidURL
	}
	if !strings.Contains(raw, "://") {
		raw = "https://" + raw
	}

	u, err := url.Parse(raw)
	if err != nil {
		return nil, ErrInvalidURL
	}

	u.Scheme = strings.ToLower(u.Scheme)
	if u.Scheme != "http" && u.Scheme != "https" {
		return nil, ErrUnsupportedScheme
	}

	host := strings.TrimSuffix(strings.ToLower(u.Hostname()), ".")
	if host == "" {
		return nil, ErrInvalidURL
	}

	if _, blocked := blockedHostnames[host]; blocked {
		return nil, ErrInternalHost
	}

	if addr, err := netip.ParseAddr(host); err == nil {
		if IsNonPublicAddr(addr) {
			return nil, ErrPrivateAddress
		}
	} else {
		ascii, err := idnaProfile.ToASCII(host)
		if err != nil || !IsDomain(ascii) {
			return nil, ErrInvalidURL
		}
		host = ascii
	}

	if u.User != nil {
		return nil, ErrCredentialsInURL
	}

	if port := u.Port(); port != "" {
		u.Host = net.JoinHostPort(host, port)
	} else if strings.Contains(host, ":") {
		u.Host = "[" + host + "]"
	} else {
		u.Host = host
	}
	return u, nil
}

// IsNonPublicAddr reports whether addr is loopback, private, link-local or
// otherwise not routable on the public internet.
func IsNonPublicAddr(addr netip.Addr) bool {
	addr = addr.Unmap()
	return addr.IsLoopback() ||
		addr.IsPrivate() ||
		addr.IsLinkLocalUnicast() ||
		addr.IsLinkLocalMulticast() ||
		addr.IsUnspecified() ||
		(addr.Is4() && zeroNet.Contains(addr))
}

// NormalizeScanURL returns origin + path without a trailing slash.
// Query strings and fragments are dropped, default ports are removed.
func NormalizeScanURL(u *url.URL) string {
	host := strings.ToLower(u.Host)
	switch {
	case u.Scheme == "http" && strings.HasSuffix(host, ":80"):
		host = strings.TrimSuffix(host, ":80")
	case u.Scheme == "https" && strings.HasSuffix(host, ":443"):
		host = strings.TrimSuffix(host, ":443")
	}
	path := strings.TrimSuffix(u.EscapedPath(), "/")
	return u.Scheme + "://" + host + path
}
