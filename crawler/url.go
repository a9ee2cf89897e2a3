package crawler

import (
	"errors"
	"fmt"
	"net/url"
	"path"
	"sort"
	"strings"

	"github.com/use-agent/reader/models"
)

// defaultPorts maps schemes to their default port strings.
var defaultPorts = map[string]string{
	"http":  "80",
	"https": "443",
}

var (
	errEmptyInput        = errors.New("empty input")
	errUnsupportedScheme = errors.New("unsupported scheme")
	errMissingHost       = errors.New("missing host")
	errInvalidHost       = errors.New("invalid host")
)

// NormalizeURL canonicalizes user input into an absolute http(s) URL.
//
// Surrounding whitespace is trimmed and scheme-less input is read as http.
// Scheme and host are lowercased, default ports and user info are dropped,
// dot-segments and trailing slashes are removed, query parameters are sorted
// and tracking parameters stripped. The path is cleaned in its escaped form,
// so an encoded "/" stays encoded. The fragment and a leading "www." are kept.
//
// Every failure is a ScrapeError with code INVALID_URL.
func NormalizeURL(raw string) (*url.URL, error) {
	u, err := normalize(raw)
	if err != nil {
		return nil, models.InvalidURLError(raw, err)
	}
	return u, nil
}

func normalize(raw string) (*url.URL, error) {
	s := strings.TrimSpace(raw)
	if s == "" {
		return nil, errEmptyInput
	}
	if !hasScheme(s) {
		s = "http://" + strings.TrimPrefix(s, "//")
	}

	u, err := url.Parse(s)
	if err != nil {
		return nil, fmt.Errorf("parse: %w", err)
	}

	scheme := strings.ToLower(u.Scheme)
	if scheme != "http" && scheme != "https" {
		return nil, fmt.Errorf("%w %q", errUnsupportedScheme, u.Scheme)
	}
	if u.Opaque != "" || u.Hostname() == "" {
		return nil, errMissingHost
	}
	if !validHost(u.Hostname()) {
		return nil, fmt.Errorf("%w %q", errInvalidHost, u.Hostname())
	}

	u.Scheme = scheme
	u.User = nil
	u.Host = normalizeHost(u)
	escaped := normalizePath(u.EscapedPath())
	decoded, err := url.PathUnescape(escaped)
	if err != nil {
		return nil, fmt.Errorf("path: %w", err)
	}
	u.Path, u.RawPath = decoded, escaped
	u.RawQuery = buildCleanQuery(parseQuery(u.RawQuery))
	u.ForceQuery = false

	return u, nil
}

// hasScheme reports whether s starts with "<scheme>://".
func hasScheme(s string) bool {
	i := strings.Index(s, "://")
	if i <= 0 {
		return false
	}
	for j, r := range s[:i] {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z':
		case j > 0 && (r >= '0' && r <= '9' || r == '+' || r == '-' || r == '.'):
		default:
			return false
		}
	}
	return true
}

// validHost accepts DNS names, IPv4 literals and bracket-stripped IPv6
// literals. Anything else (spaces, punctuation) is rejected.
func validHost(host string) bool {
	if strings.Contains(host, ":") {
		for _, r := range host {
			if !isHex(r) && r != ':' && r != '.' {
				return false
			}
		}
		return true
	}
	if strings.HasPrefix(host, ".") || strings.HasSuffix(host, "..") {
		return false
	}
	for _, label := range strings.Split(strings.TrimSuffix(host, "."), ".") {
		if label == "" || strings.HasPrefix(label, "-") || strings.HasSuffix(label, "-") {
			return false
		}
		for _, r := range label {
			if !isHostRune(r) {
				return false
			}
		}
	}
	return true
}

func isHex(r rune) bool {
	return r >= '0' && r <= '9' || r >= 'a' && r <= 'f' || r >= 'A' && r <= 'F'
}

// isHostRune allows ASCII letters, digits, '-', '_' and non-ASCII letters
// (internationalized names before punycode).
func isHostRune(r rune) bool {
	switch {
	case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9':
		return true
	case r == '-' || r == '_':
		return true
	default:
		return r > 0x7f
	}
}

// normalizeHost lowercases the hostname and removes the scheme's default port.
func normalizeHost(u *url.URL) string {
	hostname := strings.ToLower(u.Hostname())
	if strings.Contains(hostname, ":") {
		hostname = "[" + hostname + "]"
	}

	port := u.Port()
	if port == "" || port == defaultPorts[u.Scheme] {
		return hostname
	}
	return hostname + ":" + port
}

// normalizePath resolves dot-segments and removes trailing slashes.
// The root path collapses to "".
func normalizePath(p string) string {
	if p == "" || p == "/" {
		return ""
	}
	cleaned := path.Clean(p)
	return strings.TrimRight(cleaned, "/")
}

// trackingParams lists analytics parameters stripped besides utm_*.
var trackingParams = map[string]struct{}{
	"fbclid":  {},
	"gclid":   {},
	"gclsrc":  {},
	"dclid":   {},
	"msclkid": {},
}

func isTrackingParam(key string) bool {
	key = strings.ToLower(key)
	if strings.HasPrefix(key, "utm_") {
		return true
	}
	_, ok := trackingParams[key]
	return ok
}

// queryParam is one decoded key/value pair. bare marks a key written
// without "=", such as "?flag".
type queryParam struct {
	key   string
	value string
	bare  bool
}

// parseQuery splits a raw query in order. Pairs url.ParseQuery would reject
// (bad escapes, ';') are dropped, as url.URL.Query does.
func parseQuery(raw string) []queryParam {
	var params []queryParam
	for _, piece := range strings.Split(raw, "&") {
		if piece == "" || strings.Contains(piece, ";") {
			continue
		}
		k, v, hasEq := strings.Cut(piece, "=")
		key, err := url.QueryUnescape(k)
		if err != nil {
			continue
		}
		value, err := url.QueryUnescape(v)
		if err != nil {
			continue
		}
		params = append(params, queryParam{key: key, value: value, bare: !hasEq})
	}
	return params
}

// buildCleanQuery strips tracking parameters, sorts the rest by key and
// returns the encoded query string. Values of a repeated key keep their
// order; bare keys stay bare.
func buildCleanQuery(params []queryParam) string {
	kept := params[:0:0]
	for _, p := range params {
		if !isTrackingParam(p.key) {
			kept = append(kept, p)
		}
	}
	sort.SliceStable(kept, func(i, j int) bool { return kept[i].key < kept[j].key })

	var b strings.Builder
	for _, p := range kept {
		if b.Len() > 0 {
			b.WriteByte('&')
		}
		b.WriteString(url.QueryEscape(p.key))
		if !p.bare {
			b.WriteByte('=')
			b.WriteString(url.QueryEscape(p.value))
		}
	}
	return b.String()
}
