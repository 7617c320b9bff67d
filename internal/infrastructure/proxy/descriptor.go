package proxy

import (
	"bufio"
	"net/url"
	"os"
	"strings"

	"github.com/crosspost/backend/internal/domain/shared"
)

// Descriptor is one egress proxy, parsed from scheme://[user:pass@]host:port
type Descriptor struct {
	Raw string
	URL *url.URL
}

// Parse validates a single proxy line
func Parse(raw string) (Descriptor, error) {
	raw = strings.TrimSpace(raw)
	u, err := url.Parse(raw)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return Descriptor{}, shared.NewDomainError("INVALID_PROXY", "Proxy must look like scheme://host:port, got: "+raw)
	}
	switch u.Scheme {
	case "http", "https", "socks5":
	default:
		return Descriptor{}, shared.NewDomainError("INVALID_PROXY", "Unsupported proxy scheme: "+u.Scheme)
	}
	return Descriptor{Raw: raw, URL: u}, nil
}

// Addr returns the scheme://host:port form without credentials, which is
// what the browser's --proxy-server flag expects
func (d Descriptor) Addr() string {
	return d.URL.Scheme + "://" + d.URL.Host
}

// Credentials returns the embedded username and password when present
func (d Descriptor) Credentials() (user, pass string, ok bool) {
	if d.URL == nil || d.URL.User == nil {
		return "", "", false
	}
	pass, _ = d.URL.User.Password()
	return d.URL.User.Username(), pass, true
}

// LoadFile reads one proxy per line, skipping blanks and # comments
func LoadFile(path string) ([]Descriptor, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	var out []Descriptor
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		d, err := Parse(line)
		if err != nil {
			return nil, err
		}
		out = append(out, d)
	}
	if err := scanner.Err(); err != nil {
		return nil, err
	}
	return out, nil
}
