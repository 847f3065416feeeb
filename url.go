package proxydial

import (
	"errors"
	"fmt"
	"net/url"
	"strconv"
	"strings"
)

// FromURL constructs a Proxy from a connection string of the form
// scheme://[user:pass@]host:port.
//
// Supported schemes: socks5, socks4, socks4a, http. When the port is omitted
// a scheme default is applied (1080 for SOCKS, 8080 for http). Credentials in
// the URL take effect as WithAuth; opts may override them.
func FromURL(rawurl string, opts ...Option) (*Proxy, error) {
	u, err := url.Parse(rawurl)
	if err != nil {
		return nil, fmt.Errorf("invalid url: %w", err)
	}

	if u.Path != "" && u.Path != "/" {
		return nil, errors.New("invalid url: path should be empty")
	}

	var proto Proto
	switch strings.ToLower(u.Scheme) {
	case "":
		return nil, errors.New("invalid url: missing scheme")
	case "socks5":
		proto = SOCKS5
	case "socks4":
		proto = SOCKS4
	case "socks4a":
		proto = SOCKS4A
	case "http":
		proto = HTTP
	default:
		return nil, fmt.Errorf("invalid url scheme: %q", u.Scheme)
	}

	host := u.Hostname()
	if host == "" {
		return nil, errors.New("invalid url: missing host")
	}

	portStr := u.Port()
	if portStr == "" {
		portStr = defaultPortForProto(proto)
	}
	port, err := strconv.Atoi(portStr)
	if err != nil {
		return nil, fmt.Errorf("invalid url port: %q", portStr)
	}

	if u.User != nil {
		user := u.User.Username()
		pass, _ := u.User.Password()
		opts = append([]Option{WithAuth(user, pass)}, opts...)
	}

	return New(proto, host, port, opts...)
}

func defaultPortForProto(proto Proto) string {
	if proto == HTTP {
		return "8080"
	}
	return "1080"
}
