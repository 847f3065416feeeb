package proxydial

import (
	"fmt"
	"net"
	"strconv"
	"time"
)

// ConnectError reports a failure to reach the proxy itself. The handshake is
// never attempted when dialing fails.
type ConnectError struct {
	ProxyHost string
	ProxyPort int
	Err       error
}

func (e *ConnectError) Error() string {
	addr := net.JoinHostPort(e.ProxyHost, strconv.Itoa(e.ProxyPort))
	return fmt.Sprintf("could not connect to proxy %s: %v", addr, e.Err)
}

func (e *ConnectError) Unwrap() error { return e.Err }

// TimeoutError reports that the overall Connect bound elapsed before dial and
// handshake completed.
type TimeoutError struct {
	Timeout time.Duration
	Err     error
}

func (e *TimeoutError) Error() string {
	return fmt.Sprintf("proxy connection timed out: %v", e.Timeout)
}

func (e *TimeoutError) Unwrap() error { return e.Err }

// ProxyError reports a protocol-level rejection from the proxy. Code carries
// the reply code from the wire: the SOCKS reply byte, or the HTTP CONNECT
// status.
type ProxyError struct {
	Code int
	Err  error
}

func (e *ProxyError) Error() string {
	return fmt.Sprintf("proxy rejected request: %v", e.Err)
}

func (e *ProxyError) Unwrap() error { return e.Err }
