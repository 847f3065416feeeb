package connector

import (
	"bufio"
	"context"
	"encoding/base64"
	"fmt"
	"net"
	"net/http"
	"net/url"
	"strconv"

	"github.com/die-net/proxydial/internal/stream"
)

// HTTPConnector establishes a tunnel with the HTTP CONNECT method. The
// destination hostname is always forwarded to the proxy for resolution.
//
// If credentials are set, Proxy-Authorization is sent using HTTP Basic auth.
type HTTPConnector struct {
	auth Auth
}

func (c *HTTPConnector) Handshake(ctx context.Context, st *stream.Stream, destHost string, destPort int) error {
	address := net.JoinHostPort(destHost, strconv.Itoa(destPort))

	req := &http.Request{
		Method: http.MethodConnect,
		URL:    &url.URL{Opaque: address},
		Host:   address,
		Header: make(http.Header),
	}
	if c.auth.Username != "" {
		req.Header.Set("Proxy-Authorization",
			"Basic "+base64.StdEncoding.EncodeToString([]byte(c.auth.Username+":"+c.auth.Password)))
	}
	req = req.WithContext(ctx)

	if err := req.Write(st); err != nil {
		return fmt.Errorf("connect write: %w", err)
	}

	// The server sends nothing past its response until we write, so the
	// buffered reader cannot swallow tunneled bytes.
	br := bufio.NewReader(st)
	resp, err := http.ReadResponse(br, req)
	if err != nil {
		return fmt.Errorf("connect read: %w", err)
	}
	_ = resp.Body.Close()

	if resp.StatusCode/100 != 2 {
		return &ReplyError{Code: resp.StatusCode, Msg: resp.Status}
	}
	return nil
}
