package proxydial

import (
	"context"
	"fmt"
	"net"
	"strconv"
	"strings"
)

// DialContext tunnels a connection to address through the proxy, making
// *Proxy usable anywhere a context dialer is accepted. Only tcp networks are
// supported; the default Connect timeout applies in addition to any deadline
// on ctx.
func (p *Proxy) DialContext(ctx context.Context, network, address string) (net.Conn, error) {
	if !strings.HasPrefix(network, "tcp") {
		return nil, fmt.Errorf("proxy dial %s %s: unsupported network", network, address)
	}

	host, portStr, err := net.SplitHostPort(address)
	if err != nil {
		return nil, fmt.Errorf("proxy dial %s: %w", address, err)
	}
	port, err := strconv.Atoi(portStr)
	if err != nil {
		return nil, fmt.Errorf("proxy dial %s: invalid port: %w", address, err)
	}

	return p.Connect(ctx, host, port)
}
