package connector

import (
	"context"
	"fmt"

	"github.com/die-net/proxydial/internal/resolver"
	"github.com/die-net/proxydial/internal/stream"
)

// Connector performs one protocol-specific handshake over an established
// stream, requesting a tunnel to the destination host/port. Connectors hold
// no per-connection state of their own; New builds a fresh instance for each
// connection.
type Connector interface {
	Handshake(ctx context.Context, st *stream.Stream, destHost string, destPort int) error
}

// Auth configures optional proxy credentials. For SOCKS4 only the username is
// used, as the userid field.
type Auth struct {
	Username string
	Password string
}

// New builds the Connector for proto: "socks5", "socks4", "socks4a", or
// "http".
//
// resolveRemotely selects where the destination hostname is resolved: true
// forwards it to the proxy, false resolves it locally via res before the
// handshake. nil uses the protocol default (remote for SOCKS5 and SOCKS4a,
// local for SOCKS4; HTTP CONNECT always forwards the hostname).
func New(proto string, auth Auth, resolveRemotely *bool, res resolver.Resolver) (Connector, error) {
	switch proto {
	case "socks5":
		return &SOCKS5Connector{auth: auth, remote: boolOr(resolveRemotely, true), res: res}, nil
	case "socks4":
		return &SOCKS4Connector{userID: auth.Username, remote: boolOr(resolveRemotely, false), res: res}, nil
	case "socks4a":
		return &SOCKS4Connector{userID: auth.Username, remote: boolOr(resolveRemotely, true), res: res}, nil
	case "http":
		return &HTTPConnector{auth: auth}, nil
	default:
		return nil, fmt.Errorf("unsupported proxy protocol: %q", proto)
	}
}

func boolOr(b *bool, def bool) bool {
	if b == nil {
		return def
	}
	return *b
}
