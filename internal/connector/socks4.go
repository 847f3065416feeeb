package connector

import (
	"context"
	"fmt"

	"github.com/go-gost/gosocks4"

	"github.com/die-net/proxydial/internal/resolver"
	"github.com/die-net/proxydial/internal/stream"
)

// SOCKS4Connector negotiates a SOCKS4 CONNECT tunnel. With remote resolution
// enabled it speaks the 4a extension and forwards the destination hostname;
// otherwise the hostname is resolved locally and must yield an IPv4 address.
type SOCKS4Connector struct {
	userID string
	remote bool
	res    resolver.Resolver
}

func (c *SOCKS4Connector) Handshake(ctx context.Context, st *stream.Stream, destHost string, destPort int) error {
	addr := &gosocks4.Addr{Type: gosocks4.AddrDomain, Host: destHost, Port: uint16(destPort)}
	if !c.remote {
		ip, err := c.res.Resolve(ctx, destHost)
		if err != nil {
			return err
		}
		ip4 := ip.To4()
		if ip4 == nil {
			return fmt.Errorf("socks4 requires an IPv4 destination, got %s", ip)
		}
		addr = &gosocks4.Addr{Type: gosocks4.AddrIPv4, Host: ip4.String(), Port: uint16(destPort)}
	}

	var userid []byte
	if c.userID != "" {
		userid = []byte(c.userID)
	}

	req := gosocks4.NewRequest(gosocks4.CmdConnect, addr, userid)
	if err := req.Write(st); err != nil {
		return fmt.Errorf("write request: %w", err)
	}

	rep, err := gosocks4.ReadReply(st)
	if err != nil {
		return fmt.Errorf("read reply: %w", err)
	}
	if rep.Code != gosocks4.Granted {
		return &ReplyError{Code: int(rep.Code), Msg: socks4ReplyMessage(int(rep.Code))}
	}
	return nil
}
