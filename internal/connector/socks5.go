package connector

import (
	"context"
	"errors"
	"fmt"
	"net"
	"strconv"

	txsocks5 "github.com/txthinking/socks5"

	"github.com/die-net/proxydial/internal/resolver"
	"github.com/die-net/proxydial/internal/stream"
)

// SOCKS5Connector negotiates a SOCKS5 CONNECT tunnel. It offers no-auth and,
// when credentials are set, username/password authentication.
type SOCKS5Connector struct {
	auth   Auth
	remote bool
	res    resolver.Resolver
}

func (c *SOCKS5Connector) Handshake(ctx context.Context, st *stream.Stream, destHost string, destPort int) error {
	if err := c.negotiate(st); err != nil {
		return err
	}
	return c.connect(ctx, st, destHost, destPort)
}

func (c *SOCKS5Connector) negotiate(st *stream.Stream) error {
	methods := []byte{txsocks5.MethodNone}
	if c.auth.Username != "" {
		methods = append(methods, txsocks5.MethodUsernamePassword)
	}

	if _, err := txsocks5.NewNegotiationRequest(methods).WriteTo(st); err != nil {
		return fmt.Errorf("write negotiation: %w", err)
	}

	neg, err := txsocks5.NewNegotiationReplyFrom(st)
	if err != nil {
		return fmt.Errorf("read negotiation: %w", err)
	}

	switch neg.Method {
	case txsocks5.MethodNone:
		return nil
	case txsocks5.MethodUsernamePassword:
		if c.auth.Username == "" {
			return errors.New("proxy requires username/password")
		}

		if _, err := txsocks5.NewUserPassNegotiationRequest([]byte(c.auth.Username), []byte(c.auth.Password)).WriteTo(st); err != nil {
			return fmt.Errorf("write userpass: %w", err)
		}
		rep, err := txsocks5.NewUserPassNegotiationReplyFrom(st)
		if err != nil {
			return fmt.Errorf("read userpass: %w", err)
		}
		if rep.Status != txsocks5.UserPassStatusSuccess {
			return errors.New("proxy auth failed")
		}
		return nil
	default:
		return fmt.Errorf("unsupported negotiation method: %d", neg.Method)
	}
}

func (c *SOCKS5Connector) connect(ctx context.Context, st *stream.Stream, destHost string, destPort int) error {
	host := destHost
	if !c.remote {
		ip, err := c.res.Resolve(ctx, destHost)
		if err != nil {
			return err
		}
		host = ip.String()
	}

	atyp, dstAddr, dstPort, err := txsocks5.ParseAddress(net.JoinHostPort(host, strconv.Itoa(destPort)))
	if err != nil {
		return fmt.Errorf("parse address: %w", err)
	}
	if atyp == txsocks5.ATYPDomain {
		dstAddr = dstAddr[1:]
	}

	if _, err := txsocks5.NewRequest(txsocks5.CmdConnect, atyp, dstAddr, dstPort).WriteTo(st); err != nil {
		return fmt.Errorf("write request: %w", err)
	}

	rep, err := txsocks5.NewReplyFrom(st)
	if err != nil {
		return fmt.Errorf("read reply: %w", err)
	}
	if rep.Rep != txsocks5.RepSuccess {
		return &ReplyError{Code: int(rep.Rep), Msg: socks5ReplyMessage(rep.Rep)}
	}
	return nil
}
