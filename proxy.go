package proxydial

import (
	"context"
	"errors"
	"fmt"
	"net"
	"strconv"
	"time"

	"github.com/die-net/proxydial/internal/connector"
	"github.com/die-net/proxydial/internal/resolver"
	"github.com/die-net/proxydial/internal/stream"
)

// DefaultConnectTimeout bounds dial plus handshake when Connect is called
// without WithTimeout.
const DefaultConnectTimeout = 60 * time.Second

// Proto identifies the proxy handshake protocol.
type Proto string

const (
	SOCKS5  Proto = "socks5"
	SOCKS4  Proto = "socks4"
	SOCKS4A Proto = "socks4a"
	HTTP    Proto = "http"
)

// Dialer mirrors the net.Dialer interface.
type Dialer interface {
	DialContext(ctx context.Context, network, address string) (net.Conn, error)
}

// Resolver resolves a destination hostname to an IP address when the
// resolution policy is local. One instance is shared by every in-flight
// Connect of a Proxy, so implementations must be safe for concurrent use.
type Resolver interface {
	Resolve(ctx context.Context, host string) (net.IP, error)
}

// Backend supplies the runtime pieces a Proxy dials and resolves with. It is
// fixed at construction; there is no ambient default looked up later.
type Backend struct {
	// Dialer opens the raw transport to the proxy.
	Dialer Dialer

	// Resolver resolves destination hostnames for protocols configured with
	// local resolution.
	Resolver Resolver

	// SafeCloseOnCancel reports whether the transport may be closed while a
	// canceled handshake is still unwinding. When false, Connect leaves the
	// transport open on caller cancellation: leaking a socket is preferred
	// over closing one whose in-flight operation has undefined abort
	// semantics. Computed once here, never probed at runtime.
	SafeCloseOnCancel bool
}

// DefaultBackend dials with net.Dialer and resolves with the system resolver.
// The net poller defines concurrent Close during in-flight I/O, so
// SafeCloseOnCancel is true.
func DefaultBackend() Backend {
	return Backend{
		Dialer:            &net.Dialer{},
		Resolver:          resolver.NewSystem(),
		SafeCloseOnCancel: true,
	}
}

// Proxy establishes tunneled connections to arbitrary destinations through
// one configured forward proxy. It is immutable after construction and safe
// for concurrent use.
type Proxy struct {
	proto    Proto
	host     string
	port     int
	username string
	password string

	// nil means the protocol default: remote for SOCKS5/SOCKS4a and HTTP,
	// local for SOCKS4.
	resolveRemotely *bool

	backend Backend

	// Test seam; nil means connector.New.
	newConnector func(proto string, auth connector.Auth, resolveRemotely *bool, res resolver.Resolver) (connector.Connector, error)
}

// Option configures a Proxy at construction.
type Option func(*Proxy)

// WithAuth sets proxy credentials. For SOCKS4 only the username is used, as
// the userid field.
func WithAuth(username, password string) Option {
	return func(p *Proxy) {
		p.username = username
		p.password = password
	}
}

// WithResolveRemotely overrides the protocol's default resolution policy:
// true forwards the destination hostname to the proxy, false resolves it
// locally before the handshake.
func WithResolveRemotely(remote bool) Option {
	return func(p *Proxy) {
		p.resolveRemotely = &remote
	}
}

// WithBackend replaces the default backend.
func WithBackend(b Backend) Option {
	return func(p *Proxy) {
		p.backend = b
	}
}

// New constructs a Proxy for the given protocol and proxy address.
func New(proto Proto, host string, port int, opts ...Option) (*Proxy, error) {
	switch proto {
	case SOCKS5, SOCKS4, SOCKS4A, HTTP:
	default:
		return nil, fmt.Errorf("unsupported proxy protocol: %q", proto)
	}
	if host == "" {
		return nil, errors.New("missing proxy host")
	}
	if port <= 0 || port > 65535 {
		return nil, fmt.Errorf("invalid proxy port: %d", port)
	}

	p := &Proxy{
		proto:   proto,
		host:    host,
		port:    port,
		backend: DefaultBackend(),
	}
	for _, opt := range opts {
		opt(p)
	}

	if p.backend.Dialer == nil {
		return nil, errors.New("backend missing dialer")
	}
	if p.backend.Resolver == nil {
		return nil, errors.New("backend missing resolver")
	}
	return p, nil
}

// ProxyHost returns the configured proxy host.
func (p *Proxy) ProxyHost() string { return p.host }

// ProxyPort returns the configured proxy port.
func (p *Proxy) ProxyPort() int { return p.port }

type connectConfig struct {
	timeout time.Duration
	conn    net.Conn
}

// ConnectOption configures a single Connect call.
type ConnectOption func(*connectConfig)

// WithTimeout bounds dial and handshake together. d must be positive.
func WithTimeout(d time.Duration) ConnectOption {
	return func(cfg *connectConfig) {
		cfg.timeout = d
	}
}

// WithConn performs the handshake over an already-established transport
// instead of dialing the proxy.
func WithConn(conn net.Conn) ConnectOption {
	return func(cfg *connectConfig) {
		cfg.conn = conn
	}
}

// Connect tunnels a connection to destHost:destPort through the proxy and
// returns the raw transport, whose ownership transfers to the caller.
//
// Dial and handshake share one deadline (DefaultConnectTimeout unless
// WithTimeout is given). When it elapses, in-flight I/O is cancelled, the
// transport is closed if the backend allows it, and a *TimeoutError is
// returned in place of the underlying cancellation. Exactly one dial attempt
// and one handshake attempt are made per call.
func (p *Proxy) Connect(ctx context.Context, destHost string, destPort int, opts ...ConnectOption) (net.Conn, error) {
	cfg := connectConfig{timeout: DefaultConnectTimeout}
	for _, opt := range opts {
		opt(&cfg)
	}
	if cfg.timeout <= 0 {
		return nil, fmt.Errorf("invalid timeout: %v", cfg.timeout)
	}

	ctx, cancel := context.WithTimeout(ctx, cfg.timeout)
	defer cancel()

	conn, err := p.connect(ctx, destHost, destPort, cfg.conn)
	if err != nil {
		if errors.Is(ctx.Err(), context.DeadlineExceeded) {
			return nil, &TimeoutError{Timeout: cfg.timeout, Err: err}
		}
		return nil, err
	}
	return conn, nil
}

func (p *Proxy) connect(ctx context.Context, destHost string, destPort int, conn net.Conn) (net.Conn, error) {
	if conn == nil {
		c, err := p.backend.Dialer.DialContext(ctx, "tcp", net.JoinHostPort(p.host, strconv.Itoa(p.port)))
		if err != nil {
			// Nothing to close yet, and no handshake is attempted.
			return nil, &ConnectError{ProxyHost: p.host, ProxyPort: p.port, Err: err}
		}
		conn = c
	}

	st := stream.New(conn)

	// Bound in-flight handshake reads and writes by the overall deadline,
	// even when closing mid-cancellation is off the table.
	if dl, ok := ctx.Deadline(); ok {
		_ = conn.SetDeadline(dl)
	}

	// Unblock the handshake promptly on cancellation. When the backend
	// cannot vouch that closing a socket mid-cancellation is well defined,
	// the transport is deliberately leaked instead; see Backend.
	if p.backend.SafeCloseOnCancel {
		stop := context.AfterFunc(ctx, func() { _ = st.Close() })
		defer stop()
	}

	newConnector := p.newConnector
	if newConnector == nil {
		newConnector = connector.New
	}
	cn, err := newConnector(string(p.proto),
		connector.Auth{Username: p.username, Password: p.password},
		p.resolveRemotely, p.backend.Resolver)
	if err != nil {
		_ = st.Close()
		return nil, err
	}

	if err := cn.Handshake(ctx, st, destHost, destPort); err != nil {
		if cerr := ctx.Err(); cerr != nil {
			if p.backend.SafeCloseOnCancel {
				_ = st.Close()
			}
			return nil, cerr
		}

		var rerr *connector.ReplyError
		if errors.As(err, &rerr) {
			_ = st.Close()
			return nil, &ProxyError{Code: rerr.Code, Err: err}
		}

		_ = st.Close()
		return nil, err
	}

	_ = conn.SetDeadline(time.Time{})
	return conn, nil
}
