// Package proxydial establishes outbound TCP connections tunneled through a
// forward proxy (SOCKS5, SOCKS4/4a, or HTTP CONNECT).
//
// A Proxy performs exactly one dial and one handshake per Connect call,
// bounds both under a single deadline, and translates every failure into a
// typed error: ConnectError when the proxy itself is unreachable,
// TimeoutError when the deadline elapses, ProxyError when the proxy rejects
// the tunnel with a protocol reply code. Any other handshake failure is
// propagated unchanged after cleanup. Retry policy belongs to the caller.
//
// A *Proxy also implements DialContext, so it drops in anywhere a context
// dialer is accepted.
package proxydial
