package connector

// Package connector implements the client side of the supported proxy
// handshake protocols: SOCKS5 (RFC 1928/1929), SOCKS4/4a, and HTTP CONNECT.
//
// Wire encoding is delegated to github.com/txthinking/socks5 and
// github.com/go-gost/gosocks4; this package keeps only the negotiation
// sequencing and maps rejections onto ReplyError so the orchestrating layer
// can classify failures without knowing any protocol details.
