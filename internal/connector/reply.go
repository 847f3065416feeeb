package connector

import "fmt"

// ReplyError reports a protocol-level rejection from the proxy. Code is the
// reply code from the wire: the SOCKS reply byte, or the HTTP status for
// CONNECT.
type ReplyError struct {
	Code int
	Msg  string
}

func (e *ReplyError) Error() string {
	if e.Msg != "" {
		return fmt.Sprintf("proxy reply code %d: %s", e.Code, e.Msg)
	}
	return fmt.Sprintf("proxy reply code %d", e.Code)
}

// RFC 1928 section 6 reply field values.
func socks5ReplyMessage(code byte) string {
	switch code {
	case 0x01:
		return "general SOCKS server failure"
	case 0x02:
		return "connection not allowed by ruleset"
	case 0x03:
		return "network unreachable"
	case 0x04:
		return "host unreachable"
	case 0x05:
		return "connection refused"
	case 0x06:
		return "TTL expired"
	case 0x07:
		return "command not supported"
	case 0x08:
		return "address type not supported"
	default:
		return "unknown error"
	}
}

// SOCKS4 CD result codes.
func socks4ReplyMessage(code int) string {
	switch code {
	case 91:
		return "request rejected or failed"
	case 92:
		return "request rejected: identd unreachable"
	case 93:
		return "request rejected: identd mismatch"
	default:
		return "unknown error"
	}
}
