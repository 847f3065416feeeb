package resolver

import (
	"context"
	"fmt"
	"net"
)

// Resolver resolves a destination hostname to an IP address before it is sent
// to the proxy. One instance is shared by every in-flight connect of a proxy
// client, so implementations must be safe for concurrent use.
type Resolver interface {
	Resolve(ctx context.Context, host string) (net.IP, error)
}

// System resolves hostnames with the stdlib resolver. IP literals are
// returned without a lookup.
type System struct {
	res net.Resolver
}

func NewSystem() *System {
	return &System{}
}

func (r *System) Resolve(ctx context.Context, host string) (net.IP, error) {
	if ip := net.ParseIP(host); ip != nil {
		return ip, nil
	}

	addrs, err := r.res.LookupIPAddr(ctx, host)
	if err != nil {
		return nil, fmt.Errorf("resolve %q: %w", host, err)
	}
	if len(addrs) == 0 {
		return nil, fmt.Errorf("resolve %q: no addresses", host)
	}
	return addrs[0].IP, nil
}
