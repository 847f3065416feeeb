package resolver

import (
	"context"
	"net"
	"time"

	"github.com/patrickmn/go-cache"
)

// Cached wraps a Resolver with a TTL cache, for callers that tunnel many
// connections to a small set of destinations. go-cache is safe for concurrent
// use, so a Cached resolver may be shared across connects like any other.
//
// Lookup failures are not cached.
type Cached struct {
	next Resolver
	c    *cache.Cache
}

func NewCached(next Resolver, ttl time.Duration) *Cached {
	return &Cached{
		next: next,
		c:    cache.New(ttl, 2*ttl),
	}
}

func (r *Cached) Resolve(ctx context.Context, host string) (net.IP, error) {
	if v, ok := r.c.Get(host); ok {
		return v.(net.IP), nil
	}

	ip, err := r.next.Resolve(ctx, host)
	if err != nil {
		return nil, err
	}

	r.c.Set(host, ip, cache.DefaultExpiration)
	return ip, nil
}
