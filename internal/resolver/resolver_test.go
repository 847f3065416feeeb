package resolver

import (
	"context"
	"net"
	"sync"
	"sync/atomic"
	"testing"
	"time"
)

func TestSystemLiteralIP(t *testing.T) {
	t.Parallel()

	r := NewSystem()

	ip, err := r.Resolve(context.Background(), "127.0.0.1")
	if err != nil {
		t.Fatal(err)
	}
	if !ip.Equal(net.IPv4(127, 0, 0, 1)) {
		t.Fatalf("got %s, want 127.0.0.1", ip)
	}

	ip, err = r.Resolve(context.Background(), "::1")
	if err != nil {
		t.Fatal(err)
	}
	if !ip.Equal(net.IPv6loopback) {
		t.Fatalf("got %s, want ::1", ip)
	}
}

type countingResolver struct {
	calls atomic.Int32
	ip    net.IP
}

func (r *countingResolver) Resolve(ctx context.Context, host string) (net.IP, error) {
	r.calls.Add(1)
	return r.ip, nil
}

func TestCachedHitsOnce(t *testing.T) {
	t.Parallel()

	inner := &countingResolver{ip: net.IPv4(10, 0, 0, 1)}
	r := NewCached(inner, time.Minute)

	for i := 0; i < 3; i++ {
		ip, err := r.Resolve(context.Background(), "cache.example")
		if err != nil {
			t.Fatal(err)
		}
		if !ip.Equal(inner.ip) {
			t.Fatalf("got %s, want %s", ip, inner.ip)
		}
	}

	if got := inner.calls.Load(); got != 1 {
		t.Fatalf("inner lookups = %d, want 1", got)
	}
}

func TestCachedConcurrent(t *testing.T) {
	t.Parallel()

	inner := &countingResolver{ip: net.IPv4(10, 0, 0, 2)}
	r := NewCached(inner, time.Minute)

	var wg sync.WaitGroup
	for i := 0; i < 16; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			ip, err := r.Resolve(context.Background(), "concurrent.example")
			if err != nil {
				t.Error(err)
				return
			}
			if !ip.Equal(inner.ip) {
				t.Errorf("got %s, want %s", ip, inner.ip)
			}
		}()
	}
	wg.Wait()
}
