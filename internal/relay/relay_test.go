package relay

import (
	"context"
	"net"
	"testing"
	"time"

	"github.com/die-net/proxydial/internal/testutil"
)

func TestSpliceCopiesBothDirections(t *testing.T) {
	t.Parallel()

	aLocal, aRemote := net.Pipe()
	bLocal, bRemote := net.Pipe()

	done := make(chan error, 1)
	go func() {
		done <- Splice(context.Background(), aRemote, bLocal)
	}()

	go func() {
		// Echo on the far side of the tunnel.
		buf := make([]byte, 5)
		if _, err := aLocal.Read(buf); err != nil {
			return
		}
		_, _ = aLocal.Write(buf)
	}()

	testutil.AssertEcho(t, bRemote, bRemote, []byte("hello"))

	_ = aLocal.Close()
	_ = bRemote.Close()

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("splice did not return after close")
	}
}

func TestSpliceReturnsOnCancel(t *testing.T) {
	t.Parallel()

	_, aRemote := net.Pipe()
	bLocal, _ := net.Pipe()

	ctx, cancel := context.WithCancel(context.Background())

	done := make(chan error, 1)
	go func() {
		done <- Splice(ctx, aRemote, bLocal)
	}()

	cancel()

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("splice did not return after cancel")
	}
}
