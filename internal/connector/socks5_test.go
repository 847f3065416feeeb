package connector

import (
	"context"
	"errors"
	"net"
	"strconv"
	"testing"
	"time"

	"github.com/die-net/proxydial/internal/stream"
	"github.com/die-net/proxydial/internal/testutil"
)

func dialStream(t *testing.T, ctx context.Context, addr string) *stream.Stream {
	t.Helper()

	d := net.Dialer{}
	conn, err := d.DialContext(ctx, "tcp", addr)
	if err != nil {
		t.Fatal(err)
	}

	st := stream.New(conn)
	t.Cleanup(func() { _ = st.Close() })
	return st
}

func TestSOCKS5HandshakeSuccess(t *testing.T) {
	tests := []struct {
		name string
		user string
		pass string
	}{
		{name: "no_auth"},
		{name: "user_pass", user: "user", pass: "pass"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
			defer cancel()

			echoLn := testutil.StartEchoTCPServer(t, ctx)
			defer echoLn.Close()

			upLn, waitUp := testutil.StartSingleAcceptServer(t, ctx, func(c net.Conn) {
				_ = testutil.ServeSOCKS5Connect(ctx, c, tt.user, tt.pass)
			})

			st := dialStream(t, ctx, upLn.Addr().String())

			c, err := New("socks5", Auth{Username: tt.user, Password: tt.pass}, nil, nil)
			if err != nil {
				t.Fatal(err)
			}

			host, portStr, _ := net.SplitHostPort(echoLn.Addr().String())
			port, _ := strconv.Atoi(portStr)
			if err := c.Handshake(ctx, st, host, port); err != nil {
				t.Fatal(err)
			}

			testutil.AssertEcho(t, st, st, []byte("hello"))

			waitUp()
		})
	}
}

func TestSOCKS5HandshakeRefused(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	upLn, waitUp := testutil.StartSingleAcceptServer(t, ctx, func(c net.Conn) {
		_ = testutil.RefuseSOCKS5Connect(c, 0x05)
	})

	st := dialStream(t, ctx, upLn.Addr().String())

	c, err := New("socks5", Auth{}, nil, nil)
	if err != nil {
		t.Fatal(err)
	}

	err = c.Handshake(ctx, st, "127.0.0.1", 1)

	var rerr *ReplyError
	if !errors.As(err, &rerr) {
		t.Fatalf("got %v, want *ReplyError", err)
	}
	if rerr.Code != 0x05 {
		t.Fatalf("code = %#x, want 0x05", rerr.Code)
	}

	waitUp()
}

func TestSOCKS5HandshakeLocalResolve(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	echoLn := testutil.StartEchoTCPServer(t, ctx)
	defer echoLn.Close()

	upLn, waitUp := testutil.StartSingleAcceptServer(t, ctx, func(c net.Conn) {
		_ = testutil.ServeSOCKS5Connect(ctx, c, "", "")
	})

	st := dialStream(t, ctx, upLn.Addr().String())

	res := &fakeResolver{m: map[string]net.IP{"echo.example": net.IPv4(127, 0, 0, 1)}}
	local := false
	c, err := New("socks5", Auth{}, &local, res)
	if err != nil {
		t.Fatal(err)
	}

	_, portStr, _ := net.SplitHostPort(echoLn.Addr().String())
	port, _ := strconv.Atoi(portStr)
	if err := c.Handshake(ctx, st, "echo.example", port); err != nil {
		t.Fatal(err)
	}

	testutil.AssertEcho(t, st, st, []byte("resolved"))

	waitUp()
}

func TestSOCKS5HandshakeLocalResolveFailure(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	upLn, waitUp := testutil.StartSingleAcceptServer(t, ctx, func(c net.Conn) {
		_ = testutil.ServeSOCKS5Connect(ctx, c, "", "")
	})

	st := dialStream(t, ctx, upLn.Addr().String())

	local := false
	c, err := New("socks5", Auth{}, &local, &fakeResolver{})
	if err != nil {
		t.Fatal(err)
	}

	if err := c.Handshake(ctx, st, "missing.example", 80); err == nil {
		t.Fatal("expected resolve error")
	}

	_ = st.Close()
	waitUp()
}
