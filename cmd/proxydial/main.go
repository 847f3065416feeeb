package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"net/url"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/spf13/pflag"
	"golang.org/x/sync/errgroup"
	"golang.org/x/term"

	"github.com/die-net/proxydial"
	"github.com/die-net/proxydial/internal/relay"
	"github.com/die-net/proxydial/internal/resolver"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func run() error {
	var (
		proxyURL   = pflag.String("proxy", "socks5://127.0.0.1:1080", "Proxy URL: socks5://[user:pass@]host:port | socks4://host:port | socks4a://host:port | http://[user:pass@]host:port")
		listen     = pflag.String("listen", "", "Local TCP listen address; each accepted connection is tunneled to the destination. Empty relays stdin/stdout instead.")
		timeout    = pflag.Duration("timeout", proxydial.DefaultConnectTimeout, "Timeout for proxy dial plus handshake")
		resolveTTL = pflag.Duration("resolve-ttl", time.Minute, "TTL for cached destination DNS lookups in listen mode")
		verbose    = pflag.Bool("verbose", false, "Enable debug logging")
	)
	pflag.CommandLine.SortFlags = false
	pflag.Parse()

	if *verbose {
		logrus.SetLevel(logrus.DebugLevel)
	}

	if pflag.NArg() != 1 {
		return errors.New("usage: proxydial [flags] host:port")
	}
	destHost, portStr, err := net.SplitHostPort(pflag.Arg(0))
	if err != nil {
		return fmt.Errorf("invalid destination: %w", err)
	}
	destPort, err := strconv.Atoi(portStr)
	if err != nil {
		return fmt.Errorf("invalid destination port: %q", portStr)
	}

	rawurl, err := maybePromptPassword(*proxyURL)
	if err != nil {
		return err
	}

	backend := proxydial.DefaultBackend()
	if *listen != "" {
		// Listen mode makes many connects to one destination; cache lookups.
		backend.Resolver = resolver.NewCached(resolver.NewSystem(), *resolveTTL)
	}

	proxy, err := proxydial.FromURL(rawurl, proxydial.WithBackend(backend))
	if err != nil {
		return fmt.Errorf("invalid --proxy: %w", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if *listen == "" {
		return pipeStdio(ctx, proxy, destHost, destPort, *timeout)
	}
	return serveListen(ctx, proxy, *listen, destHost, destPort, *timeout)
}

// maybePromptPassword reads the proxy password from the terminal when the URL
// carries a username but no password. Outside a terminal the URL is used
// as-is, since stdin may be the data stream being relayed.
func maybePromptPassword(rawurl string) (string, error) {
	u, err := url.Parse(rawurl)
	if err != nil || u.User == nil || u.User.Username() == "" {
		return rawurl, nil //nolint:nilerr // FromURL reports parse errors.
	}
	if _, set := u.User.Password(); set {
		return rawurl, nil
	}
	if !term.IsTerminal(int(os.Stdin.Fd())) {
		return rawurl, nil
	}

	fmt.Fprintf(os.Stderr, "Password for %s@%s: ", u.User.Username(), u.Host)
	pw, err := term.ReadPassword(int(os.Stdin.Fd()))
	fmt.Fprintln(os.Stderr)
	if err != nil {
		return "", fmt.Errorf("read password: %w", err)
	}

	u.User = url.UserPassword(u.User.Username(), string(pw))
	return u.String(), nil
}

func pipeStdio(ctx context.Context, proxy *proxydial.Proxy, destHost string, destPort int, timeout time.Duration) error {
	conn, err := proxy.Connect(ctx, destHost, destPort, proxydial.WithTimeout(timeout))
	if err != nil {
		return err
	}
	defer conn.Close()

	logrus.Debugf("connected to %s:%d via %s:%d", destHost, destPort, proxy.ProxyHost(), proxy.ProxyPort())

	stop := context.AfterFunc(ctx, func() { _ = conn.Close() })
	defer stop()

	go func() {
		_, _ = io.Copy(conn, os.Stdin)
		if tc, ok := conn.(*net.TCPConn); ok {
			_ = tc.CloseWrite()
		}
	}()

	if _, err := io.Copy(os.Stdout, conn); err != nil && ctx.Err() == nil {
		return fmt.Errorf("relay: %w", err)
	}
	return nil
}

func serveListen(ctx context.Context, proxy *proxydial.Proxy, addr, destHost string, destPort int, timeout time.Duration) error {
	lc := net.ListenConfig{}
	ln, err := lc.Listen(ctx, "tcp", addr)
	if err != nil {
		return fmt.Errorf("listen: %w", err)
	}
	context.AfterFunc(ctx, func() { _ = ln.Close() })

	logrus.Infof("listening on %s, tunneling to %s:%d via %s:%d",
		ln.Addr(), destHost, destPort, proxy.ProxyHost(), proxy.ProxyPort())

	var g errgroup.Group
	for {
		c, err := ln.Accept()
		if err != nil {
			if ctx.Err() != nil {
				break
			}
			return fmt.Errorf("accept: %w", err)
		}

		g.Go(func() error {
			defer c.Close()

			up, err := proxy.Connect(ctx, destHost, destPort, proxydial.WithTimeout(timeout))
			if err != nil {
				logrus.Warnf("tunnel for %s: %v", c.RemoteAddr(), err)
				return nil
			}
			logrus.Debugf("tunnel %s -> %s:%d", c.RemoteAddr(), destHost, destPort)

			_ = relay.Splice(ctx, c, up)
			return nil
		})
	}

	_ = g.Wait()
	return nil
}
