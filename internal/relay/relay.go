package relay

import (
	"context"
	"io"
	"net"
	"sync"

	"golang.org/x/sync/errgroup"
)

// Splice copies bytes between local and tunnel in both directions until
// either side closes or ctx is canceled, then closes both. The first close
// wins; later failure paths are no-ops.
func Splice(ctx context.Context, local, tunnel net.Conn) error {
	var closeOnce sync.Once
	closeBoth := func() {
		closeOnce.Do(func() {
			_ = local.Close()
			_ = tunnel.Close()
		})
	}
	defer closeBoth()

	stop := context.AfterFunc(ctx, closeBoth)
	defer stop()

	g := new(errgroup.Group)
	g.Go(func() error {
		_, err := io.Copy(local, tunnel)
		closeBoth()
		return err
	})
	g.Go(func() error {
		_, err := io.Copy(tunnel, local)
		closeBoth()
		return err
	})
	return g.Wait()
}
