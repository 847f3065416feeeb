package stream

import (
	"io"
	"net"
	"sync"
)

// Stream wraps a raw transport with the small I/O surface proxy handshakes
// need: plain writes, exact-length reads, and a Close that is idempotent and
// safe to call from cancellation paths.
//
// A Stream never owns the transport on the success path; ownership of the
// wrapped conn transfers back to the caller once the handshake completes.
type Stream struct {
	conn net.Conn

	closeOnce sync.Once
	closeErr  error
}

func New(conn net.Conn) *Stream {
	return &Stream{conn: conn}
}

// Conn returns the wrapped transport.
func (s *Stream) Conn() net.Conn {
	return s.conn
}

func (s *Stream) Read(p []byte) (int, error) {
	return s.conn.Read(p)
}

func (s *Stream) Write(p []byte) (int, error) {
	return s.conn.Write(p)
}

// ReadExactly reads exactly n bytes from the transport, failing if the
// connection closes before n bytes arrive.
func (s *Stream) ReadExactly(n int) ([]byte, error) {
	buf := make([]byte, n)
	if _, err := io.ReadFull(s.conn, buf); err != nil {
		return nil, err
	}
	return buf, nil
}

// Close closes the transport. Repeated calls return the result of the first,
// so the transport is closed at most once no matter how many failure paths
// race to clean up.
func (s *Stream) Close() error {
	s.closeOnce.Do(func() {
		s.closeErr = s.conn.Close()
	})
	return s.closeErr
}
