package ingest

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net"
	"sync"

	"marketbridge/internal/domain"
	"marketbridge/internal/feed"
)

const defaultReadBufferBytes = 4096

// Listener accepts producer connections and owns one decoder per
// connection. Messages from a single connection are applied to the store
// strictly in the order the decoder completed them. The listener survives
// any single malformed message or connection failure.
type Listener struct {
	addr     string
	pipeline *Pipeline
	logger   *slog.Logger
	readBuf  int

	mu     sync.Mutex
	ln     net.Listener
	conns  map[net.Conn]struct{}
	closed bool

	wg sync.WaitGroup
}

// NewListener creates a feed listener bound to addr ("host:port").
func NewListener(addr string, pipeline *Pipeline, logger *slog.Logger, readBufferBytes int) *Listener {
	if logger == nil {
		logger = slog.Default()
	}
	if readBufferBytes <= 0 {
		readBufferBytes = defaultReadBufferBytes
	}
	return &Listener{
		addr:     addr,
		pipeline: pipeline,
		logger:   logger,
		readBuf:  readBufferBytes,
		conns:    make(map[net.Conn]struct{}),
	}
}

// Start binds the TCP listener and launches the accept loop. It returns
// once the socket is bound, so Addr is valid afterwards.
func (l *Listener) Start(ctx context.Context) error {
	ln, err := net.Listen("tcp", l.addr)
	if err != nil {
		return domain.NewFatalNetworkError("listen", err)
	}

	l.mu.Lock()
	if l.closed {
		l.mu.Unlock()
		ln.Close()
		return domain.ErrListenerClosed
	}
	l.ln = ln
	l.mu.Unlock()

	l.logger.Info("feed listener started", slog.String("addr", ln.Addr().String()))

	l.wg.Add(1)
	go l.acceptLoop(ctx)

	// Tear everything down when the context is cancelled.
	go func() {
		<-ctx.Done()
		l.Stop()
	}()

	return nil
}

// Addr returns the bound address, or nil before Start.
func (l *Listener) Addr() net.Addr {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.ln == nil {
		return nil
	}
	return l.ln.Addr()
}

// Stop closes the listener and every live connection, then waits for the
// connection goroutines to drain. Safe to call more than once.
func (l *Listener) Stop() {
	l.mu.Lock()
	if l.closed {
		l.mu.Unlock()
		l.wg.Wait()
		return
	}
	l.closed = true
	if l.ln != nil {
		l.ln.Close()
	}
	for c := range l.conns {
		c.Close()
	}
	l.mu.Unlock()

	l.wg.Wait()
	l.logger.Info("feed listener stopped")
}

func (l *Listener) acceptLoop(ctx context.Context) {
	defer l.wg.Done()

	for {
		conn, err := l.ln.Accept()
		if err != nil {
			if l.isClosed() || errors.Is(err, net.ErrClosed) {
				return
			}
			l.logger.Error("accept failed", slog.Any("error", err))
			continue
		}

		if !l.track(conn) {
			conn.Close()
			return
		}

		l.wg.Add(1)
		go l.handleConn(ctx, conn)
	}
}

func (l *Listener) track(conn net.Conn) bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.closed {
		return false
	}
	l.conns[conn] = struct{}{}
	return true
}

func (l *Listener) untrack(conn net.Conn) {
	l.mu.Lock()
	defer l.mu.Unlock()
	delete(l.conns, conn)
}

func (l *Listener) isClosed() bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.closed
}

// handleConn runs the full pipeline for one producer connection. A single
// goroutine reads, decodes, classifies and applies, so messages from this
// connection hit the store in completion order with nothing in flight
// concurrently.
func (l *Listener) handleConn(ctx context.Context, conn net.Conn) {
	defer l.wg.Done()
	defer l.untrack(conn)
	defer conn.Close()

	remote := conn.RemoteAddr().String()
	log := l.logger.With(slog.String("producer", remote))
	log.Info("producer connected")

	l.pipeline.metrics.IncrementConnections()
	defer l.pipeline.metrics.DecrementConnections()

	decoder := feed.NewDecoder()
	defer decoder.Reset()

	buf := make([]byte, l.readBuf)
	for {
		n, err := conn.Read(buf)
		if n > 0 {
			for _, line := range decoder.Feed(buf[:n]) {
				if len(line) == 0 {
					continue
				}
				l.pipeline.Apply(ctx, line)
			}
		}
		if err != nil {
			if errors.Is(err, io.EOF) || errors.Is(err, net.ErrClosed) {
				log.Info("producer disconnected", slog.Int("pending_bytes", decoder.Pending()))
			} else {
				netErr := domain.NewNetworkError("read", err)
				log.Error("producer connection errored", slog.Any("error", netErr))
			}
			if decoder.Pending() > 0 {
				log.Debug(fmt.Sprintf("discarding %d bytes of trailing partial message", decoder.Pending()))
			}
			return
		}
	}
}
