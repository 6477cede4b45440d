// Package server runs the TCP front end: an accept loop that hands
// each connection to a thread pool, which reads one request, dispatches
// it to an engine, writes one response, and closes the connection.
package server

import (
	"errors"
	"fmt"
	"io"
	"net"
	"sync"

	"kvs/internal/engine"
	"kvs/internal/pool"
	"kvs/internal/wire"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// Server binds one address and dispatches connections across a pool.
type Server struct {
	addr string
	eng  engine.Engine
	pool pool.Pool
	log  *zap.SugaredLogger

	mu       sync.Mutex
	listener net.Listener
	quit     chan struct{}
	wg       sync.WaitGroup
}

// New returns a Server that will dispatch accepted connections to eng
// via p. logger may be nil, in which case logging is a no-op.
func New(addr string, eng engine.Engine, p pool.Pool, logger *zap.SugaredLogger) *Server {
	if logger == nil {
		logger = zap.NewNop().Sugar()
	}
	return &Server{addr: addr, eng: eng, pool: p, log: logger, quit: make(chan struct{})}
}

// Run binds addr and serves connections until Stop is called. It
// returns nil on a clean shutdown triggered by Stop, or the listener
// error otherwise.
func (s *Server) Run() error {
	ln, err := net.Listen("tcp", s.addr)
	if err != nil {
		return fmt.Errorf("server: listen on %s: %w", s.addr, err)
	}

	s.mu.Lock()
	s.listener = ln
	s.mu.Unlock()

	s.log.Infow("server listening", "addr", s.addr)

	go func() {
		<-s.quit
		ln.Close()
	}()

	for {
		conn, err := ln.Accept()
		if err != nil {
			select {
			case <-s.quit:
				s.wg.Wait()
				return nil
			default:
				s.log.Errorw("accept error", "error", err)
				continue
			}
		}

		s.wg.Add(1)
		s.pool.Spawn(func() {
			defer s.wg.Done()
			s.handleConn(conn)
		})
	}
}

// Stop closes the listener, so no new connections are accepted, and
// returns without waiting; Run returns once every already-accepted
// connection has finished.
func (s *Server) Stop() {
	close(s.quit)
	s.mu.Lock()
	ln := s.listener
	s.mu.Unlock()
	if ln != nil {
		ln.Close()
	}
}

func (s *Server) handleConn(conn net.Conn) {
	defer conn.Close()

	correlationID := uuid.New().String()
	log := s.log.With("correlation_id", correlationID, "remote", conn.RemoteAddr().String())

	// A private reader avoids contending on the engine's shared
	// descriptor cache for the lifetime of this connection's handler.
	var reader *engine.Reader
	if rp, ok := s.eng.(engine.ReaderProvider); ok {
		reader = rp.NewReader()
		defer reader.Close()
	}

	req, err := wire.ReadRequest(conn)
	if err != nil {
		if !errors.Is(err, io.EOF) {
			log.Errorw("failed to read request", "error", err)
		}
		return
	}

	resp := s.dispatch(req, reader)
	if err := wire.WriteResponse(conn, resp); err != nil {
		log.Errorw("failed to write response", "error", err)
	}
}

func (s *Server) dispatch(req wire.Request, reader *engine.Reader) wire.Response {
	switch req.Kind {
	case wire.ReqGet:
		var value string
		var found bool
		var err error
		if reader != nil {
			value, found, err = reader.Get(req.Key)
		} else {
			value, found, err = s.eng.Get(req.Key)
		}
		if err != nil {
			return wire.ErrResponse(err.Error())
		}
		if !found {
			return wire.OK()
		}
		return wire.OKValue(value)

	case wire.ReqSet:
		if err := s.eng.Set(req.Key, req.Value); err != nil {
			return wire.ErrResponse(err.Error())
		}
		return wire.OK()

	case wire.ReqRemove:
		if err := s.eng.Remove(req.Key); err != nil {
			if errors.Is(err, engine.ErrKeyNotFound) {
				return wire.ErrResponse("Key not found")
			}
			return wire.ErrResponse(err.Error())
		}
		return wire.OK()

	default:
		return wire.ErrResponse("unknown request kind")
	}
}
