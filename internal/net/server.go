package net

import (
	"context"
	"fmt"
	"net"
	"sync"
	"sync/atomic"
	"time"

	"github.com/rs/zerolog/log"
	tomb "gopkg.in/tomb.v2"

	"github.com/struccomaker/simple-orderbook-v1/internal/worker"
)

// Server is the listener (C5): it accepts connections, assigns each a
// monotonically increasing client id, tracks the socket in a shared
// client table, and hands the session off to the worker pool (C4).
type Server struct {
	address string
	port    int
	gw      Gateway
	pool    *worker.Pool

	readTimeout time.Duration

	nextClientID atomic.Uint32

	tableMu sync.Mutex
	table   map[uint32]net.Conn

	cancel context.CancelFunc
}

// New builds a Server bound to address:port, dispatching requests
// against gw and running sessions on a pool of workers workers wide.
func New(address string, port int, gw Gateway, workers int, readTimeout time.Duration) *Server {
	return &Server{
		address:     address,
		port:        port,
		gw:          gw,
		pool:        worker.New(workers),
		readTimeout: readTimeout,
		table:       make(map[uint32]net.Conn),
	}
}

// Shutdown closes the listening socket (unblocking Accept) and cancels
// the server's context, which in turn tells every session to stop on
// its next recv.
func (s *Server) Shutdown() {
	log.Info().Msg("server shutting down")
	if s.cancel != nil {
		s.cancel()
	}
}

// Run blocks until ctx is cancelled, Shutdown is called, or the listener
// fails to bind. Binding failure is fatal at startup per §7.
func (s *Server) Run(ctx context.Context) error {
	ctx, s.cancel = context.WithCancel(ctx)
	t, ctx := tomb.WithContext(ctx)

	var lc net.ListenConfig
	listener, err := lc.Listen(ctx, "tcp", fmt.Sprintf("%s:%d", s.address, s.port))
	if err != nil {
		return fmt.Errorf("listen on %s:%d: %w", s.address, s.port, err)
	}

	s.pool.Run(t)

	t.Go(func() error {
		<-t.Dying()
		if cerr := listener.Close(); cerr != nil {
			log.Warn().Err(cerr).Msg("error closing listener")
		}
		s.closeAllSessions()
		return nil
	})

	log.Info().Str("address", listener.Addr().String()).Msg("server listening")

	t.Go(func() error {
		for {
			conn, err := listener.Accept()
			if err != nil {
				select {
				case <-t.Dying():
					return nil
				default:
					log.Warn().Err(err).Msg("accept error")
					continue
				}
			}

			clientID := s.nextClientID.Add(1)
			s.addSession(clientID, conn)
			log.Info().Uint32("client_id", clientID).Str("remote", conn.RemoteAddr().String()).Msg("new connection")

			sess := NewSession(conn, clientID, s.gw, s.readTimeout, s.clientCount)
			s.pool.Submit(func(workerTomb *tomb.Tomb) {
				defer s.removeSession(clientID)
				sess.Run(workerTomb)
			})
		}
	})

	<-t.Dying()
	return t.Wait()
}

func (s *Server) addSession(id uint32, conn net.Conn) {
	s.tableMu.Lock()
	defer s.tableMu.Unlock()
	s.table[id] = conn
}

func (s *Server) removeSession(id uint32) {
	s.tableMu.Lock()
	defer s.tableMu.Unlock()
	delete(s.table, id)
}

func (s *Server) clientCount() uint32 {
	s.tableMu.Lock()
	defer s.tableMu.Unlock()
	return uint32(len(s.table))
}

// closeAllSessions is the shutdown-time sweep described in §4.5: once
// the listening socket is closed, every still-open session socket is
// closed too, so each session's blocked recv wakes with an error.
func (s *Server) closeAllSessions() {
	s.tableMu.Lock()
	defer s.tableMu.Unlock()
	for id, conn := range s.table {
		if err := conn.Close(); err != nil {
			log.Warn().Err(err).Uint32("client_id", id).Msg("error closing session during shutdown")
		}
	}
}
