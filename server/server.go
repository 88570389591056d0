// Package server accepts chat connections and runs one Session per
// client. All shared state lives in the registry; all ordering lives
// in the broadcaster. The server itself only owns the accept loop.
package server

import (
	"context"
	"log/slog"
	"net"
	"sync"

	"wisp-chat/contract"
	"wisp-chat/domain"
	"wisp-chat/domain/event"
)

type Server struct {
	log       *slog.Logger
	listener  net.Listener
	registry  contract.IRegistry
	submitted chan<- domain.Message
	events    chan<- event.DomainEvent
	cfg       SessionConfig

	wg sync.WaitGroup
}

// New wires the accept loop to the chat pipeline. The caller keeps
// ownership of the listener's address; the server owns closing it.
func New(log *slog.Logger, listener net.Listener, registry contract.IRegistry,
	submitted chan<- domain.Message, events chan<- event.DomainEvent,
	cfg SessionConfig) *Server {
	return &Server{
		log:       log,
		listener:  listener,
		registry:  registry,
		submitted: submitted,
		events:    events,
		cfg:       cfg,
	}
}

// Addr reports the bound chat address, useful when the port was 0.
func (s *Server) Addr() string {
	return s.listener.Addr().String()
}

// Run accepts connections until ctx is canceled, then waits for every
// session to finish its Closing state.
func (s *Server) Run(ctx context.Context) error {
	stop := context.AfterFunc(ctx, func() { _ = s.listener.Close() })
	defer stop()
	defer s.wg.Wait()

	s.log.Info("Chat server listening", "addr", s.Addr())

	for {
		conn, err := s.listener.Accept()
		if err != nil {
			if ctx.Err() != nil {
				s.log.Info("Stopping accept loop")
				return nil
			}
			return err
		}

		s.log.Debug("New connection", "peer", conn.RemoteAddr().String())
		session := NewSession(s.log, conn, s.registry, s.submitted, s.events, s.cfg)

		s.wg.Add(1)
		go func() {
			defer s.wg.Done()
			session.Run(ctx)
		}()
	}
}
