package server

import (
	"sync"
	"sync/atomic"

	"go.uber.org/zap"
)

const queueDepth = 256

// Server wires the connection layer to the dispatcher: one reader per
// connection and the acceptor feed the inbound queue, the dispatcher is
// its single consumer, and the messenger drains the outbound queue back to
// the transports.
type Server struct {
	reg      *Registry
	conns    *sync.Map
	inbound  chan Message
	outbound chan Message
	nextID   atomic.Int64

	acceptor   *Acceptor
	messenger  *Messenger
	dispatcher *Dispatcher
	log        *zap.SugaredLogger
}

func New(gameAddr string, store AccountStore, log *zap.SugaredLogger) *Server {
	s := &Server{
		reg:      NewRegistry(),
		conns:    &sync.Map{},
		inbound:  make(chan Message, queueDepth),
		outbound: make(chan Message, queueDepth),
		log:      log,
	}
	s.acceptor = NewAcceptor(gameAddr, s.conns, s.inbound, &s.nextID, log)
	s.messenger = NewMessenger(s.conns, s.outbound, log)
	s.dispatcher = NewDispatcher(s.reg, store, s.conns, s.inbound, s.outbound, log)
	return s
}

// Registry exposes the room snapshots the HTTP lobby API reads.
func (s *Server) Registry() *Registry {
	return s.reg
}

// Start binds the TCP listener and launches the messenger and dispatcher.
func (s *Server) Start() error {
	if err := s.acceptor.Start(); err != nil {
		return err
	}
	go s.messenger.Run()
	go s.dispatcher.Run()
	return nil
}

// Stop closes the listener and every live transport; the drained readers
// then let the queues wind down.
func (s *Server) Stop() {
	s.acceptor.Stop()
	s.conns.Range(func(_, t any) bool {
		t.(transport).Close()
		return true
	})
}
