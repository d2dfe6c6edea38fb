package server

import (
	"bufio"
	"net"
	"sync"
	"sync/atomic"

	"go.uber.org/zap"
)

// transport is one live client endpoint. TCP sockets and websockets both
// satisfy it, so the rest of the server never cares which framing a client
// speaks.
type transport interface {
	WriteLine(line string) error
	Close() error
}

type tcpTransport struct {
	conn net.Conn
}

func (t *tcpTransport) WriteLine(line string) error {
	_, err := t.conn.Write([]byte(line + "\n"))
	return err
}

func (t *tcpTransport) Close() error {
	return t.conn.Close()
}

// Acceptor owns the TCP listener. Each accepted connection gets the next
// connection id, an entry in the shared transport map and a reader
// goroutine feeding the inbound queue.
type Acceptor struct {
	addr     string
	conns    *sync.Map // connID -> transport
	inbound  chan<- Message
	nextID   *atomic.Int64
	log      *zap.SugaredLogger
	listener net.Listener
}

func NewAcceptor(addr string, conns *sync.Map, inbound chan<- Message, nextID *atomic.Int64, log *zap.SugaredLogger) *Acceptor {
	return &Acceptor{
		addr:    addr,
		conns:   conns,
		inbound: inbound,
		nextID:  nextID,
		log:     log,
	}
}

// Start begins listening and accepting. It returns once the listener is
// bound; accepting continues in the background until Stop.
func (a *Acceptor) Start() error {
	l, err := net.Listen("tcp", a.addr)
	if err != nil {
		return err
	}
	a.listener = l
	a.log.Infof("game server listening on %s", a.addr)
	go a.acceptLoop()
	return nil
}

// Stop closes the listener; in-flight connections keep running until their
// readers hit EOF.
func (a *Acceptor) Stop() {
	if a.listener != nil {
		a.listener.Close()
	}
}

func (a *Acceptor) acceptLoop() {
	for {
		conn, err := a.listener.Accept()
		if err != nil {
			if ne, ok := err.(net.Error); ok && ne.Timeout() {
				continue
			}
			a.log.Infof("accept loop exiting: %v", err)
			return
		}
		id := a.nextID.Add(1)
		a.conns.Store(id, &tcpTransport{conn: conn})
		a.log.Infof("connection %d accepted from %s", id, conn.RemoteAddr())
		go a.readLoop(id, conn)
	}
}

// readLoop delivers one connection's frames to the inbound queue in arrival
// order. Any read failure or remote close is funneled into a synthesized
// disconnection message so the dispatcher runs exactly one cleanup path.
func (a *Acceptor) readLoop(id int64, conn net.Conn) {
	defer func() {
		a.inbound <- Message{ConnID: id, Payload: "D"}
	}()
	scanner := bufio.NewScanner(conn)
	for scanner.Scan() {
		line := scanner.Text()
		if line == "" {
			continue
		}
		a.inbound <- Message{ConnID: id, Payload: line}
	}
	if err := scanner.Err(); err != nil {
		a.log.Infof("connection %d read error: %v", id, err)
	}
}
