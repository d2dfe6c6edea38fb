package server

import (
	"net/http"

	"github.com/gorilla/websocket"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin:     func(r *http.Request) bool { return true },
}

// wsTransport adapts a websocket to the line transport: one text frame is
// one wire line. The messenger goroutine is the only writer, which is all
// the concurrency gorilla permits anyway.
type wsTransport struct {
	conn *websocket.Conn
}

func (t *wsTransport) WriteLine(line string) error {
	return t.conn.WriteMessage(websocket.TextMessage, []byte(line))
}

func (t *wsTransport) Close() error {
	return t.conn.Close()
}

// WSHandler upgrades a browser client onto the same wire protocol the TCP
// listener speaks. The connection gets a regular connection id and its
// frames flow through the same inbound queue.
func (s *Server) WSHandler(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.log.Infof("websocket upgrade failed: %v", err)
		return
	}
	id := s.nextID.Add(1)
	s.conns.Store(id, &wsTransport{conn: conn})
	s.log.Infof("websocket connection %d accepted from %s", id, conn.RemoteAddr())
	go s.wsReadLoop(id, conn)
}

func (s *Server) wsReadLoop(id int64, conn *websocket.Conn) {
	defer func() {
		s.inbound <- Message{ConnID: id, Payload: "D"}
	}()
	for {
		_, frame, err := conn.ReadMessage()
		if err != nil {
			s.log.Infof("websocket connection %d read error: %v", id, err)
			return
		}
		if len(frame) == 0 {
			continue
		}
		s.inbound <- Message{ConnID: id, Payload: string(frame)}
	}
}
