package server

import (
	"sync"

	"go.uber.org/zap"
)

// Messenger is the single outbound writer: it drains the outbound queue and
// resolves each message's target against the transport map. A stalled or
// broken transport only loses its own messages; the matching reader notices
// the dead socket and synthesizes the disconnection.
type Messenger struct {
	conns    *sync.Map // connID -> transport
	outbound <-chan Message
	log      *zap.SugaredLogger
}

func NewMessenger(conns *sync.Map, outbound <-chan Message, log *zap.SugaredLogger) *Messenger {
	return &Messenger{conns: conns, outbound: outbound, log: log}
}

// Run writes until the outbound channel is closed.
func (m *Messenger) Run() {
	for msg := range m.outbound {
		if msg.ConnID == BroadcastTarget {
			m.conns.Range(func(id, t any) bool {
				m.write(id.(int64), t.(transport), msg.Payload)
				return true
			})
			continue
		}
		t, ok := m.conns.Load(msg.ConnID)
		if !ok {
			// Target disconnected between enqueue and drain.
			continue
		}
		m.write(msg.ConnID, t.(transport), msg.Payload)
	}
}

func (m *Messenger) write(id int64, t transport, payload string) {
	if err := t.WriteLine(payload); err != nil {
		m.log.Infof("write to connection %d failed: %v", id, err)
		t.Close()
	}
}
