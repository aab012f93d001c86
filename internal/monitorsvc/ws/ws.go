package ws

import (
	"sync"

	"github.com/gorilla/websocket"
	log "github.com/sirupsen/logrus"
)

// client is one monitor connection. gorilla/websocket allows a single
// concurrent writer, so every write goes through mu.
type client struct {
	conn     *websocket.Conn
	mu       sync.Mutex
	staffID  int64          // 0 watches every gate
	replayed map[int64]bool // backlog entries already sent, guarded by mu
}

func (c *client) write(data []byte) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.conn.WriteMessage(websocket.TextMessage, data)
}

// deliver writes a live scan unless the catch up already sent it.
func (c *client) deliver(entryID int64, data []byte) (bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.replayed[entryID] {
		delete(c.replayed, entryID)
		return false, nil
	}
	return true, c.conn.WriteMessage(websocket.TextMessage, data)
}

type Ws struct {
	connMap sync.Map // socketId -> *client
}

func NewWs() *Ws {
	return &Ws{}
}

// Join registers conn and runs catchUp while holding the socket's write
// lock. Broadcasts arriving meanwhile wait, and skip the entry ids catchUp
// reports as sent. staffID limits the feed to one gate.
func (s *Ws) Join(socketId string, conn *websocket.Conn, staffID int64, catchUp func(send func([]byte) error) []int64) {
	c := &client{conn: conn, staffID: staffID}
	c.mu.Lock()
	defer c.mu.Unlock()

	s.connMap.Store(socketId, c)

	sent := catchUp(func(data []byte) error {
		return conn.WriteMessage(websocket.TextMessage, data)
	})
	if len(sent) > 0 {
		c.replayed = make(map[int64]bool, len(sent))
		for _, id := range sent {
			c.replayed[id] = true
		}
	}
}

func (s *Ws) HandleDisconnect(socketId string) {
	s.connMap.Delete(socketId)
}

func (s *Ws) Count() int {
	n := 0
	s.connMap.Range(func(_, _ any) bool {
		n++
		return true
	})
	return n
}

// Send writes data to one socket.
func (s *Ws) Send(socketId string, data []byte) error {
	v, ok := s.connMap.Load(socketId)
	if !ok {
		return nil
	}
	return v.(*client).write(data)
}

// Broadcast writes the scan entryID to every socket watching staffID.
// Sockets that fail are closed and dropped.
func (s *Ws) Broadcast(staffID, entryID int64, data []byte) int {
	sent := 0
	s.connMap.Range(func(key, value any) bool {
		c := value.(*client)
		if c.staffID != 0 && c.staffID != staffID {
			return true
		}
		ok, err := c.deliver(entryID, data)
		if err != nil {
			log.Warnf("dropping socket %s: %v", key, err)
			c.conn.Close()
			s.connMap.Delete(key)
			return true
		}
		if ok {
			sent++
		}
		return true
	})
	return sent
}
