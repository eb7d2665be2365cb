package push

import (
	"log"
	"time"

	"github.com/gorilla/websocket"
)

const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingInterval   = (pongWait * 9) / 10
	maxMessageSize = 512
)

// Client is one websocket connection for one user. The stream is one-way:
// the read pump only services control frames and connection teardown.
type Client struct {
	conn   *websocket.Conn
	hub    *Hub
	log    *log.Logger
	userId int
	send   chan *Event
	stop   chan struct{}
}

func NewClient(userId int, conn *websocket.Conn, hub *Hub, l *log.Logger) *Client {
	return &Client{
		conn:   conn,
		hub:    hub,
		log:    l,
		userId: userId,
		send:   make(chan *Event, 64),
		stop:   make(chan struct{}),
	}
}

func (c *Client) Write() {
	ticker := time.NewTicker(pingInterval)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()

	for {
		select {
		case ev, ok := <-c.send:
			if !ok {
				return
			}

			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteJSON(ev); err != nil {
				c.log.Printf("ws: write: %v", err)
				return
			}
		case <-c.stop:
			return
		case <-ticker.C:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

func (c *Client) Read() {
	defer func() {
		c.conn.Close()
		c.hub.deRegisterChan <- c
	}()

	c.conn.SetReadLimit(maxMessageSize)
	c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error { c.conn.SetReadDeadline(time.Now().Add(pongWait)); return nil })
	for {
		if _, _, err := c.conn.ReadMessage(); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure,
				websocket.CloseNormalClosure) {
				c.log.Printf("ws: read: %v", err)
			}
			break
		}
	}
}

// queueEvent hands the event to the write pump without blocking the hub. A
// slow consumer loses events rather than stalling delivery to everyone else.
func (c *Client) queueEvent(ev *Event) {
	select {
	case c.send <- ev:
	default:
		c.log.Printf("send buffer full for user %d, dropping event", c.userId)
	}
}

func (c *Client) close() {
	close(c.stop)
}
