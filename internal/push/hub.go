package push

import (
	"log"
	"sync"

	"github.com/mindline-app/mindline-server/internal/stats"
	"github.com/mindline-app/mindline-server/internal/types"
)

// Event is the envelope written to websocket clients. Pointer-per-variant so
// new event kinds can be added without breaking existing readers.
type Event struct {
	Notification *types.Notification `json:"notification,omitempty"`
}

type userEvent struct {
	userId int
	event  *Event
}

// Hub tracks live websocket connections per user and delivers notification
// events to them. Delivery is best-effort: users without a connection simply
// read the notifications table later.
type Hub struct {
	log            *log.Logger
	stats          stats.StatsProvider
	clients        map[int]map[*Client]struct{}
	clientsLock    sync.Mutex
	RegisterChan   chan *Client
	deRegisterChan chan *Client
	events         chan userEvent
	stop           chan struct{}
	done           chan struct{}
}

func NewHub(logger *log.Logger, sp stats.StatsProvider) *Hub {
	return &Hub{
		log:            logger,
		stats:          sp,
		clients:        make(map[int]map[*Client]struct{}),
		RegisterChan:   make(chan *Client),
		deRegisterChan: make(chan *Client),
		events:         make(chan userEvent, 256),
		stop:           make(chan struct{}),
		done:           make(chan struct{}),
	}
}

func (h *Hub) Run() {
	for {
		select {
		case client := <-h.RegisterChan:
			h.log.Printf("adding connection for user %d", client.userId)
			h.addClient(client)
		case client := <-h.deRegisterChan:
			h.log.Printf("removing connection for user %d", client.userId)
			h.removeClient(client)
		case ev := <-h.events:
			h.deliver(ev.userId, ev.event)
		case <-h.stop:
			h.clientsLock.Lock()
			for _, conns := range h.clients {
				for c := range conns {
					c.close()
				}
			}
			h.clients = make(map[int]map[*Client]struct{})
			h.clientsLock.Unlock()

			close(h.done)
			return
		}
	}
}

// Publish queues a notification event for every live connection the user
// has. Never blocks the caller: if the hub's queue is full the event is
// dropped and the user catches up from the table.
func (h *Hub) Publish(userId int, n types.Notification) {
	select {
	case h.events <- userEvent{userId: userId, event: &Event{Notification: &n}}:
	default:
		h.stats.Incr("push_events_dropped")
		h.log.Printf("push queue full, dropping event for user %d", userId)
	}
}

func (h *Hub) Stop() {
	close(h.stop)
	<-h.done
}

func (h *Hub) addClient(c *Client) {
	h.clientsLock.Lock()
	defer h.clientsLock.Unlock()

	conns, ok := h.clients[c.userId]
	if !ok {
		conns = make(map[*Client]struct{})
		h.clients[c.userId] = conns
	}
	conns[c] = struct{}{}
	h.stats.Incr("push_clients")
}

func (h *Hub) removeClient(c *Client) {
	h.clientsLock.Lock()
	defer h.clientsLock.Unlock()

	conns, ok := h.clients[c.userId]
	if !ok {
		return
	}
	if _, ok := conns[c]; !ok {
		return
	}

	delete(conns, c)
	if len(conns) == 0 {
		delete(h.clients, c.userId)
	}
	h.stats.Decr("push_clients")
}

func (h *Hub) deliver(userId int, ev *Event) {
	h.clientsLock.Lock()
	defer h.clientsLock.Unlock()

	for c := range h.clients[userId] {
		c.queueEvent(ev)
	}
}
