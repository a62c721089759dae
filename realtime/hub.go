package realtime

import (
	"encoding/json"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/tablereserve/reservation-app/models"
	"github.com/tablereserve/reservation-app/utils"
)

// Event types
const (
	EventReservationCreated = "reservation_created"
	EventReservationUpdated = "reservation_updated"
	EventRestaurantUpdated  = "restaurant_updated"
	EventRestaurantDeleted  = "restaurant_deleted"
)

type Message struct {
	Event string      `json:"event"`
	Data  interface{} `json:"data"`
}

type subscriber struct {
	role         string
	restaurantID *uint
}

// covers reports whether the subscriber's admin scope includes restaurantID.
func (s subscriber) covers(restaurantID uint) bool {
	return s.restaurantID == nil || *s.restaurantID == restaurantID
}

const (
	// writeWait bounds a single frame write to a dashboard.
	writeWait = 10 * time.Second
	// sendBuffer is how many messages may queue for one client before it is dropped.
	sendBuffer = 16
)

type client struct {
	conn *websocket.Conn
	sub  subscriber
	send chan []byte
}

// writePump owns all writes to the connection.
func (c *client) writePump(h *Hub) {
	defer c.conn.Close()
	for data := range c.send {
		c.conn.SetWriteDeadline(time.Now().Add(writeWait))
		if err := c.conn.WriteMessage(websocket.TextMessage, data); err != nil {
			utils.ErrorLogger.Printf("Dropping realtime client (%s): %v", c.sub.role, err)
			h.Unregister(c.conn)
		}
	}
}

// Hub holds the dashboard websocket connections. Broadcast only queues
// messages; each client's writer goroutine does the socket I/O.
type Hub struct {
	clients map[*websocket.Conn]*client
	mutex   sync.Mutex
}

func NewHub() *Hub {
	return &Hub{clients: make(map[*websocket.Conn]*client)}
}

var defaultHub = NewHub()

func Default() *Hub {
	return defaultHub
}

func (h *Hub) Register(conn *websocket.Conn, role string, restaurantID *uint) {
	c := &client{
		conn: conn,
		sub:  subscriber{role: role, restaurantID: restaurantID},
		send: make(chan []byte, sendBuffer),
	}

	h.mutex.Lock()
	h.clients[conn] = c
	h.mutex.Unlock()

	go c.writePump(h)
}

func (h *Hub) Unregister(conn *websocket.Conn) {
	h.mutex.Lock()
	h.remove(conn)
	h.mutex.Unlock()
	conn.Close()
}

// remove must be called with the mutex held.
func (h *Hub) remove(conn *websocket.Conn) {
	if c, ok := h.clients[conn]; ok {
		delete(h.clients, conn)
		close(c.send)
	}
}

func (h *Hub) ClientCount() int {
	h.mutex.Lock()
	defer h.mutex.Unlock()
	return len(h.clients)
}

// Broadcast queues msg for every subscriber whose scope covers restaurantID.
// It never blocks on a socket: a client whose queue is full is dropped.
func (h *Hub) Broadcast(restaurantID uint, msg Message) {
	data, err := json.Marshal(msg)
	if err != nil {
		utils.ErrorLogger.Printf("Error marshaling realtime message: %v", err)
		return
	}

	h.mutex.Lock()
	defer h.mutex.Unlock()

	for conn, c := range h.clients {
		if !c.sub.covers(restaurantID) {
			continue
		}
		select {
		case c.send <- data:
		default:
			utils.ErrorLogger.Printf("Dropping realtime client (%s): send queue full", c.sub.role)
			h.remove(conn)
		}
	}
}

func RegisterClient(conn *websocket.Conn, role string, restaurantID *uint) {
	defaultHub.Register(conn, role, restaurantID)
}

func UnregisterClient(conn *websocket.Conn) {
	defaultHub.Unregister(conn)
}

// BroadcastReservation pushes a reservation change to the dashboards of its restaurant.
func BroadcastReservation(event string, reservation models.Reservation) {
	defaultHub.Broadcast(reservation.RestaurantID, Message{
		Event: event,
		Data:  reservation,
	})
}

func BroadcastRestaurant(event string, restaurant models.Restaurant) {
	defaultHub.Broadcast(restaurant.ID, Message{
		Event: event,
		Data:  restaurant,
	})
}
