package adaptor

import (
	"log"
	"net/http"
	"time"

	"github.com/gorilla/websocket"
	"github.com/oklog/ulid/v2"
	"github.com/ponyo877/roomwatch/server/domain"
)

const writeWait = 5 * time.Second

// EventView is one kiosk change as sent over the websocket feed. Kiosk is
// nil for removals.
type EventView struct {
	Type      string     `json:"type"`
	Name      string     `json:"name"`
	Kiosk     *KioskView `json:"kiosk,omitempty"`
	Timestamp time.Time  `json:"timestamp"`
}

func NewEventView(e domain.KioskEvent, rooms domain.RoomTable) EventView {
	v := EventView{
		Type:      e.Type.String(),
		Name:      e.Kiosk.Name,
		Timestamp: e.Timestamp,
	}
	if e.Type != domain.EventKioskRemoved {
		k := NewKioskView(e.Kiosk, rooms)
		v.Kiosk = &k
	}
	return v
}

// Feed streams EventHub events to websocket clients, one hub subscription
// per connection.
type Feed struct {
	hub      *domain.EventHub
	rooms    domain.RoomTable
	upgrader websocket.Upgrader
}

func NewFeed(hub *domain.EventHub, rooms domain.RoomTable) *Feed {
	return &Feed{
		hub:   hub,
		rooms: rooms,
		upgrader: websocket.Upgrader{
			CheckOrigin: func(r *http.Request) bool {
				return true
			},
		},
	}
}

// GET /ws
func (f *Feed) ServeWS(w http.ResponseWriter, r *http.Request) {
	conn, err := f.upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Printf("WebSocket upgrade error: %v", err)
		return
	}
	defer conn.Close()

	id := "ws-" + ulid.Make().String()
	events, err := f.hub.Subscribe(id)
	if err != nil {
		log.Printf("Error subscribing %s: %v", id, err)
		return
	}
	log.Printf("Web client %s connected from %s", id, r.RemoteAddr)

	// the reader only notices the client going away
	go func() {
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				f.hub.Unsubscribe(id)
				return
			}
		}
	}()

	for event := range events {
		conn.SetWriteDeadline(time.Now().Add(writeWait))
		if err := conn.WriteJSON(NewEventView(event, f.rooms)); err != nil {
			log.Printf("Error writing to %s: %v", id, err)
			f.hub.Unsubscribe(id)
			break
		}
	}
	conn.WriteMessage(websocket.CloseMessage,
		websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
	log.Printf("Web client %s disconnected", id)
}
