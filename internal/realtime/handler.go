package realtime

import (
	"net/http"

	"github.com/google/uuid"
	"github.com/igm/sockjs-go/sockjs"
)

// Handler mounts the SockJS endpoint under prefix. Each connection gets
// one client with a small send buffer; the read loop only handles trip
// subscription messages.
func Handler(prefix string, h *Hub) http.Handler {
	return sockjs.NewHandler(prefix, sockjs.DefaultOptions, func(session sockjs.Session) {
		client := &Client{ID: uuid.NewString(), Send: make(chan []byte, 16)}
		h.Register(client)
		defer h.Unregister(client)

		go func() {
			for msg := range client.Send {
				_ = session.Send(string(msg))
			}
		}()

		for {
			msg, err := session.Recv()
			if err != nil {
				return
			}
			parsed, ok := ParseSubscribe([]byte(msg))
			if !ok {
				continue
			}
			if parsed.Action == "unsubscribe" {
				h.Subscribe(client, 0)
			} else {
				h.Subscribe(client, parsed.TripID)
			}
		}
	})
}
