package web

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/gorilla/websocket"
)

type wsMessage struct {
	Type    string          `json:"type"`
	Payload json.RawMessage `json:"payload,omitempty"`
}

var upgrader = websocket.Upgrader{CheckOrigin: func(r *http.Request) bool { return true }}

func mustMarshal(v any) json.RawMessage {
	b, err := json.Marshal(v)
	if err != nil {
		return nil
	}
	return b
}

// ws pushes a status message on every update of the game and accepts
// "move" and "request_status" messages from the client.
func (h *handlers) ws(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if _, ok := h.svc.Get(id); !ok {
		http.NotFound(w, r)
		return
	}
	pid := playerFromRequest(r)
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.log.Debug().Err(err).Str("game", id).Msg("websocket upgrade failed")
		return
	}
	defer conn.Close()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	updates, unsub, err := h.svc.Subscribe(ctx, id)
	if err != nil {
		return
	}
	defer unsub()

	// replies from the reader; the loop below is the only writer
	replies := make(chan wsMessage, 8)
	reply := func(m wsMessage) {
		select {
		case replies <- m:
		case <-ctx.Done():
		}
	}
	go func() {
		defer cancel()
		for {
			_, data, err := conn.ReadMessage()
			if err != nil {
				return
			}
			var msg wsMessage
			if err := json.Unmarshal(data, &msg); err != nil {
				continue
			}
			switch msg.Type {
			case "request_status":
				reply(h.statusMessage(id))
			case "move":
				var mv coordDTO
				if err := json.Unmarshal(msg.Payload, &mv); err != nil {
					reply(wsMessage{Type: "error", Payload: mustMarshal(errorDTO{Error: "invalid move payload"})})
					continue
				}
				if _, err := h.svc.Play(id, pid, mv.Col, mv.Row); err != nil {
					text, _ := errorStatus(err)
					reply(wsMessage{Type: "error", Payload: mustMarshal(errorDTO{Error: text})})
				}
			}
		}
	}()

	if err := h.writeLoop(ctx, conn, id, updates, replies); err != nil {
		h.log.Debug().Err(err).Str("game", id).Msg("websocket closed")
	}
}

func (h *handlers) writeLoop(ctx context.Context, conn *websocket.Conn, id string, updates <-chan []byte, replies <-chan wsMessage) error {
	ticker := time.NewTicker(h.heartbeat)
	defer ticker.Stop()
	lastWrite := time.Now()
	write := func(msg wsMessage) error {
		lastWrite = time.Now()
		return conn.WriteJSON(msg)
	}
	if err := write(h.statusMessage(id)); err != nil {
		return err
	}
	for {
		select {
		case <-ctx.Done():
			return nil
		case _, ok := <-updates:
			if !ok {
				return nil
			}
			if err := write(h.statusMessage(id)); err != nil {
				return err
			}
		case msg := <-replies:
			if err := write(msg); err != nil {
				return err
			}
		case <-ticker.C:
			if time.Since(lastWrite) < h.heartbeat {
				continue
			}
			if err := write(wsMessage{Type: "ping"}); err != nil {
				return err
			}
		}
	}
}

func (h *handlers) statusMessage(id string) wsMessage {
	gs, ok := h.svc.Get(id)
	if !ok {
		return wsMessage{Type: "error", Payload: mustMarshal(errorDTO{Error: "Game not found"})}
	}
	return wsMessage{Type: "status", Payload: mustMarshal(toStatusDTO(*gs))}
}
