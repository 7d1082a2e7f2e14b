package http

import (
	"context"
	"encoding/json"
	"net/http"
	"sync"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog/log"
	"mindgate-service/internal/app"
	"mindgate-service/internal/domain"
)

type WSHandler struct {
	service  *app.TrainingService
	upgrader websocket.Upgrader
}

func NewWSHandler(service *app.TrainingService) *WSHandler {
	return &WSHandler{
		service: service,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin:     func(r *http.Request) bool { return true },
		},
	}
}

type inboundMessage struct {
	Type    string          `json:"type"`
	Payload json.RawMessage `json:"payload"`
}

type selectGamePayload struct {
	Index int `json:"index"`
}

type selectCellPayload struct {
	Cell int `json:"cell"`
}

type outboundMessage[T any] struct {
	Type    string `json:"type"`
	Payload T      `json:"payload"`
}

type errorPayload struct {
	Message string `json:"message"`
}

type selectionPayload struct {
	Index    int  `json:"index"`
	Selected bool `json:"selected"`
}

// ServeWS upgrades HTTP requests to websockets and wires them into the training use cases.
// Without a sessionId query parameter a new session is started and ended on disconnect.
func (h *WSHandler) ServeWS(w http.ResponseWriter, r *http.Request) {
	ctx, stop := context.WithCancel(r.Context())
	defer stop()
	sessionID := r.URL.Query().Get("sessionId")
	owned := sessionID == ""

	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Warn().Err(err).Msg("ws upgrade failed")
		return
	}
	defer conn.Close()

	var view domain.PlayerView
	if owned {
		view, err = h.service.StartSession(ctx)
		sessionID = view.SessionID
	} else {
		view, err = h.service.View(ctx, sessionID)
	}
	if err != nil {
		_ = conn.WriteJSON(outboundMessage[errorPayload]{Type: "error", Payload: errorPayload{Message: err.Error()}})
		return
	}
	if owned {
		defer h.service.End(context.Background(), sessionID)
	}

	updates, unsubscribe, err := h.service.Subscribe(ctx, sessionID)
	if err != nil {
		_ = conn.WriteJSON(outboundMessage[errorPayload]{Type: "error", Payload: errorPayload{Message: err.Error()}})
		return
	}
	defer unsubscribe()

	send := make(chan outboundMessage[any], 16)
	closeSignals := make(chan struct{})
	writerDone := make(chan struct{})
	updatesDone := make(chan struct{})
	var inflight sync.WaitGroup

	go func() {
		defer close(writerDone)
		for msg := range send {
			if err := conn.WriteJSON(msg); err != nil {
				log.Warn().Err(err).Str("session", sessionID).Msg("ws write error")
				return
			}
		}
	}()

	go func() {
		defer close(updatesDone)
		for {
			select {
			case update, ok := <-updates:
				if !ok {
					return
				}
				select {
				case send <- outboundMessage[any]{Type: "state", Payload: update}:
				case <-closeSignals:
					return
				}
			case <-closeSignals:
				return
			}
		}
	}()

	reply := func(msg outboundMessage[any]) {
		select {
		case send <- msg:
		case <-closeSignals:
		}
	}
	replyErr := func(err error) {
		reply(outboundMessage[any]{Type: "error", Payload: errorPayload{Message: err.Error()}})
	}

	// Submissions run off the read loop so a click during an in-flight submission
	// reaches the controller and is dropped there instead of queueing behind it.
	submit := func(fn func(context.Context, string) (domain.PlayerView, error)) {
		inflight.Add(1)
		go func() {
			defer inflight.Done()
			if _, err := fn(ctx, sessionID); err != nil {
				replyErr(err)
			}
		}()
	}

	send <- outboundMessage[any]{Type: "session", Payload: view}

	for {
		var inbound inboundMessage
		if err := conn.ReadJSON(&inbound); err != nil {
			break
		}
		switch inbound.Type {
		case "start":
			if _, err := h.service.Start(ctx, sessionID); err != nil {
				replyErr(err)
			}
		case "next":
			submit(h.service.Next)
		case "finish":
			submit(h.service.Finish)
		case "submit":
			submit(h.service.Submit)
		case "selectGame":
			var payload selectGamePayload
			if err := json.Unmarshal(inbound.Payload, &payload); err != nil {
				reply(outboundMessage[any]{Type: "error", Payload: errorPayload{Message: "invalid selectGame payload"}})
				continue
			}
			_, ok, err := h.service.SelectGame(ctx, sessionID, payload.Index)
			if err != nil {
				replyErr(err)
				continue
			}
			reply(outboundMessage[any]{Type: "selection", Payload: selectionPayload{Index: payload.Index, Selected: ok}})
		case "selectCell":
			var payload selectCellPayload
			if err := json.Unmarshal(inbound.Payload, &payload); err != nil {
				reply(outboundMessage[any]{Type: "error", Payload: errorPayload{Message: "invalid selectCell payload"}})
				continue
			}
			// Toggles apply in arrival order; only the submission of a full selection leaves the loop.
			_, pending, err := h.service.ToggleCell(ctx, sessionID, payload.Cell)
			if err != nil {
				replyErr(err)
				continue
			}
			if pending != nil {
				submit(func(ctx context.Context, _ string) (domain.PlayerView, error) {
					return pending.Send(ctx)
				})
			}
		default:
			reply(outboundMessage[any]{Type: "error", Payload: errorPayload{Message: "unsupported message type"}})
		}
	}

	close(closeSignals)
	stop()
	inflight.Wait()
	<-updatesDone
	close(send)
	<-writerDone
}
