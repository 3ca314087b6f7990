package handlers

import (
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/gorilla/websocket"
	"github.com/leaguehq/league-api/live"
	"github.com/leaguehq/league-api/services"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		// TODO: restrict to the frontend origin before exposing publicly.
		return true
	},
}

type WebSocketHandler struct {
	hub *live.Hub
}

func NewWebSocketHandler(hub *live.Hub) *WebSocketHandler {
	return &WebSocketHandler{hub: hub}
}

// ServeStandings подключает клиента к комнате дивизиона:
// /ws/standings/{divisionID}
func (h *WebSocketHandler) ServeStandings(w http.ResponseWriter, r *http.Request) {
	divisionID, err := strconv.Atoi(chi.URLParam(r, "divisionID"))
	if err != nil || divisionID <= 0 {
		http.Error(w, "invalid division id", http.StatusBadRequest)
		return
	}

	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		// upgrader сам отправляет HTTP-ошибку клиенту.
		slog.Error("failed to upgrade websocket connection", slog.Int("division_id", divisionID), slog.Any("error", err))
		return
	}

	client := &live.Client{
		Hub:  h.hub,
		Conn: conn,
		Send: make(chan []byte, 256),
		Room: services.DivisionRoomID(divisionID),
	}
	client.Hub.Register <- client

	go client.WritePump()
	go client.ReadPump()
}
