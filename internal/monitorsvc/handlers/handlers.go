package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/kriugm/kri-services/internal/comm"
	"github.com/kriugm/kri-services/internal/monitorsvc/broker"
	"github.com/kriugm/kri-services/internal/monitorsvc/ws"
	log "github.com/sirupsen/logrus"
)

type Handler struct {
	upgrader    websocket.Upgrader
	ws          *ws.Ws
	backlog     broker.Backlog
	backlogSize int
}

type Response struct {
	Message string      `json:"message"`
	Code    int         `json:"code"`
	Data    interface{} `json:"data"`
	Error   string      `json:"error,omitempty"`
}

// NewHandler serves monitor sockets. backlog may be nil.
func NewHandler(s *ws.Ws, backlog broker.Backlog, backlogSize int) *Handler {
	h := &Handler{
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin:     func(r *http.Request) bool { return true },
		},
		ws:          s,
		backlog:     backlog,
		backlogSize: backlogSize,
	}
	return h
}

// HandleWebSocket upgrades a monitor client, replays the backlog and then
// leaves the socket to the broadcast feed. ?staff_id= narrows the feed to
// one gate.
func (h *Handler) HandleWebSocket(w http.ResponseWriter, r *http.Request) {
	var staffID int64
	if v := r.URL.Query().Get("staff_id"); v != "" {
		id, err := strconv.ParseInt(v, 10, 64)
		if err != nil {
			h.CreateResponse(w, Response{Message: "bad staff_id", Code: http.StatusBadRequest, Error: http.StatusText(http.StatusBadRequest)})
			return
		}
		staffID = id
	}

	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Errorf("Failed to upgrade to WebSocket: %v", err)
		return
	}

	socketId := uuid.New().String()

	// catch the client up before it joins the live feed
	h.ws.Join(socketId, conn, staffID, func(send func([]byte) error) []int64 {
		h.send(send, comm.TypeWelcome, map[string]string{"socketid": socketId})
		return h.replay(r.Context(), send, staffID)
	})
	log.Infof("New monitor connection established: %s", socketId)

	go h.handleConnection(conn, socketId)
}

// replay sends the recent backlog and returns the entry ids it sent.
func (h *Handler) replay(ctx context.Context, send func([]byte) error, staffID int64) []int64 {
	if h.backlog == nil || h.backlogSize <= 0 {
		return nil
	}

	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	events, err := h.backlog.Recent(ctx, h.backlogSize)
	if err != nil {
		log.Warnf("unable to load backlog: %v", err)
		return nil
	}

	filtered := events[:0]
	ids := make([]int64, 0, len(events))
	for _, e := range events {
		if staffID == 0 || e.StaffID == staffID {
			filtered = append(filtered, e)
			ids = append(ids, e.EntryID)
		}
	}
	if err := h.send(send, comm.TypeBacklog, filtered); err != nil {
		return nil
	}
	return ids
}

func (h *Handler) send(send func([]byte) error, msgType string, v interface{}) error {
	msg, err := comm.NewMessage(msgType, v)
	if err != nil {
		log.Errorf("Failed to marshal %s message: %v", msgType, err)
		return err
	}
	data, err := json.Marshal(msg)
	if err != nil {
		log.Errorf("Failed to marshal %s message: %v", msgType, err)
		return err
	}
	if err := send(data); err != nil {
		log.Errorf("Failed to send %s message: %v", msgType, err)
		return err
	}
	return nil
}

// handleConnection drains client frames until the socket closes. Monitors
// only listen, so incoming frames are discarded.
func (h *Handler) handleConnection(conn *websocket.Conn, socketId string) {
	defer func() {
		log.Infof("Closing monitor connection: %s", socketId)
		h.ws.HandleDisconnect(socketId)
		conn.Close()
	}()

	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				log.Errorf("WebSocket unexpected close error for socket %s: %v", socketId, err)
			}
			return
		}
	}
}

func (h *Handler) CreateResponse(w http.ResponseWriter, rsp Response) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(rsp.Code)
	if err := json.NewEncoder(w).Encode(rsp); err != nil {
		log.Errorf("Failed to encode response: %v", err)
	}
}

func (h *Handler) HealthHandler(w http.ResponseWriter, r *http.Request) {
	h.CreateResponse(w, Response{
		Message: "monitor service is running",
		Code:    http.StatusOK,
		Data:    map[string]int{"monitors": h.ws.Count()},
	})
}
