package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/gorilla/websocket"

	"github.com/wonny/campaign-scorer/internal/contracts"
	"github.com/wonny/campaign-scorer/internal/history"
	"github.com/wonny/campaign-scorer/internal/inference"
	"github.com/wonny/campaign-scorer/internal/validation"
	"github.com/wonny/campaign-scorer/pkg/logger"
)

const (
	pingInterval   = 30 * time.Second
	pongWait       = 60 * time.Second
	writeWait      = 10 * time.Second
	maxStreamFrame = 1 << 20
)

// StreamRequest is one scoring request frame on /ws/predict
type StreamRequest struct {
	ID     string           `json:"id,omitempty"`
	Client contracts.Record `json:"client"`
}

// StreamResponse answers exactly one StreamRequest, in arrival order
type StreamResponse struct {
	ID     string                      `json:"id,omitempty"`
	Result *contracts.PredictionResult `json:"result,omitempty"`
	Error  *ErrorResponse              `json:"error,omitempty"`
}

// StreamHandler scores records arriving over a websocket
type StreamHandler struct {
	service  *inference.Service
	upgrader websocket.Upgrader
	logger   *logger.Logger
}

// NewStreamHandler creates a new websocket scoring handler.
// allowedOrigins follows the CORS list; "*" accepts any origin.
func NewStreamHandler(service *inference.Service, allowedOrigins []string, log *logger.Logger) *StreamHandler {
	origins := make(map[string]bool, len(allowedOrigins))
	for _, o := range allowedOrigins {
		origins[o] = true
	}

	return &StreamHandler{
		service: service,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  4096,
			WriteBufferSize: 4096,
			CheckOrigin: func(r *http.Request) bool {
				origin := r.Header.Get("Origin")
				return origin == "" || origins["*"] || origins[origin]
			},
		},
		logger: log.Component("api.stream"),
	}
}

// Serve handles GET /ws/predict
func (h *StreamHandler) Serve(w http.ResponseWriter, r *http.Request) {
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		// Upgrade 가 이미 에러 응답을 씀
		h.logger.WithError(err).Debug("WebSocket upgrade failed")
		return
	}
	defer conn.Close()

	ctx, cancel := context.WithCancel(r.Context())
	defer cancel()

	conn.SetReadLimit(maxStreamFrame)
	conn.SetReadDeadline(time.Now().Add(pongWait))
	conn.SetPongHandler(func(string) error {
		return conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	go h.pingLoop(ctx, conn)

	h.logger.Ctx(r.Context()).WithField("remote", r.RemoteAddr).Info("Stream client connected")
	served := 0
	defer func() {
		h.logger.WithFields(map[string]interface{}{
			"remote": r.RemoteAddr,
			"served": served,
		}).Info("Stream client disconnected")
	}()

	for {
		_, data, err := conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				h.logger.WithError(err).Warn("Stream read error")
			}
			return
		}

		resp := h.handleFrame(ctx, data)
		conn.SetWriteDeadline(time.Now().Add(writeWait))
		if err := conn.WriteJSON(resp); err != nil {
			h.logger.WithError(err).Warn("Stream write error")
			return
		}
		served++
	}
}

func (h *StreamHandler) handleFrame(ctx context.Context, data []byte) StreamResponse {
	var req StreamRequest
	if err := json.Unmarshal(data, &req); err != nil {
		return StreamResponse{Error: &ErrorResponse{
			Error: "invalid frame: " + err.Error(),
			Kind:  contracts.KindInput,
		}}
	}
	if req.Client == nil {
		return StreamResponse{ID: req.ID, Error: &ErrorResponse{
			Error: "client is required",
			Kind:  contracts.KindInput,
		}}
	}

	if err := validation.Validate(req.Client); err != nil {
		e := NewErrorResponse(err)
		return StreamResponse{ID: req.ID, Error: &e}
	}

	res, err := h.service.Predict(ctx, req.Client, history.SourceStream)
	if err != nil {
		e := NewErrorResponse(err)
		return StreamResponse{ID: req.ID, Error: &e}
	}
	return StreamResponse{ID: req.ID, Result: &res}
}

// pingLoop keeps the connection alive; WriteControl is safe alongside the reader's writes
func (h *StreamHandler) pingLoop(ctx context.Context, conn *websocket.Conn) {
	ticker := time.NewTicker(pingInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if err := conn.WriteControl(websocket.PingMessage, []byte{}, time.Now().Add(writeWait)); err != nil {
				h.logger.WithError(err).Debug("Ping failed")
				return
			}
		}
	}
}
