package room

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	apperrors "github.com/balai/budget-middleware/pkg/app/errors"
	apphttp "github.com/balai/budget-middleware/pkg/app/http"
	"github.com/balai/budget-middleware/pkg/auth"
)

const (
	writeTimeout = 10 * time.Second
	// turns keep running after the submitting connection drops, but not forever
	turnTimeout = 90 * time.Second
	// inbound frames queued ahead of the connection's turn worker
	frameQueueSize = 16
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	// Cross-origin policy is enforced at the edge; tokens still gate the join
	CheckOrigin: func(r *http.Request) bool { return true },
}

type inboundFrame struct {
	Message string `json:"message"`
}

// Routes registers the websocket endpoint. The auth middleware must run
// before this router so the user id is present in the request context.
func (s *Service) Routes() chi.Router {
	r := chi.NewRouter()
	r.Get("/{conversationID}", apphttp.HandleError(s.serveWS))
	return r
}

// serveWS authorizes the join, upgrades the connection and runs the
// read/write loops until the client disconnects.
func (s *Service) serveWS(w http.ResponseWriter, r *http.Request) error {
	userID, ok := auth.UserIDFromContext(r.Context())
	if !ok {
		return apperrors.UnAuthorizedError(nil, "authentication required")
	}
	conversationID := chi.URLParam(r, "conversationID")

	// Authorize before upgrading so rejections are plain HTTP errors
	sub, err := s.Join(r.Context(), userID, conversationID)
	if err != nil {
		return err
	}

	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		sub.Close()
		// Upgrade already wrote the HTTP error response
		return nil
	}

	go s.writeLoop(conn, sub)
	s.readLoop(conn, sub, userID, conversationID)
	return nil
}

// writeLoop drains the subscription onto the websocket.
// It exits when the subscription closes or a write fails.
func (s *Service) writeLoop(conn *websocket.Conn, sub *Subscription) {
	for event := range sub.C {
		_ = conn.SetWriteDeadline(time.Now().Add(writeTimeout))
		if err := conn.WriteJSON(event); err != nil {
			sub.Close()
			_ = conn.Close()
			return
		}
	}
	_ = conn.SetWriteDeadline(time.Now().Add(writeTimeout))
	_ = conn.WriteMessage(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
	_ = conn.Close()
}

// readLoop consumes inbound frames and hands them to the connection's
// turn worker. Turns run detached from the connection's lifetime: closing
// the socket unsubscribes but does not cancel an in-flight turn.
func (s *Service) readLoop(conn *websocket.Conn, sub *Subscription, userID int64, conversationID string) {
	defer sub.Close()

	// A single worker per connection keeps the client's own turns in
	// arrival order; a goroutine per frame could acquire the turn lock
	// out of submission order.
	frames := make(chan string, frameQueueSize)
	defer close(frames)
	go s.submitLoop(frames, userID, conversationID)

	for {
		var frame inboundFrame
		if err := conn.ReadJSON(&frame); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				s.logger.Debug("websocket closed unexpectedly",
					zap.String("conversation_id", conversationID),
					zap.Error(err),
				)
			}
			return
		}
		frames <- frame.Message
	}
}

// submitLoop drains one connection's frames sequentially. It exits once
// the frame channel is closed and drained.
func (s *Service) submitLoop(frames <-chan string, userID int64, conversationID string) {
	for text := range frames {
		ctx, cancel := context.WithTimeout(context.Background(), turnTimeout)
		err := s.SubmitTurn(ctx, userID, conversationID, text)
		cancel()
		if err != nil {
			s.logger.Warn("turn rejected",
				zap.String("conversation_id", conversationID),
				zap.Int64("user_id", userID),
				zap.Error(err),
			)
		}
	}
}
