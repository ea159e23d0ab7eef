package handlers

import (
	"net/http"

	"ragdesk/models"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"
)

type wsIncoming struct {
	Message string `json:"message"`
}

// wsFrame is every server-to-client message. Reply frames carry the full ChatReply.
type wsFrame struct {
	Type      string  `json:"type"`
	SessionID string  `json:"session_id,omitempty"`
	Fraction  float64 `json:"fraction,omitempty"`
	Label     string  `json:"label,omitempty"`
	Error     string  `json:"error,omitempty"`
	*models.ChatReply
}

type ChatSocketHandler struct {
	svc      ChatService
	upgrader websocket.Upgrader
}

// NewChatSocketHandler accepts browser connections only from allowedOrigins;
// an empty list allows any origin.
func NewChatSocketHandler(svc ChatService, allowedOrigins []string) *ChatSocketHandler {
	origins := make(map[string]bool)
	for _, o := range allowedOrigins {
		origins[o] = true
	}
	h := &ChatSocketHandler{svc: svc}
	h.upgrader = websocket.Upgrader{
		CheckOrigin: func(r *http.Request) bool {
			if len(origins) == 0 {
				return true
			}
			origin := r.Header.Get("Origin")
			return origin == "" || origins[origin]
		},
	}
	return h
}

// Serve handles GET /api/chat/ws. Each text message is processed in order;
// finalizer progress is streamed before the reply.
func (h *ChatSocketHandler) Serve(c *gin.Context) {
	logger := getLogger(c)
	conn, err := h.upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		logger.Warn("ws: upgrade failed", zap.Error(err))
		return
	}
	defer conn.Close()

	sessionID := c.Query("session_id")
	if sessionID == "" {
		sessionID = uuid.New().String()
	}
	if err := conn.WriteJSON(wsFrame{Type: "connected", SessionID: sessionID}); err != nil {
		return
	}

	ctx := c.Request.Context()
	for {
		var in wsIncoming
		if err := conn.ReadJSON(&in); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				logger.Warn("ws: closed unexpectedly", zap.String("session", sessionID), zap.Error(err))
			}
			return
		}

		progress := &progressSink{write: conn.WriteJSON, sessionID: sessionID, logger: logger}
		reply, err := h.svc.HandleMessage(ctx, sessionID, in.Message, progress)
		if progress.err != nil {
			return
		}
		if err != nil {
			logger.Warn("ws: message failed", zap.String("session", sessionID), zap.Error(err))
			if werr := conn.WriteJSON(wsFrame{Type: "error", SessionID: sessionID, Error: "Failed to process message"}); werr != nil {
				return
			}
			continue
		}
		if err := conn.WriteJSON(wsFrame{Type: "reply", SessionID: sessionID, ChatReply: reply}); err != nil {
			return
		}
	}
}

// progressSink streams progress frames. After a failed write the client is
// gone: the message still completes so the session is saved, but no further
// frames are attempted.
type progressSink struct {
	write     func(v any) error
	sessionID string
	logger    *zap.Logger
	err       error
}

func (p *progressSink) ReportProgress(fraction float64, label string) {
	if p.err != nil {
		return
	}
	p.err = p.write(wsFrame{Type: "progress", SessionID: p.sessionID, Fraction: fraction, Label: label})
	if p.err != nil {
		p.logger.Debug("ws: progress frame not delivered", zap.String("session", p.sessionID), zap.Error(p.err))
	}
}
