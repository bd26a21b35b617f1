package orchestrator

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// ErrEmptyQuery is returned for a chat request with no query text.
var ErrEmptyQuery = errors.New("orchestrator: empty query")

// Response is one completed chat turn.
type Response struct {
	Query     string `json:"query"`
	Response  string `json:"response"`
	SessionID string `json:"session_id"`
}

// Hub is the chat entry point. It assigns session ids and turns access
// denials into user-facing messages instead of errors.
type Hub struct {
	orch *Orchestrator
	log  *zap.Logger
}

func NewHub(orch *Orchestrator, log *zap.Logger) *Hub {
	if log == nil {
		log = zap.NewNop()
	}
	return &Hub{orch: orch, log: log}
}

// Handle runs one chat turn. A blank sessionID starts a new session.
func (h *Hub) Handle(ctx context.Context, user User, query, sessionID string) (*Response, error) {
	if query == "" {
		return nil, ErrEmptyQuery
	}
	if sessionID == "" {
		sessionID = uuid.NewString()
	}

	out, err := h.orch.Route(ctx, user, query)
	if err != nil {
		var denied *AccessDeniedError
		if errors.As(err, &denied) {
			h.log.Info("access denied",
				zap.String("role", string(denied.Role)),
				zap.String("intent", string(denied.Intent)))
			out = denied.Message()
		} else {
			return nil, err
		}
	}

	return &Response{Query: query, Response: out, SessionID: sessionID}, nil
}
