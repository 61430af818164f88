package httpapi

import (
	"fmt"
	"io"
	"net/http"
	"time"

	sonic "github.com/bytedance/sonic"
	"github.com/frozenbet/scoring-engine/internal/domain/livescore"
)

const liveScoreHeartbeat = 25 * time.Second

type liveScoreConnectedDTO struct {
	UserID      string    `json:"userId"`
	MatchIDs    []string  `json:"matchIds"`
	ConnectedAt time.Time `json:"connectedAt"`
}

// StreamLiveScores holds the connection open and writes one SSE event per score change.
func (h *Handler) StreamLiveScores(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.StreamLiveScores")
	defer span.End()

	principal, err := requirePrincipal(ctx)
	if err != nil {
		writeError(ctx, w, err)
		return
	}

	rc := http.NewResponseController(w)
	// The server write timeout would otherwise cut the stream.
	_ = rc.SetWriteDeadline(time.Time{})

	matchIDs := splitCSV(r.URL.Query().Get("matchIds"))
	sub, unsubscribe := h.liveScores.Subscribe(matchIDs)
	defer unsubscribe()

	header := w.Header()
	header.Set("Content-Type", "text/event-stream")
	header.Set("Cache-Control", "no-cache")
	header.Set("Connection", "keep-alive")
	header.Set("X-Accel-Buffering", "no")
	w.WriteHeader(http.StatusOK)

	connected := liveScoreConnectedDTO{UserID: principal.UserID, MatchIDs: matchIDs, ConnectedAt: time.Now().UTC()}
	if err := writeSSEEvent(w, string(livescore.EventConnected), connected); err != nil {
		return
	}
	if err := rc.Flush(); err != nil {
		h.logger.WarnContext(ctx, "live scores stream cannot flush", "error", err)
		return
	}
	h.logger.InfoContext(ctx, "live scores subscriber connected", "user_id", principal.UserID, "match_ids", matchIDs)

	heartbeat := time.NewTicker(h.heartbeat)
	defer heartbeat.Stop()

	for {
		select {
		case <-ctx.Done():
			h.logger.DebugContext(ctx, "live scores subscriber disconnected", "user_id", principal.UserID)
			return
		case <-heartbeat.C:
			if _, err := io.WriteString(w, ": heartbeat\n\n"); err != nil {
				return
			}
		case event, ok := <-sub.Events():
			if !ok {
				return
			}
			if err := writeSSEEvent(w, string(event.Type), event.Update); err != nil {
				h.logger.DebugContext(ctx, "live scores write failed", "user_id", principal.UserID, "error", err)
				return
			}
		}
		if err := rc.Flush(); err != nil {
			return
		}
	}
}

func writeSSEEvent(w io.Writer, event string, payload any) error {
	data, err := sonic.Marshal(payload)
	if err != nil {
		return err
	}
	_, err = fmt.Fprintf(w, "event: %s\ndata: %s\n\n", event, data)
	return err
}
