package routes

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"time"

	"nhooyr.io/websocket"

	"nutvest/core/types"
)

const (
	defaultEventLimit = 50
	wsWriteTimeout    = 10 * time.Second
)

func (a *api) eventLimit(r *http.Request, param string) (int, error) {
	raw := r.URL.Query().Get(param)
	if raw == "" {
		return defaultEventLimit, nil
	}
	n, err := parseUint(raw)
	if err != nil {
		return 0, err
	}
	return int(n), nil
}

// listEvents returns recently committed events, newest last. limit=0 returns
// the whole journal.
func (a *api) listEvents(w http.ResponseWriter, r *http.Request) {
	limit, err := a.eventLimit(r, "limit")
	if err != nil {
		a.fail(w, r, err)
		return
	}
	if a.events == nil {
		writeJSON(w, http.StatusOK, []types.Event{})
		return
	}
	writeJSON(w, http.StatusOK, a.events.Recent(limit))
}

// streamEvents upgrades to a websocket, sends the backlog and then every
// event committed while the connection is open.
func (a *api) streamEvents(w http.ResponseWriter, r *http.Request) {
	if a.events == nil {
		http.Error(w, "event feed unavailable", http.StatusServiceUnavailable)
		return
	}
	backlog, err := a.eventLimit(r, "backlog")
	if err != nil {
		a.fail(w, r, err)
		return
	}
	conn, err := websocket.Accept(w, r, &websocket.AcceptOptions{OriginPatterns: []string{"*"}})
	if err != nil {
		a.logger.Warn("event stream upgrade failed", slog.Any("error", err))
		return
	}
	defer conn.Close(websocket.StatusNormalClosure, "stream closed")
	// Client frames are discarded; CloseRead cancels ctx when the peer goes away.
	ctx := conn.CloseRead(r.Context())
	if err := a.pumpEvents(ctx, conn, backlog); err != nil {
		if websocket.CloseStatus(err) == -1 && ctx.Err() == nil {
			_ = conn.Close(websocket.StatusInternalError, "stream error")
		}
	}
}

func (a *api) pumpEvents(ctx context.Context, conn *websocket.Conn, backlog int) error {
	updates, cancel, recent := a.events.Subscribe(ctx, backlog)
	defer cancel()

	for _, evt := range recent {
		if err := writeEvent(ctx, conn, evt); err != nil {
			return err
		}
	}
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case evt, ok := <-updates:
			if !ok {
				return nil
			}
			if err := writeEvent(ctx, conn, evt); err != nil {
				return err
			}
		}
	}
}

func writeEvent(ctx context.Context, conn *websocket.Conn, evt types.Event) error {
	data, err := json.Marshal(evt)
	if err != nil {
		return err
	}
	writeCtx, cancel := context.WithTimeout(ctx, wsWriteTimeout)
	defer cancel()
	return conn.Write(writeCtx, websocket.MessageText, data)
}
