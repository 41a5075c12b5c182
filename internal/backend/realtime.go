package backend

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"nhooyr.io/websocket"

	"github.com/adamavenir/parley/internal/types"
)

// Realtime is a subscribe-once push channel delivering message-insert
// events. Delivery is at-least-once and unordered; the poll path owns
// correctness, this channel only makes it fast.
type Realtime struct {
	conn *websocket.Conn
}

// Subscribe dials the push channel and subscribes to insert events for the
// message table. Callers treat failure as non-fatal: the session keeps
// working on polling alone.
func Subscribe(ctx context.Context, baseURL, token string) (*Realtime, error) {
	normalized, err := NormalizeBaseURL(baseURL)
	if err != nil {
		return nil, err
	}
	wsURL := strings.Replace(normalized, "https://", "wss://", 1)
	wsURL = strings.Replace(wsURL, "http://", "ws://", 1)
	wsURL += "/v1/realtime?table=messages"
	if token != "" {
		wsURL += "&token=" + token
	}

	conn, _, err := websocket.Dial(ctx, wsURL, nil)
	if err != nil {
		return nil, fmt.Errorf("websocket dial: %w", err)
	}
	// Events can outpace the reader during a refetch burst.
	conn.SetReadLimit(1 << 20)
	return &Realtime{conn: conn}, nil
}

// Next blocks until the next insert event arrives. Payloads that do not
// decode as JSON are returned as a zero event with a nil error so the caller
// can drop them through validation rather than tearing the channel down.
func (r *Realtime) Next(ctx context.Context) (types.InsertEvent, error) {
	_, data, err := r.conn.Read(ctx)
	if err != nil {
		return types.InsertEvent{}, err
	}
	var event types.InsertEvent
	if err := json.Unmarshal(data, &event); err != nil {
		return types.InsertEvent{}, nil
	}
	return event, nil
}

// Close tears the subscription down.
func (r *Realtime) Close() error {
	return r.conn.Close(websocket.StatusNormalClosure, "session teardown")
}
