package session

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"laundro/internal/locks"
	"laundro/pkg/logger"
)

const dialTimeout = 10 * time.Second

// WSTransport is the websocket implementation of Transport: it dials the
// hub's /ws endpoint and hands every inbound frame to a delivery
// callback (normally Session.Deliver).
type WSTransport struct {
	conn *websocket.Conn
	log  *logger.Logger

	writeMu sync.Mutex
	once    sync.Once
	done    chan struct{}
}

// DialTransport connects to the hub at wsURL, e.g.
// "ws://host:8080/ws?user_id=101".
func DialTransport(ctx context.Context, wsURL string, log *logger.Logger) (*WSTransport, error) {
	if log == nil {
		log = logger.Discard()
	}

	dialCtx, cancel := context.WithTimeout(ctx, dialTimeout)
	defer cancel()

	conn, _, err := websocket.DefaultDialer.DialContext(dialCtx, wsURL, nil)
	if err != nil {
		return nil, err
	}

	return &WSTransport{
		conn: conn,
		log:  log,
		done: make(chan struct{}),
	}, nil
}

func (t *WSTransport) Send(ev locks.Event) error {
	data, err := json.Marshal(ev)
	if err != nil {
		return err
	}

	t.writeMu.Lock()
	defer t.writeMu.Unlock()
	return t.conn.WriteMessage(websocket.TextMessage, data)
}

// Listen reads frames until the connection drops or Close is called,
// invoking deliver for each decodable event. Frames that do not decode
// are dropped; the protocol's own validation handles incomplete events,
// this only guards against non-JSON noise.
func (t *WSTransport) Listen(deliver func(locks.Event)) {
	defer t.Close()

	for {
		_, data, err := t.conn.ReadMessage()
		if err != nil {
			select {
			case <-t.done:
			default:
				t.log.Warn("broadcast connection lost", "error", err)
			}
			return
		}

		var ev locks.Event
		if err := json.Unmarshal(data, &ev); err != nil {
			t.log.Warn("dropping undecodable broadcast frame", "error", err)
			continue
		}
		deliver(ev)
	}
}

func (t *WSTransport) Close() error {
	var err error
	t.once.Do(func() {
		close(t.done)

		t.writeMu.Lock()
		_ = t.conn.WriteControl(
			websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""),
			time.Now().Add(time.Second),
		)
		t.writeMu.Unlock()

		err = t.conn.Close()
	})
	return err
}
