package wsrouter

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type echoInput struct {
	Text string `json:"text"`
}

type reply struct {
	Type string `json:"type"`
	Text string `json:"text"`
}

func newTestServer(t *testing.T, r *WSRouter) *websocket.Conn {
	t.Helper()

	upgrader := websocket.Upgrader{}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
		conn, err := upgrader.Upgrade(w, req, nil)
		if err != nil {
			return
		}
		_ = r.ServeConn(context.Background(), conn)
	}))
	t.Cleanup(srv.Close)

	url := "ws" + strings.TrimPrefix(srv.URL, "http")
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	t.Cleanup(func() { conn.Close() })

	return conn
}

func readReply(t *testing.T, conn *websocket.Conn) reply {
	t.Helper()

	require.NoError(t, conn.SetReadDeadline(time.Now().Add(2*time.Second)))
	var out reply
	require.NoError(t, conn.ReadJSON(&out))

	return out
}

func TestServeConn(t *testing.T) {
	t.Parallel()

	var (
		mu       sync.Mutex
		seenType []string
	)

	r := New()
	r.Use(func(next HandlerFunc[any]) HandlerFunc[any] {
		return func(ctx context.Context, conn *websocket.Conn, input any) error {
			mu.Lock()
			seenType = append(seenType, GetMessageTypeFromCtx(ctx))
			mu.Unlock()
			return next(ctx, conn, input)
		}
	})
	r.OnError(func(ctx context.Context, conn *websocket.Conn, err error) {
		_ = conn.WriteJSON(reply{Type: "error", Text: err.Error()})
	})
	Handle(r, "echo", func(ctx context.Context, conn *websocket.Conn, input echoInput) error {
		if input.Text == "fail" {
			return errors.New("handler failed")
		}
		return conn.WriteJSON(reply{Type: "echo", Text: input.Text})
	})

	conn := newTestServer(t, r)

	require.NoError(t, conn.WriteJSON(map[string]any{"type": "echo", "payload": map[string]string{"text": "hi"}}))
	assert.Equal(t, reply{Type: "echo", Text: "hi"}, readReply(t, conn))

	require.NoError(t, conn.WriteJSON(map[string]any{"type": "echo", "payload": map[string]string{"text": "fail"}}))
	assert.Equal(t, reply{Type: "error", Text: "handler failed"}, readReply(t, conn))

	require.NoError(t, conn.WriteJSON(map[string]any{"type": "nope"}))
	got := readReply(t, conn)
	assert.Equal(t, "error", got.Type)
	assert.Contains(t, got.Text, ErrUnknownMessageType.Error())

	require.NoError(t, conn.WriteMessage(websocket.TextMessage, []byte("{not json")))
	assert.Equal(t, reply{Type: "error", Text: ErrInvalidMessage.Error()}, readReply(t, conn))

	require.NoError(t, conn.WriteJSON(map[string]any{"type": "echo", "payload": map[string]int{"text": 1}}))
	got = readReply(t, conn)
	assert.Contains(t, got.Text, ErrInvalidPayload.Error())

	mu.Lock()
	defer mu.Unlock()
	assert.Equal(t, []string{"echo", "echo", "echo"}, seenType)
}
