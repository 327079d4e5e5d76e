package automower_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/wheelibin/mowd/internal/automower"
	"github.com/wheelibin/mowd/internal/models"
)

func wsURL(server *httptest.Server) string {
	return "ws" + strings.TrimPrefix(server.URL, "http")
}

func Test_StreamRun(t *testing.T) {

	t.Run("should decode deltas and hand back the server close code", func(t *testing.T) {
		// arrange
		upgrader := websocket.Upgrader{}
		var gotAuth string
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			gotAuth = r.Header.Get("Authorization")
			conn, err := upgrader.Upgrade(w, r, nil)
			if err != nil {
				return
			}
			defer conn.Close()

			// a non-delta frame first, then a real delta, then a close
			_ = conn.WriteMessage(websocket.TextMessage, []byte(`{"ready":true,"connectionId":"abc"}`))
			_ = conn.WriteMessage(websocket.TextMessage, []byte(`{"id":"mower-1","type":"battery-event-v2","attributes":{"battery":{"batteryPercent":42}}}`))
			msg := websocket.FormatCloseMessage(websocket.CloseGoingAway, "going away")
			_ = conn.WriteControl(websocket.CloseMessage, msg, time.Now().Add(time.Second))
			_, _, _ = conn.ReadMessage()
		}))
		defer server.Close()

		stream := automower.NewEventStream(testLogger(), wsURL(server))
		received := []models.DeltaMessage{}

		// act
		err := stream.Run(context.Background(), "stream-token", func(delta models.DeltaMessage) {
			received = append(received, delta)
		})

		// assert
		streamErr := &automower.StreamError{}
		assert.ErrorAs(t, err, &streamErr)
		assert.Equal(t, websocket.CloseGoingAway, streamErr.Code)
		assert.Equal(t, "Bearer stream-token", gotAuth)
		assert.Len(t, received, 1)
		assert.Equal(t, "mower-1", received[0].ID)
		assert.Equal(t, 42, received[0].Attributes.Battery.BatteryPercent)
	})

	t.Run("should return nil when the context is cancelled", func(t *testing.T) {
		// arrange
		upgrader := websocket.Upgrader{}
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			conn, err := upgrader.Upgrade(w, r, nil)
			if err != nil {
				return
			}
			defer conn.Close()
			_, _, _ = conn.ReadMessage()
		}))
		defer server.Close()

		stream := automower.NewEventStream(testLogger(), wsURL(server))
		ctx, cancel := context.WithCancel(context.Background())
		go func() {
			time.Sleep(50 * time.Millisecond)
			cancel()
		}()

		// act
		err := stream.Run(ctx, "stream-token", func(models.DeltaMessage) {})

		// assert
		assert.NoError(t, err)
	})

	t.Run("should report an abnormal closure when the dial fails", func(t *testing.T) {
		// arrange
		stream := automower.NewEventStream(testLogger(), "ws://127.0.0.1:1")

		// act
		err := stream.Run(context.Background(), "stream-token", func(models.DeltaMessage) {})

		// assert
		streamErr := &automower.StreamError{}
		assert.ErrorAs(t, err, &streamErr)
		assert.Equal(t, websocket.CloseAbnormalClosure, streamErr.Code)
	})
}
