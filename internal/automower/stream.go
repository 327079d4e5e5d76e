package automower

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/charmbracelet/log"
	"github.com/gorilla/websocket"
	"github.com/wheelibin/mowd/internal/constants"
	"github.com/wheelibin/mowd/internal/models"
)

type DeltaHandler func(models.DeltaMessage)

// EventStream maintains the persistent push connection to the vendor.
// It only decodes frames and keeps the link alive; what to do when the
// connection drops is the supervisor's decision.
type EventStream struct {
	logger *log.Logger
	url    string
	dialer *websocket.Dialer
}

func NewEventStream(logger *log.Logger, url string) *EventStream {
	return &EventStream{
		logger: logger,
		url:    url,
		dialer: websocket.DefaultDialer,
	}
}

// Run opens the stream with the given bearer token and blocks, invoking
// onDelta for every decoded device update in receipt order. It returns
// nil when the context ends (a planned close) and a *StreamError carrying
// the close code otherwise.
func (s *EventStream) Run(ctx context.Context, token string, onDelta DeltaHandler) error {
	header := http.Header{}
	header.Set("Authorization", "Bearer "+token)

	conn, _, err := s.dialer.DialContext(ctx, s.url, header)
	if err != nil {
		return &StreamError{Code: constants.CloseAbnormal, Reason: err.Error()}
	}
	defer conn.Close()

	s.logger.Info("Connected to the event stream, listening for updates...")

	// if no pong (or any other frame) arrives within a full ping round
	// trip the read below times out and the connection is torn down
	deadline := constants.StreamPingInterval + constants.StreamPongGrace
	_ = conn.SetReadDeadline(time.Now().Add(deadline))
	conn.SetPongHandler(func(string) error {
		s.logger.Debug("Pong received from server")
		return conn.SetReadDeadline(time.Now().Add(deadline))
	})

	done := make(chan struct{})
	defer close(done)
	go func() {
		ticker := time.NewTicker(constants.StreamPingInterval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				// planned close, tell the server before dropping the socket
				msg := websocket.FormatCloseMessage(websocket.CloseNormalClosure, "")
				_ = conn.WriteControl(websocket.CloseMessage, msg, time.Now().Add(time.Second))
				_ = conn.Close()
				return
			case <-done:
				return
			case <-ticker.C:
				s.logger.Debug("Sending ping to server")
				if err := conn.WriteControl(websocket.PingMessage, []byte("ping"), time.Now().Add(5*time.Second)); err != nil {
					s.logger.Warn("Error sending ping", "error", err)
				}
			}
		}
	}()

	for {
		_, message, err := conn.ReadMessage()
		if err != nil {
			if ctx.Err() != nil {
				s.logger.Debug("Event stream closed for shutdown/replacement")
				return nil
			}
			var closeErr *websocket.CloseError
			if errors.As(err, &closeErr) {
				return &StreamError{Code: closeErr.Code, Reason: closeErr.Text}
			}
			// read timeout or transport failure without a close frame
			return &StreamError{Code: constants.CloseAbnormal, Reason: err.Error()}
		}

		delta := models.DeltaMessage{}
		if err := json.Unmarshal(message, &delta); err != nil {
			s.logger.Debug("Dropping undecodable frame", "error", err)
			continue
		}
		if delta.ID == "" || delta.Attributes == nil {
			// heartbeat or other non-delta frame
			continue
		}
		onDelta(delta)
	}
}
