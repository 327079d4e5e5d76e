package connectionsupervisor

import (
	"context"
	"errors"
	"time"

	"github.com/charmbracelet/log"
	"github.com/wheelibin/mowd/internal/automower"
	"github.com/wheelibin/mowd/internal/constants"
	"github.com/wheelibin/mowd/internal/metrics"
	"github.com/wheelibin/mowd/internal/models"
)

type credentialManager interface {
	Authenticate(ctx context.Context) (automower.Credential, error)
	Invalidate()
	Revoke(ctx context.Context) error
}

type snapshotFetcher interface {
	FetchAll(ctx context.Context) ([]models.Mower, error)
}

type streamClient interface {
	Run(ctx context.Context, token string, onDelta automower.DeltaHandler) error
}

type stateMerger interface {
	ApplySnapshot(mowers []models.Mower) error
	ApplyDelta(delta models.DeltaMessage)
}

// ConnectionSupervisor owns the session with the vendor: it keeps the
// snapshot poll ticking, keeps the event stream open across disconnects
// and applies the close-code remediation policy.
type ConnectionSupervisor struct {
	logger       *log.Logger
	credentials  credentialManager
	fetcher      snapshotFetcher
	stream       streamClient
	merger       stateMerger
	pollInterval time.Duration

	reconnectRequests chan struct{}
}

func NewConnectionSupervisor(
	logger *log.Logger,
	credentials credentialManager,
	fetcher snapshotFetcher,
	stream streamClient,
	merger stateMerger,
	pollInterval time.Duration,
) *ConnectionSupervisor {
	return &ConnectionSupervisor{
		logger:            logger,
		credentials:       credentials,
		fetcher:           fetcher,
		stream:            stream,
		merger:            merger,
		pollInterval:      pollInterval,
		reconnectRequests: make(chan struct{}, 1),
	}
}

// RequestReconnect asks the supervisor to tear down the current stream
// session and open a fresh one. Safe to call from any goroutine; requests
// made while one is already pending are coalesced.
func (s *ConnectionSupervisor) RequestReconnect() {
	select {
	case s.reconnectRequests <- struct{}{}:
	default:
	}
}

// Run blocks until the context ends. Startup is authenticate → snapshot →
// open stream; afterwards the poll ticker and the stream lifecycle are
// driven from a single loop.
func (s *ConnectionSupervisor) Run(ctx context.Context) error {
	if _, err := s.credentials.Authenticate(ctx); err != nil {
		return err
	}
	if err := s.SyncSnapshot(ctx); err != nil {
		return err
	}

	ticker := time.NewTicker(s.pollInterval)
	defer ticker.Stop()

	streamClosed := make(chan error, 1)
	startedAt := time.Now()
	cancelStream := s.startStream(ctx, streamClosed)
	defer func() { cancelStream() }()

	delay := constants.ReconnectDelayMin
	var reconnectCh <-chan time.Time
	pendingReconnect := false

	schedule := func() {
		// a session that outlived the max backoff counts as a good open
		if time.Since(startedAt) > constants.ReconnectDelayMax {
			delay = constants.ReconnectDelayMin
		}
		s.logger.Info("Reconnecting to event stream", "delay", delay)
		reconnectCh = time.After(delay)
		delay *= 2
		if delay > constants.ReconnectDelayMax {
			delay = constants.ReconnectDelayMax
		}
	}

	for {
		select {
		case <-ctx.Done():
			cancelStream()
			revokeCtx, cancel := context.WithTimeout(context.Background(), constants.RevokeTimeout)
			defer cancel()
			if err := s.credentials.Revoke(revokeCtx); err != nil {
				s.logger.Warn("Error revoking token on shutdown", "error", err)
			}
			return nil

		case <-ticker.C:
			if err := s.SyncSnapshot(ctx); err != nil {
				s.logger.Error("Snapshot sync failed", "error", err)
			}

		case err := <-streamClosed:
			if ctx.Err() != nil {
				continue
			}
			if pendingReconnect {
				pendingReconnect = false
				schedule()
				continue
			}
			if err == nil {
				s.logger.Info("Event stream closed")
				continue
			}

			streamErr := &automower.StreamError{}
			if errors.As(err, &streamErr) {
				reconnect, invalidate := ClassifyCloseCode(streamErr.Code)
				switch streamErr.Code {
				case constants.CloseNormal, constants.CloseGoingAway,
					constants.CloseAbnormal, constants.CloseServiceRestart:
					s.logger.Warn("Event stream closed by server", "code", streamErr.Code, "reason", streamErr.Reason)
				default:
					s.logger.Error("Event stream closed with unexpected code", "code", streamErr.Code, "reason", streamErr.Reason)
				}
				if invalidate {
					s.credentials.Invalidate()
				}
				if !reconnect {
					continue
				}
			} else {
				s.logger.Error("Event stream failed", "error", err)
			}
			schedule()

		case <-reconnectCh:
			reconnectCh = nil
			cancelStream()
			startedAt = time.Now()
			cancelStream = s.startStream(ctx, streamClosed)
			metrics.StreamReconnects.Inc()

		case <-s.reconnectRequests:
			s.logger.Info("Stream reconnect requested")
			pendingReconnect = true
			cancelStream()
		}
	}
}

// SyncSnapshot fetches the full snapshot and merges it. An unauthorized
// fetch gets exactly one credential refresh and one retry; a second
// failure is surfaced to the caller.
func (s *ConnectionSupervisor) SyncSnapshot(ctx context.Context) error {
	mowers, err := s.fetcher.FetchAll(ctx)
	if err != nil {
		fetchErr := &automower.FetchError{}
		if !errors.As(err, &fetchErr) || fetchErr.Kind != automower.FetchUnauthorized {
			return err
		}

		s.logger.Warn("Snapshot fetch unauthorized, refreshing credentials")
		s.credentials.Invalidate()
		if _, authErr := s.credentials.Authenticate(ctx); authErr != nil {
			return authErr
		}
		mowers, err = s.fetcher.FetchAll(ctx)
		if err != nil {
			return err
		}
	}

	metrics.SnapshotsFetched.Inc()
	return s.merger.ApplySnapshot(mowers)
}

// startStream opens the stream in its own goroutine and reports its exit
// on closed. The returned cancel tears the session down; the stream sends
// a normal close frame before dropping the socket.
func (s *ConnectionSupervisor) startStream(ctx context.Context, closed chan<- error) context.CancelFunc {
	streamCtx, cancel := context.WithCancel(ctx)

	go func() {
		cred, err := s.credentials.Authenticate(streamCtx)
		if err != nil {
			closed <- err
			return
		}
		closed <- s.stream.Run(streamCtx, cred.AccessToken, s.merger.ApplyDelta)
	}()

	return cancel
}

// ClassifyCloseCode maps a stream close code onto the remediation policy:
// whether to reconnect at all and whether to refresh credentials first.
//
//	1000  self-initiated close, no reconnect
//	1001  server going away, plain reconnect
//	1006  abnormal closure, refresh credentials then reconnect
//	1012  service restart, refresh credentials then reconnect
//	else  reconnect anyway (the caller logs the surprise)
func ClassifyCloseCode(code int) (reconnect bool, invalidate bool) {
	switch code {
	case constants.CloseNormal:
		return false, false
	case constants.CloseGoingAway:
		return true, false
	case constants.CloseAbnormal, constants.CloseServiceRestart:
		return true, true
	default:
		return true, false
	}
}
