package connectionsupervisor_test

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/charmbracelet/log"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/wheelibin/mowd/internal/automower"
	connectionsupervisor "github.com/wheelibin/mowd/internal/connectionSupervisor"
	"github.com/wheelibin/mowd/internal/models"

	"github.com/wheelibin/mowd/mocks"
)

type supervisorFixture struct {
	supervisor  *connectionsupervisor.ConnectionSupervisor
	credentials *mocks.MockConnectionsupervisorCredentialManager
	fetcher     *mocks.MockConnectionsupervisorSnapshotFetcher
	stream      *mocks.MockConnectionsupervisorStreamClient
	merger      *mocks.MockConnectionsupervisorStateMerger
}

func newSupervisorFixture(t *testing.T) supervisorFixture {
	t.Helper()

	logger := log.NewWithOptions(os.Stderr, log.Options{Level: log.FatalLevel})
	f := supervisorFixture{
		credentials: mocks.NewMockConnectionsupervisorCredentialManager(t),
		fetcher:     mocks.NewMockConnectionsupervisorSnapshotFetcher(t),
		stream:      mocks.NewMockConnectionsupervisorStreamClient(t),
		merger:      mocks.NewMockConnectionsupervisorStateMerger(t),
	}
	f.supervisor = connectionsupervisor.NewConnectionSupervisor(logger, f.credentials, f.fetcher, f.stream, f.merger, time.Hour)
	return f
}

func Test_SyncSnapshot(t *testing.T) {

	t.Run("should merge the fetched snapshot", func(t *testing.T) {
		t.Parallel()
		// arrange
		f := newSupervisorFixture(t)
		mowers := []models.Mower{{ID: "mower-1", Type: models.DeviceTypeMower}}
		f.fetcher.On("FetchAll", mock.Anything).Return(mowers, nil)
		f.merger.On("ApplySnapshot", mowers).Return(nil)

		// act
		err := f.supervisor.SyncSnapshot(context.Background())

		// assert
		assert.NoError(t, err)
	})

	t.Run("should refresh credentials and retry exactly once when unauthorized", func(t *testing.T) {
		t.Parallel()
		// arrange
		f := newSupervisorFixture(t)
		mowers := []models.Mower{{ID: "mower-1", Type: models.DeviceTypeMower}}
		f.fetcher.On("FetchAll", mock.Anything).
			Return(nil, &automower.FetchError{Kind: automower.FetchUnauthorized}).Once()
		f.credentials.On("Invalidate").Once()
		f.credentials.On("Authenticate", mock.Anything).
			Return(automower.Credential{AccessToken: "fresh"}, nil).Once()
		f.fetcher.On("FetchAll", mock.Anything).Return(mowers, nil).Once()
		f.merger.On("ApplySnapshot", mowers).Return(nil).Once()

		// act
		err := f.supervisor.SyncSnapshot(context.Background())

		// assert
		assert.NoError(t, err)
		f.fetcher.AssertNumberOfCalls(t, "FetchAll", 2)
		f.credentials.AssertNumberOfCalls(t, "Authenticate", 1)
	})

	t.Run("should surface a second unauthorized failure without another retry", func(t *testing.T) {
		t.Parallel()
		// arrange
		f := newSupervisorFixture(t)
		f.fetcher.On("FetchAll", mock.Anything).
			Return(nil, &automower.FetchError{Kind: automower.FetchUnauthorized})
		f.credentials.On("Invalidate").Once()
		f.credentials.On("Authenticate", mock.Anything).
			Return(automower.Credential{AccessToken: "fresh"}, nil).Once()

		// act
		err := f.supervisor.SyncSnapshot(context.Background())

		// assert
		fetchErr := &automower.FetchError{}
		assert.ErrorAs(t, err, &fetchErr)
		assert.Equal(t, automower.FetchUnauthorized, fetchErr.Kind)
		f.fetcher.AssertNumberOfCalls(t, "FetchAll", 2)
		f.merger.AssertNotCalled(t, "ApplySnapshot")
	})

	t.Run("should not retry on non-auth fetch failures", func(t *testing.T) {
		t.Parallel()
		// arrange
		f := newSupervisorFixture(t)
		f.fetcher.On("FetchAll", mock.Anything).
			Return(nil, &automower.FetchError{Kind: automower.FetchUnreachable})

		// act
		err := f.supervisor.SyncSnapshot(context.Background())

		// assert
		assert.Error(t, err)
		f.fetcher.AssertNumberOfCalls(t, "FetchAll", 1)
		f.credentials.AssertNotCalled(t, "Invalidate")
	})
}

func Test_Run(t *testing.T) {

	t.Run("should authenticate, sync and open the stream on startup", func(t *testing.T) {
		t.Parallel()
		// arrange
		f := newSupervisorFixture(t)
		f.credentials.On("Authenticate", mock.Anything).
			Return(automower.Credential{AccessToken: "startup-token"}, nil)
		f.fetcher.On("FetchAll", mock.Anything).Return([]models.Mower{}, nil)
		f.merger.On("ApplySnapshot", mock.Anything).Return(nil)
		streamOpened := make(chan struct{})
		f.stream.On("Run", mock.Anything, "startup-token", mock.Anything).
			Run(func(args mock.Arguments) {
				close(streamOpened)
				ctx := args.Get(0).(context.Context)
				<-ctx.Done()
			}).
			Return(nil)
		f.credentials.On("Revoke", mock.Anything).Return(nil)

		ctx, cancel := context.WithCancel(context.Background())
		go func() {
			<-streamOpened
			cancel()
		}()

		// act
		err := f.supervisor.Run(ctx)

		// assert
		assert.NoError(t, err)
		f.credentials.AssertCalled(t, "Revoke", mock.Anything)
	})

	t.Run("should fail fast when startup authentication fails", func(t *testing.T) {
		t.Parallel()
		// arrange
		f := newSupervisorFixture(t)
		f.credentials.On("Authenticate", mock.Anything).
			Return(automower.Credential{}, &automower.AuthError{Kind: automower.AuthInvalidCredentials})

		// act
		err := f.supervisor.Run(context.Background())

		// assert
		authErr := &automower.AuthError{}
		assert.ErrorAs(t, err, &authErr)
		f.fetcher.AssertNotCalled(t, "FetchAll")
	})
}

func Test_ClassifyCloseCode(t *testing.T) {

	testCases := []struct {
		name       string
		code       int
		reconnect  bool
		invalidate bool
	}{
		{name: "self-initiated close stays closed", code: 1000, reconnect: false, invalidate: false},
		{name: "going away reconnects without refreshing", code: 1001, reconnect: true, invalidate: false},
		{name: "abnormal closure refreshes then reconnects", code: 1006, reconnect: true, invalidate: true},
		{name: "service restart refreshes then reconnects", code: 1012, reconnect: true, invalidate: true},
		{name: "unknown codes reconnect anyway", code: 4242, reconnect: true, invalidate: false},
	}

	for _, tc := range testCases {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			reconnect, invalidate := connectionsupervisor.ClassifyCloseCode(tc.code)
			assert.Equal(t, tc.reconnect, reconnect)
			assert.Equal(t, tc.invalidate, invalidate)
		})
	}
}
