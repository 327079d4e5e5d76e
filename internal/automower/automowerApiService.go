package automower

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/charmbracelet/log"
	"github.com/wheelibin/mowd/internal/models"
)

type credentialProvider interface {
	Authenticate(ctx context.Context) (Credential, error)
}

// AutomowerAPIService talks to the vendor REST API: the full device
// snapshot and the per-device command endpoints.
type AutomowerAPIService struct {
	logger      *log.Logger
	baseURL     string
	appKey      string
	credentials credentialProvider
	httpClient  *http.Client
}

func NewAutomowerAPIService(logger *log.Logger, appKey string, baseURL string, credentials credentialProvider) *AutomowerAPIService {
	return &AutomowerAPIService{
		logger:      logger,
		baseURL:     baseURL,
		appKey:      appKey,
		credentials: credentials,
		httpClient:  &http.Client{Timeout: 15 * time.Second},
	}
}

// FetchAll returns the full attribute set for every device on the account.
func (s *AutomowerAPIService) FetchAll(ctx context.Context) ([]models.Mower, error) {
	cred, err := s.credentials.Authenticate(ctx)
	if err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, s.baseURL+"/mowers", nil)
	if err != nil {
		return nil, &FetchError{Kind: FetchUnreachable, cause: err}
	}
	s.setHeaders(req, cred)

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return nil, &FetchError{Kind: FetchUnreachable, cause: err}
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden:
		return nil, &FetchError{Kind: FetchUnauthorized, cause: fmt.Errorf("status %s", resp.Status)}
	case resp.StatusCode != http.StatusOK:
		return nil, &FetchError{Kind: FetchUnreachable, cause: fmt.Errorf("status %s", resp.Status)}
	}

	body := mowersResponse{}
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return nil, &FetchError{Kind: FetchMalformed, cause: err}
	}

	s.logger.Debug("Fetched mower snapshot", "devices", len(body.Data))
	return body.Data, nil
}

// SendAction posts a named action (Pause, Start, Park, ...) with optional
// attributes to the device's actions endpoint.
func (s *AutomowerAPIService) SendAction(ctx context.Context, mowerID string, action string, attributes any) error {
	return s.postCommand(ctx, mowerID, "actions", commandRequest{Data: commandData{Type: action, Attributes: attributes}})
}

// SendSettings posts a settings change (cutting height and/or headlight
// mode) to the device's settings endpoint.
func (s *AutomowerAPIService) SendSettings(ctx context.Context, mowerID string, settings SettingsAttributes) error {
	return s.postCommand(ctx, mowerID, "settings", commandRequest{Data: commandData{Type: "settings", Attributes: settings}})
}

// SendCalendar replaces the device's weekly schedule with the given tasks.
func (s *AutomowerAPIService) SendCalendar(ctx context.Context, mowerID string, tasks []models.CalendarTask) error {
	return s.postCommand(ctx, mowerID, "calendar", commandRequest{Data: commandData{Type: "calendar", Attributes: calendarAttributes{Tasks: tasks}}})
}

// postCommand sends one command body to a device endpoint and maps the
// response onto the command error taxonomy. A nil return means the vendor
// accepted the command.
func (s *AutomowerAPIService) postCommand(ctx context.Context, mowerID string, endpoint string, payload any) error {
	cred, err := s.credentials.Authenticate(ctx)
	if err != nil {
		return &CommandError{Kind: CommandUnauthorized, Detail: err.Error()}
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return &CommandError{Kind: CommandTransport, Detail: err.Error()}
	}

	url := fmt.Sprintf("%s/mowers/%s/%s", s.baseURL, mowerID, endpoint)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return &CommandError{Kind: CommandTransport, Detail: err.Error()}
	}
	s.setHeaders(req, cred)
	req.Header.Set("Content-Type", "application/vnd.api+json")

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return &CommandError{Kind: CommandTransport, Detail: err.Error()}
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode >= 200 && resp.StatusCode < 300:
		s.logger.Info("Command accepted", "mower", mowerID, "endpoint", endpoint, "status", resp.Status)
		return nil
	case resp.StatusCode == http.StatusBadRequest:
		return &CommandError{Kind: CommandValidation, Detail: errorDetail(resp.Body)}
	case resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden:
		return &CommandError{Kind: CommandUnauthorized, Detail: resp.Status}
	case resp.StatusCode == http.StatusNotFound:
		return &CommandError{Kind: CommandDeviceUnreachable, Detail: errorDetail(resp.Body)}
	default:
		return &CommandError{Kind: CommandTransport, Detail: resp.Status}
	}
}

func (s *AutomowerAPIService) setHeaders(req *http.Request, cred Credential) {
	req.Header.Set("Authorization", "Bearer "+cred.AccessToken)
	req.Header.Set("X-Api-Key", s.appKey)
	req.Header.Set("Authorization-Provider", "husqvarna")
}

func errorDetail(r io.Reader) string {
	body := errorsResponse{}
	if err := json.NewDecoder(r).Decode(&body); err != nil || len(body.Errors) == 0 {
		return ""
	}
	return body.Errors[0].Detail
}
