package automower

import "github.com/wheelibin/mowd/internal/models"

type mowersResponse struct {
	Data []models.Mower `json:"data"`
}

type errorsResponse struct {
	Errors []struct {
		Status string `json:"status"`
		Title  string `json:"title"`
		Detail string `json:"detail"`
	} `json:"errors"`
}

// JSON:API shaped command envelope, POSTed to the actions, settings and
// calendar endpoints.
type commandRequest struct {
	Data commandData `json:"data"`
}

type commandData struct {
	Type       string `json:"type"`
	Attributes any    `json:"attributes,omitempty"`
}

type DurationAttributes struct {
	Duration int `json:"duration"`
}

type WorkAreaAttributes struct {
	Duration   *int  `json:"duration,omitempty"`
	WorkAreaID int64 `json:"workAreaId"`
}

type SettingsAttributes struct {
	CuttingHeight *int              `json:"cuttingHeight,omitempty"`
	Headlight     *models.Headlight `json:"headlight,omitempty"`
}

type calendarAttributes struct {
	Tasks []models.CalendarTask `json:"tasks"`
}
