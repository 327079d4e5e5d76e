package models

// DeviceTypeMower is the only device type the projection supports.
const DeviceTypeMower = "mower"

// a single device entry from the full snapshot document
type Mower struct {
	ID         string          `json:"id"`
	Type       string          `json:"type"`
	Attributes MowerAttributes `json:"attributes"`
}

type MowerAttributes struct {
	System       System        `json:"system"`
	Battery      Battery       `json:"battery"`
	Capabilities Capabilities  `json:"capabilities"`
	Mower        MowerStatus   `json:"mower"`
	Calendar     Calendar      `json:"calendar"`
	Planner      Planner       `json:"planner"`
	Metadata     Metadata      `json:"metadata"`
	Positions    []Position    `json:"positions"`
	Settings     Settings      `json:"settings"`
	Statistics   Statistics    `json:"statistics"`
	WorkAreas    []WorkArea    `json:"workAreas"`
	StayOutZones *StayOutZones `json:"stayOutZones"`
}

type System struct {
	Name         string `json:"name"`
	Model        string `json:"model"`
	SerialNumber int64  `json:"serialNumber"`
}

type Battery struct {
	BatteryPercent int `json:"batteryPercent"`
}

// per-device feature flags, fixed at snapshot time; they gate which
// optional sub-trees are projected and which commands are legal
type Capabilities struct {
	Headlights   bool `json:"headlights"`
	Position     bool `json:"position"`
	StayOutZones bool `json:"stayOutZones"`
	WorkAreas    bool `json:"workAreas"`
}

type MowerStatus struct {
	Mode               string `json:"mode"`
	Activity           string `json:"activity"`
	State              string `json:"state"`
	InactiveReason     string `json:"inactiveReason"`
	ErrorCode          int    `json:"errorCode"`
	ErrorCodeTimestamp int64  `json:"errorCodeTimestamp"`
}

type Calendar struct {
	Tasks []CalendarTask `json:"tasks"`
}

// one slot in the weekly mowing schedule
type CalendarTask struct {
	Start      int    `json:"start"`
	Duration   int    `json:"duration"`
	Monday     bool   `json:"monday"`
	Tuesday    bool   `json:"tuesday"`
	Wednesday  bool   `json:"wednesday"`
	Thursday   bool   `json:"thursday"`
	Friday     bool   `json:"friday"`
	Saturday   bool   `json:"saturday"`
	Sunday     bool   `json:"sunday"`
	WorkAreaID *int64 `json:"workAreaId,omitempty"`
}

// HasActiveDay reports whether at least one weekday flag is set.
func (t CalendarTask) HasActiveDay() bool {
	return t.Monday || t.Tuesday || t.Wednesday || t.Thursday || t.Friday || t.Saturday || t.Sunday
}

type Planner struct {
	NextStartTimestamp int64  `json:"nextStartTimestamp"`
	Override           struct {
		Action string `json:"action"`
	} `json:"override"`
	RestrictedReason string `json:"restrictedReason"`
}

type Metadata struct {
	Connected       bool  `json:"connected"`
	StatusTimestamp int64 `json:"statusTimestamp"`
}

type Position struct {
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
}

type Settings struct {
	CuttingHeight int       `json:"cuttingHeight"`
	Headlight     Headlight `json:"headlight"`
}

type Headlight struct {
	Mode string `json:"mode"`
}

type Statistics struct {
	NumberOfChargingCycles int64 `json:"numberOfChargingCycles"`
	NumberOfCollisions     int64 `json:"numberOfCollisions"`
	TotalChargingTime      int64 `json:"totalChargingTime"`
	TotalCuttingTime       int64 `json:"totalCuttingTime"`
	TotalRunningTime       int64 `json:"totalRunningTime"`
	TotalSearchingTime     int64 `json:"totalSearchingTime"`
}

type WorkArea struct {
	WorkAreaID    int64  `json:"workAreaId"`
	Name          string `json:"name"`
	CuttingHeight int    `json:"cuttingHeight"`
}

type StayOutZones struct {
	Dirty bool          `json:"dirty"`
	Zones []StayOutZone `json:"zones"`
}

type StayOutZone struct {
	ID      string `json:"id"`
	Name    string `json:"name"`
	Enabled bool   `json:"enabled"`
}

// a push-delivered partial update for one device; each group pointer is
// nil when the group was absent from the frame
type DeltaMessage struct {
	ID         string           `json:"id"`
	Attributes *DeltaAttributes `json:"attributes"`
}

type DeltaAttributes struct {
	Battery       *Battery      `json:"battery"`
	Mower         *MowerStatus  `json:"mower"`
	Planner       *Planner      `json:"planner"`
	Metadata      *Metadata     `json:"metadata"`
	Calendar      *Calendar     `json:"calendar"`
	Positions     []Position    `json:"positions"`
	Statistics    *Statistics   `json:"statistics"`
	Settings      *Settings     `json:"settings"`
	CuttingHeight *int          `json:"cuttingHeight"`
	Headlight     *Headlight    `json:"headlight"`
	WorkAreas     []WorkArea    `json:"workAreas"`
	StayOutZones  *StayOutZones `json:"stayOutZones"`
}

type CommandKind string

const (
	CommandPause                  CommandKind = "Pause"
	CommandParkUntilNextSchedule  CommandKind = "ParkUntilNextSchedule"
	CommandParkUntilFurtherNotice CommandKind = "ParkUntilFurtherNotice"
	CommandResumeSchedule         CommandKind = "ResumeSchedule"
	CommandPark                   CommandKind = "Park"
	CommandStart                  CommandKind = "Start"
	CommandStartInWorkArea        CommandKind = "StartInWorkArea"
	CommandCuttingHeight          CommandKind = "CuttingHeight"
	CommandHeadlight              CommandKind = "Headlight"
	CommandSetSchedule            CommandKind = "SetSchedule"
)
