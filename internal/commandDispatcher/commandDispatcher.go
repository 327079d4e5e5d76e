package commanddispatcher

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/charmbracelet/log"
	"github.com/samber/lo"
	"github.com/wheelibin/mowd/internal/automower"
	"github.com/wheelibin/mowd/internal/metrics"
	"github.com/wheelibin/mowd/internal/models"
	"github.com/wheelibin/mowd/internal/sink"
)

type vendorApi interface {
	SendAction(ctx context.Context, mowerID string, action string, attributes any) error
	SendSettings(ctx context.Context, mowerID string, settings automower.SettingsAttributes) error
	SendCalendar(ctx context.Context, mowerID string, tasks []models.CalendarTask) error
}

type credentialInvalidator interface {
	Invalidate()
}

type reconnectRequester interface {
	RequestReconnect()
}

type slotRegistry interface {
	IsKnownMower(id string) (bool, error)
	GetSlotCount(id string) (int, error)
}

// CommandDispatcher turns user writes on the sink's ACTIONS sub-trees into
// vendor API calls. Auxiliary parameters (park/start duration, work area,
// schedule slots) are read back from the sink at dispatch time, so the
// command reflects whatever the user last wrote there.
type CommandDispatcher struct {
	logger      *log.Logger
	api         vendorApi
	sink        sink.Sink
	registry    slotRegistry
	credentials credentialInvalidator
	supervisor  reconnectRequester
}

func NewCommandDispatcher(
	logger *log.Logger,
	api vendorApi,
	sk sink.Sink,
	registry slotRegistry,
	credentials credentialInvalidator,
	supervisor reconnectRequester,
) *CommandDispatcher {
	return &CommandDispatcher{
		logger:      logger,
		api:         api,
		sink:        sk,
		registry:    registry,
		credentials: credentials,
		supervisor:  supervisor,
	}
}

// HandleExternalWrite is the sink's external write callback. Writes outside
// an ACTIONS sub-tree, writes to auxiliary parameter states and triggers
// being reset to false are all ignored.
func (d *CommandDispatcher) HandleExternalWrite(path string, value any) {
	parts := strings.SplitN(path, ".", 3)
	if len(parts) < 3 || parts[1] != "ACTIONS" {
		return
	}
	mowerID := parts[0]

	known, err := d.registry.IsKnownMower(mowerID)
	if err != nil {
		d.logger.Error("Error looking up mower for user write", "path", path, "error", err)
		return
	}
	if !known {
		d.logger.Warn("Ignoring user write for unknown mower", "path", path)
		return
	}

	var kind models.CommandKind
	switch parts[2] {
	case "PAUSE":
		kind = models.CommandPause
	case "PARKUNTILNEXTSCHEDULE":
		kind = models.CommandParkUntilNextSchedule
	case "PARKUNTILFURTHERNOTICE":
		kind = models.CommandParkUntilFurtherNotice
	case "RESUMESCHEDULE":
		kind = models.CommandResumeSchedule
	case "park.PARK":
		kind = models.CommandPark
	case "start.START":
		kind = models.CommandStart
	case "startInWorkArea.START":
		kind = models.CommandStartInWorkArea
	case "CUTTINGHEIGHT":
		kind = models.CommandCuttingHeight
	case "HEADLIGHT":
		kind = models.CommandHeadlight
	case "schedule.SET":
		kind = models.CommandSetSchedule
	default:
		// an auxiliary parameter (parkTime, schedule slot, ...); the sink
		// has stored it, nothing to dispatch
		d.logger.Debug("Stored auxiliary parameter", "path", path, "value", value)
		return
	}

	if isTriggerKind(kind) && !isTruthy(value) {
		// a trigger being reset, not a command
		return
	}

	if err := d.Dispatch(context.Background(), mowerID, kind, value); err != nil {
		d.logger.Error("Command failed", "mower", mowerID, "command", kind, "error", err)
	}
}

// Dispatch builds and sends one command. For commands with a value payload
// (cutting height, headlight mode) the value comes from the triggering
// write; everything else is read from the sink.
func (d *CommandDispatcher) Dispatch(ctx context.Context, mowerID string, kind models.CommandKind, value any) error {
	d.logger.Info("Dispatching command", "mower", mowerID, "command", kind)

	err := d.send(ctx, mowerID, kind, value)
	metrics.CommandsDispatched.WithLabelValues(string(kind), resultLabel(err)).Inc()
	if err == nil {
		return nil
	}

	cmdErr := &automower.CommandError{}
	if errors.As(err, &cmdErr) {
		switch cmdErr.Kind {
		case automower.CommandUnauthorized:
			// get a fresh session; the command is dropped, not replayed
			d.credentials.Invalidate()
			d.supervisor.RequestReconnect()
		case automower.CommandDeviceUnreachable:
			if werr := d.sink.WriteValue(mowerID+".metadata.connected", false); werr != nil {
				d.logger.Error("Error marking mower disconnected", "mower", mowerID, "error", werr)
			}
		}
	}
	return err
}

func (d *CommandDispatcher) send(ctx context.Context, mowerID string, kind models.CommandKind, value any) error {
	switch kind {
	case models.CommandPause, models.CommandParkUntilNextSchedule,
		models.CommandParkUntilFurtherNotice, models.CommandResumeSchedule:
		return d.api.SendAction(ctx, mowerID, string(kind), nil)

	case models.CommandPark:
		duration, ok := d.readInt(mowerID + ".ACTIONS.park.parkTime")
		if !ok {
			return &automower.CommandError{Kind: automower.CommandMissingParameter, Detail: "park duration not set"}
		}
		return d.api.SendAction(ctx, mowerID, string(kind), automower.DurationAttributes{Duration: duration})

	case models.CommandStart:
		duration, ok := d.readInt(mowerID + ".ACTIONS.start.startTime")
		if !ok {
			return &automower.CommandError{Kind: automower.CommandMissingParameter, Detail: "start duration not set"}
		}
		return d.api.SendAction(ctx, mowerID, string(kind), automower.DurationAttributes{Duration: duration})

	case models.CommandStartInWorkArea:
		workAreaID, ok := d.readInt(mowerID + ".ACTIONS.startInWorkArea.workAreaId")
		if !ok {
			return &automower.CommandError{Kind: automower.CommandMissingParameter, Detail: "work area not set"}
		}
		attrs := automower.WorkAreaAttributes{WorkAreaID: int64(workAreaID)}
		if duration, ok := d.readInt(mowerID + ".ACTIONS.startInWorkArea.startTime"); ok && duration > 0 {
			attrs.Duration = &duration
		}
		return d.api.SendAction(ctx, mowerID, string(kind), attrs)

	case models.CommandCuttingHeight:
		height, ok := toInt(value)
		if !ok {
			return &automower.CommandError{Kind: automower.CommandMissingParameter, Detail: "cutting height not numeric"}
		}
		return d.api.SendSettings(ctx, mowerID, automower.SettingsAttributes{CuttingHeight: &height})

	case models.CommandHeadlight:
		mode, ok := value.(string)
		if !ok || mode == "" {
			return &automower.CommandError{Kind: automower.CommandMissingParameter, Detail: "headlight mode not set"}
		}
		return d.api.SendSettings(ctx, mowerID, automower.SettingsAttributes{Headlight: &models.Headlight{Mode: mode}})

	case models.CommandSetSchedule:
		tasks, err := d.readSchedule(mowerID)
		if err != nil {
			return err
		}
		return d.api.SendCalendar(ctx, mowerID, tasks)

	default:
		return &automower.CommandError{Kind: automower.CommandValidation, Detail: fmt.Sprintf("unknown command kind %q", kind)}
	}
}

// readSchedule rebuilds the task list from the writable schedule slots,
// dropping slots with no weekday enabled.
func (d *CommandDispatcher) readSchedule(mowerID string) ([]models.CalendarTask, error) {
	count, err := d.registry.GetSlotCount(mowerID)
	if err != nil {
		return nil, &automower.CommandError{Kind: automower.CommandMissingParameter, Detail: err.Error()}
	}

	tasks := []models.CalendarTask{}
	for n := 0; n < count; n++ {
		prefix := fmt.Sprintf("%s.ACTIONS.schedule.%d", mowerID, n)
		task := models.CalendarTask{
			Monday:    d.readBool(prefix + ".monday"),
			Tuesday:   d.readBool(prefix + ".tuesday"),
			Wednesday: d.readBool(prefix + ".wednesday"),
			Thursday:  d.readBool(prefix + ".thursday"),
			Friday:    d.readBool(prefix + ".friday"),
			Saturday:  d.readBool(prefix + ".saturday"),
			Sunday:    d.readBool(prefix + ".sunday"),
		}
		task.Start, _ = d.readInt(prefix + ".start")
		task.Duration, _ = d.readInt(prefix + ".duration")
		if workAreaID, ok := d.readInt(prefix + ".workAreaId"); ok {
			id := int64(workAreaID)
			task.WorkAreaID = &id
		}
		tasks = append(tasks, task)
	}

	return lo.Filter(tasks, func(task models.CalendarTask, _ int) bool {
		return task.HasActiveDay()
	}), nil
}

func (d *CommandDispatcher) readInt(path string) (int, bool) {
	value, ok := d.sink.ReadValue(path)
	if !ok {
		return 0, false
	}
	return toInt(value)
}

func (d *CommandDispatcher) readBool(path string) bool {
	value, ok := d.sink.ReadValue(path)
	if !ok {
		return false
	}
	return isTruthy(value)
}

// sink values arrive as whatever the transport decoded, JSON numbers in
// particular come back as float64
func toInt(value any) (int, bool) {
	switch v := value.(type) {
	case int:
		return v, true
	case int64:
		return int(v), true
	case float64:
		return int(v), true
	default:
		return 0, false
	}
}

func isTruthy(value any) bool {
	switch v := value.(type) {
	case bool:
		return v
	case string:
		return v == "true" || v == "1"
	case float64:
		return v != 0
	case int:
		return v != 0
	default:
		return false
	}
}

func isTriggerKind(kind models.CommandKind) bool {
	switch kind {
	case models.CommandCuttingHeight, models.CommandHeadlight:
		return false
	default:
		return true
	}
}

func resultLabel(err error) string {
	if err == nil {
		return "accepted"
	}
	cmdErr := &automower.CommandError{}
	if errors.As(err, &cmdErr) {
		return string(cmdErr.Kind)
	}
	return "error"
}
