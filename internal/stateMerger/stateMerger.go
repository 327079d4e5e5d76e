package statemerger

import (
	"fmt"
	"sync"
	"time"

	"github.com/charmbracelet/log"
	"github.com/wheelibin/mowd/internal/constants"
	"github.com/wheelibin/mowd/internal/metrics"
	"github.com/wheelibin/mowd/internal/models"
	"github.com/wheelibin/mowd/internal/sink"
)

type mowerRegistry interface {
	Add(mower models.Mower) error
	IsKnownMower(id string) (bool, error)
	GetCapabilities(id string) (models.Capabilities, error)
	GetSlotCount(id string) (int, error)
	SetSlotCount(id string, count int) error
	IsPathEnsured(path string) (bool, error)
	MarkPathEnsured(path string) error
	ClearEnsuredPaths(prefix string) error
}

// StateMerger projects snapshot documents and stream deltas onto the sink.
//
// A single mutex serializes all merges, so updates for a device always land
// in receipt order regardless of which source they came from.
type StateMerger struct {
	logger   *log.Logger
	sink     sink.Sink
	registry mowerRegistry

	mu sync.Mutex

	positionWriteDelay time.Duration
}

func NewStateMerger(logger *log.Logger, sk sink.Sink, registry mowerRegistry) *StateMerger {
	return &StateMerger{
		logger:             logger,
		sink:               sk,
		registry:           registry,
		positionWriteDelay: constants.PositionWriteDelay,
	}
}

// ApplySnapshot merges a full snapshot document. Devices seen for the first
// time get their whole sub-tree created and written; devices already known
// only get their statistics-class values rewritten (identity, capabilities
// and settings are written once per process and assumed immutable).
func (s *StateMerger) ApplySnapshot(mowers []models.Mower) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, mower := range mowers {
		if mower.Type != models.DeviceTypeMower {
			s.logger.Warn("Skipping unsupported device type", "id", mower.ID, "type", mower.Type)
			continue
		}

		known, err := s.registry.IsKnownMower(mower.ID)
		if err != nil {
			return err
		}

		if !known {
			s.logger.Info("Discovered mower", "id", mower.ID, "name", mower.Attributes.System.Name, "model", mower.Attributes.System.Model)
			if err := s.registerMower(mower); err != nil {
				return fmt.Errorf("Error registering mower (%s): %w", mower.ID, err)
			}
			continue
		}

		if err := s.writeStatisticsClass(mower); err != nil {
			s.logger.Error("Error refreshing mower from snapshot", "id", mower.ID, "error", err)
		}
	}

	return nil
}

// ApplyDelta merges one sparse stream update. Only the attribute groups
// present in the message are touched; everything else keeps its value.
func (s *StateMerger) ApplyDelta(delta models.DeltaMessage) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if delta.Attributes == nil {
		s.logger.Warn("Dropping delta without attributes", "id", delta.ID)
		return
	}

	known, err := s.registry.IsKnownMower(delta.ID)
	if err != nil {
		s.logger.Error("Error looking up mower for delta", "id", delta.ID, "error", err)
		return
	}
	if !known {
		// the device will be picked up by the next snapshot
		s.logger.Warn("Dropping delta for unknown mower", "id", delta.ID)
		return
	}

	caps, err := s.registry.GetCapabilities(delta.ID)
	if err != nil {
		s.logger.Error("Error reading capabilities for delta", "id", delta.ID, "error", err)
		return
	}

	attrs := delta.Attributes

	if attrs.Battery != nil {
		s.applyGroup(delta.ID, "battery", s.writeBattery(delta.ID, *attrs.Battery))
	}
	if attrs.Mower != nil {
		s.applyGroup(delta.ID, "mower", s.writeMowerStatus(delta.ID, *attrs.Mower))
	}
	if attrs.Planner != nil {
		s.applyGroup(delta.ID, "planner", s.writePlanner(delta.ID, *attrs.Planner))
	}
	if attrs.Metadata != nil {
		s.applyGroup(delta.ID, "metadata", s.writeMetadata(delta.ID, *attrs.Metadata))
	}
	if attrs.Calendar != nil {
		s.applyGroup(delta.ID, "calendar", s.writeCalendar(delta.ID, attrs.Calendar.Tasks))
	}
	if len(attrs.Positions) > 0 && caps.Position {
		s.applyGroup(delta.ID, "positions", s.writePositionTrail(delta.ID, attrs.Positions))
	}
	if attrs.Statistics != nil {
		s.applyGroup(delta.ID, "statistics", s.writeStatistics(delta.ID, *attrs.Statistics))
	}
	if attrs.Settings != nil {
		s.applyGroup(delta.ID, "settings", s.writeSettings(delta.ID, *attrs.Settings, caps))
	}
	// some event types carry the settings leaves at the top level instead
	if attrs.CuttingHeight != nil {
		s.applyGroup(delta.ID, "cuttingHeight", s.sink.WriteValue(delta.ID+".settings.cuttingHeight", *attrs.CuttingHeight))
	}
	if attrs.Headlight != nil && caps.Headlights {
		s.applyGroup(delta.ID, "headlight", s.sink.WriteValue(delta.ID+".settings.headlight", attrs.Headlight.Mode))
	}
	if len(attrs.WorkAreas) > 0 && caps.WorkAreas {
		s.applyGroup(delta.ID, "workAreas", s.writeWorkAreas(delta.ID, attrs.WorkAreas))
	}
	if attrs.StayOutZones != nil && caps.StayOutZones {
		s.applyGroup(delta.ID, "stayOutZones", s.writeStayOutZones(delta.ID, *attrs.StayOutZones))
	}
}

func (s *StateMerger) applyGroup(id string, group string, err error) {
	if err != nil {
		s.logger.Error("Error applying delta group", "id", id, "group", group, "error", err)
		return
	}
	s.logger.Debug("Applied delta group", "id", id, "group", group)
	metrics.DeltasApplied.WithLabelValues(group).Inc()
}

// registerMower creates the full sub-tree for a newly seen device and
// writes every attribute the snapshot carries.
func (s *StateMerger) registerMower(mower models.Mower) error {
	if err := s.registry.Add(mower); err != nil {
		return err
	}

	id := mower.ID
	attrs := mower.Attributes
	caps := attrs.Capabilities

	if err := s.ensureDeviceTree(id, caps); err != nil {
		return err
	}

	// identity and capabilities, written once
	identity := []pathValue{
		{id + ".system.type", mower.Type},
		{id + ".system.id", mower.ID},
		{id + ".system.name", attrs.System.Name},
		{id + ".system.model", attrs.System.Model},
		{id + ".system.serialNumber", attrs.System.SerialNumber},
		{id + ".capabilities.headlights", caps.Headlights},
		{id + ".capabilities.position", caps.Position},
		{id + ".capabilities.stayOutZones", caps.StayOutZones},
		{id + ".capabilities.workAreas", caps.WorkAreas},
	}
	if err := s.writeValues(identity); err != nil {
		return err
	}

	if err := s.writeStatisticsClass(mower); err != nil {
		return err
	}

	if err := s.writeCalendar(id, attrs.Calendar.Tasks); err != nil {
		return err
	}

	if err := s.sink.WriteValue(id+".settings.cuttingHeight", attrs.Settings.CuttingHeight); err != nil {
		return err
	}
	if caps.Headlights {
		if err := s.sink.WriteValue(id+".settings.headlight", attrs.Settings.Headlight.Mode); err != nil {
			return err
		}
	}

	if caps.WorkAreas && len(attrs.WorkAreas) > 0 {
		if err := s.writeWorkAreas(id, attrs.WorkAreas); err != nil {
			return err
		}
	}
	if caps.StayOutZones && attrs.StayOutZones != nil {
		if err := s.writeStayOutZones(id, *attrs.StayOutZones); err != nil {
			return err
		}
	}

	return nil
}

// writeStatisticsClass rewrites the values every snapshot refreshes:
// battery, mower status, planner, connectivity, latest position and the
// statistics counters.
func (s *StateMerger) writeStatisticsClass(mower models.Mower) error {
	id := mower.ID
	attrs := mower.Attributes

	if err := s.writeBattery(id, attrs.Battery); err != nil {
		return err
	}
	if err := s.writeMowerStatus(id, attrs.Mower); err != nil {
		return err
	}
	if err := s.writePlanner(id, attrs.Planner); err != nil {
		return err
	}
	if err := s.writeMetadata(id, attrs.Metadata); err != nil {
		return err
	}
	if attrs.Capabilities.Position && len(attrs.Positions) > 0 {
		// positions are most-recent-first, snapshots only refresh the latest
		if err := s.writePosition(id, attrs.Positions[0]); err != nil {
			return err
		}
	}
	return s.writeStatistics(id, attrs.Statistics)
}

func (s *StateMerger) writeBattery(id string, b models.Battery) error {
	return s.sink.WriteValue(id+".battery.batteryPercent", b.BatteryPercent)
}

func (s *StateMerger) writeMowerStatus(id string, ms models.MowerStatus) error {
	return s.writeValues([]pathValue{
		{id + ".mower.mode", ms.Mode},
		{id + ".mower.activity", ms.Activity},
		{id + ".mower.state", ms.State},
		{id + ".mower.inactiveReason", ms.InactiveReason},
		{id + ".mower.errorCode", ms.ErrorCode},
		{id + ".mower.errorCodeTimestamp", ms.ErrorCodeTimestamp},
	})
}

func (s *StateMerger) writePlanner(id string, p models.Planner) error {
	return s.writeValues([]pathValue{
		{id + ".planner.nextStartTimestamp", p.NextStartTimestamp},
		{id + ".planner.action", p.Override.Action},
		{id + ".planner.restrictedReason", p.RestrictedReason},
	})
}

func (s *StateMerger) writeMetadata(id string, m models.Metadata) error {
	return s.writeValues([]pathValue{
		{id + ".metadata.connected", m.Connected},
		{id + ".metadata.statusTimestamp", m.StatusTimestamp},
	})
}

func (s *StateMerger) writeStatistics(id string, st models.Statistics) error {
	return s.writeValues([]pathValue{
		{id + ".statistics.numberOfChargingCycles", st.NumberOfChargingCycles},
		{id + ".statistics.numberOfCollisions", st.NumberOfCollisions},
		{id + ".statistics.totalChargingTime", st.TotalChargingTime},
		{id + ".statistics.totalCuttingTime", st.TotalCuttingTime},
		{id + ".statistics.totalRunningTime", st.TotalRunningTime},
		{id + ".statistics.totalSearchingTime", st.TotalSearchingTime},
	})
}

func (s *StateMerger) writeSettings(id string, settings models.Settings, caps models.Capabilities) error {
	if err := s.sink.WriteValue(id+".settings.cuttingHeight", settings.CuttingHeight); err != nil {
		return err
	}
	if caps.Headlights {
		return s.sink.WriteValue(id+".settings.headlight", settings.Headlight.Mode)
	}
	return nil
}

func (s *StateMerger) writePosition(id string, p models.Position) error {
	return s.writeValues([]pathValue{
		{id + ".positions.latitude", p.Latitude},
		{id + ".positions.longitude", p.Longitude},
		{id + ".positions.latlong", fmt.Sprintf("%v;%v", p.Latitude, p.Longitude)},
	})
}

// writePositionTrail writes every sample of a delta in payload order
// (most recent first, as the vendor sends them), pacing the writes so an
// observer that only samples the latest value still sees the trail.
func (s *StateMerger) writePositionTrail(id string, positions []models.Position) error {
	for i, p := range positions {
		if i > 0 {
			time.Sleep(s.positionWriteDelay)
		}
		if err := s.writePosition(id, p); err != nil {
			return err
		}
	}
	return nil
}

// writeCalendar reshapes the slot sub-trees when the task count changed
// (stale slots deleted, new ones created) and then writes the slot values
// into both the read-only calendar view and the writable schedule mirror.
func (s *StateMerger) writeCalendar(id string, tasks []models.CalendarTask) error {
	current, err := s.registry.GetSlotCount(id)
	if err != nil {
		return err
	}
	next := len(tasks)

	for n := next; n < current; n++ {
		for _, prefix := range []string{calendarSlotPath(id, n), scheduleSlotPath(id, n)} {
			if err := s.sink.DeletePath(prefix, true); err != nil {
				return err
			}
			if err := s.registry.ClearEnsuredPaths(prefix); err != nil {
				return err
			}
		}
	}

	for n := current; n < next; n++ {
		if err := s.ensureSlot(calendarSlotPath(id, n), false); err != nil {
			return err
		}
		if err := s.ensureSlot(scheduleSlotPath(id, n), true); err != nil {
			return err
		}
	}

	if next != current {
		s.logger.Debug("Calendar slot count changed", "id", id, "from", current, "to", next)
		if err := s.registry.SetSlotCount(id, next); err != nil {
			return err
		}
	}

	for n, task := range tasks {
		for _, prefix := range []string{calendarSlotPath(id, n), scheduleSlotPath(id, n)} {
			if err := s.writeSlot(prefix, task); err != nil {
				return err
			}
		}
	}

	return nil
}

func (s *StateMerger) writeSlot(prefix string, task models.CalendarTask) error {
	values := []pathValue{
		{prefix + ".start", task.Start},
		{prefix + ".duration", task.Duration},
		{prefix + ".monday", task.Monday},
		{prefix + ".tuesday", task.Tuesday},
		{prefix + ".wednesday", task.Wednesday},
		{prefix + ".thursday", task.Thursday},
		{prefix + ".friday", task.Friday},
		{prefix + ".saturday", task.Saturday},
		{prefix + ".sunday", task.Sunday},
	}
	if task.WorkAreaID != nil {
		values = append(values, pathValue{prefix + ".workAreaId", *task.WorkAreaID})
	}
	return s.writeValues(values)
}

func (s *StateMerger) writeWorkAreas(id string, workAreas []models.WorkArea) error {
	for _, wa := range workAreas {
		prefix := fmt.Sprintf("%s.workAreas.%d", id, wa.WorkAreaID)
		if err := s.ensure(prefix+".name", sink.Shape{Kind: sink.KindString}); err != nil {
			return err
		}
		if err := s.ensure(prefix+".cuttingHeight", sink.Shape{Kind: sink.KindNumber}); err != nil {
			return err
		}
		err := s.writeValues([]pathValue{
			{prefix + ".name", wa.Name},
			{prefix + ".cuttingHeight", wa.CuttingHeight},
		})
		if err != nil {
			return err
		}
	}
	return nil
}

func (s *StateMerger) writeStayOutZones(id string, zones models.StayOutZones) error {
	if err := s.ensure(id+".stayOutZones.dirty", sink.Shape{Kind: sink.KindBool}); err != nil {
		return err
	}
	if err := s.sink.WriteValue(id+".stayOutZones.dirty", zones.Dirty); err != nil {
		return err
	}

	for _, zone := range zones.Zones {
		prefix := fmt.Sprintf("%s.stayOutZones.zones.%s", id, zone.ID)
		if err := s.ensure(prefix+".name", sink.Shape{Kind: sink.KindString}); err != nil {
			return err
		}
		if err := s.ensure(prefix+".enabled", sink.Shape{Kind: sink.KindBool}); err != nil {
			return err
		}
		err := s.writeValues([]pathValue{
			{prefix + ".name", zone.Name},
			{prefix + ".enabled", zone.Enabled},
		})
		if err != nil {
			return err
		}
	}
	return nil
}

type pathValue struct {
	path  string
	value any
}

func (s *StateMerger) writeValues(values []pathValue) error {
	for _, v := range values {
		if err := s.sink.WriteValue(v.path, v.value); err != nil {
			return err
		}
	}
	return nil
}

// ensure creates the path in the sink unless it was already created this
// run; the registry remembers which paths exist so repeated merges don't
// hit the sink for paths that are already there.
func (s *StateMerger) ensure(path string, shape sink.Shape) error {
	ensured, err := s.registry.IsPathEnsured(path)
	if err != nil {
		return err
	}
	if ensured {
		return nil
	}
	if err := s.sink.EnsurePath(path, shape); err != nil {
		return err
	}
	return s.registry.MarkPathEnsured(path)
}

func (s *StateMerger) ensureAll(paths map[string]sink.Shape, prefix string) error {
	for suffix, shape := range paths {
		if err := s.ensure(prefix+suffix, shape); err != nil {
			return err
		}
	}
	return nil
}

func calendarSlotPath(id string, n int) string {
	return fmt.Sprintf("%s.calendar.%d", id, n)
}

func scheduleSlotPath(id string, n int) string {
	return fmt.Sprintf("%s.ACTIONS.schedule.%d", id, n)
}

func (s *StateMerger) ensureSlot(prefix string, writable bool) error {
	shapes := map[string]sink.Shape{
		".start":      {Kind: sink.KindNumber, Writable: writable},
		".duration":   {Kind: sink.KindNumber, Writable: writable},
		".monday":     {Kind: sink.KindBool, Writable: writable},
		".tuesday":    {Kind: sink.KindBool, Writable: writable},
		".wednesday":  {Kind: sink.KindBool, Writable: writable},
		".thursday":   {Kind: sink.KindBool, Writable: writable},
		".friday":     {Kind: sink.KindBool, Writable: writable},
		".saturday":   {Kind: sink.KindBool, Writable: writable},
		".sunday":     {Kind: sink.KindBool, Writable: writable},
		".workAreaId": {Kind: sink.KindNumber, Writable: writable},
	}
	return s.ensureAll(shapes, prefix)
}

// ensureDeviceTree creates the fixed part of a device's sub-tree: the
// read-only attribute leaves plus the writable ACTIONS triggers. Optional
// sub-trees are gated on the device's capabilities.
func (s *StateMerger) ensureDeviceTree(id string, caps models.Capabilities) error {
	str := sink.Shape{Kind: sink.KindString}
	num := sink.Shape{Kind: sink.KindNumber}
	boolean := sink.Shape{Kind: sink.KindBool}

	fixed := map[string]sink.Shape{
		".system.type":                       str,
		".system.id":                         str,
		".system.name":                       str,
		".system.model":                      str,
		".system.serialNumber":               num,
		".battery.batteryPercent":            num,
		".mower.mode":                        str,
		".mower.activity":                    str,
		".mower.state":                       str,
		".mower.inactiveReason":              str,
		".mower.errorCode":                   num,
		".mower.errorCodeTimestamp":          num,
		".planner.nextStartTimestamp":        num,
		".planner.action":                    str,
		".planner.restrictedReason":          str,
		".metadata.connected":                boolean,
		".metadata.statusTimestamp":          num,
		".statistics.numberOfChargingCycles": num,
		".statistics.numberOfCollisions":     num,
		".statistics.totalChargingTime":      num,
		".statistics.totalCuttingTime":       num,
		".statistics.totalRunningTime":       num,
		".statistics.totalSearchingTime":     num,
		".settings.cuttingHeight":            num,
		".capabilities.headlights":           boolean,
		".capabilities.position":             boolean,
		".capabilities.stayOutZones":         boolean,
		".capabilities.workAreas":            boolean,
	}

	actions := map[string]sink.Shape{
		".ACTIONS.PAUSE":                  {Kind: sink.KindBool, Writable: true},
		".ACTIONS.PARKUNTILNEXTSCHEDULE":  {Kind: sink.KindBool, Writable: true},
		".ACTIONS.PARKUNTILFURTHERNOTICE": {Kind: sink.KindBool, Writable: true},
		".ACTIONS.RESUMESCHEDULE":         {Kind: sink.KindBool, Writable: true},
		".ACTIONS.park.PARK":              {Kind: sink.KindBool, Writable: true},
		".ACTIONS.park.parkTime":          {Kind: sink.KindNumber, Writable: true, Default: constants.DefaultActionDurationMinutes},
		".ACTIONS.start.START":            {Kind: sink.KindBool, Writable: true},
		".ACTIONS.start.startTime":        {Kind: sink.KindNumber, Writable: true, Default: constants.DefaultActionDurationMinutes},
		".ACTIONS.CUTTINGHEIGHT":          {Kind: sink.KindNumber, Writable: true},
		".ACTIONS.schedule.SET":           {Kind: sink.KindBool, Writable: true},
	}

	if err := s.ensureAll(fixed, id); err != nil {
		return err
	}
	if err := s.ensureAll(actions, id); err != nil {
		return err
	}

	if caps.Position {
		positions := map[string]sink.Shape{
			".positions.latitude":  num,
			".positions.longitude": num,
			".positions.latlong":   str,
		}
		if err := s.ensureAll(positions, id); err != nil {
			return err
		}
	}

	if caps.Headlights {
		headlight := map[string]sink.Shape{
			".settings.headlight": str,
			".ACTIONS.HEADLIGHT":  {Kind: sink.KindString, Writable: true},
		}
		if err := s.ensureAll(headlight, id); err != nil {
			return err
		}
	}

	if caps.WorkAreas {
		startInWorkArea := map[string]sink.Shape{
			".ACTIONS.startInWorkArea.START":      {Kind: sink.KindBool, Writable: true},
			".ACTIONS.startInWorkArea.startTime":  {Kind: sink.KindNumber, Writable: true, Default: constants.DefaultActionDurationMinutes},
			".ACTIONS.startInWorkArea.workAreaId": {Kind: sink.KindNumber, Writable: true},
		}
		if err := s.ensureAll(startInWorkArea, id); err != nil {
			return err
		}
	}

	return nil
}
