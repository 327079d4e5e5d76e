package statemerger_test

import (
	"database/sql"
	"os"
	"testing"

	"github.com/charmbracelet/log"
	_ "github.com/mattn/go-sqlite3"
	"github.com/stretchr/testify/assert"
	"github.com/wheelibin/mowd/internal/models"
	"github.com/wheelibin/mowd/internal/repos"
	"github.com/wheelibin/mowd/internal/sink"
	statemerger "github.com/wheelibin/mowd/internal/stateMerger"
)

func newTestMerger(t *testing.T) (*statemerger.StateMerger, *sink.MemorySink) {
	t.Helper()

	logger := log.NewWithOptions(os.Stderr, log.Options{Level: log.FatalLevel})
	db, err := sql.Open("sqlite3", ":memory:")
	assert.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	repo, err := repos.NewMowerRepo(logger, db)
	assert.NoError(t, err)

	memorySink := sink.NewMemorySink()
	return statemerger.NewStateMerger(logger, memorySink, repo), memorySink
}

func testMower(id string, name string) models.Mower {
	return models.Mower{
		ID:   id,
		Type: models.DeviceTypeMower,
		Attributes: models.MowerAttributes{
			System:       models.System{Name: name, Model: "450X", SerialNumber: 190400999},
			Battery:      models.Battery{BatteryPercent: 88},
			Capabilities: models.Capabilities{Headlights: true, Position: true},
			Mower:        models.MowerStatus{Mode: "MAIN_AREA", Activity: "MOWING", State: "IN_OPERATION"},
			Calendar: models.Calendar{Tasks: []models.CalendarTask{
				{Start: 60, Duration: 120, Monday: true},
				{Start: 300, Duration: 60, Wednesday: true},
				{Start: 540, Duration: 60, Friday: true},
				{Start: 780, Duration: 60, Sunday: true},
			}},
			Planner:    models.Planner{NextStartTimestamp: 1700000000},
			Metadata:   models.Metadata{Connected: true, StatusTimestamp: 1700000001},
			Positions:  []models.Position{{Latitude: 57.7, Longitude: 14.1}},
			Settings:   models.Settings{CuttingHeight: 5, Headlight: models.Headlight{Mode: "EVENING_ONLY"}},
			Statistics: models.Statistics{TotalCuttingTime: 36000, NumberOfCollisions: 7},
		},
	}
}

func Test_ApplySnapshot(t *testing.T) {

	t.Run("should project the full device tree on first sight", func(t *testing.T) {
		t.Parallel()
		// arrange
		merger, memorySink := newTestMerger(t)

		// act
		err := merger.ApplySnapshot([]models.Mower{testMower("mower-1", "Lawn")})

		// assert
		assert.NoError(t, err)
		expected := map[string]any{
			"mower-1.system.name":                  "Lawn",
			"mower-1.system.model":                 "450X",
			"mower-1.battery.batteryPercent":       88,
			"mower-1.mower.activity":               "MOWING",
			"mower-1.planner.nextStartTimestamp":   int64(1700000000),
			"mower-1.metadata.connected":           true,
			"mower-1.positions.latitude":           57.7,
			"mower-1.settings.cuttingHeight":       5,
			"mower-1.settings.headlight":           "EVENING_ONLY",
			"mower-1.statistics.totalCuttingTime":  int64(36000),
			"mower-1.capabilities.headlights":      true,
			"mower-1.calendar.0.start":             60,
			"mower-1.calendar.3.sunday":            true,
			"mower-1.ACTIONS.schedule.3.start":     780,
		}
		for path, want := range expected {
			got, ok := memorySink.ReadValue(path)
			assert.True(t, ok, path)
			assert.Equal(t, want, got, path)
		}
		// writable trigger states exist with their defaults
		assert.True(t, memorySink.PathExists("mower-1.ACTIONS.PAUSE"))
		parkTime, _ := memorySink.ReadValue("mower-1.ACTIONS.park.parkTime")
		assert.Equal(t, 15, parkTime)
	})

	t.Run("should skip devices that are not mowers", func(t *testing.T) {
		t.Parallel()
		// arrange
		merger, memorySink := newTestMerger(t)
		device := testMower("gateway-1", "Gateway")
		device.Type = "gateway"

		// act
		err := merger.ApplySnapshot([]models.Mower{device})

		// assert
		assert.NoError(t, err)
		assert.Empty(t, memorySink.Writes())
	})

	t.Run("should only rewrite statistics-class values on later snapshots", func(t *testing.T) {
		t.Parallel()
		// arrange
		merger, memorySink := newTestMerger(t)
		assert.NoError(t, merger.ApplySnapshot([]models.Mower{testMower("mower-1", "Lawn")}))
		memorySink.ClearWrites()

		changed := testMower("mower-1", "Renamed")
		changed.Attributes.Battery.BatteryPercent = 51
		changed.Attributes.Settings.CuttingHeight = 9

		// act
		err := merger.ApplySnapshot([]models.Mower{changed})

		// assert
		assert.NoError(t, err)
		battery, _ := memorySink.ReadValue("mower-1.battery.batteryPercent")
		assert.Equal(t, 51, battery)
		// identity and settings are written once per process
		name, _ := memorySink.ReadValue("mower-1.system.name")
		assert.Equal(t, "Lawn", name)
		height, _ := memorySink.ReadValue("mower-1.settings.cuttingHeight")
		assert.Equal(t, 5, height)
	})

	t.Run("should gate optional sub-trees on capabilities", func(t *testing.T) {
		t.Parallel()
		// arrange
		merger, memorySink := newTestMerger(t)
		mower := testMower("mower-1", "Lawn")
		mower.Attributes.Capabilities = models.Capabilities{}

		// act
		err := merger.ApplySnapshot([]models.Mower{mower})

		// assert
		assert.NoError(t, err)
		assert.False(t, memorySink.PathExists("mower-1.positions.latitude"))
		assert.False(t, memorySink.PathExists("mower-1.settings.headlight"))
		assert.False(t, memorySink.PathExists("mower-1.ACTIONS.HEADLIGHT"))
		assert.False(t, memorySink.PathExists("mower-1.ACTIONS.startInWorkArea.START"))
	})

	t.Run("should be idempotent for an unchanged snapshot", func(t *testing.T) {
		t.Parallel()
		// arrange
		merger, memorySink := newTestMerger(t)
		mower := testMower("mower-1", "Lawn")
		assert.NoError(t, merger.ApplySnapshot([]models.Mower{mower}))
		before, _ := memorySink.ReadValue("mower-1.battery.batteryPercent")

		// act
		err := merger.ApplySnapshot([]models.Mower{mower})

		// assert
		assert.NoError(t, err)
		after, _ := memorySink.ReadValue("mower-1.battery.batteryPercent")
		assert.Equal(t, before, after)
	})
}

func Test_ApplyDelta(t *testing.T) {

	t.Run("should apply only the groups present in the delta", func(t *testing.T) {
		t.Parallel()
		// arrange
		merger, memorySink := newTestMerger(t)
		assert.NoError(t, merger.ApplySnapshot([]models.Mower{testMower("mower-1", "Lawn")}))

		// act
		merger.ApplyDelta(models.DeltaMessage{
			ID: "mower-1",
			Attributes: &models.DeltaAttributes{
				Battery: &models.Battery{BatteryPercent: 23},
			},
		})

		// assert
		battery, _ := memorySink.ReadValue("mower-1.battery.batteryPercent")
		assert.Equal(t, 23, battery)
		activity, _ := memorySink.ReadValue("mower-1.mower.activity")
		assert.Equal(t, "MOWING", activity)
	})

	t.Run("should drop deltas without attributes", func(t *testing.T) {
		t.Parallel()
		// arrange
		merger, memorySink := newTestMerger(t)
		assert.NoError(t, merger.ApplySnapshot([]models.Mower{testMower("mower-1", "Lawn")}))
		memorySink.ClearWrites()

		// act
		merger.ApplyDelta(models.DeltaMessage{ID: "mower-1"})

		// assert
		assert.Empty(t, memorySink.Writes())
	})

	t.Run("should drop deltas for unknown devices", func(t *testing.T) {
		t.Parallel()
		// arrange
		merger, memorySink := newTestMerger(t)

		// act
		merger.ApplyDelta(models.DeltaMessage{
			ID: "mower-9",
			Attributes: &models.DeltaAttributes{
				Battery: &models.Battery{BatteryPercent: 23},
			},
		})

		// assert
		assert.Empty(t, memorySink.Writes())
	})

	t.Run("should reshape the calendar when the slot count shrinks", func(t *testing.T) {
		t.Parallel()
		// arrange
		merger, memorySink := newTestMerger(t)
		assert.NoError(t, merger.ApplySnapshot([]models.Mower{testMower("mower-1", "Lawn")}))

		// act
		merger.ApplyDelta(models.DeltaMessage{
			ID: "mower-1",
			Attributes: &models.DeltaAttributes{
				Calendar: &models.Calendar{Tasks: []models.CalendarTask{
					{Start: 100, Duration: 90, Tuesday: true},
					{Start: 200, Duration: 45, Thursday: true},
				}},
			},
		})

		// assert
		start, _ := memorySink.ReadValue("mower-1.calendar.0.start")
		assert.Equal(t, 100, start)
		assert.True(t, memorySink.PathExists("mower-1.calendar.1.start"))
		assert.False(t, memorySink.PathExists("mower-1.calendar.2.start"))
		assert.False(t, memorySink.PathExists("mower-1.calendar.3.start"))
		assert.False(t, memorySink.PathExists("mower-1.ACTIONS.schedule.2.start"))
	})

	t.Run("should recreate slots when the slot count grows back", func(t *testing.T) {
		t.Parallel()
		// arrange
		merger, memorySink := newTestMerger(t)
		assert.NoError(t, merger.ApplySnapshot([]models.Mower{testMower("mower-1", "Lawn")}))
		merger.ApplyDelta(models.DeltaMessage{
			ID: "mower-1",
			Attributes: &models.DeltaAttributes{
				Calendar: &models.Calendar{Tasks: []models.CalendarTask{{Start: 100, Duration: 90, Tuesday: true}}},
			},
		})

		// act
		merger.ApplyDelta(models.DeltaMessage{
			ID: "mower-1",
			Attributes: &models.DeltaAttributes{
				Calendar: &models.Calendar{Tasks: []models.CalendarTask{
					{Start: 100, Duration: 90, Tuesday: true},
					{Start: 400, Duration: 30, Saturday: true},
				}},
			},
		})

		// assert
		assert.True(t, memorySink.PathExists("mower-1.calendar.1.start"))
		start, _ := memorySink.ReadValue("mower-1.calendar.1.start")
		assert.Equal(t, 400, start)
	})

	t.Run("should write position samples in payload order", func(t *testing.T) {
		t.Parallel()
		// arrange
		merger, memorySink := newTestMerger(t)
		assert.NoError(t, merger.ApplySnapshot([]models.Mower{testMower("mower-1", "Lawn")}))
		memorySink.ClearWrites()

		// act
		merger.ApplyDelta(models.DeltaMessage{
			ID: "mower-1",
			Attributes: &models.DeltaAttributes{
				Positions: []models.Position{
					{Latitude: 57.71, Longitude: 14.11},
					{Latitude: 57.72, Longitude: 14.12},
				},
			},
		})

		// assert
		latitudes := []any{}
		for _, write := range memorySink.Writes() {
			if write.Path == "mower-1.positions.latitude" {
				latitudes = append(latitudes, write.Value)
			}
		}
		assert.Equal(t, []any{57.71, 57.72}, latitudes)
	})

	t.Run("should ignore capability-gated groups for devices without the capability", func(t *testing.T) {
		t.Parallel()
		// arrange
		merger, memorySink := newTestMerger(t)
		mower := testMower("mower-1", "Lawn")
		mower.Attributes.Capabilities = models.Capabilities{}
		assert.NoError(t, merger.ApplySnapshot([]models.Mower{mower}))

		// act
		merger.ApplyDelta(models.DeltaMessage{
			ID: "mower-1",
			Attributes: &models.DeltaAttributes{
				Positions: []models.Position{{Latitude: 57.71, Longitude: 14.11}},
				Headlight: &models.Headlight{Mode: "ALWAYS_ON"},
			},
		})

		// assert
		_, hasLatitude := memorySink.ReadValue("mower-1.positions.latitude")
		assert.False(t, hasLatitude)
		_, hasHeadlight := memorySink.ReadValue("mower-1.settings.headlight")
		assert.False(t, hasHeadlight)
	})
}
