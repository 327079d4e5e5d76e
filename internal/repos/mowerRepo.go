package repos

import (
	"database/sql"
	"fmt"

	"github.com/charmbracelet/log"
	"github.com/wheelibin/mowd/internal/models"
)

const initSchema = `
  CREATE TABLE IF NOT EXISTS mower (
    id VARCHAR(36) PRIMARY KEY,
    name TEXT,
    model TEXT,
    serial_number INTEGER,
    cap_headlights INTEGER,
    cap_position INTEGER,
    cap_stay_out_zones INTEGER,
    cap_work_areas INTEGER,
    slot_count INTEGER
  );

  CREATE TABLE IF NOT EXISTS ensured_path (
    path TEXT PRIMARY KEY
  );

  DELETE FROM mower;
  DELETE FROM ensured_path;
`

// MowerRepo is the registry of devices seen since startup: identity,
// capability flags and the number of schedule slots currently projected
// for each device. It is rebuilt from the first snapshot on every run.
type MowerRepo struct {
	logger *log.Logger
	db     *sql.DB
}

func NewMowerRepo(logger *log.Logger, db *sql.DB) (*MowerRepo, error) {

	_, err := db.Exec(initSchema)
	if err != nil {
		return nil, fmt.Errorf("Error initialising mower schema: %w", err)
	}

	return &MowerRepo{logger: logger, db: db}, nil
}

func (r *MowerRepo) Add(mower models.Mower) error {
	_, err := r.db.Exec(
		`INSERT INTO mower
      (id, name, model, serial_number, cap_headlights, cap_position, cap_stay_out_zones, cap_work_areas, slot_count)
     VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9);`,
		mower.ID,
		mower.Attributes.System.Name,
		mower.Attributes.System.Model,
		mower.Attributes.System.SerialNumber,
		mower.Attributes.Capabilities.Headlights,
		mower.Attributes.Capabilities.Position,
		mower.Attributes.Capabilities.StayOutZones,
		mower.Attributes.Capabilities.WorkAreas,
		// slot count starts at zero; the merger sets it when it first
		// projects the calendar
		0,
	)
	if err != nil {
		return fmt.Errorf("Error adding mower (%s): %w", mower.ID, err)
	}

	return nil
}

func (r *MowerRepo) IsKnownMower(id string) (bool, error) {
	row := r.db.QueryRow("SELECT id FROM mower WHERE id = $1", id)
	var found string
	err := row.Scan(&found)

	if err != nil {
		if err == sql.ErrNoRows {
			return false, nil
		} else {
			return false, fmt.Errorf("Error looking up mower (%s): %w", id, err)
		}
	}
	return true, nil
}

func (r *MowerRepo) GetCapabilities(id string) (models.Capabilities, error) {
	row := r.db.QueryRow(`
    SELECT cap_headlights,
           cap_position,
           cap_stay_out_zones,
           cap_work_areas
    FROM mower
    WHERE id = $1`, id)

	caps := models.Capabilities{}
	err := row.Scan(&caps.Headlights, &caps.Position, &caps.StayOutZones, &caps.WorkAreas)
	if err != nil {
		return models.Capabilities{}, fmt.Errorf("Error reading capabilities for mower (%s): %w", id, err)
	}
	return caps, nil
}

func (r *MowerRepo) GetSlotCount(id string) (int, error) {
	row := r.db.QueryRow("SELECT slot_count FROM mower WHERE id = $1", id)
	var count int
	err := row.Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("Error reading slot count for mower (%s): %w", id, err)
	}
	return count, nil
}

func (r *MowerRepo) SetSlotCount(id string, count int) error {
	_, err := r.db.Exec("UPDATE mower SET slot_count = $1 WHERE id = $2", count, id)
	if err != nil {
		return fmt.Errorf("Error setting slot count for mower (%s) to %d: %w", id, count, err)
	}
	return nil
}

func (r *MowerRepo) IsPathEnsured(path string) (bool, error) {
	row := r.db.QueryRow("SELECT path FROM ensured_path WHERE path = $1", path)
	var found string
	err := row.Scan(&found)

	if err != nil {
		if err == sql.ErrNoRows {
			return false, nil
		} else {
			return false, fmt.Errorf("Error looking up ensured path (%s): %w", path, err)
		}
	}
	return true, nil
}

func (r *MowerRepo) MarkPathEnsured(path string) error {
	_, err := r.db.Exec("INSERT OR IGNORE INTO ensured_path (path) VALUES ($1)", path)
	if err != nil {
		return fmt.Errorf("Error marking path (%s) as ensured: %w", path, err)
	}
	return nil
}

// ClearEnsuredPaths forgets the prefix and everything below it, so the
// paths get recreated in the sink if they ever reappear.
func (r *MowerRepo) ClearEnsuredPaths(prefix string) error {
	_, err := r.db.Exec("DELETE FROM ensured_path WHERE path = $1 OR path LIKE $1 || '.%'", prefix)
	if err != nil {
		return fmt.Errorf("Error clearing ensured paths under (%s): %w", prefix, err)
	}
	return nil
}
