package repos_test

import (
	"database/sql"
	"os"
	"testing"

	"github.com/charmbracelet/log"
	_ "github.com/mattn/go-sqlite3"
	"github.com/stretchr/testify/assert"
	"github.com/wheelibin/mowd/internal/models"
	"github.com/wheelibin/mowd/internal/repos"
)

func newTestRepo(t *testing.T) *repos.MowerRepo {
	t.Helper()

	logger := log.NewWithOptions(os.Stderr, log.Options{Level: log.FatalLevel})
	db, err := sql.Open("sqlite3", ":memory:")
	assert.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	repo, err := repos.NewMowerRepo(logger, db)
	assert.NoError(t, err)
	return repo
}

func Test_MowerRepo(t *testing.T) {

	t.Run("should register and look up mowers", func(t *testing.T) {
		t.Parallel()
		// arrange
		repo := newTestRepo(t)
		mower := models.Mower{
			ID:   "mower-1",
			Type: models.DeviceTypeMower,
			Attributes: models.MowerAttributes{
				System:       models.System{Name: "Lawn", Model: "450X"},
				Capabilities: models.Capabilities{Headlights: true, WorkAreas: true},
			},
		}

		// act
		err := repo.Add(mower)

		// assert
		assert.NoError(t, err)
		known, err := repo.IsKnownMower("mower-1")
		assert.NoError(t, err)
		assert.True(t, known)
		unknown, err := repo.IsKnownMower("mower-9")
		assert.NoError(t, err)
		assert.False(t, unknown)

		caps, err := repo.GetCapabilities("mower-1")
		assert.NoError(t, err)
		assert.Equal(t, models.Capabilities{Headlights: true, WorkAreas: true}, caps)
	})

	t.Run("should track the calendar slot count", func(t *testing.T) {
		t.Parallel()
		// arrange
		repo := newTestRepo(t)
		assert.NoError(t, repo.Add(models.Mower{ID: "mower-1"}))

		// act / assert
		count, err := repo.GetSlotCount("mower-1")
		assert.NoError(t, err)
		assert.Equal(t, 0, count)

		assert.NoError(t, repo.SetSlotCount("mower-1", 4))
		count, err = repo.GetSlotCount("mower-1")
		assert.NoError(t, err)
		assert.Equal(t, 4, count)
	})

	t.Run("should remember ensured paths", func(t *testing.T) {
		t.Parallel()
		// arrange
		repo := newTestRepo(t)

		// act
		assert.NoError(t, repo.MarkPathEnsured("mower-1.calendar.0.start"))
		assert.NoError(t, repo.MarkPathEnsured("mower-1.calendar.0.start"))

		// assert
		ensured, err := repo.IsPathEnsured("mower-1.calendar.0.start")
		assert.NoError(t, err)
		assert.True(t, ensured)
		other, err := repo.IsPathEnsured("mower-1.calendar.1.start")
		assert.NoError(t, err)
		assert.False(t, other)
	})

	t.Run("should clear ensured paths under a prefix", func(t *testing.T) {
		t.Parallel()
		// arrange
		repo := newTestRepo(t)
		assert.NoError(t, repo.MarkPathEnsured("mower-1.calendar.3"))
		assert.NoError(t, repo.MarkPathEnsured("mower-1.calendar.3.start"))
		assert.NoError(t, repo.MarkPathEnsured("mower-1.calendar.30.start"))

		// act
		assert.NoError(t, repo.ClearEnsuredPaths("mower-1.calendar.3"))

		// assert
		cleared, _ := repo.IsPathEnsured("mower-1.calendar.3.start")
		assert.False(t, cleared)
		root, _ := repo.IsPathEnsured("mower-1.calendar.3")
		assert.False(t, root)
		// a sibling slot sharing the digit prefix is untouched
		sibling, _ := repo.IsPathEnsured("mower-1.calendar.30.start")
		assert.True(t, sibling)
	})
}
