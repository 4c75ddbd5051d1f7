package migration

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

type widget struct {
	ID   uint
	Name string
}

type createWidgets struct{}

func (createWidgets) Up(db *gorm.DB) error   { return db.AutoMigrate(&widget{}) }
func (createWidgets) Down(db *gorm.DB) error { return db.Migrator().DropTable(&widget{}) }

func withRegistry(t *testing.T, regs ...registeredMigration) {
	t.Helper()
	saved := registry
	registry = regs
	t.Cleanup(func() { registry = saved })
}

func openDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(filepath.Join(t.TempDir(), "ops.db")), &gorm.Config{})
	require.NoError(t, err)
	return db
}

func TestRunner_RunStatusRollback(t *testing.T) {
	withRegistry(t, registeredMigration{name: "20260101000000_create_widgets", m: createWidgets{}})
	db := openDB(t)
	r := New(db)

	applied, err := r.Run()
	require.NoError(t, err)
	assert.Equal(t, []string{"20260101000000_create_widgets"}, applied)
	assert.True(t, db.Migrator().HasTable(&widget{}))

	again, err := r.Run()
	require.NoError(t, err)
	assert.Empty(t, again)

	st, err := r.Status()
	require.NoError(t, err)
	require.Len(t, st, 1)
	assert.True(t, st[0].Ran)
	assert.Equal(t, 1, st[0].Batch)

	reverted, err := r.Rollback()
	require.NoError(t, err)
	assert.Equal(t, []string{"20260101000000_create_widgets"}, reverted)
	assert.False(t, db.Migrator().HasTable(&widget{}))

	reverted, err = r.Rollback()
	require.NoError(t, err)
	assert.Empty(t, reverted)
}

func TestRunner_DuplicateNames(t *testing.T) {
	withRegistry(t,
		registeredMigration{name: "a", m: createWidgets{}},
		registeredMigration{name: "a", m: createWidgets{}},
	)
	_, err := New(openDB(t)).Run()
	assert.ErrorIs(t, err, ErrDuplicate)
}
