package database_test

import (
	"context"
	"errors"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/km-arc/gomvc/framework/config"
	"github.com/km-arc/gomvc/framework/database"
	"github.com/km-arc/gomvc/framework/logging"
)

type note struct {
	ID    uint `gorm:"primaryKey"`
	Title string
	Draft bool
}

func memoryManager(t *testing.T) *database.Manager {
	t.Helper()
	m, err := database.NewManager(config.DBConfig{Driver: "sqlite", Database: ":memory:", MaxOpenConns: 10, MaxIdleConns: 5}, logging.Discard())
	require.NoError(t, err)
	t.Cleanup(func() { _ = m.Close() })
	require.NoError(t, m.Migrate(context.Background(), &note{}))
	return m
}

func TestDriverFor(t *testing.T) {
	for name, want := range map[string]string{"sqlite": "sqlite", "sqlite3": "sqlite", "postgres": "postgres", "pgsql": "postgres"} {
		d, err := database.DriverFor(name)
		require.NoError(t, err)
		assert.Equal(t, want, d.Name())
	}
	_, err := database.DriverFor("mysql")
	assert.Error(t, err)
}

func TestManager_ConnectAndClose(t *testing.T) {
	m := memoryManager(t)
	ctx := context.Background()

	db, err := m.Connect(ctx)
	require.NoError(t, err)
	var one int
	require.NoError(t, db.Raw("SELECT 1").Scan(&one).Error)
	assert.Equal(t, 1, one)

	require.NoError(t, m.Close())
	require.NoError(t, m.Close())
}

func TestManager_FileDatabaseUsesWAL(t *testing.T) {
	path := filepath.Join(t.TempDir(), "data", "app.db")
	m, err := database.NewManager(config.DBConfig{Driver: "sqlite", Database: path, MaxOpenConns: 2, MaxIdleConns: 2}, logging.Discard())
	require.NoError(t, err)
	t.Cleanup(func() { _ = m.Close() })

	db, err := m.Connect(context.Background())
	require.NoError(t, err)
	var mode string
	require.NoError(t, db.Raw("PRAGMA journal_mode").Scan(&mode).Error)
	assert.Equal(t, "wal", mode)
}

func TestManager_Transaction(t *testing.T) {
	m := memoryManager(t)
	ctx := context.Background()
	repo := func() *database.Repository[note] {
		db, err := m.Connect(ctx)
		require.NoError(t, err)
		return database.NewRepository[note](db)
	}

	boom := errors.New("boom")
	err := m.Transaction(ctx, func(tx *gorm.DB) error {
		require.NoError(t, tx.Create(&note{Title: "rolled back"}).Error)
		return boom
	})
	assert.ErrorIs(t, err, boom)

	n, err := repo().Count(ctx)
	require.NoError(t, err)
	assert.Zero(t, n)

	require.NoError(t, m.Transaction(ctx, func(tx *gorm.DB) error {
		return tx.Create(&note{Title: "kept"}).Error
	}))
	n, err = repo().Count(ctx)
	require.NoError(t, err)
	assert.EqualValues(t, 1, n)
}

func TestRepository(t *testing.T) {
	m := memoryManager(t)
	ctx := context.Background()
	db, err := m.Connect(ctx)
	require.NoError(t, err)
	notes := database.NewRepository[note](db)

	for _, title := range []string{"a", "b", "c"} {
		require.NoError(t, notes.Create(ctx, &note{Title: title, Draft: title == "b"}))
	}

	got, err := notes.Find(ctx, 2)
	require.NoError(t, err)
	assert.Equal(t, "b", got.Title)

	_, err = notes.Find(ctx, 99)
	assert.ErrorIs(t, err, database.ErrNotFound)

	first, err := notes.FirstWhere(ctx, "title = ?", "c")
	require.NoError(t, err)
	assert.EqualValues(t, 3, first.ID)

	drafts, err := notes.Where(ctx, "draft = ?", true)
	require.NoError(t, err)
	assert.Len(t, drafts, 1)

	got.Title = "B"
	require.NoError(t, notes.Save(ctx, got))
	all, err := notes.All(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"a", "B", "c"}, []string{all[0].Title, all[1].Title, all[2].Title})

	page, err := notes.Paginate(ctx, 1, 2)
	require.NoError(t, err)
	assert.EqualValues(t, 3, page.Total)
	assert.Equal(t, 2, page.LastPage())
	require.Len(t, page.Items, 2)
	assert.Equal(t, "c", page.Items[0].Title)

	require.NoError(t, notes.Delete(ctx, 1))
	assert.ErrorIs(t, notes.Delete(ctx, 1), database.ErrNotFound)

	removed, err := notes.DeleteWhere(ctx, "draft = ?", true)
	require.NoError(t, err)
	assert.EqualValues(t, 1, removed)

	n, err := notes.Count(ctx)
	require.NoError(t, err)
	assert.EqualValues(t, 1, n)
}

func TestPage_LastPage(t *testing.T) {
	assert.Equal(t, 1, database.Page[note]{PerPage: 10}.LastPage())
	assert.Equal(t, 3, database.Page[note]{PerPage: 10, Total: 21}.LastPage())
	assert.Equal(t, 2, database.Page[note]{PerPage: 10, Total: 20}.LastPage())
}
