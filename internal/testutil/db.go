// Package testutil provides a migrated throwaway database for package tests.
package testutil

import (
	"path/filepath"
	"testing"

	"github.com/glebarez/sqlite"
	"github.com/jhon-henao13/Fixly/internal/model"
	"github.com/jhon-henao13/Fixly/pkg/database"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// NewDB opens a file-backed SQLite database under t.TempDir with every model
// migrated. A single connection serialises writers the way row locks would.
func NewDB(t testing.TB) *gorm.DB {
	t.Helper()

	dsn := filepath.Join(t.TempDir(), "fixly.db") + "?_pragma=busy_timeout(5000)&_pragma=foreign_keys(0)"
	db, err := gorm.Open(sqlite.Open(dsn), database.GormConfig(logger.Silent))
	require.NoError(t, err)

	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)

	require.NoError(t, database.MigrateModels(db, model.All()...))

	t.Cleanup(func() {
		_ = sqlDB.Close()
	})
	return db
}

// CreateWorkshop inserts a workshop with the given contact email
func CreateWorkshop(t testing.TB, db *gorm.DB, email string) *model.Workshop {
	t.Helper()

	w := &model.Workshop{Name: "Workshop " + email, Email: email}
	require.NoError(t, db.Create(w).Error)
	return w
}
