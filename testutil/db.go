// Package testutil holds fixtures shared by package tests.
package testutil

import (
	"fmt"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/AmyVerse/ayursutra-web-sub001/models"
)

// OpenDB returns a migrated in-memory database private to the calling test.
func OpenDB(t testing.TB) *gorm.DB {
	t.Helper()
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", uuid.NewString())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		TranslateError: true,
		Logger:         logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)

	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })

	require.NoError(t, db.AutoMigrate(models.All()...))
	return db
}

func Ptr[T any](v T) *T { return &v }

// CreateUser inserts u, filling a name when empty.
func CreateUser(t testing.TB, db *gorm.DB, u models.User) models.User {
	t.Helper()
	if u.Name == "" {
		u.Name = "Test User"
	}
	require.NoError(t, db.Create(&u).Error)
	return u
}
