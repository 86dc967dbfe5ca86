// Package testhelpers builds throwaway databases and fixtures for tests.
package testhelpers

import (
	"fmt"
	"strings"
	"sync/atomic"
	"testing"

	"golang.org/x/crypto/bcrypt"
	"gorm.io/datatypes"
	"gorm.io/gorm"

	"businessconnect_backend/database"
	"businessconnect_backend/internal/models"
)

var dbCounter atomic.Int64

// NewTestDB returns a migrated in-memory sqlite database private to the test.
func NewTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	dsn := fmt.Sprintf("file:testdb_%d?mode=memory&cache=shared", dbCounter.Add(1))
	db, err := database.Open("sqlite", dsn, false)
	if err != nil {
		t.Fatalf("failed to open test database: %v", err)
	}
	if err := database.AutoMigrate(db); err != nil {
		t.Fatalf("failed to migrate test database: %v", err)
	}

	t.Cleanup(func() {
		if sqlDB, err := db.DB(); err == nil {
			_ = sqlDB.Close()
		}
	})
	return db
}

// CreateUser stores user, hashing PasswordHash when it holds a raw password.
func CreateUser(t *testing.T, db *gorm.DB, user *models.User) *models.User {
	t.Helper()

	if user.PasswordHash == "" {
		user.PasswordHash = "password123"
	}
	if !strings.HasPrefix(user.PasswordHash, "$2a$") {
		hashed, err := bcrypt.GenerateFromPassword([]byte(user.PasswordHash), bcrypt.MinCost)
		if err != nil {
			t.Fatalf("failed to hash password: %v", err)
		}
		user.PasswordHash = string(hashed)
	}
	if user.Email == "" {
		user.Email = fmt.Sprintf("user_%d@test.sn", dbCounter.Add(1))
	}
	if user.Role == "" {
		user.Role = models.UserRoleUser
	}
	if user.Status == "" {
		user.Status = models.UserStatusActive
	}
	if user.FirstName == "" {
		user.FirstName = "Test"
	}
	if user.Preferences.Data().Language == "" {
		user.Preferences = datatypes.NewJSONType(models.DefaultPreferences())
	}

	if err := db.Create(user).Error; err != nil {
		t.Fatalf("failed to create user %s: %v", user.Email, err)
	}
	return user
}
