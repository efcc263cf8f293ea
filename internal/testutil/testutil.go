// Package testutil holds fixtures shared by package tests.
package testutil

import (
	"context"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"customerhub/internal/config"
	"customerhub/internal/db"
	"customerhub/internal/logger"
)

// NewSQLiteDB returns a migrated in-memory database that lives for the test.
func NewSQLiteDB(t *testing.T) *gorm.DB {
	t.Helper()

	gormDB, err := db.Open(config.DatabaseConfig{Driver: config.DriverSQLite, DSN: ":memory:"}, logger.Discard())
	require.NoError(t, err)
	require.NoError(t, db.Migrate(gormDB))

	t.Cleanup(func() {
		if sqlDB, err := gormDB.DB(); err == nil {
			_ = sqlDB.Close()
		}
	})
	return gormDB
}

// CodeRecorder captures activation codes instead of delivering them.
type CodeRecorder struct {
	mu    sync.Mutex
	codes map[string]string
}

// NewCodeRecorder creates an empty recorder.
func NewCodeRecorder() *CodeRecorder {
	return &CodeRecorder{codes: make(map[string]string)}
}

// NotifyActivationCode records the latest code per email.
func (r *CodeRecorder) NotifyActivationCode(_ context.Context, email, code string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.codes[email] = code
}

// Code returns the latest code recorded for email.
func (r *CodeRecorder) Code(email string) string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.codes[email]
}
