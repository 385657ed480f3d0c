package repository

import (
	"testing"
	"time"

	"twitterclone/internal/testutil"

	"gorm.io/gorm"
)

func setupDB(t *testing.T) *gorm.DB {
	t.Helper()
	return testutil.NewTestDB(t)
}

var baseTime = time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
