package checks

import (
	"context"
	"errors"
	"time"

	"gorm.io/gorm"

	"github.com/charlesng35/guestbook/internal/models"
	"github.com/charlesng35/guestbook/internal/monitoring"
)

const databaseComponent = "database"

var errEntriesTableMissing = errors.New("entries table missing")

// Database returns a readiness probe that pings the connection pool and
// confirms the entries table has been migrated.
func Database(db *gorm.DB) monitoring.Check {
	return monitoring.NewCheck(databaseComponent, func(ctx context.Context) monitoring.ProbeResult {
		start := time.Now()
		if db == nil {
			return monitoring.ProbeResult{Status: monitoring.StatusDown, Details: "database not configured"}
		}

		sqlDB, err := db.DB()
		if err == nil {
			err = sqlDB.PingContext(ctx)
		}
		if err == nil && !db.WithContext(ctx).Migrator().HasTable(&models.Entry{}) {
			err = errEntriesTableMissing
		}
		return monitoring.ResultFromError(databaseComponent, err, time.Since(start))
	})
}
