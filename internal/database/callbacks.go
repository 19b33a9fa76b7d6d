package database

import (
	"database/sql"
	"time"

	"gorm.io/gorm"
)

// MetricsRecorder is an interface for recording database metrics
type MetricsRecorder interface {
	RecordDBQuery(operation, table string, duration time.Duration, err error)
	UpdateDBStats(stats sql.DBStats)
}

const startTimeKey = "metrics:start_time"

// RegisterMetricsCallbacks registers GORM callbacks for metrics collection
func RegisterMetricsCallbacks(db *gorm.DB, recorder MetricsRecorder) error {
	before := func(db *gorm.DB) {
		db.InstanceSet(startTimeKey, time.Now())
	}
	after := func(operation string) func(*gorm.DB) {
		return func(db *gorm.DB) {
			startTime, ok := db.InstanceGet(startTimeKey)
			if !ok {
				return
			}
			table := db.Statement.Table
			if table == "" {
				table = "unknown"
			}
			recorder.RecordDBQuery(operation, table, time.Since(startTime.(time.Time)), db.Error)
		}
	}

	cb := db.Callback()
	steps := []struct {
		register func(name string, fn func(*gorm.DB)) error
		name     string
		fn       func(*gorm.DB)
	}{
		{cb.Query().Before("gorm:query").Register, "metrics:query_before", before},
		{cb.Query().After("gorm:query").Register, "metrics:query_after", after("select")},
		{cb.Create().Before("gorm:create").Register, "metrics:create_before", before},
		{cb.Create().After("gorm:create").Register, "metrics:create_after", after("insert")},
		{cb.Update().Before("gorm:update").Register, "metrics:update_before", before},
		{cb.Update().After("gorm:update").Register, "metrics:update_after", after("update")},
		{cb.Delete().Before("gorm:delete").Register, "metrics:delete_before", before},
		{cb.Delete().After("gorm:delete").Register, "metrics:delete_after", after("delete")},
	}
	for _, s := range steps {
		if err := s.register(s.name, s.fn); err != nil {
			return err
		}
	}
	return nil
}

// StartDBStatsCollector starts periodic DB stats collection. Close the returned channel to stop it.
func StartDBStatsCollector(db *gorm.DB, recorder MetricsRecorder, interval time.Duration) chan struct{} {
	done := make(chan struct{})

	go func() {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()

		for {
			select {
			case <-ticker.C:
				sqlDB, err := db.DB()
				if err != nil {
					continue
				}
				recorder.UpdateDBStats(sqlDB.Stats())
			case <-done:
				return
			}
		}
	}()

	return done
}
