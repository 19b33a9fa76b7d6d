package database

import (
	"database/sql"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/afnanahmadtariq/collab-pm/internal/domain"
)

type queryRecord struct {
	operation string
	table     string
	err       error
}

type mockMetricsRecorder struct {
	mu      sync.Mutex
	queries []queryRecord
	stats   []sql.DBStats
}

func (m *mockMetricsRecorder) RecordDBQuery(operation, table string, duration time.Duration, err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.queries = append(m.queries, queryRecord{operation: operation, table: table, err: err})
}

func (m *mockMetricsRecorder) UpdateDBStats(stats sql.DBStats) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.stats = append(m.stats, stats)
}

func (m *mockMetricsRecorder) ops() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]string, 0, len(m.queries))
	for _, q := range m.queries {
		out = append(out, q.operation+":"+q.table)
	}
	return out
}

func setupTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{DisableForeignKeyConstraintWhenMigrating: true})
	require.NoError(t, err)
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	return db
}

func TestAutoMigrate_CreatesAllTables(t *testing.T) {
	db := setupTestDB(t)

	require.NoError(t, AutoMigrate(db, zap.NewNop()))

	for _, table := range []string{
		"organizations", "organization_members", "projects", "boards", "board_columns",
		"tasks", "task_tags", "tags", "comments", "attachments", "activities", "notifications",
	} {
		assert.True(t, db.Migrator().HasTable(table), table)
	}
}

func TestRegisterMetricsCallbacks(t *testing.T) {
	db := setupTestDB(t)
	require.NoError(t, db.AutoMigrate(&domain.Organization{}))

	recorder := &mockMetricsRecorder{}
	require.NoError(t, RegisterMetricsCallbacks(db, recorder))

	org := &domain.Organization{Name: "Acme"}
	require.NoError(t, db.Create(org).Error)
	assert.NotEqual(t, uuid.Nil, org.ID)

	var found domain.Organization
	require.NoError(t, db.First(&found, "id = ?", org.ID).Error)
	require.NoError(t, db.Model(&found).Update("name", "Acme 2").Error)
	require.NoError(t, db.Delete(&found).Error)

	assert.Equal(t, []string{
		"insert:organizations",
		"select:organizations",
		"update:organizations",
		"delete:organizations",
	}, recorder.ops())
}

func TestRegisterMetricsCallbacks_RecordsErrors(t *testing.T) {
	db := setupTestDB(t)
	recorder := &mockMetricsRecorder{}
	require.NoError(t, RegisterMetricsCallbacks(db, recorder))

	// table was never migrated
	err := db.First(&domain.Organization{}).Error
	require.Error(t, err)

	recorder.mu.Lock()
	defer recorder.mu.Unlock()
	require.Len(t, recorder.queries, 1)
	assert.Equal(t, "select", recorder.queries[0].operation)
	assert.Error(t, recorder.queries[0].err)
}

func TestStartDBStatsCollector(t *testing.T) {
	db := setupTestDB(t)
	recorder := &mockMetricsRecorder{}

	done := StartDBStatsCollector(db, recorder, 10*time.Millisecond)
	defer close(done)

	assert.Eventually(t, func() bool {
		recorder.mu.Lock()
		defer recorder.mu.Unlock()
		return len(recorder.stats) > 0
	}, time.Second, 10*time.Millisecond)
}

func TestBaseModel_KeepsClientID(t *testing.T) {
	db := setupTestDB(t)
	require.NoError(t, db.AutoMigrate(&domain.Organization{}))

	id := uuid.New()
	org := &domain.Organization{BaseModel: domain.BaseModel{ID: id}, Name: "client id"}
	require.NoError(t, db.Create(org).Error)
	assert.Equal(t, id, org.ID)
}

func TestNewRedis_EmptyURL(t *testing.T) {
	client, err := NewRedis(t.Context(), RedisConfig{}, zap.NewNop())
	assert.NoError(t, err)
	assert.Nil(t, client)
}

func TestNewRedis_BadURL(t *testing.T) {
	_, err := NewRedis(t.Context(), RedisConfig{URL: "://nope"}, zap.NewNop())
	assert.Error(t, err)
}
