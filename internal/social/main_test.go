package social

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/fieldhouse/fieldhouse/internal/models"
)

// newTestDB opens an isolated in-memory sqlite database with the schema
// migrated. MaxOpenConns(1) keeps every query on the same connection, since
// each sqlite :memory: connection is its own database.
func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	database, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger:         logger.Default.LogMode(logger.Silent),
		TranslateError: true,
		NowFunc: func() time.Time {
			return time.Now().UTC()
		},
	})
	require.NoError(t, err, "failed to open in-memory database")

	sqlDB, err := database.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)

	err = database.AutoMigrate(
		&models.Account{},
		&models.Relationship{},
		&models.Notification{},
		&models.Post{},
	)
	require.NoError(t, err, "failed to migrate schema")

	return database
}

// harness bundles the social core wired against a fresh test database
type harness struct {
	db       *gorm.DB
	engine   *Engine
	sink     *Sink
	views    *Views
	activity *Activity
}

func newHarness(t *testing.T) *harness {
	t.Helper()

	database := newTestDB(t)
	sink := NewSink(database, nil)
	return &harness{
		db:       database,
		engine:   NewEngine(database, nil, sink),
		sink:     sink,
		views:    NewViews(database, nil),
		activity: NewActivity(database, sink),
	}
}

func (h *harness) createAccount(t *testing.T, handle string, private bool) *models.Account {
	t.Helper()

	account := &models.Account{
		Handle:    handle,
		IsPrivate: private,
		CreatedAt: time.Now().UTC(),
	}
	require.NoError(t, h.db.Create(account).Error, "failed to create account %s", handle)
	return account
}

func (h *harness) reloadAccount(t *testing.T, id int64) *models.Account {
	t.Helper()

	var account models.Account
	require.NoError(t, h.db.First(&account, id).Error)
	return &account
}

func (h *harness) notificationsFor(t *testing.T, recipientID int64) []*models.Notification {
	t.Helper()

	notifs, _, err := h.sink.ListForRecipient(context.Background(), recipientID, ListOptions{Limit: 100})
	require.NoError(t, err)
	return notifs
}

// recordingCache is an in-process counterCache that remembers every key it
// was asked to drop, for asserting invalidation ordering.
type recordingCache struct {
	values  map[string]int64
	deletes []string
}

func newRecordingCache() *recordingCache {
	return &recordingCache{values: make(map[string]int64)}
}

func (c *recordingCache) GetInt64(key string) (int64, bool) {
	val, ok := c.values[key]
	return val, ok
}

func (c *recordingCache) SetInt64(key string, value int64, _ time.Duration) error {
	c.values[key] = value
	return nil
}

func (c *recordingCache) Delete(keys ...string) error {
	for _, key := range keys {
		delete(c.values, key)
	}
	c.deletes = append(c.deletes, keys...)
	return nil
}
