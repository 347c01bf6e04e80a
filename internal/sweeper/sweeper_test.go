package sweeper

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/fieldhouse/fieldhouse/internal/models"
	"github.com/fieldhouse/fieldhouse/internal/social"
	"github.com/fieldhouse/fieldhouse/pkg/config"
)

func TestRun(t *testing.T) {
	database, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)
	sqlDB, err := database.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	require.NoError(t, database.AutoMigrate(&models.Notification{}))

	old := time.Now().UTC().Add(-60 * 24 * time.Hour)
	require.NoError(t, database.Create(&models.Notification{
		Type:        models.NotifyTypeLike,
		RecipientID: 1,
		ActorID:     2,
		IsRead:      true,
		CreatedAt:   old,
	}).Error)
	require.NoError(t, database.Create(&models.Notification{
		Type:        models.NotifyTypeLike,
		RecipientID: 1,
		ActorID:     2,
		IsRead:      false,
		CreatedAt:   old,
	}).Error)

	s := New(social.NewSink(database, nil), &config.SocialConfig{
		RetentionDays: 30,
		SweepInterval: 10 * time.Millisecond,
	})

	// the first sweep runs before the ticker, so a short deadline is enough
	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()
	err = s.Run(ctx)
	assert.True(t, errors.Is(err, context.DeadlineExceeded))

	var count int64
	require.NoError(t, database.Model(&models.Notification{}).Count(&count).Error)
	assert.Equal(t, int64(1), count, "only the read and expired row is removed")
}
