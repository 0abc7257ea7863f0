package models

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

type foreignKey struct {
	Table    string `gorm:"column:table"`
	From     string `gorm:"column:from"`
	To       string `gorm:"column:to"`
	OnDelete string `gorm:"column:on_delete"`
}

func migratedDB(t *testing.T) *gorm.DB {
	t.Helper()
	dsn := "file:" + uuid.NewString() + "?mode=memory&cache=shared&_foreign_keys=on"
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{Logger: logger.Default.LogMode(logger.Silent)})
	require.NoError(t, err)
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })
	require.NoError(t, AutoMigrate(db))
	return db
}

func foreignKeys(t *testing.T, db *gorm.DB, table string) []foreignKey {
	t.Helper()
	var fks []foreignKey
	require.NoError(t, db.Raw("PRAGMA foreign_key_list(" + table + ")").Scan(&fks).Error)
	return fks
}

func TestAutoMigrateForeignKeysPointAtParents(t *testing.T) {
	db := migratedDB(t)

	assert.Empty(t, foreignKeys(t, db, "auth"), "auth must not reference child tables")

	tests := []struct {
		table string
		want  []foreignKey
	}{
		{"blogs", []foreignKey{{Table: "auth", From: "username", To: "username", OnDelete: "CASCADE"}}},
		{"blog_tags", []foreignKey{{Table: "blogs", From: "blog_id", To: "blog_id", OnDelete: "CASCADE"}}},
		{"comments", []foreignKey{
			{Table: "auth", From: "username", To: "username", OnDelete: "CASCADE"},
			{Table: "blogs", From: "blog_id", To: "blog_id", OnDelete: "CASCADE"},
		}},
		{"follows", []foreignKey{
			{Table: "auth", From: "follower_username", To: "username", OnDelete: "CASCADE"},
			{Table: "auth", From: "followed_username", To: "username", OnDelete: "CASCADE"},
		}},
	}
	for _, tt := range tests {
		t.Run(tt.table, func(t *testing.T) {
			assert.ElementsMatch(t, tt.want, foreignKeys(t, db, tt.table))
		})
	}
}

func TestDeletingUserRemovesAuthoredRows(t *testing.T) {
	db := migratedDB(t)
	now := time.Now()

	for _, name := range []string{"alice", "bob"} {
		require.NoError(t, db.Create(&User{Username: name, PasswordHash: "x", FirstName: name, LastName: name,
			Email: name + "@example.com", Phone: name}).Error)
	}
	blog := Blog{Username: "alice", Subject: "s", Description: "d", PostedOn: "2026-01-01", DailySlot: 1,
		CreatedAt: now, Tags: NewBlogTags([]string{"go"})}
	require.NoError(t, db.Create(&blog).Error)
	require.NoError(t, db.Omit("Blog").Create(&Comment{BlogID: blog.ID, Username: "bob", Sentiment: SentimentPositive,
		Description: "nice", PostedOn: "2026-01-01", DailySlot: 1, CreatedAt: now}).Error)

	require.NoError(t, db.Delete(&User{Username: "bob"}).Error)
	var comments int64
	require.NoError(t, db.Model(&Comment{}).Count(&comments).Error)
	assert.Zero(t, comments)

	require.NoError(t, db.Delete(&User{Username: "alice"}).Error)
	var blogs, tags int64
	require.NoError(t, db.Model(&Blog{}).Count(&blogs).Error)
	require.NoError(t, db.Model(&BlogTag{}).Count(&tags).Error)
	assert.Zero(t, blogs)
	assert.Zero(t, tags)
}
