package services

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/blogd/blogd/config"
	"github.com/blogd/blogd/models"
)

type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func newFakeClock(t time.Time) *fakeClock { return &fakeClock{now: t} }

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	c.now = c.now.Add(d)
	c.mu.Unlock()
}

func testConfig() config.AppConfig {
	return config.Override(config.AppConfig{
		JWTSecret:          "test-secret",
		RateLimitPerMinute: 10000,
		LogLevel:           "silent",
		Timezone:           "UTC",
		DBDriver:           "sqlite",
		DatabaseURI:        fmt.Sprintf("file:%s?mode=memory&cache=shared", uuid.NewString()),
	})
}

func newTestServices(t *testing.T, opts ...Option) (*Services, *gorm.DB) {
	t.Helper()
	cfg := testConfig()
	db, err := config.OpenDatabase(cfg)
	require.NoError(t, err)
	t.Cleanup(func() { _ = config.CloseDatabase(db) })
	require.NoError(t, models.AutoMigrate(db))
	return New(db, cfg, opts...), db
}

func registerUser(t *testing.T, svc *Services, username string) *models.User {
	t.Helper()
	u, err := svc.Identity.Register(context.Background(), RegisterInput{
		Username:  username,
		Password:  "pw-" + username,
		FirstName: "First" + username,
		LastName:  "Last" + username,
		Email:     username + "@example.com",
		Phone:     "555-" + username,
	})
	require.NoError(t, err)
	return u
}

func createBlog(t *testing.T, svc *Services, author string, tags ...string) *models.Blog {
	t.Helper()
	b, err := svc.Content.CreateBlog(context.Background(), author, CreateBlogInput{
		Subject:     "Subject by " + author,
		Description: "Body",
		Tags:        tags,
	})
	require.NoError(t, err)
	return b
}

func comment(t *testing.T, svc *Services, who string, blogID uint64, sentiment string) *models.Comment {
	t.Helper()
	c, err := svc.Content.AddComment(context.Background(), who, blogID, AddCommentInput{
		Sentiment:   sentiment,
		Description: sentiment + " from " + who,
	})
	require.NoError(t, err)
	return c
}

func usernames(rows []models.UserSummary) []string {
	out := make([]string, 0, len(rows))
	for _, r := range rows {
		out = append(out, r.Username)
	}
	return out
}

func blogIDs(blogs []models.Blog) []uint64 {
	out := make([]uint64, 0, len(blogs))
	for _, b := range blogs {
		out = append(out, b.ID)
	}
	return out
}
