//go:build integration
// +build integration

package services

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"

	"github.com/blogd/blogd/config"
	"github.com/blogd/blogd/models"
)

// newPostgresServices starts a PostgreSQL container and migrates the schema into it.
func newPostgresServices(t *testing.T, opts ...Option) *Services {
	ctx := context.Background()

	pgContainer, err := postgres.Run(ctx,
		"postgres:alpine",
		postgres.WithDatabase("blogd"),
		postgres.WithUsername("blogd"),
		postgres.WithPassword("blogd"),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(60*time.Second)),
	)
	if err != nil {
		t.Fatalf("Failed to start PostgreSQL container: %v", err)
	}
	t.Cleanup(func() {
		if err := pgContainer.Terminate(ctx); err != nil {
			t.Logf("Failed to terminate container: %v", err)
		}
	})

	connStr, err := pgContainer.ConnectionString(ctx, "sslmode=disable")
	require.NoError(t, err)

	cfg := config.Override(config.AppConfig{
		JWTSecret:   "test-secret",
		LogLevel:    "silent",
		Timezone:    "UTC",
		DBDriver:    "postgres",
		DatabaseURI: connStr,
		DBMaxConns:  10,
	})
	db, err := config.OpenDatabase(cfg)
	require.NoError(t, err)
	t.Cleanup(func() { _ = config.CloseDatabase(db) })
	require.NoError(t, models.AutoMigrate(db))
	return New(db, cfg, opts...)
}

func TestPostgresContentRules(t *testing.T) {
	svc := newPostgresServices(t)
	ctx := context.Background()
	for _, u := range []string{"alice", "bob", "carol"} {
		registerUser(t, svc, u)
	}

	// parallel writers on a real pool must still respect the daily cap
	var wg sync.WaitGroup
	errs := make([]error, 8)
	for i := range errs {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, errs[i] = svc.Content.CreateBlog(ctx, "alice", CreateBlogInput{Subject: "s", Description: "d", Tags: TagList{"Tech"}})
		}(i)
	}
	wg.Wait()
	created := 0
	for _, err := range errs {
		if err == nil {
			created++
		}
	}
	assert.Equal(t, 2, created)

	blogs, err := svc.Content.SearchBlogs(ctx, "tech")
	require.NoError(t, err)
	require.Len(t, blogs, 2)

	comment(t, svc, "bob", blogs[0].ID, "Positive")
	_, err = svc.Content.AddComment(ctx, "bob", blogs[0].ID, AddCommentInput{Sentiment: "Negative", Description: "again"})
	assert.ErrorIs(t, err, ErrConflict)

	rows, _, err := svc.Queries.MostBlogsOnDate(ctx, "")
	require.NoError(t, err)
	assert.Equal(t, []string{"alice"}, usernames(rows))

	rows, err = svc.Queries.NeverPosted(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"bob", "carol"}, usernames(rows))

	blogsPositive, err := svc.Queries.PositiveOnlyBlogs(ctx, "alice")
	require.NoError(t, err)
	assert.Len(t, blogsPositive, 1)
}
