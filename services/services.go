package services

import (
	"errors"
	"strings"
	"time"

	"gorm.io/gorm"

	"github.com/blogd/blogd/config"
)

const dayLayout = "2006-01-02"

// Option tunes a service set.
type Option func(*base)

// WithClock replaces time.Now, used by tests crossing day boundaries.
func WithClock(now func() time.Time) Option {
	return func(b *base) { b.now = now }
}

// WithLocation sets the reference timezone for calendar days.
func WithLocation(loc *time.Location) Option {
	return func(b *base) { b.loc = loc }
}

type base struct {
	db               *gorm.DB
	now              func() time.Time
	loc              *time.Location
	blogsPerDay      int
	commentsPerDay   int
	recentBlogsLimit int
	recentBlogsMax   int
}

func newBase(db *gorm.DB, cfg config.AppConfig, opts ...Option) *base {
	b := &base{
		db:               db,
		now:              time.Now,
		loc:              cfg.Location(),
		blogsPerDay:      cfg.BlogsPerDay,
		commentsPerDay:   cfg.CommentsPerDay,
		recentBlogsLimit: cfg.RecentBlogsLimit,
		recentBlogsMax:   cfg.RecentBlogsMax,
	}
	for _, opt := range opts {
		opt(b)
	}
	return b
}

// day returns the calendar day of t in the reference timezone.
func (b *base) day(t time.Time) string {
	return t.In(b.loc).Format(dayLayout)
}

// Services bundles every domain service over one database handle.
type Services struct {
	Identity *IdentityService
	Content  *ContentService
	Queries  *QueryService
	Follows  *FollowService
}

// New wires all services against db.
func New(db *gorm.DB, cfg config.AppConfig, opts ...Option) *Services {
	b := newBase(db, cfg, opts...)
	return &Services{
		Identity: &IdentityService{base: b},
		Content:  &ContentService{base: b},
		Queries:  &QueryService{base: b},
		Follows:  &FollowService{base: b},
	}
}

// isDuplicateKey reports a unique or primary key violation from any supported driver.
func isDuplicateKey(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return true
	}
	msg := err.Error()
	return strings.Contains(msg, "UNIQUE constraint failed") ||
		strings.Contains(msg, "duplicate key value") ||
		strings.Contains(msg, "Duplicate entry")
}
