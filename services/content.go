package services

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/blogd/blogd/models"
	"github.com/blogd/blogd/utils"
)

// maxSlotAttempts bounds retries when concurrent writers pick the same daily slot.
const maxSlotAttempts = 5

var errSlotTaken = errors.New("daily slot taken")

// ContentService owns blogs, their tags and comments.
type ContentService struct {
	*base
}

// CreateBlogInput is the blog creation form; Tags may arrive as "a, b" or ["a","b"].
type CreateBlogInput struct {
	Subject     string  `json:"subject" validate:"required,max=255"`
	Description string  `json:"description" validate:"required"`
	Tags        TagList `json:"tags"`
}

// AddCommentInput is the comment form.
type AddCommentInput struct {
	Sentiment   string `json:"sentiment" validate:"required"`
	Description string `json:"description" validate:"required"`
}

// BlogDetail is a blog with every comment on it, newest first.
type BlogDetail struct {
	Blog     models.Blog      `json:"blog"`
	Comments []models.Comment `json:"comments"`
}

// CreateBlog stores a blog for author, honouring the per-day posting cap.
func (s *ContentService) CreateBlog(ctx context.Context, author string, in CreateBlogInput) (*models.Blog, error) {
	in.Subject = utils.SanitizeText(in.Subject)
	in.Description = utils.Sanitize(in.Description)
	tags := make([]string, 0, len(in.Tags))
	for _, t := range in.Tags {
		tags = append(tags, utils.SanitizeText(t))
	}
	tags = NormalizeTags(tags)

	fields, err := fieldErrors(in)
	if err != nil {
		return nil, err
	}
	if len(tags) == 0 {
		fields = append(fields, FieldError{Field: "tags", Message: "at least one tag is required"})
	}
	for _, t := range tags {
		if len(t) > 255 {
			fields = append(fields, FieldError{Field: "tags", Message: "each tag must be at most 255 characters"})
			break
		}
	}
	if len(fields) > 0 {
		return nil, validationError(fields...)
	}

	now := s.now()
	day := s.day(now)
	var blog *models.Blog
	err = s.withDailySlot(ctx, &models.Blog{}, author, day, s.blogsPerDay, "blogs", nil, func(tx *gorm.DB, slot int) error {
		blog = &models.Blog{
			Username:    author,
			Subject:     in.Subject,
			Description: in.Description,
			PostedOn:    day,
			DailySlot:   slot,
			CreatedAt:   now,
		}
		if err := tx.Create(blog).Error; err != nil {
			return err
		}
		rows := models.NewBlogTags(tags)
		for i := range rows {
			rows[i].BlogID = blog.ID
		}
		if err := tx.Create(&rows).Error; err != nil {
			return storageError("insert blog tags", err)
		}
		blog.Tags = rows
		return nil
	})
	if err != nil {
		return nil, err
	}
	blog.TagNames = tags
	utils.Logger.Info("blog created", zap.String("username", author), zap.Uint64("blog_id", blog.ID))
	return blog, nil
}

// SearchBlogs finds blogs carrying tag exactly or any tag containing it, ignoring case.
func (s *ContentService) SearchBlogs(ctx context.Context, tag string) ([]models.Blog, error) {
	q := strings.TrimSpace(tag)
	if q == "" {
		return nil, validationError(FieldError{Field: "tag", Message: "is required"})
	}
	pattern := "%" + escapeLike(strings.ToLower(q)) + "%"
	matching := s.db.Model(&models.BlogTag{}).
		Select("blog_id").
		Where("tag = ? OR LOWER(tag) LIKE ? ESCAPE '!'", q, pattern)

	var blogs []models.Blog
	err := s.blogQuery(ctx).Where("blog_id IN (?)", matching).Find(&blogs).Error
	if err != nil {
		return nil, storageError("search blogs", err)
	}
	return nonNil(blogs), nil
}

// GetBlog returns a blog and its comments.
func (s *ContentService) GetBlog(ctx context.Context, id uint64) (*BlogDetail, error) {
	var detail BlogDetail
	err := s.blogQuery(ctx).Where("blog_id = ?", id).First(&detail.Blog).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, notFound("blog %d not found", id)
	}
	if err != nil {
		return nil, storageError("load blog", err)
	}
	err = s.db.WithContext(ctx).
		Where("blog_id = ?", id).
		Order("created_at DESC, comment_id DESC").
		Find(&detail.Comments).Error
	if err != nil {
		return nil, storageError("load comments", err)
	}
	if detail.Comments == nil {
		detail.Comments = []models.Comment{}
	}
	return &detail, nil
}

// AddComment records commenter's verdict on a blog.
func (s *ContentService) AddComment(ctx context.Context, commenter string, blogID uint64, in AddCommentInput) (*models.Comment, error) {
	in.Sentiment = strings.TrimSpace(in.Sentiment)
	in.Description = utils.Sanitize(in.Description)
	fields, err := fieldErrors(in)
	if err != nil {
		return nil, err
	}
	sentiment, perr := models.ParseSentiment(in.Sentiment)
	if perr != nil && in.Sentiment != "" {
		fields = append(fields, FieldError{Field: "sentiment", Message: perr.Error()})
	}
	if len(fields) > 0 {
		return nil, validationError(fields...)
	}

	now := s.now()
	day := s.day(now)
	check := func(tx *gorm.DB) error {
		var blog models.Blog
		err := tx.Select("blog_id", "username").Where("blog_id = ?", blogID).First(&blog).Error
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return notFound("blog %d not found", blogID)
		}
		if err != nil {
			return storageError("load blog", err)
		}
		if blog.Username == commenter {
			return &Error{Kind: ErrForbidden, Message: "cannot comment on your own blog"}
		}
		var existing int64
		if err := tx.Model(&models.Comment{}).Where("username = ? AND blog_id = ?", commenter, blogID).Count(&existing).Error; err != nil {
			return storageError("check comment", err)
		}
		if existing > 0 {
			return conflictError("already commented on this blog", FieldError{Field: "blog_id", Message: "already has your comment"})
		}
		return nil
	}
	var comment *models.Comment
	err = s.withDailySlot(ctx, &models.Comment{}, commenter, day, s.commentsPerDay, "comments", check, func(tx *gorm.DB, slot int) error {
		comment = &models.Comment{
			BlogID:      blogID,
			Username:    commenter,
			Sentiment:   sentiment,
			Description: in.Description,
			PostedOn:    day,
			DailySlot:   slot,
			CreatedAt:   now,
		}
		return tx.Omit("Blog").Create(comment).Error
	})
	if err != nil {
		return nil, err
	}
	utils.Logger.Info("comment added",
		zap.String("username", commenter),
		zap.Uint64("blog_id", blogID),
		zap.String("sentiment", string(sentiment)))
	return comment, nil
}

// MyBlogs lists every blog written by username, newest first.
func (s *ContentService) MyBlogs(ctx context.Context, username string) ([]models.Blog, error) {
	var blogs []models.Blog
	if err := s.blogQuery(ctx).Where("username = ?", username).Find(&blogs).Error; err != nil {
		return nil, storageError("list blogs", err)
	}
	return nonNil(blogs), nil
}

// RecentBlogs lists the newest blogs. limit <= 0 selects the default; larger values are capped.
func (s *ContentService) RecentBlogs(ctx context.Context, limit int) ([]models.Blog, error) {
	limit = s.clampRecent(limit)
	var blogs []models.Blog
	if err := s.blogQuery(ctx).Limit(limit).Find(&blogs).Error; err != nil {
		return nil, storageError("list recent blogs", err)
	}
	return nonNil(blogs), nil
}

func (s *ContentService) clampRecent(limit int) int {
	if limit <= 0 {
		return s.recentBlogsLimit
	}
	if limit > s.recentBlogsMax {
		return s.recentBlogsMax
	}
	return limit
}

// blogQuery selects blogs with their tags, newest first.
func (b *base) blogQuery(ctx context.Context) *gorm.DB {
	return b.db.WithContext(ctx).
		Model(&models.Blog{}).
		Preload("Tags", func(db *gorm.DB) *gorm.DB { return db.Order("tag") }).
		Order("created_at DESC, blog_id DESC")
}

// withDailySlot runs check and then insert in one transaction, handing insert the lowest
// free slot of username's day. A full day yields ErrRateLimited. A raw duplicate-key error
// from insert means a lost race on the slot or comment index and retries with fresh state;
// insert returns a service *Error for failures that must not be retried.
func (b *base) withDailySlot(ctx context.Context, model any, username, day string, limit int, noun string,
	check func(tx *gorm.DB) error, insert func(tx *gorm.DB, slot int) error) error {
	var lastErr error
	for attempt := 0; attempt < maxSlotAttempts; attempt++ {
		err := b.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
			if check != nil {
				if err := check(tx); err != nil {
					return err
				}
			}
			var used []int
			err := tx.Model(model).
				Where("username = ? AND posted_on = ?", username, day).
				Order("daily_slot").
				Pluck("daily_slot", &used).Error
			if err != nil {
				return storageError("count daily "+noun, err)
			}
			slot := freeSlot(used, limit)
			if slot == 0 {
				return &Error{Kind: ErrRateLimited, Message: fmt.Sprintf("daily limit of %d %s reached", limit, noun)}
			}
			if err := insert(tx, slot); err != nil {
				if _, ok := AsError(err); ok {
					return err
				}
				if isDuplicateKey(err) {
					return errors.Join(errSlotTaken, err)
				}
				return err
			}
			return nil
		})
		if err == nil {
			return nil
		}
		if !errors.Is(err, errSlotTaken) {
			if _, ok := AsError(err); ok {
				return err
			}
			return storageError("insert "+noun, err)
		}
		lastErr = err
		utils.Logger.Debug("daily slot collision, retrying",
			zap.String("username", username),
			zap.String("table", noun),
			zap.Int("attempt", attempt+1))
	}
	return storageError("allocate daily slot for "+noun, lastErr)
}

// freeSlot returns the lowest slot in 1..limit missing from the sorted used list, or 0.
func freeSlot(used []int, limit int) int {
	next := 1
	for _, u := range used {
		if u > next {
			break
		}
		if u == next {
			next++
		}
	}
	if next > limit {
		return 0
	}
	return next
}

// escapeLike escapes LIKE wildcards with '!' so the query matches literally.
func escapeLike(s string) string {
	return strings.NewReplacer("!", "!!", "%", "!%", "_", "!_").Replace(s)
}

func nonNil[T any](s []T) []T {
	if s == nil {
		return []T{}
	}
	return s
}
