package services

import (
	"context"
	"strings"
	"time"

	"gorm.io/gorm"

	"github.com/blogd/blogd/models"
)

// QueryService answers the analytical questions over users, blogs, comments and follows.
// User results are ordered by username.
type QueryService struct {
	*base
}

func (s *QueryService) users(ctx context.Context) *gorm.DB {
	return s.db.WithContext(ctx).Table("auth AS a").Select("a.username, a.first_name, a.last_name")
}

// SameDayTagPair lists users who posted two different blogs on one day, one tagged tagA and the other tagB.
func (s *QueryService) SameDayTagPair(ctx context.Context, tagA, tagB string) ([]models.UserSummary, error) {
	tagA, tagB = strings.TrimSpace(tagA), strings.TrimSpace(tagB)
	var fields []FieldError
	if tagA == "" {
		fields = append(fields, FieldError{Field: "tagX", Message: "is required"})
	}
	if tagB == "" {
		fields = append(fields, FieldError{Field: "tagY", Message: "is required"})
	}
	if len(fields) > 0 {
		return nil, validationError(fields...)
	}

	var rows []models.UserSummary
	err := s.users(ctx).
		Distinct().
		Joins("JOIN blogs b1 ON b1.username = a.username").
		Joins("JOIN blog_tags t1 ON t1.blog_id = b1.blog_id AND t1.tag = ?", tagA).
		Joins("JOIN blogs b2 ON b2.username = a.username AND b2.posted_on = b1.posted_on AND b2.blog_id <> b1.blog_id").
		Joins("JOIN blog_tags t2 ON t2.blog_id = b2.blog_id AND t2.tag = ?", tagB).
		Order("a.username").
		Scan(&rows).Error
	if err != nil {
		return nil, storageError("query same-day tag pair", err)
	}
	return nonNil(rows), nil
}

// MostBlogsOnDate lists the user(s) with the most blogs on date (YYYY-MM-DD); empty date means today.
// It returns the date actually used.
func (s *QueryService) MostBlogsOnDate(ctx context.Context, date string) ([]models.UserSummary, string, error) {
	date = strings.TrimSpace(date)
	if date == "" {
		date = s.day(s.now())
	} else if _, err := time.Parse(dayLayout, date); err != nil {
		return nil, "", validationError(FieldError{Field: "date", Message: "must be formatted YYYY-MM-DD"})
	}

	perUser := s.db.Table("blogs").Select("COUNT(*) AS cnt").Where("posted_on = ?", date).Group("username")
	maxCount := s.db.Table("(?) AS m", perUser).Select("MAX(m.cnt)")

	var rows []models.UserSummary
	err := s.db.WithContext(ctx).
		Table("auth AS a").
		Select("a.username, a.first_name, a.last_name, COUNT(*) AS blog_count").
		Joins("JOIN blogs b ON b.username = a.username").
		Where("b.posted_on = ?", date).
		Group("a.username, a.first_name, a.last_name").
		Having("COUNT(*) = (?)", maxCount).
		Order("a.username").
		Scan(&rows).Error
	if err != nil {
		return nil, "", storageError("query most blogs on date", err)
	}
	return nonNil(rows), date, nil
}

// FollowedByBoth lists users followed by both userX and userY.
func (s *QueryService) FollowedByBoth(ctx context.Context, userX, userY string) ([]models.UserSummary, error) {
	userX, userY = strings.TrimSpace(userX), strings.TrimSpace(userY)
	var fields []FieldError
	if userX == "" {
		fields = append(fields, FieldError{Field: "userX", Message: "is required"})
	}
	if userY == "" {
		fields = append(fields, FieldError{Field: "userY", Message: "is required"})
	}
	if len(fields) == 0 && userX == userY {
		fields = append(fields, FieldError{Field: "userY", Message: "must differ from userX"})
	}
	if len(fields) > 0 {
		return nil, validationError(fields...)
	}

	db := s.db.WithContext(ctx)
	for _, u := range []string{userX, userY} {
		ok, err := s.userExists(db, u)
		if err != nil {
			return nil, err
		}
		if !ok {
			return nil, notFound("user %s not found", u)
		}
	}

	var rows []models.UserSummary
	err := s.users(ctx).
		Joins("JOIN follows fx ON fx.followed_username = a.username AND fx.follower_username = ?", userX).
		Joins("JOIN follows fy ON fy.followed_username = a.username AND fy.follower_username = ?", userY).
		Order("a.username").
		Scan(&rows).Error
	if err != nil {
		return nil, storageError("query followed by both", err)
	}
	return nonNil(rows), nil
}

// NeverPosted lists users who have not written any blog.
func (s *QueryService) NeverPosted(ctx context.Context) ([]models.UserSummary, error) {
	var rows []models.UserSummary
	err := s.users(ctx).
		Joins("LEFT JOIN blogs b ON b.username = a.username").
		Where("b.blog_id IS NULL").
		Order("a.username").
		Scan(&rows).Error
	if err != nil {
		return nil, storageError("query never posted", err)
	}
	return nonNil(rows), nil
}

// PositiveOnlyBlogs lists username's blogs that have comments, none of them Negative.
func (s *QueryService) PositiveOnlyBlogs(ctx context.Context, username string) ([]models.Blog, error) {
	username = strings.TrimSpace(username)
	if username == "" {
		return nil, validationError(FieldError{Field: "username", Message: "is required"})
	}
	anyComment := s.db.Model(&models.Comment{}).Select("1").Where("comments.blog_id = blogs.blog_id")
	negative := s.db.Model(&models.Comment{}).Select("1").
		Where("comments.blog_id = blogs.blog_id AND comments.sentiment = ?", models.SentimentNegative)

	var blogs []models.Blog
	err := s.blogQuery(ctx).
		Where("blogs.username = ?", username).
		Where("EXISTS (?)", anyComment).
		Where("NOT EXISTS (?)", negative).
		Find(&blogs).Error
	if err != nil {
		return nil, storageError("query positive-only blogs", err)
	}
	return nonNil(blogs), nil
}

// OnlyNegativeCommenters lists users who commented at least once and never Positively.
func (s *QueryService) OnlyNegativeCommenters(ctx context.Context) ([]models.UserSummary, error) {
	anyComment := s.db.Model(&models.Comment{}).Select("1").Where("comments.username = a.username")
	positive := s.db.Model(&models.Comment{}).Select("1").
		Where("comments.username = a.username AND comments.sentiment = ?", models.SentimentPositive)

	var rows []models.UserSummary
	err := s.users(ctx).
		Where("EXISTS (?)", anyComment).
		Where("NOT EXISTS (?)", positive).
		Order("a.username").
		Scan(&rows).Error
	if err != nil {
		return nil, storageError("query only-negative commenters", err)
	}
	return nonNil(rows), nil
}

// NoNegativeReceived lists users with at least one blog where no blog of theirs drew a Negative comment.
func (s *QueryService) NoNegativeReceived(ctx context.Context) ([]models.UserSummary, error) {
	anyBlog := s.db.Model(&models.Blog{}).Select("1").Where("blogs.username = a.username")
	negative := s.db.Table("blogs AS nb").Select("1").
		Joins("JOIN comments nc ON nc.blog_id = nb.blog_id").
		Where("nb.username = a.username AND nc.sentiment = ?", models.SentimentNegative)

	var rows []models.UserSummary
	err := s.users(ctx).
		Where("EXISTS (?)", anyBlog).
		Where("NOT EXISTS (?)", negative).
		Order("a.username").
		Scan(&rows).Error
	if err != nil {
		return nil, storageError("query no negative received", err)
	}
	return nonNil(rows), nil
}
