package services

import (
	"context"
	"strings"

	"go.uber.org/zap"
	"gorm.io/gorm/clause"

	"github.com/blogd/blogd/models"
	"github.com/blogd/blogd/utils"
)

// FollowService manages the directed follow graph.
type FollowService struct {
	*base
}

// Follow makes follower follow followed. Following twice is a no-op.
// Self-follows are stored like any other edge.
func (s *FollowService) Follow(ctx context.Context, follower, followed string) error {
	followed = strings.TrimSpace(followed)
	if followed == "" {
		return validationError(FieldError{Field: "username", Message: "is required"})
	}
	db := s.db.WithContext(ctx)
	ok, err := s.userExists(db, followed)
	if err != nil {
		return err
	}
	if !ok {
		return notFound("user %s not found", followed)
	}
	if follower == followed {
		utils.Logger.Warn("user follows themselves", zap.String("username", follower))
	}

	edge := &models.Follow{FollowerUsername: follower, FollowedUsername: followed, CreatedAt: s.now()}
	err = db.Omit("Follower", "Followed").Clauses(clause.OnConflict{DoNothing: true}).Create(edge).Error
	if err != nil {
		return storageError("follow", err)
	}
	return nil
}

// Unfollow removes the edge if present.
func (s *FollowService) Unfollow(ctx context.Context, follower, followed string) error {
	followed = strings.TrimSpace(followed)
	if followed == "" {
		return validationError(FieldError{Field: "username", Message: "is required"})
	}
	db := s.db.WithContext(ctx)
	ok, err := s.userExists(db, followed)
	if err != nil {
		return err
	}
	if !ok {
		return notFound("user %s not found", followed)
	}
	err = db.Where("follower_username = ? AND followed_username = ?", follower, followed).
		Delete(&models.Follow{}).Error
	if err != nil {
		return storageError("unfollow", err)
	}
	return nil
}

// Following lists the users username follows.
func (s *FollowService) Following(ctx context.Context, username string) ([]models.UserSummary, error) {
	return s.neighbours(ctx, username, "follower_username", "followed_username")
}

// Followers lists the users following username.
func (s *FollowService) Followers(ctx context.Context, username string) ([]models.UserSummary, error) {
	return s.neighbours(ctx, username, "followed_username", "follower_username")
}

func (s *FollowService) neighbours(ctx context.Context, username, fromCol, toCol string) ([]models.UserSummary, error) {
	db := s.db.WithContext(ctx)
	ok, err := s.userExists(db, username)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, notFound("user %s not found", username)
	}
	var rows []models.UserSummary
	err = db.Table("auth AS a").
		Select("a.username, a.first_name, a.last_name").
		Joins("JOIN follows f ON f."+toCol+" = a.username").
		Where("f."+fromCol+" = ?", username).
		Order("a.username").
		Scan(&rows).Error
	if err != nil {
		return nil, storageError("list follows", err)
	}
	return nonNil(rows), nil
}
