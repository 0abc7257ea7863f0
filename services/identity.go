package services

import (
	"context"
	"errors"
	"strings"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/blogd/blogd/models"
	"github.com/blogd/blogd/utils"
)

// IdentityService owns the auth table: registration, credential checks and user lookup.
type IdentityService struct {
	*base
}

// RegisterInput is the registration form.
type RegisterInput struct {
	Username  string `json:"username" validate:"required,max=255"`
	Password  string `json:"password" validate:"required,max=72"`
	FirstName string `json:"firstName" validate:"required,max=255"`
	LastName  string `json:"lastName" validate:"required,max=255"`
	Email     string `json:"email" validate:"required,max=255"`
	Phone     string `json:"phone" validate:"required,max=255"`
}

func (in RegisterInput) normalized() RegisterInput {
	in.Username = strings.TrimSpace(in.Username)
	in.FirstName = strings.TrimSpace(in.FirstName)
	in.LastName = strings.TrimSpace(in.LastName)
	in.Email = strings.TrimSpace(in.Email)
	in.Phone = strings.TrimSpace(in.Phone)
	if strings.TrimSpace(in.Password) == "" {
		in.Password = ""
	}
	return in
}

// uniqueField binds a registration field to the column that must stay unique.
type uniqueField struct {
	field  string
	column string
	value  func(RegisterInput) string
}

var registrationUniqueFields = []uniqueField{
	{field: "username", column: "username", value: func(in RegisterInput) string { return in.Username }},
	{field: "email", column: "email", value: func(in RegisterInput) string { return in.Email }},
	{field: "phone", column: "phone", value: func(in RegisterInput) string { return in.Phone }},
}

// Register creates an account. Every missing field is reported, and every taken unique field.
func (s *IdentityService) Register(ctx context.Context, in RegisterInput) (*models.User, error) {
	in = in.normalized()
	if err := validateStruct(in); err != nil {
		return nil, err
	}

	db := s.db.WithContext(ctx)
	taken, err := s.takenFields(db, in)
	if err != nil {
		return nil, err
	}
	if len(taken) > 0 {
		return nil, conflictError("account already exists", taken...)
	}

	hash, err := utils.HashPassword(in.Password)
	if err != nil {
		return nil, validationError(FieldError{Field: "password", Message: "cannot be hashed: " + err.Error()})
	}
	user := &models.User{
		Username:     in.Username,
		PasswordHash: hash,
		FirstName:    in.FirstName,
		LastName:     in.LastName,
		Email:        in.Email,
		Phone:        in.Phone,
		CreatedAt:    s.now(),
	}
	if err := db.Create(user).Error; err != nil {
		if !isDuplicateKey(err) {
			return nil, storageError("create user", err)
		}
		// a concurrent registration claimed one of the unique values first
		taken, lookupErr := s.takenFields(db, in)
		if lookupErr != nil {
			return nil, lookupErr
		}
		if len(taken) == 0 {
			taken = []FieldError{{Field: "username", Message: "is already taken"}}
		}
		return nil, conflictError("account already exists", taken...)
	}
	utils.Logger.Info("user registered", zap.String("username", user.Username))
	return user, nil
}

func (s *IdentityService) takenFields(db *gorm.DB, in RegisterInput) ([]FieldError, error) {
	var taken []FieldError
	for _, uf := range registrationUniqueFields {
		var n int64
		if err := db.Model(&models.User{}).Where(uf.column+" = ?", uf.value(in)).Count(&n).Error; err != nil {
			return nil, storageError("check "+uf.field, err)
		}
		if n > 0 {
			taken = append(taken, FieldError{Field: uf.field, Message: "is already taken"})
		}
	}
	return taken, nil
}

// Login verifies credentials and returns the account.
func (s *IdentityService) Login(ctx context.Context, username, password string) (*models.User, error) {
	username = strings.TrimSpace(username)
	var missing []FieldError
	if username == "" {
		missing = append(missing, FieldError{Field: "username", Message: "is required"})
	}
	if password == "" {
		missing = append(missing, FieldError{Field: "password", Message: "is required"})
	}
	if len(missing) > 0 {
		return nil, validationError(missing...)
	}

	user, err := s.GetUser(ctx, username)
	if err != nil {
		return nil, err
	}
	if !utils.CheckPassword(user.PasswordHash, password) {
		return nil, &Error{Kind: ErrUnauthorized, Message: "invalid password"}
	}
	return user, nil
}

// GetUser loads an account by username.
func (s *IdentityService) GetUser(ctx context.Context, username string) (*models.User, error) {
	var user models.User
	err := s.db.WithContext(ctx).Where("username = ?", username).First(&user).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, notFound("user %s not found", username)
	}
	if err != nil {
		return nil, storageError("load user", err)
	}
	return &user, nil
}

// userExists is shared by the follow and query services.
func (b *base) userExists(db *gorm.DB, username string) (bool, error) {
	var n int64
	if err := db.Model(&models.User{}).Where("username = ?", username).Count(&n).Error; err != nil {
		return false, storageError("check user", err)
	}
	return n > 0, nil
}
