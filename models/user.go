package models

import (
	"time"

	"gorm.io/gorm"
)

// User is a registered account. Passwords are stored as bcrypt hashes only.
type User struct {
	Username     string    `gorm:"primaryKey;size:255" json:"username"`
	PasswordHash string    `gorm:"column:password;type:text;not null" json:"-"`
	FirstName    string    `gorm:"size:255;not null" json:"firstName"`
	LastName     string    `gorm:"size:255;not null" json:"lastName"`
	Email        string    `gorm:"size:255;not null;uniqueIndex:uni_auth_email" json:"email"`
	Phone        string    `gorm:"size:255;not null;uniqueIndex:uni_auth_phone" json:"phone"`
	CreatedAt    time.Time `json:"created_at"`

	// The foreign keys live on blogs.username and comments.username.
	Blogs    []Blog    `gorm:"foreignKey:Username;references:Username;constraint:OnUpdate:CASCADE,OnDelete:CASCADE;" json:"-"`
	Comments []Comment `gorm:"foreignKey:Username;references:Username;constraint:OnUpdate:CASCADE,OnDelete:CASCADE;" json:"-"`
}

// TableName keeps the historical table name.
func (User) TableName() string {
	return "auth"
}

// BeforeCreate hook ensures timestamps are set even when not provided.
func (u *User) BeforeCreate(tx *gorm.DB) error {
	if u.CreatedAt.IsZero() {
		u.CreatedAt = time.Now()
	}
	return nil
}

// UserSummary is the public projection returned by listings and analytical queries.
type UserSummary struct {
	Username  string `json:"username"`
	FirstName string `json:"firstname"`
	LastName  string `json:"lastname"`
	BlogCount int64  `gorm:"column:blog_count" json:"blog_count,omitempty"`
}
