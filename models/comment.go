package models

import "time"

// Comment is a user's single verdict on another user's blog.
type Comment struct {
	ID          uint64    `gorm:"column:comment_id;primaryKey;autoIncrement" json:"comment_id"`
	BlogID      uint64    `gorm:"not null;index;uniqueIndex:uni_comments_user_blog,priority:2" json:"blog_id"`
	Username    string    `gorm:"size:255;not null;index;uniqueIndex:uni_comments_user_blog,priority:1;uniqueIndex:uni_comments_daily_slot,priority:1" json:"username"`
	Sentiment   Sentiment `gorm:"size:8;not null" json:"sentiment"`
	Description string    `gorm:"type:text;not null" json:"description"`
	PostedOn    string    `gorm:"size:10;not null;uniqueIndex:uni_comments_daily_slot,priority:2" json:"-"`
	DailySlot   int       `gorm:"not null;uniqueIndex:uni_comments_daily_slot,priority:3" json:"-"`
	CreatedAt   time.Time `gorm:"index" json:"created_at"`
	Blog        Blog      `gorm:"foreignKey:BlogID;references:ID;constraint:OnUpdate:CASCADE,OnDelete:CASCADE;" json:"-"`
}

// TableName pins the table name across dialects.
func (Comment) TableName() string {
	return "comments"
}
