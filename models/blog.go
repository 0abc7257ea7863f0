package models

import (
	"time"

	"gorm.io/gorm"
)

// Blog is a post written by a user. Blogs are immutable once created.
type Blog struct {
	ID          uint64    `gorm:"column:blog_id;primaryKey;autoIncrement" json:"blog_id"`
	Username    string    `gorm:"size:255;not null;index;uniqueIndex:uni_blogs_daily_slot,priority:1" json:"username"`
	Subject     string    `gorm:"type:text;not null" json:"subject"`
	Description string    `gorm:"type:text;not null" json:"description"`
	PostedOn    string    `gorm:"size:10;not null;uniqueIndex:uni_blogs_daily_slot,priority:2" json:"-"`
	DailySlot   int       `gorm:"not null;uniqueIndex:uni_blogs_daily_slot,priority:3" json:"-"`
	CreatedAt   time.Time `gorm:"index" json:"created_at"`
	Tags        []BlogTag `gorm:"foreignKey:BlogID;references:ID;constraint:OnUpdate:CASCADE,OnDelete:CASCADE;" json:"-"`
	TagNames    []string  `gorm:"-" json:"tags"`
}

// TableName pins the table name across dialects.
func (Blog) TableName() string {
	return "blogs"
}

// AfterFind flattens preloaded tag rows into TagNames.
func (b *Blog) AfterFind(tx *gorm.DB) error {
	if len(b.Tags) > 0 {
		b.TagNames = TagNames(b.Tags)
	}
	if b.TagNames == nil {
		b.TagNames = []string{}
	}
	return nil
}

// BlogTag is one entry of a blog's tag set. The tag column index serves tag search.
type BlogTag struct {
	BlogID uint64 `gorm:"primaryKey;autoIncrement:false" json:"blog_id"`
	Tag    string `gorm:"primaryKey;size:255;index:idx_blog_tags_tag" json:"tag"`
}

// TableName pins the table name across dialects.
func (BlogTag) TableName() string {
	return "blog_tags"
}

// NewBlogTags builds tag rows for a normalized tag set.
func NewBlogTags(tags []string) []BlogTag {
	rows := make([]BlogTag, 0, len(tags))
	for _, t := range tags {
		rows = append(rows, BlogTag{Tag: t})
	}
	return rows
}

// TagNames returns the tag strings of rows in their stored order.
func TagNames(rows []BlogTag) []string {
	names := make([]string, 0, len(rows))
	for _, r := range rows {
		names = append(names, r.Tag)
	}
	return names
}
