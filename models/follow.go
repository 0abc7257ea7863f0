package models

import "time"

// Follow is a directed edge: FollowerUsername follows FollowedUsername.
type Follow struct {
	FollowerUsername string    `gorm:"primaryKey;size:255" json:"follower"`
	FollowedUsername string    `gorm:"primaryKey;size:255;index" json:"followed"`
	CreatedAt        time.Time `json:"created_at"`
	Follower         User      `gorm:"foreignKey:FollowerUsername;references:Username;constraint:OnUpdate:CASCADE,OnDelete:CASCADE;" json:"-"`
	Followed         User      `gorm:"foreignKey:FollowedUsername;references:Username;constraint:OnUpdate:CASCADE,OnDelete:CASCADE;" json:"-"`
}

// TableName pins the table name across dialects.
func (Follow) TableName() string {
	return "follows"
}
