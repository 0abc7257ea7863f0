package models

import "gorm.io/gorm"

// All lists every persisted model in dependency order.
func All() []interface{} {
	return []interface{}{&User{}, &Blog{}, &BlogTag{}, &Comment{}, &Follow{}}
}

// AutoMigrate creates or updates the schema: tables, unique constraints, indexes and cascading foreign keys.
func AutoMigrate(db *gorm.DB) error {
	return db.AutoMigrate(All()...)
}
