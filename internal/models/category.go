package models

import (
	"time"
)

// Category is a global tag a video can be labelled with. Categories are shared
// across schools and managed by super admins.
type Category struct {
	ID   uint   `json:"id" gorm:"primaryKey"`
	Name string `json:"name" gorm:"uniqueIndex;not null;size:100" validate:"required,max=100"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	// Relations
	Videos []Video `json:"videos,omitempty" gorm:"many2many:video_categories"`
}

func (Category) TableName() string {
	return "categories"
}
