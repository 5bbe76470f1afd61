package models

import (
	"time"
)

// DefaultSchoolName is the template school whose question set seeds every
// newly created school.
const DefaultSchoolName = "Default"

type School struct {
	ID   uint   `json:"id" gorm:"primaryKey"`
	Name string `json:"name" gorm:"uniqueIndex;not null;size:200" validate:"required,max=200"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	// Relations
	Questions []Question `json:"questions,omitempty" gorm:"foreignKey:SchoolID;constraint:OnDelete:CASCADE"`
	Users     []User     `json:"users,omitempty" gorm:"foreignKey:SchoolID;constraint:OnDelete:CASCADE"`
}

func (School) TableName() string {
	return "schools"
}
