package models

import (
	"time"
)

// MinQuestionDuration is the shortest answer window a question may allow, in seconds.
const MinQuestionDuration = 10

// Question is one prompt of a school's interview set. Active questions carry a
// dense 1-based ordering unique within their school; deactivated questions keep
// their clip associations but leave the ordering set.
type Question struct {
	ID       uint    `json:"id" gorm:"primaryKey"`
	Text     string  `json:"text" gorm:"type:text;not null" validate:"required"`
	Duration float64 `json:"duration" gorm:"not null" validate:"required,min=10"`
	Active   bool    `json:"active" gorm:"not null;default:true;index"`
	Ordering int     `json:"ordering" gorm:"not null;default:0"`

	SchoolID uint `json:"school_id" gorm:"not null;index"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	// Relations
	School School `json:"school,omitempty" gorm:"foreignKey:SchoolID"`
}

func (Question) TableName() string {
	return "questions"
}
