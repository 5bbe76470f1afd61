package models

import (
	"time"
)

// Video is a testimonial recorded by an alumni. A video starts unapproved and
// invisible to students; approval flips the flag regardless of whether the
// downstream merge and publish steps could run.
type Video struct {
	ID            uint   `json:"id" gorm:"primaryKey"`
	Title         string `json:"title" gorm:"not null;size:255"`
	Description   string `json:"description" gorm:"type:text"`
	ThumbnailPath string `json:"thumbnail_path,omitempty" gorm:"size:500"`
	Approved      bool   `json:"approved" gorm:"not null;default:false;index"`
	PublicAccess  bool   `json:"public_access" gorm:"not null;default:false;index"`

	UserID uint `json:"user_id" gorm:"not null;index"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	// Relations
	User       User        `json:"user,omitempty" gorm:"foreignKey:UserID"`
	Clips      []VideoClip `json:"clips,omitempty" gorm:"foreignKey:VideoID;constraint:OnDelete:CASCADE"`
	Categories []Category  `json:"categories,omitempty" gorm:"many2many:video_categories"`
}

func (Video) TableName() string {
	return "videos"
}

// Duration sums the recorded length of all clips, in seconds.
func (v *Video) Duration() float64 {
	var total float64
	for i := range v.Clips {
		total += v.Clips[i].Duration
	}
	return total
}

// MatchCount returns how many of the given category ids this video carries.
func (v *Video) MatchCount(categoryIDs []uint) int {
	count := 0
	for _, id := range categoryIDs {
		for i := range v.Categories {
			if v.Categories[i].ID == id {
				count++
				break
			}
		}
	}
	return count
}

// VideoClip is one recorded answer inside a video. VideoPath and AudioPath
// are the raw upload pair; OutputPath and YouTubeID stay empty until the
// enrichment worker manages the corresponding step.
type VideoClip struct {
	ID         uint    `json:"id" gorm:"primaryKey"`
	VideoPath  string  `json:"video_path" gorm:"not null;size:500"`
	AudioPath  string  `json:"audio_path,omitempty" gorm:"size:500"`
	OutputPath string  `json:"output_path,omitempty" gorm:"size:500"`
	YouTubeID  string  `json:"youtube_id,omitempty" gorm:"size:100"`
	Duration   float64 `json:"duration" gorm:"not null;default:0"`

	VideoID    uint `json:"video_id" gorm:"not null;index"`
	QuestionID uint `json:"question_id" gorm:"not null;index"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	// Relations
	Video    Video    `json:"-" gorm:"foreignKey:VideoID"`
	Question Question `json:"question,omitempty" gorm:"foreignKey:QuestionID"`
}

func (VideoClip) TableName() string {
	return "video_clips"
}

// Enriched reports whether the publish step already ran for this clip.
func (c *VideoClip) Enriched() bool {
	return c.YouTubeID != ""
}
