package repositories

import (
	"time"

	"github.com/careersfromhere/testimonial-service/internal/models"
)

// ===== SHARED FILTER STRUCTS =====

type UserFilters struct {
	Role            *models.UserRole `json:"role"`
	Approved        *bool            `json:"approved"`
	SchoolID        *uint            `json:"school_id"`
	ExcludeSuperAdm bool             `json:"exclude_super_admins"`
	DateFrom        *time.Time       `json:"date_from"`
	DateTo          *time.Time       `json:"date_to"`
	Limit           int              `json:"limit"`
	Offset          int              `json:"offset"`
	SortBy          string           `json:"sort_by"`    // "created_at", "name", "email"
	SortOrder       string           `json:"sort_order"` // "asc", "desc"
}

type QuestionFilters struct {
	SchoolID  *uint  `json:"school_id"`
	Active    *bool  `json:"active"`
	Limit     int    `json:"limit"`
	Offset    int    `json:"offset"`
	SortBy    string `json:"sort_by"`
	SortOrder string `json:"sort_order"`
}

type VideoFilters struct {
	Approved    *bool      `json:"approved"`
	Public      *bool      `json:"public"`
	UserID      *uint      `json:"user_id"`
	SchoolID    *uint      `json:"school_id"`
	CategoryIDs []uint     `json:"category_ids"`
	DateFrom    *time.Time `json:"date_from"`
	DateTo      *time.Time `json:"date_to"`
	Limit       int        `json:"limit"`
	Offset      int        `json:"offset"`
	SortBy      string     `json:"sort_by"`
	SortOrder   string     `json:"sort_order"`
}

type SchoolFilters struct {
	Name      *string `json:"name"`
	Limit     int     `json:"limit"`
	Offset    int     `json:"offset"`
	SortBy    string  `json:"sort_by"`
	SortOrder string  `json:"sort_order"`
}

// ===== SHARED STATISTICS STRUCTS =====

type SchoolStats struct {
	UserCount       int `json:"user_count"`
	PendingUsers    int `json:"pending_users"`
	QuestionCount   int `json:"question_count"`
	ActiveQuestions int `json:"active_questions"`
	VideoCount      int `json:"video_count"`
	ApprovedVideos  int `json:"approved_videos"`
}

type VideoWithMatches struct {
	*models.Video
	MatchCount int `json:"match_count"`
}
