package postgres

import (
	"github.com/careersfromhere/testimonial-service/internal/repositories"
	"gorm.io/gorm"
)

// SharedHelpers contains common database query helpers
type SharedHelpers struct {
	db *gorm.DB
}

func NewSharedHelpers(db *gorm.DB) *SharedHelpers {
	return &SharedHelpers{db: db}
}

// ApplyUserFilters applies common filters to user queries
func (h *SharedHelpers) ApplyUserFilters(query *gorm.DB, filters repositories.UserFilters) *gorm.DB {
	if filters.Role != nil {
		query = query.Where("role = ?", *filters.Role)
	}
	if filters.Approved != nil {
		query = query.Where("approved = ?", *filters.Approved)
	}
	if filters.SchoolID != nil {
		query = query.Where("school_id = ?", *filters.SchoolID)
	}
	if filters.ExcludeSuperAdm {
		query = query.Where("role <> ?", "superadmin")
	}
	if filters.DateFrom != nil {
		query = query.Where("created_at >= ?", *filters.DateFrom)
	}
	if filters.DateTo != nil {
		query = query.Where("created_at <= ?", *filters.DateTo)
	}
	return query
}

// ApplyVideoFilters applies common filters to video queries
func (h *SharedHelpers) ApplyVideoFilters(query *gorm.DB, filters repositories.VideoFilters) *gorm.DB {
	if filters.Approved != nil {
		query = query.Where("videos.approved = ?", *filters.Approved)
	}
	if filters.Public != nil {
		query = query.Where("videos.public_access = ?", *filters.Public)
	}
	if filters.UserID != nil {
		query = query.Where("videos.user_id = ?", *filters.UserID)
	}
	if filters.DateFrom != nil {
		query = query.Where("videos.created_at >= ?", *filters.DateFrom)
	}
	if filters.DateTo != nil {
		query = query.Where("videos.created_at <= ?", *filters.DateTo)
	}
	return query
}

// ApplyPaginationAndSort applies pagination and sorting with SQL injection protection
func (h *SharedHelpers) ApplyPaginationAndSort(query *gorm.DB, sortBy, sortOrder string, limit, offset int) *gorm.DB {
	// Whitelist allowed sort columns
	allowedSortColumns := map[string]bool{
		"created_at": true,
		"updated_at": true,
		"id":         true,
		"name":       true,
		"email":      true,
		"ordering":   true,
	}

	if sortBy == "" || !allowedSortColumns[sortBy] {
		sortBy = "created_at"
	}

	if sortOrder != "asc" && sortOrder != "ASC" {
		sortOrder = "DESC"
	} else {
		sortOrder = "ASC"
	}

	query = query.Order(sortBy + " " + sortOrder)

	if limit > 0 {
		query = query.Limit(limit)
	}
	if offset > 0 {
		query = query.Offset(offset)
	}

	return query
}
