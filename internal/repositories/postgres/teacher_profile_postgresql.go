package postgres

import (
	"context"
	"time"

	"gorm.io/gorm"

	"github.com/learnity/registration-service/internal/models"
	"github.com/learnity/registration-service/internal/repositories"
)

type teacherProfileRepository struct {
	db *gorm.DB
}

func NewTeacherProfileRepository(db *gorm.DB) repositories.TeacherProfileRepository {
	return &teacherProfileRepository{db: db}
}

// ===== BASIC CRUD OPERATIONS =====

func (r *teacherProfileRepository) Create(ctx context.Context, profile *models.TeacherProfile) error {
	if err := r.db.WithContext(ctx).Create(profile).Error; err != nil {
		return repositories.WrapDBError(err, "create teacher profile")
	}
	return nil
}

func (r *teacherProfileRepository) GetByID(ctx context.Context, id uint) (*models.TeacherProfile, error) {
	var profile models.TeacherProfile
	if err := r.db.WithContext(ctx).
		Preload("User").
		First(&profile, id).Error; err != nil {
		return nil, repositories.WrapDBError(err, "get teacher profile by id")
	}
	return &profile, nil
}

func (r *teacherProfileRepository) GetByUserID(ctx context.Context, userID string) (*models.TeacherProfile, error) {
	var profile models.TeacherProfile
	if err := r.db.WithContext(ctx).
		First(&profile, "user_id = ?", userID).Error; err != nil {
		return nil, repositories.WrapDBError(err, "get teacher profile by user id")
	}
	return &profile, nil
}

func (r *teacherProfileRepository) ExistsByUserID(ctx context.Context, userID string) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&models.TeacherProfile{}).
		Where("user_id = ?", userID).
		Count(&count).Error
	if err != nil {
		return false, repositories.WrapDBError(err, "check teacher profile existence")
	}
	return count > 0, nil
}

// ===== QUERY OPERATIONS =====

func (r *teacherProfileRepository) List(ctx context.Context, filters repositories.ProfileFilters) ([]*models.TeacherProfile, int64, error) {
	var profiles []*models.TeacherProfile
	var total int64

	query := r.db.WithContext(ctx).Model(&models.TeacherProfile{}).Preload("User")
	query = r.applyFilters(query, filters)

	if err := query.Count(&total).Error; err != nil {
		return nil, 0, repositories.WrapDBError(err, "count teacher profiles")
	}

	query = r.applyPaginationAndSorting(query, filters)

	if err := query.Find(&profiles).Error; err != nil {
		return nil, 0, repositories.WrapDBError(err, "list teacher profiles")
	}

	return profiles, total, nil
}

func (r *teacherProfileRepository) UpdateStatus(ctx context.Context, id uint, status models.ApplicationStatus, reviewerID string, reason *string) error {
	now := time.Now()
	updates := map[string]interface{}{
		"status":      status,
		"reviewed_by": reviewerID,
		"reviewed_at": now,
	}
	if reason != nil {
		updates["rejection_reason"] = *reason
	}

	result := r.db.WithContext(ctx).
		Model(&models.TeacherProfile{}).
		Where("id = ?", id).
		Updates(updates)
	if result.Error != nil {
		return repositories.WrapDBError(result.Error, "update teacher profile status")
	}
	if result.RowsAffected == 0 {
		return repositories.ErrNotFound
	}
	return nil
}

func (r *teacherProfileRepository) CountByStatus(ctx context.Context, status models.ApplicationStatus) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&models.TeacherProfile{}).
		Where("status = ?", status).
		Count(&count).Error
	if err != nil {
		return 0, repositories.WrapDBError(err, "count teacher profiles by status")
	}
	return count, nil
}

// ===== HELPERS =====

func (r *teacherProfileRepository) applyFilters(query *gorm.DB, filters repositories.ProfileFilters) *gorm.DB {
	if filters.Status != nil {
		query = query.Where("status = ?", *filters.Status)
	}
	if filters.Subject != nil {
		query = query.Where("subjects @> ?", `["`+*filters.Subject+`"]`)
	}
	if filters.DateFrom != nil {
		query = query.Where("created_at >= ?", *filters.DateFrom)
	}
	if filters.DateTo != nil {
		query = query.Where("created_at <= ?", *filters.DateTo)
	}
	return query
}

func (r *teacherProfileRepository) applyPaginationAndSorting(query *gorm.DB, filters repositories.ProfileFilters) *gorm.DB {
	// Whitelist sort columns; anything else falls back to created_at
	allowedSortColumns := map[string]bool{
		"created_at":  true,
		"updated_at":  true,
		"reviewed_at": true,
		"status":      true,
		"id":          true,
	}

	sortBy := filters.SortBy
	if sortBy == "" || !allowedSortColumns[sortBy] {
		sortBy = "created_at"
	}

	sortOrder := "DESC"
	if filters.SortOrder == "asc" || filters.SortOrder == "ASC" {
		sortOrder = "ASC"
	}

	query = query.Order(sortBy + " " + sortOrder)

	if filters.Limit > 0 {
		query = query.Limit(filters.Limit)
	}
	if filters.Offset > 0 {
		query = query.Offset(filters.Offset)
	}

	return query
}
