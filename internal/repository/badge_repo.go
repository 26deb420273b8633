package repository

import (
	"context"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/noah-isme/projeval-api/internal/models"
)

// BadgeRepository persists student achievements.
type BadgeRepository interface {
	InsertIfAbsent(ctx context.Context, badge *models.Badge) (bool, error)
	ListByStudent(ctx context.Context, studentID uint) ([]models.Badge, error)
	CountByStudent(ctx context.Context, studentID uint) (int64, error)
}

type badgeRepository struct {
	db *gorm.DB
}

// NewBadgeRepository constructs the badge repository.
func NewBadgeRepository(db *gorm.DB) BadgeRepository {
	return &badgeRepository{db: db}
}

// InsertIfAbsent stores the badge unless the student already holds one with the
// same name. It reports whether a row was inserted.
func (r *badgeRepository) InsertIfAbsent(ctx context.Context, badge *models.Badge) (bool, error) {
	return insertBadgeIfAbsent(r.db.WithContext(ctx), badge)
}

func (r *badgeRepository) ListByStudent(ctx context.Context, studentID uint) ([]models.Badge, error) {
	badges := make([]models.Badge, 0)
	err := r.db.WithContext(ctx).
		Where("student_id = ?", studentID).
		Order("awarded_date DESC").
		Find(&badges).Error
	return badges, err
}

func (r *badgeRepository) CountByStudent(ctx context.Context, studentID uint) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&models.Badge{}).Where("student_id = ?", studentID).Count(&count).Error
	return count, err
}

func insertBadgeIfAbsent(db *gorm.DB, badge *models.Badge) (bool, error) {
	result := db.Omit(clause.Associations).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "student_id"}, {Name: "name"}},
			DoNothing: true,
		}).
		Create(badge)
	if result.Error != nil {
		return false, result.Error
	}

	return result.RowsAffected == 1, nil
}
