package repository

import (
	"context"
	"time"

	"gorm.io/gorm"

	"github.com/noah-isme/projeval-api/internal/models"
)

// AssignmentFilter narrows assignment queries.
type AssignmentFilter struct {
	ProjectID   *uint
	ProfessorID *uint
}

// AssignmentRepository defines persistence operations for assignments.
type AssignmentRepository interface {
	List(ctx context.Context, filter AssignmentFilter) ([]models.Assignment, error)
	GetByID(ctx context.Context, id uint) (models.Assignment, error)
	Create(ctx context.Context, assignment *models.Assignment) error
	Update(ctx context.Context, assignment *models.Assignment) error
	Delete(ctx context.Context, id uint) error
	CountSubmissions(ctx context.Context, assignmentIDs []uint) (map[uint]int64, error)
	ListOpenWithoutSubmission(ctx context.Context, studentID uint, now time.Time, limit int) ([]models.Assignment, error)
	CountOpenWithoutSubmission(ctx context.Context, studentID uint, now time.Time) (int64, error)
}

type assignmentRepository struct {
	db *gorm.DB
}

// NewAssignmentRepository instantiates a GORM-backed repository.
func NewAssignmentRepository(db *gorm.DB) AssignmentRepository {
	return &assignmentRepository{db: db}
}

func (r *assignmentRepository) List(ctx context.Context, filter AssignmentFilter) ([]models.Assignment, error) {
	query := r.db.WithContext(ctx).Model(&models.Assignment{}).Preload("Project")

	if filter.ProjectID != nil {
		query = query.Where("project_id = ?", *filter.ProjectID)
	}

	if filter.ProfessorID != nil {
		query = query.Where("project_id IN (?)",
			r.db.Model(&models.Project{}).Select("id").Where("professor_id = ?", *filter.ProfessorID))
	}

	assignments := make([]models.Assignment, 0)
	err := query.Order("due_date ASC").Order("id ASC").Find(&assignments).Error
	return assignments, err
}

func (r *assignmentRepository) GetByID(ctx context.Context, id uint) (models.Assignment, error) {
	var assignment models.Assignment
	if err := r.db.WithContext(ctx).Preload("Project.Professor").First(&assignment, id).Error; err != nil {
		return models.Assignment{}, err
	}

	return assignment, nil
}

func (r *assignmentRepository) Create(ctx context.Context, assignment *models.Assignment) error {
	return r.db.WithContext(ctx).Omit("Project", "Submissions").Create(assignment).Error
}

func (r *assignmentRepository) Update(ctx context.Context, assignment *models.Assignment) error {
	return r.db.WithContext(ctx).
		Model(&models.Assignment{ID: assignment.ID}).
		Select("name", "description", "rubrics", "due_date", "max_points", "updated_at").
		Updates(assignment).Error
}

// Delete removes the assignment and its submissions.
func (r *assignmentRepository) Delete(ctx context.Context, id uint) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("assignment_id = ?", id).Delete(&models.Submission{}).Error; err != nil {
			return err
		}

		result := tx.Delete(&models.Assignment{}, id)
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			return gorm.ErrRecordNotFound
		}
		return nil
	})
}

func (r *assignmentRepository) CountSubmissions(ctx context.Context, assignmentIDs []uint) (map[uint]int64, error) {
	counts := make(map[uint]int64, len(assignmentIDs))
	if len(assignmentIDs) == 0 {
		return counts, nil
	}

	var rows []struct {
		AssignmentID uint
		Total        int64
	}
	if err := r.db.WithContext(ctx).
		Model(&models.Submission{}).
		Select("assignment_id, COUNT(*) AS total").
		Where("assignment_id IN ?", assignmentIDs).
		Group("assignment_id").
		Scan(&rows).Error; err != nil {
		return nil, err
	}

	for _, row := range rows {
		counts[row.AssignmentID] = row.Total
	}
	return counts, nil
}

func (r *assignmentRepository) openWithoutSubmission(ctx context.Context, studentID uint, now time.Time) *gorm.DB {
	return r.db.WithContext(ctx).
		Model(&models.Assignment{}).
		Where("due_date > ?", now.UTC()).
		Where("NOT EXISTS (SELECT 1 FROM submissions s WHERE s.assignment_id = assignments.id AND s.student_id = ?)", studentID)
}

// ListOpenWithoutSubmission returns assignments still open that the student has not submitted, soonest first.
func (r *assignmentRepository) ListOpenWithoutSubmission(ctx context.Context, studentID uint, now time.Time, limit int) ([]models.Assignment, error) {
	query := r.openWithoutSubmission(ctx, studentID, now).Preload("Project").Order("due_date ASC")
	if limit > 0 {
		query = query.Limit(limit)
	}

	assignments := make([]models.Assignment, 0)
	err := query.Find(&assignments).Error
	return assignments, err
}

func (r *assignmentRepository) CountOpenWithoutSubmission(ctx context.Context, studentID uint, now time.Time) (int64, error) {
	var count int64
	err := r.openWithoutSubmission(ctx, studentID, now).Count(&count).Error
	return count, err
}
