package repository

import (
	"context"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/noah-isme/projeval-api/internal/models"
)

// SubmissionFilter allows narrowing submission queries.
type SubmissionFilter struct {
	AssignmentID *uint
	StudentID    *uint
	ProfessorID  *uint
	Graded       *bool
	Limit        int
}

// SubmissionRepository defines data operations for submissions.
type SubmissionRepository interface {
	List(ctx context.Context, filter SubmissionFilter) ([]models.Submission, error)
	Count(ctx context.Context, filter SubmissionFilter) (int64, error)
	GetByID(ctx context.Context, id uint) (models.Submission, error)
	Create(ctx context.Context, submission *models.Submission, badge *models.Badge) (bool, error)
	UpdateGrade(ctx context.Context, submission *models.Submission, badge *models.Badge) (bool, error)
}

type submissionRepository struct {
	db *gorm.DB
}

// NewSubmissionRepository instantiates the repository.
func NewSubmissionRepository(db *gorm.DB) SubmissionRepository {
	return &submissionRepository{db: db}
}

func (r *submissionRepository) scoped(ctx context.Context, filter SubmissionFilter) *gorm.DB {
	query := r.db.WithContext(ctx).Model(&models.Submission{})

	if filter.AssignmentID != nil {
		query = query.Where("assignment_id = ?", *filter.AssignmentID)
	}

	if filter.StudentID != nil {
		query = query.Where("student_id = ?", *filter.StudentID)
	}

	if filter.ProfessorID != nil {
		owned := r.db.Model(&models.Assignment{}).
			Select("assignments.id").
			Joins("JOIN projects ON projects.id = assignments.project_id").
			Where("projects.professor_id = ?", *filter.ProfessorID)
		query = query.Where("assignment_id IN (?)", owned)
	}

	if filter.Graded != nil {
		if *filter.Graded {
			query = query.Where("grade IS NOT NULL")
		} else {
			query = query.Where("grade IS NULL")
		}
	}

	return query
}

func (r *submissionRepository) List(ctx context.Context, filter SubmissionFilter) ([]models.Submission, error) {
	query := r.scoped(ctx, filter).
		Preload("Student.User").
		Preload("Assignment.Project").
		Order("submitted_at DESC").
		Order("id DESC")

	if filter.Limit > 0 {
		query = query.Limit(filter.Limit)
	}

	submissions := make([]models.Submission, 0)
	err := query.Find(&submissions).Error
	return submissions, err
}

func (r *submissionRepository) Count(ctx context.Context, filter SubmissionFilter) (int64, error) {
	var count int64
	err := r.scoped(ctx, filter).Count(&count).Error
	return count, err
}

func (r *submissionRepository) GetByID(ctx context.Context, id uint) (models.Submission, error) {
	var submission models.Submission
	if err := r.db.WithContext(ctx).
		Preload("Student.User").
		Preload("Assignment.Project").
		First(&submission, id).Error; err != nil {
		return models.Submission{}, err
	}

	return submission, nil
}

// Create inserts the submission unless the student already submitted the assignment,
// in which case ErrDuplicate is returned. A non-nil badge is awarded in the same
// transaction; the result reports whether it was newly inserted.
func (r *submissionRepository) Create(ctx context.Context, submission *models.Submission, badge *models.Badge) (bool, error) {
	awarded := false
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		result := tx.Omit(clause.Associations).
			Clauses(clause.OnConflict{
				Columns:   []clause.Column{{Name: "student_id"}, {Name: "assignment_id"}},
				DoNothing: true,
			}).
			Create(submission)
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			return ErrDuplicate
		}

		if badge == nil {
			return nil
		}

		inserted, err := insertBadgeIfAbsent(tx, badge)
		if err != nil {
			return err
		}
		awarded = inserted
		return nil
	})
	if err != nil {
		return false, err
	}

	return awarded, nil
}

// UpdateGrade writes the grading fields only; content and penalty are never touched.
func (r *submissionRepository) UpdateGrade(ctx context.Context, submission *models.Submission, badge *models.Badge) (bool, error) {
	awarded := false
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		result := tx.Model(&models.Submission{ID: submission.ID}).
			Select("raw_grade", "grade", "feedback", "remarks", "updated_at").
			Updates(submission)
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			return gorm.ErrRecordNotFound
		}

		if badge == nil {
			return nil
		}

		inserted, err := insertBadgeIfAbsent(tx, badge)
		if err != nil {
			return err
		}
		awarded = inserted
		return nil
	})
	if err != nil {
		return false, err
	}

	return awarded, nil
}
