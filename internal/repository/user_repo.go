package repository

import (
	"context"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/noah-isme/projeval-api/internal/models"
)

// UserRepository defines persistence operations for accounts and their profiles.
type UserRepository interface {
	GetByEmail(ctx context.Context, email string) (models.User, error)
	Create(ctx context.Context, user *models.User) error
	GetStudent(ctx context.Context, id uint) (models.Student, error)
	ListStudents(ctx context.Context) ([]models.Student, error)
	CountStudents(ctx context.Context) (int64, error)
}

type userRepository struct {
	db *gorm.DB
}

// NewUserRepository instantiates a GORM-backed repository.
func NewUserRepository(db *gorm.DB) UserRepository {
	return &userRepository{db: db}
}

func (r *userRepository) GetByEmail(ctx context.Context, email string) (models.User, error) {
	var user models.User
	if err := r.db.WithContext(ctx).
		Preload("Professor").
		Preload("Student").
		Where("email = ?", email).
		First(&user).Error; err != nil {
		return models.User{}, err
	}

	return user, nil
}

// Create inserts the account and the profile matching its role in one transaction.
// ErrDuplicate is returned when the email is already registered.
func (r *userRepository) Create(ctx context.Context, user *models.User) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		result := tx.Omit(clause.Associations).
			Clauses(clause.OnConflict{Columns: []clause.Column{{Name: "email"}}, DoNothing: true}).
			Create(user)
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			return ErrDuplicate
		}

		switch user.Role {
		case models.RoleProfessor:
			profile := &models.Professor{UserID: user.ID}
			if err := tx.Create(profile).Error; err != nil {
				return err
			}
			user.Professor = profile
		case models.RoleStudent:
			profile := &models.Student{UserID: user.ID}
			if err := tx.Create(profile).Error; err != nil {
				return err
			}
			user.Student = profile
		}
		return nil
	})
}

func (r *userRepository) GetStudent(ctx context.Context, id uint) (models.Student, error) {
	var student models.Student
	if err := r.db.WithContext(ctx).Preload("User").First(&student, id).Error; err != nil {
		return models.Student{}, err
	}

	return student, nil
}

func (r *userRepository) ListStudents(ctx context.Context) ([]models.Student, error) {
	students := make([]models.Student, 0)
	err := r.db.WithContext(ctx).
		Preload("User").
		Joins("JOIN users ON users.id = students.user_id").
		Where("users.role = ?", models.RoleStudent).
		Order("users.name ASC").
		Find(&students).Error
	return students, err
}

func (r *userRepository) CountStudents(ctx context.Context) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&models.Student{}).
		Joins("JOIN users ON users.id = students.user_id").
		Where("users.role = ?", models.RoleStudent).
		Count(&count).Error
	return count, err
}
