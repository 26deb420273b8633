package models

import "time"

// Role identifies what a user may do in the system.
type Role string

const (
	RoleProfessor Role = "professor"
	RoleStudent   Role = "student"
)

// Valid reports whether the role is one of the known roles.
func (r Role) Valid() bool {
	return r == RoleProfessor || r == RoleStudent
}

// User is an authenticated account. Exactly one of Professor or Student is set.
type User struct {
	ID           uint       `gorm:"primaryKey" json:"id"`
	Name         string     `gorm:"size:255;not null" json:"name"`
	Email        string     `gorm:"size:255;uniqueIndex;not null" json:"email"`
	PasswordHash string     `gorm:"size:255;not null" json:"-"`
	Role         Role       `gorm:"size:32;not null" json:"role"`
	CreatedAt    time.Time  `json:"createdAt"`
	UpdatedAt    time.Time  `json:"updatedAt"`
	Professor    *Professor `gorm:"constraint:OnDelete:CASCADE" json:"professor,omitempty"`
	Student      *Student   `gorm:"constraint:OnDelete:CASCADE" json:"student,omitempty"`
}

// Professor owns projects.
type Professor struct {
	ID       uint      `gorm:"primaryKey" json:"id"`
	UserID   uint      `gorm:"uniqueIndex;not null" json:"userId"`
	User     *User     `json:"user,omitempty"`
	Projects []Project `json:"projects,omitempty"`
}

// Student submits work and collects badges.
type Student struct {
	ID          uint         `gorm:"primaryKey" json:"id"`
	UserID      uint         `gorm:"uniqueIndex;not null" json:"userId"`
	User        *User        `json:"user,omitempty"`
	Submissions []Submission `json:"submissions,omitempty"`
	Badges      []Badge      `json:"badges,omitempty"`
}
