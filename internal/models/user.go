package models

import (
	"time"

	"gorm.io/gorm"
)

type UserRole string

const (
	RoleStudent UserRole = "student"
	RoleTeacher UserRole = "teacher"
	RoleAdmin   UserRole = "admin"
)

type User struct {
	ID       string   `json:"id" gorm:"primaryKey;size:255"`
	Email    string   `json:"email" gorm:"not null;uniqueIndex;size:255" validate:"required,email"`
	FullName string   `json:"full_name" gorm:"size:200"`
	Role     UserRole `json:"role" gorm:"not null;index" validate:"required,oneof=student teacher admin"`

	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `json:"-" gorm:"index"`
}

func (User) TableName() string {
	return "users"
}
