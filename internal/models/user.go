package models

import (
	"strings"
	"time"
)

type UserRole string

const (
	RoleStudent         UserRole = "student"
	RolePendingTeacher  UserRole = "pending_teacher"
	RoleTeacher         UserRole = "teacher"
	RoleRejectedTeacher UserRole = "rejected_teacher"
	RoleAdmin           UserRole = "admin"
)

// User mirrors the identity-provider account locally. The primary key is the
// provider's subject id, so the row and the provider account always refer to
// the same principal.
type User struct {
	ID        string   `json:"id" gorm:"primaryKey;size:255"`
	Email     string   `json:"email" gorm:"uniqueIndex:uidx_users_email;not null;size:255"`
	FirstName string   `json:"first_name" gorm:"size:100"`
	LastName  string   `json:"last_name" gorm:"size:100"`
	Role      UserRole `json:"role" gorm:"not null;size:32;default:student;index"`

	EmailVerified bool `json:"email_verified" gorm:"default:false"`
	IsActive      bool `json:"is_active" gorm:"default:true"`

	LastLoginAt *time.Time `json:"last_login_at"`
	CreatedAt   time.Time  `json:"created_at"`
	UpdatedAt   time.Time  `json:"updated_at"`
}

func (User) TableName() string {
	return "users"
}

// DisplayName joins the name fields the way the web client shows them.
func (u *User) DisplayName() string {
	name := strings.TrimSpace(u.FirstName + " " + u.LastName)
	if name == "" {
		return u.Email
	}
	return name
}
