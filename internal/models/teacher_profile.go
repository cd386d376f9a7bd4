package models

import (
	"time"

	"gorm.io/datatypes"
)

type ApplicationStatus string

const (
	ApplicationPending  ApplicationStatus = "pending"
	ApplicationApproved ApplicationStatus = "approved"
	ApplicationRejected ApplicationStatus = "rejected"
)

// TeacherProfile is the teacher application record. Exactly one per user,
// created at application-submit time; a second insert for the same user is a
// conflict, never an update.
type TeacherProfile struct {
	ID     uint              `json:"id" gorm:"primaryKey"`
	UserID string            `json:"user_id" gorm:"uniqueIndex:uidx_teacher_profiles_user;not null;size:255"`
	Status ApplicationStatus `json:"status" gorm:"not null;size:32;default:pending;index"`

	// Descriptive fields are all optional; arrays are normalized to [] on
	// submit so readers never see SQL NULL for them.
	Qualifications  datatypes.JSON `json:"qualifications" gorm:"type:jsonb"`
	Subjects        datatypes.JSON `json:"subjects" gorm:"type:jsonb"`
	Languages       datatypes.JSON `json:"languages" gorm:"type:jsonb"`
	Documents       datatypes.JSON `json:"documents" gorm:"type:jsonb"`
	Availability    datatypes.JSON `json:"availability" gorm:"type:jsonb"`
	ExperienceYears *int           `json:"experience_years"`
	Bio             *string        `json:"bio" gorm:"type:text"`
	HourlyRate      *float64       `json:"hourly_rate"`
	DateOfBirth     *time.Time     `json:"date_of_birth"`

	RejectionReason *string    `json:"rejection_reason" gorm:"type:text"`
	ReviewedBy      *string    `json:"reviewed_by" gorm:"size:255"`
	ReviewedAt      *time.Time `json:"reviewed_at"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	User User `json:"user,omitempty" gorm:"foreignKey:UserID;references:ID"`
}

func (TeacherProfile) TableName() string {
	return "teacher_profiles"
}
