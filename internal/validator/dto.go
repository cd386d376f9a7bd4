package validator

import (
	"github.com/learnity/registration-service/internal/models"
)

// TeacherRegisterRequest is the basic registration payload. Professional
// fields are captured up front so the application record can be created in
// the same flow.
type TeacherRegisterRequest struct {
	Email        string `json:"email" validate:"required,email"`
	Password     string `json:"password" validate:"required,password_strength"`
	FirstName    string `json:"first_name" validate:"required,min=1,max=100"`
	LastName     string `json:"last_name" validate:"required,min=1,max=100"`
	CaptchaToken string `json:"captcha_token" validate:"required"`

	Qualifications  []QualificationRequest `json:"qualifications" validate:"required,min=1,dive"`
	Subjects        []string               `json:"subjects" validate:"required,min=1,dive,subject_name"`
	ExperienceYears int                    `json:"experience_years" validate:"min=0,max=80"`
	Bio             string                 `json:"bio" validate:"required,min=10,max=2000"`
	HourlyRate      float64                `json:"hourly_rate" validate:"hourly_rate"`
}

// TeacherApplyRequest is the rich-profile application payload. Everything
// beyond the name fields is optional; the service normalizes missing values.
type TeacherApplyRequest struct {
	Email     string `json:"email" validate:"required,email"`
	FirstName string `json:"first_name" validate:"required,min=1,max=100"`
	LastName  string `json:"last_name" validate:"required,min=1,max=100"`

	Qualifications  []QualificationRequest `json:"qualifications" validate:"omitempty,dive"`
	Subjects        []string               `json:"subjects" validate:"omitempty,dive,subject_name"`
	Languages       []string               `json:"languages" validate:"omitempty,dive,min=2,max=50"`
	Documents       []DocumentRequest      `json:"documents" validate:"omitempty,dive"`
	Availability    map[string][]string    `json:"availability"`
	ExperienceYears *int                   `json:"experience_years" validate:"omitempty,min=0,max=80"`
	Bio             *string                `json:"bio" validate:"omitempty,max=2000"`
	HourlyRate      interface{}            `json:"hourly_rate"`
	DateOfBirth     *string                `json:"date_of_birth" validate:"omitempty,datetime=2006-01-02,adult_birth_date"`
}

// QualificationRequest describes one credential in an application
type QualificationRequest struct {
	Title       string  `json:"title" validate:"required,min=2,max=200"`
	Institution string  `json:"institution" validate:"required,min=2,max=200"`
	Year        int     `json:"year" validate:"required,min=1950,max=2100"`
	DocumentURL *string `json:"document_url" validate:"omitempty,url"`
}

// DocumentRequest describes one uploaded supporting document
type DocumentRequest struct {
	Name string `json:"name" validate:"required,min=1,max=200"`
	URL  string `json:"url" validate:"required,url"`
	Type string `json:"type" validate:"omitempty,oneof=certificate id_proof degree other"`
}

// PasswordResetRequest asks the provider to start a reset flow
type PasswordResetRequest struct {
	Email        string `json:"email" validate:"required,email"`
	CaptchaToken string `json:"captcha_token" validate:"required"`
}

// ModerationRequest carries an admin approve/reject decision
type ModerationRequest struct {
	Reason *string `json:"reason" validate:"omitempty,min=3,max=1000"`
}

// ApplicationListRequest carries admin list filters from query params
type ApplicationListRequest struct {
	Status    *models.ApplicationStatus `form:"status" validate:"omitempty,application_status"`
	Subject   *string                   `form:"subject" validate:"omitempty,subject_name"`
	Page      int                       `form:"page" validate:"omitempty,min=1"`
	PageSize  int                       `form:"page_size" validate:"omitempty,min=1,max=100"`
	SortBy    string                    `form:"sort_by" validate:"omitempty,oneof=created_at updated_at reviewed_at status id"`
	SortOrder string                    `form:"sort_order" validate:"omitempty,oneof=asc desc"`
}
