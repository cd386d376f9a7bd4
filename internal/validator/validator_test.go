package validator

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func validRegister() TeacherRegisterRequest {
	return TeacherRegisterRequest{
		Email:        "jane@example.com",
		Password:     "passw0rd123",
		FirstName:    "Jane",
		LastName:     "Doe",
		CaptchaToken: "token",
		Qualifications: []QualificationRequest{
			{Title: "BSc Mathematics", Institution: "State University", Year: 2015},
		},
		Subjects:        []string{"Mathematics"},
		ExperienceYears: 5,
		Bio:             "Ten years of classroom experience.",
		HourlyRate:      30,
	}
}

func TestValidate_RegisterRequest(t *testing.T) {
	v := New()

	tests := []struct {
		name    string
		mutate  func(*TeacherRegisterRequest)
		wantErr string
	}{
		{name: "valid", mutate: func(r *TeacherRegisterRequest) {}},
		{
			name:    "bad email",
			mutate:  func(r *TeacherRegisterRequest) { r.Email = "not-an-email" },
			wantErr: "email",
		},
		{
			name:    "weak password without digits",
			mutate:  func(r *TeacherRegisterRequest) { r.Password = "onlyletters" },
			wantErr: "password",
		},
		{
			name:    "short password",
			mutate:  func(r *TeacherRegisterRequest) { r.Password = "a1" },
			wantErr: "password",
		},
		{
			name:    "missing subjects",
			mutate:  func(r *TeacherRegisterRequest) { r.Subjects = nil },
			wantErr: "subjects",
		},
		{
			name:    "subject too short",
			mutate:  func(r *TeacherRegisterRequest) { r.Subjects = []string{"X"} },
			wantErr: "subjects",
		},
		{
			name:    "hourly rate out of range",
			mutate:  func(r *TeacherRegisterRequest) { r.HourlyRate = 5000 },
			wantErr: "hourly_rate",
		},
		{
			name:    "missing captcha token",
			mutate:  func(r *TeacherRegisterRequest) { r.CaptchaToken = "" },
			wantErr: "captcha_token",
		},
		{
			name:    "bio too short",
			mutate:  func(r *TeacherRegisterRequest) { r.Bio = "short" },
			wantErr: "bio",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := validRegister()
			tt.mutate(&req)

			err := v.Validate(&req)
			if tt.wantErr == "" {
				assert.NoError(t, err)
				return
			}

			var validationErrors ValidationErrors
			require.ErrorAs(t, err, &validationErrors)

			found := false
			for _, fieldErr := range validationErrors {
				if fieldErr.Field == tt.wantErr {
					found = true
				}
			}
			assert.True(t, found, "expected an error on field %q, got %v", tt.wantErr, validationErrors)
		})
	}
}

func TestValidate_ApplyRequestOptionalFields(t *testing.T) {
	v := New()

	req := TeacherApplyRequest{
		Email:     "jane@example.com",
		FirstName: "Jane",
		LastName:  "Doe",
	}
	assert.NoError(t, v.Validate(&req))

	adult := "1990-04-12"
	req.DateOfBirth = &adult
	assert.NoError(t, v.Validate(&req))

	badDate := "12/04/1990"
	req.DateOfBirth = &badDate
	err := v.Validate(&req)

	var validationErrors ValidationErrors
	require.ErrorAs(t, err, &validationErrors)
}

func TestValidate_ApplyRequestRequiresAdultBirthDate(t *testing.T) {
	v := New()

	minor := time.Now().AddDate(-16, 0, 0).Format("2006-01-02")
	req := TeacherApplyRequest{
		Email:       "kid@example.com",
		FirstName:   "Kid",
		LastName:    "Doe",
		DateOfBirth: &minor,
	}

	err := v.Validate(&req)
	var validationErrors ValidationErrors
	require.ErrorAs(t, err, &validationErrors)
	require.Len(t, validationErrors, 1)
	assert.Equal(t, "date_of_birth", validationErrors[0].Field)
	assert.Equal(t, "adult_birth_date", validationErrors[0].Rule)
}

func TestValidationErrors_ErrorString(t *testing.T) {
	errs := ValidationErrors{
		{Field: "email", Message: "must be a valid email address"},
	}
	assert.Contains(t, errs.Error(), "email")

	multi := ValidationErrors{
		{Field: "a", Message: "x"},
		{Field: "b", Message: "y"},
	}
	assert.Contains(t, multi.Error(), "2 field errors")
}
