package services

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/learnity/registration-service/internal/events"
	"github.com/learnity/registration-service/internal/models"
	"github.com/learnity/registration-service/internal/repositories"
	"github.com/learnity/registration-service/internal/validator"
)

func validApplyRequest() *ApplyTeacherRequest {
	bio := "Experienced maths tutor."
	dob := "1990-04-12"
	return &ApplyTeacherRequest{
		Email:       "jane@example.com",
		FirstName:   "Jane",
		LastName:    "Doe",
		Subjects:    []string{"Mathematics", "Physics"},
		Languages:   []string{"en", "de"},
		Bio:         &bio,
		HourlyRate:  "45.5",
		DateOfBirth: &dob,
	}
}

func newApplicationFixture(allowMock bool) (*fakeRepo, *events.MockEventPublisher, ApplicationService) {
	repo := newFakeRepo()
	publisher := events.NewMockEventPublisher(slog.Default())
	audit := NewAuditService(repo, testLogger())
	svc := NewApplicationService(repo, audit, publisher, validator.New(), testLogger(), ApplicationConfig{
		MaxWriteAttempts: 3,
		RetryBaseDelay:   time.Millisecond,
		AllowMockToken:   allowMock,
	})
	return repo, publisher, svc
}

func mockCaller(subjectID string) CallerIdentity {
	return CallerIdentity{SubjectID: subjectID, BearerToken: MockIdentityToken}
}

func TestSubmitApplication_SuccessCreatesUserAndProfile(t *testing.T) {
	repo, publisher, svc := newApplicationFixture(true)

	resp, err := svc.SubmitApplication(context.Background(), mockCaller("subj-1"), validApplyRequest(), RequestMeta{})
	require.NoError(t, err)

	assert.Equal(t, "subj-1", resp.UserID)
	assert.Equal(t, models.ApplicationPending, resp.Status)
	assert.NotZero(t, resp.ApplicationID)

	user, err := repo.users.GetByID(context.Background(), "subj-1")
	require.NoError(t, err)
	assert.Equal(t, models.RolePendingTeacher, user.Role)

	profile, err := repo.profiles.GetByUserID(context.Background(), "subj-1")
	require.NoError(t, err)
	require.NotNil(t, profile.HourlyRate)
	assert.InDelta(t, 45.5, *profile.HourlyRate, 0.001)
	require.NotNil(t, profile.DateOfBirth)
	assert.Equal(t, 1990, profile.DateOfBirth.Year())

	// Missing arrays are stored as empty arrays, never null
	assert.Equal(t, "[]", string(profile.Qualifications))
	assert.Equal(t, "[]", string(profile.Documents))

	require.Len(t, publisher.GetPublishedEvents(), 1)
	assert.Equal(t, events.EventApplicationReceived, publisher.GetPublishedEvents()[0].Type)
}

func TestSubmitApplication_ReusesExistingUser(t *testing.T) {
	repo, _, svc := newApplicationFixture(true)
	repo.users.users["subj-1"] = &models.User{
		ID:    "subj-1",
		Email: "jane@example.com",
		Role:  models.RoleStudent,
	}

	resp, err := svc.SubmitApplication(context.Background(), mockCaller("subj-1"), validApplyRequest(), RequestMeta{})
	require.NoError(t, err)
	assert.Equal(t, "subj-1", resp.UserID)

	user, _ := repo.users.GetByID(context.Background(), "subj-1")
	assert.Equal(t, models.RolePendingTeacher, user.Role)
}

func TestSubmitApplication_IdentityResolution(t *testing.T) {
	t.Run("absence of token and header is unauthorized", func(t *testing.T) {
		_, _, svc := newApplicationFixture(true)
		_, err := svc.SubmitApplication(context.Background(), CallerIdentity{}, validApplyRequest(), RequestMeta{})
		require.ErrorIs(t, err, ErrUnauthorized)
	})

	t.Run("token subject must match header subject", func(t *testing.T) {
		repo, _, svc := newApplicationFixture(false)
		repo.identity.verifyFn = func(token string) (*repositories.IdentityClaims, error) {
			return &repositories.IdentityClaims{SubjectID: "other-subject"}, nil
		}

		caller := CallerIdentity{SubjectID: "subj-1", BearerToken: "real-token"}
		_, err := svc.SubmitApplication(context.Background(), caller, validApplyRequest(), RequestMeta{})
		require.ErrorIs(t, err, ErrSubjectMismatch)
		assert.Len(t, repo.audits.eventsOfType(models.AuditTokenVerificationFail), 1)
	})

	t.Run("mock token rejected when disabled", func(t *testing.T) {
		repo, _, svc := newApplicationFixture(false)
		repo.identity.verifyFn = func(token string) (*repositories.IdentityClaims, error) {
			return nil, errors.New("malformed token")
		}

		_, err := svc.SubmitApplication(context.Background(), mockCaller("subj-1"), validApplyRequest(), RequestMeta{})
		require.ErrorIs(t, err, ErrUnauthorized)
	})

	t.Run("header alone resolves the subject", func(t *testing.T) {
		_, _, svc := newApplicationFixture(true)
		resp, err := svc.SubmitApplication(context.Background(), CallerIdentity{SubjectID: "subj-9"}, validApplyRequest(), RequestMeta{})
		require.NoError(t, err)
		assert.Equal(t, "subj-9", resp.UserID)
	})
}

func TestSubmitApplication_DuplicateApplicationIsConflict(t *testing.T) {
	repo, _, svc := newApplicationFixture(true)
	repo.users.users["subj-1"] = &models.User{ID: "subj-1", Email: "jane@example.com"}
	repo.profiles.profiles[1] = &models.TeacherProfile{ID: 1, UserID: "subj-1", Status: models.ApplicationPending}

	_, err := svc.SubmitApplication(context.Background(), mockCaller("subj-1"), validApplyRequest(), RequestMeta{})
	require.ErrorIs(t, err, ErrApplicationExists)
	assert.Zero(t, repo.txCount)
}

func TestSubmitApplication_EmailOwnedByOtherSubjectIsConflict(t *testing.T) {
	repo, _, svc := newApplicationFixture(true)
	repo.users.users["someone-else"] = &models.User{ID: "someone-else", Email: "jane@example.com"}

	_, err := svc.SubmitApplication(context.Background(), mockCaller("subj-1"), validApplyRequest(), RequestMeta{})
	require.ErrorIs(t, err, ErrEmailTaken)
	assert.Zero(t, repo.txCount)
}

func TestSubmitApplication_RetriesOnUniqueViolationOnly(t *testing.T) {
	t.Run("unique violation retries and succeeds", func(t *testing.T) {
		repo, _, svc := newApplicationFixture(true)
		repo.profiles.createErr = []error{
			&repositories.ConflictError{Constraint: "uidx_teacher_profiles_user"},
			nil,
		}

		resp, err := svc.SubmitApplication(context.Background(), mockCaller("subj-1"), validApplyRequest(), RequestMeta{})
		require.NoError(t, err)
		assert.NotZero(t, resp.ApplicationID)
		assert.Equal(t, 2, repo.txCount)
	})

	t.Run("non-unique error aborts without retry", func(t *testing.T) {
		repo, _, svc := newApplicationFixture(true)
		repo.profiles.createErr = []error{errors.New("disk full")}

		_, err := svc.SubmitApplication(context.Background(), mockCaller("subj-1"), validApplyRequest(), RequestMeta{})
		require.Error(t, err)
		assert.False(t, repositories.IsUniqueViolation(err))
		assert.Equal(t, 1, repo.txCount)
	})

	t.Run("exhausted retries surface a keyed conflict", func(t *testing.T) {
		repo, _, svc := newApplicationFixture(true)
		conflict := &repositories.ConflictError{Constraint: "uidx_teacher_profiles_user"}
		repo.profiles.createErr = []error{conflict, conflict, conflict}

		_, err := svc.SubmitApplication(context.Background(), mockCaller("subj-1"), validApplyRequest(), RequestMeta{})
		require.ErrorIs(t, err, ErrApplicationExists)
		assert.Equal(t, 3, repo.txCount)
	})

	t.Run("email constraint keys the conflict to email", func(t *testing.T) {
		repo, _, svc := newApplicationFixture(true)
		conflict := &repositories.ConflictError{Constraint: "uidx_users_email"}
		repo.profiles.createErr = []error{conflict, conflict, conflict}

		_, err := svc.SubmitApplication(context.Background(), mockCaller("subj-1"), validApplyRequest(), RequestMeta{})
		require.ErrorIs(t, err, ErrEmailTaken)
	})
}

func TestSubmitApplication_ConcurrentSubmissionsHaveOneWinner(t *testing.T) {
	repo, publisher, svc := newApplicationFixture(true)

	const submitters = 8
	errs := make([]error, submitters)
	var wg sync.WaitGroup
	for i := 0; i < submitters; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, errs[i] = svc.SubmitApplication(context.Background(), mockCaller("subj-1"), validApplyRequest(), RequestMeta{})
		}(i)
	}
	wg.Wait()

	var wins, conflicts int
	for _, err := range errs {
		switch {
		case err == nil:
			wins++
		case errors.Is(err, ErrApplicationExists):
			conflicts++
		default:
			t.Fatalf("unexpected submission error: %v", err)
		}
	}
	assert.Equal(t, 1, wins)
	assert.Equal(t, submitters-1, conflicts)

	assert.Len(t, repo.profiles.profiles, 1)
	assert.Len(t, repo.audits.eventsOfType(models.AuditApplicationSubmitted), 1)
	require.Len(t, publisher.GetPublishedEvents(), 1)

	// Every submission is bounded by the attempt budget
	assert.LessOrEqual(t, repo.txCount, submitters*3)
}

func TestSubmitApplication_Normalization(t *testing.T) {
	t.Run("unparseable hourly rate", func(t *testing.T) {
		_, _, svc := newApplicationFixture(true)
		req := validApplyRequest()
		req.HourlyRate = "a lot"

		_, err := svc.SubmitApplication(context.Background(), mockCaller("subj-1"), req, RequestMeta{})
		require.ErrorIs(t, err, ErrInvalidHourlyRate)
	})

	t.Run("numeric hourly rate passes through", func(t *testing.T) {
		repo, _, svc := newApplicationFixture(true)
		req := validApplyRequest()
		req.HourlyRate = float64(60)

		_, err := svc.SubmitApplication(context.Background(), mockCaller("subj-1"), req, RequestMeta{})
		require.NoError(t, err)
		profile, _ := repo.profiles.GetByUserID(context.Background(), "subj-1")
		assert.InDelta(t, 60.0, *profile.HourlyRate, 0.001)
	})

	t.Run("missing optional fields stay null or empty", func(t *testing.T) {
		repo, _, svc := newApplicationFixture(true)
		req := &ApplyTeacherRequest{
			Email:     "bare@example.com",
			FirstName: "Bare",
			LastName:  "Minimum",
		}

		_, err := svc.SubmitApplication(context.Background(), mockCaller("subj-2"), req, RequestMeta{})
		require.NoError(t, err)

		profile, _ := repo.profiles.GetByUserID(context.Background(), "subj-2")
		assert.Nil(t, profile.HourlyRate)
		assert.Nil(t, profile.DateOfBirth)
		assert.Nil(t, profile.Bio)
		assert.Equal(t, "[]", string(profile.Subjects))
		assert.Equal(t, "[]", string(profile.Languages))
	})
}
