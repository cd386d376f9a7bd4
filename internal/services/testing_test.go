package services

import (
	"context"
	"fmt"
	"sync"

	"github.com/learnity/registration-service/internal/models"
	"github.com/learnity/registration-service/internal/repositories"
	"github.com/learnity/registration-service/internal/utils"
)

// In-memory repository fakes with per-call error injection.

type fakeUserRepo struct {
	mu        sync.Mutex
	users     map[string]*models.User
	createErr []error
}

func newFakeUserRepo() *fakeUserRepo {
	return &fakeUserRepo{users: make(map[string]*models.User)}
}

func (r *fakeUserRepo) popCreateErr() error {
	if len(r.createErr) == 0 {
		return nil
	}
	err := r.createErr[0]
	r.createErr = r.createErr[1:]
	return err
}

func (r *fakeUserRepo) Create(ctx context.Context, user *models.User) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if err := r.popCreateErr(); err != nil {
		return err
	}
	if _, ok := r.users[user.ID]; ok {
		return &repositories.ConflictError{Constraint: "users_pkey"}
	}
	for _, existing := range r.users {
		if existing.Email == user.Email {
			return &repositories.ConflictError{Constraint: "uidx_users_email"}
		}
	}
	r.users[user.ID] = user
	return nil
}

func (r *fakeUserRepo) GetByID(ctx context.Context, id string) (*models.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	user, ok := r.users[id]
	if !ok {
		return nil, repositories.ErrNotFound
	}
	return user, nil
}

func (r *fakeUserRepo) GetByEmail(ctx context.Context, email string) (*models.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, user := range r.users {
		if user.Email == email {
			return user, nil
		}
	}
	return nil, repositories.ErrNotFound
}

func (r *fakeUserRepo) Update(ctx context.Context, user *models.User) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.users[user.ID]; !ok {
		return repositories.ErrNotFound
	}
	r.users[user.ID] = user
	return nil
}

func (r *fakeUserRepo) UpdateRole(ctx context.Context, id string, role models.UserRole) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	user, ok := r.users[id]
	if !ok {
		return repositories.ErrNotFound
	}
	user.Role = role
	return nil
}

func (r *fakeUserRepo) ExistsByID(ctx context.Context, id string) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	_, ok := r.users[id]
	return ok, nil
}

func (r *fakeUserRepo) ExistsByEmail(ctx context.Context, email string) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, user := range r.users {
		if user.Email == email {
			return true, nil
		}
	}
	return false, nil
}

type fakeProfileRepo struct {
	mu        sync.Mutex
	profiles  map[uint]*models.TeacherProfile
	nextID    uint
	createErr []error
	creates   int
}

func newFakeProfileRepo() *fakeProfileRepo {
	return &fakeProfileRepo{profiles: make(map[uint]*models.TeacherProfile), nextID: 1}
}

func (r *fakeProfileRepo) Create(ctx context.Context, profile *models.TeacherProfile) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.creates++
	if len(r.createErr) > 0 {
		err := r.createErr[0]
		r.createErr = r.createErr[1:]
		if err != nil {
			return err
		}
	}
	for _, existing := range r.profiles {
		if existing.UserID == profile.UserID {
			return &repositories.ConflictError{Constraint: "uidx_teacher_profiles_user"}
		}
	}
	profile.ID = r.nextID
	r.nextID++
	r.profiles[profile.ID] = profile
	return nil
}

func (r *fakeProfileRepo) GetByID(ctx context.Context, id uint) (*models.TeacherProfile, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	profile, ok := r.profiles[id]
	if !ok {
		return nil, repositories.ErrNotFound
	}
	return profile, nil
}

func (r *fakeProfileRepo) GetByUserID(ctx context.Context, userID string) (*models.TeacherProfile, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, profile := range r.profiles {
		if profile.UserID == userID {
			return profile, nil
		}
	}
	return nil, repositories.ErrNotFound
}

func (r *fakeProfileRepo) ExistsByUserID(ctx context.Context, userID string) (bool, error) {
	_, err := r.GetByUserID(ctx, userID)
	if err != nil {
		if repositories.IsNotFound(err) {
			return false, nil
		}
		return false, err
	}
	return true, nil
}

func (r *fakeProfileRepo) List(ctx context.Context, filters repositories.ProfileFilters) ([]*models.TeacherProfile, int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*models.TeacherProfile
	for _, profile := range r.profiles {
		if filters.Status != nil && profile.Status != *filters.Status {
			continue
		}
		out = append(out, profile)
	}
	return out, int64(len(out)), nil
}

func (r *fakeProfileRepo) UpdateStatus(ctx context.Context, id uint, status models.ApplicationStatus, reviewerID string, reason *string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	profile, ok := r.profiles[id]
	if !ok {
		return repositories.ErrNotFound
	}
	profile.Status = status
	profile.ReviewedBy = &reviewerID
	profile.RejectionReason = reason
	return nil
}

func (r *fakeProfileRepo) CountByStatus(ctx context.Context, status models.ApplicationStatus) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var n int64
	for _, profile := range r.profiles {
		if profile.Status == status {
			n++
		}
	}
	return n, nil
}

type fakeAuditRepo struct {
	mu        sync.Mutex
	entries   []*models.AuditLog
	appendErr error
}

func (r *fakeAuditRepo) Append(ctx context.Context, entry *models.AuditLog) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.appendErr != nil {
		return r.appendErr
	}
	r.entries = append(r.entries, entry)
	return nil
}

func (r *fakeAuditRepo) List(ctx context.Context, filters repositories.AuditFilters) ([]*models.AuditLog, int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]*models.AuditLog, len(r.entries))
	copy(out, r.entries)
	return out, int64(len(out)), nil
}

func (r *fakeAuditRepo) eventsOfType(eventType models.AuditEventType) []*models.AuditLog {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*models.AuditLog
	for _, entry := range r.entries {
		if entry.EventType == eventType {
			out = append(out, entry)
		}
	}
	return out
}

type fakeIdentity struct {
	verifyFn  func(token string) (*repositories.IdentityClaims, error)
	createFn  func(req repositories.CreateAccountRequest) (*repositories.CreatedAccount, error)
	existsFn  func(email string) (bool, error)
	created   []repositories.CreateAccountRequest
	verifyErr error
}

func (f *fakeIdentity) VerifyToken(ctx context.Context, token string) (*repositories.IdentityClaims, error) {
	if f.verifyFn != nil {
		return f.verifyFn(token)
	}
	if f.verifyErr != nil {
		return nil, f.verifyErr
	}
	return &repositories.IdentityClaims{SubjectID: "subject-" + token}, nil
}

func (f *fakeIdentity) CreateAccount(ctx context.Context, req repositories.CreateAccountRequest) (*repositories.CreatedAccount, error) {
	f.created = append(f.created, req)
	if f.createFn != nil {
		return f.createFn(req)
	}
	return &repositories.CreatedAccount{
		SubjectID: fmt.Sprintf("subject-%d", len(f.created)),
		SigninURL: "https://idp.example.com/signin",
	}, nil
}

func (f *fakeIdentity) GetByEmail(ctx context.Context, email string) (*repositories.IdentityClaims, error) {
	exists, err := f.ExistsByEmail(ctx, email)
	if err != nil {
		return nil, err
	}
	if !exists {
		return nil, repositories.ErrNotFound
	}
	return &repositories.IdentityClaims{Email: email}, nil
}

func (f *fakeIdentity) ExistsByEmail(ctx context.Context, email string) (bool, error) {
	if f.existsFn != nil {
		return f.existsFn(email)
	}
	return false, nil
}

// fakeRepo aggregates the fakes. WithTransaction runs fn against the same
// stores; rollback is not simulated.
type fakeRepo struct {
	users    *fakeUserRepo
	profiles *fakeProfileRepo
	audits   *fakeAuditRepo
	identity *fakeIdentity

	mu      sync.Mutex
	txCount int
	txErr   error
}

func newFakeRepo() *fakeRepo {
	return &fakeRepo{
		users:    newFakeUserRepo(),
		profiles: newFakeProfileRepo(),
		audits:   &fakeAuditRepo{},
		identity: &fakeIdentity{},
	}
}

func (r *fakeRepo) User() repositories.UserRepository                     { return r.users }
func (r *fakeRepo) TeacherProfile() repositories.TeacherProfileRepository { return r.profiles }
func (r *fakeRepo) AuditLog() repositories.AuditLogRepository             { return r.audits }
func (r *fakeRepo) Identity() repositories.IdentityRepository             { return r.identity }

func (r *fakeRepo) WithTransaction(ctx context.Context, fn func(repositories.Repository) error) error {
	r.mu.Lock()
	r.txCount++
	txErr := r.txErr
	r.mu.Unlock()
	if txErr != nil {
		return txErr
	}
	return fn(r)
}

func (r *fakeRepo) Ping(ctx context.Context) error { return nil }
func (r *fakeRepo) Close() error                   { return nil }

func testLogger() utils.Logger {
	return utils.NewDevelopmentLogger()
}
