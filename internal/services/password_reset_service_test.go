package services

import (
	"context"
	"errors"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/learnity/registration-service/internal/cache"
	"github.com/learnity/registration-service/internal/captcha"
	"github.com/learnity/registration-service/internal/events"
	"github.com/learnity/registration-service/internal/models"
	"github.com/learnity/registration-service/internal/validator"
)

func newResetFixture(captchaOK bool) (*fakeRepo, *events.MockEventPublisher, PasswordResetService) {
	repo := newFakeRepo()
	publisher := events.NewMockEventPublisher(slog.Default())
	audit := NewAuditService(repo, testLogger())
	svc := NewPasswordResetService(
		repo,
		captcha.StaticVerifier{Result: captchaOK},
		cache.NewNoopSecurityLimiter(),
		audit,
		publisher,
		validator.New(),
		testLogger(),
	)
	return repo, publisher, svc
}

func resetRequest() *PasswordResetRequest {
	return &PasswordResetRequest{Email: "jane@example.com", CaptchaToken: "token"}
}

func TestRequestReset_KnownAccountPublishesEvent(t *testing.T) {
	repo, publisher, svc := newResetFixture(true)
	repo.identity.existsFn = func(email string) (bool, error) { return true, nil }

	err := svc.RequestReset(context.Background(), resetRequest(), RequestMeta{IPAddress: "1.2.3.4"})
	require.NoError(t, err)

	require.Len(t, publisher.GetPublishedEvents(), 1)
	assert.Equal(t, events.EventPasswordResetRequested, publisher.GetPublishedEvents()[0].Type)

	audits := repo.audits.eventsOfType(models.AuditPasswordResetRequest)
	require.Len(t, audits, 1)
	assert.True(t, audits[0].Success)
}

func TestRequestReset_UnknownAccountSucceedsSilently(t *testing.T) {
	repo, publisher, svc := newResetFixture(true)

	err := svc.RequestReset(context.Background(), resetRequest(), RequestMeta{})
	require.NoError(t, err)

	assert.Empty(t, publisher.GetPublishedEvents())
	assert.Len(t, repo.audits.eventsOfType(models.AuditPasswordResetRequest), 1)
}

func TestRequestReset_ProviderErrorTreatedAsUnknown(t *testing.T) {
	repo, publisher, svc := newResetFixture(true)
	repo.identity.existsFn = func(email string) (bool, error) {
		return false, errors.New("provider unavailable")
	}

	err := svc.RequestReset(context.Background(), resetRequest(), RequestMeta{})
	require.NoError(t, err)
	assert.Empty(t, publisher.GetPublishedEvents())
}

func TestRequestReset_CaptchaFailureBlocks(t *testing.T) {
	repo, publisher, svc := newResetFixture(false)

	err := svc.RequestReset(context.Background(), resetRequest(), RequestMeta{})
	require.ErrorIs(t, err, ErrCaptchaFailed)

	assert.Empty(t, publisher.GetPublishedEvents())
	assert.Len(t, repo.audits.eventsOfType(models.AuditCaptchaFailed), 1)
}

func TestRequestReset_InvalidEmail(t *testing.T) {
	_, _, svc := newResetFixture(true)

	err := svc.RequestReset(context.Background(), &PasswordResetRequest{Email: "nope", CaptchaToken: "t"}, RequestMeta{})
	var validationErrors ValidationErrors
	require.ErrorAs(t, err, &validationErrors)
}
