package services

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/learnity/registration-service/internal/models"
)

func TestAuditRecord_StampsFingerprint(t *testing.T) {
	repo := newFakeRepo()
	svc := NewAuditService(repo, testLogger())

	meta := RequestMeta{IPAddress: "203.0.113.7", UserAgent: "Mozilla/5.0"}
	svc.Record(context.Background(), AuditEntry{
		EventType: models.AuditRegistrationAttempt,
		Action:    "register_teacher",
		Meta:      meta,
		Success:   true,
	})

	require.Len(t, repo.audits.entries, 1)
	entry := repo.audits.entries[0]
	assert.Len(t, entry.DeviceFingerprint, 16)
	assert.Equal(t, models.DeviceFingerprint(meta.UserAgent, meta.IPAddress), entry.DeviceFingerprint)
	assert.Equal(t, "203.0.113.7", entry.IPAddress)
}

func TestAuditRecord_SwallowsWriteFailures(t *testing.T) {
	repo := newFakeRepo()
	repo.audits.appendErr = errors.New("audit store down")
	svc := NewAuditService(repo, testLogger())

	// Must not panic or propagate
	svc.Record(context.Background(), AuditEntry{
		EventType: models.AuditRegistrationAttempt,
		Action:    "register_teacher",
		Success:   true,
	})

	assert.Empty(t, repo.audits.entries)
}

func TestAuditRecord_CapturesErrorMessageAndMetadata(t *testing.T) {
	repo := newFakeRepo()
	svc := NewAuditService(repo, testLogger())

	svc.Record(context.Background(), AuditEntry{
		EventType: models.AuditCaptchaFailed,
		Action:    "register_teacher",
		Success:   false,
		Error:     errors.New("score too low"),
		Metadata:  map[string]interface{}{"email": "jane@example.com"},
	})

	require.Len(t, repo.audits.entries, 1)
	entry := repo.audits.entries[0]
	require.NotNil(t, entry.ErrorMessage)
	assert.Equal(t, "score too low", *entry.ErrorMessage)
	assert.Contains(t, string(entry.Metadata), "jane@example.com")
}

func TestDeviceFingerprint_Deterministic(t *testing.T) {
	a := models.DeviceFingerprint("agent", "1.1.1.1")
	b := models.DeviceFingerprint("agent", "1.1.1.1")
	c := models.DeviceFingerprint("agent", "2.2.2.2")

	assert.Equal(t, a, b)
	assert.NotEqual(t, a, c)
	assert.Len(t, a, 16)
}
