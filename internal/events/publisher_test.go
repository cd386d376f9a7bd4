package events

import (
	"context"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/learnity/registration-service/internal/models"
)

func TestMockPublisher_CollectsEvents(t *testing.T) {
	publisher := NewMockEventPublisher(slog.Default())

	event := NewTeacherRegisteredEvent("subj-1", "jane@example.com", "Jane", "Doe")
	require.NoError(t, publisher.PublishRegistrationEvent(context.Background(), event))

	published := publisher.GetPublishedEvents()
	require.Len(t, published, 1)
	assert.Equal(t, EventTeacherRegistered, published[0].Type)
	assert.Equal(t, "registration-service", published[0].Source)
	assert.NotEmpty(t, published[0].ID)

	publisher.ClearEvents()
	assert.Empty(t, publisher.GetPublishedEvents())
}

func TestModeratedEvent_TypeFollowsStatus(t *testing.T) {
	approved := NewApplicationModeratedEvent(1, "subj-1", models.ApplicationApproved, "admin-1", nil)
	assert.Equal(t, EventApplicationApproved, approved.Type)

	reason := "missing documents"
	rejected := NewApplicationModeratedEvent(1, "subj-1", models.ApplicationRejected, "admin-1", &reason)
	assert.Equal(t, EventApplicationRejected, rejected.Type)

	payload, ok := rejected.Data.(ApplicationModeratedEvent)
	require.True(t, ok)
	require.NotNil(t, payload.Reason)
	assert.Equal(t, reason, *payload.Reason)
}

func TestEventIDs_Unique(t *testing.T) {
	a := NewPasswordResetRequestedEvent("a@example.com")
	b := NewPasswordResetRequestedEvent("b@example.com")
	assert.NotEqual(t, a.ID, b.ID)
}
