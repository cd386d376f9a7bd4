package events

import (
	"time"

	"github.com/google/uuid"

	"github.com/learnity/registration-service/internal/models"
)

// EventType represents different types of registration events
type EventType string

const (
	// Registration events
	EventTeacherRegistered   EventType = "registration.teacher_registered"
	EventApplicationReceived EventType = "registration.application_received"

	// Moderation events
	EventApplicationApproved EventType = "moderation.application_approved"
	EventApplicationRejected EventType = "moderation.application_rejected"

	// Account events
	EventPasswordResetRequested EventType = "account.password_reset_requested"
)

// RegistrationEvent is the base event structure for everything this service
// publishes to the notification pipeline.
type RegistrationEvent struct {
	ID        string                 `json:"id"`
	Type      EventType              `json:"type"`
	Timestamp time.Time              `json:"timestamp"`
	Source    string                 `json:"source"`
	Version   string                 `json:"version"`
	Data      interface{}            `json:"data"`
	Metadata  map[string]interface{} `json:"metadata,omitempty"`
}

// Event payloads

type TeacherRegisteredEvent struct {
	SubjectID string `json:"subject_id"`
	Email     string `json:"email"`
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
}

type ApplicationReceivedEvent struct {
	ApplicationID uint     `json:"application_id"`
	SubjectID     string   `json:"subject_id"`
	Email         string   `json:"email"`
	Subjects      []string `json:"subjects,omitempty"`
}

type ApplicationModeratedEvent struct {
	ApplicationID uint                     `json:"application_id"`
	SubjectID     string                   `json:"subject_id"`
	Status        models.ApplicationStatus `json:"status"`
	ReviewerID    string                   `json:"reviewer_id"`
	Reason        *string                  `json:"reason,omitempty"`
}

type PasswordResetRequestedEvent struct {
	Email string `json:"email"`
}

// Event factory functions

func NewTeacherRegisteredEvent(subjectID, email, firstName, lastName string) *RegistrationEvent {
	return newEvent(EventTeacherRegistered, TeacherRegisteredEvent{
		SubjectID: subjectID,
		Email:     email,
		FirstName: firstName,
		LastName:  lastName,
	})
}

func NewApplicationReceivedEvent(applicationID uint, subjectID, email string, subjects []string) *RegistrationEvent {
	return newEvent(EventApplicationReceived, ApplicationReceivedEvent{
		ApplicationID: applicationID,
		SubjectID:     subjectID,
		Email:         email,
		Subjects:      subjects,
	})
}

func NewApplicationModeratedEvent(applicationID uint, subjectID string, status models.ApplicationStatus, reviewerID string, reason *string) *RegistrationEvent {
	eventType := EventApplicationApproved
	if status == models.ApplicationRejected {
		eventType = EventApplicationRejected
	}
	return newEvent(eventType, ApplicationModeratedEvent{
		ApplicationID: applicationID,
		SubjectID:     subjectID,
		Status:        status,
		ReviewerID:    reviewerID,
		Reason:        reason,
	})
}

func NewPasswordResetRequestedEvent(email string) *RegistrationEvent {
	return newEvent(EventPasswordResetRequested, PasswordResetRequestedEvent{Email: email})
}

func newEvent(eventType EventType, data interface{}) *RegistrationEvent {
	return &RegistrationEvent{
		ID:        uuid.New().String(),
		Type:      eventType,
		Timestamp: time.Now(),
		Source:    "registration-service",
		Version:   "1.0",
		Data:      data,
	}
}
