package models

import (
	"crypto/sha256"
	"encoding/hex"
	"time"

	"gorm.io/datatypes"
)

type AuditEventType string

const (
	AuditRegistrationAttempt   AuditEventType = "registration_attempt"
	AuditRegistrationSuccess   AuditEventType = "registration_success"
	AuditRegistrationFailed    AuditEventType = "registration_failed"
	AuditApplicationSubmitted  AuditEventType = "application_submitted"
	AuditApplicationApproved   AuditEventType = "application_approved"
	AuditApplicationRejected   AuditEventType = "application_rejected"
	AuditDatabaseSyncError     AuditEventType = "database_sync_error"
	AuditPasswordResetRequest  AuditEventType = "password_reset_requested"
	AuditSuspiciousActivity    AuditEventType = "suspicious_activity"
	AuditCaptchaFailed         AuditEventType = "captcha_verification_failed"
	AuditTokenVerificationFail AuditEventType = "token_verification_failed"
)

// AuditLog is append-only: rows are written once and never updated or
// deleted by the workflow.
type AuditLog struct {
	ID        uint           `json:"id" gorm:"primaryKey"`
	EventType AuditEventType `json:"event_type" gorm:"not null;index;size:64"`
	Action    string         `json:"action" gorm:"not null;size:128"`

	SubjectID *string `json:"subject_id" gorm:"index;size:255"`

	IPAddress         string `json:"ip_address" gorm:"size:45"`
	UserAgent         string `json:"user_agent" gorm:"type:text"`
	DeviceFingerprint string `json:"device_fingerprint" gorm:"size:16;index"`

	Success      bool           `json:"success" gorm:"not null;index"`
	ErrorMessage *string        `json:"error_message" gorm:"type:text"`
	Metadata     datatypes.JSON `json:"metadata" gorm:"type:jsonb"`

	CreatedAt time.Time `json:"created_at" gorm:"index"`
}

func (AuditLog) TableName() string {
	return "audit_logs"
}

// DeviceFingerprint derives a coarse correlation key from the request's
// user agent and client IP. It is not a strong identifier.
func DeviceFingerprint(userAgent, ipAddress string) string {
	sum := sha256.Sum256([]byte(userAgent + ":" + ipAddress))
	return hex.EncodeToString(sum[:])[:16]
}
