// Package queue defines message payloads exchanged over the message broker
// and the consumer that hands them to a delivery backend.
package queue

import (
	"time"

	"github.com/google/uuid"
)

// Notification kinds.
const (
	KindOTPRequested  = "otp.requested"
	KindEmailVerified = "email.verified"
)

// NotificationEvent asks the mailer to contact a principal.  Code is only set
// for OTP requests.
type NotificationEvent struct {
	ID          string    `json:"id"`
	Kind        string    `json:"kind"`
	PrincipalID uint64    `json:"principal_id"`
	Email       string    `json:"email"`
	Code        string    `json:"code,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
}

// NewNotification stamps an event with a fresh id and the current time.
func NewNotification(kind string, principalID uint64, email, code string) NotificationEvent {
	return NotificationEvent{
		ID:          uuid.NewString(),
		Kind:        kind,
		PrincipalID: principalID,
		Email:       email,
		Code:        code,
		CreatedAt:   time.Now().UTC(),
	}
}
