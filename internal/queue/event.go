// Package queue defines the auth event payload exchanged over the message
// broker and the consumer that writes it to the audit log.
package queue

import (
	"time"

	"github.com/google/uuid"

	"github.com/iliyamo/course-backoffice/internal/auth"
)

// AuthQueueName is the durable queue carrying auth events.
const AuthQueueName = "auth.events"

// AuthEvent is the wire form of an auth.Event. It carries enough for the
// audit log without querying the primary database and never contains
// credentials or tokens.
type AuthEvent struct {
	EventID     string `json:"event_id"`
	Type        string `json:"type"`
	PrincipalID string `json:"principal_id,omitempty"`
	Username    string `json:"username,omitempty"`
	Role        string `json:"role,omitempty"`
	Reason      string `json:"reason,omitempty"`
	OccurredAt  string `json:"occurred_at"`
}

// NewAuthEvent converts ev into its wire form with a fresh event id.
func NewAuthEvent(ev auth.Event) AuthEvent {
	at := ev.At
	if at.IsZero() {
		at = time.Now().UTC()
	}
	return AuthEvent{
		EventID:     uuid.NewString(),
		Type:        string(ev.Type),
		PrincipalID: ev.PrincipalID,
		Username:    ev.Username,
		Role:        string(ev.Role),
		Reason:      ev.Reason,
		OccurredAt:  at.UTC().Format(time.RFC3339),
	}
}
