package auth

import (
	"context"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/iliyamo/course-backoffice/internal/model"
)

// EventType names a session lifecycle event.
type EventType string

const (
	EventRegistered  EventType = "registered"
	EventLogin       EventType = "login"
	EventLoginFailed EventType = "login_failed"
	EventRefresh     EventType = "refresh"
	EventLogout      EventType = "logout"
	EventLogoutAll   EventType = "logout_all"
	EventStatus      EventType = "status_changed"
	EventPassword    EventType = "password_changed"
)

// Event describes something that happened to a session. It never carries
// tokens or passwords.
type Event struct {
	Type        EventType
	PrincipalID string
	Username    string
	Role        model.Role
	Reason      string
	At          time.Time
}

// EventPublisher delivers events to an audit sink. Publishing is best
// effort: callers ignore the returned error apart from logging it.
type EventPublisher interface {
	Publish(ctx context.Context, ev Event) error
}

// NopPublisher discards every event.
type NopPublisher struct{}

func (NopPublisher) Publish(context.Context, Event) error { return nil }

// publish hands ev to pub and logs a failed delivery at debug level.
func publish(ctx context.Context, pub EventPublisher, ev Event) {
	if err := pub.Publish(ctx, ev); err != nil {
		log.Debug().Err(err).Str("event", string(ev.Type)).Msg("auth event not published")
	}
}
