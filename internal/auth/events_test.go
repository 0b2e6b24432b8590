package auth

import (
	"bytes"
	"context"
	"errors"
	"testing"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

type failingPublisher struct{}

func (failingPublisher) Publish(context.Context, Event) error { return errors.New("broker down") }

func captureLog(t *testing.T) *bytes.Buffer {
	t.Helper()
	var buf bytes.Buffer
	prevLogger, prevLevel := log.Logger, zerolog.GlobalLevel()
	log.Logger = zerolog.New(&buf)
	zerolog.SetGlobalLevel(zerolog.DebugLevel)
	t.Cleanup(func() {
		log.Logger = prevLogger
		zerolog.SetGlobalLevel(prevLevel)
	})
	return &buf
}

func TestPublish_LogsFailedDelivery(t *testing.T) {
	buf := captureLog(t)

	publish(context.Background(), failingPublisher{}, Event{Type: EventStatus})

	assert.Contains(t, buf.String(), "auth event not published")
	assert.Contains(t, buf.String(), `"event":"status_changed"`)
	assert.Contains(t, buf.String(), "broker down")
}

func TestPublish_SilentOnSuccess(t *testing.T) {
	buf := captureLog(t)

	publish(context.Background(), NopPublisher{}, Event{Type: EventLogin})

	assert.Empty(t, buf.String())
}

func TestPasswordHasher_DummyHashUsesConfiguredCost(t *testing.T) {
	for _, cost := range []int{bcrypt.MinCost, bcrypt.MinCost + 1} {
		h := PasswordHasher{Cost: cost}
		got, err := bcrypt.Cost(h.dummyHash())
		require.NoError(t, err)
		assert.Equal(t, cost, got)
	}
}
