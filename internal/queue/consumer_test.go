package queue

import (
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iliyamo/course-backoffice/internal/auth"
	"github.com/iliyamo/course-backoffice/internal/model"
)

func TestNewAuthEvent(t *testing.T) {
	at := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	ev := NewAuthEvent(auth.Event{
		Type:        auth.EventLogin,
		PrincipalID: "p-1",
		Username:    "alice",
		Role:        model.RoleUser,
		At:          at,
	})
	assert.NotEmpty(t, ev.EventID)
	assert.Equal(t, "login", ev.Type)
	assert.Equal(t, "USER", ev.Role)
	assert.Equal(t, "2026-03-01T12:00:00Z", ev.OccurredAt)

	other := NewAuthEvent(auth.Event{Type: auth.EventLogin})
	assert.NotEqual(t, ev.EventID, other.EventID)
	assert.NotEmpty(t, other.OccurredAt)
}

func TestHandleMessage_AppendsLines(t *testing.T) {
	path := filepath.Join(t.TempDir(), "logs", "auth_audit.log")

	for _, typ := range []string{"login", "logout"} {
		body, err := json.Marshal(AuthEvent{EventID: "e-" + typ, Type: typ, Username: "alice", OccurredAt: "2026-03-01T12:00:00Z"})
		require.NoError(t, err)
		require.NoError(t, HandleMessage(body, path))
	}

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	lines := strings.Split(strings.TrimSpace(string(data)), "\n")
	require.Len(t, lines, 2)
	assert.Equal(t, `[2026-03-01T12:00:00Z] login | event_id=e-login | username="alice"`, lines[0])
	assert.Contains(t, lines[1], "logout")
}

func TestHandleMessage_RejectsBadPayload(t *testing.T) {
	path := filepath.Join(t.TempDir(), "audit.log")
	assert.Error(t, HandleMessage([]byte("{not json"), path))
	assert.Error(t, HandleMessage([]byte(`{"event_id":"x"}`), path))
	_, err := os.Stat(path)
	assert.True(t, os.IsNotExist(err))
}

func TestFormatLine_OmitsEmptyFields(t *testing.T) {
	line := FormatLine(AuthEvent{OccurredAt: "t", Type: "login_failed", EventID: "e", Role: "ADMIN", Reason: "bad_credentials"})
	assert.Equal(t, "[t] login_failed | event_id=e | role=ADMIN | reason=bad_credentials\n", line)
}
