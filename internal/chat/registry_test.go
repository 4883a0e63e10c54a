package chat

import (
	"context"
	"testing"

	"passprint-service/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestRegistry() *Registry {
	return NewRegistry(nil, nil, nil, Options{})
}

func TestCreateSessionStartsWaitingWithWelcome(t *testing.T) {
	r := newTestRegistry()
	ctx := context.Background()

	sessionID := r.CreateSession(ctx, "c1", "Ann", "ann@x.com")
	require.NotEmpty(t, sessionID)

	session, err := r.Session(sessionID)
	require.NoError(t, err)
	assert.Equal(t, models.SessionStatusWaiting, session.Status)
	assert.Equal(t, "Ann", session.CustomerName)

	require.Len(t, session.Messages, 1)
	assert.Equal(t, models.SenderTypeSystem, session.Messages[0].SenderType)
	assert.Equal(t, models.MessageTypeSystem, session.Messages[0].MessageType)

	waiting := r.WaitingSessions()
	require.Len(t, waiting, 1)
	assert.Equal(t, sessionID, waiting[0].SessionID)
}

func TestWaitingQueueIsFIFO(t *testing.T) {
	r := newTestRegistry()
	ctx := context.Background()

	first := r.CreateSession(ctx, "c1", "Ann", "ann@x.com")
	second := r.CreateSession(ctx, "c2", "Bob", "bob@x.com")
	third := r.CreateSession(ctx, "c3", "Cid", "cid@x.com")

	waiting := r.WaitingSessions()
	require.Len(t, waiting, 3)
	assert.Equal(t, first, waiting[0].SessionID)
	assert.Equal(t, second, waiting[1].SessionID)
	assert.Equal(t, third, waiting[2].SessionID)
}

func TestAssignAdminActivatesSession(t *testing.T) {
	r := newTestRegistry()
	ctx := context.Background()

	sessionID := r.CreateSession(ctx, "c1", "Ann", "ann@x.com")

	require.NoError(t, r.AssignAdmin(ctx, sessionID, "a1", "Max"))

	session, err := r.Session(sessionID)
	require.NoError(t, err)
	assert.Equal(t, models.SessionStatusActive, session.Status)
	assert.Equal(t, "a1", session.AssignedAdmin)

	// Welcome plus exactly one admin greeting.
	require.Len(t, session.Messages, 2)
	assert.Equal(t, models.SenderTypeAdmin, session.Messages[1].SenderType)

	assert.Empty(t, r.WaitingSessions())

	assert.ErrorIs(t, r.AssignAdmin(ctx, "missing", "a1", "Max"), ErrSessionNotFound)
}

func TestAdminHoldsMultipleSessions(t *testing.T) {
	r := newTestRegistry()
	ctx := context.Background()

	first := r.CreateSession(ctx, "c1", "Ann", "ann@x.com")
	second := r.CreateSession(ctx, "c2", "Bob", "bob@x.com")

	require.NoError(t, r.AssignAdmin(ctx, first, "a1", "Max"))
	require.NoError(t, r.AssignAdmin(ctx, second, "a1", "Max"))

	sessions := r.AdminSessions("a1")
	require.Len(t, sessions, 2)

	require.NoError(t, r.CloseSession(ctx, first))
	sessions = r.AdminSessions("a1")
	require.Len(t, sessions, 1)
	assert.Equal(t, second, sessions[0].SessionID)
}

func TestSendMessageToUnknownSession(t *testing.T) {
	r := newTestRegistry()

	_, err := r.SendMessage(context.Background(), "missing", "c1", "Ann", "hello", models.SenderTypeUser)
	assert.ErrorIs(t, err, ErrSessionNotFound)
}

func TestSendMessageToClosedSession(t *testing.T) {
	r := newTestRegistry()
	ctx := context.Background()

	sessionID := r.CreateSession(ctx, "c1", "Ann", "ann@x.com")
	require.NoError(t, r.CloseSession(ctx, sessionID))

	before, err := r.Messages(sessionID, 0)
	require.NoError(t, err)

	_, err = r.SendMessage(ctx, sessionID, "c1", "Ann", "anyone there?", models.SenderTypeUser)
	assert.ErrorIs(t, err, ErrSessionClosed)

	// The rejected message must not be appended.
	after, err := r.Messages(sessionID, 0)
	require.NoError(t, err)
	assert.Equal(t, before.TotalMessages, after.TotalMessages)
}

func TestUserMessageWithoutAdminKeepsWaiting(t *testing.T) {
	r := newTestRegistry()
	ctx := context.Background()

	sessionID := r.CreateSession(ctx, "c1", "Ann", "ann@x.com")

	message, err := r.SendMessage(ctx, sessionID, "c1", "Ann", "I need 200 flyers", models.SenderTypeUser)
	require.NoError(t, err)
	assert.Equal(t, models.SenderTypeUser, message.SenderType)
	assert.Equal(t, models.MessageTypeText, message.MessageType)

	session, err := r.Session(sessionID)
	require.NoError(t, err)
	assert.Equal(t, models.SessionStatusWaiting, session.Status)
}

func TestSessionLifecycleEndToEnd(t *testing.T) {
	r := newTestRegistry()
	ctx := context.Background()

	sessionID := r.CreateSession(ctx, "c1", "Ann", "ann@x.com")

	_, err := r.SendMessage(ctx, sessionID, "c1", "Ann", "I need a quote", models.SenderTypeUser)
	require.NoError(t, err)

	require.NoError(t, r.AssignAdmin(ctx, sessionID, "a1", "Max"))
	require.NoError(t, r.CloseSession(ctx, sessionID))

	session, err := r.Session(sessionID)
	require.NoError(t, err)
	assert.Equal(t, models.SessionStatusClosed, session.Status)

	// Welcome, user message, admin greeting, close notice, in order.
	require.Len(t, session.Messages, 4)
	assert.Equal(t, models.SenderTypeSystem, session.Messages[0].SenderType)
	assert.Equal(t, models.SenderTypeUser, session.Messages[1].SenderType)
	assert.Equal(t, models.SenderTypeAdmin, session.Messages[2].SenderType)
	assert.Equal(t, models.SenderTypeSystem, session.Messages[3].SenderType)
	assert.Equal(t, models.MessageTypeSystem, session.Messages[3].MessageType)
}

func TestMessagesLimit(t *testing.T) {
	r := newTestRegistry()
	ctx := context.Background()

	sessionID := r.CreateSession(ctx, "c1", "Ann", "ann@x.com")
	for i := 0; i < 5; i++ {
		_, err := r.SendMessage(ctx, sessionID, "c1", "Ann", "msg", models.SenderTypeUser)
		require.NoError(t, err)
	}

	view, err := r.Messages(sessionID, 2)
	require.NoError(t, err)

	assert.Equal(t, 6, view.TotalMessages)
	assert.Equal(t, models.SessionStatusWaiting, view.Status)
	require.Len(t, view.Messages, 2)
	// Newest retained, oldest dropped.
	assert.Equal(t, models.SenderTypeUser, view.Messages[0].SenderType)
	assert.Equal(t, models.SenderTypeUser, view.Messages[1].SenderType)

	_, err = r.Messages("missing", 2)
	assert.ErrorIs(t, err, ErrSessionNotFound)
}

func TestMarkMessagesRead(t *testing.T) {
	r := newTestRegistry()
	ctx := context.Background()

	sessionID := r.CreateSession(ctx, "c1", "Ann", "ann@x.com")
	_, err := r.SendMessage(ctx, sessionID, "c1", "Ann", "hello", models.SenderTypeUser)
	require.NoError(t, err)
	require.NoError(t, r.AssignAdmin(ctx, sessionID, "a1", "Max"))

	require.NoError(t, r.MarkMessagesRead(sessionID, "c1"))

	session, err := r.Session(sessionID)
	require.NoError(t, err)
	for _, msg := range session.Messages {
		if msg.SenderID == "c1" {
			assert.False(t, msg.IsRead, "own message must stay unread")
		} else {
			assert.True(t, msg.IsRead, "foreign message must be marked read")
		}
	}

	assert.ErrorIs(t, r.MarkMessagesRead("missing", "c1"), ErrSessionNotFound)
}

func TestGetStats(t *testing.T) {
	r := newTestRegistry()
	ctx := context.Background()

	r.CreateSession(ctx, "c1", "Ann", "ann@x.com")
	active := r.CreateSession(ctx, "c2", "Bob", "bob@x.com")
	closed := r.CreateSession(ctx, "c3", "Cid", "cid@x.com")

	require.NoError(t, r.AssignAdmin(ctx, active, "a1", "Max"))
	require.NoError(t, r.CloseSession(ctx, closed))

	stats := r.GetStats()
	assert.Equal(t, 3, stats.TotalSessions)
	assert.Equal(t, 1, stats.WaitingSessions)
	assert.Equal(t, 1, stats.ActiveSessions)
	assert.Equal(t, 1, stats.ClosedSessions)
	// 3 welcomes + 1 greeting + 1 close notice.
	assert.Equal(t, 5, stats.TotalMessages)
}
