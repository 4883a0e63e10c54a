package chat

import (
	"context"
	"fmt"
	"sync"
	"time"

	"passprint-service/internal/models"
	"passprint-service/internal/util"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

const systemSenderName = "PassPrint"

// EventPublisher publishes chat lifecycle events
type EventPublisher interface {
	PublishChatSessionOpened(ctx context.Context, event *models.ChatSessionOpenedEvent) error
	PublishChatMessageSent(ctx context.Context, event *models.ChatMessageSentEvent) error
	PublishChatSessionClosed(ctx context.Context, event *models.ChatSessionClosedEvent) error
}

// RealtimePublisher fans appended messages out to connected dashboards
type RealtimePublisher interface {
	PublishChatMessage(ctx context.Context, sessionID string, message interface{}) error
}

// Registry owns chat session state: the session map, the FIFO waiting queue,
// and the admin assignment sets. All state is in memory and guarded by one
// mutex shared between foreground calls and the background sweeper.
type Registry struct {
	mu            sync.Mutex
	sessions      map[string]*models.ChatSession
	waiting       []string
	adminSessions map[string]map[string]struct{}

	events       EventPublisher
	realtime     RealtimePublisher
	newBaseEvent func(string) models.BaseEvent
	logger       *zap.Logger

	defaultMessageCap int

	now func() time.Time
}

// Options tunes registry behavior; zero values fall back to defaults
type Options struct {
	DefaultMessageCap int
}

// NewRegistry creates a chat session registry. Events and realtime may be
// nil, in which case publishing is skipped.
func NewRegistry(events EventPublisher, realtime RealtimePublisher, newBaseEvent func(string) models.BaseEvent, opts Options) *Registry {
	if opts.DefaultMessageCap <= 0 {
		opts.DefaultMessageCap = 50
	}
	if newBaseEvent == nil {
		newBaseEvent = func(eventType string) models.BaseEvent {
			return models.BaseEvent{EventType: eventType, Timestamp: time.Now().UTC()}
		}
	}

	return &Registry{
		sessions:          make(map[string]*models.ChatSession),
		adminSessions:     make(map[string]map[string]struct{}),
		events:            events,
		realtime:          realtime,
		newBaseEvent:      newBaseEvent,
		logger:            util.GetLogger(),
		defaultMessageCap: opts.DefaultMessageCap,
		now:               time.Now,
	}
}

// CreateSession opens a new session in waiting state with a system welcome
// message and enqueues it FIFO for admin pickup
func (r *Registry) CreateSession(ctx context.Context, customerID, customerName, customerEmail string) string {
	sessionID := uuid.New().String()

	r.mu.Lock()
	now := r.now()
	session := &models.ChatSession{
		SessionID:     sessionID,
		CustomerID:    customerID,
		CustomerName:  customerName,
		CustomerEmail: customerEmail,
		Status:        models.SessionStatusWaiting,
		CreatedAt:     now,
		LastActivity:  now,
	}
	r.appendMessageLocked(session, models.ChatMessage{
		ID:          uuid.New().String(),
		SenderID:    "system",
		SenderName:  systemSenderName,
		SenderType:  models.SenderTypeSystem,
		Body:        fmt.Sprintf("Hello %s! An advisor will be with you shortly. In the meantime, feel free to describe your print project.", customerName),
		Timestamp:   now,
		MessageType: models.MessageTypeSystem,
	})
	r.sessions[sessionID] = session
	r.waiting = append(r.waiting, sessionID)
	r.mu.Unlock()

	util.ChatSessionsCreatedTotal.Inc()
	r.logger.Info("Chat session created",
		zap.String("session_id", sessionID),
		zap.String("customer_id", customerID))

	if r.events != nil {
		event := &models.ChatSessionOpenedEvent{
			BaseEvent:    r.newBaseEvent(models.EventTypeChatSessionOpened),
			SessionID:    sessionID,
			CustomerID:   customerID,
			CustomerName: customerName,
		}
		if err := r.events.PublishChatSessionOpened(ctx, event); err != nil {
			r.logger.Error("Failed to publish ChatSessionOpened event", zap.Error(err))
		}
	}

	return sessionID
}

// SendMessage appends a message to a session and bumps its activity. Sending
// to a closed session fails without appending anything.
func (r *Registry) SendMessage(ctx context.Context, sessionID, senderID, senderName, body, senderType string) (*models.ChatMessage, error) {
	if senderType == "" {
		senderType = models.SenderTypeUser
	}

	r.mu.Lock()
	session, ok := r.sessions[sessionID]
	if !ok {
		r.mu.Unlock()
		return nil, fmt.Errorf("%w: %s", ErrSessionNotFound, sessionID)
	}
	if session.Status == models.SessionStatusClosed {
		r.mu.Unlock()
		return nil, fmt.Errorf("%w: %s", ErrSessionClosed, sessionID)
	}

	message := models.ChatMessage{
		ID:          uuid.New().String(),
		SenderID:    senderID,
		SenderName:  senderName,
		SenderType:  senderType,
		Body:        body,
		Timestamp:   r.now(),
		MessageType: models.MessageTypeText,
	}
	r.appendMessageLocked(session, message)

	// A customer message with nobody assigned keeps the session queued.
	if senderType == models.SenderTypeUser && session.AssignedAdmin == "" {
		session.Status = models.SessionStatusWaiting
	}
	r.mu.Unlock()

	util.ChatMessagesTotal.WithLabelValues(senderType).Inc()
	r.publishMessage(ctx, sessionID, &message)

	return &message, nil
}

// AssignAdmin moves a session out of the waiting queue, marks it active, and
// appends the admin's greeting. One admin may hold several sessions at once.
func (r *Registry) AssignAdmin(ctx context.Context, sessionID, adminID, adminName string) error {
	r.mu.Lock()
	session, ok := r.sessions[sessionID]
	if !ok {
		r.mu.Unlock()
		return fmt.Errorf("%w: %s", ErrSessionNotFound, sessionID)
	}

	r.removeWaitingLocked(sessionID)
	session.AssignedAdmin = adminID
	session.Status = models.SessionStatusActive

	if r.adminSessions[adminID] == nil {
		r.adminSessions[adminID] = make(map[string]struct{})
	}
	r.adminSessions[adminID][sessionID] = struct{}{}

	greeting := models.ChatMessage{
		ID:          uuid.New().String(),
		SenderID:    adminID,
		SenderName:  adminName,
		SenderType:  models.SenderTypeAdmin,
		Body:        fmt.Sprintf("Hello! I'm %s, your PassPrint advisor. How can I help you with your print project?", adminName),
		Timestamp:   r.now(),
		MessageType: models.MessageTypeText,
	}
	r.appendMessageLocked(session, greeting)
	r.mu.Unlock()

	r.logger.Info("Admin assigned to chat session",
		zap.String("session_id", sessionID),
		zap.String("admin_id", adminID))

	r.publishMessage(ctx, sessionID, &greeting)
	return nil
}

// CloseSession closes a session explicitly
func (r *Registry) CloseSession(ctx context.Context, sessionID string) error {
	r.mu.Lock()
	session, ok := r.sessions[sessionID]
	if !ok {
		r.mu.Unlock()
		return fmt.Errorf("%w: %s", ErrSessionNotFound, sessionID)
	}
	r.closeLocked(session, "This conversation has been closed. Thank you for using our chat service!")
	r.mu.Unlock()

	r.sessionClosed(ctx, sessionID, "closed")
	return nil
}

// closeLocked transitions a session to closed: detaches it from its admin and
// the waiting queue and appends the system close notice. Caller holds the lock.
func (r *Registry) closeLocked(session *models.ChatSession, notice string) {
	session.Status = models.SessionStatusClosed
	r.removeWaitingLocked(session.SessionID)

	for adminID, ids := range r.adminSessions {
		if _, ok := ids[session.SessionID]; ok {
			delete(ids, session.SessionID)
			if len(ids) == 0 {
				delete(r.adminSessions, adminID)
			}
		}
	}

	r.appendMessageLocked(session, models.ChatMessage{
		ID:          uuid.New().String(),
		SenderID:    "system",
		SenderName:  systemSenderName,
		SenderType:  models.SenderTypeSystem,
		Body:        notice,
		Timestamp:   r.now(),
		MessageType: models.MessageTypeSystem,
	})
}

func (r *Registry) sessionClosed(ctx context.Context, sessionID, reason string) {
	util.ChatSessionsClosedTotal.WithLabelValues(reason).Inc()
	r.logger.Info("Chat session closed",
		zap.String("session_id", sessionID),
		zap.String("reason", reason))

	if r.events == nil {
		return
	}
	event := &models.ChatSessionClosedEvent{
		BaseEvent: r.newBaseEvent(models.EventTypeChatSessionClosed),
		SessionID: sessionID,
		Reason:    reason,
	}
	if err := r.events.PublishChatSessionClosed(ctx, event); err != nil {
		r.logger.Error("Failed to publish ChatSessionClosed event", zap.Error(err))
	}
}

// SessionMessages is the read-side view of a session's message log
type SessionMessages struct {
	SessionID     string               `json:"session_id"`
	Messages      []models.ChatMessage `json:"messages"`
	TotalMessages int                  `json:"total_messages"`
	Status        string               `json:"status"`
}

// Messages returns the most recent limit messages plus total count and status
func (r *Registry) Messages(sessionID string, limit int) (*SessionMessages, error) {
	if limit <= 0 {
		limit = r.defaultMessageCap
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	session, ok := r.sessions[sessionID]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrSessionNotFound, sessionID)
	}

	total := len(session.Messages)
	if limit > total {
		limit = total
	}
	messages := make([]models.ChatMessage, limit)
	copy(messages, session.Messages[total-limit:])

	return &SessionMessages{
		SessionID:     sessionID,
		Messages:      messages,
		TotalMessages: total,
		Status:        session.Status,
	}, nil
}

// MarkMessagesRead marks as read every message not authored by userID
func (r *Registry) MarkMessagesRead(sessionID, userID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	session, ok := r.sessions[sessionID]
	if !ok {
		return fmt.Errorf("%w: %s", ErrSessionNotFound, sessionID)
	}

	for i := range session.Messages {
		if session.Messages[i].SenderID != userID {
			session.Messages[i].IsRead = true
		}
	}
	return nil
}

// Session returns a copy of a session, including its messages
func (r *Registry) Session(sessionID string) (*models.ChatSession, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	session, ok := r.sessions[sessionID]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrSessionNotFound, sessionID)
	}
	return copySession(session), nil
}

// WaitingSessions returns queued sessions in FIFO creation order
func (r *Registry) WaitingSessions() []models.ChatSession {
	r.mu.Lock()
	defer r.mu.Unlock()

	out := make([]models.ChatSession, 0, len(r.waiting))
	for _, id := range r.waiting {
		if session, ok := r.sessions[id]; ok {
			out = append(out, *copySession(session))
		}
	}
	return out
}

// AdminSessions returns the sessions currently assigned to an admin
func (r *Registry) AdminSessions(adminID string) []models.ChatSession {
	r.mu.Lock()
	defer r.mu.Unlock()

	ids := r.adminSessions[adminID]
	out := make([]models.ChatSession, 0, len(ids))
	for id := range ids {
		if session, ok := r.sessions[id]; ok {
			out = append(out, *copySession(session))
		}
	}
	return out
}

// Stats aggregates session counts by status plus the total message count
type Stats struct {
	TotalSessions   int `json:"total_sessions"`
	ActiveSessions  int `json:"active_sessions"`
	WaitingSessions int `json:"waiting_sessions"`
	ClosedSessions  int `json:"closed_sessions"`
	TotalMessages   int `json:"total_messages"`
}

// GetStats returns the current chat statistics
func (r *Registry) GetStats() Stats {
	r.mu.Lock()
	defer r.mu.Unlock()

	stats := Stats{
		TotalSessions:   len(r.sessions),
		WaitingSessions: len(r.waiting),
	}
	for _, session := range r.sessions {
		switch session.Status {
		case models.SessionStatusActive:
			stats.ActiveSessions++
		case models.SessionStatusClosed:
			stats.ClosedSessions++
		}
		stats.TotalMessages += len(session.Messages)
	}
	return stats
}

// appendMessageLocked appends a message and bumps LastActivity. Caller holds
// the lock.
func (r *Registry) appendMessageLocked(session *models.ChatSession, message models.ChatMessage) {
	session.Messages = append(session.Messages, message)
	session.LastActivity = message.Timestamp
}

func (r *Registry) removeWaitingLocked(sessionID string) {
	for i, id := range r.waiting {
		if id == sessionID {
			r.waiting = append(r.waiting[:i], r.waiting[i+1:]...)
			return
		}
	}
}

func (r *Registry) publishMessage(ctx context.Context, sessionID string, message *models.ChatMessage) {
	if r.events != nil {
		event := &models.ChatMessageSentEvent{
			BaseEvent:  r.newBaseEvent(models.EventTypeChatMessageSent),
			SessionID:  sessionID,
			MessageID:  message.ID,
			SenderID:   message.SenderID,
			SenderType: message.SenderType,
		}
		if err := r.events.PublishChatMessageSent(ctx, event); err != nil {
			r.logger.Error("Failed to publish ChatMessageSent event", zap.Error(err))
		}
	}

	if r.realtime != nil {
		if err := r.realtime.PublishChatMessage(ctx, sessionID, message); err != nil {
			r.logger.Warn("Failed to publish realtime chat message", zap.Error(err))
		}
	}
}

func copySession(session *models.ChatSession) *models.ChatSession {
	out := *session
	out.Messages = make([]models.ChatMessage, len(session.Messages))
	copy(out.Messages, session.Messages)
	return &out
}
