package service

import (
	"context"
	"errors"
	"sync"
	"time"

	"furniture-assistant/internal/conversation"
	"furniture-assistant/internal/domain"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

var (
	ErrSessionNotFound = errors.New("conversation not found")
)

// ConversationService owns the registry of live assistant sessions
type ConversationService interface {
	Create(ctx context.Context) (conversation.Transcript, error)
	Transcript(ctx context.Context, id uuid.UUID) (conversation.Transcript, error)
	Wait(ctx context.Context, id uuid.UUID) (conversation.Transcript, error)
	Submit(ctx context.Context, id uuid.UUID, text string) (domain.ConversationTurn, error)
	Close(ctx context.Context, id uuid.UUID) error
	EvictIdle(ctx context.Context) int
	RunEviction(ctx context.Context, interval time.Duration)
	Shutdown(ctx context.Context) error
}

type conversationService struct {
	replies conversation.ReplyService
	opts    []conversation.Option
	ttl     time.Duration
	now     func() time.Time
	logger  *zap.Logger

	mu       sync.RWMutex
	sessions map[uuid.UUID]*conversation.Session
}

// NewConversationService creates a registry whose sessions share one reply service.
// A zero ttl disables idle eviction.
func NewConversationService(
	replies conversation.ReplyService,
	ttl time.Duration,
	logger *zap.Logger,
	opts ...conversation.Option,
) ConversationService {
	return &conversationService{
		replies:  replies,
		opts:     opts,
		ttl:      ttl,
		now:      time.Now,
		logger:   logger,
		sessions: make(map[uuid.UUID]*conversation.Session),
	}
}

// Create starts a new session seeded with the welcome turn
func (s *conversationService) Create(ctx context.Context) (conversation.Transcript, error) {
	if err := ctx.Err(); err != nil {
		return conversation.Transcript{}, err
	}

	session := conversation.NewSession(s.replies, s.logger, s.opts...)

	s.mu.Lock()
	s.sessions[session.ID()] = session
	active := len(s.sessions)
	s.mu.Unlock()

	s.logger.Info("Conversation created",
		zap.String("session_id", session.ID().String()),
		zap.Int("active_sessions", active),
	)

	return session.Transcript(), nil
}

// Transcript returns the current snapshot of a session
func (s *conversationService) Transcript(ctx context.Context, id uuid.UUID) (conversation.Transcript, error) {
	session, err := s.get(id)
	if err != nil {
		return conversation.Transcript{}, err
	}
	return session.Transcript(), nil
}

// Wait blocks until the session has no reply in flight or ctx is done, then
// returns the snapshot. A ctx deadline is not an error.
func (s *conversationService) Wait(ctx context.Context, id uuid.UUID) (conversation.Transcript, error) {
	session, err := s.get(id)
	if err != nil {
		return conversation.Transcript{}, err
	}

	if err := session.Wait(ctx); err != nil && !errors.Is(err, context.DeadlineExceeded) {
		return conversation.Transcript{}, err
	}
	return session.Transcript(), nil
}

// Submit forwards a user message to the session
func (s *conversationService) Submit(ctx context.Context, id uuid.UUID, text string) (domain.ConversationTurn, error) {
	session, err := s.get(id)
	if err != nil {
		return domain.ConversationTurn{}, err
	}
	return session.Submit(text)
}

// Close tears the session down. With a ttl the closed session is kept until
// eviction so later requests see ErrSessionClosed; without one it is forgotten.
// Closing an already closed session is a no-op.
func (s *conversationService) Close(ctx context.Context, id uuid.UUID) error {
	s.mu.Lock()
	session, ok := s.sessions[id]
	if ok && s.ttl <= 0 {
		delete(s.sessions, id)
	}
	s.mu.Unlock()

	if !ok {
		return ErrSessionNotFound
	}

	session.Close()
	s.logger.Info("Conversation closed", zap.String("session_id", id.String()))
	return nil
}

// EvictIdle drops idle or closed sessions whose last activity is older than
// the ttl and returns how many were evicted. Sessions awaiting a reply stay.
func (s *conversationService) EvictIdle(ctx context.Context) int {
	if s.ttl <= 0 {
		return 0
	}
	cutoff := s.now().Add(-s.ttl)

	var expired []*conversation.Session
	s.mu.Lock()
	for id, session := range s.sessions {
		lastActive, _ := session.LastActive()
		if session.State() != conversation.StateAwaitingReply && lastActive.Before(cutoff) {
			expired = append(expired, session)
			delete(s.sessions, id)
		}
	}
	s.mu.Unlock()

	for _, session := range expired {
		session.Close()
	}

	if len(expired) > 0 {
		s.logger.Info("Evicted idle conversations", zap.Int("count", len(expired)))
	}
	return len(expired)
}

// RunEviction calls EvictIdle every interval until ctx is done
func (s *conversationService) RunEviction(ctx context.Context, interval time.Duration) {
	if s.ttl <= 0 || interval <= 0 {
		return
	}

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.EvictIdle(ctx)
		}
	}
}

// Shutdown closes every session concurrently
func (s *conversationService) Shutdown(ctx context.Context) error {
	s.mu.Lock()
	sessions := make([]*conversation.Session, 0, len(s.sessions))
	for _, session := range s.sessions {
		sessions = append(sessions, session)
	}
	s.sessions = make(map[uuid.UUID]*conversation.Session)
	s.mu.Unlock()

	g, gctx := errgroup.WithContext(ctx)
	for _, session := range sessions {
		g.Go(func() error {
			done := make(chan struct{})
			go func() {
				session.Close()
				close(done)
			}()

			select {
			case <-done:
				return nil
			case <-gctx.Done():
				return gctx.Err()
			}
		})
	}

	if err := g.Wait(); err != nil {
		s.logger.Error("Conversation shutdown incomplete", zap.Error(err))
		return err
	}

	s.logger.Info("Conversations shut down", zap.Int("closed", len(sessions)))
	return nil
}

func (s *conversationService) get(id uuid.UUID) (*conversation.Session, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	session, ok := s.sessions[id]
	if !ok {
		return nil, ErrSessionNotFound
	}
	return session, nil
}
