// Package conversation implements the assistant chat as a single-slot
// turn-taking state machine: a session accepts one user turn, then refuses
// further input until the reply service has produced the matching assistant
// turn.
package conversation

import (
	"context"
	"errors"
	"strings"
	"sync"
	"time"

	"furniture-assistant/internal/domain"

	"github.com/google/uuid"
	"github.com/sethvargo/go-retry"
	"go.uber.org/zap"
)

const (
	DefaultReplyTimeout = 10 * time.Second
	DefaultRetryBackoff = 200 * time.Millisecond
)

// Failure kinds recorded on error-marked assistant turns
const (
	FailureNetwork         = "network_failure"
	FailureInvalidResponse = "invalid_response"
	FailureTimeout         = "timeout"
)

type options struct {
	replyTimeout time.Duration
	maxRetries   uint64
	retryBackoff time.Duration
	now          func() time.Time
}

// Option configures a Session
type Option func(*options)

// WithReplyTimeout bounds a whole reply, retries included
func WithReplyTimeout(d time.Duration) Option {
	return func(o *options) {
		if d > 0 {
			o.replyTimeout = d
		}
	}
}

// WithRetries retries network failures up to limit times with exponential backoff
func WithRetries(limit uint64, backoff time.Duration) Option {
	return func(o *options) {
		o.maxRetries = limit
		if backoff > 0 {
			o.retryBackoff = backoff
		}
	}
}

// WithClock overrides the time source used for turn timestamps
func WithClock(now func() time.Time) Option {
	return func(o *options) {
		if now != nil {
			o.now = now
		}
	}
}

// Transcript is a point-in-time copy of a session
type Transcript struct {
	SessionID uuid.UUID                 `json:"session_id"`
	State     State                     `json:"state"`
	Turns     []domain.ConversationTurn `json:"turns"`
}

// Session owns one append-only transcript
type Session struct {
	id      uuid.UUID
	replies ReplyService
	logger  *zap.Logger
	opts    options

	mu         sync.Mutex
	state      State
	turns      []domain.ConversationTurn
	idle       chan struct{} // closed whenever no reply is in flight
	lastActive time.Time

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// NewSession creates an idle session seeded with the welcome turn
func NewSession(replies ReplyService, logger *zap.Logger, opts ...Option) *Session {
	o := options{
		replyTimeout: DefaultReplyTimeout,
		retryBackoff: DefaultRetryBackoff,
		now:          time.Now,
	}
	for _, opt := range opts {
		opt(&o)
	}

	idle := make(chan struct{})
	close(idle)

	ctx, cancel := context.WithCancel(context.Background())
	s := &Session{
		id:      uuid.New(),
		replies: replies,
		opts:    o,
		state:   StateIdle,
		idle:    idle,
		ctx:     ctx,
		cancel:  cancel,
	}
	s.logger = logger.With(zap.String("session_id", s.id.String()))
	s.lastActive = o.now()
	s.appendLocked(domain.ConversationTurn{Role: domain.RoleAssistant, Content: WelcomeMessage})

	return s
}

// ID returns the session identifier
func (s *Session) ID() uuid.UUID {
	return s.id
}

// State returns the current state
func (s *Session) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// Submit appends a user turn and starts composing the reply.
// Whitespace-only text yields ErrEmptyInput and a submission while a reply is
// pending yields ErrReplyPending; in both cases nothing is appended.
func (s *Session) Submit(text string) (domain.ConversationTurn, error) {
	if strings.TrimSpace(text) == "" {
		return domain.ConversationTurn{}, ErrEmptyInput
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	switch s.state {
	case StateClosed:
		return domain.ConversationTurn{}, ErrSessionClosed
	case StateAwaitingReply:
		return domain.ConversationTurn{}, ErrReplyPending
	}

	turn := s.appendLocked(domain.ConversationTurn{Role: domain.RoleUser, Content: text})
	s.state = StateAwaitingReply
	s.idle = make(chan struct{})
	s.lastActive = turn.CreatedAt

	s.wg.Add(1)
	go s.complete(text)

	s.logger.Debug("User turn accepted", zap.Int("seq", turn.Seq))
	return turn, nil
}

// Transcript returns a copy of the turns. While a reply is in flight a
// pending assistant placeholder is appended; it is never stored.
func (s *Session) Transcript() Transcript {
	s.mu.Lock()
	defer s.mu.Unlock()

	turns := make([]domain.ConversationTurn, 0, len(s.turns)+1)
	for _, t := range s.turns {
		t.Products = append([]domain.ProductSuggestion(nil), t.Products...)
		turns = append(turns, t)
	}

	if s.state == StateAwaitingReply {
		turns = append(turns, domain.ConversationTurn{
			ID:      uuid.Nil,
			Seq:     len(s.turns) + 1,
			Role:    domain.RoleAssistant,
			Pending: true,
		})
	}

	return Transcript{
		SessionID: s.id,
		State:     s.state,
		Turns:     turns,
	}
}

// Wait blocks until no reply is in flight or ctx is done
func (s *Session) Wait(ctx context.Context) error {
	s.mu.Lock()
	idle := s.idle
	s.mu.Unlock()

	select {
	case <-idle:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// LastActive reports when the session last accepted input and whether it
// is currently idle
func (s *Session) LastActive() (time.Time, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lastActive, s.state == StateIdle
}

// Close tears the session down, cancelling any in-flight reply. It is safe
// to call more than once and returns after the reply goroutine has exited.
func (s *Session) Close() {
	s.mu.Lock()
	if s.state != StateClosed {
		if s.state == StateAwaitingReply {
			close(s.idle)
		}
		s.state = StateClosed
		s.logger.Debug("Session closed")
	}
	s.mu.Unlock()

	s.cancel()
	s.wg.Wait()
}

func (s *Session) complete(query string) {
	defer s.wg.Done()

	reply, err := s.fetchReply(query)

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.state == StateClosed {
		s.logger.Debug("Discarding reply for closed session")
		return
	}

	if err != nil {
		kind := failureKind(err)
		s.logger.Warn("Reply failed", zap.String("kind", kind), zap.Error(err))
		s.appendLocked(domain.ConversationTurn{
			Role:    domain.RoleAssistant,
			Content: FailureMessage,
			Failed:  true,
			Error:   kind,
		})
	} else {
		turn := s.appendLocked(domain.ConversationTurn{
			Role:     domain.RoleAssistant,
			Content:  reply.Content,
			Products: append([]domain.ProductSuggestion(nil), reply.Products...),
		})
		s.logger.Debug("Assistant turn appended",
			zap.Int("seq", turn.Seq),
			zap.Int("products", len(turn.Products)),
		)
	}

	s.state = StateIdle
	close(s.idle)
}

func (s *Session) fetchReply(query string) (domain.Reply, error) {
	ctx, cancel := context.WithTimeout(s.ctx, s.opts.replyTimeout)
	defer cancel()

	backoff := retry.WithMaxRetries(s.opts.maxRetries, retry.NewExponential(s.opts.retryBackoff))

	return retry.DoValue(ctx, backoff, func(ctx context.Context) (domain.Reply, error) {
		reply, err := s.replies.SubmitQuery(ctx, query)
		if err == nil && strings.TrimSpace(reply.Content) == "" {
			err = ErrInvalidResponse
		}
		if errors.Is(err, ErrNetworkFailure) {
			s.logger.Debug("Retrying reply", zap.Error(err))
			return domain.Reply{}, retry.RetryableError(err)
		}
		return reply, err
	})
}

// appendLocked stamps and stores a turn; s.mu must be held
func (s *Session) appendLocked(turn domain.ConversationTurn) domain.ConversationTurn {
	id, err := uuid.NewV7()
	if err != nil {
		id = uuid.New()
	}
	turn.ID = id
	turn.Seq = len(s.turns) + 1
	turn.CreatedAt = s.opts.now()
	s.turns = append(s.turns, turn)
	return turn
}

func failureKind(err error) string {
	switch {
	case errors.Is(err, ErrInvalidResponse):
		return FailureInvalidResponse
	case errors.Is(err, context.DeadlineExceeded):
		return FailureTimeout
	default:
		return FailureNetwork
	}
}
