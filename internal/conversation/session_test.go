package conversation

import (
	"context"
	"errors"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"furniture-assistant/internal/domain"

	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
	"go.uber.org/zap"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

// replyFunc adapts a function to ReplyService
type replyFunc func(ctx context.Context, query string) (domain.Reply, error)

func (f replyFunc) SubmitQuery(ctx context.Context, query string) (domain.Reply, error) {
	return f(ctx, query)
}

func instantReply() replyFunc {
	return func(ctx context.Context, query string) (domain.Reply, error) {
		return domain.Reply{Content: Acknowledgement, Products: DefaultSuggestions()}, nil
	}
}

// blockingReply blocks until release is closed or ctx is done
func blockingReply(release <-chan struct{}) replyFunc {
	return func(ctx context.Context, query string) (domain.Reply, error) {
		select {
		case <-release:
			return domain.Reply{Content: Acknowledgement, Products: DefaultSuggestions()}, nil
		case <-ctx.Done():
			return domain.Reply{}, ctx.Err()
		}
	}
}

func newTestSession(t *testing.T, replies ReplyService, opts ...Option) *Session {
	t.Helper()
	s := NewSession(replies, zap.NewNop(), opts...)
	t.Cleanup(s.Close)
	return s
}

func waitIdle(t *testing.T, s *Session) {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	require.NoError(t, s.Wait(ctx))
}

func TestNewSession_SeedsWelcomeTurn(t *testing.T) {
	s := newTestSession(t, instantReply())

	transcript := s.Transcript()
	require.Len(t, transcript.Turns, 1)
	assert.Equal(t, StateIdle, transcript.State)
	assert.Equal(t, s.ID(), transcript.SessionID)

	welcome := transcript.Turns[0]
	assert.Equal(t, domain.RoleAssistant, welcome.Role)
	assert.Equal(t, WelcomeMessage, welcome.Content)
	assert.Equal(t, 1, welcome.Seq)
	assert.False(t, welcome.Pending)
	assert.Empty(t, welcome.Products)
}

func TestSubmit_AppendsUserThenAssistantTurn(t *testing.T) {
	s := newTestSession(t, NewSimulatedReplyService(5*time.Millisecond))

	query := "small modern living room, budget $1500"
	userTurn, err := s.Submit(query)
	require.NoError(t, err)
	assert.Equal(t, domain.RoleUser, userTurn.Role)
	assert.Equal(t, query, userTurn.Content)

	waitIdle(t, s)

	transcript := s.Transcript()
	require.Len(t, transcript.Turns, 3)
	assert.Equal(t, StateIdle, transcript.State)

	user, assistant := transcript.Turns[1], transcript.Turns[2]
	assert.Equal(t, userTurn.ID, user.ID)
	assert.Equal(t, domain.RoleAssistant, assistant.Role)
	assert.Equal(t, Acknowledgement, assistant.Content)
	assert.Less(t, user.Seq, assistant.Seq)
	assert.False(t, assistant.Failed)

	require.Len(t, assistant.Products, 3)
	assert.Equal(t, "Modern Minimalist Sofa", assistant.Products[0].Name)
	assert.Equal(t, "Scandinavian Coffee Table", assistant.Products[1].Name)
	assert.Equal(t, "Industrial Floor Lamp", assistant.Products[2].Name)
}

// Property: whitespace-only input never changes the transcript
func TestProperty_EmptyInputIsNoOp(t *testing.T) {
	s := newTestSession(t, instantReply())
	before := s.Transcript()

	properties := gopter.NewProperties(nil)

	properties.Property("whitespace submissions are ignored", prop.ForAll(
		func(spaces, tabs, newlines int) bool {
			text := strings.Repeat(" ", spaces) + strings.Repeat("\t", tabs) + strings.Repeat("\n", newlines)

			_, err := s.Submit(text)
			if !errors.Is(err, ErrEmptyInput) {
				t.Logf("FAIL: expected ErrEmptyInput for %q, got %v", text, err)
				return false
			}

			after := s.Transcript()
			return after.State == StateIdle && len(after.Turns) == len(before.Turns)
		},
		gen.IntRange(0, 10),
		gen.IntRange(0, 5),
		gen.IntRange(0, 5),
	))

	properties.TestingRun(t, gopter.ConsoleReporter(false))
}

func TestSubmit_WhileAwaitingReplyIsNoOp(t *testing.T) {
	release := make(chan struct{})
	s := newTestSession(t, blockingReply(release))

	_, err := s.Submit("a reading chair")
	require.NoError(t, err)
	assert.Equal(t, StateAwaitingReply, s.State())

	_, err = s.Submit("and a lamp")
	assert.ErrorIs(t, err, ErrReplyPending)

	pending := s.Transcript()
	require.Len(t, pending.Turns, 3)
	assert.Equal(t, "a reading chair", pending.Turns[1].Content)
	placeholder := pending.Turns[2]
	assert.True(t, placeholder.Pending)
	assert.Equal(t, domain.RoleAssistant, placeholder.Role)
	assert.Equal(t, 3, placeholder.Seq)

	close(release)
	waitIdle(t, s)

	done := s.Transcript()
	require.Len(t, done.Turns, 3)
	assert.False(t, done.Turns[2].Pending)
	assert.Len(t, done.Turns[2].Products, 3)

	_, err = s.Submit("and a lamp")
	require.NoError(t, err)
	waitIdle(t, s)
	assert.Len(t, s.Transcript().Turns, 5)
}

// Property: N sequential exchanges alternate user/assistant with strictly increasing Seq
func TestProperty_TurnsAreAppendOrdered(t *testing.T) {
	properties := gopter.NewProperties(nil)

	properties.Property("user turn always precedes its assistant turn", prop.ForAll(
		func(exchanges int) bool {
			s := NewSession(instantReply(), zap.NewNop())
			defer s.Close()

			ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
			defer cancel()

			for i := 0; i < exchanges; i++ {
				if _, err := s.Submit("query"); err != nil {
					return false
				}
				if err := s.Wait(ctx); err != nil {
					return false
				}
			}

			turns := s.Transcript().Turns
			if len(turns) != 1+2*exchanges {
				return false
			}
			for i, turn := range turns {
				if turn.Seq != i+1 {
					return false
				}
				if i == 0 {
					continue
				}
				want := domain.RoleUser
				if i%2 == 0 {
					want = domain.RoleAssistant
				}
				if turn.Role != want {
					return false
				}
			}
			return true
		},
		gen.IntRange(1, 6),
	))

	properties.TestingRun(t, gopter.ConsoleReporter(false))
}

func TestSubmit_NetworkFailureIsRetried(t *testing.T) {
	var calls atomic.Int32
	replies := replyFunc(func(ctx context.Context, query string) (domain.Reply, error) {
		if calls.Add(1) < 3 {
			return domain.Reply{}, ErrNetworkFailure
		}
		return domain.Reply{Content: Acknowledgement, Products: DefaultSuggestions()}, nil
	})

	s := newTestSession(t, replies, WithRetries(2, time.Millisecond))
	_, err := s.Submit("desk")
	require.NoError(t, err)
	waitIdle(t, s)

	turns := s.Transcript().Turns
	require.Len(t, turns, 3)
	assert.False(t, turns[2].Failed)
	assert.Equal(t, int32(3), calls.Load())
}

func TestSubmit_ExhaustedRetriesAppendErrorTurn(t *testing.T) {
	var calls atomic.Int32
	replies := replyFunc(func(ctx context.Context, query string) (domain.Reply, error) {
		calls.Add(1)
		return domain.Reply{}, ErrNetworkFailure
	})

	s := newTestSession(t, replies, WithRetries(1, time.Millisecond))
	_, err := s.Submit("desk")
	require.NoError(t, err)
	waitIdle(t, s)

	turns := s.Transcript().Turns
	require.Len(t, turns, 3)
	failed := turns[2]
	assert.True(t, failed.Failed)
	assert.Equal(t, FailureNetwork, failed.Error)
	assert.Equal(t, FailureMessage, failed.Content)
	assert.Empty(t, failed.Products)
	assert.Equal(t, int32(2), calls.Load())
	assert.Equal(t, StateIdle, s.State())
}

func TestSubmit_InvalidResponseIsNotRetried(t *testing.T) {
	tests := []struct {
		name  string
		reply domain.Reply
		err   error
	}{
		{name: "backend rejects", err: ErrInvalidResponse},
		{name: "empty content", reply: domain.Reply{Content: "  "}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var calls atomic.Int32
			replies := replyFunc(func(ctx context.Context, query string) (domain.Reply, error) {
				calls.Add(1)
				return tt.reply, tt.err
			})

			s := newTestSession(t, replies, WithRetries(3, time.Millisecond))
			_, err := s.Submit("desk")
			require.NoError(t, err)
			waitIdle(t, s)

			turns := s.Transcript().Turns
			require.Len(t, turns, 3)
			assert.True(t, turns[2].Failed)
			assert.Equal(t, FailureInvalidResponse, turns[2].Error)
			assert.Equal(t, int32(1), calls.Load())
		})
	}
}

func TestSubmit_TimeoutAppendsErrorTurn(t *testing.T) {
	s := newTestSession(t, blockingReply(nil), WithReplyTimeout(20*time.Millisecond))

	_, err := s.Submit("bookshelf")
	require.NoError(t, err)
	waitIdle(t, s)

	turns := s.Transcript().Turns
	require.Len(t, turns, 3)
	assert.True(t, turns[2].Failed)
	assert.Equal(t, FailureTimeout, turns[2].Error)
}

func TestClose_CancelsInFlightReply(t *testing.T) {
	started := make(chan struct{})
	cancelled := make(chan struct{})
	replies := replyFunc(func(ctx context.Context, query string) (domain.Reply, error) {
		close(started)
		<-ctx.Done()
		close(cancelled)
		return domain.Reply{}, ctx.Err()
	})

	s := NewSession(replies, zap.NewNop())
	_, err := s.Submit("wardrobe")
	require.NoError(t, err)

	<-started
	s.Close()

	select {
	case <-cancelled:
	default:
		t.Fatal("reply context was not cancelled")
	}

	transcript := s.Transcript()
	assert.Equal(t, StateClosed, transcript.State)
	require.Len(t, transcript.Turns, 2)
	assert.Equal(t, domain.RoleUser, transcript.Turns[1].Role)

	_, err = s.Submit("anything")
	assert.ErrorIs(t, err, ErrSessionClosed)
	assert.NoError(t, s.Wait(context.Background()))

	// second close is a no-op
	s.Close()
}

func TestLastActive_TracksSubmissions(t *testing.T) {
	start := time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)
	var offset atomic.Int64
	clock := func() time.Time { return start.Add(time.Duration(offset.Load())) }

	release := make(chan struct{})
	s := newTestSession(t, blockingReply(release), WithClock(clock))

	at, idle := s.LastActive()
	assert.True(t, idle)
	assert.Equal(t, start, at)

	offset.Store(int64(time.Minute))
	_, err := s.Submit("rug")
	require.NoError(t, err)

	at, idle = s.LastActive()
	assert.False(t, idle)
	assert.Equal(t, start.Add(time.Minute), at)

	close(release)
	waitIdle(t, s)
}

func TestState_String(t *testing.T) {
	assert.Equal(t, "idle", StateIdle.String())
	assert.Equal(t, "awaiting_reply", StateAwaitingReply.String())
	assert.Equal(t, "closed", StateClosed.String())
	assert.Equal(t, "State(9)", State(9).String())

	text, err := StateAwaitingReply.MarshalText()
	require.NoError(t, err)
	assert.Equal(t, "awaiting_reply", string(text))
}
