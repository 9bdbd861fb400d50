package conversation

import (
	"context"
	"time"

	"furniture-assistant/internal/domain"

	"github.com/shopspring/decimal"
)

const (
	// WelcomeMessage seeds every new transcript
	WelcomeMessage = "Welcome to FurnAIture! I'm your personal furniture recommendation assistant. " +
		"Tell me about your space, style preferences, and budget, and I'll suggest the perfect furniture pieces for you."

	// Acknowledgement accompanies the simulated recommendations
	Acknowledgement = "Based on your preferences, I've found these perfect pieces for your space. " +
		"Each item combines style with functionality and quality craftsmanship."

	// FailureMessage is shown on an error-marked assistant turn
	FailureMessage = "Sorry, I couldn't fetch recommendations right now. Please try again."

	DefaultReplyDelay = 1500 * time.Millisecond
)

// ReplyService composes the assistant's answer to one user query
type ReplyService interface {
	SubmitQuery(ctx context.Context, query string) (domain.Reply, error)
}

// DefaultSuggestions returns the fixed recommendation set, always in the same order
func DefaultSuggestions() []domain.ProductSuggestion {
	return []domain.ProductSuggestion{
		{
			ID:          "1",
			Name:        "Modern Minimalist Sofa",
			Description: "A sleek, contemporary sofa with clean lines and premium fabric. Perfect for modern living spaces.",
			Price:       decimal.NewFromInt(1299),
			Category:    "Seating",
			Style:       "Modern",
			ImageRef:    "/background1.jpg",
		},
		{
			ID:          "2",
			Name:        "Scandinavian Coffee Table",
			Description: "Light wood coffee table with natural finish. Combines functionality with Nordic design aesthetics.",
			Price:       decimal.NewFromInt(399),
			Category:    "Tables",
			Style:       "Scandinavian",
			ImageRef:    "/background5.jpg",
		},
		{
			ID:          "3",
			Name:        "Industrial Floor Lamp",
			Description: "Vintage-inspired floor lamp with metal frame and adjustable arm. Adds character to any room.",
			Price:       decimal.NewFromInt(249),
			Category:    "Lighting",
			Style:       "Industrial",
			ImageRef:    "/background6.jpg",
		},
	}
}

// SimulatedReplyService answers every query with the canned acknowledgement
// and DefaultSuggestions after a fixed delay. It never fails on its own.
type SimulatedReplyService struct {
	delay time.Duration
}

// NewSimulatedReplyService creates a simulated service; a non-positive delay
// falls back to DefaultReplyDelay.
func NewSimulatedReplyService(delay time.Duration) *SimulatedReplyService {
	if delay <= 0 {
		delay = DefaultReplyDelay
	}
	return &SimulatedReplyService{delay: delay}
}

// SubmitQuery waits for the configured delay or until ctx is done
func (s *SimulatedReplyService) SubmitQuery(ctx context.Context, query string) (domain.Reply, error) {
	timer := time.NewTimer(s.delay)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return domain.Reply{}, ctx.Err()
	case <-timer.C:
	}

	return domain.Reply{
		Content:  Acknowledgement,
		Products: DefaultSuggestions(),
	}, nil
}
