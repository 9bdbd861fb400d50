package domain

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Role identifies the author of a turn
type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// ProductSuggestion is a recommendation card attached to an assistant turn.
// It is a display projection and is not joined against the catalog.
type ProductSuggestion struct {
	ID          string          `json:"id"`
	Name        string          `json:"name"`
	Description string          `json:"description"`
	Price       decimal.Decimal `json:"price"`
	Category    string          `json:"category"`
	Style       string          `json:"style"`
	ImageRef    string          `json:"image"`
}

// ConversationTurn is one message in a transcript. Seq is the ordering key.
type ConversationTurn struct {
	ID        uuid.UUID           `json:"id"`
	Seq       int                 `json:"seq"`
	Role      Role                `json:"role"`
	Content   string              `json:"content"`
	Products  []ProductSuggestion `json:"products,omitempty"`
	Pending   bool                `json:"pending,omitempty"`
	Failed    bool                `json:"failed,omitempty"`
	Error     string              `json:"error,omitempty"`
	CreatedAt time.Time           `json:"created_at"`
}

// Reply is what a reply service produces for one user query
type Reply struct {
	Content  string              `json:"reply"`
	Products []ProductSuggestion `json:"products"`
}
