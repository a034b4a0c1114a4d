package model

import (
	"time"

	"github.com/shopspring/decimal"
)

// Sender identifies who authored a message.
type Sender string

const (
	// SenderUser is the shopper.
	SenderUser Sender = "USER"
	// SenderBot is the storefront assistant.
	SenderBot Sender = "BOT"
)

// MessageType is the kind of reply the backend produced.
type MessageType string

const (
	MessageTypeText        MessageType = "text"
	MessageTypeProductList MessageType = "product_list"
	MessageTypeHistory     MessageType = "history"
	MessageTypeComparison  MessageType = "comparison"
)

// ProductSuggestion is a product the assistant attached to a reply.
type ProductSuggestion struct {
	ID          int64           `json:"id"`
	Name        string          `json:"name"`
	Price       decimal.Decimal `json:"price"`
	Thumbnail   *string         `json:"thumbnail,omitempty"`
	Description *string         `json:"description,omitempty"`
	// Why the assistant suggested this product.
	Reason *string `json:"reason,omitempty"`
}

// Message is one utterance of a conversation.
// Messages are values: once appended to a history they are never modified.
type Message struct {
	// Server-assigned identifier, absent until synced.
	ID *int64 `json:"id,omitempty"`
	// Client-assigned, monotonically increasing identifier.
	LocalID     string              `json:"localId,omitempty"`
	Text        string              `json:"message"`
	Sender      Sender              `json:"sender"`
	CreatedAt   time.Time           `json:"createdAt"`
	ProductRefs []int64             `json:"productRefs,omitempty"`
	Products    []ProductSuggestion `json:"products,omitempty"`
}

// NewUserMessage returns a message typed by the shopper.
func NewUserMessage(text string, createdAt time.Time) Message {
	return Message{Text: text, Sender: SenderUser, CreatedAt: createdAt}
}

// NewBotMessage returns a reply from the assistant carrying the given products.
func NewBotMessage(text string, createdAt time.Time, products []ProductSuggestion) Message {
	message := Message{Text: text, Sender: SenderBot, CreatedAt: createdAt}
	if len(products) > 0 {
		message.Products = append([]ProductSuggestion(nil), products...)
		message.ProductRefs = make([]int64, len(products))
		for i, product := range products {
			message.ProductRefs[i] = product.ID
		}
	}
	return message
}

// Clone returns a deep copy of the message.
func (m Message) Clone() Message {
	if m.ID != nil {
		id := *m.ID
		m.ID = &id
	}
	m.ProductRefs = append([]int64(nil), m.ProductRefs...)
	m.Products = append([]ProductSuggestion(nil), m.Products...)
	return m
}

// Session is a conversation boundary created by the backend.
type Session struct {
	ID     string
	UserID *int64
}

// History is the locally persisted conversation.
type History struct {
	SessionID   string    `json:"sessionId"`
	Messages    []Message `json:"messages"`
	LastUpdated time.Time `json:"lastUpdated"`
}

// NewHistory returns an empty history.
func NewHistory(sessionID string, now time.Time) *History {
	return &History{
		SessionID:   sessionID,
		Messages:    []Message{},
		LastUpdated: now,
	}
}

// Clone returns a deep copy of the history.
func (h *History) Clone() *History {
	clone := &History{
		SessionID:   h.SessionID,
		Messages:    make([]Message, len(h.Messages)),
		LastUpdated: h.LastUpdated,
	}
	for i, message := range h.Messages {
		clone.Messages[i] = message.Clone()
	}
	return clone
}

// ChatbotState describes what the chat window and its button should show.
type ChatbotState struct {
	IsOpen            bool
	IsMinimized       bool
	IsTyping          bool
	HasUnreadMessages bool
	UnreadCount       int
}
