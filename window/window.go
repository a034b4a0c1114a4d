// Package window drives the chat window: what it shows, and what the shopper can do in it.
package window

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/malonaz/shopchat/chat"
	"github.com/malonaz/shopchat/internal/debug"
	"github.com/malonaz/shopchat/internal/state"
	"github.com/malonaz/shopchat/model"
)

// ClearQuestion is asked before the conversation is wiped.
const ClearQuestion = "Bạn có chắc muốn xóa toàn bộ lịch sử chat?"

// Confirmer asks the shopper a yes/no question.
type Confirmer func(question string) bool

// Sender sends a message to the assistant.
type Sender interface {
	Send(ctx context.Context, text string) (*chat.Reply, error)
}

// Store is the local history store.
type Store interface {
	Load() *model.History
	Append(message model.Message) model.Message
	Clear()
}

// Sessions forgets the session on clear.
type Sessions interface {
	Clear()
}

// Machine is the UI state the window observes and drives.
type Machine interface {
	Snapshot() model.ChatbotState
	Subscribe() *state.Subscription
	Toggle()
	Close()
}

// Option configures a controller.
type Option func(*Controller)

// WithClock overrides the time source.
func WithClock(now func() time.Time) Option {
	return func(c *Controller) {
		c.now = now
	}
}

// WithOnChange registers a callback run after every state change observed by Activate.
func WithOnChange(fn func(model.ChatbotState)) Option {
	return func(c *Controller) {
		c.onChange = fn
	}
}

// Controller is the chat window's view model.
type Controller struct {
	sender        Sender
	store         Store
	sessions      Sessions
	machine       Machine
	storefrontURL string
	now           func() time.Time
	onChange      func(model.ChatbotState)

	mu       sync.Mutex
	messages []model.Message
	input    string
	isOpen   bool
	isTyping bool
	hydrated bool
	// Set between Submit and the end of the matching Deliver.
	sending bool
	scroll  bool
}

// New returns a controller. storefrontURL is used to build product links.
func New(sender Sender, store Store, sessions Sessions, machine Machine, storefrontURL string, opts ...Option) *Controller {
	c := &Controller{
		sender:        sender,
		store:         store,
		sessions:      sessions,
		machine:       machine,
		storefrontURL: strings.TrimSuffix(storefrontURL, "/"),
		now:           time.Now,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Activate subscribes the controller to the state machine until release is called or ctx ends.
// release blocks until the subscription is gone and may be called more than once.
func (c *Controller) Activate(ctx context.Context) (release func()) {
	ctx, cancel := context.WithCancel(ctx)
	subscription := c.machine.Subscribe()
	done := make(chan struct{})
	go func() {
		defer close(done)
		defer subscription.Close()
		for {
			select {
			case <-ctx.Done():
				return
			case s, ok := <-subscription.C():
				if !ok {
					return
				}
				c.Observe(s)
				if c.onChange != nil {
					c.onChange(s)
				}
			}
		}
	}()
	return func() {
		cancel()
		<-done
	}
}

// Observe applies a state snapshot. Opening the window for the first time loads the stored history.
func (c *Controller) Observe(s model.ChatbotState) {
	c.mu.Lock()
	defer c.mu.Unlock()

	wasOpen := c.isOpen
	c.isOpen = s.IsOpen
	c.isTyping = s.IsTyping
	if c.isOpen && !wasOpen && len(c.messages) == 0 && !c.hydrated {
		c.hydrated = true
		history := c.store.Load()
		if len(history.Messages) > 0 {
			c.messages = history.Messages
			c.scroll = true
		}
		debug.GetLogger().WithField("messages", len(history.Messages)).Debug("hydrated chat window")
	}
}

// Messages returns a copy of the displayed conversation.
func (c *Controller) Messages() []model.Message {
	c.mu.Lock()
	defer c.mu.Unlock()
	messages := make([]model.Message, len(c.messages))
	for i, message := range c.messages {
		messages[i] = message.Clone()
	}
	return messages
}

// Input returns the pending input.
func (c *Controller) Input() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.input
}

// SetInput replaces the pending input.
func (c *Controller) SetInput(input string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.input = input
}

// IsOpen reports whether the window is shown.
func (c *Controller) IsOpen() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.isOpen
}

// IsBusy reports whether a reply is awaited.
func (c *Controller) IsBusy() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.isTyping || c.sending
}

// Submit takes the pending input, records it as the shopper's message and clears the input.
// It returns the text to Deliver.
func (c *Controller) Submit() (string, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	text := strings.TrimSpace(c.input)
	if text == "" {
		return "", chat.ErrEmptyMessage
	}
	if c.isTyping || c.sending || c.machine.Snapshot().IsTyping {
		return "", chat.ErrReplyPending
	}
	message := c.store.Append(model.NewUserMessage(text, c.now()))
	c.messages = append(c.messages, message)
	c.input = ""
	c.sending = true
	c.scroll = true
	return text, nil
}

// Deliver sends a submitted text and shows the reply, or the fallback message on failure.
func (c *Controller) Deliver(ctx context.Context, text string) (*chat.Reply, error) {
	reply, err := c.sender.Send(ctx, text)

	c.mu.Lock()
	defer c.mu.Unlock()
	c.sending = false
	if err != nil {
		return nil, err
	}
	c.messages = append(c.messages, reply.Message)
	c.scroll = true
	return reply, nil
}

// SendMessage submits and delivers the pending input.
func (c *Controller) SendMessage(ctx context.Context) (*chat.Reply, error) {
	text, err := c.Submit()
	if err != nil {
		return nil, err
	}
	return c.Deliver(ctx, text)
}

// SendQuick sends one of the quick suggestions.
func (c *Controller) SendQuick(ctx context.Context, suggestion string) (*chat.Reply, error) {
	c.SetInput(suggestion)
	return c.SendMessage(ctx)
}

// Clear wipes the conversation and the session once the shopper confirms.
// It is refused while a reply is awaited, since the reply would land in the cleared log.
func (c *Controller) Clear(confirm Confirmer) bool {
	if confirm == nil || c.IsBusy() || !confirm(ClearQuestion) {
		return false
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.isTyping || c.sending {
		return false
	}
	c.messages = nil
	c.sessions.Clear()
	c.store.Clear()
	c.scroll = true
	return true
}

// Toggle opens or closes the window.
func (c *Controller) Toggle() {
	c.machine.Toggle()
}

// CloseChat closes the window.
func (c *Controller) CloseChat() {
	c.machine.Close()
}

// ViewProduct returns the storefront page of a product and closes the window.
func (c *Controller) ViewProduct(productID int64) string {
	c.CloseChat()
	return fmt.Sprintf("%s/products/%d", c.storefrontURL, productID)
}

// ConsumeScroll reports whether the view should scroll to the newest message, then resets it.
func (c *Controller) ConsumeScroll() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	scroll := c.scroll
	c.scroll = false
	return scroll
}
