// Package chat sends shopper messages to the assistant and records its replies.
package chat

import (
	"context"
	"strings"
	"time"

	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"

	"github.com/malonaz/shopchat/internal/chatapi"
	"github.com/malonaz/shopchat/internal/debug"
	"github.com/malonaz/shopchat/model"
)

// FallbackText is shown in place of a reply when the backend cannot be reached.
const FallbackText = "❌ Xin lỗi, đã có lỗi xảy ra. Vui lòng thử lại!"

const defaultTimeout = 30 * time.Second

var (
	// ErrEmptyMessage is returned for blank input.
	ErrEmptyMessage = errors.New("message is empty")
	// ErrReplyPending is returned while a previous reply is still awaited.
	ErrReplyPending = errors.New("a reply is already pending")
	// ErrNoSession is returned when no session id is known.
	ErrNoSession = errors.New("no session id available")
)

// API is the subset of the backend used by the client.
type API interface {
	Chat(ctx context.Context, request *chatapi.ChatRequest) (*chatapi.ChatResponse, error)
	History(ctx context.Context, sessionID string) (*chatapi.ChatResponse, error)
	Health(ctx context.Context) (string, error)
}

// Sessions hands out the conversation's session id.
type Sessions interface {
	GetOrCreate(ctx context.Context) (string, error)
	Current() (string, bool)
	Adopt(id string) bool
}

// Log records messages locally.
type Log interface {
	Append(message model.Message) model.Message
}

// State tracks the pending reply and the unread badge.
type State interface {
	BeginReply() bool
	EndReply()
	NotifyUnread()
}

// Identity resolves the authenticated user.
type Identity interface {
	UserID() (int64, bool)
}

// Reply is the outcome of a Send.
type Reply struct {
	// Message is the bot message appended to the log: the reply, or the fallback text.
	Message model.Message
	// Response is the raw backend response. Nil on failure.
	Response *chatapi.ChatResponse
	// Err is the failure that produced the fallback message.
	Err error
}

// Option configures a client.
type Option func(*Client)

// WithTimeout bounds a single exchange with the backend.
func WithTimeout(timeout time.Duration) Option {
	return func(c *Client) {
		if timeout > 0 {
			c.timeout = timeout
		}
	}
}

// WithIdentity attaches the authenticated user to outgoing messages.
func WithIdentity(identity Identity) Option {
	return func(c *Client) {
		c.identity = identity
	}
}

// WithClock overrides the time source.
func WithClock(now func() time.Time) Option {
	return func(c *Client) {
		c.now = now
	}
}

// Client sends messages to the assistant.
type Client struct {
	api      API
	sessions Sessions
	log      Log
	state    State
	identity Identity
	timeout  time.Duration
	now      func() time.Time
	logger   *logrus.Logger
}

// NewClient returns a chat client.
func NewClient(api API, sessions Sessions, log Log, state State, opts ...Option) *Client {
	c := &Client{
		api:      api,
		sessions: sessions,
		log:      log,
		state:    state,
		timeout:  defaultTimeout,
		now:      time.Now,
		logger:   debug.GetLogger(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Send delivers text to the assistant and appends its reply to the log.
// Backend failures are not returned: they produce a fallback reply with Reply.Err set.
// The shopper's own message is not appended here.
func (c *Client) Send(ctx context.Context, text string) (*Reply, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return nil, ErrEmptyMessage
	}
	if !c.state.BeginReply() {
		return nil, ErrReplyPending
	}

	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	request := &chatapi.ChatRequest{Message: text}
	sessionID, err := c.sessions.GetOrCreate(ctx)
	if err != nil {
		// The backend creates a session for requests that lack one.
		c.logger.WithError(err).Warn("sending without a session")
	} else {
		request.SessionID = sessionID
	}
	if c.identity != nil {
		if userID, ok := c.identity.UserID(); ok {
			request.UserID = &userID
		}
	}

	response, err := c.api.Chat(ctx, request)
	c.state.EndReply()
	if err != nil {
		c.logger.WithError(err).WithField("session_id", request.SessionID).Error("chat failed")
		message := c.log.Append(model.NewBotMessage(FallbackText, c.now(), nil))
		c.state.NotifyUnread()
		return &Reply{Message: message, Err: err}, nil
	}

	if c.sessions.Adopt(response.SessionID) {
		c.logger.WithField("session_id", response.SessionID).Info("adopted server session")
	}
	createdAt := response.Timestamp.Time
	if createdAt.IsZero() {
		createdAt = c.now()
	}
	message := c.log.Append(model.NewBotMessage(response.Message, createdAt, response.Products))
	c.state.NotifyUnread()
	return &Reply{Message: message, Response: response}, nil
}

// Health reports the backend's health.
func (c *Client) Health(ctx context.Context) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()
	return c.api.Health(ctx)
}
