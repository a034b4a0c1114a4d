// Package app wires the chat client's components together.
package app

import (
	"net/http"

	"github.com/pkg/errors"

	"github.com/malonaz/shopchat/chat"
	"github.com/malonaz/shopchat/internal/auth"
	"github.com/malonaz/shopchat/internal/chatapi"
	"github.com/malonaz/shopchat/internal/configuration"
	"github.com/malonaz/shopchat/internal/debug"
	"github.com/malonaz/shopchat/internal/kv"
	"github.com/malonaz/shopchat/internal/recall"
	"github.com/malonaz/shopchat/internal/state"
	"github.com/malonaz/shopchat/session"
	"github.com/malonaz/shopchat/store"
	"github.com/malonaz/shopchat/window"
)

// App holds the components shared by every command.
type App struct {
	Config   *configuration.Config
	Medium   kv.Medium
	Store    *store.Store
	API      *chatapi.Client
	Identity *auth.Identity
	Sessions *session.Manager
	Machine  *state.Machine
	Chat     *chat.Client
	Recall   *recall.Recall
}

// New opens storage and builds the components described by config.
func New(config *configuration.Config) (*App, error) {
	debug.SetLogFile(config.LogFile)

	medium, err := kv.Open(config.Storage)
	if err != nil {
		return nil, errors.Wrap(err, "opening storage")
	}
	return NewWithMedium(config, medium), nil
}

// NewWithMedium builds the components on an already opened medium.
func NewWithMedium(config *configuration.Config, medium kv.Medium) *App {
	tokens := auth.NewTokenSource(config.Token, config.TokenFile)
	httpClient := &http.Client{
		Transport: auth.NewTransport(tokens, nil),
		Timeout:   config.Timeout(),
	}
	api := chatapi.NewClient(config.APIBaseURL, chatapi.WithHTTPClient(httpClient))
	identity := auth.NewIdentity(tokens)
	s := store.New(medium)
	sessions := session.NewManager(api, s, identity)
	machine := state.New()

	return &App{
		Config:   config,
		Medium:   medium,
		Store:    s,
		API:      api,
		Identity: identity,
		Sessions: sessions,
		Machine:  machine,
		Chat:     chat.NewClient(api, sessions, s, machine, chat.WithTimeout(config.Timeout()), chat.WithIdentity(identity)),
		Recall:   recall.New(medium, config.Chat.RecallSize),
	}
}

// NewWindow returns a chat window controller bound to the app.
func (a *App) NewWindow(opts ...window.Option) *window.Controller {
	return window.New(a.Chat, a.Store, a.Sessions, a.Machine, a.Config.StorefrontURL, opts...)
}

// Close releases storage.
func (a *App) Close() error {
	return a.Medium.Close()
}
