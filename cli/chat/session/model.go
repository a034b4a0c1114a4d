package session

import (
	"context"
	"sync"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textarea"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"go.dalton.dog/bubbleup"

	"github.com/malonaz/shopchat/chat"
	"github.com/malonaz/shopchat/cli/chat/styles"
	"github.com/malonaz/shopchat/internal/configuration"
	"github.com/malonaz/shopchat/internal/debug"
	"github.com/malonaz/shopchat/internal/markdown"
	"github.com/malonaz/shopchat/model"
	"github.com/malonaz/shopchat/window"
)

var log = debug.GetLogger()

// Window is the chat window controller driven by the model.
type Window interface {
	Observe(s model.ChatbotState)
	Messages() []model.Message
	SetInput(input string)
	IsOpen() bool
	IsBusy() bool
	Submit() (string, error)
	Deliver(ctx context.Context, text string) (*chat.Reply, error)
	Clear(confirm window.Confirmer) bool
	Toggle()
	CloseChat()
	ConsumeScroll() bool
}

// Recall holds previously submitted inputs.
type Recall interface {
	Add(entry string)
	Previous(currentInput string) (string, bool)
	Next() (string, bool)
	Reset()
}

// Model represents the Bubble Tea model for the chat window.
type Model struct {
	// Core dependencies
	ctx    context.Context
	config *configuration.Config
	window Window
	recall Recall

	// Last state published by the state machine.
	state model.ChatbotState

	// UI components
	textarea textarea.Model
	viewport viewport.Model
	spinner  spinner.Model
	renderer *markdown.Renderer

	// UI state
	width         int
	height        int
	ready         bool
	err           error
	quitting      bool
	windowFocused bool

	// Alert notifications.
	alertClipboardWrite bubbleup.AlertModel

	// Clear confirmation state
	awaitingConfirm bool

	// Program reference for sending messages from goroutines
	program   *tea.Program
	programMu sync.Mutex

	// Input recall
	recallNavigating bool
}

// New creates a new chat window model.
func New(ctx context.Context, config *configuration.Config, w Window, initial model.ChatbotState, r Recall) (*Model, error) {
	// Create textarea for input
	ta := textarea.New()
	ta.Placeholder = "Nhập tin nhắn... (Enter để gửi, Ctrl+J xuống dòng)"
	ta.Focus()
	ta.CharLimit = 0
	ta.SetWidth(styles.DefaultTextareaWidth)
	ta.SetHeight(styles.MinTextareaHeight)
	ta.ShowLineNumbers = false
	ta.KeyMap.InsertNewline = key.NewBinding(key.WithKeys("ctrl+j"))
	ta.Prompt = ""

	// Create spinner
	sp := spinner.New()
	sp.Spinner = spinner.Dot
	sp.Style = styles.SpinnerStyle

	alertClipboardWrite := bubbleup.NewAlertModel(25, true, 1)

	renderer, err := markdown.NewRenderer(styles.DefaultTextareaWidth)
	if err != nil {
		return nil, err
	}

	w.Observe(initial)
	return &Model{
		ctx:                 ctx,
		config:              config,
		window:              w,
		recall:              r,
		state:               initial,
		windowFocused:       true,
		textarea:            ta,
		spinner:             sp,
		renderer:            renderer,
		alertClipboardWrite: *alertClipboardWrite,
	}, nil
}

// SetProgram sets the tea.Program reference for async message sending.
func (m *Model) SetProgram(p *tea.Program) {
	m.programMu.Lock()
	defer m.programMu.Unlock()
	m.program = p
}

// getProgram safely gets the program reference.
func (m *Model) getProgram() *tea.Program {
	m.programMu.Lock()
	defer m.programMu.Unlock()
	return m.program
}

// OnStateChange forwards a state machine change to the program.
// It is meant for window.WithOnChange.
func (m *Model) OnStateChange(s model.ChatbotState) {
	if p := m.getProgram(); p != nil {
		p.Send(stateMsg{state: s})
	}
}

// Init initializes the model.
func (m *Model) Init() tea.Cmd {
	return tea.Batch(
		textarea.Blink,
		m.spinner.Tick,
		m.alertClipboardWrite.Init(),
	)
}

// lastBotMessage returns the newest reply, if any.
func (m *Model) lastBotMessage() (model.Message, bool) {
	messages := m.window.Messages()
	for i := len(messages) - 1; i >= 0; i-- {
		if messages[i].Sender == model.SenderBot {
			return messages[i], true
		}
	}
	return model.Message{}, false
}
