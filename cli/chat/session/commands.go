package session

import (
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/pkg/errors"

	"github.com/malonaz/shopchat/chat"
	"github.com/malonaz/shopchat/model"
)

// stateMsg carries a state machine change.
type stateMsg struct {
	state model.ChatbotState
}

// replyMsg carries the outcome of a delivery.
type replyMsg struct {
	reply *chat.Reply
	err   error
}

func (m *Model) sendMessage() tea.Cmd {
	input := m.textarea.Value()
	m.window.SetInput(input)
	text, err := m.window.Submit()
	if err != nil {
		if !errors.Is(err, chat.ErrEmptyMessage) {
			m.err = err
		}
		return nil
	}

	m.recall.Add(text)
	m.recallNavigating = false
	m.textarea.Reset()
	m.err = nil

	m.recalculateLayout()
	m.refreshMessages()
	return tea.Batch(m.deliver(text), m.spinner.Tick)
}

func (m *Model) sendQuick(suggestion string) tea.Cmd {
	m.textarea.SetValue(suggestion)
	return m.sendMessage()
}

// deliver waits for the reply off the update loop.
func (m *Model) deliver(text string) tea.Cmd {
	ctx := m.ctx
	w := m.window
	return func() tea.Msg {
		reply, err := w.Deliver(ctx, text)
		return replyMsg{reply: reply, err: err}
	}
}

// quickSuggestion returns the suggestion bound to alt+1..alt+9.
func (m *Model) quickSuggestion(keyName string) (string, bool) {
	digit, ok := strings.CutPrefix(keyName, "alt+")
	if !ok || len(digit) != 1 || digit[0] < '1' || digit[0] > '9' {
		return "", false
	}
	index := int(digit[0] - '1')
	if index >= len(m.config.Chat.QuickSuggestions) {
		return "", false
	}
	return m.config.Chat.QuickSuggestions[index], true
}

// confirmClear is the answer fed to the window once the shopper pressed y.
func confirmClear(string) bool { return true }
