package session

import (
	"fmt"

	"github.com/charmbracelet/bubbles/cursor"
	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textarea"
	tea "github.com/charmbracelet/bubbletea"
	"go.dalton.dog/bubbleup"
	"golang.design/x/clipboard"
)

// Update handles messages.
func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmds []tea.Cmd

	// Always update the alert model with every message
	outAlert, alertCmd := m.alertClipboardWrite.Update(msg)
	m.alertClipboardWrite = outAlert.(bubbleup.AlertModel)
	if alertCmd != nil {
		cmds = append(cmds, alertCmd)
	}

	// Log for non-tick messages only
	defer func() {
		switch msg.(type) {
		case spinner.TickMsg, cursor.BlinkMsg, tea.MouseMsg:
		default:
			log.WithField("msg_type", fmt.Sprintf("%T", msg)).Debug("update completed")
		}
	}()

	switch msg := msg.(type) {
	case tea.FocusMsg:
		m.windowFocused = true
		m.textarea.Focus()
		cmds = append(cmds, textarea.Blink)
		return m, tea.Batch(cmds...)

	case tea.BlurMsg:
		m.windowFocused = false
		m.textarea.Blur()
		return m, nil

	case stateMsg:
		wasOpen := m.state.IsOpen
		m.state = msg.state
		if m.state.IsOpen && !wasOpen {
			m.textarea.Focus()
			cmds = append(cmds, textarea.Blink)
		}
		m.recalculateLayout()
		m.refreshMessages()
		return m, tea.Batch(cmds...)

	case replyMsg:
		if msg.err != nil {
			m.err = msg.err
		} else if msg.reply.Err != nil {
			log.WithError(msg.reply.Err).Warn("reply replaced by fallback")
		}
		m.recalculateLayout()
		m.refreshMessages()
		return m, tea.Batch(cmds...)

	case tea.KeyMsg:
		if msg.Type == tea.KeyCtrlC {
			m.quitting = true
			return m, tea.Quit
		}

		if m.awaitingConfirm {
			switch msg.String() {
			case "y", "Y":
				m.awaitingConfirm = false
				if m.window.Clear(confirmClear) {
					m.err = nil
					cmds = append(cmds, m.alertClipboardWrite.NewAlertCmd(bubbleup.InfoKey, "Đã xóa lịch sử chat"))
				}
				m.recalculateLayout()
				m.refreshMessages()
			case "n", "N", "esc":
				m.awaitingConfirm = false
			}
			return m, tea.Batch(cmds...)
		}

		if msg.String() == "ctrl+o" {
			m.window.Toggle()
			return m, tea.Batch(cmds...)
		}
		if !m.state.IsOpen {
			if msg.Type == tea.KeyEnter {
				m.window.Toggle()
			}
			return m, tea.Batch(cmds...)
		}

		busy := m.window.IsBusy()
		switch msg.String() {
		case "esc":
			m.window.CloseChat()
			return m, tea.Batch(cmds...)

		case "ctrl+l":
			if !busy && len(m.window.Messages()) > 0 {
				m.awaitingConfirm = true
			}
			return m, tea.Batch(cmds...)

		// Copy the latest reply to clipboard
		case "alt+w":
			if message, ok := m.lastBotMessage(); ok {
				clipboard.Write(clipboard.FmtText, []byte(message.Text))
				cmds = append(cmds, m.alertClipboardWrite.NewAlertCmd(bubbleup.InfoKey, "Copied to clipboard!"))
			}
			return m, tea.Batch(cmds...)
		}

		if suggestion, ok := m.quickSuggestion(msg.String()); ok {
			if m.showSuggestions() {
				cmds = append(cmds, m.sendQuick(suggestion))
			}
			return m, tea.Batch(cmds...)
		}

		if msg.Alt && !busy {
			switch msg.String() {
			case "alt+p":
				if entry, ok := m.recall.Previous(m.textarea.Value()); ok {
					m.textarea.SetValue(entry)
					m.recallNavigating = true
					m.adjustTextareaHeight()
					return m, nil
				}
			case "alt+n":
				if entry, ok := m.recall.Next(); ok {
					m.textarea.SetValue(entry)
					m.recallNavigating = true
					m.adjustTextareaHeight()
					return m, nil
				}
			}
		}

		if msg.Type == tea.KeyEnter {
			if m.recallNavigating {
				m.recall.Reset()
				m.recallNavigating = false
			}
			if !busy {
				cmds = append(cmds, m.sendMessage())
			}
			return m, tea.Batch(cmds...)
		}

		if !busy && m.recallNavigating {
			switch msg.Type {
			case tea.KeyRunes, tea.KeyBackspace, tea.KeyDelete:
				m.recall.Reset()
				m.recallNavigating = false
			}
		}

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.recalculateLayout()

	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		cmds = append(cmds, cmd)
	}

	if m.state.IsOpen && !m.window.IsBusy() && !m.awaitingConfirm {
		var cmd tea.Cmd
		m.textarea, cmd = m.textarea.Update(msg)
		cmds = append(cmds, cmd)
		m.adjustTextareaHeight()
	}

	switch msg := msg.(type) {
	case tea.KeyMsg:
		if m.window.IsBusy() {
			var cmd tea.Cmd
			m.viewport, cmd = m.viewport.Update(msg)
			cmds = append(cmds, cmd)
		} else {
			switch msg.String() {
			case "j", "k", "g", "G", "u", "d", "b", "ctrl+u", "ctrl+d", "f", " ":
				// Don't pass vim navigation keys to viewport while typing
			default:
				var cmd tea.Cmd
				m.viewport, cmd = m.viewport.Update(msg)
				cmds = append(cmds, cmd)
			}
		}
	default:
		var cmd tea.Cmd
		m.viewport, cmd = m.viewport.Update(msg)
		cmds = append(cmds, cmd)
	}

	return m, tea.Batch(cmds...)
}
