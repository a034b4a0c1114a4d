package session

import (
	"strings"

	"github.com/charmbracelet/bubbles/viewport"

	"github.com/malonaz/shopchat/cli/chat/styles"
)

// adjustTextareaHeight resizes the textarea based on content line count.
func (m *Model) adjustTextareaHeight() {
	content := m.textarea.Value()
	lineCount := strings.Count(content, "\n") + 1

	newHeight := lineCount
	if newHeight < styles.MinTextareaHeight {
		newHeight = styles.MinTextareaHeight
	}
	if newHeight > styles.MaxTextareaHeight {
		newHeight = styles.MaxTextareaHeight
	}

	oldHeight := m.textarea.Height()
	if oldHeight != newHeight {
		m.textarea.SetHeight(newHeight)

		heightDiff := newHeight - oldHeight

		m.recalculateLayout()

		if heightDiff != 0 && m.ready {
			m.viewport.LineDown(heightDiff)
		}
	}
}

// recalculateLayout adjusts viewport and textarea dimensions based on current state.
func (m *Model) recalculateLayout() {
	if m.width == 0 || m.height == 0 {
		return
	}

	viewportHeight := m.height - styles.HeaderHeight
	viewportWidth := m.width

	if m.window.IsBusy() {
		viewportHeight -= 1
	} else {
		viewportHeight -= m.textarea.Height() + styles.InputBorderHeight
	}
	if m.showSuggestions() {
		viewportHeight -= styles.SuggestionsHeight + styles.InputBorderHeight
	}
	if m.err != nil {
		viewportHeight -= 1
	}

	if viewportHeight < styles.MinViewportHeight {
		viewportHeight = styles.MinViewportHeight
	}
	if err := m.renderer.SetWidth(viewportWidth - styles.MessageHorizontalFrameSize()); err != nil {
		log.WithError(err).Warn("resizing markdown renderer")
	}

	if !m.ready {
		m.viewport = viewport.New(viewportWidth, viewportHeight)
		m.ready = true
		m.viewport.SetContent(m.renderMessages())
		m.viewport.GotoBottom()
	} else {
		m.viewport.Width = viewportWidth
		m.viewport.Height = viewportHeight
		m.viewport.SetContent(m.renderMessages())
	}

	m.textarea.SetWidth(viewportWidth - styles.TextAreaStyle.GetHorizontalPadding() - styles.TextAreaStyle.GetHorizontalBorderSize())
}

// refreshMessages re-renders the conversation, following the newest message when the window asks for it.
func (m *Model) refreshMessages() {
	if !m.ready {
		return
	}
	wasAtBottom := m.viewport.AtBottom()
	m.viewport.SetContent(m.renderMessages())
	if m.window.ConsumeScroll() || wasAtBottom {
		m.viewport.GotoBottom()
	}
}

// showSuggestions reports whether the quick suggestions are offered.
func (m *Model) showSuggestions() bool {
	return len(m.config.Chat.QuickSuggestions) > 0 && len(m.window.Messages()) == 0 && !m.window.IsBusy()
}
