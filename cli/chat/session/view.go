package session

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"

	"github.com/malonaz/shopchat/cli/chat/styles"
	"github.com/malonaz/shopchat/internal/format"
	"github.com/malonaz/shopchat/model"
	"github.com/malonaz/shopchat/window"
)

// View renders the model.
func (m *Model) View() string {
	if m.quitting {
		return ""
	}

	if !m.ready {
		return "Initializing..."
	}

	if !m.state.IsOpen {
		return m.alertClipboardWrite.Render(m.renderButton())
	}

	var b strings.Builder

	b.WriteString(m.renderTitle())
	b.WriteString("\n")

	b.WriteString(styles.ViewportStyle.Render(m.viewport.View()))
	b.WriteString("\n")

	switch {
	case m.awaitingConfirm:
		b.WriteString(m.renderConfirmDialog())
		b.WriteString("\n")
		b.WriteString(styles.HelpStyle.Render("Nhấn Y để xác nhận, N hoặc Esc để hủy"))
	case m.window.IsBusy():
		b.WriteString(fmt.Sprintf("%s Đang trả lời...\n", m.spinner.View()))
	default:
		if m.showSuggestions() {
			b.WriteString(m.renderSuggestions())
			b.WriteString("\n")
		}
		b.WriteString(styles.TextAreaStyle.Render(m.textarea.View()))
		b.WriteString("\n")
	}

	if m.err != nil {
		b.WriteString("\n")
		b.WriteString(styles.ErrorStyle.Render(fmt.Sprintf("Error: %v", m.err)))
	}

	return m.alertClipboardWrite.Render(b.String())
}

// renderButton renders the closed window: a chat button carrying the unread badge.
func (m *Model) renderButton() string {
	button := styles.ButtonStyle.Render("💬 Chat")
	if m.state.HasUnreadMessages && m.state.UnreadCount > 0 {
		button = lipgloss.JoinHorizontal(lipgloss.Top, button, styles.BadgeStyle.Render(fmt.Sprintf("%d", m.state.UnreadCount)))
	}
	help := styles.HelpStyle.Render("Ctrl+O để mở chat, Ctrl+C để thoát")
	content := lipgloss.JoinVertical(lipgloss.Right, button, help)
	return lipgloss.Place(m.width, m.height, lipgloss.Right, lipgloss.Bottom, content)
}

func (m *Model) renderTitle() string {
	status := "Trực tuyến"
	if m.state.IsTyping {
		status = "Đang nhập..."
	}
	title := fmt.Sprintf(" 🤖 Trợ lý mua sắm │ %s │ Ctrl+L xóa │ Alt+W sao chép │ Esc đóng ", status)
	return styles.TitleStyle.Width(m.width).Render(title)
}

func (m *Model) renderMessages() string {
	var b strings.Builder
	now := time.Now()

	messages := m.window.Messages()
	if len(messages) == 0 {
		b.WriteString(styles.DimTextStyle.Render("Xin chào! Tôi có thể giúp gì cho bạn?"))
		return b.String()
	}

	for i, message := range messages {
		if i > 0 {
			b.WriteString("\n\n")
		}
		rendered := m.renderer.Render(message.LocalID, message.Text)
		switch message.Sender {
		case model.SenderUser:
			b.WriteString(styles.UserMessageStyle.Render(rendered))
		default:
			b.WriteString(styles.BotMessageStyle.Render(rendered))
			for _, product := range message.Products {
				b.WriteString("\n")
				b.WriteString(m.renderProduct(product))
			}
		}
		b.WriteString("\n")
		b.WriteString(styles.TimeStyle.Render(format.RelativeTime(message.CreatedAt, now)))
	}
	return b.String()
}

func (m *Model) renderProduct(product model.ProductSuggestion) string {
	var b strings.Builder
	b.WriteString(styles.ProductNameStyle.Render(fmt.Sprintf("#%d %s", product.ID, product.Name)))
	b.WriteString("  ")
	b.WriteString(styles.ProductPriceStyle.Render(format.Price(product.Price)))
	if product.Description != nil && *product.Description != "" {
		b.WriteString("\n")
		b.WriteString(styles.DimTextStyle.Render(styles.Truncate(*product.Description, styles.ProductDescriptionLength)))
	}
	if product.Reason != nil && *product.Reason != "" {
		b.WriteString("\n")
		b.WriteString(styles.ProductReasonStyle.Render("💡 " + *product.Reason))
	}
	b.WriteString("\n")
	b.WriteString(styles.DimTextStyle.Render(format.ProductImage(product.Thumbnail, m.config.APIBaseURL)))
	return styles.ProductCardStyle.Render(b.String())
}

func (m *Model) renderSuggestions() string {
	suggestions := make([]string, 0, len(m.config.Chat.QuickSuggestions))
	for i, suggestion := range m.config.Chat.QuickSuggestions {
		if i >= 9 {
			break
		}
		label := styles.SuggestionKeyStyle.Render(fmt.Sprintf("Alt+%d", i+1)) + " " + suggestion
		suggestions = append(suggestions, styles.SuggestionStyle.Render(label))
	}
	return lipgloss.JoinHorizontal(lipgloss.Top, suggestions...)
}

func (m *Model) renderConfirmDialog() string {
	return styles.ConfirmBoxStyle.Render(styles.ConfirmTitleStyle.Render("🗑  " + window.ClearQuestion))
}
