package styles

import (
	"github.com/charmbracelet/lipgloss"
)

// Layout constants
const (
	// Textarea
	MinTextareaHeight    = 1
	MaxTextareaHeight    = 6
	DefaultTextareaWidth = 80
	TextAreaPaddingLeft  = 1

	// Viewport
	MinViewportHeight = 1

	// Layout
	InputBorderHeight  = 2
	HeaderHeight       = 2
	SuggestionsHeight  = 1
	MessagePaddingLeft = 2

	// Confirmation dialog
	ConfirmPaddingHorizontal = 2
	ConfirmPaddingVertical   = 1
	ConfirmMarginTop         = 1

	// Help
	HelpMarginTop = 1

	// Product cards
	ProductDescriptionLength = 60

	// Truncation
	TruncateSuffix = "..."
)

// Color palette
var (
	PrimaryColor   = lipgloss.Color("#7C3AED") // Purple
	SecondaryColor = lipgloss.Color("#06B6D4") // Cyan
	AccentColor    = lipgloss.Color("#F59E0B") // Amber
	SuccessColor   = lipgloss.Color("#10B981") // Green
	ErrorColor     = lipgloss.Color("#EF4444") // Red
	MutedColor     = lipgloss.Color("#6B7280") // Gray
	TextColor      = lipgloss.Color("#F9FAFB") // Light gray
	DimTextColor   = lipgloss.Color("#9CA3AF") // Dim gray
	PriceColor     = lipgloss.Color("#F472B6") // Pink
	BorderColor    = lipgloss.Color("#4B5563")
)

// Title bar
var (
	TitleStyle = lipgloss.NewStyle().
			Background(PrimaryColor).
			Foreground(TextColor).
			Bold(true)
)

// Chat button shown while the window is closed.
var (
	ButtonStyle = lipgloss.NewStyle().
			Foreground(TextColor).
			Background(PrimaryColor).
			Bold(true).
			Padding(1, 3)

	BadgeStyle = lipgloss.NewStyle().
			Foreground(TextColor).
			Background(ErrorColor).
			Bold(true).
			Padding(0, 1)
)

// Messages.
var (
	messageStyle = lipgloss.NewStyle().
			Foreground(TextColor).
			Padding(0, 1).
			Border(lipgloss.RoundedBorder())

	UserMessageStyle = lipgloss.NewStyle().
				Inherit(messageStyle).
				BorderForeground(PrimaryColor).
				MarginLeft(10)

	BotMessageStyle = lipgloss.NewStyle().
			Inherit(messageStyle).
			BorderForeground(SecondaryColor).
			MarginRight(10)

	TimeStyle = lipgloss.NewStyle().
			Foreground(MutedColor).
			Italic(true)

	DimTextStyle = lipgloss.NewStyle().
			Foreground(DimTextColor)
)

// Product cards
var (
	ProductCardStyle = lipgloss.NewStyle().
				Border(lipgloss.NormalBorder(), false, false, false, true).
				BorderForeground(AccentColor).
				PaddingLeft(1).
				MarginLeft(MessagePaddingLeft)

	ProductNameStyle = lipgloss.NewStyle().
				Foreground(TextColor).
				Bold(true)

	ProductPriceStyle = lipgloss.NewStyle().
				Foreground(PriceColor).
				Bold(true)

	ProductReasonStyle = lipgloss.NewStyle().
				Foreground(SuccessColor).
				Italic(true)
)

// Quick suggestions
var (
	SuggestionStyle = lipgloss.NewStyle().
			Foreground(SecondaryColor).
			Border(lipgloss.RoundedBorder()).
			BorderForeground(BorderColor).
			Padding(0, 1).
			MarginRight(1)

	SuggestionKeyStyle = lipgloss.NewStyle().
				Foreground(AccentColor).
				Bold(true)
)

// Error
var (
	ErrorStyle = lipgloss.NewStyle().
		Foreground(ErrorColor).
		Bold(true)
)

// Input area
var (
	TextAreaStyle = lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(PrimaryColor).
		PaddingLeft(TextAreaPaddingLeft)
)

// Spinner
var (
	SpinnerStyle = lipgloss.NewStyle().
		Foreground(SecondaryColor)
)

// Help text
var (
	HelpStyle = lipgloss.NewStyle().
		Foreground(MutedColor).
		Italic(true).
		MarginTop(HelpMarginTop)
)

// Confirmation dialog
var (
	ConfirmBoxStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(AccentColor).
			Padding(ConfirmPaddingVertical, ConfirmPaddingHorizontal).
			MarginTop(ConfirmMarginTop)

	ConfirmTitleStyle = lipgloss.NewStyle().
				Foreground(AccentColor).
				Bold(true)
)

// Viewport
var (
	ViewportStyle = lipgloss.NewStyle().Margin(0).Padding(0)
)

// MessageHorizontalFrameSize returns the horizontal frame size of bot messages.
func MessageHorizontalFrameSize() int {
	return BotMessageStyle.GetHorizontalFrameSize()
}

// Truncate truncates a string to maxLen runes with a suffix.
func Truncate(s string, maxLen int) string {
	runes := []rune(s)
	if len(runes) <= maxLen {
		return s
	}
	return string(runes[:maxLen-len(TruncateSuffix)]) + TruncateSuffix
}
