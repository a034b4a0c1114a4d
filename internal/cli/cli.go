// Package cli prints chat output to the terminal and prompts the shopper.
package cli

import (
	"fmt"
	"io"
	"strings"

	"github.com/AlecAivazis/survey/v2"
	"github.com/buger/goterm"
	"github.com/chzyer/readline"
	"github.com/fatih/color"
)

var (
	userColor      = color.New(color.FgWhite, color.Bold) // Bold white for the shopper
	botColor       = color.New(color.FgCyan)              // Cyan for assistant replies
	productColor   = color.New(color.FgGreen)             // Green for product suggestions
	infoColor      = color.New(color.FgHiBlack)           // Dark grey for timestamps and hints
	errorColor     = color.New(color.FgRed)               // Red for failures
	titleColor     = color.New(color.FgMagenta, color.Bold)
	separatorColor = color.New(color.FgHiBlack)
	promptColor    = color.New(color.FgHiBlue)

	width = goterm.Width()
)

// Separator printed to cli.
func Separator() {
	separatorColor.Println(strings.Repeat("-", lineWidth()))
}

// Title printed to cli.
func Title(text string, args ...any) {
	w := lineWidth()
	title := "      " + fmt.Sprintf(text, args...) + "      "
	leftWidth := (w - len(title)) / 2
	if leftWidth < 0 {
		leftWidth = 0
	}
	separator1 := strings.Repeat("-", leftWidth)
	rightWidth := w - len(title) - len(separator1)
	if rightWidth < 0 {
		rightWidth = 0
	}
	separator2 := strings.Repeat("-", rightWidth)
	titleColor.Println(separator1 + title + separator2)
}

// UserMessage printed to cli.
func UserMessage(text string) {
	userColor.Println(text)
}

// BotMessage printed to cli.
func BotMessage(text string) {
	botColor.Println(text)
}

// Product printed to cli.
func Product(text string, args ...any) {
	productColor.Printf(text+"\n", args...)
}

// Info printed to cli.
func Info(text string, args ...any) {
	infoColor.Printf(text+"\n", args...)
}

// Error printed to cli.
func Error(text string, args ...any) {
	errorColor.Printf(text+"\n", args...)
}

func lineWidth() int {
	if width <= 0 {
		return 80
	}
	return width
}

// Prompt reads lines from the terminal.
type Prompt struct {
	rl *readline.Instance
}

// NewPrompt returns a line prompt keeping its own history in historyFile.
func NewPrompt(historyFile string) (*Prompt, error) {
	rl, err := readline.NewEx(&readline.Config{
		Prompt:            promptColor.Sprint("> "),
		InterruptPrompt:   "^C",
		EOFPrompt:         "/quit",
		HistoryFile:       historyFile,
		HistorySearchFold: true,
	})
	if err != nil {
		return nil, err
	}
	return &Prompt{rl: rl}, nil
}

// ReadLine returns the next line. io.EOF is returned on ctrl+d and ctrl+c on an empty line.
func (p *Prompt) ReadLine() (string, error) {
	for {
		line, err := p.rl.Readline()
		if err == readline.ErrInterrupt {
			if line == "" {
				return "", io.EOF
			}
			continue
		}
		if err != nil {
			return "", err
		}
		return line, nil
	}
}

// AddHistory makes entry reachable with the up arrow.
func (p *Prompt) AddHistory(entry string) {
	p.rl.SaveHistory(entry)
}

// Stdout returns a writer that does not corrupt the prompt line.
func (p *Prompt) Stdout() io.Writer {
	return p.rl.Stdout()
}

// Close the prompt.
func (p *Prompt) Close() error {
	return p.rl.Close()
}

// QueryUser a yes/no question.
func QueryUser(question string) bool {
	surveyQuestion := &survey.Confirm{
		Message: question,
	}
	confirm := false
	survey.AskOne(surveyQuestion, &confirm)
	return confirm
}
