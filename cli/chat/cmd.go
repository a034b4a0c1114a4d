package chat

import (
	"fmt"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"

	"github.com/malonaz/shopchat/app"
	"github.com/malonaz/shopchat/cli/chat/session"
	"github.com/malonaz/shopchat/model"
	"github.com/malonaz/shopchat/window"
)

// NewCmd instantiates and returns the chat command.
func NewCmd(a *app.App) *cobra.Command {
	var opts struct {
		Plain bool
		Open  bool
	}
	cmd := &cobra.Command{
		Use:   "chat",
		Short: "Open the storefront chat window",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			if opts.Plain {
				return runPlain(ctx, a)
			}

			var m *session.Model
			w := a.NewWindow(window.WithOnChange(func(s model.ChatbotState) {
				m.OnStateChange(s)
			}))
			if opts.Open {
				a.Machine.Open()
			}

			m, err := session.New(ctx, a.Config, w, a.Machine.Snapshot(), a.Recall)
			if err != nil {
				return err
			}

			// Create the Bubble Tea program
			p := tea.NewProgram(
				m,
				tea.WithAltScreen(),
				tea.WithContext(ctx),
				tea.WithMouseCellMotion(),
				tea.WithReportFocus(),
			)

			// Set the program reference for async message sending
			m.SetProgram(p)
			release := w.Activate(ctx)
			defer release()

			if _, err := p.Run(); err != nil {
				return fmt.Errorf("error running chat: %w", err)
			}
			return nil
		},
	}

	cmd.Flags().BoolVar(&opts.Plain, "plain", false, "Use a line based prompt instead of the full screen window")
	cmd.Flags().BoolVarP(&opts.Open, "open", "o", true, "Start with the chat window open")
	return cmd
}
