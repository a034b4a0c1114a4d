// Package history prints the conversation.
package history

import (
	"time"

	"github.com/pkg/errors"
	"github.com/spf13/cobra"

	"github.com/malonaz/shopchat/app"
	"github.com/malonaz/shopchat/internal/cli"
	"github.com/malonaz/shopchat/internal/format"
	"github.com/malonaz/shopchat/model"
)

// NewCmd instantiates and returns the history command.
func NewCmd(a *app.App) *cobra.Command {
	var opts struct {
		Remote    bool
		SessionID string
	}
	cmd := &cobra.Command{
		Use:   "history",
		Short: "Print the conversation",
		RunE: func(cmd *cobra.Command, args []string) error {
			var messages []model.Message
			title := "local history"
			if opts.Remote {
				remote, err := a.Chat.RemoteHistory(cmd.Context(), opts.SessionID)
				if err != nil {
					return errors.Wrap(err, "fetching remote history")
				}
				messages = remote
				title = "remote history"
			} else {
				history := a.Store.Load()
				messages = history.Messages
				if a.Store.Degraded() {
					cli.Error("local storage unavailable, showing an empty history")
				}
			}

			cli.Title(title)
			if len(messages) == 0 {
				cli.Info("no messages")
				return nil
			}
			now := time.Now()
			for _, message := range messages {
				printMessage(message, a.Config.APIBaseURL, now)
			}
			cli.Separator()
			return nil
		},
	}

	cmd.Flags().BoolVarP(&opts.Remote, "remote", "r", false, "Fetch the transcript kept by the backend")
	cmd.Flags().StringVar(&opts.SessionID, "session", "", "Session id for --remote, the current session by default")
	return cmd
}

func printMessage(message model.Message, apiBaseURL string, now time.Time) {
	when := ""
	if !message.CreatedAt.IsZero() {
		when = " · " + format.RelativeTime(message.CreatedAt, now)
	}
	if message.Sender == model.SenderUser {
		cli.UserMessage("USER" + when)
	} else {
		cli.BotMessage("BOT" + when)
	}
	cli.Info("%s", format.Message(message.Text))
	for _, product := range message.Products {
		cli.Product("  #%d %s  %s  %s", product.ID, product.Name, format.Price(product.Price), format.ProductImage(product.Thumbnail, apiBaseURL))
	}
}
