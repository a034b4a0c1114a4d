// Package sessions inspects and resets the chat session.
package sessions

import (
	"github.com/pkg/errors"
	"github.com/spf13/cobra"

	"github.com/malonaz/shopchat/app"
	"github.com/malonaz/shopchat/internal/cli"
)

// NewCmd instantiates and returns the session command.
func NewCmd(a *app.App) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "session",
		Short: "Inspect or reset the chat session",
	}
	cmd.AddCommand(newShowCmd(a), newNewCmd(a), newClearCmd(a))
	return cmd
}

func newShowCmd(a *app.App) *cobra.Command {
	return &cobra.Command{
		Use:   "show",
		Short: "Print the current session id",
		RunE: func(cmd *cobra.Command, args []string) error {
			id, ok := a.Sessions.Current()
			if !ok {
				cli.Info("no session")
				return nil
			}
			cli.Info("%s", id)
			if userID, ok := a.Identity.UserID(); ok {
				cli.Info("user %d", userID)
			}
			return nil
		},
	}
}

func newNewCmd(a *app.App) *cobra.Command {
	return &cobra.Command{
		Use:   "new",
		Short: "Forget the current session and create a new one",
		RunE: func(cmd *cobra.Command, args []string) error {
			a.Sessions.Clear()
			id, err := a.Sessions.GetOrCreate(cmd.Context())
			if err != nil {
				return errors.Wrap(err, "creating session")
			}
			cli.Info("%s", id)
			return nil
		},
	}
}

func newClearCmd(a *app.App) *cobra.Command {
	var opts struct {
		Yes bool
	}
	cmd := &cobra.Command{
		Use:   "clear",
		Short: "Delete the local history and the session id",
		RunE: func(cmd *cobra.Command, args []string) error {
			confirm := cli.QueryUser
			if opts.Yes {
				confirm = func(string) bool { return true }
			}
			if a.NewWindow().Clear(confirm) {
				cli.Info("Đã xóa lịch sử chat")
			}
			return nil
		},
	}
	cmd.Flags().BoolVarP(&opts.Yes, "yes", "y", false, "Do not ask for confirmation")
	return cmd
}
