// Package health checks the chatbot backend.
package health

import (
	"github.com/pkg/errors"
	"github.com/spf13/cobra"

	"github.com/malonaz/shopchat/app"
	"github.com/malonaz/shopchat/internal/cli"
)

// NewCmd instantiates and returns the health command.
func NewCmd(a *app.App) *cobra.Command {
	return &cobra.Command{
		Use:   "health",
		Short: "Check the chatbot backend",
		RunE: func(cmd *cobra.Command, args []string) error {
			status, err := a.Chat.Health(cmd.Context())
			if err != nil {
				cli.Error("%s is unreachable", a.Config.APIBaseURL)
				return errors.Wrap(err, "checking health")
			}
			cli.Info("%s: %s", a.Config.APIBaseURL, status)
			return nil
		},
	}
}
