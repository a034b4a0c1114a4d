package main

import (
	"github.com/spf13/cobra"

	"github.com/malonaz/shopchat/app"
	"github.com/malonaz/shopchat/cli/chat"
	"github.com/malonaz/shopchat/cli/health"
	"github.com/malonaz/shopchat/cli/history"
	"github.com/malonaz/shopchat/cli/sessions"
	"github.com/malonaz/shopchat/internal/configuration"
	"github.com/malonaz/shopchat/mockserver"
)

const configFilepath = "~/.config/shopchat/config.json"

var rootCmd = &cobra.Command{
	Use:     "shopchat",
	Short:   "A terminal client for the storefront chatbot",
	Version: "1.0",
}

func main() {
	config, err := configuration.Parse(configFilepath)
	if err != nil {
		panic(err)
	}

	a, err := app.New(config)
	if err != nil {
		panic(err)
	}
	// Ensure storage is closed when the program exits normally
	defer a.Close()

	rootCmd.AddCommand(chat.NewCmd(a))
	rootCmd.AddCommand(history.NewCmd(a))
	rootCmd.AddCommand(sessions.NewCmd(a))
	rootCmd.AddCommand(health.NewCmd(a))
	rootCmd.AddCommand(mockserver.NewServeCmd(config))
	rootCmd.Execute()
}
