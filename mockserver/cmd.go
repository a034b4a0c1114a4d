package mockserver

import (
	"net/http"
	"time"

	"github.com/pkg/errors"
	"github.com/spf13/cobra"

	"github.com/malonaz/shopchat/internal/cli"
	"github.com/malonaz/shopchat/internal/configuration"
)

// NewServeCmd creates the serve-mock command.
func NewServeCmd(config *configuration.Config) *cobra.Command {
	var opts struct {
		Addr    string
		Catalog string
		Delay   time.Duration
	}

	cmd := &cobra.Command{
		Use:   "serve-mock",
		Short: "Serve a development chatbot backend",
		RunE: func(cmd *cobra.Command, args []string) error {
			catalog, err := LoadCatalog(opts.Catalog)
			if err != nil {
				return errors.Wrap(err, "loading catalog")
			}
			server := New(catalog, WithDelay(opts.Delay))
			cli.Info("Mock chatbot backend listening on %s%s", opts.Addr, APIPrefix)
			httpServer := &http.Server{
				Addr:              opts.Addr,
				Handler:           server.Handler(),
				ReadHeaderTimeout: 10 * time.Second,
			}
			return httpServer.ListenAndServe()
		},
	}

	cmd.Flags().StringVar(&opts.Addr, "addr", config.Mock.Addr, "Address to serve on")
	cmd.Flags().StringVar(&opts.Catalog, "catalog", config.Mock.Catalog, "YAML reply catalog (built-in when empty)")
	cmd.Flags().DurationVar(&opts.Delay, "delay", 0, "Delay applied to every chat reply")
	return cmd
}
