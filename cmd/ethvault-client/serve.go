package main

import (
	"net"

	"github.com/spf13/cobra"

	clienthttp "github.com/quantumauth-io/ethvault-client/internal/http"
)

func (a *app) serveCmd() *cobra.Command {
	var readOnly bool
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the dashboard JSON API",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()

			withSigner := !readOnly && (a.cfg.Signer.PrivateKey != "" || a.cfg.Signer.DelegateURL != "")
			s, done, err := a.openSession(ctx, withSigner)
			if err != nil {
				return err
			}
			defer done()

			router := clienthttp.NewRouter(clienthttp.NewHandler(s), a.cfg.Server.AllowedOrigins)
			addr := net.JoinHostPort(a.cfg.Server.Host, a.cfg.Server.Port)
			return clienthttp.Serve(ctx, addr, router)
		},
	}
	cmd.Flags().BoolVar(&readOnly, "read-only", false, "never attach a signer, even if one is configured")
	return cmd
}
