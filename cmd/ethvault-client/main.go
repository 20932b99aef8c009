package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/quantumauth-io/quantum-go-utils/log"
	"github.com/spf13/cobra"

	clientconfig "github.com/quantumauth-io/ethvault-client/cmd/ethvault-client/config"
	"github.com/quantumauth-io/ethvault-client/internal/constants"
)

var (
	Version   = "dev"
	Commit    = "none"
	BuildDate = "unknown"
)

// flags shared by every command; empty values fall back to the config file.
type globalFlags struct {
	rpcURL      string
	vault       string
	delegateURL string
	noProbe     bool
}

type app struct {
	flags globalFlags
	cfg   *clientconfig.Config
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := newRootCmd().ExecuteContext(ctx); err != nil {
		log.Error("command failed", "error", err)
		stop()
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	a := &app{}

	root := &cobra.Command{
		Use:           constants.AppName,
		Short:         "Query and operate an ETH vault contract",
		Version:       Version,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			log.Info(constants.AppName,
				"version", Version,
				"commit", Commit,
				"build_date", BuildDate,
			)
			cfg, err := clientconfig.Load()
			if err != nil {
				return err
			}
			a.cfg = cfg
			return a.applyFlags()
		},
	}

	pf := root.PersistentFlags()
	pf.StringVar(&a.flags.rpcURL, "rpc", "", "JSON-RPC endpoint (overrides Ethereum.RPCURL)")
	pf.StringVar(&a.flags.vault, "vault", "", "vault contract address (overrides Vault.Address)")
	pf.StringVar(&a.flags.delegateURL, "delegate", "", "wallet provider endpoint that signs on the user's behalf")
	pf.BoolVar(&a.flags.noProbe, "no-probe", false, "skip the contract interface probe")

	root.AddCommand(
		a.overviewCmd(),
		a.userCmd(),
		a.participantsCmd(),
		a.rewardsCmd(),
		a.isAdminCmd(),
		a.depositCmd(),
		a.withdrawCmd(),
		a.autoCompoundCmd(),
		a.sendExternalCmd(),
		a.compoundAllCmd(),
		a.receiptCmd(),
		a.serveCmd(),
	)
	return root
}

func (a *app) applyFlags() error {
	if a.flags.rpcURL != "" {
		a.cfg.Ethereum.RPCURL = a.flags.rpcURL
	}
	if a.flags.vault != "" {
		a.cfg.Vault.Address = a.flags.vault
		if err := a.cfg.NormalizeVaultAddress(); err != nil {
			return err
		}
	}
	if a.flags.delegateURL != "" {
		a.cfg.Signer.DelegateURL = a.flags.delegateURL
	}
	return nil
}

func (a *app) confirmTimeout() time.Duration {
	if a.cfg == nil || a.cfg.Tx.ConfirmTimeout <= 0 {
		return constants.DefaultConfirmTimeout
	}
	return a.cfg.Tx.ConfirmTimeout
}
