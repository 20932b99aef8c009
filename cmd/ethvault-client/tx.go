package main

import (
	"context"
	"fmt"
	"io"
	"math/big"
	"strings"

	"github.com/cockroachdb/errors"
	"github.com/ethereum/go-ethereum/common"
	"github.com/quantumauth-io/quantum-go-utils/log"
	"github.com/spf13/cobra"

	"github.com/quantumauth-io/ethvault-client/internal/networks"
	"github.com/quantumauth-io/ethvault-client/internal/units"
	"github.com/quantumauth-io/ethvault-client/internal/vault"
)

// txFlags tune a single write.
type txFlags struct {
	gasLimit     uint64
	gasPriceGwei string
	noWait       bool
	force        bool
}

func (f *txFlags) register(cmd *cobra.Command, admin bool) {
	fl := cmd.Flags()
	fl.Uint64Var(&f.gasLimit, "gas-limit", 0, "gas limit (default per action)")
	fl.StringVar(&f.gasPriceGwei, "gas-price-gwei", "", "gas price in gwei (default from config or node)")
	fl.BoolVar(&f.noWait, "no-wait", false, "return after submission without waiting for confirmation")
	if admin {
		fl.BoolVar(&f.force, "force", false, "submit even if the signing account is not the admin")
	}
}

func (a *app) runTx(ctx context.Context, out io.Writer, f *txFlags, req vault.Request) error {
	req.GasLimit = f.gasLimit
	if strings.TrimSpace(f.gasPriceGwei) != "" {
		gp, err := units.ParseGwei(f.gasPriceGwei)
		if err != nil || gp.Sign() <= 0 {
			return errors.Mark(errors.Newf("invalid --gas-price-gwei %q", f.gasPriceGwei), vault.ErrInvalidAmount)
		}
		req.GasPrice = gp
	}

	s, done, err := a.openSession(ctx, true)
	if err != nil {
		return err
	}
	defer done()

	if req.Action.AdminOnly() && !f.force {
		ok, err := vault.IsAdmin(ctx, s, s.Account().Hex())
		if err != nil {
			return err
		}
		if !ok {
			return errors.Newf("%s is not the vault admin; pass --force to submit anyway", s.Account().Hex())
		}
	}

	hash, err := vault.Execute(ctx, s, req)
	if err != nil {
		return err
	}
	fmt.Fprintf(out, "submitted %s: %s\n", req.Action, hash.Hex())
	if n, ok := networks.Lookup(s.ChainID()); ok && n.Explorer != "" {
		fmt.Fprintf(out, "  %s\n", n.TxURL(hash))
	}
	if f.noWait {
		return nil
	}
	return a.waitReceipt(ctx, out, s, hash)
}

func (a *app) waitReceipt(ctx context.Context, out io.Writer, s *vault.Session, hash common.Hash) error {
	rcpt, err := vault.AwaitConfirmation(ctx, s, hash, a.confirmTimeout())
	if err != nil {
		if errors.Is(err, vault.ErrPendingTimeout) {
			log.Warn("transaction still pending", "hash", hash.Hex())
			fmt.Fprintf(out, "still pending; check later with: receipt %s\n", hash.Hex())
			return nil
		}
		return err
	}
	status := "confirmed"
	if !rcpt.Success {
		status = "failed"
	}
	fmt.Fprintf(out, "%s in block %s, gas used %d\n", status, rcpt.BlockNumber, rcpt.GasUsed)
	if !rcpt.Success {
		return errors.Newf("transaction %s failed on chain", hash.Hex())
	}
	return nil
}

func parseAmount(s string) (*big.Int, error) {
	wei, err := units.ParseEther(s)
	if err != nil {
		return nil, errors.Mark(errors.Wrapf(err, "amount %q", s), vault.ErrInvalidAmount)
	}
	return wei, nil
}

func (a *app) depositCmd() *cobra.Command {
	var f txFlags
	cmd := &cobra.Command{
		Use:   "deposit <eth>",
		Short: "Deposit ether into the vault",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			amt, err := parseAmount(args[0])
			if err != nil {
				return err
			}
			return a.runTx(cmd.Context(), cmd.OutOrStdout(), &f, vault.Request{Action: vault.ActionDeposit, Amount: amt})
		},
	}
	f.register(cmd, false)
	return cmd
}

func (a *app) withdrawCmd() *cobra.Command {
	var f txFlags
	cmd := &cobra.Command{
		Use:   "withdraw <eth>",
		Short: "Withdraw ether from your vault deposit",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			amt, err := parseAmount(args[0])
			if err != nil {
				return err
			}
			return a.runTx(cmd.Context(), cmd.OutOrStdout(), &f, vault.Request{Action: vault.ActionWithdraw, Amount: amt})
		},
	}
	f.register(cmd, false)
	return cmd
}

func (a *app) autoCompoundCmd() *cobra.Command {
	var f txFlags
	cmd := &cobra.Command{
		Use:       "autocompound on|off",
		Short:     "Enable or disable auto-compounding for the signing account",
		Args:      cobra.MatchAll(cobra.ExactArgs(1), cobra.OnlyValidArgs),
		ValidArgs: []string{"on", "off"},
		RunE: func(cmd *cobra.Command, args []string) error {
			action := vault.ActionEnableAutoCompounding
			if args[0] == "off" {
				action = vault.ActionDisableAutoCompounding
			}
			return a.runTx(cmd.Context(), cmd.OutOrStdout(), &f, vault.Request{Action: action})
		},
	}
	f.register(cmd, false)
	return cmd
}

func (a *app) sendExternalCmd() *cobra.Command {
	var f txFlags
	cmd := &cobra.Command{
		Use:   "send-external <to> <eth>",
		Short: "Pay out of the donation pool (admin)",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			to, err := vault.ParseAddress(args[0])
			if err != nil {
				return err
			}
			amt, err := parseAmount(args[1])
			if err != nil {
				return err
			}
			return a.runTx(cmd.Context(), cmd.OutOrStdout(), &f,
				vault.Request{Action: vault.ActionSendExternal, Amount: amt, Target: to})
		},
	}
	f.register(cmd, true)
	return cmd
}

func (a *app) compoundAllCmd() *cobra.Command {
	var f txFlags
	cmd := &cobra.Command{
		Use:   "compound-all",
		Short: "Compound rewards for every opted-in depositor (admin)",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return a.runTx(cmd.Context(), cmd.OutOrStdout(), &f, vault.Request{Action: vault.ActionAutoCompoundAll})
		},
	}
	f.register(cmd, true)
	return cmd
}

func (a *app) receiptCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "receipt <tx-hash>",
		Short: "Wait for and print a transaction's outcome",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			raw := strings.TrimSpace(args[0])
			if len(raw) != 66 || !strings.HasPrefix(raw, "0x") {
				return errors.Newf("invalid transaction hash %q", raw)
			}
			ctx := cmd.Context()
			s, done, err := a.openSession(ctx, false)
			if err != nil {
				return err
			}
			defer done()
			return a.waitReceipt(ctx, cmd.OutOrStdout(), s, common.HexToHash(raw))
		},
	}
}
