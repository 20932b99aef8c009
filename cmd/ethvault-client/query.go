package main

import (
	"fmt"
	"io"
	"math/big"

	"github.com/ethereum/go-ethereum/common"
	"github.com/spf13/cobra"

	"github.com/quantumauth-io/ethvault-client/internal/networks"
	"github.com/quantumauth-io/ethvault-client/internal/units"
	"github.com/quantumauth-io/ethvault-client/internal/vault"
)

func eth(wei *big.Int) string {
	return units.FormatEther(wei) + " ETH"
}

func (a *app) overviewCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "overview",
		Short: "Show vault totals, donation pool and admin",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()
			s, done, err := a.openSession(ctx, false)
			if err != nil {
				return err
			}
			defer done()

			ov, err := vault.GetOverview(ctx, s)
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "Network:       %s\n", networks.Label(s.ChainID()))
			fmt.Fprintf(out, "Vault:         %s\n", s.VaultAddress().Hex())
			if n, ok := networks.Lookup(s.ChainID()); ok && n.Explorer != "" {
				fmt.Fprintf(out, "Explorer:      %s\n", n.AddressURL(s.VaultAddress()))
			}
			fmt.Fprintf(out, "Admin:         %s\n", ov.Admin.Hex())
			fmt.Fprintf(out, "Total locked:  %s\n", eth(ov.TotalLocked))
			if ov.DonationPool != nil {
				fmt.Fprintf(out, "Donation pool: %s\n", eth(ov.DonationPool))
			} else {
				fmt.Fprintln(out, "Donation pool: not supported by this deployment")
			}
			return nil
		},
	}
}

func printUser(out io.Writer, addr common.Address, info vault.UserInfo) {
	fmt.Fprintf(out, "%s\n", addr.Hex())
	fmt.Fprintf(out, "  deposit:          %s\n", eth(info.DepositBalance))
	fmt.Fprintf(out, "  rewards:          %s\n", eth(info.CurrentRewards))
	fmt.Fprintf(out, "  auto-compounding: %t\n", info.AutoCompounding)
}

func (a *app) userCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "user <address>",
		Short: "Show a depositor's balance, rewards and auto-compounding flag",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			addr, err := vault.ParseAddress(args[0])
			if err != nil {
				return err
			}
			s, done, err := a.openSession(ctx, false)
			if err != nil {
				return err
			}
			defer done()

			info, err := vault.GetUserInfo(ctx, s, addr.Hex())
			if err != nil {
				return err
			}
			printUser(cmd.OutOrStdout(), addr, info)
			return nil
		},
	}
}

func (a *app) participantsCmd() *cobra.Command {
	var all bool
	cmd := &cobra.Command{
		Use:   "participants",
		Short: "List contributors with a non-zero deposit",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()
			s, done, err := a.openSession(ctx, false)
			if err != nil {
				return err
			}
			defer done()

			out := cmd.OutOrStdout()
			if all {
				users, err := vault.GetAllParticipants(ctx, s)
				if err != nil {
					return err
				}
				for _, u := range users {
					fmt.Fprintln(out, u.Hex())
				}
				return nil
			}

			contributors, err := vault.ListContributors(ctx, s)
			if err != nil {
				return err
			}
			if len(contributors) == 0 {
				fmt.Fprintln(out, "no contributors")
				return nil
			}
			for _, c := range contributors {
				printUser(out, c.Address, c.Info)
			}
			return nil
		},
	}
	cmd.Flags().BoolVar(&all, "all", false, "list every address that ever deposited, including emptied ones")
	return cmd
}

func (a *app) rewardsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "rewards <address>",
		Short: "Show the rewards the vault computes for an address",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			s, done, err := a.openSession(ctx, false)
			if err != nil {
				return err
			}
			defer done()

			rewards, err := vault.CalculateRewards(ctx, s, args[0])
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), eth(rewards))
			return nil
		},
	}
}

func (a *app) isAdminCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "is-admin [address]",
		Short: "Report whether an address (default: the signing account) is the vault admin",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			s, done, err := a.openSession(ctx, len(args) == 0)
			if err != nil {
				return err
			}
			defer done()

			addr := s.Account().Hex()
			if len(args) == 1 {
				addr = args[0]
			}
			ok, err := vault.IsAdmin(ctx, s, addr)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s admin: %t\n", addr, ok)
			return nil
		},
	}
}
