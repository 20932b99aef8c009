package vault

import (
	"context"
	"math/big"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/quantumauth-io/ethvault-client/internal/ethwallet/userwallet"
	"github.com/quantumauth-io/ethvault-client/internal/ledgertest"
)

var oneEther = big.NewInt(1_000_000_000_000_000_000)

func ether(n int64) *big.Int {
	return new(big.Int).Mul(big.NewInt(n), oneEther)
}

type fixture struct {
	ledger *ledgertest.Ledger
	admin  *userwallet.Wallet
	user   *userwallet.Wallet
}

func newFixture(t *testing.T, opts ...ledgertest.Option) *fixture {
	t.Helper()
	admin, err := userwallet.NewRandomWallet()
	require.NoError(t, err)
	user, err := userwallet.NewRandomWallet()
	require.NoError(t, err)

	l := ledgertest.New(admin.Address(), opts...)
	l.Fund(admin.Address(), ether(10))
	l.Fund(user.Address(), ether(10))
	t.Cleanup(l.Close)

	return &fixture{ledger: l, admin: admin, user: user}
}

// session opens a session on a fresh in-process connection.
func (f *fixture) session(t *testing.T, opts Options) *Session {
	t.Helper()
	client := f.ledger.Client()
	t.Cleanup(client.Close)

	if opts.VaultAddress == "" {
		opts.VaultAddress = f.ledger.VaultAddress().Hex()
	}
	s, err := NewSession(context.Background(), client, opts)
	require.NoError(t, err)
	return s
}

func (f *fixture) userSession(t *testing.T) *Session {
	return f.session(t, Options{Wallet: f.user})
}

func (f *fixture) adminSession(t *testing.T) *Session {
	return f.session(t, Options{Wallet: f.admin})
}
