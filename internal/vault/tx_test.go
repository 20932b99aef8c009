package vault

import (
	"context"
	"math/big"
	"sync"
	"testing"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/quantumauth-io/ethvault-client/internal/constants"
	"github.com/quantumauth-io/ethvault-client/internal/ethwallet/injected"
	"github.com/quantumauth-io/ethvault-client/internal/ethwallet/userwallet"
	"github.com/quantumauth-io/ethvault-client/internal/ledgertest"
)

// twoTo256 is one past the largest uint256.
var twoTo256 = new(big.Int).Lsh(big.NewInt(1), 256)

func TestBuildRejectsOutOfRangeAmounts(t *testing.T) {
	f := newFixture(t)
	s := f.userSession(t)
	target := common.HexToAddress("0x00000000000000000000000000000000000000aa")

	for _, action := range []Action{ActionDeposit, ActionWithdraw, ActionSendExternal} {
		for _, amount := range []*big.Int{nil, big.NewInt(0), big.NewInt(-1), ether(-3), twoTo256, new(big.Int).Add(twoTo256, big.NewInt(5))} {
			_, err := Build(context.Background(), s, Request{Action: action, Amount: amount, Target: target})
			require.Error(t, err, "%s %v", action, amount)
			assert.True(t, errors.Is(err, ErrInvalidAmount), "%s %v: %v", action, amount, err)
		}

		// one wei is small but valid, as is the uint256 maximum
		ptx, err := Build(context.Background(), s, Request{Action: action, Amount: big.NewInt(1), Target: target})
		require.NoError(t, err, action)
		assert.NotNil(t, ptx)

		maxUint := new(big.Int).Sub(twoTo256, big.NewInt(1))
		ptx, err = Build(context.Background(), s, Request{Action: action, Amount: maxUint, Target: target})
		require.NoError(t, err, action)
		if action == ActionWithdraw {
			args, err := s.abi.Methods["withdraw"].Inputs.Unpack(ptx.Data[4:])
			require.NoError(t, err)
			assert.Equal(t, 0, maxUint.Cmp(args[0].(*big.Int)))
		}
	}
}

func TestBuildDefaultsAndOverrides(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	s := f.userSession(t)

	tests := []struct {
		req      Request
		wantGas  uint64
		wantData []byte
	}{
		{req: Request{Action: ActionDeposit, Amount: oneEther}, wantGas: constants.GasLimitDeposit, wantData: common.FromHex("0xd0e30db0")},
		{req: Request{Action: ActionWithdraw, Amount: big.NewInt(5)}, wantGas: constants.GasLimitWithdraw,
			wantData: common.FromHex("0x2e1a7d4d0000000000000000000000000000000000000000000000000000000000000005")},
		{req: Request{Action: ActionEnableAutoCompounding}, wantGas: constants.GasLimitAutoCompounding, wantData: common.FromHex("0x1bc42480")},
		{req: Request{Action: ActionDisableAutoCompounding}, wantGas: constants.GasLimitAutoCompounding, wantData: common.FromHex("0xf20c8fa5")},
		{req: Request{Action: ActionAutoCompoundAll}, wantGas: constants.GasLimitAutoCompoundAll, wantData: common.FromHex("0xf66f807b")},
		{req: Request{Action: ActionDeposit, Amount: oneEther, GasLimit: 123_456}, wantGas: 123_456, wantData: common.FromHex("0xd0e30db0")},
	}
	for _, tt := range tests {
		ptx, err := Build(ctx, s, tt.req)
		require.NoError(t, err)
		assert.Equal(t, tt.wantGas, ptx.Gas, tt.req.Action)
		assert.Equal(t, tt.wantData, ptx.Data, tt.req.Action)
		assert.Equal(t, f.user.Address(), ptx.From)
		assert.Equal(t, f.ledger.VaultAddress(), ptx.To)
		assert.Equal(t, ledgertest.DefaultGasPrice, ptx.GasPrice)
	}

	ptx, err := Build(ctx, s, Request{Action: ActionDeposit, Amount: oneEther})
	require.NoError(t, err)
	assert.Equal(t, oneEther, ptx.Value)

	ptx, err = Build(ctx, s, Request{Action: ActionWithdraw, Amount: oneEther, GasPrice: big.NewInt(7)})
	require.NoError(t, err)
	assert.Equal(t, big.NewInt(7), ptx.GasPrice)
	assert.Equal(t, 0, ptx.Value.Sign())

	// session-level overrides sit between the request and the defaults
	s2 := f.session(t, Options{
		Wallet:    f.user,
		GasPrice:  big.NewInt(10_000_000_000),
		GasLimits: map[Action]uint64{ActionDeposit: 250_000},
	})
	ptx, err = Build(ctx, s2, Request{Action: ActionDeposit, Amount: oneEther})
	require.NoError(t, err)
	assert.Equal(t, uint64(250_000), ptx.Gas)
	assert.Equal(t, big.NewInt(10_000_000_000), ptx.GasPrice)
}

func TestBuildUnknownActionAndZeroTarget(t *testing.T) {
	f := newFixture(t)
	s := f.userSession(t)

	_, err := Build(context.Background(), s, Request{Action: "selfDestruct"})
	assert.True(t, errors.Is(err, ErrInvalidAction))

	_, err = Build(context.Background(), s, Request{Action: ActionSendExternal, Amount: oneEther})
	assert.True(t, errors.Is(err, ErrInvalidAddress))
}

func TestDepositWithdrawLifecycle(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	s := f.userSession(t)

	ptx, err := Build(ctx, s, Request{Action: ActionDeposit, Amount: ether(3)})
	require.NoError(t, err)
	stx, err := Sign(ctx, s, ptx)
	require.NoError(t, err)
	hash, err := Submit(ctx, s, stx)
	require.NoError(t, err)
	assert.Equal(t, stx.Hash(), hash)

	rcpt, err := AwaitConfirmation(ctx, s, hash, time.Second)
	require.NoError(t, err)
	assert.True(t, rcpt.Success)
	assert.Equal(t, hash, rcpt.TxHash)
	assert.NotZero(t, rcpt.GasUsed)
	assert.Equal(t, ledgertest.DefaultGasPrice, rcpt.EffectiveGasPrice)
	require.NotNil(t, rcpt.BlockNumber)
	assert.NotEqual(t, common.Hash{}, rcpt.BlockHash)
	assert.Equal(t, ether(3), f.ledger.Deposit(f.user.Address()))

	hash, err = Execute(ctx, s, Request{Action: ActionWithdraw, Amount: ether(1)})
	require.NoError(t, err)
	rcpt, err = AwaitConfirmation(ctx, s, hash, time.Second)
	require.NoError(t, err)
	assert.True(t, rcpt.Success)
	assert.Equal(t, ether(2), f.ledger.Deposit(f.user.Address()))
}

func TestSignIsDeterministicAndChecksSender(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	s := f.userSession(t)

	ptx, err := Build(ctx, s, Request{Action: ActionDeposit, Amount: oneEther})
	require.NoError(t, err)

	a, err := Sign(ctx, s, ptx)
	require.NoError(t, err)
	b, err := Sign(ctx, s, ptx)
	require.NoError(t, err)
	assert.Equal(t, a.Hash(), b.Hash())

	raw, err := a.Raw()
	require.NoError(t, err)
	decoded := new(types.Transaction)
	require.NoError(t, decoded.UnmarshalBinary(raw))
	assert.Equal(t, f.ledger.ChainID(), decoded.ChainId())
	assert.Equal(t, uint8(types.LegacyTxType), decoded.Type())

	_, err = SignWith(ctx, f.admin, ptx)
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrSigning))
}

func TestNonceCollisionWithoutSubmission(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	s := f.userSession(t)

	first, err := Build(ctx, s, Request{Action: ActionDeposit, Amount: big.NewInt(1000)})
	require.NoError(t, err)
	second, err := Build(ctx, s, Request{Action: ActionDeposit, Amount: big.NewInt(2000)})
	require.NoError(t, err)
	assert.Equal(t, first.Nonce, second.Nonce)

	st1, err := Sign(ctx, s, first)
	require.NoError(t, err)
	st2, err := Sign(ctx, s, second)
	require.NoError(t, err)

	_, err = Submit(ctx, s, st1)
	require.NoError(t, err)
	_, err = Submit(ctx, s, st2)
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrSubmission))
	assert.Contains(t, err.Error(), "nonce too low")
}

func TestNoncesIncreaseAcrossSubmissions(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	f.ledger.SetAutoMine(false) // pending nonce must account for unmined transactions
	s := f.userSession(t)

	var last uint64
	for i := 0; i < 3; i++ {
		ptx, err := Build(ctx, s, Request{Action: ActionDeposit, Amount: big.NewInt(int64(1000 + i))})
		require.NoError(t, err)
		if i > 0 {
			assert.Equal(t, last+1, ptx.Nonce)
		}
		last = ptx.Nonce

		stx, err := Sign(ctx, s, ptx)
		require.NoError(t, err)
		_, err = Submit(ctx, s, stx)
		require.NoError(t, err)
	}
	assert.Equal(t, 3, f.ledger.PendingCount())
}

func TestSubmitIsSingleUse(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	s := f.userSession(t)

	ptx, err := Build(ctx, s, Request{Action: ActionDeposit, Amount: oneEther})
	require.NoError(t, err)
	stx, err := Sign(ctx, s, ptx)
	require.NoError(t, err)

	_, err = Submit(ctx, s, stx)
	require.NoError(t, err)
	_, err = Submit(ctx, s, stx)
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrSubmission))
	assert.Equal(t, oneEther, f.ledger.Deposit(f.user.Address()))
}

func TestSubmitInsufficientFunds(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	s := f.userSession(t)

	ptx, err := Build(ctx, s, Request{Action: ActionDeposit, Amount: ether(1000)})
	require.NoError(t, err)
	stx, err := Sign(ctx, s, ptx)
	require.NoError(t, err)

	_, err = Submit(ctx, s, stx)
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrSubmission))
}

func TestSendExternalFromNonAdminIsRejectedByLedger(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	f.ledger.SeedDonationPool(oneEther)
	s := f.userSession(t)
	target := common.HexToAddress("0x00000000000000000000000000000000000000aa")

	// not gated locally: builds and signs like any other action
	ptx, err := Build(ctx, s, Request{Action: ActionSendExternal, Amount: big.NewInt(100), Target: target})
	require.NoError(t, err)
	stx, err := Sign(ctx, s, ptx)
	require.NoError(t, err)

	_, err = Submit(ctx, s, stx)
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrSubmission))
	assert.False(t, errors.Is(err, ErrInvalidAddress))
	assert.Equal(t, ledgertest.ReasonOnlyAdmin, RevertReason(err))
	assert.Equal(t, 0, f.ledger.Balance(target).Sign())
}

func TestSendExternalFromAdmin(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	f.ledger.SeedDonationPool(oneEther)
	s := f.adminSession(t)
	target := common.HexToAddress("0x00000000000000000000000000000000000000aa")

	hash, err := Execute(ctx, s, Request{Action: ActionSendExternal, Amount: big.NewInt(100), Target: target})
	require.NoError(t, err)
	rcpt, err := AwaitConfirmation(ctx, s, hash, time.Second)
	require.NoError(t, err)
	assert.True(t, rcpt.Success)
	assert.Equal(t, big.NewInt(100), f.ledger.Balance(target))
}

func TestAutoCompoundAll(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	us := f.userSession(t)
	as := f.adminSession(t)

	_, err := Execute(ctx, us, Request{Action: ActionDeposit, Amount: oneEther})
	require.NoError(t, err)
	_, err = Execute(ctx, us, Request{Action: ActionEnableAutoCompounding})
	require.NoError(t, err)
	f.ledger.SetRewards(f.user.Address(), big.NewInt(42))

	_, err = Execute(ctx, us, Request{Action: ActionAutoCompoundAll})
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrSubmission))

	_, err = Execute(ctx, as, Request{Action: ActionAutoCompoundAll})
	require.NoError(t, err)
	assert.Equal(t, new(big.Int).Add(oneEther, big.NewInt(42)), f.ledger.Deposit(f.user.Address()))
}

func TestAwaitConfirmationZeroTimeout(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	f.ledger.SetAutoMine(false)
	s := f.userSession(t)

	hash, err := Execute(ctx, s, Request{Action: ActionDeposit, Amount: oneEther})
	require.NoError(t, err)

	start := time.Now()
	_, err = AwaitConfirmation(ctx, s, hash, 0)
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrPendingTimeout))
	assert.Less(t, time.Since(start), time.Second)

	// still outstanding, not failed
	f.ledger.Mine()
	rcpt, err := AwaitConfirmation(ctx, s, hash, 0)
	require.NoError(t, err)
	assert.True(t, rcpt.Success)
}

func TestAwaitConfirmationPollsUntilMined(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	f.ledger.SetAutoMine(false)
	s := f.userSession(t)

	hash, err := Execute(ctx, s, Request{Action: ActionDeposit, Amount: oneEther})
	require.NoError(t, err)

	time.AfterFunc(200*time.Millisecond, f.ledger.Mine)
	rcpt, err := AwaitConfirmation(ctx, s, hash, 5*time.Second)
	require.NoError(t, err)
	assert.True(t, rcpt.Success)
}

func TestAwaitConfirmationShortTimeout(t *testing.T) {
	f := newFixture(t)
	f.ledger.SetAutoMine(false)
	s := f.userSession(t)

	hash, err := Execute(context.Background(), s, Request{Action: ActionDeposit, Amount: oneEther})
	require.NoError(t, err)

	start := time.Now()
	_, err = AwaitConfirmation(context.Background(), s, hash, 100*time.Millisecond)
	assert.True(t, errors.Is(err, ErrPendingTimeout))
	assert.Less(t, time.Since(start), 2*time.Second)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err = AwaitConfirmation(ctx, s, hash, time.Minute)
	assert.True(t, errors.Is(err, ErrPendingTimeout))
}

func TestFailedReceiptIsReported(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	s := f.userSession(t)

	// enough to be admitted, too little to run the call
	hash, err := Execute(ctx, s, Request{Action: ActionDeposit, Amount: oneEther, GasLimit: 30_000})
	require.NoError(t, err)

	rcpt, err := AwaitConfirmation(ctx, s, hash, time.Second)
	require.NoError(t, err)
	assert.False(t, rcpt.Success)
	assert.Equal(t, 0, f.ledger.Deposit(f.user.Address()).Sign())
}

func TestExecuteSerializesConcurrentCallers(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	s := f.userSession(t)

	const n = 8
	var wg sync.WaitGroup
	errs := make([]error, n)
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, errs[i] = Execute(ctx, s, Request{Action: ActionDeposit, Amount: big.NewInt(int64(i + 1))})
		}(i)
	}
	wg.Wait()

	for i, err := range errs {
		require.NoError(t, err, "caller %d", i)
	}
	// 1 + 2 + ... + n
	assert.Equal(t, big.NewInt(n*(n+1)/2), f.ledger.Deposit(f.user.Address()))
}

func TestExecuteDelegated(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)

	key, err := crypto.GenerateKey()
	require.NoError(t, err)
	w := f.ledger.NewWallet(key)
	defer w.Close()
	f.ledger.Fund(w.Address(), ether(5))

	signer := injected.New(w.RPCClient())
	defer signer.Close()
	s := f.session(t, Options{Delegate: signer})

	hash, err := Execute(ctx, s, Request{Action: ActionDeposit, Amount: oneEther})
	require.NoError(t, err)
	assert.Equal(t, []common.Hash{hash}, w.Sent())
	assert.Equal(t, oneEther, f.ledger.Deposit(w.Address()))

	// validation still happens before the wallet is bothered
	_, err = Execute(ctx, s, Request{Action: ActionWithdraw, Amount: big.NewInt(0)})
	assert.True(t, errors.Is(err, ErrInvalidAmount))
	assert.Len(t, w.Sent(), 1)

	w.SetReject(true)
	_, err = Execute(ctx, s, Request{Action: ActionWithdraw, Amount: oneEther})
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrUserRejected))
	assert.False(t, errors.Is(err, ErrSubmission))

	// a delegate session cannot sign locally
	ptx, err := Build(ctx, s, Request{Action: ActionWithdraw, Amount: oneEther})
	require.NoError(t, err)
	_, err = Sign(ctx, s, ptx)
	assert.True(t, errors.Is(err, ErrSigning))
}

func TestSignWithForeignWallet(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	s := f.userSession(t)

	other, err := userwallet.NewRandomWallet()
	require.NoError(t, err)

	ptx, err := Build(ctx, s, Request{Action: ActionEnableAutoCompounding})
	require.NoError(t, err)
	_, err = SignWith(ctx, other, ptx)
	assert.True(t, errors.Is(err, ErrSigning))

	stx, err := SignWith(ctx, f.user, ptx)
	require.NoError(t, err)
	assert.Equal(t, f.user.Address(), stx.From())
	assert.Equal(t, ptx.Nonce, stx.Nonce())
	assert.Equal(t, ActionEnableAutoCompounding, stx.Action())
}

func TestParseAction(t *testing.T) {
	a, err := ParseAction("Deposit")
	require.NoError(t, err)
	assert.Equal(t, ActionDeposit, a)

	a, err = ParseAction(" sendexternal ")
	require.NoError(t, err)
	assert.Equal(t, ActionSendExternal, a)
	assert.True(t, a.AdminOnly())

	_, err = ParseAction("rugpull")
	assert.True(t, errors.Is(err, ErrInvalidAction))

	assert.Len(t, Actions(), 6)
}

func TestQueuedWithdrawSeesPendingDeposit(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	f.ledger.SetAutoMine(false)
	s := f.userSession(t)

	depositHash, err := Execute(ctx, s, Request{Action: ActionDeposit, Amount: oneEther})
	require.NoError(t, err)
	withdrawHash, err := Execute(ctx, s, Request{Action: ActionWithdraw, Amount: oneEther})
	require.NoError(t, err)
	assert.Equal(t, 2, f.ledger.PendingCount())

	// still bounded by what the pending state holds
	_, err = Execute(ctx, s, Request{Action: ActionWithdraw, Amount: oneEther})
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrSubmission))
	assert.Equal(t, ledgertest.ReasonInsufficient, RevertReason(err))
	assert.Contains(t, err.Error(), "pre-flight eth_call: reverted: "+ledgertest.ReasonInsufficient)

	f.ledger.Mine()
	for _, h := range []common.Hash{depositHash, withdrawHash} {
		rcpt, err := AwaitConfirmation(ctx, s, h, 0)
		require.NoError(t, err)
		assert.True(t, rcpt.Success, h.Hex())
	}
	assert.Equal(t, 0, f.ledger.Deposit(f.user.Address()).Sign())
}
