package vault

import (
	"context"
	"math/big"
	"strings"
	"testing"

	"github.com/cockroachdb/errors"
	"github.com/ethereum/go-ethereum/common"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/quantumauth-io/ethvault-client/internal/ledgertest"
)

func TestParseAddress(t *testing.T) {
	tests := []struct {
		name    string
		in      string
		wantErr bool
	}{
		{name: "checksummed", in: devAddr},
		{name: "lowercase", in: strings.ToLower(devAddr)},
		{name: "uppercase body", in: "0x" + strings.ToUpper(devAddr[2:])},
		{name: "no prefix", in: strings.ToLower(devAddr[2:])},
		{name: "surrounding space", in: "  " + devAddr + " "},
		{name: "bad checksum", in: "0xF39Fd6e51aad88F6F4ce6aB8827279cffFb92266", wantErr: true},
		{name: "short", in: "0x1234", wantErr: true},
		{name: "not hex", in: "0xzz9Fd6e51aad88F6F4ce6aB8827279cffFb92266", wantErr: true},
		{name: "empty", in: "", wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseAddress(tt.in)
			if tt.wantErr {
				require.Error(t, err)
				assert.True(t, errors.Is(err, ErrInvalidAddress))
				return
			}
			require.NoError(t, err)
			assert.Equal(t, common.HexToAddress(devAddr), got)
		})
	}
}

func TestGetUserInfoFreshAddress(t *testing.T) {
	f := newFixture(t)
	s := f.userSession(t)

	info, err := GetUserInfo(context.Background(), s, "0x00000000000000000000000000000000000000ff")
	require.NoError(t, err)
	assert.Equal(t, 0, info.DepositBalance.Sign())
	assert.Equal(t, 0, info.CurrentRewards.Sign())
	assert.False(t, info.AutoCompounding)
}

func TestGetUserInfoInvalidAddress(t *testing.T) {
	f := newFixture(t)
	s := f.userSession(t)

	_, err := GetUserInfo(context.Background(), s, "0xnothex")
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrInvalidAddress))
	assert.False(t, errors.Is(err, ErrQueryFailed))
}

func TestQueriesAfterDeposit(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	s := f.userSession(t)

	_, err := Execute(ctx, s, Request{Action: ActionDeposit, Amount: ether(2)})
	require.NoError(t, err)
	_, err = Execute(ctx, s, Request{Action: ActionEnableAutoCompounding})
	require.NoError(t, err)
	f.ledger.SetRewards(f.user.Address(), big.NewInt(777))
	f.ledger.SeedDonationPool(big.NewInt(500))

	info, err := GetUserInfo(ctx, s, f.user.Address().Hex())
	require.NoError(t, err)
	assert.Equal(t, ether(2), info.DepositBalance)
	assert.Equal(t, big.NewInt(777), info.CurrentRewards)
	assert.True(t, info.AutoCompounding)

	rewards, err := CalculateRewards(ctx, s, f.user.Address().Hex())
	require.NoError(t, err)
	assert.Equal(t, big.NewInt(777), rewards)

	total, err := GetTotalLocked(ctx, s)
	require.NoError(t, err)
	assert.Equal(t, new(big.Int).Add(ether(2), big.NewInt(500)), total)

	ov, err := GetOverview(ctx, s)
	require.NoError(t, err)
	assert.Equal(t, total, ov.TotalLocked)
	assert.Equal(t, big.NewInt(500), ov.DonationPool)
	assert.Equal(t, f.admin.Address(), ov.Admin)
}

func TestParticipantsEmptyVault(t *testing.T) {
	f := newFixture(t)
	s := f.userSession(t)

	users, err := GetAllParticipants(context.Background(), s)
	require.NoError(t, err)
	require.NotNil(t, users)
	assert.Empty(t, users)
	for range users {
		t.Fatal("unexpected participant")
	}

	contributors, err := ListContributors(context.Background(), s)
	require.NoError(t, err)
	assert.Empty(t, contributors)
}

func TestListContributorsSkipsEmptyDeposits(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	us := f.userSession(t)
	as := f.adminSession(t)

	_, err := Execute(ctx, us, Request{Action: ActionDeposit, Amount: ether(1)})
	require.NoError(t, err)
	_, err = Execute(ctx, as, Request{Action: ActionDeposit, Amount: big.NewInt(10)})
	require.NoError(t, err)
	// admin withdraws everything and stays listed by the contract
	_, err = Execute(ctx, as, Request{Action: ActionWithdraw, Amount: big.NewInt(10)})
	require.NoError(t, err)

	users, err := GetAllParticipants(ctx, us)
	require.NoError(t, err)
	assert.Equal(t, []common.Address{f.user.Address(), f.admin.Address()}, users)

	contributors, err := ListContributors(ctx, us)
	require.NoError(t, err)
	require.Len(t, contributors, 1)
	assert.Equal(t, f.user.Address(), contributors[0].Address)
	assert.Equal(t, ether(1), contributors[0].Info.DepositBalance)
}

func TestIsAdminCaseInsensitive(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	s := f.userSession(t)

	adminHex := f.admin.Address().Hex()
	for _, form := range []string{adminHex, strings.ToLower(adminHex), "0x" + strings.ToUpper(adminHex[2:])} {
		ok, err := IsAdmin(ctx, s, form)
		require.NoError(t, err)
		assert.True(t, ok, form)
	}

	ok, err := IsAdmin(ctx, s, f.user.Address().Hex())
	require.NoError(t, err)
	assert.False(t, ok)

	// admin is re-read on every call
	f.ledger.SetAdmin(f.user.Address())
	ok, err = IsAdmin(ctx, s, f.user.Address().Hex())
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestOptionalMethodsAbsent(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, ledgertest.WithoutMethods(
		MethodGetDonationPool, MethodAutoCompoundAll, MethodGetAllUsers, MethodCalculateRewards,
	))
	s := f.adminSession(t)

	caps := s.Capabilities()
	assert.Equal(t, []string{
		MethodAutoCompoundAll, MethodCalculateRewards, MethodGetAllUsers, MethodGetDonationPool,
	}, caps.Unsupported())
	assert.True(t, caps.Supports("deposit"))

	_, err := GetDonationPool(ctx, s)
	assert.True(t, errors.Is(err, ErrUnsupportedMethod))
	_, err = GetAllParticipants(ctx, s)
	assert.True(t, errors.Is(err, ErrUnsupportedMethod))
	_, err = ListContributors(ctx, s)
	assert.True(t, errors.Is(err, ErrUnsupportedMethod))
	_, err = CalculateRewards(ctx, s, f.user.Address().Hex())
	assert.True(t, errors.Is(err, ErrUnsupportedMethod))
	_, err = Build(ctx, s, Request{Action: ActionAutoCompoundAll})
	assert.True(t, errors.Is(err, ErrUnsupportedMethod))

	// the overview degrades instead of failing
	ov, err := GetOverview(ctx, s)
	require.NoError(t, err)
	assert.Nil(t, ov.DonationPool)
}

func TestSkipProbeSurfacesRevertAsQueryFailure(t *testing.T) {
	f := newFixture(t, ledgertest.WithoutMethods(MethodGetAllUsers))
	s := f.session(t, Options{SkipProbe: true})

	assert.True(t, s.Capabilities().Supports(MethodGetAllUsers))
	_, err := GetAllParticipants(context.Background(), s)
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrQueryFailed))
}

func TestHasSelector(t *testing.T) {
	sel := []byte{0x0f, 0x3a, 0x46, 0x12}
	assert.True(t, hasSelector([]byte{0x00, 0x63, 0x0f, 0x3a, 0x46, 0x12, 0x14}, sel))
	assert.False(t, hasSelector([]byte{0x0f, 0x3a, 0x46, 0x12}, sel))

	lead0 := []byte{0x00, 0xaa, 0xbb, 0xcc}
	assert.True(t, hasSelector([]byte{0x62, 0xaa, 0xbb, 0xcc}, lead0))
}
