package vault

import (
	"context"
	"math/big"
	"strings"

	"github.com/ethereum/go-ethereum/common"
)

// UserInfo is a depositor's position, always fetched fresh from the ledger.
type UserInfo struct {
	DepositBalance  *big.Int
	CurrentRewards  *big.Int
	AutoCompounding bool
}

// Overview aggregates the vault-wide figures shown on the dashboard.
type Overview struct {
	TotalLocked *big.Int
	// DonationPool is nil when the deployment has no getDonationPool.
	DonationPool *big.Int
	Admin        common.Address
}

// Contributor is a participant with a non-zero deposit.
type Contributor struct {
	Address common.Address
	Info    UserInfo
}

// ParseAddress validates a 20-byte hex account. All-lowercase and all-uppercase
// forms are accepted; mixed case must carry a valid EIP-55 checksum.
func ParseAddress(s string) (common.Address, error) {
	s = strings.TrimSpace(s)
	if !common.IsHexAddress(s) {
		return common.Address{}, fail(ErrInvalidAddress, "%q is not a 20-byte hex address", s)
	}
	addr := common.HexToAddress(s)
	body := strings.TrimPrefix(strings.TrimPrefix(s, "0x"), "0X")
	if body != strings.ToLower(body) && body != strings.ToUpper(body) {
		if strings.TrimPrefix(addr.Hex(), "0x") != body {
			return common.Address{}, fail(ErrInvalidAddress, "%q has an invalid checksum", s)
		}
	}
	return addr, nil
}

// GetUserInfo reads a depositor's position. Addresses that never interacted with the
// vault yield (0, 0, false).
func GetUserInfo(ctx context.Context, s *Session, address string) (UserInfo, error) {
	addr, err := ParseAddress(address)
	if err != nil {
		return UserInfo{}, err
	}
	return s.userInfo(ctx, addr)
}

func (s *Session) userInfo(ctx context.Context, addr common.Address) (UserInfo, error) {
	out, err := s.caller.GetUserInfo(s.callOpts(ctx), addr)
	if err != nil {
		return UserInfo{}, mark(err, ErrQueryFailed, "getUserInfo")
	}
	return UserInfo{
		DepositBalance:  nonNil(out.DepositBalance),
		CurrentRewards:  nonNil(out.CurrentRewards),
		AutoCompounding: out.AutoCompounding,
	}, nil
}

// GetTotalLocked returns the ether held by the vault (getTotalETH), in wei.
func GetTotalLocked(ctx context.Context, s *Session) (*big.Int, error) {
	v, err := s.caller.GetTotalETH(s.callOpts(ctx))
	if err != nil {
		return nil, mark(err, ErrQueryFailed, "getTotalETH")
	}
	return nonNil(v), nil
}

func GetDonationPool(ctx context.Context, s *Session) (*big.Int, error) {
	if err := s.require(MethodGetDonationPool); err != nil {
		return nil, err
	}
	v, err := s.caller.GetDonationPool(s.callOpts(ctx))
	if err != nil {
		return nil, mark(err, ErrQueryFailed, "getDonationPool")
	}
	return nonNil(v), nil
}

// GetAdminAddress reads the current admin. Not cached: the admin can change.
func GetAdminAddress(ctx context.Context, s *Session) (common.Address, error) {
	a, err := s.caller.Admin(s.callOpts(ctx))
	if err != nil {
		return common.Address{}, mark(err, ErrQueryFailed, "admin")
	}
	return a, nil
}

// GetAllParticipants lists every address the vault has seen. Never nil.
func GetAllParticipants(ctx context.Context, s *Session) ([]common.Address, error) {
	if err := s.require(MethodGetAllUsers); err != nil {
		return nil, err
	}
	users, err := s.caller.GetAllUsers(s.callOpts(ctx))
	if err != nil {
		return nil, mark(err, ErrQueryFailed, "getAllUsers")
	}
	if users == nil {
		users = []common.Address{}
	}
	return users, nil
}

func CalculateRewards(ctx context.Context, s *Session, address string) (*big.Int, error) {
	addr, err := ParseAddress(address)
	if err != nil {
		return nil, err
	}
	if err := s.require(MethodCalculateRewards); err != nil {
		return nil, err
	}
	v, err := s.caller.CalculateRewards(s.callOpts(ctx), addr)
	if err != nil {
		return nil, mark(err, ErrQueryFailed, "calculateRewards")
	}
	return nonNil(v), nil
}

// IsAdmin compares address against a freshly fetched admin.
func IsAdmin(ctx context.Context, s *Session, address string) (bool, error) {
	addr, err := ParseAddress(address)
	if err != nil {
		return false, err
	}
	admin, err := GetAdminAddress(ctx, s)
	if err != nil {
		return false, err
	}
	return admin == addr, nil
}

// GetOverview reads total locked, admin and, when available, the donation pool.
func GetOverview(ctx context.Context, s *Session) (*Overview, error) {
	total, err := GetTotalLocked(ctx, s)
	if err != nil {
		return nil, err
	}
	admin, err := GetAdminAddress(ctx, s)
	if err != nil {
		return nil, err
	}
	ov := &Overview{TotalLocked: total, Admin: admin}
	if s.caps.Supports(MethodGetDonationPool) {
		if ov.DonationPool, err = GetDonationPool(ctx, s); err != nil {
			return nil, err
		}
	}
	return ov, nil
}

// ListContributors returns the participants holding a deposit, in vault order.
func ListContributors(ctx context.Context, s *Session) ([]Contributor, error) {
	users, err := GetAllParticipants(ctx, s)
	if err != nil {
		return nil, err
	}
	out := make([]Contributor, 0, len(users))
	for _, u := range users {
		info, err := s.userInfo(ctx, u)
		if err != nil {
			return nil, err
		}
		if info.DepositBalance.Sign() > 0 {
			out = append(out, Contributor{Address: u, Info: info})
		}
	}
	return out, nil
}

func nonNil(v *big.Int) *big.Int {
	if v == nil {
		return new(big.Int)
	}
	return v
}
