package wtypes

import (
	"context"
	"crypto/ecdsa"
	"math/big"

	"github.com/cockroachdb/errors"
	"github.com/ethereum/go-ethereum/common"
)

var (
	ErrNotExportable = errors.New("private key is not exportable")
	ErrUserRejected  = errors.New("user rejected request")
)

// Wallet is the unified interface for any EOA-like signer held by this process.
//   - SignHash signs a 32-byte digest and returns a 65-byte signature (R || S || V),
//     where V is 0/1 as produced by go-ethereum's crypto.Sign.
//   - Wallets that keep the key out of reach return ErrNotExportable from ExportPrivateKey.
type Wallet interface {
	Address() common.Address
	SignHash(ctx context.Context, digest32 []byte) ([]byte, error)
	ExportPrivateKey(ctx context.Context) (*ecdsa.PrivateKey, error)
}

// Delegate is an external agent (browser wallet, remote signer) that owns the key and
// performs sign + broadcast itself. The client only hands it an unsigned request.
type Delegate interface {
	RequestAccount(ctx context.Context) (common.Address, error)
	SendTransaction(ctx context.Context, req TxRequest) (common.Hash, error)
}

// TxRequest is the unsigned call handed to a Delegate. Nil / zero fields are left for
// the delegate to fill.
type TxRequest struct {
	From     common.Address
	To       common.Address
	Value    *big.Int
	Data     []byte
	Gas      uint64
	GasPrice *big.Int
}

func EnsureDigest32(d []byte) error {
	if len(d) != 32 {
		return errors.Newf("digest must be 32 bytes, got %d", len(d))
	}
	return nil
}
