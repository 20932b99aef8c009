package vault

import (
	"context"
	"math/big"
	"net/url"
	"strings"

	"github.com/cockroachdb/errors"
	ethereum "github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/accounts/abi/bind"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/ethclient"
)

// Backend is the ledger surface the client needs. *ethclient.Client satisfies it.
type Backend interface {
	bind.ContractCaller
	// PendingCallContract simulates on top of the sender's not yet mined transactions.
	PendingCallContract(ctx context.Context, call ethereum.CallMsg) ([]byte, error)

	ChainID(ctx context.Context) (*big.Int, error)
	PendingNonceAt(ctx context.Context, account common.Address) (uint64, error)
	SuggestGasPrice(ctx context.Context) (*big.Int, error)
	SendTransaction(ctx context.Context, tx *types.Transaction) error
	TransactionReceipt(ctx context.Context, txHash common.Hash) (*types.Receipt, error)
}

var _ Backend = (*ethclient.Client)(nil)

// Dial opens a JSON-RPC connection. Malformed endpoints are rejected before dialing.
func Dial(ctx context.Context, endpoint string) (*ethclient.Client, error) {
	endpoint = strings.TrimSpace(endpoint)
	u, err := url.Parse(endpoint)
	if err != nil {
		// the parse error echoes the raw URL, key included
		return nil, fail(ErrConnection, "malformed endpoint URL")
	}
	switch strings.ToLower(u.Scheme) {
	case "http", "https", "ws", "wss":
	default:
		return nil, fail(ErrConnection, "unsupported endpoint scheme %q", u.Scheme)
	}
	if u.Host == "" {
		return nil, fail(ErrConnection, "endpoint %q has no host", redact(u))
	}

	c, err := ethclient.DialContext(ctx, endpoint)
	if err != nil {
		return nil, mark(errors.Wrapf(err, "failed to connect to ledger at %s", redact(u)), ErrConnection, "dial")
	}
	return c, nil
}

// redact drops the path and credentials, which carry provider API keys.
func redact(u *url.URL) string {
	return u.Scheme + "://" + u.Host
}
