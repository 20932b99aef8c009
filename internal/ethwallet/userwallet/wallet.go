package userwallet

import (
	"context"
	"crypto/ecdsa"
	"strings"

	"github.com/cockroachdb/errors"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"

	"github.com/quantumauth-io/ethvault-client/internal/ethwallet/wtypes"
)

var ErrInvalidKey = errors.New("invalid private key")

// Wallet signs with a secp256k1 key held in memory for the lifetime of the session.
type Wallet struct {
	key  *ecdsa.PrivateKey
	addr common.Address
}

var _ wtypes.Wallet = (*Wallet)(nil)

// FromPrivateKeyHex parses a 32-byte hex key, with or without 0x prefix.
func FromPrivateKeyHex(keyHex string) (*Wallet, error) {
	key, err := parsePrivateKey(keyHex)
	if err != nil {
		return nil, err
	}
	return FromECDSA(key), nil
}

func FromECDSA(key *ecdsa.PrivateKey) *Wallet {
	return &Wallet{key: key, addr: crypto.PubkeyToAddress(key.PublicKey)}
}

// NewRandomWallet generates a fresh key. Used for throwaway accounts.
func NewRandomWallet() (*Wallet, error) {
	key, err := crypto.GenerateKey()
	if err != nil {
		return nil, errors.Wrap(err, "generate key")
	}
	return FromECDSA(key), nil
}

func (w *Wallet) Address() common.Address {
	return w.addr
}

func (w *Wallet) ExportPrivateKey(ctx context.Context) (*ecdsa.PrivateKey, error) {
	_ = ctx // no-op for user wallet
	return w.key, nil
}

func (w *Wallet) SignHash(ctx context.Context, digest32 []byte) ([]byte, error) {
	_ = ctx // unused for now; keeps interface symmetric

	if err := wtypes.EnsureDigest32(digest32); err != nil {
		return nil, err
	}
	return crypto.Sign(digest32, w.key) // returns V=0/1
}

// DeriveAddress returns the account of a hex key without keeping the key around.
func DeriveAddress(keyHex string) (common.Address, error) {
	key, err := parsePrivateKey(keyHex)
	if err != nil {
		return common.Address{}, err
	}
	return crypto.PubkeyToAddress(key.PublicKey), nil
}

func parsePrivateKey(keyHex string) (*ecdsa.PrivateKey, error) {
	s := strings.TrimSpace(keyHex)
	if len(s) >= 2 && (s[0:2] == "0x" || s[0:2] == "0X") {
		s = s[2:]
	}
	// must be 32 bytes for secp256k1 private key
	if len(s) != 64 {
		return nil, errors.Wrapf(ErrInvalidKey, "hex length: got %d want 64", len(s))
	}
	key, err := crypto.HexToECDSA(s)
	if err != nil {
		// the cause may echo key material, so only the category is kept
		return nil, errors.Wrap(ErrInvalidKey, "to ecdsa")
	}
	return key, nil
}
