package vault

import (
	"math/big"
	"sync"

	"github.com/ethereum/go-ethereum/common"
)

// accountLocks serializes nonce fetch -> build -> sign -> submit per sending account
// across every session in the process.
type accountLocks struct {
	mu    sync.Mutex
	locks map[string]*sync.Mutex
}

var nonceLocks = &accountLocks{locks: make(map[string]*sync.Mutex)}

func (a *accountLocks) lock(chainID *big.Int, account common.Address) func() {
	key := chainID.String() + "/" + account.Hex()

	a.mu.Lock()
	m, ok := a.locks[key]
	if !ok {
		m = &sync.Mutex{}
		a.locks[key] = m
	}
	a.mu.Unlock()

	m.Lock()
	return m.Unlock
}
