// Package ledgertest runs an in-process JSON-RPC ledger that hosts a single vault
// contract. It speaks the subset of the eth namespace the vault client uses, so tests
// drive the real ethclient, ABI encoding and raw transaction path.
package ledgertest

import (
	"math/big"
	"sync"

	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/ethereum/go-ethereum/ethclient"
	"github.com/ethereum/go-ethereum/rpc"

	"github.com/quantumauth-io/ethvault-client/internal/contracts/bindings/go/ethvault"
)

const (
	DefaultChainID = 1337

	// callGas is the flat gas charged for any contract interaction.
	callGas uint64 = 52_000
	// plainTransferGas is charged for value transfers without calldata.
	plainTransferGas uint64 = 21_000
)

var (
	DefaultVaultAddress = common.HexToAddress("0x5FbDB2315678afecb367f032d93F642f64180aa3")
	DefaultGasPrice     = big.NewInt(1_000_000_000)
)

// Ledger is a single-contract chain kept entirely in memory.
type Ledger struct {
	mu sync.Mutex

	chainID  *big.Int
	gasPrice *big.Int
	vault    common.Address
	vaultABI abi.ABI

	admin        common.Address
	deposits     map[common.Address]*big.Int
	rewards      map[common.Address]*big.Int
	autoCompound map[common.Address]bool
	users        []common.Address
	donationPool *big.Int
	removed      map[string]bool
	code         []byte
	codeOverride bool

	balances map[common.Address]*big.Int
	nonces   map[common.Address]uint64

	autoMine bool
	pending  []*types.Transaction
	known    map[common.Hash]bool
	receipts map[common.Hash]*types.Receipt
	block    uint64

	server *rpc.Server
}

type Option func(*Ledger)

func WithChainID(id int64) Option {
	return func(l *Ledger) { l.chainID = big.NewInt(id) }
}

func WithGasPrice(wei *big.Int) Option {
	return func(l *Ledger) { l.gasPrice = new(big.Int).Set(wei) }
}

// WithoutMethods deploys a vault variant lacking the named ABI methods.
func WithoutMethods(names ...string) Option {
	return func(l *Ledger) {
		for _, n := range names {
			l.removed[n] = true
		}
	}
}

// New starts a ledger with the vault deployed at DefaultVaultAddress.
func New(admin common.Address, opts ...Option) *Ledger {
	parsed, err := ethvault.EthVaultMetaData.GetAbi()
	if err != nil {
		panic(err)
	}

	l := &Ledger{
		chainID:      big.NewInt(DefaultChainID),
		gasPrice:     new(big.Int).Set(DefaultGasPrice),
		vault:        DefaultVaultAddress,
		vaultABI:     *parsed,
		admin:        admin,
		deposits:     make(map[common.Address]*big.Int),
		rewards:      make(map[common.Address]*big.Int),
		autoCompound: make(map[common.Address]bool),
		donationPool: new(big.Int),
		removed:      make(map[string]bool),
		balances:     make(map[common.Address]*big.Int),
		nonces:       make(map[common.Address]uint64),
		autoMine:     true,
		known:        make(map[common.Hash]bool),
		receipts:     make(map[common.Hash]*types.Receipt),
		block:        1,
	}
	for _, opt := range opts {
		opt(l)
	}

	l.server = rpc.NewServer()
	if err := l.server.RegisterName("eth", &ethService{l: l}); err != nil {
		panic(err)
	}
	return l
}

// Client opens a fresh in-process connection.
func (l *Ledger) Client() *ethclient.Client {
	return ethclient.NewClient(rpc.DialInProc(l.server))
}

func (l *Ledger) RPCServer() *rpc.Server { return l.server }

func (l *Ledger) Close() { l.server.Stop() }

func (l *Ledger) ChainID() *big.Int { return new(big.Int).Set(l.chainID) }

func (l *Ledger) VaultAddress() common.Address { return l.vault }

func (l *Ledger) Admin() common.Address {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.admin
}

func (l *Ledger) SetAdmin(a common.Address) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.admin = a
}

// Fund credits an externally owned account.
func (l *Ledger) Fund(a common.Address, wei *big.Int) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.balances[a] = new(big.Int).Add(l.balanceOf(a), wei)
}

func (l *Ledger) Balance(a common.Address) *big.Int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return new(big.Int).Set(l.balanceOf(a))
}

func (l *Ledger) Deposit(a common.Address) *big.Int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return new(big.Int).Set(bigOr0(l.deposits[a]))
}

func (l *Ledger) DonationPool() *big.Int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return new(big.Int).Set(l.donationPool)
}

// SeedDonationPool credits the pool as if ether had been sent to receive().
func (l *Ledger) SeedDonationPool(wei *big.Int) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.donationPool = new(big.Int).Add(l.donationPool, wei)
}

// SetRewards sets the accrued, not yet compounded rewards of a depositor.
func (l *Ledger) SetRewards(a common.Address, wei *big.Int) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.rewards[a] = new(big.Int).Set(wei)
}

// SetCode replaces the runtime code reported by eth_getCode. Nil means no contract.
func (l *Ledger) SetCode(code []byte) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.code = code
	l.codeOverride = true
}

// SetAutoMine controls whether accepted transactions are included immediately.
func (l *Ledger) SetAutoMine(on bool) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.autoMine = on
}

// Mine includes every pending transaction in a new block.
func (l *Ledger) Mine() {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.mine()
}

func (l *Ledger) PendingCount() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.pending)
}

func (l *Ledger) Receipt(h common.Hash) *types.Receipt {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.receipts[h]
}

// runtimeCode renders a stand-in runtime bytecode: a PUSH4 of every exposed selector,
// which is what the solidity dispatcher emits.
func (l *Ledger) runtimeCode() []byte {
	if l.codeOverride {
		return l.code
	}
	code := []byte{0x60, 0x80, 0x60, 0x40, 0x52}
	for name, m := range l.vaultABI.Methods {
		if l.removed[name] {
			continue
		}
		code = append(code, 0x63)
		code = append(code, m.ID...)
		code = append(code, 0x14, 0x57)
	}
	return append(code, 0x00)
}

func (l *Ledger) balanceOf(a common.Address) *big.Int {
	return bigOr0(l.balances[a])
}

func (l *Ledger) mine() {
	if len(l.pending) == 0 {
		return
	}
	l.block++
	blockHash := crypto.Keccak256Hash(l.chainID.Bytes(), new(big.Int).SetUint64(l.block).Bytes())

	var cumulative uint64
	for i, tx := range l.pending {
		status, gasUsed := l.apply(tx)
		cumulative += gasUsed

		l.receipts[tx.Hash()] = &types.Receipt{
			Type:              tx.Type(),
			Status:            status,
			CumulativeGasUsed: cumulative,
			Logs:              []*types.Log{},
			TxHash:            tx.Hash(),
			GasUsed:           gasUsed,
			EffectiveGasPrice: new(big.Int).Set(tx.GasPrice()),
			BlockHash:         blockHash,
			BlockNumber:       new(big.Int).SetUint64(l.block),
			TransactionIndex:  uint(i),
		}
	}
	l.pending = nil
}

// apply charges the fee and executes tx against the current state.
func (l *Ledger) apply(tx *types.Transaction) (status uint64, gasUsed uint64) {
	from, _ := types.Sender(types.LatestSignerForChainID(l.chainID), tx)

	required := plainTransferGas
	if len(tx.Data()) > 0 {
		required = callGas
	}

	status = types.ReceiptStatusSuccessful
	gasUsed = required
	if tx.Gas() < required {
		// out of gas: everything supplied is burnt
		gasUsed = tx.Gas()
		status = types.ReceiptStatusFailed
	}

	fee := new(big.Int).Mul(new(big.Int).SetUint64(gasUsed), tx.GasPrice())
	l.balances[from] = new(big.Int).Sub(l.balanceOf(from), fee)

	if status == types.ReceiptStatusSuccessful {
		if _, err := l.execute(from, tx.To(), tx.Value(), tx.Data(), true); err != nil {
			status = types.ReceiptStatusFailed
		}
	}
	return status, gasUsed
}

// pendingState returns a detached copy of the contract and account state with every
// pending transaction applied, which is what the "pending" block tag observes.
func (l *Ledger) pendingState() *Ledger {
	c := &Ledger{
		chainID:      l.chainID,
		vault:        l.vault,
		vaultABI:     l.vaultABI,
		admin:        l.admin,
		deposits:     copyBalances(l.deposits),
		rewards:      copyBalances(l.rewards),
		autoCompound: make(map[common.Address]bool, len(l.autoCompound)),
		users:        append([]common.Address(nil), l.users...),
		donationPool: new(big.Int).Set(l.donationPool),
		removed:      l.removed,
		balances:     copyBalances(l.balances),
	}
	for a, on := range l.autoCompound {
		c.autoCompound[a] = on
	}
	for _, tx := range l.pending {
		c.apply(tx)
	}
	return c
}

func copyBalances(m map[common.Address]*big.Int) map[common.Address]*big.Int {
	out := make(map[common.Address]*big.Int, len(m))
	for a, v := range m {
		out[a] = new(big.Int).Set(v)
	}
	return out
}

func bigOr0(v *big.Int) *big.Int {
	if v == nil {
		return new(big.Int)
	}
	return v
}
