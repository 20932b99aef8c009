package ledgertest

import (
	"math/big"

	"github.com/cockroachdb/errors"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/rpc"
)

// CallArgs mirrors the transaction-call object of eth_call / eth_estimateGas.
// Both "input" and the legacy "data" key are accepted.
type CallArgs struct {
	From     *common.Address `json:"from"`
	To       *common.Address `json:"to"`
	Gas      *hexutil.Uint64 `json:"gas"`
	GasPrice *hexutil.Big    `json:"gasPrice"`
	Value    *hexutil.Big    `json:"value"`
	Data     *hexutil.Bytes  `json:"data"`
	Input    *hexutil.Bytes  `json:"input"`
}

func (a CallArgs) data() []byte {
	if a.Input != nil {
		return *a.Input
	}
	if a.Data != nil {
		return *a.Data
	}
	return nil
}

func (a CallArgs) from() common.Address {
	if a.From == nil {
		return common.Address{}
	}
	return *a.From
}

func (a CallArgs) value() *big.Int {
	if a.Value == nil {
		return new(big.Int)
	}
	return a.Value.ToInt()
}

type ethService struct {
	l *Ledger
}

func (s *ethService) ChainId() *hexutil.Big {
	return (*hexutil.Big)(s.l.ChainID())
}

func (s *ethService) BlockNumber() hexutil.Uint64 {
	s.l.mu.Lock()
	defer s.l.mu.Unlock()
	return hexutil.Uint64(s.l.block)
}

func (s *ethService) GasPrice() *hexutil.Big {
	s.l.mu.Lock()
	defer s.l.mu.Unlock()
	return (*hexutil.Big)(new(big.Int).Set(s.l.gasPrice))
}

func (s *ethService) GetBalance(addr common.Address, _ *rpc.BlockNumberOrHash) *hexutil.Big {
	return (*hexutil.Big)(s.l.Balance(addr))
}

func (s *ethService) GetTransactionCount(addr common.Address, block *rpc.BlockNumberOrHash) hexutil.Uint64 {
	s.l.mu.Lock()
	defer s.l.mu.Unlock()

	n := s.l.nonces[addr]
	if isPending(block) {
		return hexutil.Uint64(n)
	}
	// latest: exclude transactions still waiting for inclusion
	for _, tx := range s.l.pending {
		if from, err := types.Sender(types.LatestSignerForChainID(s.l.chainID), tx); err == nil && from == addr {
			n--
		}
	}
	return hexutil.Uint64(n)
}

func (s *ethService) GetCode(addr common.Address, _ *rpc.BlockNumberOrHash) hexutil.Bytes {
	s.l.mu.Lock()
	defer s.l.mu.Unlock()
	if addr != s.l.vault {
		return hexutil.Bytes{}
	}
	return s.l.runtimeCode()
}

func (s *ethService) Call(args CallArgs, block *rpc.BlockNumberOrHash) (hexutil.Bytes, error) {
	s.l.mu.Lock()
	defer s.l.mu.Unlock()

	state := s.l
	if isPending(block) {
		state = s.l.pendingState()
	}
	out, err := state.execute(args.from(), args.To, args.value(), args.data(), false)
	if err != nil {
		return nil, err
	}
	return out, nil
}

func (s *ethService) EstimateGas(args CallArgs, _ *rpc.BlockNumberOrHash) (hexutil.Uint64, error) {
	s.l.mu.Lock()
	defer s.l.mu.Unlock()
	if _, err := s.l.execute(args.from(), args.To, args.value(), args.data(), false); err != nil {
		return 0, err
	}
	if len(args.data()) == 0 {
		return hexutil.Uint64(plainTransferGas), nil
	}
	return hexutil.Uint64(callGas), nil
}

func (s *ethService) SendRawTransaction(raw hexutil.Bytes) (common.Hash, error) {
	tx := new(types.Transaction)
	if err := tx.UnmarshalBinary(raw); err != nil {
		return common.Hash{}, errors.Wrap(err, "rlp")
	}
	return s.l.submit(tx)
}

// GetTransactionReceipt returns nil (JSON null) while the transaction is unknown or pending.
func (s *ethService) GetTransactionReceipt(hash common.Hash) (*types.Receipt, error) {
	return s.l.Receipt(hash), nil
}

func isPending(block *rpc.BlockNumberOrHash) bool {
	if block == nil {
		return false
	}
	num, ok := block.Number()
	return ok && num == rpc.PendingBlockNumber
}

// submit is the txpool admission check followed by optional immediate inclusion.
func (l *Ledger) submit(tx *types.Transaction) (common.Hash, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	if !tx.Protected() {
		return common.Hash{}, errors.New("only replay-protected (EIP-155) transactions allowed over RPC")
	}
	if tx.ChainId().Cmp(l.chainID) != 0 {
		return common.Hash{}, errors.Newf("invalid chain id: have %s want %s", tx.ChainId(), l.chainID)
	}
	from, err := types.Sender(types.LatestSignerForChainID(l.chainID), tx)
	if err != nil {
		return common.Hash{}, errors.New("invalid sender")
	}
	if l.known[tx.Hash()] {
		return common.Hash{}, errors.New("already known")
	}

	next := l.nonces[from]
	switch {
	case tx.Nonce() < next:
		return common.Hash{}, errors.Newf("nonce too low: address %s, tx: %d state: %d", from.Hex(), tx.Nonce(), next)
	case tx.Nonce() > next:
		return common.Hash{}, errors.Newf("nonce too high: address %s, tx: %d state: %d", from.Hex(), tx.Nonce(), next)
	}
	if tx.Gas() < plainTransferGas {
		return common.Hash{}, errors.Newf("intrinsic gas too low: gas %d, minimum needed %d", tx.Gas(), plainTransferGas)
	}
	if l.balanceOf(from).Cmp(tx.Cost()) < 0 {
		return common.Hash{}, errors.Newf("%s: address %s have %s want %s",
			insufficientFundsReason, from.Hex(), l.balanceOf(from), tx.Cost())
	}

	l.nonces[from] = next + 1
	l.known[tx.Hash()] = true
	l.pending = append(l.pending, tx)
	if l.autoMine {
		l.mine()
	}
	return tx.Hash(), nil
}
