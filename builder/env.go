package builder

import (
	"math/big"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethpending/buildercore/chainspec"
	"github.com/holiman/uint256"
)

// BlockEnv is the target block's environment: everything the builder needs
// to assemble a header before any transaction is executed.
type BlockEnv struct {
	Number            uint64
	Timestamp         uint64
	Coinbase          common.Address
	BaseFee           *uint256.Int
	GasLimit          uint64
	PrevRandao        common.Hash // zero if pre-merge (difficulty-based) chains are not supported by this core
	ExcessBlobGas     *uint64
	BaseFeePerBlobGas *uint256.Int
}

// CfgEnv is the chain-level configuration for one build.
type CfgEnv struct {
	ChainID *big.Int
	SpecID  chainspec.SpecID
}

// Origin describes where the build request came from, which controls
// whether the pre-block beacon-root call and withdrawal capture run.
type Origin struct {
	// ActualPending is true when this build works from the actual pending
	// block the consensus layer supplied, rather than a purely local
	// speculative one.
	ActualPending bool
	// Withdrawals and WithdrawalsRoot are only meaningful when
	// ActualPending is true; they are copied verbatim from the supplied
	// block the CL handed the node.
	Withdrawals     []*Withdrawal
	WithdrawalsRoot *common.Hash
	// ParentBeaconBlockRoot is the R value the pre-block system call uses;
	// present only when ActualPending is true.
	ParentBeaconBlockRoot *common.Hash
}

// Withdrawal mirrors go-ethereum's types.Withdrawal field set; kept local
// to avoid this package depending on withdrawal-index bookkeeping it does
// not own.
type Withdrawal struct {
	Index     uint64
	Validator uint64
	Address   common.Address
	Amount    uint64 // gwei
}
