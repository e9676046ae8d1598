// Package builder implements the single-threaded selection-and-execution
// loop that assembles a sealed block from a transaction pool, a layered
// state overlay, and the protocol system calls EIP-4788 and EIP-7002
// require.
package builder

import (
	"context"
	"errors"
	"math/big"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core"
	"github.com/ethereum/go-ethereum/core/tracing"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/core/vm"
	"github.com/ethereum/go-ethereum/log"
	"github.com/ethereum/go-ethereum/params"
	"github.com/ethereum/go-ethereum/trie"
	"github.com/ethpending/buildercore/chainspec"
	"github.com/ethpending/buildercore/overlay"
	"github.com/ethpending/buildercore/pendingpool"
	"github.com/ethpending/buildercore/syscalls"
	"github.com/holiman/uint256"
)

// EVMConfigurer supplies the EVM execution context a build needs: the
// block-level vm.BlockContext and the vm.Config to run transactions with.
// Filling a per-tx vm.TxContext and invoking a system-contract call are
// handled directly via core.NewEVMTxContext/core.TransactionToMessage and
// vm.EVM.Call respectively (see apply.go and the syscalls package); they
// are not separate capabilities on this interface because go-ethereum
// already exposes them as free functions this package calls directly.
type EVMConfigurer interface {
	FillBlockEnv(env *BlockEnv, ov *overlay.Overlay) vm.BlockContext
	FillCfgEnv(cfg *CfgEnv) vm.Config
}

// DefaultEVMConfigurer is the EVMConfigurer used when none is supplied.
type DefaultEVMConfigurer struct{}

func (DefaultEVMConfigurer) FillBlockEnv(env *BlockEnv, ov *overlay.Overlay) vm.BlockContext {
	return newBlockContext(env, ov)
}

func (DefaultEVMConfigurer) FillCfgEnv(cfg *CfgEnv) vm.Config {
	return vm.Config{}
}

// Builder drives one build attempt at a time; it holds no per-build state
// between calls to Build.
type Builder struct {
	chainSpec  *chainspec.ChainSpec
	pool       pendingpool.Pool
	historical overlay.HistoricalProvider
	configurer EVMConfigurer
	cache      *PendingBlockCache
}

// New returns a Builder drawing candidate transactions from pool and
// historical state from historical, using chainSpec for fork-activation
// checks. A nil configurer uses DefaultEVMConfigurer.
func New(chainSpec *chainspec.ChainSpec, pool pendingpool.Pool, historical overlay.HistoricalProvider, configurer EVMConfigurer) *Builder {
	if configurer == nil {
		configurer = DefaultEVMConfigurer{}
	}
	return &Builder{
		chainSpec:  chainSpec,
		pool:       pool,
		historical: historical,
		configurer: configurer,
		cache:      NewPendingBlockCache(),
	}
}

// Params is one build request.
type Params struct {
	ParentHash   common.Hash
	ParentNumber uint64
	InMemory     []overlay.ExecutedBlock
	Env          *BlockEnv
	Cfg          *CfgEnv
	Origin       Origin
	// IsPrivate reports whether a transaction came from a private order
	// flow source that must never be included in a publicly built block.
	IsPrivate func(hash common.Hash) bool
}

// Result is one successful build's output.
type Result struct {
	Block   *types.Block
	Receipts types.Receipts
	Bundle  *overlay.BundleState
	Senders []common.Address
}

// Build runs one build attempt to completion. A Provider, BlockValidation,
// or Internal error aborts the build and returns (nil, err); per-tx
// Validation failures never do.
func (b *Builder) Build(ctx context.Context, p Params) (*Result, error) {
	start := time.Now()
	defer func() { buildTimer.UpdateSince(start) }()

	if err := ctx.Err(); err != nil {
		log.Debug("build aborted: context done", "err", err)
		return nil, newInternalError(err)
	}
	if cached, receipts, ok := b.cache.Get(p.ParentHash, p.ParentNumber+1); ok {
		cacheHitMeter.Mark(1)
		return &Result{Block: cached, Receipts: receipts}, nil
	}

	// 1. Open a mutable state wrapper over the historical state at the
	// parent hash, with a bundle-update accumulator.
	ov := overlay.New(b.historical, p.InMemory)
	state := overlay.NewStateDB(ov)

	blockCtx := b.configurer.FillBlockEnv(p.Env, ov)
	vmConfig := b.configurer.FillCfgEnv(p.Cfg)
	evm := vm.NewEVM(blockCtx, vm.TxContext{}, state, b.chainSpec.Config(), vmConfig)

	// 2. Withdrawals/withdrawals_root/R are only present for an actual
	// pending build; otherwise both are absent.
	var (
		parentBeaconBlockRoot *common.Hash
		withdrawals           []*Withdrawal
		withdrawalsRoot       *common.Hash
	)
	if p.Origin.ActualPending {
		parentBeaconBlockRoot = p.Origin.ParentBeaconBlockRoot
		withdrawals = p.Origin.Withdrawals
		withdrawalsRoot = p.Origin.WithdrawalsRoot
	}

	// 3. Blockhash-window update: record the parent hash into the
	// EIP-2935 history storage contract when that fork is active.
	if b.chainSpec.IsPragueActive(blockCtx.BlockNumber, p.Env.Timestamp) {
		core.ProcessParentBlockHash(p.ParentHash, evm)
	}

	// 4. Pre-block beacon-root system call.
	cancunActive := b.chainSpec.IsCancunActive(blockCtx.BlockNumber, p.Env.Timestamp)
	if cancunActive && parentBeaconBlockRoot != nil {
		if err := syscalls.PreBlockBeaconRootContractCall(evm, state, cancunActive, p.Env.Number, parentBeaconBlockRoot); err != nil {
			log.Debug("build aborted: beacon root system call failed", "err", err)
			buildErrorMeter.Mark(1)
			return nil, newBlockValidationError(err)
		}
	}

	// 5. Selection-loop counters.
	var (
		cumulativeGasUsed uint64
		sumBlobGasUsed    uint64
		executedTxs       types.Transactions
		senders           []common.Address
		receipts          types.Receipts
	)
	gp := new(core.GasPool).AddGas(p.Env.GasLimit)
	signer := types.LatestSignerForChainID(p.Cfg.ChainID)

	// 6. Best-tx-with-fees iterator.
	best := b.pool.BestWithAttributes(p.Env.BaseFee, p.Env.BaseFeePerBlobGas)

	// 7. Selection loop.
	for {
		pending := best.Next()
		if pending == nil {
			break
		}
		tx := pending.Tx.Raw()
		hash := pending.Tx.Hash()

		if cumulativeGasUsed+tx.Gas() > p.Env.GasLimit {
			best.MarkInvalid(hash)
			continue
		}
		if p.IsPrivate != nil && p.IsPrivate(hash) {
			best.MarkInvalid(hash)
			continue
		}
		if pending.Tx.IsBlob() && sumBlobGasUsed+pending.Tx.BlobGasUsed() > MaxDataGasPerBlock {
			best.MarkInvalid(hash)
			continue
		}

		var blobBaseFee *big.Int
		if p.Env.BaseFeePerBlobGas != nil {
			blobBaseFee = p.Env.BaseFeePerBlobGas.ToBig()
		}
		receipt, err := applyTransaction(evm, state, gp, tx, signer, p.Env.BaseFee.ToBig(), blobBaseFee, &cumulativeGasUsed)
		if err != nil {
			if errors.Is(err, core.ErrNonceTooLow) {
				continue
			}
			// Every error reachable here comes from core.TransactionToMessage
			// or core.ApplyMessage against this package's in-memory overlay
			// state, neither of which ever returns a DB/corruption error in
			// that path: signature-recovery failures and every core.Err*
			// sentinel alike are per-transaction validation failures, so
			// they taint this transaction (and its descendants) without
			// aborting the rest of the build.
			best.MarkInvalid(hash)
			continue
		}

		if pending.Tx.IsBlob() {
			sumBlobGasUsed += receipt.BlobGasUsed
			if sumBlobGasUsed == MaxDataGasPerBlock {
				best.SetSkipBlobs(true)
			}
		}

		executedTxs = append(executedTxs, tx)
		senders = append(senders, pending.Tx.Sender())
		receipts = append(receipts, receipt)
	}

	// 8. Withdrawal balance increments.
	for _, w := range withdrawals {
		amount := new(uint256.Int).Mul(uint256.NewInt(w.Amount), uint256.NewInt(params.GWei))
		state.AddBalance(w.Address, amount, tracing.BalanceIncreaseWithdrawal)
	}

	// 9. Merge transitions into the bundle (retention = plain state:
	// reverted intermediate values never made it into state.Bundle() in
	// the first place, since only committed snapshots are folded there).
	bundle := state.Bundle()

	// 10/11. Roots.
	receiptsRoot := types.DeriveSha(receipts, trie.NewStackTrie(nil))
	logsBloom := types.CreateBloom(receipts)
	stateRoot, err := ov.StateRoot(bundle)
	if err != nil {
		log.Debug("build aborted: state root unavailable", "err", err)
		buildErrorMeter.Mark(1)
		return nil, newProviderError(err)
	}

	// 12. Transactions root.
	transactionsRoot := types.DeriveSha(executedTxs, trie.NewStackTrie(nil))

	// 13. Prague requests-root placeholder.
	var requestsRoot *common.Hash
	pragueActive := b.chainSpec.IsPragueActive(blockCtx.BlockNumber, p.Env.Timestamp)
	if pragueActive {
		r := EmptyRootHash
		requestsRoot = &r
	}

	// 14. Assemble the header.
	header := &types.Header{
		ParentHash:       p.ParentHash,
		UncleHash:        EmptyOmmerRootHash,
		Coinbase:         p.Env.Coinbase,
		Root:             stateRoot,
		TxHash:           transactionsRoot,
		ReceiptHash:      receiptsRoot,
		Bloom:            logsBloom,
		Difficulty:       new(big.Int),
		Number:           blockCtx.BlockNumber,
		GasLimit:         p.Env.GasLimit,
		GasUsed:          cumulativeGasUsed,
		Time:             p.Env.Timestamp,
		Extra:            nil,
		MixDigest:        p.Env.PrevRandao,
		Nonce:            BeaconNonce,
		BaseFee:          p.Env.BaseFee.ToBig(),
		WithdrawalsHash:  withdrawalsRoot,
		ParentBeaconRoot: parentBeaconBlockRoot,
		RequestsHash:     requestsRoot,
	}
	if cancunActive {
		header.BlobGasUsed = &sumBlobGasUsed
		header.ExcessBlobGas = p.Env.ExcessBlobGas
	}

	bodyWithdrawals := toTypesWithdrawals(withdrawals)
	// 15. Seal.
	block := types.NewBlock(header, &types.Body{Transactions: executedTxs, Withdrawals: bodyWithdrawals}, receipts, trie.NewStackTrie(nil))

	b.cache.Publish(p.ParentHash, header.Number.Uint64(), block, receipts)
	metricsBuildOutcome(cumulativeGasUsed, sumBlobGasUsed, len(executedTxs))

	return &Result{Block: block, Receipts: receipts, Bundle: bundle, Senders: senders}, nil
}

func toTypesWithdrawals(ws []*Withdrawal) types.Withdrawals {
	if ws == nil {
		return nil
	}
	out := make(types.Withdrawals, len(ws))
	for i, w := range ws {
		out[i] = &types.Withdrawal{Index: w.Index, Validator: w.Validator, Address: w.Address, Amount: w.Amount}
	}
	return out
}
