package builder

import (
	"math/big"

	"github.com/ethereum/go-ethereum/core"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/core/vm"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/ethereum/go-ethereum/params"
	"github.com/ethpending/buildercore/overlay"
)

// applyTransaction executes one transaction against state through evm,
// building its receipt the way go-ethereum's core.ApplyTransaction does —
// but generalized over overlay.StateDB rather than the concrete
// *state.StateDB core.ApplyTransaction requires, since this package's
// mutable state view is not backed by a live trie. On any execution error
// the snapshot taken at entry is restored and the gas pool is refunded,
// matching miner/worker.go's applyTransaction.
func applyTransaction(evm *vm.EVM, state *overlay.StateDB, gp *core.GasPool, tx *types.Transaction, signer types.Signer, baseFee *big.Int, blobBaseFee *big.Int, cumulativeGasUsed *uint64) (*types.Receipt, error) {
	snap := state.Snapshot()
	gasBefore := gp.Gas()
	logStart := len(state.Logs())

	msg, err := core.TransactionToMessage(tx, signer, baseFee)
	if err != nil {
		state.RevertToSnapshot(snap)
		gp.SetGas(gasBefore)
		return nil, err
	}
	evm.Reset(core.NewEVMTxContext(msg), state)

	result, err := core.ApplyMessage(evm, msg, gp)
	if err != nil {
		state.RevertToSnapshot(snap)
		gp.SetGas(gasBefore)
		return nil, err
	}

	*cumulativeGasUsed += result.UsedGas
	receipt := &types.Receipt{
		Type:              tx.Type(),
		CumulativeGasUsed: *cumulativeGasUsed,
		TxHash:            tx.Hash(),
		GasUsed:           result.UsedGas,
	}
	if result.Failed() {
		receipt.Status = types.ReceiptStatusFailed
	} else {
		receipt.Status = types.ReceiptStatusSuccessful
	}
	if tx.To() == nil {
		receipt.ContractAddress = crypto.CreateAddress(msg.From, tx.Nonce())
	}
	receipt.Logs = state.Logs()[logStart:]
	receipt.Bloom = types.CreateBloom(types.Receipts{receipt})

	if tx.Type() == types.BlobTxType {
		receipt.BlobGasUsed = uint64(len(tx.BlobHashes())) * params.BlobTxBlobGasPerBlob
		if blobBaseFee != nil {
			receipt.BlobGasPrice = blobBaseFee
		}
	}
	return receipt, nil
}
