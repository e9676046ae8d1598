package builder

import (
	"math/big"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core"
	"github.com/ethereum/go-ethereum/core/vm"
	"github.com/ethpending/buildercore/overlay"
)

// newBlockContext builds a vm.BlockContext for env without depending on a
// full historical header chain: BLOCKHASH resolution goes straight through
// the overlay, which already knows how to answer block_hash(n) across the
// in-memory/historical boundary.
func newBlockContext(env *BlockEnv, ov *overlay.Overlay) vm.BlockContext {
	var random *common.Hash
	if env.PrevRandao != (common.Hash{}) {
		r := env.PrevRandao
		random = &r
	}
	var baseFee *big.Int
	if env.BaseFee != nil {
		baseFee = env.BaseFee.ToBig()
	}
	var blobBaseFee *big.Int
	if env.BaseFeePerBlobGas != nil {
		blobBaseFee = env.BaseFeePerBlobGas.ToBig()
	}
	return vm.BlockContext{
		CanTransfer: core.CanTransfer,
		Transfer:    core.Transfer,
		GetHash: func(n uint64) common.Hash {
			hash, err := ov.BlockHash(n)
			if err != nil {
				return common.Hash{}
			}
			return hash
		},
		Coinbase:    env.Coinbase,
		GasLimit:    env.GasLimit,
		BlockNumber: new(big.Int).SetUint64(env.Number),
		Time:        env.Timestamp,
		Difficulty:  new(big.Int),
		BaseFee:     baseFee,
		BlobBaseFee: blobBaseFee,
		Random:      random,
	}
}
