// Package chainspec wraps go-ethereum's *params.ChainConfig with the
// narrow set of fork-activation and base-fee queries the block builder and
// system-call applicator need, so callers depend on a small interface
// instead of the full chain-config surface.
package chainspec

import (
	"math/big"

	"github.com/ethereum/go-ethereum/consensus/misc/eip1559"
	"github.com/ethereum/go-ethereum/consensus/misc/eip4844"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/params"
)

// SpecID names a protocol upgrade boundary relevant to block building.
// Later values are later forks.
type SpecID int

const (
	SpecMerge SpecID = iota
	SpecShanghai
	SpecCancun
	SpecPrague
)

func (s SpecID) String() string {
	switch s {
	case SpecMerge:
		return "merge"
	case SpecShanghai:
		return "shanghai"
	case SpecCancun:
		return "cancun"
	case SpecPrague:
		return "prague"
	default:
		return "unknown"
	}
}

// ChainSpec answers fork-activation and gas-parameter questions for a
// specific header, wrapping a *params.ChainConfig.
type ChainSpec struct {
	config *params.ChainConfig
}

// New wraps config.
func New(config *params.ChainConfig) *ChainSpec {
	return &ChainSpec{config: config}
}

// Config returns the underlying chain configuration.
func (c *ChainSpec) Config() *params.ChainConfig { return c.config }

// IsShanghaiActive reports whether Shanghai (withdrawals) is active for a
// block with the given number and timestamp.
func (c *ChainSpec) IsShanghaiActive(number *big.Int, time uint64) bool {
	return c.config.IsShanghai(number, time)
}

// IsCancunActive reports whether Cancun (blobs, EIP-4788) is active.
func (c *ChainSpec) IsCancunActive(number *big.Int, time uint64) bool {
	return c.config.IsCancun(number, time)
}

// IsPragueActive reports whether Prague (EIP-7002 withdrawal requests) is
// active.
func (c *ChainSpec) IsPragueActive(number *big.Int, time uint64) bool {
	return c.config.IsPrague(number, time)
}

// SpecIDAtHeader returns the latest activated SpecID for header.
func (c *ChainSpec) SpecIDAtHeader(header *types.Header) SpecID {
	switch {
	case c.IsPragueActive(header.Number, header.Time):
		return SpecPrague
	case c.IsCancunActive(header.Number, header.Time):
		return SpecCancun
	case c.IsShanghaiActive(header.Number, header.Time):
		return SpecShanghai
	default:
		return SpecMerge
	}
}

// NextBlockBaseFee computes the EIP-1559 base fee for a block built on top
// of parent, delegating to go-ethereum's own consensus/misc/eip1559
// calculation.
func (c *ChainSpec) NextBlockBaseFee(parent *types.Header) *big.Int {
	return eip1559.CalcBaseFee(c.config, parent)
}

// NextBlockExcessBlobGas computes the EIP-4844 excess-blob-gas field for a
// block built on top of parent, or returns 0 if parent predates Cancun.
func (c *ChainSpec) NextBlockExcessBlobGas(parent *types.Header) uint64 {
	var parentExcess, parentUsed uint64
	if parent.ExcessBlobGas != nil {
		parentExcess = *parent.ExcessBlobGas
	}
	if parent.BlobGasUsed != nil {
		parentUsed = *parent.BlobGasUsed
	}
	return eip4844.CalcExcessBlobGas(parentExcess, parentUsed)
}

// NextBlockBlobBaseFee computes the blob base fee (EIP-4844's
// get_base_fee_per_blob_gas) a block built on top of parent must enforce,
// for feeding BestTransactionsWithFees alongside NextBlockBaseFee.
func (c *ChainSpec) NextBlockBlobBaseFee(parent *types.Header) *big.Int {
	return eip4844.CalcBlobFee(c.NextBlockExcessBlobGas(parent))
}
