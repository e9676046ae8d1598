package builder

import (
	"github.com/ethereum/go-ethereum/core/types"
)

// MaxDataGasPerBlock bounds the sum of blob gas used by all blob
// transactions in one block (EIP-4844).
const MaxDataGasPerBlock uint64 = 786_432

// BeaconNonce is the fixed nonce value every post-merge block header
// carries; proof-of-work mining no longer uses this field.
var BeaconNonce = types.BlockNonce{}

// EmptyOmmerRootHash and EmptyRootHash are the well-known RLP hashes of an
// empty uncle list and an empty Merkle-Patricia trie, reused directly from
// go-ethereum rather than recomputed.
var (
	EmptyOmmerRootHash = types.EmptyUncleHash
	EmptyRootHash      = types.EmptyRootHash
)
