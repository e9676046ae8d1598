// Package overlay implements a read-through state view that layers a chain
// of recently executed, not-yet-persisted blocks over a historical state
// provider. The newest in-memory block always wins a lookup; a miss falls
// through to the historical provider.
package overlay

import (
	"errors"
	"math/big"

	"github.com/ethereum/go-ethereum/common"
)

// ErrUnsupported is returned by StateRoot and Proof once the overlay holds
// at least one in-memory block: reconciling an in-memory bundle with a
// historical trie is a collaborator responsibility this package does not
// implement.
var ErrUnsupported = errors.New("overlay: unsupported on non-empty overlay")

// Account mirrors the handful of account fields the builder and EVM care
// about. A nil *Account returned from a lookup means the account does not
// exist; a non-nil Account with Deleted set is a tombstone recorded by a
// SelfDestruct within the overlay's bundle history.
type Account struct {
	Nonce    uint64
	Balance  *big.Int
	CodeHash common.Hash
	Deleted  bool
}

// Copy returns a deep copy of the account.
func (a *Account) Copy() *Account {
	if a == nil {
		return nil
	}
	cpy := *a
	if a.Balance != nil {
		cpy.Balance = new(big.Int).Set(a.Balance)
	}
	return &cpy
}

// BundleState is the accumulated set of account, storage, and code diffs
// produced by executing a sequence of transactions against an Overlay. It
// is mergeable (Merge) and revertable in the sense that a build attempt
// that is abandoned simply discards its BundleState without committing it
// anywhere.
type BundleState struct {
	Accounts map[common.Address]*Account
	Storage  map[common.Address]map[common.Hash]common.Hash
	Code     map[common.Hash][]byte
}

// NewBundleState returns an empty bundle state ready for accumulation.
func NewBundleState() *BundleState {
	return &BundleState{
		Accounts: make(map[common.Address]*Account),
		Storage:  make(map[common.Address]map[common.Hash]common.Hash),
		Code:     make(map[common.Hash][]byte),
	}
}

// Account returns the recorded account diff for addr, if any, and whether
// this bundle records a change for addr at all. A recorded nil *Account
// distinguishes "touched and found absent" from "never touched" in callers
// that need that distinction; this package always stores a non-nil pointer
// (possibly Deleted) for touched addresses, so ok alone is sufficient for
// the overlay's own contract.
func (b *BundleState) Account(addr common.Address) (acc *Account, ok bool) {
	acc, ok = b.Accounts[addr]
	return acc, ok
}

// StorageValue returns the recorded storage diff for (addr, slot), if any.
func (b *BundleState) StorageValue(addr common.Address, slot common.Hash) (common.Hash, bool) {
	slots, ok := b.Storage[addr]
	if !ok {
		return common.Hash{}, false
	}
	v, ok := slots[slot]
	return v, ok
}

// Bytecode returns the recorded code for codeHash, if any.
func (b *BundleState) Bytecode(codeHash common.Hash) ([]byte, bool) {
	code, ok := b.Code[codeHash]
	return code, ok
}

// SetAccount records an account diff, addr -> acc. A deletion is recorded
// by passing an explicit tombstone (an Account with Deleted set), not nil.
func (b *BundleState) SetAccount(addr common.Address, acc *Account) {
	b.Accounts[addr] = acc
}

// SetStorage records a single storage-slot diff.
func (b *BundleState) SetStorage(addr common.Address, slot, value common.Hash) {
	slots, ok := b.Storage[addr]
	if !ok {
		slots = make(map[common.Hash]common.Hash)
		b.Storage[addr] = slots
	}
	slots[slot] = value
}

// SetCode records code for the given hash.
func (b *BundleState) SetCode(codeHash common.Hash, code []byte) {
	b.Code[codeHash] = code
}

// Merge folds other into b in place, with other's entries taking
// precedence (other is assumed newer). StateDB uses it to copy its bundle
// into a fresh one when taking a snapshot. Only final per-address/per-slot
// values are kept (retention "plain state"); no revert history is stored.
func (b *BundleState) Merge(other *BundleState) {
	for addr, acc := range other.Accounts {
		b.Accounts[addr] = acc
	}
	for addr, slots := range other.Storage {
		dst, ok := b.Storage[addr]
		if !ok {
			dst = make(map[common.Hash]common.Hash, len(slots))
			b.Storage[addr] = dst
		}
		for slot, v := range slots {
			dst[slot] = v
		}
	}
	for hash, code := range other.Code {
		b.Code[hash] = code
	}
}

// ExecutedBlock is an overlay entry: a sealed block's number, hash and
// parent hash plus the bundle state its execution produced. ExecutedBlocks live in an Overlay's in-memory
// list from execution until either canonical commit (the caller promotes
// the block out of the overlay) or a reorg (the caller discards it); the
// overlay itself is agnostic to which happens.
type ExecutedBlock struct {
	Number     uint64
	Hash       common.Hash
	ParentHash common.Hash
	Bundle     *BundleState
}

// HistoricalProvider is the inbound read interface for the backend behind
// an Overlay: a state provider keyed by a committed, canonical chain state.
// Implementations are expected to offer consistent, concurrent read-only
// access (MVCC-style); the overlay never mutates it.
type HistoricalProvider interface {
	// BlockHash returns the hash of the canonical block at number n, or
	// the zero hash if unknown.
	BlockHash(n uint64) (common.Hash, error)
	// BasicAccount returns the account at addr, or nil if it does not
	// exist.
	BasicAccount(addr common.Address) (*Account, error)
	// Storage returns the value at (addr, slot).
	Storage(addr common.Address, slot common.Hash) (common.Hash, error)
	// BytecodeByHash returns the code for the given hash, or nil if
	// unknown.
	BytecodeByHash(hash common.Hash) ([]byte, error)
	// CanonicalHashesRange returns the canonical hashes for block numbers
	// in [start, end), oldest first.
	CanonicalHashesRange(start, end uint64) ([]common.Hash, error)
	// StateRoot computes the state root that results from applying bundle
	// on top of the provider's current state.
	StateRoot(bundle *BundleState) (common.Hash, error)
	// Proof returns a Merkle proof for addr and the given storage slots.
	Proof(addr common.Address, slots []common.Hash) (*AccountProof, error)
}

// AccountProof is an opaque Merkle proof blob; its internal structure is a
// collaborator (trie) concern this package does not interpret.
type AccountProof struct {
	Address common.Address
	Proof   [][]byte
	Storage []StorageProof
}

// StorageProof is a single storage-slot proof within an AccountProof.
type StorageProof struct {
	Key   common.Hash
	Value common.Hash
	Proof [][]byte
}
