package overlay

import (
	"math/big"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/tracing"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/ethereum/go-ethereum/params"
	"github.com/holiman/uint256"
)

// StateDB adapts an *Overlay plus an accumulating *BundleState into
// go-ethereum's vm.StateDB interface, so an unmodified vm.EVM can execute
// directly against a layered, not-yet-committed view of chain state. Reads
// that miss the live working set fall through to the overlay (in-memory
// blocks, then historical); writes accumulate into bundle, never touching
// the overlay itself. StateDB is not safe for concurrent use; one build
// attempt owns one StateDB.
type StateDB struct {
	overlay *Overlay
	bundle  *BundleState

	selfDestructed map[common.Address]bool
	transient      map[common.Address]map[common.Hash]common.Hash
	accessAddr     map[common.Address]bool
	accessSlot     map[common.Address]map[common.Hash]bool
	refund         uint64
	logs           []*types.Log

	snapshots []snapshot
	nextID    int
}

type snapshot struct {
	id             int
	bundle         *BundleState
	selfDestructed map[common.Address]bool
	transient      map[common.Address]map[common.Hash]common.Hash
	accessAddr     map[common.Address]bool
	accessSlot     map[common.Address]map[common.Hash]bool
	refund         uint64
	logsLen        int
}

// NewStateDB returns a StateDB reading through overlay, accumulating new writes
// into a fresh BundleState.
func NewStateDB(ov *Overlay) *StateDB {
	return &StateDB{
		overlay:        ov,
		bundle:         NewBundleState(),
		selfDestructed: make(map[common.Address]bool),
		transient:      make(map[common.Address]map[common.Hash]common.Hash),
		accessAddr:     make(map[common.Address]bool),
		accessSlot:     make(map[common.Address]map[common.Hash]bool),
	}
}

// Bundle returns the accumulated diff. Callers must not mutate the result
// directly after further writes to the StateDB; take a Merge copy instead.
func (s *StateDB) Bundle() *BundleState { return s.bundle }

func (s *StateDB) account(addr common.Address) *Account {
	if acc, ok := s.bundle.Account(addr); ok {
		return acc
	}
	acc, err := s.overlay.BasicAccount(addr)
	if err != nil || acc == nil {
		return nil
	}
	return acc
}

func (s *StateDB) mutate(addr common.Address, fn func(acc *Account)) {
	acc := s.account(addr)
	if acc == nil {
		acc = &Account{Balance: new(big.Int)}
	} else {
		acc = acc.Copy()
	}
	fn(acc)
	s.bundle.SetAccount(addr, acc)
}

// CreateAccount ensures addr exists in the working set (EVM calls this
// before giving a fresh contract address a code/storage home).
func (s *StateDB) CreateAccount(addr common.Address) {
	if s.account(addr) != nil {
		return
	}
	s.bundle.SetAccount(addr, &Account{Balance: new(big.Int)})
}

// CreateContract is a no-op beyond CreateAccount's bookkeeping in this
// simplified state view: code/storage association happens via SetCode and
// SetState, not a separate contract-creation flag.
func (s *StateDB) CreateContract(addr common.Address) {}

func (s *StateDB) SubBalance(addr common.Address, amount *uint256.Int, reason tracing.BalanceChangeReason) {
	if amount.IsZero() {
		return
	}
	s.mutate(addr, func(acc *Account) {
		acc.Balance = new(big.Int).Sub(acc.Balance, amount.ToBig())
	})
}

func (s *StateDB) AddBalance(addr common.Address, amount *uint256.Int, reason tracing.BalanceChangeReason) {
	if amount.IsZero() {
		return
	}
	s.mutate(addr, func(acc *Account) {
		acc.Balance = new(big.Int).Add(acc.Balance, amount.ToBig())
	})
}

func (s *StateDB) GetBalance(addr common.Address) *uint256.Int {
	acc := s.account(addr)
	if acc == nil || acc.Balance == nil {
		return new(uint256.Int)
	}
	v, _ := uint256.FromBig(acc.Balance)
	return v
}

func (s *StateDB) GetNonce(addr common.Address) uint64 {
	acc := s.account(addr)
	if acc == nil {
		return 0
	}
	return acc.Nonce
}

func (s *StateDB) SetNonce(addr common.Address, nonce uint64) {
	s.mutate(addr, func(acc *Account) { acc.Nonce = nonce })
}

func (s *StateDB) GetCodeHash(addr common.Address) common.Hash {
	acc := s.account(addr)
	if acc == nil {
		return common.Hash{}
	}
	return acc.CodeHash
}

func (s *StateDB) GetCode(addr common.Address) []byte {
	hash := s.GetCodeHash(addr)
	if hash == (common.Hash{}) {
		return nil
	}
	if code, ok := s.bundle.Bytecode(hash); ok {
		return code
	}
	code, _ := s.overlay.BytecodeByHash(hash)
	return code
}

func (s *StateDB) SetCode(addr common.Address, code []byte) {
	hash := crypto.Keccak256Hash(code)
	s.bundle.SetCode(hash, code)
	s.mutate(addr, func(acc *Account) { acc.CodeHash = hash })
}

func (s *StateDB) GetCodeSize(addr common.Address) int {
	return len(s.GetCode(addr))
}

func (s *StateDB) AddRefund(gas uint64)  { s.refund += gas }
func (s *StateDB) SubRefund(gas uint64) {
	if gas > s.refund {
		panic("overlay: refund underflow")
	}
	s.refund -= gas
}
func (s *StateDB) GetRefund() uint64 { return s.refund }

func (s *StateDB) GetCommittedState(addr common.Address, key common.Hash) common.Hash {
	v, err := s.overlay.Storage(addr, key)
	if err != nil {
		return common.Hash{}
	}
	return v
}

func (s *StateDB) GetState(addr common.Address, key common.Hash) common.Hash {
	if v, ok := s.bundle.StorageValue(addr, key); ok {
		return v
	}
	return s.GetCommittedState(addr, key)
}

func (s *StateDB) SetState(addr common.Address, key, value common.Hash) {
	s.bundle.SetStorage(addr, key, value)
}

func (s *StateDB) GetStorageRoot(addr common.Address) common.Hash {
	return common.Hash{}
}

func (s *StateDB) GetTransientState(addr common.Address, key common.Hash) common.Hash {
	if slots, ok := s.transient[addr]; ok {
		return slots[key]
	}
	return common.Hash{}
}

func (s *StateDB) SetTransientState(addr common.Address, key, value common.Hash) {
	slots, ok := s.transient[addr]
	if !ok {
		slots = make(map[common.Hash]common.Hash)
		s.transient[addr] = slots
	}
	slots[key] = value
}

func (s *StateDB) SelfDestruct(addr common.Address) {
	s.selfDestructed[addr] = true
	s.bundle.SetAccount(addr, &Account{Balance: new(big.Int), Deleted: true})
}

func (s *StateDB) HasSelfDestructed(addr common.Address) bool {
	return s.selfDestructed[addr]
}

func (s *StateDB) Selfdestruct6780(addr common.Address) {
	s.SelfDestruct(addr)
}

func (s *StateDB) Exist(addr common.Address) bool {
	return s.account(addr) != nil
}

func (s *StateDB) Empty(addr common.Address) bool {
	acc := s.account(addr)
	if acc == nil {
		return true
	}
	return acc.Nonce == 0 && (acc.Balance == nil || acc.Balance.Sign() == 0) && acc.CodeHash == (common.Hash{})
}

func (s *StateDB) AddressInAccessList(addr common.Address) bool {
	return s.accessAddr[addr]
}

func (s *StateDB) SlotInAccessList(addr common.Address, slot common.Hash) (addressOk, slotOk bool) {
	addressOk = s.accessAddr[addr]
	if slots, ok := s.accessSlot[addr]; ok {
		slotOk = slots[slot]
	}
	return addressOk, slotOk
}

func (s *StateDB) AddAddressToAccessList(addr common.Address) {
	s.accessAddr[addr] = true
}

func (s *StateDB) AddSlotToAccessList(addr common.Address, slot common.Hash) {
	s.accessAddr[addr] = true
	slots, ok := s.accessSlot[addr]
	if !ok {
		slots = make(map[common.Hash]bool)
		s.accessSlot[addr] = slots
	}
	slots[slot] = true
}

// Prepare resets the per-transaction access list and transient storage,
// and pre-warms sender, recipient, precompiles, and any tx access-list
// entries per EIP-2929/2930/3651.
func (s *StateDB) Prepare(rules params.Rules, sender, coinbase common.Address, dest *common.Address, precompiles []common.Address, txAccesses types.AccessList) {
	s.accessAddr = make(map[common.Address]bool)
	s.accessSlot = make(map[common.Address]map[common.Hash]bool)
	s.transient = make(map[common.Address]map[common.Hash]common.Hash)

	s.AddAddressToAccessList(sender)
	if dest != nil {
		s.AddAddressToAccessList(*dest)
	}
	for _, addr := range precompiles {
		s.AddAddressToAccessList(addr)
	}
	for _, el := range txAccesses {
		s.AddAddressToAccessList(el.Address)
		for _, key := range el.StorageKeys {
			s.AddSlotToAccessList(el.Address, key)
		}
	}
	if rules.IsShanghai {
		s.AddAddressToAccessList(coinbase)
	}
}

func (s *StateDB) RevertToSnapshot(id int) {
	for i := len(s.snapshots) - 1; i >= 0; i-- {
		if s.snapshots[i].id == id {
			snap := s.snapshots[i]
			s.bundle = snap.bundle
			s.selfDestructed = snap.selfDestructed
			s.transient = snap.transient
			s.accessAddr = snap.accessAddr
			s.accessSlot = snap.accessSlot
			s.refund = snap.refund
			s.logs = s.logs[:snap.logsLen]
			s.snapshots = s.snapshots[:i]
			return
		}
	}
	panic("overlay: revert to unknown snapshot")
}

func (s *StateDB) Snapshot() int {
	id := s.nextID
	s.nextID++
	s.snapshots = append(s.snapshots, snapshot{
		id:             id,
		bundle:         s.cloneBundle(),
		selfDestructed: cloneBoolMap(s.selfDestructed),
		transient:      cloneHashMapMap(s.transient),
		accessAddr:     cloneBoolMap(s.accessAddr),
		accessSlot:     cloneSlotMap(s.accessSlot),
		refund:         s.refund,
		logsLen:        len(s.logs),
	})
	return id
}

func (s *StateDB) cloneBundle() *BundleState {
	cpy := NewBundleState()
	cpy.Merge(s.bundle)
	return cpy
}

func cloneBoolMap(m map[common.Address]bool) map[common.Address]bool {
	cpy := make(map[common.Address]bool, len(m))
	for k, v := range m {
		cpy[k] = v
	}
	return cpy
}

func cloneHashMapMap(m map[common.Address]map[common.Hash]common.Hash) map[common.Address]map[common.Hash]common.Hash {
	cpy := make(map[common.Address]map[common.Hash]common.Hash, len(m))
	for addr, slots := range m {
		inner := make(map[common.Hash]common.Hash, len(slots))
		for k, v := range slots {
			inner[k] = v
		}
		cpy[addr] = inner
	}
	return cpy
}

func cloneSlotMap(m map[common.Address]map[common.Hash]bool) map[common.Address]map[common.Hash]bool {
	cpy := make(map[common.Address]map[common.Hash]bool, len(m))
	for addr, slots := range m {
		inner := make(map[common.Hash]bool, len(slots))
		for k, v := range slots {
			inner[k] = v
		}
		cpy[addr] = inner
	}
	return cpy
}

func (s *StateDB) AddLog(log *types.Log) {
	s.logs = append(s.logs, log)
}

// Logs returns the logs recorded since the StateDB was constructed, in
// emission order.
func (s *StateDB) Logs() []*types.Log { return s.logs }

func (s *StateDB) AddPreimage(hash common.Hash, preimage []byte) {}

// SnapshotBalanceAndNonce captures addr's current balance and nonce for
// later restoration. The system-call applicator uses this to scrub the
// synthetic SYSTEM_ADDRESS and the block's coinbase out of a system call's
// effects without needing a full per-call diff object.
func (s *StateDB) SnapshotBalanceAndNonce(addr common.Address) (balance *big.Int, nonce uint64) {
	acc := s.account(addr)
	if acc == nil {
		return new(big.Int), 0
	}
	bal := acc.Balance
	if bal == nil {
		bal = new(big.Int)
	}
	return new(big.Int).Set(bal), acc.Nonce
}

// RestoreBalanceAndNonce resets addr's balance and nonce to previously
// captured values, keeping its code hash. If addr did not exist before the
// call, its account entry is dropped entirely instead: a scrubbed address
// must look untouched by the call that produced it, not merely reset to
// matching values, so that a genuinely new account is not left behind.
func (s *StateDB) RestoreBalanceAndNonce(addr common.Address, existed bool, balance *big.Int, nonce uint64) {
	if !existed {
		delete(s.bundle.Accounts, addr)
		return
	}
	acc := &Account{Balance: balance, Nonce: nonce}
	if cur := s.account(addr); cur != nil {
		acc.CodeHash = cur.CodeHash
	}
	s.bundle.SetAccount(addr, acc)
}
