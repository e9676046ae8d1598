package syscalls

import (
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/vm"
	"github.com/ethereum/go-ethereum/params"
	"github.com/ethpending/buildercore/overlay"
	"github.com/holiman/uint256"
)

// PreBlockBeaconRootContractCall applies the EIP-4788 pre-block system call
// that records parentBeaconBlockRoot in the beacon roots contract. It is a
// no-op before Cancun activates. cancunActive and blockNumber describe the
// block currently being built; parentBeaconBlockRoot is nil when the
// header carries none.
func PreBlockBeaconRootContractCall(evm *vm.EVM, state *overlay.StateDB, cancunActive bool, blockNumber uint64, parentBeaconBlockRoot *common.Hash) error {
	if !cancunActive {
		return nil
	}
	if parentBeaconBlockRoot == nil {
		return ErrMissingParentBeaconBlockRoot
	}
	if blockNumber == 0 && *parentBeaconBlockRoot != (common.Hash{}) {
		return ErrGenesisParentBeaconBlockRootNotZero
	}
	return applyBeaconRootContractCall(evm, state, *parentBeaconBlockRoot)
}

// applyBeaconRootContractCall performs the call itself: snapshot
// SYSTEM_ADDRESS and the block's coinbase, invoke the contract, then
// restore exactly those two addresses so neither the synthetic caller nor
// an incidental coinbase touch (e.g. a warm-address gas refund credited to
// it) leaks into the block's committed state.
func applyBeaconRootContractCall(evm *vm.EVM, state *overlay.StateDB, root common.Hash) error {
	coinbase := evm.Context.Coinbase
	sysExisted := state.Exist(params.SystemAddress)
	sysBal, sysNonce := state.SnapshotBalanceAndNonce(params.SystemAddress)
	cbExisted := state.Exist(coinbase)
	cbBal, cbNonce := state.SnapshotBalanceAndNonce(coinbase)

	state.AddAddressToAccessList(params.BeaconRootsAddress)
	_, _, err := evm.Call(vm.AccountRef(params.SystemAddress), params.BeaconRootsAddress, root.Bytes(), systemCallGasLimit, uint256.NewInt(0))
	if err != nil {
		return &BeaconRootContractCallError{Root: root, Err: err}
	}

	state.RestoreBalanceAndNonce(params.SystemAddress, sysExisted, sysBal, sysNonce)
	state.RestoreBalanceAndNonce(coinbase, cbExisted, cbBal, cbNonce)
	return nil
}
