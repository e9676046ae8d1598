package syscalls

import (
	"errors"
	"fmt"

	"github.com/ethereum/go-ethereum/common"
)

// ErrMissingParentBeaconBlockRoot is returned when a post-Cancun block's
// header carries no parent beacon block root: the EIP-4788 pre-block call
// cannot be made without one.
var ErrMissingParentBeaconBlockRoot = errors.New("syscalls: missing parent beacon block root for cancun block")

// ErrGenesisParentBeaconBlockRootNotZero is returned when block 0 carries a
// nonzero parent beacon block root, which is never valid.
var ErrGenesisParentBeaconBlockRootNotZero = errors.New("syscalls: genesis parent beacon block root must be zero")

// BeaconRootContractCallError wraps a failure of the EIP-4788 system call
// itself, distinct from the precondition errors above.
type BeaconRootContractCallError struct {
	Root common.Hash
	Err  error
}

func (e *BeaconRootContractCallError) Error() string {
	return fmt.Sprintf("syscalls: beacon root contract call with root %s failed: %v", e.Root, e.Err)
}

func (e *BeaconRootContractCallError) Unwrap() error { return e.Err }

// WithdrawalRequestsContractCallError wraps a failure of the EIP-7002
// system call, including a malformed output frame.
type WithdrawalRequestsContractCallError struct {
	Err error
}

func (e *WithdrawalRequestsContractCallError) Error() string {
	return fmt.Sprintf("syscalls: withdrawal requests contract call failed: %v", e.Err)
}

func (e *WithdrawalRequestsContractCallError) Unwrap() error { return e.Err }

// ErrInvalidWithdrawalRequestLength is returned when the withdrawal queue
// contract's output is not an exact multiple of withdrawalRequestFrameSize.
var ErrInvalidWithdrawalRequestLength = errors.New("syscalls: invalid withdrawal request length")
