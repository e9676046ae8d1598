package syscalls

import (
	"encoding/binary"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/vm"
	"github.com/ethereum/go-ethereum/params"
	"github.com/ethpending/buildercore/overlay"
	"github.com/holiman/uint256"
)

// WithdrawalRequest is one parsed EIP-7002 execution-layer withdrawal
// request: a validator identified by pubkey requesting a (possibly
// partial) withdrawal of amount gwei, submitted on behalf of source.
type WithdrawalRequest struct {
	Source          common.Address
	ValidatorPubkey [48]byte
	Amount          uint64
}

// PostBlockWithdrawalRequestsContractCall applies the EIP-7002 post-block
// system call and parses its output into the withdrawal requests to
// include in the block body.
func PostBlockWithdrawalRequestsContractCall(evm *vm.EVM, state *overlay.StateDB) ([]WithdrawalRequest, error) {
	coinbase := evm.Context.Coinbase
	sysExisted := state.Exist(params.SystemAddress)
	sysBal, sysNonce := state.SnapshotBalanceAndNonce(params.SystemAddress)
	cbExisted := state.Exist(coinbase)
	cbBal, cbNonce := state.SnapshotBalanceAndNonce(coinbase)

	state.AddAddressToAccessList(params.WithdrawalQueueAddress)
	ret, _, err := evm.Call(vm.AccountRef(params.SystemAddress), params.WithdrawalQueueAddress, nil, systemCallGasLimit, uint256.NewInt(0))
	if err != nil {
		return nil, &WithdrawalRequestsContractCallError{Err: err}
	}

	state.RestoreBalanceAndNonce(params.SystemAddress, sysExisted, sysBal, sysNonce)
	state.RestoreBalanceAndNonce(coinbase, cbExisted, cbBal, cbNonce)

	requests, err := parseWithdrawalRequests(ret)
	if err != nil {
		return nil, &WithdrawalRequestsContractCallError{Err: err}
	}
	return requests, nil
}

// parseWithdrawalRequests decodes the withdrawal queue contract's output:
// a sequence of fixed-size frames with no trailing partial frame.
func parseWithdrawalRequests(data []byte) ([]WithdrawalRequest, error) {
	if len(data)%withdrawalRequestFrameSize != 0 {
		return nil, ErrInvalidWithdrawalRequestLength
	}
	count := len(data) / withdrawalRequestFrameSize
	if count == 0 {
		return nil, nil
	}
	out := make([]WithdrawalRequest, count)
	for i := 0; i < count; i++ {
		frame := data[i*withdrawalRequestFrameSize : (i+1)*withdrawalRequestFrameSize]
		copy(out[i].Source[:], frame[0:20])
		copy(out[i].ValidatorPubkey[:], frame[20:68])
		out[i].Amount = binary.BigEndian.Uint64(frame[68:76])
	}
	return out, nil
}
