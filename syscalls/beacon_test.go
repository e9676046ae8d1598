package syscalls

import (
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"github.com/stretchr/testify/require"
)

func TestPreBlockBeaconRootPreCancunIsNoOp(t *testing.T) {
	// cancunActive false short-circuits before touching evm or state, so
	// nil collaborators are safe here: this is purely a precondition test.
	err := PreBlockBeaconRootContractCall(nil, nil, false, 10, nil)
	require.NoError(t, err)
}

func TestPreBlockBeaconRootMissingRoot(t *testing.T) {
	err := PreBlockBeaconRootContractCall(nil, nil, true, 10, nil)
	require.ErrorIs(t, err, ErrMissingParentBeaconBlockRoot)
}

func TestPreBlockBeaconRootGenesisNonzeroRoot(t *testing.T) {
	root := common.HexToHash("0x1234")
	err := PreBlockBeaconRootContractCall(nil, nil, true, 0, &root)
	require.ErrorIs(t, err, ErrGenesisParentBeaconBlockRootNotZero)
}
