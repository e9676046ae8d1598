package overlay

import (
	"math/big"
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"github.com/stretchr/testify/require"
)

type fakeHistorical struct {
	accounts map[common.Address]*Account
	hashes   map[uint64]common.Hash
}

func newFakeHistorical() *fakeHistorical {
	return &fakeHistorical{accounts: make(map[common.Address]*Account), hashes: make(map[uint64]common.Hash)}
}

func (f *fakeHistorical) BlockHash(n uint64) (common.Hash, error) { return f.hashes[n], nil }
func (f *fakeHistorical) BasicAccount(addr common.Address) (*Account, error) {
	return f.accounts[addr], nil
}
func (f *fakeHistorical) Storage(addr common.Address, slot common.Hash) (common.Hash, error) {
	return common.Hash{}, nil
}
func (f *fakeHistorical) BytecodeByHash(hash common.Hash) ([]byte, error) { return nil, nil }
func (f *fakeHistorical) CanonicalHashesRange(start, end uint64) ([]common.Hash, error) {
	var out []common.Hash
	for n := start; n < end; n++ {
		out = append(out, f.hashes[n])
	}
	return out, nil
}
func (f *fakeHistorical) StateRoot(bundle *BundleState) (common.Hash, error) {
	return common.HexToHash("0xaa"), nil
}
func (f *fakeHistorical) Proof(addr common.Address, slots []common.Hash) (*AccountProof, error) {
	return &AccountProof{Address: addr}, nil
}

var addrA = common.HexToAddress("0xaaaa")

func TestOverlayNewestInMemoryBlockWins(t *testing.T) {
	hist := newFakeHistorical()
	hist.accounts[addrA] = &Account{Nonce: 1, Balance: big.NewInt(100)}

	older := NewBundleState()
	older.SetAccount(addrA, &Account{Nonce: 2, Balance: big.NewInt(200)})
	newer := NewBundleState()
	newer.SetAccount(addrA, &Account{Nonce: 3, Balance: big.NewInt(300)})

	ov := New(hist, []ExecutedBlock{
		{Number: 1, Hash: common.HexToHash("0x1"), Bundle: older},
		{Number: 2, Hash: common.HexToHash("0x2"), Bundle: newer},
	})

	acc, err := ov.BasicAccount(addrA)
	require.NoError(t, err)
	require.EqualValues(t, 3, acc.Nonce)
	require.Equal(t, big.NewInt(300), acc.Balance)
}

func TestOverlayFallsThroughToHistorical(t *testing.T) {
	hist := newFakeHistorical()
	hist.accounts[addrA] = &Account{Nonce: 1, Balance: big.NewInt(100)}

	ov := New(hist, nil)
	acc, err := ov.BasicAccount(addrA)
	require.NoError(t, err)
	require.EqualValues(t, 1, acc.Nonce)
}

func TestOverlayTombstoneShadowsHistorical(t *testing.T) {
	hist := newFakeHistorical()
	hist.accounts[addrA] = &Account{Nonce: 1, Balance: big.NewInt(100)}

	deleted := NewBundleState()
	deleted.SetAccount(addrA, &Account{Deleted: true})
	ov := New(hist, []ExecutedBlock{{Number: 1, Hash: common.HexToHash("0x1"), Bundle: deleted}})

	acc, err := ov.BasicAccount(addrA)
	require.NoError(t, err)
	require.Nil(t, acc)
}

func TestOverlayCanonicalHashesRangeReconciliation(t *testing.T) {
	hist := newFakeHistorical()
	for n := uint64(1); n <= 3; n++ {
		hist.hashes[n] = common.BigToHash(big.NewInt(int64(n)))
	}
	inMemHash4 := common.HexToHash("0x4")
	inMemHash5 := common.HexToHash("0x5")
	ov := New(hist, []ExecutedBlock{
		{Number: 4, Hash: inMemHash4, Bundle: NewBundleState()},
		{Number: 5, Hash: inMemHash5, Bundle: NewBundleState()},
	})

	hashes, err := ov.CanonicalHashesRange(1, 6)
	require.NoError(t, err)
	require.Equal(t, []common.Hash{
		hist.hashes[1], hist.hashes[2], hist.hashes[3], inMemHash4, inMemHash5,
	}, hashes)
}

func TestOverlayStateRootUnsupportedWhenNonEmpty(t *testing.T) {
	hist := newFakeHistorical()
	ov := New(hist, []ExecutedBlock{{Number: 1, Bundle: NewBundleState()}})
	_, err := ov.StateRoot(NewBundleState())
	require.ErrorIs(t, err, ErrUnsupported)
}

func TestOverlayStateRootDelegatesWhenEmpty(t *testing.T) {
	hist := newFakeHistorical()
	ov := New(hist, nil)
	root, err := ov.StateRoot(NewBundleState())
	require.NoError(t, err)
	require.Equal(t, common.HexToHash("0xaa"), root)
}
