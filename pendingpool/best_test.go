package pendingpool

import (
	"math/big"
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/holiman/uint256"
	"github.com/stretchr/testify/require"
)

type fakeTx struct {
	hash          common.Hash
	sender        common.Address
	nonce         uint64
	feeCap        *uint256.Int
	tipCap        *uint256.Int
	blobFeeCap    *uint256.Int
	blob          bool
}

func (f *fakeTx) Hash() common.Hash             { return f.hash }
func (f *fakeTx) Sender() common.Address        { return f.sender }
func (f *fakeTx) Nonce() uint64                 { return f.nonce }
func (f *fakeTx) GasFeeCap() *uint256.Int       { return f.feeCap }
func (f *fakeTx) GasTipCap() *uint256.Int       { return f.tipCap }
func (f *fakeTx) BlobGasFeeCap() *uint256.Int   { return f.blobFeeCap }
func (f *fakeTx) BlobGasUsed() uint64           { return 0 }
func (f *fakeTx) IsBlob() bool                  { return f.blob }
func (f *fakeTx) Raw() *types.Transaction        { return nil }

var _ Transaction = (*fakeTx)(nil)

func u256(n int64) *uint256.Int { return uint256.NewInt(uint64(n)) }

func newTx(sender common.Address, nonce uint64, feeCap, tipCap int64) *fakeTx {
	h := common.BigToHash(new(big.Int).SetUint64(uint64(sender[19])<<32 | nonce))
	return &fakeTx{hash: h, sender: sender, nonce: nonce, feeCap: u256(feeCap), tipCap: u256(tipCap)}
}

var (
	senderA = common.HexToAddress("0xa1")
	senderB = common.HexToAddress("0xb2")
)

func pending(tx Transaction, priority int64) *PendingTransaction {
	return &PendingTransaction{Tx: tx, Priority: Priority{Value: u256(priority)}}
}

func TestBestIterYieldsInPriorityThenNonceOrder(t *testing.T) {
	a0 := newTx(senderA, 0, 100, 10)
	a1 := newTx(senderA, 1, 100, 10)
	b0 := newTx(senderB, 0, 100, 20)

	snap := NewSnapshot([]*PendingTransaction{
		pending(a0, 10),
		pending(a1, 5), // locked until a0 yielded
		pending(b0, 20),
	})
	it := NewBestTransactions(snap)

	first := it.Next()
	require.Equal(t, b0.hash, first.Tx.Hash(), "highest priority independent tx first")

	second := it.Next()
	require.Equal(t, a0.hash, second.Tx.Hash())

	third := it.Next()
	require.Equal(t, a1.hash, third.Tx.Hash(), "a1 unlocked only after a0 yielded")

	require.Nil(t, it.Next())
}

func TestBestIterInvalidSkipsAndStarvesDescendants(t *testing.T) {
	a0 := newTx(senderA, 0, 100, 10)
	a1 := newTx(senderA, 1, 100, 10)

	snap := NewSnapshot([]*PendingTransaction{pending(a0, 10), pending(a1, 5)})
	it := NewBestTransactions(snap)
	it.MarkInvalid(a0.hash)

	require.Nil(t, it.Next(), "a0 invalid, a1 never unlocked")
}

func TestBestWithFeesBaseFeeSatisfied(t *testing.T) {
	tx := newTx(senderA, 0, 100, 10)
	snap := NewSnapshot([]*PendingTransaction{pending(tx, 10)})
	w := NewBestTransactionsWithFees(NewBestTransactions(snap), u256(50), nil)
	require.NotNil(t, w.Next())
}

func TestBestWithFeesBaseFeeViolated(t *testing.T) {
	tx := newTx(senderA, 0, 100, 10)
	snap := NewSnapshot([]*PendingTransaction{pending(tx, 10)})
	w := NewBestTransactionsWithFees(NewBestTransactions(snap), u256(150), nil)
	require.Nil(t, w.Next())
}

func TestBestWithFeesBlobFeeMixed(t *testing.T) {
	cheap := newTx(senderA, 0, 100, 10)
	cheap.blob = true
	cheap.blobFeeCap = u256(5)
	rich := newTx(senderB, 0, 100, 10)
	rich.blob = true
	rich.blobFeeCap = u256(500)

	snap := NewSnapshot([]*PendingTransaction{pending(cheap, 10), pending(rich, 20)})
	w := NewBestTransactionsWithFees(NewBestTransactions(snap), u256(50), u256(100))

	got := w.Next()
	require.NotNil(t, got)
	require.Equal(t, rich.hash, got.Tx.Hash(), "only the rich blob tx clears the blob base fee")
	require.Nil(t, w.Next())
}

func TestBestIterSkipBlobsStillUnlocksDescendant(t *testing.T) {
	a0 := newTx(senderA, 0, 100, 10)
	a0.blob = true
	a0.blobFeeCap = u256(5)
	a1 := newTx(senderA, 1, 100, 10)

	snap := NewSnapshot([]*PendingTransaction{pending(a0, 10), pending(a1, 5)})
	it := NewBestTransactions(snap)
	it.SetSkipBlobs(true)

	// a0 is popped first (highest priority), skipped for being a blob tx,
	// but must unlock a1 before being skipped so the same Next() call
	// falls through to return it instead of stranding it.
	got := it.Next()
	require.NotNil(t, got, "a1 should have been unlocked when a0 was popped, not stranded behind the blob skip")
	require.Equal(t, a1.hash, got.Tx.Hash())
	require.Nil(t, it.Next())
}

func TestOrderingEffectiveTip(t *testing.T) {
	ord := EffectiveTipOrdering{}
	tx := newTx(senderA, 0, 100, 10)
	p := ord.Priority(tx, u256(95))
	require.Equal(t, u256(5).Uint64(), p.Value.Uint64(), "headroom below tip caps the reward")

	p2 := ord.Priority(tx, u256(50))
	require.Equal(t, u256(10).Uint64(), p2.Value.Uint64(), "tip caps the reward when headroom is ample")
}
