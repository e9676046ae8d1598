package builder

import (
	"context"
	"crypto/ecdsa"
	"math/big"
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/ethereum/go-ethereum/params"
	"github.com/ethpending/buildercore/chainspec"
	"github.com/ethpending/buildercore/overlay"
	"github.com/ethpending/buildercore/pendingpool"
	"github.com/holiman/uint256"
	"github.com/stretchr/testify/require"
)

type emptyHistorical struct{}

func (emptyHistorical) BlockHash(n uint64) (common.Hash, error) { return common.Hash{}, nil }
func (emptyHistorical) BasicAccount(addr common.Address) (*overlay.Account, error) {
	return nil, nil
}
func (emptyHistorical) Storage(addr common.Address, slot common.Hash) (common.Hash, error) {
	return common.Hash{}, nil
}
func (emptyHistorical) BytecodeByHash(hash common.Hash) ([]byte, error) { return nil, nil }
func (emptyHistorical) CanonicalHashesRange(start, end uint64) ([]common.Hash, error) {
	return nil, nil
}
func (emptyHistorical) StateRoot(bundle *overlay.BundleState) (common.Hash, error) {
	return common.Hash{}, nil
}
func (emptyHistorical) Proof(addr common.Address, slots []common.Hash) (*overlay.AccountProof, error) {
	return &overlay.AccountProof{Address: addr}, nil
}

var _ overlay.HistoricalProvider = emptyHistorical{}

func testChainSpec() *chainspec.ChainSpec {
	cfg := &params.ChainConfig{
		ChainID:      params.AllEthashProtocolChanges.ChainID,
		ShanghaiTime: new(uint64),
		CancunTime:   new(uint64),
	}
	return chainspec.New(cfg)
}

func baseParams() Params {
	return Params{
		ParentHash:   common.HexToHash("0x01"),
		ParentNumber: 10,
		Env: &BlockEnv{
			Number:            11,
			Timestamp:         1000,
			Coinbase:          common.HexToAddress("0xc0ffee"),
			BaseFee:           uint256.NewInt(7),
			GasLimit:          30_000_000,
			BaseFeePerBlobGas: uint256.NewInt(1),
		},
		Cfg: &CfgEnv{ChainID: params.AllEthashProtocolChanges.ChainID},
	}
}

// fakePool makes BestWithAttributes return an empty-but-non-nil iterator so
// the selection loop exits immediately without needing a signed transaction
// fixture.
type fakePool struct{}

func (fakePool) BestWithAttributes(baseFee, baseFeePerBlobGas *uint256.Int) *pendingpool.BestWithFees {
	snap := pendingpool.NewSnapshot(nil)
	return pendingpool.NewBestTransactionsWithFees(pendingpool.NewBestTransactions(snap), baseFee, baseFeePerBlobGas)
}

func TestBuildEmptyPoolProducesSealedBlock(t *testing.T) {
	b := New(testChainSpec(), fakePool{}, emptyHistorical{}, nil)
	result, err := b.Build(context.Background(), baseParams())
	require.NoError(t, err)
	require.NotNil(t, result.Block)
	require.Equal(t, uint64(11), result.Block.NumberU64())
	require.Equal(t, 0, len(result.Block.Transactions()))
}

func TestBuildIsDeterministicForIdenticalInputs(t *testing.T) {
	b := New(testChainSpec(), fakePool{}, emptyHistorical{}, nil)
	r1, err := b.Build(context.Background(), baseParams())
	require.NoError(t, err)

	b2 := New(testChainSpec(), fakePool{}, emptyHistorical{}, nil)
	r2, err := b2.Build(context.Background(), baseParams())
	require.NoError(t, err)

	require.Equal(t, r1.Block.Hash(), r2.Block.Hash(), "identical inputs must seal identical blocks")
}

func TestBuildHonorsPendingBlockCache(t *testing.T) {
	b := New(testChainSpec(), fakePool{}, emptyHistorical{}, nil)
	p := baseParams()
	r1, err := b.Build(context.Background(), p)
	require.NoError(t, err)

	r2, err := b.Build(context.Background(), p)
	require.NoError(t, err)
	require.Equal(t, r1.Block.Hash(), r2.Block.Hash())
	require.Same(t, r1.Block, r2.Block, "second call within the TTL must reuse the cached block")
}

func TestBuildAbortsOnCanceledContext(t *testing.T) {
	b := New(testChainSpec(), fakePool{}, emptyHistorical{}, nil)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := b.Build(ctx, baseParams())
	require.Error(t, err)
	var buildErr *Error
	require.ErrorAs(t, err, &buildErr)
	require.Equal(t, Internal, buildErr.Class)
}

// txWrapper adapts a signed *types.Transaction plus its recovered sender
// into pendingpool.Transaction, the way a real pool entry would.
type txWrapper struct {
	tx     *types.Transaction
	sender common.Address
}

func (w *txWrapper) Hash() common.Hash      { return w.tx.Hash() }
func (w *txWrapper) Sender() common.Address { return w.sender }
func (w *txWrapper) Nonce() uint64          { return w.tx.Nonce() }
func (w *txWrapper) GasFeeCap() *uint256.Int {
	v, _ := uint256.FromBig(w.tx.GasFeeCap())
	return v
}
func (w *txWrapper) GasTipCap() *uint256.Int {
	v, _ := uint256.FromBig(w.tx.GasTipCap())
	return v
}
func (w *txWrapper) BlobGasFeeCap() *uint256.Int {
	fee := w.tx.BlobGasFeeCap()
	if fee == nil {
		return nil
	}
	v, _ := uint256.FromBig(fee)
	return v
}
func (w *txWrapper) BlobGasUsed() uint64     { return 0 }
func (w *txWrapper) IsBlob() bool            { return w.tx.Type() == types.BlobTxType }
func (w *txWrapper) Raw() *types.Transaction { return w.tx }

var _ pendingpool.Transaction = (*txWrapper)(nil)

// fundedPool hands back a fixed, pre-built set of pending transactions
// instead of tracking live pool state, so tests can exercise the selection
// loop's execution path against real signed transactions.
type fundedPool struct {
	txs []*pendingpool.PendingTransaction
}

func (p fundedPool) BestWithAttributes(baseFee, baseFeePerBlobGas *uint256.Int) *pendingpool.BestWithFees {
	snap := pendingpool.NewSnapshot(p.txs)
	return pendingpool.NewBestTransactionsWithFees(pendingpool.NewBestTransactions(snap), baseFee, baseFeePerBlobGas)
}

// fundedHistorical reports a balance only for the addresses in funded;
// every other address looks brand new, with zero balance and nonce.
type fundedHistorical struct {
	emptyHistorical
	funded map[common.Address]*overlay.Account
}

func (h fundedHistorical) BasicAccount(addr common.Address) (*overlay.Account, error) {
	return h.funded[addr], nil
}

func mustSignTx(t *testing.T, signer types.Signer, key *ecdsa.PrivateKey, nonce uint64) *types.Transaction {
	t.Helper()
	to := common.HexToAddress("0xd00d")
	tx := types.NewTx(&types.LegacyTx{
		Nonce:    nonce,
		To:       &to,
		Value:    big.NewInt(0),
		Gas:      21000,
		GasPrice: big.NewInt(1_000_000_000),
	})
	signed, err := types.SignTx(tx, signer, key)
	require.NoError(t, err)
	return signed
}

// TestBuildSkipsPerTxErrorsWithoutAbortingBuild exercises the selection
// loop against real signed transactions: one sender has no funds on the
// historical provider, so applyTransaction returns core.ErrInsufficientFunds
// (a per-transaction error, not ErrNonceTooLow). The build must mark that
// transaction invalid and keep going rather than aborting, and must still
// execute and account for the funded transaction.
func TestBuildSkipsPerTxErrorsWithoutAbortingBuild(t *testing.T) {
	goodKey, err := crypto.GenerateKey()
	require.NoError(t, err)
	badKey, err := crypto.GenerateKey()
	require.NoError(t, err)
	goodAddr := crypto.PubkeyToAddress(goodKey.PublicKey)
	badAddr := crypto.PubkeyToAddress(badKey.PublicKey)

	chainID := params.AllEthashProtocolChanges.ChainID
	signer := types.LatestSignerForChainID(chainID)

	goodTx := mustSignTx(t, signer, goodKey, 0)
	badTx := mustSignTx(t, signer, badKey, 0)

	pool := fundedPool{txs: []*pendingpool.PendingTransaction{
		{Tx: &txWrapper{tx: badTx, sender: badAddr}, Priority: priority(20)},
		{Tx: &txWrapper{tx: goodTx, sender: goodAddr}, Priority: priority(10)},
	}}
	historical := fundedHistorical{funded: map[common.Address]*overlay.Account{
		goodAddr: {Balance: big.NewInt(1_000_000_000_000_000_000)},
	}}

	b := New(testChainSpec(), pool, historical, nil)
	result, err := b.Build(context.Background(), baseParams())
	require.NoError(t, err, "a per-tx insufficient-funds error must not abort the build")
	require.Equal(t, 1, len(result.Block.Transactions()), "only the funded transaction should be included")
	require.Equal(t, goodTx.Hash(), result.Block.Transactions()[0].Hash())
	require.Greater(t, result.Block.GasUsed(), uint64(0), "gas accounting must reflect the executed transaction")
}

func priority(v int64) pendingpool.Priority {
	return pendingpool.Priority{Value: uint256.NewInt(uint64(v))}
}
