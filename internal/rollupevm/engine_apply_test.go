package rollupevm

import (
	"crypto/ecdsa"
	"math/big"
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/rawdb"
	"github.com/ethereum/go-ethereum/core/state"
	"github.com/ethereum/go-ethereum/core/tracing"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/ethereum/go-ethereum/params"
	"github.com/holiman/uint256"
	"go.uber.org/zap"

	"github.com/citrea-rollup/node/internal/fork"
)

func newApplyEngineTestEngine(t *testing.T) (*Engine, *state.StateDB) {
	t.Helper()
	forkMg, err := fork.NewManager(fork.Table{{Height: 0, Spec: fork.Genesis}})
	if err != nil {
		t.Fatalf("build fork manager: %v", err)
	}

	engine := NewEngine(Config{
		ChainConfig: londonConfig(),
		GasLimit:    30_000_000,
		Vaults: Vaults{
			BaseFee:     common.HexToAddress("0xb1"),
			PriorityFee: common.HexToAddress("0xb2"),
			L1Fee:       common.HexToAddress("0xb3"),
		},
		FeeParams: DefaultFeeParams(),
	}, forkMg, zap.NewNop())

	memdb := rawdb.NewMemoryDatabase()
	sdb, err := state.New(types.EmptyRootHash, state.NewDatabase(memdb), nil)
	if err != nil {
		t.Fatalf("open state: %v", err)
	}
	return engine, sdb
}

func signedTransferTx(t *testing.T, key *ecdsa.PrivateKey, nonce uint64, gasPrice *big.Int) *types.Transaction {
	t.Helper()
	tx := types.NewTransaction(nonce, common.HexToAddress("0xcc"), big.NewInt(1), 21_000, gasPrice, nil)
	signer := types.LatestSignerForChainID(londonConfig().ChainID)
	signed, err := types.SignTx(tx, signer, key)
	if err != nil {
		t.Fatalf("sign tx: %v", err)
	}
	return signed
}

func TestApplyCallBatchAppliesTransferAndFeeSplit(t *testing.T) {
	engine, sdb := newApplyEngineTestEngine(t)
	key, err := crypto.GenerateKey()
	if err != nil {
		t.Fatalf("generate key: %v", err)
	}
	sender := crypto.PubkeyToAddress(key.PublicKey)
	sdb.AddBalance(sender, uint256.NewInt(params.Ether), tracing.BalanceChangeUnspecified)

	info := SoftConfirmationInfo{L2Height: 1, L1FeeRate: 1, Timestamp: 1000}
	if err := engine.Begin(sdb, info); err != nil {
		t.Fatalf("begin: %v", err)
	}

	tx := signedTransferTx(t, key, 0, big.NewInt(params.InitialBaseFee))
	if err := engine.ApplyCallBatch([]*types.Transaction{tx}); err != nil {
		t.Fatalf("apply call batch: %v", err)
	}

	block, err := engine.End(info)
	if err != nil {
		t.Fatalf("end: %v", err)
	}
	if got := block.TxEnd - block.TxStart; got != 1 {
		t.Fatalf("want 1 tx sealed into the block, got %d", got)
	}
	if sdb.GetBalance(common.HexToAddress("0xcc")).Sign() == 0 {
		t.Fatalf("recipient should have received the transferred value")
	}
	if sdb.GetBalance(engine.cfg.Vaults.L1Fee).IsZero() {
		t.Fatalf("L1 fee vault should have received a nonzero cut")
	}
}

func TestApplyCallBatchRejectsTxWhenSenderCannotCoverL1Fee(t *testing.T) {
	engine, sdb := newApplyEngineTestEngine(t)
	key, err := crypto.GenerateKey()
	if err != nil {
		t.Fatalf("generate key: %v", err)
	}
	sender := crypto.PubkeyToAddress(key.PublicKey)
	// Enough for the EVM-level gas cost, but the L1-fee rate is set so
	// high that the additional per-byte charge cannot be covered.
	sdb.AddBalance(sender, uint256.NewInt(21_000*params.InitialBaseFee+1), tracing.BalanceChangeUnspecified)

	info := SoftConfirmationInfo{L2Height: 1, L1FeeRate: 1_000_000_000_000, Timestamp: 1000}
	if err := engine.Begin(sdb, info); err != nil {
		t.Fatalf("begin: %v", err)
	}

	tx := signedTransferTx(t, key, 0, big.NewInt(params.InitialBaseFee))
	err = engine.ApplyCallBatch([]*types.Transaction{tx})
	if _, ok := err.(NotEnoughFundsForL1Fee); !ok {
		t.Fatalf("want NotEnoughFundsForL1Fee, got %v (%T)", err, err)
	}
}
