package rollupevm

import (
	"math/big"
	"testing"

	"github.com/ethereum/go-ethereum/params"
)

func londonConfig() *params.ChainConfig {
	cfg := *params.AllEthashProtocolChanges
	zero := big.NewInt(0)
	cfg.LondonBlock = zero
	return &cfg
}

func TestComputeNextBaseFeeGenesisUsesInitialBaseFee(t *testing.T) {
	got := computeNextBaseFee(0, 0, nil, londonConfig())
	if got.Int64() != params.InitialBaseFee {
		t.Fatalf("want initial base fee %d, got %s", params.InitialBaseFee, got.String())
	}
}

func TestComputeNextBaseFeeRisesWhenParentOverTarget(t *testing.T) {
	cfg := londonConfig()
	limit := uint64(30_000_000)
	target := limit / 2

	atTarget := computeNextBaseFee(target, limit, big.NewInt(1_000_000_000), cfg)
	overTarget := computeNextBaseFee(limit, limit, big.NewInt(1_000_000_000), cfg)

	if overTarget.Cmp(atTarget) <= 0 {
		t.Fatalf("base fee should rise when parent gas used (%d) exceeds the target, atTarget=%s overTarget=%s", limit, atTarget, overTarget)
	}
}
