package rollupevm

import (
	"math/big"
	"testing"

	"github.com/citrea-rollup/node/internal/fork"
)

func TestCompressedSizePreFork1IsRaw(t *testing.T) {
	params := DefaultFeeParams()
	if got := compressedSize(1000, fork.Genesis, params); got != 1000 {
		t.Fatalf("pre-Fork1 compressed size must equal raw size, got %d", got)
	}
}

func TestCompressedSizePostFork1AppliesCeilingDiscount(t *testing.T) {
	params := FeeParams{L1FeeOverhead: 0, BrotliCompressionPercentage: 30}
	// 101 * 30 / 100 = 30.3 -> ceil to 31
	if got := compressedSize(101, fork.Fork1, params); got != 31 {
		t.Fatalf("want ceil(101*30/100)=31, got %d", got)
	}
	// exact multiple: no rounding needed
	if got := compressedSize(100, fork.Fork1, params); got != 30 {
		t.Fatalf("want 30, got %d", got)
	}
}

func TestL1FeeAddsOverhead(t *testing.T) {
	params := FeeParams{L1FeeOverhead: 100, BrotliCompressionPercentage: 30}
	fee := l1Fee(52, 1, fork.Genesis, params)
	if fee.Uint64() != 52+100 {
		t.Fatalf("want 152, got %s", fee.String())
	}
}

func TestComputeFeeSplitRoutesPriorityAboveBaseFee(t *testing.T) {
	params := DefaultFeeParams()
	split := computeFeeSplit(21000, big.NewInt(10), big.NewInt(12), 0, 0, fork.Genesis, params)
	if split.BaseFee.Uint64() != 21000*10 {
		t.Fatalf("base fee total mismatch: %s", split.BaseFee.String())
	}
	if split.PriorityFee.Uint64() != 21000*2 {
		t.Fatalf("priority fee total mismatch: %s", split.PriorityFee.String())
	}
}

func TestComputeFeeSplitNoPriorityWhenGasPriceEqualsBaseFee(t *testing.T) {
	params := DefaultFeeParams()
	split := computeFeeSplit(21000, big.NewInt(10), big.NewInt(10), 0, 0, fork.Genesis, params)
	if !split.PriorityFee.IsZero() {
		t.Fatalf("expected zero priority fee, got %s", split.PriorityFee.String())
	}
}
