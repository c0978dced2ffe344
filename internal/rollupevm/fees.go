package rollupevm

import (
	"math/big"

	"github.com/ethereum/go-ethereum/common"
	"github.com/holiman/uint256"

	"github.com/citrea-rollup/node/internal/fork"
)

// FeeParams is the protocol's L1-fee surface, sourced from chain
// configuration rather than hardcoded: the retrieved reference source's
// handler module (crates/evm/src/handler.rs, the actual owner of
// L1_FEE_OVERHEAD and BROTLI_COMPRESSION_PERCENTAGE) was not part of the
// corpus, and the test fixtures that do reference them derive their
// numbers from running the real constants rather than stating them, so
// this engine treats both as configured protocol parameters instead of
// engine-internal magic numbers (see the accompanying design notes).
type FeeParams struct {
	// L1FeeOverhead is a flat per-transaction surcharge added to the
	// compressed-size-derived fee, covering the fixed cost of an L1
	// inclusion slot independent of transaction size.
	L1FeeOverhead uint64
	// BrotliCompressionPercentage is applied to a transaction's raw diff
	// size once the active fork reaches Fork1: compressed_size =
	// ceil(raw * BrotliCompressionPercentage / 100).
	BrotliCompressionPercentage uint64
}

// DefaultFeeParams returns conservative parameters for environments that
// have not wired their own chain configuration; production deployments
// must override these from the values published for the network they
// settle against.
func DefaultFeeParams() FeeParams {
	return FeeParams{
		L1FeeOverhead:               100,
		BrotliCompressionPercentage: 30,
	}
}

// Vaults are the fixed system addresses L1-fee and base-fee portions are
// routed to. The priority-fee portion is routed to the block's coinbase,
// which the protocol fixes to equal the priority-fee vault address.
type Vaults struct {
	BaseFee     common.Address
	PriorityFee common.Address
	L1Fee       common.Address
}

// compressedSize applies the fork-gated compression discount to a raw
// transaction diff size (spec.md §4.2).
func compressedSize(raw uint64, spec fork.SpecID, params FeeParams) uint64 {
	if spec < fork.Fork1 {
		return raw
	}
	num := raw * params.BrotliCompressionPercentage
	// ceil(num / 100)
	return (num + 99) / 100
}

// l1Fee computes the total L1 fee owed for a transaction with the given
// raw diff size, at the given L1 fee rate, under the given spec.
func l1Fee(rawDiffSize uint64, l1FeeRate uint64, spec fork.SpecID, params FeeParams) *uint256.Int {
	size := compressedSize(rawDiffSize, spec, params)
	fee := new(uint256.Int).Mul(uint256.NewInt(size), uint256.NewInt(l1FeeRate))
	fee.Add(fee, uint256.NewInt(params.L1FeeOverhead))
	return fee
}

// feeSplit is the computed routing of a single transaction's combined
// base+priority+L1 fees.
type feeSplit struct {
	BaseFee     *uint256.Int
	PriorityFee *uint256.Int
	L1Fee       *uint256.Int
}

// total returns the sum debited from the sender.
func (s feeSplit) total() *uint256.Int {
	t := new(uint256.Int).Add(s.BaseFee, s.PriorityFee)
	return t.Add(t, s.L1Fee)
}

// computeFeeSplit derives the base-fee and priority-fee components from
// EVM gas accounting (effective gas price versus the block's base fee)
// and the L1-fee component from the transaction's DA footprint.
func computeFeeSplit(gasUsed uint64, baseFeePerGas, effectiveGasPrice *big.Int, rawDiffSize uint64, l1FeeRate uint64, spec fork.SpecID, params FeeParams) feeSplit {
	gas := uint256.NewInt(gasUsed)

	baseFeePerGasU, _ := uint256.FromBig(baseFeePerGas)
	effGasPriceU, _ := uint256.FromBig(effectiveGasPrice)

	baseFeeTotal := new(uint256.Int).Mul(gas, baseFeePerGasU)

	priorityPerGas := new(uint256.Int)
	if effGasPriceU.Cmp(baseFeePerGasU) > 0 {
		priorityPerGas.Sub(effGasPriceU, baseFeePerGasU)
	}
	priorityTotal := new(uint256.Int).Mul(gas, priorityPerGas)

	return feeSplit{
		BaseFee:     baseFeeTotal,
		PriorityFee: priorityTotal,
		L1Fee:       l1Fee(rawDiffSize, l1FeeRate, spec, params),
	}
}
