package config

import (
	"encoding/hex"
	"fmt"
	"math/big"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/params"

	"github.com/citrea-rollup/node/internal/fork"
	"github.com/citrea-rollup/node/internal/rollupevm"
)

// ForkEntry is a TOML-friendly mirror of fork.Entry.
type ForkEntry struct {
	Height uint64 `mapstructure:"height"`
	Spec   uint32 `mapstructure:"spec"`
}

// VaultsConfig is a TOML-friendly mirror of rollupevm.Vaults: hex-encoded
// addresses rather than common.Address, since the latter has no
// mapstructure decode hook registered by default.
type VaultsConfig struct {
	BaseFee     string `mapstructure:"base_fee"`
	PriorityFee string `mapstructure:"priority_fee"`
	L1Fee       string `mapstructure:"l1_fee"`
}

// ProtocolConfig is the chain-rules surface: the EVM chain id and block
// gas limit, the rollup's own fork table
// (spec.md SpecID activations), fee parameters, vault addresses, and the
// per-fork code commitments the proof verifier checks proofs against.
type ProtocolConfig struct {
	ChainID         uint64            `mapstructure:"chain_id"`
	GasLimit        uint64            `mapstructure:"gas_limit"`
	Forks           []ForkEntry       `mapstructure:"forks"`
	FeeParams       rollupevm.FeeParams `mapstructure:"fee_params"`
	Vaults          VaultsConfig      `mapstructure:"vaults"`
	CodeCommitments map[uint32]string `mapstructure:"code_commitments"`
}

func defaultProtocol() ProtocolConfig {
	return ProtocolConfig{
		ChainID:   5655, // Citrea's own chain id namespace, configurable per network
		GasLimit:  30_000_000,
		Forks:     []ForkEntry{{Height: 0, Spec: uint32(fork.Genesis)}},
		FeeParams: rollupevm.DefaultFeeParams(),
	}
}

// ChainConfig builds the go-ethereum params.ChainConfig this protocol
// configuration implies: every hardfork up to and including Cancun is
// active from genesis, since the rollup's own fork.Table (not
// go-ethereum's block-number gates) is what selects L1-fee and
// self-destruct semantics over time.
func (p ProtocolConfig) ChainConfig() *params.ChainConfig {
	zero := big.NewInt(0)
	return &params.ChainConfig{
		ChainID:             new(big.Int).SetUint64(p.ChainID),
		HomesteadBlock:      zero,
		EIP150Block:         zero,
		EIP155Block:         zero,
		EIP158Block:         zero,
		ByzantiumBlock:      zero,
		ConstantinopleBlock: zero,
		PetersburgBlock:     zero,
		IstanbulBlock:       zero,
		BerlinBlock:         zero,
		LondonBlock:         zero,
		ShanghaiTime:        new(uint64),
		CancunTime:          new(uint64),
	}
}

// ForkTable converts the configured fork entries into a fork.Table.
func (p ProtocolConfig) ForkTable() (fork.Table, error) {
	t := make(fork.Table, len(p.Forks))
	for i, e := range p.Forks {
		t[i] = fork.Entry{Height: e.Height, Spec: fork.SpecID(e.Spec)}
	}
	if err := t.Validate(); err != nil {
		return nil, err
	}
	return t, nil
}

// EngineVaults resolves the configured vault addresses.
func (p ProtocolConfig) EngineVaults() (rollupevm.Vaults, error) {
	baseFee, err := parseAddress(p.Vaults.BaseFee)
	if err != nil {
		return rollupevm.Vaults{}, fmt.Errorf("protocol: base_fee vault: %w", err)
	}
	priorityFee, err := parseAddress(p.Vaults.PriorityFee)
	if err != nil {
		return rollupevm.Vaults{}, fmt.Errorf("protocol: priority_fee vault: %w", err)
	}
	l1Fee, err := parseAddress(p.Vaults.L1Fee)
	if err != nil {
		return rollupevm.Vaults{}, fmt.Errorf("protocol: l1_fee vault: %w", err)
	}
	return rollupevm.Vaults{BaseFee: baseFee, PriorityFee: priorityFee, L1Fee: l1Fee}, nil
}

// CodeCommitmentsBySpec decodes the configured hex commitments into the
// map internal/verify.NewProofVerifier expects.
func (p ProtocolConfig) CodeCommitmentsBySpec() (map[fork.SpecID][]byte, error) {
	out := make(map[fork.SpecID][]byte, len(p.CodeCommitments))
	for spec, hexStr := range p.CodeCommitments {
		b, err := hex.DecodeString(trimHexPrefix(hexStr))
		if err != nil {
			return nil, fmt.Errorf("protocol: code_commitments[%d]: %w", spec, err)
		}
		out[fork.SpecID(spec)] = b
	}
	return out, nil
}

func parseAddress(s string) (common.Address, error) {
	if s == "" {
		return common.Address{}, nil
	}
	if !common.IsHexAddress(s) {
		return common.Address{}, fmt.Errorf("invalid address %q", s)
	}
	return common.HexToAddress(s), nil
}

func trimHexPrefix(s string) string {
	if len(s) >= 2 && s[0] == '0' && (s[1] == 'x' || s[1] == 'X') {
		return s[2:]
	}
	return s
}
