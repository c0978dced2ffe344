// Package config loads the full node's configuration, mirroring the
// constructor arguments of original_source/crates/fullnode/src/runner.rs
// (RunnerConfig, RollupPublicKeys, RpcConfig) as a single TOML file
// with environment-variable and flag overrides.
package config

import (
	"fmt"
	"strings"

	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

// RunnerConfig mirrors runner.rs's RunnerConfig.
type RunnerConfig struct {
	SequencerClientURL string `mapstructure:"sequencer_client_url"`
	IncludeTxBody      bool   `mapstructure:"include_tx_body"`
	SyncBlocksCount    uint64 `mapstructure:"sync_blocks_count"`
	Pruning            *PruningConfig `mapstructure:"pruning"`
}

// PruningConfig enables the ledger pruner when present, per spec.md's
// non-goal note that pruning stays optional. DistanceBlocks is a retention
// distance in blocks; the pruner neither deletes data nor reads it.
type PruningConfig struct {
	DistanceBlocks uint64 `mapstructure:"distance"`
}

// RollupPublicKeys mirrors runner.rs's RollupPublicKeys.
type RollupPublicKeys struct {
	SequencerPublicKey []byte `mapstructure:"sequencer_public_key"`
	SequencerDAPubKey  []byte `mapstructure:"sequencer_da_pub_key"`
	ProverDAPubKey     []byte `mapstructure:"prover_da_pub_key"`
}

// RpcConfig mirrors runner.rs's RpcConfig, the JSON-RPC server's bind
// and request-limit settings.
type RpcConfig struct {
	BindHost                    string `mapstructure:"bind_host"`
	BindPort                    uint16 `mapstructure:"bind_port"`
	MaxConnections               uint32 `mapstructure:"max_connections"`
	MaxSubscriptionsPerConnection uint32 `mapstructure:"max_subscriptions_per_connection"`
	MaxRequestBodySize           uint32 `mapstructure:"max_request_body_size"`
	MaxResponseBodySize           uint32 `mapstructure:"max_response_body_size"`
	BatchRequestsLimit           uint32 `mapstructure:"batch_requests_limit"`
}

// StorageConfig points at the bbolt ledger database file.
type StorageConfig struct {
	Path string `mapstructure:"path"`
}

// RollupConfig is the node's top-level configuration document.
type RollupConfig struct {
	Runner     RunnerConfig     `mapstructure:"runner"`
	PublicKeys RollupPublicKeys `mapstructure:"public_keys"`
	Rpc        RpcConfig        `mapstructure:"rpc"`
	Storage    StorageConfig    `mapstructure:"storage"`
	Protocol   ProtocolConfig   `mapstructure:"protocol"`
	LogLevel   string           `mapstructure:"log_level"`
	LogJSON    bool             `mapstructure:"log_json"`
}

func defaults() RollupConfig {
	return RollupConfig{
		Runner: RunnerConfig{
			IncludeTxBody:   true,
			SyncBlocksCount: 10,
		},
		Rpc: RpcConfig{
			BindHost:                      "127.0.0.1",
			BindPort:                      12345,
			MaxConnections:                100,
			MaxSubscriptionsPerConnection: 100,
			MaxRequestBodySize:            10 * 1024 * 1024,
			MaxResponseBodySize:           10 * 1024 * 1024,
			BatchRequestsLimit:            50,
		},
		Storage:  StorageConfig{Path: "./data/ledger.db"},
		Protocol: defaultProtocol(),
		LogLevel: "info",
	}
}

// Load reads configFile (if non-empty) and overlays flags, falling back
// to the defaults above for anything unset.
func Load(configFile string, flags *pflag.FlagSet) (RollupConfig, error) {
	v := viper.New()
	cfg := defaults()
	if err := v.MergeConfigMap(structToMap(cfg)); err != nil {
		return RollupConfig{}, fmt.Errorf("config: seed defaults: %w", err)
	}

	if configFile != "" {
		v.SetConfigFile(configFile)
		if err := v.MergeInConfig(); err != nil {
			return RollupConfig{}, fmt.Errorf("config: read %s: %w", configFile, err)
		}
	}

	v.SetEnvPrefix("CITREA")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if flags != nil {
		if err := v.BindPFlags(flags); err != nil {
			return RollupConfig{}, fmt.Errorf("config: bind flags: %w", err)
		}
	}

	var out RollupConfig
	if err := v.Unmarshal(&out); err != nil {
		return RollupConfig{}, fmt.Errorf("config: unmarshal: %w", err)
	}
	return out, nil
}

// structToMap seeds viper's default layer from a Go struct without
// round-tripping through a file; mapstructure tags already describe the
// key names used by both layers.
func structToMap(cfg RollupConfig) map[string]interface{} {
	return map[string]interface{}{
		"runner": map[string]interface{}{
			"sequencer_client_url": cfg.Runner.SequencerClientURL,
			"include_tx_body":      cfg.Runner.IncludeTxBody,
			"sync_blocks_count":    cfg.Runner.SyncBlocksCount,
		},
		"rpc": map[string]interface{}{
			"bind_host":                         cfg.Rpc.BindHost,
			"bind_port":                         cfg.Rpc.BindPort,
			"max_connections":                   cfg.Rpc.MaxConnections,
			"max_subscriptions_per_connection":  cfg.Rpc.MaxSubscriptionsPerConnection,
			"max_request_body_size":             cfg.Rpc.MaxRequestBodySize,
			"max_response_body_size":            cfg.Rpc.MaxResponseBodySize,
			"batch_requests_limit":              cfg.Rpc.BatchRequestsLimit,
		},
		"storage": map[string]interface{}{"path": cfg.Storage.Path},
		"protocol": map[string]interface{}{
			"chain_id":  cfg.Protocol.ChainID,
			"gas_limit": cfg.Protocol.GasLimit,
			"fee_params": map[string]interface{}{
				"L1FeeOverhead":               cfg.Protocol.FeeParams.L1FeeOverhead,
				"BrotliCompressionPercentage": cfg.Protocol.FeeParams.BrotliCompressionPercentage,
			},
		},
		"log_level": cfg.LogLevel,
		"log_json":  cfg.LogJSON,
	}
}
