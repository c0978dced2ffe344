package rollupevm

import (
	"github.com/ethereum/go-ethereum/common"
)

// System addresses: fixed signer and predeployed contract targets for
// privileged transactions. These are protocol constants, not derived from
// any account's key material — the engine never signs for SystemSigner,
// it synthesizes already-"from"-tagged calls directly against the state.
var (
	SystemSigner              = common.HexToAddress("0x0000000000000000000000000000000000Fffe")
	BitcoinLightClientAddress = common.HexToAddress("0x31000000000000000000000000000000000001")
	BridgeAddress             = common.HexToAddress("0x31000000000000000000000000000000000002")
)

// SystemGasBudget is the portion of the block gas limit reserved for
// system events, carved out so user transactions can never starve them
// (spec.md §4.1 step 4).
const SystemGasBudget = 1_500_000

// SystemEventKind discriminates the four privileged call shapes the
// injector can emit.
type SystemEventKind int

const (
	BitcoinLightClientInitialize SystemEventKind = iota
	BitcoinLightClientSetBlockInfo
	BridgeInitialize
	BridgeDeposit
)

// SystemEvent is one privileged call to be executed atomically at the
// head of a soft confirmation, before any user transaction.
type SystemEvent struct {
	Kind SystemEventKind
	To   common.Address

	// DaHeight is set for BitcoinLightClientInitialize.
	DaHeight uint64
	// DaHash / DaTxsCommitment are set for BitcoinLightClientSetBlockInfo.
	DaHash          common.Hash
	DaTxsCommitment common.Hash
	// DepositParams is set for BridgeDeposit, one opaque blob per call.
	DepositParams []byte
}

// BuildSystemEvents decides which privileged events this soft
// confirmation must emit, following spec.md §4.1 step 4 / §4.3's
// invariant 8: the light-client init trio fires only on the very first
// block, set-block-info fires whenever the DA slot hash changed (or on
// the first block), and one BridgeDeposit fires per item in the soft
// confirmation's deposit data.
func BuildSystemEvents(info SoftConfirmationInfo, isFirstBlock bool, lastDaSlotHash common.Hash) []SystemEvent {
	var events []SystemEvent

	slotChanged := isFirstBlock || info.DaSlotHash != lastDaSlotHash

	if isFirstBlock {
		events = append(events, SystemEvent{
			Kind:     BitcoinLightClientInitialize,
			To:       BitcoinLightClientAddress,
			DaHeight: info.DaSlotHeight,
		})
	}
	if slotChanged {
		events = append(events, SystemEvent{
			Kind:            BitcoinLightClientSetBlockInfo,
			To:              BitcoinLightClientAddress,
			DaHash:          info.DaSlotHash,
			DaTxsCommitment: info.DaSlotTxsCommitment,
		})
	}
	if isFirstBlock {
		events = append(events, SystemEvent{
			Kind: BridgeInitialize,
			To:   BridgeAddress,
		})
	}
	for _, params := range info.DepositData {
		events = append(events, SystemEvent{
			Kind:          BridgeDeposit,
			To:            BridgeAddress,
			DepositParams: params,
		})
	}
	return events
}
