package rollupevm

import (
	"testing"

	"github.com/ethereum/go-ethereum/common"
)

func TestBuildSystemEventsFirstBlockEmitsInitTrioPlusDeposits(t *testing.T) {
	info := SoftConfirmationInfo{
		DaSlotHash:  common.HexToHash("0xaa"),
		DepositData: [][]byte{{1, 2, 3}, {4, 5, 6}},
	}
	events := BuildSystemEvents(info, true, common.Hash{})

	if len(events) != 3+2 { // init, set-block-info, bridge-init, + 2 deposits
		t.Fatalf("want 5 events (missing bridge init?), got %d", len(events))
	}
	if events[0].Kind != BitcoinLightClientInitialize {
		t.Fatalf("first event must be light-client init, got %v", events[0].Kind)
	}
	if events[1].Kind != BitcoinLightClientSetBlockInfo {
		t.Fatalf("second event must be set-block-info, got %v", events[1].Kind)
	}
	if events[2].Kind != BridgeInitialize {
		t.Fatalf("third event must be bridge init, got %v", events[2].Kind)
	}
	for i, ev := range events[3:] {
		if ev.Kind != BridgeDeposit {
			t.Fatalf("deposit event %d has wrong kind %v", i, ev.Kind)
		}
	}
}

func TestBuildSystemEventsSubsequentBlockSkipsInitUnlessSlotChanges(t *testing.T) {
	hash := common.HexToHash("0xaa")
	info := SoftConfirmationInfo{DaSlotHash: hash}

	// Same slot hash as before: no events at all.
	events := BuildSystemEvents(info, false, hash)
	if len(events) != 0 {
		t.Fatalf("want no system events when slot hash is unchanged, got %d", len(events))
	}

	// Slot hash changed: only set-block-info fires, no init trio.
	events = BuildSystemEvents(info, false, common.HexToHash("0xbb"))
	if len(events) != 1 || events[0].Kind != BitcoinLightClientSetBlockInfo {
		t.Fatalf("want exactly one set-block-info event, got %+v", events)
	}
}

func TestBuildSystemEventsDepositsFireRegardlessOfSlotChange(t *testing.T) {
	hash := common.HexToHash("0xaa")
	info := SoftConfirmationInfo{DaSlotHash: hash, DepositData: [][]byte{{9}}}

	events := BuildSystemEvents(info, false, hash)
	if len(events) != 1 || events[0].Kind != BridgeDeposit {
		t.Fatalf("want exactly one bridge-deposit event on an unchanged slot, got %+v", events)
	}
}
