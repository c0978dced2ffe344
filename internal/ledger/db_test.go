package ledger

import (
	"path/filepath"
	"testing"
)

func openTestDB(t *testing.T) *DB {
	t.Helper()
	path := filepath.Join(t.TempDir(), "ledger.db")
	db, err := Open(path)
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })
	return db
}

func TestPutGetSoftConfirmationDefaultsToTrusted(t *testing.T) {
	db := openTestDB(t)
	sc := StoredSoftConfirmation{L2Height: 3, DaSlotHeight: 100}
	if err := db.PutSoftConfirmation(sc); err != nil {
		t.Fatal(err)
	}
	got, ok, err := db.GetSoftConfirmation(3)
	if err != nil || !ok {
		t.Fatalf("expected to find height 3, err=%v ok=%v", err, ok)
	}
	if got.DaSlotHeight != 100 {
		t.Fatalf("mismatch: %+v", got)
	}
	status, err := db.GetStatus(3)
	if err != nil || status != Trusted {
		t.Fatalf("want Trusted, got %v err=%v", status, err)
	}
}

func TestGetSoftConfirmationRangeIncompleteReportsFalse(t *testing.T) {
	db := openTestDB(t)
	for _, h := range []uint64{1, 2, 4} {
		if err := db.PutSoftConfirmation(StoredSoftConfirmation{L2Height: h}); err != nil {
			t.Fatal(err)
		}
	}
	_, complete, err := db.GetSoftConfirmationRange(1, 4)
	if err != nil {
		t.Fatal(err)
	}
	if complete {
		t.Fatal("expected incomplete range due to missing height 3")
	}

	_, complete, err = db.GetSoftConfirmationRange(1, 2)
	if err != nil {
		t.Fatal(err)
	}
	if !complete {
		t.Fatal("expected complete range for [1,2]")
	}
}

func TestSetStatusRefusesDowngrade(t *testing.T) {
	db := openTestDB(t)
	if err := db.PutSoftConfirmation(StoredSoftConfirmation{L2Height: 1}); err != nil {
		t.Fatal(err)
	}
	if err := db.SetStatus(1, Finalized); err != nil {
		t.Fatal(err)
	}
	if err := db.SetStatus(1, Proven); err != nil {
		t.Fatal(err)
	}
	if err := db.SetStatus(1, Trusted); err == nil {
		t.Fatal("expected downgrade from Proven to Trusted to be rejected")
	}
	status, _ := db.GetStatus(1)
	if status != Proven {
		t.Fatalf("status must remain Proven after rejected downgrade, got %v", status)
	}
}

func TestLastScannedL1Height(t *testing.T) {
	db := openTestDB(t)
	if _, found, _ := db.GetLastScannedL1Height(); found {
		t.Fatal("expected not found before first scan")
	}
	if err := db.SetLastScannedL1Height(42); err != nil {
		t.Fatal(err)
	}
	h, found, err := db.GetLastScannedL1Height()
	if err != nil || !found || h != 42 {
		t.Fatalf("want 42/true, got %d/%v err=%v", h, found, err)
	}
}

func TestHeadSoftConfirmationHeightTracksHighestKey(t *testing.T) {
	db := openTestDB(t)
	for _, h := range []uint64{1, 5, 3} {
		if err := db.PutSoftConfirmation(StoredSoftConfirmation{L2Height: h}); err != nil {
			t.Fatal(err)
		}
	}
	head, found, err := db.GetHeadSoftConfirmationHeight()
	if err != nil || !found || head != 5 {
		t.Fatalf("want head 5, got %d found=%v err=%v", head, found, err)
	}
}
