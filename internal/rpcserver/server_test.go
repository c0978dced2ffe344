package rpcserver

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"
	"time"

	"go.uber.org/zap"

	"github.com/citrea-rollup/node/internal/ledger"
)

func openTestLedger(t *testing.T) *ledger.DB {
	t.Helper()
	db, err := ledger.Open(filepath.Join(t.TempDir(), "ledger.db"))
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { _ = db.Close() })
	return db
}

func rpcCall(t *testing.T, srv *httptest.Server, method string, params interface{}) map[string]json.RawMessage {
	t.Helper()
	body, err := json.Marshal(map[string]interface{}{
		"method": method,
		"params": []interface{}{params},
		"id":     1,
	})
	if err != nil {
		t.Fatal(err)
	}
	resp, err := http.Post(srv.URL, "application/json", bytes.NewReader(body))
	if err != nil {
		t.Fatal(err)
	}
	defer resp.Body.Close()
	var out map[string]json.RawMessage
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		t.Fatal(err)
	}
	return out
}

func TestGetSoftConfirmationByNumberOverHTTP(t *testing.T) {
	db := openTestLedger(t)
	if err := db.PutSoftConfirmation(ledger.StoredSoftConfirmation{L2Height: 5, Hash: [32]byte{0xAB}}); err != nil {
		t.Fatal(err)
	}
	svc := NewLedgerService(db, zap.NewNop())
	srv := httptest.NewServer(NewHandler(svc))
	defer srv.Close()

	out := rpcCall(t, srv, "ledger.GetSoftConfirmationByNumber", byNumberArgs{Height: 5})
	if errMsg, ok := out["error"]; ok && string(errMsg) != "null" {
		t.Fatalf("unexpected rpc error: %s", errMsg)
	}
	var reply SoftConfirmationReply
	if err := json.Unmarshal(out["result"], &reply); err != nil {
		t.Fatal(err)
	}
	if !reply.Found || reply.Value.L2Height != 5 {
		t.Fatalf("unexpected reply: %+v", reply)
	}
}

func TestHealthCheckBelowThresholdIsHealthy(t *testing.T) {
	db := openTestLedger(t)
	if err := db.PutSoftConfirmation(ledger.StoredSoftConfirmation{L2Height: 1}); err != nil {
		t.Fatal(err)
	}
	if err := healthCheck(nil, db, func(time.Duration) {}); err != nil {
		t.Fatalf("expected healthy below threshold, got %v", err)
	}
}

func TestHealthCheckFailsWhenHeadDoesNotAdvance(t *testing.T) {
	db := openTestLedger(t)
	for h := uint64(1); h <= 2; h++ {
		if err := db.PutSoftConfirmation(ledger.StoredSoftConfirmation{L2Height: h, Timestamp: h}); err != nil {
			t.Fatal(err)
		}
	}
	var slept time.Duration
	err := healthCheck(nil, db, func(d time.Duration) { slept = d })
	if err != errNotAdvancing {
		t.Fatalf("expected errNotAdvancing, got %v", err)
	}
	if slept != 1500*time.Millisecond {
		t.Fatalf("expected 1.5s sleep for 1s block time, got %v", slept)
	}
}

func TestHealthCheckPassesWhenHeadAdvancesDuringSleep(t *testing.T) {
	db := openTestLedger(t)
	for h := uint64(1); h <= 2; h++ {
		if err := db.PutSoftConfirmation(ledger.StoredSoftConfirmation{L2Height: h, Timestamp: h}); err != nil {
			t.Fatal(err)
		}
	}
	advance := func(time.Duration) {
		_ = db.PutSoftConfirmation(ledger.StoredSoftConfirmation{L2Height: 3, Timestamp: 3})
	}
	if err := healthCheck(nil, db, advance); err != nil {
		t.Fatalf("expected healthy once head advances, got %v", err)
	}
}
