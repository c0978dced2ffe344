package node

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestSequencerClientDecodesRange(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var req rpcRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		require.Equal(t, "ledger.GetSoftConfirmationRange", req.Method)

		reply := sequencerRangeReply{Values: []*wireSoftConfirmation{
			{L2Height: 1, Hash: [32]byte{0x01}, PrevHash: [32]byte{}, DaSlotHeight: 7, Txs: [][]byte{}},
			{L2Height: 2, Hash: [32]byte{0x02}, PrevHash: [32]byte{0x01}, DaSlotHeight: 7, Txs: [][]byte{}},
		}}
		result, err := json.Marshal(reply)
		require.NoError(t, err)
		_, _ = w.Write([]byte(`{"result":` + string(result) + `,"error":null}`))
	}))
	defer srv.Close()

	client := NewSequencerClient(srv.URL)
	scs, err := client.GetSoftConfirmationRange(context.Background(), 1, 2)
	require.NoError(t, err)
	require.Len(t, scs, 2)
	require.Equal(t, uint64(1), scs[0].Height)
	require.Equal(t, uint64(2), scs[1].Height)
	require.Equal(t, [32]byte{0x01}, scs[1].PrevHash)
}

func TestSequencerClientPropagatesRPCError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"result":null,"error":{"message":"boom"}}`))
	}))
	defer srv.Close()

	client := NewSequencerClient(srv.URL)
	_, err := client.GetSoftConfirmationRange(context.Background(), 1, 2)
	require.Error(t, err)
}
