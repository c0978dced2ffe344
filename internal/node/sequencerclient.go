package node

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"

	"github.com/citrea-rollup/node/internal/rollupevm"
	"github.com/citrea-rollup/node/internal/syncerrors"
	"github.com/citrea-rollup/node/internal/syncl2"
)

// SequencerClient implements syncl2.Client over the sequencer's own
// ledger JSON-RPC namespace, grounded on runner.rs's sync_l2. It calls the
// same method name internal/rpcserver registers, but decodes a different
// reply shape (wireSoftConfirmation: snake_case fields carrying the state
// root, deposit data and raw transactions), which this node's own server
// does not produce.
type SequencerClient struct {
	url  string
	http *http.Client
}

// NewSequencerClient builds a client targeting the sequencer's RPC URL.
func NewSequencerClient(url string) *SequencerClient {
	return &SequencerClient{url: url, http: http.DefaultClient}
}

type rpcRequest struct {
	Method string        `json:"method"`
	Params []interface{} `json:"params"`
	ID     int           `json:"id"`
}

type rpcResponse struct {
	Result json.RawMessage `json:"result"`
	Error  *struct {
		Message string `json:"message"`
	} `json:"error"`
}

func (c *SequencerClient) call(ctx context.Context, method string, params interface{}, out interface{}) error {
	body, err := json.Marshal(rpcRequest{Method: method, Params: []interface{}{params}, ID: 1})
	if err != nil {
		return err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.url, bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return syncerrors.NewTransport(err)
	}
	defer resp.Body.Close()

	var rpcResp rpcResponse
	if err := json.NewDecoder(resp.Body).Decode(&rpcResp); err != nil {
		return syncerrors.NewTransport(fmt.Errorf("decode response: %w", err))
	}
	if rpcResp.Error != nil {
		return fmt.Errorf("sequencer rpc error: %s", rpcResp.Error.Message)
	}
	return json.Unmarshal(rpcResp.Result, out)
}

// wireSoftConfirmation is the sequencer's soft-confirmation wire shape:
// metadata plus each transaction RLP-encoded, mirroring
// original_source/crates/sovereign-sdk/.../SoftConfirmationResponse.
type wireSoftConfirmation struct {
	L2Height     uint64   `json:"l2_height"`
	Hash         [32]byte `json:"hash"`
	PrevHash     [32]byte `json:"prev_hash"`
	DaSlotHeight uint64   `json:"da_slot_height"`
	DaSlotHash   [32]byte `json:"da_slot_hash"`
	L1FeeRate    uint64   `json:"l1_fee_rate"`
	Timestamp    uint64   `json:"timestamp"`
	StateRoot    [32]byte `json:"state_root"`
	DepositData  [][]byte `json:"deposit_data"`
	Txs          [][]byte `json:"txs"`
}

type sequencerRangeReply struct {
	Values []*wireSoftConfirmation `json:"values"`
}

// GetSoftConfirmationRange implements syncl2.Client.
func (c *SequencerClient) GetSoftConfirmationRange(ctx context.Context, start, end uint64) ([]syncl2.SoftConfirmation, error) {
	var reply sequencerRangeReply
	if err := c.call(ctx, "ledger.GetSoftConfirmationRange", map[string]uint64{"start": start, "end": end}, &reply); err != nil {
		return nil, err
	}

	out := make([]syncl2.SoftConfirmation, 0, len(reply.Values))
	for _, v := range reply.Values {
		if v == nil {
			continue
		}
		out = append(out, syncl2.SoftConfirmation{
			Height:   v.L2Height,
			Hash:     v.Hash,
			PrevHash: v.PrevHash,
			Info: rollupevm.SoftConfirmationInfo{
				L2Height:     v.L2Height,
				DaSlotHash:   common.Hash(v.DaSlotHash),
				DaSlotHeight: v.DaSlotHeight,
				DepositData:  v.DepositData,
				L1FeeRate:    v.L1FeeRate,
				Timestamp:    v.Timestamp,
			},
			PostStateRoot: v.StateRoot,
			RawTxs:        v.Txs,
		})
	}
	return out, nil
}

// decodeTxs RLP-decodes a soft confirmation's raw transaction bytes.
func decodeTxs(raw [][]byte) ([]*types.Transaction, error) {
	txs := make([]*types.Transaction, 0, len(raw))
	for i, b := range raw {
		var tx types.Transaction
		if err := tx.UnmarshalBinary(b); err != nil {
			return nil, fmt.Errorf("decode tx %d: %w: %w", i, rollupevm.ErrTxParse, err)
		}
		txs = append(txs, &tx)
	}
	return txs, nil
}
