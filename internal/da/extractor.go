package da

import (
	"bytes"
	"encoding/json"

	"go.uber.org/zap"
)

// PublisherKeys are the two public keys allowed to publish each blob
// category. The sequencer and prover publish with distinct keys; a blob
// signed by the wrong key for its claimed category is rejected
// (spec.md §4.6, §6).
type PublisherKeys struct {
	Sequencer []byte
	Prover    []byte
}

// Extractor partitions the blobs of a DA block into sequencer
// commitments and zk proofs, dropping anything that doesn't deserialize
// into a known shape or arrives from the wrong publisher key.
type Extractor struct {
	keys   PublisherKeys
	logger *zap.Logger
}

// NewExtractor builds an Extractor bound to the configured publisher
// keys.
func NewExtractor(keys PublisherKeys, logger *zap.Logger) *Extractor {
	return &Extractor{keys: keys, logger: logger}
}

// Extracted is the result of partitioning one DA block's blobs.
type Extracted struct {
	Commitments []SequencerCommitment
	Proofs      []ZKProof
}

// wireBlob is the envelope every recognized blob decodes to: a kind tag
// plus its payload. Real wire encoding is protocol-defined; JSON stands
// in here as the serialization this engine controls end-to-end.
type wireBlob struct {
	Kind    string          `json:"kind"`
	Payload json.RawMessage `json:"payload"`
}

// Extract classifies and decodes the blobs of a single DA block.
func (x *Extractor) Extract(block Block) Extracted {
	var out Extracted
	for _, blob := range block.Blobs {
		var env wireBlob
		if err := json.Unmarshal(blob.Data, &env); err != nil {
			x.logger.Warn("da: dropping blob that does not decode to a known envelope", zap.Error(err))
			continue
		}
		switch env.Kind {
		case "sequencer_commitment":
			if !bytes.Equal(blob.PublisherKey, x.keys.Sequencer) {
				x.logger.Warn("da: dropping sequencer commitment from unexpected publisher key")
				continue
			}
			var c SequencerCommitment
			if err := json.Unmarshal(env.Payload, &c); err != nil {
				x.logger.Warn("da: dropping malformed sequencer commitment", zap.Error(err))
				continue
			}
			out.Commitments = append(out.Commitments, c)
		case "zk_proof":
			if !bytes.Equal(blob.PublisherKey, x.keys.Prover) {
				x.logger.Warn("da: dropping zk proof from unexpected publisher key")
				continue
			}
			var p ZKProof
			if err := json.Unmarshal(env.Payload, &p); err != nil {
				x.logger.Warn("da: dropping malformed zk proof", zap.Error(err))
				continue
			}
			out.Proofs = append(out.Proofs, p)
		default:
			x.logger.Warn("da: dropping blob with unknown kind", zap.String("kind", env.Kind))
		}
	}
	return out
}
