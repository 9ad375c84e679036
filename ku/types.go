// Package ku defines the Knowledge Unit record and the operations
// tying it to the canonical encoder and CID.
package ku

import (
	"encoding/json"

	"github.com/sage-x-project/sgnd/canonical"
)

// SchemaV1 is the ku.v1 schema identifier. Parse does not check a KU's
// schema_id against it.
const SchemaV1 = "ku.v1"

// Provenance records who produced a KU.
type Provenance struct {
	AgentPubkey *string `json:"agent_pubkey"`
}

// Signature is the optional Ed25519 signature block.
type Signature struct {
	Algorithm string `json:"algorithm"`
	KeyID     string `json:"key_id"`
	Signature string `json:"signature"`
	PubPEM    string `json:"pub_pem"`
}

// KU is the atomic signed record exchanged by the network.
type KU struct {
	Type        string                 `json:"type"`
	SchemaID    string                 `json:"schema_id"`
	ContentType string                 `json:"content_type"`
	Payload     map[string]interface{} `json:"payload"`
	Parents     []string               `json:"parents"`
	Sources     []string               `json:"sources"`
	Tests       []string               `json:"tests"`
	Provenance  Provenance             `json:"provenance"`
	Tags        []string               `json:"tags"`
	Sig         *Signature             `json:"sig,omitempty"`
}

// StripSig returns a shallow copy of k with Sig cleared, the form the
// CID is always computed over.
func (k KU) StripSig() KU {
	k.Sig = nil
	return k
}

// ensureSlices normalizes nil sequence fields to empty ones so that
// marshaling is stable regardless of how the KU was constructed.
func (k *KU) ensureSlices() {
	if k.Parents == nil {
		k.Parents = []string{}
	}
	if k.Sources == nil {
		k.Sources = []string{}
	}
	if k.Tests == nil {
		k.Tests = []string{}
	}
	if k.Tags == nil {
		k.Tags = []string{}
	}
	if k.Payload == nil {
		k.Payload = map[string]interface{}{}
	}
}

// CanonicalBytes returns the canonical encoding of k with Sig omitted.
// Re-parsing and re-encoding the result is a fixed point.
func CanonicalBytes(k KU) ([]byte, error) {
	stripped := k.StripSig()
	stripped.ensureSlices()

	raw, err := json.Marshal(stripped)
	if err != nil {
		return nil, err
	}

	v, err := canonical.Parse(raw)
	if err != nil {
		return nil, err
	}
	return canonical.Encode(v)
}

// CID computes the content identifier of k. Signing never changes this
// value, because CanonicalBytes always strips Sig first.
func CID(k KU, algo canonical.Algo) (string, error) {
	bytes, err := CanonicalBytes(k)
	if err != nil {
		return "", err
	}
	return canonical.ComputeCID(bytes, algo)
}

// Parse decodes a raw KU JSON document.
func Parse(data []byte) (KU, error) {
	var k KU
	if err := json.Unmarshal(data, &k); err != nil {
		return KU{}, err
	}
	k.ensureSlices()
	return k, nil
}
