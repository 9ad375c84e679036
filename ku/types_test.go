package ku

import (
	"testing"

	"github.com/sage-x-project/sgnd/canonical"
	"github.com/stretchr/testify/require"
)

func sampleKU() KU {
	return KU{
		Type:        "ku.patch.migration",
		SchemaID:    SchemaV1,
		ContentType: "application/json",
		Payload:     map[string]interface{}{"title": "t"},
		Parents:     []string{},
		Sources:     []string{},
		Tests:       []string{},
		Provenance:  Provenance{},
		Tags:        []string{},
	}
}

func TestCIDIgnoresSig(t *testing.T) {
	k := sampleKU()
	cidBare, err := CID(k, canonical.AlgoBlake3)
	require.NoError(t, err)

	signed := k
	signed.Sig = &Signature{Algorithm: "Ed25519", KeyID: "abc", Signature: "xyz", PubPEM: "pem"}
	cidSigned, err := CID(signed, canonical.AlgoBlake3)
	require.NoError(t, err)

	require.Equal(t, cidBare, cidSigned)
}

func TestCIDRoundTrip(t *testing.T) {
	k := sampleKU()
	raw, err := CanonicalBytes(k)
	require.NoError(t, err)

	reparsed, err := Parse(raw)
	require.NoError(t, err)

	rawAgain, err := CanonicalBytes(reparsed)
	require.NoError(t, err)
	require.Equal(t, raw, rawAgain)
}

func TestCIDDiffersOnPayloadChange(t *testing.T) {
	k1 := sampleKU()
	k2 := sampleKU()
	k2.Payload["title"] = "different"

	cid1, err := CID(k1, canonical.AlgoBlake3)
	require.NoError(t, err)
	cid2, err := CID(k2, canonical.AlgoBlake3)
	require.NoError(t, err)
	require.NotEqual(t, cid1, cid2)
}

func TestDAGCBORRoundTrip(t *testing.T) {
	k := sampleKU()
	b, err := ToDAGCBOR(k)
	require.NoError(t, err)

	back, err := FromDAGCBOR(b)
	require.NoError(t, err)

	cid1, err := CID(k, canonical.AlgoBlake3)
	require.NoError(t, err)
	cid2, err := CID(back, canonical.AlgoBlake3)
	require.NoError(t, err)
	require.Equal(t, cid1, cid2)
}
