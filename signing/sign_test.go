package signing

import (
	"testing"

	"github.com/sage-x-project/sgnd/ku"
	"github.com/stretchr/testify/require"
)

func sampleKU() ku.KU {
	return ku.KU{
		Type:        "ku.patch.migration",
		SchemaID:    ku.SchemaV1,
		ContentType: "application/json",
		Payload:     map[string]interface{}{"title": "t"},
		Parents:     []string{},
		Sources:     []string{},
		Tests:       []string{},
		Tags:        []string{},
	}
}

func TestSignThenVerifySucceeds(t *testing.T) {
	privPEM, pubPEM, err := GenerateKeyPair()
	require.NoError(t, err)

	k := sampleKU()
	signed, err := Sign(k, privPEM, pubPEM)
	require.NoError(t, err)

	result := Verify(signed, pubPEM)
	require.True(t, result.OK)
}

func TestSigningDoesNotChangeCID(t *testing.T) {
	privPEM, pubPEM, err := GenerateKeyPair()
	require.NoError(t, err)

	k := sampleKU()
	cidBefore, err := ku.CID(k, "")
	require.NoError(t, err)

	signed, err := Sign(k, privPEM, pubPEM)
	require.NoError(t, err)

	cidAfter, err := ku.CID(signed, "")
	require.NoError(t, err)

	require.Equal(t, cidBefore, cidAfter)
}

func TestVerifyFailsOnTamperedPayload(t *testing.T) {
	privPEM, pubPEM, err := GenerateKeyPair()
	require.NoError(t, err)

	k := sampleKU()
	signed, err := Sign(k, privPEM, pubPEM)
	require.NoError(t, err)

	signed.Payload["title"] = "tampered"
	result := Verify(signed, pubPEM)
	require.False(t, result.OK)
	require.Equal(t, ReasonBadSignature, result.Reason)
}

func TestVerifyFailsOnWrongPubkey(t *testing.T) {
	privPEM, pubPEM, err := GenerateKeyPair()
	require.NoError(t, err)
	_, otherPub, err := GenerateKeyPair()
	require.NoError(t, err)

	k := sampleKU()
	signed, err := Sign(k, privPEM, pubPEM)
	require.NoError(t, err)

	result := Verify(signed, otherPub)
	require.False(t, result.OK)
	require.Equal(t, ReasonPubkeyMismatch, result.Reason)
}

func TestVerifyFailsOnMissingSig(t *testing.T) {
	k := sampleKU()
	_, pubPEM, err := GenerateKeyPair()
	require.NoError(t, err)

	result := Verify(k, pubPEM)
	require.False(t, result.OK)
	require.Equal(t, ReasonMissingSig, result.Reason)
}

func TestKeyIDFromPubIsStable(t *testing.T) {
	_, pubPEM, err := GenerateKeyPair()
	require.NoError(t, err)

	id1, err := KeyIDFromPub(pubPEM)
	require.NoError(t, err)
	id2, err := KeyIDFromPub(pubPEM)
	require.NoError(t, err)
	require.Equal(t, id1, id2)
	require.NotEmpty(t, id1)
}
