package signing

import (
	"crypto/ed25519"
	"encoding/base64"
	"fmt"

	"github.com/sage-x-project/sgnd/ku"
)

// Sign populates k.Sig: algorithm, key_id, signature and
// the signer's own pub_pem, computed over the canonical bytes of k
// (which are always taken with Sig absent, so signing never changes
// the CID).
func Sign(k ku.KU, privPEM, pubPEM string) (ku.KU, error) {
	priv, err := ParsePrivatePEM(privPEM)
	if err != nil {
		return ku.KU{}, fmt.Errorf("%s: %w", ReasonDecodeError, err)
	}

	keyID, err := KeyIDFromPub(pubPEM)
	if err != nil {
		return ku.KU{}, fmt.Errorf("%s: %w", ReasonDecodeError, err)
	}

	bytesToSign, err := ku.CanonicalBytes(k)
	if err != nil {
		return ku.KU{}, fmt.Errorf("%s: %w", ReasonDecodeError, err)
	}

	sig := ed25519.Sign(priv, bytesToSign)

	signed := k
	signed.Sig = &ku.Signature{
		Algorithm: "Ed25519",
		KeyID:     keyID,
		Signature: base64.RawURLEncoding.EncodeToString(sig),
		PubPEM:    pubPEM,
	}
	return signed, nil
}
