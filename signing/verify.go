package signing

import (
	"crypto/ed25519"
	"encoding/base64"

	"github.com/sage-x-project/sgnd/ku"
)

// Result is the outcome of a verification attempt.
type Result struct {
	OK     bool
	Reason Reason
}

// Verify checks that k.Sig is present, that pubPEM matches sig.key_id,
// and that the Ed25519 signature validates over the canonical bytes of
// k. It never panics or returns a Go error across the component
// boundary: every failure mode maps to a symbolic Reason.
func Verify(k ku.KU, pubPEM string) Result {
	if k.Sig == nil {
		return Result{OK: false, Reason: ReasonMissingSig}
	}

	expectedKeyID, err := KeyIDFromPub(pubPEM)
	if err != nil {
		return Result{OK: false, Reason: ReasonDecodeError}
	}
	if expectedKeyID != k.Sig.KeyID {
		return Result{OK: false, Reason: ReasonPubkeyMismatch}
	}

	pub, err := ParsePublicPEM(pubPEM)
	if err != nil {
		return Result{OK: false, Reason: ReasonDecodeError}
	}

	sigBytes, err := base64.RawURLEncoding.DecodeString(k.Sig.Signature)
	if err != nil {
		return Result{OK: false, Reason: ReasonDecodeError}
	}

	bytesToVerify, err := ku.CanonicalBytes(k)
	if err != nil {
		return Result{OK: false, Reason: ReasonDecodeError}
	}

	if !ed25519.Verify(pub, bytesToVerify, sigBytes) {
		return Result{OK: false, Reason: ReasonBadSignature}
	}
	return Result{OK: true}
}
