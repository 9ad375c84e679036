// Package signing implements the Ed25519 sign/verify pipeline:
// canonical-bytes signing, key-ID derivation, and the symbolic
// failure reasons the HTTP layer reports.
package signing

import (
	"crypto/ed25519"
	"crypto/rand"
	"crypto/x509"
	"encoding/base32"
	"encoding/pem"
	"fmt"

	"github.com/multiformats/go-multihash"
)

// Reason is a symbolic verify-failure cause, stable across releases.
type Reason string

const (
	ReasonMissingSig      Reason = "missing_sig"
	ReasonPubkeyMismatch  Reason = "pubkey_mismatch"
	ReasonBadSignature    Reason = "bad_signature"
	ReasonDecodeError     Reason = "decode_error"
)

var b32 = base32.StdEncoding.WithPadding(base32.NoPadding)

// GenerateKeyPair creates a fresh Ed25519 key pair and returns it PEM
// encoded (SPKI for the public half, PKCS8 for the private half).
func GenerateKeyPair() (privPEM, pubPEM string, err error) {
	pub, priv, err := ed25519.GenerateKey(rand.Reader)
	if err != nil {
		return "", "", fmt.Errorf("generate ed25519 key: %w", err)
	}

	privDER, err := x509.MarshalPKCS8PrivateKey(priv)
	if err != nil {
		return "", "", fmt.Errorf("marshal private key: %w", err)
	}
	pubDER, err := x509.MarshalPKIXPublicKey(pub)
	if err != nil {
		return "", "", fmt.Errorf("marshal public key: %w", err)
	}

	privPEM = string(pem.EncodeToMemory(&pem.Block{Type: "PRIVATE KEY", Bytes: privDER}))
	pubPEM = string(pem.EncodeToMemory(&pem.Block{Type: "PUBLIC KEY", Bytes: pubDER}))
	return privPEM, pubPEM, nil
}

// ParsePrivatePEM decodes a PKCS8 PEM block into an Ed25519 private key.
func ParsePrivatePEM(privPEM string) (ed25519.PrivateKey, error) {
	block, _ := pem.Decode([]byte(privPEM))
	if block == nil {
		return nil, fmt.Errorf("decode private pem: no PEM block found")
	}
	key, err := x509.ParsePKCS8PrivateKey(block.Bytes)
	if err != nil {
		return nil, fmt.Errorf("parse pkcs8 private key: %w", err)
	}
	priv, ok := key.(ed25519.PrivateKey)
	if !ok {
		return nil, fmt.Errorf("private key is not Ed25519")
	}
	return priv, nil
}

// ParsePublicPEM decodes an SPKI PEM block into an Ed25519 public key.
func ParsePublicPEM(pubPEM string) (ed25519.PublicKey, error) {
	block, _ := pem.Decode([]byte(pubPEM))
	if block == nil {
		return nil, fmt.Errorf("decode public pem: no PEM block found")
	}
	key, err := x509.ParsePKIXPublicKey(block.Bytes)
	if err != nil {
		return nil, fmt.Errorf("parse pkix public key: %w", err)
	}
	pub, ok := key.(ed25519.PublicKey)
	if !ok {
		return nil, fmt.Errorf("public key is not Ed25519")
	}
	return pub, nil
}

// spkiDER returns the SPKI DER bytes of a PEM-encoded public key.
func spkiDER(pubPEM string) ([]byte, error) {
	block, _ := pem.Decode([]byte(pubPEM))
	if block == nil {
		return nil, fmt.Errorf("decode public pem: no PEM block found")
	}
	return block.Bytes, nil
}

// KeyIDFromPub derives the stable key fingerprint:
// base32(multihash(sha2-256(SPKI-DER(pub_pem)))).
func KeyIDFromPub(pubPEM string) (string, error) {
	der, err := spkiDER(pubPEM)
	if err != nil {
		return "", err
	}
	mh, err := multihash.Sum(der, multihash.SHA2_256, -1)
	if err != nil {
		return "", fmt.Errorf("multihash sum: %w", err)
	}
	return b32.EncodeToString(mh), nil
}
