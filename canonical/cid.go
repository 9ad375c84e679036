package canonical

import (
	"encoding/hex"
	"fmt"

	"lukechampine.com/blake3"
)

// Algo identifies the hash function backing a CID.
type Algo string

const (
	AlgoBlake3 Algo = "blake3"
	AlgoSHA256 Algo = "sha256"
)

// Hash returns the fixed 256-bit digest of canonical bytes under algo.
func Hash(canonicalBytes []byte, algo Algo) ([]byte, error) {
	switch algo {
	case AlgoBlake3, "":
		sum := blake3.Sum256(canonicalBytes)
		return sum[:], nil
	case AlgoSHA256:
		return sha256Sum(canonicalBytes), nil
	default:
		return nil, fmt.Errorf("unknown hash algorithm %q", algo)
	}
}

// CID formats a hash digest as "cid-<algo>:<hex>".
func CID(digest []byte, algo Algo) string {
	if algo == "" {
		algo = AlgoBlake3
	}
	return fmt.Sprintf("cid-%s:%s", algo, hex.EncodeToString(digest))
}

// ComputeCID hashes canonical bytes and formats the result as a CID.
func ComputeCID(canonicalBytes []byte, algo Algo) (string, error) {
	digest, err := Hash(canonicalBytes, algo)
	if err != nil {
		return "", err
	}
	return CID(digest, algo), nil
}
