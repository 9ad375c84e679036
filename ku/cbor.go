package ku

import (
	"encoding/base64"
	"reflect"

	"github.com/fxamacker/cbor/v2"
)

// The decoder maps CBOR maps onto map[string]interface{} so a decoded
// payload can be re-encoded as canonical JSON without type surgery; the
// encoder uses canonical CBOR so the binary form is as deterministic as
// the JSON one.
var (
	cborEnc cbor.EncMode
	cborDec cbor.DecMode
)

func init() {
	var err error
	cborEnc, err = cbor.CanonicalEncOptions().EncMode()
	if err != nil {
		panic(err)
	}
	cborDec, err = cbor.DecOptions{
		DefaultMapType: reflect.TypeOf(map[string]interface{}(nil)),
	}.DecMode()
	if err != nil {
		panic(err)
	}
}

// ToDAGCBOR re-serializes k as the compact binary wire variant. It is a
// pure re-serialization of the same logical content: decoding it back
// and computing the CID must match CID(k).
func ToDAGCBOR(k KU) ([]byte, error) {
	stripped := k.StripSig()
	stripped.ensureSlices()
	return cborEnc.Marshal(stripped)
}

// ToDAGCBORBase64 is the b64-encoded form used in the "ku" broker frame
// (dag_cbor_b64) and in POST /publish's optional dag_cbor_b64 field.
func ToDAGCBORBase64(k KU) (string, error) {
	b, err := ToDAGCBOR(k)
	if err != nil {
		return "", err
	}
	return base64.StdEncoding.EncodeToString(b), nil
}

// FromDAGCBOR decodes a compact binary KU back into its canonical JSON
// form, preserving the signature block if present.
func FromDAGCBOR(data []byte) (KU, error) {
	var k KU
	if err := cborDec.Unmarshal(data, &k); err != nil {
		return KU{}, err
	}
	k.ensureSlices()
	return k, nil
}

// FromDAGCBORBase64 decodes the dag_cbor_b64 wire form.
func FromDAGCBORBase64(s string) (KU, error) {
	data, err := base64.StdEncoding.DecodeString(s)
	if err != nil {
		return KU{}, err
	}
	return FromDAGCBOR(data)
}
