package canonical

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestEncodeSortsKeys(t *testing.T) {
	v := map[string]interface{}{"b": 1, "a": 2, "c": map[string]interface{}{"z": 1, "y": 2}}
	out, err := Encode(v)
	require.NoError(t, err)
	require.Equal(t, `{"a":2,"b":1,"c":{"y":2,"z":1}}`, string(out))
}

func TestEncodeNoHTMLEscape(t *testing.T) {
	out, err := Encode(map[string]interface{}{"a": "<b>&co"})
	require.NoError(t, err)
	require.Equal(t, `{"a":"<b>&co"}`, string(out))
}

func TestRoundTripPreservesNumbers(t *testing.T) {
	input := []byte(`{"a":9007199254740993,"b":0.5000}`)
	out, err := Reencode(input)
	require.NoError(t, err)
	require.Equal(t, string(input), string(out), "number literals must survive re-encoding verbatim")

	out2, err := Reencode(out)
	require.NoError(t, err)
	require.Equal(t, out, out2, "re-encoding a canonical form must be a fixed point")
}

func TestEncodeDeterministicAcrossCalls(t *testing.T) {
	v := map[string]interface{}{"x": []interface{}{1, 2, 3}, "y": "hi"}
	a, err := Encode(v)
	require.NoError(t, err)
	b, err := Encode(v)
	require.NoError(t, err)
	require.Equal(t, a, b)
}
