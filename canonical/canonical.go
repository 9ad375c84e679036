// Package canonical implements the daemon's deterministic encoding: the
// same logical KU (minus its signature) always serializes to the same
// bytes, across runs and across languages: object keys sorted
// lexicographically, no insignificant whitespace, numbers preserved
// verbatim.
package canonical

import (
	"bytes"
	"encoding/json"
	"fmt"
)

// Encode re-serializes v (typically produced by decoding a struct's own
// JSON with UseNumber, see ku.CanonicalBytes) into its canonical form.
// Go's encoding/json already sorts map[string]interface{} keys and
// omits insignificant whitespace; Encode only has to disable HTML
// escaping and normalize the trailing newline Encoder always appends.
func Encode(v interface{}) ([]byte, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(v); err != nil {
		return nil, fmt.Errorf("canonical encode: %w", err)
	}
	return bytes.TrimRight(buf.Bytes(), "\n"), nil
}

// Parse decodes canonical (or any) JSON bytes into a generic value
// preserving number literals as json.Number, so that re-encoding is
// lossless (round-trip law).
func Parse(data []byte) (interface{}, error) {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()
	var v interface{}
	if err := dec.Decode(&v); err != nil {
		return nil, fmt.Errorf("canonical parse: %w", err)
	}
	return v, nil
}

// Reencode parses data and re-emits it in canonical form in one step.
func Reencode(data []byte) ([]byte, error) {
	v, err := Parse(data)
	if err != nil {
		return nil, err
	}
	return Encode(v)
}
