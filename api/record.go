package api

import (
	"github.com/sage-x-project/sgnd/ku"
	"github.com/sage-x-project/sgnd/store"
)

func stringField(payload map[string]interface{}, key string) string {
	if v, ok := payload[key].(string); ok {
		return v
	}
	return ""
}

// floatField tolerates the numeric types both JSON and CBOR decoding
// can produce for the same logical value.
func floatField(payload map[string]interface{}, key string) float64 {
	switch v := payload[key].(type) {
	case float64:
		return v
	case float32:
		return float64(v)
	case int64:
		return float64(v)
	case uint64:
		return float64(v)
	case int:
		return float64(v)
	default:
		return 0
	}
}

func stringSliceField(payload map[string]interface{}, key string) []string {
	raw, ok := payload[key].([]interface{})
	if !ok {
		return nil
	}
	out := make([]string, 0, len(raw))
	for _, v := range raw {
		if s, ok := v.(string); ok {
			out = append(out, s)
		}
	}
	return out
}

// buildRecord derives the searchable index projection from a KU's
// opaque payload.
func buildRecord(k ku.KU, cid string) store.Record {
	discoveredBy := ""
	var signature *string
	if k.Sig != nil {
		discoveredBy = k.Sig.KeyID
		signature = &k.Sig.Signature
	}

	return store.Record{
		CID:             cid,
		Title:           stringField(k.Payload, "title"),
		Type:            k.Type,
		Description:     stringField(k.Payload, "description"),
		Solution:        stringField(k.Payload, "solution"),
		Severity:        stringField(k.Payload, "severity"),
		Confidence:      floatField(k.Payload, "confidence"),
		Tags:            k.Tags,
		AffectedSystems: stringSliceField(k.Payload, "affected_systems"),
		DiscoveredBy:    discoveredBy,
		Hash:            cid,
		Signature:       signature,
		ReputationScore: 0,
	}
}
