package model

import (
	"bytes"
	"encoding/json"
	"fmt"
)

// KV is a single key/raw-value pair from a JSON object, preserving the
// object's original key order. encoding/json's map[string]any decoding
// loses this order, but the dotted-override resolver's tie-break rule
// tie-break rule (the last definition in document order wins) needs it, so object decoding goes through this token-level reader
// instead.
type KV struct {
	Key string
	Raw json.RawMessage
}

// DecodeOrderedObject parses a single JSON object's top-level keys into
// document order, without recursing into nested objects/arrays (their raw
// bytes are preserved as-is for a later pass to decode).
func DecodeOrderedObject(data []byte) ([]KV, error) {
	dec := json.NewDecoder(bytes.NewReader(data))
	tok, err := dec.Token()
	if err != nil {
		return nil, err
	}
	delim, ok := tok.(json.Delim)
	if !ok || delim != '{' {
		return nil, fmt.Errorf("expected JSON object, got %v", tok)
	}

	var pairs []KV
	for dec.More() {
		keyTok, err := dec.Token()
		if err != nil {
			return nil, err
		}
		key, ok := keyTok.(string)
		if !ok {
			return nil, fmt.Errorf("expected string object key, got %v", keyTok)
		}
		var raw json.RawMessage
		if err := dec.Decode(&raw); err != nil {
			return nil, fmt.Errorf("decoding value for key %q: %w", key, err)
		}
		pairs = append(pairs, KV{Key: key, Raw: raw})
	}
	return pairs, nil
}
