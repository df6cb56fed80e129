package sphinx

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"
)

// setIndexPrefix is the call wrapper Sphinx writes around the JSON payload
// so the file can be loaded with a plain <script> tag.
var setIndexPrefix = []byte("Search.setIndex(")

// Load reads and parses a searchindex.js file from disk.
func Load(path string) (*Index, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read search index: %w", err)
	}
	return Parse(data)
}

// Parse decodes a search index from either the raw searchindex.js form
// (wrapped in Search.setIndex(...)) or bare JSON.
func Parse(data []byte) (*Index, error) {
	payload, err := stripWrapper(data)
	if err != nil {
		return nil, err
	}

	var idx Index
	if err := json.Unmarshal(payload, &idx); err != nil {
		return nil, fmt.Errorf("failed to decode search index: %w", err)
	}

	if idx.DocNames == nil {
		return nil, fmt.Errorf("search index has no docnames field")
	}

	return &idx, nil
}

// stripWrapper removes the Search.setIndex(...) call wrapper when present,
// returning the JSON payload. Bare JSON passes through untouched.
func stripWrapper(data []byte) ([]byte, error) {
	trimmed := bytes.TrimSpace(data)

	if !bytes.HasPrefix(trimmed, setIndexPrefix) {
		if len(trimmed) > 0 && (trimmed[0] == '{' || trimmed[0] == '[') {
			return trimmed, nil
		}
		return nil, fmt.Errorf("input is neither a setIndex call nor bare JSON")
	}

	payload := trimmed[len(setIndexPrefix):]

	// Trailing ")" with optional ";" after the JSON body.
	payload = bytes.TrimSpace(payload)
	payload = bytes.TrimSuffix(payload, []byte(";"))
	payload = bytes.TrimSpace(payload)
	if !bytes.HasSuffix(payload, []byte(")")) {
		return nil, fmt.Errorf("setIndex call is not closed")
	}
	payload = payload[:len(payload)-1]

	return bytes.TrimSpace(payload), nil
}
