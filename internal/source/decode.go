package source

import (
	"bytes"
	"encoding/json"
	"fmt"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

// IsPayloadFile reports whether name holds a saved request payload rather
// than a document.
func IsPayloadFile(name string) bool {
	switch strings.ToLower(filepath.Ext(name)) {
	case ".json", ".yaml", ".yml":
		return true
	}
	return false
}

// DecodePayload reads a payload saved as JSON or YAML, picked by extension.
func DecodePayload(name string, data []byte) (Payload, error) {
	var p Payload
	switch strings.ToLower(filepath.Ext(name)) {
	case ".json":
		dec := json.NewDecoder(bytes.NewReader(data))
		if err := dec.Decode(&p); err != nil {
			return Payload{}, fmt.Errorf("decode %s: %w", name, err)
		}
	case ".yaml", ".yml":
		if err := yaml.Unmarshal(data, &p); err != nil {
			return Payload{}, fmt.Errorf("decode %s: %w", name, err)
		}
	default:
		return Payload{}, fmt.Errorf("%w: %s is not a payload file", ErrUnsupportedInput, name)
	}
	if p.InputType == "" {
		return Payload{}, fmt.Errorf("decode %s: input_type is required", name)
	}
	return p, nil
}
