package store

import (
	"encoding/json"
)

// nullID maps the zero local id to SQL NULL.
func nullID(id uint32) any {
	if id == 0 {
		return nil
	}
	return id
}

// marshalPositions converts positions to JSON text for storage.
func marshalPositions(ps []Position) string {
	if len(ps) == 0 {
		return "[]"
	}
	b, _ := json.Marshal(ps)
	return string(b)
}

// unmarshalPositions converts JSON text back to positions.
func unmarshalPositions(s string) []Position {
	if s == "" || s == "null" {
		return nil
	}
	var ps []Position
	_ = json.Unmarshal([]byte(s), &ps)
	if len(ps) == 0 {
		return nil
	}
	return ps
}
