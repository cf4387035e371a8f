// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package lookup

import (
	"encoding/json"

	"github.com/tidwall/gjson"
)

// Record is the resolved document for a code. The body is kept as returned
// by the lookup service.
type Record struct {
	Code string
	Body []byte
	// Cached is true when the record was served from the cache.
	Cached bool
}

// Field returns the value at a gjson path, or "" when absent.
func (r Record) Field(path string) string {
	return gjson.GetBytes(r.Body, path).String()
}

// Has reports whether path exists in the body.
func (r Record) Has(path string) bool {
	return gjson.GetBytes(r.Body, path).Exists()
}

// Title returns the first of the usual display name fields.
func (r Record) Title() string {
	for _, p := range []string{"name", "title", "product.name", "description"} {
		if v := r.Field(p); v != "" {
			return v
		}
	}
	return r.Code
}

// MarshalJSON emits the body unchanged.
func (r Record) MarshalJSON() ([]byte, error) {
	if len(r.Body) == 0 {
		return []byte("null"), nil
	}
	return json.RawMessage(r.Body).MarshalJSON()
}
