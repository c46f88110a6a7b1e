package api

import (
	"bytes"
	"encoding/json"
	"strconv"

	"github.com/tidwall/gjson"
)

// Pagination mirrors the backend pagination block. total_pages is computed by
// the backend and trusted as-is.
type Pagination struct {
	Page       int `json:"page" yaml:"page"`
	PerPage    int `json:"per_page" yaml:"per_page"`
	Total      int `json:"total" yaml:"total"`
	TotalPages int `json:"total_pages" yaml:"total_pages"`
}

// HasNext reports whether a page after the current one exists.
func (p Pagination) HasNext() bool {
	return p.Page < p.TotalPages
}

// HasPrev reports whether a page before the current one exists.
func (p Pagination) HasPrev() bool {
	return p.Page > 1
}

// Record is a backend JSON object kept verbatim. Accessors read fields by
// gjson path and never validate shape.
type Record json.RawMessage

func (r Record) MarshalJSON() ([]byte, error) {
	if len(r) == 0 {
		return []byte("null"), nil
	}
	return r, nil
}

func (r *Record) UnmarshalJSON(data []byte) error {
	*r = append((*r)[:0], data...)
	return nil
}

// IsZero reports whether the record is absent or JSON null.
func (r Record) IsZero() bool {
	trimmed := bytes.TrimSpace(r)
	return len(trimmed) == 0 || bytes.Equal(trimmed, []byte("null"))
}

// Get returns the raw gjson result at path.
func (r Record) Get(path string) gjson.Result {
	return gjson.GetBytes(r, path)
}

// String returns the field at path as text, or "".
func (r Record) String(path string) string {
	return r.Get(path).String()
}

// Int returns the field at path as an integer, or 0.
func (r Record) Int(path string) int64 {
	return r.Get(path).Int()
}

// First returns the first non-empty value among paths, as text.
func (r Record) First(paths ...string) string {
	for _, p := range paths {
		if v := r.Get(p); v.Exists() && v.String() != "" {
			return v.String()
		}
	}
	return ""
}

// ID returns the record identifier used in follow-up requests.
func (r Record) ID(paths ...string) string {
	for _, p := range paths {
		v := r.Get(p)
		switch v.Type {
		case gjson.Number:
			return strconv.FormatInt(v.Int(), 10)
		case gjson.String:
			if v.Str != "" {
				return v.Str
			}
		}
	}
	return ""
}

// Clone returns an independent copy.
func (r Record) Clone() Record {
	if r == nil {
		return nil
	}
	return append(Record(nil), r...)
}

// CloneRecords copies a record slice and each record in it.
func CloneRecords(in []Record) []Record {
	if len(in) == 0 {
		return nil
	}
	out := make([]Record, len(in))
	for i, r := range in {
		out[i] = r.Clone()
	}
	return out
}
