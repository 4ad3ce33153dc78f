package record

import (
	"bytes"
	"encoding/json"
	"fmt"
	"time"
)

// Keys owned by the server. They never come from a request payload.
const (
	KeyID           = "id"
	KeyIsActive     = "isActive"
	KeyCreatedAt    = "createdAt"
	KeyUpdatedAt    = "updatedAt"
	KeyBlockchainTx = "blockchainTx"

	// legacyKeyID is how older snapshot files named the identifier.
	legacyKeyID = "publicKey"
)

// Record is one stored supply chain entity. Server-managed metadata lives in typed fields;
// entity-specific values are kept as decoded JSON in Fields and flattened on output.
type Record struct {
	ID           string
	IsActive     bool
	CreatedAt    time.Time
	UpdatedAt    time.Time
	BlockchainTx string
	Fields       map[string]any
}

// New builds an active record with both timestamps set to now.
func New(id string, fields map[string]any, now time.Time) *Record {
	if fields == nil {
		fields = make(map[string]any)
	}
	return &Record{
		ID:        id,
		IsActive:  true,
		CreatedAt: now,
		UpdatedAt: now,
		Fields:    fields,
	}
}

// Clone copies the record and its top-level field map. Field values are shared; the
// store only ever replaces them.
func (r *Record) Clone() *Record {
	c := *r
	c.Fields = make(map[string]any, len(r.Fields))
	for k, v := range r.Fields {
		c.Fields[k] = v
	}
	return &c
}

// Get returns a field value.
func (r *Record) Get(field string) (any, bool) {
	switch field {
	case KeyID:
		return r.ID, true
	case KeyIsActive:
		return r.IsActive, true
	}
	v, ok := r.Fields[field]
	return v, ok
}

// IsReserved reports whether key is server-managed.
func IsReserved(key string) bool {
	switch key {
	case KeyID, KeyIsActive, KeyCreatedAt, KeyUpdatedAt, KeyBlockchainTx, legacyKeyID:
		return true
	}
	return false
}

func (r Record) MarshalJSON() ([]byte, error) {
	out := make(map[string]any, len(r.Fields)+5)
	for k, v := range r.Fields {
		out[k] = v
	}
	out[KeyID] = r.ID
	out[KeyIsActive] = r.IsActive
	out[KeyCreatedAt] = r.CreatedAt
	out[KeyUpdatedAt] = r.UpdatedAt
	if r.BlockchainTx != "" {
		out[KeyBlockchainTx] = r.BlockchainTx
	}
	return json.Marshal(out)
}

func (r *Record) UnmarshalJSON(data []byte) error {
	raw, err := DecodeObject(data)
	if err != nil {
		return err
	}

	rec := Record{IsActive: true, Fields: make(map[string]any, len(raw))}
	for k, v := range raw {
		switch k {
		case KeyID, legacyKeyID:
			s, ok := v.(string)
			if !ok {
				return fmt.Errorf("record %s must be a string", k)
			}
			if k == KeyID || rec.ID == "" {
				rec.ID = s
			}
		case KeyIsActive:
			if b, ok := v.(bool); ok {
				rec.IsActive = b
			}
		case KeyCreatedAt:
			if rec.CreatedAt, err = parseTimestamp(v); err != nil {
				return fmt.Errorf("record createdAt: %w", err)
			}
		case KeyUpdatedAt:
			if rec.UpdatedAt, err = parseTimestamp(v); err != nil {
				return fmt.Errorf("record updatedAt: %w", err)
			}
		case KeyBlockchainTx:
			rec.BlockchainTx, _ = v.(string)
		default:
			rec.Fields[k] = v
		}
	}
	if rec.ID == "" {
		return fmt.Errorf("record has no id")
	}
	if rec.UpdatedAt.Before(rec.CreatedAt) {
		rec.UpdatedAt = rec.CreatedAt
	}

	*r = rec
	return nil
}

// DecodeObject parses a JSON object keeping numbers as json.Number so values
// round-trip without losing precision.
func DecodeObject(data []byte) (map[string]any, error) {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()

	var out map[string]any
	if err := dec.Decode(&out); err != nil {
		return nil, err
	}
	if out == nil {
		return nil, fmt.Errorf("expected a JSON object")
	}
	return out, nil
}

// parseTimestamp accepts RFC 3339 strings and epoch milliseconds.
func parseTimestamp(v any) (time.Time, error) {
	switch t := v.(type) {
	case string:
		return time.Parse(time.RFC3339Nano, t)
	case json.Number:
		ms, err := t.Int64()
		if err != nil {
			return time.Time{}, err
		}
		return time.UnixMilli(ms).UTC(), nil
	case nil:
		return time.Time{}, nil
	default:
		return time.Time{}, fmt.Errorf("unsupported timestamp %v", v)
	}
}
