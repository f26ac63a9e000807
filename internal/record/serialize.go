package record

import (
	"bytes"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/adaptcache/go-adapt-cache/internal/sizeof"
	"github.com/adaptcache/go-adapt-cache/model"
)

// Persisted field names. The format is a flat mapping so any key/value
// backend can hold it; tags are deliberately not part of it.
const (
	fieldValue        = "value"
	fieldCompressed   = "compressed"
	fieldPriority     = "priority"
	fieldFrequency    = "frequency"
	fieldCreatedAt    = "createdAt"
	fieldLastAccessed = "lastAccessed"
	fieldExpiresAt    = "expiresAt"
	fieldSavings      = "compressionSavings"
	fieldJSONEncoded  = "encodedAsJson"
)

var errNoPayload = errors.New("record has no payload")

// Serialize - flattens the record into the persisted mapping. Exactly one of
// the value/compressed fields is present; expiresAt is absent for records
// without an expiry.
func (r *Record) Serialize() map[string]any {
	m := map[string]any{
		fieldPriority:     r.entry.Priority(),
		fieldFrequency:    r.entry.Frequency(),
		fieldCreatedAt:    r.entry.CreatedAt().UTC().Format(time.RFC3339Nano),
		fieldLastAccessed: r.entry.LastAccessed().UTC().Format(time.RFC3339Nano),
		fieldSavings:      r.savings,
		fieldJSONEncoded:  r.encodedAsJSON,
	}
	if expiresAt, ok := r.entry.ExpiresAt(); ok {
		m[fieldExpiresAt] = expiresAt.UTC().Format(time.RFC3339Nano)
	}
	if r.compressed != nil {
		m[fieldCompressed] = append([]byte(nil), r.compressed...)
	} else {
		m[fieldValue] = r.raw
	}
	return m
}

// Deserialize - rebuilds a record from the persisted mapping. Malformed or
// missing timestamps fall back instead of failing: createdAt/lastAccessed to
// now, expiresAt to no expiry. Only a missing payload is an error.
func Deserialize(m map[string]any) (*Record, error) {
	r := &Record{tags: make(map[string]struct{})}

	if raw, ok := m[fieldCompressed]; ok {
		packed, ok := coerceBytes(raw)
		if !ok {
			return nil, fmt.Errorf("malformed %q field", fieldCompressed)
		}
		r.compressed = packed
	} else if raw, ok := m[fieldValue]; ok {
		value, err := model.FromAny(raw)
		if err != nil {
			return nil, fmt.Errorf("restore %q field: %w", fieldValue, err)
		}
		r.raw = value
	} else {
		return nil, errNoPayload
	}

	r.savings = coerceInt(m[fieldSavings], 0)
	if r.savings < 0 {
		r.savings = 0
	}
	r.encodedAsJSON, _ = m[fieldJSONEncoded].(bool)

	now := time.Now()
	createdAt, ok := coerceTime(m[fieldCreatedAt])
	if !ok {
		createdAt = now
	}
	lastAccessed, ok := coerceTime(m[fieldLastAccessed])
	if !ok {
		lastAccessed = now
	}
	expiresAt, _ := coerceTime(m[fieldExpiresAt])

	var sizeBytes int64
	if r.compressed != nil {
		sizeBytes = int64(len(r.compressed)) + r.savings
	} else {
		sizeBytes = sizeof.Estimate(r.raw)
	}

	r.entry = RestoreEntry(
		sizeBytes,
		int(coerceInt(m[fieldPriority], 0)),
		coerceInt(m[fieldFrequency], 1),
		createdAt, lastAccessed, expiresAt,
	)
	return r, nil
}

// Marshal - encodes the record as JSON bytes for a storage adapter.
func (r *Record) Marshal() ([]byte, error) {
	return json.Marshal(r.Serialize())
}

// Unmarshal - decodes adapter bytes back into a record.
func Unmarshal(data []byte) (*Record, error) {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()
	var m map[string]any
	if err := dec.Decode(&m); err != nil {
		return nil, fmt.Errorf("decode record: %w", err)
	}
	return Deserialize(m)
}

func coerceInt(raw any, fallback int64) int64 {
	switch t := raw.(type) {
	case int:
		return int64(t)
	case int64:
		return t
	case float64:
		return int64(t)
	case json.Number:
		if i, err := t.Int64(); err == nil {
			return i
		}
		if f, err := t.Float64(); err == nil {
			return int64(f)
		}
		return fallback
	default:
		return fallback
	}
}

func coerceBytes(raw any) ([]byte, bool) {
	switch t := raw.(type) {
	case []byte:
		return t, true
	case string:
		decoded, err := base64.StdEncoding.DecodeString(t)
		if err != nil {
			return nil, false
		}
		return decoded, true
	default:
		return nil, false
	}
}

func coerceTime(raw any) (time.Time, bool) {
	s, ok := raw.(string)
	if !ok {
		return time.Time{}, false
	}
	for _, layout := range []string{time.RFC3339Nano, time.RFC3339} {
		if parsed, err := time.Parse(layout, s); err == nil {
			return parsed, true
		}
	}
	return time.Time{}, false
}
