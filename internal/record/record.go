// Package record holds the stored form of a cache value: entry bookkeeping,
// the raw or compressed payload, tags and the persisted wire format.
package record

import (
	"encoding/json"
	"time"

	"github.com/adaptcache/go-adapt-cache/internal/compress"
	"github.com/adaptcache/go-adapt-cache/model"
)

// minCompressBytes - text shorter than this is never worth deflating.
const minCompressBytes = 128

// Record - one stored value. Exactly one payload representation is live:
// compressed != nil means the raw value has been dropped.
type Record struct {
	entry         *Entry
	raw           model.Value
	compressed    []byte
	encodedAsJSON bool
	savings       int64
	tags          map[string]struct{}
}

// New - builds a record for a write. When codec is non-nil the payload is
// compressed if it is eligible and the deflated form is strictly smaller
// than the size estimate; otherwise the raw value is kept.
func New(value model.Value, sizeBytes int64, ttl time.Duration, priority int, tags []string, codec *compress.Codec, now time.Time) *Record {
	r := &Record{
		entry: NewEntry(sizeBytes, ttl, priority, now),
		raw:   value,
		tags:  make(map[string]struct{}, len(tags)),
	}
	for _, tag := range tags {
		r.tags[tag] = struct{}{}
	}

	if codec == nil {
		return r
	}
	encoded, asJSON, ok := encodePayload(value)
	if !ok {
		return r
	}
	packed, err := codec.Compress(encoded)
	if err != nil || int64(len(packed)) >= sizeBytes {
		return r
	}
	r.raw = model.Nil()
	r.compressed = packed
	r.encodedAsJSON = asJSON
	r.savings = sizeBytes - int64(len(packed))
	return r
}

// encodePayload - returns the compressible byte form of a value. Only long
// text and collections are eligible; byte payloads stay raw because nothing
// in the stored form could tell them apart from text after inflation.
func encodePayload(value model.Value) (encoded []byte, asJSON bool, ok bool) {
	switch value.Kind() {
	case model.KindText:
		s, _ := value.AsText()
		if len(s) <= minCompressBytes {
			return nil, false, false
		}
		return []byte(s), false, true
	case model.KindList, model.KindMap:
		data, err := json.Marshal(value)
		if err != nil {
			return nil, false, false
		}
		return data, true, true
	default:
		return nil, false, false
	}
}

func (r *Record) Entry() *Entry { return r.entry }

// IsCompressed - reports whether the payload is stored deflated.
func (r *Record) IsCompressed() bool { return r.compressed != nil }

// Savings - bytes saved against the uncompressed size estimate, never negative.
func (r *Record) Savings() int64 { return r.savings }

// Value - returns the logical value, inflating and rehydrating when the
// payload is stored compressed.
func (r *Record) Value(codec *compress.Codec) (model.Value, error) {
	if r.compressed == nil {
		return r.raw, nil
	}
	data, err := codec.Decompress(r.compressed)
	if err != nil {
		return model.Nil(), err
	}
	if !r.encodedAsJSON {
		return model.Text(string(data)), nil
	}
	var decoded model.Value
	if err = json.Unmarshal(data, &decoded); err != nil {
		return model.Nil(), err
	}
	return decoded, nil
}

// Tags - returns the tag set as a slice.
func (r *Record) Tags() []string {
	if len(r.tags) == 0 {
		return nil
	}
	out := make([]string, 0, len(r.tags))
	for tag := range r.tags {
		out = append(out, tag)
	}
	return out
}

func (r *Record) HasTag(tag string) bool {
	_, ok := r.tags[tag]
	return ok
}
