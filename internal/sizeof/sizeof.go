// Package sizeof estimates the in-memory footprint of cache values.
// Estimates are deterministic header-plus-payload costs, not exact
// allocator measurements, so limits behave the same on every platform.
package sizeof

import (
	"github.com/adaptcache/go-adapt-cache/model"
)

const (
	boolCost    = 1
	scalarCost  = 8
	stringHdr   = 16
	sliceHdr    = 24
	mapHdr      = 48
	mapEntryHdr = 16
)

// Estimate - returns the estimated footprint of a value in bytes.
func Estimate(v model.Value) int64 {
	switch v.Kind() {
	case model.KindNil:
		return 0
	case model.KindBool:
		return boolCost
	case model.KindInt, model.KindFloat:
		return scalarCost
	case model.KindText:
		s, _ := v.AsText()
		return stringHdr + int64(len(s))
	case model.KindBytes:
		p, _ := v.AsBytes()
		return sliceHdr + int64(len(p))
	case model.KindList:
		items, _ := v.AsList()
		size := int64(sliceHdr)
		for _, item := range items {
			size += Estimate(item)
		}
		return size
	case model.KindMap:
		dict, _ := v.AsMap()
		size := int64(mapHdr)
		for k, item := range dict {
			size += mapEntryHdr + int64(len(k)) + Estimate(item)
		}
		return size
	default:
		return 0
	}
}

// IsReasonable - reports whether a size estimate fits the per-value ceiling.
func IsReasonable(size int64, maxSizeMB int64) bool {
	if size < 0 {
		return false
	}
	return size <= maxSizeMB<<20
}
