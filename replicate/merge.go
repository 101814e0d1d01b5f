package replicate

import "github.com/coursehound/coursehound/core"

// Merge combines the local replica with a refresh set, keyed by course
// code: a local record is replaced when the fetched set carries the same
// code, kept otherwise, and fetched records with unknown codes are
// appended. Local order is preserved; new records follow in fetch order.
//
// Merging the same refresh set twice yields the same result as merging it
// once.
func Merge(local, fetched []*core.Record) []*core.Record {
	if len(fetched) == 0 {
		return local
	}

	byCode := make(map[string]*core.Record, len(fetched))
	for _, record := range fetched {
		byCode[record.Code] = record
	}

	merged := make([]*core.Record, 0, len(local)+len(fetched))
	seen := make(map[string]bool, len(local))
	for _, record := range local {
		if replacement, ok := byCode[record.Code]; ok {
			merged = append(merged, replacement)
		} else {
			merged = append(merged, record)
		}
		seen[record.Code] = true
	}

	for _, record := range fetched {
		if !seen[record.Code] {
			merged = append(merged, byCode[record.Code])
			seen[record.Code] = true
		}
	}

	return merged
}
