// Package dedup partitions an import batch into new records and duplicates,
// comparing normalized identity keys against existing records and against the
// rows already accepted from the same batch.
package dedup

import "evaladmin/internal/textnorm"

// Reason explains why a row was not accepted as new.
type Reason string

const (
	ReasonNone     Reason = ""
	ReasonBlankKey Reason = "blank_key"
	ReasonExisting Reason = "existing"
	ReasonInBatch  Reason = "in_batch"
)

// KeySet is a set of normalized identity keys.
type KeySet map[string]struct{}

// NewKeySet normalizes keys into a set, ignoring blanks.
func NewKeySet(keys ...string) KeySet {
	ks := make(KeySet, len(keys))
	ks.Add(keys...)
	return ks
}

// KeysOf builds a KeySet from existing records.
func KeysOf[E any](existing []E, keysOf func(E) []string) KeySet {
	ks := make(KeySet, len(existing))
	for _, e := range existing {
		ks.Add(keysOf(e)...)
	}
	return ks
}

func (ks KeySet) Add(keys ...string) {
	for _, k := range keys {
		if k = textnorm.Normalize(k); k != "" {
			ks[k] = struct{}{}
		}
	}
}

func (ks KeySet) Has(key string) bool {
	_, ok := ks[textnorm.Normalize(key)]
	return ok
}

// Row is one input record with its classification, in input order.
type Row[T any] struct {
	Record    T      `json:"record"`
	Key       string `json:"key"`
	Duplicate bool   `json:"duplicate"`
	Reason    Reason `json:"reason,omitempty"`
}

// Result is a stable partition of a batch.
type Result[T any] struct {
	Rows       []Row[T]
	New        []T
	Duplicates []Row[T]
}

// Preview is the dry-run summary shown before importing.
type Preview struct {
	Total     int `json:"total"`
	New       int `json:"new"`
	Duplicate int `json:"duplicate"`
}

func (r Result[T]) Preview() Preview {
	return Preview{Total: len(r.Rows), New: len(r.New), Duplicate: len(r.Duplicates)}
}

// Classify walks incoming in order. A record whose keys are all blank, or any
// of whose keys is already in existing or was claimed by an earlier row of the
// batch, is a duplicate; otherwise it is new and claims its keys. existing is
// not modified.
func Classify[T any](incoming []T, existing KeySet, keysOf func(T) []string) Result[T] {
	res := Result[T]{
		Rows: make([]Row[T], 0, len(incoming)),
		New:  make([]T, 0, len(incoming)),
	}
	claimed := make(KeySet)

	for _, rec := range incoming {
		keys := normalizeAll(keysOf(rec))
		row := Row[T]{Record: rec}
		if len(keys) > 0 {
			row.Key = keys[0]
		}

		switch {
		case len(keys) == 0:
			row.Duplicate, row.Reason = true, ReasonBlankKey
		case anyIn(existing, keys):
			row.Duplicate, row.Reason = true, ReasonExisting
		case anyIn(claimed, keys):
			row.Duplicate, row.Reason = true, ReasonInBatch
		default:
			for _, k := range keys {
				claimed[k] = struct{}{}
			}
			res.New = append(res.New, rec)
		}

		res.Rows = append(res.Rows, row)
		if row.Duplicate {
			res.Duplicates = append(res.Duplicates, row)
		}
	}
	return res
}

func normalizeAll(keys []string) []string {
	out := keys[:0:0]
	for _, k := range keys {
		if k = textnorm.Normalize(k); k != "" {
			out = append(out, k)
		}
	}
	return out
}

func anyIn(ks KeySet, keys []string) bool {
	for _, k := range keys {
		if _, ok := ks[k]; ok {
			return true
		}
	}
	return false
}
