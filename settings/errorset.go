package settings

import "errors"

// ErrorSet accumulates validation failures keyed by field name, partitioned
// by namespace. Entries are cleared per-field on successful revalidation and
// in bulk on successful submit.
type ErrorSet struct {
	buckets map[Namespace]map[string]string
}

// NewErrorSet returns an empty ErrorSet.
func NewErrorSet() *ErrorSet {
	return &ErrorSet{buckets: make(map[Namespace]map[string]string)}
}

// Record routes err into the bucket selected by its namespace and reports
// whether err was a ValidationError. Non-validation errors are left for the
// caller to handle.
func (e *ErrorSet) Record(err error) bool {
	var verr *ValidationError
	if !errors.As(err, &verr) {
		return false
	}
	bucket := e.buckets[verr.Namespace]
	if bucket == nil {
		bucket = make(map[string]string)
		e.buckets[verr.Namespace] = bucket
	}
	bucket[verr.Code] = verr.Message
	return true
}

// Clear removes the entry for one field.
func (e *ErrorSet) Clear(ns Namespace, field string) {
	delete(e.buckets[ns], field)
}

// ClearAll removes every entry in a namespace.
func (e *ErrorSet) ClearAll(ns Namespace) {
	delete(e.buckets, ns)
}

// Has reports whether an entry exists for the field.
func (e *ErrorSet) Has(ns Namespace, field string) bool {
	_, ok := e.buckets[ns][field]
	return ok
}

// Len returns the number of entries in a namespace.
func (e *ErrorSet) Len(ns Namespace) int {
	return len(e.buckets[ns])
}

// Messages returns a copy of the namespace's field→message map.
func (e *ErrorSet) Messages(ns Namespace) map[string]string {
	out := make(map[string]string, len(e.buckets[ns]))
	for k, v := range e.buckets[ns] {
		out[k] = v
	}
	return out
}
