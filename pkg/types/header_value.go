package types

// HeaderValue normalizes a transport header that may arrive as a single
// string or as a repeated list. Core logic only ever consumes First, so the
// single-vs-list ambiguity stays at the ingress boundary.
type HeaderValue struct {
	values []string
	isList bool
}

// HeaderValueFrom builds a HeaderValue from the raw values observed on the
// wire.
func HeaderValueFrom(values []string) HeaderValue {
	copied := make([]string, len(values))
	copy(copied, values)
	return HeaderValue{values: copied, isList: len(values) > 1}
}

// First returns the first value, or "" when the header was absent.
func (h HeaderValue) First() string {
	if len(h.values) == 0 {
		return ""
	}
	return h.values[0]
}

// IsList reports whether the header was sent more than once.
func (h HeaderValue) IsList() bool {
	return h.isList
}

// IsEmpty reports whether no value was present.
func (h HeaderValue) IsEmpty() bool {
	return len(h.values) == 0 || h.values[0] == ""
}
