package listmap

import (
	"fmt"
	"net/url"
)

// Query maps recognized option names to values. Keys may be given with or
// without the $ sigil; Normalize and Encode canonicalize them to the sigil
// form so "filter" and "$filter" collide as the same option.
type Query map[string]any

// Canonical query option names.
const (
	OptSelect  = "$select"
	OptFilter  = "$filter"
	OptOrderBy = "$orderby"
	OptTop     = "$top"
	OptSkip    = "$skip"
	OptExpand  = "$expand"
	OptSort    = "$sort"
)

// sigilNames maps bare option names to their canonical sigil form.
var sigilNames = map[string]string{
	"select":  OptSelect,
	"filter":  OptFilter,
	"orderby": OptOrderBy,
	"top":     OptTop,
	"skip":    OptSkip,
	"expand":  OptExpand,
	"sort":    OptSort,
}

// canonKey returns the canonical form of a query option name. Unrecognized
// names pass through unchanged.
func canonKey(k string) string {
	if c, ok := sigilNames[k]; ok {
		return c
	}
	return k
}

// Normalize shallow-merges def then caller into a new Query; the caller wins
// on key collision. Neither input is mutated. Keys are canonicalized so a
// bare name in one input overrides the sigil form in the other.
func Normalize(def, caller Query) Query {
	merged := make(Query, len(def)+len(caller))
	for k, v := range def {
		merged[canonKey(k)] = v
	}
	for k, v := range caller {
		merged[canonKey(k)] = v
	}
	return merged
}

// Encode renders the query as URL values for request construction.
func (q Query) Encode() url.Values {
	if len(q) == 0 {
		return nil
	}
	values := make(url.Values, len(q))
	for k, v := range q {
		values.Set(canonKey(k), fmt.Sprint(v))
	}
	return values
}

// clone returns a shallow copy so per-type default queries stay immutable
// after type creation.
func (q Query) clone() Query {
	if q == nil {
		return nil
	}
	out := make(Query, len(q))
	for k, v := range q {
		out[k] = v
	}
	return out
}
