package listmap

import (
	"context"
	"strings"
	"unicode"
)

// Separator is the token substituted for whitespace runs when deriving the
// remote type identifier from a list name.
const Separator = "_x0020_"

// DefaultReadOnlyFields lists the server-managed fields excluded from
// outbound payloads on create and update. Extensible per type via Options.
var DefaultReadOnlyFields = []string{
	"AttachmentFiles",
	"Attachments",
	"Author",
	"AuthorId",
	"ContentType",
	"ContentTypeID",
	"Created",
	"CreatedById",
	"Editor",
	"EditorId",
	"File",
	"Id",
	"Modified",
	"ModifiedById",
	"Path",
	"__metadata",
}

// Options configures a RecordType at creation time. All fields are optional
// and merged with built-in defaults.
type Options struct {
	// DefaultQuery is layered under every query issued by Query, QueryOne,
	// Create, and the named queries.
	DefaultQuery Query

	// ReadOnlyFields extends DefaultReadOnlyFields for this type.
	ReadOnlyFields []string

	// InHostWeb marks the list as living in the hosting site rather than the
	// app site. Consumed by transport adapters when building request paths.
	InHostWeb bool
}

// QueryOptions configures the Query operation and named queries.
type QueryOptions struct {
	// SingleResult makes the placeholder a single record; the response must
	// then carry exactly one element.
	SingleResult bool
}

// NamedQuery is a registered, parameterized query bound to a RecordType.
// Invoking it merges the builder's output over the type's default query and
// issues the query.
type NamedQuery func(ctx context.Context, args ...any) (*Result, error)

// RecordType bundles a record constructor, per-type configuration, and the
// CRUD operation set for one remote list. The configuration captured at
// creation time is effectively immutable; callers must not mutate it.
type RecordType struct {
	// Name is the list name as given to New.
	Name string

	// TypeID is the normalized remote type identifier derived from Name. It
	// is stamped into every record's metadata and into outbound payload type
	// fields on create.
	TypeID string

	// ClassName is the display identifier: TypeID with the separator token
	// and leading digits stripped, capitalized.
	ClassName string

	// Queries is the named-query registry. Populated by AddNamedQuery;
	// indexing an unregistered name is a caller error.
	Queries map[string]NamedQuery

	transport    Transport
	defaultQuery Query
	readOnly     map[string]bool
	inHostWeb    bool
}

// New produces the RecordType for the named list, bound to the given
// transport. Returns ErrInvalidName when name is empty or blank, and
// ErrNilTransport when transport is nil.
func New(transport Transport, name string, opts *Options) (*RecordType, error) {
	if transport == nil {
		return nil, ErrNilTransport
	}
	typeID := NormalizeTypeID(name)
	if typeID == "" {
		return nil, ErrInvalidName
	}
	if opts == nil {
		opts = &Options{}
	}

	readOnly := make(map[string]bool, len(DefaultReadOnlyFields)+len(opts.ReadOnlyFields))
	for _, f := range DefaultReadOnlyFields {
		readOnly[f] = true
	}
	for _, f := range opts.ReadOnlyFields {
		readOnly[f] = true
	}

	return &RecordType{
		Name:         name,
		TypeID:       typeID,
		ClassName:    classNameOf(typeID),
		Queries:      make(map[string]NamedQuery),
		transport:    transport,
		defaultQuery: opts.DefaultQuery.clone(),
		readOnly:     readOnly,
		inHostWeb:    opts.InHostWeb,
	}, nil
}

// NewRecord constructs a record of this type, stamping the type identifier
// into its metadata and shallow-copying data onto it.
func (rt *RecordType) NewRecord(data map[string]any) *Record {
	rec := &Record{
		Fields: make(map[string]any, len(data)),
		Meta:   Metadata{Type: rt.TypeID},
		rt:     rt,
	}
	if len(data) > 0 {
		rec.merge(data)
	}
	return rec
}

// DefaultQuery returns a copy of the type's default query.
func (rt *RecordType) DefaultQuery() Query {
	return rt.defaultQuery.clone()
}

// IsReadOnly reports whether the field is excluded from outbound payloads.
func (rt *RecordType) IsReadOnly(field string) bool {
	return rt.readOnly[field]
}

// InHostWeb reports whether the list lives in the hosting site.
func (rt *RecordType) InHostWeb() bool {
	return rt.inHostWeb
}

// Payload builds the outbound body fields for a record: every field except
// the read-only set, with the remote type identifier stamped into
// __metadata.type when stampType is set (create payloads).
func (rt *RecordType) Payload(item *Record, stampType bool) map[string]any {
	out := make(map[string]any, len(item.Fields)+1)
	for k, v := range item.Fields {
		if rt.readOnly[k] {
			continue
		}
		out[k] = v
	}
	if stampType {
		out["__metadata"] = map[string]any{"type": rt.TypeID}
	}
	return out
}

// AddNamedQuery registers a reusable, parameterized query under name. The
// builder runs at call time; its output is merged over the type's default
// query and forwarded to Query (or QueryOne when opts.SingleResult is set).
func (rt *RecordType) AddNamedQuery(name string, builder func(args ...any) Query, opts *QueryOptions) {
	single := opts != nil && opts.SingleResult
	rt.Queries[name] = func(ctx context.Context, args ...any) (*Result, error) {
		q := builder(args...)
		if single {
			return rt.QueryOne(ctx, q)
		}
		return rt.Query(ctx, q)
	}
}

// NormalizeTypeID derives the remote type identifier from a list name: strip
// characters outside letters, digits, and space, collapse whitespace runs to
// the separator token, and capitalize the first rune. Deterministic: the same
// name yields the same identifier on every call. Returns "" for names with
// no usable characters.
func NormalizeTypeID(name string) string {
	var b strings.Builder
	for _, r := range name {
		switch {
		case unicode.IsLetter(r), unicode.IsDigit(r), r == ' ':
			b.WriteRune(r)
		}
	}
	words := strings.Fields(b.String())
	if len(words) == 0 {
		return ""
	}
	return capitalize(strings.Join(words, Separator))
}

// classNameOf derives the display identifier from a type identifier: strip
// the separator token and leading digits, then capitalize.
func classNameOf(typeID string) string {
	s := strings.ReplaceAll(typeID, Separator, "")
	s = strings.TrimLeft(s, "0123456789")
	return capitalize(s)
}

func capitalize(s string) string {
	if s == "" {
		return ""
	}
	runes := []rune(s)
	runes[0] = unicode.ToUpper(runes[0])
	return string(runes)
}
