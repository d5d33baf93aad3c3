package listmap

import "context"

// Metadata carries the per-record bookkeeping block: the remote type
// identifier, the server-assigned ID, and the opaque optimistic-concurrency
// token captured from responses.
type Metadata struct {
	Type string
	ID   any
	ETag string
}

// Record is one logical item of a remote list: an arbitrary mapping of field
// names to values plus a Metadata block. Records are created as placeholders
// by the CRUD operations and populated in place when the transport response
// arrives; a delete marks the record logically removed but does not clear
// its fields.
type Record struct {
	Fields map[string]any
	Meta   Metadata

	rt *RecordType
}

// IsNew reports whether the record has not been persisted yet: true iff no
// server-assigned ID is present in the metadata block.
func (r *Record) IsNew() bool {
	return r.Meta.ID == nil
}

// Get returns the named field value and whether it is set.
func (r *Record) Get(name string) (any, bool) {
	v, ok := r.Fields[name]
	return v, ok
}

// Set assigns the named field value.
func (r *Record) Set(name string, value any) {
	if r.Fields == nil {
		r.Fields = make(map[string]any)
	}
	r.Fields[name] = value
}

// Save persists the record through its bound type: update when the record
// carries an ID, create otherwise.
func (r *Record) Save(ctx context.Context, opts *UpdateOptions) (*Result, error) {
	if r.rt == nil {
		return nil, ErrWrongType
	}
	return r.rt.Save(ctx, r, opts)
}

// Delete removes the record through its bound type.
func (r *Record) Delete(ctx context.Context) (*Result, error) {
	if r.rt == nil {
		return nil, ErrWrongType
	}
	return r.rt.Delete(ctx, r)
}

// merge shallow-copies fields onto the record and refreshes metadata from
// the merged values.
func (r *Record) merge(fields map[string]any) {
	if r.Fields == nil {
		r.Fields = make(map[string]any, len(fields))
	}
	for k, v := range fields {
		r.Fields[k] = v
	}
	r.syncMeta()
}

// syncMeta pulls the server-assigned ID and any body-carried concurrency
// token out of the fields into the metadata block. The 204+ETag header path
// in the result decorator is the other token source.
func (r *Record) syncMeta() {
	if id, ok := r.Fields["Id"]; ok && id != nil {
		r.Meta.ID = id
	}
	if md, ok := r.Fields["__metadata"].(map[string]any); ok {
		if tag, ok := md["etag"].(string); ok && tag != "" {
			r.Meta.ETag = tag
		}
	}
}
