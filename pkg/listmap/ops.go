package listmap

import "context"

// UpdateOptions configures Update and Save.
type UpdateOptions struct {
	// Force omits the stored concurrency token from the transport parameters,
	// bypassing the optimistic-concurrency check server-side. Without Force
	// the stored token, if present, is sent so stale writes are rejected.
	Force bool

	// Query is passed through to request construction.
	Query Query
}

// Get retrieves one record by ID. The placeholder carries only the ID field
// until the response merges onto it. Returns ErrMissingID synchronously when
// id is nil; no transport call is issued.
func (rt *RecordType) Get(ctx context.Context, id any, q Query) (*Result, error) {
	if id == nil {
		return nil, ErrMissingID
	}
	req, err := rt.transport.BuildRequest(rt, OpGet, Params{ID: id, Query: q})
	if err != nil {
		return nil, err
	}
	rec := rt.NewRecord(map[string]any{"Id": id})
	return rt.decorate(ctx, newSingleResult(rt, rec), req), nil
}

// Query retrieves the records matching q, layered over the type's default
// query. The placeholder is an empty sequence until the response appends to
// it in order.
func (rt *RecordType) Query(ctx context.Context, q Query) (*Result, error) {
	return rt.runQuery(ctx, q, false)
}

// QueryOne retrieves exactly one record matching q. The response must carry
// exactly one element; any other length rejects the completion with a
// BadResponseError.
func (rt *RecordType) QueryOne(ctx context.Context, q Query) (*Result, error) {
	return rt.runQuery(ctx, q, true)
}

func (rt *RecordType) runQuery(ctx context.Context, q Query, single bool) (*Result, error) {
	merged := Normalize(rt.defaultQuery, q)
	req, err := rt.transport.BuildRequest(rt, OpQuery, Params{Query: merged})
	if err != nil {
		return nil, err
	}
	var res *Result
	if single {
		res = newSingleResult(rt, rt.NewRecord(nil))
	} else {
		res = newCollectionResult(rt)
	}
	return rt.decorate(ctx, res, req), nil
}

// Create persists a new record. The item itself is the placeholder: the
// response (ID, server-managed fields, concurrency token) merges onto it.
// Returns ErrWrongType synchronously when item is not a record of this type.
func (rt *RecordType) Create(ctx context.Context, item *Record, q Query) (*Result, error) {
	if err := rt.checkOwned(item); err != nil {
		return nil, err
	}
	item.Meta.Type = rt.TypeID
	merged := Normalize(rt.defaultQuery, q)
	req, err := rt.transport.BuildRequest(rt, OpCreate, Params{Item: item, Query: merged})
	if err != nil {
		return nil, err
	}
	return rt.decorate(ctx, newSingleResult(rt, item), req), nil
}

// Update persists changes to an existing record; the item is the placeholder.
// The stored concurrency token is included in the transport parameters unless
// opts.Force is set.
func (rt *RecordType) Update(ctx context.Context, item *Record, opts *UpdateOptions) (*Result, error) {
	if err := rt.checkOwned(item); err != nil {
		return nil, err
	}
	if opts == nil {
		opts = &UpdateOptions{}
	}
	p := Params{Item: item, Query: opts.Query}
	if !opts.Force {
		p.ETag = item.Meta.ETag
	}
	req, err := rt.transport.BuildRequest(rt, OpUpdate, p)
	if err != nil {
		return nil, err
	}
	return rt.decorate(ctx, newSingleResult(rt, item), req), nil
}

// Save dispatches to Update when the record carries an ID and to Create
// otherwise.
func (rt *RecordType) Save(ctx context.Context, item *Record, opts *UpdateOptions) (*Result, error) {
	if err := rt.checkOwned(item); err != nil {
		return nil, err
	}
	if item.IsNew() {
		var q Query
		if opts != nil {
			q = opts.Query
		}
		return rt.Create(ctx, item, q)
	}
	return rt.Update(ctx, item, opts)
}

// Delete logically removes the record. The item is the placeholder; its
// fields are left intact after completion.
func (rt *RecordType) Delete(ctx context.Context, item *Record) (*Result, error) {
	if err := rt.checkOwned(item); err != nil {
		return nil, err
	}
	req, err := rt.transport.BuildRequest(rt, OpDelete, Params{Item: item, ETag: item.Meta.ETag})
	if err != nil {
		return nil, err
	}
	return rt.decorate(ctx, newSingleResult(rt, item), req), nil
}

// checkOwned validates that item is a record constructed by this type.
func (rt *RecordType) checkOwned(item *Record) error {
	if item == nil || item.rt != rt {
		return ErrWrongType
	}
	return nil
}
