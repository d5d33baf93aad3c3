package listmap

import (
	"context"
	"net/http"
	"sync"
)

// Kind tags the placeholder shape, chosen at construction time.
type Kind int

const (
	// Single is a placeholder for exactly one record.
	Single Kind = iota
	// Collection is a placeholder for an ordered sequence of records.
	Collection
)

// Result is the placeholder returned synchronously by every CRUD operation.
// For Single results Record is set (and is the same object for the lifetime
// of the result); for Collection results Records starts empty and is appended
// to, in response order, when the transport call completes. The Done channel
// closes once the result settles; reading placeholder fields before then is
// a race.
type Result struct {
	Record  *Record
	Records []*Record

	kind Kind
	rt   *RecordType
	done chan struct{}

	mu       sync.Mutex
	settled  bool
	resolved bool
	err      error
}

func newSingleResult(rt *RecordType, rec *Record) *Result {
	return &Result{
		Record: rec,
		kind:   Single,
		rt:     rt,
		done:   make(chan struct{}),
	}
}

func newCollectionResult(rt *RecordType) *Result {
	return &Result{
		Records: make([]*Record, 0),
		kind:    Collection,
		rt:      rt,
		done:    make(chan struct{}),
	}
}

// Kind reports the placeholder shape.
func (r *Result) Kind() Kind { return r.kind }

// Done returns a channel closed when the result settles.
func (r *Result) Done() <-chan struct{} { return r.done }

// Resolved reports whether the result settled successfully. False while the
// transport call is in flight and after a rejected completion.
func (r *Result) Resolved() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.resolved
}

// Err returns the rejection error once the result has settled, nil before
// then and on success.
func (r *Result) Err() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.err
}

// Await blocks until the result settles or ctx is done, then yields the same
// placeholder. A rejected completion surfaces as the returned error.
func (r *Result) Await(ctx context.Context) (*Result, error) {
	select {
	case <-ctx.Done():
		return r, ctx.Err()
	case <-r.done:
		return r, r.Err()
	}
}

// resolve settles the result exactly once.
func (r *Result) resolve(err error) {
	r.mu.Lock()
	if r.settled {
		r.mu.Unlock()
		return
	}
	r.settled = true
	r.err = err
	r.resolved = err == nil
	r.mu.Unlock()
	close(r.done)
}

// decorate issues the transport request in the background and settles the
// placeholder on completion. The placeholder reference is returned unchanged
// so callers observe the populated fields on the object they already hold.
func (rt *RecordType) decorate(ctx context.Context, res *Result, req *Request) *Result {
	go func() {
		resp, err := rt.transport.Do(ctx, req)
		if err != nil {
			res.resolve(err)
			return
		}
		res.resolve(res.apply(resp))
	}()
	return res
}

// apply reconciles the response against the placeholder shape, captures the
// concurrency token from 204 responses, and populates the placeholder.
// Shape mismatches are protocol errors and are never retried.
func (r *Result) apply(resp *Response) error {
	if resp.Data != nil {
		switch r.kind {
		case Collection:
			seq, ok := resp.Data.([]any)
			if !ok {
				return &BadResponseError{Expected: ShapeCollection, Actual: shapeOf(resp.Data), Length: -1}
			}
			for _, el := range seq {
				fields, ok := el.(map[string]any)
				if !ok {
					return &BadResponseError{Expected: ShapeCollection, Actual: shapeOf(el), Length: -1}
				}
				r.Records = append(r.Records, r.rt.NewRecord(fields))
			}
		case Single:
			switch data := resp.Data.(type) {
			case []any:
				if len(data) != 1 {
					return &BadResponseError{Expected: ShapeSingle, Actual: ShapeSequence, Length: len(data)}
				}
				fields, ok := data[0].(map[string]any)
				if !ok {
					return &BadResponseError{Expected: ShapeSingle, Actual: shapeOf(data[0]), Length: -1}
				}
				r.Record.merge(fields)
			case map[string]any:
				r.Record.merge(data)
			default:
				return &BadResponseError{Expected: ShapeSingle, Actual: shapeOf(resp.Data), Length: -1}
			}
		}
	}

	// A 204 carries no body to merge a token from; the header is the only
	// source. An absent or empty header leaves the prior token untouched.
	if resp.Status == http.StatusNoContent && r.kind == Single {
		if tag := resp.Header.Get("ETag"); tag != "" {
			r.Record.Meta.ETag = tag
		}
	}
	return nil
}
