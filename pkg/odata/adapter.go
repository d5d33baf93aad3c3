// Package odata implements the listmap transport over an OData-flavored
// list service: lists('<TypeID>')/items URLs, $-prefixed query options,
// verbose-JSON envelopes, MERGE updates, and If-Match concurrency headers.
package odata

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/lasarvit/listmap/internal/httpx"
	"github.com/lasarvit/listmap/pkg/listmap"
)

const contentTypeJSON = "application/json;odata=verbose"

// hostWebPrefix routes requests for lists that live in the hosting site
// rather than the app site.
const hostWebPrefix = "host/"

// Adapter builds and executes list-service requests. It implements
// listmap.Transport.
type Adapter struct {
	client *httpx.Client
}

// New creates an Adapter for the service rooted at siteURL.
func New(siteURL string, opts ...httpx.Option) (*Adapter, error) {
	client, err := httpx.NewClient(siteURL, opts...)
	if err != nil {
		return nil, err
	}
	return NewWithClient(client), nil
}

// NewWithClient wraps an existing httpx.Client.
func NewWithClient(client *httpx.Client) *Adapter {
	return &Adapter{client: client}
}

// BuildRequest translates an operation and its parameters into a wire-level
// request descriptor.
func (a *Adapter) BuildRequest(rt *listmap.RecordType, op listmap.Operation, p listmap.Params) (*listmap.Request, error) {
	base := listPath(rt)

	switch op {
	case listmap.OpGet:
		return &listmap.Request{
			Method: http.MethodGet,
			Path:   itemPath(base, p.ID),
			Query:  p.Query.Encode(),
			Header: acceptHeader(),
		}, nil

	case listmap.OpQuery:
		return &listmap.Request{
			Method: http.MethodGet,
			Path:   base + "/items",
			Query:  p.Query.Encode(),
			Header: acceptHeader(),
		}, nil

	case listmap.OpCreate:
		body, err := json.Marshal(rt.Payload(p.Item, true))
		if err != nil {
			return nil, fmt.Errorf("odata: encode create payload: %w", err)
		}
		return &listmap.Request{
			Method: http.MethodPost,
			Path:   base + "/items",
			Query:  p.Query.Encode(),
			Header: bodyHeader(),
			Body:   body,
		}, nil

	case listmap.OpUpdate:
		id := itemID(p.Item)
		if id == nil {
			return nil, fmt.Errorf("odata: update requires a persisted record: %w", listmap.ErrMissingID)
		}
		body, err := json.Marshal(rt.Payload(p.Item, false))
		if err != nil {
			return nil, fmt.Errorf("odata: encode update payload: %w", err)
		}
		header := bodyHeader()
		header.Set("X-HTTP-Method", "MERGE")
		header.Set("If-Match", ifMatch(p.ETag))
		return &listmap.Request{
			Method: http.MethodPost,
			Path:   itemPath(base, id),
			Query:  p.Query.Encode(),
			Header: header,
			Body:   body,
		}, nil

	case listmap.OpDelete:
		id := itemID(p.Item)
		if id == nil {
			return nil, fmt.Errorf("odata: delete requires a persisted record: %w", listmap.ErrMissingID)
		}
		header := acceptHeader()
		header.Set("If-Match", ifMatch(p.ETag))
		return &listmap.Request{
			Method: http.MethodDelete,
			Path:   itemPath(base, id),
			Header: header,
		}, nil

	default:
		return nil, fmt.Errorf("odata: unknown operation %q", op)
	}
}

// Do executes the request and decodes the response body. Single-item and
// collection payloads are unwrapped from the verbose {"d": ...} envelope.
// Non-2xx statuses surface as *httpx.HTTPError.
func (a *Adapter) Do(ctx context.Context, req *listmap.Request) (*listmap.Response, error) {
	resp, err := a.client.Do(ctx, &httpx.Request{
		Method: req.Method,
		Path:   req.Path,
		Query:  req.Query,
		Header: req.Header,
		Body:   req.Body,
	})
	if err != nil {
		return nil, err
	}
	body, err := httpx.ReadAllAndClose(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("odata: read response body: %w", err)
	}

	out := &listmap.Response{
		Status: resp.StatusCode,
		Header: resp.Header,
	}
	if len(body) == 0 {
		return out, nil
	}

	var data any
	if err := json.Unmarshal(body, &data); err != nil {
		return nil, fmt.Errorf("odata: decode response body: %w", err)
	}
	out.Data = unwrap(data)
	return out, nil
}

// unwrap peels the verbose envelope: {"d": {"results": [...]}} and
// {"d": {...}} both reduce to their payload. Anything else passes through.
func unwrap(data any) any {
	m, ok := data.(map[string]any)
	if !ok {
		return data
	}
	d, ok := m["d"]
	if !ok {
		return data
	}
	if dm, ok := d.(map[string]any); ok {
		if results, ok := dm["results"]; ok {
			return results
		}
	}
	return d
}

func listPath(rt *listmap.RecordType) string {
	path := fmt.Sprintf("lists('%s')", rt.TypeID)
	if rt.InHostWeb() {
		return hostWebPrefix + path
	}
	return path
}

func itemPath(base string, id any) string {
	return fmt.Sprintf("%s/items(%v)", base, id)
}

// itemID prefers the metadata ID and falls back to the Id field for records
// populated by hand.
func itemID(item *listmap.Record) any {
	if item == nil {
		return nil
	}
	if item.Meta.ID != nil {
		return item.Meta.ID
	}
	if id, ok := item.Get("Id"); ok {
		return id
	}
	return nil
}

// ifMatch maps the conditional concurrency token to its header value: the
// stored token when present, otherwise * for an unconditional write.
func ifMatch(etag string) string {
	if etag == "" {
		return "*"
	}
	return etag
}

func acceptHeader() http.Header {
	h := make(http.Header)
	h.Set("Accept", contentTypeJSON)
	return h
}

func bodyHeader() http.Header {
	h := acceptHeader()
	h.Set("Content-Type", contentTypeJSON)
	return h
}
