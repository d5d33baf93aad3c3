package listmap

import (
	"context"
	"net/http"
	"net/url"
)

// Operation names passed to Transport.BuildRequest.
type Operation string

const (
	OpGet    Operation = "get"
	OpQuery  Operation = "query"
	OpCreate Operation = "create"
	OpUpdate Operation = "update"
	OpDelete Operation = "delete"
)

// Params carries the operation parameters relevant to request construction.
// ETag holds the stored concurrency token for update and delete; on update it
// is left empty when the caller forces the write, and the adapter must rely
// on this field rather than the record's metadata so forced writes bypass the
// optimistic-concurrency check.
type Params struct {
	ID    any
	Item  *Record
	Query Query
	ETag  string
}

// Request is the wire-level request descriptor produced by a transport
// adapter. Path is interpreted relative to the adapter's endpoint.
type Request struct {
	Method string
	Path   string
	Query  url.Values
	Header http.Header
	Body   []byte
}

// Response is a completed transport call. Data is the JSON-decoded body:
// []any for sequences, map[string]any for mappings, nil when the response
// carried no body.
type Response struct {
	Status int
	Header http.Header
	Data   any
}

// Transport translates operations into wire requests and executes them.
// Transport-level failures (network errors, non-2xx statuses) are returned
// from Do as the adapter's own error types and pass through to the caller's
// rejected completion unreinterpreted.
type Transport interface {
	BuildRequest(rt *RecordType, op Operation, p Params) (*Request, error)
	Do(ctx context.Context, req *Request) (*Response, error)
}
