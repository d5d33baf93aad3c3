// Package sqlite implements the listmap transport over a local SQLite
// database, serving the same CRUD surface a remote list service would. It
// backs the CLI's local mode and the integration tests: one generic table
// holds (list, id, etag, fields) rows, mutations answer 204 with a fresh
// ETag header, and stale If-Match tokens are rejected.
package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"regexp"
	"strconv"
	"sync"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"

	"github.com/lasarvit/listmap/pkg/listmap"
)

const schemaSQL = `
CREATE TABLE IF NOT EXISTS list_items (
	list   TEXT    NOT NULL,
	id     INTEGER NOT NULL,
	etag   TEXT    NOT NULL,
	fields TEXT    NOT NULL,
	PRIMARY KEY (list, id)
);`

// Transport-level errors. Passed through to the caller's rejected completion.
var (
	ErrNotFound = errors.New("item not found")
	ErrConflict = errors.New("concurrency token mismatch")
)

// itemPathRE matches the request paths the builder emits:
// lists('<TypeID>')/items and lists('<TypeID>')/items(<id>).
var itemPathRE = regexp.MustCompile(`^lists\('([^']+)'\)/items(?:\((\d+)\))?$`)

// Backend implements listmap.Transport against a local database file.
type Backend struct {
	mu sync.Mutex
	db *sql.DB
}

// Open creates or opens the database at path (":memory:" for ephemeral use)
// and initializes the schema.
func Open(path string) (*Backend, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	if _, err := db.Exec(schemaSQL); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("initialize schema: %w", err)
	}
	return &Backend{db: db}, nil
}

// Close releases the database handle.
func (b *Backend) Close() error {
	return b.db.Close()
}

// BuildRequest mirrors the remote adapter's request shapes so the core
// decorates results identically over both transports.
func (b *Backend) BuildRequest(rt *listmap.RecordType, op listmap.Operation, p listmap.Params) (*listmap.Request, error) {
	base := fmt.Sprintf("lists('%s')", rt.TypeID)

	switch op {
	case listmap.OpGet:
		return &listmap.Request{
			Method: http.MethodGet,
			Path:   fmt.Sprintf("%s/items(%v)", base, p.ID),
			Query:  p.Query.Encode(),
		}, nil

	case listmap.OpQuery:
		return &listmap.Request{
			Method: http.MethodGet,
			Path:   base + "/items",
			Query:  p.Query.Encode(),
		}, nil

	case listmap.OpCreate:
		body, err := json.Marshal(rt.Payload(p.Item, true))
		if err != nil {
			return nil, fmt.Errorf("encode create payload: %w", err)
		}
		return &listmap.Request{
			Method: http.MethodPost,
			Path:   base + "/items",
			Body:   body,
		}, nil

	case listmap.OpUpdate:
		id := p.Item.Meta.ID
		if id == nil {
			return nil, fmt.Errorf("update requires a persisted record: %w", listmap.ErrMissingID)
		}
		body, err := json.Marshal(rt.Payload(p.Item, false))
		if err != nil {
			return nil, fmt.Errorf("encode update payload: %w", err)
		}
		return &listmap.Request{
			Method: "MERGE",
			Path:   fmt.Sprintf("%s/items(%v)", base, id),
			Header: ifMatchHeader(p.ETag),
			Body:   body,
		}, nil

	case listmap.OpDelete:
		id := p.Item.Meta.ID
		if id == nil {
			return nil, fmt.Errorf("delete requires a persisted record: %w", listmap.ErrMissingID)
		}
		return &listmap.Request{
			Method: http.MethodDelete,
			Path:   fmt.Sprintf("%s/items(%v)", base, id),
			Header: ifMatchHeader(p.ETag),
		}, nil

	default:
		return nil, fmt.Errorf("unknown operation %q", op)
	}
}

// Do routes the request to the matching table operation.
func (b *Backend) Do(ctx context.Context, req *listmap.Request) (*listmap.Response, error) {
	m := itemPathRE.FindStringSubmatch(req.Path)
	if m == nil {
		return nil, fmt.Errorf("unrecognized request path %q", req.Path)
	}
	list := m[1]
	var id int64
	hasID := m[2] != ""
	if hasID {
		parsed, err := strconv.ParseInt(m[2], 10, 64)
		if err != nil {
			return nil, fmt.Errorf("parse item id %q: %w", m[2], err)
		}
		id = parsed
	}

	b.mu.Lock()
	defer b.mu.Unlock()

	switch {
	case req.Method == http.MethodGet && hasID:
		return b.getItem(ctx, list, id, req.Query)
	case req.Method == http.MethodGet:
		return b.queryItems(ctx, list, req.Query)
	case req.Method == http.MethodPost:
		return b.createItem(ctx, list, req.Body)
	case req.Method == "MERGE" && hasID:
		return b.updateItem(ctx, list, id, req.Header.Get("If-Match"), req.Body)
	case req.Method == http.MethodDelete && hasID:
		return b.deleteItem(ctx, list, id, req.Header.Get("If-Match"))
	default:
		return nil, fmt.Errorf("unsupported request %s %q", req.Method, req.Path)
	}
}

func (b *Backend) getItem(ctx context.Context, list string, id int64, q url.Values) (*listmap.Response, error) {
	fields, _, err := b.loadItem(ctx, list, id)
	if err != nil {
		return nil, err
	}
	fields = project(fields, selectOption(q))
	return &listmap.Response{Status: http.StatusOK, Header: make(http.Header), Data: fields}, nil
}

func (b *Backend) queryItems(ctx context.Context, list string, q url.Values) (*listmap.Response, error) {
	rows, err := b.db.QueryContext(ctx,
		"SELECT id, etag, fields FROM list_items WHERE list = ? ORDER BY id", list)
	if err != nil {
		return nil, fmt.Errorf("query %q: %w", list, err)
	}
	defer func() { _ = rows.Close() }()

	var items []map[string]any
	for rows.Next() {
		var (
			id     int64
			etag   string
			stored string
		)
		if err := rows.Scan(&id, &etag, &stored); err != nil {
			return nil, fmt.Errorf("scan %q item: %w", list, err)
		}
		fields, err := decodeFields(stored, etag)
		if err != nil {
			return nil, err
		}
		items = append(items, fields)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate %q items: %w", list, err)
	}

	items, err = applyQuery(items, q)
	if err != nil {
		return nil, err
	}
	data := make([]any, len(items))
	for i, item := range items {
		data[i] = item
	}
	return &listmap.Response{Status: http.StatusOK, Header: make(http.Header), Data: data}, nil
}

func (b *Backend) createItem(ctx context.Context, list string, body []byte) (*listmap.Response, error) {
	fields := make(map[string]any)
	if len(body) > 0 {
		if err := json.Unmarshal(body, &fields); err != nil {
			return nil, fmt.Errorf("decode create payload: %w", err)
		}
	}
	delete(fields, "__metadata")

	var next int64
	row := b.db.QueryRowContext(ctx,
		"SELECT COALESCE(MAX(id), 0) + 1 FROM list_items WHERE list = ?", list)
	if err := row.Scan(&next); err != nil {
		return nil, fmt.Errorf("allocate id for %q: %w", list, err)
	}

	fields["Id"] = next
	etag := newETag()
	stored, err := json.Marshal(fields)
	if err != nil {
		return nil, fmt.Errorf("encode %q item: %w", list, err)
	}
	if _, err := b.db.ExecContext(ctx,
		"INSERT INTO list_items (list, id, etag, fields) VALUES (?, ?, ?, ?)",
		list, next, etag, string(stored)); err != nil {
		return nil, fmt.Errorf("insert %q item: %w", list, err)
	}

	data, err := decodeFields(string(stored), etag)
	if err != nil {
		return nil, err
	}
	return &listmap.Response{Status: http.StatusCreated, Header: make(http.Header), Data: data}, nil
}

func (b *Backend) updateItem(ctx context.Context, list string, id int64, ifMatch string, body []byte) (*listmap.Response, error) {
	fields, etag, err := b.loadRawItem(ctx, list, id)
	if err != nil {
		return nil, err
	}
	if err := checkToken(ifMatch, etag); err != nil {
		return nil, err
	}

	patch := make(map[string]any)
	if len(body) > 0 {
		if err := json.Unmarshal(body, &patch); err != nil {
			return nil, fmt.Errorf("decode update payload: %w", err)
		}
	}
	delete(patch, "__metadata")
	for k, v := range patch {
		fields[k] = v
	}
	fields["Id"] = id

	newTag := newETag()
	stored, err := json.Marshal(fields)
	if err != nil {
		return nil, fmt.Errorf("encode %q item: %w", list, err)
	}
	if _, err := b.db.ExecContext(ctx,
		"UPDATE list_items SET etag = ?, fields = ? WHERE list = ? AND id = ?",
		newTag, string(stored), list, id); err != nil {
		return nil, fmt.Errorf("update %q item: %w", list, err)
	}

	header := make(http.Header)
	header.Set("ETag", newTag)
	return &listmap.Response{Status: http.StatusNoContent, Header: header}, nil
}

func (b *Backend) deleteItem(ctx context.Context, list string, id int64, ifMatch string) (*listmap.Response, error) {
	_, etag, err := b.loadRawItem(ctx, list, id)
	if err != nil {
		return nil, err
	}
	if err := checkToken(ifMatch, etag); err != nil {
		return nil, err
	}
	if _, err := b.db.ExecContext(ctx,
		"DELETE FROM list_items WHERE list = ? AND id = ?", list, id); err != nil {
		return nil, fmt.Errorf("delete %q item: %w", list, err)
	}
	return &listmap.Response{Status: http.StatusNoContent, Header: make(http.Header)}, nil
}

// loadItem returns the decoded fields (with __metadata injected) and etag.
func (b *Backend) loadItem(ctx context.Context, list string, id int64) (map[string]any, string, error) {
	fields, etag, err := b.loadRawItem(ctx, list, id)
	if err != nil {
		return nil, "", err
	}
	withMeta, err := decodeFields(mustJSON(fields), etag)
	if err != nil {
		return nil, "", err
	}
	return withMeta, etag, nil
}

// loadRawItem returns the stored fields without metadata injection.
func (b *Backend) loadRawItem(ctx context.Context, list string, id int64) (map[string]any, string, error) {
	var (
		etag   string
		stored string
	)
	row := b.db.QueryRowContext(ctx,
		"SELECT etag, fields FROM list_items WHERE list = ? AND id = ?", list, id)
	if err := row.Scan(&etag, &stored); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, "", fmt.Errorf("%w: %s(%d)", ErrNotFound, list, id)
		}
		return nil, "", fmt.Errorf("load %q item: %w", list, err)
	}
	fields := make(map[string]any)
	if err := json.Unmarshal([]byte(stored), &fields); err != nil {
		return nil, "", fmt.Errorf("decode stored %q item: %w", list, err)
	}
	return fields, etag, nil
}

// decodeFields parses stored JSON and injects the __metadata block carrying
// the concurrency token, matching what a remote list service returns.
func decodeFields(stored, etag string) (map[string]any, error) {
	fields := make(map[string]any)
	if err := json.Unmarshal([]byte(stored), &fields); err != nil {
		return nil, fmt.Errorf("decode stored item: %w", err)
	}
	fields["__metadata"] = map[string]any{"etag": etag}
	return fields, nil
}

// checkToken enforces If-Match semantics: empty or * is unconditional,
// anything else must equal the stored token.
func checkToken(ifMatch, etag string) error {
	if ifMatch == "" || ifMatch == "*" || ifMatch == etag {
		return nil
	}
	return fmt.Errorf("%w: stale token %q", ErrConflict, ifMatch)
}

func ifMatchHeader(etag string) http.Header {
	h := make(http.Header)
	if etag == "" {
		h.Set("If-Match", "*")
	} else {
		h.Set("If-Match", etag)
	}
	return h
}

// newETag mints an opaque concurrency token.
func newETag() string {
	return uuid.NewString()
}

func mustJSON(v any) string {
	data, err := json.Marshal(v)
	if err != nil {
		return "{}"
	}
	return string(data)
}
