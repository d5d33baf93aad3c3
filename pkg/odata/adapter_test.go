package odata

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lasarvit/listmap/internal/httpx"
	"github.com/lasarvit/listmap/pkg/listmap"
)

// nopTransport satisfies listmap.Transport for constructing record types in
// tests that exercise BuildRequest directly.
type nopTransport struct{}

func (nopTransport) BuildRequest(rt *listmap.RecordType, op listmap.Operation, p listmap.Params) (*listmap.Request, error) {
	return nil, nil
}

func (nopTransport) Do(ctx context.Context, req *listmap.Request) (*listmap.Response, error) {
	return nil, nil
}

func newType(t *testing.T, name string, opts *listmap.Options) *listmap.RecordType {
	t.Helper()
	rt, err := listmap.New(nopTransport{}, name, opts)
	require.NoError(t, err)
	return rt
}

func TestBuildRequest_Get(t *testing.T) {
	a := NewWithClient(nil)
	rt := newType(t, "team tasks", nil)

	req, err := a.BuildRequest(rt, listmap.OpGet, listmap.Params{
		ID:    7,
		Query: listmap.Query{"$select": "Title"},
	})
	require.NoError(t, err)

	assert.Equal(t, http.MethodGet, req.Method)
	assert.Equal(t, "lists('Team_x0020_tasks')/items(7)", req.Path)
	assert.Equal(t, "Title", req.Query.Get("$select"))
	assert.Equal(t, contentTypeJSON, req.Header.Get("Accept"))
	assert.Nil(t, req.Body)
}

func TestBuildRequest_Query(t *testing.T) {
	a := NewWithClient(nil)
	rt := newType(t, "tasks", nil)

	req, err := a.BuildRequest(rt, listmap.OpQuery, listmap.Params{
		Query: listmap.Query{"$filter": "Done eq 0", "$top": 5},
	})
	require.NoError(t, err)

	assert.Equal(t, http.MethodGet, req.Method)
	assert.Equal(t, "lists('Tasks')/items", req.Path)
	assert.Equal(t, "Done eq 0", req.Query.Get("$filter"))
	assert.Equal(t, "5", req.Query.Get("$top"))
}

func TestBuildRequest_HostWeb(t *testing.T) {
	a := NewWithClient(nil)
	rt := newType(t, "tasks", &listmap.Options{InHostWeb: true})

	req, err := a.BuildRequest(rt, listmap.OpQuery, listmap.Params{})
	require.NoError(t, err)
	assert.Equal(t, "host/lists('Tasks')/items", req.Path)
}

func TestBuildRequest_Create(t *testing.T) {
	a := NewWithClient(nil)
	rt := newType(t, "tasks", nil)
	item := rt.NewRecord(map[string]any{"Title": "x", "Created": "yesterday"})

	req, err := a.BuildRequest(rt, listmap.OpCreate, listmap.Params{Item: item})
	require.NoError(t, err)

	assert.Equal(t, http.MethodPost, req.Method)
	assert.Equal(t, "lists('Tasks')/items", req.Path)
	assert.Equal(t, contentTypeJSON, req.Header.Get("Content-Type"))

	var payload map[string]any
	require.NoError(t, json.Unmarshal(req.Body, &payload))
	assert.Equal(t, "x", payload["Title"])
	assert.NotContains(t, payload, "Created", "read-only fields are stripped")
	meta, ok := payload["__metadata"].(map[string]any)
	require.True(t, ok, "create payload carries the type stamp")
	assert.Equal(t, "Tasks", meta["type"])
}

func TestBuildRequest_Update(t *testing.T) {
	a := NewWithClient(nil)
	rt := newType(t, "tasks", nil)

	t.Run("with token", func(t *testing.T) {
		item := rt.NewRecord(map[string]any{"Id": 3, "Title": "x"})
		req, err := a.BuildRequest(rt, listmap.OpUpdate, listmap.Params{
			Item: item,
			ETag: `W/"4"`,
		})
		require.NoError(t, err)

		assert.Equal(t, http.MethodPost, req.Method)
		assert.Equal(t, "lists('Tasks')/items(3)", req.Path)
		assert.Equal(t, "MERGE", req.Header.Get("X-HTTP-Method"))
		assert.Equal(t, `W/"4"`, req.Header.Get("If-Match"))

		var payload map[string]any
		require.NoError(t, json.Unmarshal(req.Body, &payload))
		assert.NotContains(t, payload, "Id", "read-only fields are stripped")
		assert.NotContains(t, payload, "__metadata", "updates are not type-stamped")
	})

	t.Run("without token writes unconditionally", func(t *testing.T) {
		item := rt.NewRecord(map[string]any{"Id": 3})
		req, err := a.BuildRequest(rt, listmap.OpUpdate, listmap.Params{Item: item})
		require.NoError(t, err)
		assert.Equal(t, "*", req.Header.Get("If-Match"))
	})

	t.Run("missing id", func(t *testing.T) {
		item := rt.NewRecord(map[string]any{"Title": "x"})
		_, err := a.BuildRequest(rt, listmap.OpUpdate, listmap.Params{Item: item})
		assert.ErrorIs(t, err, listmap.ErrMissingID)
	})
}

func TestBuildRequest_Delete(t *testing.T) {
	a := NewWithClient(nil)
	rt := newType(t, "tasks", nil)
	item := rt.NewRecord(map[string]any{"Id": 9})

	req, err := a.BuildRequest(rt, listmap.OpDelete, listmap.Params{
		Item: item,
		ETag: `W/"2"`,
	})
	require.NoError(t, err)

	assert.Equal(t, http.MethodDelete, req.Method)
	assert.Equal(t, "lists('Tasks')/items(9)", req.Path)
	assert.Equal(t, `W/"2"`, req.Header.Get("If-Match"))
	assert.Nil(t, req.Body)

	_, err = a.BuildRequest(rt, listmap.OpDelete, listmap.Params{Item: rt.NewRecord(nil)})
	assert.ErrorIs(t, err, listmap.ErrMissingID)
}

func newTestAdapter(t *testing.T, handler http.HandlerFunc) *Adapter {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	a, err := New(srv.URL)
	require.NoError(t, err)
	return a
}

func TestDo_UnwrapsEnvelope(t *testing.T) {
	t.Run("collection", func(t *testing.T) {
		a := newTestAdapter(t, func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("Content-Type", contentTypeJSON)
			w.Write([]byte(`{"d":{"results":[{"Id":1},{"Id":2}]}}`))
		})

		resp, err := a.Do(context.Background(), &listmap.Request{Method: "GET", Path: "lists('Tasks')/items"})
		require.NoError(t, err)

		seq, ok := resp.Data.([]any)
		require.True(t, ok)
		assert.Len(t, seq, 2)
	})

	t.Run("single", func(t *testing.T) {
		a := newTestAdapter(t, func(w http.ResponseWriter, r *http.Request) {
			w.Write([]byte(`{"d":{"Id":1,"Title":"x"}}`))
		})

		resp, err := a.Do(context.Background(), &listmap.Request{Method: "GET", Path: "lists('Tasks')/items(1)"})
		require.NoError(t, err)

		m, ok := resp.Data.(map[string]any)
		require.True(t, ok)
		assert.Equal(t, "x", m["Title"])
	})

	t.Run("no envelope passes through", func(t *testing.T) {
		a := newTestAdapter(t, func(w http.ResponseWriter, r *http.Request) {
			w.Write([]byte(`{"Id":1}`))
		})

		resp, err := a.Do(context.Background(), &listmap.Request{Method: "GET", Path: "x"})
		require.NoError(t, err)

		m, ok := resp.Data.(map[string]any)
		require.True(t, ok)
		assert.Equal(t, 1.0, m["Id"])
	})
}

func TestDo_EmptyBody(t *testing.T) {
	a := newTestAdapter(t, func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("ETag", `W/"9"`)
		w.WriteHeader(http.StatusNoContent)
	})

	resp, err := a.Do(context.Background(), &listmap.Request{Method: "POST", Path: "x"})
	require.NoError(t, err)
	assert.Equal(t, http.StatusNoContent, resp.Status)
	assert.Nil(t, resp.Data)
	assert.Equal(t, `W/"9"`, resp.Header.Get("ETag"))
}

func TestDo_HTTPError(t *testing.T) {
	a := newTestAdapter(t, func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "gone", http.StatusNotFound)
	})

	_, err := a.Do(context.Background(), &listmap.Request{Method: "GET", Path: "x"})
	var httpErr *httpx.HTTPError
	require.ErrorAs(t, err, &httpErr)
	assert.Equal(t, http.StatusNotFound, httpErr.StatusCode)
}

func TestAdapter_EndToEnd(t *testing.T) {
	var gotPath, gotMethod, gotMerge, gotIfMatch string
	a := newTestAdapter(t, func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		gotMethod = r.Method
		gotMerge = r.Header.Get("X-HTTP-Method")
		gotIfMatch = r.Header.Get("If-Match")
		w.Header().Set("ETag", `W/"2"`)
		w.WriteHeader(http.StatusNoContent)
	})

	rt, err := listmap.New(a, "tasks", nil)
	require.NoError(t, err)

	item := rt.NewRecord(map[string]any{
		"Id":         3,
		"Title":      "x",
		"__metadata": map[string]any{"etag": `W/"1"`},
	})

	res, err := rt.Update(context.Background(), item, nil)
	require.NoError(t, err)
	_, err = res.Await(context.Background())
	require.NoError(t, err)

	assert.Equal(t, "/lists('Tasks')/items(3)", gotPath)
	assert.Equal(t, http.MethodPost, gotMethod)
	assert.Equal(t, "MERGE", gotMerge)
	assert.Equal(t, `W/"1"`, gotIfMatch)
	assert.Equal(t, `W/"2"`, item.Meta.ETag, "token from the response header replaces the stored one")
}
