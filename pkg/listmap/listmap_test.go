package listmap

import (
	"context"
	"strings"
	"sync"
	"testing"
	"unicode"

	"github.com/stretchr/testify/require"
)

// buildCall records one BuildRequest invocation for assertions.
type buildCall struct {
	op     Operation
	params Params
}

// stubTransport is a scriptable Transport: it records build calls and serves
// a canned response (or error) from Do. When gate is set, Do blocks until the
// gate closes, letting tests observe the placeholder before completion.
type stubTransport struct {
	mu     sync.Mutex
	builds []buildCall

	resp     *Response
	doErr    error
	buildErr error
	gate     chan struct{}
}

func (s *stubTransport) BuildRequest(rt *RecordType, op Operation, p Params) (*Request, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.buildErr != nil {
		return nil, s.buildErr
	}
	s.builds = append(s.builds, buildCall{op: op, params: p})
	return &Request{Method: "GET", Path: "stub"}, nil
}

func (s *stubTransport) Do(ctx context.Context, req *Request) (*Response, error) {
	if s.gate != nil {
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-s.gate:
		}
	}
	if s.doErr != nil {
		return nil, s.doErr
	}
	return s.resp, nil
}

func (s *stubTransport) calls() []buildCall {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]buildCall, len(s.builds))
	copy(out, s.builds)
	return out
}

func (s *stubTransport) lastCall(t *testing.T) buildCall {
	t.Helper()
	calls := s.calls()
	require.NotEmpty(t, calls)
	return calls[len(calls)-1]
}

func newTestType(t *testing.T, name string, opts *Options) *RecordType {
	t.Helper()
	rt, err := New(&stubTransport{}, name, opts)
	require.NoError(t, err)
	return rt
}

func newTypeWith(t *testing.T, tr Transport, name string, opts *Options) *RecordType {
	t.Helper()
	rt, err := New(tr, name, opts)
	require.NoError(t, err)
	return rt
}

// splitSeparator splits a type identifier on the separator token.
func splitSeparator(s string) []string {
	return strings.Split(s, Separator)
}

func isWordRune(r rune) bool {
	return unicode.IsLetter(r) || unicode.IsDigit(r)
}
