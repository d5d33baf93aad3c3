package sqlite

import (
	"net/url"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseFilter(t *testing.T) {
	conds, err := parseFilter("Done eq true and Title eq 'a b'")
	require.NoError(t, err)
	require.Len(t, conds, 2)
	assert.Equal(t, condition{field: "Done", value: "true"}, conds[0])
	assert.Equal(t, condition{field: "Title", value: "a b"}, conds[1])

	_, err = parseFilter("Title gt 'a'")
	assert.Error(t, err)

	_, err = parseFilter(" eq 'a'")
	assert.Error(t, err)
}

func TestApplyQuery_InvalidOptions(t *testing.T) {
	items := []map[string]any{{"Id": 1.0}}

	_, err := applyQuery(items, url.Values{"$top": {"many"}})
	assert.Error(t, err)

	_, err = applyQuery(items, url.Values{"$skip": {"x"}})
	assert.Error(t, err)

	_, err = applyQuery(items, url.Values{"$filter": {"nonsense"}})
	assert.Error(t, err)
}

func TestApplyQuery_Bounds(t *testing.T) {
	items := []map[string]any{{"Id": 1.0}, {"Id": 2.0}}

	out, err := applyQuery(items, url.Values{"$skip": {"5"}})
	require.NoError(t, err)
	assert.Empty(t, out)

	out, err = applyQuery(items, url.Values{"$top": {"5"}})
	require.NoError(t, err)
	assert.Len(t, out, 2)

	out, err = applyQuery(items, url.Values{"$top": {"0"}})
	require.NoError(t, err)
	assert.Empty(t, out)
}

func TestCompareValues(t *testing.T) {
	assert.Negative(t, compareValues(2.0, 10.0), "numbers compare numerically")
	assert.Positive(t, compareValues("b", "a"))
	assert.Zero(t, compareValues(1.0, 1.0))
}
