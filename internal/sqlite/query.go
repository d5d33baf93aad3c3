package sqlite

import (
	"fmt"
	"net/url"
	"sort"
	"strconv"
	"strings"
)

// applyQuery evaluates recognized query options over decoded items, in the
// order filter, orderby, skip, top, select. Unrecognized options are ignored.
func applyQuery(items []map[string]any, q url.Values) ([]map[string]any, error) {
	if filter := q.Get("$filter"); filter != "" {
		conds, err := parseFilter(filter)
		if err != nil {
			return nil, err
		}
		kept := items[:0:0]
		for _, item := range items {
			if matchAll(item, conds) {
				kept = append(kept, item)
			}
		}
		items = kept
	}

	if orderBy := q.Get("$orderby"); orderBy != "" {
		field, desc := parseOrderBy(orderBy)
		sort.SliceStable(items, func(i, j int) bool {
			less := compareValues(items[i][field], items[j][field]) < 0
			if desc {
				return !less
			}
			return less
		})
	}

	if skip := q.Get("$skip"); skip != "" {
		n, err := strconv.Atoi(skip)
		if err != nil {
			return nil, fmt.Errorf("invalid $skip %q: %w", skip, err)
		}
		if n > len(items) {
			n = len(items)
		}
		if n > 0 {
			items = items[n:]
		}
	}

	if top := q.Get("$top"); top != "" {
		n, err := strconv.Atoi(top)
		if err != nil {
			return nil, fmt.Errorf("invalid $top %q: %w", top, err)
		}
		if n >= 0 && n < len(items) {
			items = items[:n]
		}
	}

	if sel := selectOption(q); sel != nil {
		projected := make([]map[string]any, len(items))
		for i, item := range items {
			projected[i] = project(item, sel)
		}
		items = projected
	}

	return items, nil
}

// condition is one "Field eq value" clause of a $filter conjunction.
type condition struct {
	field string
	value string
}

// parseFilter supports conjunctions of equality clauses: "A eq 1 and B eq 'x'".
func parseFilter(filter string) ([]condition, error) {
	var conds []condition
	for _, clause := range strings.Split(filter, " and ") {
		parts := strings.SplitN(strings.TrimSpace(clause), " eq ", 2)
		if len(parts) != 2 || parts[0] == "" {
			return nil, fmt.Errorf("unsupported $filter clause %q", clause)
		}
		conds = append(conds, condition{
			field: strings.TrimSpace(parts[0]),
			value: unquote(strings.TrimSpace(parts[1])),
		})
	}
	return conds, nil
}

func matchAll(item map[string]any, conds []condition) bool {
	for _, c := range conds {
		v, ok := item[c.field]
		if !ok || fmt.Sprint(v) != c.value {
			return false
		}
	}
	return true
}

func parseOrderBy(orderBy string) (field string, desc bool) {
	parts := strings.Fields(orderBy)
	if len(parts) == 0 {
		return "", false
	}
	return parts[0], len(parts) > 1 && strings.EqualFold(parts[1], "desc")
}

// compareValues orders numbers numerically and everything else as strings.
func compareValues(a, b any) int {
	af, aok := a.(float64)
	bf, bok := b.(float64)
	if aok && bok {
		switch {
		case af < bf:
			return -1
		case af > bf:
			return 1
		default:
			return 0
		}
	}
	return strings.Compare(fmt.Sprint(a), fmt.Sprint(b))
}

// selectOption returns the projected field set, or nil when $select is absent.
func selectOption(q url.Values) map[string]bool {
	sel := q.Get("$select")
	if sel == "" {
		return nil
	}
	fields := make(map[string]bool)
	for _, f := range strings.Split(sel, ",") {
		if f = strings.TrimSpace(f); f != "" {
			fields[f] = true
		}
	}
	return fields
}

// project keeps the selected fields plus the metadata block.
func project(item map[string]any, sel map[string]bool) map[string]any {
	if sel == nil {
		return item
	}
	out := make(map[string]any, len(sel)+1)
	for k, v := range item {
		if sel[k] || k == "__metadata" {
			out[k] = v
		}
	}
	return out
}

func unquote(s string) string {
	if len(s) >= 2 && strings.HasPrefix(s, "'") && strings.HasSuffix(s, "'") {
		return s[1 : len(s)-1]
	}
	return s
}
