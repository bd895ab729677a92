// Package listview derives the displayed employee list from a store snapshot.
package listview

import (
	"net/url"
	"slices"
	"strings"
	"time"

	"ignite/internal/employee"
)

type SortField string

const (
	SortNone      SortField = ""
	SortName      SortField = "name"
	SortCreatedAt SortField = "createdAt"
)

type Order string

const (
	Asc  Order = "asc"
	Desc Order = "desc"
)

type Layout string

const (
	LayoutList Layout = "list"
	LayoutGrid Layout = "grid"
)

// Query is the user's current filter, sort and layout selection.
type Query struct {
	Search string
	SortBy SortField
	Order  Order
	Layout Layout
}

// ParseQuery reads q, sort, order and view. Unknown values fall back to the
// defaults instead of failing.
func ParseQuery(v url.Values) Query {
	q := Query{
		Search: strings.TrimSpace(v.Get("q")),
		Order:  Asc,
		Layout: LayoutList,
	}
	switch SortField(v.Get("sort")) {
	case SortName:
		q.SortBy = SortName
	case SortCreatedAt:
		q.SortBy = SortCreatedAt
	}
	if Order(strings.ToLower(v.Get("order"))) == Desc {
		q.Order = Desc
	}
	if Layout(v.Get("view")) == LayoutGrid {
		q.Layout = LayoutGrid
	}
	return q
}

// Values encodes q back into query parameters, omitting defaults.
func (q Query) Values() url.Values {
	v := url.Values{}
	if q.Search != "" {
		v.Set("q", q.Search)
	}
	if q.SortBy != SortNone {
		v.Set("sort", string(q.SortBy))
		v.Set("order", string(q.Order))
	}
	if q.Layout == LayoutGrid {
		v.Set("view", string(LayoutGrid))
	}
	return v
}

// Project filters and sorts records. The input slice is never modified and
// records that compare equal keep their original order.
func Project(records []employee.Record, q Query) []employee.Record {
	out := make([]employee.Record, 0, len(records))
	needle := strings.ToLower(q.Search)
	for _, r := range records {
		if needle == "" || strings.Contains(strings.ToLower(r.FullName()), needle) {
			out = append(out, r)
		}
	}

	var cmp func(a, b employee.Record) int
	switch q.SortBy {
	case SortName:
		cmp = func(a, b employee.Record) int {
			return strings.Compare(strings.ToLower(a.FullName()), strings.ToLower(b.FullName()))
		}
	case SortCreatedAt:
		cmp = func(a, b employee.Record) int {
			return createdAt(a).Compare(createdAt(b))
		}
	default:
		return out
	}

	if q.Order == Desc {
		asc := cmp
		cmp = func(a, b employee.Record) int { return asc(b, a) }
	}
	slices.SortStableFunc(out, cmp)
	return out
}

func createdAt(r employee.Record) time.Time {
	t, _ := r.CreatedTime()
	return t
}
