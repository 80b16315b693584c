// Package listutil parses review-queue query parameters and slices an
// ordered result into one page.
package listutil

import (
	"iter"
	"net/url"
	"strconv"
	"strings"
)

// DefaultPerPage is the page size when per_page is missing or unparsable.
const DefaultPerPage = 20

// MaxPerPage caps per_page.
const MaxPerPage = 100

// PageParams carries pagination parameters parsed from a request.
type PageParams struct {
	Page    int // 1-indexed
	PerPage int
}

// FilterParams carries the free-text search and the recognised filters.
type FilterParams struct {
	Search  string
	Filters map[string]string
}

// PageInfo describes the page actually served.
type PageInfo struct {
	Page       int
	PerPage    int
	Total      int
	TotalPages int
}

// ParsePageParams extracts page and per_page.
// POST: Page >= 1; 1 <= PerPage <= MaxPerPage
func ParsePageParams(q url.Values) PageParams {
	page, _ := strconv.Atoi(q.Get("page"))
	if page < 1 {
		page = 1
	}
	perPage, err := strconv.Atoi(q.Get("per_page"))
	switch {
	case err != nil || perPage < 1:
		perPage = DefaultPerPage
	case perPage > MaxPerPage:
		perPage = MaxPerPage
	}
	return PageParams{Page: page, PerPage: perPage}
}

// ParseFilterParams extracts q and the named filters, trimming whitespace.
// PRE: filterKeys lists the accepted filter names
// POST: Filters holds only recognised, non-blank keys
func ParseFilterParams(q url.Values, filterKeys []string) FilterParams {
	fp := FilterParams{
		Search:  strings.TrimSpace(q.Get("q")),
		Filters: make(map[string]string, len(filterKeys)),
	}
	for _, key := range filterKeys {
		if v := strings.TrimSpace(q.Get(key)); v != "" {
			fp.Filters[key] = v
		}
	}
	return fp
}

// NewPageInfo computes page metadata, clamping page into range.
// PRE: total >= 0
func NewPageInfo(page, perPage, total int) PageInfo {
	if perPage < 1 {
		perPage = DefaultPerPage
	}
	totalPages := max((total+perPage-1)/perPage, 1)
	page = min(max(page, 1), totalPages)
	return PageInfo{
		Page:       page,
		PerPage:    perPage,
		Total:      total,
		TotalPages: totalPages,
	}
}

// Offset is the number of items before the current page.
func (p PageInfo) Offset() int {
	return (p.Page - 1) * p.PerPage
}

// EndRow is the exclusive end index of the current page.
func (p PageInfo) EndRow() int {
	return min(p.Offset()+p.PerPage, p.Total)
}

// Window collects the items of seq that fall on the current page.
// Iteration stops at the end of the page.
func Window[T any](seq iter.Seq[T], p PageInfo) []T {
	start, end := p.Offset(), p.EndRow()
	out := make([]T, 0, max(end-start, 0))
	i := 0
	for v := range seq {
		if i >= end {
			break
		}
		if i >= start {
			out = append(out, v)
		}
		i++
	}
	return out
}
