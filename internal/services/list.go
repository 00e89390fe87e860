package services

import (
	"strings"
)

const (
	DefaultPageSize = 10
	MaxPageSize     = 100
)

// ListParams selects a page of records. Query matches any searchable text,
// Filters must equal the named fields exactly.
type ListParams struct {
	Query    string
	Filters  map[string]string
	Page     int
	PageSize int
}

// Page is one slice of a filtered list.
type Page[T any] struct {
	Items    []T `json:"items"`
	Total    int `json:"total"`
	Page     int `json:"page"`
	PageSize int `json:"pageSize"`
	Pages    int `json:"pages"`
}

// Paginate cuts items down to the requested page. Out of range pages are
// empty; sizes are clamped to MaxPageSize.
func Paginate[T any](items []T, page, size int) Page[T] {
	if size <= 0 {
		size = DefaultPageSize
	}
	if size > MaxPageSize {
		size = MaxPageSize
	}
	if page < 1 {
		page = 1
	}

	total := len(items)
	out := Page[T]{
		Items:    []T{},
		Total:    total,
		Page:     page,
		PageSize: size,
		Pages:    (total + size - 1) / size,
	}
	// Compare pages before multiplying so huge page numbers cannot overflow.
	if page > out.Pages {
		return out
	}
	start := (page - 1) * size
	end := min(start+size, total)
	out.Items = append(out.Items, items[start:end]...)
	return out
}

// Filter keeps the items whose searchable text contains query, ignoring case.
func Filter[T any](items []T, query string, text func(T) []string) []T {
	query = strings.ToLower(strings.TrimSpace(query))
	if query == "" || text == nil {
		return items
	}
	out := make([]T, 0, len(items))
	for _, it := range items {
		for _, s := range text(it) {
			if strings.Contains(strings.ToLower(s), query) {
				out = append(out, it)
				break
			}
		}
	}
	return out
}

// Match keeps the items whose fields equal every filter. Unknown filter
// names match nothing.
func Match[T any](items []T, filters map[string]string, fields func(T) map[string]string) []T {
	active := make(map[string]string, len(filters))
	for k, v := range filters {
		if v != "" {
			active[k] = v
		}
	}
	if len(active) == 0 {
		return items
	}
	out := make([]T, 0, len(items))
	for _, it := range items {
		var have map[string]string
		if fields != nil {
			have = fields(it)
		}
		ok := true
		for k, want := range active {
			if got, known := have[k]; !known || got != want {
				ok = false
				break
			}
		}
		if ok {
			out = append(out, it)
		}
	}
	return out
}
