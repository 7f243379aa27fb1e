package utils

import (
	"strconv"
	"strings"
)

const (
	DefaultPerPage = 15
	MaxPerPage     = 100
)

// Pagination is a normalized page request.
type Pagination struct {
	Page    int `json:"page"`
	PerPage int `json:"per_page"`
}

// ParsePagination reads page/per_page strings, falling back to defaults on bad input.
func ParsePagination(pageStr, perPageStr string) Pagination {
	p := Pagination{Page: 1, PerPage: DefaultPerPage}
	if v, err := strconv.Atoi(strings.TrimSpace(pageStr)); err == nil && v > 0 {
		p.Page = v
	}
	if v, err := strconv.Atoi(strings.TrimSpace(perPageStr)); err == nil && v > 0 {
		if v > MaxPerPage {
			v = MaxPerPage
		}
		p.PerPage = v
	}
	return p
}

// Offset returns the row offset of the page.
func (p Pagination) Offset() int {
	return (p.Page - 1) * p.PerPage
}
