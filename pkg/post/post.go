package post

import (
	"strconv"
	"time"
)

const DefaultPageSize = 10

type Post struct {
	Id        int64     `json:"id"`
	BoardType string    `json:"boardType"`
	Title     string    `json:"title"`
	Content   string    `json:"content"`
	UserId    int64     `json:"userId"`
	Writer    string    `json:"writer"`
	Views     int       `json:"views"`
	Created   time.Time `json:"created"`
}

// ListItem is one row of a board page. Content is intentionally absent:
// list queries never fetch it.
type ListItem struct {
	Id      int64     `json:"id"`
	Title   string    `json:"title"`
	Writer  string    `json:"writer"`
	Views   int       `json:"views"`
	Created time.Time `json:"created"`
}

type ListQuery struct {
	Page     int
	PageSize int
	Search   string
}

type ListPage struct {
	Items      []*ListItem `json:"posts"`
	Page       int         `json:"page"`
	TotalCount int         `json:"totalCount"`
	TotalPages int         `json:"totalPages"`

	// StartNumber is the descending display ordinal of the first row,
	// totalCount - offset. Zero or negative means the page is past the
	// end and Items is empty.
	StartNumber int    `json:"startNumber"`
	Search      string `json:"q"`
}

// NewListQuery builds a list query from raw URL parameters. Absent or
// malformed page values fall back to page 1; pages past the last one are
// kept as-is and simply yield an empty page.
func NewListQuery(rawPage, search string) ListQuery {
	page, err := strconv.Atoi(rawPage)
	if err != nil || page < 1 {
		page = 1
	}
	return ListQuery{
		Page:     page,
		PageSize: DefaultPageSize,
		Search:   search,
	}
}

func (q ListQuery) Offset() int {
	return (q.Page - 1) * q.PageSize
}
