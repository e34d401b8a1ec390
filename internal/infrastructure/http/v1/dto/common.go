// Package dto provides the request and response shapes of the mock backend.
package dto

import (
	"net/url"
	"strconv"
)

// DefaultPageSize is used when a list request carries no limit.
const DefaultPageSize = 20

// Envelope wraps every successful non-list payload.
type Envelope struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
	Data    any    `json:"data"`
}

// Success wraps data in a success envelope.
func Success(data any) Envelope {
	return Envelope{Code: 0, Message: "success", Data: data}
}

// PageRequest holds the pagination query parameters.
type PageRequest struct {
	Page  int `form:"page" binding:"omitempty,min=1"`
	Limit int `form:"limit" binding:"omitempty,min=1,max=100"`
}

// Defaults sets default pagination values.
func (p *PageRequest) Defaults() {
	if p.Page == 0 {
		p.Page = 1
	}
	if p.Limit == 0 {
		p.Limit = DefaultPageSize
	}
}

// Page is the envelope payload of a paginated list.
type Page[T any] struct {
	Total int `json:"total"`
	Page  int `json:"page"`
	Limit int `json:"limit"`
	Items []T `json:"items"`
}

// NewPage builds a Page, never with a nil Items.
func NewPage[T any](items []T, total int, req PageRequest) Page[T] {
	if items == nil {
		items = []T{}
	}
	return Page[T]{Total: total, Page: req.Page, Limit: req.Limit, Items: items}
}

// ResultsPage is the framework-default paginated list, sent without an
// envelope.
type ResultsPage[T any] struct {
	Count    int     `json:"count"`
	Next     *string `json:"next"`
	Previous *string `json:"previous"`
	Results  []T     `json:"results"`
}

// NewResultsPage builds a ResultsPage with next/previous links derived from
// the request URL.
func NewResultsPage[T any](items []T, total int, req PageRequest, requestURL *url.URL) ResultsPage[T] {
	if items == nil {
		items = []T{}
	}
	out := ResultsPage[T]{Count: total, Results: items}
	if req.Page*req.Limit < total {
		out.Next = pageLink(requestURL, req.Page+1)
	}
	if req.Page > 1 {
		out.Previous = pageLink(requestURL, req.Page-1)
	}
	return out
}

func pageLink(u *url.URL, page int) *string {
	link := *u
	q := link.Query()
	q.Set("page", strconv.Itoa(page))
	link.RawQuery = q.Encode()
	s := link.String()
	return &s
}
