// Package pagination provides the page navigation shared by the public blog
// and the admin blog list.
package pagination

import "github.com/sourzer/sourzer-web/internal/domain"

// Data contains pagination information for display.
type Data struct {
	CurrentPage int
	TotalPages  int
	Total       int
	HasPrevious bool
	HasNext     bool
	PrevPage    int
	NextPage    int
}

// Config allows customization of pagination behavior.
type Config struct {
	BaseURL  string // e.g. "/blog" or "/admin/blogs"
	TargetID string // htmx target, e.g. "blog-list"
	UseHtmx  bool   // Enable htmx partial loading
	PushURL  bool   // Update browser URL with hx-push-url
}

// FromBlogPage builds Data from a page of the blog listing.
func FromBlogPage(p *domain.BlogPage) Data {
	if p == nil {
		return Data{CurrentPage: 1, TotalPages: 1}
	}
	current := max(p.Page, 1)
	total := max(p.LastPage, current)
	return Data{
		CurrentPage: current,
		TotalPages:  total,
		Total:       p.Total,
		HasPrevious: current > 1,
		HasNext:     current < total,
		PrevPage:    current - 1,
		NextPage:    current + 1,
	}
}

// PageRange returns a slice of page numbers for pagination display.
// Returns -1 for ellipsis positions.
func PageRange(currentPage, totalPages int) []int {
	if totalPages <= 7 {
		pages := make([]int, totalPages)
		for i := range pages {
			pages[i] = i + 1
		}
		return pages
	}

	pages := []int{1}

	start := currentPage - 1
	end := currentPage + 1

	if start <= 2 {
		start = 2
	}
	if end >= totalPages {
		end = totalPages - 1
	}

	if start > 2 {
		pages = append(pages, -1) // ellipsis
	}

	for i := start; i <= end; i++ {
		pages = append(pages, i)
	}

	if end < totalPages-1 {
		pages = append(pages, -1) // ellipsis
	}

	if totalPages > 1 {
		pages = append(pages, totalPages)
	}

	return pages
}
