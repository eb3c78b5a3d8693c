package site

import (
	"fmt"

	"git.home.luguber.info/inful/sitegen/internal/content"
)

// PageRef describes one page of the paginated post index.
type PageRef struct {
	Number  int
	Posts   []content.Post
	URL     string
	PrevURL string // empty on the first page
	NextURL string // empty on the last page
}

// paginate splits posts into fixed-size pages, always yielding at least one
// page. Page 1 is the root index; later pages live at /page/N/, and page 2
// points back to the root.
func paginate(posts []content.Post, perPage int) []PageRef {
	if perPage < 1 {
		perPage = 1
	}
	total := (len(posts) + perPage - 1) / perPage
	if total < 1 {
		total = 1
	}
	pages := make([]PageRef, 0, total)
	for n := 1; n <= total; n++ {
		start := (n - 1) * perPage
		end := start + perPage
		if end > len(posts) {
			end = len(posts)
		}
		ref := PageRef{Number: n, Posts: posts[start:end], URL: pageURL(n)}
		if n > 1 {
			ref.PrevURL = pageURL(n - 1)
		}
		if n < total {
			ref.NextURL = pageURL(n + 1)
		}
		pages = append(pages, ref)
	}
	return pages
}

func pageURL(n int) string {
	if n <= 1 {
		return "/"
	}
	return fmt.Sprintf("/page/%d/", n)
}
