package site

import (
	"sort"
	"strings"

	"git.home.luguber.info/inful/sitegen/internal/content"
)

// NavItem is one entry of the site navigation menu.
type NavItem struct {
	Title string
	URL   string
	Order int
}

// buildNav selects pages flagged for navigation, inserts the synthetic Search
// entry (order 0) when a search page URL is provided, and sorts the result by
// (order, lowercased title).
func buildNav(pages []content.Page, searchURL string) []NavItem {
	items := []NavItem{}
	for _, page := range pages {
		if !page.ShowInNav {
			continue
		}
		items = append(items, NavItem{Title: page.NavLabel(), URL: page.URL, Order: page.NavOrder})
	}
	if searchURL != "" {
		items = append(items, NavItem{Title: "Search", URL: searchURL, Order: 0})
	}
	sort.SliceStable(items, func(i, j int) bool {
		if items[i].Order != items[j].Order {
			return items[i].Order < items[j].Order
		}
		return strings.ToLower(items[i].Title) < strings.ToLower(items[j].Title)
	})
	return items
}
