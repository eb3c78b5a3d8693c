package site

import (
	"sort"
	"strings"

	"git.home.luguber.info/inful/sitegen/internal/content"
)

// TagGroup collects the posts sharing one tag slug. Name is the first-seen
// spelling of the tag; distinct spellings that slugify identically merge into
// a single group under the first spelling.
type TagGroup struct {
	Name  string
	Slug  string
	Posts []content.Post
}

// URL returns the tag detail page location.
func (g TagGroup) URL() string { return "/tags/" + g.Slug + "/" }

// SlugifyTag lowercases the tag, maps each space to a hyphen and strips every
// character outside [a-z0-9_-].
func SlugifyTag(tag string) string {
	var b strings.Builder
	for _, r := range strings.ToLower(tag) {
		switch {
		case r == ' ':
			b.WriteByte('-')
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9', r == '_', r == '-':
			b.WriteRune(r)
		}
	}
	return b.String()
}

// buildTagGroups maps tags to their posts, iterating posts in final sort
// order and each post's tags in front-matter order. A post appears at most
// once per group even when several of its tags share a slug. Groups come back
// sorted case-insensitively by display name.
func buildTagGroups(posts []content.Post) []TagGroup {
	index := make(map[string]int)
	groups := []TagGroup{}
	for _, post := range posts {
		for _, tag := range post.Tags {
			slug := SlugifyTag(tag)
			i, ok := index[slug]
			if !ok {
				i = len(groups)
				index[slug] = i
				groups = append(groups, TagGroup{Name: tag, Slug: slug})
			}
			if !groupContains(groups[i].Posts, post.URL) {
				groups[i].Posts = append(groups[i].Posts, post)
			}
		}
	}
	sort.SliceStable(groups, func(a, b int) bool {
		return strings.ToLower(groups[a].Name) < strings.ToLower(groups[b].Name)
	})
	return groups
}

func groupContains(posts []content.Post, url string) bool {
	for _, p := range posts {
		if p.URL == url {
			return true
		}
	}
	return false
}
