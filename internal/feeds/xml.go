package feeds

import (
	"encoding/xml"
	"fmt"
	"time"

	"git.home.luguber.info/inful/sitegen/internal/config"
	"git.home.luguber.info/inful/sitegen/internal/content"
	"git.home.luguber.info/inful/sitegen/internal/render"
)

const atomNamespace = "http://www.w3.org/2005/Atom"

// RSS pubDate format, RFC 2822 with a literal GMT zone.
const rfc2822Layout = "Mon, 02 Jan 2006 15:04:05 GMT"

type rssDoc struct {
	XMLName xml.Name   `xml:"rss"`
	Version string     `xml:"version,attr"`
	Channel rssChannel `xml:"channel"`
}

type rssChannel struct {
	Title          string    `xml:"title"`
	Description    string    `xml:"description"`
	Link           string    `xml:"link"`
	Language       string    `xml:"language"`
	ManagingEditor string    `xml:"managingEditor,omitempty"`
	Items          []rssItem `xml:"item"`
}

type rssItem struct {
	Title       string `xml:"title"`
	Link        string `xml:"link"`
	GUID        string `xml:"guid"`
	PubDate     string `xml:"pubDate"`
	Description string `xml:"description,omitempty"`
}

type atomDoc struct {
	XMLName  xml.Name    `xml:"feed"`
	Xmlns    string      `xml:"xmlns,attr"`
	Lang     string      `xml:"xml:lang,attr"`
	Title    string      `xml:"title"`
	Subtitle string      `xml:"subtitle"`
	ID       string      `xml:"id"`
	Updated  string      `xml:"updated"`
	Links    []atomLink  `xml:"link"`
	Author   *atomAuthor `xml:"author,omitempty"`
	Entries  []atomEntry `xml:"entry"`
}

type atomLink struct {
	Rel  string `xml:"rel,attr,omitempty"`
	Href string `xml:"href,attr"`
}

type atomAuthor struct {
	Name  string `xml:"name"`
	Email string `xml:"email,omitempty"`
}

type atomSummary struct {
	Type string `xml:"type,attr"`
	Text string `xml:",chardata"`
}

type atomEntry struct {
	Title     string       `xml:"title"`
	ID        string       `xml:"id"`
	Link      atomLink     `xml:"link"`
	Published string       `xml:"published"`
	Updated   string       `xml:"updated"`
	Summary   *atomSummary `xml:"summary,omitempty"`
}

// Generate collects entries and writes the enabled feed formats under
// outputDir.
func Generate(s *Settings, posts []content.Post, pages []content.Page, site config.SiteMeta, author config.Author, outputDir string) error {
	entries := collectEntries(s, posts, pages)

	if s.RSSOutput != "" {
		data, err := marshalRSS(entries, s, site, author)
		if err != nil {
			return err
		}
		if err := render.WriteFile(outputDir, s.RSSOutput, data); err != nil {
			return err
		}
	}
	if s.AtomOutput != "" {
		data, err := marshalAtom(entries, s, site, author)
		if err != nil {
			return err
		}
		if err := render.WriteFile(outputDir, s.AtomOutput, data); err != nil {
			return err
		}
	}
	return nil
}

func marshalRSS(entries []Entry, s *Settings, site config.SiteMeta, author config.Author) ([]byte, error) {
	title, subtitle, language := siteStrings(site)

	channel := rssChannel{
		Title:       title,
		Description: subtitle,
		Link:        s.SiteURL,
		Language:    language,
	}
	if author.Email != "" {
		name := author.Name
		if name == "" {
			name = title
		}
		channel.ManagingEditor = fmt.Sprintf("%s (%s)", author.Email, name)
	}
	for _, e := range entries {
		channel.Items = append(channel.Items, rssItem{
			Title:       e.Title,
			Link:        e.URL,
			GUID:        e.GUID,
			PubDate:     formatRFC2822(e.Published),
			Description: e.Summary,
		})
	}

	out, err := xml.Marshal(rssDoc{Version: "2.0", Channel: channel})
	if err != nil {
		return nil, fmt.Errorf("encode rss feed: %w", err)
	}
	return append([]byte(xml.Header), out...), nil
}

func marshalAtom(entries []Entry, s *Settings, site config.SiteMeta, author config.Author) ([]byte, error) {
	title, subtitle, language := siteStrings(site)

	updated := time.Date(1970, 1, 1, 0, 0, 0, 0, time.UTC)
	if len(entries) > 0 {
		updated = entries[0].Updated
	}

	doc := atomDoc{
		Xmlns:    atomNamespace,
		Lang:     language,
		Title:    title,
		Subtitle: subtitle,
		ID:       s.SiteURL,
		Updated:  formatRFC3339(updated),
		Links:    []atomLink{{Rel: "alternate", Href: s.SiteURL}},
	}
	if s.AtomHref != "" {
		doc.Links = append(doc.Links, atomLink{Rel: "self", Href: s.SiteURL + s.AtomHref})
	}
	if author.Name != "" {
		doc.Author = &atomAuthor{Name: author.Name, Email: author.Email}
	}
	for _, e := range entries {
		entry := atomEntry{
			Title:     e.Title,
			ID:        e.GUID,
			Link:      atomLink{Href: e.URL},
			Published: formatRFC3339(e.Published),
			Updated:   formatRFC3339(e.Updated),
		}
		if e.Summary != "" {
			entry.Summary = &atomSummary{Type: "html", Text: e.Summary}
		}
		doc.Entries = append(doc.Entries, entry)
	}

	out, err := xml.Marshal(doc)
	if err != nil {
		return nil, fmt.Errorf("encode atom feed: %w", err)
	}
	return append([]byte(xml.Header), out...), nil
}

func siteStrings(site config.SiteMeta) (title, subtitle, language string) {
	title = site.Title
	if title == "" {
		title = "My Site"
	}
	subtitle = site.Subtitle
	if subtitle == "" {
		subtitle = title
	}
	language = site.Language
	if language == "" {
		language = "en"
	}
	return title, subtitle, language
}

func formatRFC2822(t time.Time) string {
	return t.UTC().Format(rfc2822Layout)
}

func formatRFC3339(t time.Time) string {
	return t.UTC().Format(time.RFC3339)
}
