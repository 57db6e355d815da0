package profile

import (
	"net/url"
	"strings"
)

const defaultDescription = "Book services in minutes via one smart link"

// PageMeta is the metadata a renderer needs for a profile page.
type PageMeta struct {
	Title        string
	Description  string
	CanonicalURL string
}

// Meta derives page metadata for a resolution result. siteURL is the public
// site root (e.g. https://sfero.app) and product the brand appended to titles.
func Meta(slug string, res Result, siteURL, product string) PageMeta {
	m := PageMeta{
		Title:        "Profile " + slug + " — " + product,
		Description:  defaultDescription,
		CanonicalURL: CanonicalURL(siteURL, slug),
	}
	if res.Profile != nil {
		m.Title = res.Profile.DisplayName + " — " + product
		if res.Profile.Bio != "" {
			m.Description = res.Profile.Bio
		}
	}
	return m
}

// CanonicalURL returns {siteURL}/public/{slug} with the slug escaped as one
// path segment.
func CanonicalURL(siteURL, slug string) string {
	return strings.TrimRight(siteURL, "/") + "/public/" + url.PathEscape(slug)
}
