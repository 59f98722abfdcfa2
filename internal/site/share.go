package site

import (
	"net/url"
	"time"

	"github.com/CageChen/markpress/internal/content"
)

// ShareLink is one "share this page" target.
type ShareLink struct {
	Name string
	URL  string
}

// ShareLinks returns share targets for the page at pageURL.
func ShareLinks(pageURL, title string) []ShareLink {
	u := url.QueryEscape(pageURL)
	t := url.QueryEscape(title)
	return []ShareLink{
		{Name: "X", URL: "https://x.com/intent/tweet?url=" + u + "&text=" + t},
		{Name: "LinkedIn", URL: "https://www.linkedin.com/sharing/share-offsite/?url=" + u},
		{Name: "Email", URL: "mailto:?subject=" + url.PathEscape(title) + "&body=" + u},
	}
}

// articleLD is the schema.org metadata embedded in a page.
func articleLD(opts Options, r *Rendered) map[string]any {
	ld := map[string]any{
		"@context":      "https://schema.org",
		"@type":         "Article",
		"headline":      r.Doc.Title,
		"url":           opts.BaseURL + r.URL,
		"datePublished": r.Page.Meta.Date.Format(time.RFC3339),
		"dateModified":  r.Page.ModTime.Format(time.RFC3339),
	}
	if r.Page.Meta.Kind == content.KindTutorial {
		ld["@type"] = "TechArticle"
	}
	if r.Page.Meta.Description != "" {
		ld["description"] = r.Page.Meta.Description
	}
	if r.Page.Meta.Author != "" {
		ld["author"] = map[string]any{"@type": "Person", "name": r.Page.Meta.Author}
	}
	if len(r.Page.Meta.Tags) > 0 {
		ld["keywords"] = r.Page.Meta.Tags
	}
	return ld
}
