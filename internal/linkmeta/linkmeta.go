package linkmeta

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
)

// ErrInvalidLink is returned when a link cannot be fetched or parsed.
var ErrInvalidLink = errors.New("invalid link")

const maxBodyBytes = 5 << 20

// Metadata is what the recipe form can be pre-filled with.
type Metadata struct {
	Title   string `json:"title"`
	Author  string `json:"author"`
	Image   string `json:"image"`
	Favicon string `json:"favicon"`
}

// Fetcher handles fetching recipe pages and extracting their metadata.
type Fetcher struct {
	httpClient *http.Client
	userAgent  string
}

// NewFetcher creates a new Fetcher whose requests give up after timeout.
func NewFetcher(timeout time.Duration) *Fetcher {
	return &Fetcher{
		httpClient: &http.Client{Timeout: timeout},
		userAgent:  "recipebox/1.0 (+link preview)",
	}
}

// Fetch downloads link and extracts its title, author, image and favicon.
func (f *Fetcher) Fetch(ctx context.Context, link string) (Metadata, error) {
	pageURL, err := url.Parse(link)
	if err != nil || pageURL.Host == "" || (pageURL.Scheme != "http" && pageURL.Scheme != "https") {
		return Metadata{}, ErrInvalidLink
	}

	doc, err := f.fetchDocument(ctx, pageURL.String())
	if err != nil {
		return Metadata{}, fmt.Errorf("%w: %v", ErrInvalidLink, err)
	}

	return extract(doc, pageURL), nil
}

func (f *Fetcher) fetchDocument(ctx context.Context, link string) (*goquery.Document, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, link, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("User-Agent", f.userAgent)
	req.Header.Set("Accept", "text/html,application/xhtml+xml")

	resp, err := f.httpClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("failed to fetch URL: status %d", resp.StatusCode)
	}

	return goquery.NewDocumentFromReader(io.LimitReader(resp.Body, maxBodyBytes))
}

func extract(doc *goquery.Document, pageURL *url.URL) Metadata {
	return Metadata{
		Title: firstNonEmpty(
			strings.TrimSpace(doc.Find("head title").First().Text()),
			metaContent(doc, "og:title"),
		),
		Author: firstNonEmpty(
			metaContent(doc, "author"),
			metaContent(doc, "og:site_name"),
			metaContent(doc, "twitter:site"),
		),
		Image: firstNonEmpty(
			metaContent(doc, "image"),
			metaContent(doc, "og:image"),
		),
		Favicon: favicon(doc, pageURL),
	}
}

// metaContent looks a meta tag up by name or property.
func metaContent(doc *goquery.Document, key string) string {
	selector := fmt.Sprintf(`meta[name=%q], meta[property=%q]`, key, key)
	var content string
	doc.Find(selector).EachWithBreak(func(_ int, s *goquery.Selection) bool {
		content = strings.TrimSpace(s.AttrOr("content", ""))
		return content == ""
	})
	return content
}

// favicon resolves the first rel="icon" link against the page, falling back
// to /favicon.ico at the page origin.
func favicon(doc *goquery.Document, pageURL *url.URL) string {
	origin := &url.URL{Scheme: pageURL.Scheme, Host: pageURL.Host}

	var href string
	doc.Find("link[rel]").EachWithBreak(func(_ int, s *goquery.Selection) bool {
		if !strings.EqualFold(strings.TrimSpace(s.AttrOr("rel", "")), "icon") {
			return true
		}
		href = strings.TrimSpace(s.AttrOr("href", ""))
		return href == ""
	})

	if href != "" {
		if ref, err := url.Parse(href); err == nil {
			return pageURL.ResolveReference(ref).String()
		}
	}
	return origin.String() + "/favicon.ico"
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
