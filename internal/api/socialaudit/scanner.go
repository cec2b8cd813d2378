package socialaudit

import (
	"context"
	"fmt"
	"net/http"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"golang.org/x/sync/errgroup"

	"github.com/vipogroup/vipo-api/internal/types"
)

var staticPaths = []string{"/", "/products", "/about", "/contact", "/login", "/register"}

const (
	maxProductPages = 10
	fetchLimit      = 5
)

type Scanner struct {
	fetcher *Fetcher
	limit   int
}

func NewScanner(fetcher *Fetcher) *Scanner {
	return &Scanner{fetcher: fetcher, limit: fetchLimit}
}

// collect fetches every page. Fetch failures are recorded on the page, only
// context cancellation aborts the scan.
func (s *Scanner) collect(ctx context.Context, baseURL string, paths []string) ([]types.PageMetadata, error) {
	pages := make([]types.PageMetadata, len(paths))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.limit)
	for i, path := range paths {
		g.Go(func() error {
			meta, err := s.fetcher.Metadata(gctx, baseURL+path)
			if err != nil {
				if ctxErr := gctx.Err(); ctxErr != nil {
					return ctxErr
				}
				meta.FetchError = err.Error()
			}
			pages[i] = meta
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return pages, nil
}

var requiredOG = []string{"og:title", "og:description", "og:image", "og:url"}

var twitterTags = []string{"twitter:card", "twitter:title", "twitter:description", "twitter:image"}

func ogValue(page types.PageMetadata, field string) string {
	switch field {
	case "og:title":
		return page.OGTitle
	case "og:description":
		return page.OGDescription
	case "og:image":
		return page.OGImage
	case "og:url":
		return page.OGURL
	case "twitter:card":
		return page.TwitterCard
	case "twitter:title":
		return page.TwitterTitle
	case "twitter:description":
		return page.TwitterDescription
	case "twitter:image":
		return page.TwitterImage
	}
	return ""
}

func (s *Scanner) metadataReport(ctx context.Context, baseURL string, pages []types.PageMetadata) *types.SocialReport {
	b := newReport(types.ReportMetadataAudit, baseURL)
	b.report.Pages = pages
	images := map[string]ImageCheck{}

	for _, page := range pages {
		if page.FetchError != "" {
			b.issue(types.SeverityCritical, page.URL, "", "page could not be fetched: "+page.FetchError,
				"Make sure the page is publicly reachable")
			b.check(page.URL, "page_reachable", false, page.FetchError)
			continue
		}
		b.check(page.URL, "page_reachable", true, fmt.Sprint(page.StatusCode))

		for _, tag := range requiredOG {
			value := ogValue(page, tag)
			b.check(page.URL, tag, value != "", value)
			if value == "" {
				b.issue(types.SeverityCritical, page.URL, tag, tag+" is missing",
					fmt.Sprintf(`Add <meta property="%s" content="...">`, tag))
			}
		}
		for _, tag := range twitterTags {
			value := ogValue(page, tag)
			b.check(page.URL, tag, value != "", value)
			if value == "" {
				b.issue(types.SeverityWarning, page.URL, tag, tag+" is missing",
					fmt.Sprintf(`Add <meta name="%s" content="...">`, tag))
			}
		}
		if page.Title != "" && page.OGTitle != "" && !strings.EqualFold(strings.TrimSpace(page.Title), strings.TrimSpace(page.OGTitle)) {
			b.issue(types.SeverityWarning, page.URL, "og:title", "<title> and og:title differ",
				"Keep the document title and og:title consistent")
		}

		if page.OGImage == "" {
			continue
		}
		img, seen := images[page.OGImage]
		if !seen {
			img = s.fetcher.CheckImage(ctx, page.OGImage)
			images[page.OGImage] = img
		}
		b.check(page.URL, "og:image_valid", img.Valid, page.OGImage)
		if !img.Valid {
			sev := types.SeverityWarning
			if img.Status == http.StatusNotFound || img.Status == 0 {
				sev = types.SeverityCritical
			}
			b.issue(sev, page.URL, "og:image", img.Problem, "Serve a reachable JPEG or PNG under 8MB")
		}
	}
	return b.finish(len(pages))
}

func (s *Scanner) crawlReport(ctx context.Context, baseURL string, paths []string) (*types.SocialReport, error) {
	b := newReport(types.ReportCrawlability, baseURL)

	sitemapURL := baseURL + "/sitemap.xml"
	if status, err := s.fetcher.Status(ctx, sitemapURL); err != nil || status != http.StatusOK {
		b.issue(types.SeverityWarning, sitemapURL, "sitemap", "sitemap.xml is not available", "Publish /sitemap.xml")
		b.check(sitemapURL, "sitemap", false, fmt.Sprint(status))
	} else {
		b.check(sitemapURL, "sitemap", true, fmt.Sprint(status))
	}

	robotsURL := baseURL + "/robots.txt"
	robots, status, err := s.fetcher.Text(ctx, robotsURL)
	switch {
	case err != nil || status != http.StatusOK:
		b.issue(types.SeverityInfo, robotsURL, "robots.txt", "robots.txt not found", "Publish /robots.txt")
	case blocksEverything(robots):
		b.issue(types.SeverityCritical, robotsURL, "robots.txt", "robots.txt disallows the whole site",
			"Remove `Disallow: /` or add explicit Allow rules")
		b.check(robotsURL, "robots_txt", false, "Disallow: /")
	default:
		b.check(robotsURL, "robots_txt", true, "")
	}

	probes := make([]Probe, len(paths))
	errs := make([]error, len(paths))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.limit)
	for i, path := range paths {
		g.Go(func() error {
			probes[i], errs[i] = s.fetcher.Probe(gctx, baseURL+path)
			if errs[i] != nil {
				return gctx.Err()
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	for i, path := range paths {
		url := baseURL + path
		p := probes[i]
		if errs[i] != nil {
			b.issue(types.SeverityCritical, url, "status", "connection failed: "+errs[i].Error(), "Check the server")
			b.check(url, "http_status", false, errs[i].Error())
			continue
		}
		switch {
		case p.Status >= 400:
			b.issue(types.SeverityCritical, url, "status", fmt.Sprintf("page returned HTTP %d", p.Status),
				"Crawlers drop pages that return errors")
			b.check(url, "http_status", false, fmt.Sprint(p.Status))
			continue
		case p.Status >= 300:
			b.issue(types.SeverityInfo, url, "status", fmt.Sprintf("page redirects (%d) to %s", p.Status, p.Location),
				"Share the final URL")
			b.check(url, "http_status", true, fmt.Sprint(p.Status))
			continue
		default:
			b.check(url, "http_status", true, fmt.Sprint(p.Status))
		}

		directives := strings.ToLower(p.Robots + "," + robotsMeta(p.Body))
		if strings.Contains(directives, "noindex") {
			b.issue(types.SeverityWarning, url, "robots", "page is marked noindex", "Remove noindex from public pages")
		}
		if path == "/" && strings.Contains(directives, "nofollow") {
			b.issue(types.SeverityInfo, url, "robots", "home page is marked nofollow", "Allow crawlers to follow links")
		}
	}
	return b.finish(len(paths)), nil
}

// blocksEverything reports a bare `Disallow: /` with no Allow rule at all.
func blocksEverything(robots string) bool {
	disallowAll, allow := false, false
	for _, line := range strings.Split(robots, "\n") {
		line = strings.ToLower(strings.TrimSpace(line))
		if strings.HasPrefix(line, "allow:") {
			allow = true
		}
		if rule, ok := strings.CutPrefix(line, "disallow:"); ok && strings.TrimSpace(rule) == "/" {
			disallowAll = true
		}
	}
	return disallowAll && !allow
}

func robotsMeta(body string) string {
	if body == "" {
		return ""
	}
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(body))
	if err != nil {
		return ""
	}
	var out []string
	doc.Find(`meta[name="robots"], meta[name="googlebot"]`).Each(func(_ int, s *goquery.Selection) {
		out = append(out, s.AttrOr("content", ""))
	})
	return strings.Join(out, ",")
}
