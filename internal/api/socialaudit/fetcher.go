package socialaudit

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"

	"github.com/vipogroup/vipo-api/internal/types"
)

const (
	userAgent     = "Mozilla/5.0 (compatible; VipoSocialBot/1.0)"
	maxImageBytes = 8 * 1024 * 1024
	maxPageBytes  = 5 * 1024 * 1024
)

// Fetcher performs the HTTP side of a scan.
type Fetcher struct {
	client   *http.Client
	noFollow *http.Client
}

func NewFetcher(timeout time.Duration) *Fetcher {
	if timeout <= 0 {
		timeout = 15 * time.Second
	}
	return &Fetcher{
		client: &http.Client{Timeout: timeout},
		noFollow: &http.Client{
			Timeout: timeout,
			CheckRedirect: func(*http.Request, []*http.Request) error {
				return http.ErrUseLastResponse
			},
		},
	}
}

func (f *Fetcher) do(ctx context.Context, client *http.Client, method, url string) (*http.Response, error) {
	req, err := http.NewRequestWithContext(ctx, method, url, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("User-Agent", userAgent)
	return client.Do(req)
}

// Metadata fetches url and extracts its social tags. Non-2xx answers are
// reported as errors.
func (f *Fetcher) Metadata(ctx context.Context, url string) (types.PageMetadata, error) {
	meta := types.PageMetadata{URL: url}
	resp, err := f.do(ctx, f.client, http.MethodGet, url)
	if err != nil {
		return meta, err
	}
	defer resp.Body.Close()
	meta.StatusCode = resp.StatusCode
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return meta, fmt.Errorf("HTTP %d", resp.StatusCode)
	}

	doc, err := goquery.NewDocumentFromReader(io.LimitReader(resp.Body, maxPageBytes))
	if err != nil {
		return meta, fmt.Errorf("failed to parse html: %w", err)
	}
	extractMetadata(doc, &meta)
	return meta, nil
}

func extractMetadata(doc *goquery.Document, meta *types.PageMetadata) {
	meta.Title = strings.TrimSpace(doc.Find("head title").First().Text())
	if meta.Title == "" {
		meta.Title = strings.TrimSpace(doc.Find("title").First().Text())
	}

	tags := map[string]string{}
	doc.Find("meta").Each(func(_ int, s *goquery.Selection) {
		content := strings.TrimSpace(s.AttrOr("content", ""))
		if content == "" {
			return
		}
		for _, attr := range []string{"property", "name"} {
			key := strings.ToLower(strings.TrimSpace(s.AttrOr(attr, "")))
			if key == "" {
				continue
			}
			if _, seen := tags[key]; !seen {
				tags[key] = content
			}
		}
	})

	meta.MetaDescription = tags["description"]
	meta.OGTitle = tags["og:title"]
	meta.OGDescription = tags["og:description"]
	meta.OGImage = tags["og:image"]
	meta.OGURL = tags["og:url"]
	meta.OGType = tags["og:type"]
	meta.TwitterCard = tags["twitter:card"]
	meta.TwitterTitle = tags["twitter:title"]
	meta.TwitterDescription = tags["twitter:description"]
	meta.TwitterImage = tags["twitter:image"]
	meta.Robots = tags["robots"]
	meta.Canonical = strings.TrimSpace(doc.Find(`link[rel="canonical"]`).First().AttrOr("href", ""))
}

type ImageCheck struct {
	Valid       bool
	Status      int
	SizeKB      int64
	ContentType string
	Problem     string
}

// CheckImage validates an og:image with a HEAD request.
func (f *Fetcher) CheckImage(ctx context.Context, url string) ImageCheck {
	resp, err := f.do(ctx, f.client, http.MethodHead, url)
	if err != nil {
		return ImageCheck{Problem: "image unreachable: " + err.Error()}
	}
	resp.Body.Close()

	check := ImageCheck{Status: resp.StatusCode, ContentType: resp.Header.Get("Content-Type")}
	if resp.StatusCode != http.StatusOK {
		check.Problem = fmt.Sprintf("image returned HTTP %d", resp.StatusCode)
		return check
	}
	size, _ := strconv.ParseInt(resp.Header.Get("Content-Length"), 10, 64)
	check.SizeKB = (size + 512) / 1024
	switch {
	case !strings.Contains(check.ContentType, "image"):
		check.Problem = "not an image: " + check.ContentType
	case size > maxImageBytes:
		check.Problem = fmt.Sprintf("image too large (%dKB)", check.SizeKB)
	default:
		check.Valid = true
	}
	return check
}

// Status issues a HEAD request and returns the status code.
func (f *Fetcher) Status(ctx context.Context, url string) (int, error) {
	resp, err := f.do(ctx, f.client, http.MethodHead, url)
	if err != nil {
		return 0, err
	}
	resp.Body.Close()
	return resp.StatusCode, nil
}

// Text returns the body of url when it answers 200.
func (f *Fetcher) Text(ctx context.Context, url string) (string, int, error) {
	resp, err := f.do(ctx, f.client, http.MethodGet, url)
	if err != nil {
		return "", 0, err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return "", resp.StatusCode, nil
	}
	body, err := io.ReadAll(io.LimitReader(resp.Body, maxPageBytes))
	return string(body), resp.StatusCode, err
}

// Probe is a single request made without following redirects.
type Probe struct {
	Status   int
	Location string
	Robots   string
	// Body is only read for 200 answers.
	Body string
}

func (f *Fetcher) Probe(ctx context.Context, url string) (Probe, error) {
	resp, err := f.do(ctx, f.noFollow, http.MethodGet, url)
	if err != nil {
		return Probe{}, err
	}
	defer resp.Body.Close()
	p := Probe{Status: resp.StatusCode, Location: resp.Header.Get("Location"), Robots: resp.Header.Get("X-Robots-Tag")}
	if resp.StatusCode == http.StatusOK {
		body, err := io.ReadAll(io.LimitReader(resp.Body, maxPageBytes))
		if err != nil {
			return p, err
		}
		p.Body = string(body)
	}
	return p, nil
}
