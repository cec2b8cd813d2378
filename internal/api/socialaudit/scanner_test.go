package socialaudit

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vipogroup/vipo-api/internal/types"
)

const goodPage = `<html><head>
<title>VIPO Group Buying Store</title>
<meta name="description" content="Group purchases with shared discounts">
<meta property="og:title" content="VIPO Group Buying Store">
<meta property="og:description" content="Join group purchases and save up to forty percent on every order">
<meta property="og:image" content="%[2]s">
<meta property="og:url" content="%[1]s">
<meta property="og:type" content="website">
<meta name="twitter:card" content="summary_large_image">
<meta name="twitter:title" content="VIPO Group Buying Store">
<meta name="twitter:description" content="Join group purchases and save up to forty percent on every order">
<meta name="twitter:image" content="%[2]s">
</head><body><h1>VIPO</h1></body></html>`

// testSite serves a storefront where /products lacks social tags and
// /about is missing.
func testSite(t *testing.T) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		base := "http://" + r.Host
		switch r.URL.Path {
		case "/about":
			http.NotFound(w, r)
		case "/products":
			fmt.Fprint(w, `<html><head><title>Products</title></head><body></body></html>`)
		case "/img.png":
			w.Header().Set("Content-Type", "image/png")
			w.Header().Set("Content-Length", "2048")
			w.WriteHeader(http.StatusOK)
		case "/robots.txt":
			fmt.Fprint(w, "User-agent: *\nDisallow: /admin\n")
		case "/sitemap.xml":
			w.Header().Set("Content-Type", "application/xml")
			fmt.Fprint(w, `<urlset></urlset>`)
		default:
			fmt.Fprintf(w, goodPage, base+r.URL.Path, base+"/img.png")
		}
	}))
	t.Cleanup(srv.Close)
	return srv
}

func TestExtractMetadata(t *testing.T) {
	html := `<html><head><title> Shop </title>
<meta property="og:title" content="OG Shop">
<meta property="twitter:card" content="summary">
<meta name="robots" content="noindex">
<link rel="canonical" href="https://vipo.shop/">
</head></html>`
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	require.NoError(t, err)

	var meta types.PageMetadata
	extractMetadata(doc, &meta)
	assert.Equal(t, "Shop", meta.Title)
	assert.Equal(t, "OG Shop", meta.OGTitle)
	assert.Equal(t, "summary", meta.TwitterCard)
	assert.Equal(t, "noindex", meta.Robots)
	assert.Equal(t, "https://vipo.shop/", meta.Canonical)
	assert.Empty(t, meta.OGImage)
}

func TestCheckImage(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/ok.jpg":
			w.Header().Set("Content-Type", "image/jpeg")
			w.Header().Set("Content-Length", "1024")
		case "/huge.jpg":
			w.Header().Set("Content-Type", "image/jpeg")
			w.Header().Set("Content-Length", fmt.Sprint(9*1024*1024))
		case "/page.jpg":
			w.Header().Set("Content-Type", "text/html")
		default:
			w.WriteHeader(http.StatusNotFound)
		}
	}))
	defer srv.Close()
	f := NewFetcher(5 * time.Second)
	ctx := context.Background()

	ok := f.CheckImage(ctx, srv.URL+"/ok.jpg")
	assert.True(t, ok.Valid)
	assert.Equal(t, int64(1), ok.SizeKB)

	huge := f.CheckImage(ctx, srv.URL+"/huge.jpg")
	assert.False(t, huge.Valid)
	assert.Contains(t, huge.Problem, "too large")

	html := f.CheckImage(ctx, srv.URL+"/page.jpg")
	assert.False(t, html.Valid)
	assert.Contains(t, html.Problem, "not an image")

	missing := f.CheckImage(ctx, srv.URL+"/missing.jpg")
	assert.False(t, missing.Valid)
	assert.Equal(t, http.StatusNotFound, missing.Status)
}

func TestSimulatePreview(t *testing.T) {
	full := types.PageMetadata{
		URL:           "https://vipo.shop/",
		OGTitle:       "VIPO Group Buying Store",
		OGDescription: "Join group purchases and save up to forty percent on every order",
		OGImage:       "https://vipo.shop/og.png",
	}

	t.Run("complete tags", func(t *testing.T) {
		p := simulatePreview("facebook", full)
		assert.Equal(t, types.PreviewOK, p.State)
		assert.Empty(t, p.Problems)
	})

	t.Run("title fallback", func(t *testing.T) {
		page := full
		page.OGTitle = ""
		page.Title = "VIPO Group Buying Store"
		p := simulatePreview("whatsapp", page)
		assert.Equal(t, types.PreviewPartial, p.State)
		assert.Equal(t, "VIPO Group Buying Store", p.Title)
	})

	t.Run("no image", func(t *testing.T) {
		page := full
		page.OGImage = ""
		assert.Equal(t, types.PreviewBroken, simulatePreview("linkedin", page).State)
	})

	t.Run("broken stays broken", func(t *testing.T) {
		page := types.PageMetadata{URL: "https://vipo.shop/x", OGDescription: "short"}
		p := simulatePreview("facebook", page)
		assert.Equal(t, types.PreviewBroken, p.State)
		assert.Len(t, p.Problems, 3)
	})

	t.Run("generic title and short description", func(t *testing.T) {
		page := full
		page.OGTitle = "Home"
		page.OGDescription = "Too short"
		p := simulatePreview("facebook", page)
		assert.Equal(t, types.PreviewPartial, p.State)
		assert.Len(t, p.Problems, 2)
	})

	t.Run("twitter prefers twitter tags", func(t *testing.T) {
		page := full
		page.TwitterTitle = "VIPO on Twitter, group deals"
		p := simulatePreview("twitter", page)
		assert.Equal(t, "VIPO on Twitter, group deals", p.Title)
		assert.Equal(t, full.OGImage, p.Image)
		assert.Equal(t, types.PreviewOK, p.State)
	})
}

func TestReportScoring(t *testing.T) {
	b := newReport(types.ReportMetadataAudit, "https://vipo.shop")
	b.check("/", "og:title", true, "")
	b.check("/", "og:image", true, "")
	b.check("/", "og:url", false, "")
	b.issue(types.SeverityWarning, "/", "og:url", "missing", "")
	r := b.finish(1)

	assert.Equal(t, types.AuditWarn, r.Status)
	assert.Equal(t, 67, r.Score)
	assert.Equal(t, types.ReportSummary{Warnings: 1, Passed: 2, Failed: 1, PagesTested: 1}, r.Summary)

	b.issue(types.SeverityCritical, "/", "og:title", "missing", "")
	assert.Equal(t, types.AuditFail, b.finish(1).Status)

	empty := newReport(types.ReportCrawlability, "https://vipo.shop").finish(0)
	assert.Equal(t, types.AuditPass, empty.Status)
	assert.Equal(t, 0, empty.Score)

	assert.Equal(t, types.AuditWarn, worstStatus(types.AuditPass, types.AuditWarn))
	assert.Equal(t, types.AuditFail, worstStatus(types.AuditWarn, types.AuditFail, types.AuditPass))
	assert.Equal(t, types.AuditPass, worstStatus())
}

func TestNewReportID(t *testing.T) {
	now := time.UnixMilli(1700000000000)
	id := newReportID(types.ReportMetadataAudit, now)
	parts := strings.Split(id, "-")
	require.Len(t, parts, 3)
	assert.Equal(t, "SMA", parts[0])
	assert.Equal(t, strings.ToUpper("loyw3v28"), parts[1])
	assert.Len(t, parts[2], 4)
	assert.Equal(t, strings.ToUpper(id), id)

	assert.True(t, strings.HasPrefix(newReportID(types.ReportCrawlability, now), "SCD-"))
}

func TestBlocksEverything(t *testing.T) {
	assert.True(t, blocksEverything("User-agent: *\nDisallow: /\n"))
	assert.False(t, blocksEverything("User-agent: *\nDisallow: /\nAllow: /products\n"))
	assert.False(t, blocksEverything("User-agent: *\nDisallow: /admin\n"))
	assert.False(t, blocksEverything(""))
}

func TestCrawlReport(t *testing.T) {
	srv := testSite(t)
	s := NewScanner(NewFetcher(5 * time.Second))

	r, err := s.crawlReport(context.Background(), srv.URL, []string{"/", "/about", "/contact"})
	require.NoError(t, err)
	assert.Equal(t, types.AuditFail, r.Status)
	assert.Equal(t, 1, r.Summary.Critical)
	assert.Equal(t, 4, r.Summary.Passed)
	assert.Equal(t, 1, r.Summary.Failed)
	assert.Equal(t, 80, r.Score)
	assert.Equal(t, srv.URL+"/about", r.Issues[0].Page)
}

func TestCrawlReportRobotsAndRedirects(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/robots.txt":
			fmt.Fprint(w, "User-agent: *\nDisallow: /\n")
		case "/old":
			http.Redirect(w, r, "/", http.StatusMovedPermanently)
		case "/":
			fmt.Fprint(w, `<html><head><meta name="robots" content="noindex, nofollow"></head></html>`)
		default:
			http.NotFound(w, r)
		}
	}))
	defer srv.Close()
	s := NewScanner(NewFetcher(5 * time.Second))

	r, err := s.crawlReport(context.Background(), srv.URL, []string{"/", "/old"})
	require.NoError(t, err)

	bySeverity := map[types.Severity][]string{}
	for _, i := range r.Issues {
		bySeverity[i.Severity] = append(bySeverity[i.Severity], i.Field)
	}
	assert.ElementsMatch(t, []string{"robots.txt"}, bySeverity[types.SeverityCritical])
	assert.ElementsMatch(t, []string{"sitemap", "robots"}, bySeverity[types.SeverityWarning])
	assert.ElementsMatch(t, []string{"robots", "status"}, bySeverity[types.SeverityInfo])
	assert.Equal(t, types.AuditFail, r.Status)
}
