package socialaudit

import (
	"strings"

	"github.com/vipogroup/vipo-api/internal/types"
)

var platforms = []string{"facebook", "whatsapp", "linkedin", "twitter"}

var genericTitles = map[string]bool{"untitled": true, "home": true, "page": true, "index": true}

// simulatePreview renders what a platform would show when the page is shared.
func simulatePreview(platform string, page types.PageMetadata) types.PlatformPreview {
	p := types.PlatformPreview{Platform: platform, Page: page.URL, State: types.PreviewOK}
	degrade := func(to types.PreviewState, problem string) {
		p.Problems = append(p.Problems, problem)
		if p.State != types.PreviewBroken {
			p.State = to
		}
	}

	title, description, image := page.OGTitle, page.OGDescription, page.OGImage
	if platform == "twitter" {
		title = firstNonEmpty(page.TwitterTitle, page.OGTitle)
		description = firstNonEmpty(page.TwitterDescription, page.OGDescription)
		image = firstNonEmpty(page.TwitterImage, page.OGImage)
	}

	switch {
	case title != "":
		p.Title = title
	case page.Title != "":
		p.Title = page.Title
		degrade(types.PreviewPartial, "title taken from <title>, og:title missing")
	default:
		degrade(types.PreviewBroken, "no title available")
	}

	switch {
	case description != "":
		p.Description = description
	case page.MetaDescription != "":
		p.Description = page.MetaDescription
		degrade(types.PreviewPartial, "description taken from meta description")
	default:
		degrade(types.PreviewPartial, "no description available")
	}

	if image == "" {
		degrade(types.PreviewBroken, "no image, preview renders without a card")
	} else {
		p.Image = image
	}

	if p.Title != "" && (genericTitles[strings.ToLower(strings.TrimSpace(p.Title))] || len([]rune(p.Title)) < 10) {
		degrade(types.PreviewPartial, "title is too generic")
	}
	if p.Description != "" && len([]rune(p.Description)) < 50 {
		degrade(types.PreviewPartial, "description is shorter than 50 characters")
	}
	return p
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}

func previewReport(baseURL string, pages []types.PageMetadata) *types.SocialReport {
	b := newReport(types.ReportPreviewShare, baseURL)
	b.report.Previews = []types.PlatformPreview{}
	b.report.Platforms = map[string]types.ReportSummary{}

	tested := 0
	for _, page := range pages {
		if page.FetchError != "" {
			continue
		}
		tested++
		if page.OGURL == "" {
			b.issue(types.SeverityWarning, page.URL, "og:url", "og:url is missing, shares may point at the wrong URL",
				`Add <meta property="og:url" content="`+page.URL+`">`)
		}
		for _, platform := range platforms {
			preview := simulatePreview(platform, page)
			b.report.Previews = append(b.report.Previews, preview)

			sum := b.report.Platforms[platform]
			sum.PagesTested++
			switch preview.State {
			case types.PreviewBroken:
				b.issue(types.SeverityCritical, page.URL, platform, platform+" preview is broken: "+strings.Join(preview.Problems, "; "),
					"Add og:title and og:image")
				b.check(page.URL, platform+"_preview", false, string(preview.State))
				sum.Critical++
				sum.Failed++
			case types.PreviewPartial:
				b.issue(types.SeverityWarning, page.URL, platform, platform+" preview is partial: "+strings.Join(preview.Problems, "; "),
					"Provide a descriptive og:title and an og:description of at least 50 characters")
				b.check(page.URL, platform+"_preview", true, string(preview.State))
				sum.Warnings++
				sum.Passed++
			default:
				b.check(page.URL, platform+"_preview", true, string(preview.State))
				sum.Passed++
			}
			b.report.Platforms[platform] = sum
		}
	}
	return b.finish(tested)
}
