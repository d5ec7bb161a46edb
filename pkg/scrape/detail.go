package scrape

import (
	"context"
	"strings"

	"github.com/PuerkitoBio/goquery"
	log "github.com/sirupsen/logrus"

	"github.com/tikblend/tikblend/pkg/config"
)

const (
	// maxFollowDepth bounds the recursive link-following search.
	maxFollowDepth = 2

	// maxFollowLinks bounds how many candidate anchors are followed per page.
	maxFollowLinks = 3
)

// detailSnapshotter is the part of the browser adapter the detail resolver
// depends on.
type detailSnapshotter interface {
	DetailSnapshot(ctx context.Context, url string) (*Snapshot, error)
}

// strategy is one attempt at resolving a detail page to a direct media URL.
// An empty return means "not found here, try the next one".
type strategy interface {
	name() string
	attempt(ctx context.Context, detailURL string, depth int) string
}

// DetailResolver resolves a single detail-page link to a direct media URL by
// walking an ordered strategy chain: browser automation, static fetch, then
// a bounded recursive follow of media-looking anchors.
type DetailResolver struct {
	strategies []strategy
}

func NewDetailResolver(cfg *config.Scrape, browser detailSnapshotter, static markupFetcher) *DetailResolver {
	r := &DetailResolver{}

	if browser != nil {
		r.strategies = append(r.strategies, &browserStrategy{browser: browser})
	}

	r.strategies = append(r.strategies,
		&staticStrategy{static: static},
		&followStrategy{cfg: cfg, static: static, resolver: r},
	)

	return r
}

// Resolve returns the direct media URL for detailURL, or "" when every
// strategy at every depth came up empty. Absence is not an error.
func (r *DetailResolver) Resolve(ctx context.Context, detailURL string) string {
	return r.resolve(ctx, detailURL, 0)
}

func (r *DetailResolver) resolve(ctx context.Context, detailURL string, depth int) string {
	for _, s := range r.strategies {
		if found := s.attempt(ctx, detailURL, depth); found != "" {
			log.Debugf("resolved %q via %s at depth %d", detailURL, s.name(), depth)
			return absoluteURL(detailURL, found)
		}
	}

	return ""
}

type browserStrategy struct {
	browser detailSnapshotter
}

func (s *browserStrategy) name() string { return "browser" }

func (s *browserStrategy) attempt(ctx context.Context, detailURL string, _ int) string {
	snap, err := s.browser.DetailSnapshot(ctx, detailURL)
	if err != nil {
		log.WithError(err).Debugf("browser detail fetch failed for %q", detailURL)
		return ""
	}

	if snap == nil {
		return ""
	}

	return Pick(Extract(snap))
}

type staticStrategy struct {
	static markupFetcher
}

func (s *staticStrategy) name() string { return "static" }

func (s *staticStrategy) attempt(ctx context.Context, detailURL string, _ int) string {
	markup := s.static.Fetch(ctx, detailURL)
	if markup == "" {
		return ""
	}

	// Static markup gets no benefit of the doubt: only a strict container
	// match counts, loose candidates are left for the follow strategy.
	return PickStrict(Extract(SnapshotFromHTML(markup)))
}

// followStrategy scans the page's anchors for links that look media-related
// and recurses the full chain into each, up to maxFollowDepth.
type followStrategy struct {
	cfg      *config.Scrape
	static   markupFetcher
	resolver *DetailResolver
}

func (s *followStrategy) name() string { return "follow" }

func (s *followStrategy) attempt(ctx context.Context, detailURL string, depth int) string {
	if depth >= maxFollowDepth {
		return ""
	}

	markup := s.static.Fetch(ctx, detailURL)
	if markup == "" {
		return ""
	}

	for _, follow := range s.followCandidates(markup, detailURL) {
		if found := s.resolver.resolve(ctx, follow, depth+1); found != "" {
			return found
		}
	}

	return ""
}

// followCandidates returns up to maxFollowLinks absolute anchor targets that
// look download/video/watch/save related or re-match the detail path.
func (s *followStrategy) followCandidates(markup, pageURL string) []string {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(markup))
	if err != nil {
		return nil
	}

	var (
		seen       = map[string]struct{}{}
		candidates []string
	)

	doc.Find("a[href]").Each(func(_ int, sel *goquery.Selection) {
		if len(candidates) >= maxFollowLinks {
			return
		}

		href := strings.TrimSpace(sel.AttrOr("href", ""))
		if href == "" || strings.HasPrefix(href, "#") || strings.HasPrefix(href, "javascript:") {
			return
		}

		if !s.looksMediaRelated(sel.Text(), href) {
			return
		}

		abs := absoluteURL(pageURL, href)
		if abs == "" || abs == pageURL {
			return
		}

		if _, ok := seen[abs]; ok {
			return
		}
		seen[abs] = struct{}{}

		candidates = append(candidates, abs)
	})

	return candidates
}

func (s *followStrategy) looksMediaRelated(text, href string) bool {
	lower := strings.ToLower(text + " " + href)

	for _, kw := range []string{"download", "video", "watch", "save"} {
		if strings.Contains(lower, kw) {
			return true
		}
	}

	return strings.Contains(href, s.cfg.DetailPath)
}
