package scrape

import (
	"context"
	"fmt"
	"net/url"
	"strings"

	"github.com/PuerkitoBio/goquery"
	log "github.com/sirupsen/logrus"

	"github.com/tikblend/tikblend/pkg/config"
	"github.com/tikblend/tikblend/pkg/model"
)

// listingLimit is how many distinct detail links a batch needs.
const listingLimit = 3

// pageSnapshotter is the part of the browser adapter the listing resolver
// depends on.
type pageSnapshotter interface {
	PageSnapshot(ctx context.Context, url string, waitSelector string) (*Snapshot, error)
}

// markupFetcher fetches raw markup, returning "" when nothing usable came
// back.
type markupFetcher interface {
	Fetch(ctx context.Context, url string) string
}

// ListingResolver turns the trending listing page into the first three
// distinct detail links, in page order.
type ListingResolver struct {
	cfg     *config.Scrape
	browser pageSnapshotter // nil when browser automation is disabled
	static  markupFetcher
}

func NewListingResolver(cfg *config.Scrape, browser pageSnapshotter, static markupFetcher) *ListingResolver {
	return &ListingResolver{cfg: cfg, browser: browser, static: static}
}

func (r *ListingResolver) listingURL() string {
	return strings.TrimSuffix(r.cfg.BaseURL, "/") + r.cfg.ListingPath
}

func (r *ListingResolver) anchorSelector() string {
	return fmt.Sprintf(`a[href^=%q], a[href*=%q]`, r.cfg.DetailPath, r.cfg.DetailPath)
}

// Resolve returns the first three distinct listing entries. Browser
// automation is tried first, static fetch is the fallback when the browser
// is unavailable or yields zero anchors.
func (r *ListingResolver) Resolve(ctx context.Context) []model.ListingEntry {
	listing := r.listingURL()

	if r.browser != nil {
		snap, err := r.browser.PageSnapshot(ctx, listing, r.anchorSelector())
		if err != nil {
			log.WithError(err).Debug("browser listing fetch failed")
		} else if snap != nil {
			entries := r.parseListing(snap.HTML)
			log.Debugf("browser listing anchors: %d", len(entries))
			if len(entries) > 0 {
				return entries
			}
		}
	}

	log.Debug("falling back to static listing fetch")

	markup := r.static.Fetch(ctx, listing)
	if markup == "" {
		return nil
	}

	entries := r.parseListing(markup)
	log.Debugf("static listing anchors: %d", len(entries))

	return entries
}

// parseListing extracts distinct detail links in page order, truncated to
// the batch size, each absolutized against the base URL.
func (r *ListingResolver) parseListing(markup string) []model.ListingEntry {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(markup))
	if err != nil {
		return nil
	}

	var (
		seen    = map[string]struct{}{}
		entries []model.ListingEntry
	)

	doc.Find(r.anchorSelector()).Each(func(_ int, s *goquery.Selection) {
		if len(entries) >= listingLimit {
			return
		}

		href := strings.TrimSpace(s.AttrOr("href", ""))
		if href == "" {
			return
		}

		abs := absoluteURL(r.cfg.BaseURL, href)
		if abs == "" {
			return
		}

		if _, ok := seen[abs]; ok {
			return
		}
		seen[abs] = struct{}{}

		entry := model.ListingEntry{DetailURL: abs}

		// Attribution lives on the surrounding card when the front end
		// still renders one.
		if card := s.Closest(".video-card, .trending-video, .video-entry"); card.Length() > 0 {
			entry.User = strings.TrimSpace(card.Find(".user, .author").First().Text())
			entry.Description = strings.TrimSpace(card.Find(".caption, .description, .desc").First().Text())
		}
		if entry.User == "" {
			entry.User = "unknown"
		}

		entries = append(entries, entry)
	})

	return entries
}

// absoluteURL resolves href against base. Returns "" for unparsable input.
func absoluteURL(base, href string) string {
	if strings.HasPrefix(href, "http://") || strings.HasPrefix(href, "https://") {
		return href
	}

	b, err := url.Parse(base)
	if err != nil {
		return ""
	}

	h, err := url.Parse(href)
	if err != nil {
		return ""
	}

	return b.ResolveReference(h).String()
}
