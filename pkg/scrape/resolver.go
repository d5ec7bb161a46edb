package scrape

import (
	"context"

	log "github.com/sirupsen/logrus"

	"github.com/tikblend/tikblend/pkg/config"
	"github.com/tikblend/tikblend/pkg/model"
)

// listingResolver and detailResolver are the two stages the orchestrator
// sequences.
type listingResolver interface {
	Resolve(ctx context.Context) []model.ListingEntry
}

type detailResolver interface {
	Resolve(ctx context.Context, detailURL string) string
}

// Resolver sequences listing resolution and per-entry detail resolution.
// Detail pages are resolved one at a time to bound browser resource usage.
type Resolver struct {
	listing listingResolver
	detail  detailResolver
}

// NewResolver wires the full resolution pipeline. When cfg.Browser is false
// (or browser is nil) the pipeline runs on static fetches only.
func NewResolver(cfg *config.Scrape, browser *Browser) *Resolver {
	static := NewStaticFetcher(cfg)

	var (
		pages   pageSnapshotter
		details detailSnapshotter
	)

	if cfg.Browser && browser != nil {
		pages = browser
		details = browser
	}

	return &Resolver{
		listing: NewListingResolver(cfg, pages, static),
		detail:  NewDetailResolver(cfg, details, static),
	}
}

func newResolver(listing listingResolver, detail detailResolver) *Resolver {
	return &Resolver{listing: listing, detail: detail}
}

// ResolveBatch resolves the trending listing into direct media URLs, in page
// order, with duplicates dropped. The result may hold fewer than three
// entries, the caller decides whether that is fatal.
func (r *Resolver) ResolveBatch(ctx context.Context) []model.ResolvedMedia {
	entries := r.listing.Resolve(ctx)
	log.Infof("resolving %d listing entries", len(entries))

	var (
		seen  = map[string]struct{}{}
		batch []model.ResolvedMedia
	)

	for _, entry := range entries {
		mediaURL := r.detail.Resolve(ctx, entry.DetailURL)
		if mediaURL == "" {
			log.Debugf("no media URL for %q", entry.DetailURL)
			continue
		}

		if _, ok := seen[mediaURL]; ok {
			log.Debugf("duplicate media URL %q", mediaURL)
			continue
		}
		seen[mediaURL] = struct{}{}

		batch = append(batch, model.ResolvedMedia{
			MediaURL:    mediaURL,
			User:        entry.User,
			Description: entry.Description,
		})
	}

	log.Infof("resolved %d distinct media URLs", len(batch))

	return batch
}
