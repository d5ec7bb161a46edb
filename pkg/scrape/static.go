package scrape

import (
	"context"
	"io"
	"net/http"
	"strings"

	log "github.com/sirupsen/logrus"

	"github.com/tikblend/tikblend/pkg/config"
)

// maxBodySize caps how much markup a single fetch will buffer.
const maxBodySize = 8 << 20 // 8 MiB

// StaticFetcher is the plain HTTP fallback used when browser automation is
// disabled or yields nothing.
type StaticFetcher struct {
	cfg    *config.Scrape
	client *http.Client
}

func NewStaticFetcher(cfg *config.Scrape) *StaticFetcher {
	return &StaticFetcher{
		cfg: cfg,
		client: &http.Client{
			Timeout: cfg.FetchTimeout.Duration,
		},
	}
}

// Fetch performs a single GET with a realistic header profile and returns
// the markup. Transport errors, bad statuses and non-text bodies all yield
// an empty string, absence is not an error at this layer.
func (f *StaticFetcher) Fetch(ctx context.Context, url string) string {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		log.WithError(err).Debugf("bad fetch URL %q", url)
		return ""
	}

	req.Header.Set("User-Agent", f.cfg.UserAgent)
	req.Header.Set("Accept", "text/html,application/xhtml+xml,application/xml;q=0.9,*/*;q=0.8")
	req.Header.Set("Accept-Language", f.cfg.AcceptLanguage)

	resp, err := f.client.Do(req)
	if err != nil {
		log.WithError(err).Debugf("fetch failed for %q", url)
		return ""
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		log.Debugf("fetch for %q returned %d", url, resp.StatusCode)
		return ""
	}

	if ct := resp.Header.Get("Content-Type"); ct != "" && !strings.Contains(ct, "text") && !strings.Contains(ct, "html") {
		log.Debugf("fetch for %q returned non-text content type %q", url, ct)
		return ""
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodySize))
	if err != nil {
		log.WithError(err).Debugf("failed to read body of %q", url)
		return ""
	}

	return string(body)
}
