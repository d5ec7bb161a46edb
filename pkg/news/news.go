package news

import (
	"context"
	"strings"
	"unicode"

	"github.com/mmcdole/gofeed"
	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"

	"github.com/tikblend/tikblend/pkg/config"
)

// keyPrefixLen is how many bytes of the normalized headline participate in
// the dedup key.
const keyPrefixLen = 64

// stopWords are dropped before headlines are compared.
var stopWords = map[string]struct{}{
	"a": {}, "an": {}, "the": {}, "of": {}, "in": {}, "on": {}, "at": {},
	"to": {}, "and": {}, "or": {}, "for": {}, "with": {}, "out": {},
}

// Item is one breaking-news story.
type Item struct {
	Headline string `json:"headline"`
	Image    string `json:"image"`
	Link     string `json:"link"`
}

// Aggregator fetches configured RSS feeds and picks the first story that is
// not a duplicate of one already seen, comparing by normalized headline so
// two feeds carrying the same story collapse to one.
type Aggregator struct {
	cfg    *config.News
	parser *gofeed.Parser
}

func NewAggregator(cfg *config.News) *Aggregator {
	return &Aggregator{
		cfg:    cfg,
		parser: gofeed.NewParser(),
	}
}

// Headline returns the top story across the configured feeds.
func (a *Aggregator) Headline(ctx context.Context) (*Item, error) {
	items, err := a.TopStories(ctx, 1)
	if err != nil {
		return nil, err
	}

	return &items[0], nil
}

// TopStories returns up to limit deduplicated stories in feed order.
func (a *Aggregator) TopStories(ctx context.Context, limit int) ([]Item, error) {
	var (
		seen    = map[string]struct{}{}
		stories []Item
	)

	for _, feedURL := range a.cfg.Feeds {
		if len(stories) >= limit {
			break
		}

		fetchCtx, cancel := context.WithTimeout(ctx, a.cfg.Timeout.Duration)
		feed, err := a.parser.ParseURLWithContext(feedURL, fetchCtx)
		cancel()

		if err != nil {
			log.WithError(err).Warnf("failed to fetch feed %q", feedURL)
			continue
		}

		for _, entry := range feed.Items {
			if len(stories) >= limit {
				break
			}

			headline := strings.TrimSpace(entry.Title)
			if headline == "" {
				continue
			}

			key := normalizeHeadline(headline)
			if _, ok := seen[key]; ok {
				log.Debugf("duplicate headline %q", headline)
				continue
			}
			seen[key] = struct{}{}

			stories = append(stories, Item{
				Headline: headline,
				Image:    entryImage(entry),
				Link:     entry.Link,
			})
		}
	}

	if len(stories) == 0 {
		return nil, errors.New("no headlines available from any feed")
	}

	return stories, nil
}

// entryImage pulls an image URL out of the feed entry, preferring the item
// image, then image enclosures.
func entryImage(entry *gofeed.Item) string {
	if entry.Image != nil && entry.Image.URL != "" {
		return entry.Image.URL
	}

	for _, enc := range entry.Enclosures {
		if strings.HasPrefix(enc.Type, "image/") && enc.URL != "" {
			return enc.URL
		}
	}

	return ""
}

// normalizeHeadline folds a headline to its dedup key: lower-cased,
// punctuation stripped, stop words removed, truncated to a fixed prefix.
func normalizeHeadline(s string) string {
	var b strings.Builder

	for _, r := range strings.ToLower(s) {
		if unicode.IsLetter(r) || unicode.IsDigit(r) || unicode.IsSpace(r) {
			b.WriteRune(r)
		}
	}

	var words []string
	for _, w := range strings.Fields(b.String()) {
		if _, ok := stopWords[w]; ok {
			continue
		}
		words = append(words, w)
	}

	key := strings.Join(words, " ")
	if len(key) > keyPrefixLen {
		key = key[:keyPrefixLen]
	}

	return key
}
