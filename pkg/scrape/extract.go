package scrape

import (
	"regexp"
	"strings"

	"github.com/PuerkitoBio/goquery"
)

var (
	// Direct media URLs, optionally followed by a query string.
	mediaURLPattern = regexp.MustCompile(`(?i)\.mp4(\?[^\s"'<>]*)?$`)

	// Absolute media URLs embedded in scripts or rendered text.
	inlineURLPattern = regexp.MustCompile(`(?i)https?://[^\s"'<>\\]+?\.mp4(\?[^\s"'<>\\]*)?`)

	downloadTextPattern = regexp.MustCompile(`(?i)download|save|no.?watermark`)
)

// Snapshot is the DOM state handed to the extractor. PlayingSources carries
// the runtime-resolved sources of media elements (currentSrc), which the
// serialized HTML alone cannot expose.
type Snapshot struct {
	HTML           string
	PlayingSources []string
}

// SnapshotFromHTML wraps plain markup with no runtime state.
func SnapshotFromHTML(html string) *Snapshot {
	return &Snapshot{HTML: html}
}

// Extract returns the deduplicated, order-preserving set of candidate media
// URLs found in the snapshot. Every heuristic appends to the set, none
// short-circuits. An empty result means nothing was found, it never fails.
func Extract(snap *Snapshot) []string {
	var (
		seen       = map[string]struct{}{}
		candidates []string
	)

	add := func(u string) {
		u = strings.TrimSpace(u)
		if u == "" {
			return
		}
		if _, ok := seen[u]; ok {
			return
		}
		seen[u] = struct{}{}
		candidates = append(candidates, u)
	}

	// Runtime-resolved sources take priority over anything parsed from markup.
	for _, src := range snap.PlayingSources {
		add(src)
	}

	doc, err := goquery.NewDocumentFromReader(strings.NewReader(snap.HTML))
	if err != nil {
		return candidates
	}

	// 1. Media element source attributes.
	doc.Find("video[src]").Each(func(_ int, s *goquery.Selection) {
		add(s.AttrOr("src", ""))
	})

	// 2. Nested <source> sub-elements.
	doc.Find("video source[src], source[src]").Each(func(_ int, s *goquery.Selection) {
		add(s.AttrOr("src", ""))
	})

	// 3. Anchors that advertise a download or point straight at the container.
	doc.Find("a[href]").Each(func(_ int, s *goquery.Selection) {
		href := s.AttrOr("href", "")
		if mediaURLPattern.MatchString(href) || downloadTextPattern.MatchString(s.Text()) {
			add(href)
		}
	})

	// 4. Generic data attributes carrying a media URL.
	doc.Find("[data-url], [data-src], [data-video]").Each(func(_ int, s *goquery.Selection) {
		for _, attr := range []string{"data-url", "data-src", "data-video"} {
			if v, ok := s.Attr(attr); ok && mediaURLPattern.MatchString(v) {
				add(v)
			}
		}
	})

	// 5. Regex scan over inline scripts and the full rendered text.
	doc.Find("script").Each(func(_ int, s *goquery.Selection) {
		for _, m := range inlineURLPattern.FindAllString(s.Text(), -1) {
			add(m)
		}
	})
	for _, m := range inlineURLPattern.FindAllString(doc.Text(), -1) {
		add(m)
	}

	return candidates
}

// Pick applies the result selection policy: first candidate matching the
// strict container pattern, otherwise the first candidate of any kind.
func Pick(candidates []string) string {
	if c := PickStrict(candidates); c != "" {
		return c
	}

	if len(candidates) > 0 {
		return candidates[0]
	}

	return ""
}

// PickStrict returns the first candidate that points directly at the
// expected container, or "".
func PickStrict(candidates []string) string {
	for _, c := range candidates {
		if mediaURLPattern.MatchString(c) {
			return c
		}
	}

	return ""
}

// IsMediaURL reports whether u points directly at the expected container.
func IsMediaURL(u string) bool {
	return mediaURLPattern.MatchString(u)
}
