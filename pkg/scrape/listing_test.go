package scrape

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tikblend/tikblend/pkg/model"
)

const listingMarkup = `
<html><body>
<div class="video-card">
	<a href="/video/1">first</a>
	<span class="user">alice</span>
	<span class="caption">dancing</span>
</div>
<div class="video-card">
	<a href="/video/2">second</a>
	<span class="author">bob</span>
</div>
<a href="/video/1">duplicate</a>
<a href="/video/3">third</a>
<a href="/video/4">fourth</a>
<a href="/about">about</a>
</body></html>`

type fakeSnapshotter struct {
	snap *Snapshot
	err  error
}

func (f *fakeSnapshotter) PageSnapshot(_ context.Context, _ string, _ string) (*Snapshot, error) {
	return f.snap, f.err
}

func TestListingResolver_ParsesCards(t *testing.T) {
	r := NewListingResolver(testScrapeConfig(), nil, &fakeFetcher{pages: map[string]string{
		"https://front.example.com/trending": listingMarkup,
	}})

	entries := r.Resolve(context.Background())
	require.Len(t, entries, 3)

	assert.Equal(t, model.ListingEntry{
		DetailURL:   "https://front.example.com/video/1",
		User:        "alice",
		Description: "dancing",
	}, entries[0])

	assert.Equal(t, "https://front.example.com/video/2", entries[1].DetailURL)
	assert.Equal(t, "bob", entries[1].User)

	// Bare anchors still resolve, attribution defaults.
	assert.Equal(t, "https://front.example.com/video/3", entries[2].DetailURL)
	assert.Equal(t, "unknown", entries[2].User)
}

func TestListingResolver_BrowserFirst(t *testing.T) {
	browser := &fakeSnapshotter{snap: SnapshotFromHTML(`<a href="/video/9">only</a>`)}

	// The static page would yield different links, it must not be consulted.
	static := &fakeFetcher{pages: map[string]string{
		"https://front.example.com/trending": listingMarkup,
	}}

	r := NewListingResolver(testScrapeConfig(), browser, static)

	entries := r.Resolve(context.Background())
	require.Len(t, entries, 1)
	assert.Equal(t, "https://front.example.com/video/9", entries[0].DetailURL)
	assert.Empty(t, static.fetches)
}

func TestListingResolver_FallsBackWhenBrowserEmpty(t *testing.T) {
	browser := &fakeSnapshotter{snap: SnapshotFromHTML(`<p>client shell, no anchors</p>`)}
	static := &fakeFetcher{pages: map[string]string{
		"https://front.example.com/trending": listingMarkup,
	}}

	r := NewListingResolver(testScrapeConfig(), browser, static)

	entries := r.Resolve(context.Background())
	require.Len(t, entries, 3)
	assert.Equal(t, []string{"https://front.example.com/trending"}, static.fetches)
}

func TestListingResolver_NothingResolvable(t *testing.T) {
	r := NewListingResolver(testScrapeConfig(), nil, &fakeFetcher{pages: map[string]string{}})

	assert.Empty(t, r.Resolve(context.Background()))
}

func TestAbsoluteURL(t *testing.T) {
	assert.Equal(t, "https://a.example.com/x", absoluteURL("https://a.example.com", "/x"))
	assert.Equal(t, "https://b.example.com/y", absoluteURL("https://a.example.com", "https://b.example.com/y"))
	assert.Equal(t, "https://a.example.com/base/y", absoluteURL("https://a.example.com/base/page", "y"))
}
