package scrape

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tikblend/tikblend/pkg/model"
)

type fakeListing struct {
	entries []model.ListingEntry
}

func (f *fakeListing) Resolve(_ context.Context) []model.ListingEntry {
	return f.entries
}

type fakeDetail struct {
	urls  map[string]string
	calls []string
}

func (f *fakeDetail) Resolve(_ context.Context, detailURL string) string {
	f.calls = append(f.calls, detailURL)
	return f.urls[detailURL]
}

func TestResolver_FullBatch(t *testing.T) {
	listing := &fakeListing{entries: []model.ListingEntry{
		{DetailURL: "https://front.example.com/video/1", User: "alice"},
		{DetailURL: "https://front.example.com/video/2", User: "bob"},
		{DetailURL: "https://front.example.com/video/3", User: "carol"},
	}}

	detail := &fakeDetail{urls: map[string]string{
		"https://front.example.com/video/1": "https://cdn.example.com/1.mp4",
		"https://front.example.com/video/2": "https://cdn.example.com/2.mp4",
		"https://front.example.com/video/3": "https://cdn.example.com/3.mp4",
	}}

	batch := newResolver(listing, detail).ResolveBatch(context.Background())
	require.Len(t, batch, 3)

	// Page order preserved, attribution carried through.
	assert.Equal(t, "https://cdn.example.com/1.mp4", batch[0].MediaURL)
	assert.Equal(t, "alice", batch[0].User)
	assert.Equal(t, "https://cdn.example.com/2.mp4", batch[1].MediaURL)
	assert.Equal(t, "https://cdn.example.com/3.mp4", batch[2].MediaURL)

	// Entries resolved sequentially in page order.
	assert.Equal(t, []string{
		"https://front.example.com/video/1",
		"https://front.example.com/video/2",
		"https://front.example.com/video/3",
	}, detail.calls)
}

func TestResolver_ShortBatch(t *testing.T) {
	listing := &fakeListing{entries: []model.ListingEntry{
		{DetailURL: "https://front.example.com/video/1"},
		{DetailURL: "https://front.example.com/video/2"},
	}}

	detail := &fakeDetail{urls: map[string]string{
		"https://front.example.com/video/1": "https://cdn.example.com/1.mp4",
		"https://front.example.com/video/2": "https://cdn.example.com/2.mp4",
	}}

	batch := newResolver(listing, detail).ResolveBatch(context.Background())
	assert.Len(t, batch, 2)
}

func TestResolver_NoDuplicateMediaURLs(t *testing.T) {
	listing := &fakeListing{entries: []model.ListingEntry{
		{DetailURL: "https://front.example.com/video/1"},
		{DetailURL: "https://front.example.com/video/2"},
		{DetailURL: "https://front.example.com/video/3"},
	}}

	// Two detail pages resolve to the same asset.
	detail := &fakeDetail{urls: map[string]string{
		"https://front.example.com/video/1": "https://cdn.example.com/same.mp4",
		"https://front.example.com/video/2": "https://cdn.example.com/same.mp4",
		"https://front.example.com/video/3": "https://cdn.example.com/other.mp4",
	}}

	batch := newResolver(listing, detail).ResolveBatch(context.Background())
	require.Len(t, batch, 2)
	assert.Equal(t, "https://cdn.example.com/same.mp4", batch[0].MediaURL)
	assert.Equal(t, "https://cdn.example.com/other.mp4", batch[1].MediaURL)
}

func TestResolver_FailedDetailSkipped(t *testing.T) {
	listing := &fakeListing{entries: []model.ListingEntry{
		{DetailURL: "https://front.example.com/video/1"},
		{DetailURL: "https://front.example.com/video/2"},
	}}

	detail := &fakeDetail{urls: map[string]string{
		"https://front.example.com/video/2": "https://cdn.example.com/2.mp4",
	}}

	batch := newResolver(listing, detail).ResolveBatch(context.Background())
	require.Len(t, batch, 1)
	assert.Equal(t, "https://cdn.example.com/2.mp4", batch[0].MediaURL)
}
