package scrape

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const detailMarkup = `
<html><body>
<video src="https://cdn.example.com/clip.mp4?tk=1"></video>
<video><source src="https://cdn.example.com/nested.mp4"></video>
<a href="https://cdn.example.com/anchor.mp4">watch</a>
<a href="/save/123">Download without watermark</a>
<div data-url="https://cdn.example.com/data.mp4"></div>
<script>var u = "https://cdn.example.com/script.mp4?sig=abc";</script>
</body></html>`

func TestExtract_Heuristics(t *testing.T) {
	candidates := Extract(SnapshotFromHTML(detailMarkup))

	assert.Contains(t, candidates, "https://cdn.example.com/clip.mp4?tk=1")
	assert.Contains(t, candidates, "https://cdn.example.com/nested.mp4")
	assert.Contains(t, candidates, "https://cdn.example.com/anchor.mp4")
	assert.Contains(t, candidates, "/save/123")
	assert.Contains(t, candidates, "https://cdn.example.com/data.mp4")
	assert.Contains(t, candidates, "https://cdn.example.com/script.mp4?sig=abc")
}

func TestExtract_PlayingSourceFirst(t *testing.T) {
	snap := &Snapshot{
		HTML:           `<video src="https://cdn.example.com/declared.mp4"></video>`,
		PlayingSources: []string{"https://cdn.example.com/resolved.mp4"},
	}

	candidates := Extract(snap)
	require.NotEmpty(t, candidates)
	assert.Equal(t, "https://cdn.example.com/resolved.mp4", candidates[0])
	assert.Contains(t, candidates, "https://cdn.example.com/declared.mp4")
}

func TestExtract_Deterministic(t *testing.T) {
	first := Extract(SnapshotFromHTML(detailMarkup))
	for i := 0; i < 5; i++ {
		assert.Equal(t, first, Extract(SnapshotFromHTML(detailMarkup)))
	}
}

func TestExtract_Deduplicates(t *testing.T) {
	markup := `
<video src="https://cdn.example.com/same.mp4"></video>
<a href="https://cdn.example.com/same.mp4">download</a>
<script>"https://cdn.example.com/same.mp4"</script>`

	candidates := Extract(SnapshotFromHTML(markup))
	assert.Equal(t, []string{"https://cdn.example.com/same.mp4"}, candidates)
}

func TestExtract_Empty(t *testing.T) {
	assert.Empty(t, Extract(SnapshotFromHTML("<html><body><p>nothing here</p></body></html>")))
	assert.Empty(t, Extract(SnapshotFromHTML("")))
}

func TestPick_PrefersStrictMatch(t *testing.T) {
	got := Pick([]string{"/save/123", "https://cdn.example.com/clip.mp4?tk=1"})
	assert.Equal(t, "https://cdn.example.com/clip.mp4?tk=1", got)
}

func TestPick_FallsBackToFirst(t *testing.T) {
	got := Pick([]string{"/save/123", "/save/456"})
	assert.Equal(t, "/save/123", got)
}

func TestPick_Empty(t *testing.T) {
	assert.Equal(t, "", Pick(nil))
}

func TestIsMediaURL(t *testing.T) {
	assert.True(t, IsMediaURL("https://cdn.example.com/a.mp4"))
	assert.True(t, IsMediaURL("https://cdn.example.com/a.MP4?x=1"))
	assert.False(t, IsMediaURL("https://cdn.example.com/a.webm"))
	assert.False(t, IsMediaURL("https://cdn.example.com/watch"))
}
