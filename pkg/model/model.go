package model

import (
	"time"
)

// ListingEntry is a link to a page expected to contain one media item.
// Produced by the listing resolver and consumed once by the detail resolver.
// User and Description are best-effort attribution from the listing card.
type ListingEntry struct {
	DetailURL   string `json:"detail_url"`
	User        string `json:"user"`
	Description string `json:"description"`
}

// ResolvedMedia is the final direct, fetchable URL for one item together
// with whatever attribution the listing exposed.
type ResolvedMedia struct {
	MediaURL    string `json:"media_url"`
	User        string `json:"user"`
	Description string `json:"description"`
}

// MediaInput is a downloaded asset plus its compositing speed.
// Speed must lie within the audio tempo filter's range (0.5-2.0).
type MediaInput struct {
	LocalPath string  `json:"local_path"`
	Speed     float64 `json:"speed"`
}

// OverlaySlot is one scheduled overlay appearance. At must be strictly
// increasing across a schedule.
type OverlaySlot struct {
	Image    string        `json:"image"`
	Headline string        `json:"headline"`
	At       time.Duration `json:"at"`
}

// CompositionResult points at the produced output file.
type CompositionResult struct {
	OutputPath string `json:"output_path"`
}

// Generation is the persisted record of one generated blend video.
type Generation struct {
	Date      string          `json:"date"`
	Videos    []ResolvedMedia `json:"videos"`
	Headline  string          `json:"headline"`
	OutputURL string          `json:"output_url"`
	CreatedAt time.Time       `json:"created_at"`
}
