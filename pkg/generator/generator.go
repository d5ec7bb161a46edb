// Package generator orchestrates one generation request end to end:
// resolve the trending batch, download the sources, pick a headline, and
// composite the blend video.
package generator

import (
	"context"
	"fmt"
	"path"
	"time"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"

	"github.com/tikblend/tikblend/pkg/model"
	"github.com/tikblend/tikblend/pkg/news"
)

const requiredVideos = 3

// speeds are the fixed compositing speed factors, in batch order.
var speeds = [requiredVideos]float64{2.0, 1.5, 1.25}

// Overlay cadence: six slots, every 5 seconds starting at 3 seconds. The
// last slot sits inside the 30 second output cap.
const (
	overlayCount = 6
	overlayStart = 3 * time.Second
	overlayStep  = 5 * time.Second
)

// fallbackHeadline is used when every news feed is unreachable. The request
// still succeeds, headline content is not a hard dependency.
const fallbackHeadline = "Major News Event Happened"

type BatchResolver interface {
	ResolveBatch(ctx context.Context) []model.ResolvedMedia
}

type Downloader interface {
	Download(ctx context.Context, url string, name string) error
}

type HeadlineSource interface {
	Headline(ctx context.Context) (*news.Item, error)
}

type Compositor interface {
	Compose(ctx context.Context, inputs []model.MediaInput, overlays []model.OverlaySlot, outputPath string) (*model.CompositionResult, error)
}

type History interface {
	PutGeneration(ctx context.Context, generation *model.Generation) error
}

// PathMapper maps storage names to local paths and public URLs.
type PathMapper interface {
	Path(name string) string
	URL(ctx context.Context, name string) (string, error)
}

type Generator struct {
	resolver   BatchResolver
	downloader Downloader
	news       HeadlineSource
	compositor Compositor
	history    History
	storage    PathMapper
}

func New(resolver BatchResolver, downloader Downloader, headlines HeadlineSource, compositor Compositor, history History, storage PathMapper) *Generator {
	return &Generator{
		resolver:   resolver,
		downloader: downloader,
		news:       headlines,
		compositor: compositor,
		history:    history,
		storage:    storage,
	}
}

// Generate produces the blend video for one date key. Output and temp files
// are scoped to the date, so concurrent requests for different keys do not
// contend. Requests for the same key overwrite the same artifact.
func (g *Generator) Generate(ctx context.Context, date string) (*model.Generation, error) {
	logger := log.WithFields(log.Fields{
		"date":       date,
		"request_id": uuid.New().String(),
	})

	logger.Info("-> generating blend video")
	started := time.Now()

	batch := g.resolver.ResolveBatch(ctx)
	if len(batch) < requiredVideos {
		return nil, errors.Wrapf(model.ErrResolutionUnavailable, "resolved %d of %d", len(batch), requiredVideos)
	}
	batch = batch[:requiredVideos]

	inputs := make([]model.MediaInput, 0, requiredVideos)
	for i, item := range batch {
		name := path.Join("tmp", date, fmt.Sprintf("video%d.mp4", i+1))

		logger.Infof("! downloading %s", item.MediaURL)
		if err := g.downloader.Download(ctx, item.MediaURL, name); err != nil {
			return nil, err
		}

		inputs = append(inputs, model.MediaInput{
			LocalPath: g.storage.Path(name),
			Speed:     speeds[i],
		})
	}

	story := g.headline(ctx, logger)

	outName := fmt.Sprintf("blend_%s.mp4", date)
	result, err := g.compositor.Compose(ctx, inputs, overlaySchedule(story), g.storage.Path(outName))
	if err != nil {
		return nil, err
	}
	logger.Debugf("artifact written to %s", result.OutputPath)

	outputURL, err := g.storage.URL(ctx, outName)
	if err != nil {
		return nil, errors.Wrap(err, "failed to resolve output URL")
	}

	generation := &model.Generation{
		Date:      date,
		Videos:    batch,
		Headline:  story.Headline,
		OutputURL: outputURL,
		CreatedAt: time.Now().UTC(),
	}

	if err := g.history.PutGeneration(ctx, generation); err != nil {
		// The artifact exists and is servable, a history miss is not fatal.
		logger.WithError(err).Warn("failed to record generation")
	}

	logger.Infof("generated %s in %s", outputURL, time.Since(started).Round(time.Millisecond))

	return generation, nil
}

func (g *Generator) headline(ctx context.Context, logger *log.Entry) *news.Item {
	story, err := g.news.Headline(ctx)
	if err != nil {
		logger.WithError(err).Warn("no headline available, using fallback")
		return &news.Item{Headline: fallbackHeadline}
	}

	return story
}

// overlaySchedule builds the fixed-cadence overlay slots for one story.
func overlaySchedule(story *news.Item) []model.OverlaySlot {
	slots := make([]model.OverlaySlot, 0, overlayCount)

	for i := 0; i < overlayCount; i++ {
		slots = append(slots, model.OverlaySlot{
			Image:    story.Image,
			Headline: story.Headline,
			At:       overlayStart + time.Duration(i)*overlayStep,
		})
	}

	return slots
}
