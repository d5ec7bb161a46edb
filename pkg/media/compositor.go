package media

import (
	"context"
	"fmt"
	"os"
	"os/exec"
	"strings"
	"time"

	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"

	"github.com/tikblend/tikblend/pkg/model"
)

const (
	// ComposeTimeout bounds a single transcoder run.
	ComposeTimeout = 10 * time.Minute

	// OutputDuration is the hard cap on the produced video.
	OutputDuration = 30 * time.Second

	// Output frame size, portrait.
	frameWidth  = 1080
	frameHeight = 1920

	// overlayOpacity is the fixed opacity of the second and third streams.
	overlayOpacity = 0.33

	// atempo's valid range. A speed outside it cannot keep the audio and
	// video timelines aligned, so such inputs are rejected up front.
	atempoMin = 0.5
	atempoMax = 2.0

	inputCount = 3
)

// Compositor blends three differently-timed videos into one fixed-length
// output by handing ffmpeg a single declarative filter graph.
type Compositor struct {
	path string
}

// New locates the ffmpeg binary and verifies it runs.
func New(ctx context.Context) (*Compositor, error) {
	path, err := exec.LookPath("ffmpeg")
	if err != nil {
		return nil, errors.Wrap(err, "ffmpeg binary not found")
	}

	log.Debugf("found ffmpeg binary at %q", path)

	output, err := exec.CommandContext(ctx, path, "-version").CombinedOutput()
	if err != nil {
		return nil, errors.Wrap(err, "could not run ffmpeg")
	}

	if lines := strings.SplitN(string(output), "\n", 2); len(lines) > 0 {
		log.Infof("using %s", strings.TrimSpace(lines[0]))
	}

	return &Compositor{path: path}, nil
}

// Compose builds and executes the transcoding graph, writing exactly one
// file at outputPath (overwritten if present). The overlay schedule is
// validated and threaded through but not yet rendered onto frames, it is
// reserved for a burn-in stage.
func (c *Compositor) Compose(ctx context.Context, inputs []model.MediaInput, overlays []model.OverlaySlot, outputPath string) (*model.CompositionResult, error) {
	if err := validate(inputs, overlays); err != nil {
		return nil, err
	}

	args := buildArgs(inputs, outputPath)

	log.WithField("output", outputPath).Infof("compositing %d inputs", len(inputs))
	log.Debugf("ffmpeg args: %v", args)

	ctx, cancel := context.WithTimeout(ctx, ComposeTimeout)
	defer cancel()

	cmd := exec.CommandContext(ctx, c.path, args...)
	output, err := cmd.CombinedOutput()
	if err != nil {
		// A partial file is not a valid artifact.
		if removeErr := os.Remove(outputPath); removeErr != nil && !os.IsNotExist(removeErr) {
			log.WithError(removeErr).Warnf("failed to remove partial output %q", outputPath)
		}

		return nil, &model.CompositionError{Output: string(output), Err: err}
	}

	return &model.CompositionResult{OutputPath: outputPath}, nil
}

func validate(inputs []model.MediaInput, overlays []model.OverlaySlot) error {
	if len(inputs) != inputCount {
		return errors.Wrapf(model.ErrInvalidInputCount, "got %d", len(inputs))
	}

	for i, in := range inputs {
		if in.Speed < atempoMin || in.Speed > atempoMax {
			return errors.Errorf("input %d speed %v is outside [%v, %v]", i, in.Speed, atempoMin, atempoMax)
		}
	}

	var prev time.Duration = -1
	for i, slot := range overlays {
		if slot.At <= prev {
			return errors.Errorf("overlay %d at %s is not after %s", i, slot.At, prev)
		}
		prev = slot.At
	}

	return nil
}

// buildArgs assembles the full ffmpeg invocation. Every input is looped so
// it can never underrun the target duration, the graph does the rest, and
// the result is truncated to the fixed cap with a moov-atom-first layout.
func buildArgs(inputs []model.MediaInput, outputPath string) []string {
	args := []string{"-y", "-hide_banner"}

	for _, in := range inputs {
		args = append(args, "-stream_loop", "-1", "-i", in.LocalPath)
	}

	args = append(args,
		"-filter_complex", buildFilterGraph(inputs),
		"-map", "[vout]",
		"-map", "[aout]",
		"-t", fmt.Sprintf("%g", OutputDuration.Seconds()),
		"-c:v", "libx264",
		"-preset", "veryfast",
		"-pix_fmt", "yuv420p",
		"-movflags", "+faststart",
		outputPath,
	)

	return args
}

// buildFilterGraph expresses the whole composition declaratively: per-input
// speed scaling on video and audio timelines, letterboxed normalization to
// the fixed frame, 33% opacity on streams 2 and 3 alpha-composited over the
// opaque base in index order, and a 3-way audio mix without post-mix
// loudness normalization.
func buildFilterGraph(inputs []model.MediaInput) string {
	var chains []string

	for i, in := range inputs {
		video := fmt.Sprintf(
			"[%d:v]setpts=PTS/%.4g,scale=%d:%d:force_original_aspect_ratio=decrease,"+
				"pad=%d:%d:(ow-iw)/2:(oh-ih)/2,setsar=1",
			i, in.Speed, frameWidth, frameHeight, frameWidth, frameHeight,
		)

		if i > 0 {
			video += fmt.Sprintf(",format=yuva420p,colorchannelmixer=aa=%.2f", overlayOpacity)
		}

		chains = append(chains, fmt.Sprintf("%s[v%d]", video, i))
	}

	for i, in := range inputs {
		chains = append(chains, fmt.Sprintf("[%d:a]atempo=%.4g[a%d]", i, in.Speed, i))
	}

	// Streams 2 and 3 stack over the base in index order.
	chains = append(chains,
		"[v0][v1]overlay=shortest=0[b1]",
		"[b1][v2]overlay=shortest=0[vout]",
		fmt.Sprintf("[a0][a1][a2]amix=inputs=%d:dropout_transition=0:normalize=0[aout]", len(inputs)),
	)

	return strings.Join(chains, ";")
}
