package scrape

import (
	"context"
	"fmt"
	"time"

	"github.com/go-rod/rod"
	"github.com/go-rod/rod/lib/launcher"
	"github.com/go-rod/rod/lib/proto"
	"github.com/go-rod/stealth"
	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"

	"github.com/tikblend/tikblend/pkg/config"
)

// videoOrMediaAnchor matches a playback element or a direct media link on a
// detail page.
const videoOrMediaAnchor = `video, a[href*=".mp4"]`

// Browser drives a shared headless browser. Pages are scoped per call and
// torn down on every exit path.
type Browser struct {
	cfg      *config.Scrape
	launcher *launcher.Launcher
	browser  *rod.Browser
}

func NewBrowser(cfg *config.Scrape) (browser *Browser, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("browser launch error: %v", r)
		}
	}()

	l := launcher.New().Headless(true)

	u, err := l.Launch()
	if err != nil {
		return nil, errors.Wrap(err, "failed to launch browser")
	}

	b := rod.New().ControlURL(u)
	if err := b.Connect(); err != nil {
		l.Kill()
		return nil, errors.Wrap(err, "failed to connect to browser")
	}

	log.Debugf("browser connected at %s", u)

	return &Browser{cfg: cfg, launcher: l, browser: b}, nil
}

func (b *Browser) Close() {
	if err := b.browser.Close(); err != nil {
		log.WithError(err).Warn("failed to close browser")
	}

	b.launcher.Kill()
	b.launcher.Cleanup()
}

// WithPage acquires a stealth page with the fixed mobile profile applied,
// runs fn, and guarantees the page is closed whether fn succeeds, fails or
// panics inside the driver.
func (b *Browser) WithPage(ctx context.Context, fn func(page *rod.Page) error) (err error) {
	page, err := stealth.Page(b.browser)
	if err != nil {
		return errors.Wrap(err, "failed to open page")
	}

	defer func() {
		if closeErr := page.Close(); closeErr != nil {
			log.WithError(closeErr).Debug("page close failed")
		}
		if r := recover(); r != nil {
			err = fmt.Errorf("browser session error: %v", r)
		}
	}()

	page = page.Context(ctx)

	if err := page.SetUserAgent(&proto.NetworkSetUserAgentOverride{
		UserAgent:      b.cfg.UserAgent,
		AcceptLanguage: b.cfg.AcceptLanguage,
	}); err != nil {
		return errors.Wrap(err, "failed to set user agent")
	}

	if err := (proto.EmulationSetDeviceMetricsOverride{
		Width:             390,
		Height:            844,
		DeviceScaleFactor: 2,
		Mobile:            true,
	}).Call(page); err != nil {
		return errors.Wrap(err, "failed to set viewport")
	}

	return fn(page)
}

// navigate loads url and lets client-side rendering settle. The load wait is
// bounded, the selector wait is bounded and non-fatal: expiry means we
// continue with whatever DOM state exists.
func (b *Browser) navigate(page *rod.Page, url string, waitSelector string) error {
	nav := page.Timeout(b.cfg.NavigationTimeout.Duration)

	if err := nav.Navigate(url); err != nil {
		return errors.Wrapf(err, "failed to navigate to %q", url)
	}

	if err := nav.WaitLoad(); err != nil {
		log.WithError(err).Debugf("load wait expired for %q", url)
	}

	if err := page.WaitIdle(b.cfg.NavigationTimeout.Duration); err != nil {
		log.WithError(err).Debugf("idle wait expired for %q", url)
	}

	time.Sleep(b.cfg.SettleDelay.Duration)

	if waitSelector != "" {
		if _, err := page.Timeout(b.cfg.SelectorTimeout.Duration).Element(waitSelector); err != nil {
			log.Debugf("selector %q not found on %q", waitSelector, url)
		}
	}

	return nil
}

// PageSnapshot navigates to url and returns its rendered DOM state.
func (b *Browser) PageSnapshot(ctx context.Context, url string, waitSelector string) (*Snapshot, error) {
	var snap *Snapshot

	err := b.WithPage(ctx, func(page *rod.Page) error {
		if err := b.navigate(page, url, waitSelector); err != nil {
			return err
		}

		var err error
		snap, err = b.snapshot(page)
		return err
	})

	return snap, err
}

// DetailSnapshot navigates to a detail page and additionally encourages
// playback so lazy media locators make it into the DOM.
func (b *Browser) DetailSnapshot(ctx context.Context, url string) (*Snapshot, error) {
	var snap *Snapshot

	err := b.WithPage(ctx, func(page *rod.Page) error {
		if err := b.navigate(page, url, videoOrMediaAnchor); err != nil {
			return err
		}

		b.encouragePlayback(page)

		var err error
		snap, err = b.snapshot(page)
		if err != nil {
			return err
		}

		if len(snap.PlayingSources) == 0 {
			// One bounded wait for the player to pick a source.
			if src := b.waitForSource(page); src != "" {
				snap.PlayingSources = append(snap.PlayingSources, src)
			}
		}

		return nil
	})

	return snap, err
}

// encouragePlayback scrolls the primary media element into view, clicks it
// and attempts a programmatic play. Every step is best-effort, failures are
// transient DOM states rather than errors.
func (b *Browser) encouragePlayback(page *rod.Page) {
	el, err := page.Timeout(b.cfg.SelectorTimeout.Duration).Element("video")
	if err != nil {
		return
	}

	if err := el.ScrollIntoView(); err != nil {
		log.WithError(err).Debug("scroll into view failed")
	}

	if err := el.Click(proto.InputMouseButtonLeft, 1); err != nil {
		log.WithError(err).Debug("click failed")
	}

	time.Sleep(600 * time.Millisecond)

	if _, err := el.Eval(`() => {
		if (this.paused) {
			const p = this.play();
			if (p && typeof p.catch === "function") p.catch(() => {});
		}
	}`); err != nil {
		log.WithError(err).Debug("programmatic play failed")
	}

	time.Sleep(600 * time.Millisecond)
}

func (b *Browser) snapshot(page *rod.Page) (*Snapshot, error) {
	html, err := page.HTML()
	if err != nil {
		return nil, errors.Wrap(err, "failed to read page HTML")
	}

	snap := &Snapshot{HTML: html}

	obj, err := page.Eval(`() => {
		const out = [];
		const v = document.querySelector("video");
		if (v) {
			if (v.currentSrc) out.push(v.currentSrc);
			if (v.src) out.push(v.src);
		}
		document.querySelectorAll("video source").forEach(s => {
			if (s.src) out.push(s.src);
		});
		return out;
	}`)
	if err != nil {
		// Snapshot without runtime sources is still usable.
		log.WithError(err).Debug("failed to read playing sources")
		return snap, nil
	}

	for _, v := range obj.Value.Arr() {
		if s := v.Str(); s != "" {
			snap.PlayingSources = append(snap.PlayingSources, s)
		}
	}

	return snap, nil
}

// waitForSource polls the primary media element until its source becomes
// non-empty or the selector timeout expires.
func (b *Browser) waitForSource(page *rod.Page) string {
	deadline := time.Now().Add(b.cfg.SelectorTimeout.Duration)

	for time.Now().Before(deadline) {
		obj, err := page.Eval(`() => {
			const v = document.querySelector("video");
			return v ? (v.currentSrc || v.src || "") : "";
		}`)
		if err == nil {
			if src := obj.Value.Str(); src != "" {
				return src
			}
		}

		time.Sleep(250 * time.Millisecond)
	}

	return ""
}
