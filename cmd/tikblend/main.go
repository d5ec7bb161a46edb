package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jessevdk/go-flags"
	"github.com/robfig/cron/v3"
	log "github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"

	"github.com/tikblend/tikblend/pkg/config"
	"github.com/tikblend/tikblend/pkg/db"
	"github.com/tikblend/tikblend/pkg/fs"
	"github.com/tikblend/tikblend/pkg/generator"
	"github.com/tikblend/tikblend/pkg/media"
	"github.com/tikblend/tikblend/pkg/news"
	"github.com/tikblend/tikblend/pkg/scrape"
)

type Opts struct {
	ConfigPath string `long:"config" short:"c" default:"config.toml" env:"TIKBLEND_CONFIG_PATH"`
	Debug      bool   `long:"debug" env:"TIKBLEND_DEBUG"`
}

const dateKeyLayout = "2006-01-02"

var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

func main() {
	log.SetFormatter(&log.TextFormatter{
		TimestampFormat: time.RFC3339,
		FullTimestamp:   true,
	})

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	group, ctx := errgroup.WithContext(ctx)

	// Parse args
	opts := Opts{}
	_, err := flags.Parse(&opts)
	if err != nil {
		log.WithError(err).Fatal("failed to parse command line arguments")
	}

	if opts.Debug {
		log.SetLevel(log.DebugLevel)
	}

	log.WithFields(log.Fields{
		"version": version,
		"commit":  commit,
		"date":    date,
	}).Info("running tikblend")

	// Load TOML file
	log.Debugf("loading configuration %q", opts.ConfigPath)
	cfg, err := config.LoadConfig(opts.ConfigPath)
	if err != nil {
		log.WithError(err).Fatal("failed to load configuration file")
	}

	compositor, err := media.New(ctx)
	if err != nil {
		log.WithError(err).Fatal("ffmpeg error")
	}

	storage, err := fs.NewLocal(cfg.Server.DataDir, cfg.Server.Hostname)
	if err != nil {
		log.WithError(err).Fatal("failed to open data dir")
	}

	database, err := db.NewBadger(cfg.Database.Dir)
	if err != nil {
		log.WithError(err).Fatal("failed to open database")
	}
	defer database.Close()

	// The browser is optional, the pipeline degrades to static fetches
	// when it can't be launched.
	var browser *scrape.Browser
	if cfg.Scrape.Browser {
		browser, err = scrape.NewBrowser(&cfg.Scrape)
		if err != nil {
			log.WithError(err).Warn("browser unavailable, using static fetches only")
			browser = nil
		} else {
			defer browser.Close()
		}
	}

	gen := generator.New(
		scrape.NewResolver(&cfg.Scrape, browser),
		fs.NewDownloader(storage),
		news.NewAggregator(&cfg.News),
		compositor,
		database,
		storage,
	)

	// Optional pre-generation schedule
	if cfg.Schedule != "" {
		c := cron.New(cron.WithChain(cron.SkipIfStillRunning(cron.DefaultLogger)))

		if _, err := c.AddFunc(cfg.Schedule, func() {
			key := time.Now().UTC().Format(dateKeyLayout)
			if _, err := gen.Generate(ctx, key); err != nil {
				log.WithError(err).Errorf("scheduled generation failed for %q", key)
			}
		}); err != nil {
			log.WithError(err).Fatalf("can't create cron task for schedule %q", cfg.Schedule)
		}

		c.Start()

		group.Go(func() error {
			defer func() {
				log.Info("shutting down cron")
				c.Stop()
			}()

			<-ctx.Done()
			return ctx.Err()
		})
	}

	// Run web server
	srv := NewServer(cfg, gen, database, news.NewAggregator(&cfg.News), storage)

	group.Go(func() error {
		log.Infof("running listener at %s", srv.Addr)
		return srv.ListenAndServe()
	})

	group.Go(func() error {
		// Shutdown web server
		defer func() {
			log.Info("shutting down web server")
			if err := srv.Shutdown(ctx); err != nil {
				log.WithError(err).Error("server shutdown failed")
			}
		}()

		for {
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-stop:
				cancel()
				return nil
			}
		}
	})

	if err := group.Wait(); err != nil && (err != context.Canceled && err != http.ErrServerClosed) {
		log.WithError(err).Error("wait error")
	}

	log.Info("gracefully stopped")
}
