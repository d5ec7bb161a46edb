package config

import (
	"fmt"
	"path/filepath"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/hashicorp/go-multierror"
	"github.com/pkg/errors"
)

// Server is the web server configuration.
type Server struct {
	// Hostname to use for artifact links
	Hostname string `toml:"hostname"`
	// Port is a server port to listen to
	Port int `toml:"port"`
	// Bind a specific IP address for the server.
	// "*": bind all IP addresses, which is the default
	BindAddress string `toml:"bind_address"`
	// DataDir is a path to a directory to keep downloaded sources and
	// generated blend videos, served to users via the web server.
	DataDir string `toml:"data_dir"`
}

// Scrape configures the content resolution pipeline.
type Scrape struct {
	// BaseURL is the front end hosting the trending listing
	BaseURL string `toml:"base_url"`
	// ListingPath is the path of the trending listing page
	ListingPath string `toml:"listing_path"`
	// DetailPath is the path prefix identifying item detail pages
	DetailPath string `toml:"detail_path"`
	// Browser toggles headless browser automation. When disabled the
	// pipeline uses static HTML fetches only.
	Browser bool `toml:"browser"`
	// UserAgent is sent on every request, browser or static
	UserAgent string `toml:"user_agent"`
	// AcceptLanguage is the locale header profile
	AcceptLanguage string `toml:"accept_language"`
	// NavigationTimeout bounds every browser navigation
	NavigationTimeout Duration `toml:"navigation_timeout"`
	// SettleDelay is applied after navigation to let client-side
	// rendering catch up
	SettleDelay Duration `toml:"settle_delay"`
	// SelectorTimeout bounds content-specific selector waits. Expiry is
	// not fatal, resolution continues with whatever DOM state exists.
	SelectorTimeout Duration `toml:"selector_timeout"`
	// FetchTimeout bounds static HTML fetches
	FetchTimeout Duration `toml:"fetch_timeout"`
}

// News configures the headline aggregation.
type News struct {
	// Feeds is a list of RSS feed URLs queried in order
	Feeds []string `toml:"feeds"`
	// Timeout bounds each feed fetch
	Timeout Duration `toml:"timeout"`
}

// Database configuration.
type Database struct {
	// Dir is a directory to keep database files
	Dir string `toml:"dir"`
}

type Config struct {
	Server   Server   `toml:"server"`
	Scrape   Scrape   `toml:"scrape"`
	News     News     `toml:"news"`
	Database Database `toml:"database"`
	// Schedule is an optional cron expression that pre-generates the
	// current day's video
	Schedule string `toml:"schedule"`
}

// LoadConfig loads TOML configuration from a file path.
func LoadConfig(path string) (*Config, error) {
	config := Config{}
	_, err := toml.DecodeFile(path, &config)
	if err != nil {
		return nil, errors.Wrap(err, "failed to load config file")
	}

	config.applyDefaults(path)

	if err := config.validate(); err != nil {
		return nil, err
	}

	return &config, nil
}

func (c *Config) validate() error {
	var result *multierror.Error

	if c.Server.DataDir == "" {
		result = multierror.Append(result, errors.New("data directory is required"))
	}

	return result.ErrorOrNil()
}

func (c *Config) applyDefaults(configPath string) {
	if c.Server.Hostname == "" {
		if c.Server.Port != 0 && c.Server.Port != 80 {
			c.Server.Hostname = fmt.Sprintf("http://localhost:%d", c.Server.Port)
		} else {
			c.Server.Hostname = "http://localhost"
		}
	}

	if c.Database.Dir == "" {
		c.Database.Dir = filepath.Join(filepath.Dir(configPath), "db")
	}

	if c.Scrape.BaseURL == "" {
		c.Scrape.BaseURL = "https://www.tikviewer.com"
	}

	if c.Scrape.ListingPath == "" {
		c.Scrape.ListingPath = "/trending"
	}

	if c.Scrape.DetailPath == "" {
		c.Scrape.DetailPath = "/video/"
	}

	if c.Scrape.UserAgent == "" {
		c.Scrape.UserAgent = DefaultUserAgent
	}

	if c.Scrape.AcceptLanguage == "" {
		c.Scrape.AcceptLanguage = "en-US,en;q=0.9"
	}

	if c.Scrape.NavigationTimeout.Duration == 0 {
		c.Scrape.NavigationTimeout.Duration = 30 * time.Second
	}

	if c.Scrape.SettleDelay.Duration == 0 {
		c.Scrape.SettleDelay.Duration = 2500 * time.Millisecond
	}

	if c.Scrape.SelectorTimeout.Duration == 0 {
		c.Scrape.SelectorTimeout.Duration = 8 * time.Second
	}

	if c.Scrape.FetchTimeout.Duration == 0 {
		c.Scrape.FetchTimeout.Duration = 20 * time.Second
	}

	if len(c.News.Feeds) == 0 {
		c.News.Feeds = []string{
			"http://rss.cnn.com/rss/cnn_topstories.rss",
			"https://feeds.bbci.co.uk/news/rss.xml",
			"https://feeds.nbcnews.com/nbcnews/public/news",
		}
	}

	if c.News.Timeout.Duration == 0 {
		c.News.Timeout.Duration = 10 * time.Second
	}
}

// DefaultUserAgent mimics a desktop Chrome build the front end serves
// full markup to.
const DefaultUserAgent = "Mozilla/5.0 (Macintosh; Intel Mac OS X 10_15_7) " +
	"AppleWebKit/537.36 (KHTML, like Gecko) Chrome/124.0.0.0 Safari/537.36"

type Duration struct {
	time.Duration
}

func (d *Duration) UnmarshalText(text []byte) error {
	var err error
	d.Duration, err = time.ParseDuration(string(text))
	return err
}
