package fs

import (
	"context"
	"net/http"
	"time"

	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"

	"github.com/tikblend/tikblend/pkg/model"
)

// DownloadTimeout bounds a single media download.
const DownloadTimeout = 5 * time.Minute

// Downloader streams remote media resources into storage.
type Downloader struct {
	storage Storage
	client  *http.Client
}

func NewDownloader(storage Storage) *Downloader {
	return &Downloader{
		storage: storage,
		client:  &http.Client{Timeout: DownloadTimeout},
	}
}

// Download fetches url and stores it under name. Any transport or status
// failure is reported as a DownloadError, the request-level taxonomy treats
// it as fatal.
func (d *Downloader) Download(ctx context.Context, url string, name string) error {
	log.Debugf("downloading %q to %q", url, name)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return &model.DownloadError{URL: url, Err: err}
	}

	resp, err := d.client.Do(req)
	if err != nil {
		return &model.DownloadError{URL: url, Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return &model.DownloadError{URL: url, Err: errors.Errorf("unexpected status %d", resp.StatusCode)}
	}

	written, err := d.storage.Create(ctx, name, resp.Body)
	if err != nil {
		return &model.DownloadError{URL: url, Err: err}
	}

	log.Debugf("downloaded %d bytes to %q", written, name)
	return nil
}
