package fs

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strings"

	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"
)

// Local keeps artifacts on the local file system under a single root
// directory and maps them to URLs below a hostname.
type Local struct {
	hostname string
	rootDir  string
}

var _ Storage = (*Local)(nil)

func NewLocal(rootDir string, hostname string) (*Local, error) {
	if hostname == "" {
		return nil, errors.New("hostname can't be empty")
	}

	hostname = strings.TrimSuffix(hostname, "/")
	if !strings.HasPrefix(hostname, "http") {
		hostname = fmt.Sprintf("http://%s", hostname)
	}

	if err := os.MkdirAll(rootDir, 0755); err != nil {
		return nil, errors.Wrapf(err, "failed to create data dir %q", rootDir)
	}

	return &Local{rootDir: rootDir, hostname: hostname}, nil
}

func (l *Local) Open(name string) (http.File, error) {
	return http.Dir(l.rootDir).Open(name)
}

func (l *Local) Create(ctx context.Context, name string, reader io.Reader) (int64, error) {
	var (
		logger = log.WithField("name", name)
		path   = l.Path(name)
	)

	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return 0, errors.Wrapf(err, "failed to create directory for %q", name)
	}

	logger.Debugf("copying to: %s", path)
	written, err := l.copyFile(reader, path)
	if err != nil {
		return 0, errors.Wrap(err, "failed to copy file")
	}

	logger.Debugf("copied %d bytes", written)
	return written, nil
}

func (l *Local) Delete(ctx context.Context, name string) error {
	return os.Remove(l.Path(name))
}

func (l *Local) Path(name string) string {
	return filepath.Join(l.rootDir, filepath.FromSlash(name))
}

func (l *Local) URL(ctx context.Context, name string) (string, error) {
	if _, err := Size(l, "/"+strings.TrimPrefix(name, "/")); err != nil {
		return "", errors.Wrap(err, "failed to check whether file exists")
	}

	return fmt.Sprintf("%s/%s", l.hostname, strings.TrimPrefix(name, "/")), nil
}

func (l *Local) copyFile(source io.Reader, destinationPath string) (int64, error) {
	dest, err := os.Create(destinationPath)
	if err != nil {
		return 0, errors.Wrap(err, "failed to create destination file")
	}

	defer dest.Close()

	written, err := io.Copy(dest, source)
	if err != nil {
		return 0, errors.Wrap(err, "failed to copy data")
	}

	return written, nil
}
