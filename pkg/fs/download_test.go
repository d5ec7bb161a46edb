package fs

import (
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tikblend/tikblend/pkg/model"
)

func TestDownloader_Download(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, "media bytes")
	}))
	defer srv.Close()

	tmpDir := t.TempDir()
	stor, err := NewLocal(tmpDir, "localhost")
	require.NoError(t, err)

	d := NewDownloader(stor)

	err = d.Download(testCtx, srv.URL+"/clip.mp4", "tmp/2024-01-01/video1.mp4")
	require.NoError(t, err)

	data, err := os.ReadFile(filepath.Join(tmpDir, "tmp", "2024-01-01", "video1.mp4"))
	require.NoError(t, err)
	assert.Equal(t, "media bytes", string(data))
}

func TestDownloader_BadStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	}))
	defer srv.Close()

	stor, err := NewLocal(t.TempDir(), "localhost")
	require.NoError(t, err)

	err = NewDownloader(stor).Download(testCtx, srv.URL+"/clip.mp4", "video1.mp4")

	var downloadErr *model.DownloadError
	require.True(t, errors.As(err, &downloadErr))
	assert.Equal(t, srv.URL+"/clip.mp4", downloadErr.URL)
}

func TestDownloader_TransportError(t *testing.T) {
	stor, err := NewLocal(t.TempDir(), "localhost")
	require.NoError(t, err)

	err = NewDownloader(stor).Download(testCtx, "http://127.0.0.1:1/clip.mp4", "video1.mp4")

	var downloadErr *model.DownloadError
	assert.True(t, errors.As(err, &downloadErr))
}
