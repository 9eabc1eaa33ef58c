package fetch

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var fixedDay = time.Date(2024, time.March, 9, 15, 4, 5, 0, time.UTC)

func newTestDownloader(t *testing.T, tempDir string) *Downloader {
	t.Helper()
	d := NewDownloader(NewClient("", nil), tempDir)
	d.now = func() time.Time { return fixedDay }
	return d
}

func TestExtension(t *testing.T) {
	tests := []struct {
		name        string
		url         string
		contentType string
		expected    string
	}{
		{"Suffix with query and fragment", "https://example.com/a/b.jpg?w=200#frag", "image/png", "jpg"},
		{"Plain suffix", "https://apod.nasa.gov/apod/image/2024/foo.jpg", "", "jpg"},
		{"Upper case suffix", "https://example.com/PIC.PNG", "", "png"},
		{"No suffix uses content type", "https://images.example.com/photo-123?fm=webp", "image/webp", "webp"},
		{"Content type parameters dropped", "https://example.com/img", "image/jpeg; charset=binary", "jpeg"},
		{"Dot only in host", "https://www.bing.com/th", "image/png", "png"},
		{"Dot only in query", "https://example.com/img?name=a.gif", "image/avif", "avif"},
		{"Nothing to go on", "https://example.com/img", "", "jpg"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, Extension(tt.url, tt.contentType))
		})
	}
}

func TestFilename(t *testing.T) {
	assert.Equal(t, "apod_2024-03-09.jpg", Filename("apod", fixedDay, "jpg"))
	assert.Equal(t, Filename("bing", fixedDay, "jpg"), Filename("bing", fixedDay.Add(5*time.Hour), "jpg"))
}

func TestIsDated(t *testing.T) {
	assert.True(t, IsDated("apod_2024-03-09.jpg", fixedDay))
	assert.True(t, IsDated("national-geographic_2024-03-09.png", fixedDay))
	assert.False(t, IsDated("apod_2024-03-08.jpg", fixedDay))
	assert.False(t, IsDated(".walland.lock", fixedDay))
}

func TestDownload_TempDirectory(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "image/webp")
		_, _ = w.Write([]byte("RIFF....WEBP"))
	}))
	defer ts.Close()

	tempDir := filepath.Join(t.TempDir(), "walland")
	d := newTestDownloader(t, tempDir)

	img, err := d.Download(context.Background(), "unsplash", ts.URL+"/photo-123", false)
	require.NoError(t, err)

	assert.Equal(t, filepath.Join(tempDir, "unsplash_2024-03-09.webp"), img.Path)
	assert.Equal(t, "webp", img.Ext)
	assert.Equal(t, "unsplash", img.Source)
	assert.True(t, filepath.IsAbs(img.Path))

	data, err := os.ReadFile(img.Path)
	require.NoError(t, err)
	assert.Equal(t, "RIFF....WEBP", string(data))
}

func TestDownload_SaveToWorkingDirectory(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte("jpeg bytes"))
	}))
	defer ts.Close()

	wd := t.TempDir()
	tempDir := filepath.Join(t.TempDir(), "unused")
	d := newTestDownloader(t, tempDir)
	d.workDir = func() (string, error) { return wd, nil }

	img, err := d.Download(context.Background(), "apod", ts.URL+"/image/2024/foo.jpg?w=200#frag", true)
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(wd, "apod_2024-03-09.jpg"), img.Path)

	_, err = os.Stat(tempDir)
	assert.True(t, os.IsNotExist(err), "temp directory should not be created when saving")
}

func TestDownload_IdempotentNaming(t *testing.T) {
	calls := 0
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		if calls == 1 {
			_, _ = w.Write([]byte("first"))
			return
		}
		_, _ = w.Write([]byte("second"))
	}))
	defer ts.Close()

	d := newTestDownloader(t, t.TempDir())

	first, err := d.Download(context.Background(), "epod", ts.URL+"/a.jpg", false)
	require.NoError(t, err)
	second, err := d.Download(context.Background(), "epod", ts.URL+"/a.jpg", false)
	require.NoError(t, err)

	assert.Equal(t, first.Path, second.Path)
	data, err := os.ReadFile(second.Path)
	require.NoError(t, err)
	assert.Equal(t, "second", string(data), "a later download replaces the earlier one")
}

func TestDownload_SniffsMissingContentType(t *testing.T) {
	png := []byte("\x89PNG\r\n\x1a\n\x00\x00\x00\rIHDR")
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header()["Content-Type"] = nil
		_, _ = w.Write(png)
	}))
	defer ts.Close()

	d := newTestDownloader(t, t.TempDir())
	img, err := d.Download(context.Background(), "nasa", ts.URL+"/image", false)
	require.NoError(t, err)
	assert.Equal(t, "png", img.Ext)
}

func TestDownload_FailureWritesNothing(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	}))
	defer ts.Close()

	tempDir := t.TempDir()
	d := newTestDownloader(t, tempDir)

	_, err := d.Download(context.Background(), "bing", ts.URL+"/missing.jpg", false)
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrFetchFailed))

	entries, err := os.ReadDir(tempDir)
	require.NoError(t, err)
	assert.Empty(t, entries)
}

func TestDownload_TruncatedBodyKeepsEarlierCopy(t *testing.T) {
	var truncate atomic.Bool
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !truncate.Load() {
			_, _ = w.Write([]byte("complete image"))
			return
		}
		w.Header().Set("Content-Length", "100000")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("short"))

		conn, _, err := w.(http.Hijacker).Hijack()
		if err == nil {
			conn.Close()
		}
	}))
	defer ts.Close()

	tempDir := t.TempDir()
	d := newTestDownloader(t, tempDir)

	good, err := d.Download(context.Background(), "bing", ts.URL+"/a.jpg", false)
	require.NoError(t, err)

	truncate.Store(true)
	_, err = d.Download(context.Background(), "bing", ts.URL+"/a.jpg", false)
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrFetchFailed))

	entries, err := os.ReadDir(tempDir)
	require.NoError(t, err)
	require.Len(t, entries, 1, "no partial file is left behind")
	assert.Equal(t, "bing_2024-03-09.jpg", entries[0].Name())

	data, err := os.ReadFile(good.Path)
	require.NoError(t, err)
	assert.Equal(t, "complete image", string(data))
}

func TestDownload_TruncatedBodyWritesNothing(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Length", "100000")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("short"))

		conn, _, err := w.(http.Hijacker).Hijack()
		if err == nil {
			conn.Close()
		}
	}))
	defer ts.Close()

	tempDir := t.TempDir()
	d := newTestDownloader(t, tempDir)

	_, err := d.Download(context.Background(), "bing", ts.URL+"/a.jpg", false)
	require.Error(t, err)

	entries, err := os.ReadDir(tempDir)
	require.NoError(t, err)
	assert.Empty(t, entries)
}
