package fetch

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"mime"
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/thalesraymond/walland/lib/log"
)

// DefaultTempDirectory holds downloads when they are not saved to the
// working directory.
const DefaultTempDirectory = "/tmp/walland"

const dateLayout = "2006-01-02"

// DownloadedImage is an image written to disk by a Downloader.
type DownloadedImage struct {
	Path   string // absolute
	Source string
	Date   time.Time
	Ext    string
}

// Downloader fetches images and names them by source and day, so a second
// download for the same source on the same day replaces the first.
type Downloader struct {
	client  *Client
	tempDir string

	now     func() time.Time
	workDir func() (string, error)
}

// NewDownloader returns a Downloader writing unsaved images to tempDir.
func NewDownloader(client *Client, tempDir string) *Downloader {
	if tempDir == "" {
		tempDir = DefaultTempDirectory
	}
	return &Downloader{
		client:  client,
		tempDir: tempDir,
		now:     time.Now,
		workDir: os.Getwd,
	}
}

// TempDir is where unsaved images are written.
func (d *Downloader) TempDir() string {
	return d.tempDir
}

// Download GETs imageURL and writes it to <dir>/<source>_<YYYY-MM-DD>.<ext>.
// dir is the working directory when save is set and the temp directory
// otherwise.
func (d *Downloader) Download(ctx context.Context, source, imageURL string, save bool) (DownloadedImage, error) {
	log.Debugf("Image URL: %s", imageURL)

	resp, err := d.client.Open(ctx, imageURL)
	if err != nil {
		return DownloadedImage{}, err
	}
	defer resp.Body.Close()

	body := bufio.NewReaderSize(resp.Body, 512)
	contentType := resp.Header.Get("Content-Type")
	if contentType == "" {
		// Peek errors just mean a short body, sniff what arrived
		head, _ := body.Peek(512)
		contentType = http.DetectContentType(head)
	}

	dir, err := d.targetDir(save)
	if err != nil {
		return DownloadedImage{}, err
	}

	day := d.now()
	ext := Extension(imageURL, contentType)
	path := filepath.Join(dir, Filename(source, day, ext))
	log.Debugf("Saving image as %s", path)

	if err := writeAtomic(path, body); err != nil {
		return DownloadedImage{}, fmt.Errorf("%w: read %s: %v", ErrFetchFailed, imageURL, err)
	}

	return DownloadedImage{Path: path, Source: source, Date: day, Ext: ext}, nil
}

// writeAtomic streams r into a hidden sibling of path and renames it into
// place, so a failed read never replaces an earlier complete file.
func writeAtomic(path string, r io.Reader) error {
	f, err := os.CreateTemp(filepath.Dir(path), "."+filepath.Base(path)+".*")
	if err != nil {
		return err
	}
	tmp := f.Name()

	if _, err := io.Copy(f, r); err != nil {
		f.Close()
		os.Remove(tmp)
		return err
	}
	if err := f.Close(); err != nil {
		os.Remove(tmp)
		return err
	}
	if err := os.Chmod(tmp, 0644); err != nil {
		os.Remove(tmp)
		return err
	}
	if err := os.Rename(tmp, path); err != nil {
		os.Remove(tmp)
		return err
	}
	return nil
}

func (d *Downloader) targetDir(save bool) (string, error) {
	if save {
		wd, err := d.workDir()
		if err != nil {
			return "", err
		}
		return filepath.Abs(wd)
	}

	if err := os.MkdirAll(d.tempDir, 0755); err != nil {
		return "", fmt.Errorf("error creating temp directory [%s]: %w", d.tempDir, err)
	}
	return filepath.Abs(d.tempDir)
}

// Filename is the deterministic name of a source's image for a day.
func Filename(source string, day time.Time, ext string) string {
	return fmt.Sprintf("%s_%s.%s", source, day.Format(dateLayout), ext)
}

// Extension derives a file extension from the URL path, ignoring the query
// and fragment, and falls back to the subtype of contentType.
func Extension(rawURL, contentType string) string {
	p := rawURL
	if u, err := url.Parse(rawURL); err == nil && u.Scheme != "" {
		p = u.Path
	} else if i := strings.IndexAny(p, "?#"); i >= 0 {
		p = p[:i]
	}
	last := p[strings.LastIndex(p, "/")+1:]
	if i := strings.LastIndex(last, "."); i >= 0 && i < len(last)-1 {
		return strings.ToLower(last[i+1:])
	}

	mediaType, _, err := mime.ParseMediaType(contentType)
	if err != nil {
		mediaType = strings.TrimSpace(strings.SplitN(contentType, ";", 2)[0])
	}
	if i := strings.LastIndex(mediaType, "/"); i >= 0 && i < len(mediaType)-1 {
		return strings.ToLower(mediaType[i+1:])
	}
	return "jpg"
}

// IsDated reports whether name is a download for day, whatever its source.
func IsDated(name string, day time.Time) bool {
	stem := strings.TrimSuffix(name, filepath.Ext(name))
	return strings.HasSuffix(stem, "_"+day.Format(dateLayout))
}
