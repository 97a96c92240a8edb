// Package fetch downloads the registry inputs when they are not on disk yet.
package fetch

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"net/http"
	"os"
	"path/filepath"

	"golang.org/x/sync/errgroup"
)

// Source is a remote file and the local path it is stored at.
type Source struct {
	URL  string
	Path string
}

// StatusError is returned when the server answers with a non-2xx status.
type StatusError struct {
	URL        string
	StatusCode int
	Status     string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("fetching %s: %s", e.URL, e.Status)
}

// Fetch downloads every source whose path does not exist yet, or all of them
// when force is set. Downloads run concurrently; the first failure cancels
// the rest. It returns the paths that were written.
func Fetch(ctx context.Context, client *http.Client, sources []Source, force bool) ([]string, error) {
	if client == nil {
		client = http.DefaultClient
	}

	written := make([]bool, len(sources))

	g, ctx := errgroup.WithContext(ctx)
	for i, src := range sources {
		if !force {
			if _, err := os.Stat(src.Path); err == nil {
				slog.Debug("input present, skipping download", "path", src.Path)
				continue
			} else if !errors.Is(err, fs.ErrNotExist) {
				return nil, err
			}
		}

		g.Go(func() error {
			if err := download(ctx, client, src); err != nil {
				return err
			}
			written[i] = true
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}

	var paths []string
	for i, ok := range written {
		if ok {
			paths = append(paths, sources[i].Path)
		}
	}
	return paths, nil
}

// download writes to a temporary file next to the destination and renames it
// into place, so an interrupted download never leaves a truncated input.
func download(ctx context.Context, client *http.Client, src Source) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, src.URL, nil)
	if err != nil {
		return fmt.Errorf("fetching %s: %w", src.URL, err)
	}

	resp, err := client.Do(req)
	if err != nil {
		return fmt.Errorf("fetching %s: %w", src.URL, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return &StatusError{URL: src.URL, StatusCode: resp.StatusCode, Status: resp.Status}
	}

	if err := os.MkdirAll(filepath.Dir(src.Path), 0o755); err != nil {
		return err
	}

	f, err := os.CreateTemp(filepath.Dir(src.Path), ".glgen-*")
	if err != nil {
		return err
	}
	defer os.Remove(f.Name())

	n, err := io.Copy(f, resp.Body)
	if err != nil {
		f.Close()
		return fmt.Errorf("fetching %s: %w", src.URL, err)
	}
	if err := f.Close(); err != nil {
		return err
	}

	if err := os.Rename(f.Name(), src.Path); err != nil {
		return err
	}

	slog.Info("downloaded", "url", src.URL, "path", src.Path, "bytes", n)
	return nil
}
