// Package geoip keeps a MaxMind GeoLite2 country database up to date and
// resolves player addresses with it.
package geoip

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"os"
	"time"

	"github.com/rs/zerolog/log"
)

// EnsureDB downloads the database when it is missing at path or older than
// maxAge. It reports whether a new file was written.
func EnsureDB(ctx context.Context, path, url string, maxAge time.Duration) (bool, error) {
	info, err := os.Stat(path)

	if err == nil {
		if time.Since(info.ModTime()) < maxAge {
			log.Debug().Str("path", path).Msg("GeoIP database is up to date")
			return false, nil
		}
		log.Info().Str("path", path).Msg("GeoIP database is outdated, updating...")
	} else if os.IsNotExist(err) {
		log.Info().Str("path", path).Msg("GeoIP database missing, downloading...")
	} else {
		return false, err
	}

	if err := downloadFile(ctx, path, url); err != nil {
		return false, err
	}

	return true, nil
}

// Refresh checks the database every interval until ctx is done and reloads
// p after each download.
func Refresh(ctx context.Context, p *Provider, path, url string, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			updated, err := EnsureDB(ctx, path, url, interval)
			if err != nil {
				log.Error().Err(err).Msg("Failed to update GeoIP database")
				continue
			}
			if updated {
				if err := p.Reload(path); err != nil {
					log.Error().Err(err).Msg("Failed to reload GeoIP database")
				}
			}
		}
	}
}

// downloadFile writes the body of url to path through a temporary file so
// readers never see a partial database.
func downloadFile(ctx context.Context, path, url string) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return err
	}

	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		return err
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("download %s: unexpected status %s", url, resp.Status)
	}

	tmpPath := path + ".tmp"
	out, err := os.Create(tmpPath)
	if err != nil {
		return err
	}
	defer func() { _ = os.Remove(tmpPath) }()

	if _, err := io.Copy(out, resp.Body); err != nil {
		_ = out.Close()
		return err
	}
	if err := out.Close(); err != nil {
		return err
	}

	return os.Rename(tmpPath, path)
}
