package fetch

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/matryer/try.v1"

	appLog "hkholiday/internal/log"
)

// Source identifies a single URL to retrieve.
type Source struct {
	// ID tags log lines and the resulting records.
	ID string
	// URL is the endpoint, already year-expanded by the caller.
	URL string
	// LocalPath, if set, is a local copy used as a last resort when both
	// the network and the disk cache come up empty.
	LocalPath string
}

// Result contains the outcome of fetching a single source.
type Result struct {
	Source    Source
	Body      []byte
	FromCache bool // true if the body came from the disk cache or LocalPath
}

// cacheEntry holds HTTP cache metadata for a single URL.
type cacheEntry struct {
	URL          string    `json:"url"`
	ETag         string    `json:"etag,omitempty"`
	LastModified string    `json:"last_modified,omitempty"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// Fetcher retrieves holiday sources with retry, ETag/Last-Modified
// conditional requests, and a disk-backed cache keyed by URL hash.
type Fetcher struct {
	client   *http.Client
	cacheDir string
	retries  int
	backoff  time.Duration
}

// NewFetcher creates a Fetcher. cacheDir is the base directory for per-URL
// cache subdirectories; retries is the maximum attempts per request and
// backoff the linear backoff unit between them.
func NewFetcher(cacheDir string, retries int, backoff time.Duration) *Fetcher {
	if cacheDir == "" {
		// Fallback to a relative dir so development runs without root.
		cacheDir = "./var/http-cache"
	}
	if retries <= 0 {
		retries = 3
	}
	if backoff <= 0 {
		backoff = 500 * time.Millisecond
	}
	// try.MaxRetries is a package-level cap; left alone it would truncate
	// a larger configured count and swap the transport error for the
	// generic retry-limit sentinel.
	if retries > try.MaxRetries {
		try.MaxRetries = retries
	}
	return &Fetcher{
		client: &http.Client{
			Timeout: 15 * time.Second,
		},
		cacheDir: cacheDir,
		retries:  retries,
		backoff:  backoff,
	}
}

// Fetch retrieves a single source, honoring ETag and Last-Modified.
//
// Failure ladder: network (with retry) -> disk cache -> LocalPath. Only
// when all three come up empty does Fetch return an error; the caller
// logs a warning and skips the source.
func (f *Fetcher) Fetch(ctx context.Context, src Source) (Result, error) {
	if src.URL == "" {
		return Result{}, errors.New("source URL is empty")
	}

	cachePath := f.cachePathForURL(src.URL)
	if err := os.MkdirAll(cachePath, 0o700); err != nil {
		return Result{}, err
	}

	meta, _ := f.loadCacheMeta(cachePath)
	cachedBody, _ := f.loadCacheBody(cachePath)

	appLog.Debug("fetch start", "id", src.ID, "url", src.URL)

	resp, err := f.doWithRetry(ctx, src, meta)
	if err != nil {
		// Network error after retries; fall back to cache, then local copy.
		if len(cachedBody) > 0 {
			appLog.Warn("fetch failed, using cached body", "id", src.ID, "url", src.URL, "err", err)
			return Result{Source: src, Body: cachedBody, FromCache: true}, nil
		}
		if body, lerr := f.loadLocal(src); lerr == nil {
			appLog.Warn("fetch failed, using local copy", "id", src.ID, "path", src.LocalPath, "err", err)
			return Result{Source: src, Body: body, FromCache: true}, nil
		}
		return Result{}, err
	}
	defer resp.Body.Close()

	switch resp.StatusCode {
	case http.StatusOK:
		body, readErr := io.ReadAll(resp.Body)
		if readErr != nil {
			return Result{}, readErr
		}

		newMeta := cacheEntry{
			URL:          src.URL,
			ETag:         resp.Header.Get("ETag"),
			LastModified: resp.Header.Get("Last-Modified"),
			UpdatedAt:    time.Now().UTC(),
		}
		if err := f.saveCache(cachePath, newMeta, body); err != nil {
			// Log but still return the freshly fetched body.
			appLog.Warn("cache save failed", "id", src.ID, "url", src.URL, "err", err)
		}

		appLog.Info("fetch success", "id", src.ID, "url", src.URL, "bytes", len(body))
		return Result{Source: src, Body: body, FromCache: false}, nil

	case http.StatusNotModified:
		if len(cachedBody) == 0 {
			// 304 but no cached body: treat as error.
			return Result{}, errors.New("received 304 Not Modified but no cached body available")
		}
		appLog.Info("fetch not modified; using cache", "id", src.ID, "url", src.URL)
		return Result{Source: src, Body: cachedBody, FromCache: true}, nil

	default:
		if len(cachedBody) > 0 {
			appLog.Warn("fetch non-OK, using cached body", "id", src.ID, "url", src.URL, "status", resp.StatusCode)
			return Result{Source: src, Body: cachedBody, FromCache: true}, nil
		}
		if body, lerr := f.loadLocal(src); lerr == nil {
			appLog.Warn("fetch non-OK, using local copy", "id", src.ID, "path", src.LocalPath, "status", resp.StatusCode)
			return Result{Source: src, Body: body, FromCache: true}, nil
		}
		return Result{}, errors.New(resp.Status)
	}
}

// doWithRetry issues the conditional GET with a fixed-count retry loop and
// linear backoff between attempts.
func (f *Fetcher) doWithRetry(ctx context.Context, src Source, meta cacheEntry) (*http.Response, error) {
	var resp *http.Response

	err := try.Do(func(attempt int) (bool, error) {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, src.URL, nil)
		if err != nil {
			// Request construction never recovers on retry.
			return false, err
		}
		if meta.ETag != "" {
			req.Header.Set("If-None-Match", meta.ETag)
		}
		if meta.LastModified != "" {
			req.Header.Set("If-Modified-Since", meta.LastModified)
		}

		resp, err = f.client.Do(req)
		if err != nil && attempt < f.retries {
			appLog.Debug("fetch attempt failed, backing off", "id", src.ID, "attempt", attempt, "err", err)
			select {
			case <-time.After(time.Duration(attempt) * f.backoff):
			case <-ctx.Done():
				return false, ctx.Err()
			}
		}
		return attempt < f.retries, err
	})
	if err != nil {
		return nil, err
	}
	return resp, nil
}

func (f *Fetcher) loadLocal(src Source) ([]byte, error) {
	if src.LocalPath == "" {
		return nil, errors.New("no local copy configured")
	}
	return os.ReadFile(src.LocalPath)
}

func (f *Fetcher) cachePathForURL(url string) string {
	sum := sha256.Sum256([]byte(url))
	// First 16 hex chars as directory name.
	return filepath.Join(f.cacheDir, hex.EncodeToString(sum[:8]))
}

func (f *Fetcher) loadCacheMeta(cachePath string) (cacheEntry, error) {
	var meta cacheEntry
	data, err := os.ReadFile(filepath.Join(cachePath, "meta.json"))
	if err != nil {
		return meta, err
	}
	if err := json.Unmarshal(data, &meta); err != nil {
		return cacheEntry{}, err
	}
	return meta, nil
}

func (f *Fetcher) loadCacheBody(cachePath string) ([]byte, error) {
	return os.ReadFile(filepath.Join(cachePath, "body.dat"))
}

func (f *Fetcher) saveCache(cachePath string, meta cacheEntry, body []byte) error {
	// Write body first so meta never points at a missing body.
	if err := os.WriteFile(filepath.Join(cachePath, "body.dat"), body, 0o600); err != nil {
		return err
	}

	data, err := json.MarshalIndent(&meta, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(filepath.Join(cachePath, "meta.json"), data, 0o600)
}
