package fetcher

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"io"
	"math"
	"math/rand/v2"
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"time"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"
	"golang.org/x/time/rate"
)

// HTTPOptions configures the shared HTTP fetcher.
type HTTPOptions struct {
	UserAgent  string
	Timeout    time.Duration
	MaxRetries int
	// RatePerSecond applies to hosts without an entry in RateLimiters.
	RatePerSecond float64
	RateLimiters  map[string]*rate.Limiter
}

// DefaultRateLimiters returns per-host limiters tuned for the sources
// this archive pulls from. web.archive.org throttles aggressively, so
// it gets the tightest limit.
func DefaultRateLimiters() map[string]*rate.Limiter {
	return map[string]*rate.Limiter{
		"www.mhlw.go.jp":      rate.NewLimiter(2, 2),
		"web.archive.org":     rate.NewLimiter(rate.Limit(0.5), 1),
		"h-crisis.niph.go.jp": rate.NewLimiter(1, 1),
	}
}

// HTTPFetcher downloads pages and PDFs with per-host rate limiting and
// retry on transient failures.
type HTTPFetcher struct {
	client      *http.Client
	opts        HTTPOptions
	defaultRate *rate.Limiter
}

func NewHTTP(opts HTTPOptions) *HTTPFetcher {
	if opts.UserAgent == "" {
		opts.UserAgent = "Mozilla/5.0 (compatible; rouki-watch/1.0)"
	}
	if opts.Timeout == 0 {
		opts.Timeout = 60 * time.Second
	}
	if opts.MaxRetries == 0 {
		opts.MaxRetries = 3
	}
	if opts.RatePerSecond == 0 {
		opts.RatePerSecond = 1
	}
	if opts.RateLimiters == nil {
		opts.RateLimiters = DefaultRateLimiters()
	}
	return &HTTPFetcher{
		client:      &http.Client{Timeout: opts.Timeout},
		opts:        opts,
		defaultRate: rate.NewLimiter(rate.Limit(opts.RatePerSecond), 1),
	}
}

func (f *HTTPFetcher) limiterFor(rawURL string) *rate.Limiter {
	u, err := url.Parse(rawURL)
	if err != nil {
		return f.defaultRate
	}
	if lim, ok := f.opts.RateLimiters[u.Host]; ok {
		return lim
	}
	return f.defaultRate
}

func (f *HTTPFetcher) doWithRetry(ctx context.Context, rawURL string) (*http.Response, error) {
	var lastErr error
	for attempt := 0; attempt <= f.opts.MaxRetries; attempt++ {
		if attempt > 0 {
			d := backoff(attempt)
			zap.L().Debug("retrying fetch",
				zap.String("url", rawURL),
				zap.Int("attempt", attempt),
				zap.Duration("backoff", d))
			select {
			case <-ctx.Done():
				return nil, ctx.Err()
			case <-time.After(d):
			}
		}

		if err := f.limiterFor(rawURL).Wait(ctx); err != nil {
			return nil, eris.Wrap(err, "rate limiter wait")
		}

		req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
		if err != nil {
			return nil, eris.Wrapf(err, "building request for %s", rawURL)
		}
		req.Header.Set("User-Agent", f.opts.UserAgent)

		resp, err := f.client.Do(req)
		if err != nil {
			lastErr = err
			continue
		}

		switch {
		case resp.StatusCode == http.StatusOK:
			return resp, nil
		case resp.StatusCode == http.StatusTooManyRequests || resp.StatusCode >= 500:
			resp.Body.Close()
			lastErr = fmt.Errorf("HTTP %d from %s", resp.StatusCode, rawURL)
			continue
		default:
			resp.Body.Close()
			return nil, eris.Errorf("HTTP %d from %s", resp.StatusCode, rawURL)
		}
	}
	return nil, eris.Wrapf(lastErr, "fetch %s exhausted %d retries", rawURL, f.opts.MaxRetries)
}

// backoff returns 2^attempt seconds capped at 30s, with up to 50% jitter.
func backoff(attempt int) time.Duration {
	d := time.Duration(math.Pow(2, float64(attempt))) * time.Second
	if d > 30*time.Second {
		d = 30 * time.Second
	}
	return d + time.Duration(rand.Int64N(int64(d)/2))
}

// Fetch returns the response body for rawURL.
func (f *HTTPFetcher) Fetch(ctx context.Context, rawURL string) ([]byte, error) {
	resp, err := f.doWithRetry(ctx, rawURL)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, eris.Wrapf(err, "reading body of %s", rawURL)
	}
	return body, nil
}

// DownloadResult reports where a download landed and its content hash.
type DownloadResult struct {
	Path   string
	SHA256 string
	Bytes  int64
}

// DownloadToFile streams rawURL into dest, creating parent directories
// as needed. The write goes through a temp file so a failed download
// never leaves a truncated PDF in the archive.
func (f *HTTPFetcher) DownloadToFile(ctx context.Context, rawURL, dest string) (*DownloadResult, error) {
	resp, err := f.doWithRetry(ctx, rawURL)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	dir := filepath.Dir(dest)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, eris.Wrapf(err, "creating %s", dir)
	}
	tmp, err := os.CreateTemp(dir, ".download-*")
	if err != nil {
		return nil, eris.Wrap(err, "creating temp file")
	}
	defer os.Remove(tmp.Name())

	h := sha256.New()
	n, err := io.Copy(io.MultiWriter(tmp, h), resp.Body)
	if err != nil {
		tmp.Close()
		return nil, eris.Wrapf(err, "downloading %s", rawURL)
	}
	if err := tmp.Close(); err != nil {
		return nil, eris.Wrap(err, "closing temp file")
	}
	if err := os.Rename(tmp.Name(), dest); err != nil {
		return nil, eris.Wrapf(err, "moving download to %s", dest)
	}

	res := &DownloadResult{
		Path:   dest,
		SHA256: hex.EncodeToString(h.Sum(nil)),
		Bytes:  n,
	}
	zap.L().Info("downloaded",
		zap.String("url", rawURL),
		zap.String("path", dest),
		zap.Int64("bytes", n))
	return res, nil
}

// HashFile computes the SHA-256 of an already-archived file, for
// dedup checks against the document index.
func HashFile(path string) (string, error) {
	f, err := os.Open(path)
	if err != nil {
		return "", eris.Wrapf(err, "opening %s", path)
	}
	defer f.Close()
	h := sha256.New()
	if _, err := io.Copy(h, f); err != nil {
		return "", eris.Wrapf(err, "hashing %s", path)
	}
	return hex.EncodeToString(h.Sum(nil)), nil
}
