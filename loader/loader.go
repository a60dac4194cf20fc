// Package loader fetches stem audio over HTTP in bounded batches, decodes
// it through a pluggable format registry, and reports granular download
// progress. A stem that fails to fetch or decode is reported and skipped;
// the session only fails when no stem loads at all.
package loader

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"sync"
	"sync/atomic"
	"time"
)

// ErrNoStems is returned when every configured stem failed to load.
var ErrNoStems = errors.New("loader: no stems loaded")

const (
	defaultReadyTimeout = 30 * time.Second
	defaultBatchPause   = 100 * time.Millisecond
	defaultWarmUpPause  = 50 * time.Millisecond

	progressChunkSize = 32 * 1024
	warmUpFrames      = 256
)

// Progress is one download progress report, emitted after every received
// chunk. TotalSize grows as responses arrive and report their sizes; a
// server that omits Content-Length contributes zero.
type Progress struct {
	StemName        string
	ReceivedBytes   int64
	StemSize        int64
	TotalDownloaded int64
	TotalSize       int64
}

// Stem is one fully loaded, decoded stem ready to be wired into a session.
type Stem struct {
	Index       int
	Name        string
	Description string
	Color       string
	Clip        *Clip
}

// Option configures a Loader.
type Option func(*Loader)

// WithHTTPClient overrides the HTTP client.
func WithHTTPClient(c *http.Client) Option {
	return func(l *Loader) { l.client = c }
}

// WithRegistry overrides the decoder registry.
func WithRegistry(r *Registry) Option {
	return func(l *Loader) { l.registry = r }
}

// WithBaseURL sets the base URL that relative stem files resolve against.
func WithBaseURL(base string) Option {
	return func(l *Loader) { l.baseURL = base }
}

// WithReadyTimeout bounds how long one stem may take to fetch and decode
// before it counts as failed.
func WithReadyTimeout(d time.Duration) Option {
	return func(l *Loader) { l.readyTimeout = d }
}

// WithBatchPause sets the pause between download batches.
func WithBatchPause(d time.Duration) Option {
	return func(l *Loader) { l.batchPause = d }
}

// WithProgressFunc registers the progress callback. Stems within a batch
// download concurrently, so the callback may be invoked from multiple
// goroutines.
func WithProgressFunc(fn func(Progress)) Option {
	return func(l *Loader) { l.progress = fn }
}

// WithFailureFunc registers the callback invoked once per stem that fails
// to load.
func WithFailureFunc(fn func(stem string, err error)) Option {
	return func(l *Loader) { l.fail = fn }
}

// Loader downloads and decodes stems under a device profile.
type Loader struct {
	profile  Profile
	client   *http.Client
	registry *Registry
	baseURL  string

	readyTimeout time.Duration
	batchPause   time.Duration
	warmUpPause  time.Duration

	progress func(Progress)
	fail     func(stem string, err error)
}

// New creates a loader for a device profile.
func New(profile Profile, opts ...Option) *Loader {
	if profile.BatchSize <= 0 {
		profile.BatchSize = 1
	}
	l := &Loader{
		profile:      profile,
		client:       http.DefaultClient,
		registry:     NewDefaultRegistry(),
		readyTimeout: defaultReadyTimeout,
		batchPause:   defaultBatchPause,
		warmUpPause:  defaultWarmUpPause,
	}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// LoadTrack fetches and decodes every stem in the config, preserving
// descriptor order in the result. Failed stems are reported through the
// failure callback and omitted; only zero successes is an error.
func (l *Loader) LoadTrack(ctx context.Context, cfg *TrackConfig) ([]*Stem, error) {
	slots := make([]*Stem, len(cfg.Stems))
	var totalDownloaded, totalSize atomic.Int64

	for start := 0; start < len(cfg.Stems); start += l.profile.BatchSize {
		end := min(start+l.profile.BatchSize, len(cfg.Stems))

		var wg sync.WaitGroup
		for i := start; i < end; i++ {
			wg.Add(1)
			go func(i int) {
				defer wg.Done()
				stem, err := l.loadStem(ctx, i, &cfg.Stems[i], &totalDownloaded, &totalSize)
				if err != nil {
					if l.fail != nil {
						l.fail(cfg.Stems[i].Name, err)
					}
					return
				}
				slots[i] = stem
			}(i)
		}
		wg.Wait()

		if end < len(cfg.Stems) {
			// A cancelled context skips the pause; the next batch's
			// requests then fail fast on the same context.
			select {
			case <-ctx.Done():
			case <-time.After(l.batchPause):
			}
		}
	}

	stems := make([]*Stem, 0, len(slots))
	for _, s := range slots {
		if s != nil {
			stems = append(stems, s)
		}
	}
	if len(stems) == 0 {
		return nil, ErrNoStems
	}
	return stems, nil
}

func (l *Loader) loadStem(ctx context.Context, index int, sc *StemConfig, totalDownloaded, totalSize *atomic.Int64) (*Stem, error) {
	ctx, cancel := context.WithTimeout(ctx, l.readyTimeout)
	defer cancel()

	file := sc.fileFor(l.profile)
	decoder, err := l.registry.ForFile(file)
	if err != nil {
		return nil, err
	}

	body, err := l.fetch(ctx, sc.Name, file, totalDownloaded, totalSize)
	if err != nil {
		return nil, err
	}

	clip, err := decoder.Decode(bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("loader: stem %q not ready in time: %w", sc.Name, err)
	}

	if l.profile.WarmUp {
		l.warmUp(clip)
	}

	return &Stem{
		Index:       index,
		Name:        sc.Name,
		Description: sc.Description,
		Color:       sc.Color,
		Clip:        clip,
	}, nil
}

// fetch downloads the whole file, emitting a progress report after every
// chunk.
func (l *Loader) fetch(ctx context.Context, stemName, file string, totalDownloaded, totalSize *atomic.Int64) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, l.resolve(file), nil)
	if err != nil {
		return nil, fmt.Errorf("loader: %w", err)
	}

	resp, err := l.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("loader: fetch %q: %w", file, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("loader: fetch %q: unexpected status %s", file, resp.Status)
	}

	stemSize := resp.ContentLength
	if stemSize < 0 {
		stemSize = 0
	}
	totalSize.Add(stemSize)

	var buf bytes.Buffer
	if stemSize > 0 {
		buf.Grow(int(stemSize))
	}

	chunk := make([]byte, progressChunkSize)
	var received int64
	for {
		n, err := resp.Body.Read(chunk)
		if n > 0 {
			buf.Write(chunk[:n])
			received += int64(n)
			downloaded := totalDownloaded.Add(int64(n))
			if l.progress != nil {
				l.progress(Progress{
					StemName:        stemName,
					ReceivedBytes:   received,
					StemSize:        stemSize,
					TotalDownloaded: downloaded,
					TotalSize:       totalSize.Load(),
				})
			}
		}
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("loader: fetch %q: %w", file, err)
		}
	}

	return buf.Bytes(), nil
}

// warmUp touches mid-file audio before first playback: some codec pipelines
// stall when jumping straight from long silence into dense audio, and
// pre-reading the midpoint primes them. Mobile encodings skip this via the
// profile.
func (l *Loader) warmUp(c *Clip) {
	touch := func(start int) {
		var sink float64
		for f := start; f < start+warmUpFrames; f++ {
			for ch := range c.Channels() {
				sink += c.Sample(f, ch)
			}
		}
		_ = sink
	}

	touch(c.Frames() / 2)
	time.Sleep(l.warmUpPause)
	touch(0)
}

func (l *Loader) resolve(file string) string {
	if l.baseURL == "" || strings.Contains(file, "://") {
		return file
	}
	return strings.TrimSuffix(l.baseURL, "/") + "/" + strings.TrimPrefix(file, "/")
}
