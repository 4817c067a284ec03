// Package media provides exercise.MediaLoader implementations that verify
// every referenced asset is reachable before an exercise becomes Ready.
package media

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"net/http"
	"net/url"
	"strings"
	"sync"

	"golang.org/x/sync/errgroup"

	"github.com/GoCodeAlone/exercise"
)

// DefaultConcurrency bounds parallel probes.
const DefaultConcurrency = 4

var (
	ErrEmptyURI    = errors.New("media reference has an empty uri")
	ErrNotFound    = errors.New("media not found")
	ErrBadStatus   = errors.New("unexpected media status")
	ErrInvalidPath = errors.New("media uri is not a valid path inside the loader root")
)

// probeFunc checks a single reference.
type probeFunc func(ctx context.Context, ref exercise.MediaRef) error

// preload probes refs concurrently and joins every failure. Duplicate URIs
// are probed once.
func preload(ctx context.Context, refs []exercise.MediaRef, limit int, probe probeFunc) error {
	if limit <= 0 {
		limit = DefaultConcurrency
	}
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(limit)

	var (
		mu   sync.Mutex
		errs []error
		seen = make(map[string]bool, len(refs))
	)
	for _, ref := range refs {
		if seen[ref.URI] {
			continue
		}
		seen[ref.URI] = true
		g.Go(func() error {
			if err := probe(gctx, ref); err != nil {
				mu.Lock()
				errs = append(errs, fmt.Errorf("%s: %w", ref.URI, err))
				mu.Unlock()
			}
			// keep probing the rest so every failure is reported
			return nil
		})
	}
	_ = g.Wait()
	if err := ctx.Err(); err != nil {
		return err
	}
	return errors.Join(errs...)
}

// FSLoader resolves media URIs as paths inside a filesystem.
type FSLoader struct {
	fsys        fs.FS
	concurrency int
}

// NewFSLoader creates a loader rooted at fsys.
func NewFSLoader(fsys fs.FS) *FSLoader {
	return &FSLoader{fsys: fsys, concurrency: DefaultConcurrency}
}

// Preload implements exercise.MediaLoader.
func (l *FSLoader) Preload(ctx context.Context, refs []exercise.MediaRef) error {
	return preload(ctx, refs, l.concurrency, func(ctx context.Context, ref exercise.MediaRef) error {
		if ref.URI == "" {
			return ErrEmptyURI
		}
		name := strings.TrimPrefix(ref.URI, "file://")
		if !fs.ValidPath(name) {
			return ErrInvalidPath
		}
		info, err := fs.Stat(l.fsys, name)
		if errors.Is(err, fs.ErrNotExist) {
			return ErrNotFound
		}
		if err != nil {
			return err
		}
		if info.IsDir() {
			return fmt.Errorf("%w: is a directory", ErrNotFound)
		}
		return nil
	})
}

// HTTPLoader probes media URLs with HEAD requests.
type HTTPLoader struct {
	client      *http.Client
	base        *url.URL
	concurrency int
}

// HTTPOption configures an HTTPLoader.
type HTTPOption func(*HTTPLoader)

// WithHTTPClient sets the client used for probes.
func WithHTTPClient(c *http.Client) HTTPOption {
	return func(l *HTTPLoader) { l.client = c }
}

// WithBaseURL resolves relative URIs against base.
func WithBaseURL(base *url.URL) HTTPOption {
	return func(l *HTTPLoader) { l.base = base }
}

// WithConcurrency bounds parallel probes.
func WithConcurrency(n int) HTTPOption {
	return func(l *HTTPLoader) { l.concurrency = n }
}

// NewHTTPLoader creates an HTTP loader.
func NewHTTPLoader(opts ...HTTPOption) *HTTPLoader {
	l := &HTTPLoader{client: http.DefaultClient, concurrency: DefaultConcurrency}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// Preload implements exercise.MediaLoader.
func (l *HTTPLoader) Preload(ctx context.Context, refs []exercise.MediaRef) error {
	return preload(ctx, refs, l.concurrency, l.probe)
}

func (l *HTTPLoader) probe(ctx context.Context, ref exercise.MediaRef) error {
	if ref.URI == "" {
		return ErrEmptyURI
	}
	u, err := url.Parse(ref.URI)
	if err != nil {
		return fmt.Errorf("invalid media uri: %w", err)
	}
	if l.base != nil {
		u = l.base.ResolveReference(u)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodHead, u.String(), nil)
	if err != nil {
		return fmt.Errorf("failed to build request: %w", err)
	}
	resp, err := l.client.Do(req)
	if err != nil {
		return fmt.Errorf("failed to probe media: %w", err)
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusNotFound:
		return ErrNotFound
	case resp.StatusCode >= 400:
		return fmt.Errorf("%w: %d", ErrBadStatus, resp.StatusCode)
	}
	return nil
}
