// Package pipeline runs the archive-to-result computation with content-hash
// memoization, so re-uploading the same export bytes never recomputes.
package pipeline

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"time"

	lru "github.com/hashicorp/golang-lru/v2"
	"golang.org/x/sync/singleflight"

	"github.com/striderun/strider/internal/analysis"
	"github.com/striderun/strider/internal/archive"
	"github.com/striderun/strider/internal/logging"
)

// DefaultCacheSize bounds the number of memoized results.
const DefaultCacheSize = 32

// Analyzer is the shared entry point from transport layers into the metrics
// engine. It is safe for concurrent use; identical archives in flight at the
// same time share one computation.
type Analyzer struct {
	cache *lru.Cache[string, *analysis.Result]
	group singleflight.Group
}

// NewAnalyzer builds an Analyzer holding at most size memoized results.
func NewAnalyzer(size int) (*Analyzer, error) {
	if size <= 0 {
		size = DefaultCacheSize
	}
	cache, err := lru.New[string, *analysis.Result](size)
	if err != nil {
		return nil, fmt.Errorf("creating result cache: %w", err)
	}
	return &Analyzer{cache: cache}, nil
}

// Analyze extracts the archive and computes the full result, keyed by the
// SHA-256 of the archive bytes. Failed extractions are never cached.
func (a *Analyzer) Analyze(ctx context.Context, data []byte) (*analysis.Result, error) {
	sum := sha256.Sum256(data)
	key := hex.EncodeToString(sum[:])

	if cached, ok := a.cache.Get(key); ok {
		logging.Debug("analysis cache hit", "key", key)
		return cached, nil
	}

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	// The computation is CPU-bound and its result is shared with every
	// caller in flight, so it must not inherit any one caller's
	// cancellation.
	v, err, _ := a.group.Do(key, func() (any, error) {
		start := time.Now()
		points, err := archive.Extract(data)
		if err != nil {
			return nil, err
		}
		result := analysis.Analyze(points)
		a.cache.Add(key, result)

		logging.Info("archive analyzed",
			"key", key,
			"points", len(points),
			"runs", len(result.Runs),
			"duration", time.Since(start).String())
		return result, nil
	})
	if err != nil {
		return nil, err
	}
	return v.(*analysis.Result), nil
}

// CacheLen reports the number of memoized results, for stats logging.
func (a *Analyzer) CacheLen() int {
	return a.cache.Len()
}
