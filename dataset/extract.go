package dataset

import (
	"context"
	"errors"
	"time"

	"github.com/RyanBlaney/sonido-genre/algorithms/common"
	"github.com/RyanBlaney/sonido-genre/errs"
	"github.com/RyanBlaney/sonido-genre/features"
	"github.com/RyanBlaney/sonido-genre/logging"
)

// VectorCache stores vectors by source path. *cache.Bucket satisfies it.
type VectorCache interface {
	Get(path string) (*features.Vector, error)
	Put(v *features.Vector) error
}

// FileExtractor turns one audio file into a labelled vector.
// *features.Extractor satisfies it.
type FileExtractor interface {
	ExtractFile(path string) (*features.Vector, error)
}

// ExtractOptions tunes ExtractAll
type ExtractOptions struct {
	Workers int         // 0 or less sizes the pool from the CPU count
	Cache   VectorCache // optional
	Logger  logging.Logger
}

// ExtractResult summarizes a batch
type ExtractResult struct {
	Vectors   []*features.Vector // successful extractions, in input order
	Failed    []string           // paths that could not be processed
	CacheHits int
	Elapsed   time.Duration
}

// ExtractAll extracts every path on a worker pool. A file that fails is
// logged and left out; the batch carries on. Cancelling ctx skips the files
// not yet started.
func ExtractAll(ctx context.Context, extractor FileExtractor, paths []string, opts ExtractOptions) *ExtractResult {
	logger := logging.OrGlobal(opts.Logger).WithFields(logging.Fields{
		"component": "dataset",
		"function":  "ExtractAll",
	})
	start := time.Now()

	type slot struct {
		vector *features.Vector
		hit    bool
		err    error
	}
	slots := make([]slot, len(paths))

	common.ForEach(paths, opts.Workers, func(i int, path string) {
		if err := ctx.Err(); err != nil {
			slots[i].err = err
			return
		}

		if opts.Cache != nil {
			v, err := opts.Cache.Get(path)
			if err == nil {
				slots[i] = slot{vector: v, hit: true}
				return
			}
			if !errors.Is(err, errs.ErrNotFound) {
				logger.Warn("feature cache read failed", logging.Fields{"path": path, "error": err.Error()})
			}
		}

		v, err := extractor.ExtractFile(path)
		if err != nil {
			logger.Error(err, "file not processed", logging.Fields{"path": path})
			slots[i].err = err
			return
		}
		slots[i].vector = v

		if opts.Cache != nil {
			if err := opts.Cache.Put(v); err != nil {
				logger.Warn("feature cache write failed", logging.Fields{"path": path, "error": err.Error()})
			}
		}
	})

	res := &ExtractResult{Vectors: make([]*features.Vector, 0, len(paths))}
	for i, s := range slots {
		if s.err != nil {
			res.Failed = append(res.Failed, paths[i])
			continue
		}
		if s.hit {
			res.CacheHits++
		}
		res.Vectors = append(res.Vectors, s.vector)
	}
	res.Elapsed = time.Since(start)

	logger.Info("feature extraction finished", logging.Fields{
		"files":      len(paths),
		"extracted":  len(res.Vectors),
		"failed":     len(res.Failed),
		"cache_hits": res.CacheHits,
		"elapsed_ms": res.Elapsed.Milliseconds(),
	})
	return res
}
