package semantic

import (
	"context"
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/jward/semantic/internal/metrics"
	"github.com/jward/semantic/internal/parse"
	"github.com/jward/semantic/internal/store"
)

// workItem holds everything an analysis worker needs.
type workItem struct {
	path    string
	content []byte
	hash    string
	st      parse.SourceType
}

// workResult is the outcome of analyzing one work item.
type workResult struct {
	batch   *store.BatchedStore
	elapsed time.Duration
	err     error
}

// IndexFiles indexes the given file paths in three phases:
//
//	Phase A (serial):   Read, size check and hash check against the store.
//	Phase B (parallel): Parse and analyze on a bounded worker pool, each
//	                    worker buffering its rows in a BatchedStore.
//	Phase C (serial):   Commit batches to SQLite in input order.
//
// Unsupported and unchanged files are skipped. Errors on individual files
// are logged and collected; processing continues.
func (e *Engine) IndexFiles(ctx context.Context, paths []string) error {
	if e.pending == nil {
		e.pending = make(map[int64]bool)
	}
	runID := uuid.NewString()
	log := e.logger.With("run", runID)

	// ---- Phase A: Serial file preparation ----
	var (
		items []workItem
		errs  []error
	)
	for _, path := range paths {
		item, skip, err := e.prepareFile(path)
		if errors.Is(err, parse.ErrFileTooLarge) {
			e.metrics.File(metrics.OutcomeSkipped)
			log.Warn("skipping file", "path", path, "error", err)
			continue
		}
		if err != nil {
			e.metrics.File(metrics.OutcomeFailed)
			log.Warn("prepare failed", "path", path, "error", err)
			errs = append(errs, fmt.Errorf("prepare %s: %w", path, err))
			continue
		}
		if skip {
			e.metrics.File(metrics.OutcomeSkipped)
			continue
		}
		items = append(items, item)
	}

	// ---- Phase B: Parallel analysis ----
	results := make([]workResult, len(items))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(min(e.workers, max(len(items), 1)))
	for i, item := range items {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			start := time.Now()
			batch, err := e.analyzeFile(gctx, item, runID)
			results[i] = workResult{batch: batch, elapsed: time.Since(start), err: err}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return fmt.Errorf("semantic: index: %w", err)
	}

	// ---- Phase C: Serial commit ----
	for i, res := range results {
		path := items[i].path
		if res.err != nil {
			e.metrics.File(metrics.OutcomeFailed)
			log.Warn("analysis failed", "path", path, "error", res.err)
			errs = append(errs, fmt.Errorf("analyze %s: %w", path, res.err))
			continue
		}
		if err := e.store.CommitBatch(res.batch); err != nil {
			e.metrics.File(metrics.OutcomeFailed)
			errs = append(errs, fmt.Errorf("commit %s: %w", path, err))
			continue
		}
		e.pending[res.batch.File.ID] = true
		e.metrics.File(metrics.OutcomeIndexed)
		e.metrics.Analyzed(res.elapsed)
		e.recordRows(res.batch)
		log.Debug("indexed", "path", path, "rows", res.batch.Rows(), "elapsed", res.elapsed)
	}

	if len(errs) > 0 {
		return fmt.Errorf("indexing had %d error(s): %w", len(errs), errs[0])
	}
	return nil
}

// prepareFile does Phase A work for a single file. skip is true when the
// file is unsupported or unchanged since it was last indexed. Files over
// the size limit return parse.ErrFileTooLarge.
func (e *Engine) prepareFile(path string) (workItem, bool, error) {
	st, ok := parse.SourceTypeForPath(path)
	if !ok {
		return workItem{}, true, nil
	}
	info, err := os.Stat(path)
	if err != nil {
		return workItem{}, false, fmt.Errorf("stat file: %w", err)
	}
	if info.Size() > e.maxSize {
		return workItem{}, false, fmt.Errorf("%w: %d bytes", parse.ErrFileTooLarge, info.Size())
	}
	content, err := os.ReadFile(path)
	if err != nil {
		return workItem{}, false, fmt.Errorf("read file: %w", err)
	}
	hash := store.ContentHash(content)

	existing, err := e.store.FileByPath(path)
	if err != nil {
		return workItem{}, false, fmt.Errorf("lookup file: %w", err)
	}
	if existing != nil && existing.Hash == hash {
		return workItem{}, true, nil
	}
	return workItem{path: path, content: content, hash: hash, st: st}, false, nil
}

// analyzeFile parses and analyzes one file with a pooled parser and
// converts the bundle into store rows.
func (e *Engine) analyzeFile(ctx context.Context, item workItem, runID string) (*store.BatchedStore, error) {
	p := e.parsers.Get()
	defer e.parsers.Put(p, (*parse.Parser).Close)

	tree, err := p.Parse(ctx, item.content, item.st, item.path)
	if err != nil {
		return nil, err
	}
	sem, err := Analyze(ctx, tree,
		WithCFG(e.cfg),
		WithExcessCapacity(e.excess),
		WithLogger(e.logger))
	if err != nil {
		tree.Close()
		return nil, err
	}
	defer sem.Close()

	return buildBatch(sem, &store.File{
		Path:        item.path,
		SourceType:  sem.SourceType().String(),
		Hash:        item.hash,
		RunID:       runID,
		LastIndexed: time.Now(),
	})
}

// recordRows feeds per-table row counts of a committed batch to metrics.
func (e *Engine) recordRows(b *store.BatchedStore) {
	e.metrics.Rows("scopes", len(b.Scopes))
	e.metrics.Rows("symbols", len(b.Symbols))
	e.metrics.Rows("references", len(b.References))
	e.metrics.Rows("diagnostics", len(b.Diagnostics))
	e.metrics.Rows("unreachable", len(b.Unreachable))
	e.metrics.Rows("unused_labels", len(b.UnusedLabels))
	e.metrics.Rows("cfgs", len(b.CFGs))
}
