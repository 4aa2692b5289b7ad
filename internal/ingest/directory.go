package ingest

import (
	"context"
	"errors"
	"io/fs"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	"golang.org/x/sync/errgroup"

	"github.com/joseph-ayodele/idextract/internal/common"
)

// Scan walks root and returns the files whose extension is in exts, sorted.
// Hidden files and directories are skipped when skipHidden is set. Walk
// errors below root are counted as failures and do not stop the walk.
func Scan(root string, exts map[string]struct{}, skipHidden bool) ([]string, DirStats, error) {
	var stats DirStats
	if strings.TrimSpace(root) == "" {
		return nil, stats, common.NewAppError("INVALID_INPUT", "root path is required", common.ErrInvalidInput)
	}
	if len(exts) == 0 {
		exts = ParseExts(nil)
	}

	var paths []string
	err := filepath.WalkDir(root, func(path string, d fs.DirEntry, walkErr error) error {
		if walkErr != nil {
			if path == root {
				return walkErr
			}
			stats.Failed++
			return nil
		}
		if skipHidden && path != root && IsHidden(path) {
			if d.IsDir() {
				return filepath.SkipDir
			}
			return nil
		}
		if d.IsDir() {
			return nil
		}
		stats.Scanned++
		if allowed(path, exts) {
			stats.Matched++
			paths = append(paths, path)
		}
		return nil
	})
	if err != nil {
		return nil, stats, err
	}
	sort.Strings(paths)
	return paths, stats, nil
}

// IngestDirectory scans root and processes every matching file with at most
// the configured number of workers. Per-file failures land in the results;
// only a failed walk or a cancelled context is returned as an error.
func (i *Ingestor) IngestDirectory(ctx context.Context, root string, skipHidden bool) ([]FileResult, DirStats, error) {
	paths, stats, err := Scan(root, i.exts, skipHidden)
	if err != nil {
		return nil, stats, err
	}
	i.logger.Info("ingest.dir.scanned", "root", root, "scanned", stats.Scanned, "matched", stats.Matched)

	results := make([]FileResult, len(paths))
	var mu sync.Mutex
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(i.workers)
	for idx, p := range paths {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			res, err := i.IngestPath(gctx, p)
			results[idx] = res

			mu.Lock()
			defer mu.Unlock()
			switch {
			case err == nil && res.Deduplicated:
				stats.Deduplicated++
			case err == nil:
				stats.Succeeded++
			case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
				return err
			case errors.Is(err, common.ErrNoExtractableData):
				stats.NoData++
			default:
				stats.Failed++
				i.logger.Warn("ingest.file.failed", "path", p, "err", err)
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return results, stats, err
	}
	i.logger.Info("ingest.dir.done", "root", root,
		"succeeded", stats.Succeeded, "deduplicated", stats.Deduplicated,
		"no_data", stats.NoData, "failed", stats.Failed)
	return results, stats, nil
}
