package ingest

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"path/filepath"
	"sort"
	"strings"
)

const (
	frontSuffix = "_front"
	backSuffix  = "_back"
)

// Pair is one capture found on disk.
type Pair struct {
	Front string
	Back  string
}

// Discover walks root and returns the images under it. Files named
// X_front.ext and X_back.ext in the same directory form one pair; a lone
// X_back is treated as a front.
func Discover(root string, skipHidden bool) ([]Pair, DirStats, error) {
	if strings.TrimSpace(root) == "" {
		return nil, DirStats{}, errors.New("root path is required")
	}
	var stats DirStats
	var files []string
	err := filepath.WalkDir(root, func(path string, d fs.DirEntry, walkErr error) error {
		stats.Scanned++
		if walkErr != nil {
			stats.Failed++
			return nil // continue walking
		}
		if skipHidden && path != root && IsHidden(path) {
			if d.IsDir() {
				return filepath.SkipDir
			}
			return nil
		}
		if d.IsDir() || !AllowedExt(filepath.Ext(path)) {
			return nil
		}
		stats.Matched++
		files = append(files, path)
		return nil
	})
	if err != nil {
		return nil, stats, fmt.Errorf("walk: %w", err)
	}
	return pairSides(files), stats, nil
}

func stem(path string) string {
	return strings.TrimSuffix(path, filepath.Ext(path))
}

func pairSides(files []string) []Pair {
	sort.Strings(files)
	backs := map[string]string{}
	for _, f := range files {
		if s := stem(f); strings.HasSuffix(strings.ToLower(s), backSuffix) {
			backs[strings.ToLower(s[:len(s)-len(backSuffix)])] = f
		}
	}
	used := map[string]bool{}
	var out []Pair
	for _, f := range files {
		s := stem(f)
		if strings.HasSuffix(strings.ToLower(s), frontSuffix) {
			key := strings.ToLower(s[:len(s)-len(frontSuffix)])
			if b, ok := backs[key]; ok {
				out = append(out, Pair{Front: f, Back: b})
				used[b] = true
				continue
			}
		}
		out = append(out, Pair{Front: f})
	}
	// drop backs already attached to a front
	kept := out[:0]
	for _, p := range out {
		if p.Back == "" && used[p.Front] {
			continue
		}
		kept = append(kept, p)
	}
	return kept
}

// IngestDirectory scans every capture under root sequentially and returns
// per-capture results plus aggregate stats. A failing file never stops the walk.
func (i *Ingestor) IngestDirectory(ctx context.Context, root string, skipHidden, force bool) ([]FileResult, DirStats, error) {
	pairs, stats, err := Discover(root, skipHidden)
	if err != nil {
		return nil, stats, err
	}
	results := make([]FileResult, 0, len(pairs))
	for _, p := range pairs {
		if err := ctx.Err(); err != nil {
			return results, stats, err
		}
		res, err := i.IngestPath(ctx, p.Front, p.Back, force)
		if err != nil {
			i.logger.Warn("ingest.file_failed", "path", p.Front, "error", err)
			res.Err = err.Error()
			stats.Failed++
		} else {
			stats.Succeeded++
			if res.Deduplicated {
				stats.Deduplicated++
			}
		}
		results = append(results, res)
	}
	i.logger.Info("ingest.directory.done",
		"root", root,
		"matched", stats.Matched,
		"succeeded", stats.Succeeded,
		"deduplicated", stats.Deduplicated,
		"failed", stats.Failed,
	)
	return results, stats, nil
}
