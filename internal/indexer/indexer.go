// Package indexer implements the Indexer orchestration of spec.md
// §4.6: full index and incremental update over FileScanner,
// SymbolExtractor, ImportGraphBuilder, GitProbe, and the Store.
// Grounded on the teacher's internal/indexing/pipeline.go (the
// scan-then-process staged pipeline) and internal/indexing/master_index.go
// (the incremental-by-hash re-index check), generalized from the
// teacher's in-memory index to the persistent Store this spec names,
// and from its per-stage channel fan-out to a bounded
// golang.org/x/sync/errgroup worker pool (spec.md §5's "bounded
// worker pool, default 8").
package indexer

import (
	"context"
	"os"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	cerrors "github.com/standardbeagle/ctxpack/internal/errors"
	"github.com/standardbeagle/ctxpack/internal/gitprobe"
	"github.com/standardbeagle/ctxpack/internal/imports"
	"github.com/standardbeagle/ctxpack/internal/scanner"
	"github.com/standardbeagle/ctxpack/internal/store"
	"github.com/standardbeagle/ctxpack/internal/symbols"
	"github.com/standardbeagle/ctxpack/internal/types"
)

// DefaultWorkers is the bounded worker pool size from spec.md §5.
const DefaultWorkers = 8

// Indexer orchestrates the full pipeline over one project root.
type Indexer struct {
	Root     string
	Store    *store.Store
	Scanner  *scanner.Scanner
	Git      *gitprobe.Probe
	Workers  int
	Progress types.ProgressFunc
}

// New builds an Indexer. The Scanner and GitProbe are constructed
// internally from root and scanOpts; Store is owned by the caller so
// it can be shared across an index/query lifecycle.
func New(root string, st *store.Store, scanOpts scanner.Options, progress types.ProgressFunc) (*Indexer, error) {
	scanOpts.Root = root
	sc, err := scanner.New(scanOpts)
	if err != nil {
		return nil, err
	}
	return &Indexer{
		Root:     root,
		Store:    st,
		Scanner:  sc,
		Git:      gitprobe.New(root),
		Workers:  DefaultWorkers,
		Progress: progress,
	}, nil
}

// Index runs a full index: enumerate files, seed the import graph
// builder with the full path set, then process each file
// concurrently (bounded by Workers), skipping files whose content
// hash is unchanged since the last run. Git signals are refreshed for
// every path when git is available. Per-file IoError/ParseError are
// logged and skipped, never abort the batch (spec.md §7).
func (ix *Indexer) Index(ctx context.Context) (types.IndexStats, []string, error) {
	start := time.Now()
	var warnings []string

	var records []types.FileRecord
	err := ix.Scanner.Scan(func(fr types.FileRecord) error {
		records = append(records, fr)
		return nil
	}, func(sk scanner.SkippedFile) {
		warnings = append(warnings, "skipped "+sk.Path+": "+sk.Reason)
	})
	if err != nil {
		return types.IndexStats{}, warnings, cerrors.IO("scan", ix.Root, err)
	}

	paths := make([]string, len(records))
	for i, r := range records {
		paths[i] = r.Path
	}
	builder := imports.NewBuilder(paths)

	total := len(records)
	var symbolTotal, importTotal int

	g, gctx := errgroup.WithContext(ctx)
	sem := make(chan struct{}, ix.Workers)
	var processed int
	var mu sync.Mutex

	for _, rec := range records {
		rec := rec
		select {
		case <-gctx.Done():
		default:
		}
		sem <- struct{}{}
		g.Go(func() error {
			defer func() { <-sem }()
			select {
			case <-gctx.Done():
				return nil
			default:
			}

			nSym, nImp, werr := ix.processFile(rec, builder)

			mu.Lock()
			if werr != nil {
				warnings = append(warnings, werr.Error())
			} else {
				symbolTotal += nSym
				importTotal += nImp
			}
			processed++
			if ix.Progress != nil {
				ix.Progress(processed, total, rec.Path)
			}
			mu.Unlock()
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return types.IndexStats{}, warnings, cerrors.Internal("index", err)
	}

	if ix.Git != nil && ix.Git.Available() {
		for _, p := range paths {
			sig := types.GitSignal{
				Path:         p,
				LastModified: ix.Git.LastModified(p),
				CommitCount:  ix.Git.CommitCount(p),
				ChurnScore:   ix.Git.Churn(p),
			}
			if err := ix.Store.UpsertGitSignal(sig); err != nil {
				warnings = append(warnings, err.Error())
			}
		}
	}

	return types.IndexStats{
		Files:      total,
		Symbols:    symbolTotal,
		Imports:    importTotal,
		DurationMS: time.Since(start).Milliseconds(),
	}, warnings, nil
}

// processFile re-indexes one file if its content hash changed,
// atomically replacing symbols, imports, and FTS content for it
// (spec.md §5: one logical transaction per file at the record level).
func (ix *Indexer) processFile(rec types.FileRecord, builder *imports.Builder) (int, int, error) {
	existing, ok, err := ix.Store.GetFile(rec.Path)
	if err == nil && ok && existing.ContentHash == rec.ContentHash {
		return 0, 0, nil
	}

	content, err := os.ReadFile(ix.Root + string(os.PathSeparator) + rec.Path)
	if err != nil {
		return 0, 0, cerrors.IO("read_file", rec.Path, err)
	}

	if err := ix.Store.UpsertFile(rec); err != nil {
		return 0, 0, err
	}
	if err := ix.Store.ClearSymbolsForFile(rec.Path); err != nil {
		return 0, 0, err
	}
	if err := ix.Store.ClearImportsForFile(rec.Path); err != nil {
		return 0, 0, err
	}

	extractor := symbols.ForLanguage(rec.Language)
	syms := extractor.Extract(rec.Path, content)
	for _, s := range syms {
		if err := ix.Store.InsertSymbol(s); err != nil {
			return 0, 0, err
		}
	}

	edges := builder.Extract(rec.Path, rec.Language, content)
	for _, e := range edges {
		if err := ix.Store.InsertImport(e); err != nil {
			return 0, 0, err
		}
	}

	if err := ix.Store.IndexFileContent(rec.Path, string(content)); err != nil {
		return 0, 0, err
	}

	return len(syms), len(edges), nil
}

// IncrementalUpdate re-stats each of changedPaths: missing files are
// deleted from the store, present files are re-hashed and
// re-processed. Git signals are intentionally not refreshed here
// (spec.md §4.6: "acceptable staleness; full index refreshes them").
func (ix *Indexer) IncrementalUpdate(ctx context.Context, changedPaths []string) (types.IndexStats, []string, error) {
	start := time.Now()
	var warnings []string
	var symbolTotal, importTotal, fileTotal int

	existingPaths, err := ix.allIndexedPaths()
	if err != nil {
		return types.IndexStats{}, warnings, err
	}
	builder := imports.NewBuilder(existingPaths)

	for _, rel := range changedPaths {
		select {
		case <-ctx.Done():
			return types.IndexStats{Files: fileTotal, Symbols: symbolTotal, Imports: importTotal,
				DurationMS: time.Since(start).Milliseconds()}, warnings, ctx.Err()
		default:
		}

		full := ix.Root + string(os.PathSeparator) + rel
		info, statErr := os.Stat(full)
		if statErr != nil {
			if err := ix.Store.DeleteFile(rel); err != nil {
				warnings = append(warnings, err.Error())
			}
			continue
		}

		hash, hashErr := scanner.HashFile(full)
		if hashErr != nil {
			warnings = append(warnings, "hash failed for "+rel+": "+hashErr.Error())
			continue
		}

		rec := types.FileRecord{
			Path:        rel,
			Language:    scanner.DetectLanguage(rel),
			SizeBytes:   uint64(info.Size()),
			MTimeMillis: info.ModTime().UnixMilli(),
			ContentHash: hash,
		}
		nSym, nImp, perr := ix.processFile(rec, builder)
		if perr != nil {
			warnings = append(warnings, perr.Error())
			continue
		}
		fileTotal++
		symbolTotal += nSym
		importTotal += nImp
	}

	return types.IndexStats{
		Files:      fileTotal,
		Symbols:    symbolTotal,
		Imports:    importTotal,
		DurationMS: time.Since(start).Milliseconds(),
	}, warnings, nil
}

func (ix *Indexer) allIndexedPaths() ([]string, error) {
	return ix.Store.AllPaths()
}
