package ingest

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/raghul-ravi/rag-it/internal/embedding"
	"github.com/raghul-ravi/rag-it/internal/extract"
	"github.com/raghul-ravi/rag-it/internal/fileid"
	"github.com/raghul-ravi/rag-it/internal/keyword"
	"github.com/raghul-ravi/rag-it/internal/models"
	"github.com/raghul-ravi/rag-it/internal/storage"
	"github.com/raghul-ravi/rag-it/internal/vector"
)

// ErrNoContent marks a document that parsed cleanly but produced no text.
// Such documents are reported as failures and store no records.
var ErrNoContent = errors.New("no text content extracted")

// Pipeline ingests documents: extract, chunk, embed, and upsert into the
// vector store, keyword index, and catalog. A document's chunk IDs derive
// from its path, so re-ingesting a file replaces its previous chunks.
type Pipeline struct {
	extractor  *extract.Extractor
	chunker    *Chunker
	embedder   embedding.Embedder
	store      vector.Store
	keyword    keyword.Index
	catalog    storage.Catalog
	extensions map[string]bool
	workers    int
	logger     *zap.Logger

	// writeMu serializes writes to the store, keyword index, and catalog so
	// parallel ingestion never interleaves one document's records with
	// another's deletes.
	writeMu sync.Mutex
}

// Option configures a Pipeline.
type Option func(*Pipeline)

// WithLogger sets a logger for debug and summary output.
func WithLogger(l *zap.Logger) Option {
	return func(p *Pipeline) { p.logger = l }
}

// WithWorkers sets how many documents are processed concurrently. Values
// below 1 are treated as 1.
func WithWorkers(n int) Option {
	return func(p *Pipeline) {
		if n > 1 {
			p.workers = n
		}
	}
}

// NewPipeline creates a pipeline. extensions limits which files Run picks up
// (empty means every extension the extractor supports).
func NewPipeline(
	extractor *extract.Extractor,
	chunker *Chunker,
	embedder embedding.Embedder,
	store vector.Store,
	kw keyword.Index,
	catalog storage.Catalog,
	extensions []string,
	opts ...Option,
) *Pipeline {
	allowed := make(map[string]bool, len(extensions))
	for _, ext := range extensions {
		if !strings.HasPrefix(ext, ".") {
			ext = "." + ext
		}
		allowed[strings.ToLower(ext)] = true
	}
	p := &Pipeline{
		extractor:  extractor,
		chunker:    chunker,
		embedder:   embedder,
		store:      store,
		keyword:    kw,
		catalog:    catalog,
		extensions: allowed,
		workers:    1,
		logger:     zap.NewNop(),
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

func (p *Pipeline) allowed(ext string) bool {
	if !p.extractor.Supported(ext) {
		return false
	}
	if len(p.extensions) == 0 {
		return true
	}
	return p.extensions[strings.ToLower(ext)]
}

// Run walks dir recursively and ingests every supported regular file.
// Per-document failures are collected in the report and do not abort the
// run; only an unreadable root directory is an error.
func (p *Pipeline) Run(ctx context.Context, dir string, force bool) (*models.IngestReport, error) {
	absDir, err := filepath.Abs(dir)
	if err != nil {
		return nil, fmt.Errorf("absolute path: %w", err)
	}
	info, err := os.Stat(absDir)
	if err != nil {
		return nil, fmt.Errorf("stat documents directory: %w", err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("not a directory: %s", absDir)
	}

	report := models.NewIngestReport(absDir)
	var paths []string
	err = filepath.WalkDir(absDir, func(path string, d fs.DirEntry, walkErr error) error {
		if walkErr != nil {
			return walkErr
		}
		if d.IsDir() {
			return nil
		}
		// Resolve symlinks so only regular files are ingested.
		finfo, statErr := os.Stat(path)
		if statErr != nil || !finfo.Mode().IsRegular() {
			return nil
		}
		if !p.allowed(filepath.Ext(path)) {
			report.Unsupported++
			p.logger.Debug("skipping unsupported file", zap.String("path", path))
			return nil
		}
		paths = append(paths, path)
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("walk %s: %w", absDir, err)
	}
	sort.Strings(paths)
	report.Found = len(paths)

	var reportMu sync.Mutex
	process := func(path string) {
		chunks, skipped, err := p.IngestFile(ctx, path, force)
		reportMu.Lock()
		defer reportMu.Unlock()
		switch {
		case err != nil:
			report.Failures = append(report.Failures, models.FileFailure{Path: path, Error: err.Error()})
			p.logger.Warn("document failed", zap.String("path", path), zap.Error(err))
		case skipped:
			report.Skipped++
		default:
			report.Ingested++
			report.Chunks += chunks
		}
	}

	if p.workers > 1 {
		jobs := make(chan string)
		var wg sync.WaitGroup
		for i := 0; i < p.workers; i++ {
			wg.Add(1)
			go func() {
				defer wg.Done()
				for path := range jobs {
					process(path)
				}
			}()
		}
		for _, path := range paths {
			jobs <- path
		}
		close(jobs)
		wg.Wait()
	} else {
		for _, path := range paths {
			process(path)
		}
	}

	// Failures are appended in completion order under workers; keep the
	// report deterministic.
	sort.Slice(report.Failures, func(i, j int) bool {
		return report.Failures[i].Path < report.Failures[j].Path
	})
	report.Finish()
	p.logger.Info("ingestion finished",
		zap.String("run_id", report.RunID),
		zap.Int("found", report.Found),
		zap.Int("ingested", report.Ingested),
		zap.Int("skipped", report.Skipped),
		zap.Int("unsupported", report.Unsupported),
		zap.Int("failed", report.Failed()),
		zap.Int("chunks", report.Chunks),
		zap.Int64("elapsed_ms", report.Elapsed))
	return report, nil
}

// IngestFile ingests a single file. It returns the number of chunks stored,
// or skipped=true when the catalog shows the file unchanged since its last
// successful ingest and force is false. Any error means the document stored
// no records and was marked failed in the catalog.
func (p *Pipeline) IngestFile(ctx context.Context, path string, force bool) (chunks int, skipped bool, err error) {
	absPath, err := filepath.Abs(path)
	if err != nil {
		return 0, false, fmt.Errorf("absolute path: %w", err)
	}
	info, err := os.Stat(absPath)
	if err != nil {
		return 0, false, fmt.Errorf("stat file: %w", err)
	}
	if !info.Mode().IsRegular() {
		return 0, false, fmt.Errorf("not a regular file: %s", absPath)
	}
	docID := fileid.SourceDocID(absPath)

	if !force {
		if src, getErr := p.catalog.GetSourceByPath(ctx, absPath); getErr == nil && src != nil &&
			src.Unchanged(info.Size(), info.ModTime().UnixNano()) {
			p.logger.Debug("skipping unchanged file", zap.String("path", absPath))
			return 0, true, nil
		}
	}

	text, err := p.extractor.Extract(absPath)
	if err != nil {
		err = fmt.Errorf("extract: %w", err)
		p.markFailed(ctx, docID, absPath, info, err)
		return 0, false, err
	}
	clean := Preprocess(text)
	if clean == "" {
		p.markFailed(ctx, docID, absPath, info, ErrNoContent)
		return 0, false, ErrNoContent
	}

	chunked := p.chunker.Chunk(clean)
	texts := make([]string, len(chunked))
	for i, ch := range chunked {
		texts[i] = ch.Text
	}
	embeddings, err := p.embedder.EmbedBatch(ctx, texts)
	if err != nil {
		err = fmt.Errorf("embed: %w", err)
		p.markFailed(ctx, docID, absPath, info, err)
		return 0, false, err
	}

	filename := filepath.Base(absPath)
	total := strconv.Itoa(len(chunked))
	records := make([]models.Record, len(chunked))
	for i, ch := range chunked {
		records[i] = models.Record{
			ID:        fileid.ChunkID(docID, ch.Index),
			Embedding: embeddings[i],
			Text:      ch.Text,
			Metadata: map[string]string{
				models.MetaSource:      absPath,
				models.MetaFilename:    filename,
				models.MetaChunkIndex:  strconv.Itoa(ch.Index),
				models.MetaTotalChunks: total,
			},
		}
	}

	p.writeMu.Lock()
	defer p.writeMu.Unlock()

	// Drop stale chunks first so a file that shrank leaves no orphans.
	if _, err := p.store.DeleteBySource(ctx, absPath); err != nil {
		err = fmt.Errorf("delete stale records: %w", err)
		p.markFailed(ctx, docID, absPath, info, err)
		return 0, false, err
	}
	if _, err := p.keyword.DeleteBySource(ctx, absPath); err != nil {
		err = fmt.Errorf("delete stale keyword entries: %w", err)
		p.markFailed(ctx, docID, absPath, info, err)
		return 0, false, err
	}
	if err := p.store.Upsert(ctx, records); err != nil {
		err = fmt.Errorf("store records: %w", err)
		p.markFailed(ctx, docID, absPath, info, err)
		return 0, false, err
	}
	if err := p.keyword.IndexBatch(ctx, records); err != nil {
		err = fmt.Errorf("index keywords: %w", err)
		p.markFailed(ctx, docID, absPath, info, err)
		return 0, false, err
	}

	now := time.Now()
	src := &models.Source{
		ID:         docID,
		Path:       absPath,
		Filename:   filename,
		Size:       info.Size(),
		MtimeNs:    info.ModTime().UnixNano(),
		Chunks:     len(records),
		Status:     models.SourceStatusOK,
		IngestedAt: now,
		UpdatedAt:  now,
	}
	if err := p.catalog.UpsertSource(ctx, src); err != nil {
		return 0, false, fmt.Errorf("update catalog: %w", err)
	}
	p.logger.Debug("file ingested",
		zap.String("path", absPath),
		zap.Int("chunks", len(records)))
	return len(records), false, nil
}

// RemoveSource deletes every trace of the file at path: its vector records,
// keyword entries, and catalog row.
func (p *Pipeline) RemoveSource(ctx context.Context, path string) error {
	absPath, err := filepath.Abs(path)
	if err != nil {
		return fmt.Errorf("absolute path: %w", err)
	}
	docID := fileid.SourceDocID(absPath)

	p.writeMu.Lock()
	defer p.writeMu.Unlock()
	if _, err := p.store.DeleteBySource(ctx, absPath); err != nil {
		return fmt.Errorf("delete records: %w", err)
	}
	if _, err := p.keyword.DeleteBySource(ctx, absPath); err != nil {
		return fmt.Errorf("delete keyword entries: %w", err)
	}
	if err := p.catalog.DeleteSource(ctx, docID); err != nil {
		return fmt.Errorf("delete catalog row: %w", err)
	}
	p.logger.Debug("source removed", zap.String("path", absPath))
	return nil
}

// markFailed records the failure in the catalog so the sources listing shows
// what went wrong. Best effort: a catalog error here must not mask the
// original failure.
func (p *Pipeline) markFailed(ctx context.Context, docID, absPath string, info os.FileInfo, cause error) {
	now := time.Now()
	src := &models.Source{
		ID:        docID,
		Path:      absPath,
		Filename:  filepath.Base(absPath),
		Size:      info.Size(),
		MtimeNs:   info.ModTime().UnixNano(),
		Status:    models.SourceStatusFailed,
		Error:     cause.Error(),
		UpdatedAt: now,
	}
	if err := p.catalog.UpsertSource(ctx, src); err != nil {
		p.logger.Warn("failed to record failure in catalog",
			zap.String("path", absPath), zap.Error(err))
	}
}
