// Package query answers questions grounded on retrieved document chunks.
package query

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"go.uber.org/zap"

	"github.com/raghul-ravi/rag-it/internal/config"
	"github.com/raghul-ravi/rag-it/internal/embedding"
	"github.com/raghul-ravi/rag-it/internal/keyword"
	"github.com/raghul-ravi/rag-it/internal/llm"
	"github.com/raghul-ravi/rag-it/internal/models"
	"github.com/raghul-ravi/rag-it/internal/vector"
	"github.com/raghul-ravi/rag-it/pkg/utils"
)

// NoInformationAnswer is returned without calling the LLM when retrieval
// finds nothing at all.
const NoInformationAnswer = "I couldn't find any relevant information in your documents to answer that question."

// snippetLen bounds source snippets in responses.
const snippetLen = 200

// Engine embeds a question, retrieves the most similar chunks, and asks the
// configured LLM for an answer grounded on them.
type Engine struct {
	embedder embedding.Embedder
	store    vector.Store
	keyword  keyword.Index // optional; nil disables the lexical fallback
	provider llm.Provider
	cfg      config.RetrievalConfig
	logger   *zap.Logger
}

// Option configures an Engine.
type Option func(*Engine)

// WithLogger sets a logger for debug output.
func WithLogger(l *zap.Logger) Option {
	return func(e *Engine) { e.logger = l }
}

// NewEngine creates a query engine. kw may be nil to disable the keyword
// fallback.
func NewEngine(
	embedder embedding.Embedder,
	store vector.Store,
	kw keyword.Index,
	provider llm.Provider,
	cfg config.RetrievalConfig,
	opts ...Option,
) *Engine {
	e := &Engine{
		embedder: embedder,
		store:    store,
		keyword:  kw,
		provider: provider,
		cfg:      cfg,
		logger:   zap.NewNop(),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Answer runs the full query pipeline: embed, retrieve, prompt, generate.
// When nothing is retrieved it returns the canned no-information answer and
// never calls the LLM.
func (e *Engine) Answer(ctx context.Context, req *models.QueryRequest) (*models.QueryResponse, error) {
	start := time.Now()
	if err := req.Validate(e.cfg.TopK); err != nil {
		return nil, err
	}

	qvec, err := e.embedder.Embed(ctx, req.Question)
	if err != nil {
		return nil, fmt.Errorf("embed question: %w", err)
	}

	retrieved, err := e.store.Query(ctx, qvec, req.TopK, req.Filter)
	if err != nil {
		return nil, err
	}
	if e.cfg.MinSimilarity > 0 {
		kept := retrieved[:0]
		for _, r := range retrieved {
			if r.Similarity >= e.cfg.MinSimilarity {
				kept = append(kept, r)
			}
		}
		retrieved = kept
	}

	mode := models.RetrievalVector
	if len(retrieved) == 0 && e.keyword != nil {
		retrieved = e.keywordFallback(ctx, req)
		mode = models.RetrievalKeyword
	}
	if len(retrieved) == 0 {
		return &models.QueryResponse{
			Question:  req.Question,
			Answer:    NoInformationAnswer,
			Retrieval: models.RetrievalNone,
			QueryTime: time.Since(start).Milliseconds(),
		}, nil
	}

	system, user := BuildPrompt(req.Question, retrieved)
	e.logger.Debug("generating answer",
		zap.String("provider", e.provider.Name()),
		zap.String("retrieval", mode),
		zap.Int("chunks", len(retrieved)))
	answer, err := e.provider.Generate(ctx, system, user)
	if err != nil {
		return nil, fmt.Errorf("generate answer: %w", err)
	}

	return &models.QueryResponse{
		Question:  req.Question,
		Answer:    answer,
		Sources:   sourceRefs(retrieved),
		Retrieval: mode,
		QueryTime: time.Since(start).Milliseconds(),
	}, nil
}

// keywordFallback runs a lexical search over the question and shapes the hits
// like vector results. Errors only disable the fallback; the query itself
// still succeeds with the canned answer.
func (e *Engine) keywordFallback(ctx context.Context, req *models.QueryRequest) []models.Retrieved {
	hits, err := e.keyword.Search(ctx, req.Question, req.TopK)
	if err != nil {
		e.logger.Warn("keyword fallback failed", zap.Error(err))
		return nil
	}
	retrieved := make([]models.Retrieved, 0, len(hits))
	for _, h := range hits {
		meta := map[string]string{
			models.MetaSource:     h.Source,
			models.MetaFilename:   h.Filename,
			models.MetaChunkIndex: strconv.Itoa(h.ChunkIndex),
		}
		if !matchesFilter(meta, req.Filter) {
			continue
		}
		retrieved = append(retrieved, models.Retrieved{
			Record: models.Record{ID: h.ID, Text: h.Text, Metadata: meta},
			// BM25 scores are not cosine similarities; they still order
			// the sources sensibly for display.
			Similarity: float32(h.Score),
		})
	}
	return retrieved
}

func matchesFilter(metadata, filter map[string]string) bool {
	for k, v := range filter {
		if metadata[k] != v {
			return false
		}
	}
	return true
}

func sourceRefs(retrieved []models.Retrieved) []models.SourceRef {
	refs := make([]models.SourceRef, len(retrieved))
	for i, r := range retrieved {
		idx, _ := strconv.Atoi(r.Metadata[models.MetaChunkIndex])
		refs[i] = models.SourceRef{
			Path:       r.Metadata[models.MetaSource],
			Filename:   r.Metadata[models.MetaFilename],
			ChunkIndex: idx,
			Similarity: r.Similarity,
			Snippet:    utils.Truncate(r.Text, snippetLen),
		}
	}
	return refs
}
