package server

import (
	"encoding/json"
	"errors"
	"net/http"

	"go.uber.org/zap"

	"github.com/raghul-ravi/rag-it/internal/models"
	"github.com/raghul-ravi/rag-it/internal/storage"
	"github.com/raghul-ravi/rag-it/internal/vector"
)

func (s *Server) handleQuery(w http.ResponseWriter, r *http.Request) {
	var req models.QueryRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	s.logger.Debug("query request", zap.String("question", req.Question), zap.Int("top_k", req.TopK))
	resp, err := s.engine.Answer(r.Context(), &req)
	if err != nil {
		s.logger.Error("query failed", zap.Error(err))
		status := http.StatusInternalServerError
		if req.Question == "" {
			status = http.StatusBadRequest
		}
		if errors.Is(err, vector.ErrDimensionMismatch) {
			status = http.StatusConflict
		}
		s.respondError(w, status, err.Error())
		return
	}
	s.respondJSON(w, http.StatusOK, resp)
}

type ingestRequest struct {
	Dir   string `json:"dir,omitempty"`
	Force bool   `json:"force,omitempty"`
}

func (s *Server) handleIngest(w http.ResponseWriter, r *http.Request) {
	var req ingestRequest
	if r.ContentLength > 0 {
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			s.respondError(w, http.StatusBadRequest, "invalid request body")
			return
		}
	}
	dir := req.Dir
	if dir == "" {
		dir = s.cfg.Documents.Dir
	}
	s.logger.Debug("ingest request", zap.String("dir", dir), zap.Bool("force", req.Force))
	report, err := s.pipeline.Run(r.Context(), dir, req.Force)
	if err != nil {
		s.logger.Error("ingestion failed", zap.Error(err))
		s.respondError(w, http.StatusInternalServerError, err.Error())
		return
	}
	s.respondJSON(w, http.StatusOK, report)
}

func (s *Server) handleListSources(w http.ResponseWriter, r *http.Request) {
	sources, err := s.catalog.ListSources(r.Context())
	if err != nil {
		s.logger.Error("list sources failed", zap.Error(err))
		s.respondError(w, http.StatusInternalServerError, err.Error())
		return
	}
	if sources == nil {
		sources = []*models.Source{}
	}
	s.respondJSON(w, http.StatusOK, map[string]any{"sources": sources})
}

func (s *Server) handleRemoveSource(w http.ResponseWriter, r *http.Request) {
	path := r.URL.Query().Get("path")
	if path == "" {
		s.respondError(w, http.StatusBadRequest, "path query parameter is required")
		return
	}
	s.logger.Debug("remove source request", zap.String("path", path))
	if err := s.pipeline.RemoveSource(r.Context(), path); err != nil {
		s.logger.Error("remove source failed", zap.Error(err))
		s.respondError(w, http.StatusInternalServerError, err.Error())
		return
	}
	s.respondJSON(w, http.StatusOK, map[string]string{"path": path, "status": "removed"})
}

func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	sourceCount, err := s.catalog.CountSources(ctx)
	if err != nil {
		s.logger.Error("status: count sources failed", zap.Error(err))
		s.respondError(w, http.StatusInternalServerError, err.Error())
		return
	}
	failedCount, err := s.catalog.CountByStatus(ctx, models.SourceStatusFailed)
	if err != nil {
		s.logger.Error("status: count failed sources failed", zap.Error(err))
		s.respondError(w, http.StatusInternalServerError, err.Error())
		return
	}
	chunkCount, err := s.catalog.TotalChunks(ctx)
	if err != nil {
		s.logger.Error("status: count chunks failed", zap.Error(err))
		s.respondError(w, http.StatusInternalServerError, err.Error())
		return
	}

	resp := map[string]any{
		"sources":        sourceCount,
		"failed_sources": failedCount,
		"chunks":         chunkCount,
		"vector_records": s.store.Count(),
		"config": map[string]any{
			"documents_dir":        s.cfg.Documents.Dir,
			"chunk_size":           s.cfg.Chunking.Size,
			"chunk_overlap":        s.cfg.Chunking.Overlap,
			"embedding_provider":   s.cfg.Embedding.Provider,
			"embedding_dimensions": s.cfg.Embedding.Dimensions,
			"llm_provider":         s.cfg.LLM.Provider,
			"top_k":                s.cfg.Retrieval.TopK,
		},
	}
	diskBytes, err := storage.DiskUsageBytes(
		s.cfg.Storage.VectorDir,
		s.cfg.Storage.ManifestPath,
		s.cfg.Storage.CatalogPath,
		s.cfg.Storage.KeywordIndexPath,
	)
	if err == nil {
		resp["disk_usage_bytes"] = diskBytes
	}
	s.respondJSON(w, http.StatusOK, resp)
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	s.respondJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) respondJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(data)
}

func (s *Server) respondError(w http.ResponseWriter, status int, message string) {
	s.respondJSON(w, status, map[string]string{"error": message})
}
