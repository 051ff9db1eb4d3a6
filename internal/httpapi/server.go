// Package httpapi binds the service's Query API to HTTP, grounded on
// original_source's server.py route shape: GET /search, GET /archaeology,
// GET /stats, GET /health, POST /reindex. A thin net/http.ServeMux binding
// with no router dependency, matching the teacher's preference for
// stdlib-first transport code where nothing domain-specific is needed.
package httpapi

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/vaultsearch/vaultsearch/internal/service"
	"github.com/vaultsearch/vaultsearch/internal/vaulterr"
)

// Server binds a service.Service to HTTP handlers.
type Server struct {
	svc    *service.Service
	logger *slog.Logger
	mux    *http.ServeMux
}

// NewServer builds a Server with all routes registered.
func NewServer(svc *service.Service, logger *slog.Logger) *Server {
	if logger == nil {
		logger = slog.Default()
	}
	s := &Server{svc: svc, logger: logger, mux: http.NewServeMux()}
	s.routes()
	return s
}

func (s *Server) routes() {
	s.mux.HandleFunc("GET /search", s.handleSearch)
	s.mux.HandleFunc("GET /archaeology", s.handleArchaeology)
	s.mux.HandleFunc("GET /stats", s.handleStats)
	s.mux.HandleFunc("GET /health", s.handleHealth)
	s.mux.HandleFunc("POST /reindex", s.handleReindex)
}

// Handler returns the server's http.Handler, suitable for http.ListenAndServe.
func (s *Server) Handler() http.Handler {
	return s.mux
}

type searchResultDTO struct {
	RelativePath      string   `json:"relative_path"`
	Title             string   `json:"title"`
	Tags              []string `json:"tags,omitempty"`
	Snippet           string   `json:"snippet"`
	SimilarityScore   float64  `json:"similarity_score"`
	BM25Score         float64  `json:"bm25_score"`
	BM25BaseScore     float64  `json:"bm25_base_score"`
	RRFScore          float64  `json:"rrf_score"`
	CrossEncoderScore float64  `json:"cross_encoder_score,omitempty"`
	InBothLists       bool     `json:"in_both_lists"`
	TagBoosted        bool     `json:"tag_boosted"`
	TimedOut          bool     `json:"timed_out,omitempty"`
	CreatedDate       string   `json:"created_date,omitempty"`
	ModifiedDate      string   `json:"modified_date,omitempty"`
	IsChunk           bool     `json:"is_chunk"`
	ChunkIndex        int      `json:"chunk_index,omitempty"`
	ChunkTotal        int      `json:"chunk_total,omitempty"`
}

func (s *Server) handleSearch(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query().Get("q")
	if q == "" {
		writeError(w, http.StatusBadRequest, "query parameter 'q' is required")
		return
	}

	limit := 0
	if v := r.URL.Query().Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 1 || n > 100 {
			writeError(w, http.StatusBadRequest, "limit must be an integer between 1 and 100")
			return
		}
		limit = n
	}

	req := service.SearchRequest{
		Query:       q,
		Limit:       limit,
		ProfileName: r.URL.Query().Get("profile"),
	}

	results, err := s.svc.Search(r.Context(), req)
	if err != nil {
		s.logger.Error("search failed", slog.String("query", q), slog.Any("error", err))
		writeError(w, statusForError(err), err.Error())
		return
	}

	dtos := make([]searchResultDTO, len(results))
	for i, res := range results {
		dtos[i] = searchResultDTO{
			RelativePath:      res.RelativePath,
			Title:             res.Title,
			Tags:              res.Tags,
			Snippet:           res.Snippet,
			SimilarityScore:   res.SimilarityScore,
			BM25Score:         res.BM25Score,
			BM25BaseScore:     res.BM25BaseScore,
			RRFScore:          res.RRFScore,
			CrossEncoderScore: res.CrossEncoderScore,
			InBothLists:       res.InBothLists,
			TagBoosted:        res.TagBoosted,
			TimedOut:          res.TimedOut,
			CreatedDate:       formatDate(res.CreatedDate),
			ModifiedDate:      formatDate(res.ModifiedTime),
			IsChunk:           res.IsChunk,
			ChunkIndex:        res.ChunkIndex,
			ChunkTotal:        res.ChunkTotal,
		}
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"query":   q,
		"results": dtos,
		"total":   len(dtos),
	})
}

type timelineEntryDTO struct {
	Date            string  `json:"date"`
	RelativePath    string  `json:"relative_path"`
	Snippet         string  `json:"snippet"`
	SimilarityScore float64 `json:"similarity_score"`
}

type monthIntensityDTO struct {
	Month     string  `json:"month"`
	Intensity float64 `json:"intensity"`
}

func (s *Server) handleArchaeology(w http.ResponseWriter, r *http.Request) {
	topic := r.URL.Query().Get("q")
	if topic == "" {
		writeError(w, http.StatusBadRequest, "query parameter 'q' is required")
		return
	}

	threshold := 0.3
	if v := r.URL.Query().Get("threshold"); v != "" {
		t, err := strconv.ParseFloat(v, 64)
		if err != nil || t < 0 || t > 1 {
			writeError(w, http.StatusBadRequest, "threshold must be a float between 0.0 and 1.0")
			return
		}
		threshold = t
	}

	excludeDaily := false
	if v := r.URL.Query().Get("exclude_daily"); v != "" {
		b, err := strconv.ParseBool(v)
		if err != nil {
			writeError(w, http.StatusBadRequest, "exclude_daily must be a boolean")
			return
		}
		excludeDaily = b
	}

	timeline, err := s.svc.Archaeology(r.Context(), topic, threshold, excludeDaily)
	if err != nil {
		s.logger.Error("archaeology failed", slog.String("query", topic), slog.Any("error", err))
		writeError(w, statusForError(err), err.Error())
		return
	}

	entries := make([]timelineEntryDTO, len(timeline.Entries))
	for i, e := range timeline.Entries {
		entries[i] = timelineEntryDTO{
			Date:            e.Date.Format("2006-01-02"),
			RelativePath:    e.RelativePath,
			Snippet:         e.Snippet,
			SimilarityScore: e.SimilarityScore,
		}
	}
	peaks := make([]monthIntensityDTO, len(timeline.PeakPeriods))
	for i, p := range timeline.PeakPeriods {
		peaks[i] = monthIntensityDTO{Month: p.Month, Intensity: p.Intensity}
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"query":              timeline.Query,
		"threshold":          threshold,
		"exclude_daily":      excludeDaily,
		"entries":            entries,
		"activity_by_month":  timeline.ActivityByMonth,
		"intensity_by_month": timeline.IntensityByMonth,
		"peak_periods":       peaks,
		"dormant_periods":    timeline.DormantPeriods,
	})
}

func (s *Server) handleStats(w http.ResponseWriter, r *http.Request) {
	stats, err := s.svc.Stats(r.Context())
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"document_count": stats.DocumentCount,
		"chunk_count":    stats.ChunkCount,
		"dimension":      stats.Dimension,
		"encoder_name":   stats.EncoderName,
		"indexed_at":     formatDate(stats.IndexedAt),
		"vault_path":     stats.VaultPath,
	})
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	stats, err := s.svc.Stats(r.Context())
	if err != nil {
		writeJSON(w, http.StatusServiceUnavailable, map[string]any{
			"status": "unhealthy",
			"error":  err.Error(),
		})
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"status":     "healthy",
		"documents":  stats.DocumentCount,
		"encoder":    stats.EncoderName,
		"vault_path": stats.VaultPath,
	})
}

func (s *Server) handleReindex(w http.ResponseWriter, r *http.Request) {
	force := true
	if v := r.URL.Query().Get("force"); v != "" {
		b, err := strconv.ParseBool(v)
		if err != nil {
			writeError(w, http.StatusBadRequest, "force must be a boolean")
			return
		}
		force = b
	}
	chunking := true
	if v := r.URL.Query().Get("chunking"); v != "" {
		b, err := strconv.ParseBool(v)
		if err != nil {
			writeError(w, http.StatusBadRequest, "chunking must be a boolean")
			return
		}
		chunking = b
	}
	chunkSize := 2000
	if v := r.URL.Query().Get("chunk_size"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n <= 0 {
			writeError(w, http.StatusBadRequest, "chunk_size must be a positive integer")
			return
		}
		chunkSize = n
	}
	chunkOverlap := 400
	if v := r.URL.Query().Get("chunk_overlap"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 0 {
			writeError(w, http.StatusBadRequest, "chunk_overlap must be a non-negative integer")
			return
		}
		chunkOverlap = n
	}

	result, err := s.svc.TryReindex(r.Context(), service.ReindexRequest{
		Force:        force,
		Chunking:     chunking,
		ChunkSize:    chunkSize,
		ChunkOverlap: chunkOverlap,
	})
	if errors.Is(err, service.ErrReindexBusy) {
		writeError(w, http.StatusConflict, "a reindex is already in progress")
		return
	}
	if err != nil {
		s.logger.Error("reindex failed", slog.Any("error", err))
		writeError(w, statusForError(err), err.Error())
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"status":         "success",
		"incremental":    result.Incremental,
		"files_indexed":  result.FilesIndexed,
		"files_new":      result.FilesNew,
		"files_modified": result.FilesModified,
		"files_deleted":  result.FilesDeleted,
		"total_rows":     result.TotalRows,
		"encoder_name":   result.EncoderName,
	})
}

func formatDate(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.Format(time.RFC3339)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]string{"error": message})
}

// statusForError maps a vaulterr.VaultError's Kind (if the error carries
// one) to an HTTP status; anything else is a 500.
func statusForError(err error) int {
	var verr *vaulterr.VaultError
	if errors.As(err, &verr) {
		switch verr.Kind {
		case vaulterr.Config:
			return http.StatusBadRequest
		case vaulterr.IndexUnavailable:
			return http.StatusNotFound
		case vaulterr.Deadline:
			return http.StatusGatewayTimeout
		}
	}
	return http.StatusInternalServerError
}
