// Package service wires the engine's components (config, dual index,
// query pipeline, profiles, encoder, watcher) into the transport-neutral
// Query API: search, archaeology, stats, reindex. HTTP and CLI transports
// both bind to this package rather than touching internal/index or
// internal/search directly.
package service

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/vaultsearch/vaultsearch/internal/archaeology"
	"github.com/vaultsearch/vaultsearch/internal/config"
	"github.com/vaultsearch/vaultsearch/internal/encoder"
	"github.com/vaultsearch/vaultsearch/internal/index"
	"github.com/vaultsearch/vaultsearch/internal/lexical"
	"github.com/vaultsearch/vaultsearch/internal/profiles"
	"github.com/vaultsearch/vaultsearch/internal/search"
	"github.com/vaultsearch/vaultsearch/internal/store"
	"github.com/vaultsearch/vaultsearch/internal/vaulterr"
	"github.com/vaultsearch/vaultsearch/internal/watcher"
)

// Service owns every long-lived component for one vault and exposes the
// four Query API operations. Reindex calls are serialized through
// reindexMu: the dual index has no concept of concurrent writers, so a
// second caller either waits or is told the engine is busy, never races.
type Service struct {
	Config    *config.Config
	VaultRoot string
	Vectors   *store.VectorStore
	Lexical   *lexical.Index
	Encoder   encoder.Encoder
	Manager   *index.Manager
	Pipeline  *search.Pipeline
	Tracer    *archaeology.Tracer
	Profiles  *profiles.Registry

	reindexMu sync.Mutex
}

// New constructs a Service from a loaded config and a vault root. It builds
// the encoder (per Config.Embeddings.Provider), the dual index components,
// the query pipeline, and the profile registry, but does not load the
// index from disk — call Open for that.
func New(cfg *config.Config, vaultRoot, storeDir string, reranker search.Reranker) (*Service, error) {
	enc, err := buildEncoder(cfg, storeDir)
	if err != nil {
		return nil, err
	}

	vectors := store.New(storeDir)
	lex, err := lexical.New()
	if err != nil {
		return nil, vaulterr.Wrap(vaulterr.Index, err)
	}

	chunkOpts := index.ChunkOptions{}
	if p, perr := profiles.NewRegistry().Get(cfg.Search.DefaultProfile); perr == nil {
		chunkOpts = index.ChunkOptions{Enabled: p.ChunkingEnabled, Size: p.ChunkSize, Overlap: p.ChunkOverlap, Threshold: p.ChunkSize}
	}

	manager := index.NewManager(vaultRoot, storeDir, chunkOpts, vectors, lex, enc)
	pipeline := search.NewPipeline(vectors, lex, enc, reranker)
	tracer := archaeology.NewTracer(vectors, enc)

	return &Service{
		Config:    cfg,
		VaultRoot: vaultRoot,
		Vectors:   vectors,
		Lexical:   lex,
		Encoder:   enc,
		Manager:   manager,
		Pipeline:  pipeline,
		Tracer:    tracer,
		Profiles:  profiles.NewRegistry(),
	}, nil
}

// buildEncoder constructs the encoder named by Config.Embeddings.Provider.
// "static" needs no external service and is used for tests and degraded
// environments; "ollama" is the default local embedding backend.
func buildEncoder(cfg *config.Config, storeDir string) (encoder.Encoder, error) {
	var inner encoder.Encoder
	switch cfg.Embeddings.Provider {
	case "static":
		inner = encoder.NewStaticEncoder()
	default:
		inner = encoder.NewOllamaEncoder(encoder.OllamaConfig{
			Host:       cfg.Embeddings.OllamaHost,
			Model:      cfg.Embeddings.Model,
			Dimensions: cfg.Embeddings.Dimensions,
			BatchSize:  cfg.Embeddings.BatchSize,
		})
	}
	return encoder.NewSerialized(inner, storeDir), nil
}

// Open loads the persisted index (if any) so the pipeline can serve
// queries. Safe to call again after a Reindex to pick up the fresh
// snapshot — Reindex already does this itself, but external callers that
// hold their own reference may want to re-sync explicitly.
func (s *Service) Open(ctx context.Context) error {
	if err := s.Encoder.Load(ctx); err != nil {
		return vaulterr.Wrap(vaulterr.Encoder, err)
	}
	return s.Vectors.Load()
}

// Close releases the encoder's resources (HTTP connections, model
// processes, lock files).
func (s *Service) Close() error {
	return s.Encoder.Close()
}

// SearchRequest is the transport-neutral search call, matching the query
// API's `search(query, limit, profile_name, overrides)` contract.
type SearchRequest struct {
	Query       string
	Limit       int
	ProfileName string
	Overrides   *ProfileOverrides
}

// ProfileOverrides lets a caller tune a handful of profile-driven knobs for
// a single call without registering a whole custom profile.
type ProfileOverrides struct {
	HybridWeight        *float64
	CrossEncoderEnabled *bool
	MaxAgeDays          *int
	Deadline            time.Time
}

// Search resolves the named profile, applies any per-call overrides,
// builds search.Options, and runs the hybrid pipeline.
func (s *Service) Search(ctx context.Context, req SearchRequest) ([]*search.Result, error) {
	profileName := req.ProfileName
	if profileName == "" {
		profileName = s.Config.Search.DefaultProfile
	}
	profile, err := s.Profiles.Get(profileName)
	if err != nil {
		return nil, vaulterr.Wrap(vaulterr.Config, err)
	}

	limit := req.Limit
	if limit <= 0 {
		limit = s.Config.Search.MaxResults
	}

	hybridWeight := profile.HybridWeight
	crossEncoderEnabled := profile.CrossEncoderEnabled
	maxAgeDays := profile.MaxAgeDays
	if req.Overrides != nil {
		if req.Overrides.HybridWeight != nil {
			hybridWeight = *req.Overrides.HybridWeight
		}
		if req.Overrides.CrossEncoderEnabled != nil {
			crossEncoderEnabled = *req.Overrides.CrossEncoderEnabled
		}
		if req.Overrides.MaxAgeDays != nil {
			maxAgeDays = *req.Overrides.MaxAgeDays
		}
	}

	opts := search.Options{
		Limit:     limit,
		Weights:   search.WeightsFromHybrid(hybridWeight),
		BM25Boost: profile.BM25Boost,
		TagBoost:  s.Config.Search.TagBoostMultiplier,
		TimeDecay: search.TimeDecayConfig{
			Enabled:      profile.TimeDecay.Enabled,
			HalfLifeDays: profile.TimeDecay.HalfLifeDays,
			MaxBoost:     profile.TimeDecay.MaxBoost,
		},
		MaxAgeDays:        maxAgeDays,
		MaxResultsPerFile: profile.MaxResultsPerFile,
		UseReranker:       crossEncoderEnabled,
	}
	if profile.MaxResultsPerFile > 0 {
		opts.DeduplicateMode = "best"
	}
	if req.Overrides != nil {
		opts.Deadline = req.Overrides.Deadline
	}

	return s.Pipeline.Search(ctx, req.Query, opts)
}

// Archaeology runs the temporal-trace Query API operation.
func (s *Service) Archaeology(ctx context.Context, topic string, threshold float64, excludeDaily bool) (*archaeology.Timeline, error) {
	return s.Tracer.Trace(ctx, topic, threshold, excludeDaily)
}

// Stats is the engine's self-reported index state.
type Stats struct {
	DocumentCount int
	ChunkCount    int
	Dimension     int
	EncoderName   string
	IndexedAt     time.Time
	VaultPath     string
}

// Stats reports the current index size and provenance.
func (s *Service) Stats(ctx context.Context) (Stats, error) {
	rows, meta := s.Vectors.Snapshot()

	documents := make(map[string]struct{}, len(rows))
	for _, r := range rows {
		documents[r.RelativePath] = struct{}{}
	}

	return Stats{
		DocumentCount: len(documents),
		ChunkCount:    len(rows),
		Dimension:     meta.Dimension,
		EncoderName:   meta.EncoderName,
		IndexedAt:     meta.IndexedAt,
		VaultPath:     meta.VaultPath,
	}, nil
}

// ReindexRequest is the transport-neutral reindex call.
type ReindexRequest struct {
	Force        bool
	Chunking     bool
	ChunkSize    int
	ChunkOverlap int
}

// ErrReindexBusy is returned when a reindex is already running and the
// caller asked to be told rather than wait.
var ErrReindexBusy = &vaulterr.VaultError{Kind: vaulterr.Index, Message: "a reindex is already in progress"}

// Reindex runs the ingest -> chunk -> embed -> persist pipeline. Calls are
// serialized: a second concurrent caller blocks until the first completes,
// since the dual index has exactly one writer at a time. Use TryReindex to
// get ErrReindexBusy instead of blocking.
func (s *Service) Reindex(ctx context.Context, req ReindexRequest) (*index.Result, error) {
	s.reindexMu.Lock()
	defer s.reindexMu.Unlock()

	s.Manager.Chunking = index.ChunkOptions{
		Enabled:   req.Chunking,
		Size:      req.ChunkSize,
		Overlap:   req.ChunkOverlap,
		Threshold: req.ChunkSize,
	}
	return s.Manager.Reindex(ctx, req.Force)
}

// Watch starts a file-system watcher on the vault root and triggers an
// incremental, non-forced reindex whenever a batch of changes settles. It
// blocks until ctx is cancelled or the watcher fails to start. A reindex
// already in flight (e.g. from a concurrent CLI call) is skipped for that
// batch rather than queued — the next file event retries.
func (s *Service) Watch(ctx context.Context, logger *slog.Logger) error {
	if logger == nil {
		logger = slog.Default()
	}

	w, err := watcher.NewHybridWatcher(watcher.Options{
		IgnorePatterns: s.Config.Paths.Exclude,
	}.WithDefaults())
	if err != nil {
		return vaulterr.Wrap(vaulterr.Index, err)
	}
	if err := w.Start(ctx, s.VaultRoot); err != nil {
		return vaulterr.Wrap(vaulterr.Index, err)
	}
	defer func() { _ = w.Stop() }()

	for {
		select {
		case <-ctx.Done():
			return nil
		case batch, ok := <-w.Events():
			if !ok {
				return nil
			}
			logger.Debug("vault change detected, reindexing", slog.Int("events", len(batch)))
			current := s.Manager.Chunking
			req := ReindexRequest{Chunking: current.Enabled, ChunkSize: current.Size, ChunkOverlap: current.Overlap}
			if _, err := s.TryReindex(ctx, req); err != nil && err != ErrReindexBusy {
				logger.Warn("incremental reindex failed", slog.String("error", err.Error()))
			}
		case err, ok := <-w.Errors():
			if !ok {
				continue
			}
			logger.Warn("watcher error", slog.String("error", err.Error()))
		}
	}
}

// TryReindex attempts Reindex without blocking; it returns ErrReindexBusy
// if another reindex is already running.
func (s *Service) TryReindex(ctx context.Context, req ReindexRequest) (*index.Result, error) {
	if !s.reindexMu.TryLock() {
		return nil, ErrReindexBusy
	}
	defer s.reindexMu.Unlock()

	s.Manager.Chunking = index.ChunkOptions{
		Enabled:   req.Chunking,
		Size:      req.ChunkSize,
		Overlap:   req.ChunkOverlap,
		Threshold: req.ChunkSize,
	}
	return s.Manager.Reindex(ctx, req.Force)
}
