package encoder

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"math"
	"net/http"
	"runtime"
	"strings"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/vaultsearch/vaultsearch/internal/vaulterr"
)

const (
	// DefaultHost is the default Ollama API endpoint.
	DefaultHost = "http://localhost:11434"

	// DefaultModel is the recommended embedding model.
	DefaultModel = "nomic-embed-text"

	// DefaultBatchSize is how many texts are sent per /api/embed call.
	DefaultBatchSize = 32

	// DefaultWarmTimeout applies once the model is known to be loaded.
	DefaultWarmTimeout = 60 * time.Second

	// DefaultColdTimeout applies to the first call, which may need to load
	// the model into memory.
	DefaultColdTimeout = 120 * time.Second

	defaultMaxRetries   = 3
	defaultRetryDelay   = 1 * time.Second
	defaultMaxRetryWait = 8 * time.Second
)

// OllamaConfig configures the Ollama-backed encoder.
type OllamaConfig struct {
	Host       string
	Model      string
	Dimensions int // 0 = auto-detect from the first embedding call
	BatchSize  int
	MaxRetries int

	// PoolSize bounds how many batches are in flight to Ollama at once.
	// 0 means "size to hardware" (runtime.GOMAXPROCS), matching the
	// encoder's bounded-worker-pool option rather than a single serial
	// worker.
	PoolSize int
}

type ollamaEmbedRequest struct {
	Model string `json:"model"`
	Input any    `json:"input"`
}

type ollamaEmbedResponse struct {
	Embeddings [][]float64 `json:"embeddings"`
}

// OllamaEncoder embeds text through a local Ollama server's /api/embed
// endpoint. The engine treats it as a bounded worker pool rather than a
// single serial worker: one Embed call's own batches run concurrently up
// to PoolSize in flight. Concurrent Embed calls from different goroutines
// are not queued: each holds the mutex only long enough to read the
// load/close state, then sends its batches through the shared
// (concurrency-safe) HTTP client.
type OllamaEncoder struct {
	cfg    OllamaConfig
	client *http.Client

	mu     sync.Mutex
	dims   int
	loaded bool
	closed bool
}

var _ Encoder = (*OllamaEncoder)(nil)

// NewOllamaEncoder constructs an encoder that has not yet contacted Ollama;
// call Load before Embed.
func NewOllamaEncoder(cfg OllamaConfig) *OllamaEncoder {
	if cfg.Host == "" {
		cfg.Host = DefaultHost
	}
	if cfg.Model == "" {
		cfg.Model = DefaultModel
	}
	if cfg.BatchSize <= 0 {
		cfg.BatchSize = DefaultBatchSize
	}
	if cfg.MaxRetries <= 0 {
		cfg.MaxRetries = defaultMaxRetries
	}
	if cfg.PoolSize <= 0 {
		cfg.PoolSize = runtime.GOMAXPROCS(0)
	}
	return &OllamaEncoder{
		cfg: cfg,
		client: &http.Client{
			Transport: &http.Transport{
				MaxIdleConnsPerHost: 4,
				IdleConnTimeout:     10 * time.Second,
			},
		},
		dims: cfg.Dimensions,
	}
}

// Load verifies Ollama is reachable and, if Dimensions was left at 0,
// detects the model's output dimension from a one-word probe embedding.
func (e *OllamaEncoder) Load(ctx context.Context) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.loaded {
		return nil
	}

	if e.dims == 0 {
		vecs, err := e.doEmbed(ctx, []string{"dimension probe"}, DefaultColdTimeout)
		if err != nil {
			return vaulterr.Wrap(vaulterr.Encoder, err)
		}
		if len(vecs) != 1 {
			return vaulterr.New(vaulterr.Encoder, "ollama returned no embedding during dimension probe", nil)
		}
		e.dims = len(vecs[0])
	}
	e.loaded = true
	return nil
}

// Embed sends texts to Ollama in cfg.BatchSize batches, up to cfg.PoolSize
// of them in flight at once, retrying each batch's transient failures with
// exponential backoff, and returns one normalized vector per input text in
// order regardless of which goroutine finished first.
func (e *OllamaEncoder) Embed(ctx context.Context, texts []string) ([][]float32, error) {
	e.mu.Lock()
	closed, loaded := e.closed, e.loaded
	e.mu.Unlock()
	if closed {
		return nil, vaulterr.New(vaulterr.Encoder, "encoder is closed", nil)
	}
	if len(texts) == 0 {
		return nil, nil
	}

	out := make([][]float32, len(texts))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(e.cfg.PoolSize)

	for batchIndex, start := 0, 0; start < len(texts); batchIndex, start = batchIndex+1, start+e.cfg.BatchSize {
		start := start
		end := start + e.cfg.BatchSize
		if end > len(texts) {
			end = len(texts)
		}
		batch := texts[start:end]

		timeout := DefaultWarmTimeout
		if batchIndex == 0 && !loaded {
			timeout = DefaultColdTimeout
		}

		g.Go(func() error {
			vecs, err := e.embedBatchWithRetry(gctx, batch, timeout)
			if err != nil {
				return err
			}
			copy(out[start:end], vecs)
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, vaulterr.Wrap(vaulterr.Encoder, err)
	}
	return out, nil
}

func (e *OllamaEncoder) embedBatchWithRetry(ctx context.Context, batch []string, timeout time.Duration) ([][]float32, error) {
	delay := defaultRetryDelay
	var lastErr error
	for attempt := 0; attempt <= e.cfg.MaxRetries; attempt++ {
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		default:
		}

		vecs, err := e.doEmbed(ctx, batch, timeout)
		if err == nil {
			return vecs, nil
		}
		lastErr = err
		if attempt >= e.cfg.MaxRetries {
			break
		}
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(delay):
		}
		delay *= 2
		if delay > defaultMaxRetryWait {
			delay = defaultMaxRetryWait
		}
	}
	return nil, fmt.Errorf("embed failed after %d retries: %w", e.cfg.MaxRetries, lastErr)
}

func (e *OllamaEncoder) doEmbed(ctx context.Context, texts []string, timeout time.Duration) ([][]float32, error) {
	callCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	var input any = texts
	if len(texts) == 1 {
		input = texts[0]
	}
	body, err := json.Marshal(ollamaEmbedRequest{Model: e.cfg.Model, Input: input})
	if err != nil {
		return nil, fmt.Errorf("marshal embed request: %w", err)
	}

	req, err := http.NewRequestWithContext(callCtx, http.MethodPost, strings.TrimRight(e.cfg.Host, "/")+"/api/embed", bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := e.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("ollama request: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		respBody, _ := io.ReadAll(resp.Body)
		return nil, fmt.Errorf("ollama embed failed with status %d: %s", resp.StatusCode, string(respBody))
	}

	var parsed ollamaEmbedResponse
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		return nil, fmt.Errorf("decode ollama response: %w", err)
	}

	vecs := make([][]float32, len(parsed.Embeddings))
	for i, emb := range parsed.Embeddings {
		v := make([]float32, len(emb))
		for j, f := range emb {
			v[j] = float32(f)
		}
		vecs[i] = normalize(v)
	}
	return vecs, nil
}

// Dimension returns the detected or configured embedding dimension.
func (e *OllamaEncoder) Dimension() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.dims
}

// Name returns the configured model name.
func (e *OllamaEncoder) Name() string {
	return e.cfg.Model
}

// Close shuts down idle HTTP connections.
func (e *OllamaEncoder) Close() error {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.closed = true
	if t, ok := e.client.Transport.(*http.Transport); ok {
		t.CloseIdleConnections()
	}
	return nil
}

// normalize scales v to unit length; a zero vector is returned unchanged.
func normalize(v []float32) []float32 {
	var sumSquares float64
	for _, f := range v {
		sumSquares += float64(f) * float64(f)
	}
	magnitude := math.Sqrt(sumSquares)
	if magnitude == 0 {
		return v
	}
	out := make([]float32, len(v))
	for i, f := range v {
		out[i] = float32(float64(f) / magnitude)
	}
	return out
}
