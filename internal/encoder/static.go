package encoder

import (
	"context"
	"hash/fnv"
	"regexp"
	"strings"
)

// StaticDimension is the output width of StaticEncoder.
const StaticDimension = 256

var tokenPattern = regexp.MustCompile(`[a-zA-Z0-9]+`)

// StaticEncoder is a hash-based, dependency-free encoder. It needs no
// network and no model download, at the cost of semantic quality — useful
// for tests and for environments where no local model server is running.
type StaticEncoder struct {
	closed bool
}

var _ Encoder = (*StaticEncoder)(nil)

// NewStaticEncoder constructs a ready-to-use static encoder.
func NewStaticEncoder() *StaticEncoder {
	return &StaticEncoder{}
}

// Load is a no-op; the static encoder has no external state to prepare.
func (e *StaticEncoder) Load(ctx context.Context) error {
	return nil
}

// Embed hashes each text's tokens into a fixed-width vector and normalizes
// it to unit length. Identical input always produces an identical vector.
func (e *StaticEncoder) Embed(ctx context.Context, texts []string) ([][]float32, error) {
	out := make([][]float32, len(texts))
	for i, t := range texts {
		out[i] = normalize(vectorize(t))
	}
	return out, nil
}

func vectorize(text string) []float32 {
	v := make([]float32, StaticDimension)
	trimmed := strings.TrimSpace(text)
	if trimmed == "" {
		return v
	}
	for _, tok := range tokenPattern.FindAllString(strings.ToLower(trimmed), -1) {
		v[hashIndex(tok)] += 1.0
	}
	return v
}

func hashIndex(s string) int {
	h := fnv.New32a()
	_, _ = h.Write([]byte(s))
	return int(h.Sum32() % StaticDimension)
}

// Dimension returns StaticDimension.
func (e *StaticEncoder) Dimension() int {
	return StaticDimension
}

// Name identifies this encoder in index metadata.
func (e *StaticEncoder) Name() string {
	return "static-hash-256"
}

// Close is a no-op.
func (e *StaticEncoder) Close() error {
	e.closed = true
	return nil
}
