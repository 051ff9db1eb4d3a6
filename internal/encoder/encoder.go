// Package encoder provides the embedding interface used by both the index
// builder and the query pipeline. An Encoder is owned by the service and
// handed to callers as an explicit dependency — there is no package-level
// default model, and no hidden global state.
package encoder

import "context"

// Encoder turns text into a fixed-dimension vector. Implementations must be
// safe for concurrent Embed calls from multiple goroutines; serialization
// against a single underlying model process (if one exists) is the
// implementation's job, not the caller's.
type Encoder interface {
	// Load prepares the encoder for use: connecting to a backing service,
	// verifying a model is available, or detecting the output dimension.
	// Load must be idempotent; callers may call it once at startup.
	Load(ctx context.Context) error

	// Embed returns one normalized vector per input text, in order.
	Embed(ctx context.Context, texts []string) ([][]float32, error)

	// Dimension returns the output vector length. It is only meaningful
	// after Load has succeeded.
	Dimension() int

	// Name identifies the encoder (model name, or a fixed label for
	// deterministic encoders) for storage in index metadata.
	Name() string

	// Close releases any resources (HTTP connections, file locks) held by
	// the encoder.
	Close() error
}
