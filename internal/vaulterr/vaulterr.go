// Package vaulterr provides the structured error taxonomy for the search
// engine: seven closed error kinds (VaultRead, Index, StorageMismatch,
// Encoder, IndexUnavailable, Deadline, Config), each carrying a
// human-readable message, optional structured details, and an underlying
// cause.
package vaulterr

import "fmt"

// Kind identifies which of the seven error categories a VaultError belongs
// to. Unlike an open string-code registry, Kind is a closed enum: the
// domain only ever produces these seven.
type Kind string

const (
	// VaultRead is a file I/O or encoding failure while reading a note.
	// Recovered locally: the offending file is skipped, the walk continues.
	VaultRead Kind = "vault_read"

	// Index is a build or incremental-merge failure. Surfaced to the
	// caller; the previous on-disk index is left intact because writes
	// are atomic.
	Index Kind = "index"

	// StorageMismatch means the vault-safety invariant was violated: the
	// storage directory's recorded vault_path does not match the vault
	// being operated on.
	StorageMismatch Kind = "storage_mismatch"

	// Encoder is an embedding-model failure. For queries this fails the
	// query; for indexing it aborts the current batch.
	Encoder Kind = "encoder"

	// IndexUnavailable means a required index (dense or lexical) is
	// missing for the requested pipeline step.
	IndexUnavailable Kind = "index_unavailable"

	// Deadline means a query exceeded its deadline; best-effort partial
	// results are still returned alongside this error.
	Deadline Kind = "deadline"

	// Config is an invalid profile reference or contradictory overrides.
	Config Kind = "config"
)

// VaultError is the structured error type used throughout the engine.
type VaultError struct {
	Kind      Kind
	Message   string
	Details   map[string]string
	Cause     error
	Retryable bool
}

// Error implements the error interface.
func (e *VaultError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("[%s] %s: %v", e.Kind, e.Message, e.Cause)
	}
	return fmt.Sprintf("[%s] %s", e.Kind, e.Message)
}

// Unwrap returns the underlying cause, enabling errors.Is/As.
func (e *VaultError) Unwrap() error {
	return e.Cause
}

// Is matches another VaultError by Kind, so errors.Is(err, &VaultError{Kind: Index})
// works regardless of message or cause.
func (e *VaultError) Is(target error) bool {
	t, ok := target.(*VaultError)
	if !ok {
		return false
	}
	return e.Kind == t.Kind
}

// WithDetail attaches a key-value diagnostic detail and returns the error
// for chaining.
func (e *VaultError) WithDetail(key, value string) *VaultError {
	if e.Details == nil {
		e.Details = make(map[string]string)
	}
	e.Details[key] = value
	return e
}

// New constructs a VaultError of the given kind.
func New(kind Kind, message string, cause error) *VaultError {
	return &VaultError{
		Kind:      kind,
		Message:   message,
		Cause:     cause,
		Retryable: kind == Encoder || kind == Deadline,
	}
}

// Wrap promotes a plain error into a VaultError of the given kind. Returns
// nil if err is nil.
func Wrap(kind Kind, err error) *VaultError {
	if err == nil {
		return nil
	}
	return New(kind, err.Error(), err)
}

// NewStorageMismatch builds the structured error the vault-safety invariant
// (spec §4.5) raises when a storage directory holds an index for a
// different vault.
func NewStorageMismatch(storageDir, storedVault, currentVault string) *VaultError {
	return New(StorageMismatch,
		fmt.Sprintf("storage directory %q holds an index for vault %q, not %q", storageDir, storedVault, currentVault),
		nil,
	).WithDetail("storage_dir", storageDir).
		WithDetail("stored_vault", storedVault).
		WithDetail("current_vault", currentVault)
}

// KindOf extracts the Kind from err if it is (or wraps) a VaultError.
func KindOf(err error) (Kind, bool) {
	var ve *VaultError
	for err != nil {
		if v, ok := err.(*VaultError); ok {
			ve = v
			break
		}
		u, ok := err.(interface{ Unwrap() error })
		if !ok {
			break
		}
		err = u.Unwrap()
	}
	if ve == nil {
		return "", false
	}
	return ve.Kind, true
}

// IsRetryable reports whether err is a VaultError marked retryable.
func IsRetryable(err error) bool {
	var ve *VaultError
	if ok := asVaultError(err, &ve); !ok {
		return false
	}
	return ve.Retryable
}

func asVaultError(err error, target **VaultError) bool {
	for err != nil {
		if v, ok := err.(*VaultError); ok {
			*target = v
			return true
		}
		u, ok := err.(interface{ Unwrap() error })
		if !ok {
			return false
		}
		err = u.Unwrap()
	}
	return false
}
