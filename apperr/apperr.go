package apperr

import (
	"errors"
	"fmt"
)

// ErrNonRetryable marks a failure that must not be retried by the queue.
// Join it with the underlying error via errors.Join.
var ErrNonRetryable = errors.New("non-retryable error")

type ValidationError struct {
	Msg string
}

func (e *ValidationError) Error() string {
	return e.Msg
}

// MissingChunkError aborts reassembly naming the first absent chunk index.
type MissingChunkError struct {
	UploadId string
	Index    int
}

func (e *MissingChunkError) Error() string {
	return fmt.Sprintf("missing chunk %d for upload %s", e.Index, e.UploadId)
}

type StorageError struct {
	Op  string
	Err error
}

func (e *StorageError) Error() string {
	return fmt.Sprintf("storage %s: %v", e.Op, e.Err)
}

func (e *StorageError) Unwrap() error {
	return e.Err
}

type TranscodeError struct {
	ExitCode int
	Output   string
}

func (e *TranscodeError) Error() string {
	return fmt.Sprintf("transcoder exited with code %d", e.ExitCode)
}

type RecordNotFoundError struct {
	Kind string
	Id   string
}

func (e *RecordNotFoundError) Error() string {
	return fmt.Sprintf("%s %s not found", e.Kind, e.Id)
}
