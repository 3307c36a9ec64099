package chunkstore

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"course-media/apperr"
	"github.com/google/uuid"
)

// Store stages uploaded chunks on local disk, one directory per upload
// session, chunk files named by their index.
type Store struct {
	root string
}

func NewStore(root string) *Store {
	return &Store{root: root}
}

// InitUpload allocates a session id. The timestamp suffix keeps ids unique
// across repeated uploads for the same lecture. No directory is created until
// the first chunk arrives.
func (s *Store) InitUpload(lectureId uuid.UUID) string {
	return fmt.Sprintf("%s-%d", lectureId.String(), time.Now().UnixMilli())
}

// WriteChunk persists one chunk under its index. A duplicate index overwrites
// the previous payload, so client retries are safe in any order. The uploadId
// must match the shape handed out by InitUpload; anything else is rejected
// before a path is built from it.
func (s *Store) WriteChunk(uploadId string, chunkIndex int, chunk io.Reader) error {
	if chunk == nil {
		return &apperr.ValidationError{Msg: "no chunk provided"}
	}
	if chunkIndex < 0 {
		return &apperr.ValidationError{Msg: "chunk index must not be negative"}
	}
	if !validUploadId(uploadId) {
		return &apperr.ValidationError{Msg: "malformed uploadId"}
	}

	dir := s.sessionDir(uploadId)
	if err := os.MkdirAll(dir, os.ModePerm); err != nil {
		return err
	}

	f, err := os.Create(filepath.Join(dir, strconv.Itoa(chunkIndex)))
	if err != nil {
		return err
	}

	_, err = io.Copy(f, chunk)
	if closeErr := f.Close(); err == nil {
		err = closeErr
	}
	return err
}

// Complete verifies chunks 0..totalChunks-1 all exist, then streams them in
// index order into a single output file, deleting each chunk as it is
// consumed and finally the session directory. Any gap aborts before the
// output file is created.
func (s *Store) Complete(uploadId string, totalChunks int) (string, error) {
	if totalChunks <= 0 {
		return "", &apperr.ValidationError{Msg: "totalChunks must be positive"}
	}
	if !validUploadId(uploadId) {
		return "", &apperr.ValidationError{Msg: "malformed uploadId"}
	}

	dir := s.sessionDir(uploadId)
	for i := 0; i < totalChunks; i++ {
		if _, err := os.Stat(filepath.Join(dir, strconv.Itoa(i))); err != nil {
			return "", &apperr.MissingChunkError{UploadId: uploadId, Index: i}
		}
	}

	outPath := filepath.Join(s.root, uploadId+".mp4")
	out, err := os.Create(outPath)
	if err != nil {
		return "", err
	}

	for i := 0; i < totalChunks; i++ {
		chunkPath := filepath.Join(dir, strconv.Itoa(i))
		if err := appendFile(out, chunkPath); err != nil {
			out.Close()
			os.Remove(outPath)
			return "", err
		}
		if err := os.Remove(chunkPath); err != nil {
			out.Close()
			os.Remove(outPath)
			return "", err
		}
	}

	if err := out.Close(); err != nil {
		os.Remove(outPath)
		return "", err
	}

	if err := os.Remove(dir); err != nil {
		return "", err
	}

	return outPath, nil
}

func (s *Store) sessionDir(uploadId string) string {
	return filepath.Join(s.root, uploadId)
}

// validUploadId accepts only the <uuid>-<millis> shape InitUpload produces,
// keeping client-supplied ids from escaping the staging root.
func validUploadId(uploadId string) bool {
	if len(uploadId) < 38 || uploadId[36] != '-' {
		return false
	}
	if _, err := uuid.Parse(uploadId[:36]); err != nil {
		return false
	}
	for _, r := range uploadId[37:] {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}

func appendFile(out *os.File, path string) error {
	in, err := os.Open(path)
	if err != nil {
		return err
	}
	defer in.Close()

	_, err = io.Copy(out, in)
	return err
}
