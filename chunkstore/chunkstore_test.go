package chunkstore

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"course-media/apperr"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestInitUploadUniquePerCall(t *testing.T) {
	s := NewStore(t.TempDir())
	lectureId := uuid.New()

	first := s.InitUpload(lectureId)
	assert.True(t, strings.HasPrefix(first, lectureId.String()+"-"))
}

func TestCompleteOutOfOrderChunks(t *testing.T) {
	s := NewStore(t.TempDir())
	uploadId := s.InitUpload(uuid.New())

	// arrival order 2, 0, 1; reassembly must follow index order
	require.NoError(t, s.WriteChunk(uploadId, 2, bytes.NewBufferString("ccc")))
	require.NoError(t, s.WriteChunk(uploadId, 0, bytes.NewBufferString("aaa")))
	require.NoError(t, s.WriteChunk(uploadId, 1, bytes.NewBufferString("bbb")))

	path, err := s.Complete(uploadId, 3)
	require.NoError(t, err)

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "aaabbbccc", string(data))

	// session directory and chunk files are gone
	_, err = os.Stat(filepath.Join(filepath.Dir(path), uploadId))
	assert.True(t, os.IsNotExist(err))
}

func TestCompleteMissingChunk(t *testing.T) {
	root := t.TempDir()
	s := NewStore(root)
	uploadId := s.InitUpload(uuid.New())

	require.NoError(t, s.WriteChunk(uploadId, 0, bytes.NewBufferString("aaa")))
	require.NoError(t, s.WriteChunk(uploadId, 2, bytes.NewBufferString("ccc")))

	_, err := s.Complete(uploadId, 3)
	var missing *apperr.MissingChunkError
	require.ErrorAs(t, err, &missing)
	assert.Equal(t, 1, missing.Index)

	// no partial output file left behind
	_, statErr := os.Stat(filepath.Join(root, uploadId+".mp4"))
	assert.True(t, os.IsNotExist(statErr))

	// received chunks survive so the client can retry the missing one
	_, statErr = os.Stat(filepath.Join(root, uploadId, "0"))
	assert.NoError(t, statErr)
}

func TestWriteChunkOverwritesDuplicateIndex(t *testing.T) {
	s := NewStore(t.TempDir())
	uploadId := s.InitUpload(uuid.New())

	require.NoError(t, s.WriteChunk(uploadId, 0, bytes.NewBufferString("first")))
	require.NoError(t, s.WriteChunk(uploadId, 0, bytes.NewBufferString("second")))

	path, err := s.Complete(uploadId, 1)
	require.NoError(t, err)

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "second", string(data))
}

func TestWriteChunkValidation(t *testing.T) {
	s := NewStore(t.TempDir())

	var verr *apperr.ValidationError
	assert.ErrorAs(t, s.WriteChunk("u", 0, nil), &verr)
	assert.ErrorAs(t, s.WriteChunk("u", -1, bytes.NewBufferString("x")), &verr)

	_, err := s.Complete("u", 0)
	assert.ErrorAs(t, err, &verr)
}

func TestUploadIdMustMatchIssuedShape(t *testing.T) {
	root := t.TempDir()
	s := NewStore(root)

	var verr *apperr.ValidationError
	for _, uploadId := range []string{
		"../../etc",
		uuid.New().String() + "-123/../..",
		uuid.New().String(),
		"not-a-uuid-1700000000000",
	} {
		assert.ErrorAs(t, s.WriteChunk(uploadId, 0, bytes.NewBufferString("x")), &verr, uploadId)

		_, err := s.Complete(uploadId, 1)
		assert.ErrorAs(t, err, &verr, uploadId)
	}

	// nothing written inside (or relative to) the staging root
	entries, err := os.ReadDir(root)
	require.NoError(t, err)
	assert.Empty(t, entries)

	// ids from InitUpload still pass
	uploadId := s.InitUpload(uuid.New())
	require.NoError(t, s.WriteChunk(uploadId, 0, bytes.NewBufferString("ok")))
}

func TestCompleteSizes(t *testing.T) {
	s := NewStore(t.TempDir())
	uploadId := s.InitUpload(uuid.New())

	require.NoError(t, s.WriteChunk(uploadId, 0, bytes.NewBuffer(make([]byte, 1024))))
	require.NoError(t, s.WriteChunk(uploadId, 1, bytes.NewBuffer(make([]byte, 1024))))
	require.NoError(t, s.WriteChunk(uploadId, 2, bytes.NewBuffer(make([]byte, 512))))

	path, err := s.Complete(uploadId, 3)
	require.NoError(t, err)

	info, err := os.Stat(path)
	require.NoError(t, err)
	assert.Equal(t, int64(2560), info.Size())
}
