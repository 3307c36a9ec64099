package storage

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"strings"

	"course-media/apperr"
	"github.com/minio/minio-go/v7"
	"github.com/rs/zerolog"
)

type UploadResult struct {
	Url      string
	PublicId string
}

// Store pushes local files to durable object storage and hands back stable
// retrieval URLs. Callers must treat a nil result as the failure signal.
type Store struct {
	client        *minio.Client
	bucket        string
	publicBaseUrl string
	httpClient    *http.Client
}

func NewStore(client *minio.Client, bucket, publicBaseUrl string) *Store {
	return &Store{
		client:        client,
		bucket:        bucket,
		publicBaseUrl: strings.TrimSuffix(publicBaseUrl, "/"),
		httpClient:    http.DefaultClient,
	}
}

// Upload puts a local file into the bucket. On provider error the result is
// nil; the error carries detail for logging but absence of a URL is what
// callers branch on.
func (s *Store) Upload(ctx context.Context, localPath, objectName string, contentType string) (*UploadResult, error) {
	_, err := s.client.FPutObject(ctx, s.bucket, objectName, localPath, minio.PutObjectOptions{
		ContentType: contentType,
	})
	if err != nil {
		zerolog.Ctx(ctx).Error().Err(err).Str("object", objectName).Msg("object upload failed")
		return nil, &apperr.StorageError{Op: "upload", Err: err}
	}

	return &UploadResult{
		Url:      fmt.Sprintf("%s/%s/%s", s.publicBaseUrl, s.bucket, objectName),
		PublicId: objectName,
	}, nil
}

// Fetch streams the content behind url into localPath. It goes over plain
// HTTP so transform-hinted URLs resolve through whatever proxy serves them.
func (s *Store) Fetch(ctx context.Context, rawUrl, localPath string) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawUrl, nil)
	if err != nil {
		return &apperr.StorageError{Op: "fetch", Err: err}
	}

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return &apperr.StorageError{Op: "fetch", Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return &apperr.StorageError{Op: "fetch", Err: fmt.Errorf("unexpected status %d for %s", resp.StatusCode, rawUrl)}
	}

	out, err := os.Create(localPath)
	if err != nil {
		return err
	}

	_, err = io.Copy(out, resp.Body)
	if closeErr := out.Close(); err == nil {
		err = closeErr
	}
	if err != nil {
		return &apperr.StorageError{Op: "fetch", Err: err}
	}
	return nil
}

// ScaledURL derives a retrieval URL requesting a pre-scaled variant by
// encoding the target height as a transform hint. This is a URL convention
// understood by the media proxy, not a separate storage call.
func ScaledURL(rawUrl string, height int) string {
	u, err := url.Parse(rawUrl)
	if err != nil || height <= 0 {
		return rawUrl
	}
	q := u.Query()
	q.Set("tr", fmt.Sprintf("h:%d", height))
	u.RawQuery = q.Encode()
	return u.String()
}

// Remove deletes an object once it is obsolete, e.g. the raw upload after the
// transcoded asset exists.
func (s *Store) Remove(ctx context.Context, publicId string) error {
	err := s.client.RemoveObject(ctx, s.bucket, publicId, minio.RemoveObjectOptions{})
	if err != nil {
		return &apperr.StorageError{Op: "remove", Err: err}
	}
	return nil
}
