package service

import (
	"context"
	"errors"
	"fmt"
	"math"
	"os"
	"path/filepath"

	"course-media/apperr"
	"course-media/config"
	"course-media/constant"
	"course-media/dto"
	"course-media/pkg/rabbitmq"
	"course-media/repository"
	"course-media/storage"
	"github.com/rs/zerolog"
)

// ObjectStorage is the slice of the object store the worker needs.
type ObjectStorage interface {
	Upload(ctx context.Context, localPath, objectName, contentType string) (*storage.UploadResult, error)
	Fetch(ctx context.Context, rawUrl, localPath string) error
	Remove(ctx context.Context, publicId string) error
}

type Service interface {
	Process(ctx context.Context, message dto.TranscodeMessage) error
}

type service struct {
	repo       repository.CatalogRepository
	store      ObjectStorage
	transcoder Transcoder
	notifier   rabbitmq.Notifier
	scratchDir string
	profile    config.Transcode
}

func NewService(
	repo repository.CatalogRepository,
	store ObjectStorage,
	transcoder Transcoder,
	notifier rabbitmq.Notifier,
	cfg *config.Config,
) Service {
	return &service{
		repo:       repo,
		store:      store,
		transcoder: transcoder,
		notifier:   notifier,
		scratchDir: cfg.Upload.ScratchDir,
		profile:    cfg.Transcode,
	}
}

// Process runs one transcode job through DOWNLOADING, TRANSCODING, UPLOADING
// and FINALIZING. On any failure the lecture is marked FAILED and the error
// propagates so the queue's retry policy applies; delivery is at-least-once,
// so a job whose lecture is already READY is acked without work.
func (s *service) Process(ctx context.Context, message dto.TranscodeMessage) (err error) {
	log := zerolog.Ctx(ctx).With().
		Str("job_id", message.JobId.String()).
		Str("lecture_id", message.LectureId.String()).
		Logger()
	log.Info().Msg("processing transcode job")

	job, err := s.repo.FindTranscodeJobById(ctx, message.JobId)
	if err != nil {
		log.Error().Err(err).Msg("failed to find transcode job")
		var notFound *apperr.RecordNotFoundError
		if errors.As(err, &notFound) {
			// no job row to ever succeed against; retrying cannot help
			return errors.Join(apperr.ErrNonRetryable, err)
		}
		return err
	}
	if job.Status == constant.JobStatusCompleted {
		log.Info().Msg("job already completed")
		return nil
	}

	lecture, err := s.repo.FindLectureById(ctx, message.LectureId)
	if err != nil {
		var notFound *apperr.RecordNotFoundError
		if errors.As(err, &notFound) {
			// lecture deleted mid-pipeline, nothing to transcode for
			if updateErr := s.repo.UpdateJobStatus(ctx, constant.JobStatusFailed, message.JobId); updateErr != nil {
				log.Error().Err(updateErr).Msg("failed to update job status")
			}
			return errors.Join(apperr.ErrNonRetryable, err)
		}
		return err
	}
	if lecture.Status == constant.LectureStatusReady {
		log.Info().Msg("lecture already ready")
		return nil
	}

	if err := s.repo.IncrementJobAttempts(ctx, message.JobId); err != nil {
		log.Warn().Err(err).Msg("failed to record job attempt")
	}
	if err := s.repo.UpdateJobStatus(ctx, constant.JobStatusProcessing, message.JobId); err != nil {
		log.Error().Err(err).Msg("failed to update job status")
		return err
	}
	// a retry re-enters from FAILED; put the lecture back in the gateway state
	if err := s.repo.MarkLectureProcessing(ctx, lecture.ID, lecture.RawVideoUrl, lecture.PublicId); err != nil {
		log.Error().Err(err).Msg("failed to mark lecture processing")
		return err
	}

	defer func() {
		if err != nil {
			if updateErr := s.repo.MarkLectureFailed(ctx, message.LectureId); updateErr != nil {
				log.Error().Err(updateErr).Msg("failed to mark lecture failed")
			}
			if updateErr := s.repo.UpdateJobStatus(ctx, constant.JobStatusFailed, message.JobId); updateErr != nil {
				log.Error().Err(updateErr).Msg("failed to update job status")
			}
		}
	}()

	scratch := filepath.Join(s.scratchDir, message.LectureId.String())
	defer os.RemoveAll(scratch)

	if err = os.MkdirAll(scratch, os.ModePerm); err != nil {
		log.Error().Err(err).Msg("failed to create scratch directory")
		return errors.Join(apperr.ErrNonRetryable, err)
	}

	// DOWNLOADING: pull a pre-scaled intermediate to cut transfer volume
	sourcePath := filepath.Join(scratch, "source.mp4")
	sourceUrl := storage.ScaledURL(message.RawVideoUrl, s.profile.IntermediateHeight)
	log.Info().Str("source_url", sourceUrl).Msg("downloading source")
	if err = s.store.Fetch(ctx, sourceUrl, sourcePath); err != nil {
		log.Error().Err(err).Msg("failed to download source")
		return err
	}

	// TRANSCODING
	outputPath := filepath.Join(scratch, "output.mp4")
	log.Info().Msg("transcoding source")
	var totalSeconds float64
	lastPercent := -1
	err = s.transcoder.Transcode(ctx, sourcePath, outputPath, func(event ProgressEvent) {
		totalSeconds = event.TotalSeconds
		percent := progressPercent(event)
		if percent == lastPercent {
			return
		}
		lastPercent = percent
		if progressErr := s.repo.UpdateJobProgress(ctx, message.JobId, percent); progressErr != nil {
			log.Warn().Err(progressErr).Msg("failed to report progress")
		}
	})
	if err != nil {
		log.Error().Err(err).Msg("failed to transcode source")
		return err
	}

	// UPLOADING: a nil result is the failure signal, check it explicitly
	objectName := fmt.Sprintf("courses/%s/video.mp4", message.LectureId.String())
	log.Info().Str("object", objectName).Msg("uploading transcoded video")
	result, uploadErr := s.store.Upload(ctx, outputPath, objectName, "video/mp4")
	if result == nil {
		if uploadErr == nil {
			uploadErr = &apperr.StorageError{Op: "upload", Err: errors.New("no upload result")}
		}
		log.Error().Err(uploadErr).Msg("failed to upload transcoded video")
		err = uploadErr
		return err
	}

	// FINALIZING
	rawPublicId := lecture.PublicId
	if err = s.repo.MarkLectureReady(ctx, message.LectureId, result.Url, result.PublicId, totalSeconds); err != nil {
		log.Error().Err(err).Msg("failed to mark lecture ready")
		return err
	}

	if rawPublicId != "" {
		if removeErr := s.store.Remove(ctx, rawPublicId); removeErr != nil {
			log.Warn().Err(removeErr).Str("public_id", rawPublicId).Msg("failed to remove raw upload")
		}
	}

	if progressErr := s.repo.UpdateJobProgress(ctx, message.JobId, 100); progressErr != nil {
		log.Warn().Err(progressErr).Msg("failed to report progress")
	}
	if err = s.repo.UpdateJobStatus(ctx, constant.JobStatusCompleted, message.JobId); err != nil {
		log.Error().Err(err).Msg("failed to update job status")
		return err
	}

	s.notifier.Notify(ctx, dto.Notification{
		UserId:  message.InstructorId,
		Type:    constant.NotificationVideoReady,
		Message: fmt.Sprintf("Video for lecture %s is ready", message.LectureId.String()),
	})

	log.Info().Str("video_url", result.Url).Msg("transcode job completed")

	return nil
}

func progressPercent(event ProgressEvent) int {
	if event.TotalSeconds <= 0 {
		return 0
	}
	percent := int(math.Floor(event.ElapsedSeconds / event.TotalSeconds * 100))
	if percent > 100 {
		percent = 100
	}
	if percent < 0 {
		percent = 0
	}
	return percent
}
