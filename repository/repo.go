package repository

import (
	"context"
	"database/sql"
	"errors"

	"course-media/apperr"
	"course-media/constant"
	"course-media/entities"
	"github.com/google/uuid"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

type CatalogRepository interface {
	GetDB() *gorm.DB
	Migrate() error

	CreateLecture(ctx context.Context, lecture *entities.Lecture) error
	FindLectureById(ctx context.Context, id uuid.UUID) (*entities.Lecture, error)
	UpdateLectureMeta(ctx context.Context, id uuid.UUID, title *string, isPreviewFree *bool) error
	DeleteLecture(ctx context.Context, id uuid.UUID) error
	MarkLectureProcessing(ctx context.Context, id uuid.UUID, rawVideoUrl, rawPublicId string) error
	MarkLectureReady(ctx context.Context, id uuid.UUID, videoUrl, publicId string, duration float64) error
	MarkLectureFailed(ctx context.Context, id uuid.UUID) error

	CreateTranscodeJob(ctx context.Context, job *entities.TranscodeJob) error
	FindTranscodeJobById(ctx context.Context, id uuid.UUID) (*entities.TranscodeJob, error)
	FindActiveJobForLecture(ctx context.Context, lectureId uuid.UUID) (*entities.TranscodeJob, error)
	UpdateJobStatus(ctx context.Context, status constant.JobStatus, id uuid.UUID) error
	IncrementJobAttempts(ctx context.Context, id uuid.UUID) error
	UpdateJobProgress(ctx context.Context, id uuid.UUID, percent int) error
}

type repo struct {
	db *gorm.DB
}

func NewRepo(db *sql.DB) CatalogRepository {
	gormDB, _ := gorm.Open(postgres.New(postgres.Config{
		Conn: db}),
		&gorm.Config{
			Logger: logger.Default.LogMode(logger.Warn),
		},
	)
	return &repo{
		db: gormDB,
	}
}

func (r *repo) GetDB() *gorm.DB {
	return r.db
}

func (r *repo) Migrate() error {
	return r.GetDB().AutoMigrate(&entities.Lecture{}, &entities.TranscodeJob{})
}

func (r *repo) CreateLecture(ctx context.Context, lecture *entities.Lecture) error {
	return r.GetDB().WithContext(ctx).Create(lecture).Error
}

func (r *repo) FindLectureById(ctx context.Context, id uuid.UUID) (*entities.Lecture, error) {
	lecture := &entities.Lecture{}
	err := r.GetDB().WithContext(ctx).First(lecture, "id = ?", id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, &apperr.RecordNotFoundError{Kind: "lecture", Id: id.String()}
		}
		return nil, err
	}

	return lecture, nil
}

func (r *repo) UpdateLectureMeta(ctx context.Context, id uuid.UUID, title *string, isPreviewFree *bool) error {
	updates := map[string]interface{}{}
	if title != nil {
		updates["lecture_title"] = *title
	}
	if isPreviewFree != nil {
		updates["is_preview_free"] = *isPreviewFree
	}
	if len(updates) == 0 {
		return nil
	}

	return r.GetDB().WithContext(ctx).Model(&entities.Lecture{}).Where("id = ?", id).Updates(updates).Error
}

func (r *repo) DeleteLecture(ctx context.Context, id uuid.UUID) error {
	return r.GetDB().WithContext(ctx).Delete(&entities.Lecture{}, "id = ?", id).Error
}

// MarkLectureProcessing is the sole AWAITING_MEDIA -> PROCESSING transition;
// the final url is cleared so VideoUrl stays empty outside READY.
func (r *repo) MarkLectureProcessing(ctx context.Context, id uuid.UUID, rawVideoUrl, rawPublicId string) error {
	updates := map[string]interface{}{
		"status":        constant.LectureStatusProcessing,
		"raw_video_url": rawVideoUrl,
		"public_id":     rawPublicId,
		"video_url":     "",
	}
	return r.GetDB().WithContext(ctx).Model(&entities.Lecture{}).Where("id = ?", id).Updates(updates).Error
}

// MarkLectureReady clears the obsolete raw url in the same update that sets
// the playable one.
func (r *repo) MarkLectureReady(ctx context.Context, id uuid.UUID, videoUrl, publicId string, duration float64) error {
	updates := map[string]interface{}{
		"status":        constant.LectureStatusReady,
		"video_url":     videoUrl,
		"public_id":     publicId,
		"duration":      duration,
		"raw_video_url": "",
	}
	return r.GetDB().WithContext(ctx).Model(&entities.Lecture{}).Where("id = ?", id).Updates(updates).Error
}

func (r *repo) MarkLectureFailed(ctx context.Context, id uuid.UUID) error {
	updates := map[string]interface{}{
		"status":    constant.LectureStatusFailed,
		"video_url": "",
	}
	return r.GetDB().WithContext(ctx).Model(&entities.Lecture{}).Where("id = ?", id).Updates(updates).Error
}

func (r *repo) CreateTranscodeJob(ctx context.Context, job *entities.TranscodeJob) error {
	return r.GetDB().WithContext(ctx).Create(job).Error
}

func (r *repo) FindTranscodeJobById(ctx context.Context, id uuid.UUID) (*entities.TranscodeJob, error) {
	job := &entities.TranscodeJob{}
	err := r.GetDB().WithContext(ctx).First(job, "id = ?", id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, &apperr.RecordNotFoundError{Kind: "transcode job", Id: id.String()}
		}
		return nil, err
	}

	return job, nil
}

// FindActiveJobForLecture returns the newest job still PENDING or PROCESSING,
// or nil when none is in flight.
func (r *repo) FindActiveJobForLecture(ctx context.Context, lectureId uuid.UUID) (*entities.TranscodeJob, error) {
	job := &entities.TranscodeJob{}
	err := r.GetDB().WithContext(ctx).
		Where("lecture_id = ? AND status IN ?", lectureId, []constant.JobStatus{constant.JobStatusPending, constant.JobStatusProcessing}).
		Order("created_at DESC").
		First(job).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}

	return job, nil
}

func (r *repo) UpdateJobStatus(ctx context.Context, status constant.JobStatus, id uuid.UUID) error {
	return r.GetDB().WithContext(ctx).Model(&entities.TranscodeJob{}).Where("id = ?", id).Update("status", status).Error
}

func (r *repo) IncrementJobAttempts(ctx context.Context, id uuid.UUID) error {
	return r.GetDB().WithContext(ctx).Model(&entities.TranscodeJob{}).Where("id = ?", id).
		Update("attempts", gorm.Expr("attempts + 1")).Error
}

func (r *repo) UpdateJobProgress(ctx context.Context, id uuid.UUID, percent int) error {
	return r.GetDB().WithContext(ctx).Model(&entities.TranscodeJob{}).Where("id = ?", id).Update("progress", percent).Error
}
