package server

import (
	"errors"
	"net/http"
	"os"
	"strconv"

	"course-media/apperr"
	"course-media/chunkstore"
	"course-media/constant"
	"course-media/dto"
	"course-media/entities"
	"course-media/pkg/rabbitmq"
	"course-media/repository"
	"course-media/service"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

type UploadController struct {
	repo      repository.CatalogRepository
	chunks    *chunkstore.Store
	store     service.ObjectStorage
	publisher rabbitmq.Publisher
}

func NewUploadController(
	repo repository.CatalogRepository,
	chunks *chunkstore.Store,
	store service.ObjectStorage,
	publisher rabbitmq.Publisher,
) *UploadController {
	return &UploadController{
		repo:      repo,
		chunks:    chunks,
		store:     store,
		publisher: publisher,
	}
}

func (u *UploadController) Register(r gin.IRouter) {
	api := r.Group("/api/v1")
	api.POST("/uploads/init", u.InitUpload)
	api.POST("/uploads/chunk", u.UploadChunk)
	api.POST("/uploads/complete", u.CompleteUpload)

	api.POST("/lectures", u.CreateLecture)
	api.GET("/lectures/:id", u.GetLecture)
	api.PATCH("/lectures/:id", u.EditLecture)
	api.DELETE("/lectures/:id", u.RemoveLecture)
}

func (u *UploadController) InitUpload(c *gin.Context) {
	var req dto.InitUploadRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, &apperr.ValidationError{Msg: err.Error()})
		return
	}

	if _, err := u.repo.FindLectureById(c.Request.Context(), req.LectureId); err != nil {
		respondError(c, err)
		return
	}

	uploadId := u.chunks.InitUpload(req.LectureId)
	c.JSON(http.StatusOK, dto.InitUploadResponse{UploadId: uploadId})
}

func (u *UploadController) UploadChunk(c *gin.Context) {
	uploadId := c.PostForm("uploadId")
	if uploadId == "" {
		respondError(c, &apperr.ValidationError{Msg: "uploadId is required"})
		return
	}
	chunkIndex, err := strconv.Atoi(c.PostForm("chunkIndex"))
	if err != nil {
		respondError(c, &apperr.ValidationError{Msg: "chunkIndex must be an integer"})
		return
	}

	fileHeader, err := c.FormFile("chunk")
	if err != nil {
		respondError(c, &apperr.ValidationError{Msg: "no chunk provided"})
		return
	}

	file, err := fileHeader.Open()
	if err != nil {
		respondError(c, err)
		return
	}
	defer file.Close()

	if err := u.chunks.WriteChunk(uploadId, chunkIndex, file); err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "chunk " + strconv.Itoa(chunkIndex) + " received"})
}

// CompleteUpload reassembles the session, persists the raw file to the object
// store, records the job and enqueues it. It responds once the job is durably
// queued; transcoding itself finishes out of band.
func (u *UploadController) CompleteUpload(c *gin.Context) {
	ctx := c.Request.Context()

	var req dto.CompleteUploadRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, &apperr.ValidationError{Msg: err.Error()})
		return
	}

	lecture, err := u.repo.FindLectureById(ctx, req.LectureId)
	if err != nil {
		respondError(c, err)
		return
	}

	// one in-flight transcode per lecture; concurrent re-uploads are rejected
	if lecture.Status == constant.LectureStatusProcessing {
		c.JSON(http.StatusConflict, gin.H{"error": "a video for this lecture is already processing"})
		return
	}
	active, err := u.repo.FindActiveJobForLecture(ctx, req.LectureId)
	if err != nil {
		respondError(c, err)
		return
	}
	if active != nil {
		c.JSON(http.StatusConflict, gin.H{"error": "a video for this lecture is already processing"})
		return
	}

	localPath, err := u.chunks.Complete(req.UploadId, req.TotalChunks)
	if err != nil {
		respondError(c, err)
		return
	}
	defer os.Remove(localPath)

	objectName := "courses/" + req.LectureId.String() + "/raw/" + req.UploadId + ".mp4"
	result, uploadErr := u.store.Upload(ctx, localPath, objectName, "video/mp4")
	if result == nil {
		if uploadErr == nil {
			uploadErr = &apperr.StorageError{Op: "upload", Err: errors.New("no upload result")}
		}
		respondError(c, uploadErr)
		return
	}

	job := &entities.TranscodeJob{
		ID:        uuid.New(),
		LectureId: req.LectureId,
		Status:    constant.JobStatusPending,
	}
	if err := u.repo.CreateTranscodeJob(ctx, job); err != nil {
		respondError(c, err)
		return
	}

	if err := u.repo.MarkLectureProcessing(ctx, req.LectureId, result.Url, result.PublicId); err != nil {
		respondError(c, err)
		return
	}

	message := dto.TranscodeMessage{
		JobId:        job.ID,
		LectureId:    req.LectureId,
		RawVideoUrl:  result.Url,
		InstructorId: instructorId(c),
	}
	if err := u.publisher.Publish(ctx, constant.JobTypeTranscodeVideo, message); err != nil {
		respondError(c, err)
		return
	}

	zerolog.Ctx(ctx).Info().
		Str("lecture_id", req.LectureId.String()).
		Str("job_id", job.ID.String()).
		Msg("raw video stored, transcode job enqueued")

	c.JSON(http.StatusOK, gin.H{
		"jobId":   job.ID,
		"message": "upload complete, processing started",
	})
}

func (u *UploadController) CreateLecture(c *gin.Context) {
	var req dto.CreateLectureRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, &apperr.ValidationError{Msg: err.Error()})
		return
	}

	lecture := &entities.Lecture{
		ID:           uuid.New(),
		LectureTitle: req.LectureTitle,
		Status:       constant.LectureStatusAwaitingMedia,
	}
	if err := u.repo.CreateLecture(c.Request.Context(), lecture); err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusCreated, lecture)
}

func (u *UploadController) GetLecture(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		respondError(c, &apperr.ValidationError{Msg: "invalid lecture id"})
		return
	}

	lecture, err := u.repo.FindLectureById(c.Request.Context(), id)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, lecture)
}

func (u *UploadController) EditLecture(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		respondError(c, &apperr.ValidationError{Msg: "invalid lecture id"})
		return
	}

	var req dto.EditLectureRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, &apperr.ValidationError{Msg: err.Error()})
		return
	}

	if _, err := u.repo.FindLectureById(c.Request.Context(), id); err != nil {
		respondError(c, err)
		return
	}

	if err := u.repo.UpdateLectureMeta(c.Request.Context(), id, req.LectureTitle, req.IsPreviewFree); err != nil {
		respondError(c, err)
		return
	}

	lecture, err := u.repo.FindLectureById(c.Request.Context(), id)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, lecture)
}

func (u *UploadController) RemoveLecture(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		respondError(c, &apperr.ValidationError{Msg: "invalid lecture id"})
		return
	}

	if _, err := u.repo.FindLectureById(c.Request.Context(), id); err != nil {
		respondError(c, err)
		return
	}

	if err := u.repo.DeleteLecture(c.Request.Context(), id); err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "lecture removed"})
}

// instructorId is filled in by the auth middleware upstream of this service.
func instructorId(c *gin.Context) uuid.UUID {
	id, err := uuid.Parse(c.GetHeader("X-User-Id"))
	if err != nil {
		return uuid.Nil
	}
	return id
}

func respondError(c *gin.Context, err error) {
	var (
		validation *apperr.ValidationError
		missing    *apperr.MissingChunkError
		notFound   *apperr.RecordNotFoundError
		storageErr *apperr.StorageError
	)

	switch {
	case errors.As(err, &validation):
		c.JSON(http.StatusBadRequest, gin.H{"error": validation.Msg})
	case errors.As(err, &missing):
		c.JSON(http.StatusBadRequest, gin.H{"error": missing.Error(), "missingChunk": missing.Index})
	case errors.As(err, &notFound):
		c.JSON(http.StatusNotFound, gin.H{"error": notFound.Error()})
	case errors.As(err, &storageErr):
		c.JSON(http.StatusBadGateway, gin.H{"error": "object storage unavailable"})
	default:
		zerolog.Ctx(c.Request.Context()).Error().Err(err).Msg("request failed")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
	}
}
