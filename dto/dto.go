package dto

import (
	"encoding/json"

	"course-media/constant"
	"github.com/google/uuid"
)

// JobEnvelope is the wire format on the transcode queue. Type selects the
// payload shape the worker unmarshals into.
type JobEnvelope struct {
	Type    constant.JobType `json:"type"`
	Payload json.RawMessage  `json:"payload"`
}

type TranscodeMessage struct {
	JobId        uuid.UUID `json:"jobId"`
	LectureId    uuid.UUID `json:"lectureId"`
	RawVideoUrl  string    `json:"rawVideoUrl"`
	InstructorId uuid.UUID `json:"instructorId"`
}

type Notification struct {
	UserId  uuid.UUID                 `json:"userId"`
	Type    constant.NotificationType `json:"type"`
	Message string                    `json:"message"`
}

type InitUploadRequest struct {
	LectureId uuid.UUID `json:"lectureId" binding:"required"`
}

type InitUploadResponse struct {
	UploadId string `json:"uploadId"`
}

type CompleteUploadRequest struct {
	UploadId    string    `json:"uploadId" binding:"required"`
	TotalChunks int       `json:"totalChunks" binding:"required"`
	LectureId   uuid.UUID `json:"lectureId" binding:"required"`
}

type CreateLectureRequest struct {
	LectureTitle string `json:"lectureTitle" binding:"required"`
}

type EditLectureRequest struct {
	LectureTitle  *string `json:"lectureTitle"`
	IsPreviewFree *bool   `json:"isPreviewFree"`
}
