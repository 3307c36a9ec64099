package entities

import (
	"time"

	"course-media/constant"
	"github.com/google/uuid"
)

// TranscodeJob mirrors one queued transcode for observability. Attempts counts
// deliveries, Progress is a best-effort 0-100 updated mid-execution.
type TranscodeJob struct {
	ID        uuid.UUID          `json:"id" gorm:"type:uuid;primary_key"`
	LectureId uuid.UUID          `json:"lecture_id" gorm:"type:uuid;not null;index:idx_transcode_jobs_lecture"`
	Status    constant.JobStatus `json:"status" gorm:"type:varchar(20);not null;default:'PENDING'"`
	Attempts  int                `json:"attempts" gorm:"default:0"`
	Progress  int                `json:"progress" gorm:"default:0"`
	CreatedAt time.Time          `json:"created_at"`
	UpdatedAt time.Time          `json:"updated_at"`
}

func (TranscodeJob) TableName() string {
	return "transcode_jobs"
}
