package entities

import (
	"time"

	"course-media/constant"
	"github.com/google/uuid"
)

// Lecture is the catalog record whose Status is the single source of truth
// for playback readiness. VideoUrl is non-empty iff Status is READY.
type Lecture struct {
	ID            uuid.UUID              `json:"id" gorm:"type:uuid;primary_key;default:gen_random_uuid()"`
	LectureTitle  string                 `json:"lectureTitle" gorm:"type:varchar(255);not null"`
	Status        constant.LectureStatus `json:"status" gorm:"type:varchar(20);not null;default:'AWAITING_MEDIA';index:idx_lectures_status"`
	RawVideoUrl   string                 `json:"rawVideoUrl" gorm:"type:varchar(500)"`
	VideoUrl      string                 `json:"videoUrl" gorm:"type:varchar(500)"`
	PublicId      string                 `json:"publicId" gorm:"type:varchar(500)"`
	Duration      float64                `json:"duration" gorm:"default:0"`
	IsPreviewFree bool                   `json:"isPreviewFree" gorm:"default:false"`
	CreatedAt     time.Time              `json:"created_at"`
	UpdatedAt     time.Time              `json:"updated_at"`
}

func (Lecture) TableName() string {
	return "lectures"
}
