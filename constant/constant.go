package constant

type LectureStatus string

const (
	LectureStatusAwaitingMedia LectureStatus = "AWAITING_MEDIA"
	LectureStatusProcessing    LectureStatus = "PROCESSING"
	LectureStatusReady         LectureStatus = "READY"
	LectureStatusFailed        LectureStatus = "FAILED"
)

type JobStatus string

const (
	JobStatusPending    JobStatus = "PENDING"
	JobStatusProcessing JobStatus = "PROCESSING"
	JobStatusFailed     JobStatus = "FAILED"
	JobStatusCompleted  JobStatus = "COMPLETED"
)

type JobType string

const (
	JobTypeTranscodeVideo JobType = "transcode-video"
)

type NotificationType string

const (
	NotificationVideoReady NotificationType = "VIDEO_READY"
)

type Environment string

const (
	EnvironmentProduction Environment = "production"
	EnvironmentStaging    Environment = "staging"
	EnvironmentDevelop    Environment = "develop"
)

func (e Environment) String() string {
	return string(e)
}
