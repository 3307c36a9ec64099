package handler

import (
	"context"
	"encoding/json"
	"testing"

	"course-media/apperr"
	"course-media/constant"
	"course-media/dto"
	"github.com/google/uuid"
	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recordingService struct {
	got *dto.TranscodeMessage
	err error
}

func (r *recordingService) Process(_ context.Context, message dto.TranscodeMessage) error {
	r.got = &message
	return r.err
}

func envelopeBody(t *testing.T, jobType constant.JobType, payload any) []byte {
	t.Helper()
	raw, err := json.Marshal(payload)
	require.NoError(t, err)
	body, err := json.Marshal(dto.JobEnvelope{Type: jobType, Payload: raw})
	require.NoError(t, err)
	return body
}

func TestJobHandlerDispatchesTranscode(t *testing.T) {
	svc := &recordingService{}
	message := dto.TranscodeMessage{
		JobId:        uuid.New(),
		LectureId:    uuid.New(),
		RawVideoUrl:  "http://media.local/raw.mp4",
		InstructorId: uuid.New(),
	}

	err := JobHandler(context.Background(), amqp.Delivery{
		Body: envelopeBody(t, constant.JobTypeTranscodeVideo, message),
	}, ServiceDependencies{TranscodeService: svc})

	require.NoError(t, err)
	require.NotNil(t, svc.got)
	assert.Equal(t, message, *svc.got)
}

func TestJobHandlerUnknownTypeIsNonRetryable(t *testing.T) {
	err := JobHandler(context.Background(), amqp.Delivery{
		Body: envelopeBody(t, constant.JobType("reticulate-splines"), struct{}{}),
	}, ServiceDependencies{TranscodeService: &recordingService{}})

	assert.ErrorIs(t, err, apperr.ErrNonRetryable)
}

func TestJobHandlerMalformedBodyIsNonRetryable(t *testing.T) {
	err := JobHandler(context.Background(), amqp.Delivery{
		Body: []byte("{not json"),
	}, ServiceDependencies{TranscodeService: &recordingService{}})

	assert.ErrorIs(t, err, apperr.ErrNonRetryable)
}

func TestJobHandlerPropagatesServiceError(t *testing.T) {
	svc := &recordingService{err: assert.AnError}

	err := JobHandler(context.Background(), amqp.Delivery{
		Body: envelopeBody(t, constant.JobTypeTranscodeVideo, dto.TranscodeMessage{}),
	}, ServiceDependencies{TranscodeService: svc})

	assert.ErrorIs(t, err, assert.AnError)
}
