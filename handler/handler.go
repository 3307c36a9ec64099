package handler

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"course-media/apperr"
	"course-media/constant"
	"course-media/dto"
	"course-media/service"
	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/rs/zerolog"
)

type ServiceDependencies struct {
	TranscodeService service.Service
}

// JobHandler decodes the queue envelope and dispatches on the job type. A
// malformed body or unknown type can never succeed on redelivery, so both are
// marked non-retryable.
func JobHandler(ctx context.Context, msg amqp.Delivery, deps ServiceDependencies) error {
	var envelope dto.JobEnvelope
	if err := json.Unmarshal(msg.Body, &envelope); err != nil {
		zerolog.Ctx(ctx).Error().Err(err).Msg("failed to unmarshal job envelope")
		return errors.Join(apperr.ErrNonRetryable, err)
	}

	switch envelope.Type {
	case constant.JobTypeTranscodeVideo:
		var message dto.TranscodeMessage
		if err := json.Unmarshal(envelope.Payload, &message); err != nil {
			zerolog.Ctx(ctx).Error().Err(err).Msg("failed to unmarshal transcode payload")
			return errors.Join(apperr.ErrNonRetryable, err)
		}
		return deps.TranscodeService.Process(ctx, message)
	default:
		err := fmt.Errorf("unknown job type %q", envelope.Type)
		zerolog.Ctx(ctx).Error().Err(err).Msg("dropping job")
		return errors.Join(apperr.ErrNonRetryable, err)
	}
}
