package server

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"course-media/config"
	"course-media/constant"
	jobHandler "course-media/handler"
	"course-media/pkg/rabbitmq"
	"course-media/repository"
	"course-media/service"
	"course-media/storage"
	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
)

// RunWorker starts the transcode worker: a consumer pool on the transcode
// queue (sized by server.workers, default 1 so at most one ffmpeg runs per
// slot) plus a minimal health endpoint.
func RunWorker(cfg *config.Config) {
	ctx, cancel := signal.NotifyContext(setupLogger(cfg), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	conn, err := config.NewRabbitMQConn(ctx, cfg.Queue)
	if err != nil {
		zerolog.Ctx(ctx).Fatal().Err(err).Msg("NewRabbitMQConn")
	}

	repo := repository.NewRepo(cfg.DB)
	if err := repo.Migrate(); err != nil {
		zerolog.Ctx(ctx).Fatal().Err(err).Msg("failed to migrate schema")
	}

	store := storage.NewStore(cfg.Storage, cfg.MinIOBucket, cfg.PublicBaseUrl)
	transcoder := service.NewTranscoder(cfg.Transcode)
	notifier := rabbitmq.NewNotifier(conn)
	transcodeService := service.NewService(repo, store, transcoder, notifier, cfg)

	serviceDeps := jobHandler.ServiceDependencies{
		TranscodeService: transcodeService,
	}

	consumer := rabbitmq.NewConsumer(conn, cfg.Queue, cfg.Server.Workers, cfg.Server.MaxTries, jobHandler.JobHandler)
	go func() {
		err := consumer.Consume(ctx, serviceDeps)
		if err != nil && !errors.Is(err, context.Canceled) {
			zerolog.Ctx(ctx).Error().Err(err).Msg("consumer error")
		}
	}()

	if cfg.App.Environment == constant.EnvironmentProduction.String() {
		gin.SetMode(gin.ReleaseMode)
	}
	r := gin.Default()
	addHealth(r)

	handler := http.Server{
		Handler:           r,
		Addr:              fmt.Sprintf(":%s", cfg.Server.HttpPort),
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		zerolog.Ctx(ctx).Info().Int("workers", cfg.Server.Workers).Msg("start transcode worker")
		if err := handler.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			zerolog.Ctx(ctx).Error().Msg(err.Error())
		}
	}()

	<-ctx.Done()
	zerolog.Ctx(ctx).Info().Msg("shutting down worker")
	if err := handler.Close(); err != nil {
		zerolog.Ctx(ctx).Error().Msg(err.Error())
	}

	zerolog.Ctx(ctx).Info().Msg("worker shutdown")
}
