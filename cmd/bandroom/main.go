package main

import (
	"context"
	"crypto/rand"
	"log"
	"net/http"

	"github.com/bandroom/rehearsal-scheduler-backend/internal/api"
	rehearsals_service "github.com/bandroom/rehearsal-scheduler-backend/internal/business/rehearsals"
	"github.com/bandroom/rehearsal-scheduler-backend/internal/completion"
	"github.com/bandroom/rehearsal-scheduler-backend/internal/config"
	"github.com/bandroom/rehearsal-scheduler-backend/internal/database"
	"github.com/bandroom/rehearsal-scheduler-backend/internal/database/attendance"
	"github.com/bandroom/rehearsal-scheduler-backend/internal/database/availability"
	"github.com/bandroom/rehearsal-scheduler-backend/internal/database/band"
	"github.com/bandroom/rehearsal-scheduler-backend/internal/database/rehearsal"
	"github.com/bandroom/rehearsal-scheduler-backend/internal/database/user"
	"github.com/bandroom/rehearsal-scheduler-backend/internal/database/venue"
	"github.com/bandroom/rehearsal-scheduler-backend/internal/notifications"
	"github.com/bandroom/rehearsal-scheduler-backend/internal/pkg/jwt"
	"github.com/bandroom/rehearsal-scheduler-backend/internal/redis"
	"github.com/xlab/closer"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

func main() {
	ctx := context.Background()

	logger, err := initLogger()
	if err != nil {
		log.Fatalf("unable to initialize logger: %v", err)
	}

	jwts := jwt.NewManger()

	redisPool := redis.NewRedisPool(logger)
	refreshTokens := redis.NewRefreshTokenRepository(redisPool, logger)

	db, err := database.NewPGX(ctx)
	if err != nil {
		log.Fatalf("unable to initialize db: %v", err)
	}

	usersRepository := user.NewRepository()
	bandsRepository := band.NewRepository()
	venuesRepository := venue.NewRepository()
	rehearsalsRepository := rehearsal.NewRepository()
	availabilityRepository := availability.NewRepository()
	attendanceRepository := attendance.NewRepository()

	publisher := notifications.NewPublisher(redisPool, logger)

	rehearsalsService := rehearsals_service.NewService(
		db,
		rehearsalsRepository,
		bandsRepository,
		availabilityRepository,
		attendanceRepository,
		publisher,
		logger,
		rehearsals_service.Options{
			QuorumFraction: config.QuorumFraction(),
			MaxOccurrences: config.ExpansionMaxEntries(),
			CommitTimeout:  config.CommitTimeout(),
		},
	)

	completer := completion.NewCompleter(logger, rehearsalsService, config.CompletionPeriod())
	go completer.Start(ctx)

	api, err := api.NewApi(
		logger,
		rand.Reader,
		jwts,
		refreshTokens,
		db,
		usersRepository,
		bandsRepository,
		venuesRepository,
		rehearsalsRepository,
		rehearsalsService,
	)
	if err != nil {
		logger.Fatalw("error initiating api", "err", err)
	}

	errLogger, err := zap.NewStdLogAt(logger.Desugar(), zap.ErrorLevel)
	if err != nil {
		logger.Fatalw("error initiating server logger", "err", err)
	}

	server := &http.Server{
		Addr:     ":" + config.Port(),
		Handler:  api,
		ErrorLog: errLogger,
	}

	logger.Infow("Started server", "port", config.Port())
	logger.Fatalw("server error", "err", server.ListenAndServe())
}

func initLogger() (*zap.SugaredLogger, error) {
	var logger *zap.Logger
	var err error

	if config.Production() {
		logger, err = zap.NewProduction()
	} else {
		conf := zap.NewDevelopmentConfig()
		conf.EncoderConfig.EncodeLevel = zapcore.CapitalColorLevelEncoder
		logger, err = conf.Build()
	}

	if err != nil {
		return nil, err
	}

	closer.Bind(func() {
		_ = logger.Sync()
	})

	return logger.Sugar(), nil
}
